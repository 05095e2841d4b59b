package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"liburan-server/src/db"
	"liburan-server/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type CreateGoalInput struct {
	Name         string
	TargetAmount decimal.Decimal
	FromDate     time.Time
	ToDate       time.Time
	Status       string
}

type UpdateGoalInput struct {
	Name         string
	SavedAmount  decimal.Decimal
	TargetAmount decimal.Decimal
	Status       string
}

func CreateGoal(ctx context.Context, pool *pgxpool.Pool, userID int, input CreateGoalInput) (*models.SavingsGoal, error) {
	if !validTargetAmount(input.TargetAmount) {
		return nil, ErrInvalidAmount
	}
	now := time.Now()
	if !input.FromDate.After(now) || !input.ToDate.After(now) {
		return nil, ErrInvalidDates
	}
	status := input.Status
	if status == "" {
		status = models.GoalStatusActive
	}
	if !models.ValidGoalStatus(status) {
		return nil, ErrInvalidStatus
	}

	query := `
		INSERT INTO savings_goals (user_id, name, target_amount, from_date, to_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, name, target_amount, saved_amount, status, from_date, to_date, created_at, updated_at
	`
	var g models.SavingsGoal
	err := pool.QueryRow(ctx, query, userID, input.Name, input.TargetAmount, input.FromDate, input.ToDate, status).
		Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.SavedAmount, &g.Status,
			&g.FromDate, &g.ToDate, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	db.ClearAllGoalCaches()
	return &g, nil
}

func GetGoalByID(ctx context.Context, pool *pgxpool.Pool, userID, goalID int) (*models.SavingsGoal, error) {
	query := `
		SELECT id, user_id, name, target_amount, saved_amount, status, from_date, to_date, created_at, updated_at
		FROM savings_goals WHERE id = $1 AND user_id = $2
	`
	var g models.SavingsGoal
	err := pool.QueryRow(ctx, query, goalID, userID).
		Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.SavedAmount, &g.Status,
			&g.FromDate, &g.ToDate, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}
	return &g, nil
}

// GetAllGoalsForUser lists the user's goals newest first, optionally filtered
// by status. Results are cached until the next goal write.
func GetAllGoalsForUser(ctx context.Context, pool *pgxpool.Pool, userID int, status string) ([]models.SavingsGoal, error) {
	cacheKey := fmt.Sprintf("goals:%d:%s", userID, status)
	if cached, found := db.Cache.Get(cacheKey); found {
		if goals, ok := cached.([]models.SavingsGoal); ok {
			return goals, nil
		}
	}

	query := `
		SELECT id, user_id, name, target_amount, saved_amount, status, from_date, to_date, created_at, updated_at
		FROM savings_goals
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`
	rows, err := pool.Query(ctx, query, userID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []models.SavingsGoal
	for rows.Next() {
		var g models.SavingsGoal
		err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.SavedAmount, &g.Status,
			&g.FromDate, &g.ToDate, &g.CreatedAt, &g.UpdatedAt)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	db.SetGoalCache(cacheKey, goals)
	return goals, nil
}

// UpdateGoal overwrites the named fields directly; this is the manual
// administrative edit path, independent of allocations. The completion check
// re-runs afterwards, so an edit that pushes saved_amount past the target
// cascades the goal and its entries to completed just like an allocation.
func UpdateGoal(ctx context.Context, pool *pgxpool.Pool, userID, goalID int, input UpdateGoalInput) (*models.SavingsGoal, error) {
	if !models.ValidGoalStatus(input.Status) {
		return nil, ErrInvalidStatus
	}
	if !validTargetAmount(input.TargetAmount) {
		return nil, ErrInvalidAmount
	}
	if input.SavedAmount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin goal update: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE savings_goals
		SET name = $1, saved_amount = $2, target_amount = $3, status = $4, updated_at = NOW()
		WHERE id = $5 AND user_id = $6
		RETURNING id, user_id, name, target_amount, saved_amount, status, from_date, to_date, created_at, updated_at
	`
	var g models.SavingsGoal
	err = tx.QueryRow(ctx, query, input.Name, input.SavedAmount, input.TargetAmount, input.Status, goalID, userID).
		Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.SavedAmount, &g.Status,
			&g.FromDate, &g.ToDate, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("update goal: %w", err)
	}

	if g.SavedAmount.GreaterThanOrEqual(g.TargetAmount) {
		if err := completeGoal(ctx, tx, g.ID); err != nil {
			return nil, err
		}
		g.Status = models.GoalStatusCompleted
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit goal update: %w", err)
	}

	db.ClearAllGoalCaches()
	db.ClearAllEntryCaches()
	return &g, nil
}

// DeleteGoal removes the goal's entries and then the goal itself in one
// transaction, returning the goal's prior state. Entries never outlive their
// goal.
func DeleteGoal(ctx context.Context, pool *pgxpool.Pool, userID, goalID int) (*models.SavingsGoal, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin goal delete: %w", err)
	}
	defer tx.Rollback(ctx)

	var g models.SavingsGoal
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, name, target_amount, saved_amount, status, from_date, to_date, created_at, updated_at
		FROM savings_goals
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, goalID, userID).
		Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.SavedAmount, &g.Status,
			&g.FromDate, &g.ToDate, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("lock goal: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM savings_entries WHERE goal_id = $1`, goalID); err != nil {
		return nil, fmt.Errorf("delete goal entries: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM savings_goals WHERE id = $1`, goalID); err != nil {
		return nil, fmt.Errorf("delete goal: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit goal delete: %w", err)
	}

	db.ClearAllGoalCaches()
	db.ClearAllEntryCaches()
	return &g, nil
}

// validTargetAmount requires a positive amount at currency precision.
func validTargetAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Round(2))
}
