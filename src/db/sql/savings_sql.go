package db

import (
	"context"
	"errors"
	"fmt"

	"liburan-server/src/db"
	"liburan-server/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// DefaultEntryDescription is used when an allocation does not carry its own
// description.
const DefaultEntryDescription = "Tabungan dari transaksi income"

type AllocationInput struct {
	GoalID        int
	Amount        decimal.Decimal
	Description   string
	TransactionID *int
}

// AllocateToGoal moves money into a savings goal and returns the created
// entry. When a source transaction is cited its amount is debited first. The
// debit, the entry insert, the saved-amount credit and the completion cascade
// commit as one transaction; the goal row (and the source transaction row)
// are locked FOR UPDATE so concurrent allocations against the same goal
// serialize instead of losing updates.
func AllocateToGoal(ctx context.Context, pool *pgxpool.Pool, userID int, input AllocationInput) (*models.SavingsEntry, error) {
	if input.GoalID == 0 {
		return nil, ErrInvalidGoal
	}
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin allocation: %w", err)
	}
	defer tx.Rollback(ctx)

	var goal models.SavingsGoal
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, name, target_amount, saved_amount, status, from_date, to_date, created_at, updated_at
		FROM savings_goals
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, input.GoalID, userID).Scan(
		&goal.ID, &goal.UserID, &goal.Name, &goal.TargetAmount, &goal.SavedAmount,
		&goal.Status, &goal.FromDate, &goal.ToDate, &goal.CreatedAt, &goal.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("lock goal: %w", err)
	}

	if input.TransactionID != nil {
		var txnType string
		var txnAmount decimal.Decimal
		err = tx.QueryRow(ctx, `
			SELECT type, amount
			FROM transactions
			WHERE id = $1 AND user_id = $2
			FOR UPDATE
		`, *input.TransactionID, userID).Scan(&txnType, &txnAmount)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrTransactionNotFound
			}
			return nil, fmt.Errorf("lock source transaction: %w", err)
		}
		if txnType != models.TransactionTypeIncome {
			return nil, ErrNotIncomeSource
		}
		if txnAmount.LessThan(input.Amount) {
			return nil, ErrInsufficientFunds
		}

		_, err = tx.Exec(ctx, `
			UPDATE transactions SET amount = amount - $1 WHERE id = $2
		`, input.Amount, *input.TransactionID)
		if err != nil {
			return nil, fmt.Errorf("debit source transaction: %w", err)
		}
	}

	description := input.Description
	if description == "" {
		description = DefaultEntryDescription
	}

	var entry models.SavingsEntry
	err = tx.QueryRow(ctx, `
		INSERT INTO savings_entries (user_id, goal_id, amount, description, status, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, goal_id, amount, description, status, transaction_id, created_at
	`, userID, input.GoalID, input.Amount, description, models.EntryStatusPending, input.TransactionID).
		Scan(&entry.ID, &entry.UserID, &entry.GoalID, &entry.Amount, &entry.Description,
			&entry.Status, &entry.TransactionID, &entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create savings entry: %w", err)
	}

	savedAmount := goal.SavedAmount.Add(input.Amount)
	_, err = tx.Exec(ctx, `
		UPDATE savings_goals SET saved_amount = $1, updated_at = NOW() WHERE id = $2
	`, savedAmount, goal.ID)
	if err != nil {
		return nil, fmt.Errorf("credit goal: %w", err)
	}

	// Completion check runs on the post-credit amount. The transition is
	// one-way: raising the target later does not reactivate the goal.
	if savedAmount.GreaterThanOrEqual(goal.TargetAmount) {
		if err := completeGoal(ctx, tx, goal.ID); err != nil {
			return nil, err
		}
		entry.Status = models.EntryStatusCompleted
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit allocation: %w", err)
	}

	db.ClearAllGoalCaches()
	db.ClearAllEntryCaches()
	if input.TransactionID != nil {
		db.ClearAllTransactionCaches()
	}
	return &entry, nil
}

// completeGoal marks the goal and every one of its entries completed inside
// the caller's transaction.
func completeGoal(ctx context.Context, tx pgx.Tx, goalID int) error {
	_, err := tx.Exec(ctx, `
		UPDATE savings_goals SET status = $1, updated_at = NOW() WHERE id = $2
	`, models.GoalStatusCompleted, goalID)
	if err != nil {
		return fmt.Errorf("complete goal: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE savings_entries SET status = $1 WHERE goal_id = $2
	`, models.EntryStatusCompleted, goalID)
	if err != nil {
		return fmt.Errorf("complete goal entries: %w", err)
	}
	return nil
}

func GetEntriesForUser(ctx context.Context, pool *pgxpool.Pool, userID int) ([]models.SavingsEntry, error) {
	cacheKey := fmt.Sprintf("entries:%d", userID)
	if cached, found := db.Cache.Get(cacheKey); found {
		if entries, ok := cached.([]models.SavingsEntry); ok {
			return entries, nil
		}
	}

	query := `
		SELECT id, user_id, goal_id, amount, description, status, transaction_id, created_at
		FROM savings_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.SavingsEntry
	for rows.Next() {
		var e models.SavingsEntry
		err := rows.Scan(&e.ID, &e.UserID, &e.GoalID, &e.Amount, &e.Description,
			&e.Status, &e.TransactionID, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	db.SetEntryCache(cacheKey, entries)
	return entries, nil
}

// GetIncomeSources returns the user's income transactions usable as
// allocation sources. Zero-balance transactions are not filtered out;
// sufficiency is validated again at allocation time.
func GetIncomeSources(ctx context.Context, pool *pgxpool.Pool, userID int) ([]models.Transaction, error) {
	query := `
		SELECT id, user_id, amount, type, description, date, created_at
		FROM transactions
		WHERE user_id = $1 AND type = $2
		ORDER BY date DESC
	`
	rows, err := pool.Query(ctx, query, userID, models.TransactionTypeIncome)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Description, &t.Date, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
