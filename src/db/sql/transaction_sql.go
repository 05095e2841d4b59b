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

type CreateTransactionInput struct {
	Amount      decimal.Decimal
	Type        string
	Description string
	Date        time.Time
}

func CreateTransaction(ctx context.Context, pool *pgxpool.Pool, userID int, input CreateTransactionInput) (*models.Transaction, error) {
	if input.Amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if input.Type != models.TransactionTypeIncome && input.Type != models.TransactionTypeExpense {
		return nil, ErrInvalidType
	}

	query := `
		INSERT INTO transactions (user_id, amount, type, description, date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, amount, type, description, date, created_at
	`
	var t models.Transaction
	err := pool.QueryRow(ctx, query, userID, input.Amount, input.Type, input.Description, input.Date).
		Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Description, &t.Date, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	db.ClearAllTransactionCaches()
	return &t, nil
}

func GetTransactionByID(ctx context.Context, pool *pgxpool.Pool, userID, transactionID int) (*models.Transaction, error) {
	query := `
		SELECT id, user_id, amount, type, description, date, created_at
		FROM transactions WHERE id = $1 AND user_id = $2
	`
	var t models.Transaction
	err := pool.QueryRow(ctx, query, transactionID, userID).
		Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Description, &t.Date, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &t, nil
}

func GetAllTransactionsForUser(ctx context.Context, pool *pgxpool.Pool, userID int) ([]models.Transaction, error) {
	cacheKey := fmt.Sprintf("transactions:%d", userID)
	if cached, found := db.Cache.Get(cacheKey); found {
		if txns, ok := cached.([]models.Transaction); ok {
			return txns, nil
		}
	}

	query := `
		SELECT id, user_id, amount, type, description, date, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY date DESC
	`
	rows, err := pool.Query(ctx, query, userID)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}

	db.SetTransactionCache(cacheKey, txns)
	return txns, nil
}

func DeleteTransaction(ctx context.Context, pool *pgxpool.Pool, userID, transactionID int) error {
	query := `DELETE FROM transactions WHERE id = $1 AND user_id = $2`
	cmd, err := pool.Exec(ctx, query, transactionID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	db.ClearAllTransactionCaches()
	return nil
}

func GetTransactionSummary(ctx context.Context, pool *pgxpool.Pool, userID int) (*models.TransactionSummary, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'income'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'expense'), 0)
		FROM transactions
		WHERE user_id = $1
	`
	var s models.TransactionSummary
	if err := pool.QueryRow(ctx, query, userID).Scan(&s.Income, &s.Expense); err != nil {
		return nil, err
	}
	s.Balance = s.Income.Sub(s.Expense)
	return &s, nil
}
