package db

import (
	"context"

	"liburan-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

func GetUserSettings(ctx context.Context, pool *pgxpool.Pool, userID int) (*models.UserSettings, error) {
	// Settings row is created lazily with the default currency.
	query := `
		INSERT INTO user_settings (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, currency
	`
	var s models.UserSettings
	if err := pool.QueryRow(ctx, query, userID).Scan(&s.UserID, &s.Currency); err != nil {
		return nil, err
	}
	return &s, nil
}

func UpdateUserSettings(ctx context.Context, pool *pgxpool.Pool, userID int, currency string) (*models.UserSettings, error) {
	query := `
		INSERT INTO user_settings (user_id, currency)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET currency = EXCLUDED.currency
		RETURNING user_id, currency
	`
	var s models.UserSettings
	if err := pool.QueryRow(ctx, query, userID, currency).Scan(&s.UserID, &s.Currency); err != nil {
		return nil, err
	}
	return &s, nil
}
