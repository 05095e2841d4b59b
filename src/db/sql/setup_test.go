package db

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"liburan-server/src/db"
	"liburan-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

var cacheOnce sync.Once

// setupTestDB connects to the test database, runs migrations and truncates
// all tables. Tests are skipped when POSTGRES_TEST_URL is not configured.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	_ = godotenv.Load("../../../.env")
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL is not set")
	}

	if err := db.RunMigrations(connStr); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	pool, err := db.Connect(context.Background(), connStr)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	cacheOnce.Do(db.InitCache)
	db.ClearAllGoalCaches()
	db.ClearAllEntryCaches()
	db.ClearAllTransactionCaches()

	_, err = pool.Exec(context.Background(),
		"TRUNCATE TABLE savings_entries, savings_goals, transactions, user_settings, users RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}

	return pool
}

func createTestUser(t *testing.T, pool *pgxpool.Pool, username string) int {
	t.Helper()
	var id int
	err := pool.QueryRow(context.Background(), `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $1 || '@example.com', 'x')
		RETURNING id
	`, username).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return id
}

func createTestGoal(t *testing.T, pool *pgxpool.Pool, userID int, target, saved string) int {
	t.Helper()
	var id int
	err := pool.QueryRow(context.Background(), `
		INSERT INTO savings_goals (user_id, name, target_amount, saved_amount, from_date, to_date)
		VALUES ($1, 'Bali trip', $2, $3, $4, $5)
		RETURNING id
	`, userID, mustDecimal(t, target), mustDecimal(t, saved),
		time.Now().AddDate(0, 1, 0), time.Now().AddDate(0, 2, 0)).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test goal: %v", err)
	}
	return id
}

func createTestTransaction(t *testing.T, pool *pgxpool.Pool, userID int, amount, txnType string) int {
	t.Helper()
	var id int
	err := pool.QueryRow(context.Background(), `
		INSERT INTO transactions (user_id, amount, type, description, date)
		VALUES ($1, $2, $3, 'salary', NOW())
		RETURNING id
	`, userID, mustDecimal(t, amount), txnType).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}
	return id
}

func createTestEntry(t *testing.T, pool *pgxpool.Pool, userID, goalID int, amount, status string) int {
	t.Helper()
	var id int
	err := pool.QueryRow(context.Background(), `
		INSERT INTO savings_entries (user_id, goal_id, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, userID, goalID, mustDecimal(t, amount), status).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test entry: %v", err)
	}
	return id
}

func fetchGoal(t *testing.T, pool *pgxpool.Pool, goalID int) models.SavingsGoal {
	t.Helper()
	var g models.SavingsGoal
	err := pool.QueryRow(context.Background(), `
		SELECT id, user_id, name, target_amount, saved_amount, status, from_date, to_date, created_at, updated_at
		FROM savings_goals WHERE id = $1
	`, goalID).Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.SavedAmount, &g.Status,
		&g.FromDate, &g.ToDate, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to fetch goal %d: %v", goalID, err)
	}
	return g
}

func fetchTransactionAmount(t *testing.T, pool *pgxpool.Pool, transactionID int) decimal.Decimal {
	t.Helper()
	var amount decimal.Decimal
	err := pool.QueryRow(context.Background(),
		`SELECT amount FROM transactions WHERE id = $1`, transactionID).Scan(&amount)
	if err != nil {
		t.Fatalf("Failed to fetch transaction %d: %v", transactionID, err)
	}
	return amount
}

func fetchEntryStatuses(t *testing.T, pool *pgxpool.Pool, goalID int) []string {
	t.Helper()
	rows, err := pool.Query(context.Background(),
		`SELECT status FROM savings_entries WHERE goal_id = $1 ORDER BY id`, goalID)
	if err != nil {
		t.Fatalf("Failed to fetch entry statuses: %v", err)
	}
	defer rows.Close()

	var statuses []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			t.Fatalf("Failed to scan entry status: %v", err)
		}
		statuses = append(statuses, s)
	}
	return statuses
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("Invalid decimal %q: %v", s, err)
	}
	return d
}
