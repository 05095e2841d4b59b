package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"liburan-server/src/db"
	"liburan-server/src/models"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func authedRequest(t *testing.T, method, target string, body []byte) *http.Request {
	t.Helper()
	return authedRequestAs(t, 1, method, target, body)
}

func authedRequestAs(t *testing.T, userID int64, method, target string, body []byte) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), "username", "tester")
	ctx = context.WithValue(ctx, "user_id", userID)
	return req.WithContext(ctx)
}

// withGoalParam attaches the goal_id route parameter the way chi would when
// the handler is mounted at /goals/{goal_id}.
func withGoalParam(req *http.Request, goalID int) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("goal_id", strconv.Itoa(goalID))
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

var handlerCacheOnce sync.Once

// setupHandlerDB mirrors the data layer's test setup: skip without a test
// database, migrate, and start from empty tables.
func setupHandlerDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	_ = godotenv.Load("../../.env")
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

	handlerCacheOnce.Do(db.InitCache)
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

type recordingPublisher struct {
	mu      sync.Mutex
	goalIDs []int
}

func (p *recordingPublisher) PublishGoalCompleted(ctx context.Context, goalID, userID int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.goalIDs = append(p.goalIDs, goalID)
	return nil
}

func (p *recordingPublisher) published() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.goalIDs...)
}

func createHandlerTestGoal(t *testing.T, pool *pgxpool.Pool, target, saved string) (userID int64, goalID int) {
	t.Helper()
	ctx := context.Background()
	err := pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash)
		VALUES ('tester', 'tester@example.com', 'x')
		RETURNING id
	`).Scan(&userID)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	err = pool.QueryRow(ctx, `
		INSERT INTO savings_goals (user_id, name, target_amount, saved_amount, from_date, to_date)
		VALUES ($1, 'Bali trip', $2, $3, $4, $5)
		RETURNING id
	`, userID, target, saved,
		time.Now().AddDate(0, 1, 0), time.Now().AddDate(0, 2, 0)).Scan(&goalID)
	if err != nil {
		t.Fatalf("Failed to create test goal: %v", err)
	}
	return userID, goalID
}

func TestGetAllGoalsRejectsInvalidStatusFilter(t *testing.T) {
	// Validation fails before any database access, so a nil pool is fine.
	handler := GetAllGoalsForUser(nil)

	req := authedRequest(t, http.MethodGet, "/api/goals?status=archived", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestCreateGoalRejectsInvalidBody(t *testing.T) {
	handler := CreateGoal(nil)

	req := authedRequest(t, http.MethodPost, "/api/goals", []byte("{not json"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestCreateGoalRejectsMissingName(t *testing.T) {
	handler := CreateGoal(nil)

	body := []byte(`{"name":"","target_amount":100}`)
	req := authedRequest(t, http.MethodPost, "/api/goals", body)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestUpdateGoalPublishesCompletionEvent(t *testing.T) {
	pool := setupHandlerDB(t)
	userID, goalID := createHandlerTestGoal(t, pool, "1000", "800")

	publisher := &recordingPublisher{}
	handler := UpdateGoal(pool, publisher)

	body := []byte(`{"name":"Bali trip","saved_amount":1000,"target_amount":1000,"status":"active"}`)
	req := authedRequestAs(t, userID, http.MethodPut, "/api/goals/"+strconv.Itoa(goalID), body)
	req = withGoalParam(req, goalID)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var updated models.SavingsGoal
	if err := json.NewDecoder(w.Body).Decode(&updated); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if updated.Status != models.GoalStatusCompleted {
		t.Errorf("Expected goal status completed, got %s", updated.Status)
	}

	published := publisher.published()
	if len(published) != 1 || published[0] != goalID {
		t.Errorf("Expected one completion event for goal %d, got %v", goalID, published)
	}
}

func TestUpdateGoalBelowTargetPublishesNothing(t *testing.T) {
	pool := setupHandlerDB(t)
	userID, goalID := createHandlerTestGoal(t, pool, "1000", "800")

	publisher := &recordingPublisher{}
	handler := UpdateGoal(pool, publisher)

	body := []byte(`{"name":"Bali trip","saved_amount":900,"target_amount":1000,"status":"active"}`)
	req := authedRequestAs(t, userID, http.MethodPut, "/api/goals/"+strconv.Itoa(goalID), body)
	req = withGoalParam(req, goalID)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if published := publisher.published(); len(published) != 0 {
		t.Errorf("Expected no completion events below target, got %v", published)
	}
}

func TestAllocateRejectsInvalidBody(t *testing.T) {
	handler := Allocate(nil, nil)

	req := authedRequest(t, http.MethodPost, "/api/savings", []byte("oops"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}
