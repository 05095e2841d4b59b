package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"liburan-server/src/models"
)

func TestCreateGoal(t *testing.T) {
	pool := setupTestDB(t)
	userID := createTestUser(t, pool, "saver")

	goal, err := CreateGoal(context.Background(), pool, userID, CreateGoalInput{
		Name:         "Lombok trip",
		TargetAmount: mustDecimal(t, "2500.50"),
		FromDate:     time.Now().AddDate(0, 1, 0),
		ToDate:       time.Now().AddDate(0, 2, 0),
	})
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	if goal.Status != models.GoalStatusActive {
		t.Errorf("Expected default status active, got %s", goal.Status)
	}
	if !goal.SavedAmount.IsZero() {
		t.Errorf("Expected saved amount 0, got %s", goal.SavedAmount)
	}
	if goal.UserID != userID {
		t.Errorf("Expected goal bound to user %d, got %d", userID, goal.UserID)
	}
}

func TestCreateGoalValidation(t *testing.T) {
	pool := setupTestDB(t)
	userID := createTestUser(t, pool, "saver")

	future := time.Now().AddDate(0, 1, 0)

	_, err := CreateGoal(context.Background(), pool, userID, CreateGoalInput{
		Name:         "no target",
		TargetAmount: mustDecimal(t, "0"),
		FromDate:     future,
		ToDate:       future,
	})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount for zero target, got %v", err)
	}

	// Sub-cent precision is rejected.
	_, err = CreateGoal(context.Background(), pool, userID, CreateGoalInput{
		Name:         "too precise",
		TargetAmount: mustDecimal(t, "100.005"),
		FromDate:     future,
		ToDate:       future,
	})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount for sub-cent target, got %v", err)
	}

	_, err = CreateGoal(context.Background(), pool, userID, CreateGoalInput{
		Name:         "past dates",
		TargetAmount: mustDecimal(t, "100"),
		FromDate:     time.Now().AddDate(0, 0, -1),
		ToDate:       future,
	})
	if !errors.Is(err, ErrInvalidDates) {
		t.Errorf("Expected ErrInvalidDates for past from date, got %v", err)
	}

	_, err = CreateGoal(context.Background(), pool, userID, CreateGoalInput{
		Name:         "bad status",
		TargetAmount: mustDecimal(t, "100"),
		FromDate:     future,
		ToDate:       future,
		Status:       "paused",
	})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Expected ErrInvalidStatus, got %v", err)
	}
}

func TestUpdateGoalCascadesCompletion(t *testing.T) {
	pool := setupTestDB(t)
	userID := createTestUser(t, pool, "saver")
	goalID := createTestGoal(t, pool, userID, "1000", "200")
	createTestEntry(t, pool, userID, goalID, "200", models.EntryStatusPending)

	// A manual edit that pushes saved past the target completes the goal
	// and its entries, same as an allocation would.
	updated, err := UpdateGoal(context.Background(), pool, userID, goalID, UpdateGoalInput{
		Name:         "Bali trip",
		SavedAmount:  mustDecimal(t, "1200"),
		TargetAmount: mustDecimal(t, "1000"),
		Status:       models.GoalStatusActive,
	})
	if err != nil {
		t.Fatalf("UpdateGoal failed: %v", err)
	}
	if updated.Status != models.GoalStatusCompleted {
		t.Errorf("Expected goal status completed, got %s", updated.Status)
	}

	goal := fetchGoal(t, pool, goalID)
	if goal.Status != models.GoalStatusCompleted {
		t.Errorf("Expected stored goal status completed, got %s", goal.Status)
	}
	for i, status := range fetchEntryStatuses(t, pool, goalID) {
		if status != models.EntryStatusCompleted {
			t.Errorf("Expected entry %d status completed, got %s", i, status)
		}
	}
}

func TestUpdateGoalValidation(t *testing.T) {
	pool := setupTestDB(t)
	userID := createTestUser(t, pool, "saver")
	goalID := createTestGoal(t, pool, userID, "1000", "0")

	_, err := UpdateGoal(context.Background(), pool, userID, goalID, UpdateGoalInput{
		Name:         "Bali trip",
		SavedAmount:  mustDecimal(t, "0"),
		TargetAmount: mustDecimal(t, "1000"),
		Status:       "archived",
	})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Expected ErrInvalidStatus, got %v", err)
	}

	_, err = UpdateGoal(context.Background(), pool, userID, 99999, UpdateGoalInput{
		Name:         "Bali trip",
		SavedAmount:  mustDecimal(t, "0"),
		TargetAmount: mustDecimal(t, "1000"),
		Status:       models.GoalStatusActive,
	})
	if !errors.Is(err, ErrGoalNotFound) {
		t.Errorf("Expected ErrGoalNotFound, got %v", err)
	}
}

func TestDeleteGoalCascadesEntries(t *testing.T) {
	pool := setupTestDB(t)
	userID := createTestUser(t, pool, "saver")
	goalID := createTestGoal(t, pool, userID, "1000", "500")
	createTestEntry(t, pool, userID, goalID, "300", models.EntryStatusPending)
	createTestEntry(t, pool, userID, goalID, "200", models.EntryStatusActive)

	deleted, err := DeleteGoal(context.Background(), pool, userID, goalID)
	if err != nil {
		t.Fatalf("DeleteGoal failed: %v", err)
	}
	if deleted.ID != goalID {
		t.Errorf("Expected deleted goal id %d, got %d", goalID, deleted.ID)
	}
	if !deleted.SavedAmount.Equal(mustDecimal(t, "500")) {
		t.Errorf("Expected prior saved amount 500, got %s", deleted.SavedAmount)
	}

	var count int
	if err := pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM savings_entries WHERE goal_id = $1`, goalID).Scan(&count); err != nil {
		t.Fatalf("Failed to count entries: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected zero entries referencing deleted goal, got %d", count)
	}

	if _, err := GetGoalByID(context.Background(), pool, userID, goalID); !errors.Is(err, ErrGoalNotFound) {
		t.Errorf("Expected ErrGoalNotFound after delete, got %v", err)
	}
}

func TestGetAllGoalsForUserFilterAndOrder(t *testing.T) {
	pool := setupTestDB(t)
	userID := createTestUser(t, pool, "saver")
	otherID := createTestUser(t, pool, "other")

	first := createTestGoal(t, pool, userID, "1000", "0")
	second := createTestGoal(t, pool, userID, "2000", "0")
	createTestGoal(t, pool, otherID, "3000", "0")

	_, err := pool.Exec(context.Background(),
		`UPDATE savings_goals SET status = 'completed', created_at = NOW() + INTERVAL '1 second' WHERE id = $1`, second)
	if err != nil {
		t.Fatalf("Failed to mark goal completed: %v", err)
	}

	goals, err := GetAllGoalsForUser(context.Background(), pool, userID, "")
	if err != nil {
		t.Fatalf("GetAllGoalsForUser failed: %v", err)
	}
	if len(goals) != 2 {
		t.Fatalf("Expected 2 goals for user, got %d", len(goals))
	}
	// Most recently created first.
	if goals[0].ID != second || goals[1].ID != first {
		t.Errorf("Expected order [%d %d], got [%d %d]", second, first, goals[0].ID, goals[1].ID)
	}

	completed, err := GetAllGoalsForUser(context.Background(), pool, userID, models.GoalStatusCompleted)
	if err != nil {
		t.Fatalf("GetAllGoalsForUser with filter failed: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != second {
		t.Fatalf("Expected only the completed goal, got %+v", completed)
	}
}
