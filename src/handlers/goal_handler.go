package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	db "liburan-server/src/db/sql"
	"liburan-server/src/models"
	"liburan-server/src/util"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// statusForError maps the db layer's failure taxonomy onto HTTP statuses.
// Unknown errors are store-level failures the client may retry.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, db.ErrGoalNotFound):
		return http.StatusNotFound, "savings goal not found"
	case errors.Is(err, db.ErrTransactionNotFound):
		return http.StatusNotFound, "transaction not found"
	case errors.Is(err, db.ErrNotIncomeSource):
		return http.StatusUnprocessableEntity, "only income transactions can fund an allocation"
	case errors.Is(err, db.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, "transaction amount is not enough"
	case errors.Is(err, db.ErrInvalidAmount),
		errors.Is(err, db.ErrInvalidStatus),
		errors.Is(err, db.ErrInvalidType),
		errors.Is(err, db.ErrInvalidDates),
		errors.Is(err, db.ErrInvalidGoal):
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func CreateGoal(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		var req struct {
			Name         string          `json:"name"`
			TargetAmount decimal.Decimal `json:"target_amount"`
			FromDate     time.Time       `json:"from_date"`
			ToDate       time.Time       `json:"to_date"`
			Status       string          `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode create goal request body for user %d: %v", userID, err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if !util.ValidateGoalName(req.Name) {
			log.Printf("ERROR: Goal name validation failed for user %d", userID)
			http.Error(w, "goal name must be between 1 and 100 characters", http.StatusBadRequest)
			return
		}

		created, err := db.CreateGoal(r.Context(), pool, int(userID), db.CreateGoalInput{
			Name:         req.Name,
			TargetAmount: req.TargetAmount,
			FromDate:     req.FromDate,
			ToDate:       req.ToDate,
			Status:       req.Status,
		})
		if err != nil {
			log.Printf("ERROR: Failed to create goal for user %d: %v", userID, err)
			code, msg := statusForError(err)
			http.Error(w, msg, code)
			return
		}
		log.Printf("INFO: Created goal id %d for user %d, target %s", created.ID, userID, created.TargetAmount)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

func GetAllGoalsForUser(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		status := r.URL.Query().Get("status")
		if status != "" && !models.ValidGoalStatus(status) {
			log.Printf("ERROR: Invalid goal status filter %q for user %d", status, userID)
			http.Error(w, "Invalid status parameter. Must be 'active', 'completed', or 'cancelled'.", http.StatusBadRequest)
			return
		}

		goals, err := db.GetAllGoalsForUser(r.Context(), pool, int(userID), status)
		if err != nil {
			log.Printf("ERROR: Failed to get goals for user %d: %v", userID, err)
			http.Error(w, "failed to get goals", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(goals)
	}
}

func GetGoalByID(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		goalIDStr := chi.URLParam(r, "goal_id")
		goalID, err := strconv.Atoi(goalIDStr)
		if err != nil {
			log.Printf("ERROR: Invalid goal id param: %s", goalIDStr)
			http.Error(w, "invalid goal id", http.StatusBadRequest)
			return
		}
		goal, err := db.GetGoalByID(r.Context(), pool, int(userID), goalID)
		if err != nil {
			log.Printf("ERROR: Goal id %d not found for user %d: %v", goalID, userID, err)
			code, msg := statusForError(err)
			http.Error(w, msg, code)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(goal)
	}
}

// UpdateGoal overwrites a goal from the manual edit path. Like Allocate, it
// publishes the goal-completed event only after the update has committed with
// a completed status; publish failures are logged and never fail the request.
func UpdateGoal(pool *pgxpool.Pool, publisher GoalEventPublisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		goalIDStr := chi.URLParam(r, "goal_id")
		goalID, err := strconv.Atoi(goalIDStr)
		if err != nil {
			log.Printf("ERROR: Invalid goal id param: %s", goalIDStr)
			http.Error(w, "invalid goal id", http.StatusBadRequest)
			return
		}
		var req struct {
			Name         string          `json:"name"`
			SavedAmount  decimal.Decimal `json:"saved_amount"`
			TargetAmount decimal.Decimal `json:"target_amount"`
			Status       string          `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode update goal request body for user %d: %v", userID, err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if !util.ValidateGoalName(req.Name) {
			log.Printf("ERROR: Goal name validation failed for user %d", userID)
			http.Error(w, "goal name must be between 1 and 100 characters", http.StatusBadRequest)
			return
		}

		updated, err := db.UpdateGoal(r.Context(), pool, int(userID), goalID, db.UpdateGoalInput{
			Name:         req.Name,
			SavedAmount:  req.SavedAmount,
			TargetAmount: req.TargetAmount,
			Status:       req.Status,
		})
		if err != nil {
			log.Printf("ERROR: Failed to update goal id %d for user %d: %v", goalID, userID, err)
			code, msg := statusForError(err)
			http.Error(w, msg, code)
			return
		}
		log.Printf("INFO: Updated goal id %d for user %d, status %s", updated.ID, userID, updated.Status)

		if updated.Status == models.GoalStatusCompleted && publisher != nil {
			if err := publisher.PublishGoalCompleted(r.Context(), updated.ID, int(userID)); err != nil {
				log.Printf("ERROR: Failed to publish goal completed event for goal %d: %v", updated.ID, err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(updated)
	}
}

func DeleteGoal(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		goalIDStr := chi.URLParam(r, "goal_id")
		goalID, err := strconv.Atoi(goalIDStr)
		if err != nil {
			log.Printf("ERROR: Invalid goal id param: %s", goalIDStr)
			http.Error(w, "invalid goal id", http.StatusBadRequest)
			return
		}
		deleted, err := db.DeleteGoal(r.Context(), pool, int(userID), goalID)
		if err != nil {
			log.Printf("ERROR: Failed to delete goal id %d for user %d: %v", goalID, userID, err)
			code, msg := statusForError(err)
			http.Error(w, msg, code)
			return
		}
		log.Printf("INFO: Deleted goal id %d for user %d", goalID, userID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(deleted)
	}
}
