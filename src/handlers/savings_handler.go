package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	db "liburan-server/src/db/sql"
	"liburan-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// GoalEventPublisher emits goal lifecycle events. *events.Publisher satisfies
// it; handlers treat a nil publisher as messaging-not-configured.
type GoalEventPublisher interface {
	PublishGoalCompleted(ctx context.Context, goalID, userID int) error
}

// Allocate moves money from an optional income transaction into a savings
// goal. The goal-completed event is published only after the allocation has
// committed; publish failures are logged and never fail the request.
func Allocate(pool *pgxpool.Pool, publisher GoalEventPublisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		var req struct {
			GoalID        int             `json:"goal_id"`
			Amount        decimal.Decimal `json:"amount"`
			Description   string          `json:"description"`
			TransactionID *int            `json:"transaction_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode allocation request body for user %d: %v", userID, err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		entry, err := db.AllocateToGoal(r.Context(), pool, int(userID), db.AllocationInput{
			GoalID:        req.GoalID,
			Amount:        req.Amount,
			Description:   req.Description,
			TransactionID: req.TransactionID,
		})
		if err != nil {
			log.Printf("ERROR: Failed to allocate %s to goal %d for user %d: %v", req.Amount, req.GoalID, userID, err)
			code, msg := statusForError(err)
			http.Error(w, msg, code)
			return
		}

		log.Printf("INFO: Allocated %s to goal %d for user %d, entry id %d", entry.Amount, entry.GoalID, userID, entry.ID)

		if entry.Status == models.EntryStatusCompleted && publisher != nil {
			if err := publisher.PublishGoalCompleted(r.Context(), entry.GoalID, int(userID)); err != nil {
				log.Printf("ERROR: Failed to publish goal completed event for goal %d: %v", entry.GoalID, err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(entry)
	}
}

func GetEntriesForUser(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		entries, err := db.GetEntriesForUser(r.Context(), pool, int(userID))
		if err != nil {
			log.Printf("ERROR: Failed to get savings entries for user %d: %v", userID, err)
			http.Error(w, "failed to get savings entries", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entries)
	}
}

func GetIncomeSources(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		txns, err := db.GetIncomeSources(r.Context(), pool, int(userID))
		if err != nil {
			log.Printf("ERROR: Failed to get income sources for user %d: %v", userID, err)
			http.Error(w, "failed to get income sources", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(txns)
	}
}
