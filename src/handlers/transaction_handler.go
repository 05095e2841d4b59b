package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	db "liburan-server/src/db/sql"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func CreateTransaction(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		var req struct {
			Amount      decimal.Decimal `json:"amount"`
			Type        string          `json:"type"`
			Description string          `json:"description"`
			Date        time.Time       `json:"date"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode create transaction request body for user %d: %v", userID, err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if req.Date.IsZero() {
			req.Date = time.Now()
		}

		created, err := db.CreateTransaction(r.Context(), pool, int(userID), db.CreateTransactionInput{
			Amount:      req.Amount,
			Type:        req.Type,
			Description: req.Description,
			Date:        req.Date,
		})
		if err != nil {
			log.Printf("ERROR: Failed to create transaction for user %d: %v", userID, err)
			code, msg := statusForError(err)
			http.Error(w, msg, code)
			return
		}
		log.Printf("INFO: Created %s transaction id %d for user %d", created.Type, created.ID, userID)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

func GetAllTransactionsForUser(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		txns, err := db.GetAllTransactionsForUser(r.Context(), pool, int(userID))
		if err != nil {
			log.Printf("ERROR: Failed to get transactions for user %d: %v", userID, err)
			http.Error(w, "failed to get transactions", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(txns)
	}
}

func GetTransactionByID(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		transactionIDStr := chi.URLParam(r, "transaction_id")
		transactionID, err := strconv.Atoi(transactionIDStr)
		if err != nil {
			log.Printf("ERROR: Invalid transaction id param: %s", transactionIDStr)
			http.Error(w, "invalid transaction id", http.StatusBadRequest)
			return
		}
		txn, err := db.GetTransactionByID(r.Context(), pool, int(userID), transactionID)
		if err != nil {
			log.Printf("ERROR: Transaction id %d not found for user %d: %v", transactionID, userID, err)
			code, msg := statusForError(err)
			http.Error(w, msg, code)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(txn)
	}
}

func DeleteTransaction(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		transactionIDStr := chi.URLParam(r, "transaction_id")
		transactionID, err := strconv.Atoi(transactionIDStr)
		if err != nil {
			log.Printf("ERROR: Invalid transaction id param: %s", transactionIDStr)
			http.Error(w, "invalid transaction id", http.StatusBadRequest)
			return
		}
		if err := db.DeleteTransaction(r.Context(), pool, int(userID), transactionID); err != nil {
			log.Printf("ERROR: Failed to delete transaction id %d for user %d: %v", transactionID, userID, err)
			code, msg := statusForError(err)
			http.Error(w, msg, code)
			return
		}
		log.Printf("INFO: Deleted transaction id %d for user %d", transactionID, userID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "transaction deleted"})
	}
}

func GetTransactionSummary(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		summary, err := db.GetTransactionSummary(r.Context(), pool, int(userID))
		if err != nil {
			log.Printf("ERROR: Failed to get transaction summary for user %d: %v", userID, err)
			http.Error(w, "failed to get transaction summary", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}
}
