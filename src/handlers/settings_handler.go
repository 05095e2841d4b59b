package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	db "liburan-server/src/db/sql"
	"liburan-server/src/util"

	"github.com/jackc/pgx/v5/pgxpool"
)

func GetUserSettings(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		settings, err := db.GetUserSettings(r.Context(), pool, int(userID))
		if err != nil {
			log.Printf("ERROR: Failed to get settings for user %d: %v", userID, err)
			http.Error(w, "failed to get user settings", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(settings)
	}
}

func UpdateUserSettings(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		var req struct {
			Currency string `json:"currency"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode settings request body for user %d: %v", userID, err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if !util.ValidateCurrencyCode(req.Currency) {
			log.Printf("ERROR: Invalid currency code %q for user %d", req.Currency, userID)
			http.Error(w, "currency must be a 3-letter ISO code", http.StatusBadRequest)
			return
		}

		settings, err := db.UpdateUserSettings(r.Context(), pool, int(userID), req.Currency)
		if err != nil {
			log.Printf("ERROR: Failed to update settings for user %d: %v", userID, err)
			http.Error(w, "failed to update user settings", http.StatusInternalServerError)
			return
		}
		log.Printf("INFO: Updated settings for user %d, currency %s", userID, settings.Currency)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(settings)
	}
}
