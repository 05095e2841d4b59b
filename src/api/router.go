package api

import (
	"net/http"

	"liburan-server/src/events"
	"liburan-server/src/handlers"
	"liburan-server/src/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRouter(pool *pgxpool.Pool, publisher *events.Publisher, allowedOrigins []string, isDemo bool) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware(allowedOrigins))
	r.Use(middleware.DemoModeMiddleware(isDemo))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", handlers.Login(pool))
		r.Post("/register", handlers.Register(pool))

		// Protected routes
		r.With(middleware.JWTAuthMiddleware).Group(func(r chi.Router) {
			// User
			r.Get("/user", handlers.GetCurrentUser(pool))
			r.Post("/user/change-password", handlers.ChangePassword(pool))

			// Savings goals
			r.Post("/goals", handlers.CreateGoal(pool))
			r.Get("/goals", handlers.GetAllGoalsForUser(pool))
			r.Get("/goals/{goal_id}", handlers.GetGoalByID(pool))
			r.Put("/goals/{goal_id}", handlers.UpdateGoal(pool, publisher))
			r.Delete("/goals/{goal_id}", handlers.DeleteGoal(pool))

			// Savings allocations
			r.Post("/savings", handlers.Allocate(pool, publisher))
			r.Get("/savings", handlers.GetEntriesForUser(pool))
			r.Get("/savings/sources", handlers.GetIncomeSources(pool))

			// Transactions
			r.Post("/transactions", handlers.CreateTransaction(pool))
			r.Get("/transactions", handlers.GetAllTransactionsForUser(pool))
			r.Get("/transactions/summary", handlers.GetTransactionSummary(pool))
			r.Get("/transactions/{transaction_id}", handlers.GetTransactionByID(pool))
			r.Delete("/transactions/{transaction_id}", handlers.DeleteTransaction(pool))

			// User settings
			r.Get("/user-settings", handlers.GetUserSettings(pool))
			r.Put("/user-settings", handlers.UpdateUserSettings(pool))
		})
	})

	return r
}
