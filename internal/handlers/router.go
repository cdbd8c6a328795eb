package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	mW "github.com/walletledger/backend/internal/middleware"
)

// Routes groups the handlers the API exposes.
type Routes struct {
	Accounts     *AccountHandler
	Movements    *MovementHandler
	Transactions *TransactionHandler
	// Authenticate guards every route except signup, login and health.
	Authenticate func(http.Handler) http.Handler
}

func NewRouter(routes Routes) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(mW.SecurityHeaders)
	r.Use(mW.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		SendJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/accounts", routes.Accounts.Signup)
		r.Post("/accounts/login", routes.Accounts.Login)

		r.Group(func(r chi.Router) {
			r.Use(routes.Authenticate)

			r.Get("/me", routes.Accounts.Me)

			r.Post("/transfers", routes.Movements.CreateTransfer)
			r.Get("/transfers", routes.Movements.ListTransfers)
			r.Get("/transfers/{id}", routes.Movements.GetTransfer)

			r.Post("/donations", routes.Movements.CreateDonation)
			r.Get("/donations", routes.Movements.ListDonations)
			r.Get("/donations/{id}", routes.Movements.GetDonation)

			r.Get("/transactions", routes.Transactions.ListTransactions)
			r.Get("/transactions/balance", routes.Transactions.Balance)
			r.Get("/transactions/reconcile", routes.Transactions.Reconcile)
			r.Post("/transactions/pin", routes.Accounts.SetPIN)
			r.Get("/transactions/{txId}", routes.Transactions.GetTransaction)
		})
	})

	return r
}
