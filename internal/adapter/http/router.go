package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/periodledger/internal/adapter/http/handler"
	"github.com/iho/periodledger/internal/adapter/http/middleware"
	"github.com/iho/periodledger/internal/infrastructure/metrics"
	"github.com/iho/periodledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler        *handler.AccountHandler
	TransactionHandler    *handler.TransactionHandler
	EntryHandler          *handler.EntryHandler
	PeriodHandler         *handler.PeriodHandler
	ReconciliationHandler *handler.ReconciliationHandler
	LedgerHandler         *handler.LedgerHandler
	HealthHandler         *handler.HealthHandler

	// IdempotencyStore enables Idempotency-Key handling when set.
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration

	// Metrics enables request instrumentation; MetricsHandler serves /metrics.
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler

	Logger zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotency := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			r.Use(idempotency.Wrap)
		}

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.AccountHandler.Get)
				r.Get("/balance", cfg.AccountHandler.Balance)
				r.Post("/deactivate", cfg.AccountHandler.Deactivate)
				r.Get("/entries", cfg.EntryHandler.ListByAccount)

				r.Post("/periods", cfg.PeriodHandler.Close)
				r.Get("/periods", cfg.PeriodHandler.List)
				r.Get("/periods/{year}/{month}", cfg.PeriodHandler.Status)

				r.Post("/reconcile", cfg.ReconciliationHandler.Reconcile)
				r.Get("/verify", cfg.ReconciliationHandler.Verify)
			})
		})

		// Transactions
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", cfg.TransactionHandler.Apply)
			r.Get("/classify", cfg.TransactionHandler.Classify)
		})

		// Entries
		r.Route("/entries", func(r chi.Router) {
			r.Get("/{id}", cfg.EntryHandler.Get)
			r.Post("/{id}/reverse", cfg.EntryHandler.Reverse)
		})

		r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
	})

	return r
}
