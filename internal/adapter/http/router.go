package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/okiba/bookd/internal/adapter/http/handler"
	"github.com/okiba/bookd/internal/adapter/http/middleware"
	"github.com/okiba/bookd/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler        *handler.AccountHandler
	TransactionHandler    *handler.TransactionHandler
	TransferHandler       *handler.TransferHandler
	PartyHandler          *handler.PartyHandler
	InvoiceHandler        *handler.InvoiceHandler
	CategoryHandler       *handler.CategoryHandler
	ImportHandler         *handler.ImportHandler
	BackupHandler         *handler.BackupHandler
	SnapshotHandler       *handler.SnapshotHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler
	IdempotencyStore      usecase.IdempotencyStore
	RateLimiter           *middleware.RateLimiter
	Logger                zerolog.Logger
	CORSAllowedOrigins    []string
}

// NewRouter creates the HTTP router with the full middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key", "X-Owner-ID", "X-Org-ID", "X-Capabilities"},
		MaxAge:         300,
	}))

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and metrics endpoints bypass the scope requirement.
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Scope())

		// Replay protection for mutating requests
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore).Wrap)
		}

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/summary", cfg.AccountHandler.Summary)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Patch("/{id}", cfg.AccountHandler.Update)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", cfg.TransactionHandler.Create)
			r.Get("/", cfg.TransactionHandler.List)
			r.Get("/{id}", cfg.TransactionHandler.Get)
			r.Patch("/{id}", cfg.TransactionHandler.Update)
			r.Delete("/{id}", cfg.TransactionHandler.Void)
		})

		r.Route("/transfers", func(r chi.Router) {
			r.Post("/", cfg.TransferHandler.Create)
			r.Get("/", cfg.TransferHandler.List)
			r.Get("/{id}", cfg.TransferHandler.Get)
		})

		r.Route("/parties", func(r chi.Router) {
			r.Post("/", cfg.PartyHandler.Create)
			r.Get("/", cfg.PartyHandler.List)
			r.Get("/{id}", cfg.PartyHandler.Get)
			r.Patch("/{id}", cfg.PartyHandler.Update)
			r.Delete("/{id}", cfg.PartyHandler.Delete)
			r.Get("/{id}/ledger", cfg.PartyHandler.Ledger)
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Post("/", cfg.InvoiceHandler.Create)
			r.Get("/", cfg.InvoiceHandler.List)
			r.Get("/{id}", cfg.InvoiceHandler.Get)
			r.Post("/{id}/status", cfg.InvoiceHandler.UpdateStatus)
			r.Post("/{id}/payments", cfg.InvoiceHandler.RecordPayment)
			r.Delete("/{id}", cfg.InvoiceHandler.Delete)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", cfg.CategoryHandler.Create)
			r.Get("/", cfg.CategoryHandler.List)
			r.Delete("/{id}", cfg.CategoryHandler.Delete)
		})

		r.Route("/imports", func(r chi.Router) {
			r.Post("/", cfg.ImportHandler.Upload)
			r.Get("/", cfg.ImportHandler.List)
			r.Get("/{id}", cfg.ImportHandler.Get)
			r.Put("/{id}/mapping", cfg.ImportHandler.UpdateMapping)
			r.Put("/{id}/items", cfg.ImportHandler.UpdateItems)
			r.Post("/{id}/execute", cfg.ImportHandler.Execute)
			r.Delete("/{id}", cfg.ImportHandler.Delete)
		})

		r.Route("/backup", func(r chi.Router) {
			r.Get("/export", cfg.BackupHandler.Export)
			r.Post("/import", cfg.BackupHandler.Import)
		})

		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", cfg.SnapshotHandler.List)
			r.Post("/recompute", cfg.SnapshotHandler.Recompute)
		})

		r.Route("/reconciliation", func(r chi.Router) {
			r.Get("/", cfg.ReconciliationHandler.ReconcileAll)
			r.Get("/{id}", cfg.ReconciliationHandler.ReconcileAccount)
			r.Post("/{id}/resolve", cfg.ReconciliationHandler.Resolve)
		})
	})

	return r
}
