// Package handlers mounts the HTTP interface of the settlement service.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/chris/kiosk-settlement/pkg/handlers/transactions"
	"github.com/chris/kiosk-settlement/pkg/middleware"
)

// NewRouter wires the transaction handlers, health check and metrics onto a
// chi router. A nil metrics handler leaves /metrics unmounted.
func NewRouter(tx *transactions.TransactionsHandler, metrics http.Handler, logger *slog.Logger) http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.NewStructuredLogger(logger))

	router.Post("/unlock", tx.Unlock)
	router.Get("/transactions/{transactionId}", func(w http.ResponseWriter, r *http.Request) {
		tx.GetTransactionById(w, r, chi.URLParam(r, "transactionId"))
	})
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	if metrics != nil {
		router.Method(http.MethodGet, "/metrics", metrics)
	}

	return router
}
