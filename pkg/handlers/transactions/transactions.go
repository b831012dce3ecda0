package transactions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/chris/kiosk-settlement/pkg/api"
	"github.com/chris/kiosk-settlement/pkg/coordinator"
	"github.com/chris/kiosk-settlement/pkg/mapping"
	"github.com/chris/kiosk-settlement/pkg/models"
	"github.com/chris/kiosk-settlement/pkg/payments"
	"github.com/chris/kiosk-settlement/pkg/storage"
)

// Unlocker starts a kiosk transaction.
type Unlocker interface {
	RequestUnlock(ctx context.Context, transactionID string) (*models.Transaction, error)
}

// TransactionsHandler holds the dependencies for transaction-related handlers.
type TransactionsHandler struct {
	Unlocker Unlocker
	Store    storage.TransactionReader
	Logger   *slog.Logger
}

// NewTransactionsHandler creates a new TransactionsHandler.
func NewTransactionsHandler(unlocker Unlocker, store storage.TransactionReader, logger *slog.Logger) *TransactionsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionsHandler{Unlocker: unlocker, Store: store, Logger: logger}
}

// Unlock handles a customer's request to open the kiosk.
func (h *TransactionsHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req api.UnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	var id string
	if req.Id != nil {
		id = *req.Id
	}

	tx, err := h.Unlocker.RequestUnlock(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, coordinator.ErrInvalidTransactionID):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, coordinator.ErrDuplicateTransaction):
			writeError(w, http.StatusConflict, "Transaction already exists")
		case errors.Is(err, payments.ErrGateway):
			writeError(w, http.StatusPaymentRequired, "Payment authorization failed")
		case errors.Is(err, coordinator.ErrPersistence), errors.Is(err, coordinator.ErrTransport):
			h.Logger.Error("unlock unavailable", "transaction_id", id, "error", err)
			writeError(w, http.StatusServiceUnavailable, "Kiosk temporarily unavailable")
		default:
			h.Logger.Error("unlock failed", "transaction_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to unlock kiosk")
		}
		return
	}

	writeJSON(w, http.StatusCreated, mapping.ToApiUnlockResponse(tx))
}

// GetTransactionById handles the logic for retrieving a transaction by its ID.
func (h *TransactionsHandler) GetTransactionById(w http.ResponseWriter, r *http.Request, transactionId string) {
	domainTx, err := h.Store.GetTransaction(r.Context(), transactionId)
	if err != nil {
		if errors.Is(err, storage.ErrTransactionNotFound) {
			writeError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.Logger.Error("failed to retrieve transaction", "transaction_id", transactionId, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve transaction")
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiTransaction(domainTx))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorResponse{Status: "error", Message: message})
}
