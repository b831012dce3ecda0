package transactions

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chris/kiosk-settlement/pkg/api"
	"github.com/chris/kiosk-settlement/pkg/coordinator"
	unlocker_mocks "github.com/chris/kiosk-settlement/pkg/handlers/transactions/mocks"
	"github.com/chris/kiosk-settlement/pkg/models"
	"github.com/chris/kiosk-settlement/pkg/payments"
	"github.com/chris/kiosk-settlement/pkg/storage"
	storage_mocks "github.com/chris/kiosk-settlement/pkg/storage/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUnlock_Success(t *testing.T) {
	t.Run("Client Supplied ID", func(t *testing.T) {
		// 1. Setup
		mockUnlocker := new(unlocker_mocks.Unlocker)
		handler := NewTransactionsHandler(mockUnlocker, new(storage_mocks.Ledger), nil)

		// 2. Mock expectations
		mockUnlocker.On("RequestUnlock", mock.Anything, "tx1").
			Return(&models.Transaction{TransactionID: "tx1", Status: models.PENDING_ITEMS}, nil)

		// 3. Execute
		req := httptest.NewRequest(http.MethodPost, "/unlock", strings.NewReader(`{"id":"tx1"}`))
		rr := httptest.NewRecorder()
		handler.Unlock(rr, req)

		// 4. Assert
		assert.Equal(t, http.StatusCreated, rr.Code)
		var resp api.UnlockResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, api.UnlockResponse{Status: "success", TransactionId: "tx1"}, resp)
		mockUnlocker.AssertExpectations(t)
	})

	t.Run("Empty Body", func(t *testing.T) {
		mockUnlocker := new(unlocker_mocks.Unlocker)
		handler := NewTransactionsHandler(mockUnlocker, new(storage_mocks.Ledger), nil)

		mockUnlocker.On("RequestUnlock", mock.Anything, "").
			Return(&models.Transaction{TransactionID: "generated", Status: models.PENDING_ITEMS}, nil)

		req := httptest.NewRequest(http.MethodPost, "/unlock", http.NoBody)
		rr := httptest.NewRecorder()
		handler.Unlock(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Contains(t, rr.Body.String(), `"transaction_id":"generated"`)
		mockUnlocker.AssertExpectations(t)
	})
}

func TestUnlock_Errors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"Invalid ID", fmt.Errorf("%w: contains ':'", coordinator.ErrInvalidTransactionID), http.StatusBadRequest},
		{"Duplicate", fmt.Errorf("transaction tx1: %w", coordinator.ErrDuplicateTransaction), http.StatusConflict},
		{"Gateway", fmt.Errorf("%w: card declined", payments.ErrGateway), http.StatusPaymentRequired},
		{"Persistence", fmt.Errorf("%w: create transaction: timeout", coordinator.ErrPersistence), http.StatusServiceUnavailable},
		{"Transport", fmt.Errorf("%w: broker down", coordinator.ErrTransport), http.StatusServiceUnavailable},
		{"Unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockUnlocker := new(unlocker_mocks.Unlocker)
			handler := NewTransactionsHandler(mockUnlocker, new(storage_mocks.Ledger), nil)
			mockUnlocker.On("RequestUnlock", mock.Anything, "tx1").Return(nil, tc.err)

			body, _ := json.Marshal(map[string]string{"id": "tx1"})
			req := httptest.NewRequest(http.MethodPost, "/unlock", bytes.NewReader(body))
			rr := httptest.NewRecorder()
			handler.Unlock(rr, req)

			assert.Equal(t, tc.status, rr.Code)
			var resp api.ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, "error", resp.Status)
		})
	}

	t.Run("Invalid Body", func(t *testing.T) {
		mockUnlocker := new(unlocker_mocks.Unlocker)
		handler := NewTransactionsHandler(mockUnlocker, new(storage_mocks.Ledger), nil)

		req := httptest.NewRequest(http.MethodPost, "/unlock", strings.NewReader(`{"id":`))
		rr := httptest.NewRecorder()
		handler.Unlock(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockUnlocker.AssertNotCalled(t, "RequestUnlock", mock.Anything, mock.Anything)
	})
}

func TestGetTransactionById(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockStorage := new(storage_mocks.Ledger)
		handler := NewTransactionsHandler(new(unlocker_mocks.Unlocker), mockStorage, nil)

		now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
		mockStorage.On("GetTransaction", mock.Anything, "tx1").Return(&models.Transaction{
			TransactionID:          "tx1",
			PaymentAuthorizationID: "pi_1",
			Status:                 models.CAPTURED,
			Items:                  []string{"cola"},
			TotalAmount:            200,
			CreatedAt:              now,
			UpdatedAt:              now,
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/transactions/tx1", nil)
		rr := httptest.NewRecorder()
		handler.GetTransactionById(rr, req, "tx1")

		assert.Equal(t, http.StatusOK, rr.Code)
		var got api.Transaction
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
		assert.Equal(t, api.CAPTURED, got.Status)
		assert.Equal(t, "2.00", got.Total)
		assert.Equal(t, []string{"cola"}, got.Items)
		mockStorage.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockStorage := new(storage_mocks.Ledger)
		handler := NewTransactionsHandler(new(unlocker_mocks.Unlocker), mockStorage, nil)

		mockStorage.On("GetTransaction", mock.Anything, "ghost").
			Return(nil, fmt.Errorf("transaction with ID ghost: %w", storage.ErrTransactionNotFound))

		req := httptest.NewRequest(http.MethodGet, "/transactions/ghost", nil)
		rr := httptest.NewRecorder()
		handler.GetTransactionById(rr, req, "ghost")

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Store Failure", func(t *testing.T) {
		mockStorage := new(storage_mocks.Ledger)
		handler := NewTransactionsHandler(new(unlocker_mocks.Unlocker), mockStorage, nil)

		mockStorage.On("GetTransaction", mock.Anything, "tx1").Return(nil, errors.New("throttled"))

		req := httptest.NewRequest(http.MethodGet, "/transactions/tx1", nil)
		rr := httptest.NewRecorder()
		handler.GetTransactionById(rr, req, "tx1")

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
