package storage

import (
	"context"
	"time"

	"github.com/chris/kiosk-settlement/pkg/models"
)

// TransactionReader defines the interface for reading transaction data.
type TransactionReader interface {
	// GetTransaction retrieves a transaction by its ID.
	// It returns ErrTransactionNotFound if no such transaction exists.
	GetTransaction(ctx context.Context, txID string) (*models.Transaction, error)

	// GetStuckTransactions retrieves transactions that have been PENDING_ITEMS for longer than maxAge.
	GetStuckTransactions(ctx context.Context, maxAge time.Duration) ([]models.Transaction, error)
}

// TransactionWriter defines the interface for opening new transactions.
type TransactionWriter interface {
	// CreateTransaction records a new PENDING_ITEMS transaction bound to a payment authorization.
	// It returns ErrDuplicateTransaction if the ID is already taken.
	CreateTransaction(ctx context.Context, txID, authorizationID string) (*models.Transaction, error)
}
