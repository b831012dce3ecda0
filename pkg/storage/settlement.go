package storage

import (
	"context"

	"github.com/chris/kiosk-settlement/pkg/models"
)

// SettlementStore defines the privileged interface for settling a transaction.
// It should only be exposed to the component responsible for settlement.
type SettlementStore interface {
	// TransitionTransaction atomically moves a transaction from expected to next,
	// recording the billed items and total in the same write.
	// It returns false, with no error, if the transaction does not exist or its
	// status is no longer expected.
	TransitionTransaction(ctx context.Context, txID string, expected, next models.TransactionStatus, items []string, totalAmount int64) (bool, error)
}
