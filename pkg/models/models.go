package models

import (
	"time"
)

// TransactionStatus defines the possible states of a transaction.
type TransactionStatus string

const (
	PENDING_ITEMS TransactionStatus = "PENDING_ITEMS"
	CAPTURED      TransactionStatus = "CAPTURED"
	CANCELLED     TransactionStatus = "CANCELLED"
	ERROR         TransactionStatus = "ERROR"
)

// IsTerminal reports whether a transaction in this status can no longer change.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case CAPTURED, CANCELLED, ERROR:
		return true
	default:
		return false
	}
}

// Valid reports whether s is one of the known statuses.
func (s TransactionStatus) Valid() bool {
	return s == PENDING_ITEMS || s.IsTerminal()
}

// HoldState is the gateway's view of a pre-authorization hold.
type HoldState string

const (
	HoldPending   HoldState = "pending"
	HoldCaptured  HoldState = "captured"
	HoldCancelled HoldState = "cancelled"
)

// Transaction represents the internal domain model for a kiosk transaction.
// It includes dynamodbav tags for marshalling.
type Transaction struct {
	TransactionID          string            `dynamodbav:"transaction_id"`
	PaymentAuthorizationID string            `dynamodbav:"payment_authorization_id"`
	Status                 TransactionStatus `dynamodbav:"status"`
	Items                  []string          `dynamodbav:"items,omitempty"`
	TotalAmount            int64             `dynamodbav:"total_amount"`
	CreatedAt              time.Time         `dynamodbav:"created_at"`
	UpdatedAt              time.Time         `dynamodbav:"updated_at"`
}

// DoorEvent is reported by the lock controller once the door has closed
// (or the unlock window expired). WeightDelta is baseline minus final.
type DoorEvent struct {
	TransactionID string
	ItemIDs       []string
	WeightDelta   float64
}

// UnlockCommand instructs the lock controller to open for a transaction.
type UnlockCommand struct {
	TransactionID   string
	AuthorizationID string
}

// StatusMessage reports the settlement outcome back to the kiosk.
// Total is in minor units and only meaningful for CAPTURED.
type StatusMessage struct {
	TransactionID string
	Status        TransactionStatus
	Total         int64
}
