package scheduler

import (
	"context"
	"time"
)

// Scheduler defines the interface for a component that schedules an expiry check for a transaction.
type Scheduler interface {
	// ScheduleExpiry enqueues the transaction for expiry after delay.
	// Expiring a transaction that has already settled is a no-op.
	ScheduleExpiry(ctx context.Context, transactionID string, delay time.Duration) error
}
