// Package coordinator drives a kiosk transaction from unlock request to
// settlement. It binds the ledger, the payment gateway and the controller
// transport together so that a hold is captured or released exactly once.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/kiosk-settlement/pkg/metrics"
	"github.com/chris/kiosk-settlement/pkg/payments"
	"github.com/chris/kiosk-settlement/pkg/protocol"
	"github.com/chris/kiosk-settlement/pkg/reconcile"
	"github.com/chris/kiosk-settlement/pkg/saleslog"
	"github.com/chris/kiosk-settlement/pkg/scheduler"
	"github.com/chris/kiosk-settlement/pkg/signing"
	"github.com/chris/kiosk-settlement/pkg/storage"
	"github.com/chris/kiosk-settlement/pkg/transport"
)

var (
	// ErrInvalidTransactionID is returned for client supplied ids that cannot be carried on the wire.
	ErrInvalidTransactionID = protocol.ErrInvalidTransactionID
	// ErrDuplicateTransaction is returned when the requested id is already in use.
	ErrDuplicateTransaction = storage.ErrDuplicateTransaction
	// ErrPersistence is returned when the ledger stayed unavailable until the context ended.
	ErrPersistence = errors.New("ledger unavailable")
	// ErrTransport is returned when the unlock command could not be delivered.
	ErrTransport = errors.New("controller transport unavailable")
	// ErrStaleEvent marks a door event for a transaction that has already settled.
	ErrStaleEvent = errors.New("stale door event")
)

// Config holds the coordinator's tunables.
type Config struct {
	// PreauthAmount is the hold placed before unlocking, in minor units.
	PreauthAmount int64
	UnlockTopic   string
	StatusTopic   string
	// ExpiryDelay is how long after unlocking an expiry check is scheduled.
	ExpiryDelay time.Duration
	// RetryInitial and RetryMax bound the backoff between ledger attempts.
	RetryInitial time.Duration
	RetryMax     time.Duration
}

// Dependencies are the collaborators of a Coordinator. Scheduler, Sales and
// Metrics are optional.
type Dependencies struct {
	Ledger     storage.Ledger
	Gateway    payments.Gateway
	Reconciler *reconcile.Reconciler
	Prices     reconcile.PriceTable
	Signer     *signing.Signer
	Publisher  transport.Publisher
	Scheduler  scheduler.Scheduler
	Sales      saleslog.Sink
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// Coordinator implements the unlock and settlement flows.
type Coordinator struct {
	ledger     storage.Ledger
	gateway    payments.Gateway
	reconciler *reconcile.Reconciler
	prices     reconcile.PriceTable
	signer     *signing.Signer
	publisher  transport.Publisher
	scheduler  scheduler.Scheduler
	sales      saleslog.Sink
	metrics    *metrics.Metrics
	logger     *slog.Logger
	cfg        Config
	now        func() time.Time
}

// New validates deps and creates a Coordinator.
func New(deps Dependencies, cfg Config) (*Coordinator, error) {
	switch {
	case deps.Ledger == nil:
		return nil, errors.New("coordinator: ledger is required")
	case deps.Gateway == nil:
		return nil, errors.New("coordinator: gateway is required")
	case deps.Signer == nil:
		return nil, errors.New("coordinator: signer is required")
	case deps.Publisher == nil:
		return nil, errors.New("coordinator: publisher is required")
	case cfg.UnlockTopic == "" || cfg.StatusTopic == "":
		return nil, errors.New("coordinator: unlock and status topics are required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reconciler := deps.Reconciler
	if reconciler == nil {
		reconciler = reconcile.New(reconcile.WeightInformational, logger)
	}
	sales := deps.Sales
	if sales == nil {
		sales = saleslog.NoopSink{}
	}
	if cfg.RetryInitial <= 0 {
		cfg.RetryInitial = 100 * time.Millisecond
	}
	if cfg.RetryMax < cfg.RetryInitial {
		cfg.RetryMax = max(5*time.Second, cfg.RetryInitial)
	}

	return &Coordinator{
		ledger:     deps.Ledger,
		gateway:    deps.Gateway,
		reconciler: reconciler,
		prices:     deps.Prices,
		signer:     deps.Signer,
		publisher:  deps.Publisher,
		scheduler:  deps.Scheduler,
		sales:      sales,
		metrics:    deps.Metrics,
		logger:     logger.With("component", "coordinator"),
		cfg:        cfg,
		now:        time.Now,
	}, nil
}

// withRetry runs op until it succeeds, returns a ledger sentinel, or ctx ends.
func (c *Coordinator) withRetry(ctx context.Context, name string, op func(context.Context) error) error {
	backoff := c.cfg.RetryInitial
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil || errors.Is(err, storage.ErrDuplicateTransaction) || errors.Is(err, storage.ErrTransactionNotFound) {
			return err
		}

		c.logger.Warn("ledger operation failed, retrying", "operation", name, "attempt", attempt, "backoff", backoff, "error", err)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %s: %w", ErrPersistence, name, err)
		case <-timer.C:
		}
		backoff = min(backoff*2, c.cfg.RetryMax)
	}
}
