package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chris/kiosk-settlement/pkg/models"
	"github.com/chris/kiosk-settlement/pkg/protocol"
	"github.com/chris/kiosk-settlement/pkg/saleslog"
	"github.com/chris/kiosk-settlement/pkg/storage"
)

// HandleDoorEvent settles the transaction named by a signed door event.
// Unauthenticated, malformed, unknown and stale events are dropped and nil is
// returned; only ledger failures propagate.
func (c *Coordinator) HandleDoorEvent(ctx context.Context, message []byte) error {
	payload, err := c.signer.Open(message)
	if err != nil {
		c.logger.Warn("dropping unauthenticated door event", "error", err)
		c.metrics.Dropped("unauthenticated")
		return nil
	}

	event, err := protocol.DecodeDoorEvent(payload)
	if err != nil {
		c.logger.Warn("dropping malformed door event", "error", err)
		c.metrics.Dropped("malformed")
		return nil
	}

	err = c.settle(ctx, event)
	if errors.Is(err, ErrStaleEvent) || errors.Is(err, storage.ErrTransactionNotFound) {
		return nil
	}
	return err
}

// ExpireTransaction settles a transaction as if the door reported no removal.
// It is a no-op for unknown or already settled transactions.
func (c *Coordinator) ExpireTransaction(ctx context.Context, transactionID string) error {
	err := c.settle(ctx, models.DoorEvent{TransactionID: transactionID})
	if errors.Is(err, ErrStaleEvent) || errors.Is(err, storage.ErrTransactionNotFound) {
		return nil
	}
	return err
}

func (c *Coordinator) settle(ctx context.Context, event models.DoorEvent) error {
	logger := c.logger.With("transaction_id", event.TransactionID)

	var tx *models.Transaction
	err := c.withRetry(ctx, "get transaction", func(ctx context.Context) error {
		var err error
		tx, err = c.ledger.GetTransaction(ctx, event.TransactionID)
		return err
	})
	if err != nil {
		if errors.Is(err, storage.ErrTransactionNotFound) {
			logger.Warn("dropping door event for unknown transaction")
			c.metrics.Dropped("unknown")
		}
		return err
	}
	if tx.Status != models.PENDING_ITEMS {
		logger.Info("dropping door event for settled transaction", "status", tx.Status)
		c.metrics.Dropped("stale")
		return fmt.Errorf("transaction %s is %s: %w", tx.TransactionID, tx.Status, ErrStaleEvent)
	}
	logger = logger.With("authorization_id", tx.PaymentAuthorizationID)

	result := c.reconciler.Reconcile(event.ItemIDs, event.WeightDelta, c.prices)
	if !result.WeightCorroborated {
		c.metrics.WeightMismatch(string(c.reconciler.Policy))
	}
	total := result.MinorUnits()

	target := models.CAPTURED
	operation := "capture"
	start := time.Now()
	if len(result.Items) > 0 {
		err = c.gateway.Capture(ctx, tx.PaymentAuthorizationID, total)
	} else {
		target, operation = models.CANCELLED, "cancel"
		err = c.gateway.Cancel(ctx, tx.PaymentAuthorizationID)
	}
	c.metrics.GatewayCall(operation, err, time.Since(start))
	if err != nil {
		state, lookupErr := c.holdStatus(ctx, tx.PaymentAuthorizationID)
		switch {
		case lookupErr != nil:
			logger.Error("gateway failed during settlement", "operation", operation, "error", err, "lookup_error", lookupErr)
			target = models.ERROR
		case state == holdStateFor(target):
			logger.Warn("gateway reported an error but the hold is already settled as requested", "operation", operation, "error", err)
		case state != models.HoldPending:
			// Another settlement of this transaction reached the gateway first;
			// its own ledger transition records the outcome.
			logger.Info("hold settled concurrently, dropping door event", "operation", operation, "hold_state", state)
			c.metrics.Dropped("stale")
			return fmt.Errorf("authorization %s is %s: %w", tx.PaymentAuthorizationID, state, ErrStaleEvent)
		default:
			logger.Error("gateway failed during settlement", "operation", operation, "error", err)
			target = models.ERROR
		}
	}

	var applied bool
	err = c.withRetry(ctx, "transition transaction", func(ctx context.Context) error {
		var err error
		applied, err = c.ledger.TransitionTransaction(ctx, tx.TransactionID, models.PENDING_ITEMS, target, result.Items, total)
		return err
	})
	if err != nil {
		return err
	}
	if !applied {
		logger.Info("transaction settled concurrently, skipping", "target_status", target)
		c.metrics.Dropped("stale")
		return nil
	}

	logger.Info("transaction settled", "status", target, "items", result.Items, "total", total)
	c.metrics.Settled(string(target), total)

	if target == models.CAPTURED {
		sales := saleslog.SalesFor(tx.TransactionID, result.Items, c.now().UTC())
		if err := c.sales.RecordSales(ctx, sales); err != nil {
			logger.Warn("failed to record sales", "error", err)
		}
	}

	status := models.StatusMessage{TransactionID: tx.TransactionID, Status: target, Total: total}
	if err := c.publisher.Publish(ctx, c.cfg.StatusTopic, c.signer.Seal(protocol.EncodeStatus(status))); err != nil {
		logger.Error("failed to publish settlement status", "error", err)
	}
	return nil
}

func (c *Coordinator) holdStatus(ctx context.Context, authorizationID string) (models.HoldState, error) {
	start := time.Now()
	state, err := c.gateway.HoldStatus(ctx, authorizationID)
	c.metrics.GatewayCall("hold_status", err, time.Since(start))
	return state, err
}

// holdStateFor is the hold state a successful settlement into target leaves behind.
func holdStateFor(target models.TransactionStatus) models.HoldState {
	if target == models.CAPTURED {
		return models.HoldCaptured
	}
	return models.HoldCancelled
}
