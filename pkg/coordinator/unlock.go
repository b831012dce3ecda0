package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chris/kiosk-settlement/pkg/models"
	"github.com/chris/kiosk-settlement/pkg/payments"
	"github.com/chris/kiosk-settlement/pkg/protocol"
	"github.com/chris/kiosk-settlement/pkg/storage"
	"github.com/google/uuid"
)

// RequestUnlock opens a pre-authorization hold, records a PENDING_ITEMS
// transaction and sends a signed unlock command to the kiosk. An empty
// transactionID is replaced by a generated one.
func (c *Coordinator) RequestUnlock(ctx context.Context, transactionID string) (*models.Transaction, error) {
	if transactionID == "" {
		transactionID = uuid.NewString()
	} else if err := protocol.ValidateTransactionID(transactionID); err != nil {
		c.metrics.UnlockRequest("invalid")
		return nil, err
	}
	logger := c.logger.With("transaction_id", transactionID)

	err := c.withRetry(ctx, "get transaction", func(ctx context.Context) error {
		_, err := c.ledger.GetTransaction(ctx, transactionID)
		return err
	})
	switch {
	case err == nil:
		c.metrics.UnlockRequest("duplicate")
		return nil, fmt.Errorf("transaction %s: %w", transactionID, ErrDuplicateTransaction)
	case !errors.Is(err, storage.ErrTransactionNotFound):
		c.metrics.UnlockRequest("persistence_error")
		return nil, err
	}

	start := time.Now()
	authorizationID, err := c.gateway.Preauthorize(ctx, transactionID, c.cfg.PreauthAmount)
	c.metrics.GatewayCall("preauthorize", err, time.Since(start))
	if err != nil {
		logger.Warn("pre-authorization rejected", "error", err)
		c.metrics.UnlockRequest("gateway_error")
		if !errors.Is(err, payments.ErrGateway) {
			err = fmt.Errorf("%w: %w", payments.ErrGateway, err)
		}
		return nil, err
	}
	logger = logger.With("authorization_id", authorizationID)

	var tx *models.Transaction
	err = c.withRetry(ctx, "create transaction", func(ctx context.Context) error {
		var err error
		tx, err = c.ledger.CreateTransaction(ctx, transactionID, authorizationID)
		return err
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateTransaction) {
			c.releaseLostHold(ctx, transactionID, authorizationID)
			c.metrics.UnlockRequest("duplicate")
			return nil, fmt.Errorf("transaction %s: %w", transactionID, ErrDuplicateTransaction)
		}
		logger.Error("failed to record transaction, releasing hold", "error", err)
		c.cancelHold(context.WithoutCancel(ctx), authorizationID)
		c.metrics.UnlockRequest("persistence_error")
		return nil, err
	}

	cmd := models.UnlockCommand{TransactionID: transactionID, AuthorizationID: authorizationID}
	if err := c.publisher.Publish(ctx, c.cfg.UnlockTopic, c.signer.Seal(protocol.EncodeUnlock(cmd))); err != nil {
		logger.Error("failed to publish unlock command, expiring transaction", "error", err)
		if serr := c.settle(context.WithoutCancel(ctx), models.DoorEvent{TransactionID: transactionID}); serr != nil {
			logger.Error("failed to expire unpublished transaction", "error", serr)
		}
		c.metrics.UnlockRequest("transport_error")
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	if c.scheduler != nil {
		if err := c.scheduler.ScheduleExpiry(ctx, transactionID, c.cfg.ExpiryDelay); err != nil {
			logger.Warn("failed to schedule expiry check", "error", err)
		}
	}

	logger.Info("unlock command sent")
	c.metrics.UnlockRequest("success")
	return tx, nil
}

// releaseLostHold cancels our hold after a concurrent request with the same
// id won the create, unless the winner is using the very same hold.
func (c *Coordinator) releaseLostHold(ctx context.Context, transactionID, authorizationID string) {
	ctx = context.WithoutCancel(ctx)
	existing, err := c.ledger.GetTransaction(ctx, transactionID)
	if err == nil && existing.PaymentAuthorizationID == authorizationID {
		return
	}
	c.cancelHold(ctx, authorizationID)
}

func (c *Coordinator) cancelHold(ctx context.Context, authorizationID string) {
	start := time.Now()
	err := c.gateway.Cancel(ctx, authorizationID)
	c.metrics.GatewayCall("cancel", err, time.Since(start))
	if err != nil {
		c.logger.Error("failed to release orphaned hold", "authorization_id", authorizationID, "error", err)
	}
}
