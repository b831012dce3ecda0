// Package controller runs the kiosk side of the protocol: it reacts to signed
// unlock commands by opening the door for one customer session and reports
// what was removed as a signed door event.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chris/kiosk-settlement/pkg/clock"
	"github.com/chris/kiosk-settlement/pkg/models"
	"github.com/chris/kiosk-settlement/pkg/protocol"
	"github.com/chris/kiosk-settlement/pkg/signing"
	"github.com/chris/kiosk-settlement/pkg/transport"
)

// State is the lock controller's position in a customer session.
type State string

const (
	StateLocked            State = "LOCKED"
	StateUnlocking         State = "UNLOCKING"
	StateOpenAwaitingClose State = "OPEN_AWAITING_CLOSE"
	StateSettling          State = "SETTLING"
)

// Lock drives the door latch.
type Lock interface {
	Unlock(ctx context.Context) error
	Lock(ctx context.Context) error
}

// DoorSensor reports whether the door is physically open.
type DoorSensor interface {
	IsOpen(ctx context.Context) (bool, error)
}

// Scale reads the current shelf weight.
type Scale interface {
	Read(ctx context.Context) (float64, error)
}

// Inventory lists the item ids currently visible on the shelf.
type Inventory interface {
	Snapshot(ctx context.Context) ([]string, error)
}

// Feedback presents a settlement outcome to the customer.
type Feedback interface {
	Show(ctx context.Context, status models.StatusMessage) error
}

// Hardware groups the kiosk peripherals.
type Hardware struct {
	Lock      Lock
	Door      DoorSensor
	Scale     Scale
	Inventory Inventory
	Feedback  Feedback
}

// Config holds the controller's timing and topics.
type Config struct {
	// UnlockTimeout bounds a whole session, from unlock until the door closes.
	UnlockTimeout time.Duration
	PollInterval  time.Duration
	DoorTopic     string
}

// Controller is the lock controller state machine. It serves one session at
// a time; unlock commands arriving mid-session are ignored.
type Controller struct {
	hw        Hardware
	signer    *signing.Signer
	publisher transport.Publisher
	clock     clock.Clock
	cfg       Config
	logger    *slog.Logger

	mu    sync.Mutex
	state State
}

// New creates a Controller in the LOCKED state.
func New(hw Hardware, signer *signing.Signer, publisher transport.Publisher, clk clock.Clock, cfg Config, logger *slog.Logger) (*Controller, error) {
	if hw.Lock == nil || hw.Door == nil || hw.Scale == nil || hw.Inventory == nil || hw.Feedback == nil {
		return nil, errors.New("controller: all hardware must be provided")
	}
	if signer == nil || publisher == nil {
		return nil, errors.New("controller: signer and publisher are required")
	}
	if cfg.DoorTopic == "" {
		return nil, errors.New("controller: door topic is required")
	}
	if cfg.UnlockTimeout <= 0 {
		cfg.UnlockTimeout = 30 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		hw:        hw,
		signer:    signer,
		publisher: publisher,
		clock:     clk,
		cfg:       cfg,
		logger:    logger.With("component", "controller"),
		state:     StateLocked,
	}, nil
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// begin moves LOCKED to UNLOCKING and reports whether it did.
func (c *Controller) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateLocked {
		return false
	}
	c.state = StateUnlocking
	return true
}

// HandleUnlock verifies an unlock command and runs the customer session to
// completion. It blocks until the door event has been published.
func (c *Controller) HandleUnlock(ctx context.Context, message []byte) error {
	payload, err := c.signer.Open(message)
	if err != nil {
		c.logger.Warn("dropping unauthenticated unlock command", "error", err)
		return nil
	}
	cmd, err := protocol.DecodeUnlock(payload)
	if err != nil {
		c.logger.Warn("dropping malformed unlock command", "error", err)
		return nil
	}
	if !c.begin() {
		c.logger.Warn("ignoring unlock command, session in progress", "transaction_id", cmd.TransactionID, "state", c.State())
		return nil
	}
	defer c.setState(StateLocked)

	return c.runSession(ctx, cmd)
}

// evidence is what the kiosk observed at one point of the session.
type evidence struct {
	weight float64
	items  []string
	ok     bool
}

func (c *Controller) observe(ctx context.Context, logger *slog.Logger) evidence {
	weight, err := c.hw.Scale.Read(ctx)
	if err != nil {
		logger.Error("failed to read scale", "error", err)
		return evidence{}
	}
	items, err := c.hw.Inventory.Snapshot(ctx)
	if err != nil {
		logger.Error("failed to read inventory", "error", err)
		return evidence{}
	}
	return evidence{weight: weight, items: protocol.NormalizeItems(items), ok: true}
}

func (c *Controller) runSession(ctx context.Context, cmd models.UnlockCommand) error {
	logger := c.logger.With("transaction_id", cmd.TransactionID)
	noEvidence := models.DoorEvent{TransactionID: cmd.TransactionID}

	baseline := c.observe(ctx, logger)
	if err := c.hw.Lock.Unlock(ctx); err != nil {
		logger.Error("failed to release lock", "error", err)
		return c.finish(ctx, logger, noEvidence)
	}
	deadline := c.clock.Now().Add(c.cfg.UnlockTimeout)
	logger.Info("door unlocked", "timeout", c.cfg.UnlockTimeout)

	if err := c.awaitDoor(ctx, logger, deadline, true); err != nil {
		logger.Warn("door never opened", "error", err)
		return c.abort(ctx, logger, noEvidence, err)
	}
	c.setState(StateOpenAwaitingClose)

	if err := c.awaitDoor(ctx, logger, deadline, false); err != nil {
		logger.Warn("door not closed in time", "error", err)
		return c.abort(ctx, logger, noEvidence, err)
	}
	c.setState(StateSettling)

	final := c.observe(ctx, logger)
	event := noEvidence
	if baseline.ok && final.ok {
		event.ItemIDs = removed(baseline.items, final.items)
		event.WeightDelta = baseline.weight - final.weight
	}
	return c.finish(ctx, logger, event)
}

var errDeadline = errors.New("session deadline exceeded")

// awaitDoor polls the door sensor until it reports open (or closed) or the
// deadline passes. Read errors are logged and polled again.
func (c *Controller) awaitDoor(ctx context.Context, logger *slog.Logger, deadline time.Time, open bool) error {
	for {
		isOpen, err := c.hw.Door.IsOpen(ctx)
		if err != nil {
			logger.Warn("failed to read door sensor", "error", err)
		} else if isOpen == open {
			return nil
		}

		remaining := deadline.Sub(c.clock.Now())
		if remaining <= 0 {
			return errDeadline
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.clock.After(min(c.cfg.PollInterval, remaining)):
		}
	}
}

// abort ends a session that produced no usable evidence. The door event is
// still sent so the server releases the hold.
func (c *Controller) abort(ctx context.Context, logger *slog.Logger, event models.DoorEvent, cause error) error {
	err := c.finish(context.WithoutCancel(ctx), logger, event)
	if errors.Is(cause, errDeadline) {
		return err
	}
	return errors.Join(cause, err)
}

// finish relocks the door and publishes the signed door event.
func (c *Controller) finish(ctx context.Context, logger *slog.Logger, event models.DoorEvent) error {
	c.setState(StateSettling)
	if err := c.hw.Lock.Lock(ctx); err != nil {
		logger.Error("failed to engage lock", "error", err)
	}

	msg := c.signer.Seal(protocol.EncodeDoorEvent(event))
	if err := c.publisher.Publish(ctx, c.cfg.DoorTopic, msg); err != nil {
		return fmt.Errorf("failed to publish door event for %s: %w", event.TransactionID, err)
	}
	logger.Info("door event sent", "items", event.ItemIDs, "weight_delta", event.WeightDelta)
	return nil
}

// removed returns the ids present in before but not in after, in before's order.
func removed(before, after []string) []string {
	remaining := make(map[string]struct{}, len(after))
	for _, id := range after {
		remaining[id] = struct{}{}
	}
	out := []string{}
	for _, id := range before {
		if _, ok := remaining[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// HandleStatus verifies a settlement status and shows it to the customer.
func (c *Controller) HandleStatus(ctx context.Context, message []byte) error {
	payload, err := c.signer.Open(message)
	if err != nil {
		c.logger.Warn("dropping unauthenticated status message", "error", err)
		return nil
	}
	status, err := protocol.DecodeStatus(payload)
	if err != nil {
		c.logger.Warn("dropping malformed status message", "error", err)
		return nil
	}

	c.logger.Info("settlement status received", "transaction_id", status.TransactionID, "status", status.Status, "total", status.Total)
	if err := c.hw.Feedback.Show(ctx, status); err != nil {
		return fmt.Errorf("failed to show status for %s: %w", status.TransactionID, err)
	}
	return nil
}
