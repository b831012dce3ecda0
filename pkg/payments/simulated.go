package payments

import (
	"context"
	"fmt"
	"sync"

	"github.com/chris/kiosk-settlement/pkg/models"
	"github.com/google/uuid"
)

// Hold is a pre-authorization tracked by SimulatedGateway.
type Hold struct {
	TransactionID string
	Authorized    int64
	Captured      int64
	Cancelled     bool
}

// SimulatedGateway is an in-memory Gateway for local runs without card hardware.
type SimulatedGateway struct {
	MinCapture int64

	mu    sync.Mutex
	holds map[string]*Hold
	calls int
}

// NewSimulatedGateway creates an empty SimulatedGateway.
func NewSimulatedGateway(minCapture int64) *SimulatedGateway {
	return &SimulatedGateway{MinCapture: minCapture, holds: make(map[string]*Hold)}
}

var _ Gateway = (*SimulatedGateway)(nil)

func (g *SimulatedGateway) Preauthorize(_ context.Context, transactionID string, amount int64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++

	id := "sim_" + uuid.NewString()
	g.holds[id] = &Hold{TransactionID: transactionID, Authorized: amount}
	return id, nil
}

func (g *SimulatedGateway) Capture(_ context.Context, authorizationID string, amount int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++

	h, ok := g.holds[authorizationID]
	if !ok || h.Cancelled {
		return fmt.Errorf("%w: no capturable hold %s", ErrGateway, authorizationID)
	}
	if h.Captured == 0 {
		h.Captured = max(amount, g.MinCapture)
	}
	return nil
}

func (g *SimulatedGateway) Cancel(_ context.Context, authorizationID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++

	h, ok := g.holds[authorizationID]
	if !ok || h.Captured > 0 {
		return fmt.Errorf("%w: no cancellable hold %s", ErrGateway, authorizationID)
	}
	h.Cancelled = true
	return nil
}

func (g *SimulatedGateway) HoldStatus(_ context.Context, authorizationID string) (models.HoldState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	h, ok := g.holds[authorizationID]
	switch {
	case !ok:
		return "", fmt.Errorf("%w: unknown hold %s", ErrGateway, authorizationID)
	case h.Cancelled:
		return models.HoldCancelled, nil
	case h.Captured > 0:
		return models.HoldCaptured, nil
	default:
		return models.HoldPending, nil
	}
}

// Hold returns a copy of the hold for authorizationID.
func (g *SimulatedGateway) Hold(authorizationID string) (Hold, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	h, ok := g.holds[authorizationID]
	if !ok {
		return Hold{}, false
	}
	return *h, true
}

// Calls returns the number of gateway operations performed.
func (g *SimulatedGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}
