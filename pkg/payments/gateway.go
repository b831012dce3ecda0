// Package payments adapts the external card payment gateway to the
// pre-authorize, capture and cancel operations used for settlement.
package payments

import (
	"context"
	"errors"

	"github.com/chris/kiosk-settlement/pkg/models"
)

// ErrGateway wraps every failure reported by a payment gateway.
var ErrGateway = errors.New("payment gateway error")

// Gateway places and settles holds on the customer's card.
// Capture and Cancel are idempotent per authorization id.
type Gateway interface {
	// Preauthorize places a hold of amount minor units and returns its authorization id.
	Preauthorize(ctx context.Context, transactionID string, amount int64) (string, error)
	// Capture charges amount minor units against the hold, raised to the gateway minimum.
	Capture(ctx context.Context, authorizationID string, amount int64) error
	// Cancel releases the hold without charging.
	Cancel(ctx context.Context, authorizationID string) error
	// HoldStatus reports whether the hold is still open, captured or cancelled.
	HoldStatus(ctx context.Context, authorizationID string) (models.HoldState, error)
}
