package payments

import (
	"context"
	"fmt"

	"github.com/chris/kiosk-settlement/pkg/models"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// IntentsAPI is the subset of the Stripe PaymentIntents client used by StripeGateway.
type IntentsAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Update(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Capture(id string, params *stripe.PaymentIntentCaptureParams) (*stripe.PaymentIntent, error)
	Cancel(id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

// StripeOptions configures a StripeGateway.
type StripeOptions struct {
	Currency           string
	PaymentMethodTypes []string
	// MinCapture is the smallest amount the gateway accepts for a capture.
	MinCapture int64
}

// StripeGateway implements Gateway with manual-capture PaymentIntents.
type StripeGateway struct {
	Intents IntentsAPI
	Options StripeOptions
}

// NewStripeGateway creates a StripeGateway backed by the Stripe API.
func NewStripeGateway(apiKey string, opts StripeOptions) *StripeGateway {
	sc := client.New(apiKey, nil)
	return &StripeGateway{Intents: sc.PaymentIntents, Options: opts}
}

var _ Gateway = (*StripeGateway)(nil)

// Preauthorize creates a manual-capture PaymentIntent tagged with the transaction id.
func (g *StripeGateway) Preauthorize(ctx context.Context, transactionID string, amount int64) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(g.Options.Currency),
		CaptureMethod:      stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		PaymentMethodTypes: stripe.StringSlice(g.Options.PaymentMethodTypes),
	}
	params.Context = ctx
	params.AddMetadata("transaction_id", transactionID)
	// Each attempt gets its own hold; a losing concurrent attempt cancels its own.
	params.SetIdempotencyKey(fmt.Sprintf("preauth-%s-%s", transactionID, uuid.NewString()))

	intent, err := g.Intents.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create payment intent: %w", ErrGateway, err)
	}
	return intent.ID, nil
}

// Capture adjusts the hold to the final amount and captures it.
func (g *StripeGateway) Capture(ctx context.Context, authorizationID string, amount int64) error {
	amount = max(amount, g.Options.MinCapture)

	update := &stripe.PaymentIntentParams{Amount: stripe.Int64(amount)}
	update.Context = ctx
	update.SetIdempotencyKey(fmt.Sprintf("adjust-%s-%d", authorizationID, amount))
	if _, err := g.Intents.Update(authorizationID, update); err != nil {
		return fmt.Errorf("%w: failed to adjust payment intent %s: %w", ErrGateway, authorizationID, err)
	}

	capture := &stripe.PaymentIntentCaptureParams{AmountToCapture: stripe.Int64(amount)}
	capture.Context = ctx
	capture.SetIdempotencyKey("capture-" + authorizationID)
	if _, err := g.Intents.Capture(authorizationID, capture); err != nil {
		return fmt.Errorf("%w: failed to capture payment intent %s: %w", ErrGateway, authorizationID, err)
	}
	return nil
}

// Cancel releases the hold.
func (g *StripeGateway) Cancel(ctx context.Context, authorizationID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	params.SetIdempotencyKey("cancel-" + authorizationID)
	if _, err := g.Intents.Cancel(authorizationID, params); err != nil {
		return fmt.Errorf("%w: failed to cancel payment intent %s: %w", ErrGateway, authorizationID, err)
	}
	return nil
}

// HoldStatus maps the PaymentIntent status onto a hold state. Anything short
// of succeeded or canceled still counts as an open hold.
func (g *StripeGateway) HoldStatus(ctx context.Context, authorizationID string) (models.HoldState, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	intent, err := g.Intents.Get(authorizationID, params)
	if err != nil {
		return "", fmt.Errorf("%w: failed to retrieve payment intent %s: %w", ErrGateway, authorizationID, err)
	}
	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return models.HoldCaptured, nil
	case stripe.PaymentIntentStatusCanceled:
		return models.HoldCancelled, nil
	default:
		return models.HoldPending, nil
	}
}
