// Package reconcile turns sensor evidence from a door event into a billable
// item set and total.
package reconcile

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/chris/kiosk-settlement/pkg/protocol"
	"github.com/shopspring/decimal"
)

// Item is the catalogue entry for a SKU. Weight and Tolerance share the
// unit reported by the kiosk scale. A zero Weight means unknown.
type Item struct {
	Price     decimal.Decimal
	Weight    float64
	Tolerance float64
}

// PriceTable maps item ids to their catalogue entries. It is read-only.
type PriceTable map[string]Item

// WeightPolicy selects how the measured weight change affects billing.
type WeightPolicy string

const (
	// WeightInformational never changes billing; mismatches are only reported.
	WeightInformational WeightPolicy = "informational"
	// WeightVeto drops a non-empty item set the scale does not corroborate.
	WeightVeto WeightPolicy = "veto"
)

// ParseWeightPolicy parses a configured policy name. Empty means informational.
func ParseWeightPolicy(s string) (WeightPolicy, error) {
	switch WeightPolicy(s) {
	case "", WeightInformational:
		return WeightInformational, nil
	case WeightVeto:
		return WeightVeto, nil
	default:
		return "", fmt.Errorf("unknown weight policy %q", s)
	}
}

// Settlement is the outcome of reconciling one door event.
type Settlement struct {
	Items              []string
	Total              decimal.Decimal
	ExpectedWeight     float64
	WeightCorroborated bool
	UnpricedItems      []string
	Vetoed             bool
}

// MinorUnits returns Total in minor currency units, rounded half away from zero.
func (s Settlement) MinorUnits() int64 {
	return s.Total.Shift(2).Round(0).IntPart()
}

// Reconciler applies a weight policy while pricing detected items.
type Reconciler struct {
	Policy WeightPolicy
	Logger *slog.Logger
}

// New creates a Reconciler. A nil logger uses slog.Default().
func New(policy WeightPolicy, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{Policy: policy, Logger: logger}
}

// Reconcile prices the detected items. Unknown items cost nothing and are
// logged as an inventory inconsistency. An empty item set is a no-charge
// settlement.
func (r *Reconciler) Reconcile(itemIDs []string, weightDelta float64, prices PriceTable) Settlement {
	items := protocol.NormalizeItems(itemIDs)
	s := Settlement{Items: items, Total: decimal.Zero, WeightCorroborated: true}
	if len(items) == 0 {
		return s
	}

	var tolerance float64
	weightKnown := true
	for _, id := range items {
		entry, ok := prices[id]
		if !ok {
			r.Logger.Warn("inventory inconsistency: no price for detected item", "item_id", id)
			s.UnpricedItems = append(s.UnpricedItems, id)
			weightKnown = false
			continue
		}
		s.Total = s.Total.Add(entry.Price)
		if entry.Weight <= 0 {
			weightKnown = false
			continue
		}
		s.ExpectedWeight += entry.Weight
		tolerance += entry.Tolerance
	}

	if weightKnown {
		s.WeightCorroborated = math.Abs(weightDelta-s.ExpectedWeight) <= tolerance
	}
	if !s.WeightCorroborated {
		r.Logger.Warn("weight change does not match detected items",
			"items", items,
			"expected_weight", s.ExpectedWeight,
			"weight_delta", weightDelta,
			"tolerance", tolerance,
			"policy", string(r.Policy),
		)
		if r.Policy == WeightVeto {
			s.Items = []string{}
			s.Total = decimal.Zero
			s.Vetoed = true
		}
	}

	return s
}
