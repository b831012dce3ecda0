// Package protocol encodes and decodes the colon delimited messages
// exchanged with the lock controller. Authentication is handled separately
// by package signing; everything here operates on verified payloads.
package protocol

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chris/kiosk-settlement/pkg/models"
	"github.com/shopspring/decimal"
)

var (
	// ErrMalformedMessage is returned when a payload does not have the
	// expected fields for its message type.
	ErrMalformedMessage = errors.New("malformed message")
	// ErrInvalidTransactionID is returned for ids that are empty, too long or
	// contain a field separator or whitespace.
	ErrInvalidTransactionID = errors.New("invalid transaction id")
)

const (
	unlockVerb = "unlock"

	// MaxTransactionIDLength bounds ids accepted from clients.
	MaxTransactionIDLength = 128
)

// ValidateTransactionID rejects ids that would break the field layout.
func ValidateTransactionID(id string) error {
	if id == "" || len(id) > MaxTransactionIDLength {
		return ErrInvalidTransactionID
	}
	if strings.ContainsAny(id, ":|,") || strings.IndexFunc(id, isSpace) >= 0 {
		return ErrInvalidTransactionID
	}
	return nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// EncodeUnlock renders "unlock:<transaction_id>:<authorization_id>".
func EncodeUnlock(cmd models.UnlockCommand) []byte {
	return []byte(unlockVerb + ":" + cmd.TransactionID + ":" + cmd.AuthorizationID)
}

// DecodeUnlock parses an unlock command.
func DecodeUnlock(payload []byte) (models.UnlockCommand, error) {
	parts := strings.Split(string(payload), ":")
	if len(parts) != 3 || parts[0] != unlockVerb {
		return models.UnlockCommand{}, fmt.Errorf("%w: unlock command %q", ErrMalformedMessage, payload)
	}
	cmd := models.UnlockCommand{
		TransactionID:   strings.TrimSpace(parts[1]),
		AuthorizationID: strings.TrimSpace(parts[2]),
	}
	if err := ValidateTransactionID(cmd.TransactionID); err != nil {
		return models.UnlockCommand{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if cmd.AuthorizationID == "" {
		return models.UnlockCommand{}, fmt.Errorf("%w: missing authorization id", ErrMalformedMessage)
	}
	return cmd, nil
}

// EncodeDoorEvent renders "<transaction_id>:<item,item>:<weight_delta>".
func EncodeDoorEvent(ev models.DoorEvent) []byte {
	items := strings.Join(NormalizeItems(ev.ItemIDs), ",")
	weight := strconv.FormatFloat(ev.WeightDelta, 'f', -1, 64)
	return []byte(ev.TransactionID + ":" + items + ":" + weight)
}

// DecodeDoorEvent parses a door event. Fields are trimmed, empty item ids
// are discarded and duplicates collapse to their first occurrence.
func DecodeDoorEvent(payload []byte) (models.DoorEvent, error) {
	parts := strings.Split(string(payload), ":")
	if len(parts) != 3 {
		return models.DoorEvent{}, fmt.Errorf("%w: door event %q", ErrMalformedMessage, payload)
	}

	txID := strings.TrimSpace(parts[0])
	if err := ValidateTransactionID(txID); err != nil {
		return models.DoorEvent{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	weight, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return models.DoorEvent{}, fmt.Errorf("%w: weight delta %q", ErrMalformedMessage, parts[2])
	}

	return models.DoorEvent{
		TransactionID: txID,
		ItemIDs:       NormalizeItems(strings.Split(parts[1], ",")),
		WeightDelta:   weight,
	}, nil
}

// NormalizeItems trims ids, drops empty ones and removes duplicates while
// keeping first-seen order. The result is never nil.
func NormalizeItems(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// EncodeStatus renders "<transaction_id>:<status>[:<total>]". The total is
// only present for CAPTURED and is formatted with two decimals.
func EncodeStatus(msg models.StatusMessage) []byte {
	s := msg.TransactionID + ":" + string(msg.Status)
	if msg.Status == models.CAPTURED {
		s += ":" + FormatMinorUnits(msg.Total)
	}
	return []byte(s)
}

// DecodeStatus parses a status message.
func DecodeStatus(payload []byte) (models.StatusMessage, error) {
	parts := strings.Split(string(payload), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return models.StatusMessage{}, fmt.Errorf("%w: status message %q", ErrMalformedMessage, payload)
	}

	msg := models.StatusMessage{
		TransactionID: strings.TrimSpace(parts[0]),
		Status:        models.TransactionStatus(strings.TrimSpace(parts[1])),
	}
	if err := ValidateTransactionID(msg.TransactionID); err != nil {
		return models.StatusMessage{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if !msg.Status.IsTerminal() {
		return models.StatusMessage{}, fmt.Errorf("%w: status %q", ErrMalformedMessage, msg.Status)
	}

	switch {
	case msg.Status == models.CAPTURED && len(parts) == 3:
		total, err := ParseMinorUnits(parts[2])
		if err != nil {
			return models.StatusMessage{}, err
		}
		msg.Total = total
	case msg.Status == models.CAPTURED:
		return models.StatusMessage{}, fmt.Errorf("%w: captured status without total", ErrMalformedMessage)
	case len(parts) == 3:
		return models.StatusMessage{}, fmt.Errorf("%w: unexpected total for %s", ErrMalformedMessage, msg.Status)
	}
	return msg, nil
}

// FormatMinorUnits renders an amount in minor units with two decimals.
func FormatMinorUnits(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

// ParseMinorUnits parses a decimal amount into minor units.
func ParseMinorUnits(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q", ErrMalformedMessage, s)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}
