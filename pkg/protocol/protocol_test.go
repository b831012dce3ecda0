package protocol

import (
	"strings"
	"testing"

	"github.com/chris/kiosk-settlement/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTransactionID(t *testing.T) {
	valid := []string{"tx1", "3f2b8c1e-0d55-4b6e-9c3a-2b1f4f8e9d00", "abc_DEF-123"}
	for _, id := range valid {
		assert.NoError(t, ValidateTransactionID(id), id)
	}

	invalid := []string{"", "tx:1", "tx|1", "tx,1", "tx 1", "tx\n", strings.Repeat("a", MaxTransactionIDLength+1)}
	for _, id := range invalid {
		assert.ErrorIs(t, ValidateTransactionID(id), ErrInvalidTransactionID, id)
	}
}

func TestUnlock(t *testing.T) {
	t.Run("Encode", func(t *testing.T) {
		payload := EncodeUnlock(models.UnlockCommand{TransactionID: "tx1", AuthorizationID: "pi_123"})
		assert.Equal(t, "unlock:tx1:pi_123", string(payload))
	})

	t.Run("Decode", func(t *testing.T) {
		cmd, err := DecodeUnlock([]byte("unlock:tx1:pi_123"))
		require.NoError(t, err)
		assert.Equal(t, models.UnlockCommand{TransactionID: "tx1", AuthorizationID: "pi_123"}, cmd)
	})

	t.Run("Malformed", func(t *testing.T) {
		for _, raw := range []string{"", "unlock:tx1", "lock:tx1:pi", "unlock:tx1:pi:extra", "unlock::pi", "unlock:tx1:"} {
			_, err := DecodeUnlock([]byte(raw))
			assert.ErrorIs(t, err, ErrMalformedMessage, raw)
		}
	})
}

func TestDecodeDoorEvent(t *testing.T) {
	t.Run("Items And Weight", func(t *testing.T) {
		ev, err := DecodeDoorEvent([]byte("tx1:cola,chips: 10.5"))
		require.NoError(t, err)
		assert.Equal(t, "tx1", ev.TransactionID)
		assert.Equal(t, []string{"cola", "chips"}, ev.ItemIDs)
		assert.InDelta(t, 10.5, ev.WeightDelta, 1e-9)
	})

	t.Run("Timeout Event", func(t *testing.T) {
		ev, err := DecodeDoorEvent([]byte("tx1::0"))
		require.NoError(t, err)
		assert.Equal(t, []string{}, ev.ItemIDs)
		assert.Zero(t, ev.WeightDelta)
	})

	t.Run("Duplicates And Blanks", func(t *testing.T) {
		ev, err := DecodeDoorEvent([]byte("tx1: cola,,chips ,cola:-2"))
		require.NoError(t, err)
		assert.Equal(t, []string{"cola", "chips"}, ev.ItemIDs)
		assert.InDelta(t, -2.0, ev.WeightDelta, 1e-9)
	})

	t.Run("Malformed", func(t *testing.T) {
		for _, raw := range []string{"", "tx1:cola", "tx1:cola:1:2", ":cola:1", "tx1:cola:heavy", "tx1:cola:", "tx1:cola:NaN", "tx1:cola:Inf"} {
			_, err := DecodeDoorEvent([]byte(raw))
			assert.ErrorIs(t, err, ErrMalformedMessage, raw)
		}
	})

	t.Run("Encode Round Trip", func(t *testing.T) {
		in := models.DoorEvent{TransactionID: "tx1", ItemIDs: []string{"cola", "chips"}, WeightDelta: 10.5}
		assert.Equal(t, "tx1:cola,chips:10.5", string(EncodeDoorEvent(in)))

		out, err := DecodeDoorEvent(EncodeDoorEvent(in))
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("Encode Empty", func(t *testing.T) {
		assert.Equal(t, "tx1::0", string(EncodeDoorEvent(models.DoorEvent{TransactionID: "tx1"})))
	})
}

func TestStatus(t *testing.T) {
	t.Run("Encode Captured", func(t *testing.T) {
		payload := EncodeStatus(models.StatusMessage{TransactionID: "tx1", Status: models.CAPTURED, Total: 350})
		assert.Equal(t, "tx1:CAPTURED:3.50", string(payload))
	})

	t.Run("Encode Cancelled Omits Total", func(t *testing.T) {
		payload := EncodeStatus(models.StatusMessage{TransactionID: "tx1", Status: models.CANCELLED, Total: 99})
		assert.Equal(t, "tx1:CANCELLED", string(payload))
	})

	t.Run("Encode Error", func(t *testing.T) {
		payload := EncodeStatus(models.StatusMessage{TransactionID: "tx1", Status: models.ERROR})
		assert.Equal(t, "tx1:ERROR", string(payload))
	})

	t.Run("Decode", func(t *testing.T) {
		msg, err := DecodeStatus([]byte("tx1:CAPTURED:3.50"))
		require.NoError(t, err)
		assert.Equal(t, models.StatusMessage{TransactionID: "tx1", Status: models.CAPTURED, Total: 350}, msg)

		msg, err = DecodeStatus([]byte("tx1:CANCELLED"))
		require.NoError(t, err)
		assert.Equal(t, models.StatusMessage{TransactionID: "tx1", Status: models.CANCELLED}, msg)
	})

	t.Run("Malformed", func(t *testing.T) {
		for _, raw := range []string{"tx1", "tx1:PENDING_ITEMS", "tx1:CAPTURED", "tx1:CANCELLED:1.00", "tx1:CAPTURED:abc", "tx1:DONE"} {
			_, err := DecodeStatus([]byte(raw))
			assert.ErrorIs(t, err, ErrMalformedMessage, raw)
		}
	})
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, "0.00", FormatMinorUnits(0))
	assert.Equal(t, "0.50", FormatMinorUnits(50))
	assert.Equal(t, "12.05", FormatMinorUnits(1205))

	v, err := ParseMinorUnits("3.5")
	require.NoError(t, err)
	assert.Equal(t, int64(350), v)
}
