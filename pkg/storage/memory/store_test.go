package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chris/kiosk-settlement/pkg/models"
	"github.com/chris/kiosk-settlement/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store := New()
		tx, err := store.CreateTransaction(ctx, "tx1", "pi_1")
		require.NoError(t, err)
		assert.Equal(t, models.PENDING_ITEMS, tx.Status)
		assert.Equal(t, "pi_1", tx.PaymentAuthorizationID)

		got, err := store.GetTransaction(ctx, "tx1")
		require.NoError(t, err)
		assert.Equal(t, tx, got)
	})

	t.Run("Duplicate", func(t *testing.T) {
		store := New()
		_, err := store.CreateTransaction(ctx, "tx1", "pi_1")
		require.NoError(t, err)

		_, err = store.CreateTransaction(ctx, "tx1", "pi_2")
		assert.ErrorIs(t, err, storage.ErrDuplicateTransaction)

		got, err := store.GetTransaction(ctx, "tx1")
		require.NoError(t, err)
		assert.Equal(t, "pi_1", got.PaymentAuthorizationID)
	})
}

func TestGetTransaction(t *testing.T) {
	t.Run("Not Found", func(t *testing.T) {
		_, err := New().GetTransaction(context.Background(), "missing")
		assert.ErrorIs(t, err, storage.ErrTransactionNotFound)
	})

	t.Run("Returns Copies", func(t *testing.T) {
		ctx := context.Background()
		store := New()
		_, err := store.CreateTransaction(ctx, "tx1", "pi_1")
		require.NoError(t, err)
		_, err = store.TransitionTransaction(ctx, "tx1", models.PENDING_ITEMS, models.CAPTURED, []string{"cola"}, 200)
		require.NoError(t, err)

		got, err := store.GetTransaction(ctx, "tx1")
		require.NoError(t, err)
		got.Items[0] = "mutated"

		again, err := store.GetTransaction(ctx, "tx1")
		require.NoError(t, err)
		assert.Equal(t, []string{"cola"}, again.Items)
	})
}

func TestTransitionTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store := New()
		_, err := store.CreateTransaction(ctx, "tx1", "pi_1")
		require.NoError(t, err)

		applied, err := store.TransitionTransaction(ctx, "tx1", models.PENDING_ITEMS, models.CAPTURED, []string{"cola", "chips"}, 350)
		require.NoError(t, err)
		assert.True(t, applied)

		got, err := store.GetTransaction(ctx, "tx1")
		require.NoError(t, err)
		assert.Equal(t, models.CAPTURED, got.Status)
		assert.Equal(t, []string{"cola", "chips"}, got.Items)
		assert.Equal(t, int64(350), got.TotalAmount)
	})

	t.Run("Terminal Rows Are Not Mutated", func(t *testing.T) {
		store := New()
		_, err := store.CreateTransaction(ctx, "tx1", "pi_1")
		require.NoError(t, err)
		_, err = store.TransitionTransaction(ctx, "tx1", models.PENDING_ITEMS, models.CANCELLED, nil, 0)
		require.NoError(t, err)

		applied, err := store.TransitionTransaction(ctx, "tx1", models.PENDING_ITEMS, models.CAPTURED, []string{"cola"}, 200)
		require.NoError(t, err)
		assert.False(t, applied)

		got, err := store.GetTransaction(ctx, "tx1")
		require.NoError(t, err)
		assert.Equal(t, models.CANCELLED, got.Status)
		assert.Equal(t, []string{}, got.Items)
	})

	t.Run("Missing Row", func(t *testing.T) {
		applied, err := New().TransitionTransaction(ctx, "missing", models.PENDING_ITEMS, models.CANCELLED, nil, 0)
		require.NoError(t, err)
		assert.False(t, applied)
	})

	t.Run("Concurrent Settlements", func(t *testing.T) {
		store := New()
		_, err := store.CreateTransaction(ctx, "tx1", "pi_1")
		require.NoError(t, err)

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				next := models.CAPTURED
				if i%2 == 0 {
					next = models.CANCELLED
				}
				applied, err := store.TransitionTransaction(ctx, "tx1", models.PENDING_ITEMS, next, nil, 0)
				assert.NoError(t, err)
				if applied {
					wins.Add(1)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
	})
}

func TestGetStuckTransactions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := New()
	store.now = func() time.Time { return now }

	_, err := store.CreateTransaction(ctx, "old", "pi_1")
	require.NoError(t, err)
	_, err = store.CreateTransaction(ctx, "settled", "pi_2")
	require.NoError(t, err)
	_, err = store.TransitionTransaction(ctx, "settled", models.PENDING_ITEMS, models.CAPTURED, []string{"cola"}, 200)
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	_, err = store.CreateTransaction(ctx, "fresh", "pi_3")
	require.NoError(t, err)

	stuck, err := store.GetStuckTransactions(ctx, 20*time.Minute)
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, "old", stuck[0].TransactionID)
}
