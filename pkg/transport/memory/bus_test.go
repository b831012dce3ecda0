package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/chris/kiosk-settlement/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus(t *testing.T) {
	ctx := context.Background()

	t.Run("Delivers To Subscribers", func(t *testing.T) {
		bus := NewBus(nil)
		var mu sync.Mutex
		var got []string
		for i := 0; i < 2; i++ {
			require.NoError(t, bus.Subscribe(ctx, "kiosk/door", func(_ context.Context, payload []byte) error {
				mu.Lock()
				defer mu.Unlock()
				got = append(got, string(payload))
				return nil
			}))
		}

		require.NoError(t, bus.Publish(ctx, "kiosk/door", []byte("tx1::0")))
		require.NoError(t, bus.Publish(ctx, "kiosk/other", []byte("ignored")))
		bus.Wait()

		assert.Equal(t, []string{"tx1::0", "tx1::0"}, got)
		assert.Equal(t, [][]byte{[]byte("tx1::0")}, bus.Published("kiosk/door"))
	})

	t.Run("Chained Deliveries Are Awaited", func(t *testing.T) {
		bus := NewBus(nil)
		done := make(chan struct{})
		require.NoError(t, bus.Subscribe(ctx, "a", func(ctx context.Context, payload []byte) error {
			return bus.Publish(ctx, "b", payload)
		}))
		require.NoError(t, bus.Subscribe(ctx, "b", func(context.Context, []byte) error {
			close(done)
			return nil
		}))

		require.NoError(t, bus.Publish(ctx, "a", []byte("x")))
		bus.Wait()

		select {
		case <-done:
		default:
			t.Fatal("chained delivery did not complete")
		}
	})

	t.Run("Handler Errors Are Contained", func(t *testing.T) {
		bus := NewBus(nil)
		require.NoError(t, bus.Subscribe(ctx, "a", func(context.Context, []byte) error {
			return errors.New("boom")
		}))
		assert.NoError(t, bus.Publish(ctx, "a", []byte("x")))
		bus.Wait()
	})

	t.Run("Closed", func(t *testing.T) {
		bus := NewBus(nil)
		bus.Close()
		assert.ErrorIs(t, bus.Publish(ctx, "a", nil), transport.ErrNotConnected)
	})
}
