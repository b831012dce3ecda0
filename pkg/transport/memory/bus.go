// Package memory provides an in-process transport for tests and local runs.
package memory

import (
	"bytes"
	"context"
	"log/slog"
	"sync"

	"github.com/chris/kiosk-settlement/pkg/transport"
)

// Message is a payload recorded by the Bus.
type Message struct {
	Topic   string
	Payload []byte
}

type subscriber struct {
	ctx     context.Context
	handler transport.Handler
}

// Bus delivers every published payload to each subscriber of the topic on
// its own goroutine, the way a broker would.
type Bus struct {
	logger *slog.Logger

	mu        sync.Mutex
	subs      map[string][]subscriber
	published []Message
	closed    bool
	inflight  sync.WaitGroup
}

var _ transport.PubSub = (*Bus)(nil)

// NewBus creates an empty Bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger, subs: make(map[string][]subscriber)}
}

func (b *Bus) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return transport.ErrNotConnected
	}

	msg := Message{Topic: topic, Payload: bytes.Clone(payload)}
	b.published = append(b.published, msg)
	for _, sub := range b.subs[topic] {
		b.inflight.Add(1)
		go func(sub subscriber) {
			defer b.inflight.Done()
			if err := sub.handler(sub.ctx, bytes.Clone(msg.Payload)); err != nil {
				b.logger.Error("message handler failed", "topic", topic, "error", err)
			}
		}(sub)
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, topic string, handler transport.Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return transport.ErrNotConnected
	}
	b.subs[topic] = append(b.subs[topic], subscriber{ctx: ctx, handler: handler})
	return nil
}

// Wait blocks until every delivery started so far, including deliveries
// triggered by handlers, has finished.
func (b *Bus) Wait() {
	b.inflight.Wait()
}

// Published returns the payloads sent to topic, in publish order.
func (b *Bus) Published(topic string) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out [][]byte
	for _, m := range b.published {
		if m.Topic == topic {
			out = append(out, bytes.Clone(m.Payload))
		}
	}
	return out
}

// Close rejects further publishes and waits for in-flight deliveries.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.inflight.Wait()
}
