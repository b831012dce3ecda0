// Package transport defines the publish/subscribe boundary between the
// server and kiosk controllers.
package transport

import (
	"context"
	"errors"
)

// ErrNotConnected is returned when publishing on a closed or disconnected transport.
var ErrNotConnected = errors.New("transport not connected")

// Handler processes one inbound message payload.
type Handler func(ctx context.Context, payload []byte) error

// Publisher sends opaque payloads to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Subscriber registers a handler for a topic. Delivery is at-least-once.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler Handler) error
}

// PubSub is a transport that can both publish and subscribe.
type PubSub interface {
	Publisher
	Subscriber
}
