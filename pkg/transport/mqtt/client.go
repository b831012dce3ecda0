// Package mqtt implements the transport over an MQTT broker.
package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/chris/kiosk-settlement/pkg/transport"
)

// Options configures the broker connection.
type Options struct {
	BrokerURL      string
	ClientID       string
	Username       string
	Password       string
	QoS            byte
	ConnectTimeout time.Duration
}

type subscription struct {
	ctx     context.Context
	handler transport.Handler
}

// Client is a transport.PubSub backed by paho. Subscriptions are restored
// whenever the connection is re-established.
type Client struct {
	client paho.Client
	qos    byte
	logger *slog.Logger

	mu   sync.Mutex
	subs map[string]subscription
}

var _ transport.PubSub = (*Client)(nil)

// Connect dials the broker and returns a ready Client.
func Connect(opts Options, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		qos:    opts.QoS,
		logger: logger.With("component", "mqtt"),
		subs:   make(map[string]subscription),
	}

	pahoOpts := paho.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetAutoReconnect(true).
		SetCleanSession(false).
		SetOrderMatters(false).
		SetConnectTimeout(opts.ConnectTimeout).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			c.logger.Warn("connection to broker lost", "error", err)
		})

	c.client = paho.NewClient(pahoOpts)
	token := c.client.Connect()
	if !token.WaitTimeout(opts.ConnectTimeout) {
		return nil, fmt.Errorf("failed to connect to broker %s: timed out after %s", opts.BrokerURL, opts.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to broker %s: %w", opts.BrokerURL, err)
	}
	return c, nil
}

// Publish sends payload with the configured QoS and waits for the broker ack.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	if !c.client.IsConnectionOpen() {
		return transport.ErrNotConnected
	}
	return wait(ctx, c.client.Publish(topic, c.qos, false, payload), "publish to "+topic)
}

// Subscribe registers handler for topic. The handler runs with ctx.
func (c *Client) Subscribe(ctx context.Context, topic string, handler transport.Handler) error {
	c.mu.Lock()
	c.subs[topic] = subscription{ctx: ctx, handler: handler}
	c.mu.Unlock()

	return wait(ctx, c.client.Subscribe(topic, c.qos, c.messageHandler(topic)), "subscribe to "+topic)
}

// Unsubscribe stops delivery for topics. Handlers already running are not
// interrupted.
func (c *Client) Unsubscribe(ctx context.Context, topics ...string) error {
	c.mu.Lock()
	for _, topic := range topics {
		delete(c.subs, topic)
	}
	c.mu.Unlock()

	return wait(ctx, c.client.Unsubscribe(topics...), fmt.Sprintf("unsubscribe from %v", topics))
}

// Close disconnects, allowing in-flight work a short grace period.
func (c *Client) Close() {
	c.client.Disconnect(250)
}

func (c *Client) messageHandler(topic string) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		c.mu.Lock()
		sub, ok := c.subs[topic]
		c.mu.Unlock()
		if !ok {
			return
		}
		if err := sub.handler(sub.ctx, msg.Payload()); err != nil {
			c.logger.Error("message handler failed", "topic", msg.Topic(), "error", err)
		}
	}
}

func (c *Client) onConnect(client paho.Client) {
	c.mu.Lock()
	topics := make([]string, 0, len(c.subs))
	for topic := range c.subs {
		topics = append(topics, topic)
	}
	c.mu.Unlock()

	c.logger.Info("connected to broker", "resubscribing", len(topics))
	for _, topic := range topics {
		token := client.Subscribe(topic, c.qos, c.messageHandler(topic))
		go func(topic string) {
			token.Wait()
			if err := token.Error(); err != nil {
				c.logger.Error("failed to resubscribe", "topic", topic, "error", err)
			}
		}(topic)
	}
}

func wait(ctx context.Context, token paho.Token, op string) error {
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("failed to %s: %w", op, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return nil
}
