// Package saleslog records sold items for inventory bookkeeping.
package saleslog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Sale is one inventory movement. QuantityDelta is negative for items taken.
type Sale struct {
	SKU           string    `json:"sku"`
	QuantityDelta int       `json:"quantity_delta"`
	TransactionID string    `json:"transaction_id"`
	SoldAt        time.Time `json:"sold_at"`
}

// Sink stores sales records.
type Sink interface {
	RecordSales(ctx context.Context, sales []Sale) error
}

// SalesFor builds one record per billed item of a captured transaction.
func SalesFor(transactionID string, items []string, at time.Time) []Sale {
	sales := make([]Sale, 0, len(items))
	for _, sku := range items {
		sales = append(sales, Sale{SKU: sku, QuantityDelta: -1, TransactionID: transactionID, SoldAt: at})
	}
	return sales
}

// MessageWriter is the subset of kafka.Writer used by KafkaSink.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes sales records to a Kafka topic keyed by SKU.
type KafkaSink struct {
	writer MessageWriter
}

// NewKafkaSink creates a KafkaSink writing to topic on brokers.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}
}

// NewKafkaSinkWithWriter creates a KafkaSink on an existing writer.
func NewKafkaSinkWithWriter(w MessageWriter) *KafkaSink {
	return &KafkaSink{writer: w}
}

var _ Sink = (*KafkaSink)(nil)

func (s *KafkaSink) RecordSales(ctx context.Context, sales []Sale) error {
	if len(sales) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(sales))
	for _, sale := range sales {
		value, err := json.Marshal(sale)
		if err != nil {
			return fmt.Errorf("failed to marshal sale: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(sale.SKU),
			Value: value,
			Headers: []kafka.Header{
				{Key: "transaction_id", Value: []byte(sale.TransactionID)},
			},
		})
	}
	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write sales to kafka: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// NoopSink discards sales.
type NoopSink struct{}

func (NoopSink) RecordSales(context.Context, []Sale) error { return nil }
