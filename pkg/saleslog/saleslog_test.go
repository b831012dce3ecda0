package saleslog_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/chris/kiosk-settlement/pkg/saleslog"
	"github.com/chris/kiosk-settlement/pkg/saleslog/mocks"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSalesFor(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sales := saleslog.SalesFor("tx1", []string{"cola", "chips"}, at)

	assert.Equal(t, []saleslog.Sale{
		{SKU: "cola", QuantityDelta: -1, TransactionID: "tx1", SoldAt: at},
		{SKU: "chips", QuantityDelta: -1, TransactionID: "tx1", SoldAt: at},
	}, sales)
}

func TestKafkaSink(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		writer := mocks.NewMessageWriter(t)
		sink := saleslog.NewKafkaSinkWithWriter(writer)

		writer.On("WriteMessages", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				first := args.Get(1).(kafka.Message)
				assert.Equal(t, "cola", string(first.Key))
				var sale saleslog.Sale
				require.NoError(t, json.Unmarshal(first.Value, &sale))
				assert.Equal(t, -1, sale.QuantityDelta)
				assert.Equal(t, "tx1", sale.TransactionID)
			}).
			Return(nil).Once()

		err := sink.RecordSales(context.Background(), saleslog.SalesFor("tx1", []string{"cola", "chips"}, at))
		assert.NoError(t, err)
	})

	t.Run("Nothing To Write", func(t *testing.T) {
		writer := mocks.NewMessageWriter(t)
		sink := saleslog.NewKafkaSinkWithWriter(writer)

		assert.NoError(t, sink.RecordSales(context.Background(), nil))
	})

	t.Run("Write Fails", func(t *testing.T) {
		writer := mocks.NewMessageWriter(t)
		sink := saleslog.NewKafkaSinkWithWriter(writer)

		writer.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("leader not available")).Once()

		err := sink.RecordSales(context.Background(), saleslog.SalesFor("tx1", []string{"cola"}, at))
		assert.ErrorContains(t, err, "failed to write sales to kafka")
	})
}
