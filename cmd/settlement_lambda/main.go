package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"

	"github.com/chris/kiosk-settlement/pkg/app"
	"github.com/chris/kiosk-settlement/pkg/config"
	"github.com/chris/kiosk-settlement/pkg/scheduler"
)

// Expirer settles a transaction that never received a door event.
type Expirer interface {
	ExpireTransaction(ctx context.Context, transactionID string) error
}

var expirer Expirer

func init() {
	// Load environment variables from .env file (useful for local testing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.MustLoad("")
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	slog.SetDefault(logger)

	ctx := context.Background()
	services, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to initialise services: %v", err)
	}
	broker, err := services.ConnectMQTT("settlement-lambda")
	if err != nil {
		log.Fatalf("failed to connect to broker: %v", err)
	}
	coord, err := services.NewCoordinator(broker)
	if err != nil {
		log.Fatalf("failed to build coordinator: %v", err)
	}
	expirer = coord
}

// HandleRequest expires every transaction named in the batch. Already settled
// transactions are no-ops; a ledger failure fails the batch so SQS retries it.
func HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) error {
	for _, message := range sqsEvent.Records {
		msg, err := scheduler.ParseExpiryMessage(message.Body)
		if err != nil {
			// Retrying cannot fix a malformed body.
			slog.Error("discarding malformed expiry message", "message_id", message.MessageId, "error", err)
			continue
		}

		slog.Info("expiring transaction", "message_id", message.MessageId, "transaction_id", msg.TransactionID)
		if err := expirer.ExpireTransaction(ctx, msg.TransactionID); err != nil {
			slog.Error("failed to expire transaction", "transaction_id", msg.TransactionID, "error", err)
			return err
		}
	}

	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
