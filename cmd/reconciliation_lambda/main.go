package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"

	"github.com/chris/kiosk-settlement/pkg/app"
	"github.com/chris/kiosk-settlement/pkg/config"
	"github.com/chris/kiosk-settlement/pkg/scheduler"
	"github.com/chris/kiosk-settlement/pkg/storage"
)

var (
	store          storage.TransactionReader
	expiryQueue    scheduler.Scheduler
	stuckThreshold time.Duration
)

func init() {
	// Load environment variables for local testing.
	_ = godotenv.Load()

	cfg := config.MustLoad("")
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	slog.SetDefault(logger)

	services, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("failed to initialise services: %v", err)
	}
	if services.Scheduler == nil {
		log.Fatal("scheduler.queue_url must be set for reconciliation")
	}

	store = services.Ledger
	expiryQueue = services.Scheduler
	stuckThreshold = cfg.Settlement.StuckThreshold
}

// HandleRequest is triggered by an EventBridge Schedule.
func HandleRequest(ctx context.Context) error {
	slog.Info("starting reconciliation of stuck transactions", "threshold", stuckThreshold)

	stuckTxs, err := store.GetStuckTransactions(ctx, stuckThreshold)
	if err != nil {
		slog.Error("failed to get stuck transactions", "error", err)
		return err
	}

	if len(stuckTxs) == 0 {
		slog.Info("no stuck transactions found")
		return nil
	}

	slog.Info("re-enqueuing stuck transactions", "count", len(stuckTxs))
	for _, tx := range stuckTxs {
		if err := expiryQueue.ScheduleExpiry(ctx, tx.TransactionID, 0); err != nil {
			// Don't let one failure stop the whole batch.
			slog.Error("failed to re-enqueue transaction", "transaction_id", tx.TransactionID, "error", err)
			continue
		}
	}

	slog.Info("reconciliation finished")
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
