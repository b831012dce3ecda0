package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/chris/kiosk-settlement/pkg/app"
	"github.com/chris/kiosk-settlement/pkg/config"
	"github.com/chris/kiosk-settlement/pkg/dispatch"
	"github.com/chris/kiosk-settlement/pkg/handlers"
	"github.com/chris/kiosk-settlement/pkg/handlers/transactions"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to the YAML config file (default $"+config.PathEnv+")")
	pflag.Parse()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.MustLoad(*configPath)
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer services.Close()

	broker, err := services.ConnectMQTT("server")
	if err != nil {
		return err
	}
	coord, err := services.NewCoordinator(broker)
	if err != nil {
		return err
	}

	// Door events are settled on a bounded pool so a slow gateway cannot
	// stall the MQTT client.
	pool := dispatch.New(cfg.Settlement.Workers, cfg.Settlement.TaskTimeout, logger)
	if err := broker.Subscribe(ctx, cfg.MQTT.DoorTopic, pool.Handler("door_event", coord.HandleDoorEvent)); err != nil {
		return err
	}

	txHandler := transactions.NewTransactionsHandler(coord, services.Ledger, logger)
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handlers.NewRouter(txHandler, services.Metrics.Handler(), logger),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.HTTP.Addr, "ledger", cfg.Ledger.Backend)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down http server", "error", err)
	}

	// Stop taking door events, then let accepted settlements finish while
	// the broker connection is still up for their status messages.
	if err := broker.Unsubscribe(shutdownCtx, cfg.MQTT.DoorTopic); err != nil {
		logger.Error("failed to unsubscribe from door events", "error", err)
	}
	pool.Wait()
	return nil
}
