// Command kiosk_sim runs the lock controller against simulated hardware so
// the server can be exercised end to end without a physical kiosk.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/chris/kiosk-settlement/pkg/clock"
	"github.com/chris/kiosk-settlement/pkg/config"
	"github.com/chris/kiosk-settlement/pkg/controller"
	"github.com/chris/kiosk-settlement/pkg/dispatch"
	"github.com/chris/kiosk-settlement/pkg/signing"
	"github.com/chris/kiosk-settlement/pkg/transport/mqtt"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to the YAML config file (default $"+config.PathEnv+")")
	take := pflag.StringSlice("take", []string{}, "item ids the simulated customer removes each session")
	openAfter := pflag.Duration("open-after", 2*time.Second, "delay between unlock and the door opening")
	holdOpen := pflag.Duration("hold-open", 5*time.Second, "how long the door stays open")
	neverOpen := pflag.Bool("never-open", false, "never open the door, forcing the unlock timeout")
	pflag.Parse()

	_ = godotenv.Load()

	cfg := config.MustLoad(*configPath)
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	slog.SetDefault(logger)

	sim := &controller.Simulator{
		Clock:      clock.Real(),
		OpenAfter:  *openAfter,
		HoldOpen:   *holdOpen,
		NeverOpens: *neverOpen,
		Weights:    make(map[string]float64, len(cfg.Inventory)),
		Take:       *take,
	}
	for id, item := range cfg.Inventory {
		sim.Shelf = append(sim.Shelf, id)
		sim.Weights[id] = item.Weight
	}
	slices.Sort(sim.Shelf)

	if err := run(cfg, sim, logger); err != nil {
		logger.Error("kiosk simulator stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, sim *controller.Simulator, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MQTT.HMACSecret == "" {
		return errors.New("mqtt.hmac_secret must be set")
	}
	signer, err := signing.New([]byte(cfg.MQTT.HMACSecret))
	if err != nil {
		return err
	}

	broker, err := mqtt.Connect(mqtt.Options{
		BrokerURL:      cfg.MQTT.BrokerURL,
		ClientID:       cfg.MQTT.ClientID + "-kiosk",
		Username:       cfg.MQTT.Username,
		Password:       cfg.MQTT.Password,
		QoS:            cfg.MQTT.QoS,
		ConnectTimeout: cfg.MQTT.ConnectTimeout,
	}, logger)
	if err != nil {
		return err
	}
	defer broker.Close()

	ctrl, err := controller.New(sim.Hardware(), signer, broker, clock.Real(), controller.Config{
		UnlockTimeout: cfg.Lock.UnlockTimeout,
		PollInterval:  cfg.Lock.PollInterval,
		DoorTopic:     cfg.MQTT.DoorTopic,
	}, logger)
	if err != nil {
		return err
	}

	// A session blocks for its whole duration, so unlock and status
	// messages run on the pool rather than on the MQTT callback.
	pool := dispatch.New(4, cfg.Lock.UnlockTimeout+time.Minute, logger)
	if err := broker.Subscribe(ctx, cfg.MQTT.UnlockTopic, pool.Handler("unlock", ctrl.HandleUnlock)); err != nil {
		return err
	}
	if err := broker.Subscribe(ctx, cfg.MQTT.StatusTopic, pool.Handler("status", ctrl.HandleStatus)); err != nil {
		return err
	}

	logger.Info("kiosk simulator ready", "shelf", sim.Shelf, "take", sim.Take)
	<-ctx.Done()
	unsubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.MQTT.ConnectTimeout)
	defer cancel()
	if err := broker.Unsubscribe(unsubCtx, cfg.MQTT.UnlockTopic, cfg.MQTT.StatusTopic); err != nil {
		logger.Error("failed to unsubscribe", "error", err)
	}
	pool.Wait()
	return nil
}
