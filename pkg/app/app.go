// Package app assembles the settlement service from configuration. The
// binaries under cmd/ share it so the HTTP server and the lambdas settle
// transactions the same way.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/chris/kiosk-settlement/pkg/config"
	"github.com/chris/kiosk-settlement/pkg/coordinator"
	"github.com/chris/kiosk-settlement/pkg/metrics"
	"github.com/chris/kiosk-settlement/pkg/payments"
	"github.com/chris/kiosk-settlement/pkg/reconcile"
	"github.com/chris/kiosk-settlement/pkg/saleslog"
	"github.com/chris/kiosk-settlement/pkg/scheduler"
	"github.com/chris/kiosk-settlement/pkg/signing"
	"github.com/chris/kiosk-settlement/pkg/storage"
	dynamodbstore "github.com/chris/kiosk-settlement/pkg/storage/dynamodb"
	"github.com/chris/kiosk-settlement/pkg/storage/memory"
	"github.com/chris/kiosk-settlement/pkg/storage/postgres"
	"github.com/chris/kiosk-settlement/pkg/transport"
	"github.com/chris/kiosk-settlement/pkg/transport/mqtt"
)

// Services are the long-lived dependencies shared by a process.
type Services struct {
	Config    *config.Config
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Ledger    storage.Ledger
	Gateway   payments.Gateway
	Signer    *signing.Signer
	Scheduler scheduler.Scheduler
	Sales     saleslog.Sink

	awsConfig *aws.Config
	closers   []func() error
}

// New builds Services from cfg. Call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Services{Config: cfg, Logger: logger, Metrics: metrics.New()}

	var err error
	if s.Ledger, err = s.newLedger(ctx); err != nil {
		return nil, errors.Join(err, s.Close())
	}
	if s.Scheduler, err = s.newScheduler(ctx); err != nil {
		return nil, errors.Join(err, s.Close())
	}
	s.Gateway = s.newGateway()
	s.Sales = s.newSalesSink()
	if cfg.MQTT.HMACSecret != "" {
		if s.Signer, err = signing.New([]byte(cfg.MQTT.HMACSecret)); err != nil {
			return nil, errors.Join(err, s.Close())
		}
	}
	return s, nil
}

func (s *Services) loadAWS(ctx context.Context) (aws.Config, error) {
	if s.awsConfig != nil {
		return *s.awsConfig, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load SDK config: %w", err)
	}
	s.awsConfig = &cfg
	return cfg, nil
}

func (s *Services) newLedger(ctx context.Context) (storage.Ledger, error) {
	cfg := s.Config.Ledger
	switch cfg.Backend {
	case "dynamodb":
		awsCfg, err := s.loadAWS(ctx)
		if err != nil {
			return nil, err
		}
		return dynamodbstore.New(dynamodb.NewFromConfig(awsCfg), cfg.TableName), nil
	case "postgres":
		db, err := postgres.Open(cfg.DSN)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		s.closers = append(s.closers, sqlDB.Close)
		if err := postgres.RunMigrations(db, cfg.MigrationsPath); err != nil {
			return nil, err
		}
		return postgres.New(db), nil
	case "memory":
		s.Logger.Warn("using in-memory ledger; transactions are lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}

func (s *Services) newScheduler(ctx context.Context) (scheduler.Scheduler, error) {
	if s.Config.Scheduler.QueueURL == "" {
		s.Logger.Warn("no expiry queue configured; stuck transactions rely on the reconciliation job")
		return nil, nil
	}
	awsCfg, err := s.loadAWS(ctx)
	if err != nil {
		return nil, err
	}
	return scheduler.NewSQSScheduler(sqs.NewFromConfig(awsCfg), s.Config.Scheduler.QueueURL), nil
}

func (s *Services) newGateway() payments.Gateway {
	cfg := s.Config.Payments
	if cfg.StripeSecretKey == "" {
		s.Logger.Warn("no stripe key configured; using simulated payment gateway")
		return payments.NewSimulatedGateway(cfg.MinCapture)
	}
	return payments.NewStripeGateway(cfg.StripeSecretKey, payments.StripeOptions{
		Currency:           cfg.Currency,
		PaymentMethodTypes: cfg.PaymentMethodTypes,
		MinCapture:         cfg.MinCapture,
	})
}

func (s *Services) newSalesSink() saleslog.Sink {
	cfg := s.Config.SalesLog
	if len(cfg.Brokers) == 0 {
		return saleslog.NoopSink{}
	}
	sink := saleslog.NewKafkaSink(cfg.Brokers, cfg.Topic)
	s.closers = append(s.closers, sink.Close)
	return sink
}

// ConnectMQTT dials the configured broker. The role is appended to the
// client id so several processes can share one broker session namespace.
func (s *Services) ConnectMQTT(role string) (*mqtt.Client, error) {
	cfg := s.Config.MQTT
	client, err := mqtt.Connect(mqtt.Options{
		BrokerURL:      cfg.BrokerURL,
		ClientID:       cfg.ClientID + "-" + role,
		Username:       cfg.Username,
		Password:       cfg.Password,
		QoS:            cfg.QoS,
		ConnectTimeout: cfg.ConnectTimeout,
	}, s.Logger)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, func() error {
		client.Close()
		return nil
	})
	return client, nil
}

// NewCoordinator builds a Coordinator publishing on publisher.
func (s *Services) NewCoordinator(publisher transport.Publisher) (*coordinator.Coordinator, error) {
	if s.Signer == nil {
		return nil, errors.New("mqtt.hmac_secret must be set")
	}
	policy, err := reconcile.ParseWeightPolicy(s.Config.Settlement.WeightPolicy)
	if err != nil {
		return nil, err
	}
	prices, err := s.Config.PriceTable()
	if err != nil {
		return nil, err
	}

	return coordinator.New(coordinator.Dependencies{
		Ledger:     s.Ledger,
		Gateway:    s.Gateway,
		Reconciler: reconcile.New(policy, s.Logger),
		Prices:     prices,
		Signer:     s.Signer,
		Publisher:  publisher,
		Scheduler:  s.Scheduler,
		Sales:      s.Sales,
		Metrics:    s.Metrics,
		Logger:     s.Logger,
	}, coordinator.Config{
		PreauthAmount: s.Config.Payments.PreauthAmount,
		UnlockTopic:   s.Config.MQTT.UnlockTopic,
		StatusTopic:   s.Config.MQTT.StatusTopic,
		ExpiryDelay:   s.Config.Settlement.ExpiryDelay,
		RetryInitial:  s.Config.Settlement.RetryInitial,
		RetryMax:      s.Config.Settlement.RetryMax,
	})
}

// Close releases connections opened by New.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}
