// Package config loads service configuration from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/shopspring/decimal"

	"github.com/chris/kiosk-settlement/pkg/reconcile"
)

// PathEnv names the environment variable holding the config file path.
const PathEnv = "KIOSK_CONFIG_PATH"

type Config struct {
	Env        string                   `yaml:"env" env:"KIOSK_ENV" env-default:"local"`
	HTTP       HTTPConfig               `yaml:"http"`
	Log        LogConfig                `yaml:"log"`
	MQTT       MQTTConfig               `yaml:"mqtt"`
	Ledger     LedgerConfig             `yaml:"ledger"`
	Payments   PaymentsConfig           `yaml:"payments"`
	Settlement SettlementConfig         `yaml:"settlement"`
	SalesLog   SalesLogConfig           `yaml:"sales_log"`
	Scheduler  SchedulerConfig          `yaml:"scheduler"`
	Lock       LockConfig               `yaml:"lock"`
	Inventory  map[string]InventoryItem `yaml:"inventory"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
	Output string `yaml:"output" env:"LOG_OUTPUT" env-default:"stdout"`
}

type MQTTConfig struct {
	BrokerURL      string        `yaml:"broker_url" env:"MQTT_BROKER_URL" env-default:"tcp://localhost:1883"`
	ClientID       string        `yaml:"client_id" env:"MQTT_CLIENT_ID" env-default:"kiosk-settlement"`
	Username       string        `yaml:"username" env:"MQTT_USERNAME"`
	Password       string        `yaml:"password" env:"MQTT_PASSWORD"`
	QoS            byte          `yaml:"qos" env-default:"1"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env-default:"10s"`
	HMACSecret     string        `yaml:"hmac_secret" env:"MQTT_HMAC_SECRET"`
	UnlockTopic    string        `yaml:"unlock_topic" env-default:"kiosk/unlock"`
	DoorTopic      string        `yaml:"door_topic" env-default:"kiosk/door"`
	StatusTopic    string        `yaml:"status_topic" env-default:"kiosk/status"`
}

// LedgerConfig selects the transaction store. Backend is one of dynamodb,
// postgres or memory.
type LedgerConfig struct {
	Backend        string `yaml:"backend" env:"LEDGER_BACKEND" env-default:"dynamodb"`
	TableName      string `yaml:"table_name" env:"TRANSACTIONS_TABLE_NAME" env-default:"transactions"`
	DSN            string `yaml:"dsn" env:"LEDGER_DSN"`
	MigrationsPath string `yaml:"migrations_path" env:"LEDGER_MIGRATIONS_PATH" env-default:"migrations"`
}

// PaymentsConfig configures the card gateway. Without a Stripe key the
// simulated gateway is used.
type PaymentsConfig struct {
	StripeSecretKey    string   `yaml:"stripe_secret_key" env:"STRIPE_SECRET_KEY"`
	Currency           string   `yaml:"currency" env-default:"usd"`
	PaymentMethodTypes []string `yaml:"payment_method_types" env-default:"card_present"`
	PreauthAmount      int64    `yaml:"preauth_amount" env-default:"100"`
	MinCapture         int64    `yaml:"min_capture" env-default:"50"`
}

type SettlementConfig struct {
	WeightPolicy   string        `yaml:"weight_policy" env:"WEIGHT_POLICY" env-default:"informational"`
	Workers        int           `yaml:"workers" env-default:"16"`
	TaskTimeout    time.Duration `yaml:"task_timeout" env-default:"1m"`
	ExpiryDelay    time.Duration `yaml:"expiry_delay" env-default:"2m"`
	StuckThreshold time.Duration `yaml:"stuck_threshold" env-default:"10m"`
	RetryInitial   time.Duration `yaml:"retry_initial" env-default:"100ms"`
	RetryMax       time.Duration `yaml:"retry_max" env-default:"5s"`
}

type SalesLogConfig struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env-default:"kiosk-sales"`
}

type SchedulerConfig struct {
	QueueURL string `yaml:"queue_url" env:"EXPIRY_QUEUE_URL"`
}

type LockConfig struct {
	UnlockTimeout time.Duration `yaml:"unlock_timeout" env-default:"30s"`
	PollInterval  time.Duration `yaml:"poll_interval" env-default:"100ms"`
}

// InventoryItem is one catalogue entry. Price is a decimal string in major
// currency units; a zero Weight means the unit weight is unknown.
type InventoryItem struct {
	Price     string  `yaml:"price"`
	Weight    float64 `yaml:"weight"`
	Tolerance float64 `yaml:"tolerance"`
}

const defaultTolerance = 5

// expiryMargin is the slack an expiry check leaves for a door event that
// closes right at the unlock deadline to reach the server.
const expiryMargin = 30 * time.Second

// Load reads the config file at path, falling back to KIOSK_CONFIG_PATH.
// With neither set, only the environment is read.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(PathEnv)
	}

	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
	} else {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to find config file: %w", err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad is Load that exits the process on failure.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Validate checks values that cannot be expressed as struct tags.
func (c *Config) Validate() error {
	var errs []error
	switch c.Ledger.Backend {
	case "dynamodb", "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown ledger backend %q", c.Ledger.Backend))
	}
	if c.Ledger.Backend == "postgres" && c.Ledger.DSN == "" {
		errs = append(errs, errors.New("ledger.dsn is required for the postgres backend"))
	}
	if _, err := reconcile.ParseWeightPolicy(c.Settlement.WeightPolicy); err != nil {
		errs = append(errs, err)
	}
	if c.Payments.PreauthAmount <= 0 {
		errs = append(errs, errors.New("payments.preauth_amount must be positive"))
	}
	if c.Payments.MinCapture < 0 {
		errs = append(errs, errors.New("payments.min_capture must not be negative"))
	}
	if c.Settlement.ExpiryDelay < c.Lock.UnlockTimeout+expiryMargin {
		errs = append(errs, fmt.Errorf("settlement.expiry_delay (%s) must be at least lock.unlock_timeout plus %s (%s)",
			c.Settlement.ExpiryDelay, expiryMargin, c.Lock.UnlockTimeout+expiryMargin))
	}
	if c.Settlement.TaskTimeout <= 0 {
		errs = append(errs, errors.New("settlement.task_timeout must be positive"))
	}
	if c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
	}
	if _, err := c.PriceTable(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// PriceTable converts the inventory section into a reconcile.PriceTable.
func (c *Config) PriceTable() (reconcile.PriceTable, error) {
	prices := make(reconcile.PriceTable, len(c.Inventory))
	for id, item := range c.Inventory {
		price, err := decimal.NewFromString(strings.TrimSpace(item.Price))
		if err != nil {
			return nil, fmt.Errorf("invalid price for item %s: %w", id, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("negative price for item %s", id)
		}
		tolerance := item.Tolerance
		if tolerance <= 0 {
			tolerance = defaultTolerance
		}
		prices[id] = reconcile.Item{Price: price, Weight: item.Weight, Tolerance: tolerance}
	}
	return prices, nil
}

// NewLogger builds the process logger described by cfg.
func NewLogger(cfg LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var out io.Writer
	switch cfg.Output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		return nil, fmt.Errorf("unsupported log output %q", cfg.Output)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "", "text":
		return slog.New(slog.NewTextHandler(out, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(out, opts)), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.Format)
	}
}
