// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
)

// Prefix is prepended to every variable, e.g. ER_DB_URL.
const Prefix = "ER"

type Config struct {
	App struct {
		Env      string `envconfig:"ENV" default:"development"`
		LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	} `envconfig:"APP"`

	HTTP struct {
		Port            int           `envconfig:"PORT" default:"8080"`
		ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
		WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
		IdleTimeout     time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
		ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
		MaxUploadBytes  int64         `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
		IdempotencyTTL  time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
	} `envconfig:"HTTP"`

	DB struct {
		URL             string        `envconfig:"URL" required:"true"`
		MaxConns        int32         `envconfig:"MAX_CONNS" default:"20"`
		MinConns        int32         `envconfig:"MIN_CONNS" default:"2"`
		MaxConnLifetime time.Duration `envconfig:"MAX_CONN_LIFETIME" default:"1h"`
		MaxConnIdleTime time.Duration `envconfig:"MAX_CONN_IDLE_TIME" default:"30m"`
	} `envconfig:"DB"`

	Redis struct {
		// Addr empty disables Redis: locks stay in-process and numbering
		// uses PostgreSQL counters.
		Addr       string        `envconfig:"ADDR"`
		Password   string        `envconfig:"PASSWORD"`
		DB         int           `envconfig:"DB" default:"0"`
		PoolSize   int           `envconfig:"POOL_SIZE" default:"10"`
		CompanyTTL time.Duration `envconfig:"COMPANY_TTL" default:"10m"`
	} `envconfig:"REDIS"`

	Kafka struct {
		Brokers     []string `envconfig:"BROKERS"`
		TopicPrefix string   `envconfig:"TOPIC_PREFIX" default:"eazy-recycling"`
	} `envconfig:"KAFKA"`

	MinIO struct {
		Endpoint  string `envconfig:"ENDPOINT"`
		AccessKey string `envconfig:"ACCESS_KEY"`
		SecretKey string `envconfig:"SECRET_KEY"`
		Bucket    string `envconfig:"BUCKET" default:"waste-stream-imports"`
		Region    string `envconfig:"REGION"`
		UseSSL    bool   `envconfig:"USE_SSL" default:"false"`
	} `envconfig:"MINIO"`

	Gateway struct {
		URL              string        `envconfig:"URL"`
		APIKey           string        `envconfig:"API_KEY"`
		Timeout          time.Duration `envconfig:"TIMEOUT" default:"30s"`
		FailureThreshold uint32        `envconfig:"FAILURE_THRESHOLD" default:"5"`
		OpenTimeout      time.Duration `envconfig:"OPEN_TIMEOUT" default:"1m"`
	} `envconfig:"GATEWAY"`

	Declaration struct {
		ProcessorID string `envconfig:"PROCESSOR_ID" required:"true"`
		Timezone    string `envconfig:"TIMEZONE" default:"Europe/Amsterdam"`
		// RunDay is the day of month the monthly run declares the previous month.
		RunDay int `envconfig:"RUN_DAY" default:"1"`
	} `envconfig:"DECLARATION"`

	Import struct {
		CollectorID string `envconfig:"COLLECTOR_ID"`
	} `envconfig:"IMPORT"`

	Worker struct {
		OutboxInterval  time.Duration `envconfig:"OUTBOX_INTERVAL" default:"1s"`
		OutboxBatchSize int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
		AuditRetention  time.Duration `envconfig:"AUDIT_RETENTION" default:"8760h"`
	} `envconfig:"WORKER"`
}

// Load reads the optional dotenv files, then the environment. Missing
// dotenv files are skipped; variables already set are not overridden.
func Load(dotenvFiles ...string) (*Config, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Declaration.RunDay < 1 || c.Declaration.RunDay > 28 {
		return fmt.Errorf("%s_DECLARATION_RUN_DAY must be between 1 and 28, got %d", Prefix, c.Declaration.RunDay)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Import.CollectorID != "" {
		if _, err := id.Parse(c.Import.CollectorID); err != nil {
			return fmt.Errorf("%s_IMPORT_COLLECTOR_ID: %w", Prefix, err)
		}
	}
	return nil
}

// Development reports whether the process runs with development logging.
func (c *Config) Development() bool {
	return c.App.Env == "development"
}

// Location returns the timezone periods are evaluated in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Declaration.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%s_DECLARATION_TIMEZONE: %w", Prefix, err)
	}
	return loc, nil
}

// CollectorID returns the configured collector company, or false.
func (c *Config) CollectorID() (id.ID, bool) {
	if c.Import.CollectorID == "" {
		return id.Nil(), false
	}
	return id.MustParse(c.Import.CollectorID), true
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}
