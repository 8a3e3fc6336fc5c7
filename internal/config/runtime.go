package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Runtime holds process settings for simsvc, read from the environment.
type Runtime struct {
	LogLevel  string `env:"RIFT_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"RIFT_LOG_FORMAT" envDefault:"text"`
	AssetsDir string `env:"RIFT_ASSETS_DIR" envDefault:"assets"`
	Workers   int    `env:"RIFT_WORKERS" envDefault:"4"`
	MaxTicks  int    `env:"RIFT_MAX_TICKS" envDefault:"12000"`

	MetricsAddr string `env:"RIFT_METRICS_ADDR"`

	RedisAddr       string        `env:"RIFT_REDIS_ADDR"`
	RedisPassword   string        `env:"RIFT_REDIS_PASSWORD"`
	RedisDB         int           `env:"RIFT_REDIS_DB" envDefault:"0"`
	RedisMaxRetries uint64        `env:"RIFT_REDIS_MAX_RETRIES" envDefault:"5"`
	SnapshotTTL     time.Duration `env:"RIFT_SNAPSHOT_TTL" envDefault:"24h"`
}

// LoadRuntime loads .env files if present, then parses the environment.
func LoadRuntime(files ...string) (*Runtime, error) {
	if err := godotenv.Load(files...); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	}
	cfg := &Runtime{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse runtime config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Runtime) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: RIFT_WORKERS must be at least 1, got %d", ErrInvalid, c.Workers)
	}
	if c.MaxTicks < 1 {
		return fmt.Errorf("%w: RIFT_MAX_TICKS must be positive, got %d", ErrInvalid, c.MaxTicks)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: RIFT_LOG_LEVEL: %v", ErrInvalid, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: RIFT_LOG_FORMAT must be text or json, got %q", ErrInvalid, c.LogFormat)
	}
	return nil
}

// Logger builds the process logger from LogLevel and LogFormat.
func (c *Runtime) Logger() *logrus.Logger {
	l := logrus.New()
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		l.SetLevel(lvl)
	}
	if c.LogFormat == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}
