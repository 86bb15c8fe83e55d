// Package config loads process settings for the opsforms binary from the
// environment, optionally seeded from a dotenv file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the settings shared by the CLI commands.
type Config struct {
	Addr            string        `env:"OPSFORMS_ADDR,default=:8080"`
	FormsDir        string        `env:"OPSFORMS_FORMS_DIR"`
	AssetsPath      string        `env:"OPSFORMS_ASSETS_PATH,default=/assets"`
	RefdataBaseURL  string        `env:"OPSFORMS_REFDATA_BASE_URL"`
	LogLevel        string        `env:"OPSFORMS_LOG_LEVEL,default=info"`
	LogFormat       string        `env:"OPSFORMS_LOG_FORMAT,default=text"`
	ReadTimeout     time.Duration `env:"OPSFORMS_READ_TIMEOUT,default=15s"`
	WriteTimeout    time.Duration `env:"OPSFORMS_WRITE_TIMEOUT,default=30s"`
	ShutdownTimeout time.Duration `env:"OPSFORMS_SHUTDOWN_TIMEOUT,default=10s"`
}

// Load reads envFile when it exists (variables already set win) and decodes
// the environment into a Config.
func Load(envFile string) (Config, error) {
	if envFile = strings.TrimSpace(envFile); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("config: decode environment: %w", err)
	}
	return cfg, nil
}

// NewLogger builds a logrus logger writing to out at the configured level
// and format ("text" or "json").
func (c Config) NewLogger(out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(firstNonEmpty(c.LogLevel, "info"))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("config: unknown log format %q", c.LogFormat)
	}
	return logger, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
