// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds server settings.
type Config struct {
	Addr           string        `env:"COUP_ADDR" envDefault:":8080"`
	BaseURL        string        `env:"COUP_BASE_URL" envDefault:"http://localhost:8080"`
	DBPath         string        `env:"COUP_DB_PATH"`
	TokenSecret    string        `env:"COUP_TOKEN_SECRET"`
	TokenTTL       time.Duration `env:"COUP_TOKEN_TTL" envDefault:"24h"`
	ReactionWindow time.Duration `env:"COUP_REACTION_WINDOW" envDefault:"60s"`
	AllowedOrigins []string      `env:"COUP_ALLOWED_ORIGINS" envSeparator:","`
	LogFormat      string        `env:"COUP_LOG_FORMAT" envDefault:"text"`
	Debug          bool          `env:"DEBUG"`
}

// Load reads an optional .env file and then the environment.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.ReactionWindow <= 0 {
		return Config{}, fmt.Errorf("COUP_REACTION_WINDOW must be positive")
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("COUP_LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	return cfg, nil
}

// NewLogger builds the process logger.
func NewLogger(cfg Config) *logrus.Logger {
	logger := logrus.New()
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logger.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
