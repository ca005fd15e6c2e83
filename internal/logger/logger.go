package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // human readable console output
}

// New creates a logger writing to w. An unknown level falls back to info.
func New(cfg Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.Pretty {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Setup builds a stdout logger and installs it as the global logger.
func Setup(cfg Config) zerolog.Logger {
	logger := New(cfg, os.Stdout)
	log.Logger = logger
	return logger
}
