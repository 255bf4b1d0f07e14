package core

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const (
	LogTextFormat = "text"
	LogJSONFormat = "json"
)

// NewLogger builds the process logger. debugLogs forces debug level.
func NewLogger(cfg Config) zerolog.Logger {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	if cfg.DebugLogs {
		level = zerolog.DebugLevel
	}

	if cfg.LogFormat == LogJSONFormat {
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: out}).Level(level).With().Timestamp().Logger()
}
