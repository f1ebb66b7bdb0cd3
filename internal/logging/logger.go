// Package logging builds the structured logger used by the daemon and remote client.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger aliases zerolog.Logger so callers can depend on the logging contract
// without importing zerolog directly.
type Logger = zerolog.Logger

// New constructs a logger writing to stderr. "development" gets debug level and
// human-readable console output; anything else gets JSON at info level.
func New(appEnv string) Logger {
	return NewWithWriter(appEnv, os.Stderr)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(appEnv string, w io.Writer) Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("app", "kanyini").
		Logger()

	if appEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
	}

	return logger
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return zerolog.Nop()
}
