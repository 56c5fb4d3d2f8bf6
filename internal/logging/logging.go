// Package logging builds the zerolog loggers used by the commands.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// EnvLevel overrides the configured level when set.
const EnvLevel = "REGION_TUNER_LOG_LEVEL"

// New returns a timestamped logger writing to w at the named level
// (debug, info, warn, error). Unknown names fall back to info. With console,
// records are rendered for humans instead of as JSON lines.
func New(w io.Writer, level string, console bool) zerolog.Logger {
	if console {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// NewStderr is New on os.Stderr with the EnvLevel override applied.
func NewStderr(level string, console bool) zerolog.Logger {
	if env := os.Getenv(EnvLevel); env != "" {
		level = env
	}
	return New(os.Stderr, level, console)
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}
