// Package logger builds the zerolog loggers used across profiletree.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Format selects how log events are written.
type Format string

// Log formats.
const (
	// FormatJSON writes one JSON object per event.
	FormatJSON Format = "json"
	// FormatConsole writes human-readable, colorized lines.
	FormatConsole Format = "console"
)

var (
	mu            sync.RWMutex
	defaultLogger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "profiletree").Logger()
)

// Default returns the default logger.
func Default() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// SetDefault sets the default logger.
func SetDefault(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
}

// New creates a JSON logger writing to w at level.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "profiletree").Logger()
}

// NewConsole creates a human-readable logger writing to w at level.
func NewConsole(w io.Writer, level zerolog.Level) zerolog.Logger {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	return zerolog.New(cw).Level(level).With().Timestamp().Logger()
}

// NewWithFormat creates a logger in the given format.
func NewWithFormat(w io.Writer, level zerolog.Level, format Format) zerolog.Logger {
	if format == FormatConsole {
		return NewConsole(w, level)
	}
	return New(w, level)
}

// FormatForEnv returns the console format in development and JSON
// everywhere else.
func FormatForEnv(env string) Format {
	if strings.EqualFold(env, "development") {
		return FormatConsole
	}
	return FormatJSON
}

// Nop returns a logger that discards everything.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// ParseLevel parses a level name such as "debug" or "WARN". An empty
// string is the info level.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	if s == "none" || s == "off" {
		return zerolog.Disabled, nil
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
