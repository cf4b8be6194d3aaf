// Package logging builds the application logger from configuration.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New returns a logger writing to w at the given level. The format is
// either "console" for human-readable output or "json" for structured
// output; unknown formats fall back to json.
func New(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w}
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// NewConsole returns a console logger on stderr, the default for the CLI.
func NewConsole(level string) zerolog.Logger {
	return New(os.Stderr, level, "console")
}
