// Package logging builds the zerolog logger shared by the CLI components.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing to w at the named level (debug, info, warn,
// error). JSON output is used when json is set, otherwise a console writer.
func New(w io.Writer, level string, json bool, noColor bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	if !json {
		w = zerolog.ConsoleWriter{Out: w, NoColor: noColor, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// LevelFor maps the CLI verbosity flags onto a level name.
func LevelFor(verbose, debug, quiet bool) string {
	switch {
	case debug:
		return "debug"
	case verbose:
		return "info"
	case quiet:
		return "error"
	}
	return "warn"
}
