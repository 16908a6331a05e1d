// Package logger builds the process-wide zerolog root logger. It is created
// once in main before any component and handed to constructors; components
// derive their own child loggers with a "component" field.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the root logger.
type Options struct {
	Level  string
	Format string
	Writer io.Writer
}

// New returns a root logger. Format "console" enables the human-readable
// writer; anything else emits JSON.
func New(opt Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var w io.Writer = os.Stdout
	if opt.Writer != nil {
		w = opt.Writer
	}
	if strings.EqualFold(opt.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(ParseLevel(opt.Level)).With().Timestamp().Logger()
}

// Component returns a child logger tagged with the component name.
func Component(root zerolog.Logger, name string) zerolog.Logger {
	return root.With().Str("component", name).Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
