// Package logging builds the zerolog logger used by gpxinspect.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ParseLevel maps a config level name to a zerolog level, case-insensitive.
// Unknown names fall back to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "DISABLED", "OFF":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New returns a console logger writing to w with RFC3339 UTC timestamps.
// Colors are off when noColor is set, e.g. when w is not a terminal.
func New(level string, w io.Writer, noColor bool) zerolog.Logger {
	cw := zerolog.ConsoleWriter{
		Out:          w,
		TimeFormat:   time.RFC3339,
		TimeLocation: time.UTC,
		NoColor:      noColor,
	}
	return zerolog.New(cw).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
}
