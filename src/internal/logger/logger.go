// Package logger wraps zerolog.Logger with the constructors used by the bib
// command line.
//
// Logger embeds zerolog.Logger so the full zerolog API (Debug, Info, Warn,
// Error, ...) is available directly on *Logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is a thin wrapper around zerolog.Logger.
type Logger struct {
	zerolog.Logger
}

// Options controls NewCLI.
type Options struct {
	// Level is a zerolog level name; empty means "warn".
	Level string
	// Verbosity lowers the level by one step per count (warn -> info -> debug).
	Verbosity int
	// File, when set, additionally receives JSON log lines.
	File string
}

// NewCLI returns a human-readable logger writing to stderr, plus the closer
// for an optional log file.
func NewCLI(opts Options) (*Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	for i := 0; i < opts.Verbosity && level > zerolog.DebugLevel; i++ {
		level--
	}
	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}}
	var closer io.Closer = io.NopCloser(nil)
	if strings.TrimSpace(opts.File) != "" {
		f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = zerolog.MultiLevelWriter(w, f)
		closer = f
	}
	return New(w, level), closer, nil
}

// New builds a logger writing to w at level, with timestamps.
func New(w io.Writer, level zerolog.Level) *Logger {
	return &Logger{zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// Nop returns a *Logger that discards all output. Intended for tests.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// Component returns a child logger tagged with a "component" field.
func (l *Logger) Component(name string) *Logger {
	return &Logger{l.With().Str("component", name).Logger()}
}

// ParseLevel maps a level name to a zerolog level, defaulting to warn.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.WarnLevel, nil
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}
