package logger

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output formats accepted by New.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatConsole = "console"
)

// ErrUnknownFormat is returned by New for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown log format")

// ZeroLogger writes leveled records through zerolog.
type ZeroLogger struct {
	log zerolog.Logger
}

// NewZeroLogger creates a zerolog backed logger writing to w. With console
// set records are rendered for humans; otherwise one JSON object per line.
func NewZeroLogger(w io.Writer, console, debug bool) *ZeroLogger {
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: true}
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return &ZeroLogger{log: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// With returns a logger tagging every record with key=value.
func (z *ZeroLogger) With(key, value string) *ZeroLogger {
	return &ZeroLogger{log: z.log.With().Str(key, value).Logger()}
}

func (z *ZeroLogger) Debug(format string, args ...interface{}) {
	z.log.Debug().Msgf(format, args...)
}

func (z *ZeroLogger) Info(format string, args ...interface{}) {
	z.log.Info().Msgf(format, args...)
}

func (z *ZeroLogger) Warning(format string, args ...interface{}) {
	z.log.Warn().Msgf(format, args...)
}

func (z *ZeroLogger) Error(format string, args ...interface{}) {
	z.log.Error().Msgf(format, args...)
}

// Close is a no-op; the writer belongs to the caller.
func (z *ZeroLogger) Close() error {
	return nil
}

var _ Logger = (*ZeroLogger)(nil)

// New builds the logger selected by format ("text", "json" or "console").
func New(format string, w io.Writer, debug bool) (Logger, error) {
	switch strings.ToLower(format) {
	case FormatText, "":
		l := NewStandardLogger(log.New(w, "ambiance: ", log.LstdFlags))
		l.SetDebug(debug)
		return l, nil
	case FormatJSON:
		return NewZeroLogger(w, false, debug), nil
	case FormatConsole:
		return NewZeroLogger(w, true, debug), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}
