// Package logging is the device log sink. Every message is rendered as
//
//	{datetime-or-[Unknown]} +{elapsed-ms}: {message}
//
// and written through zerolog, to the console and optionally to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// UnknownDatetime is the prefix used until the time reference has been fetched.
const UnknownDatetime = "[Unknown]"

// Logger formats device log lines and hands them to zerolog.
// Safe for concurrent use.
type Logger struct {
	zl    zerolog.Logger
	now   func() time.Time
	start time.Time

	mu       sync.RWMutex
	datetime string
}

// New creates a Logger writing to w. Elapsed milliseconds are measured from the
// first call to now.
func New(w io.Writer, level zerolog.Level, now func() time.Time) *Logger {
	if now == nil {
		now = time.Now
	}
	return &Logger{
		zl:       zerolog.New(w).Level(level).With().Timestamp().Logger(),
		now:      now,
		start:    now(),
		datetime: UnknownDatetime,
	}
}

// Options selects log destinations.
type Options struct {
	Level string
	// File, when set, receives JSON lines in append mode.
	File string
}

// Open builds a Logger that writes to stdout and, if configured, a log file.
// The returned io.Closer releases the file (it is a no-op without one).
func Open(opts Options) (*Logger, io.Closer, error) {
	level := ParseLevel(opts.Level)

	console := zerolog.ConsoleWriter{
		Out:          os.Stdout,
		NoColor:      true,
		PartsExclude: []string{zerolog.TimestampFieldName},
	}
	writers := []io.Writer{console}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, f)
		closer = f
	}

	l := New(zerolog.MultiLevelWriter(writers...), level, time.Now)
	if level == zerolog.DebugLevel {
		l.Debugf("Log level set to DEBUG")
	}
	return l, closer, nil
}

// ParseLevel maps a textual level to zerolog. Unknown values become info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetDatetime replaces the line prefix once the time reference is known.
func (l *Logger) SetDatetime(dt string) {
	l.mu.Lock()
	l.datetime = dt
	l.mu.Unlock()
}

// Datetime returns the current line prefix.
func (l *Logger) Datetime() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.datetime
}

// Format renders msg with the datetime prefix and elapsed milliseconds.
func (l *Logger) Format(msg string) string {
	elapsed := l.now().Sub(l.start).Milliseconds()
	return fmt.Sprintf("%s +%d: %s", l.Datetime(), elapsed, msg)
}

// Printf logs an informational line.
func (l *Logger) Printf(format string, args ...any) {
	l.zl.Info().Msg(l.Format(fmt.Sprintf(format, args...)))
}

// Debugf logs a debug line.
func (l *Logger) Debugf(format string, args ...any) {
	l.zl.Debug().Msg(l.Format(fmt.Sprintf(format, args...)))
}

// Warnf logs a warning line.
func (l *Logger) Warnf(format string, args ...any) {
	l.zl.Warn().Msg(l.Format(fmt.Sprintf(format, args...)))
}

// Errorf logs an error line. The error is attached as a structured field and
// its message is appended to the line so it survives plain-text sinks.
func (l *Logger) Errorf(err error, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	l.zl.Error().Err(err).Msg(l.Format(msg))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
