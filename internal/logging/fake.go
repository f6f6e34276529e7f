package logging

import (
	"fmt"
	"strings"
	"sync"
)

// Recorder is a test double that records log messages without the
// datetime/elapsed prefix. Safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	lines    []string
	errors   []error
	datetime string
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{datetime: UnknownDatetime}
}

func (r *Recorder) add(line string) {
	r.mu.Lock()
	r.lines = append(r.lines, line)
	r.mu.Unlock()
}

// Printf records an informational line.
func (r *Recorder) Printf(format string, args ...any) { r.add(fmt.Sprintf(format, args...)) }

// Debugf records a debug line.
func (r *Recorder) Debugf(format string, args ...any) { r.add(fmt.Sprintf(format, args...)) }

// Warnf records a warning line.
func (r *Recorder) Warnf(format string, args ...any) { r.add(fmt.Sprintf(format, args...)) }

// Errorf records an error line in the same shape Logger.Errorf renders it.
func (r *Recorder) Errorf(err error, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	r.mu.Lock()
	r.lines = append(r.lines, msg)
	r.errors = append(r.errors, err)
	r.mu.Unlock()
}

// SetDatetime records the datetime prefix.
func (r *Recorder) SetDatetime(dt string) {
	r.mu.Lock()
	r.datetime = dt
	r.mu.Unlock()
}

// Datetime returns the last recorded prefix.
func (r *Recorder) Datetime() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.datetime
}

// Lines returns a copy of all recorded lines.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Errors returns a copy of all errors passed to Errorf.
func (r *Recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.errors))
	copy(out, r.errors)
	return out
}

// Contains reports whether any line contains substr.
func (r *Recorder) Contains(substr string) bool {
	for _, l := range r.Lines() {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// Count returns the number of lines containing substr.
func (r *Recorder) Count(substr string) int {
	n := 0
	for _, l := range r.Lines() {
		if strings.Contains(l, substr) {
			n++
		}
	}
	return n
}

// Reset clears recorded lines and errors.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.lines = nil
	r.errors = nil
	r.datetime = UnknownDatetime
	r.mu.Unlock()
}
