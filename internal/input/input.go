// Package input turns the sampled button level into discrete activations.
package input

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/dumb-door/internal/clock"
	"github.com/sweeney/dumb-door/internal/metrics"
)

// Debounce policies.
const (
	PolicyEdge   = "edge"
	PolicyStable = "stable"
)

// ErrInput is returned after too many consecutive read failures.
var ErrInput = errors.New("input: button unreadable")

// Reader samples the button level (true = pressed).
type Reader interface {
	Read() (bool, error)
}

// Logger receives transient read failures.
type Logger interface {
	Warnf(format string, args ...any)
}

// Config configures a Monitor. Zero values take defaults.
type Config struct {
	Poll          time.Duration
	Policy        string
	Debounce      time.Duration
	MaxReadErrors int
}

// Signal is one activation.
type Signal struct {
	// Level is the sample that completed the activation.
	Level bool
	At    time.Time
}

// Monitor waits for button activations.
type Monitor struct {
	reader  Reader
	cfg     Config
	log     Logger
	sleep   clock.SleepFunc
	now     func() time.Time
	metrics metrics.Recorder
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithSleep replaces the sleep between samples.
func WithSleep(s clock.SleepFunc) Option {
	return func(m *Monitor) { m.sleep = s }
}

// WithNow replaces the clock.
func WithNow(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(m *Monitor) { m.metrics = r }
}

// NewMonitor creates a Monitor over reader.
func NewMonitor(reader Reader, cfg Config, log Logger, opts ...Option) *Monitor {
	if cfg.Poll <= 0 {
		cfg.Poll = 40 * time.Millisecond
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyEdge
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * cfg.Poll
	}
	if cfg.MaxReadErrors < 1 {
		cfg.MaxReadErrors = 5
	}
	m := &Monitor{
		reader:  reader,
		cfg:     cfg,
		log:     log,
		sleep:   clock.Sleep,
		now:     time.Now,
		metrics: metrics.Noop{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AwaitActivation blocks until the button is activated, ctx ends, or the
// button becomes unreadable.
func (m *Monitor) AwaitActivation(ctx context.Context) (Signal, error) {
	var (
		sig Signal
		err error
	)
	switch m.cfg.Policy {
	case PolicyEdge:
		sig, err = m.awaitEdge(ctx)
	case PolicyStable:
		sig, err = m.awaitStable(ctx)
	default:
		return Signal{}, fmt.Errorf("input: unknown policy %q", m.cfg.Policy)
	}
	if err == nil {
		m.metrics.Incr(metrics.InputActivations)
	}
	return sig, err
}

// awaitEdge keeps sampling while the button is held or the level has not
// changed since the previous sample, and returns the first sample that is
// neither: the release that follows a press.
func (m *Monitor) awaitEdge(ctx context.Context) (Signal, error) {
	r := &sampler{m: m}

	last, err := r.read(ctx)
	if err != nil {
		return Signal{}, err
	}
	for {
		v, err := r.read(ctx)
		if err != nil {
			return Signal{}, err
		}
		if !v && v != last {
			return Signal{Level: v, At: m.now()}, nil
		}
		last = v
		if err := m.sleep(ctx, m.cfg.Poll); err != nil {
			return Signal{}, err
		}
	}
}

// awaitStable fires when the debounced level goes from pressed to released.
// A press held since before the call only counts once it is released and
// pressed again.
func (m *Monitor) awaitStable(ctx context.Context) (Signal, error) {
	r := &sampler{m: m}
	d := newDebouncer(m.cfg.Debounce)
	pressed := false

	for {
		v, err := r.read(ctx)
		if err != nil {
			return Signal{}, err
		}
		now := m.now()
		if d.process(v, now) {
			level, _ := d.Stable()
			if level {
				pressed = true
			} else if pressed {
				return Signal{Level: level, At: now}, nil
			}
		}
		if err := m.sleep(ctx, m.cfg.Poll); err != nil {
			return Signal{}, err
		}
	}
}

// sampler reads the button, retrying transient failures at the poll interval.
type sampler struct {
	m      *Monitor
	errors int
}

func (s *sampler) read(ctx context.Context) (bool, error) {
	for {
		v, err := s.m.reader.Read()
		if err == nil {
			s.errors = 0
			return v, nil
		}

		s.errors++
		s.m.metrics.Incr(metrics.InputReadErrors)
		if s.errors >= s.m.cfg.MaxReadErrors {
			return false, fmt.Errorf("%w: %d consecutive read errors: %w", ErrInput, s.errors, err)
		}
		if s.m.log != nil {
			s.m.log.Warnf("Button read failed (%d/%d): %v", s.errors, s.m.cfg.MaxReadErrors, err)
		}
		if err := s.m.sleep(ctx, s.m.cfg.Poll); err != nil {
			return false, err
		}
	}
}
