// Package metrics emits device gauges and counters to a DogStatsD agent.
package metrics

import (
	"fmt"

	"github.com/DataDog/datadog-go/statsd"
)

// Metric names.
const (
	LockState        = "lock.state"
	LockToggles      = "lock.toggles"
	LockActuationErr = "lock.actuation_errors"
	InputActivations = "input.activations"
	InputReadErrors  = "input.read_errors"
	ConnectAttempts  = "connect.attempts"
	ConnectState     = "connect.state"
	Fatal            = "controller.fatal"
)

// Recorder records gauges and counters.
type Recorder interface {
	Gauge(name string, value float64, tags ...string)
	Incr(name string, tags ...string)
}

// Warner receives emit failures.
type Warner interface {
	Warnf(format string, args ...any)
}

// Statsd sends metrics through the DogStatsD client.
type Statsd struct {
	client *statsd.Client
	log    Warner
}

// NewStatsd creates a client for the agent at addr.
func NewStatsd(addr, namespace string, tags []string, log Warner) (*Statsd, error) {
	client, err := statsd.New(addr, statsd.WithNamespace(namespace), statsd.WithTags(tags))
	if err != nil {
		return nil, fmt.Errorf("create dogstatsd client: %w", err)
	}
	return &Statsd{client: client, log: log}, nil
}

// Gauge records value for name.
func (s *Statsd) Gauge(name string, value float64, tags ...string) {
	if err := s.client.Gauge(name, value, tags, 1); err != nil && s.log != nil {
		s.log.Warnf("metrics: gauge %s: %v", name, err)
	}
}

// Incr increments name by one.
func (s *Statsd) Incr(name string, tags ...string) {
	if err := s.client.Incr(name, tags, 1); err != nil && s.log != nil {
		s.log.Warnf("metrics: incr %s: %v", name, err)
	}
}

// Close flushes and closes the client.
func (s *Statsd) Close() error {
	return s.client.Close()
}

// Noop discards everything.
type Noop struct{}

func (Noop) Gauge(string, float64, ...string) {}
func (Noop) Incr(string, ...string)           {}
