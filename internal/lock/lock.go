// Package lock holds the door lock state and the transition between its two
// values. This package has no hardware dependencies; physical actuation is an
// injected Actuator.
package lock

import (
	"context"
	"fmt"

	"github.com/sweeney/dumb-door/internal/indicator"
	"github.com/sweeney/dumb-door/internal/metrics"
)

// State is the logical lock state.
type State int

const (
	Open State = iota
	Locked
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Locked:
		return "locked"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText renders the state name for JSON status output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Toggle returns the other state.
func Toggle(s State) State {
	if s == Locked {
		return Open
	}
	return Locked
}

// IndicatorFor returns the steady-state blink for s: green while locked,
// red while open.
func IndicatorFor(s State) indicator.Command {
	if s == Locked {
		return indicator.Pair(indicator.Green, indicator.Off)
	}
	return indicator.Pair(indicator.Red, indicator.Off)
}

// Logger is the subset of the log sink the machine needs.
type Logger interface {
	Printf(format string, args ...any)
	Debugf(format string, args ...any)
}

// Machine performs transitions with their side effects.
type Machine struct {
	log      Logger
	actuator Actuator
	queue    indicator.Enqueuer
	metrics  metrics.Recorder
}

// NewMachine creates a Machine. A nil actuator is replaced by NoopActuator and
// nil metrics by metrics.Noop.
func NewMachine(log Logger, actuator Actuator, queue indicator.Enqueuer, rec metrics.Recorder) *Machine {
	if actuator == nil {
		actuator = NoopActuator{Log: log}
	}
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &Machine{log: log, actuator: actuator, queue: queue, metrics: rec}
}

// Toggle flips current and logs the transition.
func (m *Machine) Toggle(current State) State {
	next := Toggle(current)
	m.log.Printf("Lock status updated: %s -> %s", current, next)
	return next
}

// ToggleLock flips current, drives the actuator, logs the action and enqueues
// the new indicator command. If actuation fails the state is unchanged and
// nothing is enqueued.
func (m *Machine) ToggleLock(ctx context.Context, current State) (State, error) {
	next := m.Toggle(current)

	var err error
	if next == Open {
		err = m.actuator.DriveOpen(ctx)
	} else {
		err = m.actuator.DriveClose(ctx)
	}
	if err != nil {
		m.metrics.Incr(metrics.LockActuationErr)
		return current, fmt.Errorf("drive lock %s: %w", next, err)
	}

	if next == Open {
		m.log.Printf("Lock opened")
	} else {
		m.log.Printf("Lock locked")
	}

	m.metrics.Incr(metrics.LockToggles, "state:"+next.String())
	m.metrics.Gauge(metrics.LockState, gaugeValue(next))

	if err := m.queue.Enqueue(ctx, IndicatorFor(next)); err != nil {
		return next, fmt.Errorf("enqueue indicator: %w", err)
	}
	return next, nil
}

// gaugeValue maps Locked to 1 and Open to 0.
func gaugeValue(s State) float64 {
	if s == Locked {
		return 1
	}
	return 0
}

// ReportState sets the lock state gauge without a transition.
func (m *Machine) ReportState(s State) {
	m.metrics.Gauge(metrics.LockState, gaugeValue(s))
}
