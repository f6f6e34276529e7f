package lock

import (
	"context"
	"sync"
)

// Actuator drives the physical lock.
type Actuator interface {
	DriveOpen(ctx context.Context) error
	DriveClose(ctx context.Context) error
}

// NoopActuator is used until motor hardware is fitted. It only logs.
type NoopActuator struct {
	Log interface {
		Debugf(format string, args ...any)
	}
}

func (n NoopActuator) DriveOpen(ctx context.Context) error {
	if n.Log != nil {
		n.Log.Debugf("actuator: no motor fitted, skipping open")
	}
	return nil
}

func (n NoopActuator) DriveClose(ctx context.Context) error {
	if n.Log != nil {
		n.Log.Debugf("actuator: no motor fitted, skipping close")
	}
	return nil
}

// FakeActuator records drive calls. Safe for concurrent use.
type FakeActuator struct {
	mu    sync.Mutex
	calls []string
	Err   error
}

func (f *FakeActuator) DriveOpen(ctx context.Context) error {
	return f.record("open")
}

func (f *FakeActuator) DriveClose(ctx context.Context) error {
	return f.record("close")
}

func (f *FakeActuator) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.Err
}

// Calls returns the recorded drive calls in order.
func (f *FakeActuator) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
