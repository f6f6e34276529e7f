// Package status provides a thread-safe status tracker for the dumb-door daemon.
// It is read by the HTTP handlers and the websocket feed, and written by the
// controller loop.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/dumb-door/internal/indicator"
	"github.com/sweeney/dumb-door/internal/lock"
)

// Config contains daemon configuration for display.
type Config struct {
	Device     string
	SSID       string
	PollMs     int64
	Policy     string
	DebounceMs int64
	Broker     string
	HTTPAddr   string
}

// Counts tracks activity since startup.
type Counts struct {
	Activations int
	Toggles     int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Phase         string
	Lock          lock.State
	LockKnown     bool
	Connectivity  string
	IP            string
	Datetime      string
	Indicator     indicator.Command
	Counts        Counts
	LastToggle    time.Time
	LastError     string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Ready reports whether the controller is accepting input.
func (s Snapshot) Ready() bool {
	return s.LockKnown && s.Phase != "fatal"
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime:    startTime,
			Config:       cfg,
			Connectivity: "disconnected",
		},
		now: time.Now,
	}
}

func (t *Tracker) update(fn func(*Snapshot)) {
	t.mu.Lock()
	fn(&t.snap)
	t.mu.Unlock()
}

// SetPhase records the controller phase.
func (t *Tracker) SetPhase(phase string) {
	t.update(func(s *Snapshot) { s.Phase = phase })
}

// SetConnectivity records the connectivity state.
func (t *Tracker) SetConnectivity(state string) {
	t.update(func(s *Snapshot) { s.Connectivity = state })
}

// SetNetwork records the assigned address and time reference.
func (t *Tracker) SetNetwork(ip, datetime string) {
	t.update(func(s *Snapshot) {
		s.IP = ip
		s.Datetime = datetime
	})
}

// SetLock records the lock state without counting a toggle.
func (t *Tracker) SetLock(state lock.State) {
	t.update(func(s *Snapshot) {
		s.Lock = state
		s.LockKnown = true
	})
}

// RecordActivation counts one button activation.
func (t *Tracker) RecordActivation() {
	t.update(func(s *Snapshot) { s.Counts.Activations++ })
}

// RecordToggle records a completed transition to state at at.
func (t *Tracker) RecordToggle(state lock.State, at time.Time) {
	t.update(func(s *Snapshot) {
		s.Lock = state
		s.LockKnown = true
		s.Counts.Toggles++
		s.LastToggle = at
	})
}

// SetIndicator records the command the LED is showing.
func (t *Tracker) SetIndicator(cmd indicator.Command) {
	t.update(func(s *Snapshot) { s.Indicator = cmd })
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.update(func(s *Snapshot) { s.MQTTConnected = connected })
}

// SetLastError records the most recent error message.
func (t *Tracker) SetLastError(msg string) {
	t.update(func(s *Snapshot) { s.LastError = msg })
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
