// Package connectivity brings the device online: it joins the network with
// visual feedback, checks the assigned address and fetches the time reference
// used for log lines.
package connectivity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/sweeney/dumb-door/internal/clock"
	"github.com/sweeney/dumb-door/internal/indicator"
	"github.com/sweeney/dumb-door/internal/metrics"
	"github.com/sweeney/dumb-door/internal/netlink"
	"github.com/sweeney/dumb-door/internal/timesync"
)

// State is the connectivity lifecycle. It only moves forward.
type State string

const (
	Disconnected State = "disconnected"
	Connecting   State = "connecting"
	Connected    State = "connected"
	Degraded     State = "degraded"
	TimeSynced   State = "time_synced"
)

func (s State) rank() int {
	switch s {
	case Connecting:
		return 1
	case Connected:
		return 2
	case Degraded, TimeSynced:
		return 3
	}
	return 0
}

// Logger is the subset of the log sink the manager needs.
type Logger interface {
	Printf(format string, args ...any)
	Warnf(format string, args ...any)
	SetDatetime(dt string)
}

// RetryConfig bounds the wait for the link to connect.
type RetryConfig struct {
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
	MaxAttempts int
}

// Config configures a Manager.
type Config struct {
	Credentials netlink.Credentials
	Address     netlink.AddressConfig
	// Blink is the on and off duration of the waiting blink.
	Blink time.Duration
	Retry RetryConfig
	// ConnectedStatus is the lowest link status treated as connected.
	ConnectedStatus int
	// DegradedHold is how long the zero-address signal is shown. 0 shows it
	// until ctx ends.
	DegradedHold time.Duration
}

// Result describes a completed connection.
type Result struct {
	Address  string
	Datetime string
}

// Manager runs the connect sequence.
type Manager struct {
	link     netlink.Link
	out      indicator.Output
	times    timesync.Fetcher
	log      Logger
	cfg      Config
	sleep    clock.SleepFunc
	metrics  metrics.Recorder
	observer func(State)

	mu    sync.RWMutex
	state State
}

// Option configures a Manager.
type Option func(*Manager)

// WithSleep replaces the sleep used between blink phases.
func WithSleep(s clock.SleepFunc) Option {
	return func(m *Manager) { m.sleep = s }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(m *Manager) { m.metrics = r }
}

// WithObserver registers a callback for state changes.
func WithObserver(fn func(State)) Option {
	return func(m *Manager) { m.observer = fn }
}

// NewManager creates a Manager. The indicator output is driven directly,
// bypassing any scheduler queue.
func NewManager(link netlink.Link, out indicator.Output, times timesync.Fetcher, log Logger, cfg Config, opts ...Option) *Manager {
	if cfg.Blink <= 0 {
		cfg.Blink = 500 * time.Millisecond
	}
	if cfg.Retry.Initial <= 0 {
		cfg.Retry.Initial = time.Second
	}
	if cfg.Retry.Max < cfg.Retry.Initial {
		cfg.Retry.Max = cfg.Retry.Initial
	}
	if cfg.Retry.Multiplier < 1 {
		cfg.Retry.Multiplier = 2
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 30
	}
	if cfg.ConnectedStatus == 0 {
		cfg.ConnectedStatus = netlink.StatusJoin
	}
	m := &Manager{
		link:    link,
		times:   times,
		log:     log,
		cfg:     cfg,
		sleep:   clock.Sleep,
		metrics: metrics.Noop{},
		state:   Disconnected,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.out = warnOutput{out: out, log: log}
	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	if s.rank() <= m.state.rank() {
		m.mu.Unlock()
		return
	}
	m.state = s
	m.mu.Unlock()

	m.metrics.Gauge(metrics.ConnectState, float64(s.rank()), "state:"+string(s))
	if m.observer != nil {
		m.observer(s)
	}
}

// Connect runs the full sequence. It returns ErrConnect if the link never
// reaches the connected status within the retry budget, ErrZeroAddress after
// signalling a zero address, and ErrTimeService if the time reference fails.
func (m *Manager) Connect(ctx context.Context) (Result, error) {
	m.log.Printf("Connecting to WLAN...")
	m.setState(Connecting)
	_ = m.out.SetColor(indicator.Blue)

	if err := m.link.Activate(ctx); err != nil {
		return Result{}, fmt.Errorf("%w: activate: %w", ErrConnect, err)
	}

	ssids, err := m.link.Scan(ctx)
	if err != nil {
		m.log.Warnf("Scan failed: %v", err)
	} else {
		m.log.Printf("Scanned SSIDs: [%s]", strings.Join(ssids, ", "))
	}

	if err := m.link.Connect(ctx, m.cfg.Credentials, m.cfg.Address); err != nil {
		return Result{}, fmt.Errorf("%w: join %s: %w", ErrConnect, m.cfg.Credentials.SSID, err)
	}

	if err := m.waitConnected(ctx); err != nil {
		return Result{}, err
	}

	ip, err := m.link.CurrentAddress(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: read address: %w", ErrConnect, err)
	}
	m.log.Printf("Connected on IP: %s", ip)
	m.setState(Connected)

	if netlink.IsZeroAddress(ip) {
		return Result{Address: ip}, m.degraded(ctx, ip)
	}

	dt, err := m.times.Fetch(ctx)
	if err != nil {
		return Result{Address: ip}, fmt.Errorf("%w: %w", ErrTimeService, err)
	}
	m.log.SetDatetime(dt)
	m.setState(TimeSynced)

	return Result{Address: ip, Datetime: dt}, nil
}

// waitConnected polls the link status, blinking blue between polls for the
// next backoff interval.
func (m *Manager) waitConnected(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.cfg.Retry.Initial
	b.MaxInterval = m.cfg.Retry.Max
	b.Multiplier = m.cfg.Retry.Multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	for attempt := 1; ; attempt++ {
		m.metrics.Incr(metrics.ConnectAttempts)

		status, err := m.link.Status(ctx)
		if err != nil {
			m.log.Warnf("Link status failed: %v", err)
			status = netlink.StatusFail
		} else if status >= m.cfg.ConnectedStatus {
			return nil
		}

		m.log.Printf("Waiting for connection... Status: %d", status)
		if attempt >= m.cfg.Retry.MaxAttempts {
			return fmt.Errorf("%w: status %d (%s) after %d attempts", ErrConnect, status, netlink.StatusText(status), attempt)
		}

		wait := b.NextBackOff()
		if err := indicator.BlinkFor(ctx, m.out, m.sleep, indicator.Blue, indicator.Off, m.cfg.Blink, m.cfg.Blink, wait); err != nil {
			return err
		}
	}
}

// degraded shows the red zero-address signal for DegradedHold, or until ctx
// ends when no hold is set.
func (m *Manager) degraded(ctx context.Context, ip string) error {
	m.log.Printf("Connected to WLAN but IP was %s", ip)
	m.setState(Degraded)

	var err error
	if m.cfg.DegradedHold > 0 {
		err = indicator.BlinkFor(ctx, m.out, m.sleep, indicator.Red, indicator.Off, m.cfg.Blink, m.cfg.Blink, m.cfg.DegradedHold)
	} else {
		err = indicator.Blink(ctx, m.out, m.sleep, indicator.Red, indicator.Off, m.cfg.Blink, m.cfg.Blink)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrZeroAddress, ip)
}

// warnOutput logs LED failures instead of aborting the connect sequence.
type warnOutput struct {
	out indicator.Output
	log Logger
}

func (w warnOutput) SetColor(c indicator.Color) error {
	if err := w.out.SetColor(c); err != nil {
		w.log.Warnf("indicator: set colour %s: %v", c, err)
	}
	return nil
}
