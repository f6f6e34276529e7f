// Package controller sequences the door controller: signal startup, bring up
// connectivity, seed the indicator with the locked state, then toggle the lock
// on every button activation. Any error ends the run; Supervise reports it
// and resets the process.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sweeney/dumb-door/internal/clock"
	"github.com/sweeney/dumb-door/internal/connectivity"
	"github.com/sweeney/dumb-door/internal/indicator"
	"github.com/sweeney/dumb-door/internal/input"
	"github.com/sweeney/dumb-door/internal/lock"
	"github.com/sweeney/dumb-door/internal/metrics"
	"github.com/sweeney/dumb-door/internal/mqtt"
	"github.com/sweeney/dumb-door/internal/status"
	"github.com/sweeney/dumb-door/internal/system"
)

// Phases reported to the status tracker.
const (
	PhaseInit           = "init"
	PhaseConnecting     = "connecting"
	PhaseReady          = "ready"
	PhaseActivationWait = "activation_wait"
	PhaseToggling       = "toggling"
	PhaseFatal          = "fatal"
	PhaseStopped        = "stopped"
)

// Error kinds reported in the fatal log line and FATAL event.
const (
	KindConnect     = "ConnectError"
	KindZeroAddress = "ZeroAddressCondition"
	KindTimeService = "TimeServiceError"
	KindInput       = "InputError"
	KindUnhandled   = "UnhandledError"
)

// Startup blink.
const (
	initBlinkOn  = 500 * time.Millisecond
	initBlinkOff = 500 * time.Millisecond
)

// Kind classifies a run error.
func Kind(err error) string {
	switch {
	case errors.Is(err, connectivity.ErrConnect):
		return KindConnect
	case errors.Is(err, connectivity.ErrZeroAddress):
		return KindZeroAddress
	case errors.Is(err, connectivity.ErrTimeService):
		return KindTimeService
	case errors.Is(err, input.ErrInput):
		return KindInput
	}
	return KindUnhandled
}

// Logger is the log sink used by the controller.
type Logger interface {
	Printf(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(err error, format string, args ...any)
}

// Connector brings up the network.
type Connector interface {
	Connect(ctx context.Context) (connectivity.Result, error)
}

// Activator waits for the next button activation.
type Activator interface {
	AwaitActivation(ctx context.Context) (input.Signal, error)
}

// Scheduler owns the LED once the controller is ready.
type Scheduler interface {
	indicator.Enqueuer
	Run(ctx context.Context) error
}

// Deps are the controller's collaborators. LED, Connector, Input, Scheduler
// and Machine are required.
type Deps struct {
	Log       Logger
	LED       indicator.Output
	Connector Connector
	Input     Activator
	Scheduler Scheduler
	Machine   *lock.Machine
	Publisher mqtt.Publisher
	Tracker   *status.Tracker
	Metrics   metrics.Recorder
	Device    string
}

// Controller runs the door.
type Controller struct {
	deps  Deps
	sleep clock.SleepFunc
	now   func() time.Time

	mu    sync.Mutex
	phase string
	state lock.State
}

// Option configures a Controller.
type Option func(*Controller)

// WithSleep replaces the sleep used by the startup blink.
func WithSleep(s clock.SleepFunc) Option {
	return func(c *Controller) { c.sleep = s }
}

// WithNow replaces the clock used for event timestamps.
func WithNow(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates a Controller. Nil Publisher and Metrics are replaced by no-ops.
func New(deps Deps, opts ...Option) *Controller {
	if deps.Publisher == nil {
		deps.Publisher = mqtt.Nop{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Noop{}
	}
	c := &Controller{
		deps:  deps,
		sleep: clock.Sleep,
		now:   time.Now,
		state: lock.Locked,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Phase returns the current phase.
func (c *Controller) Phase() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// State returns the current lock state.
func (c *Controller) State() lock.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setPhase(p string) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
	if c.deps.Tracker != nil {
		c.deps.Tracker.SetPhase(p)
	}
}

func (c *Controller) setState(s lock.State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run starts the controller and returns only on error or cancellation.
func (c *Controller) Run(ctx context.Context) error {
	c.setPhase(PhaseInit)
	c.deps.Log.Printf("Initializing")
	if err := indicator.BlinkOnce(ctx, c.deps.LED, c.sleep, indicator.White, indicator.Off, initBlinkOn, initBlinkOff); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// The connect phase drives the LED next and will surface a dead output.
		c.deps.Log.Warnf("Startup blink failed: %v", err)
	}

	c.setPhase(PhaseConnecting)
	res, err := c.deps.Connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if c.deps.Tracker != nil {
		c.deps.Tracker.SetNetwork(res.Address, res.Datetime)
	}

	c.setPhase(PhaseReady)
	initial := lock.IndicatorFor(lock.Locked)
	if err := c.deps.Scheduler.Enqueue(ctx, initial); err != nil {
		return fmt.Errorf("seed indicator: %w", err)
	}
	c.setState(lock.Locked)
	c.deps.Machine.ReportState(lock.Locked)
	if c.deps.Tracker != nil {
		c.deps.Tracker.SetIndicator(initial)
		c.deps.Tracker.SetLock(lock.Locked)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.deps.Scheduler.Run(gctx)
	})
	g.Go(func() error {
		c.deps.Log.Printf("Initialize complete")
		c.publishSystem(mqtt.EventReady, "")
		return c.loop(gctx)
	})
	return g.Wait()
}

// loop waits for activations and toggles the lock, forever.
func (c *Controller) loop(ctx context.Context) error {
	for {
		c.setPhase(PhaseActivationWait)
		sig, err := c.deps.Input.AwaitActivation(ctx)
		if err != nil {
			return fmt.Errorf("await activation: %w", err)
		}
		if c.deps.Tracker != nil {
			c.deps.Tracker.RecordActivation()
		}

		c.setPhase(PhaseToggling)
		from := c.State()
		to, err := c.deps.Machine.ToggleLock(ctx, from)
		c.setState(to)
		if err != nil {
			return fmt.Errorf("toggle lock: %w", err)
		}

		at := sig.At
		if at.IsZero() {
			at = c.now()
		}
		if c.deps.Tracker != nil {
			c.deps.Tracker.RecordToggle(to, at)
			c.deps.Tracker.SetIndicator(lock.IndicatorFor(to))
		}
		if err := c.deps.Publisher.PublishLock(mqtt.NewLockEvent(at, from, to, "button")); err != nil {
			c.deps.Log.Warnf("Failed to publish lock event: %v", err)
		}
	}
}

// Supervise runs the controller. Cancellation of ctx is a clean shutdown and
// returns nil. Any other error is logged with its kind, published and handed
// to reset.
func (c *Controller) Supervise(ctx context.Context, reset system.Resetter) error {
	c.publishSystem(mqtt.EventStartup, "")

	err := c.Run(ctx)
	if ctx.Err() != nil {
		c.setPhase(PhaseStopped)
		c.publishSystem(mqtt.EventShutdown, shutdownReason(ctx))
		return nil
	}
	if err == nil {
		return nil
	}

	kind := Kind(err)
	c.setPhase(PhaseFatal)
	c.deps.Log.Errorf(err, "Error caught: %s", kind)
	c.deps.Metrics.Incr(metrics.Fatal, "kind:"+kind)
	if c.deps.Tracker != nil {
		c.deps.Tracker.SetLastError(fmt.Sprintf("%s: %v", kind, err))
	}
	c.publishSystem(mqtt.EventFatal, kind)

	if reset == nil {
		return err
	}
	if rerr := reset.Reset(err); rerr != nil {
		return fmt.Errorf("reset after %s: %w", kind, errors.Join(err, rerr))
	}
	return err
}

// shutdownReason returns the cancellation cause, such as the signal name.
func shutdownReason(ctx context.Context) string {
	cause := context.Cause(ctx)
	if cause == nil || errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return ""
	}
	return cause.Error()
}

func (c *Controller) publishSystem(event, reason string) {
	ev := mqtt.SystemEvent{
		Timestamp: c.now(),
		Event:     event,
		Reason:    reason,
		Device:    c.deps.Device,
		Retained:  true,
	}
	if c.deps.Tracker != nil {
		if cs, ok := c.deps.Publisher.(mqtt.ConnectionStatus); ok {
			c.deps.Tracker.SetMQTTConnected(cs.IsConnected())
		}
		ev.RawPayload = status.FormatStatusEvent(c.deps.Tracker.Snapshot(), event, reason)
	}
	if err := c.deps.Publisher.PublishSystem(ev); err != nil {
		c.deps.Log.Warnf("Failed to publish %s event: %v", event, err)
	}
}
