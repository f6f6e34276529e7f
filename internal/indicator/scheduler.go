package indicator

import (
	"context"
	"sync"
	"time"

	"github.com/sweeney/dumb-door/internal/clock"
)

// Default steady-state durations.
const (
	DefaultADuration = 1000 * time.Millisecond
	DefaultBDuration = 4000 * time.Millisecond
	DefaultQueueSize = 8
)

// Logger receives output failures.
type Logger interface {
	Warnf(format string, args ...any)
}

// Enqueuer accepts indicator commands.
type Enqueuer interface {
	Enqueue(ctx context.Context, cmd Command) error
}

// SchedulerConfig configures a Scheduler. Zero values take defaults.
type SchedulerConfig struct {
	QueueSize int
	DefaultA  time.Duration
	DefaultB  time.Duration
	Sleep     clock.SleepFunc
	Log       Logger
}

// Scheduler displays queued commands on an Output.
type Scheduler struct {
	out   Output
	cfg   SchedulerConfig
	queue chan Command

	mu      sync.RWMutex
	current Command
}

// NewScheduler creates a Scheduler whose current command is (Off, Off).
func NewScheduler(out Output, cfg SchedulerConfig) *Scheduler {
	if cfg.QueueSize < 1 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.DefaultA <= 0 {
		cfg.DefaultA = DefaultADuration
	}
	if cfg.DefaultB <= 0 {
		cfg.DefaultB = DefaultBDuration
	}
	if cfg.Sleep == nil {
		cfg.Sleep = clock.Sleep
	}
	return &Scheduler{
		out:     out,
		cfg:     cfg,
		queue:   make(chan Command, cfg.QueueSize),
		current: Pair(Off, Off),
	}
}

// Enqueue adds cmd to the queue, blocking while it is full.
// Returns ctx.Err() if ctx ends first.
func (s *Scheduler) Enqueue(ctx context.Context, cmd Command) error {
	select {
	case s.queue <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryEnqueue adds cmd if there is room and reports whether it did.
func (s *Scheduler) TryEnqueue(cmd Command) bool {
	select {
	case s.queue <- cmd:
		return true
	default:
		return false
	}
}

// Pending returns the number of queued commands.
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

// Current returns the command being displayed.
func (s *Scheduler) Current() Command {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Run displays commands until ctx is done and then returns ctx.Err().
// Each cycle takes at most one command off the queue; an empty queue repeats
// the current command.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		select {
		case cmd := <-s.queue:
			s.mu.Lock()
			s.current = cmd
			s.mu.Unlock()
		default:
		}

		cmd := s.Current()
		aDur, bDur := cmd.ADuration, cmd.BDuration
		if aDur <= 0 {
			aDur = s.cfg.DefaultA
		}
		if bDur <= 0 {
			bDur = s.cfg.DefaultB
		}

		if err := s.show(ctx, cmd.A, aDur); err != nil {
			return err
		}
		if err := s.show(ctx, cmd.B, bDur); err != nil {
			return err
		}
	}
}

func (s *Scheduler) show(ctx context.Context, c Color, d time.Duration) error {
	if err := s.out.SetColor(c); err != nil && s.cfg.Log != nil {
		s.cfg.Log.Warnf("indicator: set colour %s: %v", c, err)
	}
	return s.cfg.Sleep(ctx, d)
}
