package indicator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingOutput records colours and cancels once limit colours are shown.
type recordingOutput struct {
	mu     sync.Mutex
	colors []Color
	limit  int
	cancel context.CancelFunc
	err    error
}

func (r *recordingOutput) SetColor(c Color) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.colors = append(r.colors, c)
	if r.limit > 0 && len(r.colors) >= r.limit && r.cancel != nil {
		r.cancel()
	}
	return r.err
}

func (r *recordingOutput) Colors() []Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Color, len(r.colors))
	copy(out, r.colors)
	return out
}

// recordingSleep records requested durations and never blocks.
type recordingSleep struct {
	mu        sync.Mutex
	durations []time.Duration
}

func (r *recordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.durations = append(r.durations, d)
	r.mu.Unlock()
	return ctx.Err()
}

type warnRecorder struct {
	mu    sync.Mutex
	lines int
}

func (w *warnRecorder) Warnf(string, ...any) {
	w.mu.Lock()
	w.lines++
	w.mu.Unlock()
}

func TestBlinkOnce(t *testing.T) {
	out := &recordingOutput{}
	sl := &recordingSleep{}

	err := BlinkOnce(context.Background(), out, sl.Sleep, White, Off, 500*time.Millisecond, 500*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, []Color{White, Off}, out.Colors())
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, sl.durations)
}

func TestBlinkOnceOutputError(t *testing.T) {
	out := &recordingOutput{err: errors.New("line busy")}
	err := BlinkOnce(context.Background(), out, (&recordingSleep{}).Sleep, Red, Off, time.Millisecond, time.Millisecond)
	assert.Error(t, err)
}

func TestBlinkRunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := &recordingOutput{limit: 6, cancel: cancel}

	err := Blink(ctx, out, (&recordingSleep{}).Sleep, Blue, Off, time.Millisecond, time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []Color{Blue, Off, Blue, Off, Blue, Off}, out.Colors())
}

func TestBlinkForRunsWholeCycles(t *testing.T) {
	out := &recordingOutput{}
	sl := &recordingSleep{}

	// 2.5s over 1s cycles rounds to 3 cycles.
	err := BlinkFor(context.Background(), out, sl.Sleep, Blue, Off, 500*time.Millisecond, 500*time.Millisecond, 2500*time.Millisecond)
	require.NoError(t, err)
	assert.Len(t, out.Colors(), 6)

	out = &recordingOutput{}
	require.NoError(t, BlinkFor(context.Background(), out, sl.Sleep, Blue, Off, 500*time.Millisecond, 500*time.Millisecond, 0))
	assert.Len(t, out.Colors(), 2, "always at least one cycle")
}

func TestSchedulerFIFOThenRepeat(t *testing.T) {
	a, b, c, d := Red, Green, Blue, White

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &recordingOutput{limit: 6, cancel: cancel}
	s := NewScheduler(out, SchedulerConfig{Sleep: (&recordingSleep{}).Sleep})

	require.NoError(t, s.Enqueue(ctx, Pair(a, b)))
	require.NoError(t, s.Enqueue(ctx, Pair(c, d)))

	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []Color{a, b, c, d, c, d}, out.Colors())
	assert.Equal(t, Pair(c, d), s.Current())
	assert.Equal(t, 0, s.Pending())
}

func TestSchedulerEmptyQueueShowsOffOff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &recordingOutput{limit: 4, cancel: cancel}
	sl := &recordingSleep{}
	s := NewScheduler(out, SchedulerConfig{Sleep: sl.Sleep})

	_ = s.Run(ctx)

	assert.Equal(t, []Color{Off, Off, Off, Off}, out.Colors())
	assert.Equal(t, DefaultADuration, sl.durations[0])
	assert.Equal(t, DefaultBDuration, sl.durations[1])
}

func TestSchedulerUsesCommandDurations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &recordingOutput{limit: 2, cancel: cancel}
	sl := &recordingSleep{}
	s := NewScheduler(out, SchedulerConfig{Sleep: sl.Sleep})

	require.True(t, s.TryEnqueue(Command{A: Red, B: Off, ADuration: 100 * time.Millisecond, BDuration: 200 * time.Millisecond}))
	_ = s.Run(ctx)

	require.Len(t, sl.durations, 2)
	assert.Equal(t, 100*time.Millisecond, sl.durations[0])
	assert.Equal(t, 200*time.Millisecond, sl.durations[1])
}

func TestSchedulerLogsOutputErrorsAndContinues(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &recordingOutput{limit: 4, cancel: cancel, err: errors.New("gpio gone")}
	w := &warnRecorder{}
	s := NewScheduler(out, SchedulerConfig{Sleep: (&recordingSleep{}).Sleep, Log: w})

	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, out.Colors(), 4)
	assert.Equal(t, 4, w.lines)
}

func TestSchedulerBackpressure(t *testing.T) {
	s := NewScheduler(&recordingOutput{}, SchedulerConfig{QueueSize: 2})

	assert.True(t, s.TryEnqueue(Pair(Red, Off)))
	assert.True(t, s.TryEnqueue(Pair(Green, Off)))
	assert.False(t, s.TryEnqueue(Pair(Blue, Off)), "queue is full")
	assert.Equal(t, 2, s.Pending())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Enqueue(ctx, Pair(Blue, Off))
	assert.ErrorIs(t, err, context.DeadlineExceeded, "enqueue blocks while full")
}

func TestSchedulerEnqueueUnblocksWhenDrained(t *testing.T) {
	s := NewScheduler(&recordingOutput{}, SchedulerConfig{QueueSize: 1})
	require.True(t, s.TryEnqueue(Pair(Red, Off)))

	done := make(chan error, 1)
	go func() {
		done <- s.Enqueue(context.Background(), Pair(Green, Off))
	}()

	// Drain one slot the way Run does.
	<-s.queue

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Enqueue did not unblock after the queue drained")
	}
}

func TestColorString(t *testing.T) {
	assert.Equal(t, "green", Green.String())
	assert.Equal(t, "off", Off.String())
	assert.Equal(t, "rgb(1,2,3)", Color{1, 2, 3}.String())
	assert.Equal(t, "(red, off)", Pair(Red, Off).String())
}
