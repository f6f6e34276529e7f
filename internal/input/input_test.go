package input

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/dumb-door/internal/clock"
	"github.com/sweeney/dumb-door/internal/gpio"
	"github.com/sweeney/dumb-door/internal/logging"
	"github.com/sweeney/dumb-door/internal/metrics"
)

// stepNow advances by step on every call.
func stepNow(step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := t0.Add(time.Duration(n) * step)
		n++
		return t
	}
}

func levels(bits ...int) []bool {
	out := make([]bool, len(bits))
	for i, b := range bits {
		out[i] = b == 1
	}
	return out
}

// cancelAfter returns a sleep that cancels ctx after n calls.
func cancelAfter(n int, cancel context.CancelFunc) clock.SleepFunc {
	calls := 0
	return func(ctx context.Context, d time.Duration) error {
		calls++
		if calls >= n {
			cancel()
		}
		return ctx.Err()
	}
}

func TestEdgeReturnsOnReleaseAfterPress(t *testing.T) {
	btn := gpio.NewFakeButton(levels(0, 0, 0, 1, 1, 0)...)
	rec := metrics.NewFake()
	m := NewMonitor(btn, Config{Policy: PolicyEdge}, logging.NewRecorder(),
		WithSleep(clock.NoSleep), WithMetrics(rec))

	sig, err := m.AwaitActivation(context.Background())
	require.NoError(t, err)

	assert.False(t, sig.Level)
	assert.Equal(t, 6, btn.Reads(), "returns on the sixth sample")
	assert.Equal(t, 1, rec.Count(metrics.InputActivations))
}

func TestEdgeHeldAtStartFiresOnRelease(t *testing.T) {
	btn := gpio.NewFakeButton(levels(1, 1, 0)...)
	m := NewMonitor(btn, Config{}, nil, WithSleep(clock.NoSleep))

	_, err := m.AwaitActivation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, btn.Reads())
}

func TestEdgeIdleNeverFires(t *testing.T) {
	btn := gpio.NewFakeButton(false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := NewMonitor(btn, Config{}, nil, WithSleep(cancelAfter(50, cancel)))

	_, err := m.AwaitActivation(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 51, btn.Reads())
}

func TestEdgeUsesPollInterval(t *testing.T) {
	btn := gpio.NewFakeButton(levels(0, 1, 0)...)
	var got []time.Duration
	sleep := func(ctx context.Context, d time.Duration) error {
		got = append(got, d)
		return nil
	}
	m := NewMonitor(btn, Config{}, nil, WithSleep(sleep))

	_, err := m.AwaitActivation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{40 * time.Millisecond}, got)
}

func TestStableRequiresHeldPressAndRelease(t *testing.T) {
	btn := gpio.NewFakeButton(levels(0, 0, 0, 1, 1, 1, 0, 0, 0)...)
	m := NewMonitor(btn, Config{Policy: PolicyStable, Debounce: 80 * time.Millisecond}, nil,
		WithSleep(clock.NoSleep), WithNow(stepNow(40*time.Millisecond)))

	sig, err := m.AwaitActivation(context.Background())
	require.NoError(t, err)
	assert.False(t, sig.Level)
	assert.Equal(t, 9, btn.Reads())
	assert.Equal(t, t0.Add(320*time.Millisecond), sig.At)
}

func TestStableIgnoresBounce(t *testing.T) {
	btn := gpio.NewFakeButton(levels(0, 0, 0, 1, 0, 1, 1, 1, 0, 0, 0)...)
	m := NewMonitor(btn, Config{Policy: PolicyStable, Debounce: 80 * time.Millisecond}, nil,
		WithSleep(clock.NoSleep), WithNow(stepNow(40*time.Millisecond)))

	_, err := m.AwaitActivation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 11, btn.Reads())
}

func TestStableShortGlitchIsNotAnActivation(t *testing.T) {
	// The edge policy would fire on this sequence; the stable policy does not.
	btn := gpio.NewFakeButton(levels(0, 0, 0, 1, 0, 0, 0, 0)...)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := NewMonitor(btn, Config{Policy: PolicyStable, Debounce: 80 * time.Millisecond}, nil,
		WithSleep(cancelAfter(20, cancel)), WithNow(stepNow(40*time.Millisecond)))

	_, err := m.AwaitActivation(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadErrorsAreRetried(t *testing.T) {
	btn := gpio.NewFakeButton(levels(0, 1, 0)...)
	btn.SetReadError(errors.New("EBUSY"))
	log := logging.NewRecorder()
	rec := metrics.NewFake()

	calls := 0
	sleep := func(ctx context.Context, d time.Duration) error {
		calls++
		if calls == 2 {
			btn.SetReadError(nil)
		}
		return nil
	}
	m := NewMonitor(btn, Config{MaxReadErrors: 5}, log, WithSleep(sleep), WithMetrics(rec))

	_, err := m.AwaitActivation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, log.Count("Button read failed"))
	assert.Equal(t, 2, rec.Count(metrics.InputReadErrors))
}

func TestTooManyReadErrors(t *testing.T) {
	btn := gpio.NewFakeButton(false)
	btn.SetReadError(errors.New("line released"))
	m := NewMonitor(btn, Config{MaxReadErrors: 3}, logging.NewRecorder(), WithSleep(clock.NoSleep))

	_, err := m.AwaitActivation(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInput)
	assert.Contains(t, err.Error(), "line released")
	assert.Equal(t, 3, btn.Reads())
}

func TestUnknownPolicy(t *testing.T) {
	m := NewMonitor(gpio.NewFakeButton(false), Config{Policy: "magic"}, nil)
	_, err := m.AwaitActivation(context.Background())
	assert.Error(t, err)
}
