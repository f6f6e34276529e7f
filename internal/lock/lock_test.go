package lock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/dumb-door/internal/indicator"
	"github.com/sweeney/dumb-door/internal/logging"
	"github.com/sweeney/dumb-door/internal/metrics"
)

type fakeQueue struct {
	mu   sync.Mutex
	cmds []indicator.Command
	err  error
}

func (q *fakeQueue) Enqueue(ctx context.Context, cmd indicator.Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.cmds = append(q.cmds, cmd)
	return nil
}

func TestToggleParity(t *testing.T) {
	s := Locked
	for n := 1; n <= 25; n++ {
		s = Toggle(s)
		if n%2 == 0 {
			assert.Equal(t, Locked, s, "after %d toggles", n)
		} else {
			assert.Equal(t, Open, s, "after %d toggles", n)
		}
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "locked", Locked.String())
	assert.Equal(t, "State(7)", State(7).String())
}

func TestIndicatorFor(t *testing.T) {
	assert.Equal(t, indicator.Pair(indicator.Green, indicator.Off), IndicatorFor(Locked))
	assert.Equal(t, indicator.Pair(indicator.Red, indicator.Off), IndicatorFor(Open))
}

func TestMachineToggleLogsOnce(t *testing.T) {
	log := logging.NewRecorder()
	m := NewMachine(log, nil, &fakeQueue{}, nil)

	assert.Equal(t, Open, m.Toggle(Locked))
	assert.Equal(t, []string{"Lock status updated: locked -> open"}, log.Lines())
}

func TestToggleLockEffects(t *testing.T) {
	tests := []struct {
		name     string
		from     State
		want     State
		action   string
		drive    string
		wantPair indicator.Command
	}{
		{"locked to open", Locked, Open, "Lock opened", "open", indicator.Pair(indicator.Red, indicator.Off)},
		{"open to locked", Open, Locked, "Lock locked", "close", indicator.Pair(indicator.Green, indicator.Off)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logging.NewRecorder()
			q := &fakeQueue{}
			act := &FakeActuator{}
			rec := metrics.NewFake()
			m := NewMachine(log, act, q, rec)

			got, err := m.ToggleLock(context.Background(), tt.from)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			assert.Equal(t, 1, log.Count("Lock status updated"))
			assert.Equal(t, 1, log.Count(tt.action))
			assert.Equal(t, []indicator.Command{tt.wantPair}, q.cmds, "exactly one command per toggle")
			assert.Equal(t, []string{tt.drive}, act.Calls())

			assert.Equal(t, 1, rec.Count(metrics.LockToggles))
			assert.Equal(t, []string{"state:" + tt.want.String()}, rec.LastTags(metrics.LockToggles))
			v, _ := rec.GaugeValue(metrics.LockState)
			assert.Equal(t, gaugeValue(tt.want), v)
		})
	}
}

func TestToggleLockSequenceAlternatesColours(t *testing.T) {
	q := &fakeQueue{}
	m := NewMachine(logging.NewRecorder(), nil, q, nil)

	s := Locked
	for i := 0; i < 4; i++ {
		var err error
		s, err = m.ToggleLock(context.Background(), s)
		require.NoError(t, err)
	}

	assert.Equal(t, Locked, s)
	require.Len(t, q.cmds, 4)
	for i, cmd := range q.cmds {
		want := indicator.Red
		if i%2 == 1 {
			want = indicator.Green
		}
		assert.Equal(t, want, cmd.A, "command %d", i)
		assert.Equal(t, indicator.Off, cmd.B, "command %d", i)
	}
}

func TestToggleLockActuatorFailure(t *testing.T) {
	log := logging.NewRecorder()
	q := &fakeQueue{}
	act := &FakeActuator{Err: errors.New("motor stalled")}
	rec := metrics.NewFake()
	m := NewMachine(log, act, q, rec)

	got, err := m.ToggleLock(context.Background(), Locked)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "motor stalled")
	assert.Equal(t, Locked, got, "state is unchanged")
	assert.Empty(t, q.cmds)
	assert.False(t, log.Contains("Lock opened"))
	assert.Equal(t, 1, rec.Count(metrics.LockActuationErr))
}

func TestToggleLockEnqueueCancelled(t *testing.T) {
	q := &fakeQueue{err: context.Canceled}
	m := NewMachine(logging.NewRecorder(), nil, q, nil)

	got, err := m.ToggleLock(context.Background(), Locked)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Open, got, "the transition already happened")
}

func TestNoopActuatorLogsAtDebug(t *testing.T) {
	log := logging.NewRecorder()
	a := NoopActuator{Log: log}
	require.NoError(t, a.DriveOpen(context.Background()))
	require.NoError(t, a.DriveClose(context.Background()))
	assert.Equal(t, 2, log.Count("no motor fitted"))
}
