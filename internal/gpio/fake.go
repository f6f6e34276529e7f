package gpio

import (
	"errors"
	"sync"

	"github.com/sweeney/dumb-door/internal/indicator"
)

// FakeButton is a test double that returns scripted button levels.
// Safe for concurrent use.
type FakeButton struct {
	mu sync.Mutex

	// Samples contains scripted levels (true = pressed).
	// Each call to Read() consumes the next sample; the last one repeats.
	Samples []bool

	// ReadError, if set, will be returned by Read().
	ReadError error

	index  int
	reads  int
	closed bool
}

// NewFakeButton creates a FakeButton with the given samples.
func NewFakeButton(samples ...bool) *FakeButton {
	return &FakeButton{Samples: samples}
}

// Read returns the next scripted sample.
func (f *FakeButton) Read() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	v := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return v, nil
}

// Reads returns how many times Read was called.
func (f *FakeButton) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// SetReadError changes the error returned by Read.
func (f *FakeButton) SetReadError(err error) {
	f.mu.Lock()
	f.ReadError = err
	f.mu.Unlock()
}

// Close marks the button as closed.
func (f *FakeButton) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakeButton) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// FakeLED records every colour it is asked to show.
// Safe for concurrent use.
type FakeLED struct {
	mu     sync.Mutex
	colors []indicator.Color

	// SetError, if set, will be returned by SetColor after recording.
	SetError error
}

// NewFakeLED creates an empty FakeLED.
func NewFakeLED() *FakeLED {
	return &FakeLED{}
}

// SetColor records c.
func (f *FakeLED) SetColor(c indicator.Color) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.colors = append(f.colors, c)
	return f.SetError
}

// Colors returns a copy of the recorded colours.
func (f *FakeLED) Colors() []indicator.Color {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]indicator.Color, len(f.colors))
	copy(out, f.colors)
	return out
}

// Last returns the most recent colour, or Off if none was set.
func (f *FakeLED) Last() indicator.Color {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.colors) == 0 {
		return indicator.Off
	}
	return f.colors[len(f.colors)-1]
}

// Count returns how many times c was shown.
func (f *FakeLED) Count(c indicator.Color) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, got := range f.colors {
		if got == c {
			n++
		}
	}
	return n
}
