// Package indicator drives the tri-colour status LED.
//
// Colours are shown through an Output. A Scheduler owns the LED in steady
// state and displays the most recent Command from a bounded queue, repeating
// it until a newer one arrives.
package indicator

import (
	"context"
	"fmt"
	"time"

	"github.com/sweeney/dumb-door/internal/clock"
)

// Color is an RGB triple. A component of 128 or more counts as lit on
// binary outputs.
type Color struct {
	R, G, B uint8
}

// Named colours.
var (
	Off   = Color{0, 0, 0}
	White = Color{255, 255, 255}
	Red   = Color{255, 0, 0}
	Green = Color{0, 255, 0}
	Blue  = Color{0, 0, 255}
)

// String returns the colour name, or its RGB triple if it has none.
func (c Color) String() string {
	switch c {
	case Off:
		return "off"
	case White:
		return "white"
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	}
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// MarshalText renders the colour name for JSON status output.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Command is one scheduler cycle: A for ADuration then B for BDuration.
// Zero durations are replaced by the scheduler defaults.
type Command struct {
	A, B      Color
	ADuration time.Duration
	BDuration time.Duration
}

// Pair builds a Command with default durations.
func Pair(a, b Color) Command {
	return Command{A: a, B: b}
}

func (c Command) String() string {
	return fmt.Sprintf("(%s, %s)", c.A, c.B)
}

// Output sets the LED colour.
type Output interface {
	SetColor(c Color) error
}

// BlinkOnce shows a for aDur, then b for bDur.
// Returns the first output error, or ctx.Err() if cancelled mid-blink.
func BlinkOnce(ctx context.Context, out Output, sleep clock.SleepFunc, a, b Color, aDur, bDur time.Duration) error {
	if err := out.SetColor(a); err != nil {
		return fmt.Errorf("set colour %s: %w", a, err)
	}
	if err := sleep(ctx, aDur); err != nil {
		return err
	}
	if err := out.SetColor(b); err != nil {
		return fmt.Errorf("set colour %s: %w", b, err)
	}
	return sleep(ctx, bDur)
}

// Blink repeats BlinkOnce until ctx is done or an output error occurs.
func Blink(ctx context.Context, out Output, sleep clock.SleepFunc, a, b Color, aDur, bDur time.Duration) error {
	for {
		if err := BlinkOnce(ctx, out, sleep, a, b, aDur, bDur); err != nil {
			return err
		}
	}
}

// BlinkFor repeats BlinkOnce for roughly d, rounded to whole cycles.
// At least one cycle is always shown.
func BlinkFor(ctx context.Context, out Output, sleep clock.SleepFunc, a, b Color, aDur, bDur, d time.Duration) error {
	cycle := aDur + bDur
	n := 1
	if cycle > 0 {
		n = max(1, int((d+cycle/2)/cycle))
	}
	for i := 0; i < n; i++ {
		if err := BlinkOnce(ctx, out, sleep, a, b, aDur, bDur); err != nil {
			return err
		}
	}
	return nil
}
