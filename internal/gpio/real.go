//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/dumb-door/internal/indicator"
)

// RealButton reads the button from actual hardware using the Linux GPIO
// character device.
type RealButton struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealButton requests pin on chipName as an input with pull-down.
func NewRealButton(chipName string, pin int) (*RealButton, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button pin %d: %w", pin, err)
	}

	return &RealButton{chip: chip, line: line}, nil
}

// Read returns true while the button is pressed.
func (b *RealButton) Read() (bool, error) {
	v, err := b.line.Value()
	if err != nil {
		return false, fmt.Errorf("read button pin: %w", err)
	}
	return v == 1, nil
}

// Close releases GPIO resources.
func (b *RealButton) Close() error {
	var errs []error
	if b.line != nil {
		if err := b.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pin: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealLED drives one output line per colour channel.
type RealLED struct {
	chip      *gpiocdev.Chip
	lines     [3]*gpiocdev.Line // red, green, blue
	activeLow bool
}

// NewRealLED requests the three LED lines as outputs, initially dark.
func NewRealLED(chipName string, pins LEDPins) (*RealLED, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	led := &RealLED{chip: chip, activeLow: pins.ActiveLow}
	for i, pin := range []int{pins.Red, pins.Green, pins.Blue} {
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(level(false, pins.ActiveLow)))
		if err != nil {
			led.Close()
			return nil, fmt.Errorf("request led pin %d: %w", pin, err)
		}
		led.lines[i] = line
	}
	return led, nil
}

// SetColor switches each channel on or off for c.
func (l *RealLED) SetColor(c indicator.Color) error {
	for i, comp := range []uint8{c.R, c.G, c.B} {
		if err := l.lines[i].SetValue(level(lit(comp), l.activeLow)); err != nil {
			return fmt.Errorf("set led line %d: %w", i, err)
		}
	}
	return nil
}

// Close turns the LED off and releases GPIO resources.
// Lines are reconfigured to input with pull-down (matching Pi boot defaults)
// before closing.
func (l *RealLED) Close() error {
	var errs []error
	for i, line := range l.lines {
		if line == nil {
			continue
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure led line %d: %w", i, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close led line %d: %w", i, err))
		}
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
