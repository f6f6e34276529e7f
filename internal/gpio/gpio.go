// Package gpio provides the door button input and the tri-colour LED output
// with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

// ButtonReader reads the activation button.
type ButtonReader interface {
	// Read returns true while the button is pressed. The line is pulled down,
	// so pressed reads as a raw 1.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Default line offsets on gpiochip0.
const (
	PinButton = 14
	PinRed    = 1
	PinGreen  = 2
	PinBlue   = 3
)

// LEDPins selects the output lines for each colour channel.
type LEDPins struct {
	Red, Green, Blue int
	// ActiveLow drives a channel with 0 to light it (common-anode LEDs).
	ActiveLow bool
}

// lit reports whether a colour component switches its channel on.
func lit(component uint8) bool {
	return component >= 128
}

// level converts a channel state to the raw line value.
func level(on, activeLow bool) int {
	if on != activeLow {
		return 1
	}
	return 0
}
