package input

import "time"

// debouncer tracks one input line and reports stable-level changes.
// Time is always passed in; it never reads the clock.
type debouncer struct {
	window time.Duration

	// Current stable (debounced) level
	stable bool
	// Level observed but not yet held for window
	pending    bool
	hasPending bool
	// Time when pending level was first observed
	pendingSince time.Time
	// Whether a first stable level has been established
	baselined bool
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{window: window}
}

// process takes one sample and reports whether the stable level changed.
// The first stable level only establishes the baseline and is not a change.
func (d *debouncer) process(level bool, now time.Time) bool {
	// First time seeing this line
	if !d.baselined {
		if !d.hasPending || d.pending != level {
			// Start observing, or restart if the level changed during baseline
			d.pending = level
			d.hasPending = true
			d.pendingSince = now
			return false
		}
		if now.Sub(d.pendingSince) >= d.window {
			d.stable = level
			d.baselined = true
			d.hasPending = false
		}
		return false
	}

	if level == d.stable {
		// Bounce back to stable clears any pending change
		d.hasPending = false
		return false
	}

	if !d.hasPending || d.pending != level {
		d.pending = level
		d.hasPending = true
		d.pendingSince = now
		return false
	}

	if now.Sub(d.pendingSince) >= d.window {
		d.stable = level
		d.hasPending = false
		return true
	}
	return false
}

// Stable returns the current stable level and whether a baseline exists.
func (d *debouncer) Stable() (level, ok bool) {
	return d.stable, d.baselined
}
