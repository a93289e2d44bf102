// Package pose turns raw per-frame pose classifications into stable,
// flicker-free state.
//
// Raw classifications arrive at model cadence and oscillate freely near
// decision boundaries. Two independent gates stand between a raw
// classification and a visible change:
//
//  1. The stability window: a classification must persist unchanged for
//     a full window before it becomes the stable pose. Any change —
//     including a single-frame blip — restarts the window.
//  2. The switch cooldown: applied (visible) changes for one target
//     must be separated by a minimum interval, measured from the last
//     applied change. Alternating poses that each pass the stability
//     window are still pinned to the cooldown rate.
//
// StabilityClassifier implements the first gate, SwitchGate the second.
// Both are driven by caller-supplied timestamps, so tests and replay
// feeds run without wall-clock waits.
package pose

import "time"

// Contract timing values.
const (
	// DefaultStabilityWindow is how long a raw classification must
	// persist before it becomes the stable pose.
	DefaultStabilityWindow = 1000 * time.Millisecond

	// DefaultSwitchCooldown is the minimum interval between applied
	// visual switches for one target.
	DefaultSwitchCooldown = 2000 * time.Millisecond
)

// Classification is a symbolic pose label ("arms_up", "t_pose", ...).
// The empty string means no classification.
type Classification string

// Unknown is the zero classification.
const Unknown Classification = ""

// StabilityClassifier debounces raw classifications through the
// stability window. The zero value is not usable; call
// NewStabilityClassifier.
type StabilityClassifier struct {
	window time.Duration

	lastRaw      Classification
	pendingSince time.Time
	seenAny      bool

	stable Classification
}

// ClassifierOption configures a StabilityClassifier.
type ClassifierOption func(*StabilityClassifier)

// WithStabilityWindow overrides the stability window.
func WithStabilityWindow(d time.Duration) ClassifierOption {
	return func(c *StabilityClassifier) {
		if d > 0 {
			c.window = d
		}
	}
}

// NewStabilityClassifier creates a classifier with the contract window.
func NewStabilityClassifier(opts ...ClassifierOption) *StabilityClassifier {
	c := &StabilityClassifier{window: DefaultStabilityWindow}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Observe feeds one raw classification at the given time. It returns
// the current stable pose and whether it changed on this observation.
//
// A raw value differing from the previous one restarts the window and
// changes nothing else this tick: consistency is required across the
// whole window, not just at its end.
func (c *StabilityClassifier) Observe(raw Classification, now time.Time) (stable Classification, changed bool) {
	if !c.seenAny || raw != c.lastRaw {
		c.lastRaw = raw
		c.pendingSince = now
		c.seenAny = true
		return c.stable, false
	}

	if raw == c.stable {
		return c.stable, false
	}

	if now.Sub(c.pendingSince) >= c.window {
		c.stable = raw
		return c.stable, true
	}
	return c.stable, false
}

// Stable returns the current stable pose without observing anything.
func (c *StabilityClassifier) Stable() Classification { return c.stable }

// Reset clears all classifier state.
func (c *StabilityClassifier) Reset() {
	c.lastRaw = Unknown
	c.pendingSince = time.Time{}
	c.seenAny = false
	c.stable = Unknown
}
