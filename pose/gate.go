package pose

import "time"

// SwitchGate throttles applied visual changes per target. The cooldown
// is measured from the last change that actually happened, not from
// stability-window entry, so targets whose stable pose flips repeatedly
// still change at most once per cooldown.
type SwitchGate struct {
	cooldown    time.Duration
	lastApplied map[string]time.Time
}

// NewSwitchGate creates a gate. Non-positive cooldowns fall back to the
// contract value.
func NewSwitchGate(cooldown time.Duration) *SwitchGate {
	if cooldown <= 0 {
		cooldown = DefaultSwitchCooldown
	}
	return &SwitchGate{
		cooldown:    cooldown,
		lastApplied: make(map[string]time.Time),
	}
}

// Allow reports whether target may change at now. A target with no
// recorded change is always allowed.
func (g *SwitchGate) Allow(target string, now time.Time) bool {
	last, ok := g.lastApplied[target]
	if !ok {
		return true
	}
	return now.Sub(last) >= g.cooldown
}

// MarkApplied records that target changed at now, starting its cooldown.
func (g *SwitchGate) MarkApplied(target string, now time.Time) {
	g.lastApplied[target] = now
}

// Apply combines Allow and MarkApplied: it reports whether the change
// may happen and, if so, records it.
func (g *SwitchGate) Apply(target string, now time.Time) bool {
	if !g.Allow(target, now) {
		return false
	}
	g.MarkApplied(target, now)
	return true
}

// Reset forgets all targets.
func (g *SwitchGate) Reset() {
	clear(g.lastApplied)
}
