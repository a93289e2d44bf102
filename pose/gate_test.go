package pose

import (
	"testing"
	"time"
)

func TestSwitchGateFirstChangeAllowed(t *testing.T) {
	g := NewSwitchGate(DefaultSwitchCooldown)

	if !g.Allow("s1", at(0)) {
		t.Error("Allow for unseen target = false, want true")
	}
}

func TestSwitchGateCooldown(t *testing.T) {
	g := NewSwitchGate(DefaultSwitchCooldown)

	g.MarkApplied("s1", at(0))

	if g.Allow("s1", at(1999)) {
		t.Error("Allow at 1999ms = true, want false")
	}
	if !g.Allow("s1", at(2000)) {
		t.Error("Allow at 2000ms = false, want true")
	}
}

func TestSwitchGatePerTarget(t *testing.T) {
	g := NewSwitchGate(DefaultSwitchCooldown)

	g.MarkApplied("s1", at(0))

	// A different target has its own cooldown.
	if !g.Allow("s2", at(100)) {
		t.Error("Allow for independent target = false, want true")
	}
}

func TestSwitchGateApply(t *testing.T) {
	g := NewSwitchGate(time.Second)

	if !g.Apply("s1", at(0)) {
		t.Fatal("first Apply = false, want true")
	}
	if g.Apply("s1", at(500)) {
		t.Error("Apply inside cooldown = true, want false")
	}
	// A denied Apply must not restart the cooldown.
	if !g.Apply("s1", at(1000)) {
		t.Error("Apply after cooldown = false, want true")
	}
}

func TestSwitchGateReset(t *testing.T) {
	g := NewSwitchGate(time.Hour)
	g.MarkApplied("s1", at(0))
	g.Reset()

	if !g.Allow("s1", at(1)) {
		t.Error("Allow after Reset = false, want true")
	}
}

func TestSwitchGateDefaultCooldown(t *testing.T) {
	g := NewSwitchGate(0)
	g.MarkApplied("s1", at(0))

	if g.Allow("s1", at(1999)) {
		t.Error("zero cooldown did not fall back to the contract value")
	}
}
