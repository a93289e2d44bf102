// Package particle simulates lightweight ambient particles — drifting
// leaves, fireflies, rain, rising sparks — confined to a named region
// of the output surface.
//
// The system is driven by an external animation tick: Update advances
// the simulation by a wall-clock delta and Draw renders the current
// population onto a surface. Neither call blocks, spawns goroutines, or
// assumes a fixed tick rate. Oversized deltas (a stalled tick loop, a
// suspended laptop) are clamped so the simulation degrades to slow
// motion instead of teleporting every particle off screen.
package particle

import (
	"fmt"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/posefx/stage/surface"
)

// Kind selects the motion archetype of every particle in a system.
type Kind uint8

const (
	// KindFloating drifts slowly in any direction and wraps at the
	// region edges, so the population stays constant once full.
	KindFloating Kind = iota

	// KindFlying crosses the region horizontally with a vertical sway,
	// culled past the far edge.
	KindFlying

	// KindFalling spawns along the top edge and falls with a
	// horizontal sway, culled below the region.
	KindFalling

	// KindRising spawns along the bottom edge and rises with a
	// horizontal sway, culled above the region.
	KindRising
)

var kindNames = [...]string{"floating", "flying", "falling", "rising"}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind maps a configuration string to a Kind. Unknown strings
// return KindFloating and an error; callers log the fallback and keep
// going.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if s == name {
			return Kind(i), nil
		}
	}
	return KindFloating, fmt.Errorf("particle: unknown kind %q", s)
}

// TintRamp blends particle color over lifetime in HCL space, which
// keeps intermediate colors perceptually clean (no gray dip between
// saturated endpoints).
type TintRamp struct {
	From colorful.Color
	To   colorful.Color
}

// At returns the ramp color at t in [0, 1].
func (r TintRamp) At(t float64) color.Color {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return r.From.BlendHcl(r.To, t).Clamped()
}

// Settings configures one particle system. Ranges are sampled uniformly
// per particle at spawn time.
type Settings struct {
	Kind         Kind
	SpawnRate    float64 // particles per second
	MaxParticles int

	SpeedMin, SpeedMax float64 // pixels per second
	LifeMin, LifeMax   float64 // seconds
	SizeMin, SizeMax   float64 // sprite scale factor

	AlphaStart, AlphaEnd float64 // interpolated over age/life

	SwayAmp  float64 // pixels, secondary sinusoidal offset
	SwayFreq float64 // radians per second

	Region surface.Region

	// Sprite overrides the default soft dot. Nil keeps the default.
	Sprite image.Image

	// Tint blends particle color over lifetime. Nil disables tinting.
	Tint *TintRamp
}

// DefaultSettings returns a gentle floating-motes configuration.
func DefaultSettings() Settings {
	return Settings{
		Kind:         KindFloating,
		SpawnRate:    4,
		MaxParticles: 25,
		SpeedMin:     8,
		SpeedMax:     24,
		LifeMin:      4,
		LifeMax:      9,
		SizeMin:      0.5,
		SizeMax:      1.2,
		AlphaStart:   0.9,
		AlphaEnd:     0,
		SwayAmp:      6,
		SwayFreq:     1.5,
		Region:       surface.Full,
	}
}

// sanitize fills unusable values with defaults so a partially built
// Settings literal still produces a working system.
func (s *Settings) sanitize() {
	def := DefaultSettings()
	if s.SpawnRate <= 0 {
		s.SpawnRate = def.SpawnRate
	}
	if s.MaxParticles <= 0 {
		s.MaxParticles = def.MaxParticles
	}
	if s.SpeedMax < s.SpeedMin {
		s.SpeedMax = s.SpeedMin
	}
	if s.LifeMin <= 0 {
		s.LifeMin = def.LifeMin
	}
	if s.LifeMax < s.LifeMin {
		s.LifeMax = s.LifeMin
	}
	if s.SizeMin <= 0 {
		s.SizeMin = def.SizeMin
	}
	if s.SizeMax < s.SizeMin {
		s.SizeMax = s.SizeMin
	}
	if s.AlphaStart == 0 && s.AlphaEnd == 0 {
		s.AlphaStart = def.AlphaStart
	}
	if s.Region.W <= 0 || s.Region.H <= 0 {
		s.Region = surface.Full
	}
}
