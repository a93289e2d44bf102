package particle

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/posefx/stage/surface"
	"github.com/posefx/stage/texture"
)

// maxStep caps one simulation step. Deltas beyond it (stalled ticker,
// suspended process) advance the world in slow motion rather than
// launching particles across the region.
const maxStep = 50 * time.Millisecond

// cullMargin is how far past the region edge a non-wrapping particle
// may travel before it is destroyed.
const cullMargin = 48.0

// Stats is a point-in-time snapshot of a system.
type Stats struct {
	Active  int
	Spawned uint64
	Culled  uint64
}

type particle struct {
	x, y   float64 // pixels, primary position
	vx, vy float64 // pixels per second

	age  float64 // seconds
	life float64 // seconds

	size  float64
	amp   float64 // sway amplitude, pixels
	phase float64 // sway phase offset, radians
}

// System owns one particle population. Not safe for concurrent use;
// the pipeline serializes Update and Draw under its own lock.
type System struct {
	settings Settings

	width, height int
	bounds        image.Rectangle // region in pixels

	particles   []particle
	accumulator float64 // fractional spawn credit

	uniform func(min, max float64) float64

	sprite image.Image

	spawned uint64
	culled  uint64
}

// Option configures a System.
type Option func(*System)

// WithSource injects the random source used for spawn sampling.
// Tests pass a seeded source for reproducible runs.
func WithSource(src rand.Source) Option {
	return func(s *System) {
		s.uniform = func(min, max float64) float64 {
			if max <= min {
				return min
			}
			return distuv.Uniform{Min: min, Max: max, Src: src}.Rand()
		}
	}
}

// NewSystem creates a particle system for a width×height surface.
func NewSystem(width, height int, settings Settings, opts ...Option) *System {
	settings.sanitize()
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	s := &System{
		settings: settings,
		width:    width,
		height:   height,
		bounds:   settings.Region.Pixels(width, height),
		uniform: func(min, max float64) float64 {
			if max <= min {
				return min
			}
			return distuv.Uniform{Min: min, Max: max, Src: defaultSource{}}.Rand()
		},
		sprite: settings.Sprite,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sprite == nil {
		s.sprite = texture.Dot(6, color.White).Image()
	}
	return s
}

// defaultSource adapts the global math/rand/v2 generator to a Source.
type defaultSource struct{}

func (defaultSource) Uint64() uint64 { return rand.Uint64() }

// Update advances the simulation by dt. Steps are clamped to maxStep;
// zero and negative deltas do nothing.
func (s *System) Update(dt time.Duration) {
	if dt <= 0 {
		return
	}
	if dt > maxStep {
		dt = maxStep
	}
	step := dt.Seconds()

	s.advance(step)

	s.accumulator += step * s.settings.SpawnRate
	for s.accumulator >= 1 && len(s.particles) < s.settings.MaxParticles {
		s.spawn()
		s.accumulator--
	}
	// Spawn credit beyond one full batch is discarded when the
	// population is capped, so a long stall does not burst-spawn.
	if s.accumulator > 1 && len(s.particles) >= s.settings.MaxParticles {
		s.accumulator = 1
	}
}

// advance integrates positions and culls expired or out-of-bound
// particles in place.
func (s *System) advance(step float64) {
	alive := s.particles[:0]
	for i := range s.particles {
		p := &s.particles[i]

		p.age += step
		if p.age >= p.life {
			s.culled++
			continue
		}

		p.x += p.vx * step
		p.y += p.vy * step

		if s.settings.Kind == KindFloating {
			s.wrap(p)
		} else if s.outOfBounds(p) {
			s.culled++
			continue
		}

		alive = append(alive, *p)
	}
	s.particles = alive
}

// wrap teleports a floating particle to the opposite region edge.
func (s *System) wrap(p *particle) {
	w := float64(s.bounds.Dx())
	h := float64(s.bounds.Dy())
	if w < 1 || h < 1 {
		return
	}
	minX, minY := float64(s.bounds.Min.X), float64(s.bounds.Min.Y)

	for p.x < minX {
		p.x += w
	}
	for p.x >= minX+w {
		p.x -= w
	}
	for p.y < minY {
		p.y += h
	}
	for p.y >= minY+h {
		p.y -= h
	}
}

// outOfBounds reports whether a directional particle has left the
// region by more than the cull margin.
func (s *System) outOfBounds(p *particle) bool {
	return p.x < float64(s.bounds.Min.X)-cullMargin ||
		p.x > float64(s.bounds.Max.X)+cullMargin ||
		p.y < float64(s.bounds.Min.Y)-cullMargin ||
		p.y > float64(s.bounds.Max.Y)+cullMargin
}

// spawn creates one particle at a kind-specific edge with sampled
// kinematics.
func (s *System) spawn() {
	set := &s.settings
	speed := s.uniform(set.SpeedMin, set.SpeedMax)

	p := particle{
		life:  s.uniform(set.LifeMin, set.LifeMax),
		size:  s.uniform(set.SizeMin, set.SizeMax),
		amp:   set.SwayAmp,
		phase: s.uniform(0, 2*math.Pi),
	}

	minX, maxX := float64(s.bounds.Min.X), float64(s.bounds.Max.X)
	minY, maxY := float64(s.bounds.Min.Y), float64(s.bounds.Max.Y)

	switch set.Kind {
	case KindFlying:
		// Enter from a random side, fly to the other.
		if s.uniform(0, 1) < 0.5 {
			p.x, p.vx = minX, speed
		} else {
			p.x, p.vx = maxX, -speed
		}
		p.y = s.uniform(minY, maxY)

	case KindFalling:
		p.x = s.uniform(minX, maxX)
		p.y = minY
		p.vy = speed

	case KindRising:
		p.x = s.uniform(minX, maxX)
		p.y = maxY
		p.vy = -speed

	default: // KindFloating
		p.x = s.uniform(minX, maxX)
		p.y = s.uniform(minY, maxY)
		angle := s.uniform(0, 2*math.Pi)
		p.vx = math.Cos(angle) * speed
		p.vy = math.Sin(angle) * speed
	}

	s.particles = append(s.particles, p)
	s.spawned++
}

// Draw renders the current population onto dst. The sway offset is
// applied at draw time on the axis perpendicular to primary motion, so
// it never accumulates into the integrated position.
func (s *System) Draw(dst surface.Surface) {
	for i := range s.particles {
		p := &s.particles[i]

		t := p.age / p.life
		alpha := s.settings.AlphaStart + (s.settings.AlphaEnd-s.settings.AlphaStart)*t
		if alpha <= 0 {
			continue
		}

		x, y := p.x, p.y
		sway := p.amp * math.Sin(p.phase+p.age*s.settings.SwayFreq)
		if s.settings.Kind == KindFlying {
			y += sway
		} else {
			x += sway
		}

		opts := surface.SpriteOptions{Scale: p.size, Alpha: alpha}
		if s.settings.Tint != nil {
			opts.Tint = s.settings.Tint.At(t)
		}
		dst.DrawSprite(s.sprite, x, y, &opts)
	}
}

// Active returns the live particle count.
func (s *System) Active() int { return len(s.particles) }

// Stats returns a snapshot of system counters.
func (s *System) Stats() Stats {
	return Stats{
		Active:  len(s.particles),
		Spawned: s.spawned,
		Culled:  s.culled,
	}
}

// Reset destroys all particles and clears spawn credit. Counters are
// preserved.
func (s *System) Reset() {
	s.particles = s.particles[:0]
	s.accumulator = 0
}

// Configure replaces the settings. Existing particles keep their
// sampled values; the population shrinks naturally if the new maximum
// is lower.
func (s *System) Configure(settings Settings) {
	settings.sanitize()
	s.settings = settings
	s.bounds = settings.Region.Pixels(s.width, s.height)
	if settings.Sprite != nil {
		s.sprite = settings.Sprite
	}
}
