// Package surface defines the drawing-target abstraction the compositor
// renders into, and a CPU implementation of it.
//
// The compositing pipeline treats the renderer as an opaque backend: it
// needs a pixel upload for the composited frame, sprite and quad draws
// for overlays and particles, and a deformable grid mesh for body-follow
// visuals. Surface is that contract. ImageSurface implements it in
// software over an *image.RGBA; a GPU-backed implementation can be
// substituted without the pipeline noticing.
//
// Surfaces are NOT thread-safe. The pipeline serializes all access; a
// surface must only be used from one goroutine at a time.
package surface

import (
	"fmt"
	"image"
	"image/color"
)

// BlendMode specifies how source colors combine with the destination
// while drawing. It is surface state, set by the layer manager around
// each layer's render and restored afterwards.
type BlendMode uint8

const (
	// BlendSourceOver is standard alpha compositing, the default.
	BlendSourceOver BlendMode = iota

	// BlendMultiply multiplies source and destination colors.
	BlendMultiply

	// BlendScreen is the inverse of multiply, always lightening.
	BlendScreen

	// BlendOverlay multiplies dark destinations and screens light ones.
	BlendOverlay
)

const unknownStr = "Unknown"

// String returns a human-readable name for the blend mode.
func (m BlendMode) String() string {
	switch m {
	case BlendSourceOver:
		return "SourceOver"
	case BlendMultiply:
		return "Multiply"
	case BlendScreen:
		return "Screen"
	case BlendOverlay:
		return "Overlay"
	default:
		return unknownStr
	}
}

// ParseBlendMode maps a configuration string to a blend mode. Unknown
// strings return BlendSourceOver and an error; callers log the fallback
// and keep the previous mode.
func ParseBlendMode(s string) (BlendMode, error) {
	switch s {
	case "normal", "source-over", "":
		return BlendSourceOver, nil
	case "multiply":
		return BlendMultiply, nil
	case "screen":
		return BlendScreen, nil
	case "overlay":
		return BlendOverlay, nil
	}
	return BlendSourceOver, fmt.Errorf("surface: unknown blend mode %q", s)
}

// State is the compositing state applied to all draws on a surface:
// a global alpha multiplier and a blend mode.
//
// The layer manager sets a layer's opacity and blend mode as surface
// state for the duration of that layer's render and restores the
// previous state on every exit path, so one layer's failure can never
// leak state into the next layer's draws.
type State struct {
	// Alpha multiplies the alpha of everything drawn, in [0, 1].
	Alpha float64

	// Mode is the blend mode for everything drawn.
	Mode BlendMode
}

// DefaultState returns the state a fresh surface starts with:
// fully opaque source-over.
func DefaultState() State {
	return State{Alpha: 1.0, Mode: BlendSourceOver}
}

// SpriteOptions control a single sprite or quad draw.
// A nil options pointer means scale 1, alpha 1, no tint.
type SpriteOptions struct {
	// Scale multiplies the sprite's natural size. Ignored by DrawQuad.
	Scale float64

	// Alpha multiplies the sprite's own alpha, on top of State.Alpha.
	Alpha float64

	// Tint, if non-nil, multiplies the sprite's color channels.
	// Used for particle color ramps.
	Tint color.Color
}

// Surface is the rendering backend contract consumed by the compositor.
type Surface interface {
	// Width returns the surface width in pixels.
	Width() int

	// Height returns the surface height in pixels.
	Height() int

	// Clear fills the entire surface with the given color.
	// Overlay surfaces clear to transparent each animation tick.
	Clear(c color.Color)

	// State returns the current compositing state.
	State() State

	// SetState replaces the compositing state. Callers that change the
	// state are responsible for restoring the previous one.
	SetState(s State)

	// WritePixels uploads a full frame of RGBA pixels (4 bytes per
	// pixel, row-major, len >= Width*Height*4). This is how the
	// composited pixel buffer is committed to the surface each frame.
	WritePixels(pix []uint8)

	// DrawSprite draws img centered at (cx, cy), honoring options and
	// the current state.
	DrawSprite(img image.Image, cx, cy float64, opts *SpriteOptions)

	// DrawQuad stretches img into dst, honoring options and the current
	// state.
	DrawQuad(img image.Image, dst image.Rectangle, opts *SpriteOptions)

	// DrawMesh renders a textured deformable grid mesh using its last
	// committed vertex positions.
	DrawMesh(m *Mesh)

	// Snapshot returns a copy of the current surface contents.
	Snapshot() *image.RGBA

	// Close releases surface resources. Close is idempotent.
	Close() error
}
