package stage

import (
	"github.com/posefx/stage/cache"
	"github.com/posefx/stage/surface"
)

// Layer is a single compositing pass. The manager renders enabled
// layers in ascending z order, applying each layer's opacity and blend
// mode to the target surface before Render runs and restoring the
// previous state afterwards.
//
// Render reports whether it drew anything; a false return leaves the
// target untouched and the manager's skip counter is incremented.
type Layer interface {
	// Name returns the unique name the layer was registered under.
	Name() string

	// Z returns the stacking order. Lower values render first.
	Z() int

	// Enabled reports whether the manager should render this layer.
	Enabled() bool
	SetEnabled(on bool)

	// Opacity is the layer-wide alpha multiplier in [0, 1].
	Opacity() float64
	SetOpacity(alpha float64)

	// BlendMode selects how the layer's pixels combine with the target.
	BlendMode() surface.BlendMode
	SetBlendMode(mode surface.BlendMode)

	// Init attaches the layer to its target surface. Called once by the
	// manager when the layer is added.
	Init(s surface.Surface) error

	// ShouldRender reports whether Render needs to run for this frame.
	// Layers that only depend on configuration return false while their
	// cached output is still valid.
	ShouldRender(pkt *FramePacket) bool

	// Render draws the layer for one frame and reports whether any
	// pixels were produced.
	Render(pkt *FramePacket) bool

	// Configure applies a settings record. Unknown keys are ignored.
	Configure(cfg Settings)

	// Invalidate discards cached derived data, forcing the next
	// ShouldRender to report true.
	Invalidate()

	// Surface returns the target the layer draws to, or nil before Init.
	Surface() surface.Surface

	// Close releases layer resources.
	Close() error
}

// LayerBase carries the state and cache plumbing shared by every layer
// implementation. Embed it and override the Layer methods that matter.
type LayerBase struct {
	name    string
	z       int
	enabled bool
	opacity float64
	mode    surface.BlendMode

	surf    surface.Surface
	derived *cache.Bounded[string, any]

	// dirty forces the next ShouldRender to report true. Set by
	// Invalidate and by Configure implementations when a setting that
	// affects cached output changes.
	dirty bool

	// alwaysRender marks layers whose output depends on per-frame input
	// rather than configuration alone.
	alwaysRender bool
}

// NewLayerBase returns a base for a layer with the given name and z
// order, enabled, fully opaque and blending source-over.
func NewLayerBase(name string, z int) LayerBase {
	return LayerBase{
		name:    name,
		z:       z,
		enabled: true,
		opacity: 1,
		mode:    surface.BlendSourceOver,
		derived: cache.New[string, any](cache.DefaultCapacity),
		dirty:   true,
	}
}

func (b *LayerBase) Name() string { return b.name }
func (b *LayerBase) Z() int       { return b.z }

func (b *LayerBase) Enabled() bool      { return b.enabled }
func (b *LayerBase) SetEnabled(on bool) { b.enabled = on }

func (b *LayerBase) Opacity() float64 { return b.opacity }

// SetOpacity clamps alpha to [0, 1].
func (b *LayerBase) SetOpacity(alpha float64) {
	if alpha < 0 {
		alpha = 0
	} else if alpha > 1 {
		alpha = 1
	}
	b.opacity = alpha
}

func (b *LayerBase) BlendMode() surface.BlendMode        { return b.mode }
func (b *LayerBase) SetBlendMode(mode surface.BlendMode) { b.mode = mode }

// Init stores the target surface.
func (b *LayerBase) Init(s surface.Surface) error {
	b.surf = s
	return nil
}

// ShouldRender reports true when the layer is dirty or renders every
// frame.
func (b *LayerBase) ShouldRender(*FramePacket) bool {
	return b.alwaysRender || b.dirty
}

// Configure is a no-op; layers with settings override it.
func (b *LayerBase) Configure(Settings) {}

// Invalidate drops all derived data and marks the layer dirty.
func (b *LayerBase) Invalidate() {
	b.derived.Clear()
	b.dirty = true
}

// ClearDirty marks the layer's cached output as current again.
// Render implementations call it after drawing succeeds.
func (b *LayerBase) ClearDirty() { b.dirty = false }

// MarkDirty forces a re-render on the next frame without discarding
// derived data.
func (b *LayerBase) MarkDirty() { b.dirty = true }

// SetAlwaysRender marks the layer as depending on per-frame input.
func (b *LayerBase) SetAlwaysRender(on bool) { b.alwaysRender = on }

func (b *LayerBase) Surface() surface.Surface { return b.surf }

// Cached returns the derived value under key, invoking build on a miss
// and retaining the result. Derived textures survive across frames
// until Invalidate or cache eviction.
func (b *LayerBase) Cached(key string, build func() any) any {
	return b.derived.GetOrCreate(key, build)
}

// CacheStats exposes the derived-data cache counters.
func (b *LayerBase) CacheStats() cache.Stats { return b.derived.Stats() }

// Close drops the derived cache and detaches the surface.
func (b *LayerBase) Close() error {
	b.derived.Clear()
	b.surf = nil
	return nil
}
