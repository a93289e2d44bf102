package stage

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/posefx/stage/surface"
)

var (
	// ErrEmptyName is returned when adding a layer without a name.
	ErrEmptyName = errors.New("stage: layer name is empty")

	// ErrDuplicateLayer is returned when a layer name is already taken.
	ErrDuplicateLayer = errors.New("stage: layer name already registered")

	// ErrLayerNotFound is returned by per-layer operations on unknown names.
	ErrLayerNotFound = errors.New("stage: no such layer")
)

// overlayPrefixes route layers to the overlay surface by name. Nature
// and particle content draws above the composite on its own surface so
// it can be cleared each animation tick without touching the frame.
var overlayPrefixes = []string{"nature", "overlay", "particle"}

// ManagerStats is a snapshot of the render-loop counters.
type ManagerStats struct {
	// Layers is the number of registered layers.
	Layers int

	// Frames counts Render calls.
	Frames uint64

	// Rendered and Skipped count per-layer outcomes: a layer that drew
	// versus one that was disabled, clean, or contributed nothing.
	Rendered uint64
	Skipped  uint64

	// Panics counts recovered layer and render failures.
	Panics uint64
}

// LayerManager owns the ordered layer set and drives the per-frame
// render loop. Layers render in ascending z order; ties keep insertion
// order. Each layer later in the order sees the pixel mutations of
// every layer before it — the chain is strictly sequential.
//
// The manager is not safe for concurrent use; the pipeline serializes
// all calls.
type LayerManager struct {
	main    surface.Surface
	overlay surface.Surface

	layers  map[string]Layer
	ordered []Layer

	frames   atomic.Uint64
	rendered atomic.Uint64
	skipped  atomic.Uint64
	panics   atomic.Uint64
}

// NewLayerManager returns a manager compositing into main. Layers whose
// names match an overlay prefix draw to overlay instead; a nil overlay
// routes everything to main.
func NewLayerManager(main, overlay surface.Surface) *LayerManager {
	return &LayerManager{
		main:    main,
		overlay: overlay,
		layers:  make(map[string]Layer),
	}
}

// AddLayer registers a layer under its unique non-empty name, binds it
// to its target surface, and re-sorts the render order.
func (m *LayerManager) AddLayer(l Layer) error {
	name := l.Name()
	if name == "" {
		return ErrEmptyName
	}
	if _, ok := m.layers[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateLayer, name)
	}
	if err := l.Init(m.targetFor(name)); err != nil {
		return fmt.Errorf("stage: init layer %q: %w", name, err)
	}
	m.layers[name] = l
	m.ordered = append(m.ordered, l)
	slices.SortStableFunc(m.ordered, func(a, b Layer) int {
		return cmp.Compare(a.Z(), b.Z())
	})
	Logger().Info("layer added", "layer", name, "z", l.Z(), "layers", len(m.ordered))
	return nil
}

// RemoveLayer closes and unregisters a layer.
func (m *LayerManager) RemoveLayer(name string) error {
	l, ok := m.layers[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrLayerNotFound, name)
	}
	delete(m.layers, name)
	m.ordered = slices.DeleteFunc(m.ordered, func(o Layer) bool { return o == l })
	if err := l.Close(); err != nil {
		return fmt.Errorf("stage: close layer %q: %w", name, err)
	}
	return nil
}

// Layer returns a registered layer by name.
func (m *LayerManager) Layer(name string) (Layer, bool) {
	l, ok := m.layers[name]
	return l, ok
}

// Order returns the layer names in render order.
func (m *LayerManager) Order() []string {
	names := make([]string, len(m.ordered))
	for i, l := range m.ordered {
		names[i] = l.Name()
	}
	return names
}

// targetFor applies the fixed name-based routing rule.
func (m *LayerManager) targetFor(name string) surface.Surface {
	if m.overlay == nil {
		return m.main
	}
	for _, p := range overlayPrefixes {
		if strings.HasPrefix(name, p) {
			return m.overlay
		}
	}
	return m.main
}

// Render stamps the packet with the canvas dimensions and timestamp,
// runs every enabled layer over it in z order, and commits the
// resulting pixel buffer to the main surface. It returns the number of
// layers that drew.
//
// Failures never escape: a layer that panics contributes nothing and
// the loop continues with the next layer; a malformed packet aborts
// the call with a log line, not a crash.
func (m *LayerManager) Render(pkt *FramePacket, now time.Time) (drew int) {
	defer func() {
		if r := recover(); r != nil {
			m.panics.Add(1)
			Logger().Error("render aborted", "panic", r)
		}
	}()

	m.frames.Add(1)
	if pkt == nil {
		Logger().Warn("nil frame packet, nothing rendered")
		return 0
	}
	pkt.Width = m.main.Width()
	pkt.Height = m.main.Height()
	pkt.Timestamp = now

	for _, l := range m.ordered {
		if !l.Enabled() || !l.ShouldRender(pkt) {
			m.skipped.Add(1)
			continue
		}
		if m.renderLayer(l, pkt) {
			m.rendered.Add(1)
			drew++
		} else {
			m.skipped.Add(1)
		}
	}

	if pkt.Pixels != nil {
		m.main.WritePixels(pkt.Pixels.Data())
	}
	return drew
}

// RenderOverlay redraws every enabled overlay-surface layer,
// bypassing dirty gating. The animation tick calls it right after
// clearing the overlay, when everything needs drawing again.
func (m *LayerManager) RenderOverlay(now time.Time) (drew int) {
	if m.overlay == nil {
		return 0
	}
	pkt := &FramePacket{
		Width:     m.overlay.Width(),
		Height:    m.overlay.Height(),
		Timestamp: now,
	}
	for _, l := range m.ordered {
		if l.Surface() != m.overlay || !l.Enabled() {
			continue
		}
		if m.renderLayer(l, pkt) {
			drew++
		}
	}
	return drew
}

// renderLayer runs one layer with its opacity and blend mode applied
// as surface state. The previous state is restored on every exit path,
// a panic included, so one layer's failure cannot corrupt the state
// the next layer draws with.
func (m *LayerManager) renderLayer(l Layer, pkt *FramePacket) (ok bool) {
	surf := l.Surface()
	if surf == nil {
		return false
	}
	saved := surf.State()
	surf.SetState(surface.State{Alpha: l.Opacity(), Mode: l.BlendMode()})
	defer func() {
		surf.SetState(saved)
		if r := recover(); r != nil {
			m.panics.Add(1)
			ok = false
			Logger().Error("layer failed, contributed nothing", "layer", l.Name(), "panic", r)
		}
	}()
	return l.Render(pkt)
}

// HasOverlayLayer reports whether any enabled layer targets the
// overlay surface.
func (m *LayerManager) HasOverlayLayer() bool {
	if m.overlay == nil {
		return false
	}
	for _, l := range m.ordered {
		if l.Enabled() && l.Surface() == m.overlay {
			return true
		}
	}
	return false
}

// OverlayDirty reports whether any enabled overlay layer needs
// redrawing. The tick loop uses it to leave a settled static overlay
// alone instead of repainting it every interval.
func (m *LayerManager) OverlayDirty() bool {
	if m.overlay == nil {
		return false
	}
	for _, l := range m.ordered {
		if l.Enabled() && l.Surface() == m.overlay && l.ShouldRender(nil) {
			return true
		}
	}
	return false
}

// SetLayerEnabled toggles a layer. Disabling takes effect on the next
// Render call; no in-flight work is interrupted.
func (m *LayerManager) SetLayerEnabled(name string, on bool) error {
	l, ok := m.layers[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrLayerNotFound, name)
	}
	l.SetEnabled(on)
	return nil
}

// SetLayerOpacity sets a layer's opacity in [0, 1].
func (m *LayerManager) SetLayerOpacity(name string, alpha float64) error {
	l, ok := m.layers[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrLayerNotFound, name)
	}
	l.SetOpacity(alpha)
	return nil
}

// SetLayerBlendMode sets a layer's blend mode.
func (m *LayerManager) SetLayerBlendMode(name string, mode surface.BlendMode) error {
	l, ok := m.layers[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrLayerNotFound, name)
	}
	l.SetBlendMode(mode)
	return nil
}

// ConfigureLayer applies a settings record to a layer.
func (m *LayerManager) ConfigureLayer(name string, cfg Settings) error {
	l, ok := m.layers[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrLayerNotFound, name)
	}
	l.Configure(cfg)
	return nil
}

// InvalidateLayer discards one layer's cached derived data.
func (m *LayerManager) InvalidateLayer(name string) error {
	l, ok := m.layers[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrLayerNotFound, name)
	}
	l.Invalidate()
	return nil
}

// InvalidateAll discards every layer's cached derived data.
func (m *LayerManager) InvalidateAll() {
	for _, l := range m.ordered {
		l.Invalidate()
	}
}

// Stats returns a snapshot of the render counters.
func (m *LayerManager) Stats() ManagerStats {
	return ManagerStats{
		Layers:   len(m.ordered),
		Frames:   m.frames.Load(),
		Rendered: m.rendered.Load(),
		Skipped:  m.skipped.Load(),
		Panics:   m.panics.Load(),
	}
}

// Close closes every layer. The surfaces belong to the caller and stay
// open.
func (m *LayerManager) Close() error {
	var errs []error
	for _, l := range m.ordered {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("stage: close layer %q: %w", l.Name(), err))
		}
	}
	m.ordered = nil
	clear(m.layers)
	return errors.Join(errs...)
}
