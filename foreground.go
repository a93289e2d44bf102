package stage

import (
	"fmt"
	"image"
	"image/color"

	"github.com/posefx/stage/texture"
)

// Foreground effect names accepted by Configure.
const (
	ForegroundNone       = "none"
	ForegroundTexture    = "texture"
	ForegroundColorCycle = "colorcycle"
	ForegroundGhost      = "ghost"
)

// Blend strengths for the continuously-animated foreground effects.
// These are part of the look, not configuration.
const (
	colorCycleIntensity = 0.25
	ghostOpacity        = 0.3
)

// ForegroundLayer paints the subject: a texture fitted to the body
// contour, a hue-cycling wash, or a ghost pass-through. The contour
// bounding box comes from a cached scan; when no contour is found the
// texture falls back to tiling across the whole foreground.
type ForegroundLayer struct {
	LayerBase

	scanner *BoxScanner
	loader  *texture.Loader

	effect    string
	threshold float64
	path      string
	intensity float64
	fill      color.RGBA
}

// NewForegroundLayer returns a foreground layer with no active effect.
// Textures are fetched through loader, asynchronously; a frame rendered
// before the fetch resolves simply skips the texture pass.
func NewForegroundLayer(name string, z int, loader *texture.Loader) *ForegroundLayer {
	l := &ForegroundLayer{
		LayerBase: NewLayerBase(name, z),
		scanner:   NewBoxScanner(),
		loader:    loader,
		effect:    ForegroundNone,
		threshold: 0.7,
		intensity: 0.85,
		fill:      color.RGBA{R: 235, G: 235, B: 235, A: 255},
	}
	l.SetAlwaysRender(true)
	return l
}

// Scanner exposes the bounding-box scanner, for stats and tests.
func (l *ForegroundLayer) Scanner() *BoxScanner { return l.scanner }

// Configure applies settings. Recognized keys: "effect" (none, texture,
// colorcycle, ghost), "threshold" in [0,1], "texture" (image path),
// "intensity" in [0,1], "fill" (color). An unknown effect name keeps
// the previous effect. Changing the texture path starts the load
// immediately so the art is usually ready by the time it is wanted.
func (l *ForegroundLayer) Configure(cfg Settings) {
	changed := false

	switch e := cfg.String("effect", l.effect); e {
	case ForegroundNone, ForegroundTexture, ForegroundColorCycle, ForegroundGhost:
		if e != l.effect {
			l.effect = e
			changed = true
		}
	default:
		Logger().Warn("unknown foreground effect", "layer", l.Name(), "effect", e)
	}

	if t := clampUnit(cfg.Float("threshold", l.threshold)); t != l.threshold {
		l.threshold = t
		changed = true
	}
	if p := cfg.String("texture", l.path); p != l.path {
		l.path = p
		changed = true
		if p != "" && l.loader != nil {
			l.loader.LoadAsync(p)
		}
	}
	l.intensity = clampUnit(cfg.Float("intensity", l.intensity))
	if c := cfg.Color("fill", l.fill); c != l.fill {
		l.fill = c
		changed = true
	}

	if changed {
		l.Invalidate()
	}
}

// Invalidate drops derived textures and cached contour scans.
func (l *ForegroundLayer) Invalidate() {
	l.LayerBase.Invalidate()
	l.scanner.Invalidate()
}

// Render applies the configured effect to the packet's pixel buffer.
func (l *ForegroundLayer) Render(pkt *FramePacket) bool {
	if pkt == nil || pkt.Pixels == nil || pkt.Mask == nil {
		Logger().Debug("foreground skipped, missing input", "layer", l.Name())
		return false
	}

	switch l.effect {
	case ForegroundTexture:
		if !l.renderTexture(pkt) {
			return false
		}
	case ForegroundColorCycle:
		EffectColorCycle(pkt.Pixels, pkt.Mask, l.threshold, pkt.Timestamp, colorCycleIntensity)
	case ForegroundGhost:
		EffectGhost(pkt.Pixels, pkt.Mask, l.threshold, ghostOpacity)
	default:
		return false
	}
	l.ClearDirty()
	return true
}

func (l *ForegroundLayer) renderTexture(pkt *FramePacket) bool {
	if l.path == "" || l.loader == nil {
		return false
	}
	tex, ok := l.loader.Peek(l.path)
	if !ok {
		l.loader.LoadAsync(l.path)
		Logger().Debug("texture not ready, skipping pass", "layer", l.Name(), "path", l.path)
		return false
	}

	box, found := l.scanner.Find(pkt.Mask, l.threshold)
	if !found {
		// No contour: tile the texture at natural size instead of
		// stretching it to a degenerate box.
		EffectTextureBlend(pkt.Pixels, pkt.Mask, l.threshold, tex.Image(), 0, 0, l.intensity, l.fill)
		return true
	}
	warped := l.warped(tex, box)
	EffectTextureBlend(pkt.Pixels, pkt.Mask, l.threshold, warped, box.MinX, box.MinY, l.intensity, l.fill)
	return true
}

// warped returns the texture scaled to the contour box, cached by path
// and box size so a subject moving without resizing reuses the scale.
func (l *ForegroundLayer) warped(tex *texture.Texture, box Box) *image.RGBA {
	key := fmt.Sprintf("warp:%s:%dx%d", tex.Path(), box.Width(), box.Height())
	return l.Cached(key, func() any {
		return texture.Scale(tex, box.Width(), box.Height(), texture.QualitySmooth).Image()
	}).(*image.RGBA)
}
