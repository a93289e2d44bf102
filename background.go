package stage

import (
	"fmt"
	"image/color"

	"github.com/posefx/stage/internal/filter"
)

// Background effect names accepted by Configure.
const (
	BackgroundNone    = "none"
	BackgroundBlur    = "blur"
	BackgroundRemove  = "remove"
	BackgroundReplace = "replace"
)

// BackgroundLayer applies one background effect to every pixel the
// mask classifies as background: blur-composite, alpha removal, or a
// confidence-weighted solid replacement. It renders every frame since
// its output depends on the camera image, but the blurred backdrop is
// a cached derived texture recomputed only when the configuration
// changes or the layer is invalidated.
type BackgroundLayer struct {
	LayerBase

	effect    string
	threshold float64
	radius    float64
	color     color.RGBA
}

// NewBackgroundLayer returns a background layer with no active effect.
func NewBackgroundLayer(name string, z int) *BackgroundLayer {
	l := &BackgroundLayer{
		LayerBase: NewLayerBase(name, z),
		effect:    BackgroundNone,
		threshold: 0.7,
		radius:    8,
		color:     color.RGBA{A: 255},
	}
	l.SetAlwaysRender(true)
	return l
}

// Configure applies settings. Recognized keys: "effect" (none, blur,
// remove, replace), "threshold" in [0,1], "blur_radius" in pixels,
// "color". An unknown effect name keeps the previous effect.
func (l *BackgroundLayer) Configure(cfg Settings) {
	prevEffect, prevThreshold := l.effect, l.threshold
	prevRadius, prevColor := l.radius, l.color

	switch e := cfg.String("effect", l.effect); e {
	case BackgroundNone, BackgroundBlur, BackgroundRemove, BackgroundReplace:
		l.effect = e
	default:
		Logger().Warn("unknown background effect", "layer", l.Name(), "effect", e)
	}
	l.threshold = clampUnit(cfg.Float("threshold", l.threshold))
	if r := cfg.Float("blur_radius", l.radius); r >= 0 {
		l.radius = r
	}
	l.color = cfg.Color("color", l.color)

	if l.effect != prevEffect || l.threshold != prevThreshold ||
		l.radius != prevRadius || l.color != prevColor {
		l.Invalidate()
	}
}

// Render applies the configured effect to the packet's pixel buffer.
func (l *BackgroundLayer) Render(pkt *FramePacket) bool {
	if pkt == nil || pkt.Pixels == nil || pkt.Mask == nil {
		Logger().Debug("background skipped, missing input", "layer", l.Name())
		return false
	}

	switch l.effect {
	case BackgroundBlur:
		blurred := l.blurredFrame(pkt)
		EffectBlurComposite(pkt.Pixels, pkt.Mask, l.threshold, blurred)
	case BackgroundRemove:
		EffectRemove(pkt.Pixels, pkt.Mask, l.threshold)
	case BackgroundReplace:
		EffectReplace(pkt.Pixels, pkt.Mask, l.threshold, l.color)
	default:
		return false
	}
	l.ClearDirty()
	return true
}

// blurredFrame returns the cached full-frame blur for the current
// radius and dimensions, rendering it from the source frame on a miss.
func (l *BackgroundLayer) blurredFrame(pkt *FramePacket) []uint8 {
	src := pkt.Source
	if src == nil {
		src = pkt.Pixels
	}
	w, h := src.Width(), src.Height()
	key := fmt.Sprintf("blur:%g:%dx%d", l.radius, w, h)
	return l.Cached(key, func() any {
		return filter.GaussianRGBA(src.Data(), w, h, l.radius)
	}).([]uint8)
}

// clampUnit clamps v to [0, 1].
func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
