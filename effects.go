package stage

import (
	"image"
	"image/color"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/posefx/stage/internal/blend"
)

// The effect primitives below are pure functions over a pixel buffer
// and a mask. Each reads the mask confidence per pixel, normalizes it
// to [0,1] by dividing by 255, and applies its effect on exactly one
// side of the threshold: background effects where conf < threshold,
// foreground effects where conf >= threshold. All color blends are
// linear a*(1-t)+b*t per RGB channel; alpha is left untouched unless
// the effect explicitly targets it.

const (
	// texAlphaMin is the texel alpha below which a texture pixel is
	// treated as transparent and replaced by the fill color.
	texAlphaMin = 16

	// texWhiteMin is the per-channel floor above which a texel counts
	// as near-white. Scanned art often surrounds the motif with white;
	// showing it as-is reads as a broken overlay.
	texWhiteMin = 240
)

// EffectBlurComposite replaces the RGB of every background pixel
// (conf < threshold) with the corresponding pixel of blurred, a
// pre-blurred full-frame render in the same RGBA layout as px.
func EffectBlurComposite(px *Pixmap, mask *Mask, threshold float64, blurred []uint8) {
	if px == nil || mask == nil || blurred == nil {
		return
	}
	limit := threshold * 255
	pix := px.Data()
	md := mask.Data()
	n := effectSpan(len(md), len(pix), len(blurred))
	for i := 0; i < n; i++ {
		if float64(md[i]) >= limit {
			continue
		}
		o := i * 4
		pix[o+0] = blurred[o+0]
		pix[o+1] = blurred[o+1]
		pix[o+2] = blurred[o+2]
	}
}

// EffectRemove zeroes the alpha channel of every background pixel,
// punching the subject out of the frame.
func EffectRemove(px *Pixmap, mask *Mask, threshold float64) {
	if px == nil || mask == nil {
		return
	}
	limit := threshold * 255
	pix := px.Data()
	md := mask.Data()
	n := effectSpan(len(md), len(pix), len(pix))
	for i := 0; i < n; i++ {
		if float64(md[i]) < limit {
			pix[i*4+3] = 0
		}
	}
}

// EffectReplace blends every background pixel toward a solid color.
// The blend factor is 1-conf, so pixels the model is most sure are
// background take the replacement color fully while pixels near the
// threshold keep most of the camera image.
func EffectReplace(px *Pixmap, mask *Mask, threshold float64, c color.RGBA) {
	if px == nil || mask == nil {
		return
	}
	limit := threshold * 255
	pix := px.Data()
	md := mask.Data()
	n := effectSpan(len(md), len(pix), len(pix))
	for i := 0; i < n; i++ {
		v := md[i]
		if float64(v) >= limit {
			continue
		}
		t := 1 - float64(v)/255
		o := i * 4
		pix[o+0] = blend.Lerp(pix[o+0], c.R, t)
		pix[o+1] = blend.Lerp(pix[o+1], c.G, t)
		pix[o+2] = blend.Lerp(pix[o+2], c.B, t)
	}
}

// EffectTextureBlend blends tex into every foreground pixel at the
// given opacity. The texture is sampled at (x-originX, y-originY) and
// wraps, so a texture pre-warped to the contour's bounding box maps
// exactly onto it when origin is the box corner, and a natural-size
// texture with a zero origin tiles the whole contour. Transparent and
// near-white texels blend toward fill instead.
func EffectTextureBlend(px *Pixmap, mask *Mask, threshold float64, tex *image.RGBA, originX, originY int, opacity float64, fill color.RGBA) {
	if px == nil || mask == nil || tex == nil {
		return
	}
	tw, th := tex.Bounds().Dx(), tex.Bounds().Dy()
	if tw < 1 || th < 1 {
		return
	}
	limit := threshold * 255
	pix := px.Data()
	md := mask.Data()
	w, h := mask.Width(), mask.Height()

	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := md[i]
			i++
			if float64(v) < limit {
				continue
			}
			o := (i - 1) * 4
			if o+3 >= len(pix) {
				return
			}
			tx := wrapIndex(x-originX, tw)
			ty := wrapIndex(y-originY, th)
			to := tex.PixOffset(tx+tex.Rect.Min.X, ty+tex.Rect.Min.Y)
			tr, tg, tb, ta := tex.Pix[to+0], tex.Pix[to+1], tex.Pix[to+2], tex.Pix[to+3]
			if ta < texAlphaMin || (tr > texWhiteMin && tg > texWhiteMin && tb > texWhiteMin) {
				tr, tg, tb = fill.R, fill.G, fill.B
			}
			pix[o+0] = blend.Lerp(pix[o+0], tr, opacity)
			pix[o+1] = blend.Lerp(pix[o+1], tg, opacity)
			pix[o+2] = blend.Lerp(pix[o+2], tb, opacity)
		}
	}
}

// EffectColorCycle blends a hue-rotating solid color into every
// foreground pixel at the given intensity. The hue advances with the
// frame timestamp, completing a full rotation every 7.2 seconds.
func EffectColorCycle(px *Pixmap, mask *Mask, threshold float64, at time.Time, intensity float64) {
	if px == nil || mask == nil {
		return
	}
	hue := float64(at.UnixMilli()/20%360)
	r, g, b := colorful.Hsv(hue, 0.85, 1).RGB255()

	limit := threshold * 255
	pix := px.Data()
	md := mask.Data()
	n := effectSpan(len(md), len(pix), len(pix))
	for i := 0; i < n; i++ {
		if float64(md[i]) < limit {
			continue
		}
		o := i * 4
		pix[o+0] = blend.Lerp(pix[o+0], r, intensity)
		pix[o+1] = blend.Lerp(pix[o+1], g, intensity)
		pix[o+2] = blend.Lerp(pix[o+2], b, intensity)
	}
}

// EffectGhost renders the current pixels at a fixed low opacity over
// white inside the contour and masks everything outside to plain
// white. Unlike the other foreground effects it writes both sides of
// the threshold; that is its definition, not an accident.
func EffectGhost(px *Pixmap, mask *Mask, threshold float64, opacity float64) {
	if px == nil || mask == nil {
		return
	}
	limit := threshold * 255
	pix := px.Data()
	md := mask.Data()
	n := effectSpan(len(md), len(pix), len(pix))
	for i := 0; i < n; i++ {
		o := i * 4
		if float64(md[i]) >= limit {
			pix[o+0] = blend.Lerp(255, pix[o+0], opacity)
			pix[o+1] = blend.Lerp(255, pix[o+1], opacity)
			pix[o+2] = blend.Lerp(255, pix[o+2], opacity)
		} else {
			pix[o+0] = 255
			pix[o+1] = 255
			pix[o+2] = 255
		}
	}
}

// effectSpan bounds a per-pixel loop to the data every buffer actually
// holds. Mask and pixel dimensions match by contract; this keeps a
// malformed packet from panicking the render loop anyway.
func effectSpan(maskLen, pixLen, auxLen int) int {
	n := maskLen
	if m := pixLen / 4; m < n {
		n = m
	}
	if m := auxLen / 4; m < n {
		n = m
	}
	return n
}

// wrapIndex maps v into [0, n) with wrap-around for negative values.
func wrapIndex(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
