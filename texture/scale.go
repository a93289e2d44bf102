package texture

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Quality selects the resampling filter used by Scale.
type Quality uint8

const (
	// QualityFast uses approximate bilinear filtering. Good enough for
	// per-frame work.
	QualityFast Quality = iota

	// QualitySmooth uses Catmull-Rom filtering. Use it for one-shot
	// scales whose result is cached.
	QualitySmooth
)

// Scale resamples t to w×h and returns a new texture. The original is
// unchanged. Non-positive target dimensions return t as-is.
func Scale(t *Texture, w, h int, q Quality) *Texture {
	if t == nil || w <= 0 || h <= 0 {
		return t
	}
	if t.Width() == w && t.Height() == h {
		return t
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	switch q {
	case QualitySmooth:
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), t.img, t.img.Bounds(), xdraw.Src, nil)
	default:
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), t.img, t.img.Bounds(), xdraw.Src, nil)
	}
	return &Texture{path: t.path, img: dst}
}
