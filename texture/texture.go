// Package texture loads and caches RGBA textures for compositing.
//
// Textures are decoded once and converted to *image.RGBA up front so the
// render path never touches a decoder. The Loader keeps a bounded
// path-keyed cache and offers both synchronous and asynchronous loading;
// async completions are delivered over a channel and consumed by the
// pipeline at the start of a render tick, so decoded pixels never enter
// the compositor from a loader goroutine.
package texture

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// Texture is an immutable decoded image plus its origin path.
type Texture struct {
	path string
	img  *image.RGBA
}

// FromImage wraps an already-decoded image as a texture. The pixels are
// copied unless img is already an *image.RGBA.
func FromImage(path string, img image.Image) *Texture {
	return &Texture{path: path, img: toRGBA(img)}
}

// Path returns the origin path, or the synthetic name for generated
// textures.
func (t *Texture) Path() string { return t.path }

// Image returns the decoded pixels.
func (t *Texture) Image() *image.RGBA { return t.img }

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.img.Bounds().Dx() }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.img.Bounds().Dy() }

// Solid creates a w×h texture filled with a single color.
func Solid(w, h int, c color.Color) *Texture {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return &Texture{path: "solid", img: img}
}

// Dot creates a soft round dot texture of the given radius, fully
// colored at the center and fading to transparent at the rim. Particle
// systems use it as the default sprite.
func Dot(radius int, c color.Color) *Texture {
	if radius < 1 {
		radius = 1
	}
	size := radius * 2
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	cr, cg, cb, ca := c.RGBA()
	r8 := uint8(cr >> 8)
	g8 := uint8(cg >> 8)
	b8 := uint8(cb >> 8)
	a8 := float64(ca >> 8)

	center := float64(radius) - 0.5
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) - center
			dy := float64(y) - center
			d := math.Sqrt(dx*dx+dy*dy) / float64(radius)

			fall := 1.0 - d
			if fall <= 0 {
				continue
			}
			// Quadratic falloff reads as a soft glow rather than a
			// hard-edged disc. Color stays constant; only coverage fades.
			fall *= fall

			i := img.PixOffset(x, y)
			img.Pix[i+0] = r8
			img.Pix[i+1] = g8
			img.Pix[i+2] = b8
			img.Pix[i+3] = uint8(fall*a8 + 0.5)
		}
	}
	return &Texture{path: "dot", img: img}
}

// toRGBA converts any image to *image.RGBA without copying when possible.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
