package surface

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/posefx/stage/internal/blend"
)

// ImageSurface is a CPU surface rendering into an *image.RGBA.
//
// It is the default backend for the compositing pipeline: the main
// surface receives the composited pixel buffer via WritePixels, and
// overlay surfaces receive sprite, quad and mesh draws from the
// animation tick.
//
// Example:
//
//	s := surface.NewImageSurface(640, 480)
//	defer s.Close()
//
//	s.Clear(color.Transparent)
//	s.DrawSprite(leaf, 320, 400, &surface.SpriteOptions{Alpha: 0.8})
//	img := s.Snapshot()
type ImageSurface struct {
	width  int
	height int
	img    *image.RGBA
	state  State
	closed bool
}

// NewImageSurface creates a CPU surface with the given dimensions.
// Non-positive dimensions are raised to 1.
func NewImageSurface(width, height int) *ImageSurface {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return &ImageSurface{
		width:  width,
		height: height,
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		state:  DefaultState(),
	}
}

// NewImageSurfaceFromImage creates a surface rendering directly into img.
func NewImageSurfaceFromImage(img *image.RGBA) *ImageSurface {
	bounds := img.Bounds()
	return &ImageSurface{
		width:  bounds.Dx(),
		height: bounds.Dy(),
		img:    img,
		state:  DefaultState(),
	}
}

// Width returns the surface width.
func (s *ImageSurface) Width() int { return s.width }

// Height returns the surface height.
func (s *ImageSurface) Height() int { return s.height }

// Clear fills the entire surface with the given color.
func (s *ImageSurface) Clear(c color.Color) {
	if s.closed {
		return
	}
	r, g, b, a := c.RGBA()
	rgba := color.RGBA{
		R: uint8(r >> 8),
		G: uint8(g >> 8),
		B: uint8(b >> 8),
		A: uint8(a >> 8),
	}
	draw.Draw(s.img, s.img.Bounds(), &image.Uniform{rgba}, image.Point{}, draw.Src)
}

// State returns the current compositing state.
func (s *ImageSurface) State() State { return s.state }

// SetState replaces the compositing state, clamping alpha to [0, 1].
func (s *ImageSurface) SetState(st State) {
	if st.Alpha < 0 {
		st.Alpha = 0
	}
	if st.Alpha > 1 {
		st.Alpha = 1
	}
	s.state = st
}

// WritePixels uploads a full RGBA frame. Short buffers are copied as far
// as they reach; extra bytes are ignored.
func (s *ImageSurface) WritePixels(pix []uint8) {
	if s.closed {
		return
	}
	copy(s.img.Pix, pix)
}

// DrawSprite draws img centered at (cx, cy) at its natural size times
// opts.Scale.
func (s *ImageSurface) DrawSprite(img image.Image, cx, cy float64, opts *SpriteOptions) {
	if s.closed || img == nil {
		return
	}

	scale := 1.0
	if opts != nil && opts.Scale > 0 {
		scale = opts.Scale
	}

	b := img.Bounds()
	w := float64(b.Dx()) * scale
	h := float64(b.Dy()) * scale
	if w < 1 || h < 1 {
		return
	}

	dst := image.Rect(
		int(math.Round(cx-w/2)),
		int(math.Round(cy-h/2)),
		int(math.Round(cx+w/2)),
		int(math.Round(cy+h/2)),
	)
	s.DrawQuad(img, dst, opts)
}

// DrawQuad stretches img into dst.
func (s *ImageSurface) DrawQuad(img image.Image, dst image.Rectangle, opts *SpriteOptions) {
	if s.closed || img == nil || dst.Empty() {
		return
	}

	src := toRGBA(img)
	sb := src.Bounds()

	// Rescale through x/image when the destination size differs from the
	// source. ApproxBiLinear is the interactive-rate tradeoff; cached
	// one-shot warps go through texture.Scale with CatmullRom instead.
	if sb.Dx() != dst.Dx() || sb.Dy() != dst.Dy() {
		scaled := image.NewRGBA(image.Rect(0, 0, dst.Dx(), dst.Dy()))
		xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), src, sb, xdraw.Src, nil)
		src = scaled
		sb = scaled.Bounds()
	}

	alpha, tintR, tintG, tintB, tinted := s.drawParams(opts)
	if alpha <= 0 {
		return
	}

	for sy := 0; sy < sb.Dy(); sy++ {
		dy := dst.Min.Y + sy
		if dy < 0 || dy >= s.height {
			continue
		}
		for sx := 0; sx < sb.Dx(); sx++ {
			dx := dst.Min.X + sx
			if dx < 0 || dx >= s.width {
				continue
			}

			i := src.PixOffset(sb.Min.X+sx, sb.Min.Y+sy)
			r, g, b, a := src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3]
			if tinted {
				r = blend.MulDiv255(r, tintR)
				g = blend.MulDiv255(g, tintG)
				b = blend.MulDiv255(b, tintB)
			}
			s.compositePixel(dx, dy, r, g, b, a, alpha)
		}
	}
}

// DrawMesh renders the mesh's committed grid as textured triangles.
func (s *ImageSurface) DrawMesh(m *Mesh) {
	if s.closed || m == nil || m.tex == nil {
		return
	}

	alpha := s.state.Alpha
	if alpha <= 0 {
		return
	}

	// Each cell becomes two triangles; UVs come from the rest grid so
	// deformation moves texture rather than resampling it.
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			i0 := r*(m.cols+1) + c
			i1 := i0 + 1
			i2 := i0 + (m.cols + 1)
			i3 := i2 + 1

			s.texturedTriangle(m, i0, i1, i2, alpha)
			s.texturedTriangle(m, i1, i3, i2, alpha)
		}
	}
}

// Snapshot returns a copy of the current surface contents.
func (s *ImageSurface) Snapshot() *image.RGBA {
	if s.closed {
		return nil
	}
	result := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	copy(result.Pix, s.img.Pix)
	return result
}

// Image returns the underlying image. This is a direct reference, not a
// copy.
func (s *ImageSurface) Image() *image.RGBA { return s.img }

// Close releases the surface. Idempotent.
func (s *ImageSurface) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.img = nil
	return nil
}

// drawParams folds options and surface state into effective draw values.
// A zero opts.Alpha means "unset" and keeps the surface alpha; negative
// values suppress the draw entirely.
func (s *ImageSurface) drawParams(opts *SpriteOptions) (alpha float64, tr, tg, tb byte, tinted bool) {
	alpha = s.state.Alpha
	if opts != nil {
		switch {
		case opts.Alpha > 0:
			alpha *= opts.Alpha
		case opts.Alpha < 0:
			alpha = 0
		}
		if opts.Tint != nil {
			r, g, b, _ := opts.Tint.RGBA()
			tr, tg, tb = uint8(r>>8), uint8(g>>8), uint8(b>>8)
			tinted = true
		}
	}
	if alpha > 1 {
		alpha = 1
	}
	return alpha, tr, tg, tb, tinted
}

// compositePixel blends one source pixel at (x, y) honoring the current
// blend mode and an extra alpha factor in [0, 1].
func (s *ImageSurface) compositePixel(x, y int, sr, sg, sb, sa uint8, alphaFactor float64) {
	if sa == 0 || alphaFactor <= 0 {
		return
	}

	idx := s.img.PixOffset(x, y)
	dr := s.img.Pix[idx+0]
	dg := s.img.Pix[idx+1]
	db := s.img.Pix[idx+2]
	da := s.img.Pix[idx+3]

	// Blend modes transform the source color against the destination
	// before standard source-over compositing.
	switch s.state.Mode {
	case BlendMultiply:
		sr, sg, sb = blend.Multiply(sr, dr), blend.Multiply(sg, dg), blend.Multiply(sb, db)
	case BlendScreen:
		sr, sg, sb = blend.Screen(sr, dr), blend.Screen(sg, dg), blend.Screen(sb, db)
	case BlendOverlay:
		sr, sg, sb = blend.Overlay(sr, dr), blend.Overlay(sg, dg), blend.Overlay(sb, db)
	}

	srcA := uint32(float64(sa) * alphaFactor)
	if srcA == 0 {
		return
	}
	invSrcA := 255 - srcA

	outA := srcA + uint32(da)*invSrcA/255
	if outA == 0 {
		return
	}

	outR := (uint32(sr)*srcA + uint32(dr)*uint32(da)*invSrcA/255) / outA
	outG := (uint32(sg)*srcA + uint32(dg)*uint32(da)*invSrcA/255) / outA
	outB := (uint32(sb)*srcA + uint32(db)*uint32(da)*invSrcA/255) / outA

	s.img.Pix[idx+0] = uint8(outR)
	s.img.Pix[idx+1] = uint8(outG)
	s.img.Pix[idx+2] = uint8(outB)
	s.img.Pix[idx+3] = uint8(outA)
}

// texturedTriangle rasterizes one triangle of a mesh cell with
// barycentric UV interpolation and bilinear texture sampling.
func (s *ImageSurface) texturedTriangle(m *Mesh, ia, ib, ic int, alpha float64) {
	ax, ay := m.world(ia)
	bx, by := m.world(ib)
	cx, cy := m.world(ic)

	au, av := m.uv(ia)
	bu, bv := m.uv(ib)
	cu, cv := m.uv(ic)

	minX := int(math.Floor(min3(ax, bx, cx)))
	maxX := int(math.Ceil(max3(ax, bx, cx)))
	minY := int(math.Floor(min3(ay, by, cy)))
	maxY := int(math.Ceil(max3(ay, by, cy)))

	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX > s.width {
		maxX = s.width
	}
	if maxY > s.height {
		maxY = s.height
	}
	if minX >= maxX || minY >= maxY {
		return
	}

	area := edge(ax, ay, bx, by, cx, cy)
	if math.Abs(area) < 1e-9 {
		return // degenerate triangle
	}
	invArea := 1.0 / area

	for y := minY; y < maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x < maxX; x++ {
			px := float64(x) + 0.5

			w0 := edge(bx, by, cx, cy, px, py) * invArea
			w1 := edge(cx, cy, ax, ay, px, py) * invArea
			w2 := edge(ax, ay, bx, by, px, py) * invArea

			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			u := w0*au + w1*bu + w2*cu
			v := w0*av + w1*bv + w2*cv

			r, g, b, a := sampleBilinear(m.tex, u, v)
			s.compositePixel(x, y, r, g, b, a, alpha)
		}
	}
}

// edge is the signed area of the (a, b, p) triangle times two.
func edge(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// sampleBilinear samples tex at normalized (u, v) with bilinear
// filtering, clamping at the edges.
func sampleBilinear(tex *image.RGBA, u, v float64) (r, g, b, a uint8) {
	bounds := tex.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return 0, 0, 0, 0
	}

	fx := u*float64(w) - 0.5
	fy := v*float64(h) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	x1 := clampInt(x0+1, 0, w-1)
	y1 := clampInt(y0+1, 0, h-1)
	x0 = clampInt(x0, 0, w-1)
	y0 = clampInt(y0, 0, h-1)

	p00 := tex.PixOffset(bounds.Min.X+x0, bounds.Min.Y+y0)
	p10 := tex.PixOffset(bounds.Min.X+x1, bounds.Min.Y+y0)
	p01 := tex.PixOffset(bounds.Min.X+x0, bounds.Min.Y+y1)
	p11 := tex.PixOffset(bounds.Min.X+x1, bounds.Min.Y+y1)

	lerp2 := func(c int) uint8 {
		top := float64(tex.Pix[p00+c])*(1-tx) + float64(tex.Pix[p10+c])*tx
		bot := float64(tex.Pix[p01+c])*(1-tx) + float64(tex.Pix[p11+c])*tx
		return uint8(top*(1-ty) + bot*ty + 0.5)
	}
	return lerp2(0), lerp2(1), lerp2(2), lerp2(3)
}

// toRGBA converts an image to *image.RGBA without copying when possible.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	return rgba
}

func min3(a, b, c float64) float64 { return math.Min(a, math.Min(b, c)) }
func max3(a, b, c float64) float64 { return math.Max(a, math.Max(b, c)) }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Verify ImageSurface implements Surface.
var _ Surface = (*ImageSurface)(nil)
