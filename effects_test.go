package stage

import (
	"image"
	"image/color"
	"testing"
	"time"
)

func solidPixmap(w, h int, c color.RGBA) *Pixmap {
	p := NewPixmap(w, h)
	p.Clear(c)
	return p
}

func maskOf(w, h int, vals ...uint8) *Mask {
	data := make([]uint8, w*h)
	copy(data, vals)
	return MaskFromData(w, h, data)
}

// The contract scenario: a 4x4 mask with confidences [250,250,10,10]
// and everything else above threshold, removed at threshold 0.7
// (=178.5), must zero alpha on exactly the two sub-threshold pixels.
func TestEffectRemoveScenario(t *testing.T) {
	px := solidPixmap(4, 4, color.RGBA{R: 90, G: 120, B: 60, A: 255})
	data := make([]uint8, 16)
	for i := range data {
		data[i] = 250
	}
	data[2], data[3] = 10, 10
	m := MaskFromData(4, 4, data)

	EffectRemove(px, m, 0.7)

	for i := 0; i < 16; i++ {
		c := px.GetPixel(i%4, i/4)
		wantA := uint8(255)
		if i == 2 || i == 3 {
			wantA = 0
		}
		if c.A != wantA {
			t.Errorf("pixel %d alpha = %d, want %d", i, c.A, wantA)
		}
		if c.R != 90 || c.G != 120 || c.B != 60 {
			t.Errorf("pixel %d color = %v, want RGB unchanged", i, c)
		}
	}
}

// Background effects must touch exactly the pixels with conf < t*255
// and foreground effects exactly the complement.
func TestEffectThresholdComplement(t *testing.T) {
	const threshold = 0.7 // limit 178.5
	vals := []uint8{0, 10, 100, 178, 179, 200, 250, 255,
		50, 120, 160, 177, 180, 190, 254, 1}
	m := maskOf(4, 4, vals...)

	bg := solidPixmap(4, 4, color.RGBA{A: 255})
	EffectRemove(bg, m, threshold)

	fg := solidPixmap(4, 4, color.RGBA{A: 255})
	EffectColorCycle(fg, m, threshold, time.UnixMilli(1000), 1)

	for i, v := range vals {
		isBG := float64(v) < threshold*255
		removed := bg.GetPixel(i%4, i/4).A == 0
		if removed != isBG {
			t.Errorf("mask %d: remove touched = %v, want %v", v, removed, isBG)
		}
		c := fg.GetPixel(i%4, i/4)
		cycled := c.R != 0 || c.G != 0 || c.B != 0
		if cycled != !isBG {
			t.Errorf("mask %d: colorcycle touched = %v, want %v", v, cycled, !isBG)
		}
		if removed && cycled {
			t.Errorf("mask %d touched by both sides of the threshold", v)
		}
	}
}

func TestEffectReplaceBlendsByInverseConfidence(t *testing.T) {
	px := solidPixmap(2, 1, color.RGBA{R: 100, G: 100, B: 100, A: 255})
	m := maskOf(2, 1, 0, 127)
	repl := color.RGBA{R: 200, A: 255}

	EffectReplace(px, m, 0.7, repl)

	// conf 0: t = 1, full replacement color.
	if got := px.GetPixel(0, 0); got.R != 200 || got.G != 0 || got.B != 0 || got.A != 255 {
		t.Errorf("conf 0 pixel = %v, want {200 0 0 255}", got)
	}
	// conf 127: t = 128/255, lerp(100,200) = 150, lerp(100,0) = 50.
	if got := px.GetPixel(1, 0); got.R != 150 || got.G != 50 || got.B != 50 || got.A != 255 {
		t.Errorf("conf 127 pixel = %v, want {150 50 50 255}", got)
	}
}

func TestEffectBlurCompositeReplacesBackgroundRGB(t *testing.T) {
	px := solidPixmap(2, 2, color.RGBA{R: 255, A: 200})
	m := maskOf(2, 2, 255, 255, 0, 0)
	blurred := solidPixmap(2, 2, color.RGBA{B: 255, A: 255})

	EffectBlurComposite(px, m, 0.7, blurred.Data())

	if got := px.GetPixel(0, 0); got.R != 255 || got.B != 0 {
		t.Errorf("foreground pixel = %v, want untouched red", got)
	}
	got := px.GetPixel(0, 1)
	if got.B != 255 || got.R != 0 {
		t.Errorf("background pixel = %v, want blurred blue", got)
	}
	if got.A != 200 {
		t.Errorf("background alpha = %d, want 200 (alpha is not the blur's to change)", got.A)
	}
}

func TestEffectTextureBlendTiles(t *testing.T) {
	px := solidPixmap(4, 4, color.RGBA{A: 255})
	m := maskOf(4, 4,
		255, 255, 255, 255,
		255, 255, 255, 255,
		255, 255, 255, 255,
		255, 255, 255, 255)

	tex := image.NewRGBA(image.Rect(0, 0, 2, 2))
	colors := [4]color.RGBA{
		{R: 200, A: 255}, {G: 200, A: 255},
		{B: 200, A: 255}, {R: 200, G: 200, A: 255},
	}
	tex.SetRGBA(0, 0, colors[0])
	tex.SetRGBA(1, 0, colors[1])
	tex.SetRGBA(0, 1, colors[2])
	tex.SetRGBA(1, 1, colors[3])

	EffectTextureBlend(px, m, 0.7, tex, 0, 0, 1, color.RGBA{})

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := colors[(y%2)*2+x%2]
			got := px.GetPixel(x, y)
			if got.R != want.R || got.G != want.G || got.B != want.B {
				t.Errorf("pixel (%d,%d) = %v, want tiled %v", x, y, got, want)
			}
		}
	}
}

func TestEffectTextureBlendOriginShift(t *testing.T) {
	px := solidPixmap(3, 3, color.RGBA{A: 255})
	m := maskOf(3, 3, 0, 0, 0, 0, 255, 0, 0, 0, 0)

	tex := image.NewRGBA(image.Rect(0, 0, 2, 2))
	tex.SetRGBA(0, 0, color.RGBA{R: 200, A: 255})
	tex.SetRGBA(1, 0, color.RGBA{G: 200, A: 255})
	tex.SetRGBA(0, 1, color.RGBA{B: 200, A: 255})
	tex.SetRGBA(1, 1, color.RGBA{R: 50, A: 255})

	// Origin (1,1): the foreground pixel (1,1) samples texel (0,0).
	EffectTextureBlend(px, m, 0.7, tex, 1, 1, 1, color.RGBA{})

	if got := px.GetPixel(1, 1); got.R != 200 || got.G != 0 || got.B != 0 {
		t.Errorf("pixel (1,1) = %v, want texel (0,0) red", got)
	}
	if got := px.GetPixel(0, 0); got.R != 0 || got.G != 0 || got.B != 0 {
		t.Errorf("background pixel (0,0) = %v, want untouched", got)
	}
}

func TestEffectTextureBlendFillsBrokenTexels(t *testing.T) {
	px := solidPixmap(3, 1, color.RGBA{A: 255})
	m := maskOf(3, 1, 255, 255, 255)

	// One normal texel, one near-white, one transparent.
	tex := image.NewRGBA(image.Rect(0, 0, 3, 1))
	tex.SetRGBA(0, 0, color.RGBA{R: 200, A: 255})
	tex.SetRGBA(1, 0, color.RGBA{R: 250, G: 250, B: 250, A: 255})
	tex.SetRGBA(2, 0, color.RGBA{R: 200, A: 5})
	fill := color.RGBA{G: 99, A: 255}

	EffectTextureBlend(px, m, 0.7, tex, 0, 0, 1, fill)

	if got := px.GetPixel(0, 0); got.R != 200 {
		t.Errorf("normal texel pixel = %v, want texture red", got)
	}
	for _, x := range []int{1, 2} {
		if got := px.GetPixel(x, 0); got.G != 99 || got.R != 0 {
			t.Errorf("broken texel pixel %d = %v, want fill {0 99 0}", x, got)
		}
	}
}

func TestEffectGhost(t *testing.T) {
	px := solidPixmap(2, 1, color.RGBA{A: 255})
	m := maskOf(2, 1, 255, 0)

	EffectGhost(px, m, 0.7, 0.3)

	// Inside: lerp(255, 0, 0.3) = 179 (rounded).
	if got := px.GetPixel(0, 0); got.R != 179 || got.G != 179 || got.B != 179 {
		t.Errorf("inside pixel = %v, want gray 179", got)
	}
	if got := px.GetPixel(1, 0); got.R != 255 || got.G != 255 || got.B != 255 {
		t.Errorf("outside pixel = %v, want white", got)
	}
	if got := px.GetPixel(1, 0); got.A != 255 {
		t.Errorf("outside alpha = %d, want untouched 255", got.A)
	}
}

func TestEffectColorCycleFollowsTimestamp(t *testing.T) {
	m := maskOf(1, 1, 255)

	render := func(at time.Time) color.RGBA {
		px := solidPixmap(1, 1, color.RGBA{A: 255})
		EffectColorCycle(px, m, 0.7, at, 1)
		return px.GetPixel(0, 0)
	}

	t0 := time.UnixMilli(0)
	if a, b := render(t0), render(t0); a != b {
		t.Errorf("same timestamp produced %v then %v", a, b)
	}
	// 1800ms advances the hue by 90 degrees.
	if a, b := render(t0), render(time.UnixMilli(1800)); a == b {
		t.Error("hue did not advance with the timestamp")
	}
}

func TestEffectsTolerateNilInputs(t *testing.T) {
	px := solidPixmap(2, 2, color.RGBA{A: 255})
	m := maskOf(2, 2, 255, 0, 255, 0)

	EffectRemove(nil, m, 0.7)
	EffectRemove(px, nil, 0.7)
	EffectBlurComposite(px, m, 0.7, nil)
	EffectReplace(nil, m, 0.7, color.RGBA{})
	EffectTextureBlend(px, m, 0.7, nil, 0, 0, 1, color.RGBA{})
	EffectColorCycle(px, nil, 0.7, time.Now(), 1)
	EffectGhost(nil, m, 0.7, 0.3)

	// A malformed packet pairing a short mask with a larger buffer
	// must clamp, not panic.
	short := MaskFromData(1, 1, []uint8{10})
	EffectRemove(px, short, 0.7)
}
