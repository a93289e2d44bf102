package texture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writePNG writes a solid-color PNG and returns its path.
func writePNG(t *testing.T, name string, w, h int, c color.RGBA) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func TestSolid(t *testing.T) {
	tex := Solid(4, 3, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	if tex.Width() != 4 || tex.Height() != 3 {
		t.Errorf("size = %dx%d, want 4x3", tex.Width(), tex.Height())
	}
	c := tex.Image().RGBAAt(2, 1)
	if c != (color.RGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("pixel = %v, want {10 20 30 255}", c)
	}
}

func TestDot(t *testing.T) {
	tex := Dot(8, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	if tex.Width() != 16 || tex.Height() != 16 {
		t.Errorf("size = %dx%d, want 16x16", tex.Width(), tex.Height())
	}

	center := tex.Image().RGBAAt(7, 7)
	if center.A < 200 {
		t.Errorf("center alpha = %d, want near-opaque", center.A)
	}
	corner := tex.Image().RGBAAt(0, 0)
	if corner.A != 0 {
		t.Errorf("corner alpha = %d, want 0", corner.A)
	}
}

func TestFromImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})

	tex := FromImage("mem", src)
	if tex.Path() != "mem" {
		t.Errorf("Path() = %q, want mem", tex.Path())
	}
	if c := tex.Image().RGBAAt(0, 0); c.R != 255 || c.A != 255 {
		t.Errorf("converted pixel = %v, want red", c)
	}
}

func TestDecodeUnsupported(t *testing.T) {
	_, _, err := Decode(bytes.NewReader([]byte("not an image at all")))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Decode(garbage) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoaderLoad(t *testing.T) {
	path := writePNG(t, "red.png", 8, 6, color.RGBA{R: 255, A: 255})
	l := NewLoader()

	tex, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tex.Width() != 8 || tex.Height() != 6 {
		t.Errorf("size = %dx%d, want 8x6", tex.Width(), tex.Height())
	}
	if c := tex.Image().RGBAAt(0, 0); c.R != 255 {
		t.Errorf("pixel = %v, want red", c)
	}

	// Second load hits the cache and returns the same texture.
	again, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load (cached): %v", err)
	}
	if again != tex {
		t.Error("cached load returned a different texture")
	}

	stats := l.Stats()
	if stats.Loads != 1 {
		t.Errorf("Loads = %d, want 1", stats.Loads)
	}
	if stats.Cache.Hits != 1 {
		t.Errorf("cache hits = %d, want 1", stats.Cache.Hits)
	}
}

func TestLoaderLoadMissing(t *testing.T) {
	l := NewLoader()

	_, err := l.Load(filepath.Join(t.TempDir(), "nope.png"))
	if err == nil {
		t.Fatal("Load(missing) succeeded, want error")
	}
	if got := l.Stats().Failures; got != 1 {
		t.Errorf("Failures = %d, want 1", got)
	}
}

func TestLoaderFailureNotCached(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "late.png")
	l := NewLoader()

	if _, err := l.Load(path); err == nil {
		t.Fatal("Load before file exists succeeded")
	}

	// File appears afterwards; the loader must retry rather than
	// remember the failure.
	src := writePNG(t, "src.png", 2, 2, color.RGBA{G: 255, A: 255})
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := l.Load(path); err != nil {
		t.Fatalf("Load after file appears: %v", err)
	}
}

func TestLoaderLoadAsync(t *testing.T) {
	path := writePNG(t, "async.png", 4, 4, color.RGBA{B: 255, A: 255})
	l := NewLoader()

	l.LoadAsync(path)

	select {
	case ld := <-l.Ready():
		if ld.Err != nil {
			t.Fatalf("async load error: %v", ld.Err)
		}
		if ld.Path != path {
			t.Errorf("Loaded.Path = %q, want %q", ld.Path, path)
		}
		if ld.Texture == nil || ld.Texture.Width() != 4 {
			t.Errorf("Loaded.Texture = %v, want 4x4 texture", ld.Texture)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("async load never completed")
	}

	// The async result is cached for synchronous access.
	if _, ok := l.cache.Get(path); !ok {
		t.Error("async load did not populate the cache")
	}
}

func TestLoaderLoadAsyncFailure(t *testing.T) {
	l := NewLoader()
	l.LoadAsync("/does/not/exist.png")

	select {
	case ld := <-l.Ready():
		if ld.Err == nil {
			t.Error("async load of missing file reported no error")
		}
		if ld.Texture != nil {
			t.Error("failed load delivered a texture")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("async failure never delivered")
	}
}

func TestLoaderDrain(t *testing.T) {
	pathA := writePNG(t, "a.png", 2, 2, color.RGBA{R: 255, A: 255})
	pathB := writePNG(t, "b.png", 2, 2, color.RGBA{G: 255, A: 255})
	l := NewLoader()

	// Preload so LoadAsync delivers synchronously from cache.
	if _, err := l.Load(pathA); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := l.Load(pathB); err != nil {
		t.Fatalf("Load: %v", err)
	}
	l.LoadAsync(pathA)
	l.LoadAsync(pathB)

	got := l.Drain()
	if len(got) != 2 {
		t.Fatalf("Drain returned %d completions, want 2", len(got))
	}
	if l.Drain() != nil {
		t.Error("second Drain returned completions, want none")
	}
}

func TestLoaderInvalidate(t *testing.T) {
	path := writePNG(t, "inv.png", 2, 2, color.RGBA{R: 255, A: 255})
	l := NewLoader()

	first, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !l.Invalidate(path) {
		t.Fatal("Invalidate returned false for cached path")
	}

	second, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load after Invalidate: %v", err)
	}
	if first == second {
		t.Error("Invalidate did not force a re-decode")
	}
	if got := l.Stats().Loads; got != 2 {
		t.Errorf("Loads = %d, want 2", got)
	}
}

func TestScale(t *testing.T) {
	tex := Solid(8, 8, color.RGBA{R: 100, G: 150, B: 200, A: 255})

	scaled := Scale(tex, 4, 4, QualitySmooth)
	if scaled.Width() != 4 || scaled.Height() != 4 {
		t.Errorf("size = %dx%d, want 4x4", scaled.Width(), scaled.Height())
	}
	c := scaled.Image().RGBAAt(2, 2)
	if c.R < 98 || c.R > 102 || c.A != 255 {
		t.Errorf("scaled solid pixel = %v, want ~{100 150 200 255}", c)
	}

	// Identity scale returns the same texture.
	if same := Scale(tex, 8, 8, QualityFast); same != tex {
		t.Error("identity Scale allocated a new texture")
	}
}
