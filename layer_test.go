package stage

import (
	"testing"

	"github.com/posefx/stage/surface"
)

func TestLayerBaseDefaults(t *testing.T) {
	b := NewLayerBase("fog", 7)

	if b.Name() != "fog" || b.Z() != 7 {
		t.Errorf("identity = %q/%d, want fog/7", b.Name(), b.Z())
	}
	if !b.Enabled() {
		t.Error("new layer disabled, want enabled")
	}
	if b.Opacity() != 1 {
		t.Errorf("Opacity() = %v, want 1", b.Opacity())
	}
	if b.BlendMode() != surface.BlendSourceOver {
		t.Errorf("BlendMode() = %v, want SourceOver", b.BlendMode())
	}
	if !b.ShouldRender(nil) {
		t.Error("fresh layer ShouldRender = false, want true (starts dirty)")
	}
}

func TestLayerBaseOpacityClamps(t *testing.T) {
	b := NewLayerBase("l", 0)
	b.SetOpacity(-0.5)
	if b.Opacity() != 0 {
		t.Errorf("Opacity() = %v after -0.5, want 0", b.Opacity())
	}
	b.SetOpacity(1.5)
	if b.Opacity() != 1 {
		t.Errorf("Opacity() = %v after 1.5, want 1", b.Opacity())
	}
}

func TestLayerBaseDirtyGating(t *testing.T) {
	b := NewLayerBase("l", 0)
	b.ClearDirty()
	if b.ShouldRender(nil) {
		t.Error("ShouldRender = true after ClearDirty, want false")
	}
	b.MarkDirty()
	if !b.ShouldRender(nil) {
		t.Error("ShouldRender = false after MarkDirty, want true")
	}

	b.ClearDirty()
	b.SetAlwaysRender(true)
	if !b.ShouldRender(nil) {
		t.Error("ShouldRender = false for always-render layer, want true")
	}
}

func TestLayerBaseCached(t *testing.T) {
	b := NewLayerBase("l", 0)

	builds := 0
	build := func() any {
		builds++
		return builds
	}

	if v := b.Cached("k", build); v.(int) != 1 {
		t.Errorf("Cached() = %v, want 1", v)
	}
	if v := b.Cached("k", build); v.(int) != 1 {
		t.Errorf("Cached() second call = %v, want cached 1", v)
	}
	if builds != 1 {
		t.Errorf("factory ran %d times, want 1", builds)
	}

	b.ClearDirty()
	b.Invalidate()
	if !b.ShouldRender(nil) {
		t.Error("ShouldRender = false after Invalidate, want true")
	}
	if v := b.Cached("k", build); v.(int) != 2 {
		t.Errorf("Cached() after Invalidate = %v, want rebuilt 2", v)
	}

	st := b.CacheStats()
	if st.Hits != 1 || st.Misses != 2 {
		t.Errorf("CacheStats() = %+v, want 1 hit, 2 misses", st)
	}
}

func TestLayerBaseInitAndClose(t *testing.T) {
	b := NewLayerBase("l", 0)
	if b.Surface() != nil {
		t.Error("Surface() non-nil before Init")
	}

	s := surface.NewImageSurface(4, 4)
	defer s.Close()
	if err := b.Init(s); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if b.Surface() != s {
		t.Error("Surface() does not return the bound surface")
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if b.Surface() != nil {
		t.Error("Surface() non-nil after Close")
	}
}
