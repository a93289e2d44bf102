package blend

import "testing"

func TestDiv255Exact(t *testing.T) {
	// The exact formula must agree with true division for all blend inputs.
	for x := 0; x <= 255*255; x++ {
		got := div255Exact(uint16(x))
		want := uint16(x / 255)
		if got != want {
			t.Fatalf("div255Exact(%d) = %d, want %d", x, got, want)
		}
	}
}

func TestMulDiv255Bounds(t *testing.T) {
	cases := []struct {
		a, b byte
	}{
		{0, 0}, {0, 255}, {255, 0}, {255, 255}, {128, 128}, {1, 255}, {255, 1},
	}
	for _, c := range cases {
		got := MulDiv255(c.a, c.b)
		exact := mulDiv255Exact(c.a, c.b)
		diff := int(got) - int(exact)
		if diff < -1 || diff > 1 {
			t.Errorf("MulDiv255(%d,%d) = %d, exact %d (diff %d)", c.a, c.b, got, exact, diff)
		}
	}

	if MulDiv255(255, 255) != 255 {
		t.Errorf("MulDiv255(255,255) = %d, want 255", MulDiv255(255, 255))
	}
	if MulDiv255(0, 255) != 0 {
		t.Errorf("MulDiv255(0,255) = %d, want 0", MulDiv255(0, 255))
	}
}

func TestLerp(t *testing.T) {
	tests := []struct {
		a, b byte
		t    float64
		want byte
	}{
		{0, 255, 0, 0},
		{0, 255, 1, 255},
		{0, 255, 0.5, 128},
		{100, 200, 0.5, 150},
		{10, 20, -1, 10},  // clamped
		{10, 20, 2, 20},   // clamped
		{7, 7, 0.3, 7},    // identity when endpoints equal
	}
	for _, tc := range tests {
		if got := Lerp(tc.a, tc.b, tc.t); got != tc.want {
			t.Errorf("Lerp(%d,%d,%g) = %d, want %d", tc.a, tc.b, tc.t, got, tc.want)
		}
	}
}

func TestMultiply(t *testing.T) {
	if got := Multiply(255, 200); got != 200 {
		t.Errorf("Multiply(255,200) = %d, want 200", got)
	}
	if got := Multiply(0, 200); got != 0 {
		t.Errorf("Multiply(0,200) = %d, want 0", got)
	}
	// Result never lighter than either input.
	for _, s := range []byte{0, 64, 128, 255} {
		for _, d := range []byte{0, 64, 128, 255} {
			got := Multiply(s, d)
			if got > s || got > d {
				t.Errorf("Multiply(%d,%d) = %d lighter than an input", s, d, got)
			}
		}
	}
}

func TestScreen(t *testing.T) {
	if got := Screen(0, 200); got != 200 {
		t.Errorf("Screen(0,200) = %d, want 200", got)
	}
	if got := Screen(255, 17); got != 255 {
		t.Errorf("Screen(255,17) = %d, want 255", got)
	}
	// Result never darker than either input.
	for _, s := range []byte{0, 64, 128, 255} {
		for _, d := range []byte{0, 64, 128, 255} {
			got := Screen(s, d)
			if got < s || got < d {
				t.Errorf("Screen(%d,%d) = %d darker than an input", s, d, got)
			}
		}
	}
}

func TestOverlay(t *testing.T) {
	// Dark destination multiplies, light destination screens.
	if got := Overlay(200, 0); got != 0 {
		t.Errorf("Overlay(200,0) = %d, want 0", got)
	}
	if got := Overlay(100, 255); got != 255 {
		t.Errorf("Overlay(100,255) = %d, want 255", got)
	}
}

func BenchmarkMulDiv255(b *testing.B) {
	var sink byte
	for i := 0; i < b.N; i++ {
		sink = MulDiv255(byte(i), byte(i>>8))
	}
	_ = sink
}

func BenchmarkLerp(b *testing.B) {
	var sink byte
	for i := 0; i < b.N; i++ {
		sink = Lerp(byte(i), byte(i>>8), 0.42)
	}
	_ = sink
}
