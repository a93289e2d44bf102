package filter

import (
	"math"
	"testing"
)

func TestGaussianKernelNormalized(t *testing.T) {
	for _, radius := range []float64{0.5, 1, 2, 5, 10} {
		kernel := GaussianKernel(radius)
		var sum float64
		for _, v := range kernel {
			sum += float64(v)
		}
		if math.Abs(sum-1.0) > 1e-4 {
			t.Errorf("radius %g: kernel sum = %g, want 1.0", radius, sum)
		}
		if len(kernel)%2 != 1 {
			t.Errorf("radius %g: kernel size %d not odd", radius, len(kernel))
		}
	}
}

func TestGaussianKernelIdentity(t *testing.T) {
	kernel := GaussianKernel(0)
	if len(kernel) != 1 || kernel[0] != 1.0 {
		t.Errorf("zero radius kernel = %v, want [1.0]", kernel)
	}
}

func TestGaussianKernelSymmetric(t *testing.T) {
	kernel := GaussianKernel(3)
	n := len(kernel)
	for i := 0; i < n/2; i++ {
		if kernel[i] != kernel[n-1-i] {
			t.Errorf("kernel not symmetric at %d: %g vs %g", i, kernel[i], kernel[n-1-i])
		}
	}
	// Center weight dominates.
	center := kernel[n/2]
	for i, v := range kernel {
		if i != n/2 && v > center {
			t.Errorf("weight at %d (%g) exceeds center (%g)", i, v, center)
		}
	}
}

func TestCachedGaussianKernel(t *testing.T) {
	k1 := CachedGaussianKernel(2.5)
	k2 := CachedGaussianKernel(2.5)
	if &k1[0] != &k2[0] {
		t.Error("expected cached kernel to be reused")
	}
}

// solidFrame builds a uniformly colored RGBA slice.
func solidFrame(w, h int, r, g, b, a uint8) []uint8 {
	data := make([]uint8, w*h*4)
	for i := 0; i < len(data); i += 4 {
		data[i+0] = r
		data[i+1] = g
		data[i+2] = b
		data[i+3] = a
	}
	return data
}

func TestGaussianRGBASolidInvariant(t *testing.T) {
	// Blurring a solid color must return the same solid color
	// (within rounding) because the kernel is normalized.
	src := solidFrame(16, 12, 200, 100, 50, 255)
	dst := GaussianRGBA(src, 16, 12, 3)

	for i := 0; i < len(dst); i += 4 {
		for c := 0; c < 4; c++ {
			diff := int(dst[i+c]) - int(src[i+c])
			if diff < -1 || diff > 1 {
				t.Fatalf("pixel %d channel %d: got %d, want %d", i/4, c, dst[i+c], src[i+c])
			}
		}
	}
}

func TestGaussianRGBAZeroRadiusCopies(t *testing.T) {
	src := solidFrame(8, 8, 1, 2, 3, 4)
	src[0] = 99
	dst := GaussianRGBA(src, 8, 8, 0)
	if dst[0] != 99 {
		t.Errorf("zero radius: dst[0] = %d, want copy of src", dst[0])
	}
	// Source must not alias the result.
	dst[0] = 7
	if src[0] != 99 {
		t.Error("blur result aliases source")
	}
}

func TestGaussianRGBASmoothsEdge(t *testing.T) {
	// A single white pixel on black must spread energy to neighbors.
	w, h := 9, 9
	src := solidFrame(w, h, 0, 0, 0, 255)
	center := (4*w + 4) * 4
	src[center] = 255

	dst := GaussianRGBA(src, w, h, 1.5)

	if dst[center] >= 255 {
		t.Errorf("center kept full intensity %d after blur", dst[center])
	}
	neighbor := (4*w + 5) * 4
	if dst[neighbor] == 0 {
		t.Error("neighbor received no energy from blur")
	}
	if dst[center] <= dst[neighbor] {
		t.Errorf("center (%d) not brighter than neighbor (%d)", dst[center], dst[neighbor])
	}
}

func TestGaussianRGBAShortSource(t *testing.T) {
	// Undersized input must not panic; result is zeroed.
	dst := GaussianRGBA(make([]uint8, 10), 8, 8, 2)
	if len(dst) != 10 {
		t.Errorf("expected result sized like input, got %d", len(dst))
	}
}

func BenchmarkGaussianRGBA640x480(b *testing.B) {
	src := solidFrame(640, 480, 120, 130, 140, 255)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GaussianRGBA(src, 640, 480, 8)
	}
}
