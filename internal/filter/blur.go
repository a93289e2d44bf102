// Package filter implements the convolution filters used by background
// effects. The separable Gaussian blur processes horizontal and vertical
// passes independently, achieving O(w*h*r) complexity instead of
// O(w*h*r²), which is what keeps full-frame blur viable per frame.
package filter

import "sync"

// GaussianRGBA blurs an RGBA pixel slice (4 bytes per pixel, row-major)
// and returns a newly allocated result. The source is not modified.
// Sampling clamps at the edges (edge extension). A radius <= 0 returns a
// plain copy.
func GaussianRGBA(src []uint8, width, height int, radius float64) []uint8 {
	dst := make([]uint8, len(src))
	if width <= 0 || height <= 0 || len(src) < width*height*4 {
		return dst
	}

	if radius <= 0 {
		copy(dst, src[:width*height*4])
		return dst
	}

	temp := getTempBuffer(width, height)
	defer putTempBuffer(temp)

	kernel := CachedGaussianKernel(radius)

	blurHorizontal(src, temp, width, height, kernel)
	blurVertical(temp, dst, width, height, kernel)
	return dst
}

// blurHorizontal convolves each row with the 1D kernel, src -> temp.
func blurHorizontal(src []uint8, temp []float32, width, height int, kernel []float32) {
	kernelSize := len(kernel)
	halfKernel := kernelSize / 2

	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			var r, g, b, a float32

			for k := 0; k < kernelSize; k++ {
				kx := x + k - halfKernel
				if kx < 0 {
					kx = 0
				} else if kx >= width {
					kx = width - 1
				}

				idx := (row + kx) * 4
				weight := kernel[k]

				r += float32(src[idx+0]) * weight
				g += float32(src[idx+1]) * weight
				b += float32(src[idx+2]) * weight
				a += float32(src[idx+3]) * weight
			}

			idx := (row + x) * 4
			temp[idx+0] = r
			temp[idx+1] = g
			temp[idx+2] = b
			temp[idx+3] = a
		}
	}
}

// blurVertical convolves each column with the 1D kernel, temp -> dst.
func blurVertical(temp []float32, dst []uint8, width, height int, kernel []float32) {
	kernelSize := len(kernel)
	halfKernel := kernelSize / 2

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var r, g, b, a float32

			for k := 0; k < kernelSize; k++ {
				ky := y + k - halfKernel
				if ky < 0 {
					ky = 0
				} else if ky >= height {
					ky = height - 1
				}

				idx := (ky*width + x) * 4
				weight := kernel[k]

				r += temp[idx+0] * weight
				g += temp[idx+1] * weight
				b += temp[idx+2] * weight
				a += temp[idx+3] * weight
			}

			idx := (y*width + x) * 4
			dst[idx+0] = clampUint8(r)
			dst[idx+1] = clampUint8(g)
			dst[idx+2] = clampUint8(b)
			dst[idx+3] = clampUint8(a)
		}
	}
}

// floatBuffer wraps a slice for sync.Pool.
type floatBuffer struct {
	data []float32
}

// Temp buffers sized for a 640x480 frame by default; larger frames
// allocate outside the pool.
var tempBufferPool = sync.Pool{
	New: func() interface{} {
		return &floatBuffer{data: make([]float32, 640*480*4)}
	},
}

const maxPooledBuffer = 16 * 1024 * 1024

// getTempBuffer returns a float32 scratch buffer with at least
// width*height*4 elements.
func getTempBuffer(width, height int) []float32 {
	size := width * height * 4
	wrapper := tempBufferPool.Get().(*floatBuffer)

	if len(wrapper.data) < size {
		tempBufferPool.Put(wrapper)
		return make([]float32, size)
	}
	return wrapper.data[:size]
}

// putTempBuffer returns a scratch buffer to the pool.
func putTempBuffer(buf []float32) {
	if cap(buf) <= maxPooledBuffer {
		tempBufferPool.Put(&floatBuffer{data: buf[:cap(buf)]})
	}
}

// clampUint8 clamps a float32 to [0, 255] and rounds to nearest.
func clampUint8(v float32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
