package stage

import (
	"image"
	"sync/atomic"

	"github.com/posefx/stage/cache"
)

// Box is the smallest axis-aligned rectangle enclosing every mask pixel
// whose confidence exceeds a threshold. Coordinates are inclusive.
type Box struct {
	MinX, MinY int
	MaxX, MaxY int
}

// Rect returns the box as a half-open image rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.MinX, b.MinY, b.MaxX+1, b.MaxY+1)
}

// Width returns the pixel width of the box.
func (b Box) Width() int { return b.MaxX - b.MinX + 1 }

// Height returns the pixel height of the box.
func (b Box) Height() int { return b.MaxY - b.MinY + 1 }

// FindBounds scans the whole mask and returns the bounding box of all
// pixels with confidence strictly above threshold*255. The second
// return is false when no pixel qualifies; callers must fall back to a
// tiling strategy instead of box-fit placement.
func FindBounds(mask *Mask, threshold float64) (Box, bool) {
	if mask == nil {
		return Box{}, false
	}
	limit := threshold * 255

	w, h := mask.Width(), mask.Height()
	box := Box{MinX: w, MinY: h, MaxX: -1, MaxY: -1}
	data := mask.Data()
	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := data[i]
			i++
			if float64(v) <= limit {
				continue
			}
			if x < box.MinX {
				box.MinX = x
			}
			if x > box.MaxX {
				box.MaxX = x
			}
			if y < box.MinY {
				box.MinY = y
			}
			if y > box.MaxY {
				box.MaxY = y
			}
		}
	}
	if box.MaxX < 0 {
		return Box{}, false
	}
	return box, true
}

// boxKey identifies one scan result. The mask length stands in for the
// mask identity: within one layer the buffer dimensions only change
// when the camera does, and the cache is invalidated on every threshold
// change, so (length, threshold) is sufficient.
type boxKey struct {
	maskLen   int
	threshold float64
}

type boxEntry struct {
	box   Box
	found bool
}

// BoxScanner caches bounding-box scans. The scan is the most expensive
// per-call mask operation, so repeated lookups for an unchanged
// (mask, threshold) pair must not rescan.
type BoxScanner struct {
	results *cache.Bounded[boxKey, boxEntry]
	scans   atomic.Uint64
}

// NewBoxScanner returns an empty scanner.
func NewBoxScanner() *BoxScanner {
	return &BoxScanner{
		results: cache.New[boxKey, boxEntry](cache.DefaultCapacity),
	}
}

// Find returns the cached bounding box for (mask, threshold), scanning
// only on a cache miss.
func (s *BoxScanner) Find(mask *Mask, threshold float64) (Box, bool) {
	if mask == nil {
		return Box{}, false
	}
	key := boxKey{maskLen: len(mask.Data()), threshold: threshold}
	entry := s.results.GetOrCreate(key, func() boxEntry {
		s.scans.Add(1)
		box, found := FindBounds(mask, threshold)
		return boxEntry{box: box, found: found}
	})
	return entry.box, entry.found
}

// Scans returns the number of full mask scans performed. Cache hits do
// not increment it.
func (s *BoxScanner) Scans() uint64 { return s.scans.Load() }

// Invalidate drops all cached results. Must be called whenever the
// threshold configuration changes, and whenever a new mask arrives that
// the length-based key cannot distinguish from the previous one.
func (s *BoxScanner) Invalidate() {
	s.results.Clear()
}
