package surface

import (
	"errors"
	"fmt"
	"image"
	"slices"
	"sync"
)

// Region errors.
var (
	// ErrRegionExists is returned when registering a name twice.
	ErrRegionExists = errors.New("surface: region already registered")

	// ErrRegionInvalid is returned for regions outside [0,1] bounds or
	// with non-positive extent.
	ErrRegionInvalid = errors.New("surface: invalid region")
)

// Region is a rectangle in normalized [0,1] fractions of a surface.
// Overlays and particle bands are confined to a region; scaling to pixel
// space happens only at draw time, so one region works for any output
// resolution.
type Region struct {
	X, Y, W, H float64
}

// Full covers the entire surface.
var Full = Region{X: 0, Y: 0, W: 1, H: 1}

// valid reports whether the region lies inside the unit square with
// positive extent.
func (r Region) valid() bool {
	return r.W > 0 && r.H > 0 &&
		r.X >= 0 && r.Y >= 0 &&
		r.X+r.W <= 1.0001 && r.Y+r.H <= 1.0001
}

// Pixels converts the region to a pixel rectangle on a width×height
// surface.
func (r Region) Pixels(width, height int) image.Rectangle {
	x0 := int(r.X * float64(width))
	y0 := int(r.Y * float64(height))
	x1 := int((r.X + r.W) * float64(width))
	y1 := int((r.Y + r.H) * float64(height))
	return image.Rect(x0, y0, x1, y1)
}

// String implements fmt.Stringer.
func (r Region) String() string {
	return fmt.Sprintf("region(%.2f,%.2f %0.2fx%.2f)", r.X, r.Y, r.W, r.H)
}

// Registry maps names to regions. A name, once registered, is immutable:
// re-registering it fails, so configuration referring to "bottom_third"
// always means the same band for the lifetime of the pipeline.
type Registry struct {
	mu      sync.RWMutex
	regions map[string]Region
}

// NewRegistry creates a registry pre-populated with the standard bands.
func NewRegistry() *Registry {
	return &Registry{
		regions: map[string]Region{
			"full":         Full,
			"bottom_third": {X: 0, Y: 2.0 / 3.0, W: 1, H: 1.0 / 3.0},
			"top_band":     {X: 0, Y: 0, W: 1, H: 0.25},
		},
	}
}

// Register adds a named region. Returns ErrRegionExists if the name is
// taken and ErrRegionInvalid for malformed regions.
func (g *Registry) Register(name string, r Region) error {
	if !r.valid() {
		return fmt.Errorf("%w: %s", ErrRegionInvalid, r)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.regions[name]; ok {
		return fmt.Errorf("%w: %q", ErrRegionExists, name)
	}
	g.regions[name] = r
	return nil
}

// Lookup returns the region registered under name.
func (g *Registry) Lookup(name string) (Region, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.regions[name]
	return r, ok
}

// Names returns all registered region names in sorted order.
func (g *Registry) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.regions))
	for name := range g.regions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
