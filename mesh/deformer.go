// Package mesh makes a deformable grid follow body landmarks without
// chaotic motion.
//
// A Deformer owns bindings from mesh vertices to landmark sets. Every
// update runs the same two-stage filter on each tracked value: a dead
// zone discards sub-threshold jitter, then exponential smoothing eases
// the survivor toward its target. The container transform — where the
// whole mesh sits and how large it is — runs through an independent
// instance of the same filter, driven by the torso center and shoulder
// width, so global body motion and local limb motion never fight over
// one smoothing constant.
package mesh

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/posefx/stage/pose"
	"github.com/posefx/stage/surface"
)

// Binding errors.
var (
	ErrNoLandmarks = errors.New("mesh: binding needs at least one landmark")
	ErrBadLandmark = errors.New("mesh: landmark index out of range")
)

// Config tunes the deformer filters. Zero values are replaced by
// DefaultConfig equivalents.
type Config struct {
	// VertexSmoothing is the per-update lerp factor for bound
	// vertices, in (0, 1]. 1 disables smoothing.
	VertexSmoothing float64

	// VertexDeadZone is the minimum on-screen delta, in pixels, a
	// vertex target must move before the vertex follows.
	VertexDeadZone float64

	// ContainerSmoothing and ContainerDeadZone filter the whole-mesh
	// position the same way.
	ContainerSmoothing float64
	ContainerDeadZone  float64

	// TorsoOffset places the container anchor between the shoulder
	// midpoint (0) and the hip midpoint (1).
	TorsoOffset float64

	// MinVisibility gates every landmark read.
	MinVisibility float64

	// ScaleBase is the on-screen shoulder width, in pixels, that maps
	// to container scale 1. Scale is clamped to [ScaleMin, ScaleMax].
	ScaleBase float64
	ScaleMin  float64
	ScaleMax  float64
}

// DefaultConfig returns the tuning used by the standard overlays.
func DefaultConfig() Config {
	return Config{
		VertexSmoothing:    0.35,
		VertexDeadZone:     2,
		ContainerSmoothing: 0.25,
		ContainerDeadZone:  3,
		TorsoOffset:        0.35,
		MinVisibility:      pose.DefaultVisibility,
		ScaleBase:          180,
		ScaleMin:           0.5,
		ScaleMax:           2.5,
	}
}

// scaleDeadZone suppresses scale jitter below this relative delta.
const scaleDeadZone = 0.02

func (c *Config) sanitize() {
	def := DefaultConfig()
	if c.VertexSmoothing <= 0 || c.VertexSmoothing > 1 {
		c.VertexSmoothing = def.VertexSmoothing
	}
	if c.VertexDeadZone < 0 {
		c.VertexDeadZone = def.VertexDeadZone
	}
	if c.ContainerSmoothing <= 0 || c.ContainerSmoothing > 1 {
		c.ContainerSmoothing = def.ContainerSmoothing
	}
	if c.ContainerDeadZone < 0 {
		c.ContainerDeadZone = def.ContainerDeadZone
	}
	if c.TorsoOffset < 0 {
		c.TorsoOffset = 0
	}
	if c.TorsoOffset > 1 {
		c.TorsoOffset = 1
	}
	if c.MinVisibility <= 0 {
		c.MinVisibility = def.MinVisibility
	}
	if c.ScaleBase <= 0 {
		c.ScaleBase = def.ScaleBase
	}
	if c.ScaleMin <= 0 {
		c.ScaleMin = def.ScaleMin
	}
	if c.ScaleMax < c.ScaleMin {
		c.ScaleMax = c.ScaleMin
	}
}

// binding ties one vertex to the average of a landmark set.
type binding struct {
	vertex    int
	landmarks []int
	influence float64

	last mgl64.Vec2
	has  bool
}

// Deformer drives one mesh from pose landmarks. Landmarks arrive
// normalized; the deformer maps them through the frame dimensions given
// at construction.
type Deformer struct {
	mesh   *surface.Mesh
	cfg    Config
	width  float64
	height float64

	bindings []binding

	pos      mgl64.Vec2 // smoothed container anchor (torso), pixels
	hasPos   bool
	scale    float64
	hasScale bool
}

// NewDeformer creates a deformer for m rendering into a width×height
// frame.
func NewDeformer(m *surface.Mesh, width, height int, cfg Config) *Deformer {
	cfg.sanitize()
	return &Deformer{
		mesh:   m,
		cfg:    cfg,
		width:  float64(width),
		height: float64(height),
		scale:  1,
	}
}

// Bind makes vertex follow the average position of the given landmarks.
// Influence in [0, 1] blends between the rest position (0) and full
// landmark tracking (1); out-of-range values are clamped.
func (d *Deformer) Bind(vertex int, influence float64, landmarks ...int) error {
	if _, err := d.mesh.Vertex(vertex); err != nil {
		return err
	}
	if len(landmarks) == 0 {
		return ErrNoLandmarks
	}
	for _, lm := range landmarks {
		if lm < 0 || lm >= pose.NumLandmarks {
			return fmt.Errorf("%w: %d", ErrBadLandmark, lm)
		}
	}
	if influence < 0 {
		influence = 0
	}
	if influence > 1 {
		influence = 1
	}
	d.bindings = append(d.bindings, binding{
		vertex:    vertex,
		landmarks: append([]int(nil), landmarks...),
		influence: influence,
	})
	return nil
}

// Update feeds one landmark frame. It reports whether the mesh was
// touched; frames with missing or low-visibility torso landmarks are
// skipped wholesale so the mesh holds its last good state instead of
// snapping to a degenerate target.
func (d *Deformer) Update(lms []pose.Landmark) bool {
	center, ok := pose.TorsoCenter(lms, d.cfg.TorsoOffset, d.cfg.MinVisibility)
	if !ok {
		return false
	}

	d.updateScale(lms)
	d.updatePosition(center)

	for i := range d.bindings {
		d.updateVertex(&d.bindings[i], lms)
	}
	d.mesh.Commit()
	return true
}

// updateScale follows the on-screen shoulder width.
func (d *Deformer) updateScale(lms []pose.Landmark) {
	w, ok := pose.ShoulderWidth(lms, d.cfg.MinVisibility)
	if !ok {
		return
	}

	target := w * d.width / d.cfg.ScaleBase
	if target < d.cfg.ScaleMin {
		target = d.cfg.ScaleMin
	}
	if target > d.cfg.ScaleMax {
		target = d.cfg.ScaleMax
	}

	if !d.hasScale {
		d.scale = target
		d.hasScale = true
	} else if abs(target-d.scale) >= scaleDeadZone {
		d.scale += (target - d.scale) * d.cfg.ContainerSmoothing
	}
	d.mesh.SetScale(d.scale)
}

// updatePosition follows the torso center, keeping the mesh centered on
// it.
func (d *Deformer) updatePosition(center mgl64.Vec2) {
	target := mgl64.Vec2{center.X() * d.width, center.Y() * d.height}

	if !d.hasPos {
		d.pos = target
		d.hasPos = true
	} else {
		delta := target.Sub(d.pos)
		if delta.Len() >= d.cfg.ContainerDeadZone {
			d.pos = d.pos.Add(delta.Mul(d.cfg.ContainerSmoothing))
		}
	}

	// The mesh local origin is its top-left corner; offset by half the
	// scaled extent so the anchor sits at the mesh center.
	d.mesh.SetPosition(
		d.pos.X()-d.meshHalfWidth()*d.scale,
		d.pos.Y()-d.meshHalfHeight()*d.scale,
	)
}

// updateVertex filters one binding. Bindings whose landmarks are not
// all visible keep their previous position.
func (d *Deformer) updateVertex(b *binding, lms []pose.Landmark) {
	var sum mgl64.Vec2
	for _, li := range b.landmarks {
		if li >= len(lms) || !lms[li].Visible(d.cfg.MinVisibility) {
			return
		}
		l := lms[li]
		sum = sum.Add(mgl64.Vec2{l.X * d.width, l.Y * d.height})
	}
	avg := sum.Mul(1 / float64(len(b.landmarks)))

	// Map the screen-space target into mesh local space, then blend
	// with the rest position by influence.
	px, py := d.mesh.Position()
	local := mgl64.Vec2{
		(avg.X() - px) / d.scale,
		(avg.Y() - py) / d.scale,
	}
	rest, err := d.mesh.RestVertex(b.vertex)
	if err != nil {
		return
	}
	restV := mgl64.Vec2{rest.X, rest.Y}
	target := restV.Add(local.Sub(restV).Mul(b.influence))

	if !b.has {
		b.last = target
		b.has = true
	} else {
		delta := target.Sub(b.last)
		if delta.Len()*d.scale < d.cfg.VertexDeadZone {
			return
		}
		b.last = b.last.Add(delta.Mul(d.cfg.VertexSmoothing))
	}
	d.mesh.SetVertex(b.vertex, b.last.X(), b.last.Y())
}

// Reset forgets all filter state and restores the rest grid.
func (d *Deformer) Reset() {
	for i := range d.bindings {
		d.bindings[i].has = false
	}
	d.hasPos = false
	d.hasScale = false
	d.scale = 1
	d.mesh.ResetVertices()
	d.mesh.Commit()
}

// Mesh returns the driven mesh.
func (d *Deformer) Mesh() *surface.Mesh { return d.mesh }

func (d *Deformer) meshHalfWidth() float64 {
	last, err := d.mesh.RestVertex(d.mesh.VertexCount() - 1)
	if err != nil {
		return 0
	}
	return last.X / 2
}

func (d *Deformer) meshHalfHeight() float64 {
	last, err := d.mesh.RestVertex(d.mesh.VertexCount() - 1)
	if err != nil {
		return 0
	}
	return last.Y / 2
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
