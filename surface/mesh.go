package surface

import (
	"errors"
	"fmt"
	"image"
)

// Mesh errors.
var (
	// ErrVertexRange is returned for out-of-range vertex indices.
	ErrVertexRange = errors.New("surface: vertex index out of range")
)

// Vertex is a mesh vertex position in the mesh's local space.
type Vertex struct {
	X, Y float64
}

// Mesh is a deformable textured grid.
//
// A mesh is created with a rest grid of (cols+1)×(rows+1) vertices
// covering a local width×height rectangle. Texture coordinates are fixed
// at creation from the rest grid; deforming a vertex moves where that
// part of the texture is drawn, not which part is sampled.
//
// Deformation is double-buffered: SetVertex writes into a working buffer
// and Commit publishes it for drawing. Draw calls between two commits see
// a consistent vertex set, matching the explicit buffer-update call GPU
// mesh primitives expose.
type Mesh struct {
	cols, rows    int
	width, height float64
	tex           *image.RGBA

	rest      []Vertex // creation-time grid, local space
	working   []Vertex // mutated via SetVertex
	committed []Vertex // published via Commit, read by DrawMesh

	posX, posY float64
	scale      float64
}

// NewMesh creates a cols×rows cell grid covering a width×height local
// rectangle, textured with tex. Cell counts below 1 are raised to 1.
func NewMesh(tex *image.RGBA, cols, rows int, width, height float64) *Mesh {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	n := (cols + 1) * (rows + 1)
	m := &Mesh{
		cols:      cols,
		rows:      rows,
		width:     width,
		height:    height,
		tex:       tex,
		rest:      make([]Vertex, n),
		working:   make([]Vertex, n),
		committed: make([]Vertex, n),
		scale:     1,
	}

	for r := 0; r <= rows; r++ {
		for c := 0; c <= cols; c++ {
			v := Vertex{
				X: float64(c) / float64(cols) * width,
				Y: float64(r) / float64(rows) * height,
			}
			i := r*(cols+1) + c
			m.rest[i] = v
			m.working[i] = v
			m.committed[i] = v
		}
	}
	return m
}

// Cols returns the number of cell columns.
func (m *Mesh) Cols() int { return m.cols }

// Rows returns the number of cell rows.
func (m *Mesh) Rows() int { return m.rows }

// VertexCount returns the number of vertices, (cols+1)*(rows+1).
func (m *Mesh) VertexCount() int { return len(m.working) }

// Texture returns the mesh texture.
func (m *Mesh) Texture() *image.RGBA { return m.tex }

// SetTexture replaces the mesh texture. Texture coordinates are
// unaffected; the new image is stretched over the same rest grid.
func (m *Mesh) SetTexture(tex *image.RGBA) { m.tex = tex }

// Vertex returns the working position of vertex i.
func (m *Mesh) Vertex(i int) (Vertex, error) {
	if i < 0 || i >= len(m.working) {
		return Vertex{}, fmt.Errorf("%w: %d of %d", ErrVertexRange, i, len(m.working))
	}
	return m.working[i], nil
}

// RestVertex returns the rest-grid position of vertex i.
func (m *Mesh) RestVertex(i int) (Vertex, error) {
	if i < 0 || i >= len(m.rest) {
		return Vertex{}, fmt.Errorf("%w: %d of %d", ErrVertexRange, i, len(m.rest))
	}
	return m.rest[i], nil
}

// SetVertex moves vertex i to (x, y) in local space. The change is not
// visible to drawing until Commit.
func (m *Mesh) SetVertex(i int, x, y float64) error {
	if i < 0 || i >= len(m.working) {
		return fmt.Errorf("%w: %d of %d", ErrVertexRange, i, len(m.working))
	}
	m.working[i] = Vertex{X: x, Y: y}
	return nil
}

// ResetVertices restores the working buffer to the rest grid.
func (m *Mesh) ResetVertices() {
	copy(m.working, m.rest)
}

// Commit publishes the working vertex buffer for drawing.
func (m *Mesh) Commit() {
	copy(m.committed, m.working)
}

// SetPosition moves the mesh container so its local origin maps to
// (x, y) on the surface.
func (m *Mesh) SetPosition(x, y float64) {
	m.posX, m.posY = x, y
}

// Position returns the container position.
func (m *Mesh) Position() (x, y float64) { return m.posX, m.posY }

// SetScale sets the uniform container scale. Non-positive values are
// ignored.
func (m *Mesh) SetScale(s float64) {
	if s > 0 {
		m.scale = s
	}
}

// Scale returns the container scale.
func (m *Mesh) Scale() float64 { return m.scale }

// uv returns the fixed texture coordinate of vertex i in [0,1].
func (m *Mesh) uv(i int) (u, v float64) {
	r := m.rest[i]
	if m.width > 0 {
		u = r.X / m.width
	}
	if m.height > 0 {
		v = r.Y / m.height
	}
	return u, v
}

// world maps a committed vertex through the container transform.
func (m *Mesh) world(i int) (x, y float64) {
	c := m.committed[i]
	return m.posX + c.X*m.scale, m.posY + c.Y*m.scale
}
