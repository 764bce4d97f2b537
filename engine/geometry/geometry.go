// Package geometry describes mesh shapes on the CPU and uploads them as vertex and index buffers.
package geometry

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrEmptyGeometry is returned when deriving buffers from a geometry with no vertices.
	ErrEmptyGeometry = errors.New("geometry has no vertices")

	// ErrIndexOutOfRange is returned when an index refers past the end of the vertex list.
	ErrIndexOutOfRange = errors.New("geometry index out of range")
)

// Geometry is an immutable vertex list with an optional index list.
// Construct it with NewGeometry or one of the primitive constructors; it is never modified afterwards.
type Geometry struct {
	label    string
	vertices []common.Vertex
	indices  []common.VertexIndex
}

// Data is the device-resident form of a Geometry.
// IndexBuffer is nil when the geometry is not indexed.
type Data struct {
	VertexBuffer gpu.Buffer
	VertexCount  uint32
	IndexBuffer  gpu.Buffer
	IndexCount   uint32
}

// Indexed reports whether the data is drawn with an index buffer.
func (d *Data) Indexed() bool {
	return d.IndexBuffer != nil
}

// Release frees the buffers.
func (d *Data) Release() {
	d.VertexBuffer.Release()
	if d.IndexBuffer != nil {
		d.IndexBuffer.Release()
	}
}

// NewGeometry copies the given vertices and indices into a new Geometry.
// A nil or empty index slice produces a non-indexed geometry.
//
// Parameters:
//   - label: debug label used for the derived buffers
//   - vertices: the vertex list
//   - indices: optional triangle-list indices into vertices
//
// Returns:
//   - *Geometry: the immutable geometry
func NewGeometry(label string, vertices []common.Vertex, indices []common.VertexIndex) *Geometry {
	g := &Geometry{
		label:    label,
		vertices: append([]common.Vertex(nil), vertices...),
	}
	if len(indices) > 0 {
		g.indices = append([]common.VertexIndex(nil), indices...)
	}
	return g
}

// Plane creates a w by h rectangle centered on the origin in the XY plane, facing +Z.
//
// Parameters:
//   - w: width along X
//   - h: height along Y
//
// Returns:
//   - *Geometry: four vertices drawn as two indexed triangles
func Plane(w, h float32) *Geometry {
	x, y := w*0.5, h*0.5
	n := [3]float32{0, 0, 1}
	return &Geometry{
		label: fmt.Sprintf("Plane %gx%g", w, h),
		vertices: []common.Vertex{
			common.NewVertex([3]float32{-x, -y, 0}, n),
			common.NewVertex([3]float32{x, -y, 0}, n),
			common.NewVertex([3]float32{x, y, 0}, n),
			common.NewVertex([3]float32{-x, y, 0}, n),
		},
		indices: []common.VertexIndex{
			0, 1, 2,
			0, 2, 3,
		},
	}
}

// Triangle creates an equilateral triangle with the given circumradius, centered on the origin
// and facing +Z. It is not indexed.
func Triangle(radius float32) *Geometry {
	corners := RegularPolygon(radius, 3).vertices[1:]
	return &Geometry{
		label:    fmt.Sprintf("Triangle %g", radius),
		vertices: append([]common.Vertex(nil), corners...),
	}
}

// RegularPolygon creates a regular polygon in the XY plane, facing +Z, as an indexed
// triangle fan around a center vertex. The first corner points along +Y.
//
// Parameters:
//   - radius: distance from the center to every corner
//   - sides: number of corners; values below 3 are raised to 3
//
// Returns:
//   - *Geometry: sides+1 vertices and sides*3 indices
func RegularPolygon(radius float32, sides int) *Geometry {
	sides = max(sides, 3)
	n := [3]float32{0, 0, 1}
	vertices := make([]common.Vertex, 0, sides+1)
	vertices = append(vertices, common.NewVertex([3]float32{}, n))
	step := 2 * math32.Pi / float32(sides)
	for i := range sides {
		sin, cos := math32.Sincos(float32(i) * step)
		vertices = append(vertices, common.NewVertex([3]float32{-sin * radius, cos * radius, 0}, n))
	}

	indices := make([]common.VertexIndex, 0, sides*3)
	for i := range sides {
		next := (i+1)%sides + 1
		indices = append(indices, 0, common.VertexIndex(i+1), common.VertexIndex(next))
	}
	return &Geometry{
		label:    fmt.Sprintf("Polygon %d", sides),
		vertices: vertices,
		indices:  indices,
	}
}

// Label returns the debug label.
func (g *Geometry) Label() string {
	return g.label
}

// Vertices returns a copy of the vertex list.
func (g *Geometry) Vertices() []common.Vertex {
	return append([]common.Vertex(nil), g.vertices...)
}

// Indices returns a copy of the index list, or nil for a non-indexed geometry.
func (g *Geometry) Indices() []common.VertexIndex {
	if g.indices == nil {
		return nil
	}
	return append([]common.VertexIndex(nil), g.indices...)
}

// Validate checks the geometry can be uploaded.
//
// Returns:
//   - error: ErrEmptyGeometry or ErrIndexOutOfRange, wrapped with detail
func (g *Geometry) Validate() error {
	if len(g.vertices) == 0 {
		return fmt.Errorf("%q: %w", g.label, ErrEmptyGeometry)
	}
	for i, idx := range g.indices {
		if int(idx) >= len(g.vertices) {
			return fmt.Errorf("%q: index %d at position %d, %d vertices: %w", g.label, idx, i, len(g.vertices), ErrIndexOutOfRange)
		}
	}
	return nil
}

// ToGPU uploads the geometry into a vertex buffer and, when indexed, an index buffer.
// It matches gpu.DeriveFunc; the format is unused.
//
// Parameters:
//   - dev: the device to allocate on
//
// Returns:
//   - *Data: the uploaded buffers
//   - error: validation or device error; no buffer is leaked on failure
func (g *Geometry) ToGPU(dev gpu.Device, _ wgpu.TextureFormat) (*Data, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	vb, err := dev.CreateBuffer(&gpu.BufferDescriptor{
		Label:    g.label + " Vertex Buffer",
		Usage:    wgpu.BufferUsageVertex,
		Contents: common.MarshalVertices(g.vertices),
	})
	if err != nil {
		return nil, fmt.Errorf("geometry %q: %w", g.label, err)
	}
	data := &Data{
		VertexBuffer: vb,
		VertexCount:  uint32(len(g.vertices)),
	}
	if g.indices == nil {
		return data, nil
	}

	ib, err := dev.CreateBuffer(&gpu.BufferDescriptor{
		Label:    g.label + " Index Buffer",
		Usage:    wgpu.BufferUsageIndex,
		Contents: common.MarshalIndices(g.indices),
	})
	if err != nil {
		vb.Release()
		return nil, fmt.Errorf("geometry %q: %w", g.label, err)
	}
	data.IndexBuffer = ib
	data.IndexCount = uint32(len(g.indices))
	return data, nil
}
