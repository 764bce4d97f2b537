package common

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
)

// VertexSize is the byte stride of one Vertex in a vertex buffer.
const VertexSize = 24

// VertexIndex is the element type of index buffers (wgpu.IndexFormatUint32).
type VertexIndex = uint32

// Vertex is a single mesh vertex. Matches the WGSL vertex input
//
//	@location(0) position: vec3<f32>,
//	@location(1) normal: vec3<f32>,
//
// with no padding between fields.
type Vertex struct {
	Position [3]float32 // offset  0
	Normal   [3]float32 // offset 12
}

// NewVertex creates a Vertex from a position and a normal.
func NewVertex(position, normal [3]float32) Vertex {
	return Vertex{Position: position, Normal: normal}
}

// VertexLayout returns the vertex buffer layout describing Vertex to a render pipeline.
//
// Returns:
//   - wgpu.VertexBufferLayout: per-vertex layout with two float32x3 attributes
func VertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: VertexSize,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		},
	}
}

// Marshal serializes the vertex into a little-endian 24-byte buffer suitable for GPU upload.
func (v Vertex) Marshal() []byte {
	buf := make([]byte, VertexSize)
	v.put(buf)
	return buf
}

func (v Vertex) put(buf []byte) {
	for i, f := range v.Position {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	for i, f := range v.Normal {
		binary.LittleEndian.PutUint32(buf[12+i*4:], math.Float32bits(f))
	}
}

// MarshalVertices serializes a vertex slice into one contiguous buffer.
//
// Parameters:
//   - vertices: the vertices to encode
//
// Returns:
//   - []byte: len(vertices)*VertexSize bytes
func MarshalVertices(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*VertexSize)
	for i, v := range vertices {
		v.put(buf[i*VertexSize:])
	}
	return buf
}

// MarshalIndices serializes an index slice as little-endian uint32 values.
//
// Parameters:
//   - indices: the indices to encode
//
// Returns:
//   - []byte: len(indices)*4 bytes
func MarshalIndices(indices []VertexIndex) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

// MarshalFloat32s serializes a float32 slice as little-endian values.
// Used for uniform parameter blocks.
func MarshalFloat32s(values ...float32) []byte {
	buf := make([]byte, len(values)*4)
	for i, f := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
