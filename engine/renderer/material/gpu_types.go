package material

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUBasicParams is the uniform block of BasicMaterial.
// Matches the WGSL BasicParams struct layout exactly.
// Size: 16 bytes (one vec4<f32>).
type GPUBasicParams struct {
	Color [4]float32 // offset 0: straight (non-premultiplied) RGBA written to every fragment
}

// Size returns the size of the GPUBasicParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUBasicParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUBasicParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload.
func (g *GPUBasicParams) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Color[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Color[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Color[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Color[3]))
	return buf
}

// GPUNormalParams is the uniform block of NormalMaterial.
// Matches the WGSL NormalParams struct layout exactly.
// Size: 16 bytes (opacity plus padding to the uniform alignment).
type GPUNormalParams struct {
	Opacity float32    // offset 0: alpha of every fragment
	_       [3]float32 // offset 4: padding (12 bytes)
}

// Size returns the size of the GPUNormalParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUNormalParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUNormalParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload, padding zeroed.
func (g *GPUNormalParams) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Opacity))
	return buf
}
