package mesh

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/geometry"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
)

// Drawable is anything the scene can draw: it yields a geometry artifact and a material
// artifact for a device and color format, deriving them on first use.
type Drawable interface {
	// GPUArtifacts returns the geometry and material artifacts, deriving each one at most once.
	//
	// Parameters:
	//   - dev: the device the artifacts live on
	//   - format: the color target format the pipeline renders into
	//
	// Returns:
	//   - *geometry.Data: vertex and optional index buffers
	//   - *material.Data: pipeline, uniform buffer and bind group
	//   - error: the derivation error of whichever artifact failed first
	GPUArtifacts(dev gpu.Device, format wgpu.TextureFormat) (*geometry.Data, *material.Data, error)
}

var _ Drawable = &Mesh{}

// Mesh pairs a geometry with a material. Each side has its own cache, so a material
// failure does not throw away an already uploaded geometry.
type Mesh struct {
	geometry *geometry.Geometry
	material material.Material

	geometryData *gpu.Cached[geometry.Data]
	materialData *gpu.Cached[material.Data]
}

// NewMesh creates a mesh drawing g with m. Nothing is allocated on a device until the mesh
// is first drawn or prepared.
//
// Parameters:
//   - g: the geometry
//   - m: the material
//
// Returns:
//   - *Mesh: the mesh
func NewMesh(g *geometry.Geometry, m material.Material) *Mesh {
	if g == nil || m == nil {
		panic("mesh: NewMesh requires a geometry and a material")
	}
	return &Mesh{
		geometry:     g,
		material:     m,
		geometryData: gpu.NewCached[geometry.Data](g.ToGPU),
		materialData: gpu.NewCached[material.Data](func(dev gpu.Device, format wgpu.TextureFormat) (*material.Data, error) {
			return material.Derive(m, dev, format)
		}),
	}
}

// Geometry returns the mesh geometry.
func (m *Mesh) Geometry() *geometry.Geometry {
	return m.geometry
}

// Material returns the mesh material.
func (m *Mesh) Material() material.Material {
	return m.material
}

// Realized reports whether both artifacts exist.
func (m *Mesh) Realized() bool {
	return m.geometryData.Realized() && m.materialData.Realized()
}

func (m *Mesh) GPUArtifacts(dev gpu.Device, format wgpu.TextureFormat) (*geometry.Data, *material.Data, error) {
	geo, err := m.geometryData.Realize(dev, format)
	if err != nil {
		return nil, nil, fmt.Errorf("mesh geometry %s: %w", m.geometry.Label(), err)
	}
	mat, err := m.materialData.Realize(dev, format)
	if err != nil {
		return nil, nil, fmt.Errorf("mesh material %s: %w", m.material.Name(), err)
	}
	return geo, mat, nil
}

// Release frees whichever artifacts were derived. The mesh must not be drawn afterwards.
func (m *Mesh) Release() {
	if geo := m.geometryData.Peek(); geo != nil {
		geo.Release()
	}
	if mat := m.materialData.Peek(); mat != nil {
		mat.Release()
	}
}
