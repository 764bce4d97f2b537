package material

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed assets/basic_mesh.wgsl
var basicMeshSource string

//go:embed assets/normal_mesh.wgsl
var normalMeshSource string

// The embedded programs are validated once per process and shared by every material of a kind.
var (
	basicShader  = sync.OnceValues(func() (shader.Shader, error) { return shader.NewShader("Basic Mesh Shader", basicMeshSource) })
	normalShader = sync.OnceValues(func() (shader.Shader, error) { return shader.NewShader("Normal Mesh Shader", normalMeshSource) })
)

// material is the implementation of the Material interface.
type material struct {
	name         string
	params       []byte
	pipeline     pipeline.Pipeline
	pipelineOpts []pipeline.PipelineBuilderOption
}

// Material is the CPU description of how a surface is shaded: a render pipeline and one
// uniform parameter block. Its GPU artifact is produced by Derive.
type Material interface {
	// Name retrieves the material identifier, used as the label of its GPU objects.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Pipeline returns the render pipeline description the material draws with.
	Pipeline() pipeline.Pipeline

	// Params returns the encoded uniform parameter block.
	Params() []byte

	// RenderPipeline creates the material's render pipeline for a device and color format.
	//
	// Parameters:
	//   - dev: the device to create the pipeline on
	//   - format: the color target format
	//
	// Returns:
	//   - gpu.RenderPipeline: the created pipeline
	//   - error: error if the device rejects any part of the pipeline
	RenderPipeline(dev gpu.Device, format wgpu.TextureFormat) (gpu.RenderPipeline, error)

	// BufferBindGroup uploads the parameter block into a uniform buffer and binds it at
	// group 0 binding 0 using the layout shared through the device's registry.
	//
	// Parameters:
	//   - dev: the device to create the buffer and bind group on
	//
	// Returns:
	//   - gpu.Buffer: the uniform buffer
	//   - gpu.BindGroup: the bind group referencing the buffer
	//   - error: error if the device rejects the buffer, layout or bind group
	BufferBindGroup(dev gpu.Device) (gpu.Buffer, gpu.BindGroup, error)
}

var _ Material = &material{}

// BasicMaterial creates a material that paints every fragment with one straight-alpha color.
//
// Parameters:
//   - color: the fragment color
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func BasicMaterial(color common.Rgba, options ...MaterialBuilderOption) Material {
	params := GPUBasicParams{Color: color.Float32s()}
	return newMaterial("Basic Material", basicShader, params.Marshal(), options)
}

// NormalMaterial creates a material that colors fragments by their surface normal, remapping
// each normal component from [-1, 1] to a [0, 1] color channel.
//
// Parameters:
//   - opacity: the alpha of every fragment, clamped to [0, 1]
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NormalMaterial(opacity float64, options ...MaterialBuilderOption) Material {
	params := GPUNormalParams{Opacity: float32(common.Clamp01(opacity))}
	return newMaterial("Normal Material", normalShader, params.Marshal(), options)
}

func newMaterial(name string, program func() (shader.Shader, error), params []byte, options []MaterialBuilderOption) *material {
	s, err := program()
	if err != nil {
		panic(fmt.Sprintf("material: embedded shader for %s is invalid: %v", name, err))
	}

	m := &material{
		name:   name,
		params: params,
	}
	for _, opt := range options {
		opt(m)
	}
	m.pipeline = pipeline.NewPipeline(m.name, s, m.pipelineOpts...)
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Pipeline() pipeline.Pipeline {
	return m.pipeline
}

func (m *material) Params() []byte {
	return m.params
}

func (m *material) RenderPipeline(dev gpu.Device, format wgpu.TextureFormat) (gpu.RenderPipeline, error) {
	return m.pipeline.Build(dev, format)
}

func (m *material) BufferBindGroup(dev gpu.Device) (gpu.Buffer, gpu.BindGroup, error) {
	shapes, err := m.pipeline.LayoutShapes()
	if err != nil {
		return nil, nil, err
	}
	if len(shapes) == 0 {
		return nil, nil, fmt.Errorf("material %s: shader declares no parameter group", m.name)
	}
	layout, err := dev.Layouts().Layout(shapes[0])
	if err != nil {
		return nil, nil, fmt.Errorf("material %s: %w", m.name, err)
	}

	buf, err := dev.CreateBuffer(&gpu.BufferDescriptor{
		Label:    m.name + " Params",
		Usage:    wgpu.BufferUsageUniform,
		Contents: m.params,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("material %s: %w", m.name, err)
	}

	group, err := dev.CreateBindGroup(&gpu.BindGroupDescriptor{
		Label:   m.name + " Bind Group",
		Layout:  layout,
		Entries: []gpu.BindGroupEntry{{Binding: 0, Buffer: buf}},
	})
	if err != nil {
		buf.Release()
		return nil, nil, fmt.Errorf("material %s: %w", m.name, err)
	}
	return buf, group, nil
}

// Data is the GPU artifact of a material.
type Data struct {
	Pipeline  gpu.RenderPipeline
	Buffer    gpu.Buffer
	BindGroup gpu.BindGroup
}

// Release frees every GPU object held by the artifact.
func (d *Data) Release() {
	d.BindGroup.Release()
	d.Buffer.Release()
	d.Pipeline.Release()
}

// Derive produces the GPU artifact of m. Partially created objects are released when a
// later step fails.
//
// Parameters:
//   - m: the material to derive
//   - dev: the device to create the objects on
//   - format: the color target format
//
// Returns:
//   - *Data: the pipeline, uniform buffer and bind group
//   - error: the first device error
func Derive(m Material, dev gpu.Device, format wgpu.TextureFormat) (*Data, error) {
	rp, err := m.RenderPipeline(dev, format)
	if err != nil {
		return nil, err
	}
	buf, group, err := m.BufferBindGroup(dev)
	if err != nil {
		rp.Release()
		return nil, err
	}
	return &Data{
		Pipeline:  rp,
		Buffer:    buf,
		BindGroup: group,
	}, nil
}
