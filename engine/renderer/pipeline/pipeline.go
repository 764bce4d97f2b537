package pipeline

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
// It holds the render state that is turned into a GPU render pipeline by Build.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used as the GPU object label
	pipelineKey string
	shader      shader.Shader

	vertexLayouts     []wgpu.VertexBufferLayout
	uniformVisibility wgpu.ShaderStage

	// The following properties are toggled with the builder options.

	blendEnabled bool
	cullMode     wgpu.CullMode
	topology     wgpu.PrimitiveTopology
	frontFace    wgpu.FrontFace
	writeMask    wgpu.ColorWriteMask
	blendState   *wgpu.BlendState
}

// Pipeline describes a render pipeline: a validated shader plus the fixed-function state
// it is drawn with. The GPU object itself is produced per device and surface format by Build.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader returns the shader the pipeline draws with.
	Shader() shader.Shader

	// VertexLayouts returns the vertex buffer layouts consumed by the vertex stage.
	VertexLayouts() []wgpu.VertexBufferLayout

	// LayoutShapes derives one bind group layout shape per group declared by the shader.
	// Groups and the bindings inside each group must be numbered contiguously from zero.
	//
	// Returns:
	//   - []gpu.LayoutShape: the shapes indexed by group number
	//   - error: error if the declarations leave a gap
	LayoutShapes() ([]gpu.LayoutShape, error)

	// BlendEnabled returns whether blending is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if blending is enabled, false otherwise
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode for this pipeline (e.g., wgpu.CullModeNone, wgpu.CullModeBack)
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology for this pipeline (e.g., wgpu.PrimitiveTopologyTriangleList)
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order configured for this pipeline.
	//
	// Returns:
	//   - wgpu.FrontFace: the front face winding order for this pipeline (e.g., wgpu.FrontFaceCCW, wgpu.FrontFaceCW)
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask configured for this pipeline.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the color write mask for this pipeline (e.g., wgpu.ColorWriteMaskAll)
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state configured for this pipeline.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state for this pipeline, or nil if blending is not enabled
	BlendState() *wgpu.BlendState

	// Build creates the GPU render pipeline for a device and a color target format. Bind
	// group layouts come from the device's layout registry so pipelines with the same
	// parameter shape share them.
	//
	// Parameters:
	//   - dev: the device to create the pipeline on
	//   - format: the format of the color target the pipeline renders into
	//
	// Returns:
	//   - gpu.RenderPipeline: the created pipeline
	//   - error: error if any of the GPU objects could not be created
	Build(dev gpu.Device, format wgpu.TextureFormat) (gpu.RenderPipeline, error)
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a render pipeline description around a validated shader. The defaults
// draw a triangle list with back-face culling, counter-clockwise front faces and alpha
// blending over the standard vertex layout.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - s: the shader to draw with
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, s shader.Shader, opts ...PipelineBuilderOption) Pipeline {
	if s == nil {
		panic(fmt.Sprintf("pipeline: %s requires a shader", pipelineKey))
	}
	p := &pipeline{
		pipelineKey:       pipelineKey,
		shader:            s,
		vertexLayouts:     []wgpu.VertexBufferLayout{common.VertexLayout()},
		uniformVisibility: wgpu.ShaderStageVertex,
		blendEnabled:      true,
		cullMode:          wgpu.CullModeBack,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader() shader.Shader {
	return p.shader
}

func (p *pipeline) VertexLayouts() []wgpu.VertexBufferLayout {
	return p.vertexLayouts
}

func (p *pipeline) LayoutShapes() ([]gpu.LayoutShape, error) {
	bindings := make(map[int][]int)
	for _, decl := range p.shader.Declarations() {
		bindings[*decl.Group] = append(bindings[*decl.Group], *decl.Binding)
	}

	shapes := make([]gpu.LayoutShape, len(bindings))
	for group := range shapes {
		b, ok := bindings[group]
		if !ok {
			return nil, fmt.Errorf("pipeline %s: bind group %d is not declared", p.pipelineKey, group)
		}
		slices.Sort(b)
		for i, binding := range b {
			if binding != i {
				return nil, fmt.Errorf("pipeline %s: group %d skips binding %d", p.pipelineKey, group, i)
			}
		}
		shapes[group] = gpu.LayoutShape{
			Type:       wgpu.BufferBindingTypeUniform,
			Visibility: p.uniformVisibility,
			Bindings:   uint32(len(b)),
		}
	}
	return shapes, nil
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) Build(dev gpu.Device, format wgpu.TextureFormat) (gpu.RenderPipeline, error) {
	shapes, err := p.LayoutShapes()
	if err != nil {
		return nil, err
	}
	groupLayouts := make([]gpu.BindGroupLayout, len(shapes))
	for i, shape := range shapes {
		groupLayouts[i], err = dev.Layouts().Layout(shape)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: %w", p.pipelineKey, err)
		}
	}

	// the module and the layout are only needed while the pipeline is created
	module, err := dev.CreateShaderModule(p.shader.Descriptor())
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", p.pipelineKey, err)
	}
	defer module.Release()

	layout, err := dev.CreatePipelineLayout(&gpu.PipelineLayoutDescriptor{
		Label:            p.pipelineKey + " Pipeline Layout",
		BindGroupLayouts: groupLayouts,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", p.pipelineKey, err)
	}
	defer layout.Release()

	target := wgpu.ColorTargetState{
		Format:    format,
		WriteMask: p.writeMask,
	}
	if p.blendEnabled {
		target.Blend = p.blendState
	}

	created, err := dev.CreateRenderPipeline(&gpu.RenderPipelineDescriptor{
		Label:              p.pipelineKey,
		Layout:             layout,
		Module:             module,
		VertexEntryPoint:   p.shader.VertexEntryPoint(),
		FragmentEntryPoint: p.shader.FragmentEntryPoint(),
		VertexBuffers:      p.vertexLayouts,
		Primitive: wgpu.PrimitiveState{
			Topology:  p.topology,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		Targets: []wgpu.ColorTargetState{target},
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", p.pipelineKey, err)
	}
	return created, nil
}
