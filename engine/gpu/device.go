// Package gpu is the boundary between the scene layer and the graphics device.
// Everything above this package talks to Device, CommandRecorder and RenderPass;
// the wgpu-backed implementation lives in wgpu_device.go.
package gpu

import "github.com/cogentcore/webgpu/wgpu"

// Resource is a device-resident object.
type Resource interface {
	// Label returns the debug label the resource was created with.
	Label() string

	// Release frees the underlying device object.
	Release()
}

// Buffer is a device buffer (vertex, index or uniform data).
type Buffer interface {
	Resource

	// Size returns the buffer size in bytes.
	Size() uint64
}

// ShaderModule is a compiled shader program.
type ShaderModule interface{ Resource }

// BindGroupLayout describes the shape of a bind group.
type BindGroupLayout interface{ Resource }

// PipelineLayout lists the bind group layouts a pipeline consumes.
type PipelineLayout interface{ Resource }

// RenderPipeline is a complete render pipeline state object.
type RenderPipeline interface{ Resource }

// BindGroup binds concrete resources to a BindGroupLayout.
type BindGroup interface{ Resource }

// TextureView is a render target view, typically the current surface image.
type TextureView interface{ Resource }

// BufferDescriptor describes a buffer created and filled in one step.
type BufferDescriptor struct {
	Label    string
	Usage    wgpu.BufferUsage
	Contents []byte
}

// ShaderModuleDescriptor describes a WGSL shader module.
type ShaderModuleDescriptor struct {
	Label string
	WGSL  string
}

// BindGroupLayoutDescriptor describes a bind group layout.
type BindGroupLayoutDescriptor struct {
	Label   string
	Entries []wgpu.BindGroupLayoutEntry
}

// PipelineLayoutDescriptor describes a pipeline layout.
type PipelineLayoutDescriptor struct {
	Label            string
	BindGroupLayouts []BindGroupLayout
}

// RenderPipelineDescriptor describes a single-target render pipeline with no depth attachment.
type RenderPipelineDescriptor struct {
	Label              string
	Layout             PipelineLayout
	Module             ShaderModule
	VertexEntryPoint   string
	FragmentEntryPoint string
	VertexBuffers      []wgpu.VertexBufferLayout
	Primitive          wgpu.PrimitiveState
	Targets            []wgpu.ColorTargetState
}

// BindGroupEntry binds a whole buffer to a binding slot.
type BindGroupEntry struct {
	Binding uint32
	Buffer  Buffer
}

// BindGroupDescriptor describes a bind group.
type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

// RenderPassDescriptor describes a render pass that clears a single color target.
type RenderPassDescriptor struct {
	Label      string
	View       TextureView
	ClearColor wgpu.Color
}

// Device creates device resources and submits recorded work.
// Every Create call is synchronous: it returns the created resource or the device's rejection.
type Device interface {
	// ID returns a process-unique identifier for this device connection.
	ID() uint64

	// Layouts returns the bind group layout registry owned by this device.
	Layouts() *LayoutRegistry

	// CreateBuffer allocates a buffer and uploads desc.Contents into it.
	//
	// Parameters:
	//   - desc: the buffer description
	//
	// Returns:
	//   - Buffer: the created buffer
	//   - error: error if the device rejects the description
	CreateBuffer(desc *BufferDescriptor) (Buffer, error)

	// CreateShaderModule compiles a WGSL program.
	CreateShaderModule(desc *ShaderModuleDescriptor) (ShaderModule, error)

	// CreateBindGroupLayout creates a bind group layout. Callers normally go through Layouts().
	CreateBindGroupLayout(desc *BindGroupLayoutDescriptor) (BindGroupLayout, error)

	// CreatePipelineLayout creates a pipeline layout.
	CreatePipelineLayout(desc *PipelineLayoutDescriptor) (PipelineLayout, error)

	// CreateRenderPipeline creates a render pipeline.
	CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipeline, error)

	// CreateBindGroup creates a bind group.
	CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error)

	// CreateCommandRecorder opens a new command recording context.
	//
	// Parameters:
	//   - label: debug label for the recorded command buffer
	//
	// Returns:
	//   - CommandRecorder: the recording context
	//   - error: error if the device cannot create an encoder
	CreateCommandRecorder(label string) (CommandRecorder, error)

	// Submit finishes the recorder and submits its commands to the queue.
	// The recorder must not be used afterwards.
	Submit(rec CommandRecorder) error
}

// CommandRecorder records render passes for one submission.
type CommandRecorder interface {
	// BeginRenderPass opens a render pass that clears its target.
	//
	// Parameters:
	//   - desc: the pass description
	//
	// Returns:
	//   - RenderPass: the open pass; End must be called before Submit
	//   - error: error if the pass cannot be opened
	BeginRenderPass(desc *RenderPassDescriptor) (RenderPass, error)

	// Release discards the recorder without submitting it.
	Release()
}

// RenderPass records draw commands into an open pass.
type RenderPass interface {
	SetPipeline(p RenderPipeline)
	SetBindGroup(index uint32, g BindGroup)
	SetVertexBuffer(slot uint32, b Buffer)
	SetIndexBuffer(b Buffer, format wgpu.IndexFormat)

	// Draw issues a non-indexed draw.
	Draw(vertexCount, instanceCount uint32)

	// DrawIndexed issues an indexed draw using the bound index buffer.
	DrawIndexed(indexCount, instanceCount uint32)

	// End closes the pass.
	End() error
}
