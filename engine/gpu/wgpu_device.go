package gpu

import (
	"fmt"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
)

// deviceSeq issues process-unique device IDs.
var deviceSeq atomic.Uint64

// wgpuDevice implements Device on top of a wgpu device and its queue.
type wgpuDevice struct {
	id      uint64
	device  *wgpu.Device
	queue   *wgpu.Queue
	layouts *LayoutRegistry
}

var _ Device = &wgpuDevice{}

// NewWGPUDevice wraps a wgpu device and queue.
// Panics if either is nil.
//
// Parameters:
//   - device: the wgpu device
//   - queue: the device's queue
//
// Returns:
//   - Device: the device boundary backed by wgpu
func NewWGPUDevice(device *wgpu.Device, queue *wgpu.Queue) Device {
	if device == nil || queue == nil {
		panic("gpu: NewWGPUDevice requires a device and a queue")
	}
	d := &wgpuDevice{
		id:     deviceSeq.Add(1),
		device: device,
		queue:  queue,
	}
	d.layouts = NewLayoutRegistry(d)
	return d
}

func (d *wgpuDevice) ID() uint64 {
	return d.id
}

func (d *wgpuDevice) Layouts() *LayoutRegistry {
	return d.layouts
}

// CreateBuffer pads the contents to the 4-byte copy alignment wgpu requires for queue writes.
func (d *wgpuDevice) CreateBuffer(desc *BufferDescriptor) (Buffer, error) {
	size := (uint64(len(desc.Contents)) + 3) &^ 3
	if size == 0 {
		size = 4
	}
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            desc.Label,
		Size:             size,
		Usage:            desc.Usage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %q: %w", desc.Label, err)
	}
	if len(desc.Contents) > 0 {
		data := desc.Contents
		if uint64(len(data)) != size {
			data = make([]byte, size)
			copy(data, desc.Contents)
		}
		d.queue.WriteBuffer(buf, 0, data)
	}
	return &wgpuBuffer{label: desc.Label, buffer: buf, size: size}, nil
}

func (d *wgpuDevice) CreateShaderModule(desc *ShaderModuleDescriptor) (ShaderModule, error) {
	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.WGSL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module %q: %w", desc.Label, err)
	}
	return &wgpuShaderModule{label: desc.Label, module: module}, nil
}

func (d *wgpuDevice) CreateBindGroupLayout(desc *BindGroupLayoutDescriptor) (BindGroupLayout, error) {
	layout, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: desc.Entries,
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group layout %q: %w", desc.Label, err)
	}
	return &wgpuBindGroupLayout{label: desc.Label, layout: layout}, nil
}

func (d *wgpuDevice) CreatePipelineLayout(desc *PipelineLayoutDescriptor) (PipelineLayout, error) {
	layouts := make([]*wgpu.BindGroupLayout, len(desc.BindGroupLayouts))
	for i, l := range desc.BindGroupLayouts {
		layouts[i] = l.(*wgpuBindGroupLayout).layout
	}
	layout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout %q: %w", desc.Label, err)
	}
	return &wgpuPipelineLayout{label: desc.Label, layout: layout}, nil
}

func (d *wgpuDevice) CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipeline, error) {
	module := desc.Module.(*wgpuShaderModule).module
	created, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: desc.Layout.(*wgpuPipelineLayout).layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: desc.VertexEntryPoint,
			Buffers:    desc.VertexBuffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: desc.FragmentEntryPoint,
			Targets:    desc.Targets,
		},
		Primitive: desc.Primitive,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create render pipeline %q: %w", desc.Label, err)
	}
	return &wgpuRenderPipeline{label: desc.Label, pipeline: created}, nil
}

func (d *wgpuDevice) CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error) {
	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entries[i] = wgpu.BindGroupEntry{
			Binding: e.Binding,
			Buffer:  e.Buffer.(*wgpuBuffer).buffer,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}
	}
	group, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  desc.Layout.(*wgpuBindGroupLayout).layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group %q: %w", desc.Label, err)
	}
	return &wgpuBindGroup{label: desc.Label, group: group}, nil
}

func (d *wgpuDevice) CreateCommandRecorder(label string) (CommandRecorder, error) {
	encoder, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	return &wgpuCommandRecorder{encoder: encoder}, nil
}

func (d *wgpuDevice) Submit(rec CommandRecorder) error {
	r := rec.(*wgpuCommandRecorder)
	defer r.Release()

	commandBuffer, err := r.encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish command encoder: %w", err)
	}
	d.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

type wgpuBuffer struct {
	label  string
	buffer *wgpu.Buffer
	size   uint64
}

func (b *wgpuBuffer) Label() string { return b.label }
func (b *wgpuBuffer) Size() uint64  { return b.size }
func (b *wgpuBuffer) Release()      { b.buffer.Release() }

type wgpuShaderModule struct {
	label  string
	module *wgpu.ShaderModule
}

func (m *wgpuShaderModule) Label() string { return m.label }
func (m *wgpuShaderModule) Release()      { m.module.Release() }

type wgpuBindGroupLayout struct {
	label  string
	layout *wgpu.BindGroupLayout
}

func (l *wgpuBindGroupLayout) Label() string { return l.label }
func (l *wgpuBindGroupLayout) Release()      { l.layout.Release() }

type wgpuPipelineLayout struct {
	label  string
	layout *wgpu.PipelineLayout
}

func (l *wgpuPipelineLayout) Label() string { return l.label }
func (l *wgpuPipelineLayout) Release()      { l.layout.Release() }

type wgpuRenderPipeline struct {
	label    string
	pipeline *wgpu.RenderPipeline
}

func (p *wgpuRenderPipeline) Label() string { return p.label }
func (p *wgpuRenderPipeline) Release()      { p.pipeline.Release() }

type wgpuBindGroup struct {
	label string
	group *wgpu.BindGroup
}

func (g *wgpuBindGroup) Label() string { return g.label }
func (g *wgpuBindGroup) Release()      { g.group.Release() }

type wgpuTextureView struct {
	label string
	view  *wgpu.TextureView
}

// NewWGPUTextureView wraps a wgpu texture view so it can be used as a render target.
func NewWGPUTextureView(label string, view *wgpu.TextureView) TextureView {
	return &wgpuTextureView{label: label, view: view}
}

func (v *wgpuTextureView) Label() string { return v.label }
func (v *wgpuTextureView) Release()      { v.view.Release() }

type wgpuCommandRecorder struct {
	encoder *wgpu.CommandEncoder
}

func (r *wgpuCommandRecorder) BeginRenderPass(desc *RenderPassDescriptor) (RenderPass, error) {
	view, ok := desc.View.(*wgpuTextureView)
	if !ok || view.view == nil {
		return nil, fmt.Errorf("render pass %q has no wgpu target view", desc.Label)
	}
	pass := r.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view.view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: desc.ClearColor,
			},
		},
	})
	return &wgpuRenderPass{pass: pass}, nil
}

func (r *wgpuCommandRecorder) Release() {
	if r.encoder != nil {
		r.encoder.Release()
		r.encoder = nil
	}
}

type wgpuRenderPass struct {
	pass *wgpu.RenderPassEncoder
}

func (p *wgpuRenderPass) SetPipeline(rp RenderPipeline) {
	p.pass.SetPipeline(rp.(*wgpuRenderPipeline).pipeline)
}

func (p *wgpuRenderPass) SetBindGroup(index uint32, g BindGroup) {
	p.pass.SetBindGroup(index, g.(*wgpuBindGroup).group, nil)
}

func (p *wgpuRenderPass) SetVertexBuffer(slot uint32, b Buffer) {
	p.pass.SetVertexBuffer(slot, b.(*wgpuBuffer).buffer, 0, wgpu.WholeSize)
}

func (p *wgpuRenderPass) SetIndexBuffer(b Buffer, format wgpu.IndexFormat) {
	p.pass.SetIndexBuffer(b.(*wgpuBuffer).buffer, format, 0, wgpu.WholeSize)
}

func (p *wgpuRenderPass) Draw(vertexCount, instanceCount uint32) {
	p.pass.Draw(vertexCount, instanceCount, 0, 0)
}

func (p *wgpuRenderPass) DrawIndexed(indexCount, instanceCount uint32) {
	p.pass.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
}

func (p *wgpuRenderPass) End() error {
	p.pass.End()
	return nil
}
