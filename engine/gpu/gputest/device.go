// Package gputest provides an in-memory gpu.Device for tests. It allocates nothing on a
// real GPU: every Create call returns a Resource that remembers its descriptor, and
// render passes record their commands for later inspection.
package gputest

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// Kind names a resource category created through the device.
type Kind string

const (
	KindBuffer          Kind = "buffer"
	KindShaderModule    Kind = "shader_module"
	KindBindGroupLayout Kind = "bind_group_layout"
	KindPipelineLayout  Kind = "pipeline_layout"
	KindRenderPipeline  Kind = "render_pipeline"
	KindBindGroup       Kind = "bind_group"
	KindTextureView     Kind = "texture_view"
)

var deviceSeq atomic.Uint64

// Resource is the fake for every gpu resource interface.
type Resource struct {
	Kind       Kind
	Name       string
	Contents   []byte
	Descriptor any

	released atomic.Bool
}

func (r *Resource) Label() string  { return r.Name }
func (r *Resource) Size() uint64   { return uint64(len(r.Contents)) }
func (r *Resource) Release()       { r.released.Store(true) }
func (r *Resource) Released() bool { return r.released.Load() }

// NewTextureView returns a fake render target.
func NewTextureView(label string) *Resource {
	return &Resource{Kind: KindTextureView, Name: label}
}

// Device is a fake gpu.Device. The zero value is not usable; call NewDevice.
type Device struct {
	// CreateDelay, when set before use, is slept inside every Create call.
	// Tests use it to widen race windows.
	CreateDelay time.Duration

	id      uint64
	layouts *gpu.LayoutRegistry

	mu        sync.Mutex
	counts    map[Kind]int
	failures  map[Kind]error
	passes    []*Pass
	submitted int
}

var _ gpu.Device = &Device{}

// NewDevice creates an empty fake device.
func NewDevice() *Device {
	d := &Device{
		id:       deviceSeq.Add(1) | 1<<63,
		counts:   make(map[Kind]int),
		failures: make(map[Kind]error),
	}
	d.layouts = gpu.NewLayoutRegistry(d)
	return d
}

// Fail makes every later creation of kind return err. A nil err clears the failure.
func (d *Device) Fail(kind Kind, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.failures, kind)
		return
	}
	d.failures[kind] = err
}

// Count returns how many resources of kind were created successfully.
func (d *Device) Count(kind Kind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counts[kind]
}

// Passes returns every render pass begun on recorders of this device, in order.
func (d *Device) Passes() []*Pass {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Pass(nil), d.passes...)
}

// Submitted returns how many recorders were submitted.
func (d *Device) Submitted() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.submitted
}

func (d *Device) create(kind Kind, label string, contents []byte, desc any) (*Resource, error) {
	if d.CreateDelay > 0 {
		time.Sleep(d.CreateDelay)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failures[kind]; err != nil {
		return nil, fmt.Errorf("%s %q rejected: %w", kind, label, err)
	}
	d.counts[kind]++
	return &Resource{Kind: kind, Name: label, Contents: contents, Descriptor: desc}, nil
}

func (d *Device) ID() uint64                   { return d.id }
func (d *Device) Layouts() *gpu.LayoutRegistry { return d.layouts }

func (d *Device) CreateBuffer(desc *gpu.BufferDescriptor) (gpu.Buffer, error) {
	contents := append([]byte(nil), desc.Contents...)
	r, err := d.create(KindBuffer, desc.Label, contents, *desc)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (d *Device) CreateShaderModule(desc *gpu.ShaderModuleDescriptor) (gpu.ShaderModule, error) {
	r, err := d.create(KindShaderModule, desc.Label, nil, *desc)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (d *Device) CreateBindGroupLayout(desc *gpu.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	r, err := d.create(KindBindGroupLayout, desc.Label, nil, *desc)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (d *Device) CreatePipelineLayout(desc *gpu.PipelineLayoutDescriptor) (gpu.PipelineLayout, error) {
	r, err := d.create(KindPipelineLayout, desc.Label, nil, *desc)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (d *Device) CreateRenderPipeline(desc *gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	r, err := d.create(KindRenderPipeline, desc.Label, nil, *desc)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (d *Device) CreateBindGroup(desc *gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	r, err := d.create(KindBindGroup, desc.Label, nil, *desc)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (d *Device) CreateCommandRecorder(label string) (gpu.CommandRecorder, error) {
	return &Recorder{device: d, Name: label}, nil
}

func (d *Device) Submit(rec gpu.CommandRecorder) error {
	r, ok := rec.(*Recorder)
	if !ok {
		return fmt.Errorf("gputest: foreign recorder %T", rec)
	}
	for _, p := range r.Passes {
		if !p.Ended {
			return fmt.Errorf("gputest: pass %q submitted before End", p.Label)
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitted++
	r.Submitted = true
	return nil
}

// Recorder is a fake gpu.CommandRecorder.
type Recorder struct {
	Name      string
	Passes    []*Pass
	Submitted bool
	Released  bool

	device *Device
}

// NewRecorder creates a recorder detached from any device.
func NewRecorder() *Recorder {
	return &Recorder{Name: "detached"}
}

func (r *Recorder) BeginRenderPass(desc *gpu.RenderPassDescriptor) (gpu.RenderPass, error) {
	p := &Pass{Label: desc.Label, View: desc.View, ClearColor: desc.ClearColor}
	r.Passes = append(r.Passes, p)
	if r.device != nil {
		r.device.mu.Lock()
		r.device.passes = append(r.device.passes, p)
		r.device.mu.Unlock()
	}
	return p, nil
}

func (r *Recorder) Release() { r.Released = true }

// Op names a recorded render pass command.
type Op string

const (
	OpSetPipeline     Op = "SetPipeline"
	OpSetBindGroup    Op = "SetBindGroup"
	OpSetVertexBuffer Op = "SetVertexBuffer"
	OpSetIndexBuffer  Op = "SetIndexBuffer"
	OpDraw            Op = "Draw"
	OpDrawIndexed     Op = "DrawIndexed"
)

// Command is one recorded render pass call.
type Command struct {
	Op       Op
	Resource gpu.Resource
	Index    uint32
	Count    uint32
}

// Pass is a fake gpu.RenderPass that records its commands.
type Pass struct {
	Label      string
	View       gpu.TextureView
	ClearColor wgpu.Color
	Commands   []Command
	Ended      bool
}

func (p *Pass) SetPipeline(rp gpu.RenderPipeline) {
	p.Commands = append(p.Commands, Command{Op: OpSetPipeline, Resource: rp})
}

func (p *Pass) SetBindGroup(index uint32, g gpu.BindGroup) {
	p.Commands = append(p.Commands, Command{Op: OpSetBindGroup, Resource: g, Index: index})
}

func (p *Pass) SetVertexBuffer(slot uint32, b gpu.Buffer) {
	p.Commands = append(p.Commands, Command{Op: OpSetVertexBuffer, Resource: b, Index: slot})
}

func (p *Pass) SetIndexBuffer(b gpu.Buffer, _ wgpu.IndexFormat) {
	p.Commands = append(p.Commands, Command{Op: OpSetIndexBuffer, Resource: b})
}

func (p *Pass) Draw(vertexCount, instanceCount uint32) {
	p.Commands = append(p.Commands, Command{Op: OpDraw, Count: vertexCount, Index: instanceCount})
}

func (p *Pass) DrawIndexed(indexCount, instanceCount uint32) {
	p.Commands = append(p.Commands, Command{Op: OpDrawIndexed, Count: indexCount, Index: instanceCount})
}

func (p *Pass) End() error {
	if p.Ended {
		return fmt.Errorf("gputest: pass %q ended twice", p.Label)
	}
	p.Ended = true
	return nil
}

// Draws returns only the draw commands of the pass, in order.
func (p *Pass) Draws() []Command {
	var out []Command
	for _, c := range p.Commands {
		if c.Op == OpDraw || c.Op == OpDrawIndexed {
			out = append(out, c)
		}
	}
	return out
}

// Labels returns the labels of every command resource with the given op, in order.
func (p *Pass) Labels(op Op) []string {
	var out []string
	for _, c := range p.Commands {
		if c.Op == op && c.Resource != nil {
			out = append(out, c.Resource.Label())
		}
	}
	return out
}
