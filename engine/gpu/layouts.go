package gpu

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// LayoutShape identifies a bind group layout made of buffer bindings only.
// Two pipelines whose parameter blocks have the same shape share one layout object.
type LayoutShape struct {
	// Type is the buffer binding type of every entry.
	Type wgpu.BufferBindingType

	// Visibility is the set of shader stages that can read the bindings.
	Visibility wgpu.ShaderStage

	// Bindings is the number of consecutive bindings starting at 0.
	Bindings uint32
}

// UniformShape is the shape of a single vertex-visible uniform block at binding 0.
var UniformShape = LayoutShape{
	Type:       wgpu.BufferBindingTypeUniform,
	Visibility: wgpu.ShaderStageVertex,
	Bindings:   1,
}

// Descriptor returns the bind group layout descriptor for the shape.
func (s LayoutShape) Descriptor() *BindGroupLayoutDescriptor {
	entries := make([]wgpu.BindGroupLayoutEntry, s.Bindings)
	for i := range entries {
		entries[i] = wgpu.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: s.Visibility,
		}
		entries[i].Buffer.Type = s.Type
	}
	return &BindGroupLayoutDescriptor{
		Label:   fmt.Sprintf("Buffer Layout (type %d, stages %d, %d bindings)", s.Type, s.Visibility, s.Bindings),
		Entries: entries,
	}
}

// LayoutRegistry hands out one bind group layout per shape for a single device.
// Layouts are created on first request and shared by every pipeline needing them.
type LayoutRegistry struct {
	device  Device
	mu      *sync.Mutex
	layouts map[LayoutShape]BindGroupLayout
}

// NewLayoutRegistry creates an empty registry bound to dev.
//
// Parameters:
//   - dev: the device that owns the registry and creates its layouts
//
// Returns:
//   - *LayoutRegistry: the empty registry
func NewLayoutRegistry(dev Device) *LayoutRegistry {
	return &LayoutRegistry{
		device:  dev,
		mu:      &sync.Mutex{},
		layouts: make(map[LayoutShape]BindGroupLayout),
	}
}

// Layout returns the layout for shape, creating it on first request.
//
// Parameters:
//   - shape: the layout shape
//
// Returns:
//   - BindGroupLayout: the shared layout
//   - error: error if the device rejects the layout
func (r *LayoutRegistry) Layout(shape LayoutShape) (BindGroupLayout, error) {
	if shape.Bindings == 0 {
		return nil, fmt.Errorf("gpu: layout shape must have at least one binding")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.layouts[shape]; ok {
		return l, nil
	}
	l, err := r.device.CreateBindGroupLayout(shape.Descriptor())
	if err != nil {
		return nil, fmt.Errorf("gpu: create bind group layout: %w", err)
	}
	r.layouts[shape] = l
	return l, nil
}

// Len returns the number of distinct layouts created so far.
func (r *LayoutRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.layouts)
}

// Release frees every layout and empties the registry.
func (r *LayoutRegistry) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for shape, l := range r.layouts {
		l.Release()
		delete(r.layouts, shape)
	}
}
