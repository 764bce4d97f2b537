package scene

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/geometry"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/mesh"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-scene/internal/logger"
	"github.com/cogentcore/webgpu/wgpu"
)

// sceneSeq hands out scene identities. Zero is never issued so the zero MeshID is foreign everywhere.
var sceneSeq atomic.Uint64

// Scene is an ordered registry of drawables with a background color. Drawables are added
// and looked up through the typed functions Add, Remove, Get and GetMut; the scene owns
// every drawable between Add and Remove.
//
// Lookups and Render may run concurrently. Add, Remove and GetMut are expected to be
// called from the thread driving the frame loop.
type Scene interface {
	// ID returns the identity stamped into every handle this scene issues.
	ID() uint64

	// Len returns the number of drawables currently stored.
	Len() int

	// Background returns the color the render pass clears to.
	Background() common.Rgb

	// SetBackground sets the color the render pass clears to.
	//
	// Parameters:
	//   - c: the new background color
	SetBackground(c common.Rgb)

	// Each calls fn for every stored drawable in slot order until fn returns false.
	// The scene must not be modified from fn.
	//
	// Parameters:
	//   - fn: the visitor, receiving an untyped handle and the drawable
	Each(fn func(id MeshID[mesh.Drawable], d mesh.Drawable) bool)

	// Render realizes every drawable's GPU artifacts and records one render pass into rec that
	// clears view to the background color and then issues one draw per drawable in slot order.
	//
	// Parameters:
	//   - dev: the device the artifacts live on
	//   - format: the format of view
	//   - view: the render target
	//   - rec: the recorder the pass is recorded into
	//
	// Returns:
	//   - error: the first derivation error, in which case nothing is recorded, or a pass error
	Render(dev gpu.Device, format wgpu.TextureFormat, view gpu.TextureView, rec gpu.CommandRecorder) error

	// Prepare realizes every drawable's GPU artifacts on a pool of workers so the first frame
	// does not pay for the uploads. Failed drawables are reported together and retried by
	// the next Prepare or Render.
	//
	// Parameters:
	//   - dev: the device to derive on
	//   - format: the color target format
	//
	// Returns:
	//   - error: every derivation error joined, or nil
	Prepare(dev gpu.Device, format wgpu.TextureFormat) error

	// Close stops the preparation workers. The scene stays usable; a later Prepare starts new ones.
	Close()

	insert(d mesh.Drawable) handle
	take(h handle) (mesh.Drawable, error)
	load(h handle) (mesh.Drawable, error)
	store(h handle, d mesh.Drawable) error
}

// slot is one entry of the slot table. generation increases every time the slot is vacated.
type slot struct {
	value      mesh.Drawable
	generation uint32
	occupied   bool
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu *sync.RWMutex

	id         uint64
	background common.Rgb
	slots      []slot
	free       freeList

	// prepareMu guards the lazily created preparation pool.
	prepareMu      *sync.Mutex
	preparePool    worker.DynamicWorkerPool
	prepareWorkers int
}

var _ Scene = &scene{}

// NewScene creates an empty scene with a white background.
//
// Parameters:
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:             &sync.RWMutex{},
		id:             sceneSeq.Add(1),
		background:     common.White,
		prepareMu:      &sync.Mutex{},
		prepareWorkers: runtime.NumCPU(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) ID() uint64 {
	return s.id
}

func (s *scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots) - s.free.Len()
}

func (s *scene) Background() common.Rgb {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.background
}

func (s *scene) SetBackground(c common.Rgb) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.background = c
}

func (s *scene) Each(fn func(id MeshID[mesh.Drawable], d mesh.Drawable) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, sl := range s.slots {
		if !sl.occupied {
			continue
		}
		id := MeshID[mesh.Drawable]{h: handle{scene: s.id, index: uint32(i), generation: sl.generation}}
		if !fn(id, sl.value) {
			return
		}
	}
}

func (s *scene) insert(d mesh.Drawable) handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, ok := s.free.take()
	if !ok {
		index = uint32(len(s.slots))
		s.slots = append(s.slots, slot{})
	}
	sl := &s.slots[index]
	sl.value = d
	sl.occupied = true
	return handle{scene: s.id, index: index, generation: sl.generation}
}

// check resolves h to its slot. Callers hold s.mu.
func (s *scene) check(h handle) (*slot, error) {
	if h.scene != s.id {
		return nil, fmt.Errorf("%w: issued by scene %d, used with scene %d", ErrForeignHandle, h.scene, s.id)
	}
	if int(h.index) >= len(s.slots) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrInvalidHandle, h.index, len(s.slots))
	}
	sl := &s.slots[h.index]
	if !sl.occupied {
		return nil, fmt.Errorf("%w: index %d", ErrEmptySlot, h.index)
	}
	if sl.generation != h.generation {
		return nil, fmt.Errorf("%w: index %d is at generation %d, handle has %d", ErrStaleHandle, h.index, sl.generation, h.generation)
	}
	return sl, nil
}

func (s *scene) take(h handle) (mesh.Drawable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, err := s.check(h)
	if err != nil {
		return nil, err
	}
	d := sl.value
	sl.value = nil
	sl.occupied = false
	sl.generation++
	s.free.put(h.index)
	return d, nil
}

func (s *scene) load(h handle) (mesh.Drawable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sl, err := s.check(h)
	if err != nil {
		return nil, err
	}
	return sl.value, nil
}

func (s *scene) store(h handle, d mesh.Drawable) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, err := s.check(h)
	if err != nil {
		return err
	}
	sl.value = d
	return nil
}

// entry is a drawable captured together with its slot index.
type entry struct {
	index uint32
	value mesh.Drawable
}

func (s *scene) snapshot() ([]entry, common.Rgb) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]entry, 0, len(s.slots)-s.free.Len())
	for i, sl := range s.slots {
		if sl.occupied {
			entries = append(entries, entry{index: uint32(i), value: sl.value})
		}
	}
	return entries, s.background
}

// drawCall is everything one draw needs, resolved before the pass opens.
type drawCall struct {
	geometry *geometry.Data
	material *material.Data
}

func (s *scene) Render(dev gpu.Device, format wgpu.TextureFormat, view gpu.TextureView, rec gpu.CommandRecorder) error {
	entries, background := s.snapshot()

	draws := make([]drawCall, len(entries))
	for i, e := range entries {
		geo, mat, err := e.value.GPUArtifacts(dev, format)
		if err != nil {
			return fmt.Errorf("scene %d: slot %d: %w", s.id, e.index, err)
		}
		draws[i] = drawCall{geometry: geo, material: mat}
	}

	pass, err := rec.BeginRenderPass(&gpu.RenderPassDescriptor{
		Label:      "Scene Render Pass",
		View:       view,
		ClearColor: background.ToWGPU(),
	})
	if err != nil {
		return fmt.Errorf("scene %d: %w", s.id, err)
	}

	for _, d := range draws {
		pass.SetPipeline(d.material.Pipeline)
		pass.SetBindGroup(0, d.material.BindGroup)
		pass.SetVertexBuffer(0, d.geometry.VertexBuffer)
		if d.geometry.Indexed() {
			pass.SetIndexBuffer(d.geometry.IndexBuffer, wgpu.IndexFormatUint32)
			pass.DrawIndexed(d.geometry.IndexCount, 1)
		} else {
			pass.Draw(d.geometry.VertexCount, 1)
		}
	}
	return pass.End()
}

func (s *scene) pool() worker.DynamicWorkerPool {
	s.prepareMu.Lock()
	defer s.prepareMu.Unlock()
	if s.preparePool == nil {
		// queue size of 256 keeps submission non-blocking for typical scenes
		s.preparePool = worker.NewDynamicWorkerPool(s.prepareWorkers, 256, 1*time.Second)
	}
	return s.preparePool
}

func (s *scene) Prepare(dev gpu.Device, format wgpu.TextureFormat) error {
	entries, _ := s.snapshot()
	if len(entries) == 0 {
		return nil
	}
	pool := s.pool()

	// A WaitGroup is the barrier: pool.Wait() only returns once workers idle out.
	var wg sync.WaitGroup
	errs := make([]error, len(entries))
	start := time.Now()
	for i, e := range entries {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID:      i,
			Payload: e.index,
			Do: func() (any, error) {
				defer wg.Done()
				if _, _, err := e.value.GPUArtifacts(dev, format); err != nil {
					errs[i] = fmt.Errorf("slot %d: %w", e.index, err)
					return nil, errs[i]
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	err := errors.Join(errs...)
	if err != nil {
		logger.Get().Warn("scene preparation failed", "scene", s.id, "error", err)
		return fmt.Errorf("scene %d: prepare: %w", s.id, err)
	}
	logger.Get().Debug("scene prepared", "scene", s.id, "drawables", len(entries), "elapsed", time.Since(start))
	return nil
}

func (s *scene) Close() {
	s.prepareMu.Lock()
	defer s.prepareMu.Unlock()
	if s.preparePool != nil {
		s.preparePool.Stop()
		s.preparePool = nil
	}
}
