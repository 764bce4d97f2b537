package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/window"
	"github.com/Carmen-Shannon/oxy-scene/internal/logger"
	"github.com/cogentcore/webgpu/wgpu"
)

// ControlFlow tells the run loop whether to keep polling after an event.
type ControlFlow int

const (
	// ControlFlowPoll keeps the loop running without waiting for new events.
	ControlFlowPoll ControlFlow = iota

	// ControlFlowExit ends the loop.
	ControlFlowExit
)

func (c ControlFlow) String() string {
	if c == ControlFlowExit {
		return "Exit"
	}
	return "Poll"
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend
	window      window.Window

	width  int
	height int

	presented uint64

	// Pre-creation config collected from builder options
	config backendConfig
}

// Renderer owns the presentable surface and the device, and turns a Scene into one
// presented frame per Render call. It knows nothing about meshes: drawing is delegated
// to the Scene.
type Renderer interface {
	// Render draws s into the next surface image and presents it.
	// Lost and outdated surfaces are reconfigured to the current size and the frame is
	// skipped; a timed out acquisition is logged and skipped. Both return nil.
	//
	// Parameters:
	//   - s: the scene to draw
	//
	// Returns:
	//   - error: a wrapped gpu.ErrSurfaceOutOfMemory, a scene derivation failure, or a device error
	Render(s scene.Scene) error

	// Resize reconfigures the surface to the new framebuffer size. Does nothing if either
	// dimension is zero, which happens while the window is minimized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// HandleEvent applies the window event policy. Close requests and Escape exit,
	// resize and scale changes reconfigure the surface, redraw requests render s, and the
	// end of each batch requests the next redraw. A failed render is logged and exits.
	//
	// Parameters:
	//   - e: the window event
	//   - s: the scene rendered on redraw
	//
	// Returns:
	//   - ControlFlow: ControlFlowExit to stop the loop, ControlFlowPoll otherwise
	HandleEvent(e window.Event, s scene.Scene) ControlFlow

	// CreateScene creates an empty Scene.
	//
	// Parameters:
	//   - options: scene options
	//
	// Returns:
	//   - scene.Scene: the new scene
	CreateScene(options ...scene.SceneBuilderOption) scene.Scene

	// Prepare realizes the GPU artifacts of every drawable in s on this renderer's device
	// before the first frame.
	//
	// Parameters:
	//   - s: the scene to prepare
	//
	// Returns:
	//   - error: the joined derivation failures
	Prepare(s scene.Scene) error

	// Size returns the current surface size in pixels.
	Size() (int, int)

	// Format returns the surface texture format.
	Format() wgpu.TextureFormat

	// Device returns the device GPU artifacts are created on.
	Device() gpu.Device

	// FramesPresented returns how many frames have been presented so far.
	FramesPresented() uint64

	// Release frees the backend. The renderer must not be used afterwards.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer for the given window. The surface is created from
// the window's surface descriptor and configured to the window's current size.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - win: the window to present into
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the configured renderer
//   - error: error if no adapter, device or surface configuration is available
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) (Renderer, error) {
	if win == nil {
		panic("renderer: NewRenderer requires a window")
	}
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		window:      win,
		config: backendConfig{
			presentMode: PresentModeVSync,
		},
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		b, err := newWGPURendererBackend(win.SurfaceDescriptor(), r.config)
		if err != nil {
			return nil, fmt.Errorf("renderer: %w", err)
		}
		r.backend = b
	}

	if err := r.configure(win.Size()); err != nil {
		r.backend.Release()
		return nil, fmt.Errorf("renderer: %w", err)
	}
	return r, nil
}

// newRenderer wires a renderer to an existing backend.
func newRenderer(backend RendererBackend, win window.Window, options ...RendererBuilderOption) (*renderer, error) {
	r := &renderer{
		mu:      &sync.Mutex{},
		backend: backend,
		window:  win,
	}
	for _, opt := range options {
		opt(r)
	}
	if err := r.configure(win.Size()); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *renderer) configure(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.backend.ConfigureSurface(width, height); err != nil {
		return fmt.Errorf("configure surface %dx%d: %w", width, height, err)
	}
	r.width, r.height = width, height
	return nil
}

func (r *renderer) Resize(width, height int) {
	if width == 0 || height == 0 {
		return
	}
	if err := r.configure(width, height); err != nil {
		logger.Get().Error("resize failed", "width", width, "height", height, "error", err)
		return
	}
	logger.Get().Debug("surface resized", "width", width, "height", height)
}

func (r *renderer) Render(s scene.Scene) error {
	view, err := r.backend.AcquireFrame()
	if err != nil {
		return r.handleAcquireError(err)
	}

	dev := r.backend.Device()
	rec, err := dev.CreateCommandRecorder("Frame Encoder")
	if err != nil {
		r.backend.DiscardFrame()
		return fmt.Errorf("render: %w", err)
	}
	if err := s.Render(dev, r.backend.SurfaceFormat(), view, rec); err != nil {
		rec.Release()
		r.backend.DiscardFrame()
		return fmt.Errorf("render: %w", err)
	}
	if err := dev.Submit(rec); err != nil {
		r.backend.DiscardFrame()
		return fmt.Errorf("render: submit: %w", err)
	}
	if err := r.backend.Present(); err != nil {
		return fmt.Errorf("render: present: %w", err)
	}

	r.mu.Lock()
	r.presented++
	r.mu.Unlock()
	return nil
}

// handleAcquireError decides between skipping the frame and failing.
func (r *renderer) handleAcquireError(err error) error {
	switch {
	case gpu.IsTransient(err):
		width, height := r.Size()
		logger.Get().Debug("frame skipped, reconfiguring surface", "width", width, "height", height, "error", err)
		if cerr := r.configure(width, height); cerr != nil {
			return fmt.Errorf("render: %w", errors.Join(err, cerr))
		}
		return nil
	case errors.Is(err, gpu.ErrSurfaceTimeout):
		logger.Get().Warn("frame skipped", "error", err)
		return nil
	default:
		return fmt.Errorf("render: acquire frame: %w", err)
	}
}

func (r *renderer) HandleEvent(e window.Event, s scene.Scene) ControlFlow {
	switch e.Kind {
	case window.EventCloseRequested:
		return ControlFlowExit
	case window.EventKeyPressed:
		if e.Key == common.KeyEscape {
			return ControlFlowExit
		}
	case window.EventResized, window.EventScaleFactorChanged:
		r.Resize(e.Width, e.Height)
	case window.EventRedrawRequested:
		if err := r.Render(s); err != nil {
			logger.Get().Error("render failed, exiting", "scene", s.ID(), "error", err)
			return ControlFlowExit
		}
	case window.EventAllEventsProcessed:
		r.window.RequestRedraw()
	}
	return ControlFlowPoll
}

func (r *renderer) CreateScene(options ...scene.SceneBuilderOption) scene.Scene {
	return scene.NewScene(options...)
}

func (r *renderer) Prepare(s scene.Scene) error {
	return s.Prepare(r.backend.Device(), r.backend.SurfaceFormat())
}

func (r *renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) Format() wgpu.TextureFormat {
	return r.backend.SurfaceFormat()
}

func (r *renderer) Device() gpu.Device {
	return r.backend.Device()
}

func (r *renderer) FramesPresented() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.presented
}

func (r *renderer) Release() {
	r.backend.Release()
}
