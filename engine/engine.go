// Package engine ties a window, a renderer and a scene together in a single-threaded
// poll loop.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/engine/profiler"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/window"
	"github.com/Carmen-Shannon/oxy-scene/internal/logger"
)

// engine implements the Engine interface.
type engine struct {
	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window          window.Window
	windowOptions   []window.WindowBuilderOption
	renderer        renderer.Renderer
	rendererOptions []renderer.RendererBuilderOption

	profiler         *profiler.Profiler
	profilingEnabled bool

	renderFrameLimit time.Duration // minimum duration of one loop iteration; 0 = uncapped
}

// Engine is the main entry point. It owns the window and the renderer and drives the
// event loop on the calling goroutine, which must be the one that created the window.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer presenting into the window.
	//
	// Returns:
	//   - renderer.Renderer: the renderer instance
	Renderer() renderer.Renderer

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderFrameLimit sets an optional loop rate cap in frames per second.
	// Pass 0 to uncap the loop (default).
	//
	// Parameters:
	//   - fps: maximum loop iterations per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run polls the window and feeds every event to the renderer until the renderer
	// returns renderer.ControlFlowExit, the window closes, or Quit is called.
	// Blocks until the loop ends.
	//
	// Parameters:
	//   - s: the scene drawn on every redraw
	Run(s scene.Scene)

	// Quit makes Run return after the current iteration.
	// Safe to call multiple times and from any goroutine.
	Quit()

	// Close releases the renderer and closes the window.
	//
	// Returns:
	//   - error: error if the window cannot be closed
	Close() error
}

var _ Engine = &engine{}

// NewEngine creates a new Engine. Without WithWindow a window is created from the
// options given to WithWindowOptions; without WithRenderer a wgpu renderer is created
// for that window from the options given to WithRendererOptions.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: error if the renderer cannot be created
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		quitChannel: make(chan struct{}),
		profiler:    profiler.NewProfiler(),
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window == nil {
		e.window = window.NewWindow(e.windowOptions...)
	}
	if e.renderer == nil {
		r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, e.window, e.rendererOptions...)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("engine: %w", err), e.window.Close())
		}
		e.renderer = r
	}
	return e, nil
}

// SetLogger installs the logger used by every package of the engine. Passing nil
// restores the default, which discards everything.
//
// Parameters:
//   - l: the logger to install, or nil
func SetLogger(l *slog.Logger) {
	logger.Set(l)
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Run(s scene.Scene) {
	if s == nil {
		panic("engine: Run requires a scene")
	}
	logger.Get().Debug("engine loop started", "scene", s.ID(), "meshes", s.Len())
	defer logger.Get().Debug("engine loop stopped", "scene", s.ID())

	for e.window.IsRunning() {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		iterationStart := time.Now()
		presentedBefore := e.renderer.FramesPresented()
		for _, ev := range e.window.PollEvents() {
			if e.renderer.HandleEvent(ev, s) == renderer.ControlFlowExit {
				logger.Get().Debug("engine loop exit requested", "event", ev.Kind)
				return
			}
		}

		if e.profilingEnabled && e.renderer.FramesPresented() > presentedBefore {
			e.profiler.Tick()
		}

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(iterationStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// Quit signals Run to return.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) Close() error {
	e.Quit()
	e.renderer.Release()
	return e.window.Close()
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetRenderFrameLimit sets an optional frame rate cap.
// Pass 0 to uncap the loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
