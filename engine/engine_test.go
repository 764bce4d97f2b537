package engine

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/window"
	"github.com/Carmen-Shannon/oxy-scene/internal/logger"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedWindow returns one scripted batch per poll, then empty batches.
type scriptedWindow struct {
	batches [][]window.Event
	polls   int
	closed  bool
}

func (w *scriptedWindow) PollEvents() []window.Event {
	w.polls++
	if len(w.batches) == 0 {
		return []window.Event{{Kind: window.EventAllEventsProcessed}}
	}
	b := w.batches[0]
	w.batches = w.batches[1:]
	return append(b, window.Event{Kind: window.EventAllEventsProcessed})
}

func (w *scriptedWindow) RequestRedraw()                             {}
func (w *scriptedWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (w *scriptedWindow) IsRunning() bool                            { return !w.closed }
func (w *scriptedWindow) Size() (int, int)                           { return 800, 600 }

func (w *scriptedWindow) Close() error {
	w.closed = true
	return nil
}

// recordingRenderer records handled events. Redraws count as presented frames; a
// CloseRequested event exits.
type recordingRenderer struct {
	dev       *gputest.Device
	handled   []window.EventKind
	presented uint64
	released  bool
}

func (r *recordingRenderer) HandleEvent(e window.Event, _ scene.Scene) renderer.ControlFlow {
	r.handled = append(r.handled, e.Kind)
	switch e.Kind {
	case window.EventCloseRequested:
		return renderer.ControlFlowExit
	case window.EventRedrawRequested:
		r.presented++
	}
	return renderer.ControlFlowPoll
}

func (r *recordingRenderer) Render(scene.Scene) error { return nil }
func (r *recordingRenderer) Resize(int, int)          {}
func (r *recordingRenderer) CreateScene(options ...scene.SceneBuilderOption) scene.Scene {
	return scene.NewScene(options...)
}
func (r *recordingRenderer) Prepare(scene.Scene) error   { return nil }
func (r *recordingRenderer) Size() (int, int)            { return 800, 600 }
func (r *recordingRenderer) Format() wgpu.TextureFormat  { return wgpu.TextureFormatBGRA8UnormSrgb }
func (r *recordingRenderer) Device() gpu.Device          { return r.dev }
func (r *recordingRenderer) FramesPresented() uint64     { return r.presented }
func (r *recordingRenderer) Release()                    { r.released = true }

func newTestEngine(t *testing.T, w *scriptedWindow, options ...EngineBuilderOption) (*engine, *recordingRenderer) {
	t.Helper()
	r := &recordingRenderer{dev: gputest.NewDevice()}
	e, err := NewEngine(append([]EngineBuilderOption{WithWindow(w), WithRenderer(r)}, options...)...)
	require.NoError(t, err)
	return e.(*engine), r
}

func TestRunFeedsEventsUntilExit(t *testing.T) {
	w := &scriptedWindow{batches: [][]window.Event{
		{{Kind: window.EventResized, Width: 10, Height: 10}},
		{{Kind: window.EventRedrawRequested}},
		{{Kind: window.EventCloseRequested}, {Kind: window.EventRedrawRequested}},
		{{Kind: window.EventRedrawRequested}},
	}}
	e, r := newTestEngine(t, w)
	s := scene.NewScene()
	defer s.Close()

	e.Run(s)

	assert.Equal(t, []window.EventKind{
		window.EventResized, window.EventAllEventsProcessed,
		window.EventRedrawRequested, window.EventAllEventsProcessed,
		window.EventCloseRequested,
	}, r.handled, "events after the exit directive are not handled")
	assert.Equal(t, 3, w.polls)
}

func TestRunStopsWhenWindowCloses(t *testing.T) {
	w := &scriptedWindow{closed: true}
	e, r := newTestEngine(t, w)
	s := scene.NewScene()
	defer s.Close()

	e.Run(s)
	assert.Zero(t, w.polls)
	assert.Empty(t, r.handled)
}

func TestQuitBeforeRunReturnsImmediately(t *testing.T) {
	w := &scriptedWindow{}
	e, _ := newTestEngine(t, w)
	s := scene.NewScene()
	defer s.Close()

	e.Quit()
	e.Quit()
	e.Run(s)
	assert.Zero(t, w.polls)
}

func TestQuitFromAnotherGoroutine(t *testing.T) {
	w := &scriptedWindow{}
	e, _ := newTestEngine(t, w, WithRenderFrameLimit(1000))
	s := scene.NewScene()
	defer s.Close()

	done := make(chan struct{})
	go func() {
		e.Run(s)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	e.Quit()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
}

func TestRunTicksProfilerOnPresentedFrames(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	defer SetLogger(nil)

	w := &scriptedWindow{batches: [][]window.Event{
		{{Kind: window.EventRedrawRequested}},
		{},
		{{Kind: window.EventRedrawRequested}},
		{{Kind: window.EventCloseRequested}},
	}}
	e, _ := newTestEngine(t, w, WithProfiling(true), WithProfilerInterval(time.Nanosecond))
	s := scene.NewScene()
	defer s.Close()

	e.Run(s)
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("msg=profiler")))
}

func TestProfilerToggle(t *testing.T) {
	e, _ := newTestEngine(t, &scriptedWindow{})
	assert.False(t, e.profilingEnabled)
	e.EnableProfiler()
	assert.True(t, e.profilingEnabled)
	e.DisableProfiler()
	assert.False(t, e.profilingEnabled)
}

func TestSetRenderFrameLimit(t *testing.T) {
	e, _ := newTestEngine(t, &scriptedWindow{})
	e.SetRenderFrameLimit(50)
	assert.Equal(t, 20*time.Millisecond, e.renderFrameLimit)
	e.SetRenderFrameLimit(0)
	assert.Zero(t, e.renderFrameLimit)
}

func TestCloseReleasesRendererAndWindow(t *testing.T) {
	w := &scriptedWindow{}
	e, r := newTestEngine(t, w)

	require.NoError(t, e.Close())
	assert.True(t, r.released)
	assert.True(t, w.closed)
	assert.Same(t, w, e.Window())
	assert.Same(t, r, e.Renderer())
}

func TestRunPanicsWithoutScene(t *testing.T) {
	e, _ := newTestEngine(t, &scriptedWindow{})
	assert.Panics(t, func() { e.Run(nil) })
}

func TestSetLoggerNilRestoresSilence(t *testing.T) {
	SetLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	SetLogger(nil)
	assert.False(t, logger.Get().Enabled(t.Context(), slog.LevelError))
}
