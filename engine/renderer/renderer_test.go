package renderer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/geometry"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-scene/engine/mesh"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend records surface configuration and returns scripted acquisition errors.
type fakeBackend struct {
	dev         *gputest.Device
	configured  [][2]int
	acquireErrs []error
	views       []*gputest.Resource
	held        bool
	presented   int
	discarded   int
	released    bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{dev: gputest.NewDevice()}
}

func (b *fakeBackend) Device() gpu.Device                { return b.dev }
func (b *fakeBackend) SurfaceFormat() wgpu.TextureFormat { return wgpu.TextureFormatBGRA8UnormSrgb }

func (b *fakeBackend) ConfigureSurface(width, height int) error {
	b.configured = append(b.configured, [2]int{width, height})
	return nil
}

func (b *fakeBackend) AcquireFrame() (gpu.TextureView, error) {
	if len(b.acquireErrs) > 0 {
		err := b.acquireErrs[0]
		b.acquireErrs = b.acquireErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	v := gputest.NewTextureView(fmt.Sprintf("frame %d", len(b.views)))
	b.views = append(b.views, v)
	b.held = true
	return v, nil
}

func (b *fakeBackend) Present() error {
	if !b.held {
		return errors.New("no frame")
	}
	b.held = false
	b.presented++
	return nil
}

func (b *fakeBackend) DiscardFrame() {
	if b.held {
		b.held = false
		b.discarded++
	}
}

func (b *fakeBackend) Release() { b.released = true }

// fakeWindow is a window.Window with a fixed size that counts redraw requests.
type fakeWindow struct {
	width, height int
	redraws       int
}

func (w *fakeWindow) PollEvents() []window.Event {
	return []window.Event{{Kind: window.EventAllEventsProcessed}}
}

func (w *fakeWindow) RequestRedraw()                             { w.redraws++ }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (w *fakeWindow) IsRunning() bool                            { return true }
func (w *fakeWindow) Close() error                               { return nil }
func (w *fakeWindow) Size() (int, int)                           { return w.width, w.height }

func newTestRenderer(t *testing.T) (*renderer, *fakeBackend, *fakeWindow) {
	t.Helper()
	b := newFakeBackend()
	w := &fakeWindow{width: 800, height: 600}
	r, err := newRenderer(b, w)
	require.NoError(t, err)
	return r, b, w
}

func TestNewRendererConfiguresWindowSize(t *testing.T) {
	r, b, _ := newTestRenderer(t)
	assert.Equal(t, [][2]int{{800, 600}}, b.configured)

	width, height := r.Size()
	assert.Equal(t, 800, width)
	assert.Equal(t, 600, height)
	assert.Equal(t, wgpu.TextureFormatBGRA8UnormSrgb, r.Format())
	assert.Same(t, b.dev, r.Device())
}

func TestResizeIgnoresZeroDimensions(t *testing.T) {
	r, b, _ := newTestRenderer(t)

	r.Resize(0, 600)
	r.Resize(800, 0)
	r.Resize(0, 0)
	assert.Len(t, b.configured, 1)

	r.Resize(1024, 768)
	assert.Equal(t, [2]int{1024, 768}, b.configured[1])
	width, height := r.Size()
	assert.Equal(t, 1024, width)
	assert.Equal(t, 768, height)
}

func TestRenderEmptySceneClearsToBackground(t *testing.T) {
	r, b, _ := newTestRenderer(t)
	s := r.CreateScene(scene.WithBackground(common.NewRgb(0.1, 0.2, 0.3)))
	defer s.Close()

	require.NoError(t, r.Render(s))

	passes := b.dev.Passes()
	require.Len(t, passes, 1)
	assert.Equal(t, wgpu.Color{R: 0.1, G: 0.2, B: 0.3, A: 1}, passes[0].ClearColor)
	assert.Empty(t, passes[0].Commands)
	assert.Same(t, b.views[0], passes[0].View)
	assert.Equal(t, 1, b.dev.Submitted())
	assert.Equal(t, 1, b.presented)
	assert.Equal(t, uint64(1), r.FramesPresented())
}

func TestRenderDrawsSceneMeshes(t *testing.T) {
	r, b, _ := newTestRenderer(t)
	s := r.CreateScene()
	defer s.Close()
	scene.Add(s, mesh.NewMesh(geometry.Plane(1, 1), material.BasicMaterial(common.NewRgba(0.8, 0, 0, 0.5))))
	scene.Add(s, mesh.NewMesh(geometry.Plane(1.5, 0.5), material.BasicMaterial(common.NewRgba(0, 0.8, 0, 0.5))))

	require.NoError(t, r.Render(s))
	require.NoError(t, r.Render(s))

	passes := b.dev.Passes()
	require.Len(t, passes, 2)
	for _, p := range passes {
		draws := p.Draws()
		require.Len(t, draws, 2)
		for _, d := range draws {
			assert.Equal(t, gputest.OpDrawIndexed, d.Op)
			assert.Equal(t, uint32(6), d.Count)
		}
	}
	assert.Equal(t, 2, b.presented)
	assert.Equal(t, 2, b.dev.Count(gputest.KindRenderPipeline), "each mesh derives its material once")
}

func TestRenderSkipsTransientSurfaceErrors(t *testing.T) {
	for _, sentinel := range []error{gpu.ErrSurfaceLost, gpu.ErrSurfaceOutdated} {
		t.Run(sentinel.Error(), func(t *testing.T) {
			r, b, _ := newTestRenderer(t)
			s := r.CreateScene()
			defer s.Close()
			r.Resize(640, 480)
			b.acquireErrs = []error{fmt.Errorf("%w: native status", sentinel)}

			require.NoError(t, r.Render(s))
			assert.Equal(t, [2]int{640, 480}, b.configured[len(b.configured)-1], "surface reconfigured to the current size")
			assert.Len(t, b.configured, 3)
			assert.Empty(t, b.dev.Passes())
			assert.Zero(t, b.presented)

			require.NoError(t, r.Render(s))
			assert.Equal(t, 1, b.presented)
		})
	}
}

func TestRenderSkipsTimeout(t *testing.T) {
	r, b, _ := newTestRenderer(t)
	s := r.CreateScene()
	defer s.Close()
	b.acquireErrs = []error{fmt.Errorf("%w: native status", gpu.ErrSurfaceTimeout)}

	require.NoError(t, r.Render(s))
	assert.Len(t, b.configured, 1, "timeouts do not reconfigure")
	assert.Zero(t, b.presented)
}

func TestRenderFailsOnOutOfMemory(t *testing.T) {
	r, b, _ := newTestRenderer(t)
	s := r.CreateScene()
	defer s.Close()
	b.acquireErrs = []error{fmt.Errorf("%w: native status", gpu.ErrSurfaceOutOfMemory)}

	err := r.Render(s)
	require.Error(t, err)
	assert.ErrorIs(t, err, gpu.ErrSurfaceOutOfMemory)
	assert.Zero(t, b.presented)
}

func TestRenderDiscardsFrameOnSceneError(t *testing.T) {
	r, b, _ := newTestRenderer(t)
	s := r.CreateScene()
	defer s.Close()
	scene.Add(s, mesh.NewMesh(geometry.NewGeometry("empty", nil, nil), material.NormalMaterial(1)))

	err := r.Render(s)
	require.Error(t, err)
	assert.ErrorIs(t, err, geometry.ErrEmptyGeometry)
	assert.Equal(t, 1, b.discarded)
	assert.Zero(t, b.presented)
	assert.Zero(t, b.dev.Submitted())
	assert.False(t, b.held)
}

func TestHandleEventPolicy(t *testing.T) {
	r, b, w := newTestRenderer(t)
	s := r.CreateScene()
	defer s.Close()

	assert.Equal(t, ControlFlowExit, r.HandleEvent(window.Event{Kind: window.EventCloseRequested}, s))
	assert.Equal(t, ControlFlowExit, r.HandleEvent(window.Event{Kind: window.EventKeyPressed, Key: common.KeyEscape}, s))
	assert.Equal(t, ControlFlowPoll, r.HandleEvent(window.Event{Kind: window.EventKeyPressed, Key: common.KeySpace}, s))

	assert.Equal(t, ControlFlowPoll, r.HandleEvent(window.Event{Kind: window.EventResized, Width: 300, Height: 200}, s))
	assert.Equal(t, [2]int{300, 200}, b.configured[len(b.configured)-1])
	assert.Equal(t, ControlFlowPoll, r.HandleEvent(window.Event{Kind: window.EventScaleFactorChanged, Width: 600, Height: 400}, s))
	assert.Equal(t, [2]int{600, 400}, b.configured[len(b.configured)-1])
	assert.Equal(t, ControlFlowPoll, r.HandleEvent(window.Event{Kind: window.EventResized}, s))
	assert.Len(t, b.configured, 3, "zero-size resize ignored")

	assert.Equal(t, ControlFlowPoll, r.HandleEvent(window.Event{Kind: window.EventRedrawRequested}, s))
	assert.Equal(t, 1, b.presented)

	assert.Equal(t, ControlFlowPoll, r.HandleEvent(window.Event{Kind: window.EventAllEventsProcessed}, s))
	assert.Equal(t, 1, w.redraws)
}

func TestHandleEventExitsOnRenderFailure(t *testing.T) {
	r, b, _ := newTestRenderer(t)
	s := r.CreateScene()
	defer s.Close()

	b.acquireErrs = []error{fmt.Errorf("%w: native status", gpu.ErrSurfaceOutOfMemory)}
	assert.Equal(t, ControlFlowExit, r.HandleEvent(window.Event{Kind: window.EventRedrawRequested}, s))

	b.acquireErrs = []error{fmt.Errorf("%w: native status", gpu.ErrSurfaceLost)}
	assert.Equal(t, ControlFlowPoll, r.HandleEvent(window.Event{Kind: window.EventRedrawRequested}, s))
}

func TestPrepareUsesRendererDevice(t *testing.T) {
	r, b, _ := newTestRenderer(t)
	s := r.CreateScene()
	defer s.Close()
	scene.Add(s, mesh.NewMesh(geometry.Triangle(1), material.NormalMaterial(0.5)))

	require.NoError(t, r.Prepare(s))
	assert.Equal(t, 1, b.dev.Count(gputest.KindRenderPipeline))

	require.NoError(t, r.Render(s))
	assert.Equal(t, 1, b.dev.Count(gputest.KindRenderPipeline))
}

func TestReleaseReleasesBackend(t *testing.T) {
	r, b, _ := newTestRenderer(t)
	r.Release()
	assert.True(t, b.released)
}

func TestPreferredSurfaceFormat(t *testing.T) {
	assert.Equal(t, wgpu.TextureFormatBGRA8UnormSrgb,
		preferredSurfaceFormat([]wgpu.TextureFormat{wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatBGRA8UnormSrgb}))
	assert.Equal(t, wgpu.TextureFormatRGBA8UnormSrgb,
		preferredSurfaceFormat([]wgpu.TextureFormat{wgpu.TextureFormatRGBA8Unorm, wgpu.TextureFormatRGBA8UnormSrgb}))
	assert.Equal(t, wgpu.TextureFormatBGRA8Unorm,
		preferredSurfaceFormat([]wgpu.TextureFormat{wgpu.TextureFormatBGRA8Unorm}))
}

func TestSupportedPresentMode(t *testing.T) {
	all := []wgpu.PresentMode{wgpu.PresentModeFifo, wgpu.PresentModeMailbox, wgpu.PresentModeImmediate}
	assert.Equal(t, wgpu.PresentModeFifo, supportedPresentMode(PresentModeVSync, all))
	assert.Equal(t, wgpu.PresentModeImmediate, supportedPresentMode(PresentModeUncapped, all))
	assert.Equal(t, wgpu.PresentModeMailbox, supportedPresentMode(PresentModeUncapped, []wgpu.PresentMode{wgpu.PresentModeFifo, wgpu.PresentModeMailbox}))
	assert.Equal(t, wgpu.PresentModeFifo, supportedPresentMode(PresentModeUncapped, []wgpu.PresentMode{wgpu.PresentModeFifo}))
}

func TestBuilderOptions(t *testing.T) {
	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 8

	r := &renderer{}
	for _, opt := range []RendererBuilderOption{
		WithPowerPreference(PowerPreferenceHighPerformance),
		WithDeviceLimits(limits),
		WithTrace("/tmp/trace"),
		WithPresentMode(PresentModeUncapped),
		WithForceSoftwareRenderer(true),
	} {
		opt(r)
	}
	assert.Equal(t, PowerPreferenceHighPerformance, r.config.powerPreference)
	require.NotNil(t, r.config.limits)
	assert.Equal(t, uint32(8), r.config.limits.MaxBindGroups)
	assert.Equal(t, "/tmp/trace", r.config.tracePath)
	assert.Equal(t, PresentModeUncapped, r.config.presentMode)
	assert.True(t, r.config.forceFallbackAdapter)
	assert.Equal(t, wgpu.PowerPreferenceHighPerformance, r.config.powerPreference.toWGPU())
	assert.Equal(t, wgpu.PowerPreferenceUndefined, PowerPreferenceNone.toWGPU())
}

func TestControlFlowString(t *testing.T) {
	assert.Equal(t, "Poll", ControlFlowPoll.String())
	assert.Equal(t, "Exit", ControlFlowExit.String())
}
