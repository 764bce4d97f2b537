package renderer

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing. This is the default.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency. Falls back to VSync when
	// the surface does not support it.
	PresentModeUncapped
)

// PowerPreference hints which adapter to pick on systems with more than one GPU.
type PowerPreference int

const (
	// PowerPreferenceNone lets the driver choose.
	PowerPreferenceNone PowerPreference = iota

	// PowerPreferenceLowPower prefers an integrated GPU.
	PowerPreferenceLowPower

	// PowerPreferenceHighPerformance prefers a discrete GPU.
	PowerPreferenceHighPerformance
)

func (p PowerPreference) toWGPU() wgpu.PowerPreference {
	switch p {
	case PowerPreferenceLowPower:
		return wgpu.PowerPreferenceLowPower
	case PowerPreferenceHighPerformance:
		return wgpu.PowerPreferenceHighPerformance
	default:
		return wgpu.PowerPreferenceUndefined
	}
}

// backendConfig is the device and surface configuration collected from RendererBuilderOptions.
type backendConfig struct {
	powerPreference      PowerPreference
	limits               *wgpu.Limits
	tracePath            string
	presentMode          PresentMode
	forceFallbackAdapter bool
}

// RendererBackend owns the device connection and the presentable surface.
// At most one frame is in flight: every successful AcquireFrame must be followed by
// exactly one Present or DiscardFrame.
type RendererBackend interface {
	// Device returns the device resources are created on.
	Device() gpu.Device

	// SurfaceFormat returns the texture format the surface is configured with.
	SurfaceFormat() wgpu.TextureFormat

	// ConfigureSurface (re)configures the surface for the given pixel size.
	//
	// Parameters:
	//   - width: surface width in pixels, non-zero
	//   - height: surface height in pixels, non-zero
	//
	// Returns:
	//   - error: error if the surface cannot be configured
	ConfigureSurface(width, height int) error

	// AcquireFrame acquires the next presentable image.
	//
	// Returns:
	//   - gpu.TextureView: the render target for this frame
	//   - error: a wrapped gpu.ErrSurfaceLost, ErrSurfaceOutdated, ErrSurfaceTimeout or
	//     ErrSurfaceOutOfMemory when the presentation layer reports one, any other error otherwise
	AcquireFrame() (gpu.TextureView, error)

	// Present shows the acquired image and releases it.
	Present() error

	// DiscardFrame releases the acquired image without presenting it. A no-op when no
	// frame is held.
	DiscardFrame()

	// Release frees the device, surface and every object owned by the backend.
	Release()
}
