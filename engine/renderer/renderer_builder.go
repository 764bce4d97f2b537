package renderer

import "github.com/cogentcore/webgpu/wgpu"

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPowerPreference sets the adapter power preference. Defaults to PowerPreferenceNone.
//
// Parameters:
//   - p: the PowerPreference to request
//
// Returns:
//   - RendererBuilderOption: a function that applies the power preference option to a renderer
func WithPowerPreference(p PowerPreference) RendererBuilderOption {
	return func(r *renderer) {
		r.config.powerPreference = p
	}
}

// WithDeviceLimits sets the limits requested from the device. Defaults to wgpu.DefaultLimits().
//
// Parameters:
//   - limits: the device limits to require
//
// Returns:
//   - RendererBuilderOption: a function that applies the limits option to a renderer
func WithDeviceLimits(limits wgpu.Limits) RendererBuilderOption {
	return func(r *renderer) {
		r.config.limits = &limits
	}
}

// WithTrace enables API call tracing into the given directory. An empty path disables tracing.
//
// Parameters:
//   - path: directory the trace is written to
//
// Returns:
//   - RendererBuilderOption: a function that applies the trace option to a renderer
func WithTrace(path string) RendererBuilderOption {
	return func(r *renderer) {
		r.config.tracePath = path
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.config.presentMode = mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.config.forceFallbackAdapter = force
	}
}
