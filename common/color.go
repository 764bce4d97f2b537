// package common contains the plain value types used throughout this engine: colors, the vertex layout
// and key codes. They are not interface-wrapped structs, just plain data.
package common

import "github.com/cogentcore/webgpu/wgpu"

// Rgb is an opaque color with channels in the range [0, 1].
// Used for the scene background clear color.
type Rgb struct {
	R float64
	G float64
	B float64
}

// Rgba is a color with alpha, channels in the range [0, 1].
// Used for material tints where alpha blending applies.
type Rgba struct {
	R float64
	G float64
	B float64
	A float64
}

var (
	White = Rgb{R: 1, G: 1, B: 1}
	Black = Rgb{}
)

// NewRgb creates an opaque color, clamping each channel into [0, 1].
//
// Parameters:
//   - r: red channel
//   - g: green channel
//   - b: blue channel
//
// Returns:
//   - Rgb: the clamped color
func NewRgb(r, g, b float64) Rgb {
	return Rgb{R: Clamp01(r), G: Clamp01(g), B: Clamp01(b)}
}

// NewRgba creates a translucent color, clamping each channel into [0, 1].
//
// Parameters:
//   - r: red channel
//   - g: green channel
//   - b: blue channel
//   - a: alpha channel (0 = fully transparent)
//
// Returns:
//   - Rgba: the clamped color
func NewRgba(r, g, b, a float64) Rgba {
	return Rgba{R: Clamp01(r), G: Clamp01(g), B: Clamp01(b), A: Clamp01(a)}
}

// ToWGPU converts the color to a wgpu clear value with alpha fixed at 1.
func (c Rgb) ToWGPU() wgpu.Color {
	return wgpu.Color{R: c.R, G: c.G, B: c.B, A: 1.0}
}

// WithAlpha returns the translucent form of c.
func (c Rgb) WithAlpha(a float64) Rgba {
	return Rgba{R: c.R, G: c.G, B: c.B, A: Clamp01(a)}
}

// ToWGPU converts the color to a wgpu clear value.
func (c Rgba) ToWGPU() wgpu.Color {
	return wgpu.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

// Float32s returns the color as a vec4<f32> uniform payload.
//
// Returns:
//   - [4]float32: the RGBA channels in shader order
func (c Rgba) Float32s() [4]float32 {
	return [4]float32{float32(c.R), float32(c.G), float32(c.B), float32(c.A)}
}
