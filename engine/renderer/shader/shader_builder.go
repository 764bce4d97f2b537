package shader

// ShaderBuilderOption is a function that configures a shader during NewShader.
type ShaderBuilderOption func(*shader)

// WithVertexEntryPoint overrides the vertex stage function name.
//
// Parameters:
//   - name: the WGSL function name of the vertex entry point
//
// Returns:
//   - ShaderBuilderOption: a function that applies the entry point to a shader
func WithVertexEntryPoint(name string) ShaderBuilderOption {
	return func(s *shader) {
		if name != "" {
			s.vertexEntryPoint = name
		}
	}
}

// WithFragmentEntryPoint overrides the fragment stage function name.
//
// Parameters:
//   - name: the WGSL function name of the fragment entry point
//
// Returns:
//   - ShaderBuilderOption: a function that applies the entry point to a shader
func WithFragmentEntryPoint(name string) ShaderBuilderOption {
	return func(s *shader) {
		if name != "" {
			s.fragmentEntryPoint = name
		}
	}
}
