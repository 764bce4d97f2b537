package material

import "github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		if name != "" {
			m.name = name
		}
	}
}

// WithPipelineOptions forwards fixed-function overrides such as cull mode or blending to
// the material's render pipeline.
//
// Parameters:
//   - opts: the pipeline options to apply
//
// Returns:
//   - MaterialBuilderOption: a function that records the pipeline options on a material
func WithPipelineOptions(opts ...pipeline.PipelineBuilderOption) MaterialBuilderOption {
	return func(m *material) {
		m.pipelineOpts = append(m.pipelineOpts, opts...)
	}
}
