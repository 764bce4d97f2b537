package shader

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// ErrMissingEntryPoint is returned by NewShader when the source does not declare the
// configured vertex or fragment entry point.
var ErrMissingEntryPoint = errors.New("shader: missing entry point")

const (
	// DefaultVertexEntryPoint is the vertex stage function looked up when no override is given.
	DefaultVertexEntryPoint = "vs_main"

	// DefaultFragmentEntryPoint is the fragment stage function looked up when no override is given.
	DefaultFragmentEntryPoint = "fs_main"
)

// shader is the implementation of the Shader interface.
// It holds the processed WGSL source and everything pipeline creation needs from it.
type shader struct {
	key                string
	source             string
	vertexEntryPoint   string
	fragmentEntryPoint string
	entryPoints        []string
	declarations       []Annotation

	pp PreProcessor
}

// Shader is a pre-processed and validated WGSL render shader.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used as the module label.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the processed WGSL source code, with every annotation expanded.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// VertexEntryPoint returns the name of the vertex stage function.
	VertexEntryPoint() string

	// FragmentEntryPoint returns the name of the fragment stage function.
	FragmentEntryPoint() string

	// EntryPoints lists every entry point declared by the module in declaration order.
	EntryPoints() []string

	// Declarations returns the uniform group annotations found in the source, in source order.
	// The pipeline package derives its bind group layouts from these.
	//
	// Returns:
	//   - []Annotation: the group annotations parsed from the shader source
	Declarations() []Annotation

	// Descriptor returns the module descriptor used to create the shader module on a device.
	Descriptor() *gpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader pre-processes, parses and validates WGSL source. Validation happens on the CPU
// so a malformed shader is reported here rather than when a pipeline is first built.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - source: the WGSL source, optionally containing @oxy: annotations
//   - opts: optional ShaderBuilderOption functions
//
// Returns:
//   - Shader: the validated shader
//   - error: an annotation, parse or validation error, or ErrMissingEntryPoint
func NewShader(key string, source string, opts ...ShaderBuilderOption) (Shader, error) {
	s := &shader{
		key:                key,
		vertexEntryPoint:   DefaultVertexEntryPoint,
		fragmentEntryPoint: DefaultFragmentEntryPoint,
		pp:                 NewPreProcessor(),
	}
	for _, opt := range opts {
		opt(s)
	}

	processed, err := s.pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	s.source = processed
	s.declarations = slices.Clone(s.pp.Declarations())

	module, err := compile(processed)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}

	var hasVertex, hasFragment bool
	for _, ep := range module.EntryPoints {
		s.entryPoints = append(s.entryPoints, ep.Name)
		switch {
		case ep.Stage == ir.StageVertex && ep.Name == s.vertexEntryPoint:
			hasVertex = true
		case ep.Stage == ir.StageFragment && ep.Name == s.fragmentEntryPoint:
			hasFragment = true
		}
	}
	if !hasVertex {
		return nil, fmt.Errorf("%w: shader %s has no vertex function %q", ErrMissingEntryPoint, key, s.vertexEntryPoint)
	}
	if !hasFragment {
		return nil, fmt.Errorf("%w: shader %s has no fragment function %q", ErrMissingEntryPoint, key, s.fragmentEntryPoint)
	}
	return s, nil
}

// compile runs the WGSL front end and validator over source.
func compile(source string) (*ir.Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, err
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("lowering: %w", err)
	}
	issues, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}
	if len(issues) > 0 {
		errs := make([]error, len(issues))
		for i := range issues {
			errs[i] = issues[i]
		}
		return nil, fmt.Errorf("validation: %w", errors.Join(errs...))
	}
	return module, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) VertexEntryPoint() string {
	return s.vertexEntryPoint
}

func (s *shader) FragmentEntryPoint() string {
	return s.fragmentEntryPoint
}

func (s *shader) EntryPoints() []string {
	return slices.Clone(s.entryPoints)
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}

func (s *shader) Descriptor() *gpu.ShaderModuleDescriptor {
	return &gpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSL:  s.source,
	}
}
