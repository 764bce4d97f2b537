// pre_processor.go implements the WGSL shader pre-processor. It scans shader source
// for @oxy: annotations, replaces them with injected struct sources or generated
// uniform declarations, and collects a declarations list that the pipeline package
// turns into bind group layouts.
package shader

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed assets/vertex.wgsl
var vertexSource string

//go:embed assets/basic_params.wgsl
var basicParamsSource string

//go:embed assets/normal_params.wgsl
var normalParamsSource string

// registryEntry pairs a WGSL struct source string with the WGSL type name used in
// generated @group/@binding declarations.
type registryEntry struct {
	Source string
	Type   string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry       map[AnnotationArg]registryEntry
	addressSpaceRegistry map[AnnotationArg]string

	// declarations is reset at the start of each Process call.
	declarations []Annotation
}

// PreProcessor processes raw WGSL shader source containing @oxy: annotations,
// replacing them with generated declarations or injected struct sources while
// collecting a declarations list for bind group layout derivation.
type PreProcessor interface {
	// Process takes raw WGSL shader source code and replaces @oxy: annotations with
	// their corresponding WGSL output.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code containing annotations to be processed
	//
	// Returns:
	//   - string: the processed WGSL shader source code with annotations replaced
	//   - error: an error if any annotation is malformed or references an unknown type
	Process(source string) (string, error)

	// Declarations returns the group annotations collected during the most recent
	// call to Process, in source order.
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a new PreProcessor with the vertex input struct and the
// material parameter blocks registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			annotationArgVertex:       {Source: vertexSource, Type: "VertexInput"},
			AnnotationArgBasicParams:  {Source: basicParamsSource, Type: "BasicParams"},
			AnnotationArgNormalParams: {Source: normalParamsSource, Type: "NormalParams"},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			AnnotationArgUniform: "var<uniform>",
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	seen := make(map[[2]int]int)

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			entry, ok := p.structRegistry[a.Args[0]]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:include argument %q", i+1, a.Args[0])
			}
			out = append(out, entry.Source)
		case AnnotationTypeBindingGroup:
			slot := [2]int{*a.Group, *a.Binding}
			if prev, dup := seen[slot]; dup {
				return "", fmt.Errorf("line %d: group %d binding %d already declared on line %d", i+1, slot[0], slot[1], prev)
			}
			seen[slot] = i + 1

			addrSpace := p.addressSpaceRegistry[a.Args[0]]
			entry := p.structRegistry[a.Args[2]]
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", *a.Group, *a.Binding, addrSpace, a.Args[1], entry.Type))
			p.declarations = append(p.declarations, *a)
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", i+1, a.Type)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
