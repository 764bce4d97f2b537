package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSource = `//@oxy:include vertex
//@oxy:include basic_params
//@oxy:group 0 0 uniform params basic_params

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
}

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(in.position, 1.0);
    out.color = params.color;
    return out;
}

@fragment
fn fs_main(@location(0) color: vec4<f32>) -> @location(0) vec4<f32> {
    return color;
}
`

func TestParseAnnotation(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    *Annotation
		wantErr bool
	}{
		{name: "plain line", line: "fn main() {}"},
		{name: "plain comment", line: "// just a comment"},
		{name: "prefix outside comment", line: "let x = 1; @oxy:include vertex"},
		{
			name: "include",
			line: "  //@oxy:include vertex",
			want: &Annotation{Type: annotationTypeInclude, Args: []AnnotationArg{"vertex"}, Line: 3},
		},
		{name: "include unknown", line: "//@oxy:include camera", wantErr: true},
		{name: "include arity", line: "//@oxy:include", wantErr: true},
		{name: "empty", line: "//@oxy:", wantErr: true},
		{name: "unknown type", line: "//@oxy:provider 0 0 camera", wantErr: true},
		{name: "group bad number", line: "//@oxy:group x 0 uniform params basic_params", wantErr: true},
		{name: "group negative binding", line: "//@oxy:group 0 -1 uniform params basic_params", wantErr: true},
		{name: "group storage", line: "//@oxy:group 0 0 storage_read params basic_params", wantErr: true},
		{name: "group arity", line: "//@oxy:group 0 0 uniform params", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAnnotation(tt.line, 3)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAnnotationGroup(t *testing.T) {
	got, err := parseAnnotation("//@oxy:group 1 2 uniform params normal_params", 7)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, AnnotationTypeBindingGroup, got.Type)
	assert.Equal(t, []AnnotationArg{AnnotationArgUniform, "params", AnnotationArgNormalParams}, got.Args)
	assert.Equal(t, 1, *got.Group)
	assert.Equal(t, 2, *got.Binding)
	assert.Equal(t, 7, got.Line)
}

func TestPreProcessorProcess(t *testing.T) {
	pp := NewPreProcessor()

	out, err := pp.Process(testSource)
	require.NoError(t, err)

	assert.NotContains(t, out, annotationPrefix)
	assert.Contains(t, out, "struct VertexInput")
	assert.Contains(t, out, "struct BasicParams")
	assert.Contains(t, out, "@group(0) @binding(0) var<uniform> params: BasicParams;")

	decls := pp.Declarations()
	require.Len(t, decls, 1)
	assert.Equal(t, 0, *decls[0].Group)
	assert.Equal(t, 0, *decls[0].Binding)
}

func TestPreProcessorResetsDeclarations(t *testing.T) {
	pp := NewPreProcessor()

	_, err := pp.Process(testSource)
	require.NoError(t, err)
	_, err = pp.Process("//@oxy:include vertex\n")
	require.NoError(t, err)

	assert.Empty(t, pp.Declarations())
}

func TestPreProcessorDuplicateBinding(t *testing.T) {
	src := "//@oxy:group 0 0 uniform a basic_params\n//@oxy:group 0 0 uniform b normal_params\n"

	_, err := NewPreProcessor().Process(src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already declared on line 1")
}

func TestNewShader(t *testing.T) {
	s, err := NewShader("test", testSource)
	require.NoError(t, err)

	assert.Equal(t, "test", s.Key())
	assert.Equal(t, DefaultVertexEntryPoint, s.VertexEntryPoint())
	assert.Equal(t, DefaultFragmentEntryPoint, s.FragmentEntryPoint())
	assert.ElementsMatch(t, []string{"vs_main", "fs_main"}, s.EntryPoints())
	assert.Len(t, s.Declarations(), 1)

	desc := s.Descriptor()
	assert.Equal(t, "test", desc.Label)
	assert.Equal(t, s.Source(), desc.WGSL)
	assert.NotContains(t, desc.WGSL, annotationPrefix)
}

func TestNewShaderEntryPointOverrides(t *testing.T) {
	src := strings.NewReplacer("vs_main", "vertex_main", "fs_main", "fragment_main").Replace(testSource)

	_, err := NewShader("renamed", src)
	require.ErrorIs(t, err, ErrMissingEntryPoint)

	s, err := NewShader("renamed", src, WithVertexEntryPoint("vertex_main"), WithFragmentEntryPoint("fragment_main"))
	require.NoError(t, err)
	assert.Equal(t, "vertex_main", s.VertexEntryPoint())
	assert.Equal(t, "fragment_main", s.FragmentEntryPoint())
}

func TestNewShaderMissingFragment(t *testing.T) {
	src := testSource[:strings.Index(testSource, "@fragment")]

	_, err := NewShader("vertex only", src)
	assert.ErrorIs(t, err, ErrMissingEntryPoint)
}

func TestNewShaderRejectsBadSource(t *testing.T) {
	_, err := NewShader("broken", "@vertex fn vs_main( -> {")
	assert.Error(t, err)

	_, err = NewShader("bad annotation", "//@oxy:include nothing\n"+testSource)
	assert.Error(t, err)
}
