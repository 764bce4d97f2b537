package pipeline_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu"
	"github.com/Carmen-Shannon/oxy-scene/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flatSource = `//@oxy:include vertex
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

func newShader(t *testing.T, src string) shader.Shader {
	t.Helper()
	s, err := shader.NewShader("flat", src)
	require.NoError(t, err)
	return s
}

func TestNewPipelineDefaults(t *testing.T) {
	p := pipeline.NewPipeline("flat", newShader(t, flatSource))

	assert.Equal(t, "flat", p.PipelineKey())
	assert.True(t, p.BlendEnabled())
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())
	assert.Equal(t, wgpu.FrontFaceCCW, p.FrontFace())
	assert.Equal(t, wgpu.ColorWriteMaskAll, p.WriteMask())
	require.NotNil(t, p.BlendState())
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, p.BlendState().Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOneMinusSrcAlpha, p.BlendState().Color.DstFactor)
	assert.Equal(t, []wgpu.VertexBufferLayout{common.VertexLayout()}, p.VertexLayouts())
}

func TestNewPipelineRequiresShader(t *testing.T) {
	assert.Panics(t, func() { pipeline.NewPipeline("none", nil) })
}

func TestLayoutShapes(t *testing.T) {
	p := pipeline.NewPipeline("flat", newShader(t, flatSource))

	shapes, err := p.LayoutShapes()
	require.NoError(t, err)
	assert.Equal(t, []gpu.LayoutShape{gpu.UniformShape}, shapes)
}

func TestLayoutShapesRejectsGap(t *testing.T) {
	src := strings.Replace(flatSource, "//@oxy:group 0 0", "//@oxy:group 1 0", 1)
	src = strings.Replace(src, "params.color", "vec4<f32>(1.0, 1.0, 1.0, 1.0)", 1)
	p := pipeline.NewPipeline("gap", newShader(t, src))

	_, err := p.LayoutShapes()
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	dev := gputest.NewDevice()
	p := pipeline.NewPipeline("flat", newShader(t, flatSource))

	rp, err := p.Build(dev, wgpu.TextureFormatBGRA8UnormSrgb)
	require.NoError(t, err)
	require.NotNil(t, rp)
	assert.Equal(t, "flat", rp.Label())

	desc, ok := rp.(*gputest.Resource).Descriptor.(gpu.RenderPipelineDescriptor)
	require.True(t, ok)
	assert.Equal(t, "vs_main", desc.VertexEntryPoint)
	assert.Equal(t, "fs_main", desc.FragmentEntryPoint)
	require.Len(t, desc.Targets, 1)
	assert.Equal(t, wgpu.TextureFormatBGRA8UnormSrgb, desc.Targets[0].Format)
	assert.Equal(t, p.BlendState(), desc.Targets[0].Blend)
	assert.Equal(t, wgpu.CullModeBack, desc.Primitive.CullMode)

	// the transient objects are released once the pipeline exists
	assert.True(t, desc.Module.(*gputest.Resource).Released())
	assert.True(t, desc.Layout.(*gputest.Resource).Released())

	assert.Equal(t, 1, dev.Count(gputest.KindBindGroupLayout))
	assert.Equal(t, 1, dev.Count(gputest.KindRenderPipeline))
}

func TestBuildWithoutBlend(t *testing.T) {
	dev := gputest.NewDevice()
	p := pipeline.NewPipeline("opaque", newShader(t, flatSource), pipeline.WithBlendEnabled(false))

	rp, err := p.Build(dev, wgpu.TextureFormatRGBA8UnormSrgb)
	require.NoError(t, err)

	desc := rp.(*gputest.Resource).Descriptor.(gpu.RenderPipelineDescriptor)
	assert.Nil(t, desc.Targets[0].Blend)
}

func TestBuildSharesLayouts(t *testing.T) {
	dev := gputest.NewDevice()
	s := newShader(t, flatSource)

	_, err := pipeline.NewPipeline("a", s).Build(dev, wgpu.TextureFormatBGRA8UnormSrgb)
	require.NoError(t, err)
	_, err = pipeline.NewPipeline("b", s, pipeline.WithCullMode(wgpu.CullModeNone)).Build(dev, wgpu.TextureFormatBGRA8UnormSrgb)
	require.NoError(t, err)

	assert.Equal(t, 1, dev.Count(gputest.KindBindGroupLayout))
	assert.Equal(t, 2, dev.Count(gputest.KindRenderPipeline))
	assert.Equal(t, 1, dev.Layouts().Len())
}

func TestBuildFailures(t *testing.T) {
	boom := errors.New("boom")
	for _, kind := range []gputest.Kind{
		gputest.KindBindGroupLayout,
		gputest.KindShaderModule,
		gputest.KindPipelineLayout,
		gputest.KindRenderPipeline,
	} {
		t.Run(string(kind), func(t *testing.T) {
			dev := gputest.NewDevice()
			dev.Fail(kind, boom)

			rp, err := pipeline.NewPipeline("flat", newShader(t, flatSource)).Build(dev, wgpu.TextureFormatBGRA8UnormSrgb)
			assert.Nil(t, rp)
			assert.ErrorIs(t, err, boom)
		})
	}
}
