package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const litVertex = `
struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) normal: vec3<f32>,
    @location(2) uv: vec2<f32>,
};

struct Transforms {
    model: mat4x4<f32>,
    view: mat4x4<f32>,
    projection: mat4x4<f32>,
};

@group(0) @binding(0) var<uniform> transforms: Transforms;

@vertex
fn vs_main(in: VertexInput) -> @builtin(position) vec4<f32> {
    return transforms.projection * transforms.view * transforms.model * vec4<f32>(in.position, 1.0);
}
`

const litFragment = `
struct Params {
    tint: vec4<f32>,
    roughness: f32,
    offset: vec3<f32>,
};

@group(1) @binding(0) var<uniform> params: Params;
@group(1) @binding(1) var albedo: texture_2d<f32>;
@group(1) @binding(2) var albedo_sampler: sampler;

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return params.tint * textureSample(albedo, albedo_sampler, vec2<f32>(0.0));
}
`

func TestNewShaderVertexReflection(t *testing.T) {
	s, err := NewShader("lit.vs", StageVertex, litVertex)
	require.NoError(t, err)

	assert.Equal(t, "vs_main", s.EntryPoint())
	require.Len(t, s.VertexLayouts(), 1)
	layout := s.VertexLayouts()[0]
	assert.Equal(t, uint64(32), layout.ArrayStride)
	require.Len(t, layout.Attributes, 3)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, layout.Attributes[2].Format)
	assert.Equal(t, uint64(24), layout.Attributes[2].Offset)

	uniforms := s.Uniforms()
	require.Len(t, uniforms, 3)
	assert.Equal(t, UniformModel, uniforms[0].Name)
	assert.Equal(t, uint64(0), uniforms[0].Offset)
	assert.Equal(t, UniformView, uniforms[1].Name)
	assert.Equal(t, uint64(64), uniforms[1].Offset)
	assert.Equal(t, UniformProjection, uniforms[2].Name)
	assert.Equal(t, uint64(128), uniforms[2].Offset)
	assert.Equal(t, uint64(192), uniforms[2].BufferSize)

	group := s.BindGroupLayoutDescriptors()[0]
	require.Len(t, group.Entries, 1)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, group.Entries[0].Buffer.Type)
	assert.Equal(t, uint64(192), group.Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageVertex, group.Entries[0].Visibility)
}

func TestNewShaderFragmentReflection(t *testing.T) {
	s, err := NewShader("lit.fs", StageFragment, litFragment)
	require.NoError(t, err)

	assert.Equal(t, "fs_main", s.EntryPoint())
	assert.Empty(t, s.VertexLayouts())

	byName := map[string]UniformInfo{}
	for _, u := range s.Uniforms() {
		byName[u.Name] = u
	}
	require.Len(t, byName, 5)
	assert.Equal(t, uint64(16), byName["roughness"].Offset)
	assert.Equal(t, uint64(32), byName["offset"].Offset)
	assert.Equal(t, uint64(48), byName["offset"].BufferSize)
	assert.Equal(t, UniformTexture, byName["albedo"].Kind)
	assert.Equal(t, UniformSampler, byName["albedo_sampler"].Kind)
	assert.Equal(t, uint32(2), byName["albedo_sampler"].Binding)

	entries := s.BindGroupLayoutDescriptors()[1].Entries
	require.Len(t, entries, 3)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, entries[1].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, entries[2].Sampler.Type)
}

func TestNewShaderErrors(t *testing.T) {
	_, err := NewShader("geo", StageGeometry, "fn main() {}")
	assert.Error(t, err)

	_, err = NewShader("empty", StageVertex, "   ")
	assert.Error(t, err)

	_, err = NewShader("no-entry", StageFragment, "fn helper() {}")
	assert.Error(t, err)
}

func TestNewShaderShorthandMemberTypes(t *testing.T) {
	const src = `
struct Params {
    mode: vec4i,
    basis: mat2x2f,
    flags: vec2u,
    tint: vec4<f32>,
};

@group(1) @binding(0) var<uniform> params: Params;

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return params.tint;
}
`
	s, err := NewShader("shorthand.fs", StageFragment, src)
	require.NoError(t, err)

	byName := map[string]UniformInfo{}
	for _, u := range s.Uniforms() {
		byName[u.Name] = u
	}
	require.Contains(t, byName, "tint")
	assert.Equal(t, uint64(0), byName["mode"].Offset)
	assert.Equal(t, uint64(16), byName["basis"].Offset)
	assert.Equal(t, uint64(32), byName["flags"].Offset)
	assert.Equal(t, uint64(48), byName["tint"].Offset)
	assert.Equal(t, uint64(64), byName["tint"].BufferSize)
}
