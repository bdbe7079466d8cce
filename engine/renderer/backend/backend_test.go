package backend

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileErrorUnwrap(t *testing.T) {
	cause := errors.New("unexpected token")
	err := error(&CompileError{Label: "lit/main/forward", Stage: shader.StageFragment, Err: cause})

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, shader.StageFragment, ce.Stage)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "lit/main/forward")
	assert.Contains(t, err.Error(), "fragment")
}

func TestMergeBindGroupLayouts(t *testing.T) {
	uniform := wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: 192}
	vertex := map[uint32]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageVertex, Buffer: uniform},
		}},
	}
	fragment := map[uint32]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 1, Visibility: wgpu.ShaderStageFragment, Buffer: uniform},
			{Binding: 0, Visibility: wgpu.ShaderStageFragment, Buffer: uniform},
		}},
		1: {Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageFragment, Buffer: uniform},
		}},
	}

	merged := mergeBindGroupLayouts(vertex, fragment)
	require.Len(t, merged, 2)

	group0 := merged[0].Entries
	require.Len(t, group0, 2)
	assert.Equal(t, uint32(0), group0[0].Binding)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, group0[0].Visibility)
	assert.Equal(t, uint32(1), group0[1].Binding)
	assert.Equal(t, wgpu.ShaderStageFragment, group0[1].Visibility)

	assert.Equal(t, fragment[1], merged[1])
}

func TestBindGroupProviderStaging(t *testing.T) {
	entries := []wgpu.BindGroupLayoutEntry{
		{Binding: 0, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: 20}},
		{Binding: 1, Texture: wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeFloat}},
		{Binding: 2, Sampler: wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}},
	}
	p := newBindGroupProvider("test", 0, nil, entries)

	require.Len(t, p.staging, 1)
	assert.Len(t, p.staging[0], 32, "buffer sizes round up to 16 bytes")

	p.write(0, 16, []byte{1, 2, 3, 4})
	assert.Equal(t, []byte{1, 2, 3, 4}, p.staging[0][16:20])

	p.write(0, 30, []byte{9, 9, 9, 9})
	assert.Equal(t, []byte{9, 9}, p.staging[0][30:32], "writes past the end are clipped")

	p.write(0, 64, []byte{7})
	p.write(5, 0, []byte{7})
	assert.Len(t, p.staging[0], 32)
}

func TestPresentModeParse(t *testing.T) {
	for _, mode := range []PresentMode{PresentModeVSync, PresentModeUncapped} {
		parsed, err := ParsePresentMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, parsed)
	}
	_, err := ParsePresentMode("triple")
	assert.Error(t, err)

	assert.True(t, MSAA4x.Valid())
	assert.False(t, MSAASampleCount(2).Valid())
}
