package shader

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pathSource = `//@oxy:include transforms
@fragment
fn fs_main() -> @location(0) vec4<f32> {
    //@oxy:path forward
    return vec4<f32>(1.0, 0.0, 0.0, 1.0);
    //@oxy:end
    //@oxy:path deferred
    return vec4<f32>(0.0, 0.0, 1.0, 1.0);
    //@oxy:end
}`

func TestProcessSelectsRenderPathBlock(t *testing.T) {
	pp := NewPreProcessor()

	forward, err := pp.Process(pathSource, common.RenderPathForward)
	require.NoError(t, err)
	assert.Contains(t, forward, "vec4<f32>(1.0, 0.0, 0.0, 1.0)")
	assert.NotContains(t, forward, "vec4<f32>(0.0, 0.0, 1.0, 1.0)")
	assert.Contains(t, forward, "struct Transforms")
	assert.NotContains(t, forward, annotationPrefix)

	deferred, err := pp.Process(pathSource, common.RenderPathDeferred)
	require.NoError(t, err)
	assert.Contains(t, deferred, "vec4<f32>(0.0, 0.0, 1.0, 1.0)")
	assert.NotContains(t, deferred, "vec4<f32>(1.0, 0.0, 0.0, 1.0)")
}

func TestDependsOnRenderPath(t *testing.T) {
	pp := NewPreProcessor()
	assert.True(t, pp.DependsOnRenderPath(pathSource))
	assert.False(t, pp.DependsOnRenderPath("//@oxy:include transforms\nfn f() {}"))
}

func TestProcessErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		msg    string
	}{
		{name: "unknown chunk", source: "//@oxy:include nope", msg: "unknown @oxy:include chunk"},
		{name: "unknown path", source: "//@oxy:path sideways\n//@oxy:end", msg: "unknown render path"},
		{name: "nested block", source: "//@oxy:path forward\n//@oxy:path deferred\n//@oxy:end", msg: "opened inside"},
		{name: "stray end", source: "//@oxy:end", msg: "without an open"},
		{name: "unterminated", source: "//@oxy:path forward\nlet x = 1;", msg: "never closed"},
		{name: "unknown annotation", source: "//@oxy:define X", msg: "unknown @oxy annotation type"},
	}

	pp := NewPreProcessor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pp.Process(tt.source, common.RenderPathForward)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestWithChunk(t *testing.T) {
	pp := NewPreProcessor(WithChunk("fog", "fn fog() -> f32 { return 1.0; }"))
	out, err := pp.Process("//@oxy:include fog", common.RenderPathForward)
	require.NoError(t, err)
	assert.Equal(t, "fn fog() -> f32 { return 1.0; }", strings.TrimSpace(out))
	assert.Contains(t, pp.Chunks(), "fog")
	assert.Contains(t, pp.Chunks(), ChunkTransforms)
}

func TestProcessExpandsChunkAnnotations(t *testing.T) {
	pp := NewPreProcessor(
		WithChunk("shade", "//@oxy:path forward\nfn shade() -> f32 { return 1.0; }\n//@oxy:end\n//@oxy:path deferred\nfn shade() -> f32 { return 0.0; }\n//@oxy:end"),
		WithChunk("material", "//@oxy:include shade"),
	)
	source := "//@oxy:include material\n@fragment\nfn fs_main() {}"

	assert.True(t, pp.DependsOnRenderPath(source), "path blocks in nested chunks make the source path dependent")

	forward, err := pp.Process(source, common.RenderPathForward)
	require.NoError(t, err)
	assert.Contains(t, forward, "return 1.0;")
	assert.NotContains(t, forward, "return 0.0;")
	assert.NotContains(t, forward, annotationPrefix)

	deferred, err := pp.Process(source, common.RenderPathDeferred)
	require.NoError(t, err)
	assert.Contains(t, deferred, "return 0.0;")
	assert.NotContains(t, deferred, "return 1.0;")
}

func TestProcessChunkErrors(t *testing.T) {
	pp := NewPreProcessor(
		WithChunk("ping", "//@oxy:include pong"),
		WithChunk("pong", "//@oxy:include ping"),
		WithChunk("open", "//@oxy:path forward"),
	)

	_, err := pp.Process("//@oxy:include ping", common.RenderPathForward)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
	assert.False(t, pp.DependsOnRenderPath("//@oxy:include ping"))

	_, err = pp.Process("//@oxy:include open", common.RenderPathForward)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `chunk "open"`)
	assert.Contains(t, err.Error(), "never closed")
}
