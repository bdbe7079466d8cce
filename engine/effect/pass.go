package effect

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// RenderState is the fixed-function configuration of one pass. The fields map directly onto the
// render pipeline descriptor built by the backend.
type RenderState struct {
	DepthTestEnabled    bool
	DepthWriteEnabled   bool
	DepthBias           int32
	DepthBiasSlopeScale float32
	BlendEnabled        bool
	BlendState          *wgpu.BlendState
	CullMode            wgpu.CullMode
	FrontFace           wgpu.FrontFace
	Topology            wgpu.PrimitiveTopology
	WriteMask           wgpu.ColorWriteMask
}

// DefaultRenderState returns the opaque-geometry defaults: depth test and write on, back-face
// culling, counter-clockwise front faces, triangle lists and all color channels written.
//
// Returns:
//   - RenderState: the default render state
func DefaultRenderState() RenderState {
	return RenderState{
		DepthTestEnabled:  true,
		DepthWriteEnabled: true,
		CullMode:          wgpu.CullModeBack,
		FrontFace:         wgpu.FrontFaceCCW,
		Topology:          wgpu.PrimitiveTopologyTriangleList,
		WriteMask:         wgpu.ColorWriteMaskAll,
	}
}

// Pass is one render pass of an effect: its render state and the shader source of each stage.
// Sources may contain @oxy: annotations which are resolved per render path before compilation.
type Pass struct {
	// Name labels the pass in backend diagnostics.
	Name string
	// State is the fixed-function configuration of the pass.
	State RenderState
	// Vertex is the vertex stage source. Required.
	Vertex string
	// Fragment is the fragment stage source. Empty for depth-only passes.
	Fragment string
	// Geometry is the geometry stage source. Backends without geometry shaders reject a non-empty value.
	Geometry string
}
