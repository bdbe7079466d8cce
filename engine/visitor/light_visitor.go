package visitor

import (
	"iter"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/light"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-core/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// LightResult is a light resolved to world space. The record persists across traversals so shadow
// maps are only re-rendered when the light moved or turned.
type LightResult struct {
	Light    light.Light
	WorldPos mgl32.Vec3
	Rotation mgl32.Quat
	// Direction is the light's direction rotated into world space.
	Direction mgl32.Vec3
	// NeedsShadowRerender is set when WorldPos or Rotation changed. Only ClearShadowRerender resets it.
	NeedsShadowRerender bool

	recorded bool
}

// ClearShadowRerender resets NeedsShadowRerender after the shadow map has been refreshed.
func (r *LightResult) ClearShadowRerender() {
	r.NeedsShadowRerender = false
}

// GPU returns the GPU representation of the light.
func (r *LightResult) GPU() light.GPULight {
	return light.ToGPULight(r.Light, r.WorldPos, r.Direction)
}

// LightVisitor collects the lights of a graph and keeps one LightResult per light across traversals.
// Positions and rotations are compared exactly.
type LightVisitor struct {
	results map[light.Light]*LightResult
}

// NewLightVisitor creates a light visitor with no recorded lights.
func NewLightVisitor() *LightVisitor {
	return &LightVisitor{results: make(map[light.Light]*LightResult)}
}

// Convert returns a lazy sequence of the lights under root, in traversal order. Each light's record
// is updated as it is reached.
//
// Parameters:
//   - root: the graph root
//
// Returns:
//   - iter.Seq[*LightResult]: the persistent light records
func (v *LightVisitor) Convert(root scene.Node) iter.Seq[*LightResult] {
	return func(yield func(*LightResult) bool) {
		NewWalker().Walk(root, func(_ scene.Node, c scene.Component, s *state.RendererState) bool {
			l, ok := c.(light.Light)
			if !ok {
				return true
			}
			return yield(v.update(l, s.ModelMatrix().Top()))
		})
	}
}

func (v *LightVisitor) update(l light.Light, world mgl32.Mat4) *LightResult {
	pos, rot, _ := common.DecomposeTransform(world)
	r, ok := v.results[l]
	if !ok {
		r = &LightResult{Light: l}
		v.results[l] = r
	}
	if !r.recorded || r.WorldPos != pos || r.Rotation != rot {
		r.NeedsShadowRerender = true
	}
	r.WorldPos = pos
	r.Rotation = rot
	r.recorded = true

	dir := rot.Rotate(l.Direction())
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	r.Direction = dir
	return r
}

// Result returns the record of a light.
//
// Parameters:
//   - l: the light
//
// Returns:
//   - *LightResult: the record
//   - bool: false if the light has not been visited
func (v *LightVisitor) Result(l light.Light) (*LightResult, bool) {
	r, ok := v.results[l]
	return r, ok
}

// Forget drops the record of a light, for example after it was removed from the graph.
func (v *LightVisitor) Forget(l light.Light) {
	delete(v.results, l)
}

// Len returns the number of recorded lights.
func (v *LightVisitor) Len() int {
	return len(v.results)
}
