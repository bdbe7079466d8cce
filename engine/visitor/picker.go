package visitor

import (
	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/collision"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-core/engine/scene"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// PickResult is the nearest hit of a pick ray.
type PickResult struct {
	Node scene.Node
	// Component is the model or collision shape that was hit.
	Component scene.Component
	// Distance is parametric along the ray, in multiples of the ray direction's length.
	Distance float32
	HitPoint mgl32.Vec3
}

// Picker intersects a world-space ray with the meshes and collision shapes of a graph.
type Picker struct{}

// NewPicker creates a picker.
func NewPicker() *Picker {
	return &Picker{}
}

// Pick returns the nearest hit under root. Meshes are tested against their bounds and then their
// triangles; collision shapes with collision.Raycast. Ties keep the first node visited. Subtrees
// flagged state.FlagSkipPick are ignored.
//
// Parameters:
//   - root: the graph root
//   - ray: the world-space ray
//
// Returns:
//   - PickResult: the nearest hit
//   - bool: false if nothing was hit
func (p *Picker) Pick(root scene.Node, ray common.Ray) (PickResult, bool) {
	best := PickResult{Distance: math32.Inf(1)}
	hit := false
	NewWalker().Walk(root, func(n scene.Node, c scene.Component, s *state.RendererState) bool {
		if s.Flags().Top().Has(state.FlagSkipPick) {
			return true
		}
		world := s.ModelMatrix().Top()
		if world.Det() == 0 {
			return true
		}
		local := ray.Transform(world.Inv())

		var (
			t  float32
			ok bool
		)
		switch comp := c.(type) {
		case model.Model:
			t, ok = pickModel(comp, local)
		case collision.Shape:
			t, ok = collision.Raycast(comp, local)
		default:
			return true
		}
		if ok && t < best.Distance {
			best = PickResult{Node: n, Component: c, Distance: t, HitPoint: ray.At(t)}
			hit = true
		}
		return true
	})
	if !hit {
		return PickResult{}, false
	}
	return best, true
}

func pickModel(m model.Model, r common.Ray) (float32, bool) {
	if _, ok := common.IntersectRayAABB(r, m.Bounds()); !ok {
		return 0, false
	}
	best := math32.Inf(1)
	hit := false
	for i := 0; i < m.TriangleCount(); i++ {
		a, b, c := m.Triangle(i)
		if t, ok := common.IntersectRayTriangle(r, a, b, c); ok && t < best {
			best = t
			hit = true
		}
	}
	return best, hit
}
