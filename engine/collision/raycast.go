package collision

import (
	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Raycast intersects a ray with a shape in the shape's local space. Spheres, planes and triangle
// meshes are tested exactly; compounds test their children; the other variants test their bounds.
// Distances are parametric along the ray, so they are preserved by affine transforms of the ray.
//
// Parameters:
//   - s: the shape
//   - r: the ray in the shape's local space
//
// Returns:
//   - float32: the distance to the nearest hit
//   - bool: true if the ray hits the shape
func Raycast(s Shape, r common.Ray) (float32, bool) {
	switch sh := s.(type) {
	case *Sphere:
		return raycastSphere(sh, r)
	case *StaticPlane:
		return raycastPlane(sh, r)
	case *TriangleMesh:
		return raycastTriangles(sh, r)
	case *Compound:
		return raycastCompound(sh, r)
	default:
		return common.IntersectRayAABB(r, s.LocalBounds())
	}
}

func raycastSphere(s *Sphere, r common.Ray) (float32, bool) {
	scale := math32.Max(math32.Abs(s.scaling[0]), math32.Max(math32.Abs(s.scaling[1]), math32.Abs(s.scaling[2])))
	radius := s.Radius*scale + s.margin

	a := r.Direction.Dot(r.Direction)
	if a == 0 {
		return 0, false
	}
	b := 2 * r.Origin.Dot(r.Direction)
	c := r.Origin.Dot(r.Origin) - radius*radius
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	sq := math32.Sqrt(disc)
	t0 := (-b - sq) / (2 * a)
	t1 := (-b + sq) / (2 * a)
	switch {
	case t0 >= 0:
		return t0, true
	case t1 >= 0:
		// origin inside the sphere
		return 0, true
	}
	return 0, false
}

func raycastPlane(s *StaticPlane, r common.Ray) (float32, bool) {
	denom := s.Normal.Dot(r.Direction)
	if math32.Abs(denom) < 1e-7 {
		return 0, false
	}
	t := (s.Constant - s.Normal.Dot(r.Origin)) / denom
	if t < 0 {
		return 0, false
	}
	return t, true
}

func raycastTriangles(s *TriangleMesh, r common.Ray) (float32, bool) {
	if _, ok := common.IntersectRayAABB(r, s.LocalBounds()); !ok {
		return 0, false
	}
	best := math32.Inf(1)
	hit := false
	for i := 0; i < s.TriangleCount(); i++ {
		a, b, c := s.Triangle(i)
		if t, ok := common.IntersectRayTriangle(r, a, b, c); ok && t < best {
			best = t
			hit = true
		}
	}
	return best, hit
}

func raycastCompound(s *Compound, r common.Ray) (float32, bool) {
	sc := s.scaling
	if sc[0] == 0 || sc[1] == 0 || sc[2] == 0 {
		return 0, false
	}
	unscaled := r.Transform(mgl32.Scale3D(1/sc[0], 1/sc[1], 1/sc[2]))
	best := math32.Inf(1)
	hit := false
	for _, c := range s.children {
		local := unscaled.Transform(c.Transform.Inv())
		if t, ok := Raycast(c.Shape, local); ok && t < best {
			best = t
			hit = true
		}
	}
	return best, hit
}
