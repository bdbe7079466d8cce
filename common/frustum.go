package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustumFromMatrix extracts frustum planes from a view-projection matrix.
// The matrix should be the combined Projection * View matrix.
// Uses the Gribb/Hartmann method for plane extraction against a [0, 1] depth range.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: the view-projection matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustumFromMatrix(viewProj mgl32.Mat4) Frustum {
	var f Frustum
	r0, r1, r2, r3 := viewProj.Row(0), viewProj.Row(1), viewProj.Row(2), viewProj.Row(3)

	rows := [6]mgl32.Vec4{
		FrustumLeft:   r3.Add(r0),
		FrustumRight:  r3.Sub(r0),
		FrustumBottom: r3.Add(r1),
		FrustumTop:    r3.Sub(r1),
		FrustumNear:   r2,
		FrustumFar:    r3.Sub(r2),
	}
	for i, row := range rows {
		f.Planes[i] = Plane{Normal: row.Vec3(), Distance: row[3]}
		f.normalizePlane(i)
	}

	return f
}

// normalizePlane normalizes a frustum plane so that the normal has unit length.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	length := p.Normal.Len()
	if length > 0 {
		invLen := 1.0 / length
		p.Normal = p.Normal.Mul(invLen)
		p.Distance *= invLen
	}
}

// IntersectsAABB reports whether the box is at least partially inside the frustum.
// The test is conservative: boxes near frustum corners may be reported as visible.
//
// Parameters:
//   - b: the world-space box to test
//
// Returns:
//   - bool: false only if the box lies entirely outside one of the planes
func (f *Frustum) IntersectsAABB(b AABB) bool {
	if b.IsEmpty() {
		return false
	}
	for _, p := range f.Planes {
		// pick the box corner furthest along the plane normal
		var v mgl32.Vec3
		for axis := 0; axis < 3; axis++ {
			if p.Normal[axis] >= 0 {
				v[axis] = b.Max[axis]
			} else {
				v[axis] = b.Min[axis]
			}
		}
		if p.Normal.Dot(v)+p.Distance < 0 {
			return false
		}
	}
	return true
}
