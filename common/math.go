package common

import (
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// rayEpsilon is the determinant threshold below which a ray is treated as parallel to a triangle.
const rayEpsilon = 1e-7

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// Ray is a half-line in 3D space. Direction does not need to be normalized, but distances
// reported by the intersection helpers are expressed in multiples of its length.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// At returns the point reached after travelling t units along the ray.
//
// Parameters:
//   - t: the parametric distance along the ray
//
// Returns:
//   - mgl32.Vec3: Origin + Direction * t
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Transform returns the ray expressed in the space described by m.
// The origin is transformed as a point and the direction as a vector, so a world-space ray
// transformed by the inverse of a model matrix lands in that model's local space.
//
// Parameters:
//   - m: the 4x4 column-major transform to apply
//
// Returns:
//   - Ray: the transformed ray
func (r Ray) Transform(m mgl32.Mat4) Ray {
	return Ray{
		Origin:    mgl32.TransformCoordinate(r.Origin, m),
		Direction: mgl32.TransformNormal(r.Direction, m),
	}
}

// AABB is an axis-aligned bounding box. The zero value is a degenerate box at the origin;
// use EmptyAABB to start accumulating points.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyAABB returns an inverted box that any call to Extend will collapse onto the first point.
//
// Returns:
//   - AABB: a box with Min at +Inf and Max at -Inf
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether the box contains no points.
//
// Returns:
//   - bool: true if any Min component is greater than the matching Max component
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Extend grows the box so that it contains p.
//
// Parameters:
//   - p: the point to include
//
// Returns:
//   - AABB: the grown box
func (b AABB) Extend(p mgl32.Vec3) AABB {
	for i := 0; i < 3; i++ {
		b.Min[i] = math32.Min(b.Min[i], p[i])
		b.Max[i] = math32.Max(b.Max[i], p[i])
	}
	return b
}

// Center returns the midpoint of the box.
//
// Returns:
//   - mgl32.Vec3: (Min + Max) / 2
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Corners returns the eight corners of the box.
//
// Returns:
//   - [8]mgl32.Vec3: the box corners
func (b AABB) Corners() [8]mgl32.Vec3 {
	var out [8]mgl32.Vec3
	for i := range out {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				out[i][axis] = b.Max[axis]
			} else {
				out[i][axis] = b.Min[axis]
			}
		}
	}
	return out
}

// Transform returns the axis-aligned box enclosing this box after transformation by m.
//
// Parameters:
//   - m: the 4x4 column-major transform to apply
//
// Returns:
//   - AABB: the enclosing box in the target space
func (b AABB) Transform(m mgl32.Mat4) AABB {
	if b.IsEmpty() {
		return b
	}
	out := EmptyAABB()
	for _, c := range b.Corners() {
		out = out.Extend(mgl32.TransformCoordinate(c, m))
	}
	return out
}

// IntersectRayAABB tests a ray against an axis-aligned box using the slab method.
// A ray starting inside the box reports a hit at distance 0.
//
// Parameters:
//   - r: the ray to test
//   - b: the box to test against
//
// Returns:
//   - float32: the entry distance along the ray
//   - bool: true if the ray hits the box
func IntersectRayAABB(r Ray, b AABB) (float32, bool) {
	if b.IsEmpty() {
		return 0, false
	}
	tMin := float32(0)
	tMax := math32.Inf(1)
	for axis := 0; axis < 3; axis++ {
		d := r.Direction[axis]
		o := r.Origin[axis]
		if math32.Abs(d) < rayEpsilon {
			if o < b.Min[axis] || o > b.Max[axis] {
				return 0, false
			}
			continue
		}
		inv := 1 / d
		t1 := (b.Min[axis] - o) * inv
		t2 := (b.Max[axis] - o) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math32.Max(tMin, t1)
		tMax = math32.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}

// IntersectRayTriangle tests a ray against a triangle using the Möller–Trumbore algorithm.
// Both faces of the triangle are considered.
//
// Parameters:
//   - r: the ray to test
//   - a, b, c: the triangle vertices
//
// Returns:
//   - float32: the hit distance along the ray
//   - bool: true if the ray hits the triangle in front of its origin
func IntersectRayTriangle(r Ray, a, b, c mgl32.Vec3) (float32, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if math32.Abs(det) < rayEpsilon {
		return 0, false
	}
	invDet := 1 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Direction.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * invDet
	if t < 0 {
		return 0, false
	}
	return t, true
}

// DecomposeTransform splits a 4x4 affine transform into translation, rotation and scale.
// Shear is not supported; a zero-scaled axis yields the identity rotation.
//
// Parameters:
//   - m: the 4x4 column-major transform to decompose
//
// Returns:
//   - mgl32.Vec3: the translation
//   - mgl32.Quat: the rotation
//   - mgl32.Vec3: the per-axis scale
func DecomposeTransform(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	pos := m.Col(3).Vec3()
	x := m.Col(0).Vec3()
	y := m.Col(1).Vec3()
	z := m.Col(2).Vec3()
	scale := mgl32.Vec3{x.Len(), y.Len(), z.Len()}
	if scale[0] == 0 || scale[1] == 0 || scale[2] == 0 {
		return pos, mgl32.QuatIdent(), scale
	}
	x = x.Mul(1 / scale[0])
	y = y.Mul(1 / scale[1])
	z = z.Mul(1 / scale[2])
	rot := mgl32.Mat4FromCols(x.Vec4(0), y.Vec4(0), z.Vec4(0), mgl32.Vec4{0, 0, 0, 1})
	return pos, mgl32.Mat4ToQuat(rot).Normalize(), scale
}
