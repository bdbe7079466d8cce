// Package collision models collision shapes as a closed set of variants sharing one capability
// interface. Shapes are plain data until they are attached to an Implementor, a native physics
// backend that mirrors them; after that, margin and scaling changes are forwarded to it.
package collision

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultMargin is the collision margin given to new shapes.
const DefaultMargin float32 = 0.04

// ShapeKind identifies a shape variant.
type ShapeKind int

const (
	KindBox ShapeKind = iota
	KindSphere
	KindCapsule
	KindCylinder
	KindCone
	KindStaticPlane
	KindCompound
	KindTriangleMesh
)

var kindNames = [...]string{
	KindBox:          "box",
	KindSphere:       "sphere",
	KindCapsule:      "capsule",
	KindCylinder:     "cylinder",
	KindCone:         "cone",
	KindStaticPlane:  "static_plane",
	KindCompound:     "compound",
	KindTriangleMesh: "triangle_mesh",
}

func (k ShapeKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("ShapeKind(%d)", int(k))
	}
	return kindNames[k]
}

// ErrAlreadyAttached is returned when attaching a shape that is already mirrored by an implementor.
var ErrAlreadyAttached = errors.New("collision: shape already attached")

// Shape is the capability interface shared by every shape variant. The set of variants is closed:
// *Box, *Sphere, *Capsule, *Cylinder, *Cone, *StaticPlane, *Compound and *TriangleMesh.
// Code that needs variant data switches on the concrete type.
type Shape interface {
	// Kind returns the variant tag.
	Kind() ShapeKind

	// Margin returns the collision margin.
	Margin() float32

	// SetMargin sets the collision margin and forwards it to the attached implementor.
	//
	// Parameters:
	//   - m: the new margin, clamped to be non-negative
	SetMargin(m float32)

	// LocalScaling returns the per-axis scaling applied to the shape.
	LocalScaling() mgl32.Vec3

	// SetLocalScaling sets the per-axis scaling and forwards it to the attached implementor.
	//
	// Parameters:
	//   - s: the new scaling
	SetLocalScaling(s mgl32.Vec3)

	// LocalBounds returns the shape's bounding box in its own space, scaled and grown by the margin.
	//
	// Returns:
	//   - common.AABB: the local bounds
	LocalBounds() common.AABB

	// ComponentType identifies the shape as a scene component.
	ComponentType() string

	base() *shapeBase
}

// ShapeHandle identifies a shape inside an Implementor.
type ShapeHandle uint64

// Implementor is the native physics backend that mirrors shapes.
type Implementor interface {
	// CreateShape creates the native counterpart of a shape.
	//
	// Parameters:
	//   - s: the shape to mirror
	//
	// Returns:
	//   - ShapeHandle: the native handle
	//   - error: error if the backend cannot represent the shape
	CreateShape(s Shape) (ShapeHandle, error)

	// DestroyShape releases a native shape.
	DestroyShape(h ShapeHandle)

	// SetMargin updates the margin of a native shape.
	SetMargin(h ShapeHandle, m float32)

	// SetLocalScaling updates the scaling of a native shape.
	SetLocalScaling(h ShapeHandle, s mgl32.Vec3)
}

// shapeBase holds the state common to every variant.
type shapeBase struct {
	margin  float32
	scaling mgl32.Vec3

	impl   Implementor
	handle ShapeHandle
}

func newShapeBase() shapeBase {
	return shapeBase{margin: DefaultMargin, scaling: mgl32.Vec3{1, 1, 1}}
}

func (b *shapeBase) base() *shapeBase {
	return b
}

func (b *shapeBase) Margin() float32 {
	return b.margin
}

func (b *shapeBase) SetMargin(m float32) {
	if m < 0 {
		m = 0
	}
	b.margin = m
	if b.impl != nil {
		b.impl.SetMargin(b.handle, m)
	}
}

func (b *shapeBase) LocalScaling() mgl32.Vec3 {
	return b.scaling
}

func (b *shapeBase) SetLocalScaling(s mgl32.Vec3) {
	b.scaling = s
	if b.impl != nil {
		b.impl.SetLocalScaling(b.handle, s)
	}
}

func (b *shapeBase) ComponentType() string {
	return "collision_shape"
}

// grow scales a box and pads it by the margin.
func (b *shapeBase) grow(box common.AABB) common.AABB {
	out := common.AABB{
		Min: mulVec(box.Min, b.scaling),
		Max: mulVec(box.Max, b.scaling),
	}
	for i := 0; i < 3; i++ {
		if out.Min[i] > out.Max[i] {
			out.Min[i], out.Max[i] = out.Max[i], out.Min[i]
		}
		out.Min[i] -= b.margin
		out.Max[i] += b.margin
	}
	return out
}

func mulVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// Attach mirrors a shape in an implementor. Subsequent SetMargin and SetLocalScaling calls are
// forwarded to it.
//
// Parameters:
//   - s: the shape
//   - impl: the native backend
//
// Returns:
//   - ShapeHandle: the native handle
//   - error: ErrAlreadyAttached, or the implementor's error
func Attach(s Shape, impl Implementor) (ShapeHandle, error) {
	if impl == nil {
		panic("collision: nil implementor")
	}
	b := s.base()
	if b.impl != nil {
		return 0, ErrAlreadyAttached
	}
	h, err := impl.CreateShape(s)
	if err != nil {
		return 0, fmt.Errorf("collision: create %s: %w", s.Kind(), err)
	}
	b.impl = impl
	b.handle = h
	return h, nil
}

// Detach destroys the native counterpart of a shape. Detaching an unattached shape is a no-op.
//
// Parameters:
//   - s: the shape
func Detach(s Shape) {
	b := s.base()
	if b.impl == nil {
		return
	}
	b.impl.DestroyShape(b.handle)
	b.impl = nil
	b.handle = 0
}

// Attached reports whether a shape is mirrored by an implementor.
func Attached(s Shape) bool {
	return s.base().impl != nil
}
