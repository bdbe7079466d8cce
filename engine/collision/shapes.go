package collision

import (
	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// planeExtent bounds the infinite extent of a static plane.
const planeExtent float32 = 1e18

var (
	_ Shape = &Box{}
	_ Shape = &Sphere{}
	_ Shape = &Capsule{}
	_ Shape = &Cylinder{}
	_ Shape = &Cone{}
	_ Shape = &StaticPlane{}
	_ Shape = &Compound{}
	_ Shape = &TriangleMesh{}
)

// Box is an axis-aligned box centered on the origin.
type Box struct {
	shapeBase
	HalfExtents mgl32.Vec3
}

// NewBox creates a box shape.
//
// Parameters:
//   - halfExtents: half the box size on each axis
//
// Returns:
//   - *Box: the shape
func NewBox(halfExtents mgl32.Vec3) *Box {
	return &Box{shapeBase: newShapeBase(), HalfExtents: halfExtents}
}

func (s *Box) Kind() ShapeKind { return KindBox }

func (s *Box) LocalBounds() common.AABB {
	return s.grow(common.AABB{Min: s.HalfExtents.Mul(-1), Max: s.HalfExtents})
}

// Sphere is a sphere centered on the origin.
type Sphere struct {
	shapeBase
	Radius float32
}

// NewSphere creates a sphere shape.
func NewSphere(radius float32) *Sphere {
	return &Sphere{shapeBase: newShapeBase(), Radius: radius}
}

func (s *Sphere) Kind() ShapeKind { return KindSphere }

func (s *Sphere) LocalBounds() common.AABB {
	r := mgl32.Vec3{s.Radius, s.Radius, s.Radius}
	return s.grow(common.AABB{Min: r.Mul(-1), Max: r})
}

// Capsule is a cylinder along the Y axis capped by two hemispheres.
type Capsule struct {
	shapeBase
	Radius float32
	// HalfHeight is half the length of the cylindrical part.
	HalfHeight float32
}

// NewCapsule creates a capsule shape along the Y axis.
//
// Parameters:
//   - radius: the radius of the cylinder and caps
//   - height: the length of the cylindrical part
//
// Returns:
//   - *Capsule: the shape
func NewCapsule(radius, height float32) *Capsule {
	return &Capsule{shapeBase: newShapeBase(), Radius: radius, HalfHeight: height / 2}
}

func (s *Capsule) Kind() ShapeKind { return KindCapsule }

func (s *Capsule) LocalBounds() common.AABB {
	h := mgl32.Vec3{s.Radius, s.HalfHeight + s.Radius, s.Radius}
	return s.grow(common.AABB{Min: h.Mul(-1), Max: h})
}

// Cylinder is a cylinder along the Y axis.
type Cylinder struct {
	shapeBase
	Radius     float32
	HalfHeight float32
}

// NewCylinder creates a cylinder shape along the Y axis.
//
// Parameters:
//   - radius: the cylinder radius
//   - height: the cylinder length
//
// Returns:
//   - *Cylinder: the shape
func NewCylinder(radius, height float32) *Cylinder {
	return &Cylinder{shapeBase: newShapeBase(), Radius: radius, HalfHeight: height / 2}
}

func (s *Cylinder) Kind() ShapeKind { return KindCylinder }

func (s *Cylinder) LocalBounds() common.AABB {
	h := mgl32.Vec3{s.Radius, s.HalfHeight, s.Radius}
	return s.grow(common.AABB{Min: h.Mul(-1), Max: h})
}

// Cone is a cone along the Y axis with its base at -Height/2 and its apex at +Height/2.
type Cone struct {
	shapeBase
	Radius float32
	Height float32
}

// NewCone creates a cone shape along the Y axis.
func NewCone(radius, height float32) *Cone {
	return &Cone{shapeBase: newShapeBase(), Radius: radius, Height: height}
}

func (s *Cone) Kind() ShapeKind { return KindCone }

func (s *Cone) LocalBounds() common.AABB {
	h := mgl32.Vec3{s.Radius, s.Height / 2, s.Radius}
	return s.grow(common.AABB{Min: h.Mul(-1), Max: h})
}

// StaticPlane is the infinite plane of points p with Normal·p = Constant.
type StaticPlane struct {
	shapeBase
	Normal   mgl32.Vec3
	Constant float32
}

// NewStaticPlane creates a plane shape. The normal is normalized.
//
// Parameters:
//   - normal: the plane normal
//   - constant: the signed distance of the plane from the origin along the normal
//
// Returns:
//   - *StaticPlane: the shape
func NewStaticPlane(normal mgl32.Vec3, constant float32) *StaticPlane {
	if normal.Len() > 0 {
		normal = normal.Normalize()
	}
	return &StaticPlane{shapeBase: newShapeBase(), Normal: normal, Constant: constant}
}

func (s *StaticPlane) Kind() ShapeKind { return KindStaticPlane }

// LocalBounds is unbounded except along an axis-aligned normal, where the box is flat.
func (s *StaticPlane) LocalBounds() common.AABB {
	out := common.AABB{
		Min: mgl32.Vec3{-planeExtent, -planeExtent, -planeExtent},
		Max: mgl32.Vec3{planeExtent, planeExtent, planeExtent},
	}
	for i := 0; i < 3; i++ {
		if math32.Abs(s.Normal[i]) == 1 {
			d := s.Constant * s.Normal[i] * s.scaling[i]
			out.Min[i] = d - s.margin
			out.Max[i] = d + s.margin
		}
	}
	return out
}

// CompoundChild is a shape placed inside a Compound.
type CompoundChild struct {
	Transform mgl32.Mat4
	Shape     Shape
}

// Compound groups child shapes, each with its own transform.
type Compound struct {
	shapeBase
	children []CompoundChild
}

// NewCompound creates an empty compound shape.
func NewCompound() *Compound {
	return &Compound{shapeBase: newShapeBase()}
}

func (s *Compound) Kind() ShapeKind { return KindCompound }

// AddChild appends a child shape.
//
// Parameters:
//   - transform: the child's placement inside the compound
//   - child: the child shape
func (s *Compound) AddChild(transform mgl32.Mat4, child Shape) {
	if child == nil {
		return
	}
	s.children = append(s.children, CompoundChild{Transform: transform, Shape: child})
}

// Children returns the child shapes in insertion order.
func (s *Compound) Children() []CompoundChild {
	return s.children
}

func (s *Compound) LocalBounds() common.AABB {
	box := common.EmptyAABB()
	for _, c := range s.children {
		cb := c.Shape.LocalBounds().Transform(c.Transform)
		box = box.Extend(cb.Min).Extend(cb.Max)
	}
	if box.IsEmpty() {
		return box
	}
	return s.grow(box)
}

// TriangleMesh is an indexed triangle soup, typically used for static level geometry.
type TriangleMesh struct {
	shapeBase
	Vertices []mgl32.Vec3
	Indices  []uint32
}

// NewTriangleMesh creates a triangle mesh shape. Indices are read three at a time.
//
// Parameters:
//   - vertices: the mesh vertices
//   - indices: the triangle list indices
//
// Returns:
//   - *TriangleMesh: the shape
func NewTriangleMesh(vertices []mgl32.Vec3, indices []uint32) *TriangleMesh {
	return &TriangleMesh{shapeBase: newShapeBase(), Vertices: vertices, Indices: indices}
}

func (s *TriangleMesh) Kind() ShapeKind { return KindTriangleMesh }

// TriangleCount returns the number of complete triangles.
func (s *TriangleMesh) TriangleCount() int {
	return len(s.Indices) / 3
}

// Triangle returns the scaled corners of the i-th triangle.
func (s *TriangleMesh) Triangle(i int) (a, b, c mgl32.Vec3) {
	a = mulVec(s.Vertices[s.Indices[3*i]], s.scaling)
	b = mulVec(s.Vertices[s.Indices[3*i+1]], s.scaling)
	c = mulVec(s.Vertices[s.Indices[3*i+2]], s.scaling)
	return a, b, c
}

func (s *TriangleMesh) LocalBounds() common.AABB {
	box := common.EmptyAABB()
	for _, v := range s.Vertices {
		box = box.Extend(v)
	}
	if box.IsEmpty() {
		return box
	}
	return s.grow(box)
}
