package camera

import (
	"github.com/go-gl/mathgl/mgl32"
)

// ProjectionKind selects between perspective and orthographic projection.
type ProjectionKind int

const (
	// ProjectionPerspective projects with a vertical field of view.
	ProjectionPerspective ProjectionKind = iota

	// ProjectionOrthographic projects a box of fixed height, with width derived from the aspect ratio.
	ProjectionOrthographic
)

// Projection holds the parameters of a projection matrix. It is embedded in every Camera and may
// also be attached to a scene node on its own, for example as a shadow or reflection projector.
type Projection struct {
	Kind ProjectionKind

	// Fov is the vertical field of view in radians. Perspective only.
	Fov float32
	// Height is the full vertical extent of the view volume. Orthographic only.
	Height float32

	Aspect float32
	Near   float32
	Far    float32
}

// DefaultProjection returns a 45 degree perspective projection with a 1:1 aspect ratio.
//
// Returns:
//   - Projection: the default projection
func DefaultProjection() Projection {
	return Projection{
		Kind:   ProjectionPerspective,
		Fov:    mgl32.DegToRad(45),
		Height: 10,
		Aspect: 1,
		Near:   0.1,
		Far:    100,
	}
}

// Matrix builds the projection matrix for WebGPU clip space, where depth maps to [0, 1].
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func (p *Projection) Matrix() mgl32.Mat4 {
	var m mgl32.Mat4
	switch p.Kind {
	case ProjectionOrthographic:
		halfH := p.Height / 2
		halfW := halfH * p.Aspect
		m = mgl32.Ortho(-halfW, halfW, -halfH, halfH, p.Near, p.Far)
	default:
		m = mgl32.Perspective(p.Fov, p.Aspect, p.Near, p.Far)
	}
	return depthZeroToOne.Mul4(m)
}

// ComponentType identifies the projection as a scene component.
func (p *Projection) ComponentType() string {
	return "projection"
}

// depthZeroToOne remaps the OpenGL [-1, 1] depth range produced by mgl32 to [0, 1].
var depthZeroToOne = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}
