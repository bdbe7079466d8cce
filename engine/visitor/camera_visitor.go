package visitor

import (
	"iter"

	"github.com/Carmen-Shannon/oxy-core/engine/camera"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-core/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraResult is a camera resolved to world space.
type CameraResult struct {
	Camera camera.Camera
	Node   scene.Node
	// World is the camera's accumulated model matrix.
	World mgl32.Mat4
	// View is the inverse of World.
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

// ViewProjection returns Projection * View.
func (r CameraResult) ViewProjection() mgl32.Mat4 {
	return r.Projection.Mul4(r.View)
}

// Position returns the camera's world-space position.
func (r CameraResult) Position() mgl32.Vec3 {
	return r.World.Col(3).Vec3()
}

// CameraVisitor collects the cameras of a graph.
type CameraVisitor struct {
	activeOnly bool
}

// NewCameraVisitor creates a camera visitor.
//
// Parameters:
//   - activeOnly: skip cameras whose Active flag is false
//
// Returns:
//   - *CameraVisitor: the visitor
func NewCameraVisitor(activeOnly bool) *CameraVisitor {
	return &CameraVisitor{activeOnly: activeOnly}
}

// Convert returns a lazy sequence of the cameras under root, in traversal order. Every range over
// the sequence walks the graph again from a fresh state.
//
// Parameters:
//   - root: the graph root
//
// Returns:
//   - iter.Seq[CameraResult]: the cameras
func (v *CameraVisitor) Convert(root scene.Node) iter.Seq[CameraResult] {
	return func(yield func(CameraResult) bool) {
		NewWalker().Walk(root, func(n scene.Node, c scene.Component, s *state.RendererState) bool {
			cam, ok := c.(camera.Camera)
			if !ok || (v.activeOnly && !cam.Active()) {
				return true
			}
			world := s.ModelMatrix().Top()
			return yield(CameraResult{
				Camera:     cam,
				Node:       n,
				World:      world,
				View:       world.Inv(),
				Projection: cam.ProjectionMatrix(),
			})
		})
	}
}

// First returns the first camera under root.
//
// Parameters:
//   - root: the graph root
//
// Returns:
//   - CameraResult: the camera
//   - bool: false if the graph holds no camera
func (v *CameraVisitor) First(root scene.Node) (CameraResult, bool) {
	for r := range v.Convert(root) {
		return r, true
	}
	return CameraResult{}, false
}

// ProjectionResult is a standalone projection resolved to world space.
type ProjectionResult struct {
	Projection *camera.Projection
	Node       scene.Node
	World      mgl32.Mat4
	// Matrix is the projection matrix.
	Matrix mgl32.Mat4
}

// ViewProjection returns Matrix * inverse(World).
func (r ProjectionResult) ViewProjection() mgl32.Mat4 {
	return r.Matrix.Mul4(r.World.Inv())
}

// ProjectionVisitor collects the standalone *camera.Projection components of a graph, such as
// shadow or reflection projectors. Projections embedded in cameras are not reported.
type ProjectionVisitor struct{}

// NewProjectionVisitor creates a projection visitor.
func NewProjectionVisitor() *ProjectionVisitor {
	return &ProjectionVisitor{}
}

// Convert returns a lazy sequence of the projections under root, in traversal order.
//
// Parameters:
//   - root: the graph root
//
// Returns:
//   - iter.Seq[ProjectionResult]: the projections
func (v *ProjectionVisitor) Convert(root scene.Node) iter.Seq[ProjectionResult] {
	return func(yield func(ProjectionResult) bool) {
		NewWalker().Walk(root, func(n scene.Node, c scene.Component, s *state.RendererState) bool {
			p, ok := c.(*camera.Projection)
			if !ok || p == nil {
				return true
			}
			return yield(ProjectionResult{
				Projection: p,
				Node:       n,
				World:      s.ModelMatrix().Top(),
				Matrix:     p.Matrix(),
			})
		})
	}
}
