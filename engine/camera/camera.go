package camera

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	name       string
	projection Projection
	active     bool
}

// Camera defines the interface for a camera component.
//
// A camera only owns its projection. Its placement in the world is the accumulated transform of
// the scene node it is attached to, resolved by the camera visitor; the view matrix is the inverse
// of that world transform.
type Camera interface {
	// Name returns the camera name.
	//
	// Returns:
	//   - string: the camera name
	Name() string

	// Projection returns a copy of the camera's projection parameters.
	//
	// Returns:
	//   - Projection: the projection parameters
	Projection() Projection

	// ProjectionMatrix returns the current projection matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	ProjectionMatrix() mgl32.Mat4

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// Active reports whether the camera should be rendered from.
	//
	// Returns:
	//   - bool: true if the camera is active
	Active() bool

	// SetFov sets the vertical field of view in radians.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height). Called by the engine on window resize.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// SetNear sets the near clipping plane distance.
	//
	// Parameters:
	//   - near: near plane distance
	SetNear(near float32)

	// SetFar sets the far clipping plane distance.
	//
	// Parameters:
	//   - far: far plane distance
	SetFar(far float32)

	// SetActive enables or disables rendering from this camera.
	//
	// Parameters:
	//   - active: true to enable
	SetActive(active bool)

	// ComponentType identifies the camera as a scene component.
	//
	// Returns:
	//   - string: "camera"
	ComponentType() string
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new active Camera with the default perspective projection.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:         &sync.Mutex{},
		projection: DefaultProjection(),
		active:     true,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *cameraImpl) Name() string {
	return c.name
}

func (c *cameraImpl) Projection() Projection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection.Matrix()
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection.Fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection.Aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection.Near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection.Far
}

func (c *cameraImpl) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projection.Fov = fov
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projection.Aspect = aspect
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projection.Near = near
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projection.Far = far
}

func (c *cameraImpl) SetActive(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = active
}

func (c *cameraImpl) ComponentType() string {
	return "camera"
}
