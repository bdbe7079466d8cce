package camera

type CameraBuilderOption func(*cameraImpl)

// WithName sets the camera name.
//
// Parameters:
//   - name: the camera name
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's name
func WithName(name string) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.name = name
	}
}

// WithFov sets the camera's vertical field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.projection.Fov = fov
	}
}

// WithAspect sets the camera's aspect ratio (width / height).
//
// Parameters:
//   - aspect: the aspect ratio to set
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's aspect ratio
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.projection.Aspect = aspect
	}
}

// WithNear sets the near clipping plane distance.
//
// Parameters:
//   - near: near plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the near plane
func WithNear(near float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.projection.Near = near
	}
}

// WithFar sets the far clipping plane distance.
//
// Parameters:
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: functional option to set the far plane
func WithFar(far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.projection.Far = far
	}
}

// WithOrthographic switches the camera to an orthographic projection of the given view height.
//
// Parameters:
//   - height: the full vertical extent of the view volume
//
// Returns:
//   - CameraBuilderOption: functional option to set an orthographic projection
func WithOrthographic(height float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.projection.Kind = ProjectionOrthographic
		c.projection.Height = height
	}
}
