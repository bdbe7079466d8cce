package light

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ShadowMapResolution is the default width and height in texels of a shadow depth texture.
const ShadowMapResolution = 2048

// DefaultShadowHalfExtent is the default orthographic half-extent (in world units)
// used for the directional light shadow frustum.
const DefaultShadowHalfExtent float32 = 40.0

// DefaultShadowNear is the default near plane for the directional light's
// orthographic shadow projection.
const DefaultShadowNear float32 = 0.1

// DefaultShadowFar is the default far plane for the directional light's
// orthographic shadow projection.
const DefaultShadowFar float32 = 200.0

// ShadowViewProjection builds an orthographic view-projection matrix for a directional light's
// shadow pass. The frustum is centered on center (typically the camera position) and looks along
// the light's world direction. Depth maps to [0, 1].
//
// Parameters:
//   - worldDir: normalized direction the light points (from light toward scene)
//   - center: world-space center of the shadow frustum
//   - halfExtent: half-size of the orthographic frustum in world units
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - mgl32.Mat4: the light view-projection matrix
func ShadowViewProjection(worldDir, center mgl32.Vec3, halfExtent, near, far float32) mgl32.Mat4 {
	// the eye sits behind the center, opposite the light direction
	eye := center.Sub(worldDir.Mul(far * 0.5))

	up := mgl32.Vec3{0, 1, 0}
	if math32.Abs(worldDir.Y()) > 0.99 {
		up = mgl32.Vec3{1, 0, 0}
	}

	view := mgl32.LookAtV(eye, center, up)
	proj := mgl32.Ortho(-halfExtent, halfExtent, -halfExtent, halfExtent, near, far)
	zeroToOne := mgl32.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 0.5, 0,
		0, 0, 0.5, 1,
	}
	return zeroToOne.Mul4(proj).Mul4(view)
}

// ShadowNormalBias derives the world-space normal-offset bias from the shadow map parameters:
// the world size of one shadow texel times scale.
//
// Parameters:
//   - halfExtent: orthographic frustum half-size in world units
//   - scale: multiplier on the per-texel world size (typically 2.0 to 4.0)
//   - resolution: shadow map resolution in texels
//
// Returns:
//   - float32: the normal bias distance
func ShadowNormalBias(halfExtent, scale float32, resolution int) float32 {
	return 2.0 * halfExtent / float32(resolution) * scale
}
