package light

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithName is an option builder that sets the light name.
//
// Parameters:
//   - name: the light name
//
// Returns:
//   - LightBuilderOption: a function that applies the name option to a lightImpl
func WithName(name string) LightBuilderOption {
	return func(l *lightImpl) {
		l.name = name
	}
}

// WithDirection is an option builder that sets the local emission axis of the light.
// The direction is normalized before storing.
//
// Parameters:
//   - dir: the local direction
//
// Returns:
//   - LightBuilderOption: a function that applies the direction option to a lightImpl
func WithDirection(dir mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.direction = normalize(dir)
	}
}

// WithColor is an option builder that sets the RGB color of the light.
//
// Parameters:
//   - color: the color as (r, g, b)
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a lightImpl
func WithColor(color mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = color
	}
}

// WithIntensity is an option builder that sets the scalar intensity multiplier.
//
// Parameters:
//   - intensity: the intensity value
//
// Returns:
//   - LightBuilderOption: a function that applies the intensity option to a lightImpl
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.intensity = intensity
	}
}

// WithRange is an option builder that sets the maximum attenuation distance.
//
// Parameters:
//   - lightRange: the range value
//
// Returns:
//   - LightBuilderOption: a function that applies the range option to a lightImpl
func WithRange(lightRange float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.lightRange = lightRange
	}
}

// WithSpotCone is an option builder that sets the inner and outer cone half-angles in degrees.
//
// Parameters:
//   - innerDeg: inner cone half-angle in degrees
//   - outerDeg: outer cone half-angle in degrees
//
// Returns:
//   - LightBuilderOption: a function that applies the cone option to a lightImpl
func WithSpotCone(innerDeg, outerDeg float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.innerCone = cosDeg(innerDeg)
		l.outerCone = cosDeg(outerDeg)
	}
}

// WithEnabled is an option builder that sets whether the light is active.
//
// Parameters:
//   - enabled: true to enable
//
// Returns:
//   - LightBuilderOption: a function that applies the enabled option to a lightImpl
func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.enabled = enabled
	}
}

// WithCastsShadows is an option builder that sets whether the light is eligible for shadow mapping.
//
// Parameters:
//   - castsShadows: true to enable shadow casting
//
// Returns:
//   - LightBuilderOption: a function that applies the shadow option to a lightImpl
func WithCastsShadows(castsShadows bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.castsShadows = castsShadows
	}
}

// normalize returns v scaled to unit length, or the zero vector for a zero-length input.
func normalize(v mgl32.Vec3) mgl32.Vec3 {
	if v.Len() == 0 {
		return mgl32.Vec3{}
	}
	return v.Normalize()
}

// cosDeg converts an angle in degrees to the cosine of that angle.
func cosDeg(deg float32) float32 {
	return math32.Cos(mgl32.DegToRad(deg))
}
