package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestPerspectiveDepthRange(t *testing.T) {
	c := NewCamera(WithNear(1), WithFar(10))
	m := c.ProjectionMatrix()

	near := m.Mul4x1(mgl32.Vec4{0, 0, -1, 1})
	far := m.Mul4x1(mgl32.Vec4{0, 0, -10, 1})

	assert.InDelta(t, 0, near.Z()/near.W(), 1e-5)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-5)
}

func TestOrthographicExtent(t *testing.T) {
	c := NewCamera(WithOrthographic(4), WithAspect(2), WithNear(0), WithFar(10))
	m := c.ProjectionMatrix()

	corner := m.Mul4x1(mgl32.Vec4{4, 2, -5, 1})
	assert.InDelta(t, 1, corner.X(), 1e-5)
	assert.InDelta(t, 1, corner.Y(), 1e-5)
	assert.InDelta(t, 0.5, corner.Z(), 1e-5)
}

func TestSetters(t *testing.T) {
	c := NewCamera()
	c.SetAspect(1.5)
	c.SetActive(false)

	assert.Equal(t, float32(1.5), c.Aspect())
	assert.Equal(t, float32(1.5), c.Projection().Aspect)
	assert.False(t, c.Active())
	assert.Equal(t, "camera", c.ComponentType())
}
