package light

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLightDefaults(t *testing.T) {
	l := NewLight(LightTypeSpot, WithDirection(mgl32.Vec3{0, -2, 0}), WithSpotCone(0, 90))

	assert.Equal(t, mgl32.Vec3{0, -1, 0}, l.Direction())
	assert.InDelta(t, 1, l.InnerCone(), 1e-6)
	assert.InDelta(t, 0, l.OuterCone(), 1e-6)
	assert.True(t, l.Enabled())
	assert.Equal(t, "light", l.ComponentType())
}

func TestMarshalLightBuffer(t *testing.T) {
	l := NewLight(LightTypePoint, WithCastsShadows(true), WithIntensity(2))
	gpu := ToGPULight(l, mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 0, -1})

	buf := MarshalLightBuffer([]GPULight{gpu, gpu}, mgl32.Vec3{0.1, 0.1, 0.1})
	require.Len(t, buf, 16+2*64)

	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(buf[12:16]))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[16:20])))
	assert.Equal(t, uint32(LightTypePoint), binary.LittleEndian.Uint32(buf[28:32]))
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(buf[44:48])))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[72:76]))
}

func TestShadowViewProjectionCentersTarget(t *testing.T) {
	center := mgl32.Vec3{5, 0, 5}
	vp := ShadowViewProjection(mgl32.Vec3{0, -1, 0}, center, 10, 0.1, 100)

	clip := vp.Mul4x1(center.Vec4(1))
	assert.InDelta(t, 0, clip.X(), 1e-4)
	assert.InDelta(t, 0, clip.Y(), 1e-4)
	assert.Greater(t, clip.Z(), float32(0))
	assert.Less(t, clip.Z(), float32(1))
}
