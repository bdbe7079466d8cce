package model

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCubeGeometry(t *testing.T) {
	m := NewCube("cube", 0.5)

	assert.Equal(t, 36, m.IndexCount())
	assert.Equal(t, 12, m.TriangleCount())
	assert.Len(t, m.VertexData(), 24*32)
	assert.Len(t, m.IndexData(), 36*4)

	b := m.Bounds()
	assert.Equal(t, mgl32.Vec3{-0.5, -0.5, -0.5}, b.Min)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, b.Max)

	a, bb, c := m.Triangle(0)
	assert.Equal(t, float32(0.5), a.X())
	assert.Equal(t, float32(0.5), bb.X())
	assert.Equal(t, float32(0.5), c.X())
}

func TestSetGeometryBumpsVersion(t *testing.T) {
	m := NewQuad("quad", 2, 2)
	v := m.Version()

	_, ok := m.Handle()
	require.False(t, ok)
	m.SetHandle(7)
	h, ok := m.Handle()
	require.True(t, ok)
	assert.Equal(t, MeshHandle(7), h)

	m.SetGeometry(m.Vertices()[:3], []uint32{0, 1, 2})
	assert.Greater(t, m.Version(), v)
	assert.Equal(t, 1, m.TriangleCount())
}

func TestVertexMarshal(t *testing.T) {
	v := GPUVertex{Position: [3]float32{1, 2, 3}}
	assert.Equal(t, 32, v.Size())
	assert.Len(t, v.Marshal(), 32)
}
