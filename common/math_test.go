package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitBox() AABB {
	return AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
}

func TestAABBExtendAndTransform(t *testing.T) {
	b := EmptyAABB()
	assert.True(t, b.IsEmpty())

	b = b.Extend(mgl32.Vec3{1, 2, 3}).Extend(mgl32.Vec3{-1, 0, 5})
	assert.False(t, b.IsEmpty())
	assert.Equal(t, mgl32.Vec3{-1, 0, 3}, b.Min)
	assert.Equal(t, mgl32.Vec3{1, 2, 5}, b.Max)
	assert.Equal(t, mgl32.Vec3{0, 1, 4}, b.Center())

	moved := unitBox().Transform(mgl32.Translate3D(5, 0, 0).Mul4(mgl32.Scale3D(2, 1, 1)))
	assert.InDeltaSlice(t, []float32{3, -1, -1}, moved.Min[:], 1e-5)
	assert.InDeltaSlice(t, []float32{7, 1, 1}, moved.Max[:], 1e-5)

	assert.True(t, EmptyAABB().Transform(mgl32.Scale3D(2, 2, 2)).IsEmpty())
}

func TestIntersectRayAABB(t *testing.T) {
	tests := []struct {
		name string
		ray  Ray
		hit  bool
		dist float32
	}{
		{"front", Ray{Origin: mgl32.Vec3{0, 0, 5}, Direction: mgl32.Vec3{0, 0, -1}}, true, 4},
		{"inside", Ray{Origin: mgl32.Vec3{0, 0, 0}, Direction: mgl32.Vec3{1, 0, 0}}, true, 0},
		{"behind", Ray{Origin: mgl32.Vec3{0, 0, 5}, Direction: mgl32.Vec3{0, 0, 1}}, false, 0},
		{"parallel outside", Ray{Origin: mgl32.Vec3{0, 3, 5}, Direction: mgl32.Vec3{0, 0, -1}}, false, 0},
		{"scaled direction", Ray{Origin: mgl32.Vec3{0, 0, 5}, Direction: mgl32.Vec3{0, 0, -2}}, true, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := IntersectRayAABB(tt.ray, unitBox())
			require.Equal(t, tt.hit, ok)
			if ok {
				assert.InDelta(t, tt.dist, d, 1e-5)
			}
		})
	}

	_, ok := IntersectRayAABB(Ray{Direction: mgl32.Vec3{1, 0, 0}}, EmptyAABB())
	assert.False(t, ok)
}

func TestIntersectRayTriangle(t *testing.T) {
	a, b, c := mgl32.Vec3{-1, -1, 0}, mgl32.Vec3{1, -1, 0}, mgl32.Vec3{0, 1, 0}

	d, ok := IntersectRayTriangle(Ray{Origin: mgl32.Vec3{0, 0, 3}, Direction: mgl32.Vec3{0, 0, -1}}, a, b, c)
	require.True(t, ok)
	assert.InDelta(t, 3, d, 1e-5)

	_, ok = IntersectRayTriangle(Ray{Origin: mgl32.Vec3{0, 0, -3}, Direction: mgl32.Vec3{0, 0, -1}}, a, b, c)
	assert.False(t, ok, "triangle behind the origin")

	_, ok = IntersectRayTriangle(Ray{Origin: mgl32.Vec3{5, 0, 3}, Direction: mgl32.Vec3{0, 0, -1}}, a, b, c)
	assert.False(t, ok, "outside the edges")

	_, ok = IntersectRayTriangle(Ray{Origin: mgl32.Vec3{0, 0, 3}, Direction: mgl32.Vec3{1, 0, 0}}, a, b, c)
	assert.False(t, ok, "parallel to the plane")

	d, ok = IntersectRayTriangle(Ray{Origin: mgl32.Vec3{0, 0, -3}, Direction: mgl32.Vec3{0, 0, 1}}, a, b, c)
	require.True(t, ok, "back faces are hit too")
	assert.InDelta(t, 3, d, 1e-5)
}

func TestRayTransformPreservesDistance(t *testing.T) {
	world := mgl32.Translate3D(10, 0, 0).Mul4(mgl32.Scale3D(2, 2, 2))
	r := Ray{Origin: mgl32.Vec3{10, 0, 10}, Direction: mgl32.Vec3{0, 0, -1}}

	local := r.Transform(world.Inv())
	dLocal, ok := IntersectRayAABB(local, unitBox())
	require.True(t, ok)
	dWorld, ok := IntersectRayAABB(r, unitBox().Transform(world))
	require.True(t, ok)
	assert.InDelta(t, dWorld, dLocal, 1e-4)
	hit := r.At(dWorld)
	assert.InDeltaSlice(t, []float32{10, 0, 2}, hit[:], 1e-4)
}

func TestDecomposeTransform(t *testing.T) {
	rot := mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})
	m := mgl32.Translate3D(1, 2, 3).Mul4(rot.Mat4()).Mul4(mgl32.Scale3D(2, 3, 4))

	pos, q, scale := DecomposeTransform(m)
	assert.InDeltaSlice(t, []float32{1, 2, 3}, pos[:], 1e-5)
	assert.InDeltaSlice(t, []float32{2, 3, 4}, scale[:], 1e-5)
	want, got := rot.Rotate(mgl32.Vec3{1, 0, 0}), q.Rotate(mgl32.Vec3{1, 0, 0})
	assert.InDeltaSlice(t, want[:], got[:], 1e-5)

	for _, deg := range []float32{30, 170} {
		rot := mgl32.QuatRotate(mgl32.DegToRad(deg), mgl32.Vec3{0, 1, 0})
		_, q, _ := DecomposeTransform(mgl32.Translate3D(1, 2, 3).Mul4(rot.Mat4()))
		want, got := rot.Mat4(), q.Mat4()
		assert.InDeltaSlice(t, want[:], got[:], 1e-5, "%v degrees", deg)
	}

	_, q, _ = DecomposeTransform(mgl32.Scale3D(0, 1, 1))
	assert.Equal(t, mgl32.QuatIdent(), q)
}

func TestFrustumIntersectsAABB(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	f := ExtractFrustumFromMatrix(proj.Mul4(view))

	box := func(x, y, z float32) AABB {
		return unitBox().Transform(mgl32.Translate3D(x, y, z))
	}
	assert.True(t, f.IntersectsAABB(box(0, 0, -10)))
	assert.False(t, f.IntersectsAABB(box(0, 0, 10)), "behind the camera")
	assert.False(t, f.IntersectsAABB(box(100, 0, -10)), "outside the right plane")
	assert.False(t, f.IntersectsAABB(box(0, 0, -500)), "beyond the far plane")
	assert.False(t, f.IntersectsAABB(EmptyAABB()))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce[int]())
}

func TestRenderPathParse(t *testing.T) {
	for _, p := range RenderPaths {
		got, ok := ParseRenderPath(p.String())
		require.True(t, ok)
		assert.Equal(t, p, got)
	}
	_, ok := ParseRenderPath("raytraced")
	assert.False(t, ok)
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes[float32](nil))
	assert.Len(t, SliceToBytes([]float32{1, 2, 3}), 12)
	v := struct{ A, B uint32 }{1, 2}
	assert.Len(t, StructToBytes(&v), 8)
}
