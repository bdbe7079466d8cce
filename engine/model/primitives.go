package model

// NewCube creates an axis-aligned cube centered on the origin with per-face normals.
//
// Parameters:
//   - name: the model name
//   - halfExtent: half the edge length
//
// Returns:
//   - Model: the cube model
func NewCube(name string, halfExtent float32) Model {
	type face struct {
		normal [3]float32
		u, v   [3]float32
	}
	faces := []face{
		{normal: [3]float32{1, 0, 0}, u: [3]float32{0, 0, -1}, v: [3]float32{0, 1, 0}},
		{normal: [3]float32{-1, 0, 0}, u: [3]float32{0, 0, 1}, v: [3]float32{0, 1, 0}},
		{normal: [3]float32{0, 1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, -1}},
		{normal: [3]float32{0, -1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, 1}},
		{normal: [3]float32{0, 0, 1}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 1, 0}},
		{normal: [3]float32{0, 0, -1}, u: [3]float32{-1, 0, 0}, v: [3]float32{0, 1, 0}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	vertices := make([]GPUVertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		base := uint32(len(vertices))
		for _, c := range corners {
			var pos [3]float32
			for i := range 3 {
				pos[i] = (f.normal[i] + f.u[i]*c[0] + f.v[i]*c[1]) * halfExtent
			}
			vertices = append(vertices, GPUVertex{
				Position: pos,
				Normal:   f.normal,
				TexCoord: [2]float32{(c[0] + 1) / 2, (1 - c[1]) / 2},
			})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return NewModel(WithName(name), WithGeometry(vertices, indices))
}

// NewQuad creates a unit-normal quad in the XY plane facing +Z, centered on the origin.
//
// Parameters:
//   - name: the model name
//   - width: the extent along X
//   - height: the extent along Y
//
// Returns:
//   - Model: the quad model
func NewQuad(name string, width, height float32) Model {
	hw, hh := width/2, height/2
	vertices := []GPUVertex{
		{Position: [3]float32{-hw, -hh, 0}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{0, 1}},
		{Position: [3]float32{hw, -hh, 0}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{1, 1}},
		{Position: [3]float32{hw, hh, 0}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{1, 0}},
		{Position: [3]float32{-hw, hh, 0}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{0, 0}},
	}
	return NewModel(WithName(name), WithGeometry(vertices, []uint32{0, 1, 2, 0, 2, 3}))
}
