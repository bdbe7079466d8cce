package model

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUVertexSource is the canonical WGSL definition of the VertexInput struct for mesh pipelines.
// Matches GPUVertex layout exactly (32 bytes, tightly packed).
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUVertex is the interleaved representation of a single mesh vertex.
// Matches the WGSL VertexInput struct layout exactly (see GPUVertexSource).
// Size: 32 bytes.
type GPUVertex struct {
	Position [3]float32 // offset  0: vertex position in model space
	Normal   [3]float32 // offset 12: vertex normal for lighting
	TexCoord [2]float32 // offset 24: UV texture coordinate
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, 0, 32)
	for _, f := range g.Position {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	for _, f := range g.Normal {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	for _, f := range g.TexCoord {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

// ComputeBounds returns the model-space bounding box of the given vertices.
//
// Parameters:
//   - vertices: the mesh vertices
//
// Returns:
//   - common.AABB: the bounds, empty when there are no vertices
func ComputeBounds(vertices []GPUVertex) common.AABB {
	b := common.EmptyAABB()
	for _, v := range vertices {
		b = b.Extend(mgl32.Vec3(v.Position))
	}
	return b
}
