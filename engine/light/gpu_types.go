package light

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxGPULights is the maximum number of lights marshaled into the GPU light buffer per frame.
// Lights beyond the budget are dropped in the order they were collected.
const MaxGPULights = 1024

// GPULightSource is the canonical WGSL definition of the Light struct.
// Matches GPULight layout exactly (64 bytes).
//
//go:embed assets/light.wgsl
var GPULightSource string

// GPULightHeaderSource is the canonical WGSL definition of the LightHeader struct.
// Matches GPULightHeader layout exactly (16 bytes).
//
//go:embed assets/light_header.wgsl
var GPULightHeaderSource string

// GPULight is the GPU-aligned representation of a single resolved light.
// Size: 64 bytes (WGSL aligned).
type GPULight struct {
	Position     [3]float32 // offset  0: world-space position (point/spot) or unused (directional)
	LightType    uint32     // offset 12: 0 = directional, 1 = point, 2 = spot
	Color        [3]float32 // offset 16: RGB color
	Intensity    float32    // offset 28: scalar multiplier
	Direction    [3]float32 // offset 32: normalized world direction (directional/spot)
	LightRange   float32    // offset 44: attenuation cutoff distance
	InnerCone    float32    // offset 48: cos(inner half-angle) for spot
	OuterCone    float32    // offset 52: cos(outer half-angle) for spot
	CastsShadows uint32     // offset 56: 1 = casts shadows, 0 = does not
	_pad         uint32     // offset 60
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, 0, 64)
	buf = appendVec3(buf, g.Position)
	buf = binary.LittleEndian.AppendUint32(buf, g.LightType)
	buf = appendVec3(buf, g.Color)
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(g.Intensity))
	buf = appendVec3(buf, g.Direction)
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(g.LightRange))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(g.InnerCone))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(g.OuterCone))
	buf = binary.LittleEndian.AppendUint32(buf, g.CastsShadows)
	return binary.LittleEndian.AppendUint32(buf, 0)
}

// GPULightHeader is the header prepended to the light buffer.
// Size: 16 bytes (vec3 + u32).
type GPULightHeader struct {
	AmbientColor [3]float32 // offset 0: scene ambient RGB
	LightCount   uint32     // offset 12: number of lights following the header
}

// Size returns the size of the GPULightHeader struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (h *GPULightHeader) Size() int {
	return int(unsafe.Sizeof(*h))
}

// Marshal serializes the GPULightHeader struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (h *GPULightHeader) Marshal() []byte {
	buf := appendVec3(make([]byte, 0, 16), h.AmbientColor)
	return binary.LittleEndian.AppendUint32(buf, h.LightCount)
}

// ToGPULight converts a light and its resolved world placement into the GPU representation.
//
// Parameters:
//   - l: the light
//   - worldPos: the world-space position of the light's node
//   - worldDir: the normalized world-space emission direction
//
// Returns:
//   - GPULight: the GPU-aligned representation
func ToGPULight(l Light, worldPos, worldDir mgl32.Vec3) GPULight {
	shadowVal := uint32(0)
	if l.CastsShadows() {
		shadowVal = 1
	}
	return GPULight{
		Position:     worldPos,
		LightType:    uint32(l.Type()),
		Color:        l.Color(),
		Intensity:    l.Intensity(),
		Direction:    worldDir,
		LightRange:   l.Range(),
		InnerCone:    l.InnerCone(),
		OuterCone:    l.OuterCone(),
		CastsShadows: shadowVal,
	}
}

// MarshalLightBuffer marshals resolved lights into a byte buffer suitable for GPU upload.
// The buffer layout is:
//
//	[GPULightHeader (16 bytes)] [GPULight × count (64 bytes each)]
//
// At most MaxGPULights lights are written.
//
// Parameters:
//   - lights: the resolved lights to marshal
//   - ambient: the scene ambient color as RGB
//
// Returns:
//   - []byte: the marshaled buffer ready for GPU upload
func MarshalLightBuffer(lights []GPULight, ambient mgl32.Vec3) []byte {
	count := min(len(lights), MaxGPULights)
	header := GPULightHeader{AmbientColor: ambient, LightCount: uint32(count)}

	buf := make([]byte, 0, header.Size()+count*(&GPULight{}).Size())
	buf = append(buf, header.Marshal()...)
	for i := range count {
		buf = append(buf, lights[i].Marshal()...)
	}
	return buf
}

func appendVec3(buf []byte, v [3]float32) []byte {
	for _, c := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c))
	}
	return buf
}
