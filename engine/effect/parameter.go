package effect

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/texture"
	"github.com/go-gl/mathgl/mgl32"
)

// ParamType is the semantic type of an effect parameter. It decides which Go values SetParameter
// accepts and how the value is laid out when written to a uniform buffer.
type ParamType int

const (
	// ParamFloat holds a float32.
	ParamFloat ParamType = iota
	// ParamInt holds an int32.
	ParamInt
	// ParamUint holds a uint32.
	ParamUint
	// ParamBool holds a bool, written as a 32-bit integer.
	ParamBool
	// ParamVec2 holds an mgl32.Vec2.
	ParamVec2
	// ParamVec3 holds an mgl32.Vec3.
	ParamVec3
	// ParamVec4 holds an mgl32.Vec4.
	ParamVec4
	// ParamMat3 holds an mgl32.Mat3, written as three vec4-padded columns.
	ParamMat3
	// ParamMat4 holds an mgl32.Mat4.
	ParamMat4
	// ParamTexture holds a texture.Texture. It has no uniform buffer payload.
	ParamTexture
)

var paramTypeNames = map[ParamType]string{
	ParamFloat:   "float",
	ParamInt:     "int",
	ParamUint:    "uint",
	ParamBool:    "bool",
	ParamVec2:    "vec2",
	ParamVec3:    "vec3",
	ParamVec4:    "vec4",
	ParamMat3:    "mat3",
	ParamMat4:    "mat4",
	ParamTexture: "texture",
}

// String returns the shader-style name of the parameter type.
func (t ParamType) String() string {
	if name, ok := paramTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ParamType(%d)", int(t))
}

// Value is a parameter value. Its dynamic type must match the parameter's ParamType.
type Value any

// ParamID is the stable identity of a parameter: a hash of its name. Consumers key their
// per-parameter records by ParamID so that change events never require a string comparison.
type ParamID uint64

// HashParameterName returns the ParamID for a parameter name using 64-bit FNV-1a.
//
// Parameters:
//   - name: the parameter name as declared on the effect
//
// Returns:
//   - ParamID: the stable hash of the name
func HashParameterName(name string) ParamID {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return ParamID(h.Sum64())
}

// Parameter is the declaration of one effect parameter.
type Parameter struct {
	// Name is the parameter name. It matches the uniform variable name in the pass sources.
	Name string
	// Type is the semantic type of the parameter.
	Type ParamType
	// Default is the value the parameter holds before the first SetParameter call.
	// A nil Default is replaced with the zero value of Type.
	Default Value
}

// ID returns the stable identity of the parameter.
func (p Parameter) ID() ParamID {
	return HashParameterName(p.Name)
}

// ZeroValue returns the zero value for a parameter type.
//
// Parameters:
//   - t: the parameter type
//
// Returns:
//   - Value: the zero value (identity for matrices), or nil for textures
func ZeroValue(t ParamType) Value {
	switch t {
	case ParamFloat:
		return float32(0)
	case ParamInt:
		return int32(0)
	case ParamUint:
		return uint32(0)
	case ParamBool:
		return false
	case ParamVec2:
		return mgl32.Vec2{}
	case ParamVec3:
		return mgl32.Vec3{}
	case ParamVec4:
		return mgl32.Vec4{}
	case ParamMat3:
		return mgl32.Ident3()
	case ParamMat4:
		return mgl32.Ident4()
	default:
		return nil
	}
}

// Accepts reports whether v is a valid value for a parameter of type t.
// Textures accept a nil value to unbind the texture.
//
// Parameters:
//   - t: the parameter type
//   - v: the candidate value
//
// Returns:
//   - bool: true if v has the Go type expected by t
func Accepts(t ParamType, v Value) bool {
	switch t {
	case ParamFloat:
		_, ok := v.(float32)
		return ok
	case ParamInt:
		_, ok := v.(int32)
		return ok
	case ParamUint:
		_, ok := v.(uint32)
		return ok
	case ParamBool:
		_, ok := v.(bool)
		return ok
	case ParamVec2:
		_, ok := v.(mgl32.Vec2)
		return ok
	case ParamVec3:
		_, ok := v.(mgl32.Vec3)
		return ok
	case ParamVec4:
		_, ok := v.(mgl32.Vec4)
		return ok
	case ParamMat3:
		_, ok := v.(mgl32.Mat3)
		return ok
	case ParamMat4:
		_, ok := v.(mgl32.Mat4)
		return ok
	case ParamTexture:
		if v == nil {
			return true
		}
		_, ok := v.(texture.Texture)
		return ok
	default:
		return false
	}
}

// Encode lays a parameter value out as uniform buffer bytes (little-endian, std140 column padding).
// Raw byte slices are copied as is. Texture values and unsupported types produce nil.
//
// Parameters:
//   - v: the value to encode
//
// Returns:
//   - []byte: the encoded payload
func Encode(v Value) []byte {
	switch val := v.(type) {
	case float32:
		return binary.LittleEndian.AppendUint32(nil, math.Float32bits(val))
	case int32:
		return binary.LittleEndian.AppendUint32(nil, uint32(val))
	case uint32:
		return binary.LittleEndian.AppendUint32(nil, val)
	case bool:
		if val {
			return binary.LittleEndian.AppendUint32(nil, 1)
		}
		return binary.LittleEndian.AppendUint32(nil, 0)
	case mgl32.Vec2:
		return append([]byte(nil), common.SliceToBytes(val[:])...)
	case mgl32.Vec3:
		return append([]byte(nil), common.SliceToBytes(val[:])...)
	case mgl32.Vec4:
		return append([]byte(nil), common.SliceToBytes(val[:])...)
	case mgl32.Mat3:
		var padded [12]float32
		for col := 0; col < 3; col++ {
			copy(padded[col*4:col*4+3], val[col*3:col*3+3])
		}
		return append([]byte(nil), common.SliceToBytes(padded[:])...)
	case mgl32.Mat4:
		return append([]byte(nil), common.SliceToBytes(val[:])...)
	case []byte:
		return append([]byte(nil), val...)
	default:
		return nil
	}
}
