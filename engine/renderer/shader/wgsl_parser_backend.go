package shader

import (
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslPrimitiveLayoutMap maps WGSL scalar, vector, matrix and atomic type names to their byte size
// and alignment, including the predeclared shorthand aliases.
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var wgslPrimitiveLayoutMap = map[string]wgslTypeLayout{
	"f32":  {4, 4},
	"i32":  {4, 4},
	"u32":  {4, 4},
	"f16":  {2, 2},
	"bool": {4, 4},

	"vec2<f32>": {8, 8},
	"vec2f":     {8, 8},
	"vec3<f32>": {12, 16},
	"vec3f":     {12, 16},
	"vec4<f32>": {16, 16},
	"vec4f":     {16, 16},

	"vec2<i32>": {8, 8},
	"vec2i":     {8, 8},
	"vec3<i32>": {12, 16},
	"vec3i":     {12, 16},
	"vec4<i32>": {16, 16},
	"vec4i":     {16, 16},

	"vec2<u32>": {8, 8},
	"vec2u":     {8, 8},
	"vec3<u32>": {12, 16},
	"vec3u":     {12, 16},
	"vec4<u32>": {16, 16},
	"vec4u":     {16, 16},

	"vec2<f16>": {4, 4},
	"vec2h":     {4, 4},
	"vec3<f16>": {6, 8},
	"vec3h":     {6, 8},
	"vec4<f16>": {8, 8},
	"vec4h":     {8, 8},

	// matCxR<f32>: C columns of vecR<f32>, each column padded to the vector's alignment
	"mat2x2<f32>": {16, 8},
	"mat2x2f":     {16, 8},
	"mat2x3<f32>": {32, 16},
	"mat2x3f":     {32, 16},
	"mat2x4<f32>": {32, 16},
	"mat2x4f":     {32, 16},
	"mat3x2<f32>": {24, 8},
	"mat3x2f":     {24, 8},
	"mat3x3<f32>": {48, 16},
	"mat3x3f":     {48, 16},
	"mat3x4<f32>": {48, 16},
	"mat3x4f":     {48, 16},
	"mat4x2<f32>": {32, 8},
	"mat4x2f":     {32, 8},
	"mat4x3<f32>": {64, 16},
	"mat4x3f":     {64, 16},
	"mat4x4<f32>": {64, 16},
	"mat4x4f":     {64, 16},

	"atomic<u32>": {4, 4},
	"atomic<i32>": {4, 4},
}

// fieldOffset is the placement of one struct member inside a uniform buffer.
type fieldOffset struct {
	name   string
	offset uint64
	size   uint64
}

// roundUpAlign rounds value up to the next multiple of alignment, which must be a power of two.
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// resolveTypeLayout resolves a WGSL type name to its size and alignment using primitives and
// previously computed struct layouts. Fixed-size arrays are supported; runtime-sized arrays and
// unknown types are not.
//
// Parameters:
//   - typeName: the WGSL type name to resolve, e.g. "f32", "Transforms", "array<vec4<f32>, 4>"
//   - knownTypes: a map of already-resolved type names to their layouts
//
// Returns:
//   - wgslTypeLayout: the resolved layout
//   - bool: true if the type could be resolved
func resolveTypeLayout(typeName string, knownTypes map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	if layout, ok := wgslPrimitiveLayoutMap[typeName]; ok {
		return layout, true
	}
	if layout, ok := knownTypes[typeName]; ok {
		return layout, true
	}

	inner, ok := strings.CutPrefix(typeName, "array<")
	if !ok || !strings.HasSuffix(inner, ">") {
		return wgslTypeLayout{}, false
	}
	elemType, countStr, fixed := strings.Cut(strings.TrimSuffix(inner, ">"), ",")
	if !fixed {
		return wgslTypeLayout{}, false
	}
	elemLayout, ok := resolveTypeLayout(strings.TrimSpace(elemType), knownTypes)
	if !ok {
		return wgslTypeLayout{}, false
	}
	count, err := strconv.ParseUint(strings.TrimSpace(countStr), 10, 64)
	if err != nil {
		return wgslTypeLayout{}, false
	}
	// uniform address space arrays have a 16-byte element stride
	stride := roundUpAlign(16, roundUpAlign(elemLayout.align, elemLayout.size))
	return wgslTypeLayout{count * stride, max(elemLayout.align, 16)}, true
}

// structFieldOffsets places every non-builtin member of ps using WGSL struct layout rules.
// Members whose type cannot be resolved end the placement; the members before them are returned.
//
// Parameters:
//   - ps: the parsed struct
//   - knownTypes: a map of already-resolved type names to their layouts
//
// Returns:
//   - []fieldOffset: the placed members in declaration order
func structFieldOffsets(ps parsedStruct, knownTypes map[string]wgslTypeLayout) []fieldOffset {
	out := make([]fieldOffset, 0, len(ps.fields))
	offset := uint64(0)
	for _, field := range ps.fields {
		if field.isBuiltin {
			continue
		}
		layout, ok := resolveTypeLayout(field.typeName, knownTypes)
		if !ok {
			break
		}
		offset = roundUpAlign(layout.align, offset)
		out = append(out, fieldOffset{name: field.name, offset: offset, size: layout.size})
		offset += layout.size
	}
	return out
}

// computeStructLayout computes the byte size and alignment of a single WGSL struct: each field is
// placed at the next aligned offset and the total is rounded up to the largest field alignment.
//
// Parameters:
//   - ps: the parsed struct whose layout to compute
//   - knownTypes: a map of already-resolved type names to their layouts
//
// Returns:
//   - wgslTypeLayout: the computed layout
//   - bool: true if all fields could be resolved
func computeStructLayout(ps parsedStruct, knownTypes map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	offset := uint64(0)
	maxAlign := uint64(1)

	for _, field := range ps.fields {
		if field.isBuiltin {
			continue
		}
		fieldLayout, ok := resolveTypeLayout(field.typeName, knownTypes)
		if !ok {
			return wgslTypeLayout{}, false
		}
		offset = roundUpAlign(fieldLayout.align, offset)
		offset += fieldLayout.size
		maxAlign = max(maxAlign, fieldLayout.align)
	}

	return wgslTypeLayout{roundUpAlign(maxAlign, offset), maxAlign}, true
}

// computeStructSizes computes the layout of every parsed struct, resolving structs that nest
// other structs by repeating passes until no further progress is made.
//
// Parameters:
//   - structs: all parsed struct blocks from the WGSL source
//
// Returns:
//   - map[string]wgslTypeLayout: a map from struct name to computed layout
func computeStructSizes(structs []parsedStruct) map[string]wgslTypeLayout {
	resolved := make(map[string]wgslTypeLayout, len(structs))
	remaining := append([]parsedStruct(nil), structs...)

	for len(remaining) > 0 {
		progress := false
		next := remaining[:0]
		for _, ps := range remaining {
			if layout, ok := computeStructLayout(ps, resolved); ok {
				resolved[ps.name] = layout
				progress = true
			} else {
				next = append(next, ps)
			}
		}
		remaining = next
		if !progress {
			break
		}
	}

	return resolved
}

// classifyResource creates a wgpu.BindGroupLayoutEntry from a parsed WGSL resource declaration.
// The address space decides buffer bindings; handle types are classified by type name.
//
// Parameters:
//   - binding: the binding index from @binding(N)
//   - visibility: the shader stage visibility flag
//   - addressSpace: the address space qualifier, empty for handle types
//   - typeName: the WGSL type string (e.g. "Transforms", "texture_2d<f32>", "sampler")
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: a populated layout entry for the resource
func classifyResource(binding uint32, visibility wgpu.ShaderStage, addressSpace, typeName string) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: visibility,
	}

	if addressSpace != "" {
		switch {
		case addressSpace == "uniform":
			entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		case strings.HasPrefix(addressSpace, "storage"):
			if strings.Contains(addressSpace, "read_write") {
				entry.Buffer.Type = wgpu.BufferBindingTypeStorage
			} else {
				entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
			}
		}
		return entry
	}

	switch {
	case typeName == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case typeName == "sampler_comparison":
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(typeName, "texture_depth_"):
		entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
	case strings.HasPrefix(typeName, "texture_"):
		entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		if base, _, _ := strings.Cut(typeName, "<"); base == "texture_cube" {
			entry.Texture.ViewDimension = wgpu.TextureViewDimensionCube
		}
	}

	return entry
}

// stripComments removes both single-line (//) and block (/* */) comments from WGSL source.
func stripComments(source string) string {
	return stripLineComments(stripBlockComments(source))
}

// stripLineComments removes single-line // comments from WGSL source.
func stripLineComments(source string) string {
	var sb strings.Builder
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// stripBlockComments removes block comments from WGSL source. Block comments may nest.
func stripBlockComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			if source[i] == '/' && source[i+1] == '*' {
				depth++
				i++
				continue
			}
			if source[i] == '*' && source[i+1] == '/' && depth > 0 {
				depth--
				i++
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}

// isVertexInputStruct reports whether the struct has at least one @location field and no
// @builtin fields, which separates vertex inputs from vertex outputs.
func isVertexInputStruct(ps parsedStruct) bool {
	hasLocation := false
	for _, f := range ps.fields {
		if f.isBuiltin {
			return false
		}
		if f.location >= 0 {
			hasLocation = true
		}
	}
	return hasLocation
}

// buildVertexBufferLayout converts a parsed vertex input struct into a tightly packed
// wgpu.VertexBufferLayout. Returns false if any field has an unrecognised type.
//
// Parameters:
//   - ps: the parsed struct containing vertex input fields
//
// Returns:
//   - wgpu.VertexBufferLayout: the constructed vertex buffer layout
//   - bool: false if a field type could not be mapped to a vertex format
func buildVertexBufferLayout(ps parsedStruct) (wgpu.VertexBufferLayout, bool) {
	attrs := make([]wgpu.VertexAttribute, 0, len(ps.fields))
	var offset uint64

	for _, f := range ps.fields {
		info, ok := wgslVertexFormatMap[f.typeName]
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         info.format,
			Offset:         offset,
			ShaderLocation: uint32(f.location),
		})
		offset += info.size
	}

	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, true
}

// splitAtTopLevelCommas splits a string at commas that are not nested inside angle brackets,
// so that array<T, N> stays in one piece.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
