package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslVertexFormatMap maps WGSL type names to their corresponding wgpu vertex format and byte size
var wgslVertexFormatMap = map[string]vertexFormatInfo{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 8},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3f":     {wgpu.VertexFormatFloat32x3, 12},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 16},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"i32":       {wgpu.VertexFormatSint32, 4},
	"vec2<i32>": {wgpu.VertexFormatSint32x2, 8},
	"vec3<i32>": {wgpu.VertexFormatSint32x3, 12},
	"vec4<i32>": {wgpu.VertexFormatSint32x4, 16},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"vec2<u32>": {wgpu.VertexFormatUint32x2, 8},
	"vec3<u32>": {wgpu.VertexFormatUint32x3, 12},
	"vec4<u32>": {wgpu.VertexFormatUint32x4, 16},
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field line: optional attributes, name, colon, type.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> transforms: Transforms;
	// or handle types: @group(1) @binding(1) var albedo: texture_2d<f32>;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseVertexLayouts extracts vertex buffer layouts from WGSL source code.
// Every struct that is a pure vertex input (@location fields, no @builtin fields) becomes one
// buffer layout, in source order. Structs containing unrecognised types are skipped.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - []wgpu.VertexBufferLayout: the vertex buffer layouts
func parseVertexLayouts(source string) []wgpu.VertexBufferLayout {
	var result []wgpu.VertexBufferLayout
	for _, ps := range parseStructBlocks(stripComments(source)) {
		if !isVertexInputStruct(ps) {
			continue
		}
		if layout, ok := buildVertexBufferLayout(ps); ok {
			result = append(result, layout)
		}
	}
	return result
}

// parseBindingDecls extracts every @group(N) @binding(M) variable declaration from comment-free source.
//
// Parameters:
//   - cleaned: WGSL source with comments already stripped
//
// Returns:
//   - []bindingDecl: the declarations in source order
func parseBindingDecls(cleaned string) []bindingDecl {
	matches := bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1)
	decls := make([]bindingDecl, 0, len(matches))
	for _, match := range matches {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		decls = append(decls, bindingDecl{
			group:        uint32(group),
			binding:      uint32(binding),
			addressSpace: strings.TrimSpace(match[3]),
			varName:      strings.TrimSpace(match[4]),
			typeName:     strings.TrimSpace(match[5]),
		})
	}
	return decls
}

// parseBindGroupLayouts builds one wgpu.BindGroupLayoutDescriptor per group from the binding
// declarations in source. Entries are sorted by binding index and carry the provided visibility.
// Uniform buffer entries get MinBindingSize from the resolved type layout.
//
// Parameters:
//   - source: the raw WGSL source code string
//   - visibility: the shader stage visibility flag to set on each entry
//
// Returns:
//   - map[uint32]wgpu.BindGroupLayoutDescriptor: layout descriptors keyed by group index
func parseBindGroupLayouts(source string, visibility wgpu.ShaderStage) map[uint32]wgpu.BindGroupLayoutDescriptor {
	cleaned := stripComments(source)
	structSizes := computeStructSizes(parseStructBlocks(cleaned))

	groups := make(map[uint32][]wgpu.BindGroupLayoutEntry)
	for _, d := range parseBindingDecls(cleaned) {
		entry := classifyResource(d.binding, visibility, d.addressSpace, d.typeName)
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if layout, ok := resolveTypeLayout(d.typeName, structSizes); ok && layout.size > 0 {
				entry.Buffer.MinBindingSize = layout.size
			}
		}
		groups[d.group] = append(groups[d.group], entry)
	}

	result := make(map[uint32]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})
		result[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return result
}

// parseUniforms reflects every named uniform the source exposes. Members of a var<uniform>
// struct become one UniformInfo each, located by their byte offset in the buffer; a var<uniform>
// of a plain type is a single uniform at offset 0; texture and sampler handles are named by
// their variable.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - []UniformInfo: the uniforms in declaration order
func parseUniforms(source string) []UniformInfo {
	cleaned := stripComments(source)
	structs := parseStructBlocks(cleaned)
	structSizes := computeStructSizes(structs)
	byName := make(map[string]parsedStruct, len(structs))
	for _, ps := range structs {
		byName[ps.name] = ps
	}

	var out []UniformInfo
	for _, d := range parseBindingDecls(cleaned) {
		switch {
		case d.addressSpace == "uniform":
			bufLayout, ok := resolveTypeLayout(d.typeName, structSizes)
			if !ok {
				continue
			}
			if ps, isStruct := byName[d.typeName]; isStruct {
				for _, m := range structFieldOffsets(ps, structSizes) {
					out = append(out, UniformInfo{
						Name:       m.name,
						Kind:       UniformBufferMember,
						Group:      d.group,
						Binding:    d.binding,
						Offset:     m.offset,
						Size:       m.size,
						BufferSize: bufLayout.size,
					})
				}
				continue
			}
			out = append(out, UniformInfo{
				Name:       d.varName,
				Kind:       UniformBufferMember,
				Group:      d.group,
				Binding:    d.binding,
				Size:       bufLayout.size,
				BufferSize: bufLayout.size,
			})
		case d.addressSpace == "" && strings.HasPrefix(d.typeName, "texture_"):
			out = append(out, UniformInfo{Name: d.varName, Kind: UniformTexture, Group: d.group, Binding: d.binding})
		case d.addressSpace == "" && strings.HasPrefix(d.typeName, "sampler"):
			out = append(out, UniformInfo{Name: d.varName, Kind: UniformSampler, Group: d.group, Binding: d.binding})
		}
	}
	return out
}

// parseEntryPoint extracts the entry point function name for the given stage from WGSL source.
// Returns an empty string if no matching entry point attribute is found.
//
// Parameters:
//   - source: the raw WGSL source code string
//   - stage: the stage to search for
//
// Returns:
//   - string: the entry point function name, or empty string if not found
func parseEntryPoint(source string, stage Stage) string {
	cleaned := stripComments(source)

	var re *regexp.Regexp
	switch stage {
	case StageVertex:
		re = vertexEntryRegex
	case StageFragment:
		re = fragmentEntryRegex
	default:
		return ""
	}

	if match := re.FindStringSubmatch(cleaned); match != nil {
		return match[1]
	}
	return ""
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
// and parses their fields including @location and @builtin attributes
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []parsedStruct: all struct blocks found in the source
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseStructFields(match[2]),
		})
	}
	return structs
}

// parseStructFields parses the body of a struct block into individual fields.
//
// Parameters:
//   - body: the content between { and } of a struct declaration
//
// Returns:
//   - []parsedField: all fields found in the struct body
func parseStructFields(body string) []parsedField {
	lines := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field := parsedField{location: -1}
		if builtinRegex.MatchString(line) {
			field.isBuiltin = true
		}
		if locMatch := locationRegex.FindStringSubmatch(line); locMatch != nil {
			if loc, err := strconv.Atoi(locMatch[1]); err == nil {
				field.location = loc
			}
		}

		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		field.name = fm[1]
		field.typeName = strings.TrimSpace(fm[2])
		fields = append(fields, field)
	}

	return fields
}
