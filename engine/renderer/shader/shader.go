package shader

import (
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// Stage identifies the pipeline stage a shader source is written for.
type Stage int

const (
	// StageVertex is the vertex stage.
	StageVertex Stage = iota

	// StageFragment is the fragment stage, paired with a vertex stage.
	StageFragment

	// StageGeometry is the geometry stage. WGSL has no geometry stage, so WebGPU programs reject it.
	StageGeometry
)

// String returns the lower-case stage name.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageGeometry:
		return "geometry"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Visibility returns the wgpu shader stage flag for bindings declared by this stage.
//
// Returns:
//   - wgpu.ShaderStage: the visibility flag, or ShaderStageNone for stages WebGPU lacks
func (s Stage) Visibility() wgpu.ShaderStage {
	switch s {
	case StageVertex:
		return wgpu.ShaderStageVertex
	case StageFragment:
		return wgpu.ShaderStageFragment
	default:
		return wgpu.ShaderStageNone
	}
}

// UniformKind classifies a reflected uniform.
type UniformKind int

const (
	// UniformBufferMember is a value stored in a uniform buffer at a byte offset.
	UniformBufferMember UniformKind = iota
	// UniformTexture is a sampled texture binding.
	UniformTexture
	// UniformSampler is a sampler binding.
	UniformSampler
)

// UniformInfo is the reflected location of one named uniform.
type UniformInfo struct {
	// Name is the struct member name, or the variable name for plain uniforms and handles.
	Name string
	Kind UniformKind

	Group   uint32
	Binding uint32

	// Offset and Size place a buffer member inside its buffer; BufferSize is the buffer's total size.
	Offset     uint64
	Size       uint64
	BufferSize uint64
}

// shader is the implementation of the Shader interface.
type shader struct {
	key                        string
	source                     string
	stage                      Stage
	entryPoint                 string
	bindGroupLayoutDescriptors map[uint32]wgpu.BindGroupLayoutDescriptor
	vertexLayouts              []wgpu.VertexBufferLayout
	uniforms                   []UniformInfo
	module                     *wgpu.ShaderModuleDescriptor
}

// Shader defines the interface for a pre-processed and reflected WGSL stage source. It exposes the
// data a backend needs to build a pipeline: entry point, bind group layouts, vertex buffer layouts
// and the reflected uniform locations.
type Shader interface {
	// Key retrieves the identifier of this shader, used as the module label.
	//
	// Returns:
	//   - string: the shader's key
	Key() string

	// Source retrieves the WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// Stage returns the pipeline stage of the shader.
	//
	// Returns:
	//   - Stage: the stage
	Stage() Stage

	// EntryPoint returns the entry point name for this shader.
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main")
	EntryPoint() string

	// BindGroupLayoutDescriptors retrieves the bind group layout descriptors parsed from the source.
	//
	// Returns:
	//   - map[uint32]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[uint32]wgpu.BindGroupLayoutDescriptor

	// VertexLayouts retrieves the vertex buffer layouts declared by a vertex stage, in buffer slot order.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts, or nil for other stages
	VertexLayouts() []wgpu.VertexBufferLayout

	// Uniforms returns the reflected uniforms in declaration order.
	//
	// Returns:
	//   - []UniformInfo: the uniforms
	Uniforms() []UniformInfo

	// Module returns the wgpu.ShaderModuleDescriptor for this shader.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader reflects an already pre-processed WGSL source for one stage.
//
// Parameters:
//   - key: an identifier for the shader, used as the module label
//   - stage: the pipeline stage of the source
//   - source: the pre-processed WGSL source
//
// Returns:
//   - Shader: the reflected shader
//   - error: an error if the stage is unsupported or the source has no entry point for it
func NewShader(key string, stage Stage, source string) (Shader, error) {
	if stage == StageGeometry {
		return nil, fmt.Errorf("shader %s: WGSL has no geometry stage", key)
	}
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("shader %s: empty %s source", key, stage)
	}

	s := &shader{
		key:    key,
		source: source,
		stage:  stage,
		module: &wgpu.ShaderModuleDescriptor{
			Label:          key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
		},
	}
	s.entryPoint = parseEntryPoint(source, stage)
	if s.entryPoint == "" {
		return nil, fmt.Errorf("shader %s: no @%s entry point", key, stage)
	}
	if stage == StageVertex {
		s.vertexLayouts = parseVertexLayouts(source)
	}
	s.bindGroupLayoutDescriptors = parseBindGroupLayouts(source, stage.Visibility())
	s.uniforms = parseUniforms(source)
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Stage() Stage {
	return s.stage
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) BindGroupLayoutDescriptors() map[uint32]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) Uniforms() []UniformInfo {
	return s.uniforms
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}
