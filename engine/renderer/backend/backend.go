// Package backend defines the contract between the effect/scene core and a graphics API. The core
// only ever talks to a Backend; NewWGPUBackend provides the WebGPU implementation.
package backend

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/engine/effect"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
)

// ProgramHandle identifies a compiled GPU program owned by a Backend.
type ProgramHandle uint64

// UniformLocation is where a named uniform lives inside a compiled program.
type UniformLocation struct {
	Group   uint32
	Binding uint32

	// Offset and Size place a buffer member inside its uniform buffer. Both are zero for textures and samplers.
	Offset uint64
	Size   uint64

	Kind shader.UniformKind
}

// ProgramSource is the fully prepared source of one effect pass for one render path.
type ProgramSource struct {
	// Label names the program in diagnostics, usually "<effect>/<pass>/<path>".
	Label    string
	Vertex   string
	Fragment string
	Geometry string
	State    effect.RenderState
}

// Program is the result of a successful compilation.
type Program struct {
	Handle ProgramHandle
	// Uniforms maps every active uniform name to its location. Names are struct member names for
	// uniform buffer members and variable names for textures and samplers.
	Uniforms map[string]UniformLocation
}

// CompileError carries a backend diagnostic for one stage of a program.
type CompileError struct {
	Label string
	Stage shader.Stage
	Err   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("backend: compile %s (%s stage): %v", e.Label, e.Stage, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// UniformWriter accepts uniform values for a compiled program.
type UniformWriter interface {
	// SetUniform stages a uniform value for the program. The value reaches the GPU with the next Draw
	// that uses the program.
	//
	// Parameters:
	//   - h: the program handle
	//   - loc: the uniform location reported by CompileProgram
	//   - v: the value, in the Go representation accepted by effect.Accepts
	SetUniform(h ProgramHandle, loc UniformLocation, v effect.Value)
}

// Backend defines the interface the core uses to create programs, upload meshes and issue draws.
//
// Implementations are driven from the graphics thread only.
type Backend interface {
	UniformWriter

	// CompileProgram compiles the stages of a prepared pass into a program.
	//
	// Parameters:
	//   - src: the prepared sources and render state
	//
	// Returns:
	//   - Program: the program handle and its active uniforms
	//   - error: a *CompileError describing the failing stage, or another backend error
	CompileProgram(src ProgramSource) (Program, error)

	// ReleaseProgram destroys a program and every GPU resource created for it. Unknown handles are ignored.
	//
	// Parameters:
	//   - h: the program handle
	ReleaseProgram(h ProgramHandle)

	// UploadMesh creates GPU buffers holding the model's vertex and index payloads.
	//
	// Parameters:
	//   - m: the model to upload
	//
	// Returns:
	//   - model.MeshHandle: the handle to pass to Draw
	//   - error: an error if the buffers could not be created
	UploadMesh(m model.Model) (model.MeshHandle, error)

	// ReleaseMesh destroys the buffers of an uploaded mesh. Unknown handles are ignored.
	//
	// Parameters:
	//   - h: the mesh handle
	ReleaseMesh(h model.MeshHandle)

	// BeginFrame starts recording a frame.
	//
	// Returns:
	//   - error: an error if the frame target could not be acquired
	BeginFrame() error

	// Draw records an indexed draw of a mesh with a program, using the uniforms staged so far.
	//
	// Parameters:
	//   - h: the program to draw with
	//   - mesh: the uploaded mesh
	//   - indexCount: the number of indices to draw
	//
	// Returns:
	//   - error: an error if the program or mesh is unknown or no frame is being recorded
	Draw(h ProgramHandle, mesh model.MeshHandle, indexCount int) error

	// EndFrame submits the recorded frame and presents it.
	//
	// Returns:
	//   - error: an error if submission failed
	EndFrame() error
}
