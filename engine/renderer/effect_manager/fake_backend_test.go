package effect_manager

import (
	"errors"
	"strings"

	"github.com/Carmen-Shannon/oxy-core/engine/effect"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
)

type uniformWrite struct {
	handle backend.ProgramHandle
	loc    backend.UniformLocation
	value  effect.Value
}

// fakeBackend records every call. Programs report the uniforms in reported.
type fakeBackend struct {
	next     backend.ProgramHandle
	sources  []backend.ProgramSource
	released []backend.ProgramHandle
	writes   []uniformWrite
	reported map[string]backend.UniformLocation
	// failOn makes CompileProgram fail for labels containing it.
	failOn string
}

var _ backend.Backend = &fakeBackend{}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		reported: map[string]backend.UniformLocation{
			"roughness": {Group: 1, Binding: 0, Offset: 0, Size: 4},
			"tint":      {Group: 1, Binding: 0, Offset: 16, Size: 16},
		},
	}
}

func (f *fakeBackend) CompileProgram(src backend.ProgramSource) (backend.Program, error) {
	if f.failOn != "" && strings.Contains(src.Label, f.failOn) {
		return backend.Program{}, &backend.CompileError{Label: src.Label, Stage: shader.StageFragment, Err: errors.New("syntax error")}
	}
	f.next++
	f.sources = append(f.sources, src)
	uniforms := make(map[string]backend.UniformLocation, len(f.reported))
	for k, v := range f.reported {
		uniforms[k] = v
	}
	return backend.Program{Handle: f.next, Uniforms: uniforms}, nil
}

func (f *fakeBackend) ReleaseProgram(h backend.ProgramHandle) {
	f.released = append(f.released, h)
}

func (f *fakeBackend) SetUniform(h backend.ProgramHandle, loc backend.UniformLocation, v effect.Value) {
	f.writes = append(f.writes, uniformWrite{handle: h, loc: loc, value: v})
}

func (f *fakeBackend) UploadMesh(model.Model) (model.MeshHandle, error) { return 1, nil }
func (f *fakeBackend) ReleaseMesh(model.MeshHandle)                    {}
func (f *fakeBackend) BeginFrame() error                               { return nil }
func (f *fakeBackend) Draw(backend.ProgramHandle, model.MeshHandle, int) error {
	return nil
}
func (f *fakeBackend) EndFrame() error { return nil }
