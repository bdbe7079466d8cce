package visitor

import (
	"errors"
	"strings"

	"github.com/Carmen-Shannon/oxy-core/engine/effect"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
)

// fakeBackend compiles every program except those whose label contains failOn.
type fakeBackend struct {
	next     backend.ProgramHandle
	compiled int
	failOn   string
}

var _ backend.Backend = &fakeBackend{}

func (f *fakeBackend) CompileProgram(src backend.ProgramSource) (backend.Program, error) {
	if f.failOn != "" && strings.Contains(src.Label, f.failOn) {
		return backend.Program{}, &backend.CompileError{Label: src.Label, Stage: shader.StageFragment, Err: errors.New("bad shader")}
	}
	f.next++
	f.compiled++
	return backend.Program{Handle: f.next, Uniforms: map[string]backend.UniformLocation{}}, nil
}

func (f *fakeBackend) ReleaseProgram(backend.ProgramHandle)                                   {}
func (f *fakeBackend) SetUniform(backend.ProgramHandle, backend.UniformLocation, effect.Value) {}
func (f *fakeBackend) UploadMesh(model.Model) (model.MeshHandle, error)                       { return 1, nil }
func (f *fakeBackend) ReleaseMesh(model.MeshHandle)                                           {}
func (f *fakeBackend) BeginFrame() error                                                      { return nil }
func (f *fakeBackend) Draw(backend.ProgramHandle, model.MeshHandle, int) error                { return nil }
func (f *fakeBackend) EndFrame() error                                                        { return nil }
