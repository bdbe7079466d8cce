package effect_manager

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/effect"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
)

// Compile prepares and compiles every pass of an effect for one render path. Nothing is cached; use
// EffectManager.StoreCompiledEffect or EffectManager.EnsureCompiled for that.
//
// Parameters:
//   - b: the backend that compiles the programs
//   - pp: the pre-processor that resolves includes and render-path blocks
//   - e: the effect to compile
//   - path: the render path to prepare the sources for
//
// Returns:
//   - *CompiledEffect: the compiled effect with every active uniform dirty
//   - error: *InvalidEffectError if the effect has no passes, a pre-processing error, or the backend
//     error (a *backend.CompileError for source problems). Programs of earlier passes are released.
func Compile(b backend.Backend, pp shader.PreProcessor, e effect.Effect, path common.RenderPath) (*CompiledEffect, error) {
	sources, err := prepareSources(pp, e, path)
	if err != nil {
		return nil, err
	}
	return compileSources(b, e, path, dependsOnPath(pp, e), sources)
}

// prepareSources runs the pre-processor over every stage of every pass. It only touches strings and is
// safe to call from worker goroutines as long as no chunk is registered concurrently.
func prepareSources(pp shader.PreProcessor, e effect.Effect, path common.RenderPath) ([]backend.ProgramSource, error) {
	passes := e.Passes()
	if len(passes) == 0 {
		return nil, &InvalidEffectError{EffectID: e.ID(), Reason: "effect has no passes"}
	}

	sources := make([]backend.ProgramSource, len(passes))
	for i, pass := range passes {
		name := pass.Name
		if name == "" {
			name = fmt.Sprintf("pass%d", i)
		}
		src := backend.ProgramSource{
			Label:    fmt.Sprintf("%s/%s/%s", e.Name(), name, path),
			Geometry: pass.Geometry,
			State:    pass.State,
		}

		var err error
		if src.Vertex, err = pp.Process(pass.Vertex, path); err != nil {
			return nil, fmt.Errorf("effect %s: %s vertex source: %w", e.Name(), name, err)
		}
		if pass.Fragment != "" {
			if src.Fragment, err = pp.Process(pass.Fragment, path); err != nil {
				return nil, fmt.Errorf("effect %s: %s fragment source: %w", e.Name(), name, err)
			}
		}
		sources[i] = src
	}
	return sources, nil
}

// dependsOnPath reports whether any stage of any pass has a render-path block.
func dependsOnPath(pp shader.PreProcessor, e effect.Effect) bool {
	for _, pass := range e.Passes() {
		if pp.DependsOnRenderPath(pass.Vertex) || pp.DependsOnRenderPath(pass.Fragment) {
			return true
		}
	}
	return false
}

// compileSources compiles prepared sources serially on the calling goroutine and seeds the active
// uniform tables from the effect's current values.
func compileSources(b backend.Backend, e effect.Effect, path common.RenderPath, pathDependent bool, sources []backend.ProgramSource) (*CompiledEffect, error) {
	passes := make([]CompiledPass, 0, len(sources))
	for i, src := range sources {
		program, err := b.CompileProgram(src)
		if err != nil {
			for _, p := range passes {
				b.ReleaseProgram(p.Program.Handle)
			}
			return nil, fmt.Errorf("effect %s: pass %d: %w", e.Name(), i, err)
		}

		uniforms := make(map[effect.ParamID]*ActiveUniform)
		for _, param := range e.Parameters() {
			loc, ok := program.Uniforms[param.Name]
			if !ok {
				continue
			}
			value, _ := e.Value(param.Name)
			uniforms[param.ID()] = &ActiveUniform{
				Name:     param.Name,
				Location: loc,
				Value:    value,
				Dirty:    true,
			}
		}
		passes = append(passes, CompiledPass{Program: program, Uniforms: uniforms})
	}
	return NewCompiledEffect(path, pathDependent, passes), nil
}
