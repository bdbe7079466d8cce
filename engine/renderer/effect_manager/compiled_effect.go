package effect_manager

import (
	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/effect"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/backend"
)

// ActiveUniform is a parameter of an effect that the compiled program actually uses.
type ActiveUniform struct {
	Name     string
	Location backend.UniformLocation
	Value    effect.Value
	// Dirty is set when Value has not been written to the backend yet.
	Dirty bool
}

// CompiledPass is the program of one effect pass and its active uniforms.
type CompiledPass struct {
	Program  backend.Program
	Uniforms map[effect.ParamID]*ActiveUniform
}

// CompiledEffect holds the GPU programs of one effect for one render path (or for both, when no pass
// depends on the path). It is owned by the EffectManager; callers only borrow it for a frame.
type CompiledEffect struct {
	path          common.RenderPath
	dependsOnPath bool
	passes        []CompiledPass
}

// NewCompiledEffect assembles a compiled effect from already compiled passes.
//
// Parameters:
//   - path: the render path the passes were prepared for
//   - dependsOnPath: whether the sources differ between render paths
//   - passes: the compiled passes, in render order
//
// Returns:
//   - *CompiledEffect: the compiled effect
func NewCompiledEffect(path common.RenderPath, dependsOnPath bool, passes []CompiledPass) *CompiledEffect {
	return &CompiledEffect{
		path:          path,
		dependsOnPath: dependsOnPath,
		passes:        passes,
	}
}

// Path returns the render path the effect was compiled for.
func (c *CompiledEffect) Path() common.RenderPath {
	return c.path
}

// DependsOnPath reports whether a different variant is needed for each render path.
func (c *CompiledEffect) DependsOnPath() bool {
	return c.dependsOnPath
}

// Passes returns the compiled passes in render order.
func (c *CompiledEffect) Passes() []CompiledPass {
	return c.passes
}

// Programs returns the program handle of every pass, in pass order.
func (c *CompiledEffect) Programs() []backend.ProgramHandle {
	out := make([]backend.ProgramHandle, len(c.passes))
	for i, p := range c.passes {
		out[i] = p.Program.Handle
	}
	return out
}

// Uniform returns the active uniform for a parameter in the first pass that uses it.
//
// Parameters:
//   - id: the parameter identity
//
// Returns:
//   - *ActiveUniform: the uniform record
//   - bool: false if no pass uses the parameter
func (c *CompiledEffect) Uniform(id effect.ParamID) (*ActiveUniform, bool) {
	for _, p := range c.passes {
		if u, ok := p.Uniforms[id]; ok {
			return u, true
		}
	}
	return nil, false
}

// DirtyCount returns the number of uniforms, across all passes, waiting to be written.
func (c *CompiledEffect) DirtyCount() int {
	n := 0
	for _, p := range c.passes {
		for _, u := range p.Uniforms {
			if u.Dirty {
				n++
			}
		}
	}
	return n
}

// markDirty stores a new value for the parameter in every pass that uses it.
func (c *CompiledEffect) markDirty(id effect.ParamID, v effect.Value) bool {
	found := false
	for _, p := range c.passes {
		if u, ok := p.Uniforms[id]; ok {
			u.Value = v
			u.Dirty = true
			found = true
		}
	}
	return found
}

// FlushUniforms writes every dirty uniform through w and clears the dirty flags.
//
// Parameters:
//   - w: the uniform writer, normally the render backend
//
// Returns:
//   - int: the number of uniforms written
func (c *CompiledEffect) FlushUniforms(w backend.UniformWriter) int {
	n := 0
	for _, p := range c.passes {
		for _, u := range p.Uniforms {
			if !u.Dirty {
				continue
			}
			w.SetUniform(p.Program.Handle, u.Location, u.Value)
			u.Dirty = false
			n++
		}
	}
	return n
}

// CompiledEffectSet holds the compiled variants of one registered effect. A variant that does not
// depend on the render path is shared by every path.
type CompiledEffectSet struct {
	effect      effect.Effect
	variants    map[common.RenderPath]*CompiledEffect
	unsubscribe func()
}

func newCompiledEffectSet(e effect.Effect) *CompiledEffectSet {
	return &CompiledEffectSet{
		effect:   e,
		variants: make(map[common.RenderPath]*CompiledEffect),
	}
}

// Effect returns the effect the set belongs to.
func (s *CompiledEffectSet) Effect() effect.Effect {
	return s.effect
}

// Get returns the variant for a render path.
//
// Parameters:
//   - path: the render path
//
// Returns:
//   - *CompiledEffect: the variant
//   - bool: false if nothing is compiled for the path
func (s *CompiledEffectSet) Get(path common.RenderPath) (*CompiledEffect, bool) {
	c, ok := s.variants[path]
	return c, ok
}

// Compiled reports whether any variant exists.
func (s *CompiledEffectSet) Compiled() bool {
	return len(s.variants) > 0
}

// store places c under path, or under every path if c does not depend on the path. It returns the
// variants that are no longer referenced.
func (s *CompiledEffectSet) store(path common.RenderPath, c *CompiledEffect) []*CompiledEffect {
	before := s.distinct()

	paths := []common.RenderPath{path}
	if !c.dependsOnPath {
		paths = common.RenderPaths
	}
	for _, p := range paths {
		s.variants[p] = c
	}

	live := make(map[*CompiledEffect]bool, len(s.variants))
	for _, v := range s.variants {
		live[v] = true
	}
	var dropped []*CompiledEffect
	for _, v := range before {
		if !live[v] {
			dropped = append(dropped, v)
		}
	}
	return dropped
}

// distinct returns each variant once.
func (s *CompiledEffectSet) distinct() []*CompiledEffect {
	seen := make(map[*CompiledEffect]bool, len(s.variants))
	var out []*CompiledEffect
	for _, p := range common.RenderPaths {
		v, ok := s.variants[p]
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
