package effect_manager

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/effect"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/backend"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const plainFragment = `@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return params.tint;
}`

const pathFragment = `@fragment
fn fs_main() -> @location(0) vec4<f32> {
    //@oxy:path forward
    return params.tint;
    //@oxy:end
    //@oxy:path deferred
    return vec4<f32>(params.roughness);
    //@oxy:end
}`

func newTestEffect(t *testing.T, name, fragment string, passes int) effect.Effect {
	t.Helper()
	options := []effect.EffectBuilderOption{
		effect.WithName(name),
		effect.WithParameter("roughness", effect.ParamFloat, float32(0.5)),
		effect.WithParameter("tint", effect.ParamVec4, mgl32.Vec4{1, 1, 1, 1}),
		effect.WithParameter("unused", effect.ParamFloat, float32(0)),
	}
	for i := 0; i < passes; i++ {
		options = append(options, effect.WithPass(effect.Pass{
			Name:     "main",
			State:    effect.DefaultRenderState(),
			Vertex:   "//@oxy:include transforms\n@vertex fn vs_main() {}",
			Fragment: fragment,
		}))
	}
	e, err := effect.NewEffect(options...)
	require.NoError(t, err)
	return e
}

func newTestManager(t *testing.T) (EffectManager, *fakeBackend) {
	t.Helper()
	b := newFakeBackend()
	m := NewEffectManager(b, WithLogger(zaptest.NewLogger(t)), WithWorkers(2))
	t.Cleanup(m.Release)
	return m, b
}

func TestNewEffectManagerPanicsOnNilBackend(t *testing.T) {
	assert.PanicsWithValue(t, "effect_manager: nil backend", func() {
		NewEffectManager(nil)
	})
}

func TestRegisterBeforeCompile(t *testing.T) {
	m, _ := newTestManager(t)
	e := newTestEffect(t, "lit", plainFragment, 1)

	m.RegisterEffect(e)
	m.RegisterEffect(e)

	assert.True(t, m.IsRegistered(e.ID()))
	assert.Equal(t, 1, m.Len())

	c, ok := m.GetCompiledEffect(e, common.RenderPathForward)
	assert.False(t, ok)
	assert.Nil(t, c)
}

func TestRegisterDisposedEffectIsIgnored(t *testing.T) {
	m, _ := newTestManager(t)
	e := newTestEffect(t, "lit", plainFragment, 1)
	e.Dispose()

	m.RegisterEffect(e)
	assert.False(t, m.IsRegistered(e.ID()))
	assert.Equal(t, 0, m.Len())
}

func TestEnsureCompiledSeedsDirtyUniforms(t *testing.T) {
	m, b := newTestManager(t)
	e := newTestEffect(t, "lit", plainFragment, 1)
	m.RegisterEffect(e)

	c, err := m.EnsureCompiled(e, common.RenderPathForward)
	require.NoError(t, err)
	require.Len(t, b.sources, 1)
	assert.Equal(t, "lit/main/forward", b.sources[0].Label)
	assert.Contains(t, b.sources[0].Vertex, "struct Transforms")

	assert.Equal(t, 2, c.DirtyCount(), "only parameters the program uses are active")
	u, ok := c.Uniform(effect.HashParameterName("roughness"))
	require.True(t, ok)
	assert.Equal(t, float32(0.5), u.Value)
	_, ok = c.Uniform(effect.HashParameterName("unused"))
	assert.False(t, ok)

	again, err := m.EnsureCompiled(e, common.RenderPathForward)
	require.NoError(t, err)
	assert.Same(t, c, again)
	assert.Len(t, b.sources, 1)
}

func TestSharedVariantWithoutPathBlocks(t *testing.T) {
	m, b := newTestManager(t)
	e := newTestEffect(t, "lit", plainFragment, 1)
	m.RegisterEffect(e)

	forward, err := m.EnsureCompiled(e, common.RenderPathForward)
	require.NoError(t, err)
	assert.False(t, forward.DependsOnPath())

	deferred, ok := m.GetCompiledEffect(e, common.RenderPathDeferred)
	require.True(t, ok)
	assert.Same(t, forward, deferred)
	assert.Len(t, b.sources, 1)
}

func TestPathDependentVariantsCompileIndependently(t *testing.T) {
	m, b := newTestManager(t)
	e := newTestEffect(t, "lit", pathFragment, 1)
	m.RegisterEffect(e)

	forward, err := m.EnsureCompiled(e, common.RenderPathForward)
	require.NoError(t, err)
	assert.True(t, forward.DependsOnPath())

	_, ok := m.GetCompiledEffect(e, common.RenderPathDeferred)
	assert.False(t, ok)

	deferred, err := m.EnsureCompiled(e, common.RenderPathDeferred)
	require.NoError(t, err)
	assert.NotSame(t, forward, deferred)
	require.Len(t, b.sources, 2)
	assert.Contains(t, b.sources[0].Fragment, "return params.tint;")
	assert.Contains(t, b.sources[1].Fragment, "vec4<f32>(params.roughness)")
	assert.Empty(t, b.released)
}

func TestCompileZeroPassEffect(t *testing.T) {
	m, b := newTestManager(t)
	e := newTestEffect(t, "empty", plainFragment, 0)
	m.RegisterEffect(e)

	_, err := m.EnsureCompiled(e, common.RenderPathForward)
	var invalid *InvalidEffectError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, e.ID(), invalid.EffectID)
	assert.Empty(t, b.sources)
	assert.True(t, m.IsRegistered(e.ID()))
}

func TestBackendCompileErrorLeavesEffectUncompiled(t *testing.T) {
	m, b := newTestManager(t)
	b.failOn = "second"
	e, err := effect.NewEffect(
		effect.WithName("broken"),
		effect.WithPass(effect.Pass{Name: "first", Vertex: "@vertex fn vs_main() {}", Fragment: plainFragment}),
		effect.WithPass(effect.Pass{Name: "second", Vertex: "@vertex fn vs_main() {}", Fragment: plainFragment}),
	)
	require.NoError(t, err)
	m.RegisterEffect(e)

	_, err = m.EnsureCompiled(e, common.RenderPathForward)
	var compileErr *backend.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "broken/second/forward", compileErr.Label)

	assert.Equal(t, []backend.ProgramHandle{1}, b.released, "programs of earlier passes are released")
	assert.True(t, m.IsRegistered(e.ID()))
	_, ok := m.GetCompiledEffect(e, common.RenderPathForward)
	assert.False(t, ok)
}

func TestUpdateMarksOneUniformDirtyAndFlushWritesOnce(t *testing.T) {
	m, b := newTestManager(t)
	e := newTestEffect(t, "lit", plainFragment, 1)
	m.RegisterEffect(e)
	c, err := m.EnsureCompiled(e, common.RenderPathForward)
	require.NoError(t, err)

	assert.Equal(t, 2, c.FlushUniforms(b))
	assert.Equal(t, 0, c.DirtyCount())
	b.writes = nil

	require.NoError(t, e.SetParameter("roughness", float32(0.9)))
	assert.Equal(t, 1, c.DirtyCount())
	assert.Empty(t, b.writes, "nothing reaches the backend before the flush")

	assert.Equal(t, 1, c.FlushUniforms(b))
	require.Len(t, b.writes, 1)
	assert.Equal(t, float32(0.9), b.writes[0].value)
	assert.Equal(t, uint64(0), b.writes[0].loc.Offset)
	assert.Equal(t, c.Programs()[0], b.writes[0].handle)

	assert.Equal(t, 0, c.FlushUniforms(b))
	assert.Len(t, b.writes, 1)
}

func TestUpdateOnUncompiledEffectIsHarmless(t *testing.T) {
	m, _ := newTestManager(t)
	e := newTestEffect(t, "lit", plainFragment, 1)
	m.RegisterEffect(e)

	require.NoError(t, e.SetParameter("roughness", float32(0.9)))

	c, err := m.EnsureCompiled(e, common.RenderPathForward)
	require.NoError(t, err)
	u, ok := c.Uniform(effect.HashParameterName("roughness"))
	require.True(t, ok)
	assert.Equal(t, float32(0.9), u.Value, "compilation seeds from the current value")
}

func TestDisposeTwiceQueuesOnce(t *testing.T) {
	m, _ := newTestManager(t)
	e := newTestEffect(t, "lit", plainFragment, 1)
	m.RegisterEffect(e)

	e.Dispose()
	e.Dispose()

	assert.Equal(t, 1, m.PendingLen())
	assert.True(t, m.IsPendingDeletion(e.ID()))
	assert.True(t, m.IsRegistered(e.ID()), "entry stays live until cleanup")
}

func TestCleanup(t *testing.T) {
	m, b := newTestManager(t)
	assert.Empty(t, m.Cleanup(), "empty queue is a no-op")

	a := newTestEffect(t, "a", plainFragment, 1)
	bEffect := newTestEffect(t, "b", pathFragment, 1)
	keep := newTestEffect(t, "keep", plainFragment, 1)
	for _, e := range []effect.Effect{a, bEffect, keep} {
		m.RegisterEffect(e)
	}
	_, err := m.EnsureCompiled(a, common.RenderPathForward)
	require.NoError(t, err)
	_, err = m.EnsureCompiled(bEffect, common.RenderPathForward)
	require.NoError(t, err)
	_, err = m.EnsureCompiled(bEffect, common.RenderPathDeferred)
	require.NoError(t, err)

	a.Dispose()
	bEffect.Dispose()

	removed := m.Cleanup()
	assert.Equal(t, []uuid.UUID{bEffect.ID(), a.ID()}, removed, "most recently disposed first")
	assert.ElementsMatch(t, []backend.ProgramHandle{1, 2, 3}, b.released, "every distinct program is released once")

	assert.False(t, m.IsRegistered(a.ID()))
	assert.False(t, m.IsPendingDeletion(a.ID()))
	assert.True(t, m.IsRegistered(keep.ID()))
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 0, m.PendingLen())

	assert.Empty(t, m.Cleanup())
}

func TestCleanupUnsubscribes(t *testing.T) {
	m, _ := newTestManager(t)
	e := newTestEffect(t, "lit", plainFragment, 1)
	m.RegisterEffect(e)
	e.Dispose()
	m.Cleanup()

	// A re-registration attempt of the disposed effect is ignored, and no listener remains to queue it.
	m.RegisterEffect(e)
	assert.Equal(t, 0, m.PendingLen())
	assert.Equal(t, 0, m.Len())
}

func TestStoreCompiledEffect(t *testing.T) {
	m, b := newTestManager(t)
	e := newTestEffect(t, "lit", plainFragment, 1)

	c, err := Compile(b, m.PreProcessor(), e, common.RenderPathForward)
	require.NoError(t, err)
	assert.ErrorIs(t, m.StoreCompiledEffect(e, common.RenderPathForward, c), ErrEffectNotRegistered)

	m.RegisterEffect(e)
	require.NoError(t, m.StoreCompiledEffect(e, common.RenderPathForward, c))
	got, ok := m.GetCompiledEffect(e, common.RenderPathForward)
	require.True(t, ok)
	assert.Same(t, c, got)

	replacement, err := Compile(b, m.PreProcessor(), e, common.RenderPathForward)
	require.NoError(t, err)
	require.NoError(t, m.StoreCompiledEffect(e, common.RenderPathForward, replacement))
	assert.Equal(t, c.Programs(), b.released, "the replaced variant is released")
}

func TestCompileRegistered(t *testing.T) {
	m, b := newTestManager(t)
	b.failOn = "bad/"
	good := newTestEffect(t, "good", plainFragment, 1)
	bad := newTestEffect(t, "bad", plainFragment, 1)
	empty := newTestEffect(t, "empty", plainFragment, 0)
	for _, e := range []effect.Effect{good, bad, empty} {
		m.RegisterEffect(e)
	}

	err := m.CompileRegistered(common.RenderPathForward)
	require.Error(t, err)

	var compileErr *backend.CompileError
	assert.True(t, errors.As(err, &compileErr))
	var invalid *InvalidEffectError
	assert.True(t, errors.As(err, &invalid))

	_, ok := m.GetCompiledEffect(good, common.RenderPathForward)
	assert.True(t, ok)
	_, ok = m.GetCompiledEffect(bad, common.RenderPathForward)
	assert.False(t, ok)
	assert.Equal(t, 3, m.Len())

	b.failOn = ""
	before := len(b.sources)
	err = m.CompileRegistered(common.RenderPathDeferred)
	assert.True(t, errors.As(err, &invalid), "the pass-less effect stays invalid")
	assert.Len(t, b.sources, before+1, "shared variants are reused, only the failed effect compiles")
}

func TestPrepareSources(t *testing.T) {
	m, _ := newTestManager(t)
	var effects []effect.Effect
	for i := 0; i < 8; i++ {
		effects = append(effects, newTestEffect(t, "lit", pathFragment, 2))
	}

	prepared, err := m.PrepareSources(effects, common.RenderPathDeferred)
	require.NoError(t, err)
	require.Len(t, prepared, len(effects))
	for _, e := range effects {
		sources := prepared[e.ID()]
		require.Len(t, sources, 2)
		assert.Contains(t, sources[1].Fragment, "params.roughness")
		assert.NotContains(t, sources[1].Fragment, "@oxy:")
	}
}

func TestRelease(t *testing.T) {
	m, b := newTestManager(t)
	a := newTestEffect(t, "a", plainFragment, 1)
	disposed := newTestEffect(t, "disposed", plainFragment, 1)
	uncompiled := newTestEffect(t, "uncompiled", plainFragment, 1)
	for _, e := range []effect.Effect{a, disposed, uncompiled} {
		m.RegisterEffect(e)
	}
	_, err := m.EnsureCompiled(a, common.RenderPathForward)
	require.NoError(t, err)
	_, err = m.EnsureCompiled(disposed, common.RenderPathForward)
	require.NoError(t, err)
	disposed.Dispose()
	require.Equal(t, 1, m.PendingLen())

	m.Release()
	assert.Equal(t, []backend.ProgramHandle{2, 1}, b.released, "programs are released newest first, pending ones included")
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, m.PendingLen())
	assert.Empty(t, m.Cleanup())

	a.Dispose()
	assert.Equal(t, 0, m.PendingLen(), "released effects are no longer observed")

	_, err = m.PrepareSources([]effect.Effect{uncompiled}, common.RenderPathForward)
	assert.ErrorIs(t, err, ErrReleased)

	m.Release()
	assert.Len(t, b.released, 2, "a second release does nothing")
}
