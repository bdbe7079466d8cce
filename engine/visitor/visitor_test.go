package visitor

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/camera"
	"github.com/Carmen-Shannon/oxy-core/engine/collision"
	"github.com/Carmen-Shannon/oxy-core/engine/effect"
	"github.com/Carmen-Shannon/oxy-core/engine/light"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/effect_manager"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-core/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newEffect(t *testing.T, name string) effect.Effect {
	t.Helper()
	e, err := effect.NewEffect(
		effect.WithName(name),
		effect.WithPass(effect.Pass{
			Name:     "main",
			State:    effect.DefaultRenderState(),
			Vertex:   "@vertex fn vs_main() {}",
			Fragment: "@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }",
		}),
	)
	require.NoError(t, err)
	return e
}

func TestWalkerBalancesState(t *testing.T) {
	probe := &scene.EffectComponent{}
	marker := camera.NewCamera()
	root := scene.NewNode(
		scene.WithPosition(1, 0, 0),
		scene.WithComponents(marker),
		scene.WithChildren(
			scene.NewNode(scene.WithPosition(0, 1, 0), scene.WithComponents(marker, probe)),
			scene.NewNode(scene.WithComponents(marker), scene.WithChildren(
				scene.NewNode(scene.WithComponents(marker)),
			)),
		),
	)

	w := NewWalker()
	var depths []int
	w.Walk(root, func(_ scene.Node, c scene.Component, s *state.RendererState) bool {
		assert.NotSame(t, probe, c, "state components are not dispatched")
		depths = append(depths, s.Depth())
		return true
	})
	assert.Equal(t, []int{1, 2, 2, 3}, depths)
	assert.Equal(t, 0, w.State().Depth())
	assert.Equal(t, mgl32.Ident4(), w.State().ModelMatrix().Top())
}

func TestWalkerEarlyStopBalancesState(t *testing.T) {
	leaf := scene.NewNode(scene.WithComponents(camera.NewCamera()))
	root := scene.NewNode(scene.WithChildren(scene.NewNode(scene.WithChildren(leaf)), scene.NewNode(scene.WithComponents(camera.NewCamera()))))

	w := NewWalker()
	visits := 0
	completed := w.Walk(root, func(scene.Node, scene.Component, *state.RendererState) bool {
		visits++
		return false
	})
	assert.False(t, completed)
	assert.Equal(t, 1, visits)
	assert.Equal(t, 0, w.State().Depth())
}

func TestWalkerSkipsDisabledSubtree(t *testing.T) {
	hidden := scene.NewNode(scene.WithEnabled(false), scene.WithComponents(camera.NewCamera()),
		scene.WithChildren(scene.NewNode(scene.WithComponents(camera.NewCamera()))))
	root := scene.NewNode(scene.WithChildren(hidden))

	count := 0
	for range NewCameraVisitor(false).Convert(root) {
		count++
	}
	assert.Zero(t, count)
}

func TestCameraWorldTranslation(t *testing.T) {
	cam := camera.NewCamera(camera.WithName("main"))
	b := scene.NewNode(scene.WithName("B"), scene.WithTransform(scene.Translation(1, 0, 0)), scene.WithComponents(cam))
	a := scene.NewNode(scene.WithName("A"), scene.WithComponents(scene.Translation(1, 0, 0)), scene.WithChildren(b))
	root := scene.NewNode(scene.WithChildren(a))

	res, ok := NewCameraVisitor(true).First(root)
	require.True(t, ok)
	assert.Same(t, cam, res.Camera)
	assert.Same(t, b, res.Node)
	assert.Equal(t, mgl32.Vec3{2, 0, 0}, res.Position())
	ident, product := mgl32.Ident4(), res.World.Mul4(res.View)
	assert.InDeltaSlice(t, ident[:], product[:], 1e-5)
	assert.Equal(t, cam.ProjectionMatrix(), res.Projection)
}

func TestTransformAppliedBeforeComponents(t *testing.T) {
	cam := camera.NewCamera()
	// The camera is declared before the transform on the same node.
	root := scene.NewNode(scene.WithComponents(cam, scene.Translation(0, 0, 3)))

	res, ok := NewCameraVisitor(false).First(root)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{0, 0, 3}, res.Position())
}

func TestConvertIsRestartableAndStoppable(t *testing.T) {
	root := scene.NewNode(scene.WithChildren(
		scene.NewNode(scene.WithComponents(camera.NewCamera(camera.WithName("a")))),
		scene.NewNode(scene.WithComponents(camera.NewCamera(camera.WithName("b")))),
	))
	seq := NewCameraVisitor(false).Convert(root)

	var names []string
	for r := range seq {
		names = append(names, r.Camera.Name())
	}
	for r := range seq {
		names = append(names, r.Camera.Name())
		break
	}
	assert.Equal(t, []string{"a", "b", "a"}, names)
}

func TestCameraVisitorActiveOnly(t *testing.T) {
	inactive := camera.NewCamera(camera.WithName("off"))
	inactive.SetActive(false)
	root := scene.NewNode(scene.WithComponents(inactive, camera.NewCamera(camera.WithName("on"))))

	res, ok := NewCameraVisitor(true).First(root)
	require.True(t, ok)
	assert.Equal(t, "on", res.Camera.Name())

	_, ok = NewCameraVisitor(true).First(scene.NewNode())
	assert.False(t, ok)
}

func TestProjectionVisitor(t *testing.T) {
	p := camera.DefaultProjection()
	root := scene.NewNode(scene.WithPosition(0, 5, 0), scene.WithComponents(&p, camera.NewCamera()))

	var results []ProjectionResult
	for r := range NewProjectionVisitor().Convert(root) {
		results = append(results, r)
	}
	require.Len(t, results, 1, "camera projections are not reported")
	assert.Same(t, &p, results[0].Projection)
	assert.Equal(t, p.Matrix(), results[0].Matrix)
	assert.Equal(t, mgl32.Vec3{0, 5, 0}, results[0].World.Col(3).Vec3())
}

func TestLightShadowFlagPersists(t *testing.T) {
	sun := light.NewLight(light.LightTypeDirectional, light.WithDirection(mgl32.Vec3{0, -1, 0}))
	holder := scene.NewNode(scene.WithPosition(1, 2, 3), scene.WithComponents(sun))
	root := scene.NewNode(scene.WithChildren(holder))
	v := NewLightVisitor()

	collect := func() *LightResult {
		var out *LightResult
		for r := range v.Convert(root) {
			out = r
		}
		require.NotNil(t, out)
		return out
	}

	first := collect()
	assert.True(t, first.NeedsShadowRerender)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, first.WorldPos)
	assert.InDelta(t, -1, first.Direction.Y(), 1e-6)

	second := collect()
	assert.Same(t, first, second, "records persist across traversals")
	assert.True(t, second.NeedsShadowRerender, "the visitor never clears the flag")

	second.ClearShadowRerender()
	assert.False(t, collect().NeedsShadowRerender, "unchanged position and rotation")

	holder.Local().Position = mgl32.Vec3{1, 2, 4}
	assert.True(t, collect().NeedsShadowRerender)

	require.Equal(t, 1, v.Len())
	v.Forget(sun)
	_, ok := v.Result(sun)
	assert.False(t, ok)
}

func TestLightDirectionFollowsRotation(t *testing.T) {
	spot := light.NewLight(light.LightTypeSpot, light.WithDirection(mgl32.Vec3{0, 0, -1}))
	tr := scene.NewTransform()
	tr.Rotation = mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})
	root := scene.NewNode(scene.WithTransform(tr), scene.WithComponents(spot))

	for r := range NewLightVisitor().Convert(root) {
		assert.InDelta(t, -1, r.Direction.X(), 1e-5)
		assert.InDelta(t, 0, r.Direction.Z(), 1e-5)
	}
}

func cubeAt(name string, z float32) scene.Node {
	return scene.NewNode(scene.WithName(name), scene.WithPosition(0, 0, z), scene.WithComponents(model.NewCube(name, 0.5)))
}

func TestPickerNearestWins(t *testing.T) {
	ray := common.Ray{Origin: mgl32.Vec3{0.1, 0.2, 0}, Direction: mgl32.Vec3{0, 0, -1}}
	orders := [][]string{{"far", "near"}, {"near", "far"}}
	for _, order := range orders {
		nodes := map[string]scene.Node{"far": cubeAt("far", -5.5), "near": cubeAt("near", -3.5)}
		root := scene.NewNode(scene.WithChildren(nodes[order[0]], nodes[order[1]]))

		res, ok := NewPicker().Pick(root, ray)
		require.True(t, ok)
		assert.Same(t, nodes["near"], res.Node)
		assert.InDelta(t, 3, res.Distance, 1e-5)
		assert.InDelta(t, -3, res.HitPoint.Z(), 1e-5)
	}
}

func TestPickerTieKeepsFirstVisited(t *testing.T) {
	first := cubeAt("first", -3.5)
	second := cubeAt("second", -3.5)
	root := scene.NewNode(scene.WithChildren(first, second))

	res, ok := NewPicker().Pick(root, common.Ray{Origin: mgl32.Vec3{0.1, 0.2, 0}, Direction: mgl32.Vec3{0, 0, -1}})
	require.True(t, ok)
	assert.Same(t, first, res.Node)
}

func TestPickerSkipsFlaggedSubtrees(t *testing.T) {
	near := cubeAt("near", -3.5)
	near.AddComponent(&scene.LayerComponent{Flags: state.FlagSkipPick})
	far := cubeAt("far", -5.5)
	root := scene.NewNode(scene.WithChildren(near, far))

	res, ok := NewPicker().Pick(root, common.Ray{Origin: mgl32.Vec3{0.1, 0.2, 0}, Direction: mgl32.Vec3{0, 0, -1}})
	require.True(t, ok)
	assert.Same(t, far, res.Node)

	_, ok = NewPicker().Pick(root, common.Ray{Origin: mgl32.Vec3{0.1, 0.2, 0}, Direction: mgl32.Vec3{0, 1, 0}})
	assert.False(t, ok)
}

func TestPickerCollisionShapes(t *testing.T) {
	ball := collision.NewSphere(1)
	ball.SetMargin(0)
	target := scene.NewNode(scene.WithPosition(0, 0, -10), scene.WithComponents(ball))
	root := scene.NewNode(scene.WithChildren(target))

	res, ok := NewPicker().Pick(root, common.Ray{Direction: mgl32.Vec3{0, 0, -1}})
	require.True(t, ok)
	assert.Same(t, target, res.Node)
	assert.InDelta(t, 9, res.Distance, 1e-5)
}

func newRenderVisitor(t *testing.T, b *fakeBackend, options ...RenderVisitorBuilderOption) (*RenderVisitor, effect_manager.EffectManager) {
	t.Helper()
	m := effect_manager.NewEffectManager(b, effect_manager.WithLogger(zaptest.NewLogger(t)))
	t.Cleanup(m.Release)
	options = append(options, WithLogger(zaptest.NewLogger(t)))
	return NewRenderVisitor(m, options...), m
}

func TestRenderVisitorCollect(t *testing.T) {
	b := &fakeBackend{}
	v, m := newRenderVisitor(t, b)
	lit := newEffect(t, "lit")

	drawn := model.NewCube("drawn", 1)
	root := scene.NewNode(
		scene.WithComponents(&scene.EffectComponent{Effect: lit}),
		scene.WithChildren(
			scene.NewNode(scene.WithPosition(2, 0, 0), scene.WithComponents(drawn)),
			scene.NewNode(scene.WithComponents(model.NewModel())),
		),
	)
	orphan := scene.NewNode(scene.WithComponents(model.NewCube("no effect", 1)))

	items, err := v.Collect(scene.NewNode(scene.WithChildren(root, orphan)))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Same(t, drawn, items[0].Mesh)
	assert.Same(t, lit, items[0].Effect)
	assert.Equal(t, mgl32.Vec3{2, 0, 0}, items[0].Model.Col(3).Vec3())
	assert.True(t, m.IsRegistered(lit.ID()))
	assert.Equal(t, 1, b.compiled)

	_, err = v.Collect(root)
	require.NoError(t, err)
	assert.Equal(t, 1, b.compiled, "compiled variants are reused")
}

func TestRenderVisitorLayers(t *testing.T) {
	b := &fakeBackend{}
	v, _ := newRenderVisitor(t, b, WithLayers(state.DefaultLayer))
	e := newEffect(t, "lit")

	ui := scene.NewNode(scene.WithComponents(&scene.LayerComponent{Layer: 5, Flags: state.FlagUI}, model.NewCube("ui", 1)))
	world := scene.NewNode(scene.WithComponents(model.NewCube("world", 1)))
	root := scene.NewNode(scene.WithComponents(&scene.EffectComponent{Effect: e}), scene.WithChildren(ui, world))

	items, err := v.Collect(root)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "world", items[0].Mesh.Name())

	v.SetLayers()
	items, err = v.Collect(root)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, state.RenderLayer(5), items[0].Layer)
	assert.True(t, items[0].Flags.Has(state.FlagUI))
}

func TestRenderVisitorReportsCompileErrors(t *testing.T) {
	b := &fakeBackend{failOn: "broken"}
	v, m := newRenderVisitor(t, b)
	broken := newEffect(t, "broken")
	good := newEffect(t, "good")

	root := scene.NewNode(scene.WithChildren(
		scene.NewNode(scene.WithComponents(&scene.EffectComponent{Effect: broken}, model.NewCube("a", 1), model.NewCube("b", 1))),
		scene.NewNode(scene.WithComponents(&scene.EffectComponent{Effect: good}, model.NewCube("c", 1))),
	))

	items, err := v.Collect(root)
	require.Error(t, err)
	assert.Len(t, items, 1)
	assert.Same(t, good, items[0].Effect)
	assert.True(t, m.IsRegistered(broken.ID()), "a failed effect stays registered")
	_, ok := m.GetCompiledEffect(broken, v.Path())
	assert.False(t, ok)
}

func TestRenderVisitorFrustumCulling(t *testing.T) {
	b := &fakeBackend{}
	v, _ := newRenderVisitor(t, b, WithFrustumCulling(true))
	e := newEffect(t, "lit")
	root := scene.NewNode(
		scene.WithComponents(&scene.EffectComponent{Effect: e}),
		scene.WithChildren(cubeAt("front", -5), cubeAt("behind", 5)),
	)

	cam := camera.NewCamera()
	v.SetViewProjection(cam.ProjectionMatrix())
	items, err := v.Collect(root)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "front", items[0].Mesh.Name())
}

func TestRenderVisitorSkipsDisposedEffects(t *testing.T) {
	b := &fakeBackend{}
	v, m := newRenderVisitor(t, b)
	e := newEffect(t, "gone")
	e.Dispose()

	root := scene.NewNode(scene.WithComponents(&scene.EffectComponent{Effect: e}, model.NewCube("a", 1)))
	items, err := v.Collect(root)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, m.Len())
}

func TestNewRenderVisitorPanicsOnNilManager(t *testing.T) {
	assert.PanicsWithValue(t, "visitor: nil effect manager", func() {
		NewRenderVisitor(nil)
	})
}
