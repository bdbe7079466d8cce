package effect

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEffect(t *testing.T) Effect {
	t.Helper()
	e, err := NewEffect(
		WithName("lit"),
		WithPass(Pass{Name: "main", State: DefaultRenderState(), Vertex: "vs", Fragment: "fs"}),
		WithParameter("tint", ParamVec4, mgl32.Vec4{1, 1, 1, 1}),
		WithParameter("roughness", ParamFloat, float32(0.5)),
		WithParameter("albedo", ParamTexture, nil),
	)
	require.NoError(t, err)
	return e
}

func TestNewEffectDefaults(t *testing.T) {
	e := newTestEffect(t)

	assert.Equal(t, "lit", e.Name())
	require.Len(t, e.Passes(), 1)

	v, ok := e.Value("roughness")
	require.True(t, ok)
	assert.Equal(t, float32(0.5), v)

	v, ok = e.Value("albedo")
	require.True(t, ok)
	assert.Nil(t, v)

	assert.Empty(t, e.ChangedParameters())
}

func TestAccessorsReturnCopies(t *testing.T) {
	e := newTestEffect(t)

	params := e.Parameters()
	params[0].Name = "renamed"
	passes := e.Passes()
	passes[0].Fragment = "changed"

	assert.Equal(t, "tint", e.Parameters()[0].Name)
	assert.Equal(t, "fs", e.Passes()[0].Fragment)
	p, ok := e.ParameterByID(HashParameterName("tint"))
	require.True(t, ok)
	assert.Equal(t, "tint", p.Name)
	_, ok = e.Parameter("renamed")
	assert.False(t, ok)
}

func TestNewEffectRejectsDuplicateParameters(t *testing.T) {
	_, err := NewEffect(
		WithParameter("a", ParamFloat, nil),
		WithParameter("a", ParamInt, nil),
	)
	assert.ErrorIs(t, err, ErrDuplicateParameter)
}

func TestNewEffectRejectsBadDefault(t *testing.T) {
	_, err := NewEffect(WithParameter("a", ParamFloat, 3))
	var typeErr *ParameterTypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestNewEffectNameDefaultsToID(t *testing.T) {
	e, err := NewEffect()
	require.NoError(t, err)
	assert.Equal(t, e.ID().String(), e.Name())
}

func TestSetParameterNotifiesWithHashedID(t *testing.T) {
	e := newTestEffect(t)

	var events []ChangeEvent
	e.Subscribe(func(ev ChangeEvent) { events = append(events, ev) })

	require.NoError(t, e.SetParameter("roughness", float32(0.9)))

	require.Len(t, events, 1)
	assert.Equal(t, ChangeUpdate, events[0].Kind)
	assert.Equal(t, e.ID(), events[0].EffectID)
	assert.Equal(t, HashParameterName("roughness"), events[0].ParamID)
	assert.Equal(t, float32(0.9), events[0].Value)
	assert.Equal(t, []ParamID{HashParameterName("roughness")}, e.ChangedParameters())

	p, ok := e.ParameterByID(events[0].ParamID)
	require.True(t, ok)
	assert.Equal(t, "roughness", p.Name)

	e.ClearChanged()
	assert.Empty(t, e.ChangedParameters())
}

func TestSetParameterErrorsLeaveStateUnchanged(t *testing.T) {
	tests := []struct {
		name  string
		param string
		value Value
		check func(t *testing.T, err error)
	}{
		{
			name:  "unknown",
			param: "metalness",
			value: float32(1),
			check: func(t *testing.T, err error) {
				var target *UnknownParameterError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "metalness", target.Name)
			},
		},
		{
			name:  "wrong type",
			param: "roughness",
			value: 1.0,
			check: func(t *testing.T, err error) {
				var target *ParameterTypeError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, ParamFloat, target.Want)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEffect(t)
			notified := 0
			e.Subscribe(func(ChangeEvent) { notified++ })

			err := e.SetParameter(tt.param, tt.value)
			tt.check(t, err)

			v, _ := e.Value("roughness")
			assert.Equal(t, float32(0.5), v)
			assert.Empty(t, e.ChangedParameters())
			assert.Zero(t, notified)
		})
	}
}

func TestDisposeNotifiesOnce(t *testing.T) {
	e := newTestEffect(t)

	disposes := 0
	e.Subscribe(func(ev ChangeEvent) {
		if ev.Kind == ChangeDispose {
			disposes++
		}
	})

	e.Dispose()
	e.Dispose()

	assert.Equal(t, 1, disposes)
	assert.True(t, e.Disposed())
	assert.True(t, errors.Is(e.SetParameter("roughness", float32(1)), ErrEffectDisposed))
}

func TestUnsubscribe(t *testing.T) {
	e := newTestEffect(t)

	var first, second int
	unsubscribe := e.Subscribe(func(ChangeEvent) { first++ })
	e.Subscribe(func(ChangeEvent) { second++ })

	require.NoError(t, e.SetParameter("roughness", float32(0.1)))
	unsubscribe()
	unsubscribe()
	require.NoError(t, e.SetParameter("roughness", float32(0.2)))

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestEncode(t *testing.T) {
	assert.Len(t, Encode(float32(1)), 4)
	assert.Equal(t, []byte{1, 0, 0, 0}, Encode(true))
	assert.Len(t, Encode(mgl32.Vec3{1, 2, 3}), 12)
	assert.Len(t, Encode(mgl32.Ident3()), 48)
	assert.Len(t, Encode(mgl32.Ident4()), 64)
	assert.Nil(t, Encode(nil))
	assert.Equal(t, []byte{7, 8}, Encode([]byte{7, 8}))
}
