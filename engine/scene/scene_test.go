package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformMatrix(t *testing.T) {
	tr := NewTransform()
	assert.Equal(t, mgl32.Ident4(), tr.Matrix())

	tr.Position = mgl32.Vec3{1, 2, 3}
	tr.Scale = mgl32.Vec3{2, 2, 2}
	m := tr.Matrix()
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, m.Col(3).Vec3())
	assert.Equal(t, float32(2), m.At(0, 0))
}

func TestNodeChildrenAndComponents(t *testing.T) {
	a := NewNode(WithName("a"))
	b := NewNode(WithName("b"), WithPosition(1, 0, 0))
	effect := &EffectComponent{}
	root := NewNode(WithChildren(a, b), WithComponents(effect, nil))

	require.Len(t, root.Children(), 2)
	assert.Same(t, a, root.Children()[0])
	assert.Len(t, root.Components(), 1, "nil components are dropped")
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, b.Local().Position)
	assert.Nil(t, a.Local())
	assert.True(t, a.Enabled())

	assert.True(t, root.RemoveChild(a))
	assert.False(t, root.RemoveChild(a))
	assert.True(t, root.RemoveComponent(effect))
	assert.Empty(t, root.Components())
}

func TestSceneFind(t *testing.T) {
	leaf := NewNode(WithName("leaf"))
	s := NewScene("level", WithNodes(NewNode(WithName("mid"), WithChildren(leaf))))

	assert.Same(t, leaf, s.Find("leaf"))
	assert.Nil(t, s.Find("missing"))
	assert.True(t, s.Active())

	s.SetActive(false)
	s.SetName("other")
	assert.False(t, s.Active())
	assert.Equal(t, "other", s.Name())
}
