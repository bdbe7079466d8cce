package scene

import (
	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/effect"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/state"
	"github.com/go-gl/mathgl/mgl32"
)

// Component is anything attached to a Node. Cameras, projections, lights, models and collision shapes
// are components, as are the scene-level components declared in this package.
type Component interface {
	// ComponentType returns a short name of the component kind, used in logs.
	ComponentType() string
}

// Transform is a translation, rotation and scale, composed as T * R * S.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// NewTransform returns the identity transform.
func NewTransform() *Transform {
	return &Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Translation returns a transform that only moves.
//
// Parameters:
//   - x, y, z: the translation
//
// Returns:
//   - *Transform: the transform
func Translation(x, y, z float32) *Transform {
	t := NewTransform()
	t.Position = mgl32.Vec3{x, y, z}
	return t
}

// Matrix returns the local matrix T * R * S.
func (t *Transform) Matrix() mgl32.Mat4 {
	translate := mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2])
	scale := mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2])
	return translate.Mul4(t.Rotation.Normalize().Mat4()).Mul4(scale)
}

func (t *Transform) ComponentType() string {
	return "transform"
}

// EffectComponent makes an effect the active effect for its node and the node's subtree.
type EffectComponent struct {
	Effect effect.Effect
}

func (c *EffectComponent) ComponentType() string {
	return "effect"
}

// LayerComponent moves its node and subtree to a render layer and adds render flags.
type LayerComponent struct {
	Layer state.RenderLayer
	Flags state.RenderFlags
}

func (c *LayerComponent) ComponentType() string {
	return "layer"
}

// UIComponent places its node in user-interface space.
type UIComponent struct {
	// Rect is the node's rectangle in pixels.
	Rect common.Rect
	// Canvas is multiplied into the accumulated 2D canvas transform.
	Canvas mgl32.Mat3
}

// NewUIComponent returns a UI component with an identity canvas transform.
//
// Parameters:
//   - rect: the node's rectangle
//
// Returns:
//   - *UIComponent: the component
func NewUIComponent(rect common.Rect) *UIComponent {
	return &UIComponent{Rect: rect, Canvas: mgl32.Ident3()}
}

func (c *UIComponent) ComponentType() string {
	return "ui"
}
