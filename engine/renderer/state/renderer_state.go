package state

import (
	"strings"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/effect"
	"github.com/go-gl/mathgl/mgl32"
)

// RenderFlags is a bit set of per-node rendering hints.
type RenderFlags uint32

const (
	// FlagShadowCaster marks geometry that is drawn into shadow maps.
	FlagShadowCaster RenderFlags = 1 << iota
	// FlagTransparent marks geometry drawn after opaque geometry.
	FlagTransparent
	// FlagSkipPick excludes a subtree from picking.
	FlagSkipPick
	// FlagUI marks user-interface geometry.
	FlagUI
)

var flagNames = []struct {
	flag RenderFlags
	name string
}{
	{FlagShadowCaster, "shadow_caster"},
	{FlagTransparent, "transparent"},
	{FlagSkipPick, "skip_pick"},
	{FlagUI, "ui"},
}

// Has reports whether every bit of flag is set.
func (f RenderFlags) Has(flag RenderFlags) bool {
	return f&flag == flag
}

// String returns the set flag names joined with "|".
func (f RenderFlags) String() string {
	var names []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// RenderLayer groups geometry for ordering and for enabling whole groups at once.
type RenderLayer uint32

// DefaultLayer is the layer of nodes that do not choose one.
const DefaultLayer RenderLayer = 0

// layerStack is the part of a collapsing stack RendererState drives generically.
type layerStack interface {
	Push()
	Pop() bool
	Depth() int
}

// RendererState is the traversal state shared by all scene visitors. Each node entered pushes every
// stack once and each node left pops every stack once, so a balanced traversal leaves the state as it
// found it.
//
// RendererState is not safe for concurrent use.
type RendererState struct {
	model  *CollapsingStack[mgl32.Mat4]
	uiRect *CollapsingStack[common.Rect]
	canvas *CollapsingStack[mgl32.Mat3]
	effect *CollapsingStack[effect.Effect]
	layer  *CollapsingStack[RenderLayer]
	flags  *CollapsingStack[RenderFlags]

	// stacks lists every stack in registration order.
	stacks []layerStack
}

// NewRendererState creates a state with every stack at its initial value.
//
// Returns:
//   - *RendererState: the state
func NewRendererState() *RendererState {
	s := &RendererState{
		model:  NewCollapsingStack(mgl32.Ident4(), Equal[mgl32.Mat4]),
		uiRect: NewCollapsingStack(common.Rect{}, Equal[common.Rect]),
		canvas: NewCollapsingStack(mgl32.Ident3(), Equal[mgl32.Mat3]),
		effect: NewCollapsingStack[effect.Effect](nil, Equal[effect.Effect]),
		layer:  NewCollapsingStack(DefaultLayer, Equal[RenderLayer]),
		flags:  NewCollapsingStack(RenderFlags(0), Equal[RenderFlags]),
	}
	s.stacks = []layerStack{s.model, s.uiRect, s.canvas, s.effect, s.layer, s.flags}
	return s
}

// InitState resets every stack to its initial value: identity model matrix and canvas transform,
// no effect, the default layer, an empty UI rect and no flags.
func (s *RendererState) InitState() {
	s.model.Reset(mgl32.Ident4())
	s.uiRect.Reset(common.Rect{})
	s.canvas.Reset(mgl32.Ident3())
	s.effect.Reset(nil)
	s.layer.Reset(DefaultLayer)
	s.flags.Reset(0)
}

// PushState pushes every stack, in registration order.
func (s *RendererState) PushState() {
	for _, st := range s.stacks {
		st.Push()
	}
}

// PopState pops every stack, in reverse registration order.
func (s *RendererState) PopState() {
	for i := len(s.stacks) - 1; i >= 0; i-- {
		s.stacks[i].Pop()
	}
}

// Depth returns the number of PushState calls not yet matched by PopState.
func (s *RendererState) Depth() int {
	return s.model.Depth()
}

// ModelMatrix returns the accumulated model matrix stack.
func (s *RendererState) ModelMatrix() *CollapsingStack[mgl32.Mat4] {
	return s.model
}

// UIRect returns the UI rectangle stack.
func (s *RendererState) UIRect() *CollapsingStack[common.Rect] {
	return s.uiRect
}

// CanvasTransform returns the 2D canvas transform stack.
func (s *RendererState) CanvasTransform() *CollapsingStack[mgl32.Mat3] {
	return s.canvas
}

// Effect returns the active effect stack.
func (s *RendererState) Effect() *CollapsingStack[effect.Effect] {
	return s.effect
}

// Layer returns the render layer stack.
func (s *RendererState) Layer() *CollapsingStack[RenderLayer] {
	return s.layer
}

// Flags returns the render flags stack.
func (s *RendererState) Flags() *CollapsingStack[RenderFlags] {
	return s.flags
}

// MulModelMatrix right-multiplies the top model matrix by a local transform: top = top * local.
//
// Parameters:
//   - local: the node-local transform
func (s *RendererState) MulModelMatrix(local mgl32.Mat4) {
	s.model.SetTop(s.model.Top().Mul4(local))
}

// MulCanvasTransform right-multiplies the top canvas transform: top = top * local.
//
// Parameters:
//   - local: the node-local 2D transform
func (s *RendererState) MulCanvasTransform(local mgl32.Mat3) {
	s.canvas.SetTop(s.canvas.Top().Mul3(local))
}

// AddFlags sets flag bits on the top of the flags stack.
//
// Parameters:
//   - f: the bits to set
func (s *RendererState) AddFlags(f RenderFlags) {
	s.flags.SetTop(s.flags.Top() | f)
}
