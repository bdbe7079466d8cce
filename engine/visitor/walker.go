// Package visitor walks the scene graph with a shared RendererState and turns what it finds into
// flat results: cameras, projections, lights, pick hits and draw items.
package visitor

import (
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-core/engine/scene"
)

// VisitFunc receives every component that is not interpreted by the walker itself, in declaration
// order. The state holds the accumulated values for the node being visited.
// Returning false stops the walk.
type VisitFunc func(n scene.Node, c scene.Component, s *state.RendererState) bool

// Walker performs a depth-first pre-order traversal of a node graph.
//
// On entering a node the walker pushes the state, right-multiplies the node's local transform and
// every *scene.Transform component into the model matrix, then applies the state components
// (*scene.EffectComponent, *scene.LayerComponent, *scene.UIComponent), and only then hands the
// node's other components to the visit function. Children are walked next and the state is popped
// on the way out, including when the walk stops early. Disabled nodes are skipped with their subtree.
//
// The graph must be acyclic. Walker does not detect cycles.
type Walker struct {
	state *state.RendererState
}

// NewWalker creates a walker with its own RendererState.
//
// Returns:
//   - *Walker: the walker
func NewWalker() *Walker {
	return &Walker{state: state.NewRendererState()}
}

// State returns the walker's state.
func (w *Walker) State() *state.RendererState {
	return w.state
}

// Walk resets the state and traverses the graph under root.
//
// Parameters:
//   - root: the first node to visit; nil visits nothing
//   - visit: called for each non-state component
//
// Returns:
//   - bool: false if visit stopped the walk
func (w *Walker) Walk(root scene.Node, visit VisitFunc) bool {
	w.state.InitState()
	if root == nil {
		return true
	}
	return w.walk(root, visit)
}

func (w *Walker) walk(n scene.Node, visit VisitFunc) bool {
	if !n.Enabled() {
		return true
	}
	s := w.state
	s.PushState()
	defer s.PopState()

	if local := n.Local(); local != nil {
		s.MulModelMatrix(local.Matrix())
	}
	comps := n.Components()
	for _, c := range comps {
		if t, ok := c.(*scene.Transform); ok {
			s.MulModelMatrix(t.Matrix())
		}
	}
	for _, c := range comps {
		applyState(s, c)
	}

	for _, c := range comps {
		if isStateComponent(c) {
			continue
		}
		if !visit(n, c, s) {
			return false
		}
	}

	for _, child := range n.Children() {
		if child == nil {
			continue
		}
		if !w.walk(child, visit) {
			return false
		}
	}
	return true
}

func applyState(s *state.RendererState, c scene.Component) {
	switch sc := c.(type) {
	case *scene.EffectComponent:
		if sc.Effect != nil {
			s.Effect().SetTop(sc.Effect)
		}
	case *scene.LayerComponent:
		s.Layer().SetTop(sc.Layer)
		s.AddFlags(sc.Flags)
	case *scene.UIComponent:
		s.UIRect().SetTop(sc.Rect)
		s.MulCanvasTransform(sc.Canvas)
	}
}

func isStateComponent(c scene.Component) bool {
	switch c.(type) {
	case *scene.Transform, *scene.EffectComponent, *scene.LayerComponent, *scene.UIComponent:
		return true
	}
	return false
}
