package visitor

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/effect"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/effect_manager"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-core/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DrawItem is one mesh to draw with the effect active at its node.
type DrawItem struct {
	Node     scene.Node
	Mesh     model.Model
	Effect   effect.Effect
	Compiled *effect_manager.CompiledEffect
	// Model is the accumulated model matrix of the node.
	Model mgl32.Mat4
	Layer state.RenderLayer
	Flags state.RenderFlags
}

// RenderVisitor turns a graph into draw items, registering and compiling effects on the way.
type RenderVisitor struct {
	manager effect_manager.EffectManager
	path    common.RenderPath
	// layers holds the enabled layers; nil enables every layer.
	layers  map[state.RenderLayer]bool
	culling bool
	frustum *common.Frustum
	logger  *zap.Logger
}

// NewRenderVisitor creates a render visitor that compiles through manager.
//
// Parameters:
//   - manager: the effect manager; must not be nil
//   - options: variadic list of RenderVisitorBuilderOption functions
//
// Returns:
//   - *RenderVisitor: the visitor
func NewRenderVisitor(manager effect_manager.EffectManager, options ...RenderVisitorBuilderOption) *RenderVisitor {
	if manager == nil {
		panic("visitor: nil effect manager")
	}
	v := &RenderVisitor{
		manager: manager,
		path:    common.RenderPathForward,
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		opt(v)
	}
	return v
}

// Path returns the render path effects are compiled for.
func (v *RenderVisitor) Path() common.RenderPath {
	return v.path
}

// SetPath changes the render path effects are compiled for.
func (v *RenderVisitor) SetPath(p common.RenderPath) {
	v.path = p
}

// SetLayers restricts drawing to the given layers. No layers enables every layer.
func (v *RenderVisitor) SetLayers(layers ...state.RenderLayer) {
	if len(layers) == 0 {
		v.layers = nil
		return
	}
	v.layers = make(map[state.RenderLayer]bool, len(layers))
	for _, l := range layers {
		v.layers[l] = true
	}
}

// LayerEnabled reports whether items on a layer are collected.
func (v *RenderVisitor) LayerEnabled(l state.RenderLayer) bool {
	return v.layers == nil || v.layers[l]
}

// SetViewProjection sets the matrix the frustum is extracted from. It has no effect unless culling
// was enabled with WithFrustumCulling.
//
// Parameters:
//   - viewProj: the camera's Projection * View matrix
func (v *RenderVisitor) SetViewProjection(viewProj mgl32.Mat4) {
	if !v.culling {
		return
	}
	f := common.ExtractFrustumFromMatrix(viewProj)
	v.frustum = &f
}

// Collect walks the graph and returns a draw item for every mesh on an enabled layer that has an
// active effect and survives culling. Effects are registered and compiled on first use. An effect
// that fails to compile is reported once and its items are skipped.
//
// Parameters:
//   - root: the graph root
//
// Returns:
//   - []DrawItem: the draw items in traversal order
//   - error: the joined compile errors, or nil
func (v *RenderVisitor) Collect(root scene.Node) ([]DrawItem, error) {
	var (
		items  []DrawItem
		errs   []error
		failed map[uuid.UUID]bool
	)
	NewWalker().Walk(root, func(n scene.Node, c scene.Component, s *state.RendererState) bool {
		mesh, ok := c.(model.Model)
		if !ok || mesh.IndexCount() == 0 {
			return true
		}
		e := s.Effect().Top()
		if e == nil {
			return true
		}
		layer := s.Layer().Top()
		if !v.LayerEnabled(layer) {
			return true
		}
		world := s.ModelMatrix().Top()
		if v.frustum != nil && !v.frustum.IntersectsAABB(mesh.Bounds().Transform(world)) {
			return true
		}
		if failed[e.ID()] {
			return true
		}

		v.manager.RegisterEffect(e)
		if !v.manager.IsRegistered(e.ID()) {
			return true
		}
		compiled, err := v.manager.EnsureCompiled(e, v.path)
		if err != nil {
			if failed == nil {
				failed = make(map[uuid.UUID]bool)
			}
			failed[e.ID()] = true
			errs = append(errs, fmt.Errorf("visitor: node %q: %w", n.Name(), err))
			return true
		}
		items = append(items, DrawItem{
			Node:     n,
			Mesh:     mesh,
			Effect:   e,
			Compiled: compiled,
			Model:    world,
			Layer:    layer,
			Flags:    s.Flags().Top(),
		})
		return true
	})
	if len(errs) > 0 {
		v.logger.Warn("skipped draw items", zap.Int("effects", len(errs)))
	}
	return items, errors.Join(errs...)
}
