package visitor

import (
	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/state"
	"go.uber.org/zap"
)

// RenderVisitorBuilderOption is a functional option for configuring a RenderVisitor.
type RenderVisitorBuilderOption func(*RenderVisitor)

// WithRenderPath sets the render path effects are compiled for. Defaults to forward.
//
// Parameters:
//   - p: the render path
//
// Returns:
//   - RenderVisitorBuilderOption: option function to apply
func WithRenderPath(p common.RenderPath) RenderVisitorBuilderOption {
	return func(v *RenderVisitor) {
		v.path = p
	}
}

// WithLayers restricts drawing to the given layers.
//
// Parameters:
//   - layers: the enabled layers
//
// Returns:
//   - RenderVisitorBuilderOption: option function to apply
func WithLayers(layers ...state.RenderLayer) RenderVisitorBuilderOption {
	return func(v *RenderVisitor) {
		v.SetLayers(layers...)
	}
}

// WithFrustumCulling enables culling of meshes whose world bounds fall outside the frustum set by
// SetViewProjection.
//
// Parameters:
//   - enabled: true to cull
//
// Returns:
//   - RenderVisitorBuilderOption: option function to apply
func WithFrustumCulling(enabled bool) RenderVisitorBuilderOption {
	return func(v *RenderVisitor) {
		v.culling = enabled
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - RenderVisitorBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) RenderVisitorBuilderOption {
	return func(v *RenderVisitor) {
		if logger != nil {
			v.logger = logger
		}
	}
}
