package renderer

import (
	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/effect_manager"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/state"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithLogger sets the logger shared with the effect manager the renderer creates.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(logger *zap.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithEffectManager injects an existing effect manager instead of creating one.
// The manager must draw through the same backend as the renderer.
//
// Parameters:
//   - m: the effect manager
//
// Returns:
//   - RendererBuilderOption: a function that applies the effect manager option to a renderer
func WithEffectManager(m effect_manager.EffectManager) RendererBuilderOption {
	return func(r *renderer) {
		r.injected = m
	}
}

// WithRenderPath sets the initial render path. Defaults to forward.
//
// Parameters:
//   - p: the render path
//
// Returns:
//   - RendererBuilderOption: a function that applies the render path option to a renderer
func WithRenderPath(p common.RenderPath) RendererBuilderOption {
	return func(r *renderer) {
		r.path = p
	}
}

// WithLayers restricts drawing to the given layers.
//
// Parameters:
//   - layers: the enabled layers
//
// Returns:
//   - RendererBuilderOption: a function that applies the layers option to a renderer
func WithLayers(layers ...state.RenderLayer) RendererBuilderOption {
	return func(r *renderer) {
		r.layers = layers
	}
}

// WithFrustumCulling culls meshes outside the camera frustum.
//
// Parameters:
//   - enabled: true to cull
//
// Returns:
//   - RendererBuilderOption: a function that applies the culling option to a renderer
func WithFrustumCulling(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.culling = enabled
	}
}

// WithCompileWorkers sets the worker count of the effect manager the renderer creates.
// Ignored when WithEffectManager is used.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - RendererBuilderOption: a function that applies the workers option to a renderer
func WithCompileWorkers(n int) RendererBuilderOption {
	return func(r *renderer) {
		if n < 1 {
			n = 1
		}
		r.workers = n
	}
}

// WithAmbient sets the ambient color written with the light buffer.
//
// Parameters:
//   - c: the linear RGB color
//
// Returns:
//   - RendererBuilderOption: a function that applies the ambient option to a renderer
func WithAmbient(c mgl32.Vec3) RendererBuilderOption {
	return func(r *renderer) {
		r.ambient = c
	}
}
