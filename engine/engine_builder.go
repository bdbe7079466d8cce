package engine

import (
	"github.com/Carmen-Shannon/oxy-core/engine/renderer"
	"github.com/Carmen-Shannon/oxy-core/engine/scene"
	"github.com/Carmen-Shannon/oxy-core/engine/window"
	"go.uber.org/zap"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithLogger sets the logger instead of building one from the configuration.
//
// Parameters:
//   - logger: the logger; nil keeps the configured one
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) EngineBuilderOption {
	return func(e *engine) {
		e.logger = logger
	}
}

// WithWindow sets a custom configured window for the engine to use rather than allowing the engine
// to create and manage one internally.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the renderer instead of creating a WebGPU backend on the window. The engine does
// not release a renderer it did not create.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithScene registers a scene at the given key during engine construction.
//
// Parameters:
//   - key: the scene key
//   - s: the Scene to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(key int, s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		if s != nil {
			e.scenes[key] = s
		}
	}
}
