package effect_manager

import (
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"go.uber.org/zap"
)

// EffectManagerBuilderOption is a functional option applied to an effect manager during construction via NewEffectManager.
type EffectManagerBuilderOption func(*effectManager)

// WithLogger sets the logger used for registry and compilation events.
//
// Parameters:
//   - logger: the zap logger; nil keeps the no-op default
//
// Returns:
//   - EffectManagerBuilderOption: a function that applies the logger option to an effect manager
func WithLogger(logger *zap.Logger) EffectManagerBuilderOption {
	return func(m *effectManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithPreProcessor sets the shader pre-processor used to prepare pass sources.
//
// Parameters:
//   - pp: the pre-processor; nil selects shader.NewPreProcessor()
//
// Returns:
//   - EffectManagerBuilderOption: a function that applies the pre-processor option to an effect manager
func WithPreProcessor(pp shader.PreProcessor) EffectManagerBuilderOption {
	return func(m *effectManager) {
		m.pp = pp
	}
}

// WithWorkers sets the number of workers that prepare sources in parallel.
//
// Parameters:
//   - n: the worker count; values below 1 are raised to 1
//
// Returns:
//   - EffectManagerBuilderOption: a function that applies the worker count option to an effect manager
func WithWorkers(n int) EffectManagerBuilderOption {
	return func(m *effectManager) {
		m.workers = n
	}
}
