package config

import (
	"time"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/backend"
)

// Option overrides a setting after the file has been decoded.
type Option func(*Config)

// WithTitle sets the window title.
func WithTitle(title string) Option {
	return func(c *Config) {
		c.Window.Title = title
	}
}

// WithWindowSize sets the initial window size.
//
// Parameters:
//   - width, height: the size in pixels
//
// Returns:
//   - Option: option function to apply
func WithWindowSize(width, height int) Option {
	return func(c *Config) {
		c.Window.Width = width
		c.Window.Height = height
	}
}

// WithRenderPath sets the render path.
//
// Parameters:
//   - p: the render path
//
// Returns:
//   - Option: option function to apply
func WithRenderPath(p common.RenderPath) Option {
	return func(c *Config) {
		c.Renderer.RenderPath = p.String()
	}
}

// WithPresentMode sets the present mode.
//
// Parameters:
//   - m: the present mode
//
// Returns:
//   - Option: option function to apply
func WithPresentMode(m backend.PresentMode) Option {
	return func(c *Config) {
		c.Renderer.PresentMode = m.String()
	}
}

// WithMSAA sets the MSAA sample count.
func WithMSAA(n backend.MSAASampleCount) Option {
	return func(c *Config) {
		c.Renderer.MSAA = uint32(n)
	}
}

// WithCompileWorkers sets the number of workers preparing effect sources.
func WithCompileWorkers(n int) Option {
	return func(c *Config) {
		c.Renderer.CompileWorkers = n
	}
}

// WithLogLevel sets the log level name.
func WithLogLevel(level string) Option {
	return func(c *Config) {
		c.Log.Level = level
	}
}

// WithDevelopmentLogging switches to zap's development logger.
func WithDevelopmentLogging(dev bool) Option {
	return func(c *Config) {
		c.Log.Development = dev
	}
}

// WithProfiler enables the profiler and sets its interval.
//
// Parameters:
//   - enabled: true to log frame stats
//   - interval: how often stats are logged
//
// Returns:
//   - Option: option function to apply
func WithProfiler(enabled bool, interval time.Duration) Option {
	return func(c *Config) {
		c.Profiler.Enabled = enabled
		c.Profiler.Interval = Duration(interval)
	}
}

// WithTickRate sets the update rate in ticks per second.
func WithTickRate(rate float64) Option {
	return func(c *Config) {
		c.Engine.TickRate = rate
	}
}
