package backend

import (
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// WGPUBackendBuilderOption is a functional option applied to the WebGPU backend during construction via NewWGPUBackend.
type WGPUBackendBuilderOption func(*wgpuBackend)

// WithLogger sets the logger used for backend diagnostics.
//
// Parameters:
//   - logger: the zap logger; nil keeps the no-op default
//
// Returns:
//   - WGPUBackendBuilderOption: a function that applies the logger option to a backend
func WithLogger(logger *zap.Logger) WGPUBackendBuilderOption {
	return func(b *wgpuBackend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - WGPUBackendBuilderOption: a function that applies the present mode option to a backend
func WithPresentMode(mode PresentMode) WGPUBackendBuilderOption {
	return func(b *wgpuBackend) {
		b.presentMode = mode
	}
}

// WithMSAA sets the multisample anti-aliasing sample count for the main render pass.
// When not specified, the default is MSAA4x. Use MSAAOff to disable MSAA entirely.
// Higher values (MSAA8x, MSAA16x) are adapter-dependent and may not be supported
// by all hardware.
//
// Parameters:
//   - count: the MSAASampleCount to use (MSAAOff, MSAA4x, MSAA8x, or MSAA16x)
//
// Returns:
//   - WGPUBackendBuilderOption: a function that applies the MSAA option to a backend
func WithMSAA(count MSAASampleCount) WGPUBackendBuilderOption {
	return func(b *wgpuBackend) {
		if count.Valid() {
			b.sampleCount = count
		}
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - WGPUBackendBuilderOption: a function that applies the force software renderer option to a backend
func WithForceSoftwareRenderer(force bool) WGPUBackendBuilderOption {
	return func(b *wgpuBackend) {
		b.forceFallbackAdapter = force
	}
}

// WithClearColor sets the color the main render pass clears to.
//
// Parameters:
//   - r, g, bl, a: the clear color components in [0, 1]
//
// Returns:
//   - WGPUBackendBuilderOption: a function that applies the clear color option to a backend
func WithClearColor(r, g, bl, a float64) WGPUBackendBuilderOption {
	return func(b *wgpuBackend) {
		b.clearColor = wgpu.Color{R: r, G: g, B: bl, A: a}
	}
}
