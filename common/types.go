// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// RenderPath selects the shading pipeline an effect is compiled for. Passes whose fragment source
// contains render-path blocks produce a distinct program per path.
type RenderPath int

const (
	// RenderPathForward shades every fragment directly in the geometry pass.
	RenderPathForward RenderPath = iota

	// RenderPathDeferred writes surface attributes to a G-buffer and shades in a later pass.
	RenderPathDeferred
)

// RenderPaths lists every render path in declaration order.
var RenderPaths = []RenderPath{RenderPathForward, RenderPathDeferred}

// String returns the lower-case name of the render path as used in shader annotations and config files.
func (p RenderPath) String() string {
	switch p {
	case RenderPathForward:
		return "forward"
	case RenderPathDeferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// ParseRenderPath converts a render path name back to its RenderPath value.
//
// Parameters:
//   - s: the render path name ("forward" or "deferred")
//
// Returns:
//   - RenderPath: the parsed render path
//   - bool: false if the name is not recognised
func ParseRenderPath(s string) (RenderPath, bool) {
	for _, p := range RenderPaths {
		if p.String() == s {
			return p, true
		}
	}
	return RenderPathForward, false
}

// Rect is an axis-aligned rectangle in UI space, measured in pixels from the top-left corner.
type Rect struct {
	X, Y          float32
	Width, Height float32
}

// TextureStagingData holds RGBA pixel data for a texture binding pending GPU upload.
// This is primarily used by the render backend to stage texture data before creating the GPU texture and bind group.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels. This is required to correctly create the GPU texture and interpret the pixel data.
	Width uint32
	// Height is the height of the texture in pixels. This is required to correctly create the GPU texture and interpret the pixel data.
	Height uint32
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
// Zero-valued fields fall back to linear filtering and repeat addressing when the sampler is created.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers, used in shadow mapping and similar techniques.
	Compare wgpu.CompareFunction
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering, which can improve texture quality at oblique viewing angles.
	MaxAnisotropy uint16
}
