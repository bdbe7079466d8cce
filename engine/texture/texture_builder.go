package texture

import (
	"github.com/Carmen-Shannon/oxy-core/common"
)

// TextureBuilderOption is a function that configures a texture instance during construction.
type TextureBuilderOption func(*texture)

// WithName is an option builder that sets the texture identifier.
//
// Parameters:
//   - name: the texture name
//
// Returns:
//   - TextureBuilderOption: a function that applies the name option to a texture
func WithName(name string) TextureBuilderOption {
	return func(t *texture) {
		t.name = name
	}
}

// WithData is an option builder that sets embedded encoded image bytes as the texture source.
//
// Parameters:
//   - data: the encoded image bytes
//   - mimeType: the image format, informational only
//
// Returns:
//   - TextureBuilderOption: a function that applies the data option to a texture
func WithData(data []byte, mimeType string) TextureBuilderOption {
	return func(t *texture) {
		t.data = data
		t.mimeType = mimeType
	}
}

// WithPath is an option builder that sets an external image file as the texture source.
//
// Parameters:
//   - path: the image file path
//
// Returns:
//   - TextureBuilderOption: a function that applies the path option to a texture
func WithPath(path string) TextureBuilderOption {
	return func(t *texture) {
		t.path = path
	}
}

// WithSampler is an option builder that sets the sampler parameters used when the texture is bound.
//
// Parameters:
//   - sampler: the sampler parameters
//
// Returns:
//   - TextureBuilderOption: a function that applies the sampler option to a texture
func WithSampler(sampler common.SamplerStagingData) TextureBuilderOption {
	return func(t *texture) {
		t.sampler = &sampler
	}
}
