// Package texture is the thin object model for images sampled by effects. It decodes image data to
// RGBA staging pixels; GPU upload is the render backend's job.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/Carmen-Shannon/oxy-core/common"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// texture is the implementation of the Texture interface.
type texture struct {
	name     string
	path     string
	data     []byte
	mimeType string
	sampler  *common.SamplerStagingData

	staging *common.TextureStagingData
	version uint64
}

// Texture defines the interface for an image used as an effect parameter.
//
// A Texture is backed either by encoded bytes (embedded) or a file path (external). Decode turns
// either source into RGBA pixels; the result is cached until the source changes.
type Texture interface {
	// Name retrieves the texture identifier.
	//
	// Returns:
	//   - string: the texture name
	Name() string

	// Path retrieves the file path for external textures, or an empty string for embedded textures.
	//
	// Returns:
	//   - string: the source file path
	Path() string

	// MimeType retrieves the declared image format, if known (e.g. "image/png").
	//
	// Returns:
	//   - string: the mime type, or an empty string
	MimeType() string

	// Sampler retrieves the sampler parameters for this texture, or nil for engine defaults.
	//
	// Returns:
	//   - *common.SamplerStagingData: the sampler parameters
	Sampler() *common.SamplerStagingData

	// Version is incremented whenever the texture source changes. Backends compare it against the
	// version they uploaded to decide whether to re-upload.
	//
	// Returns:
	//   - uint64: the current source version
	Version() uint64

	// Decode decodes the texture to RGBA pixel data.
	// Supports PNG, JPEG, BMP, TIFF and WebP.
	//
	// Returns:
	//   - common.TextureStagingData: the RGBA pixels and dimensions
	//   - error: an error if the source cannot be read or decoded
	Decode() (common.TextureStagingData, error)

	// SetData replaces the source with embedded encoded bytes and invalidates the decode cache.
	//
	// Parameters:
	//   - data: the encoded image bytes
	//   - mimeType: the image format, informational only
	SetData(data []byte, mimeType string)

	// SetPath replaces the source with an external file and invalidates the decode cache.
	//
	// Parameters:
	//   - path: the image file path
	SetPath(path string)
}

var _ Texture = &texture{}

// NewTexture creates a new Texture configured with the provided options.
//
// Parameters:
//   - options: variadic list of TextureBuilderOption functions to configure the texture
//
// Returns:
//   - Texture: a new Texture instance
func NewTexture(options ...TextureBuilderOption) Texture {
	t := &texture{version: 1}
	for _, opt := range options {
		opt(t)
	}
	return t
}

func (t *texture) Name() string {
	return t.name
}

func (t *texture) Path() string {
	return t.path
}

func (t *texture) MimeType() string {
	return t.mimeType
}

func (t *texture) Sampler() *common.SamplerStagingData {
	return t.sampler
}

func (t *texture) Version() uint64 {
	return t.version
}

func (t *texture) SetData(data []byte, mimeType string) {
	t.data = data
	t.mimeType = mimeType
	t.path = ""
	t.staging = nil
	t.version++
}

func (t *texture) SetPath(path string) {
	t.path = path
	t.data = nil
	t.staging = nil
	t.version++
}

func (t *texture) Decode() (common.TextureStagingData, error) {
	if t.staging != nil {
		return *t.staging, nil
	}

	var img image.Image
	var err error

	if len(t.data) > 0 {
		img, _, err = image.Decode(bytes.NewReader(t.data))
		if err != nil {
			return common.TextureStagingData{}, fmt.Errorf("failed to decode embedded image %q: %w", t.name, err)
		}
	} else if t.path != "" {
		file, fileErr := os.Open(t.path)
		if fileErr != nil {
			return common.TextureStagingData{}, fmt.Errorf("failed to open texture file %s: %w", t.path, fileErr)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return common.TextureStagingData{}, fmt.Errorf("failed to decode texture file %s: %w", t.path, err)
		}
	} else {
		return common.TextureStagingData{}, fmt.Errorf("texture %q has neither data nor path", t.name)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	t.staging = &common.TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}
	return *t.staging, nil
}
