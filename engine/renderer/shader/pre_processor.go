// pre_processor.go implements the Oxy WGSL pre-processor. It resolves @oxy:include annotations
// against a registry of named source chunks and keeps or drops @oxy:path blocks for the render
// path the source is being prepared for.
package shader

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/light"
	"github.com/Carmen-Shannon/oxy-core/engine/model"
)

// Built-in chunk names accepted by @oxy:include.
const (
	// ChunkTransforms declares the per-draw model, view and projection matrices at group 0, binding 0.
	ChunkTransforms = "transforms"
	// ChunkVertex declares the VertexInput struct matching model.Model's interleaved layout.
	ChunkVertex = "vertex"
	// ChunkLight declares the Light struct.
	ChunkLight = "light"
	// ChunkLightHeader declares the LightHeader struct.
	ChunkLightHeader = "light_header"
	// ChunkGBuffer declares encode_gbuffer, used by deferred fragment sources.
	ChunkGBuffer = "gbuffer"
)

// Names of the built-in uniforms declared by ChunkTransforms. The renderer writes them before every draw.
const (
	UniformModel      = "model"
	UniformView       = "view"
	UniformProjection = "projection"
)

//go:embed assets/transforms.wgsl
var transformsSource string

//go:embed assets/gbuffer.wgsl
var gbufferSource string

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// chunks maps include names to the WGSL source injected in their place.
	chunks map[string]string
}

// PreProcessor prepares raw WGSL pass sources for compilation.
//
// Process only reads the chunk registry, so it may be called from several goroutines at once as
// long as no chunk is being registered at the same time.
type PreProcessor interface {
	// Process resolves the annotations in source for one render path. Include annotations are
	// replaced with the processed chunk source; path blocks are kept when they list the path and
	// dropped otherwise. Annotation lines themselves never reach the output.
	//
	// Parameters:
	//   - source: the raw WGSL source containing annotations
	//   - path: the render path the source is prepared for
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error for malformed annotations, unknown chunks, include cycles or unbalanced path blocks
	Process(source string, path common.RenderPath) (string, error)

	// DependsOnRenderPath reports whether source or any chunk it includes contains a render-path
	// block, meaning Process yields different output per render path.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - bool: true if the processed output depends on the render path
	DependsOnRenderPath(source string) bool

	// RegisterChunk adds or replaces a named chunk available to @oxy:include.
	//
	// Parameters:
	//   - name: the include name
	//   - source: the WGSL source injected for the include
	RegisterChunk(name, source string)

	// Chunks returns the names of every registered chunk, sorted.
	//
	// Returns:
	//   - []string: the chunk names
	Chunks() []string
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a new PreProcessor with the engine's built-in chunks registered and the
// provided options applied.
//
// Parameters:
//   - options: variadic list of PreProcessorBuilderOption functions
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(options ...PreProcessorBuilderOption) PreProcessor {
	p := &preProcessor{
		chunks: map[string]string{
			ChunkTransforms:  transformsSource,
			ChunkVertex:      model.GPUVertexSource,
			ChunkLight:       light.GPULightSource,
			ChunkLightHeader: light.GPULightHeaderSource,
			ChunkGBuffer:     gbufferSource,
		},
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *preProcessor) Process(source string, path common.RenderPath) (string, error) {
	return p.process(source, path, nil)
}

// process expands source for path. Included chunks are expanded the same way; including names
// the chain of chunks currently being expanded and rejects include cycles.
func (p *preProcessor) process(source string, path common.RenderPath, including []string) (string, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	var block *Annotation
	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			if block == nil || slices.Contains(block.Paths, path) {
				out = append(out, line)
			}
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			if block != nil && !slices.Contains(block.Paths, path) {
				continue
			}
			src, ok := p.chunks[a.Chunk]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:include chunk %q", a.Line, a.Chunk)
			}
			if slices.Contains(including, a.Chunk) {
				return "", fmt.Errorf("line %d: @oxy:include cycle through chunk %q", a.Line, a.Chunk)
			}
			expanded, err := p.process(src, path, append(slices.Clone(including), a.Chunk))
			if err != nil {
				return "", fmt.Errorf("chunk %q: %w", a.Chunk, err)
			}
			out = append(out, expanded)
		case AnnotationTypePath:
			if block != nil {
				return "", fmt.Errorf("line %d: @oxy:path block opened inside the block opened on line %d", a.Line, block.Line)
			}
			block = a
		case annotationTypeEnd:
			if block == nil {
				return "", fmt.Errorf("line %d: @oxy:end without an open @oxy:path block", a.Line)
			}
			block = nil
		}
	}
	if block != nil {
		return "", fmt.Errorf("line %d: @oxy:path block is never closed", block.Line)
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) DependsOnRenderPath(source string) bool {
	return p.dependsOnRenderPath(source, nil)
}

// dependsOnRenderPath reports whether source, or any chunk it includes, has a render-path block.
func (p *preProcessor) dependsOnRenderPath(source string, including []string) bool {
	for i, line := range strings.Split(source, "\n") {
		a, err := parseAnnotation(line, i+1)
		if err != nil || a == nil {
			continue
		}
		switch a.Type {
		case AnnotationTypePath:
			return true
		case annotationTypeInclude:
			src, ok := p.chunks[a.Chunk]
			if !ok || slices.Contains(including, a.Chunk) {
				continue
			}
			if p.dependsOnRenderPath(src, append(slices.Clone(including), a.Chunk)) {
				return true
			}
		}
	}
	return false
}

func (p *preProcessor) RegisterChunk(name, source string) {
	p.chunks[name] = source
}

func (p *preProcessor) Chunks() []string {
	names := make([]string, 0, len(p.chunks))
	for name := range p.chunks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
