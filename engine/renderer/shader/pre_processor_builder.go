package shader

// PreProcessorBuilderOption is a function that configures a preProcessor during construction.
type PreProcessorBuilderOption func(*preProcessor)

// WithChunk is an option builder that registers an additional include chunk.
// A chunk with the name of a built-in chunk replaces it.
//
// Parameters:
//   - name: the include name used in //@oxy:include <name>
//   - source: the WGSL source injected for the include
//
// Returns:
//   - PreProcessorBuilderOption: a function that applies the chunk option to a preProcessor
func WithChunk(name, source string) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		p.chunks[name] = source
	}
}
