// annotations.go defines the annotation types and parser for the Oxy WGSL pre-processor.
// Annotations are single-line WGSL comments prefixed with @oxy: that either inject a registered
// source chunk or mark a block of lines that only applies to some render paths.
package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-core/common"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
// Every annotation must appear on a line beginning with "//" followed by this prefix.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the source of a registered chunk at the annotation site.
	//
	// Syntax: //@oxy:include <chunk>
	//
	// Example: //@oxy:include transforms
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypePath opens a render-path block. Lines up to the matching @oxy:end are kept
	// only when the source is processed for one of the listed paths. Blocks do not nest.
	//
	// Syntax: //@oxy:path <render_path> [<render_path> ...]
	//
	// Example: //@oxy:path deferred
	AnnotationTypePath AnnotationType = "path"

	// annotationTypeEnd closes the current render-path block.
	//
	// Syntax: //@oxy:end
	annotationTypeEnd AnnotationType = "end"
)

// Annotation represents a single parsed @oxy: annotation from a WGSL source line.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Chunk is the chunk name of an include annotation.
	Chunk string

	// Paths lists the render paths of a path annotation.
	Paths []common.RenderPath

	// Line is the 1-based line number in the source. Used for error reporting.
	Line int
}

// parseAnnotation attempts to parse a single line of WGSL source as an @oxy: annotation.
// Returns nil with no error for lines that do not contain the annotation prefix.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	comment, ok := strings.CutPrefix(trimmed, "//")
	if !ok {
		return nil, nil
	}
	_, after, ok := strings.Cut(comment, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		return &Annotation{Type: annotationTypeInclude, Chunk: args[1], Line: lineNum}, nil
	case AnnotationTypePath:
		if len(args) < 2 {
			return nil, fmt.Errorf("line %d: @oxy path annotation requires at least one render path", lineNum)
		}
		paths := make([]common.RenderPath, 0, len(args)-1)
		for _, arg := range args[1:] {
			p, ok := common.ParseRenderPath(arg)
			if !ok {
				return nil, fmt.Errorf("line %d: unknown render path %q in @oxy path annotation", lineNum, arg)
			}
			paths = append(paths, p)
		}
		return &Annotation{Type: AnnotationTypePath, Paths: paths, Line: lineNum}, nil
	case annotationTypeEnd:
		if len(args) != 1 {
			return nil, fmt.Errorf("line %d: @oxy end annotation takes no arguments", lineNum)
		}
		return &Annotation{Type: annotationTypeEnd, Line: lineNum}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}
