// Package renderer wraps the external PDF rasterizer service. Rendering and
// text pre-scanning happen out of process; this package only speaks the
// collaborator's HTTP contract.
package renderer

import "context"

// NameOccurrences is the best-effort text pre-scan result.
type NameOccurrences struct {
	Count int   `json:"count"`
	Pages []int `json:"pages"`
}

// Renderer is the rasterizer contract consumed by the pipeline and tooling.
type Renderer interface {
	// RenderPages rasterizes every page and returns image data URLs in page order.
	RenderPages(ctx context.Context, pdf []byte) ([]string, error)
	// CountPages returns the page count without rendering.
	CountPages(ctx context.Context, pdf []byte) (int, error)
	// CountNameOccurrences counts textual occurrences of a name. It fails on
	// scanned PDFs with no text layer; callers degrade to "no hint".
	CountNameOccurrences(ctx context.Context, pdf []byte, name string) (NameOccurrences, error)
}
