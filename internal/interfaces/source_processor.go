package interfaces

import "context"

// ProcessedContent is the output of content extraction for a single URL.
type ProcessedContent struct {
	Title string
	Text  string
}

// SourceProcessor fetches a URL and extracts its full text. It is invoked as
// a black box by the collection loop; a failure rejects the item, never the
// whole run.
type SourceProcessor interface {
	Process(ctx context.Context, url string) (*ProcessedContent, error)
}
