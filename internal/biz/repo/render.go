package repo

import "context"

// RenderRepo rasterizes an HTML document into a PNG image.
type RenderRepo interface {
	RenderHTML(ctx context.Context, html string, width int) ([]byte, error)
}
