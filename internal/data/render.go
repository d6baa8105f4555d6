package data

import (
	"context"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/repo"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/infra/render"
)

// renderRepo implements the render repository on the headless browser
type renderRepo struct {
	renderer *render.Renderer
}

// NewRenderRepo creates a new render repository. A nil renderer yields a nil
// repository; commands fall back to plain text output.
func NewRenderRepo(renderer *render.Renderer) repo.RenderRepo {
	if renderer == nil {
		return nil
	}
	return &renderRepo{renderer: renderer}
}

// RenderHTML rasterizes an HTML document into a PNG image
func (r *renderRepo) RenderHTML(ctx context.Context, html string, width int) ([]byte, error) {
	return r.renderer.RenderHTML(ctx, html, width)
}
