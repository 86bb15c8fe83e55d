package render

import (
	"context"

	"github.com/goliatone/go-opsforms/pkg/form"
)

// Renderer turns a built grid into bytes (HTML, terminal text).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, grid form.Grid, options RenderOptions) ([]byte, error)
}
