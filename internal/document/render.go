package document

import (
	"context"
	"image"
	"time"

	"github.com/docport/docport/internal/capture"
)

// MinScale is the minimum supersampling factor for legible output.
const MinScale = 2.0

// DefaultPageHeightPx is the page strip height in raster pixels, an
// A4-proportioned page at roughly 96 dpi doubled.
const DefaultPageHeightPx = 2246

// RenderRoot is the DOM-equivalent handle to the on-screen form subtree.
// HideTransientControls removes interactive-only elements (buttons, file
// pickers) from the render; RestoreTransientControls must undo it and is
// guaranteed to be called on every exit path of RenderToDocument.
type RenderRoot interface {
	HideTransientControls() error
	RestoreTransientControls()
	Rasterize(ctx context.Context, scale float64) (image.Image, error)
}

// RenderOptions controls rasterization and pagination.
type RenderOptions struct {
	Scale        float64 // supersampling factor, floored at MinScale
	PageHeightPx int     // strip height; DefaultPageHeightPx when zero

	now func() time.Time // test hook
}

func (o *RenderOptions) applyDefaults() {
	if o.Scale < MinScale {
		o.Scale = MinScale
	}
	if o.PageHeightPx <= 0 {
		o.PageHeightPx = DefaultPageHeightPx
	}
	if o.now == nil {
		o.now = time.Now
	}
}

// RenderToDocument rasterizes the visible form subtree and paginates it
// into a single PDF artifact. Transient controls are hidden for the
// duration of the render and restored even when rasterization fails.
func RenderToDocument(ctx context.Context, root RenderRoot, opts RenderOptions) (*capture.Artifact, error) {
	opts.applyDefaults()

	if err := root.HideTransientControls(); err != nil {
		return nil, &capture.RenderError{Err: err}
	}
	defer root.RestoreTransientControls()

	raster, err := root.Rasterize(ctx, opts.Scale)
	if err != nil {
		return nil, &capture.RenderError{Err: err}
	}

	pages := SliceRaster(raster, opts.PageHeightPx)
	return AssemblePDF(pages, opts.now())
}
