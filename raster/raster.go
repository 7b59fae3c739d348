// Package raster renders document pages to bitmaps for display.
//
// The Renderer decides the display scale and produces the PageViewState that
// pointer mapping depends on. The actual rasterization is delegated to a
// Rasterizer, see the mupdf sub-package.
package raster

import (
	"context"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/digitorus/pdfmark"
	"github.com/digitorus/pdfmark/geom"
	"github.com/digitorus/pdfmark/internal/logging"
)

// DefaultMaxWidth is the display width pages are fitted into.
const DefaultMaxWidth = 600

// Rasterizer draws one page of a document into a bitmap. Pages are 1-based and
// width is the requested bitmap width in pixels.
type Rasterizer interface {
	Rasterize(ctx context.Context, data []byte, page, width int) (image.Image, error)
}

// PageView is a rendered page together with its mapping state.
type PageView struct {
	Page  int
	Image image.Image
	State geom.PageViewState
}

// Renderer fits pages into MaxWidth display pixels. Pages are never enlarged.
type Renderer struct {
	Rasterizer Rasterizer
	MaxWidth   float64
}

// New returns a renderer using r and the default display width.
func New(r Rasterizer) *Renderer {
	return &Renderer{Rasterizer: r, MaxWidth: DefaultMaxWidth}
}

// Render rasterizes page n of doc for display. A page outside the document is a
// caller error and is never clamped. On failure no bitmap is returned.
func (r *Renderer) Render(ctx context.Context, doc *pdfmark.Document, n int) (PageView, error) {
	w, _, err := r.pageSize(doc, n)
	if err != nil {
		return PageView{}, err
	}
	return r.RenderAt(ctx, doc, n, geom.FitScale(w, r.MaxWidth))
}

// RenderAt rasterizes page n at a fixed scale, such as DPI/72 for exports.
func (r *Renderer) RenderAt(ctx context.Context, doc *pdfmark.Document, n int, scale float64) (PageView, error) {
	w, h, err := r.pageSize(doc, n)
	if err != nil {
		return PageView{}, err
	}
	if scale <= 0 {
		return PageView{}, fmt.Errorf("%w: scale %v", pdfmark.ErrInvalidInput, scale)
	}

	width := max(int(math.Round(w*scale)), 1)
	start := time.Now()
	img, err := r.Rasterizer.Rasterize(ctx, doc.Bytes(), n, width)
	if err != nil {
		return PageView{}, fmt.Errorf("%w: page %d: %v", pdfmark.ErrUnreadable, n, err)
	}
	if img == nil || img.Bounds().Dx() == 0 {
		return PageView{}, fmt.Errorf("%w: page %d rendered empty", pdfmark.ErrUnreadable, n)
	}

	// The rasterizer may round; map pointers against what was actually drawn.
	view := PageView{
		Page:  n,
		Image: img,
		State: geom.PageViewState{
			Scale:        float64(img.Bounds().Dx()) / w,
			NativeWidth:  w,
			NativeHeight: h,
		},
	}

	logging.Debug().Add(logging.Page(n)).Add(logging.Count("width", img.Bounds().Dx())).
		Add(logging.Duration(time.Since(start))).Msg("page rendered")
	return view, nil
}

func (r *Renderer) pageSize(doc *pdfmark.Document, n int) (float64, float64, error) {
	if r.Rasterizer == nil {
		return 0, 0, fmt.Errorf("%w: no rasterizer", pdfmark.ErrInvalidInput)
	}
	if n < 1 || n > doc.PageCount() {
		return 0, 0, fmt.Errorf("%w: page %d of %d", pdfmark.ErrPageOutOfRange, n, doc.PageCount())
	}
	w, h, err := doc.PageSize(n)
	if err != nil {
		return 0, 0, err
	}
	return w, h, nil
}
