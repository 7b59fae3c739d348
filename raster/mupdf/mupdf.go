// Package mupdf rasterizes pages with MuPDF through lazypdf.
package mupdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/nitro/lazypdf/v2"
)

// Rasterizer implements raster.Rasterizer. MuPDF is not reentrant; lazypdf
// serializes calls internally.
type Rasterizer struct{}

// New returns a MuPDF rasterizer.
func New() *Rasterizer {
	return &Rasterizer{}
}

// Rasterize renders the 1-based page to a bitmap width pixels wide.
func (r *Rasterizer) Rasterize(ctx context.Context, data []byte, page, width int) (image.Image, error) {
	if page < 1 || page > math.MaxUint16 {
		return nil, fmt.Errorf("invalid page %d", page)
	}
	if width < 0 || width > math.MaxUint16 {
		return nil, fmt.Errorf("invalid width %d", width)
	}

	var buf bytes.Buffer
	if err := lazypdf.SaveToPNG(ctx, uint16(page-1), uint16(width), 0, bytes.NewReader(data), &buf); err != nil {
		return nil, fmt.Errorf("failed to rasterize page %d: %w", page, err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to decode page %d: %w", page, err)
	}
	return img, nil
}
