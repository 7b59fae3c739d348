package tools

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"time"

	"github.com/digitorus/pdfmark"
	"github.com/digitorus/pdfmark/internal/logging"
)

// ToJPEGInfo describes the pdf-to-jpg tool.
var ToJPEGInfo = Info{
	ID:          "pdf-to-jpg",
	Name:        "PDF to JPG",
	Description: "Export every page as a JPEG image in a zip archive",
	Category:    CategoryConvert,
	Accept:      []string{".pdf"},
}

// DPI bounds of page exports.
const (
	MinDPI = 72
	MaxDPI = 300
)

// PageExporter renders every page to JPEG.
type PageExporter struct {
	env  Env
	name string
	doc  *pdfmark.Document

	DPI     int
	Quality int
}

func newPageExporter(env Env) (Tool, error) {
	if env.Renderer == nil {
		return nil, ErrNoRenderer
	}
	return &PageExporter{env: env, DPI: env.Config.Raster.DPI, Quality: env.Config.Raster.Quality}, nil
}

// Info implements Tool.
func (p *PageExporter) Info() Info { return ToJPEGInfo }

// Open loads the document to export.
func (p *PageExporter) Open(_ context.Context, f File) error {
	doc, err := openPDF(ToJPEGInfo, f)
	if err != nil {
		return err
	}
	p.name, p.doc = f.Name, doc
	return nil
}

// Run writes <name>_pages.zip holding page_001.jpg, page_002.jpg and so on.
func (p *PageExporter) Run(ctx context.Context) (File, error) {
	if p.doc == nil {
		return File{}, fmt.Errorf("%w: no document", pdfmark.ErrInvalidInput)
	}
	if p.DPI < MinDPI || p.DPI > MaxDPI {
		return File{}, fmt.Errorf("%w: dpi %d outside %d-%d", pdfmark.ErrInvalidInput, p.DPI, MinDPI, MaxDPI)
	}
	quality := p.Quality
	if quality <= 0 || quality > 100 {
		quality = 90
	}

	start := time.Now()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for n := 1; n <= p.doc.PageCount(); n++ {
		view, err := p.env.Renderer.RenderAt(ctx, p.doc, n, float64(p.DPI)/72)
		if err != nil {
			return File{}, err
		}

		w, err := zw.Create(fmt.Sprintf("page_%03d.jpg", n))
		if err != nil {
			return File{}, err
		}
		if err := jpeg.Encode(w, onWhite(view.Image), &jpeg.Options{Quality: quality}); err != nil {
			return File{}, fmt.Errorf("failed to encode page %d: %w", n, err)
		}
	}
	if err := zw.Close(); err != nil {
		return File{}, err
	}

	logging.Info().Add(logging.Tool(ToJPEGInfo.ID)).Add(logging.Pages(p.doc.PageCount())).
		Add(logging.Bytes(buf.Len())).Add(logging.Duration(time.Since(start))).Msg("pages exported")
	return File{Name: baseName(p.name) + "_pages.zip", Data: buf.Bytes()}, nil
}

// onWhite flattens transparency onto a white background.
func onWhite(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, image.White, image.Point{}, draw.Src)
	draw.Draw(out, b, img, b.Min, draw.Over)
	return out
}
