package tools

import (
	"context"
	"fmt"
	"strconv"

	"github.com/digitorus/pdfmark"
	"github.com/digitorus/pdfmark/annotations"
	"github.com/digitorus/pdfmark/fonts"
	"github.com/digitorus/pdfmark/geom"
	"github.com/digitorus/pdfmark/images"
)

// WatermarkInfo describes the pdf-watermark tool.
var WatermarkInfo = Info{
	ID:          "pdf-watermark",
	Name:        "Watermark PDF",
	Description: "Stamp a text or image across every page",
	Category:    CategoryEdit,
	Accept:      []string{".pdf"},
}

// Watermark draws the same text and/or image centered on every page.
type Watermark struct {
	name string
	doc  *pdfmark.Document

	Text     string
	Image    *images.Image
	Font     string
	Size     float64
	Color    annotations.Color
	Opacity  float64
	Rotation float64
	// ImageScale is applied to the pixel size of Image.
	ImageScale float64
}

func newWatermark(env Env) (Tool, error) {
	c := env.Config.Watermark
	return &Watermark{
		Font:       c.Font,
		Size:       c.Size,
		Color:      annotations.ParseHexColor(c.Color),
		Opacity:    c.Opacity,
		Rotation:   c.Rotation,
		ImageScale: c.ImageScale,
	}, nil
}

// Info implements Tool.
func (w *Watermark) Info() Info { return WatermarkInfo }

// Open loads the document to watermark.
func (w *Watermark) Open(_ context.Context, f File) error {
	doc, err := openPDF(WatermarkInfo, f)
	if err != nil {
		return err
	}
	w.name, w.doc = f.Name, doc
	return nil
}

// SetImage registers a PNG or JPEG watermark image with the document.
func (w *Watermark) SetImage(name string, data []byte) error {
	if w.doc == nil {
		return fmt.Errorf("%w: no document", pdfmark.ErrInvalidInput)
	}
	img, err := w.doc.AddImage(name, data)
	if err != nil {
		return fmt.Errorf("%w: %v", pdfmark.ErrInvalidInput, err)
	}
	w.Image = img
	return nil
}

func openPDF(info Info, f File) (*pdfmark.Document, error) {
	if !info.Accepts(f.Name) {
		return nil, fmt.Errorf("%w: %s is not a PDF file", pdfmark.ErrInvalidInput, f.Name)
	}
	return pdfmark.OpenBytes(f.Data)
}

// Marks returns the watermark annotations for every page.
func (w *Watermark) Marks() ([]annotations.Annotation, error) {
	if w.doc == nil {
		return nil, fmt.Errorf("%w: no document", pdfmark.ErrInvalidInput)
	}
	if w.Text == "" && w.Image == nil {
		return nil, fmt.Errorf("%w: add a text or an image watermark", pdfmark.ErrInvalidInput)
	}

	font, _ := fonts.Resolve(w.Font, fonts.Style{})
	scale := w.ImageScale
	if scale <= 0 {
		scale = 0.5
	}

	var marks []annotations.Annotation
	for n := 1; n <= w.doc.PageCount(); n++ {
		pw, ph, err := w.doc.PageSize(n)
		if err != nil {
			return nil, err
		}

		if w.Text != "" {
			x, y := geom.Center.Place(font.Width(w.Text, w.Size), 0, pw, ph, 0, 0)
			marks = append(marks, annotations.Annotation{
				ID:         "text-" + strconv.Itoa(n),
				Kind:       annotations.Text,
				Page:       n,
				Text:       w.Text,
				FontFamily: w.Font,
				FontSize:   w.Size,
				Color:      w.Color,
				X:          x,
				Y:          y,
				Rotation:   w.Rotation,
				Opacity:    w.Opacity,
			})
		}
		if w.Image != nil {
			iw, ih := float64(w.Image.Width)*scale, float64(w.Image.Height)*scale
			x, y := geom.Center.Place(iw, ih, pw, ph, 0, 0)
			marks = append(marks, annotations.Annotation{
				ID:       "image-" + strconv.Itoa(n),
				Kind:     annotations.Image,
				Page:     n,
				Image:    w.Image,
				X:        x,
				Y:        y,
				Width:    iw,
				Height:   ih,
				Rotation: w.Rotation,
				Opacity:  w.Opacity,
			})
		}
	}
	return marks, nil
}

// Run writes watermarked_<name>.
func (w *Watermark) Run(ctx context.Context) (File, error) {
	marks, err := w.Marks()
	if err != nil {
		return File{}, err
	}
	data, _, err := w.doc.Apply(ctx, marks)
	if err != nil {
		return File{}, err
	}
	return File{Name: "watermarked_" + w.name, Data: data}, nil
}
