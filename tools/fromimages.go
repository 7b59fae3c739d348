package tools

import (
	"context"
	"fmt"

	"github.com/digitorus/pdfmark"
	"github.com/digitorus/pdfmark/images"
)

// FromImagesInfo describes the jpg-to-pdf tool.
var FromImagesInfo = Info{
	ID:          "jpg-to-pdf",
	Name:        "JPG to PDF",
	Description: "Combine images into a PDF, one image per page",
	Category:    CategoryConvert,
	Accept:      []string{".jpg", ".jpeg", ".png"},
}

// ImageCollector builds a document from an ordered list of images.
type ImageCollector struct {
	env    Env
	images []*images.Image

	Paper pdfmark.PaperSize
}

func newImageCollector(env Env) (Tool, error) {
	paper, err := pdfmark.ParsePaperSize(env.Config.Images.Paper)
	if err != nil {
		paper = pdfmark.A4
	}
	return &ImageCollector{env: env, Paper: paper}, nil
}

// Info implements Tool.
func (c *ImageCollector) Info() Info { return FromImagesInfo }

// Open appends an image.
func (c *ImageCollector) Open(_ context.Context, f File) error {
	if !FromImagesInfo.Accepts(f.Name) {
		return fmt.Errorf("%w: %s is not a JPEG or PNG image", pdfmark.ErrInvalidInput, f.Name)
	}
	img, err := images.New(f.Name, f.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", pdfmark.ErrInvalidInput, err)
	}
	c.images = append(c.images, img)
	return nil
}

// Inputs implements Reorderer.
func (c *ImageCollector) Inputs() []string {
	names := make([]string, len(c.images))
	for i, img := range c.images {
		names[i] = img.Name
	}
	return names
}

// Move implements Reorderer.
func (c *ImageCollector) Move(index int, d Direction) bool {
	other := index - 1
	if d == Down {
		other = index + 1
	}
	if index < 0 || index >= len(c.images) || other < 0 || other >= len(c.images) {
		return false
	}
	c.images[index], c.images[other] = c.images[other], c.images[index]
	return true
}

// Remove implements Remover.
func (c *ImageCollector) Remove(index int) bool {
	if index < 0 || index >= len(c.images) {
		return false
	}
	c.images = append(c.images[:index], c.images[index+1:]...)
	return true
}

// Run writes images_<YYYY-MM-DD>.pdf.
func (c *ImageCollector) Run(ctx context.Context) (File, error) {
	if len(c.images) == 0 {
		return File{}, fmt.Errorf("%w: select at least one image", pdfmark.ErrInvalidInput)
	}
	data, err := pdfmark.FromImages(ctx, c.images, c.Paper)
	if err != nil {
		return File{}, err
	}
	return File{Name: "images_" + c.env.now().Format("2006-01-02") + ".pdf", Data: data}, nil
}
