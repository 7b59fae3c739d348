package pdfmark

import (
	"github.com/digitorus/pdfmark/images"
	"github.com/digitorus/pdfmark/internal/pdf"
)

// AddImage registers an image with the document.
// If an image with the same name already exists, the existing image is returned.
func (d *Document) AddImage(name string, data []byte) (*Image, error) {
	if existing, ok := d.images[name]; ok {
		return existing, nil
	}

	img, err := images.New(name, data)
	if err != nil {
		return nil, err
	}
	d.images[name] = img
	return img, nil
}

// Fonts returns the base font names the document already uses.
func (d *Document) Fonts() ([]string, error) {
	return pdf.ScanFonts(d.rdr)
}
