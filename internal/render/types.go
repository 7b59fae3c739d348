package render

import (
	"github.com/digitorus/pdfmark/fonts"
	"github.com/digitorus/pdfmark/images"
)

// Color represents an RGB color.
type Color struct {
	R, G, B uint8
}

// Element is an interface for visual elements drawn into a page overlay.
type Element interface {
	IsElement()
}

// ImageElement draws a raster image into the box with lower-left corner (X, Y).
type ImageElement struct {
	Image               *images.Image
	X, Y, Width, Height float64
	Rotation            float64 // degrees, counter-clockwise around the box center
	Opacity             float64 // zero means opaque
}

func (ImageElement) IsElement() {}

// TextElement draws a single line of text with its baseline origin at (X, Y).
type TextElement struct {
	Content  string
	Font     *fonts.Font
	Size     float64
	X, Y     float64
	Color    Color
	Rotation float64
	Opacity  float64
}

func (TextElement) IsElement() {}
