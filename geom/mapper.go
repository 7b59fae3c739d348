// Package geom converts between display space and PDF document space.
//
// Display space is the pixel grid of a rendered page raster, origin top-left with y
// growing downward. Document space is the PDF user space of the page, origin
// bottom-left with y growing upward, measured in points.
package geom

import "math"

// PageViewState describes how a page was rendered for display. It is produced by the
// page renderer and handed explicitly to everything that maps pointer coordinates.
type PageViewState struct {
	Scale        float64 // display pixels per document unit
	NativeWidth  float64 // page width in document units
	NativeHeight float64 // page height in document units
}

// Valid reports whether the state belongs to a rendered page and can be used for
// mapping. A zero scale would make ToDocumentSpace divide by zero.
func (s PageViewState) Valid() bool {
	return s.Scale > 0 && s.NativeWidth > 0 && s.NativeHeight > 0
}

// DisplayWidth returns the raster width in pixels.
func (s PageViewState) DisplayWidth() float64 { return s.NativeWidth * s.Scale }

// DisplayHeight returns the raster height in pixels.
func (s PageViewState) DisplayHeight() float64 { return s.NativeHeight * s.Scale }

// ToDocument maps a display point to document space.
func (s PageViewState) ToDocument(px, py float64) (float64, float64) {
	return ToDocumentSpace(px, py, s.Scale, s.NativeHeight)
}

// ToDisplay maps a document point to display space.
func (s PageViewState) ToDisplay(x, y float64) (float64, float64) {
	return ToDisplaySpace(x, y, s.Scale, s.NativeHeight)
}

// ToDocumentSpace converts pointer coordinates to document coordinates. The caller
// guarantees scale > 0.
func ToDocumentSpace(px, py, scale, nativeHeight float64) (float64, float64) {
	return px / scale, nativeHeight - py/scale
}

// ToDisplaySpace is the inverse of ToDocumentSpace.
func ToDisplaySpace(x, y, scale, nativeHeight float64) (float64, float64) {
	return x * scale, (nativeHeight - y) * scale
}

// FitScale returns the scale that fits a page of the given width into maxWidth
// display pixels without ever enlarging it.
func FitScale(nativeWidth, maxWidth float64) float64 {
	if nativeWidth <= 0 || maxWidth <= 0 {
		return 1
	}
	return math.Min(maxWidth/nativeWidth, 1)
}
