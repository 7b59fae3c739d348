// Package annotations holds the positionable marks placed on top of a PDF page.
package annotations

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/digitorus/pdfmark/fonts"
	"github.com/digitorus/pdfmark/geom"
	"github.com/digitorus/pdfmark/images"
)

// Kind distinguishes text marks from image marks.
type Kind int

const (
	// Text is a single line of text.
	Text Kind = iota
	// Image is a raster such as a drawn signature.
	Image
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Image:
		return "image"
	}
	return "unknown"
}

// Color is an RGB color.
type Color struct {
	R, G, B uint8
}

// Black is the default text color.
var Black = Color{}

// Gray returns the gray color for a level in [0, 1].
func Gray(level float64) Color {
	v := uint8(level*255 + 0.5)
	return Color{v, v, v}
}

// ParseHexColor parses "#rrggbb" or "rrggbb". Malformed input yields black.
func ParseHexColor(s string) Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Black
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Black
	}
	return Color{uint8(v >> 16), uint8(v >> 8), uint8(v)}
}

// Hex formats the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RGB returns the components in the PDF DeviceRGB range.
func (c Color) RGB() (float64, float64, float64) {
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255
}

// Annotation is a mark anchored to one page. X and Y are in document space and
// name the lower-left corner (the text baseline origin for text).
type Annotation struct {
	ID   string
	Kind Kind
	Page int // 1-based

	X, Y float64

	// Text marks.
	Text       string
	FontFamily string
	FontSize   float64
	Color      Color
	Bold       bool
	Italic     bool

	// Image marks.
	Image         *images.Image
	Width, Height float64

	// Rotation in degrees counter-clockwise around the center of the mark.
	Rotation float64
	// Opacity in (0, 1]; zero means opaque.
	Opacity float64
}

// Style returns the font style of a text mark.
func (a Annotation) Style() fonts.Style {
	return fonts.Style{Bold: a.Bold, Italic: a.Italic}
}

// Font resolves the face of a text mark. ok is false when the family fell back to
// the default face.
func (a Annotation) Font() (*fonts.Font, bool) {
	return fonts.Resolve(a.FontFamily, a.Style())
}

// Footprint returns the approximate size of the mark in document units.
func (a Annotation) Footprint() (float64, float64) {
	if a.Kind == Image {
		return a.Width, a.Height
	}
	f, _ := a.Font()
	return f.Width(a.Text, a.FontSize), a.FontSize
}

// Box returns the document-space box covered by the mark.
func (a Annotation) Box() geom.Box {
	w, h := a.Footprint()
	return geom.NewBox(a.X, a.Y, w, h)
}

// Validate reports whether the annotation can be drawn.
func (a Annotation) Validate() error {
	if a.Page < 1 {
		return fmt.Errorf("annotation %s: page %d is not a page number", a.ID, a.Page)
	}
	for _, v := range []float64{a.X, a.Y, a.FontSize, a.Width, a.Height, a.Rotation, a.Opacity} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("annotation %s: %v is not a finite number", a.ID, v)
		}
	}
	switch a.Kind {
	case Text:
		if a.FontSize <= 0 {
			return fmt.Errorf("annotation %s: font size must be positive", a.ID)
		}
	case Image:
		if a.Image == nil {
			return fmt.Errorf("annotation %s: missing image", a.ID)
		}
		if a.Width <= 0 || a.Height <= 0 {
			return fmt.Errorf("annotation %s: image size must be positive", a.ID)
		}
	default:
		return fmt.Errorf("annotation %s: unknown kind %d", a.ID, a.Kind)
	}
	if a.Opacity < 0 || a.Opacity > 1 {
		return fmt.Errorf("annotation %s: opacity %v out of range", a.ID, a.Opacity)
	}
	return nil
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Page       *int
	X, Y       *float64
	Text       *string
	FontFamily *string
	FontSize   *float64
	Color      *Color
	Bold       *bool
	Italic     *bool
	Width      *float64
	Height     *float64
	Rotation   *float64
	Opacity    *float64
}

// Position is a Patch that moves a mark.
func Position(x, y float64) Patch {
	return Patch{X: &x, Y: &y}
}

func (p Patch) apply(a *Annotation) {
	if p.Page != nil {
		a.Page = *p.Page
	}
	if p.X != nil {
		a.X = *p.X
	}
	if p.Y != nil {
		a.Y = *p.Y
	}
	if p.Text != nil {
		a.Text = *p.Text
	}
	if p.FontFamily != nil {
		a.FontFamily = *p.FontFamily
	}
	if p.FontSize != nil {
		a.FontSize = *p.FontSize
	}
	if p.Color != nil {
		a.Color = *p.Color
	}
	if p.Bold != nil {
		a.Bold = *p.Bold
	}
	if p.Italic != nil {
		a.Italic = *p.Italic
	}
	if p.Width != nil {
		a.Width = *p.Width
	}
	if p.Height != nil {
		a.Height = *p.Height
	}
	if p.Rotation != nil {
		a.Rotation = *p.Rotation
	}
	if p.Opacity != nil {
		a.Opacity = *p.Opacity
	}
}
