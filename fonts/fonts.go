// Package fonts provides font resources and metrics for PDF overlays.
//
// Two kinds of faces are available: the standard 14 PDF fonts, which every PDF
// reader ships and which are never embedded, and the Go font family, which is
// embedded as TrueType so its glyph widths are exact.
package fonts

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// StandardType represents standard PDF fonts that are available in all PDF readers
// without embedding.
type StandardType int

const (
	// Helvetica is the standard sans-serif font.
	Helvetica StandardType = iota
	// HelveticaBold is bold Helvetica.
	HelveticaBold
	// HelveticaOblique is italic/oblique Helvetica.
	HelveticaOblique
	// HelveticaBoldOblique is bold italic Helvetica.
	HelveticaBoldOblique
	// TimesRoman is the standard serif font.
	TimesRoman
	// TimesBold is bold Times Roman.
	TimesBold
	// TimesItalic is italic Times Roman.
	TimesItalic
	// TimesBoldItalic is bold italic Times Roman.
	TimesBoldItalic
	// Courier is the standard monospace font.
	Courier
	// CourierBold is bold Courier.
	CourierBold
	// CourierOblique is oblique Courier.
	CourierOblique
	// CourierBoldOblique is bold oblique Courier.
	CourierBoldOblique
)

var standardNames = map[StandardType]string{
	Helvetica:            "Helvetica",
	HelveticaBold:        "Helvetica-Bold",
	HelveticaOblique:     "Helvetica-Oblique",
	HelveticaBoldOblique: "Helvetica-BoldOblique",
	TimesRoman:           "Times-Roman",
	TimesBold:            "Times-Bold",
	TimesItalic:          "Times-Italic",
	TimesBoldItalic:      "Times-BoldItalic",
	Courier:              "Courier",
	CourierBold:          "Courier-Bold",
	CourierOblique:       "Courier-Oblique",
	CourierBoldOblique:   "Courier-BoldOblique",
}

// Font represents a font resource that can be drawn into a page overlay.
type Font struct {
	Name     string   // PostScript name of the font
	Data     []byte   // TrueType font data (nil for standard fonts)
	Hash     string   // SHA256 hash of font data for deduplication
	Embedded bool     // Whether the font should be embedded in the PDF
	Metrics  *Metrics // Parsed metrics for accurate text measurement

	// advance is the average glyph advance relative to the font size, used when
	// Metrics is nil.
	advance float64
}

// Standard returns a Font for a standard PDF font (no embedding required).
// These fonts are guaranteed to be available in all PDF readers.
func Standard(ft StandardType) *Font {
	advance := 0.5
	if ft >= Courier {
		advance = 0.6
	}
	return &Font{Name: standardNames[ft], Embedded: false, advance: advance}
}

// NewTrueType returns an embeddable font for the TrueType data. Metrics are parsed
// eagerly; a font whose metrics cannot be parsed is still usable with approximate
// widths.
func NewTrueType(name string, data []byte) *Font {
	h := sha256.Sum256(data)
	f := &Font{
		Name:     name,
		Data:     data,
		Hash:     hex.EncodeToString(h[:]),
		Embedded: true,
		advance:  0.5,
	}
	if m, err := ParseTTFMetrics(data); err == nil {
		f.Metrics = m
	}
	return f
}

// Width returns the width of text in points at the given size.
func (f *Font) Width(text string, size float64) float64 {
	if f.Metrics != nil {
		return f.Metrics.GetStringWidth(text, size)
	}
	advance := f.advance
	if advance == 0 {
		advance = 0.5
	}
	return float64(len([]rune(text))) * size * advance
}

// Metrics contains parsed font metrics for accurate text measurement.
type Metrics struct {
	UnitsPerEm  int
	GlyphWidths map[rune]int // Advance widths in font units
	font        *sfnt.Font
}

// ParseTTFMetrics parses a TrueType font file and extracts glyph metrics.
func ParseTTFMetrics(data []byte) (*Metrics, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, err
	}

	unitsPerEm := f.UnitsPerEm()

	glyphWidths := make(map[rune]int)
	var buf sfnt.Buffer

	// Use unitsPerEm as the ppem so advances come back in font units.
	ppem := fixed.Int26_6(unitsPerEm) << 6

	for r := rune(32); r <= rune(255); r++ {
		idx, err := f.GlyphIndex(&buf, r)
		if err != nil || idx == 0 {
			continue
		}

		advance, err := f.GlyphAdvance(&buf, idx, ppem, font.HintingNone)
		if err != nil {
			continue
		}

		glyphWidths[r] = int(advance >> 6)
	}

	return &Metrics{
		UnitsPerEm:  int(unitsPerEm),
		GlyphWidths: glyphWidths,
		font:        f,
	}, nil
}

// GetStringWidth calculates the width of a string in points at the given font size.
func (m *Metrics) GetStringWidth(text string, fontSize float64) float64 {
	if m == nil || m.UnitsPerEm == 0 {
		return float64(len(text)) * fontSize * 0.5
	}

	var totalWidth int
	for _, r := range text {
		if width, ok := m.GlyphWidths[r]; ok {
			totalWidth += width
		} else {
			totalWidth += m.UnitsPerEm / 2
		}
	}

	return (float64(totalWidth) / float64(m.UnitsPerEm)) * fontSize
}

// GetWidthsArray returns an array of widths for a PDF font dictionary (FirstChar=32, LastChar=255).
// Widths are scaled to 1000 units per em as per PDF specification.
func (m *Metrics) GetWidthsArray() []int {
	widths := make([]int, 256-32)
	defaultWidth := 500

	if m != nil && m.UnitsPerEm > 0 {
		scale := 1000.0 / float64(m.UnitsPerEm)
		defaultWidth = int(float64(m.UnitsPerEm/2) * scale)

		for i := 32; i < 256; i++ {
			if w, ok := m.GlyphWidths[rune(i)]; ok {
				widths[i-32] = int(float64(w) * scale)
			} else {
				widths[i-32] = defaultWidth
			}
		}
	} else {
		for i := range widths {
			widths[i] = defaultWidth
		}
	}

	return widths
}
