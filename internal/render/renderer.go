// Package render turns overlay elements into PDF content stream operators and the
// font, image and graphics state objects they use.
package render

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strconv"

	"golang.org/x/text/encoding/charmap"

	"github.com/digitorus/pdfmark/fonts"
	"github.com/digitorus/pdfmark/geom"
	"github.com/digitorus/pdfmark/incremental"
	"github.com/digitorus/pdfmark/internal/pdf"
)

// ObjectWriter adds objects to the document being written.
type ObjectWriter interface {
	AddObject(content []byte) (uint32, error)
	AddStream(dict string, data []byte) (uint32, error)
}

// Resource name prefixes. Names already used by a page are skipped.
const (
	fontPrefix  = "PMF"
	imagePrefix = "PMIm"
	statePrefix = "PMGs"
)

// Resources registers the objects shared by all overlays of one document, so a
// font or image drawn on several pages is written once.
type Resources struct {
	w      ObjectWriter
	fonts  map[string]uint32
	images map[string]uint32
	states map[string]uint32
}

// NewResources returns an empty registry writing to w.
func NewResources(w ObjectWriter) *Resources {
	return &Resources{
		w:      w,
		fonts:  make(map[string]uint32),
		images: make(map[string]uint32),
		states: make(map[string]uint32),
	}
}

// pageNames hands out resource names for one page.
type pageNames struct {
	taken    map[string]bool
	counters map[string]int
	byObject map[uint32]string
	entries  map[string][]pdf.Entry
}

func (n *pageNames) name(category, prefix string, id uint32) string {
	if name, ok := n.byObject[id]; ok {
		return name
	}
	for {
		n.counters[prefix]++
		name := prefix + strconv.Itoa(n.counters[prefix])
		if n.taken[name] {
			continue
		}
		n.taken[name] = true
		n.byObject[id] = name
		n.entries[category] = append(n.entries[category], pdf.Entry{Key: name, Value: pdf.Ref{ID: id}.String()})
		return name
	}
}

// RenderOverlay draws the elements in order and returns the overlay content with
// the resources it names. taken holds the resource names already defined on the
// page; it is not modified.
func (r *Resources) RenderOverlay(elements []Element, taken map[string]bool) (incremental.Overlay, error) {
	names := &pageNames{
		taken:    make(map[string]bool, len(taken)),
		counters: make(map[string]int),
		byObject: make(map[uint32]string),
		entries:  make(map[string][]pdf.Entry),
	}
	for k := range taken {
		names.taken[k] = true
	}

	var stream bytes.Buffer
	for _, el := range elements {
		switch e := el.(type) {
		case TextElement:
			if err := r.drawText(&stream, names, e); err != nil {
				return incremental.Overlay{}, err
			}
		case ImageElement:
			if err := r.drawImage(&stream, names, e); err != nil {
				return incremental.Overlay{}, err
			}
		default:
			return incremental.Overlay{}, fmt.Errorf("unsupported element %T", el)
		}
	}

	return incremental.Overlay{Content: stream.Bytes(), Resources: names.entries}, nil
}

func (r *Resources) drawText(stream *bytes.Buffer, names *pageNames, e TextElement) error {
	font := e.Font
	if font == nil {
		font = fonts.Standard(fonts.Helvetica)
	}
	fontID, err := r.RegisterFont(font)
	if err != nil {
		return err
	}
	fontName := names.name(pdf.Font, fontPrefix, fontID)

	stream.WriteString("q\n")
	if err := r.setOpacity(stream, names, e.Opacity); err != nil {
		return err
	}
	stream.WriteString("BT\n")
	fmt.Fprintf(stream, "/%s %s Tf\n", fontName, num(e.Size))
	fmt.Fprintf(stream, "%s %s %s rg\n", component(e.Color.R), component(e.Color.G), component(e.Color.B))

	m := geom.Translate(e.X, e.Y)
	if e.Rotation != 0 {
		w := font.Width(e.Content, e.Size)
		m = geom.RotatedAround(e.Rotation, e.X, e.Y, e.X+w/2, e.Y+e.Size/2)
	}
	fmt.Fprintf(stream, "%s Tm\n", matrix(m))
	fmt.Fprintf(stream, "<%s> Tj\n", hex.EncodeToString(EncodeWinAnsi(e.Content)))
	stream.WriteString("ET\nQ\n")
	return nil
}

func (r *Resources) drawImage(stream *bytes.Buffer, names *pageNames, e ImageElement) error {
	if e.Image == nil {
		return fmt.Errorf("image element without image")
	}
	imgID, err := r.RegisterImage(e.Image.Hash, e.Image.Data)
	if err != nil {
		return err
	}
	imgName := names.name(pdf.XObject, imagePrefix, imgID)

	m := geom.Matrix{e.Width, 0, 0, e.Height, 0, 0}
	if e.Rotation != 0 {
		m = m.Multiply(geom.RotatedAround(e.Rotation, e.X, e.Y, e.X+e.Width/2, e.Y+e.Height/2))
	} else {
		m = m.Multiply(geom.Translate(e.X, e.Y))
	}

	stream.WriteString("q\n")
	if err := r.setOpacity(stream, names, e.Opacity); err != nil {
		return err
	}
	fmt.Fprintf(stream, "%s cm\n", matrix(m))
	fmt.Fprintf(stream, "/%s Do\n", imgName)
	stream.WriteString("Q\n")
	return nil
}

func (r *Resources) setOpacity(stream *bytes.Buffer, names *pageNames, opacity float64) error {
	if opacity <= 0 || opacity >= 1 {
		return nil
	}
	key := num(opacity)
	id, ok := r.states[key]
	if !ok {
		var err error
		id, err = r.w.AddObject([]byte(fmt.Sprintf("<< /Type /ExtGState /ca %s /CA %s >>", key, key)))
		if err != nil {
			return fmt.Errorf("failed to add graphics state: %w", err)
		}
		r.states[key] = id
	}
	fmt.Fprintf(stream, "/%s gs\n", names.name(pdf.ExtGState, statePrefix, id))
	return nil
}

// RegisterImage encodes and registers an image object in the PDF. JPEG data
// without transparency is embedded as is; anything else is stored as Flate
// compressed RGB with an optional soft mask.
func (r *Resources) RegisterImage(key string, data []byte) (uint32, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("invalid image data")
	}
	if key == "" {
		key = string(data)
	}
	if id, ok := r.images[key]; ok {
		return id, nil
	}

	srcImg, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := srcImg.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	rgb := make([]byte, 0, width*height*3)
	alpha := make([]byte, 0, width*height)
	hasAlpha := false
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			cr, cg, cb, ca := srcImg.At(x, y).RGBA()
			a8 := uint8(ca >> 8)
			if a8 < 255 {
				hasAlpha = true
			}
			alpha = append(alpha, a8)
			rgb = append(rgb, uint8(cr>>8), uint8(cg>>8), uint8(cb>>8))
		}
	}

	var smaskID uint32
	if hasAlpha {
		smaskDict := fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceGray /BitsPerComponent 8", width, height)
		smaskID, err = r.w.AddStream(smaskDict, alpha)
		if err != nil {
			return 0, fmt.Errorf("failed to add image mask: %w", err)
		}
	}

	dict := fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8", width, height)
	if smaskID != 0 {
		dict += fmt.Sprintf(" /SMask %d 0 R", smaskID)
	}

	var id uint32
	if format == "jpeg" && !hasAlpha {
		var obj bytes.Buffer
		fmt.Fprintf(&obj, "<< %s /Filter /DCTDecode /Length %d >>\nstream\n", dict, len(data))
		obj.Write(data)
		obj.WriteString("\nendstream")
		id, err = r.w.AddObject(obj.Bytes())
	} else {
		id, err = r.w.AddStream(dict, rgb)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add image: %w", err)
	}
	r.images[key] = id
	return id, nil
}

// RegisterFont registers a font in the PDF: a Type1 reference for the standard
// fonts, an embedded TrueType program otherwise.
func (r *Resources) RegisterFont(f *fonts.Font) (uint32, error) {
	key := f.Name
	if f.Hash != "" {
		key = f.Hash
	}
	if id, ok := r.fonts[key]; ok {
		return id, nil
	}

	var id uint32
	var err error
	if f.Embedded && len(f.Data) > 0 {
		id, err = r.embedFont(f)
	} else {
		baseFont := f.Name
		if baseFont == "" {
			baseFont = "Helvetica"
		}
		id, err = r.w.AddObject([]byte(fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont %s /Encoding /WinAnsiEncoding >>", pdf.Name(baseFont))))
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add font %s: %w", f.Name, err)
	}
	r.fonts[key] = id
	return id, nil
}

func (r *Resources) embedFont(f *fonts.Font) (uint32, error) {
	fontStreamID, err := r.w.AddStream(fmt.Sprintf("/Length1 %d", len(f.Data)), f.Data)
	if err != nil {
		return 0, err
	}

	fdDict := fmt.Sprintf("<< /Type /FontDescriptor /FontName %s /Flags 32 /FontBBox [ -500 -200 1000 900 ] /ItalicAngle 0 /Ascent 800 /Descent -200 /CapHeight 700 /StemV 80 /FontFile2 %d 0 R >>",
		pdf.Name(f.Name), fontStreamID)
	descriptorID, err := r.w.AddObject([]byte(fdDict))
	if err != nil {
		return 0, err
	}

	var fontBuf bytes.Buffer
	fmt.Fprintf(&fontBuf, "<< /Type /Font /Subtype /TrueType /BaseFont %s /FontDescriptor %d 0 R /FirstChar 32 /LastChar 255 /Encoding /WinAnsiEncoding /Widths [",
		pdf.Name(f.Name), descriptorID)
	for _, w := range f.Metrics.GetWidthsArray() {
		fmt.Fprintf(&fontBuf, " %d", w)
	}
	fontBuf.WriteString(" ] >>")
	return r.w.AddObject(fontBuf.Bytes())
}

// EncodeWinAnsi encodes text for a WinAnsiEncoding font. Characters outside the
// encoding become '?'.
func EncodeWinAnsi(text string) []byte {
	out := make([]byte, 0, len(text))
	for _, c := range text {
		b, ok := charmap.Windows1252.EncodeRune(c)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}

func num(f float64) string {
	return pdf.FormatNumber(f)
}

func component(c uint8) string {
	return pdf.FormatNumber(float64(c) / 255)
}

func matrix(m geom.Matrix) string {
	return fmt.Sprintf("%s %s %s %s %s %s", num(m[0]), num(m[1]), num(m[2]), num(m[3]), num(m[4]), num(m[5]))
}
