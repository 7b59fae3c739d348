package pdfmark

import (
	"bytes"
	"compress/zlib"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	pdflib "github.com/digitorus/pdf"

	"github.com/digitorus/pdfmark/images"
	"github.com/digitorus/pdfmark/incremental"
	"github.com/digitorus/pdfmark/internal/logging"
	"github.com/digitorus/pdfmark/internal/pdf"
	"github.com/digitorus/pdfmark/internal/render"
)

// Producer is written to the document information of new documents.
const Producer = "pdfmark"

// PaperSize is the page size of a new document in points.
type PaperSize struct {
	Name          string
	Width, Height float64
}

// Paper sizes for new documents.
var (
	A4     = PaperSize{Name: "A4", Width: 595.28, Height: 841.89}
	Letter = PaperSize{Name: "Letter", Width: 612, Height: 792}
	Legal  = PaperSize{Name: "Legal", Width: 612, Height: 1008}
)

// ParsePaperSize returns the paper size with the given name, ignoring case.
func ParsePaperSize(name string) (PaperSize, error) {
	for _, p := range []PaperSize{A4, Letter, Legal} {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return PaperSize{}, fmt.Errorf("%w: unknown paper size %q", ErrInvalidInput, name)
}

// ImageMargin is the minimum distance between an image and the page edge.
const ImageMargin = 20.0

// FromImages creates a document with one page per image, in order. Each image is
// scaled to fit the page inside ImageMargin and centered.
func FromImages(ctx context.Context, imgs []*images.Image, size PaperSize) ([]byte, error) {
	if len(imgs) == 0 {
		return nil, fmt.Errorf("%w: no images", ErrInvalidInput)
	}
	if size.Width <= 0 || size.Height <= 0 {
		size = A4
	}

	b := &builder{compressLevel: zlib.DefaultCompression}
	catalogID := b.reserve()
	pagesID := b.reserve()
	res := render.NewResources(b)

	kids := make([]string, 0, len(imgs))
	for i, img := range imgs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if img == nil || img.Width == 0 || img.Height == 0 {
			return nil, fmt.Errorf("%w: image %d is empty", ErrInvalidInput, i+1)
		}

		scale := min((size.Width-2*ImageMargin)/float64(img.Width), (size.Height-2*ImageMargin)/float64(img.Height))
		w, h := float64(img.Width)*scale, float64(img.Height)*scale

		ov, err := res.RenderOverlay([]render.Element{render.ImageElement{
			Image:  img,
			X:      (size.Width - w) / 2,
			Y:      (size.Height - h) / 2,
			Width:  w,
			Height: h,
		}}, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: image %s: %v", ErrInvalidInput, img.Name, err)
		}

		contentID, err := b.AddStream("", ov.Content)
		if err != nil {
			return nil, err
		}

		var resources bytes.Buffer
		pdf.MergeResources(&resources, pdflib.Value{}, ov.Resources)

		pageID, err := b.AddObject([]byte(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [ 0 0 %s %s ] /Resources %s /Contents %d 0 R >>",
			pagesID, pdf.FormatNumber(size.Width), pdf.FormatNumber(size.Height), resources.String(), contentID)))
		if err != nil {
			return nil, err
		}
		kids = append(kids, pdf.Ref{ID: pageID}.String())
	}

	b.set(pagesID, []byte(fmt.Sprintf("<< /Type /Pages /Kids [ %s ] /Count %d >>", strings.Join(kids, " "), len(kids))))
	b.set(catalogID, []byte(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesID)))
	infoID, err := b.AddObject([]byte("<< /Producer " + incremental.PDFString(Producer) + " >>"))
	if err != nil {
		return nil, err
	}

	out := b.bytes(catalogID, infoID)
	logging.Debug().Add(logging.Count("images", len(imgs))).Add(logging.Bytes(len(out))).Msg("created document from images")
	return out, nil
}

// builder writes a complete document from scratch.
type builder struct {
	objects       [][]byte
	compressLevel int
}

func (b *builder) reserve() uint32 {
	b.objects = append(b.objects, nil)
	return uint32(len(b.objects))
}

func (b *builder) set(id uint32, content []byte) {
	b.objects[id-1] = content
}

func (b *builder) AddObject(content []byte) (uint32, error) {
	b.objects = append(b.objects, bytes.TrimSpace(content))
	return uint32(len(b.objects)), nil
}

func (b *builder) AddStream(dict string, data []byte) (uint32, error) {
	var z bytes.Buffer
	zw, err := zlib.NewWriterLevel(&z, b.compressLevel)
	if err != nil {
		return 0, err
	}
	if _, err := zw.Write(data); err != nil {
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	buf.WriteString("<<")
	if dict != "" {
		buf.WriteString(" " + dict)
	}
	fmt.Fprintf(&buf, " /Filter /FlateDecode /Length %d >>\nstream\n", z.Len())
	buf.Write(z.Bytes())
	buf.WriteString("\nendstream")
	return b.AddObject(buf.Bytes())
}

// bytes serializes the objects with a classic xref table. The file identifier is
// derived from the content so equal input yields equal output.
func (b *builder) bytes(root, info uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(b.objects))
	for i, obj := range b.objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	sum := sha256.Sum256(buf.Bytes())
	id := hex.EncodeToString(sum[:16])

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(b.objects)+1)
	buf.WriteString("0000000000 65535 f\r\n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n\r\n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R /Info %d 0 R /ID [ <%s> <%s> ] >>\n", len(b.objects)+1, root, info, id, id)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}
