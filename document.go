// Package pdfmark places text and image marks on the pages of existing PDF
// documents. Marks are appended as an incremental update, so the original bytes
// stay intact and the result opens in any PDF reader.
//
// Basic usage:
//
//	doc, err := pdfmark.OpenFile("document.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := doc.Write(ctx, output, []annotations.Annotation{{
//	    Kind: annotations.Text, Page: 1, X: 100, Y: 300,
//	    Text: "Approved", FontSize: 16,
//	}})
package pdfmark

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	pdflib "github.com/digitorus/pdf"

	"github.com/digitorus/pdfmark/images"
	"github.com/digitorus/pdfmark/internal/logging"
	"github.com/digitorus/pdfmark/internal/pdf"
)

var (
	// ErrInvalidInput is returned for input that is not a PDF document or for
	// marks that cannot be drawn.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnreadable is returned when a PDF document cannot be parsed.
	ErrUnreadable = errors.New("unreadable document")

	// ErrSave is returned when the modified document cannot be produced.
	ErrSave = errors.New("failed to save document")

	// ErrPageOutOfRange is returned for page numbers outside [1, PageCount].
	ErrPageOutOfRange = pdf.ErrNoPage
)

// pdfHeader starts every PDF file.
var pdfHeader = []byte("%PDF-")

// Document is an immutable, parsed PDF document.
type Document struct {
	data []byte
	rdr  *pdflib.Reader

	images map[string]*images.Image

	compressLevel int
}

// Open reads the whole document from reader. The size parameter must be the total
// size of the PDF in bytes.
func Open(reader io.ReaderAt, size int64) (*Document, error) {
	data, err := io.ReadAll(io.NewSectionReader(reader, 0, size))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return OpenBytes(data)
}

// OpenFile is a convenience method to open a PDF document from a file on disk.
func OpenFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return OpenBytes(data)
}

// OpenBytes parses data as a PDF document. The bytes are copied.
func OpenBytes(data []byte) (*Document, error) {
	if !IsPDF(data) {
		return nil, fmt.Errorf("%w: missing %s header", ErrInvalidInput, pdfHeader)
	}

	doc := &Document{
		data:          bytes.Clone(data),
		images:        make(map[string]*images.Image),
		compressLevel: zlib.DefaultCompression,
	}

	rdr, err := newReader(doc.data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if rdr.NumPage() < 1 {
		return nil, fmt.Errorf("%w: document has no pages", ErrUnreadable)
	}
	doc.rdr = rdr

	logging.Debug().Add(logging.Pages(rdr.NumPage())).Add(logging.Bytes(len(data))).Msg("opened document")
	return doc, nil
}

// newReader parses data, turning parser panics on malformed input into errors.
func newReader(data []byte) (rdr *pdflib.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed document: %v", r)
		}
	}()
	return pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
}

// IsPDF reports whether data starts with a PDF header. Leading whitespace is
// tolerated.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n\x00"), pdfHeader)
}

// HasPDFExtension reports whether name carries a .pdf extension.
func HasPDFExtension(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// SetCompression configures the zlib compression level for new stream objects.
// Supported levels are zlib.NoCompression, zlib.BestSpeed, zlib.BestCompression, or zlib.DefaultCompression.
func (d *Document) SetCompression(level int) {
	d.compressLevel = level
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.rdr.NumPage()
}

// PageSize returns the width and height of the 1-based page n in points, taken
// from the inherited MediaBox (US Letter when absent). /Rotate is not applied:
// marks are placed in unrotated page space.
func (d *Document) PageSize(n int) (float64, float64, error) {
	page, err := pdf.FindPage(d.rdr, n)
	if err != nil {
		return 0, 0, err
	}
	mb := pdf.MediaBox(page)
	return mb[2] - mb[0], mb[3] - mb[1], nil
}

// PageContent returns the decoded content streams of page n.
func (d *Document) PageContent(n int) ([]byte, error) {
	return pdf.PageContent(d.rdr, n)
}

// Bytes returns a copy of the original document.
func (d *Document) Bytes() []byte {
	return bytes.Clone(d.data)
}

// Size returns the length of the original document in bytes.
func (d *Document) Size() int {
	return len(d.data)
}

// Reader returns the low-level PDF reader.
func (d *Document) Reader() *pdflib.Reader {
	return d.rdr
}
