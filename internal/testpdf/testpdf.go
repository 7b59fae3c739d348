// Package testpdf builds small, valid PDF files for tests.
package testpdf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
)

// Page describes one page of a generated document.
type Page struct {
	Width, Height float64
	// Text is drawn with Helvetica at (72, 72) when set.
	Text string
}

// Options control the document layout.
type Options struct {
	Pages []Page
	// XrefStream writes a cross-reference stream instead of a classic table.
	XrefStream bool
	// InheritResources moves the font resources to the page tree root.
	InheritResources bool
	// ContentsArray stores each page's /Contents as a one element array.
	ContentsArray bool
}

// Letter returns n US Letter pages labelled "Page i".
func Letter(n int) []Page {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Page{Width: 612, Height: 792, Text: fmt.Sprintf("Page %d", i+1)}
	}
	return pages
}

// New returns a document with n US Letter pages and a classic xref table.
func New(n int) []byte {
	return Build(Options{Pages: Letter(n)})
}

// Build returns the PDF described by opts.
func Build(opts Options) []byte {
	var objects [][]byte

	// 1 catalog, 2 page tree, 3 font, then page and content pairs.
	kids := ""
	for i := range opts.Pages {
		kids += fmt.Sprintf(" %d 0 R", 4+2*i)
	}
	pagesDict := fmt.Sprintf("<< /Type /Pages /Kids [%s ] /Count %d", kids, len(opts.Pages))
	if opts.InheritResources {
		pagesDict += " /Resources << /Font << /F1 3 0 R >> >> /MediaBox [0 0 612 792]"
	}
	pagesDict += " >>"

	objects = append(objects,
		[]byte("<< /Type /Catalog /Pages 2 0 R >>"),
		[]byte(pagesDict),
		[]byte("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"),
	)

	for i, p := range opts.Pages {
		pageID := 4 + 2*i
		contentID := pageID + 1

		page := "<< /Type /Page /Parent 2 0 R"
		if !opts.InheritResources || p.Width != 612 || p.Height != 792 {
			page += fmt.Sprintf(" /MediaBox [0 0 %s %s]", num(p.Width), num(p.Height))
		}
		if !opts.InheritResources {
			page += " /Resources << /Font << /F1 3 0 R >> /ProcSet [/PDF /Text] >>"
		}
		if opts.ContentsArray {
			page += fmt.Sprintf(" /Contents [%d 0 R]", contentID)
		} else {
			page += fmt.Sprintf(" /Contents %d 0 R", contentID)
		}
		page += " >>"

		var content string
		if p.Text != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 72 Td (%s) Tj ET", p.Text)
		}
		stream := fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content)

		objects = append(objects, []byte(page), []byte(stream))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(objects)+1)
	for i, obj := range objects {
		offsets[i+1] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	if opts.XrefStream {
		writeXrefStream(&buf, offsets)
	} else {
		writeXrefTable(&buf, offsets)
	}
	return buf.Bytes()
}

func writeXrefTable(buf *bytes.Buffer, offsets []int) {
	start := buf.Len()
	fmt.Fprintf(buf, "xref\n0 %d\n", len(offsets))
	buf.WriteString("0000000000 65535 f\r\n")
	for _, off := range offsets[1:] {
		fmt.Fprintf(buf, "%010d 00000 n\r\n", off)
	}
	fmt.Fprintf(buf, "trailer\n<< /Size %d /Root 1 0 R /ID [<0102030405060708><0102030405060708>] >>\n", len(offsets))
	fmt.Fprintf(buf, "startxref\n%d\n%%%%EOF\n", start)
}

func writeXrefStream(buf *bytes.Buffer, offsets []int) {
	id := len(offsets)
	start := buf.Len()
	offsets = append(offsets, start)

	var rows bytes.Buffer
	for i, off := range offsets {
		if i == 0 {
			rows.Write([]byte{0, 0, 0, 0, 0, 255})
			continue
		}
		rows.WriteByte(1)
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(off))
		rows.Write(b[:])
		rows.WriteByte(0)
	}

	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	_, _ = zw.Write(rows.Bytes())
	_ = zw.Close()

	fmt.Fprintf(buf, "%d 0 obj\n<< /Type /XRef /Size %d /W [1 4 1] /Root 1 0 R /Filter /FlateDecode /Length %d >>\nstream\n",
		id, len(offsets), z.Len())
	buf.Write(z.Bytes())
	buf.WriteString("\nendstream\nendobj\n")
	fmt.Fprintf(buf, "startxref\n%d\n%%%%EOF\n", start)
}

func num(f float64) string {
	return fmt.Sprintf("%g", f)
}
