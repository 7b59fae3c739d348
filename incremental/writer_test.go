package incremental

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"testing"

	"github.com/digitorus/pdf"

	pdfint "github.com/digitorus/pdfmark/internal/pdf"
	"github.com/digitorus/pdfmark/internal/testpdf"
)

func open(t *testing.T, data []byte) *pdf.Reader {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	return r
}

func overlayPage(t *testing.T, input []byte, n int) []byte {
	t.Helper()
	r := open(t, input)

	w, err := New(r, input)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	fontID, err := w.AddObject([]byte("<< /Type /Font /Subtype /Type1 /BaseFont /Courier /Encoding /WinAnsiEncoding >>"))
	if err != nil {
		t.Fatal(err)
	}

	page, err := pdfint.FindPage(r, n)
	if err != nil {
		t.Fatal(err)
	}
	ov := Overlay{
		Content: []byte("BT /PMF1 16 Tf 1 0 0 1 100 300 Tm <4E6577> Tj ET"),
		Resources: map[string][]pdfint.Entry{
			pdfint.Font: {{Key: "PMF1", Value: fmt.Sprintf("%d 0 R", fontID)}},
		},
	}
	if err := w.UpdatePage(page, ov); err != nil {
		t.Fatalf("UpdatePage() error = %v", err)
	}

	out, err := w.Finish()
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	return out
}

func TestUpdatePage(t *testing.T) {
	tests := []struct {
		name string
		opts testpdf.Options
	}{
		{"xref table", testpdf.Options{Pages: testpdf.Letter(2)}},
		{"xref stream", testpdf.Options{Pages: testpdf.Letter(2), XrefStream: true}},
		{"inherited resources", testpdf.Options{Pages: testpdf.Letter(2), InheritResources: true}},
		{"contents array", testpdf.Options{Pages: testpdf.Letter(2), ContentsArray: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := testpdf.Build(tt.opts)
			original := append([]byte(nil), input...)

			out := overlayPage(t, input, 2)

			if !bytes.Equal(input, original) {
				t.Fatal("input bytes were modified")
			}
			if !bytes.HasPrefix(out, input) {
				t.Fatal("output does not start with the original document")
			}

			r := open(t, out)
			if r.NumPage() != 2 {
				t.Fatalf("NumPage() = %d, want 2", r.NumPage())
			}

			content, err := pdfint.PageContent(r, 2)
			if err != nil {
				t.Fatal(err)
			}
			want := "q\nBT /F1 12 Tf 72 72 Td (Page 2) Tj ET\nQ\nBT /PMF1 16 Tf"
			if !bytes.Contains(content, []byte(want)) {
				t.Errorf("page content = %q, want it to contain %q", content, want)
			}

			page, _ := pdfint.FindPage(r, 2)
			fonts := page.Key("Resources").Key("Font")
			if fonts.Key("F1").Key("BaseFont").Name() != "Helvetica" {
				t.Errorf("existing font resource lost: %v", fonts)
			}
			if fonts.Key("PMF1").Key("BaseFont").Name() != "Courier" {
				t.Errorf("overlay font resource missing: %v", fonts)
			}

			// Page 1 is untouched.
			other, _ := pdfint.PageContent(r, 1)
			if bytes.Contains(other, []byte("PMF1")) {
				t.Errorf("page 1 content changed: %q", other)
			}
		})
	}
}

func TestDeterministic(t *testing.T) {
	input := testpdf.New(1)
	a := overlayPage(t, input, 1)
	b := overlayPage(t, input, 1)
	if !bytes.Equal(a, b) {
		t.Error("equal updates produced different output")
	}
}

func TestXrefTable(t *testing.T) {
	input := testpdf.New(1)
	out := overlayPage(t, input, 1)
	tail := string(out[len(input):])

	// The source holds objects 1 to 5, so new objects start at 6.
	for _, want := range []string{
		"6 0 obj\n",
		"4 0 obj\n",
		"xref\n4 1\n",
		"6 3\n",
		"/Size 9",
		"/Root 1 0 R",
		"/ID [ <0102030405060708> <0102030405060708> ]",
		"%%EOF\n",
	} {
		if !bytes.Contains([]byte(tail), []byte(want)) {
			t.Errorf("update %q missing %q", tail, want)
		}
	}
	prev := fmt.Sprintf("/Prev %d", open(t, input).XrefInformation.StartPos)
	if !bytes.Contains([]byte(tail), []byte(prev)) {
		t.Errorf("update missing %q", prev)
	}
}

func TestUpdateObject(t *testing.T) {
	input := testpdf.New(1)
	w, err := New(open(t, input), input)
	if err != nil {
		t.Fatal(err)
	}

	if err := w.UpdateObject(99, 0, []byte("<< >>")); err == nil {
		t.Error("UpdateObject(99) succeeded for an object outside the document")
	}
	if err := w.UpdateObject(3, 0, []byte("<< /Type /Font /Subtype /Type1 /BaseFont /Times-Roman >>")); err != nil {
		t.Fatal(err)
	}
	if err := w.UpdateObject(3, 0, []byte("<< /Type /Font /Subtype /Type1 /BaseFont /Courier >>")); err != nil {
		t.Fatal(err)
	}
	if len(w.updatedXrefEntries) != 1 {
		t.Errorf("updated entries = %d, want 1", len(w.updatedXrefEntries))
	}

	out, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}
	r := open(t, out)
	page, _ := pdfint.FindPage(r, 1)
	if got := page.Key("Resources").Key("Font").Key("F1").Key("BaseFont").Name(); got != "Courier" {
		t.Errorf("BaseFont = %q, want the last update", got)
	}

	if _, err := w.AddObject([]byte("<< >>")); !errors.Is(err, ErrFinished) {
		t.Errorf("AddObject() after Finish error = %v, want ErrFinished", err)
	}
}

func TestAddStream(t *testing.T) {
	input := testpdf.New(1)

	for _, level := range []int{zlib.NoCompression, zlib.BestCompression} {
		w, err := New(open(t, input), input)
		if err != nil {
			t.Fatal(err)
		}
		w.CompressLevel = level

		id, err := w.AddStream("/Type /XObject /Subtype /Form /BBox [ 0 0 10 10 ]", []byte("0 0 10 10 re f"))
		if err != nil {
			t.Fatal(err)
		}
		if id != 6 {
			t.Errorf("AddStream() id = %d, want 6", id)
		}
		out, err := w.Finish()
		if err != nil {
			t.Fatal(err)
		}
		compressed := bytes.Contains(out[len(input):], []byte("/Filter /FlateDecode"))
		if compressed != (level != zlib.NoCompression) {
			t.Errorf("level %d: compressed = %v", level, compressed)
		}
	}
}

func TestWriteXrefStreamLine(t *testing.T) {
	tests := []struct {
		name     string
		xreftype byte
		offset   int64
		gen      byte
		expected []byte
	}{
		{
			name:     "basic entry",
			xreftype: 1,
			offset:   1234,
			gen:      0,
			expected: []byte{1, 0, 0, 4, 210, 0},
		},
		{
			name:     "zero entry",
			xreftype: 0,
			offset:   0,
			gen:      0,
			expected: []byte{0, 0, 0, 0, 0, 0},
		},
		{
			name:     "max offset",
			xreftype: 1,
			offset:   16777215, // 2^24 - 1
			gen:      255,
			expected: []byte{1, 0, 255, 255, 255, 255},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			writeXrefStreamLine(&buf, tt.xreftype, tt.offset, tt.gen)
			result := buf.Bytes()
			if !bytes.Equal(result, tt.expected) {
				t.Errorf("writeXrefStreamLine() = %v, want %v", result, tt.expected)
			}
			if len(result) != xrefStreamColumns {
				t.Errorf("incorrect length: got %d bytes, want %d bytes", len(result), xrefStreamColumns)
			}
		})
	}
}

func TestPDFString(t *testing.T) {
	tests := map[string]string{
		"plain":    "(plain)",
		"a(b)c":    `(a\(b\)c)`,
		`back\sl`:  `(back\\sl)`,
		"é":        "(\xfe\xff\x00\xe9)",
		"line\rcr": `(line\rcr)`,
	}
	for in, want := range tests {
		if got := PDFString(in); got != want {
			t.Errorf("PDFString(%q) = %q, want %q", in, got, want)
		}
	}
}
