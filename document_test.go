package pdfmark

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/digitorus/pdfmark/annotations"
	"github.com/digitorus/pdfmark/images"
	"github.com/digitorus/pdfmark/internal/testpdf"
)

func openTest(t *testing.T, pages int) *Document {
	t.Helper()
	doc, err := OpenBytes(testpdf.New(pages))
	if err != nil {
		t.Fatalf("OpenBytes() error = %v", err)
	}
	return doc
}

func pngImage(t *testing.T, w, h int) *images.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{B: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	i, err := images.New("sig.png", buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	return i
}

func text(id string, page int, x, y float64, s string) Annotation {
	return Annotation{
		ID:       id,
		Kind:     annotations.Text,
		Page:     page,
		X:        x,
		Y:        y,
		Text:     s,
		FontSize: 16,
	}
}

func TestOpen(t *testing.T) {
	t.Run("not a pdf", func(t *testing.T) {
		_, err := OpenBytes([]byte("hello world"))
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("OpenBytes() error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("corrupt", func(t *testing.T) {
		_, err := OpenBytes([]byte("%PDF-1.7\nthis is not a document"))
		if !errors.Is(err, ErrUnreadable) {
			t.Errorf("OpenBytes() error = %v, want ErrUnreadable", err)
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "in.pdf")
		if err := os.WriteFile(path, testpdf.New(3), 0o600); err != nil {
			t.Fatal(err)
		}
		doc, err := OpenFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if doc.PageCount() != 3 {
			t.Errorf("PageCount() = %d, want 3", doc.PageCount())
		}
	})

	t.Run("reader", func(t *testing.T) {
		data := testpdf.New(2)
		doc, err := Open(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(doc.Bytes(), data) {
			t.Error("Bytes() differs from the input")
		}
	})

	if _, err := OpenFile("non_existent_file.pdf"); err == nil {
		t.Error("Expected error opening non-existent file")
	}
}

func TestPageSize(t *testing.T) {
	doc, err := OpenBytes(testpdf.Build(testpdf.Options{
		Pages: []testpdf.Page{{Width: 595, Height: 842}, {Width: 612, Height: 792}},
	}))
	if err != nil {
		t.Fatal(err)
	}

	w, h, err := doc.PageSize(1)
	if err != nil || w != 595 || h != 842 {
		t.Errorf("PageSize(1) = %v, %v, %v", w, h, err)
	}
	if _, _, err := doc.PageSize(3); !errors.Is(err, ErrPageOutOfRange) {
		t.Errorf("PageSize(3) error = %v, want ErrPageOutOfRange", err)
	}
}

func TestIsPDF(t *testing.T) {
	if !IsPDF([]byte("\n%PDF-1.4")) {
		t.Error("IsPDF() = false for a header after whitespace")
	}
	if IsPDF([]byte("PK\x03\x04")) {
		t.Error("IsPDF() = true for a zip file")
	}
	if !HasPDFExtension("Report.PDF") || HasPDFExtension("report.pdf.txt") {
		t.Error("HasPDFExtension() mismatch")
	}
}

func TestWriteText(t *testing.T) {
	doc := openTest(t, 1)

	var out bytes.Buffer
	result, err := doc.Write(context.Background(), &out, []Annotation{text("a", 1, 100, 300, "Hello")})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if result.Marks != 1 || len(result.Pages) != 1 || result.Size != out.Len() {
		t.Errorf("Result = %+v", result)
	}

	written, err := OpenBytes(out.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if written.PageCount() != 1 {
		t.Errorf("PageCount() = %d", written.PageCount())
	}
	content, err := written.PageContent(1)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"(Page 1) Tj", "/PMF1 16 Tf", "0 0 0 rg", "1 0 0 1 100 300 Tm", "<48656c6c6f> Tj"} {
		if !bytes.Contains(content, []byte(want)) {
			t.Errorf("page content %q missing %q", content, want)
		}
	}
	if !bytes.HasPrefix(out.Bytes(), doc.Bytes()) {
		t.Error("original bytes were not preserved")
	}
}

func TestWriteSkipsMissingPages(t *testing.T) {
	doc := openTest(t, 2)
	ctx := context.Background()
	a := text("a", 1, 100, 300, "kept")

	want, _, err := doc.Apply(ctx, []Annotation{a})
	if err != nil {
		t.Fatal(err)
	}

	got, result, err := doc.Apply(ctx, []Annotation{a, text("b", 5, 10, 10, "lost"), text("c", 0, 10, 10, "lost")})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Error("output with out-of-range marks differs from output without them")
	}
	if strings.Join(result.Skipped, ",") != "c,b" {
		t.Errorf("Skipped = %v, want [c b]", result.Skipped)
	}
}

func TestWriteNothing(t *testing.T) {
	doc := openTest(t, 1)
	var out bytes.Buffer
	if _, err := doc.Write(context.Background(), &out, nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), doc.Bytes()) {
		t.Error("Write() without marks changed the document")
	}
}

func TestWriteDeterministic(t *testing.T) {
	doc := openTest(t, 3)
	marks := []Annotation{
		text("a", 3, 10, 10, "three"),
		text("b", 1, 10, 10, "one"),
		{ID: "c", Kind: annotations.Image, Page: 1, X: 50, Y: 50, Width: 100, Height: 50, Image: pngImage(t, 4, 2)},
	}

	first, _, err := doc.Apply(context.Background(), marks)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := doc.Apply(context.Background(), marks)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("equal inputs produced different documents")
	}
}

func TestWriteFontFallback(t *testing.T) {
	doc := openTest(t, 1)
	a := text("a", 1, 10, 10, "x")
	a.FontFamily = "Comic Sans"

	_, result, err := doc.Apply(context.Background(), []Annotation{a, a})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "Comic Sans") {
		t.Errorf("Warnings = %v", result.Warnings)
	}
}

func TestWriteInvalid(t *testing.T) {
	doc := openTest(t, 1)
	bad := text("a", 1, 10, 10, "x")
	bad.FontSize = 0

	var out bytes.Buffer
	_, err := doc.Write(context.Background(), &out, []Annotation{bad})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Write() error = %v, want ErrInvalidInput", err)
	}
	if out.Len() != 0 {
		t.Error("output written for a failed write")
	}
}

func TestWriteCancelled(t *testing.T) {
	doc := openTest(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := doc.Apply(ctx, []Annotation{text("a", 1, 10, 10, "x")}); !errors.Is(err, context.Canceled) {
		t.Errorf("Apply() error = %v, want context.Canceled", err)
	}
}

func TestFromImages(t *testing.T) {
	imgs := []*images.Image{pngImage(t, 400, 200), pngImage(t, 100, 300)}

	data, err := FromImages(context.Background(), imgs, Letter)
	if err != nil {
		t.Fatalf("FromImages() error = %v", err)
	}
	doc, err := OpenBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if doc.PageCount() != 2 {
		t.Fatalf("PageCount() = %d, want 2", doc.PageCount())
	}
	if w, h, _ := doc.PageSize(2); w != 612 || h != 792 {
		t.Errorf("PageSize(2) = %v x %v", w, h)
	}

	// 400x200 scaled into 572x752 gives 572x286, centered.
	content, _ := doc.PageContent(1)
	if !bytes.Contains(content, []byte("572 0 0 286 20 253 cm")) {
		t.Errorf("page 1 content = %q", content)
	}

	again, _ := FromImages(context.Background(), imgs, Letter)
	if !bytes.Equal(data, again) {
		t.Error("FromImages() is not deterministic")
	}

	if _, err := FromImages(context.Background(), nil, A4); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("FromImages(nil) error = %v, want ErrInvalidInput", err)
	}
}

func TestParsePaperSize(t *testing.T) {
	p, err := ParsePaperSize("letter")
	if err != nil || p != Letter {
		t.Errorf("ParsePaperSize(letter) = %v, %v", p, err)
	}
	if _, err := ParsePaperSize("A5"); err == nil {
		t.Error("ParsePaperSize(A5) succeeded")
	}
}

func TestAddImage(t *testing.T) {
	doc := openTest(t, 1)
	img := pngImage(t, 2, 2)

	first, err := doc.AddImage("sig", img.Data)
	if err != nil {
		t.Fatal(err)
	}
	second, _ := doc.AddImage("sig", []byte("ignored"))
	if first != second {
		t.Error("AddImage() did not return the registered image")
	}
	if _, err := doc.AddImage("bad", []byte("GIF89a")); err == nil {
		t.Error("AddImage() accepted an unsupported image")
	}

	fonts, err := doc.Fonts()
	if err != nil || len(fonts) != 1 || fonts[0] != "Helvetica" {
		t.Errorf("Fonts() = %v, %v", fonts, err)
	}
}

func TestCompress(t *testing.T) {
	ctx := context.Background()
	doc := openTest(t, 2)
	marked, _, err := doc.Apply(ctx, []annotations.Annotation{{
		Kind: annotations.Text, Page: 2, X: 100, Y: 300, Text: "Approved", FontSize: 16,
	}})
	if err != nil {
		t.Fatal(err)
	}
	updated, err := OpenBytes(marked)
	if err != nil {
		t.Fatal(err)
	}

	out, err := updated.Compress(ctx)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	// Compressing the result again reads object streams and a cross-reference stream.
	for i := 0; i < 2; i++ {
		again, err := OpenBytes(out)
		if err != nil {
			t.Fatalf("round %d: OpenBytes() error = %v", i, err)
		}
		if again.PageCount() != 2 {
			t.Errorf("round %d: PageCount() = %d, want 2", i, again.PageCount())
		}
		content, err := again.PageContent(2)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(content), "1 0 0 1 100 300 Tm") {
			t.Errorf("round %d: mark missing from page 2", i)
		}
		if out, err = again.Compress(ctx); err != nil {
			t.Fatalf("round %d: Compress() error = %v", i, err)
		}
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := updated.Compress(cancelled); !errors.Is(err, context.Canceled) {
		t.Errorf("Compress(cancelled) error = %v, want context.Canceled", err)
	}
}
