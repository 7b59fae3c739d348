package cli

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitorus/pdfmark"
	"github.com/digitorus/pdfmark/config"
	"github.com/digitorus/pdfmark/internal/testpdf"
)

type whiteRasterizer struct{}

func (whiteRasterizer) Rasterize(_ context.Context, _ []byte, _, width int) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, width*4/3))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img, nil
}

type fixture struct {
	dir    string
	out    string
	stdout bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	// Keep a pdfmark.toml in the working directory from leaking into tests.
	old := config.DefaultLocation
	config.DefaultLocation = filepath.Join(dir, "missing.toml")
	t.Cleanup(func() { config.DefaultLocation = old })
	return &fixture{dir: dir, out: filepath.Join(dir, "out")}
}

func (f *fixture) file(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func (f *fixture) run(args ...string) error {
	f.stdout.Reset()
	app := New().WithOutput(&f.stdout, &bytes.Buffer{}).
		WithRasterizer(whiteRasterizer{}).
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) })
	return app.ExecuteWithArgs(context.Background(), append(args, "--out", f.out))
}

func (f *fixture) output(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.out, name))
	require.NoError(t, err)
	return data
}

func pngFile(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{B: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func content(t *testing.T, data []byte, page int) string {
	t.Helper()
	doc, err := pdfmark.OpenBytes(data)
	require.NoError(t, err)
	c, err := doc.PageContent(page)
	require.NoError(t, err)
	return string(c)
}

func TestVersionAndTools(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run("version"))
	assert.Contains(t, f.stdout.String(), "pdfmark version")

	require.NoError(t, f.run("tools"))
	out := f.stdout.String()
	for _, id := range []string{"pdf-editor", "pdf-sign", "pdf-watermark", "pdf-to-jpg", "jpg-to-pdf", "pdf-compress", "image-compress"} {
		assert.Contains(t, out, id)
	}
}

func TestFonts(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run("fonts"))
	assert.Contains(t, f.stdout.String(), "Go Mono")
	assert.NotContains(t, f.stdout.String(), "Used by")

	in := f.file(t, "memo.pdf", testpdf.New(1))
	require.NoError(t, f.run("fonts", in))
	out := f.stdout.String()
	assert.Contains(t, out, "Used by memo.pdf:\n  Helvetica\n")

	assert.ErrorIs(t, f.run("fonts", f.file(t, "broken.pdf", []byte("%PDF-1.7\nbroken"))), pdfmark.ErrUnreadable)
}

func TestEdit(t *testing.T) {
	f := newFixture(t)
	in := f.file(t, "contract.pdf", testpdf.New(2))
	f.file(t, "stamp.png", pngFile(t, 20, 10))
	marks := f.file(t, "marks.yaml", []byte(`
marks:
  - page: 1
    x: 100
    y: 700
    text: Approved
    color: "#cc0000"
  - page: 2
    x: 50
    y: 50
    image: stamp.png
    width: 40
    height: 20
`))

	require.NoError(t, f.run("edit", in, marks))
	assert.Equal(t, filepath.Join(f.out, "edited_contract.pdf"), strings.TrimSpace(f.stdout.String()))

	data := f.output(t, "edited_contract.pdf")
	page1 := content(t, data, 1)
	assert.Contains(t, page1, "1 0 0 1 100 700 Tm")
	assert.Contains(t, page1, fmt.Sprintf("<%x> Tj", "Approved"))
	assert.Contains(t, page1, "0.8 0 0 rg")
	assert.Contains(t, content(t, data, 2), "40 0 0 20 50 50 cm")

	t.Run("missing image", func(t *testing.T) {
		bad := f.file(t, "bad.yaml", []byte("marks:\n  - image: nope.png\n"))
		assert.Error(t, f.run("edit", in, bad))
	})

	t.Run("invalid mark writes nothing", func(t *testing.T) {
		f := newFixture(t)
		in := f.file(t, "contract.pdf", testpdf.New(1))
		bad := f.file(t, "bad.yaml", []byte("marks:\n  - text: hi\n    size: -4\n"))
		err := f.run("edit", in, bad)
		assert.ErrorIs(t, err, pdfmark.ErrInvalidInput)
		_, statErr := os.Stat(filepath.Join(f.out, "edited_contract.pdf"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("non-finite position", func(t *testing.T) {
		f := newFixture(t)
		in := f.file(t, "contract.pdf", testpdf.New(1))
		bad := f.file(t, "nan.yaml", []byte("marks:\n  - text: hi\n    x: .nan\n    y: .inf\n"))
		assert.ErrorIs(t, f.run("edit", in, bad), pdfmark.ErrInvalidInput)
		_, statErr := os.Stat(filepath.Join(f.out, "edited_contract.pdf"))
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestSign(t *testing.T) {
	f := newFixture(t)
	in := f.file(t, "lease.pdf", testpdf.New(3))
	sig := f.file(t, "sig.png", pngFile(t, 200, 100))

	require.NoError(t, f.run("sign", "--text", "Jane Doe", "--image", sig, "--page", "3", "--x", "200", in))

	data := f.output(t, "signed_lease.pdf")
	page3 := content(t, data, 3)
	assert.Contains(t, page3, "1 0 0 1 200 100 Tm")
	assert.Contains(t, page3, fmt.Sprintf("<%x> Tj", "Signed: 2026-03-01 09:30:00"))
	assert.Contains(t, page3, "100 0 0 50 200 50 cm")

	assert.ErrorIs(t, f.run("sign", in), pdfmark.ErrInvalidInput)
	assert.ErrorIs(t, f.run("sign", "--text", "x", "--page", "4", in), pdfmark.ErrPageOutOfRange)
	assert.ErrorIs(t, f.run("sign", "--image", f.file(t, "sig.gif", []byte("GIF89a")), in), pdfmark.ErrInvalidInput)
	assert.Error(t, f.run("sign", "--image", filepath.Join(f.dir, "absent.png"), in))
}

func TestWatermark(t *testing.T) {
	f := newFixture(t)
	in := f.file(t, "draft.pdf", testpdf.New(2))

	assert.ErrorIs(t, f.run("watermark", in), pdfmark.ErrInvalidInput)

	require.NoError(t, f.run("watermark", "--text", "DRAFT", "--rotation", "0", in))
	data := f.output(t, "watermarked_draft.pdf")
	for n := 1; n <= 2; n++ {
		c := content(t, data, n)
		assert.Contains(t, c, fmt.Sprintf("<%x> Tj", "DRAFT"))
		assert.Contains(t, c, " 396 Tm")
	}

	logo := f.file(t, "logo.png", pngFile(t, 100, 40))
	require.NoError(t, f.run("watermark", "--image", logo, "--scale", "1", "--rotation", "0", in))
	assert.Contains(t, content(t, f.output(t, "watermarked_draft.pdf"), 1), "100 0 0 40 256 376 cm")
}

func TestToJPEG(t *testing.T) {
	f := newFixture(t)
	in := f.file(t, "report.pdf", testpdf.New(2))

	require.NoError(t, f.run("to-jpg", "--dpi", "72", in))
	data := f.output(t, "report_pages.zip")
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "page_002.jpg", zr.File[1].Name)

	assert.ErrorIs(t, f.run("to-jpg", "--dpi", "600", in), pdfmark.ErrInvalidInput)
}

func TestFromImages(t *testing.T) {
	f := newFixture(t)
	a := f.file(t, "a.png", pngFile(t, 300, 200))
	b := f.file(t, "b.png", pngFile(t, 200, 300))

	require.NoError(t, f.run("from-images", "--paper", "letter", a, b))
	doc, err := pdfmark.OpenBytes(f.output(t, "images_2026-03-01.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 2, doc.PageCount())
	w, h, err := doc.PageSize(2)
	require.NoError(t, err)
	assert.Equal(t, 612.0, w)
	assert.Equal(t, 792.0, h)

	assert.Error(t, f.run("from-images", "--paper", "A3", a))
	assert.ErrorIs(t, f.run("from-images", f.file(t, "notes.txt", []byte("hi"))), pdfmark.ErrInvalidInput)
}

func TestCompress(t *testing.T) {
	f := newFixture(t)
	in := f.file(t, "report.pdf", testpdf.New(2))

	require.NoError(t, f.run("compress", "--level", "9", in))
	assert.Equal(t, filepath.Join(f.out, "compressed_report.pdf"), strings.TrimSpace(f.stdout.String()))
	doc, err := pdfmark.OpenBytes(f.output(t, "compressed_report.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 2, doc.PageCount())

	assert.ErrorIs(t, f.run("compress", "--level", "11", in), pdfmark.ErrInvalidInput)
	assert.ErrorIs(t, f.run("compress", f.file(t, "report.txt", []byte("hi"))), pdfmark.ErrInvalidInput)
}

func TestCompressImages(t *testing.T) {
	f := newFixture(t)
	a := f.file(t, "a.png", pngFile(t, 300, 200))
	b := f.file(t, "b.png", pngFile(t, 20, 20))

	require.NoError(t, f.run("compress-images", a))
	_, err := png.Decode(bytes.NewReader(f.output(t, "compressed_a.png")))
	require.NoError(t, err)

	require.NoError(t, f.run("compress-images", "--quality", "60", a, b))
	data := f.output(t, "compressed_images.zip")
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "compressed_b.png", zr.File[1].Name)

	assert.ErrorIs(t, f.run("compress-images", "--quality", "0", a), pdfmark.ErrInvalidInput)
	assert.ErrorIs(t, f.run("compress-images", f.file(t, "notes.txt", []byte("hi"))), pdfmark.ErrInvalidInput)
}

func TestPreview(t *testing.T) {
	f := newFixture(t)
	in := f.file(t, "memo.pdf", testpdf.New(2))
	marks := f.file(t, "marks.yaml", []byte("marks:\n  - page: 2\n    x: 10\n    y: 10\n    text: Hi\n    size: 40\n"))

	require.NoError(t, f.run("preview", "--page", "2", in, marks))
	img, err := png.Decode(bytes.NewReader(f.output(t, "memo_page_002.png")))
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dx())

	assert.ErrorIs(t, f.run("preview", "--page", "5", in), pdfmark.ErrPageOutOfRange)
}

func TestConfig(t *testing.T) {
	f := newFixture(t)
	in := f.file(t, "draft.pdf", testpdf.New(1))

	cfg := f.file(t, "pdfmark.toml", []byte("[watermark]\nsize = 20\nrotation = 0\n"))
	require.NoError(t, f.run("--config", cfg, "watermark", "--text", "X", in))
	assert.Contains(t, content(t, f.output(t, "watermarked_draft.pdf"), 1), " 20 Tf")

	bad := f.file(t, "bad.toml", []byte("[raster]\ndpi = 1000\n"))
	assert.Error(t, f.run("--config", bad, "tools"))
	assert.Error(t, f.run("--config", filepath.Join(f.dir, "absent.toml"), "tools"))
	assert.Error(t, f.run("--log-level", "loud", "tools"))
}

func TestRender(t *testing.T) {
	f := newFixture(t)
	in := f.file(t, "memo.pdf", testpdf.New(1))

	require.NoError(t, f.run("render", in))
	img, err := png.Decode(bytes.NewReader(f.output(t, "memo_001.png")))
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dx())

	require.NoError(t, f.run("render", "--dpi", "144", in))
	img, err = png.Decode(bytes.NewReader(f.output(t, "memo_001.png")))
	require.NoError(t, err)
	assert.Equal(t, 1224, img.Bounds().Dx())

	assert.ErrorIs(t, f.run("render", "--dpi", "20", in), pdfmark.ErrInvalidInput)
}
