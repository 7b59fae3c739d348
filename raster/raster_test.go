package raster

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitorus/pdfmark"
	"github.com/digitorus/pdfmark/internal/testpdf"
)

type fakeRasterizer struct {
	calls  []int
	widths []int
	err    error
}

func (f *fakeRasterizer) Rasterize(_ context.Context, _ []byte, page, width int) (image.Image, error) {
	f.calls = append(f.calls, page)
	f.widths = append(f.widths, width)
	if f.err != nil {
		return nil, f.err
	}
	return image.NewRGBA(image.Rect(0, 0, width, width)), nil
}

func openDoc(t *testing.T, pages []testpdf.Page) *pdfmark.Document {
	t.Helper()
	doc, err := pdfmark.OpenBytes(testpdf.Build(testpdf.Options{Pages: pages}))
	require.NoError(t, err)
	return doc
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		page     testpdf.Page
		maxWidth float64
		width    int
		scale    float64
	}{
		{"letter fitted", testpdf.Page{Width: 612, Height: 792}, 600, 600, 600.0 / 612},
		{"small page not enlarged", testpdf.Page{Width: 300, Height: 400}, 600, 300, 1},
		{"wide page", testpdf.Page{Width: 1200, Height: 600}, 600, 600, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRasterizer{}
			r := &Renderer{Rasterizer: fake, MaxWidth: tt.maxWidth}

			view, err := r.Render(context.Background(), openDoc(t, []testpdf.Page{tt.page}), 1)
			require.NoError(t, err)

			assert.Equal(t, []int{tt.width}, fake.widths)
			assert.Equal(t, 1, view.Page)
			assert.InDelta(t, tt.scale, view.State.Scale, 1e-9)
			assert.Equal(t, tt.page.Width, view.State.NativeWidth)
			assert.Equal(t, tt.page.Height, view.State.NativeHeight)
			assert.True(t, view.State.Valid())
		})
	}
}

func TestRenderOutOfRange(t *testing.T) {
	fake := &fakeRasterizer{}
	r := New(fake)
	doc := openDoc(t, testpdf.Letter(2))

	for _, n := range []int{0, 3, -1} {
		_, err := r.Render(context.Background(), doc, n)
		assert.ErrorIs(t, err, pdfmark.ErrPageOutOfRange, "page %d", n)
	}
	assert.Empty(t, fake.calls, "rasterizer called for a page outside the document")
}

func TestRenderFailure(t *testing.T) {
	r := New(&fakeRasterizer{err: errors.New("mupdf: broken xref")})

	view, err := r.Render(context.Background(), openDoc(t, testpdf.Letter(1)), 1)
	require.ErrorIs(t, err, pdfmark.ErrUnreadable)
	assert.Nil(t, view.Image)
	assert.False(t, view.State.Valid())
}

func TestRenderAt(t *testing.T) {
	fake := &fakeRasterizer{}
	r := New(fake)
	doc := openDoc(t, testpdf.Letter(2))

	view, err := r.RenderAt(context.Background(), doc, 2, 150.0/72)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, fake.calls)
	assert.Equal(t, []int{1275}, fake.widths)
	assert.InDelta(t, 1275.0/612, view.State.Scale, 1e-9)

	_, err = r.RenderAt(context.Background(), doc, 1, 0)
	assert.ErrorIs(t, err, pdfmark.ErrInvalidInput)
}
