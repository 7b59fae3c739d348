package tools

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/digitorus/pdfmark"
	"github.com/digitorus/pdfmark/images"
	"github.com/digitorus/pdfmark/internal/logging"
)

// CompressInfo describes the pdf-compress tool.
var CompressInfo = Info{
	ID:          "pdf-compress",
	Name:        "PDF Compress",
	Description: "Rewrite a PDF with deflated streams packed into object streams",
	Category:    CategoryOptimize,
	Accept:      []string{".pdf"},
}

// ImageCompressInfo describes the image-compress tool.
var ImageCompressInfo = Info{
	ID:          "image-compress",
	Name:        "Image Compress",
	Description: "Re-encode JPEG and PNG images to reduce their size",
	Category:    CategoryOptimize,
	Accept:      []string{".jpg", ".jpeg", ".png"},
}

// Compressor rewrites a document in its most compact form.
type Compressor struct {
	name string
	doc  *pdfmark.Document

	// Level is the zlib level of rewritten streams.
	Level int
}

func newCompressor(env Env) (Tool, error) {
	return &Compressor{Level: env.Config.Compress.Level}, nil
}

// Info implements Tool.
func (c *Compressor) Info() Info { return CompressInfo }

// Open loads the document to compress.
func (c *Compressor) Open(_ context.Context, f File) error {
	doc, err := openPDF(CompressInfo, f)
	if err != nil {
		return err
	}
	c.name, c.doc = f.Name, doc
	return nil
}

// Run writes compressed_<name>.
func (c *Compressor) Run(ctx context.Context) (File, error) {
	if c.doc == nil {
		return File{}, fmt.Errorf("%w: no document", pdfmark.ErrInvalidInput)
	}
	if c.Level < -1 || c.Level > 9 {
		return File{}, fmt.Errorf("%w: compression level %d outside -1 to 9", pdfmark.ErrInvalidInput, c.Level)
	}

	start := time.Now()
	c.doc.SetCompression(c.Level)
	data, err := c.doc.Compress(ctx)
	if err != nil {
		return File{}, err
	}
	logging.Info().Add(logging.Tool(CompressInfo.ID)).Add(logging.Count("original_bytes", c.doc.Size())).
		Add(logging.Bytes(len(data))).Add(logging.Duration(time.Since(start))).Msg("document compressed")
	return File{Name: "compressed_" + c.name, Data: data}, nil
}

// ImageCompressor re-encodes one or more images.
type ImageCompressor struct {
	images []*images.Image

	Quality int
}

func newImageCompressor(env Env) (Tool, error) {
	return &ImageCompressor{Quality: env.Config.Compress.Quality}, nil
}

// Info implements Tool.
func (c *ImageCompressor) Info() Info { return ImageCompressInfo }

// Open appends an image.
func (c *ImageCompressor) Open(_ context.Context, f File) error {
	if !ImageCompressInfo.Accepts(f.Name) {
		return fmt.Errorf("%w: %s is not a JPEG or PNG image", pdfmark.ErrInvalidInput, f.Name)
	}
	img, err := images.New(f.Name, f.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", pdfmark.ErrInvalidInput, err)
	}
	c.images = append(c.images, img)
	return nil
}

// Inputs lists the images in the order they were opened.
func (c *ImageCompressor) Inputs() []string {
	names := make([]string, len(c.images))
	for i, img := range c.images {
		names[i] = img.Name
	}
	return names
}

// Remove implements Remover.
func (c *ImageCompressor) Remove(index int) bool {
	if index < 0 || index >= len(c.images) {
		return false
	}
	c.images = append(c.images[:index], c.images[index+1:]...)
	return true
}

// Run writes compressed_<name> for a single image. Several images are
// returned as compressed_images.zip holding one compressed_<name> each.
func (c *ImageCompressor) Run(ctx context.Context) (File, error) {
	if len(c.images) == 0 {
		return File{}, fmt.Errorf("%w: select at least one image", pdfmark.ErrInvalidInput)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return File{}, fmt.Errorf("%w: quality %d outside 1-100", pdfmark.ErrInvalidInput, c.Quality)
	}

	out := make([]File, 0, len(c.images))
	before, after := 0, 0
	for _, img := range c.images {
		if err := ctx.Err(); err != nil {
			return File{}, err
		}
		data, err := img.Compress(c.Quality)
		if err != nil {
			return File{}, fmt.Errorf("%w: %v", pdfmark.ErrInvalidInput, err)
		}
		out = append(out, File{Name: "compressed_" + img.Name, Data: data})
		before, after = before+len(img.Data), after+len(data)
	}
	logging.Info().Add(logging.Tool(ImageCompressInfo.ID)).Add(logging.Count("images", len(out))).
		Add(logging.Count("original_bytes", before)).Add(logging.Bytes(after)).Msg("images compressed")

	if len(out) == 1 {
		return out[0], nil
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range out {
		w, err := zw.Create(f.Name)
		if err != nil {
			return File{}, err
		}
		if _, err := w.Write(f.Data); err != nil {
			return File{}, err
		}
	}
	if err := zw.Close(); err != nil {
		return File{}, err
	}
	return File{Name: "compressed_images.zip", Data: buf.Bytes()}, nil
}
