// Package images provides raster resources (JPEG, PNG) drawn into PDF overlays,
// such as a handwritten signature or a watermark logo.
package images

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
)

// ErrUnsupported is returned for data that is not a JPEG or PNG image.
var ErrUnsupported = errors.New("unsupported image format")

// Image represents an image resource.
type Image struct {
	Name   string // Identifier for the image
	Data   []byte // Raw image data (JPEG or PNG)
	Hash   string // SHA256 hash of image data for deduplication
	Format string // "jpeg" or "png"
	Width  int    // Pixel width
	Height int    // Pixel height
}

// New validates data as a JPEG or PNG image and returns it as a resource.
func New(name string, data []byte) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if format != "jpeg" && format != "png" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, format)
	}

	h := sha256.Sum256(data)
	return &Image{
		Name:   name,
		Data:   data,
		Hash:   hex.EncodeToString(h[:]),
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// Load reads an image file from disk.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return New(filepath.Base(path), data)
}

// Decode returns the decoded raster.
func (i *Image) Decode() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(i.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", i.Name, err)
	}
	return img, nil
}

// FitWidth returns the size of the image scaled to the given width, keeping its
// aspect ratio.
func (i *Image) FitWidth(width float64) (float64, float64) {
	if i.Width == 0 {
		return width, width
	}
	return width, width * float64(i.Height) / float64(i.Width)
}

// Compress re-encodes the image, JPEG at quality (1-100) and PNG at the best
// compression level. The original data is returned when re-encoding does not
// make it smaller.
func (i *Image) Compress(quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("quality %d outside 1-100", quality)
	}
	img, err := i.Decode()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch i.Format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	default:
		err = (&png.Encoder{CompressionLevel: png.BestCompression}).Encode(&buf, img)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image %s: %w", i.Name, err)
	}
	if buf.Len() >= len(i.Data) {
		return i.Data, nil
	}
	return buf.Bytes(), nil
}
