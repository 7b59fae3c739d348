// Package preview draws annotations over a rendered page the way they will
// appear once written, with outlines for hit areas and the current selection.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/digitorus/pdfmark/annotations"
	"github.com/digitorus/pdfmark/raster"
)

// ErrNoView is returned when the page has not been rendered.
var ErrNoView = errors.New("page is not rendered")

// Outline colors.
var (
	OutlineColor  = color.NRGBA{R: 0x94, G: 0xa3, B: 0xb8, A: 0xff}
	SelectedColor = color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}
	selectedFill  = color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0x20}
)

const ptPerMM = 72 / 25.4

var (
	familyOnce sync.Once
	family     *canvas.FontFamily
	familyErr  error

	embeddedMu sync.Mutex
	embedded   = map[string]*canvas.FontFamily{}
)

// Compose returns the page raster with marks drawn on top in order, the last mark
// topmost. The canvas works in display pixels with the origin bottom-left, so a
// document point maps to it by multiplying with the view scale.
func Compose(view raster.PageView, marks []annotations.Annotation, selected string) (*image.RGBA, error) {
	if view.Image == nil || !view.State.Valid() {
		return nil, ErrNoView
	}

	b := view.Image.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	c := canvas.New(w, h)
	ctx := canvas.NewContext(c)

	ctx.SetFillColor(canvas.White)
	ctx.DrawPath(0, 0, canvas.Rectangle(w, h))
	ctx.DrawImage(0, 0, view.Image, canvas.DPMM(1.0))

	s := view.State.Scale
	for _, m := range marks {
		if m.Page != view.Page {
			continue
		}
		box := m.Box()
		x, y := box.X.Lo*s, box.Y.Lo*s
		bw, bh := box.Width()*s, box.Height()*s

		ctx.Push()
		if m.Rotation != 0 {
			cx, cy := x+bw/2, y+bh/2
			ctx.Translate(cx, cy)
			ctx.Rotate(m.Rotation)
			ctx.Translate(-cx, -cy)
		}
		if err := drawMark(ctx, m, x, y, bw, bh, s); err != nil {
			ctx.Pop()
			return nil, fmt.Errorf("annotation %s: %w", m.ID, err)
		}
		outline(ctx, x, y, bw, bh, m.ID == selected)
		ctx.Pop()
	}

	return rasterizer.Draw(c, canvas.DPMM(1.0), canvas.DefaultColorSpace), nil
}

func drawMark(ctx *canvas.Context, m annotations.Annotation, x, y, w, h, scale float64) error {
	alpha := uint8(0xff)
	if m.Opacity > 0 && m.Opacity < 1 {
		alpha = uint8(m.Opacity*0xff + 0.5)
	}

	if m.Kind == annotations.Image {
		img, err := m.Image.Decode()
		if err != nil {
			return err
		}
		iw, ih := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
		ctx.Push()
		ctx.Translate(x, y)
		ctx.Scale(w/iw, h/ih)
		ctx.DrawImage(0, 0, translucent(img, alpha), canvas.DPMM(1.0))
		ctx.Pop()
		return nil
	}

	ff, style, err := fontFamily(m)
	if err != nil {
		return err
	}
	col := color.NRGBA{R: m.Color.R, G: m.Color.G, B: m.Color.B, A: alpha}
	face := ff.Face(m.FontSize*scale*ptPerMM, col, style, canvas.FontNormal)
	ctx.DrawText(x, y, canvas.NewTextLine(face, m.Text, canvas.Left))
	return nil
}

func outline(ctx *canvas.Context, x, y, w, h float64, selected bool) {
	ctx.SetStrokeWidth(1)
	if selected {
		ctx.SetFillColor(selectedFill)
		ctx.SetStrokeColor(SelectedColor)
		ctx.SetStrokeWidth(2)
	} else {
		ctx.SetFillColor(canvas.Transparent)
		ctx.SetStrokeColor(OutlineColor)
	}
	ctx.DrawPath(x, y, canvas.Rectangle(w, h))
}

// fontFamily returns the embedded face of the mark's font, or the Go faces as a
// stand-in for the standard fonts. An embedded face already carries its style and
// is loaded as regular.
func fontFamily(m annotations.Annotation) (*canvas.FontFamily, canvas.FontStyle, error) {
	f, _ := m.Font()
	if f.Embedded && len(f.Data) > 0 {
		embeddedMu.Lock()
		defer embeddedMu.Unlock()
		if ff, ok := embedded[f.Hash]; ok {
			return ff, canvas.FontRegular, nil
		}
		ff := canvas.NewFontFamily(f.Name)
		if err := ff.LoadFont(f.Data, 0, canvas.FontRegular); err != nil {
			return nil, 0, fmt.Errorf("failed to load font %s: %w", f.Name, err)
		}
		embedded[f.Hash] = ff
		return ff, canvas.FontRegular, nil
	}

	style := canvas.FontRegular
	if m.Bold {
		style |= canvas.FontBold
	}
	if m.Italic {
		style |= canvas.FontItalic
	}

	familyOnce.Do(func() {
		ff := canvas.NewFontFamily("Go")
		for _, face := range []struct {
			data  []byte
			style canvas.FontStyle
		}{
			{goregular.TTF, canvas.FontRegular},
			{gobold.TTF, canvas.FontBold},
			{goitalic.TTF, canvas.FontItalic},
			{gobolditalic.TTF, canvas.FontBold | canvas.FontItalic},
		} {
			if err := ff.LoadFont(face.data, 0, face.style); err != nil {
				familyErr = fmt.Errorf("failed to load Go font: %w", err)
				return
			}
		}
		family = ff
	})
	return family, style, familyErr
}

// translucent scales the alpha of img. Opaque images are returned as is.
func translucent(img image.Image, alpha uint8) image.Image {
	if alpha == 0xff {
		return img
	}
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			c.A = uint8(uint16(c.A) * uint16(alpha) / 0xff)
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}
