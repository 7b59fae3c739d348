package pdfmark

import (
	"context"
	"fmt"
	"io"

	"github.com/digitorus/pdfmark/annotations"
	"github.com/digitorus/pdfmark/incremental"
	"github.com/digitorus/pdfmark/internal/logging"
	"github.com/digitorus/pdfmark/internal/pdf"
	"github.com/digitorus/pdfmark/internal/render"
)

// Write draws the marks onto their pages and writes the resulting document to
// output. Pages are processed in ascending order and marks within a page in the
// given order, later marks on top. Marks whose page does not exist are skipped
// and reported in Result.Skipped. Equal inputs produce identical bytes.
//
// Nothing is written to output unless the whole document was produced. Without
// any drawable mark the original document is written unchanged.
func (d *Document) Write(ctx context.Context, output io.Writer, marks []Annotation) (*Result, error) {
	data, result, err := d.Apply(ctx, marks)
	if err != nil {
		return nil, err
	}
	if _, err := output.Write(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSave, err)
	}
	return result, nil
}

// Apply is like Write but returns the document bytes.
func (d *Document) Apply(ctx context.Context, marks []Annotation) ([]byte, *Result, error) {
	result := &Result{}

	groups := annotations.GroupByPage(marks)
	pageCount := d.PageCount()

	var w *incremental.Writer
	var res *render.Resources
	warned := make(map[string]bool)

	for _, n := range annotations.Pages(groups) {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		if n < 1 || n > pageCount {
			for _, m := range groups[n] {
				result.Skipped = append(result.Skipped, m.ID)
				logging.Warn().Add(logging.Annotation(m.ID)).Add(logging.Page(n)).Add(logging.Pages(pageCount)).
					Msg("skipping mark on a page outside the document")
			}
			continue
		}

		if w == nil {
			var err error
			w, err = incremental.New(d.rdr, d.data)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %v", ErrSave, err)
			}
			w.CompressLevel = d.compressLevel
			res = render.NewResources(w)
		}

		page, err := pdf.FindPage(d.rdr, n)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrSave, err)
		}

		elements := make([]render.Element, 0, len(groups[n]))
		for _, m := range groups[n] {
			if err := m.Validate(); err != nil {
				return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
			el, warning := element(m)
			if warning != "" && !warned[warning] {
				warned[warning] = true
				result.Warnings = append(result.Warnings, warning)
				logging.Warn().Add(logging.Annotation(m.ID)).Msg(warning)
			}
			elements = append(elements, el)
		}

		taken := pdf.ResourceNames(pdf.Inherited(page, "Resources"))
		ov, err := res.RenderOverlay(elements, taken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: page %d: %v", ErrSave, n, err)
		}
		if err := w.UpdatePage(page, ov); err != nil {
			return nil, nil, fmt.Errorf("%w: page %d: %v", ErrSave, n, err)
		}

		result.Pages = append(result.Pages, n)
		result.Marks += len(elements)
	}

	var data []byte
	if w == nil {
		data = d.Bytes()
	} else {
		var err error
		data, err = w.Finish()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrSave, err)
		}
	}
	result.Size = len(data)

	logging.Debug().Add(logging.Count("marks", result.Marks)).Add(logging.Count("skipped", len(result.Skipped))).
		Add(logging.Bytes(result.Size)).Msg("document written")
	return data, result, nil
}

// element converts a mark to its drawing. The returned warning is set when the
// font family was unknown and replaced.
func element(m Annotation) (render.Element, string) {
	if m.Kind == annotations.Image {
		return render.ImageElement{
			Image:    m.Image,
			X:        m.X,
			Y:        m.Y,
			Width:    m.Width,
			Height:   m.Height,
			Rotation: m.Rotation,
			Opacity:  m.Opacity,
		}, ""
	}

	font, ok := m.Font()
	var warning string
	if !ok && m.FontFamily != "" {
		warning = fmt.Sprintf("font %q is not available, using %s", m.FontFamily, font.Name)
	}
	return render.TextElement{
		Content:  m.Text,
		Font:     font,
		Size:     m.FontSize,
		X:        m.X,
		Y:        m.Y,
		Color:    render.Color{R: m.Color.R, G: m.Color.G, B: m.Color.B},
		Rotation: m.Rotation,
		Opacity:  m.Opacity,
	}, warning
}
