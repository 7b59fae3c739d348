package incremental

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/digitorus/pdf"

	pdfint "github.com/digitorus/pdfmark/internal/pdf"
)

// Overlay is content drawn on top of a page together with the resources it names.
type Overlay struct {
	Content   []byte
	Resources map[string][]pdfint.Entry
}

// UpdatePage replaces the page object so that the overlay is drawn after the
// existing content. The existing content is wrapped in q/Q so its graphics state
// cannot leak into the overlay.
func (w *Writer) UpdatePage(page pdf.Value, ov Overlay) error {
	ref := pdfint.PageRef(page)
	if ref.ID == 0 {
		return fmt.Errorf("page is not an indirect object")
	}

	saveID, err := w.AddStream("", []byte("q"))
	if err != nil {
		return fmt.Errorf("failed to add save state stream: %w", err)
	}

	var content bytes.Buffer
	content.WriteString("Q\n")
	content.Write(ov.Content)
	drawID, err := w.AddStream("", content.Bytes())
	if err != nil {
		return fmt.Errorf("failed to add overlay stream: %w", err)
	}

	refs := []string{pdfint.Ref{ID: saveID}.String()}
	for _, r := range pdfint.ContentRefs(page) {
		refs = append(refs, r.String())
	}
	refs = append(refs, pdfint.Ref{ID: drawID}.String())

	var resources bytes.Buffer
	pdfint.MergeResources(&resources, pdfint.Inherited(page, "Resources"), ov.Resources)

	var dict bytes.Buffer
	pdfint.WriteUpdatedDict(&dict, page,
		map[string]bool{"Contents": true, "Resources": true},
		[]pdfint.Entry{
			{Key: "Contents", Value: "[ " + strings.Join(refs, " ") + " ]"},
			{Key: "Resources", Value: resources.String()},
		})

	return w.UpdateObject(ref.ID, ref.Gen, dict.Bytes())
}
