// Package pdf holds the low level helpers shared by the document reader and the
// incremental writer: page lookup, inherited attributes and value serialization.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	pdflib "github.com/digitorus/pdf"
)

// Letter is the default page box when neither the page nor its ancestors carry a
// MediaBox.
var Letter = [4]float64{0, 0, 612, 792}

// ErrNoPage is returned for page numbers outside the document.
var ErrNoPage = errors.New("page not found")

// FindPage returns the page dictionary of the 1-based page n.
func FindPage(r *pdflib.Reader, n int) (pdflib.Value, error) {
	if n < 1 || n > r.NumPage() {
		return pdflib.Value{}, fmt.Errorf("%w: %d of %d", ErrNoPage, n, r.NumPage())
	}
	page := r.Page(n).V
	if page.Kind() != pdflib.Dict {
		return pdflib.Value{}, fmt.Errorf("%w: page %d is not a dictionary", ErrNoPage, n)
	}
	return page, nil
}

// Inherited looks up key on the page and then on its /Parent chain.
func Inherited(page pdflib.Value, key string) pdflib.Value {
	seen := 0
	for v := page; v.Kind() == pdflib.Dict && seen < 64; v = v.Key("Parent") {
		if val := v.Key(key); !val.IsNull() {
			return val
		}
		seen++
	}
	return pdflib.Value{}
}

// MediaBox returns the normalized page box, falling back to US Letter.
func MediaBox(page pdflib.Value) [4]float64 {
	box := Inherited(page, "MediaBox")
	if box.Kind() != pdflib.Array || box.Len() < 4 {
		return Letter
	}
	var mb [4]float64
	for i := 0; i < 4; i++ {
		mb[i] = box.Index(i).Float64()
	}
	if mb[0] > mb[2] {
		mb[0], mb[2] = mb[2], mb[0]
	}
	if mb[1] > mb[3] {
		mb[1], mb[3] = mb[3], mb[1]
	}
	if mb[2]-mb[0] <= 0 || mb[3]-mb[1] <= 0 {
		return Letter
	}
	return mb
}

// ContentRefs returns the object ids of the page content streams in drawing order.
func ContentRefs(page pdflib.Value) []Ref {
	contents := page.Key("Contents")
	var refs []Ref
	switch contents.Kind() {
	case pdflib.Array:
		for i := 0; i < contents.Len(); i++ {
			if ref, ok := refOf(contents.Index(i)); ok {
				refs = append(refs, ref)
			}
		}
	case pdflib.Stream:
		if ref, ok := refOf(contents); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

// PageContent returns the decoded content of every content stream of the page.
func PageContent(r *pdflib.Reader, n int) ([]byte, error) {
	page, err := FindPage(r, n)
	if err != nil {
		return nil, err
	}

	contents := page.Key("Contents")
	var streams []pdflib.Value
	switch contents.Kind() {
	case pdflib.Array:
		for i := 0; i < contents.Len(); i++ {
			streams = append(streams, contents.Index(i))
		}
	case pdflib.Stream:
		streams = append(streams, contents)
	}

	var buf bytes.Buffer
	for _, s := range streams {
		if s.Kind() != pdflib.Stream {
			continue
		}
		rc := s.Reader()
		if _, err := io.Copy(&buf, rc); err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("failed to read content stream: %w", err)
		}
		_ = rc.Close()
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// Ref is an indirect object reference.
type Ref struct {
	ID  uint32
	Gen uint16
}

func (r Ref) String() string {
	return fmt.Sprintf("%d %d R", r.ID, r.Gen)
}

// PageRef returns the reference of the page object itself.
func PageRef(page pdflib.Value) Ref {
	ptr := page.GetPtr()
	return Ref{ID: uint32(ptr.GetID()), Gen: uint16(ptr.GetGen())}
}

func refOf(v pdflib.Value) (Ref, bool) {
	ptr := v.GetPtr()
	if ptr.GetID() == 0 {
		return Ref{}, false
	}
	return Ref{ID: uint32(ptr.GetID()), Gen: uint16(ptr.GetGen())}, true
}
