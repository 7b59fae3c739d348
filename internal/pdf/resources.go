package pdf

import (
	"bytes"
	"sort"

	pdflib "github.com/digitorus/pdf"
)

// Resource categories written by overlays.
const (
	Font      = "Font"
	XObject   = "XObject"
	ExtGState = "ExtGState"
)

// ResourceNames returns every name defined in the font, XObject and graphics
// state categories of a resource dictionary.
func ResourceNames(res pdflib.Value) map[string]bool {
	names := make(map[string]bool)
	if res.Kind() != pdflib.Dict {
		return names
	}
	for _, cat := range []string{Font, XObject, ExtGState} {
		sub := res.Key(cat)
		if sub.Kind() != pdflib.Dict {
			continue
		}
		for _, k := range sub.Keys() {
			names[k] = true
		}
	}
	return names
}

// MergeResources writes res with the additions merged into their category
// sub-dictionaries. Sub-dictionaries held as separate objects are inlined so the
// original objects stay untouched.
func MergeResources(buf *bytes.Buffer, res pdflib.Value, add map[string][]Entry) {
	owner := OwnerID(res)

	buf.WriteString("<<")
	if res.Kind() == pdflib.Dict {
		skip := make(map[string]bool, len(add))
		for cat := range add {
			skip[cat] = true
		}
		writeEntries(buf, owner, res, skip)
	}

	cats := make([]string, 0, len(add))
	for cat := range add {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	for _, cat := range cats {
		buf.WriteString(" " + Name(cat) + " ")
		var existing pdflib.Value
		if res.Kind() == pdflib.Dict {
			existing = res.Key(cat)
		}
		WriteMergedDict(buf, existing, add[cat])
	}
	buf.WriteString(" >>")
}
