package pdf

import (
	"sort"

	pdflib "github.com/digitorus/pdf"
)

// FontInfo describes a font resource used by a page.
type FontInfo struct {
	Resource string // name in the page resource dictionary, e.g. F1
	BaseFont string
	ID       uint32
}

// PageFonts lists the fonts a page can draw with, including inherited resources,
// ordered by resource name.
func PageFonts(r *pdflib.Reader, n int) ([]FontInfo, error) {
	page, err := FindPage(r, n)
	if err != nil {
		return nil, err
	}

	fonts := Inherited(page, "Resources").Key(Font)
	if fonts.Kind() != pdflib.Dict {
		return nil, nil
	}

	keys := fonts.Keys()
	sort.Strings(keys)
	found := make([]FontInfo, 0, len(keys))
	for _, name := range keys {
		f := fonts.Key(name)
		info := FontInfo{Resource: name, ID: OwnerID(f)}
		if base := f.Key("BaseFont"); base.Kind() == pdflib.Name {
			info.BaseFont = base.Name()
		}
		found = append(found, info)
	}
	return found, nil
}

// ScanFonts returns the distinct base font names used anywhere in the document.
func ScanFonts(r *pdflib.Reader) ([]string, error) {
	seen := make(map[string]bool)
	for i := 1; i <= r.NumPage(); i++ {
		fonts, err := PageFonts(r, i)
		if err != nil {
			return nil, err
		}
		for _, f := range fonts {
			if f.BaseFont != "" {
				seen[f.BaseFont] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
