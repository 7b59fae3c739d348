package fonts

import (
	"strings"
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultFamily is used whenever a requested family is unknown.
const DefaultFamily = "Helvetica"

// Style selects one of the four faces of a family.
type Style struct {
	Bold   bool
	Italic bool
}

func (s Style) index() int {
	i := 0
	if s.Bold {
		i |= 1
	}
	if s.Italic {
		i |= 2
	}
	return i
}

// face produces a font on demand; embedded faces are parsed once.
type face func() *Font

func standard(ft StandardType) face {
	return func() *Font { return Standard(ft) }
}

func embedded(name string, data []byte) face {
	var once sync.Once
	var f *Font
	return func() *Font {
		once.Do(func() { f = NewTrueType(name, data) })
		return f
	}
}

// families maps a lower-case family name to its regular, bold, italic and bold
// italic faces, in Style.index order.
var families = map[string][4]face{
	"helvetica": {standard(Helvetica), standard(HelveticaBold), standard(HelveticaOblique), standard(HelveticaBoldOblique)},
	"times":     {standard(TimesRoman), standard(TimesBold), standard(TimesItalic), standard(TimesBoldItalic)},
	"courier":   {standard(Courier), standard(CourierBold), standard(CourierOblique), standard(CourierBoldOblique)},
	"go": {
		embedded("Go-Regular", goregular.TTF),
		embedded("Go-Bold", gobold.TTF),
		embedded("Go-Italic", goitalic.TTF),
		embedded("Go-BoldItalic", gobolditalic.TTF),
	},
	"go mono": {
		embedded("GoMono-Regular", gomono.TTF),
		embedded("GoMono-Bold", gomonobold.TTF),
		embedded("GoMono-Italic", gomonoitalic.TTF),
		embedded("GoMono-BoldItalic", gomonobolditalic.TTF),
	},
}

var aliases = map[string]string{
	"arial":           "helvetica",
	"sans-serif":      "helvetica",
	"times-roman":     "times",
	"times new roman": "times",
	"serif":           "times",
	"courier new":     "courier",
	"monospace":       "courier",
	"gomono":          "go mono",
}

// Resolve maps a family name and style to a concrete face. When the family is
// unknown the matching Helvetica face is returned and ok is false.
func Resolve(family string, style Style) (f *Font, ok bool) {
	key := strings.ToLower(strings.TrimSpace(family))
	if alias, found := aliases[key]; found {
		key = alias
	}
	faces, ok := families[key]
	if !ok {
		faces = families["helvetica"]
	}
	return faces[style.index()](), ok
}

// Families returns the canonical family names accepted by Resolve.
func Families() []string {
	return []string{"Helvetica", "Times", "Courier", "Go", "Go Mono"}
}
