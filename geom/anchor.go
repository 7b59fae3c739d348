package geom

import "fmt"

// Anchor names a reference point on a page used for default placements.
type Anchor int

const (
	// TopLeft positions at the top-left corner.
	TopLeft Anchor = iota
	// TopRight positions at the top-right corner.
	TopRight
	// BottomLeft positions at the bottom-left corner.
	BottomLeft
	// BottomRight positions at the bottom-right corner.
	BottomRight
	// Center positions in the middle of the page, margins ignored.
	Center
)

var anchorNames = map[string]Anchor{
	"top-left":     TopLeft,
	"top-right":    TopRight,
	"bottom-left":  BottomLeft,
	"bottom-right": BottomRight,
	"center":       Center,
}

// ParseAnchor parses the kebab-case anchor name.
func ParseAnchor(s string) (Anchor, error) {
	a, ok := anchorNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown anchor %q", s)
	}
	return a, nil
}

func (a Anchor) String() string {
	for name, v := range anchorNames {
		if v == a {
			return name
		}
	}
	return fmt.Sprintf("Anchor(%d)", int(a))
}

// Place returns the lower-left corner of a w by h footprint anchored on a page of
// size (pageW, pageH) with the given margins.
func (a Anchor) Place(w, h, pageW, pageH, marginX, marginY float64) (float64, float64) {
	switch a {
	case TopLeft:
		return marginX, pageH - marginY - h
	case TopRight:
		return pageW - marginX - w, pageH - marginY - h
	case BottomLeft:
		return marginX, marginY
	case BottomRight:
		return pageW - marginX - w, marginY
	default:
		return (pageW - w) / 2, (pageH - h) / 2
	}
}
