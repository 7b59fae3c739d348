package geom

import (
	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
)

// Box is an axis aligned rectangle in document space.
type Box struct {
	r2.Rect
}

// NewBox returns the box with lower-left corner (x, y) and the given size.
func NewBox(x, y, w, h float64) Box {
	return Box{r2.Rect{
		X: r1.Interval{Lo: x, Hi: x + w},
		Y: r1.Interval{Lo: y, Hi: y + h},
	}}
}

// Width returns the horizontal extent.
func (b Box) Width() float64 { return b.X.Length() }

// Height returns the vertical extent.
func (b Box) Height() float64 { return b.Y.Length() }

// ToDisplay maps the box into display space. The returned rectangle uses display
// coordinates so Lo is the top-left pixel corner.
func (b Box) ToDisplay(s PageViewState) r2.Rect {
	x0, y0 := s.ToDisplay(b.X.Lo, b.Y.Hi)
	x1, y1 := s.ToDisplay(b.X.Hi, b.Y.Lo)
	return r2.RectFromPoints(r2.Point{X: x0, Y: y0}, r2.Point{X: x1, Y: y1})
}

// HitDisplay reports whether the display point (px, py) falls on the box.
func (b Box) HitDisplay(s PageViewState, px, py float64) bool {
	return b.ToDisplay(s).ContainsPoint(r2.Point{X: px, Y: py})
}

// Page returns the box covering a whole page.
func Page(w, h float64) Box {
	return NewBox(0, 0, w, h)
}
