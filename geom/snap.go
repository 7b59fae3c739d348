package geom

import "math"

// DefaultGrid is the snapping unit in document points.
const DefaultGrid = 10.0

// Snap rounds v to the nearest multiple of grid. A grid of zero or less disables
// snapping. Snapping a snapped value returns it unchanged.
func Snap(v, grid float64) float64 {
	if grid <= 0 {
		return v
	}
	return math.Round(v/grid) * grid
}

// SnapPoint snaps both axes.
func SnapPoint(x, y, grid float64) (float64, float64) {
	return Snap(x, grid), Snap(y, grid)
}

// Clamp keeps a footprint of size (w, h) positioned at (x, y) inside a page of size
// (pageW, pageH). The result is never negative, even for footprints larger than the
// page.
func Clamp(x, y, w, h, pageW, pageH float64) (float64, float64) {
	return clampAxis(x, w, pageW), clampAxis(y, h, pageH)
}

func clampAxis(v, size, limit float64) float64 {
	hi := limit - size
	if v > hi {
		v = hi
	}
	if v < 0 {
		v = 0
	}
	return v
}
