package geom

import "math"

// Matrix is a PDF affine transform [a b c d e f].
type Matrix [6]float64

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// RotateDeg returns a counter-clockwise rotation by angle degrees.
func RotateDeg(angle float64) Matrix {
	rad := angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	return Matrix{cos, sin, -sin, cos, 0, 0}
}

// Multiply returns m followed by other.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		m[0]*other[0] + m[1]*other[2],
		m[0]*other[1] + m[1]*other[3],
		m[2]*other[0] + m[3]*other[2],
		m[2]*other[1] + m[3]*other[3],
		m[4]*other[0] + m[5]*other[2] + other[4],
		m[4]*other[1] + m[5]*other[3] + other[5],
	}
}

// Transform applies the matrix to a point.
func (m Matrix) Transform(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// RotatedAround returns the matrix that rotates by angle degrees around the point
// (cx, cy) and then draws the origin at (x, y) relative to that rotation.
func RotatedAround(angle, x, y, cx, cy float64) Matrix {
	return Translate(x-cx, y-cy).Multiply(RotateDeg(angle)).Multiply(Translate(cx, cy))
}
