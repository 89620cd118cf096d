package geometry

import (
	"fmt"
	"image"
	"math"
)

// iouEpsilon is added to the union of two rectangles so IoU is defined for
// zero area rectangles
const iouEpsilon = 1e-7

// Rect represents an axis aligned rectangle in (x, y, width, height) format.
// The pipeline uses normalized [0,1] frame coordinates, pixel coordinates
// are derived with Scale()
type Rect struct {
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

// NewRect creates a new Rect with given coordinates
func NewRect(x, y, width, height float32) Rect {
	return Rect{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

// RectFromPoints creates a Rect from two arbitrary corner points.  The top
// left corner is the per axis minimum and the size is the per axis absolute
// difference, so the resulting width and height are never negative
func RectFromPoints(x1, y1, x2, y2 float32) Rect {
	return Rect{
		X:      min(x1, x2),
		Y:      min(y1, y2),
		Width:  abs(x2 - x1),
		Height: abs(y2 - y1),
	}
}

// Right returns the bottom-right x coordinate of the rectangle
func (r Rect) Right() float32 {
	return r.X + r.Width
}

// Bottom returns the bottom-right y coordinate of the rectangle
func (r Rect) Bottom() float32 {
	return r.Y + r.Height
}

// Center returns the center point of the rectangle
func (r Rect) Center() (float32, float32) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Area returns the area of the rectangle, a rectangle with a negative width
// or height has zero area
func (r Rect) Area() float32 {

	if r.Width < 0 || r.Height < 0 {
		return 0
	}

	return r.Width * r.Height
}

// IsEmpty returns true if the rectangle has no area
func (r Rect) IsEmpty() bool {
	return r.Area() == 0
}

// Clamp restricts the rectangle corners to the range lo and hi on both axes
func (r Rect) Clamp(lo, hi float32) Rect {

	x1 := clamp(r.X, lo, hi)
	y1 := clamp(r.Y, lo, hi)
	x2 := clamp(r.Right(), lo, hi)
	y2 := clamp(r.Bottom(), lo, hi)

	return Rect{
		X:      x1,
		Y:      y1,
		Width:  max(x2-x1, 0),
		Height: max(y2-y1, 0),
	}
}

// Scale converts a normalized rectangle into pixel coordinates of an image
// with the given width and height.  Corners are rounded outwards
func (r Rect) Scale(width, height int) image.Rectangle {

	w := float64(width)
	h := float64(height)

	return image.Rect(
		int(math.Floor(float64(r.X)*w)),
		int(math.Floor(float64(r.Y)*h)),
		int(math.Ceil(float64(r.Right())*w)),
		int(math.Ceil(float64(r.Bottom())*h)),
	)
}

// String returns a human readable representation of the rectangle
func (r Rect) String() string {
	return fmt.Sprintf("Rect(x=%.4f, y=%.4f, w=%.4f, h=%.4f)",
		r.X, r.Y, r.Width, r.Height)
}

// IoU calculates the Intersection over Union of two rectangles.  The overlap
// is built from the inner corners using plain subtraction, so disjoint
// rectangles produce a negative sized overlap which has zero area
func IoU(a, b Rect) float32 {

	overlap := Rect{
		X:      max(a.X, b.X),
		Y:      max(a.Y, b.Y),
		Width:  min(a.Right(), b.Right()) - max(a.X, b.X),
		Height: min(a.Bottom(), b.Bottom()) - max(a.Y, b.Y),
	}

	overlapArea := overlap.Area()

	return overlapArea / (a.Area() + b.Area() - overlapArea + iouEpsilon)
}

// ScoredRect is a rectangle paired with the detector confidence score
type ScoredRect struct {
	Rect       Rect    `json:"rect"`
	Confidence float32 `json:"confidence"`
}

// abs returns the absolute value of v
func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// clamp restricts the value to be within the range lo and hi
func clamp(val, lo, hi float32) float32 {

	if val < lo {
		return lo
	}

	if val > hi {
		return hi
	}

	return val
}
