package core

import "math"

// Point is a position in the shared (window) coordinate space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is an axis-aligned rectangle in the shared coordinate space.
// X and Y are the top-left corner. Probe markers have zero width and height.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRect creates a Rect from origin and size.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// Origin returns the top-left corner.
func (r Rect) Origin() Point {
	return Point{X: r.X, Y: r.Y}
}

// Size returns the rectangle dimensions.
func (r Rect) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// Right returns the x-coordinate of the right edge (exclusive).
func (r Rect) Right() float64 {
	return r.X + r.Width
}

// Bottom returns the y-coordinate of the bottom edge (exclusive).
func (r Rect) Bottom() float64 {
	return r.Y + r.Height
}

// IsEmpty reports whether the rectangle is degenerate (zero or negative area).
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Area returns width*height, or 0 for a degenerate rectangle.
func (r Rect) Area() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.Width * r.Height
}

// Center returns the center point.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether the point lies inside the rectangle.
// Left and top edges are inside; right and bottom edges are outside.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// ContainsRect reports whether other lies fully inside r.
func (r Rect) ContainsRect(other Rect) bool {
	if other.IsEmpty() {
		return true
	}
	if r.IsEmpty() {
		return false
	}
	return other.X >= r.X && other.Y >= r.Y &&
		other.Right() <= r.Right() && other.Bottom() <= r.Bottom()
}

// Intersect returns the intersection of two rectangles, or an empty Rect
// when they do not overlap. Touching edges do not overlap.
func (r Rect) Intersect(other Rect) Rect {
	x := max(r.X, other.X)
	y := max(r.Y, other.Y)
	right := min(r.Right(), other.Right())
	bottom := min(r.Bottom(), other.Bottom())

	width := right - x
	height := bottom - y
	if width <= 0 || height <= 0 {
		return Rect{}
	}
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// Overlap returns the fraction of r's area that lies inside other.
// It is asymmetric: r is the reference. A degenerate reference scores 0.
func (r Rect) Overlap(other Rect) float64 {
	area := r.Area()
	if area <= 0 {
		return 0
	}
	return r.Intersect(other).Area() / area
}
