// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint2D creates a new Point2D.
func NewPoint2D(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Add returns the sum of two points.
func (p Point2D) Add(other Point2D) Point2D {
	return Point2D{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale returns the point scaled by a factor.
func (p Point2D) Scale(factor float64) Point2D {
	return Point2D{X: p.X * factor, Y: p.Y * factor}
}

// Size represents a 2D size.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewSize creates a new Size.
func NewSize(width, height float64) Size {
	return Size{Width: width, Height: height}
}

// Diagonal returns the length of the diagonal.
func (s Size) Diagonal() float64 {
	return math.Sqrt(s.Width*s.Width + s.Height*s.Height)
}

// Rect represents a rectangle with floating-point coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRect creates a new Rect.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// RectAround creates a Rect of the given size centered on a point.
func RectAround(center Point2D, width, height float64) Rect {
	return Rect{X: center.X - width/2, Y: center.Y - height/2, Width: width, Height: height}
}

// Empty returns true if the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point2D {
	return Point2D{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// MaxX returns the right edge coordinate.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY returns the bottom edge coordinate.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Contains returns true if the point is inside the rectangle.
func (r Rect) Contains(p Point2D) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// ContainsRect returns true if the other rectangle lies entirely inside r.
func (r Rect) ContainsRect(other Rect) bool {
	return other.X >= r.X && other.Y >= r.Y &&
		other.MaxX() <= r.MaxX() && other.MaxY() <= r.MaxY()
}

// Intersects returns true if this rectangle intersects with another.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.MaxX() && r.MaxX() > other.X &&
		r.Y < other.MaxY() && r.MaxY() > other.Y
}

// IntersectsBuffered reports whether the two rectangles intersect after
// expanding both by buffer on every side. This is the overlap test used
// for label collision avoidance.
func (r Rect) IntersectsBuffered(other Rect, buffer float64) bool {
	return r.Expand(buffer).Intersects(other.Expand(buffer))
}

// Expand returns the rectangle grown by d on all four sides.
// A negative d shrinks the rectangle.
func (r Rect) Expand(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, Width: r.Width + 2*d, Height: r.Height + 2*d}
}

// Union returns the smallest rectangle containing both rectangles.
func (r Rect) Union(other Rect) Rect {
	x := math.Min(r.X, other.X)
	y := math.Min(r.Y, other.Y)
	x2 := math.Max(r.MaxX(), other.MaxX())
	y2 := math.Max(r.MaxY(), other.MaxY())
	return Rect{X: x, Y: y, Width: x2 - x, Height: y2 - y}
}

// Scale returns the rectangle with all coordinates multiplied by factor.
func (r Rect) Scale(factor float64) Rect {
	return Rect{X: r.X * factor, Y: r.Y * factor, Width: r.Width * factor, Height: r.Height * factor}
}

// Translate returns the rectangle shifted by dx, dy.
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// NearestEdgePoint returns the point on the rectangle's boundary closest
// to p. For a point inside the rectangle the nearest edge is used, so a
// line drawn from the result toward p never crosses the interior from
// the far side.
func (r Rect) NearestEdgePoint(p Point2D) Point2D {
	cx := clamp(p.X, r.X, r.MaxX())
	cy := clamp(p.Y, r.Y, r.MaxY())

	if !r.Contains(p) {
		// Outside: clamping projects onto the boundary already.
		return Point2D{X: cx, Y: cy}
	}

	// Inside: snap the shorter axis distance to its edge.
	dLeft := p.X - r.X
	dRight := r.MaxX() - p.X
	dTop := p.Y - r.Y
	dBottom := r.MaxY() - p.Y

	minD := math.Min(math.Min(dLeft, dRight), math.Min(dTop, dBottom))
	switch minD {
	case dLeft:
		return Point2D{X: r.X, Y: p.Y}
	case dRight:
		return Point2D{X: r.MaxX(), Y: p.Y}
	case dTop:
		return Point2D{X: p.X, Y: r.Y}
	default:
		return Point2D{X: p.X, Y: r.MaxY()}
	}
}

// Clamp limits v to the range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return clamp(v, lo, hi)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
