package model

import "math"

// Point represents a 2D point in page coordinates.
type Point struct {
	X, Y float64
}

// Distance calculates the Euclidean distance to another point.
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// BBox represents a bounding box in top-down page coordinates:
// Top is the smaller y value, Bottom the larger.
type BBox struct {
	X0     float64 // Left edge
	Top    float64 // Upper edge (smaller y)
	X1     float64 // Right edge
	Bottom float64 // Lower edge (larger y)
}

// NewBBox creates a bounding box, normalizing flipped coordinates.
func NewBBox(x0, top, x1, bottom float64) BBox {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if bottom < top {
		top, bottom = bottom, top
	}
	return BBox{X0: x0, Top: top, X1: x1, Bottom: bottom}
}

// Width returns the horizontal extent.
func (b BBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the vertical extent.
func (b BBox) Height() float64 {
	return b.Bottom - b.Top
}

// Center returns the center point.
func (b BBox) Center() Point {
	return Point{
		X: (b.X0 + b.X1) / 2,
		Y: (b.Top + b.Bottom) / 2,
	}
}

// Contains checks if a point is inside the bounding box.
func (b BBox) Contains(p Point) bool {
	return p.X >= b.X0 && p.X <= b.X1 &&
		p.Y >= b.Top && p.Y <= b.Bottom
}

// Intersects checks if two bounding boxes intersect.
func (b BBox) Intersects(other BBox) bool {
	return !(b.X1 < other.X0 ||
		b.X0 > other.X1 ||
		b.Bottom < other.Top ||
		b.Top > other.Bottom)
}

// Intersection returns the intersection of two bounding boxes, or a zero
// box when they do not intersect.
func (b BBox) Intersection(other BBox) BBox {
	if !b.Intersects(other) {
		return BBox{}
	}
	return BBox{
		X0:     math.Max(b.X0, other.X0),
		Top:    math.Max(b.Top, other.Top),
		X1:     math.Min(b.X1, other.X1),
		Bottom: math.Min(b.Bottom, other.Bottom),
	}
}

// Union returns the smallest bounding box covering both boxes.
func (b BBox) Union(other BBox) BBox {
	return BBox{
		X0:     math.Min(b.X0, other.X0),
		Top:    math.Min(b.Top, other.Top),
		X1:     math.Max(b.X1, other.X1),
		Bottom: math.Max(b.Bottom, other.Bottom),
	}
}

// Area returns the area of the bounding box.
func (b BBox) Area() float64 {
	return b.Width() * b.Height()
}

// Expand grows the bounding box by a margin on all sides.
func (b BBox) Expand(margin float64) BBox {
	return BBox{
		X0:     b.X0 - margin,
		Top:    b.Top - margin,
		X1:     b.X1 + margin,
		Bottom: b.Bottom + margin,
	}
}

// OverlapRatio calculates the overlap with another box as a fraction of the
// smaller box's area. Returns a value between 0 and 1.
func (b BBox) OverlapRatio(other BBox) float64 {
	if !b.Intersects(other) {
		return 0
	}
	minArea := math.Min(b.Area(), other.Area())
	if minArea == 0 {
		return 0
	}
	return b.Intersection(other).Area() / minArea
}

// IoU calculates intersection over union with another box.
func (b BBox) IoU(other BBox) float64 {
	if !b.Intersects(other) {
		return 0
	}
	inter := b.Intersection(other).Area()
	union := b.Area() + other.Area() - inter
	if union == 0 {
		return 0
	}
	return inter / union
}

// IsEmpty returns true if the bounding box has zero or negative area.
func (b BBox) IsEmpty() bool {
	return b.Width() <= 0 || b.Height() <= 0
}

// IsValid returns true if the bounding box has positive dimensions.
func (b BBox) IsValid() bool {
	return b.Width() > 0 && b.Height() > 0
}
