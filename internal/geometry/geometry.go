// Package geometry converts the live bounding boxes of page elements into
// page-relative rectangles.
package geometry

import "math"

// Box is a rectangle in viewport (client) coordinates, as returned by
// getBoundingClientRect.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Scroll is the document's current scroll offset.
type Scroll struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a page-relative rectangle. All components are non-negative.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PageRect translates a viewport box into page coordinates by adding the
// scroll offset. Rects are meant to be derived fresh on every query since
// layout may shift between renders.
func PageRect(b Box, s Scroll) Rect {
	return Rect{
		Top:    nonNegative(b.Y + s.Y),
		Left:   nonNegative(b.X + s.X),
		Width:  nonNegative(b.Width),
		Height: nonNegative(b.Height),
	}
}

// Box converts r back into viewport coordinates for the given scroll offset.
func (r Rect) Box(s Scroll) Box {
	return Box{X: r.Left - s.X, Y: r.Top - s.Y, Width: r.Width, Height: r.Height}
}

// Empty reports whether r covers no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Bottom returns the page y coordinate just below r.
func (r Rect) Bottom() float64 {
	return r.Top + r.Height
}

// Contains reports whether the point (x, y) lies inside b. The right and
// bottom edges are exclusive.
func (b Box) Contains(x, y float64) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// Empty reports whether b covers no area.
func (b Box) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Center returns the midpoint of b.
func (b Box) Center() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Intersect returns the overlap of b and o. The result is empty if they do
// not overlap.
func (b Box) Intersect(o Box) Box {
	x0 := math.Max(b.X, o.X)
	y0 := math.Max(b.Y, o.Y)
	x1 := math.Min(b.X+b.Width, o.X+o.Width)
	y1 := math.Min(b.Y+b.Height, o.Y+o.Height)
	if x1 <= x0 || y1 <= y0 {
		return Box{}
	}
	return Box{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Union returns the smallest box containing both b and o. Empty boxes are
// ignored.
func (b Box) Union(o Box) Box {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	x0 := math.Min(b.X, o.X)
	y0 := math.Min(b.Y, o.Y)
	x1 := math.Max(b.X+b.Width, o.X+o.Width)
	y1 := math.Max(b.Y+b.Height, o.Y+o.Height)
	return Box{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func nonNegative(f float64) float64 {
	if f < 0 || math.IsNaN(f) {
		return 0
	}
	return f
}
