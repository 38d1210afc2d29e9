// Package geom provides pure geometric primitives for rectangle math.
//
// Nothing in this package touches the DOM; every function is total and
// deterministic over plain numeric records, which keeps collision and
// containment logic unit-testable without an environment.
package geom

import (
	"fmt"
	"math"
)

// Rect describes an axis-aligned rectangle in viewport coordinates.
// Top/Left/Right/Bottom are the edge positions; X/Y duplicate Left/Top to
// mirror the bounding-rect record shape produced by measurement.
type Rect struct {
	Top    float64
	Left   float64
	Right  float64
	Bottom float64
	Width  float64
	Height float64
	X      float64
	Y      float64
}

// FromXYWH builds a normalized Rect from an origin and size.
func FromXYWH(x, y, w, h float64) Rect {
	return Rect{
		Top:    y,
		Left:   x,
		Right:  x + w,
		Bottom: y + h,
		Width:  w,
		Height: h,
		X:      x,
		Y:      y,
	}
}

// Edges holds per-side box extents (padding, border or margin widths).
type Edges struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// X is the horizontal sum of the left and right extents.
func (e Edges) X() float64 { return e.Left + e.Right }

// Y is the vertical sum of the top and bottom extents.
func (e Edges) Y() float64 { return e.Top + e.Bottom }

// ExpandedBy returns a copy of r grown outward by the edge sizes.
func (r Rect) ExpandedBy(e Edges) Rect {
	return FromXYWH(r.X-e.Left, r.Y-e.Top, r.Width+e.X(), r.Height+e.Y())
}

// Side identifies one edge of a rectangle.
type Side int

const (
	SideTop Side = iota
	SideBottom
	SideLeft
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideTop:
		return "top"
	case SideBottom:
		return "bottom"
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	}
	return fmt.Sprintf("side(%d)", int(s))
}

// Overlap reports whether a and b intersect. Intervals are treated as
// half-open on both axes, so rectangles that merely share an edge do not
// overlap.
func Overlap(a, b Rect) bool {
	return a.Left < b.Right && b.Left < a.Right &&
		a.Top < b.Bottom && b.Top < a.Bottom
}

// Contains reports whether b lies entirely within a on both axes.
func Contains(a, b Rect) bool {
	return b.Left >= a.Left && b.Right <= a.Right &&
		b.Top >= a.Top && b.Bottom <= a.Bottom
}

// EdgeTouch reports whether b touches or crosses the given side of a from
// the outside. The opposite axis must overlap for the touch to count.
func EdgeTouch(a, b Rect, side Side) bool {
	switch side {
	case SideTop:
		return crossAxisOverlapX(a, b) && b.Bottom >= a.Top && b.Top < a.Top
	case SideBottom:
		return crossAxisOverlapX(a, b) && b.Top <= a.Bottom && b.Bottom > a.Bottom
	case SideLeft:
		return crossAxisOverlapY(a, b) && b.Right >= a.Left && b.Left < a.Left
	case SideRight:
		return crossAxisOverlapY(a, b) && b.Left <= a.Right && b.Right > a.Right
	}
	return false
}

func crossAxisOverlapX(a, b Rect) bool {
	return a.Left < b.Right && b.Left < a.Right
}

func crossAxisOverlapY(a, b Rect) bool {
	return a.Top < b.Bottom && b.Top < a.Bottom
}

// Adjust carries additive adjustments for Expand. Zero fields are no-ops.
type Adjust struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
	Width  float64
	Height float64
}

// Expand returns a new rectangle with the adjustments applied additively.
// Non-finite adjustments are rejected.
func Expand(r Rect, adj Adjust) (Rect, error) {
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"top", adj.Top}, {"bottom", adj.Bottom},
		{"left", adj.Left}, {"right", adj.Right},
		{"width", adj.Width}, {"height", adj.Height},
	} {
		if math.IsNaN(v.val) || math.IsInf(v.val, 0) {
			return Rect{}, fmt.Errorf("geom: expand adjustment %q is not a finite number", v.name)
		}
	}

	out := r
	out.Top += adj.Top
	out.Bottom += adj.Bottom
	out.Left += adj.Left
	out.Right += adj.Right
	out.Width = out.Right - out.Left + adj.Width
	out.Height = out.Bottom - out.Top + adj.Height
	out.Right = out.Left + out.Width
	out.Bottom = out.Top + out.Height
	out.X = out.Left
	out.Y = out.Top
	return out, nil
}
