package tinyhtml

import (
	"golang.org/x/net/html"

	"github.com/xkilldash9x/tinyhtml/geom"
	"github.com/xkilldash9x/tinyhtml/style"
)

// Axis selects the horizontal or vertical dimension of a box.
type Axis int

const (
	AxisHorizontal Axis = iota
	AxisVertical
)

// boxSides extracts one edge band (padding, border widths or margins) from
// a computed record.
func boxSides(rec map[string]string, kind string) geom.Edges {
	prop := func(side string) string {
		if kind == "border" {
			return "border-" + side + "-width"
		}
		return kind + "-" + side
	}
	return geom.Edges{
		Top:    style.ParsePx(rec[prop("top")]),
		Right:  style.ParsePx(rec[prop("right")]),
		Bottom: style.ParsePx(rec[prop("bottom")]),
		Left:   style.ParsePx(rec[prop("left")]),
	}
}

// borderBox derives the border-box size of an element from its computed
// record. Under content-box sizing the declared width is the content width,
// so padding and border are added; under border-box the declared width is
// already the border-box edge, floored at padding plus border.
func borderBox(rec map[string]string) (w, h float64) {
	cw := style.ParsePx(rec["width"])
	ch := style.ParsePx(rec["height"])
	padding := boxSides(rec, "padding")
	border := boxSides(rec, "border")

	if rec["box-sizing"] == "border-box" {
		w = cw
		if min := padding.X() + border.X(); w < min {
			w = min
		}
		h = ch
		if min := padding.Y() + border.Y(); h < min {
			h = min
		}
		return w, h
	}
	return cw + padding.X() + border.X(), ch + padding.Y() + border.Y()
}

// Elements without a rendered box measure zero on every metric.
func measurable(n *html.Node) bool { return displayed(n) }

func (w *Wrapper) measureTarget(method string) (Target, error) {
	t, err := w.single(method)
	if err != nil {
		return Target{}, err
	}
	switch t.Kind {
	case KindElement, KindDocument, KindWindow:
		return t, nil
	default:
		return Target{}, &KindMismatchError{
			Method:   method,
			Accepted: []TargetKind{KindElement, KindDocument, KindWindow},
			Got:      t.Kind,
		}
	}
}

func axisPick(axis Axis, x, y float64) float64 {
	if axis == AxisHorizontal {
		return x
	}
	return y
}

// contentSize measures the content box: border box minus padding and
// border.
func (w *Wrapper) contentSize(method string, axis Axis) (float64, error) {
	t, err := w.measureTarget(method)
	if err != nil {
		return 0, err
	}
	switch t.Kind {
	case KindWindow:
		vw, vh := t.Win.Viewport()
		return axisPick(axis, vw, vh), nil
	case KindDocument:
		return w.documentSize(t, axis), nil
	}
	if !measurable(t.Node) {
		return 0, nil
	}
	rec := computed(t.Node)
	bw, bh := borderBox(rec)
	padding := boxSides(rec, "padding")
	border := boxSides(rec, "border")
	if axis == AxisHorizontal {
		return bw - padding.X() - border.X(), nil
	}
	return bh - padding.Y() - border.Y(), nil
}

// Width returns the content width of the single target. Windows report the
// viewport width; documents report the document extent.
func (w *Wrapper) Width() (float64, error) { return w.contentSize("Width", AxisHorizontal) }

// Height returns the content height of the single target.
func (w *Wrapper) Height() (float64, error) { return w.contentSize("Height", AxisVertical) }

// innerSize measures content plus padding: border box minus border.
func (w *Wrapper) innerSize(method string, axis Axis) (float64, error) {
	t, err := w.measureTarget(method)
	if err != nil {
		return 0, err
	}
	switch t.Kind {
	case KindWindow:
		vw, vh := t.Win.Viewport()
		return axisPick(axis, vw, vh), nil
	case KindDocument:
		return w.documentSize(t, axis), nil
	}
	if !measurable(t.Node) {
		return 0, nil
	}
	rec := computed(t.Node)
	bw, bh := borderBox(rec)
	border := boxSides(rec, "border")
	if axis == AxisHorizontal {
		return bw - border.X(), nil
	}
	return bh - border.Y(), nil
}

// InnerWidth returns content plus padding width.
func (w *Wrapper) InnerWidth() (float64, error) { return w.innerSize("InnerWidth", AxisHorizontal) }

// InnerHeight returns content plus padding height.
func (w *Wrapper) InnerHeight() (float64, error) { return w.innerSize("InnerHeight", AxisVertical) }

// outerSize measures the border box, optionally grown by margins.
func (w *Wrapper) outerSize(method string, axis Axis, includeMargin bool) (float64, error) {
	t, err := w.measureTarget(method)
	if err != nil {
		return 0, err
	}
	switch t.Kind {
	case KindWindow:
		vw, vh := t.Win.Viewport()
		return axisPick(axis, vw, vh), nil
	case KindDocument:
		return w.documentSize(t, axis), nil
	}
	if !measurable(t.Node) {
		return 0, nil
	}
	rec := computed(t.Node)
	bw, bh := borderBox(rec)
	size := axisPick(axis, bw, bh)
	if includeMargin {
		margin := boxSides(rec, "margin")
		size += axisPick(axis, margin.X(), margin.Y())
	}
	return size, nil
}

// OuterWidth returns the border-box width; pass true to include margins.
func (w *Wrapper) OuterWidth(includeMargin ...bool) (float64, error) {
	withMargin := len(includeMargin) > 0 && includeMargin[0]
	return w.outerSize("OuterWidth", AxisHorizontal, withMargin)
}

// OuterHeight returns the border-box height; pass true to include margins.
func (w *Wrapper) OuterHeight(includeMargin ...bool) (float64, error) {
	withMargin := len(includeMargin) > 0 && includeMargin[0]
	return w.outerSize("OuterHeight", AxisVertical, withMargin)
}

// documentSize is the larger of the viewport and the root element's
// margin box. Detached documents fall back to the root element alone.
func (w *Wrapper) documentSize(t Target, axis Axis) float64 {
	var vw, vh float64
	if win := windowFor(t.Node); win != nil {
		vw, vh = win.Viewport()
	}
	rootSize := 0.0
	for c := t.Node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			rec := computed(c)
			bw, bh := borderBox(rec)
			margin := boxSides(rec, "margin")
			rootSize = axisPick(axis, bw+margin.X(), bh+margin.Y())
			break
		}
	}
	if v := axisPick(axis, vw, vh); v > rootSize {
		return v
	}
	return rootSize
}

// Rect returns the single element target's border-box rectangle. Without a
// layout engine positions are synthesized at the origin; sizes follow the
// computed box model.
func (w *Wrapper) Rect() (geom.Rect, error) {
	t, err := w.single("Rect")
	if err != nil {
		return geom.Rect{}, err
	}
	if t.Kind != KindElement {
		return geom.Rect{}, &KindMismatchError{Method: "Rect", Accepted: []TargetKind{KindElement}, Got: t.Kind}
	}
	if !measurable(t.Node) {
		return geom.Rect{}, nil
	}
	rec := computed(t.Node)
	bw, bh := borderBox(rec)
	return geom.FromXYWH(0, 0, bw, bh), nil
}

// MarginRect returns the Rect grown by the computed margins.
func (w *Wrapper) MarginRect() (geom.Rect, error) {
	t, err := w.single("MarginRect")
	if err != nil {
		return geom.Rect{}, err
	}
	if t.Kind != KindElement {
		return geom.Rect{}, &KindMismatchError{Method: "MarginRect", Accepted: []TargetKind{KindElement}, Got: t.Kind}
	}
	if !measurable(t.Node) {
		return geom.Rect{}, nil
	}
	rec := computed(t.Node)
	bw, bh := borderBox(rec)
	return geom.FromXYWH(0, 0, bw, bh).ExpandedBy(boxSides(rec, "margin")), nil
}
