package tinyhtml

import (
	"github.com/xkilldash9x/tinyhtml/style"
)

// styleText renders a value for an inline declaration. Bare numbers become
// pixel lengths except for the unitless properties; booleans are never a
// style value.
func styleText(method, prop string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return "", &TypeError{Method: method, Param: "value", Msg: "booleans are not style values"}
	case int:
		return styleText(method, prop, float64(v))
	case int64:
		return styleText(method, prop, float64(v))
	case float64:
		return style.FormatPx(prop, v), nil
	default:
		return "", &TypeError{Method: method, Param: "value", Msg: "expected string or number"}
	}
}

// SetStyle writes one inline style property on every target, or a whole
// map of properties when value is omitted and prop carries a map.
func (w *Wrapper) SetStyle(prop string, value any) (*Wrapper, error) {
	nodes, err := w.elements("SetStyle")
	if err != nil {
		return nil, err
	}
	text, err := styleText("SetStyle", style.CamelToKebab(prop), value)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		style.SetInline(n, prop, text)
	}
	return w, nil
}

// SetStyles writes several inline properties at once, in map iteration
// order per target.
func (w *Wrapper) SetStyles(props map[string]any) (*Wrapper, error) {
	nodes, err := w.elements("SetStyles")
	if err != nil {
		return nil, err
	}
	for prop, value := range props {
		text, err := styleText("SetStyles", style.CamelToKebab(prop), value)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			style.SetInline(n, prop, text)
		}
	}
	return w, nil
}

// GetStyle reads one inline style property from the first element target.
// Properties absent from the style attribute read as empty, even when the
// cascade supplies a value; Css reads the computed record instead.
func (w *Wrapper) GetStyle(prop string) (string, error) {
	nodes, err := w.elements("GetStyle")
	if err != nil {
		return "", err
	}
	if len(nodes) == 0 {
		return "", nil
	}
	return style.GetInline(nodes[0], prop), nil
}

// StyleSnapshotOptions controls the Style snapshot shape.
type StyleSnapshotOptions struct {
	// CamelCase keys the snapshot by the property dialect instead of the
	// attribute dialect.
	CamelCase bool
}

// Style returns the single target's inline declarations as a map.
func (w *Wrapper) Style(opts *StyleSnapshotOptions) (map[string]string, error) {
	t, err := w.single("Style")
	if err != nil {
		return nil, err
	}
	if t.Kind != KindElement {
		return nil, &KindMismatchError{Method: "Style", Accepted: []TargetKind{KindElement}, Got: t.Kind}
	}
	decls := style.InlineDecls(t.Node)
	out := make(map[string]string, len(decls))
	for _, d := range decls {
		key := d.Property
		if opts != nil && opts.CamelCase {
			key = style.KebabToCamel(key)
		}
		out[key] = d.Value
	}
	return out, nil
}

// StyleText returns the raw style attribute text of the single target.
func (w *Wrapper) StyleText() (string, error) {
	t, err := w.single("StyleText")
	if err != nil {
		return "", err
	}
	if t.Kind != KindElement {
		return "", &KindMismatchError{Method: "StyleText", Accepted: []TargetKind{KindElement}, Got: t.Kind}
	}
	v, _ := style.GetAttr(t.Node, "style")
	return v, nil
}

// RemoveStyle drops the named inline properties from every target.
func (w *Wrapper) RemoveStyle(props ...string) (*Wrapper, error) {
	nodes, err := w.elements("RemoveStyle")
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		style.RemoveInline(n, props...)
	}
	return w, nil
}

// ToggleStyle alternates the inline property between two values per target:
// v2 when the current value equals v1, v1 otherwise.
func (w *Wrapper) ToggleStyle(prop string, v1, v2 any) (*Wrapper, error) {
	nodes, err := w.elements("ToggleStyle")
	if err != nil {
		return nil, err
	}
	kebab := style.CamelToKebab(prop)
	t1, err := styleText("ToggleStyle", kebab, v1)
	if err != nil {
		return nil, err
	}
	t2, err := styleText("ToggleStyle", kebab, v2)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if style.GetInline(n, prop) == t1 {
			style.SetInline(n, prop, t2)
		} else {
			style.SetInline(n, prop, t1)
		}
	}
	return w, nil
}

// ClearStyle drops the whole style attribute from every target.
func (w *Wrapper) ClearStyle() (*Wrapper, error) {
	nodes, err := w.elements("ClearStyle")
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		style.ClearInline(n)
	}
	return w, nil
}

// Css returns the computed value of one property on the single target.
// Lengths read back in pixel form; unset properties read as empty.
func (w *Wrapper) Css(prop string) (string, error) {
	t, err := w.single("Css")
	if err != nil {
		return "", err
	}
	if t.Kind != KindElement {
		return "", &KindMismatchError{Method: "Css", Accepted: []TargetKind{KindElement}, Got: t.Kind}
	}
	return computed(t.Node)[style.CamelToKebab(prop)], nil
}

// CssString is Css with missing values resolved to the empty string; it
// never distinguishes unset from empty.
func (w *Wrapper) CssString(prop string) string {
	v, err := w.Css(prop)
	if err != nil {
		return ""
	}
	return v
}

// CssFloat returns the leading numeric component of the computed value,
// zero when the value has none.
func (w *Wrapper) CssFloat(prop string) (float64, error) {
	v, err := w.Css(prop)
	if err != nil {
		return 0, err
	}
	return style.ParseFloat(v), nil
}

// CssList returns the computed values of several properties at once, keyed
// by the kebab-case property.
func (w *Wrapper) CssList(props ...string) (map[string]string, error) {
	t, err := w.single("CssList")
	if err != nil {
		return nil, err
	}
	if t.Kind != KindElement {
		return nil, &KindMismatchError{Method: "CssList", Accepted: []TargetKind{KindElement}, Got: t.Kind}
	}
	rec := computed(t.Node)
	out := make(map[string]string, len(props))
	for _, p := range props {
		k := style.CamelToKebab(p)
		out[k] = rec[k]
	}
	return out, nil
}

// Displayed reports whether the single target currently has a rendered box.
func (w *Wrapper) Displayed() (bool, error) {
	t, err := w.single("Displayed")
	if err != nil {
		return false, err
	}
	if t.Kind != KindElement {
		return false, &KindMismatchError{Method: "Displayed", Accepted: []TargetKind{KindElement}, Got: t.Kind}
	}
	return displayed(t.Node), nil
}
