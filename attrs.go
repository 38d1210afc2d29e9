package tinyhtml

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/tinyhtml/style"
)

// booleanAttrs lists attributes whose presence is their value.
var booleanAttrs = map[string]bool{
	"async": true, "autofocus": true, "autoplay": true, "checked": true,
	"controls": true, "default": true, "defer": true, "disabled": true,
	"hidden": true, "loop": true, "multiple": true, "muted": true,
	"open": true, "readonly": true, "required": true, "reversed": true,
	"selected": true,
}

// Attr returns the attribute value from the first element target. Missing
// attributes read as empty with ok false.
func (w *Wrapper) Attr(name string) (string, bool, error) {
	nodes, err := w.elements("Attr")
	if err != nil {
		return "", false, err
	}
	if len(nodes) == 0 {
		return "", false, nil
	}
	v, ok := style.GetAttr(nodes[0], strings.ToLower(name))
	return v, ok, nil
}

// SetAttr writes the attribute on every target. Accepted values: string,
// bool (true sets a boolean attribute, false removes it), and numeric types
// formatted without trailing zeros.
func (w *Wrapper) SetAttr(name string, value any) (*Wrapper, error) {
	nodes, err := w.elements("SetAttr")
	if err != nil {
		return nil, err
	}
	name = strings.ToLower(name)
	text, present, err := attrText("SetAttr", name, value)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if present {
			style.SetAttr(n, name, text)
		} else {
			style.RemoveAttr(n, name)
		}
	}
	return w, nil
}

func attrText(method, name string, value any) (text string, present bool, err error) {
	switch v := value.(type) {
	case string:
		return v, true, nil
	case bool:
		if !v {
			return "", false, nil
		}
		if booleanAttrs[name] {
			return name, true, nil
		}
		return "true", true, nil
	case int:
		return strconv.Itoa(v), true, nil
	case int64:
		return strconv.FormatInt(v, 10), true, nil
	case float64:
		return style.FormatNumber(v), true, nil
	default:
		return "", false, &TypeError{Method: method, Param: "value", Msg: "expected string, bool or number"}
	}
}

// HasAttr reports whether the first element target carries the attribute.
func (w *Wrapper) HasAttr(name string) (bool, error) {
	_, ok, err := w.Attr(name)
	return ok, err
}

// RemoveAttr drops the attribute from every target.
func (w *Wrapper) RemoveAttr(name string) (*Wrapper, error) {
	nodes, err := w.elements("RemoveAttr")
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		style.RemoveAttr(n, strings.ToLower(name))
	}
	return w, nil
}

// Prop reads a property from the first element target. The name may be
// given in either dialect; the alias table maps it to its attribute. For
// boolean attributes the result is a bool reflecting presence.
func (w *Wrapper) Prop(name string) (any, error) {
	nodes, err := w.elements("Prop")
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	attr := style.PropToAttr(name)
	v, ok := style.GetAttr(nodes[0], attr)
	if booleanAttrs[attr] {
		return ok, nil
	}
	if !ok {
		return nil, nil
	}
	return v, nil
}

// AddProp sets a property on every target. Boolean properties materialize
// as presence-valued attributes.
func (w *Wrapper) AddProp(name string, value any) (*Wrapper, error) {
	nodes, err := w.elements("AddProp")
	if err != nil {
		return nil, err
	}
	attr := style.PropToAttr(name)
	text, present, err := attrText("AddProp", attr, value)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if present {
			style.SetAttr(n, attr, text)
		} else {
			style.RemoveAttr(n, attr)
		}
	}
	return w, nil
}

// RemoveProp removes the property's backing attribute from every target.
func (w *Wrapper) RemoveProp(name string) (*Wrapper, error) {
	nodes, err := w.elements("RemoveProp")
	if err != nil {
		return nil, err
	}
	attr := style.PropToAttr(name)
	for _, n := range nodes {
		style.RemoveAttr(n, attr)
	}
	return w, nil
}

// ToggleProp flips a boolean property on every target. The optional force
// flag pins the direction.
func (w *Wrapper) ToggleProp(name string, force ...bool) (*Wrapper, error) {
	nodes, err := w.elements("ToggleProp")
	if err != nil {
		return nil, err
	}
	attr := style.PropToAttr(name)
	if !booleanAttrs[attr] {
		return nil, &DomainError{Method: "ToggleProp", Param: "name", Msg: "not a boolean property"}
	}
	for _, n := range nodes {
		_, has := style.GetAttr(n, attr)
		want := !has
		if len(force) > 0 {
			want = force[0]
		}
		if want {
			style.SetAttr(n, attr, attr)
		} else {
			style.RemoveAttr(n, attr)
		}
	}
	return w, nil
}

// HasProp reports whether the first element target carries the property's
// backing attribute.
func (w *Wrapper) HasProp(name string) (bool, error) {
	nodes, err := w.elements("HasProp")
	if err != nil {
		return false, err
	}
	if len(nodes) == 0 {
		return false, nil
	}
	_, ok := style.GetAttr(nodes[0], style.PropToAttr(name))
	return ok, nil
}

// TagName returns the upper-cased tag name of the single element target.
func (w *Wrapper) TagName() (string, error) {
	t, err := w.single("TagName")
	if err != nil {
		return "", err
	}
	if t.Kind != KindElement {
		return "", &KindMismatchError{Method: "TagName", Accepted: []TargetKind{KindElement}, Got: t.Kind}
	}
	return strings.ToUpper(t.Node.Data), nil
}

// ID returns the id attribute of the first element target.
func (w *Wrapper) ID() (string, error) {
	v, _, err := w.Attr("id")
	return v, err
}

// Val reads the value of the first form-control target: the value attribute
// for inputs, the selected option for selects, the text content for
// textareas.
func (w *Wrapper) Val() (string, error) {
	nodes, err := w.elements("Val")
	if err != nil {
		return "", err
	}
	if len(nodes) == 0 {
		return "", nil
	}
	n := nodes[0]
	switch strings.ToLower(n.Data) {
	case "textarea":
		var b strings.Builder
		collectText(n, &b)
		return b.String(), nil
	case "select":
		var first, selected string
		firstSet, selSet := false, false
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || !strings.EqualFold(c.Data, "option") {
				continue
			}
			v, ok := style.GetAttr(c, "value")
			if !ok {
				var b strings.Builder
				collectText(c, &b)
				v = b.String()
			}
			if !firstSet {
				first = v
				firstSet = true
			}
			if _, sel := style.GetAttr(c, "selected"); sel {
				selected = v
				selSet = true
			}
		}
		if selSet {
			return selected, nil
		}
		return first, nil
	default:
		v, _ := style.GetAttr(n, "value")
		return v, nil
	}
}

// SetVal writes the value of every form-control target.
func (w *Wrapper) SetVal(value string) (*Wrapper, error) {
	nodes, err := w.elements("SetVal")
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if strings.EqualFold(n.Data, "textarea") {
			fromNodes([]*html.Node{n}).SetText(value)
			continue
		}
		style.SetAttr(n, "value", value)
	}
	return w, nil
}
