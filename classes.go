package tinyhtml

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/tinyhtml/style"
)

func classList(n *html.Node) []string {
	v, _ := style.GetAttr(n, "class")
	return strings.Fields(v)
}

func setClassList(n *html.Node, classes []string) {
	if len(classes) == 0 {
		style.RemoveAttr(n, "class")
		return
	}
	style.SetAttr(n, "class", strings.Join(classes, " "))
}

func containsClass(classes []string, c string) bool {
	for _, existing := range classes {
		if existing == c {
			return true
		}
	}
	return false
}

// splitClassArg accepts a space-separated string or a string slice.
func splitClassArg(method string, classes any) ([]string, error) {
	switch v := classes.(type) {
	case string:
		return strings.Fields(v), nil
	case []string:
		out := make([]string, 0, len(v))
		for _, c := range v {
			out = append(out, strings.Fields(c)...)
		}
		return out, nil
	default:
		return nil, &TypeError{Method: method, Param: "classes", Msg: "expected string or []string"}
	}
}

// AddClass adds each class to every target, skipping duplicates.
func (w *Wrapper) AddClass(classes any) (*Wrapper, error) {
	nodes, err := w.elements("AddClass")
	if err != nil {
		return nil, err
	}
	add, err := splitClassArg("AddClass", classes)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		list := classList(n)
		changed := false
		for _, c := range add {
			if !containsClass(list, c) {
				list = append(list, c)
				changed = true
			}
		}
		if changed {
			setClassList(n, list)
		}
	}
	return w, nil
}

// RemoveClass removes each class from every target. With no argument it
// clears the class attribute.
func (w *Wrapper) RemoveClass(classes ...any) (*Wrapper, error) {
	nodes, err := w.elements("RemoveClass")
	if err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		for _, n := range nodes {
			style.RemoveAttr(n, "class")
		}
		return w, nil
	}
	var remove []string
	for _, arg := range classes {
		part, err := splitClassArg("RemoveClass", arg)
		if err != nil {
			return nil, err
		}
		remove = append(remove, part...)
	}
	for _, n := range nodes {
		list := classList(n)
		kept := list[:0]
		for _, c := range list {
			if !containsClass(remove, c) {
				kept = append(kept, c)
			}
		}
		setClassList(n, kept)
	}
	return w, nil
}

// ToggleClass toggles each class on every target. The optional force flag
// pins the direction: true always adds, false always removes.
func (w *Wrapper) ToggleClass(classes any, force ...bool) (*Wrapper, error) {
	nodes, err := w.elements("ToggleClass")
	if err != nil {
		return nil, err
	}
	toggle, err := splitClassArg("ToggleClass", classes)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		list := classList(n)
		for _, c := range toggle {
			has := containsClass(list, c)
			want := !has
			if len(force) > 0 {
				want = force[0]
			}
			switch {
			case want && !has:
				list = append(list, c)
			case !want && has:
				kept := list[:0:0]
				for _, existing := range list {
					if existing != c {
						kept = append(kept, existing)
					}
				}
				list = kept
			}
		}
		setClassList(n, list)
	}
	return w, nil
}

// HasClass reports whether any target carries the class.
func (w *Wrapper) HasClass(class string) (bool, error) {
	nodes, err := w.elements("HasClass")
	if err != nil {
		return false, err
	}
	for _, n := range nodes {
		if containsClass(classList(n), class) {
			return true, nil
		}
	}
	return false, nil
}

// ReplaceClass swaps old for new on every target carrying old, preserving
// token position.
func (w *Wrapper) ReplaceClass(old, new string) (*Wrapper, error) {
	nodes, err := w.elements("ReplaceClass")
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		list := classList(n)
		changed := false
		for i, c := range list {
			if c == old {
				list[i] = new
				changed = true
			}
		}
		if changed {
			setClassList(n, list)
		}
	}
	return w, nil
}

// ClassItem returns the class token at index i of the single target's class
// list.
func (w *Wrapper) ClassItem(i int) (string, error) {
	t, err := w.single("ClassItem")
	if err != nil {
		return "", err
	}
	if t.Kind != KindElement {
		return "", &KindMismatchError{Method: "ClassItem", Accepted: []TargetKind{KindElement}, Got: t.Kind}
	}
	list := classList(t.Node)
	if i < 0 || i >= len(list) {
		return "", &MissingTargetError{Method: "ClassItem", Index: i, Len: len(list)}
	}
	return list[i], nil
}

// ClassLength returns the class token count of the single target.
func (w *Wrapper) ClassLength() (int, error) {
	t, err := w.single("ClassLength")
	if err != nil {
		return 0, err
	}
	if t.Kind != KindElement {
		return 0, &KindMismatchError{Method: "ClassLength", Accepted: []TargetKind{KindElement}, Got: t.Kind}
	}
	return len(classList(t.Node)), nil
}

// ClassList returns a copy of the single target's class tokens in order.
func (w *Wrapper) ClassList() ([]string, error) {
	t, err := w.single("ClassList")
	if err != nil {
		return nil, err
	}
	if t.Kind != KindElement {
		return nil, &KindMismatchError{Method: "ClassList", Accepted: []TargetKind{KindElement}, Got: t.Kind}
	}
	return classList(t.Node), nil
}
