package tinyhtml

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/xkilldash9x/tinyhtml/browser"
)

// parseFragment parses markup in a body context and returns the top-level
// nodes, detached.
func parseFragment(method, markup string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, &TypeError{Method: method, Param: "content", Msg: err.Error()}
	}
	for _, n := range nodes {
		n.Parent = nil
		n.PrevSibling = nil
		n.NextSibling = nil
	}
	return nodes, nil
}

// contentNodes resolves insertion content: a text string, a node, a node
// slice or another wrapper. Strings always become text nodes; SetHTML is
// the only path that interprets markup.
func contentNodes(method string, content any) ([]*html.Node, error) {
	switch v := content.(type) {
	case string:
		return []*html.Node{{Type: html.TextNode, Data: v}}, nil
	case *html.Node:
		if v == nil {
			return nil, &TypeError{Method: method, Param: "content", Msg: "nil node"}
		}
		return []*html.Node{v}, nil
	case []*html.Node:
		return v, nil
	case *Wrapper:
		return v.Nodes(), nil
	default:
		return nil, &TypeError{Method: method, Param: "content", Msg: "expected markup, node, node list or wrapper"}
	}
}

// detach unhooks a node from its current position without touching its
// side-table state.
func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// insertEach runs one insertion per target. Content nodes are moved into the
// last target and deep-cloned into every earlier one, so a single source set
// can land in several places without aliasing.
func (w *Wrapper) insertEach(method string, content any, insert func(parent *html.Node, nodes []*html.Node)) (*Wrapper, error) {
	nodes, err := w.elements(method)
	if err != nil {
		return nil, err
	}
	src, err := contentNodes(method, content)
	if err != nil {
		return nil, err
	}
	if len(src) == 0 {
		return w, nil
	}
	for i, parent := range nodes {
		batch := src
		if i < len(nodes)-1 {
			batch = make([]*html.Node, len(src))
			for j, s := range src {
				batch[j] = cloneNode(s, true)
			}
		} else {
			for _, s := range src {
				detach(s)
			}
		}
		insert(parent, batch)
	}
	return w, nil
}

// Append inserts content as the last children of each target.
func (w *Wrapper) Append(content any) (*Wrapper, error) {
	return w.insertEach("Append", content, func(parent *html.Node, nodes []*html.Node) {
		for _, n := range nodes {
			parent.AppendChild(n)
		}
	})
}

// Prepend inserts content as the first children of each target.
func (w *Wrapper) Prepend(content any) (*Wrapper, error) {
	return w.insertEach("Prepend", content, func(parent *html.Node, nodes []*html.Node) {
		first := parent.FirstChild
		for _, n := range nodes {
			if first != nil {
				parent.InsertBefore(n, first)
			} else {
				parent.AppendChild(n)
			}
		}
	})
}

// Before inserts content as preceding siblings of each target.
func (w *Wrapper) Before(content any) (*Wrapper, error) {
	return w.insertEach("Before", content, func(target *html.Node, nodes []*html.Node) {
		if target.Parent == nil {
			return
		}
		for _, n := range nodes {
			target.Parent.InsertBefore(n, target)
		}
	})
}

// After inserts content as following siblings of each target, preserving
// content order.
func (w *Wrapper) After(content any) (*Wrapper, error) {
	return w.insertEach("After", content, func(target *html.Node, nodes []*html.Node) {
		if target.Parent == nil {
			return
		}
		anchor := target.NextSibling
		for _, n := range nodes {
			if anchor != nil {
				target.Parent.InsertBefore(n, anchor)
			} else {
				target.Parent.AppendChild(n)
			}
		}
	})
}

// ReplaceWith swaps each target for the content, releasing the replaced
// subtrees' bookkeeping.
func (w *Wrapper) ReplaceWith(content any) (*Wrapper, error) {
	return w.insertEach("ReplaceWith", content, func(target *html.Node, nodes []*html.Node) {
		if target.Parent == nil {
			return
		}
		parent := target.Parent
		for _, n := range nodes {
			parent.InsertBefore(n, target)
		}
		parent.RemoveChild(target)
		releaseSubtree(target)
	})
}

// AppendTo is Append with the roles flipped: the wrapper's targets move into
// the destination.
func (w *Wrapper) AppendTo(dest any) (*Wrapper, error) {
	d, err := asWrapper("AppendTo", dest)
	if err != nil {
		return nil, err
	}
	if _, err := d.Append(w); err != nil {
		return nil, err
	}
	return w, nil
}

// PrependTo is Prepend with the roles flipped.
func (w *Wrapper) PrependTo(dest any) (*Wrapper, error) {
	d, err := asWrapper("PrependTo", dest)
	if err != nil {
		return nil, err
	}
	if _, err := d.Prepend(w); err != nil {
		return nil, err
	}
	return w, nil
}

// InsertBefore is Before with the roles flipped.
func (w *Wrapper) InsertBefore(dest any) (*Wrapper, error) {
	d, err := asWrapper("InsertBefore", dest)
	if err != nil {
		return nil, err
	}
	if _, err := d.Before(w); err != nil {
		return nil, err
	}
	return w, nil
}

// InsertAfter is After with the roles flipped.
func (w *Wrapper) InsertAfter(dest any) (*Wrapper, error) {
	d, err := asWrapper("InsertAfter", dest)
	if err != nil {
		return nil, err
	}
	if _, err := d.After(w); err != nil {
		return nil, err
	}
	return w, nil
}

// ReplaceAll is ReplaceWith with the roles flipped: every destination is
// replaced by this wrapper's content.
func (w *Wrapper) ReplaceAll(dest any) (*Wrapper, error) {
	d, err := asWrapper("ReplaceAll", dest)
	if err != nil {
		return nil, err
	}
	if _, err := d.ReplaceWith(w); err != nil {
		return nil, err
	}
	return w, nil
}

func asWrapper(method string, dest any) (*Wrapper, error) {
	if dw, ok := dest.(*Wrapper); ok {
		return dw, nil
	}
	dw := &Wrapper{}
	if err := dw.absorb(method, dest); err != nil {
		return nil, err
	}
	return dw, nil
}

// Remove detaches each target from its parent and releases the subtree's
// side-table state (listeners, data, animation slots).
func (w *Wrapper) Remove() *Wrapper {
	for _, t := range w.targets {
		if t.Node == nil || t.Kind == KindDocument {
			continue
		}
		detach(t.Node)
		releaseSubtree(t.Node)
	}
	return w
}

// Empty removes all children of each target, releasing their bookkeeping.
// The targets themselves keep their listeners and data.
func (w *Wrapper) Empty() *Wrapper {
	for _, t := range w.targets {
		if t.Node == nil {
			continue
		}
		for c := t.Node.FirstChild; c != nil; {
			next := c.NextSibling
			t.Node.RemoveChild(c)
			releaseSubtree(c)
			c = next
		}
	}
	return w
}

// Text returns the concatenated text content of the targets.
func (w *Wrapper) Text() string {
	var b strings.Builder
	for _, t := range w.targets {
		if t.Node != nil {
			collectText(t.Node, &b)
		}
	}
	return b.String()
}

// SetText replaces each target's children with a single text node.
func (w *Wrapper) SetText(text string) *Wrapper {
	w.Empty()
	for _, t := range w.targets {
		if t.Node == nil || t.Kind == KindDocument {
			continue
		}
		t.Node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	return w
}

// HTML serializes the first target's children to markup.
func (w *Wrapper) HTML() (string, error) {
	t, err := w.single("HTML")
	if err != nil {
		return "", err
	}
	if t.Node == nil {
		return "", &KindMismatchError{Method: "HTML", Accepted: []TargetKind{KindElement, KindDocument}, Got: t.Kind}
	}
	var b strings.Builder
	for c := t.Node.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// SetHTML replaces each target's children with parsed markup.
func (w *Wrapper) SetHTML(markup string) (*Wrapper, error) {
	nodes, err := w.elements("SetHTML")
	if err != nil {
		return nil, err
	}
	w.Empty()
	for _, parent := range nodes {
		frag, err := parseFragment("SetHTML", markup)
		if err != nil {
			return nil, err
		}
		for _, n := range frag {
			parent.AppendChild(n)
		}
	}
	return w, nil
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

// releaseSubtree drops side-table entries for a node and every descendant.
func releaseSubtree(root *html.Node) {
	browser.Release(root)
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		releaseSubtree(c)
	}
}
