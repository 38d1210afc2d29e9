package tinyhtml

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

func compileSelector(method, selector string) (cascadia.SelectorGroup, error) {
	group, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, &TypeError{Method: method, Param: "selector", Msg: err.Error()}
	}
	return group, nil
}

func matches(group cascadia.SelectorGroup, n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, sel := range group {
		if sel.Match(n) {
			return true
		}
	}
	return false
}

func walkElements(root *html.Node, visit func(*html.Node) bool) {
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && !visit(n) {
			return false
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(root)
}

// Query returns a wrapper over the first descendant of root matching the
// selector, or an empty wrapper.
func Query(selector string, root *html.Node) (*Wrapper, error) {
	group, err := compileSelector("Query", selector)
	if err != nil {
		return nil, err
	}
	var found *html.Node
	walkElements(root, func(n *html.Node) bool {
		if matches(group, n) {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return fromNodes(nil), nil
	}
	return fromNodes([]*html.Node{found}), nil
}

// QueryAll returns a wrapper over every descendant of root matching the
// selector, in document order.
func QueryAll(selector string, root *html.Node) (*Wrapper, error) {
	group, err := compileSelector("QueryAll", selector)
	if err != nil {
		return nil, err
	}
	var out []*html.Node
	walkElements(root, func(n *html.Node) bool {
		if matches(group, n) {
			out = append(out, n)
		}
		return true
	})
	return fromNodes(out), nil
}

// GetByID returns a wrapper over the element with the given id, empty when
// absent.
func GetByID(id string, root *html.Node) *Wrapper {
	var found *html.Node
	walkElements(root, func(n *html.Node) bool {
		if attrValue(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return fromNodes(nil)
	}
	return fromNodes([]*html.Node{found})
}

// GetByClassName returns every element carrying the class under root.
func GetByClassName(class string, root *html.Node) *Wrapper {
	var out []*html.Node
	walkElements(root, func(n *html.Node) bool {
		for _, c := range strings.Fields(attrValue(n, "class")) {
			if c == class {
				out = append(out, n)
				break
			}
		}
		return true
	})
	return fromNodes(out)
}

// GetByName returns every element whose name attribute equals name.
func GetByName(name string, root *html.Node) *Wrapper {
	var out []*html.Node
	walkElements(root, func(n *html.Node) bool {
		if attrValue(n, "name") == name {
			out = append(out, n)
		}
		return true
	})
	return fromNodes(out)
}

// GetByTagNameNS returns every element with the local tag name, optionally
// restricted to a namespace.
func GetByTagNameNS(local, ns string, root *html.Node) *Wrapper {
	var out []*html.Node
	walkElements(root, func(n *html.Node) bool {
		if strings.EqualFold(n.Data, local) && (ns == "" || n.Namespace == ns) {
			out = append(out, n)
		}
		return true
	})
	return fromNodes(out)
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// -- Instance traversal --

func elementSibling(n *html.Node, next bool) *html.Node {
	cur := n
	for {
		if next {
			cur = cur.NextSibling
		} else {
			cur = cur.PrevSibling
		}
		if cur == nil {
			return nil
		}
		if cur.Type == html.ElementNode {
			return cur
		}
	}
}

// Parent returns the element (or document) parents of each target.
func (w *Wrapper) Parent() *Wrapper {
	var out []*html.Node
	for _, t := range w.targets {
		if t.Node != nil && t.Node.Parent != nil {
			out = appendUnique(out, t.Node.Parent)
		}
	}
	return fromNodes(out)
}

// Parents returns every ancestor of each target, closest first, stopping
// before the first ancestor matching the optional until selector.
func (w *Wrapper) Parents(until ...string) (*Wrapper, error) {
	var group cascadia.SelectorGroup
	if len(until) > 0 && until[0] != "" {
		var err error
		group, err = compileSelector("Parents", until[0])
		if err != nil {
			return nil, err
		}
	}
	var out []*html.Node
	for _, t := range w.targets {
		if t.Node == nil {
			continue
		}
		for p := t.Node.Parent; p != nil; p = p.Parent {
			if p.Type != html.ElementNode {
				break
			}
			if group != nil && matches(group, p) {
				break
			}
			out = appendUnique(out, p)
		}
	}
	return fromNodes(out), nil
}

// Next returns the immediately following element sibling of each target.
func (w *Wrapper) Next() *Wrapper {
	var out []*html.Node
	for _, t := range w.targets {
		if t.Node != nil {
			if s := elementSibling(t.Node, true); s != nil {
				out = appendUnique(out, s)
			}
		}
	}
	return fromNodes(out)
}

// Prev returns the immediately preceding element sibling of each target.
func (w *Wrapper) Prev() *Wrapper {
	var out []*html.Node
	for _, t := range w.targets {
		if t.Node != nil {
			if s := elementSibling(t.Node, false); s != nil {
				out = appendUnique(out, s)
			}
		}
	}
	return fromNodes(out)
}

// NextAll returns every following element sibling of each target.
func (w *Wrapper) NextAll() *Wrapper { return w.siblingRun(true, nil) }

// PrevAll returns every preceding element sibling of each target.
func (w *Wrapper) PrevAll() *Wrapper { return w.siblingRun(false, nil) }

// NextUntil returns following element siblings up to (excluding) the first
// matching the selector.
func (w *Wrapper) NextUntil(until string) (*Wrapper, error) {
	group, err := compileSelector("NextUntil", until)
	if err != nil {
		return nil, err
	}
	return w.siblingRun(true, group), nil
}

// PrevUntil returns preceding element siblings up to (excluding) the first
// matching the selector.
func (w *Wrapper) PrevUntil(until string) (*Wrapper, error) {
	group, err := compileSelector("PrevUntil", until)
	if err != nil {
		return nil, err
	}
	return w.siblingRun(false, group), nil
}

func (w *Wrapper) siblingRun(next bool, until cascadia.SelectorGroup) *Wrapper {
	var out []*html.Node
	for _, t := range w.targets {
		if t.Node == nil {
			continue
		}
		for s := elementSibling(t.Node, next); s != nil; s = elementSibling(s, next) {
			if until != nil && matches(until, s) {
				break
			}
			out = appendUnique(out, s)
		}
	}
	return fromNodes(out)
}

// Siblings returns every element sibling of each target, excluding the
// target itself.
func (w *Wrapper) Siblings() *Wrapper {
	var out []*html.Node
	for _, t := range w.targets {
		if t.Node == nil || t.Node.Parent == nil {
			continue
		}
		for c := t.Node.Parent.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c != t.Node {
				out = appendUnique(out, c)
			}
		}
	}
	return fromNodes(out)
}

// Children returns the element children of each target.
func (w *Wrapper) Children() *Wrapper {
	var out []*html.Node
	for _, t := range w.targets {
		if t.Node == nil {
			continue
		}
		for c := t.Node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				out = append(out, c)
			}
		}
	}
	return fromNodes(out)
}

// Contents returns the child nodes of each target, including text nodes.
// Template elements contribute their content children; iframe elements with
// an attached content window contribute that window's document.
func (w *Wrapper) Contents() *Wrapper {
	var out []*html.Node
	for _, t := range w.targets {
		n := t.Node
		if n == nil {
			continue
		}
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "iframe") {
			if win := windowFor(n); win != nil {
				if frameWin := win.FrameWindow(n); frameWin != nil {
					out = append(out, frameWin.Document())
					continue
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode || c.Type == html.TextNode {
				out = append(out, c)
			}
		}
	}
	return fromNodes(out)
}

// Find returns every descendant of each target matching the selector.
func (w *Wrapper) Find(selector string) (*Wrapper, error) {
	group, err := compileSelector("Find", selector)
	if err != nil {
		return nil, err
	}
	var out []*html.Node
	for _, t := range w.targets {
		if t.Node == nil {
			continue
		}
		walkElements(t.Node, func(n *html.Node) bool {
			if n != t.Node && matches(group, n) {
				out = appendUnique(out, n)
			}
			return true
		})
	}
	return fromNodes(out), nil
}

// matcher builds the per-element predicate behind Filter/Not/Is/Has:
// a selector string, a func(index, node) bool, a single node compared by
// identity, a []*html.Node or a *Wrapper compared by membership.
func matcher(method string, arg any) (func(int, *html.Node) bool, error) {
	switch v := arg.(type) {
	case string:
		group, err := compileSelector(method, v)
		if err != nil {
			return nil, err
		}
		return func(_ int, n *html.Node) bool { return matches(group, n) }, nil
	case func(int, *html.Node) bool:
		if v == nil {
			return nil, &TypeError{Method: method, Param: "arg", Msg: "predicate must not be nil"}
		}
		return v, nil
	case *html.Node:
		return func(_ int, n *html.Node) bool { return n == v }, nil
	case []*html.Node:
		set := make(map[*html.Node]bool, len(v))
		for _, n := range v {
			set[n] = true
		}
		return func(_ int, n *html.Node) bool { return set[n] }, nil
	case *Wrapper:
		set := make(map[*html.Node]bool, len(v.targets))
		for _, t := range v.targets {
			if t.Node != nil {
				set[t.Node] = true
			}
		}
		return func(_ int, n *html.Node) bool { return set[n] }, nil
	default:
		return nil, &TypeError{Method: method, Param: "arg", Msg: "expected selector, predicate, node or node list"}
	}
}

// Filter keeps the targets matching the argument.
func (w *Wrapper) Filter(arg any) (*Wrapper, error) {
	pred, err := matcher("Filter", arg)
	if err != nil {
		return nil, err
	}
	var out []*html.Node
	for i, t := range w.targets {
		if t.Node != nil && pred(i, t.Node) {
			out = append(out, t.Node)
		}
	}
	return fromNodes(out), nil
}

// Not keeps the targets not matching the argument.
func (w *Wrapper) Not(arg any) (*Wrapper, error) {
	pred, err := matcher("Not", arg)
	if err != nil {
		return nil, err
	}
	var out []*html.Node
	for i, t := range w.targets {
		if t.Node != nil && !pred(i, t.Node) {
			out = append(out, t.Node)
		}
	}
	return fromNodes(out), nil
}

// Is reports whether at least one target matches the argument.
func (w *Wrapper) Is(arg any) (bool, error) {
	pred, err := matcher("Is", arg)
	if err != nil {
		return false, err
	}
	for i, t := range w.targets {
		if t.Node != nil && pred(i, t.Node) {
			return true, nil
		}
	}
	return false, nil
}

// Has keeps the targets owning at least one descendant matching the
// argument.
func (w *Wrapper) Has(arg any) (*Wrapper, error) {
	pred, err := matcher("Has", arg)
	if err != nil {
		return nil, err
	}
	var out []*html.Node
	for _, t := range w.targets {
		if t.Node == nil {
			continue
		}
		found := false
		walkElements(t.Node, func(n *html.Node) bool {
			if n != t.Node && pred(0, n) {
				found = true
				return false
			}
			return true
		})
		if found {
			out = append(out, t.Node)
		}
	}
	return fromNodes(out), nil
}

// Closest walks each target and its ancestors, returning the first match
// per target. The walk stops without a match at the optional stop node.
func (w *Wrapper) Closest(arg any, stop ...*html.Node) (*Wrapper, error) {
	pred, err := matcher("Closest", arg)
	if err != nil {
		return nil, err
	}
	var stopAt *html.Node
	if len(stop) > 0 {
		stopAt = stop[0]
	}
	var out []*html.Node
	for _, t := range w.targets {
		for cur := t.Node; cur != nil; cur = cur.Parent {
			if cur.Type != html.ElementNode {
				break
			}
			if pred(0, cur) {
				out = appendUnique(out, cur)
				break
			}
			if cur == stopAt {
				break
			}
		}
	}
	return fromNodes(out), nil
}

// Clone returns deep (or shallow) copies of the targets. Clones never share
// identity with their sources.
func (w *Wrapper) Clone(deep bool) *Wrapper {
	var out []*html.Node
	for _, t := range w.targets {
		if t.Node != nil {
			out = append(out, cloneNode(t.Node, deep))
		}
	}
	return fromNodes(out)
}

func cloneNode(n *html.Node, deep bool) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	if deep {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			c.AppendChild(cloneNode(child, true))
		}
	}
	return c
}

func appendUnique(nodes []*html.Node, n *html.Node) []*html.Node {
	for _, existing := range nodes {
		if existing == n {
			return nodes
		}
	}
	return append(nodes, n)
}
