// Package tinyhtml is a fluent toolkit over an emulated DOM: element
// selection and traversal, box-model measurement, class/attribute/style and
// data access, event registration with bookkeeping, and a style-effect
// animation dispatcher. Cross-context messaging lives in the crosswin
// subpackage; the environment substrate lives in the browser subpackage.
package tinyhtml

import (
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/tinyhtml/browser"
	"github.com/xkilldash9x/tinyhtml/style"
)

// TargetKind tags what a wrapper target is. The operation set a wrapper
// exposes depends on the kinds it holds.
type TargetKind int

const (
	KindElement TargetKind = iota
	KindDocument
	KindWindow
	KindText
)

func (k TargetKind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindDocument:
		return "document"
	case KindWindow:
		return "window"
	case KindText:
		return "text"
	}
	return "unknown"
}

// Target is one entry of a wrapper's sequence: exactly one of an element,
// a document root, a window, or a text node.
type Target struct {
	Kind TargetKind
	Node *html.Node      // element, document and text kinds
	Win  *browser.Window // window kind
}

// key returns the side-table identity of the target.
func (t Target) key() any {
	if t.Kind == KindWindow {
		return t.Win
	}
	return t.Node
}

// Wrapper is a chainable handle over an ordered sequence of targets.
type Wrapper struct {
	targets []Target

	mu      sync.Mutex
	private map[string]any
}

// classifyNode tags a node, rejecting the node types the toolkit does not
// handle (comments, doctypes).
func classifyNode(n *html.Node) (TargetKind, bool) {
	switch n.Type {
	case html.ElementNode:
		return KindElement, true
	case html.DocumentNode:
		return KindDocument, true
	case html.TextNode:
		return KindText, true
	default:
		return 0, false
	}
}

// Wrap builds a wrapper from a single target, a slice of targets, or a node
// list. Accepted inputs: *html.Node, *browser.Window, []*html.Node,
// []*browser.Window, []any mixing both. Passing a *Wrapper fails: handles
// never nest.
func Wrap(target any) (*Wrapper, error) {
	const method = "Wrap"
	w := &Wrapper{}
	if err := w.absorb(method, target); err != nil {
		return nil, err
	}
	if len(w.targets) == 0 {
		return nil, &TypeError{Method: method, Param: "target", Msg: "no usable targets"}
	}
	return w, nil
}

// WrapAll builds a wrapper from several targets at once.
func WrapAll(targets ...any) (*Wrapper, error) {
	const method = "WrapAll"
	w := &Wrapper{}
	for _, t := range targets {
		if err := w.absorb(method, t); err != nil {
			return nil, err
		}
	}
	if len(w.targets) == 0 {
		return nil, &TypeError{Method: method, Param: "targets", Msg: "no usable targets"}
	}
	return w, nil
}

func (w *Wrapper) absorb(method string, target any) error {
	switch v := target.(type) {
	case *Wrapper:
		return &TypeError{Method: method, Param: "target", Msg: "wrappers cannot nest inside wrappers"}
	case *html.Node:
		if v == nil {
			return &TypeError{Method: method, Param: "target", Msg: "nil node"}
		}
		kind, ok := classifyNode(v)
		if !ok {
			return &TypeError{Method: method, Param: "target", Msg: "node is not an element, document or text node"}
		}
		w.targets = append(w.targets, Target{Kind: kind, Node: v})
	case *browser.Window:
		if v == nil {
			return &TypeError{Method: method, Param: "target", Msg: "nil window"}
		}
		w.targets = append(w.targets, Target{Kind: KindWindow, Win: v})
	case []*html.Node:
		for _, n := range v {
			if err := w.absorb(method, n); err != nil {
				return err
			}
		}
	case []*browser.Window:
		for _, win := range v {
			if err := w.absorb(method, win); err != nil {
				return err
			}
		}
	case []any:
		for _, t := range v {
			if err := w.absorb(method, t); err != nil {
				return err
			}
		}
	default:
		return &TypeError{Method: method, Param: "target", Msg: "unsupported target type"}
	}
	return nil
}

// fromNodes builds a wrapper from traversal results; empty results yield an
// empty wrapper, which is legal for chaining.
func fromNodes(nodes []*html.Node) *Wrapper {
	w := &Wrapper{}
	for _, n := range nodes {
		if kind, ok := classifyNode(n); ok {
			w.targets = append(w.targets, Target{Kind: kind, Node: n})
		}
	}
	return w
}

// Parse parses a full HTML document and returns a wrapper over its document
// root.
func Parse(markup string) (*Wrapper, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, &TypeError{Method: "Parse", Param: "markup", Msg: err.Error()}
	}
	return Wrap(doc)
}

// Length returns the number of targets.
func (w *Wrapper) Length() int { return len(w.targets) }

// IsEmpty reports whether the wrapper holds no targets.
func (w *Wrapper) IsEmpty() bool { return len(w.targets) == 0 }

// Targets returns a copy of the target sequence.
func (w *Wrapper) Targets() []Target {
	out := make([]Target, len(w.targets))
	copy(out, w.targets)
	return out
}

// Get returns the target at index i.
func (w *Wrapper) Get(i int) (Target, error) {
	if i < 0 || i >= len(w.targets) {
		return Target{}, &MissingTargetError{Method: "Get", Index: i, Len: len(w.targets)}
	}
	return w.targets[i], nil
}

// Nodes returns the node targets in order, skipping windows.
func (w *Wrapper) Nodes() []*html.Node {
	out := make([]*html.Node, 0, len(w.targets))
	for _, t := range w.targets {
		if t.Node != nil {
			out = append(out, t.Node)
		}
	}
	return out
}

// single enforces the exactly-one-target contract.
func (w *Wrapper) single(method string) (Target, error) {
	if len(w.targets) != 1 {
		return Target{}, &CardinalityError{Method: method, Got: len(w.targets), Want: 1}
	}
	return w.targets[0], nil
}

// requireKinds checks every target against the accepted kinds.
func (w *Wrapper) requireKinds(method string, accepted ...TargetKind) error {
	for _, t := range w.targets {
		ok := false
		for _, k := range accepted {
			if t.Kind == k {
				ok = true
				break
			}
		}
		if !ok {
			return &KindMismatchError{Method: method, Accepted: accepted, Got: t.Kind}
		}
	}
	return nil
}

// elements returns the element targets after a kind check covering the
// whole sequence.
func (w *Wrapper) elements(method string) ([]*html.Node, error) {
	if err := w.requireKinds(method, KindElement); err != nil {
		return nil, err
	}
	return w.Nodes(), nil
}

// -- Computed style plumbing --

// Style engines are cached per document root so cascade compilation happens
// once per document.
var engines = struct {
	sync.Mutex
	m map[*html.Node]*style.Engine
}{m: make(map[*html.Node]*style.Engine)}

// documentRoot walks to the topmost node of n's tree.
func documentRoot(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

func engineFor(n *html.Node) *style.Engine {
	root := documentRoot(n)
	engines.Lock()
	defer engines.Unlock()
	if e, ok := engines.m[root]; ok {
		return e
	}
	e := style.EngineForDocument(root)
	engines.m[root] = e
	return e
}

// InvalidateStyles drops the cached cascade for the document owning n, used
// after stylesheet mutation.
func InvalidateStyles(n *html.Node) {
	root := documentRoot(n)
	engines.Lock()
	defer engines.Unlock()
	delete(engines.m, root)
}

// computed returns the computed style record of an element.
func computed(n *html.Node) map[string]string {
	return engineFor(n).Computed(n)
}

// windowFor finds the owning window of a node, nil for detached fragments.
func windowFor(n *html.Node) *browser.Window {
	return browser.WindowForDocument(documentRoot(n))
}

// displayed reports whether an element currently has a rendered box: its
// computed display and those of its ancestors are not none.
func displayed(n *html.Node) bool {
	e := engineFor(n)
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if e.Computed(cur)["display"] == "none" {
			return false
		}
	}
	return true
}
