package style

import (
	"strings"

	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

// Declaration is one inline property/value pair in attribute order.
type Declaration struct {
	Property string
	Value    string
}

// GetAttr returns the raw value of an attribute on an element node.
func GetAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr writes an attribute, replacing an existing entry of the same name.
func SetAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr drops an attribute when present.
func RemoveAttr(n *html.Node, name string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr = append(n.Attr[:i:i], n.Attr[i+1:]...)
			return
		}
	}
}

// ParseInline parses style attribute text into ordered declarations. The
// heavy lifting is douceur's declaration parser; unparsable text yields an
// empty list rather than an error, as the attribute dialect is forgiving.
func ParseInline(text string) []Declaration {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	// douceur only closes a declaration on a semicolon, so attribute text
	// like "opacity: 0.8" would lose its last value without the terminator.
	if !strings.HasSuffix(text, ";") {
		text += ";"
	}
	decls, err := parser.ParseDeclarations(text)
	if err != nil {
		return nil
	}
	out := make([]Declaration, 0, len(decls))
	for _, d := range decls {
		prop := strings.TrimSpace(strings.ToLower(d.Property))
		if prop == "" {
			continue
		}
		out = append(out, Declaration{Property: prop, Value: strings.TrimSpace(d.Value)})
	}
	return out
}

// SerializeInline renders declarations back to attribute text.
func SerializeInline(decls []Declaration) string {
	if len(decls) == 0 {
		return ""
	}
	var b strings.Builder
	for i, d := range decls {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(d.Property)
		b.WriteString(": ")
		b.WriteString(d.Value)
		b.WriteString(";")
	}
	return b.String()
}

// InlineDecls returns the element's inline declarations in attribute order.
func InlineDecls(n *html.Node) []Declaration {
	text, ok := GetAttr(n, "style")
	if !ok {
		return nil
	}
	return ParseInline(text)
}

// GetInline reads one inline style value. The property may be given in
// either dialect; lookup is by the kebab-case form.
func GetInline(n *html.Node, prop string) string {
	prop = CamelToKebab(prop)
	for _, d := range InlineDecls(n) {
		if d.Property == prop {
			return d.Value
		}
	}
	return ""
}

// SetInline writes one inline style value, updating in place when the
// property already exists so declaration order is stable.
func SetInline(n *html.Node, prop, value string) {
	prop = CamelToKebab(prop)
	decls := InlineDecls(n)
	for i, d := range decls {
		if d.Property == prop {
			decls[i].Value = value
			SetAttr(n, "style", SerializeInline(decls))
			return
		}
	}
	decls = append(decls, Declaration{Property: prop, Value: value})
	SetAttr(n, "style", SerializeInline(decls))
}

// RemoveInline drops the named inline properties. The attribute itself is
// removed when no declarations remain.
func RemoveInline(n *html.Node, props ...string) {
	decls := InlineDecls(n)
	if len(decls) == 0 {
		return
	}
	drop := make(map[string]bool, len(props))
	for _, p := range props {
		drop[CamelToKebab(p)] = true
	}
	kept := decls[:0]
	for _, d := range decls {
		if !drop[d.Property] {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		RemoveAttr(n, "style")
		return
	}
	SetAttr(n, "style", SerializeInline(kept))
}

// ClearInline drops the entire style attribute.
func ClearInline(n *html.Node) { RemoveAttr(n, "style") }
