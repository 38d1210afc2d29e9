// Package style provides inline-style access, the attribute/property alias
// tables, CSS value parsing and a computed-style cascade engine over
// x/net/html documents. CSS text is parsed with douceur; selectors are
// matched with cascadia.
package style

import (
	"strings"
	"sync"
	"unicode"
)

// CamelToKebab converts a camelCase property name to its kebab-case CSS
// form: "paddingTop" -> "padding-top". Names that are already kebab-case
// pass through unchanged.
func CamelToKebab(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// KebabToCamel converts a kebab-case CSS property name to camelCase:
// "padding-top" -> "paddingTop".
func KebabToCamel(s string) string {
	parts := strings.Split(s, "-")
	if len(parts) == 1 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// aliasTable maps the attribute dialect to the property dialect. The forward
// map is authoritative; the reverse view is derived and rebuilt on every
// mutation, so writing one direction updates both.
type aliasTable struct {
	mu      sync.RWMutex
	forward map[string]string
	reverse map[string]string
}

func newAliasTable(seed map[string]string) *aliasTable {
	t := &aliasTable{forward: make(map[string]string, len(seed))}
	for k, v := range seed {
		t.forward[k] = v
	}
	t.rebuild()
	return t
}

func (t *aliasTable) rebuild() {
	rev := make(map[string]string, len(t.forward))
	for attr, prop := range t.forward {
		rev[prop] = attr
	}
	t.reverse = rev
}

func (t *aliasTable) set(attr, prop string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.forward[attr] = prop
	t.rebuild()
}

func (t *aliasTable) delete(attr string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.forward, attr)
	t.rebuild()
}

func (t *aliasTable) toProp(attr string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if p, ok := t.forward[attr]; ok {
		return p
	}
	return KebabToCamel(attr)
}

func (t *aliasTable) toAttr(prop string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if a, ok := t.reverse[prop]; ok {
		return a
	}
	return CamelToKebab(prop)
}

// The exception set: attributes whose property names are not the plain
// camelCase of the attribute.
var attrProp = newAliasTable(map[string]string{
	"for":             "htmlFor",
	"class":           "className",
	"readonly":        "readOnly",
	"maxlength":       "maxLength",
	"minlength":       "minLength",
	"tabindex":        "tabIndex",
	"colspan":         "colSpan",
	"rowspan":         "rowSpan",
	"usemap":          "useMap",
	"accesskey":       "accessKey",
	"contenteditable": "contentEditable",
})

// AttrToProp translates an attribute name to its DOM property name.
func AttrToProp(attr string) string { return attrProp.toProp(strings.ToLower(attr)) }

// PropToAttr translates a DOM property name to its attribute name.
func PropToAttr(prop string) string { return attrProp.toAttr(prop) }

// SetAlias installs or replaces one attribute/property pair. Both directions
// of the public mapping update together.
func SetAlias(attr, prop string) { attrProp.set(strings.ToLower(attr), prop) }

// DeleteAlias removes one pair; translation falls back to case conversion.
func DeleteAlias(attr string) { attrProp.delete(strings.ToLower(attr)) }
