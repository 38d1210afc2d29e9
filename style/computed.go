package style

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

// Style origins in cascade order. Inline declarations outrank author sheets,
// which outrank the user-agent defaults; !important inverts between groups.
const (
	originUserAgent = iota
	originAuthor
	originInline
)

// defaultUserAgentCSS is the minimal stylesheet the computed-style engine
// starts from. It covers the display and spacing defaults measurement
// depends on.
const defaultUserAgentCSS = `
html, body, div, p, h1, h2, h3, h4, h5, h6, ul, ol, li, form, header, footer,
section, article, nav, main, aside, figure, figcaption, blockquote, pre,
fieldset, table, hr, address, dl, dd, dt {
    display: block;
}
head, style, script, title, meta, link { display: none; }
span, a, b, i, em, strong, small, code, label, img, sub, sup { display: inline; }
input, button, textarea, select, iframe { display: inline-block; }
body { margin: 8px; }
ul, ol { padding-left: 40px; }
`

type compiledRule struct {
	sel    cascadia.Sel
	decls  []*css.Declaration
	origin int
	order  int
}

// Engine computes the cascaded style of elements from user-agent defaults,
// author stylesheets and inline declarations.
type Engine struct {
	mu    sync.RWMutex
	rules []compiledRule
	order int
}

// NewEngine creates an engine seeded with the user-agent defaults.
func NewEngine() *Engine {
	e := &Engine{}
	// The UA sheet is under our control; a parse failure here is a
	// programming error.
	if err := e.addSheet(defaultUserAgentCSS, originUserAgent); err != nil {
		panic(fmt.Sprintf("style: user agent sheet: %v", err))
	}
	return e
}

// AddSheet parses author CSS text and appends its rules to the cascade.
func (e *Engine) AddSheet(cssText string) error {
	return e.addSheet(cssText, originAuthor)
}

func (e *Engine) addSheet(cssText string, origin int) error {
	sheet, err := parser.Parse(cssText)
	if err != nil {
		return fmt.Errorf("style: parsing stylesheet: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, rule := range sheet.Rules {
		if rule.Kind != css.QualifiedRule {
			continue // at-rules (@media etc.) are out of scope
		}
		for _, selText := range rule.Selectors {
			group, err := cascadia.ParseGroup(selText)
			if err != nil {
				continue // skip selectors cascadia cannot express
			}
			for _, sel := range group {
				e.order++
				e.rules = append(e.rules, compiledRule{
					sel:    sel,
					decls:  rule.Declarations,
					origin: origin,
					order:  e.order,
				})
			}
		}
	}
	return nil
}

// EngineForDocument builds an engine from every <style> element of a parsed
// document.
func EngineForDocument(doc *html.Node) *Engine {
	e := NewEngine()
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "style") {
			var text strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					text.WriteString(c.Data)
				}
			}
			_ = e.AddSheet(text.String())
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if doc != nil {
		walk(doc)
	}
	return e
}

type scoredDecl struct {
	decl        *css.Declaration
	priority    int
	specificity cascadia.Specificity
	order       int
}

// cascadePriority groups declarations so that important author/inline
// declarations outrank every normal one, mirroring the cascade.
func cascadePriority(origin int, important bool) int {
	if important {
		return 3 + (originInline - origin)
	}
	return origin
}

// ownStyles resolves the element's declared styles without inheritance.
func (e *Engine) ownStyles(n *html.Node) map[string]string {
	var decls []scoredDecl
	order := 0

	e.mu.RLock()
	for _, rule := range e.rules {
		if !rule.sel.Match(n) {
			continue
		}
		for _, d := range rule.decls {
			decls = append(decls, scoredDecl{
				decl:        d,
				priority:    cascadePriority(rule.origin, d.Important),
				specificity: rule.sel.Specificity(),
				order:       rule.order,
			})
			order = rule.order
		}
	}
	e.mu.RUnlock()

	for i, d := range InlineDecls(n) {
		decls = append(decls, scoredDecl{
			decl:     &css.Declaration{Property: d.Property, Value: d.Value},
			priority: cascadePriority(originInline, false),
			order:    order + 1 + i,
		})
	}

	sort.SliceStable(decls, func(i, j int) bool {
		a, b := decls[i], decls[j]
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		if a.specificity != b.specificity {
			return a.specificity.Less(b.specificity)
		}
		return a.order < b.order
	})

	styles := make(map[string]string)
	for _, sd := range decls {
		prop := strings.ToLower(sd.decl.Property)
		val := strings.TrimSpace(sd.decl.Value)
		styles[prop] = val
		expandShorthand(styles, prop, val)
	}
	return styles
}

var inheritable = map[string]bool{
	"color":       true,
	"font-family": true,
	"font-size":   true,
	"font-weight": true,
	"line-height": true,
	"text-align":  true,
	"visibility":  true,
	"cursor":      true,
}

// Computed returns the computed style record for an element: cascade,
// inheritance of the inheritable set down the ancestor chain, and display
// defaults.
func (e *Engine) Computed(n *html.Node) map[string]string {
	if n == nil || n.Type != html.ElementNode {
		return map[string]string{}
	}

	// Resolve ancestors root-first so inherited values flow downward.
	var chain []*html.Node
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode {
			chain = append(chain, cur)
		}
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	var inheritedFrom map[string]string
	var styles map[string]string
	for _, el := range chain {
		styles = e.ownStyles(el)
		for prop, val := range styles {
			if val == "inherit" {
				if pv, ok := inheritedFrom[prop]; ok {
					styles[prop] = pv
				}
			}
		}
		for prop := range inheritable {
			if _, ok := styles[prop]; !ok {
				if pv, ok := inheritedFrom[prop]; ok {
					styles[prop] = pv
				}
			}
		}
		inheritedFrom = styles
	}

	if _, ok := styles["display"]; !ok {
		styles["display"] = "inline"
	}
	if _, ok := styles["opacity"]; !ok {
		styles["opacity"] = "1"
	}
	if _, ok := styles["box-sizing"]; !ok {
		styles["box-sizing"] = "content-box"
	}
	return styles
}

// Lookup reads one property from a computed record with a fallback.
func Lookup(computed map[string]string, prop, fallback string) string {
	if v, ok := computed[prop]; ok && v != "" {
		return v
	}
	return fallback
}

// expandShorthand rewrites a just-applied shorthand into its longhand
// sides. It runs inside the cascade loop, so a shorthand overwrites every
// side it covers and any longhand declared later still lands on top.
func expandShorthand(styles map[string]string, prop, val string) {
	switch prop {
	case "margin":
		expand1To4(styles, val, "margin-top", "margin-right", "margin-bottom", "margin-left")
	case "padding":
		expand1To4(styles, val, "padding-top", "padding-right", "padding-bottom", "padding-left")
	case "border-width":
		expand1To4(styles, val, "border-top-width", "border-right-width", "border-bottom-width", "border-left-width")
	case "border":
		width := borderShorthandWidth(val)
		for _, side := range []string{"border-top-width", "border-right-width", "border-bottom-width", "border-left-width"} {
			styles[side] = width
		}
	}
}

func expand1To4(styles map[string]string, val, top, right, bottom, left string) {
	parts := strings.Fields(val)
	var t, r, b, l string
	switch len(parts) {
	case 1:
		t, r, b, l = parts[0], parts[0], parts[0], parts[0]
	case 2:
		t, r, b, l = parts[0], parts[1], parts[0], parts[1]
	case 3:
		t, r, b, l = parts[0], parts[1], parts[2], parts[1]
	case 4:
		t, r, b, l = parts[0], parts[1], parts[2], parts[3]
	default:
		return
	}
	styles[top] = t
	styles[right] = r
	styles[bottom] = b
	styles[left] = l
}

// borderShorthandWidth picks the width component out of a border shorthand,
// resolving the named keywords.
func borderShorthandWidth(val string) string {
	for _, part := range strings.Fields(val) {
		switch part {
		case "thin":
			return "1px"
		case "medium":
			return "3px"
		case "thick":
			return "5px"
		case "none", "hidden":
			return "0px"
		}
		if len(part) > 0 && (part[0] >= '0' && part[0] <= '9') {
			return part
		}
	}
	return "3px" // medium
}
