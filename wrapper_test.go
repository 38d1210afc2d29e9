package tinyhtml_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/net/html"

	tinyhtml "github.com/xkilldash9x/tinyhtml"
	"github.com/xkilldash9x/tinyhtml/browser"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const page = `<html><head><style>
#list { width: 200px; }
.item { padding: 4px; }
</style></head><body>
<div id="wrap" class="outer shell">
  <ul id="list">
    <li class="item first">one</li>
    <li class="item">two</li>
    <li class="item last">three</li>
  </ul>
  <p id="tail">done</p>
</div>
</body></html>`

func parsePage(t *testing.T, markup string) *tinyhtml.Wrapper {
	t.Helper()
	w, err := tinyhtml.Parse(markup)
	require.NoError(t, err)
	return w
}

// nth rewraps the target at index i of w.
func nth(t *testing.T, w *tinyhtml.Wrapper, i int) *tinyhtml.Wrapper {
	t.Helper()
	target, err := w.Get(i)
	require.NoError(t, err)
	out, err := tinyhtml.Wrap(target.Node)
	require.NoError(t, err)
	return out
}

func TestWrapRejectsNesting(t *testing.T) {
	doc := parsePage(t, page)
	_, err := tinyhtml.Wrap(doc)
	var te *tinyhtml.TypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Wrap", te.Method)
}

func TestQueryAndTraversal(t *testing.T) {
	doc := parsePage(t, page)
	root := doc.Nodes()[0]

	items, err := tinyhtml.QueryAll(".item", root)
	require.NoError(t, err)
	assert.Equal(t, 3, items.Length())

	first, err := tinyhtml.Query(".item", root)
	require.NoError(t, err)
	assert.Equal(t, "one", first.Text())

	wrap := tinyhtml.GetByID("wrap", root)
	require.Equal(t, 1, wrap.Length())

	// Missing ids are empty wrappers, not errors.
	assert.True(t, tinyhtml.GetByID("missing", root).IsEmpty())

	list, err := wrap.Find("#list")
	require.NoError(t, err)
	assert.Equal(t, 3, list.Children().Length())

	second := nth(t, list.Children(), 1)
	assert.Equal(t, "two", second.Text())
	assert.Equal(t, "one", second.Prev().Text())
	assert.Equal(t, "three", second.Next().Text())
	assert.Equal(t, 2, second.Siblings().Length())

	closest, err := second.Closest(".outer")
	require.NoError(t, err)
	require.Equal(t, 1, closest.Length())
	id, err := closest.ID()
	require.NoError(t, err)
	assert.Equal(t, "wrap", id)

	// An invalid selector is a type error, not a panic.
	_, err = wrap.Find("[[")
	var te *tinyhtml.TypeError
	assert.ErrorAs(t, err, &te)
}

func TestFilterNotHas(t *testing.T) {
	doc := parsePage(t, page)
	root := doc.Nodes()[0]
	items, err := tinyhtml.QueryAll("li", root)
	require.NoError(t, err)

	firsts, err := items.Filter(".first")
	require.NoError(t, err)
	assert.Equal(t, 1, firsts.Length())

	rest, err := items.Not(".first")
	require.NoError(t, err)
	assert.Equal(t, 2, rest.Length())

	even, err := items.Filter(func(i int, _ *html.Node) bool { return i%2 == 0 })
	require.NoError(t, err)
	assert.Equal(t, 2, even.Length())

	hasList, err := tinyhtml.GetByID("wrap", root).Has("li")
	require.NoError(t, err)
	assert.Equal(t, 1, hasList.Length())

	isItem, err := items.Is(".last")
	require.NoError(t, err)
	assert.True(t, isItem)
}

func TestClasses(t *testing.T) {
	doc := parsePage(t, page)
	root := doc.Nodes()[0]
	wrap := tinyhtml.GetByID("wrap", root)

	has, err := wrap.HasClass("outer")
	require.NoError(t, err)
	assert.True(t, has)

	_, err = wrap.AddClass("outer extra")
	require.NoError(t, err)
	list, err := wrap.ClassList()
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "shell", "extra"}, list, "duplicates are skipped, order kept")

	_, err = wrap.ToggleClass("extra")
	require.NoError(t, err)
	has, _ = wrap.HasClass("extra")
	assert.False(t, has)

	_, err = wrap.ToggleClass("extra", false)
	require.NoError(t, err)
	has, _ = wrap.HasClass("extra")
	assert.False(t, has, "force false never adds")

	_, err = wrap.ReplaceClass("shell", "frame")
	require.NoError(t, err)
	item, err := wrap.ClassItem(1)
	require.NoError(t, err)
	assert.Equal(t, "frame", item)

	n, err := wrap.ClassLength()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = wrap.ClassItem(9)
	var mt *tinyhtml.MissingTargetError
	assert.ErrorAs(t, err, &mt)
}

func TestAttrsAndProps(t *testing.T) {
	doc := parsePage(t, page)
	root := doc.Nodes()[0]
	w, err := tinyhtml.Query("#tail", root)
	require.NoError(t, err)

	_, err = w.SetAttr("data-state", "ready")
	require.NoError(t, err)
	v, ok, err := w.Attr("data-state")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ready", v)

	// Boolean attributes set via bool values.
	_, err = w.SetAttr("hidden", true)
	require.NoError(t, err)
	has, err := w.HasAttr("hidden")
	require.NoError(t, err)
	assert.True(t, has)

	_, err = w.SetAttr("hidden", false)
	require.NoError(t, err)
	has, _ = w.HasAttr("hidden")
	assert.False(t, has)

	// The property dialect bridges to attributes through the alias table.
	_, err = w.AddProp("className", "note")
	require.NoError(t, err)
	cls, ok, err := w.Attr("class")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "note", cls)

	_, err = w.ToggleProp("disabled")
	require.NoError(t, err)
	p, err := w.Prop("disabled")
	require.NoError(t, err)
	assert.Equal(t, true, p)

	_, err = w.ToggleProp("className")
	var de *tinyhtml.DomainError
	assert.ErrorAs(t, err, &de, "non-boolean properties cannot toggle")
}

func TestInlineStyles(t *testing.T) {
	doc := parsePage(t, page)
	root := doc.Nodes()[0]
	w, err := tinyhtml.Query("#tail", root)
	require.NoError(t, err)

	// Bare numbers become px except for unitless properties.
	_, err = w.SetStyle("width", 120)
	require.NoError(t, err)
	_, err = w.SetStyle("opacity", 0.5)
	require.NoError(t, err)
	v, err := w.GetStyle("width")
	require.NoError(t, err)
	assert.Equal(t, "120px", v)
	v, _ = w.GetStyle("opacity")
	assert.Equal(t, "0.5", v)

	_, err = w.SetStyle("width", true)
	var te *tinyhtml.TypeError
	assert.ErrorAs(t, err, &te, "booleans are never style values")

	snap, err := w.Style(&tinyhtml.StyleSnapshotOptions{CamelCase: true})
	require.NoError(t, err)
	assert.Equal(t, "120px", snap["width"])

	// Toggle alternates between the two values; anything else resets to the
	// first.
	_, err = w.ToggleStyle("width", 50, 80)
	require.NoError(t, err)
	v, _ = w.GetStyle("width")
	assert.Equal(t, "50px", v, "a foreign value toggles to the first")
	_, err = w.ToggleStyle("width", 50, 80)
	require.NoError(t, err)
	v, _ = w.GetStyle("width")
	assert.Equal(t, "80px", v)
	_, err = w.ToggleStyle("width", 50, 80)
	require.NoError(t, err)
	v, _ = w.GetStyle("width")
	assert.Equal(t, "50px", v)

	_, err = w.ClearStyle()
	require.NoError(t, err)
	text, err := w.StyleText()
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestComputedCss(t *testing.T) {
	doc := parsePage(t, page)
	root := doc.Nodes()[0]
	list, err := tinyhtml.Query("#list", root)
	require.NoError(t, err)

	v, err := list.Css("width")
	require.NoError(t, err)
	assert.Equal(t, "200px", v, "author sheet applies")

	f, err := list.CssFloat("width")
	require.NoError(t, err)
	assert.Equal(t, 200.0, f)

	item, err := tinyhtml.Query(".item", root)
	require.NoError(t, err)
	rec, err := item.CssList("padding-top", "paddingBottom")
	require.NoError(t, err)
	assert.Equal(t, "4px", rec["padding-top"], "shorthand expands per side")
	assert.Equal(t, "4px", rec["padding-bottom"], "camelCase names normalize")
}

func TestInsertAndRemove(t *testing.T) {
	doc := parsePage(t, page)
	root := doc.Nodes()[0]
	items, err := tinyhtml.QueryAll("li", root)
	require.NoError(t, err)

	em := &html.Node{Type: html.ElementNode, Data: "em"}
	_, err = items.Append(em)
	require.NoError(t, err)
	ems, err := tinyhtml.QueryAll("li em", root)
	require.NoError(t, err)
	assert.Equal(t, 3, ems.Length(), "content is cloned into every target")

	tail, err := tinyhtml.Query("#tail", root)
	require.NoError(t, err)
	_, err = tail.Before(&html.Node{Type: html.ElementNode, Data: "hr"})
	require.NoError(t, err)
	prev := tail.Prev()
	tag, err := prev.TagName()
	require.NoError(t, err)
	assert.Equal(t, "HR", tag)

	// Remove drops the node and its side-table bookkeeping.
	first, err := tinyhtml.Query(".first", root)
	require.NoError(t, err)
	_, err = first.On("click", func(*browser.Event) {}, nil)
	require.NoError(t, err)
	require.True(t, first.HasEventListener("click"))
	first.Remove()
	assert.False(t, first.HasEventListener("click"))

	items, err = tinyhtml.QueryAll("li", root)
	require.NoError(t, err)
	assert.Equal(t, 2, items.Length())
}

func TestStringContentInsertsAsText(t *testing.T) {
	doc := parsePage(t, page)
	root := doc.Nodes()[0]
	tail, err := tinyhtml.Query("#tail", root)
	require.NoError(t, err)

	// Angle brackets in string content are data, not markup. SetHTML is the
	// only way in for elements.
	_, err = tail.Append("<em>injected</em>")
	require.NoError(t, err)
	ems, err := tinyhtml.QueryAll("#tail em", root)
	require.NoError(t, err)
	assert.Zero(t, ems.Length(), "string content never parses as markup")
	assert.Contains(t, tail.Text(), "<em>injected</em>")

	_, err = tail.Prepend("plain")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tail.Text(), "plain"))
}

func TestTextAndHTML(t *testing.T) {
	doc := parsePage(t, page)
	root := doc.Nodes()[0]
	tail, err := tinyhtml.Query("#tail", root)
	require.NoError(t, err)

	assert.Equal(t, "done", tail.Text())
	tail.SetText("over")
	assert.Equal(t, "over", tail.Text())

	_, err = tail.SetHTML(`<b>bold</b> plain`)
	require.NoError(t, err)
	h, err := tail.HTML()
	require.NoError(t, err)
	assert.Equal(t, "<b>bold</b> plain", h)
}

func TestEventsOnWrapper(t *testing.T) {
	doc := parsePage(t, page)
	root := doc.Nodes()[0]
	items, err := tinyhtml.QueryAll("li", root)
	require.NoError(t, err)

	var calls int
	h := func(*browser.Event) { calls++ }

	// Space-separated names register once per event per target,
	// duplicates collapsing.
	_, err = items.On("ping pong ping", h, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, items.ListenerCount(""))

	items.Trigger("ping", nil)
	assert.Equal(t, 3, calls)

	_, err = items.Off("ping", h, nil)
	require.NoError(t, err)
	items.Trigger("ping", nil)
	assert.Equal(t, 3, calls)

	calls = 0
	_, err = items.Once("pulse", h, nil)
	require.NoError(t, err)
	items.Trigger("pulse", nil)
	items.Trigger("pulse", nil)
	assert.Equal(t, 3, calls, "once registrations fire a single time per target")

	items.OffAllTypes()
	assert.Zero(t, items.ListenerCount(""))
}

func TestHoverSingleHandlerServesBothSides(t *testing.T) {
	doc := parsePage(t, page)
	root := doc.Nodes()[0]
	tail, err := tinyhtml.Query("#tail", root)
	require.NoError(t, err)

	var calls int
	_, err = tail.Hover(func(*browser.Event) { calls++ }, nil)
	require.NoError(t, err)

	tail.Trigger("mouseenter", nil)
	tail.Trigger("mouseleave", nil)
	assert.Equal(t, 2, calls, "an omitted leave handler reuses the enter handler")

	_, err = tail.Hover(nil, nil)
	var te *tinyhtml.TypeError
	assert.ErrorAs(t, err, &te)
}

func TestOnPasteRoutesByKind(t *testing.T) {
	doc := parsePage(t, page)
	root := doc.Nodes()[0]
	tail, err := tinyhtml.Query("#tail", root)
	require.NoError(t, err)

	var gotFiles []*browser.File
	var gotText []string
	_, err = tail.OnPaste(
		func(_ *browser.Event, files []*browser.File) { gotFiles = files },
		func(_ *browser.Event, texts []string) { gotText = texts },
	)
	require.NoError(t, err)

	tail.TriggerEvent(&browser.Event{Type: "paste", ClipboardData: &browser.DataTransfer{
		Items: []browser.DataTransferItem{
			browser.NewFileItem(&browser.File{Name: "shot.png", Type: "image/png"}),
			browser.NewStringItem("text/plain", "hello"),
		},
	}})

	require.Len(t, gotFiles, 1)
	assert.Equal(t, "shot.png", gotFiles[0].Name)
	assert.Equal(t, []string{"hello"}, gotText)

	// A text-only paste never touches the file callback.
	gotFiles = nil
	tail.TriggerEvent(&browser.Event{Type: "paste", ClipboardData: &browser.DataTransfer{
		Items: []browser.DataTransferItem{browser.NewStringItem("text/plain", "again")},
	}})
	assert.Nil(t, gotFiles)
	assert.Equal(t, []string{"again"}, gotText)
}

func TestOffAllTypesKeepsFiltered(t *testing.T) {
	doc := parsePage(t, page)
	root := doc.Nodes()[0]
	tail, err := tinyhtml.Query("#tail", root)
	require.NoError(t, err)

	_, err = tail.On("click", func(*browser.Event) {}, nil)
	require.NoError(t, err)
	_, err = tail.On("ping", func(*browser.Event) {}, nil)
	require.NoError(t, err)

	tail.OffAllTypes(func(_ browser.Handler, event string) bool { return event == "click" })
	assert.True(t, tail.HasEventListener("click"))
	assert.False(t, tail.HasEventListener("ping"))

	tail.OffAllTypes()
	assert.Zero(t, tail.ListenerCount(""))
}

func TestSharedAndPrivateData(t *testing.T) {
	doc := parsePage(t, page)
	root := doc.Nodes()[0]
	a, err := tinyhtml.Query("#tail", root)
	require.NoError(t, err)
	b, err := tinyhtml.Query("#tail", root)
	require.NoError(t, err)

	a.SetData("n", 7)
	v, ok, err := b.Data("n")
	require.NoError(t, err)
	assert.True(t, ok, "shared data follows the target, not the wrapper")
	assert.Equal(t, 7, v)

	a.SetPrivateData("n", 1)
	_, ok = b.PrivateData("n")
	assert.False(t, ok, "private data stays with the wrapper value")

	tinyhtml.GetByID("tail", root).Remove()
	_, ok, _ = b.Data("n")
	assert.False(t, ok, "removal releases shared data")
}

const boxPage = `<html><body>
<div id="box" style="width: 100px; height: 60px; padding: 10px; border-width: 2px; border-style: solid; margin: 5px"></div>
<div id="bb" style="box-sizing: border-box; width: 100px; padding: 10px; border-width: 2px"></div>
<div id="hidden" style="display: none; width: 80px"></div>
</body></html>`

func TestBoxModelMeasurement(t *testing.T) {
	doc := parsePage(t, boxPage)
	root := doc.Nodes()[0]

	box, err := tinyhtml.Query("#box", root)
	require.NoError(t, err)

	width, err := box.Width()
	require.NoError(t, err)
	assert.Equal(t, 100.0, width, "content width")

	inner, err := box.InnerWidth()
	require.NoError(t, err)
	assert.Equal(t, 120.0, inner, "content plus padding")

	outer, err := box.OuterWidth()
	require.NoError(t, err)
	assert.Equal(t, 124.0, outer, "border box")

	outerM, err := box.OuterWidth(true)
	require.NoError(t, err)
	assert.Equal(t, 134.0, outerM, "border box plus margin")

	rect, err := box.Rect()
	require.NoError(t, err)
	assert.Equal(t, 124.0, rect.Width)
	assert.Equal(t, 84.0, rect.Height)

	// Under border-box sizing the declared width is the outer edge.
	bb, err := tinyhtml.Query("#bb", root)
	require.NoError(t, err)
	width, err = bb.Width()
	require.NoError(t, err)
	assert.Equal(t, 76.0, width)
	outer, err = bb.OuterWidth()
	require.NoError(t, err)
	assert.Equal(t, 100.0, outer)

	// Hidden elements measure zero on every metric.
	hidden, err := tinyhtml.Query("#hidden", root)
	require.NoError(t, err)
	width, err = hidden.Width()
	require.NoError(t, err)
	assert.Zero(t, width)

	// Multi-target measurement is a cardinality error.
	all, err := tinyhtml.QueryAll("div", root)
	require.NoError(t, err)
	_, err = all.Width()
	var ce *tinyhtml.CardinalityError
	assert.ErrorAs(t, err, &ce)
}

func TestWindowMeasurement(t *testing.T) {
	env := browser.NewEnv(nil)
	defer env.CloseAll()

	win, err := env.NewWindow("https://example.test/", page)
	require.NoError(t, err)
	win.SetViewport(1024, 768)

	w, err := tinyhtml.Wrap(win)
	require.NoError(t, err)
	width, err := w.Width()
	require.NoError(t, err)
	assert.Equal(t, 1024.0, width)
	height, err := w.InnerHeight()
	require.NoError(t, err)
	assert.Equal(t, 768.0, height)
}
