package browser_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/tinyhtml/browser"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func parseBody(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	var body *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	require.NotNil(t, body)
	return body
}

func TestListenerBookkeeping(t *testing.T) {
	node := parseBody(t, `<div></div>`).FirstChild
	defer browser.Release(node)

	var calls int
	h := func(ev *browser.Event) { calls++ }

	browser.AddListener(node, "click", h, nil, false)
	assert.True(t, browser.HasListener(node, "click"))
	assert.True(t, browser.HasExactListener(node, "click", h))
	assert.Equal(t, 1, browser.ListenerCount(node, "click"))

	removed := browser.RemoveListener(node, "click", h, nil)
	assert.True(t, removed)
	assert.False(t, browser.HasListener(node, "click"))
	assert.False(t, browser.HasExactListener(node, "click", h))

	// Removing again is a no-op.
	assert.False(t, browser.RemoveListener(node, "click", h, nil))
	assert.Zero(t, calls)
}

func TestRemoveListenerMatchesOptions(t *testing.T) {
	node := parseBody(t, `<div></div>`).FirstChild
	defer browser.Release(node)

	h := func(ev *browser.Event) {}
	capture := &browser.ListenerOptions{Capture: true}
	browser.AddListener(node, "click", h, capture, false)

	// Mismatched options leave the registration alone.
	assert.False(t, browser.RemoveListener(node, "click", h, &browser.ListenerOptions{}))
	assert.True(t, browser.HasListener(node, "click"))

	assert.True(t, browser.RemoveListener(node, "click", h, capture))
	assert.False(t, browser.HasListener(node, "click"))
}

func TestDispatchOrderAndSnapshot(t *testing.T) {
	node := parseBody(t, `<div></div>`).FirstChild
	defer browser.Release(node)

	var order []int
	var second browser.Handler
	second = func(ev *browser.Event) { order = append(order, 2) }

	first := func(ev *browser.Event) {
		order = append(order, 1)
		// Removing a sibling mid-dispatch must not skip it for this
		// dispatch: iteration runs over a snapshot.
		browser.RemoveListener(node, "ping", second, nil)
	}

	browser.AddListener(node, "ping", first, nil, false)
	browser.AddListener(node, "ping", second, nil, false)

	browser.Dispatch(node, browser.NewCustomEvent("ping", nil))
	assert.Equal(t, []int{1, 2}, order)

	// The removal still took effect for subsequent dispatches.
	order = nil
	browser.Dispatch(node, browser.NewCustomEvent("ping", nil))
	assert.Equal(t, []int{1}, order)
	browser.RemoveListenersWhere(node, nil)
}

func TestDispatchBubbles(t *testing.T) {
	body := parseBody(t, `<div id="outer"><span id="inner"></span></div>`)
	outer := body.FirstChild
	inner := outer.FirstChild
	defer browser.Release(outer)
	defer browser.Release(inner)

	var seen []string
	browser.AddListener(inner, "tap", func(ev *browser.Event) {
		seen = append(seen, "inner")
	}, nil, false)
	browser.AddListener(outer, "tap", func(ev *browser.Event) {
		seen = append(seen, "outer")
		assert.Equal(t, inner, ev.Target)
		assert.Equal(t, outer, ev.CurrentTarget)
	}, nil, false)

	browser.Dispatch(inner, browser.NewCustomEvent("tap", "payload"))
	assert.Equal(t, []string{"inner", "outer"}, seen)

	// Non-bubbling events stay on the target.
	seen = nil
	browser.Dispatch(inner, browser.NewEvent("tap"))
	assert.Equal(t, []string{"inner"}, seen)
}

func TestDispatchIsolatesPanics(t *testing.T) {
	browser.SetLogger(zaptest.NewLogger(t))
	defer browser.SetLogger(nil)

	node := parseBody(t, `<div></div>`).FirstChild
	defer browser.Release(node)

	var survived bool
	browser.AddListener(node, "boom", func(ev *browser.Event) { panic("listener bug") }, nil, false)
	browser.AddListener(node, "boom", func(ev *browser.Event) { survived = true }, nil, false)

	browser.Dispatch(node, browser.NewCustomEvent("boom", nil))
	assert.True(t, survived, "a panicking listener must not abort its siblings")
}

func TestSharedDataLazyAllocation(t *testing.T) {
	node := parseBody(t, `<div></div>`).FirstChild
	defer browser.Release(node)

	assert.Nil(t, browser.SharedDataSnapshot(node))

	browser.SetSharedData(node, "k", 42)
	v, ok := browser.GetSharedData(node, "k")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	snap := browser.SharedDataSnapshot(node)
	snap["k"] = 0
	v, _ = browser.GetSharedData(node, "k")
	assert.Equal(t, 42, v, "snapshot must be a copy")
}

type fakeAnim struct{ cancelled bool }

func (f *fakeAnim) Cancel() { f.cancelled = true }

func TestAnimationSlotConditionalClear(t *testing.T) {
	node := parseBody(t, `<div></div>`).FirstChild
	defer browser.Release(node)

	a1 := &fakeAnim{}
	a2 := &fakeAnim{}
	browser.SetAnimationSlot(node, &browser.AnimationSlot{EffectID: "slideDown", Handle: a1})
	browser.SetAnimationSlot(node, &browser.AnimationSlot{EffectID: "slideUp", Handle: a2})

	// A finish callback for the replaced animation must not clear the
	// newer slot.
	browser.ClearAnimationSlot(node, a1)
	slot := browser.GetAnimationSlot(node)
	require.NotNil(t, slot)
	assert.Equal(t, "slideUp", slot.EffectID)

	browser.ClearAnimationSlot(node, a2)
	assert.Nil(t, browser.GetAnimationSlot(node))
}

func TestPostMessageDelivery(t *testing.T) {
	env := browser.NewEnv(zaptest.NewLogger(t))
	defer env.CloseAll()

	host, err := env.NewWindow("https://app.example/", "<html><body></body></html>")
	require.NoError(t, err)
	child, err := host.Open("https://app.example/child", "w1", "")
	require.NoError(t, err)

	var mu sync.Mutex
	var got []any
	browser.AddListener(child, "message", func(ev *browser.Event) {
		mu.Lock()
		got = append(got, ev.Data)
		mu.Unlock()
	}, nil, false)

	child.PostMessage("a", "https://app.example", host)
	child.PostMessage("b", "https://evil.example", host) // dropped: origin mismatch
	child.PostMessage("c", "*", host)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []any{"a", "c"}, got, "delivery preserves post order")
	mu.Unlock()

	browser.Release(child)
}

func TestWindowLinks(t *testing.T) {
	env := browser.NewEnv(zaptest.NewLogger(t))
	defer env.CloseAll()

	host, err := env.NewWindow("https://app.example/", `<html><body><iframe></iframe></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "https://app.example", host.Origin())

	child, err := host.Open("https://app.example/child", "popup", "width=300")
	require.NoError(t, err)
	assert.Same(t, host, child.Opener())
	assert.Equal(t, "popup", child.Name())
	assert.False(t, child.Closed())

	child.Close()
	assert.True(t, child.Closed())

	var iframe *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "iframe" {
			iframe = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(host.Document())
	require.NotNil(t, iframe)

	frameWin, err := host.AttachFrame(iframe, "https://app.example/frame", "")
	require.NoError(t, err)
	assert.Same(t, host, frameWin.Parent())
	assert.Same(t, frameWin, host.FrameWindow(iframe))
	assert.Equal(t, browser.ReadyStateLoading, frameWin.ReadyState())

	var loaded bool
	browser.AddListener(frameWin, "load", func(ev *browser.Event) { loaded = true }, nil, false)
	frameWin.SetReadyState(browser.ReadyStateComplete)
	assert.True(t, loaded)
	browser.Release(frameWin)
}
