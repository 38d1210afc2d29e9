package browser

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Document readiness states, matching document.readyState.
const (
	ReadyStateLoading     = "loading"
	ReadyStateInteractive = "interactive"
	ReadyStateComplete    = "complete"
)

// Env is a process-local collection of windows sharing one emulated browsing
// environment.
type Env struct {
	logger *zap.Logger

	mu      sync.Mutex
	windows []*Window
}

// NewEnv creates an environment. A nil logger falls back to a no-op logger.
func NewEnv(logger *zap.Logger) *Env {
	if logger == nil {
		logger = zap.NewNop()
	}
	SetLogger(logger)
	return &Env{logger: logger.Named("browser")}
}

// NewWindow creates a top-level window at the given URL with the given
// document markup. Empty markup yields an empty document.
func (env *Env) NewWindow(rawURL, markup string) (*Window, error) {
	return env.newWindow(rawURL, markup, "", nil, nil)
}

// CloseAll closes every window the environment knows about. Intended for
// test teardown.
func (env *Env) CloseAll() {
	env.mu.Lock()
	wins := make([]*Window, len(env.windows))
	copy(wins, env.windows)
	env.mu.Unlock()
	for _, w := range wins {
		w.Close()
	}
}

func (env *Env) newWindow(rawURL, markup, name string, opener, parent *Window) (*Window, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("browser: invalid window url %q: %w", rawURL, err)
	}
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("browser: parsing document for %q: %w", rawURL, err)
	}

	w := &Window{
		env:        env,
		url:        u,
		doc:        doc,
		name:       name,
		opener:     opener,
		parent:     parent,
		readyState: ReadyStateComplete,
		viewportW:  1280,
		viewportH:  800,
		queue:      make(chan postedMessage, 64),
		stop:       make(chan struct{}),
	}
	w.frames = make(map[*html.Node]*Window)

	env.mu.Lock()
	env.windows = append(env.windows, w)
	env.mu.Unlock()

	docWindows.Lock()
	docWindows.m[doc] = w
	docWindows.Unlock()

	go w.deliverLoop()
	return w, nil
}

// docWindows associates parsed document nodes with their owning windows so
// measurement can find the viewport for an arbitrary node.
var docWindows = struct {
	sync.RWMutex
	m map[*html.Node]*Window
}{m: make(map[*html.Node]*Window)}

// WindowForDocument returns the window owning a document node, nil when the
// document was parsed outside any window.
func WindowForDocument(doc *html.Node) *Window {
	docWindows.RLock()
	defer docWindows.RUnlock()
	return docWindows.m[doc]
}

// Window is an emulated browsing context: a document, an origin, a viewport,
// message delivery and parent/opener links.
type Window struct {
	env    *Env
	url    *url.URL
	doc    *html.Node
	name   string
	opener *Window
	parent *Window

	mu         sync.Mutex
	frames     map[*html.Node]*Window
	readyState string
	viewportW  float64
	viewportH  float64
	scrollX    float64
	scrollY    float64

	closed   atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	queue    chan postedMessage
}

type postedMessage struct {
	data         any
	origin       string
	source       *Window
	targetOrigin string
}

// Document returns the window's document node.
func (w *Window) Document() *html.Node { return w.doc }

// DocumentElement returns the root <html> element of the document.
func (w *Window) DocumentElement() *html.Node {
	for n := w.doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode {
			return n
		}
	}
	return nil
}

// Body returns the document's <body> element, nil when absent.
func (w *Window) Body() *html.Node {
	root := w.DocumentElement()
	if root == nil {
		return nil
	}
	for n := root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "body") {
			return n
		}
	}
	return nil
}

// URL returns the window's location.
func (w *Window) URL() *url.URL { return w.url }

// Origin returns the scheme://host origin of the window's location.
func (w *Window) Origin() string {
	if w.url.Scheme == "" || w.url.Host == "" {
		return "null"
	}
	return w.url.Scheme + "://" + w.url.Host
}

// Name returns the window name given at open time.
func (w *Window) Name() string { return w.name }

// Opener returns the window that opened this one, nil for top-level windows.
func (w *Window) Opener() *Window { return w.opener }

// Parent returns the embedding window for frame contexts, nil otherwise.
func (w *Window) Parent() *Window { return w.parent }

// Closed reports whether the window has been closed.
func (w *Window) Closed() bool { return w.closed.Load() }

// ReadyState returns the document readiness state.
func (w *Window) ReadyState() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.readyState
}

// SetReadyState transitions the document readiness state, dispatching
// DOMContentLoaded when reaching interactive and load when reaching
// complete.
func (w *Window) SetReadyState(state string) {
	w.mu.Lock()
	prev := w.readyState
	w.readyState = state
	w.mu.Unlock()

	if prev != state {
		switch state {
		case ReadyStateInteractive:
			Dispatch(w, NewEvent("DOMContentLoaded"))
		case ReadyStateComplete:
			Dispatch(w, NewEvent("load"))
		}
	}
}

// Viewport returns the inner width and height.
func (w *Window) Viewport() (float64, float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewportW, w.viewportH
}

// SetViewport sets the inner dimensions used for window measurement.
func (w *Window) SetViewport(width, height float64) {
	w.mu.Lock()
	w.viewportW = width
	w.viewportH = height
	w.mu.Unlock()
}

// Scroll returns the current scroll offsets.
func (w *Window) Scroll() (x, y float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scrollX, w.scrollY
}

// SetScroll sets the scroll offsets.
func (w *Window) SetScroll(x, y float64) {
	w.mu.Lock()
	w.scrollX = x
	w.scrollY = y
	w.mu.Unlock()
}

// Open creates a child window with this window as opener, mirroring
// window.open(url, name, features). Features are accepted and ignored by
// the emulation.
func (w *Window) Open(rawURL, name, features string) (*Window, error) {
	_ = features
	return w.env.newWindow(rawURL, "", name, w, nil)
}

// AttachFrame binds a freshly created window to an iframe element of this
// window's document. The new window starts in the loading state so embedders
// can observe the load transition.
func (w *Window) AttachFrame(iframe *html.Node, rawURL, markup string) (*Window, error) {
	if iframe == nil || iframe.Type != html.ElementNode || !strings.EqualFold(iframe.Data, "iframe") {
		return nil, fmt.Errorf("browser: AttachFrame requires an iframe element")
	}
	child, err := w.env.newWindow(rawURL, markup, "", nil, w)
	if err != nil {
		return nil, err
	}
	child.mu.Lock()
	child.readyState = ReadyStateLoading
	child.mu.Unlock()

	w.mu.Lock()
	w.frames[iframe] = child
	w.mu.Unlock()
	return child, nil
}

// FrameWindow returns the content window bound to an iframe element, nil
// when the element has no attached frame.
func (w *Window) FrameWindow(iframe *html.Node) *Window {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames[iframe]
}

// Close closes the window: message delivery stops, the closed flag flips,
// and queued messages are dropped.
func (w *Window) Close() {
	w.stopOnce.Do(func() {
		w.closed.Store(true)
		close(w.stop)
		docWindows.Lock()
		delete(docWindows.m, w.doc)
		docWindows.Unlock()
	})
}

// PostMessage queues data for asynchronous delivery to this window's message
// listeners. targetOrigin "*" matches any origin; otherwise the message is
// dropped at delivery time when it does not match the window's own origin.
// Posting to a closed window is silently ignored, as in the native API.
func (w *Window) PostMessage(data any, targetOrigin string, source *Window) {
	if w.Closed() {
		return
	}
	msg := postedMessage{data: data, targetOrigin: targetOrigin, source: source}
	if source != nil {
		msg.origin = source.Origin()
	}
	select {
	case w.queue <- msg:
	case <-w.stop:
	}
}

func (w *Window) deliverLoop() {
	for {
		select {
		case <-w.stop:
			return
		case msg := <-w.queue:
			w.deliver(msg)
		}
	}
}

func (w *Window) deliver(msg postedMessage) {
	if msg.targetOrigin != "*" && msg.targetOrigin != w.Origin() {
		pkgLogger.Debug("dropping message for origin mismatch",
			zap.String("target_origin", msg.targetOrigin),
			zap.String("window_origin", w.Origin()))
		return
	}
	ev := NewEvent("message")
	ev.Origin = msg.origin
	ev.Source = msg.source
	ev.Data = msg.data
	Dispatch(w, ev)
}
