package tinyhtml

import (
	"strings"

	"github.com/xkilldash9x/tinyhtml/browser"
)

// Event names reserved for collaborators that react to style or class
// mutations. The toolkit never dispatches these itself.
const (
	EventStyleChanged = "tinyhtml.stylechanged"
	EventClassChanged = "tinyhtml.classchanged"
)

// eventNames normalizes the events argument: a space-separated string or a
// string slice, deduplicated in first-seen order.
func eventNames(method string, events any) ([]string, error) {
	var raw []string
	switch v := events.(type) {
	case string:
		raw = strings.Fields(v)
	case []string:
		for _, e := range v {
			raw = append(raw, strings.Fields(e)...)
		}
	default:
		return nil, &TypeError{Method: method, Param: "events", Msg: "expected string or []string"}
	}
	if len(raw) == 0 {
		return nil, &TypeError{Method: method, Param: "events", Msg: "no event names"}
	}
	seen := make(map[string]bool, len(raw))
	out := raw[:0]
	for _, e := range raw {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out, nil
}

// On registers a handler for each event on every target. Registration order
// is preserved per target and event.
func (w *Wrapper) On(events any, fn browser.Handler, opts *browser.ListenerOptions) (*Wrapper, error) {
	names, err := eventNames("On", events)
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, &TypeError{Method: "On", Param: "fn", Msg: "nil handler"}
	}
	for _, t := range w.targets {
		for _, e := range names {
			browser.AddListener(t.key(), e, fn, opts, false)
		}
	}
	return w, nil
}

// Once registers a handler that is removed before its first invocation, so
// a synchronous re-trigger from inside it cannot run it twice.
func (w *Wrapper) Once(events any, fn browser.Handler, opts *browser.ListenerOptions) (*Wrapper, error) {
	names, err := eventNames("Once", events)
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, &TypeError{Method: "Once", Param: "fn", Msg: "nil handler"}
	}
	for _, t := range w.targets {
		for _, e := range names {
			browser.AddListener(t.key(), e, fn, opts, true)
		}
	}
	return w, nil
}

// Off removes the first registration of fn for each event on every target.
// When opts is non-nil only an exact options match is removed.
func (w *Wrapper) Off(events any, fn browser.Handler, opts *browser.ListenerOptions) (*Wrapper, error) {
	names, err := eventNames("Off", events)
	if err != nil {
		return nil, err
	}
	for _, t := range w.targets {
		for _, e := range names {
			browser.RemoveListener(t.key(), e, fn, opts)
		}
	}
	return w, nil
}

// OffAll removes every registration for each named event on every target.
func (w *Wrapper) OffAll(events any) (*Wrapper, error) {
	names, err := eventNames("OffAll", events)
	if err != nil {
		return nil, err
	}
	for _, t := range w.targets {
		for _, e := range names {
			browser.RemoveAllListeners(t.key(), e)
		}
	}
	return w, nil
}

// OffAllTypes removes registrations across every event type on every
// target. An optional keep predicate retains the registrations it reports
// true for.
func (w *Wrapper) OffAllTypes(keep ...func(fn browser.Handler, event string) bool) *Wrapper {
	var filter func(browser.Handler, string) bool
	if len(keep) > 0 {
		filter = keep[0]
	}
	for _, t := range w.targets {
		browser.RemoveListenersWhere(t.key(), filter)
	}
	return w
}

// HasEventListener reports whether any target has a listener for the event.
func (w *Wrapper) HasEventListener(event string) bool {
	for _, t := range w.targets {
		if browser.HasListener(t.key(), event) {
			return true
		}
	}
	return false
}

// HasExactEventListener reports whether any target has the specific handler
// registered for the event.
func (w *Wrapper) HasExactEventListener(event string, fn browser.Handler) bool {
	for _, t := range w.targets {
		if browser.HasExactListener(t.key(), event, fn) {
			return true
		}
	}
	return false
}

// ListenerCount returns the total registrations across targets for the
// event, or across every event when event is empty.
func (w *Wrapper) ListenerCount(event string) int {
	n := 0
	for _, t := range w.targets {
		n += browser.ListenerCount(t.key(), event)
	}
	return n
}

// EventTypes returns the sorted event names with at least one listener on
// the single target.
func (w *Wrapper) EventTypes() ([]string, error) {
	t, err := w.single("EventTypes")
	if err != nil {
		return nil, err
	}
	return browser.EventNames(t.key()), nil
}

// Trigger dispatches a bubbling, cancelable custom event carrying detail to
// every target. It reports whether no listener prevented the default.
func (w *Wrapper) Trigger(event string, detail any) bool {
	allowed := true
	for _, t := range w.targets {
		ev := browser.NewCustomEvent(event, detail)
		if !browser.Dispatch(t.key(), ev) {
			allowed = false
		}
	}
	return allowed
}

// TriggerEvent dispatches a caller-built event to every target.
func (w *Wrapper) TriggerEvent(ev *browser.Event) bool {
	allowed := true
	for _, t := range w.targets {
		e := *ev
		if !browser.Dispatch(t.key(), &e) {
			allowed = false
		}
	}
	return allowed
}

// Hover registers the enter handler for mouseenter and the leave handler
// for mouseleave. A nil leave reuses the enter handler for both sides.
func (w *Wrapper) Hover(enter, leave browser.Handler) (*Wrapper, error) {
	if enter == nil {
		return nil, &TypeError{Method: "Hover", Param: "enter", Msg: "nil handler"}
	}
	if leave == nil {
		leave = enter
	}
	if _, err := w.On("mouseenter", enter, nil); err != nil {
		return nil, err
	}
	if _, err := w.On("mouseleave", leave, nil); err != nil {
		return nil, err
	}
	return w, nil
}

// OnPaste registers a paste listener that routes the clipboard payload by
// kind: pasted files go to onFiles, pasted text to onText. Either callback
// may be nil to ignore that kind, and a callback only runs when the paste
// actually carried items of its kind.
func (w *Wrapper) OnPaste(onFiles func(*browser.Event, []*browser.File), onText func(*browser.Event, []string)) (*Wrapper, error) {
	if onFiles == nil && onText == nil {
		return nil, &TypeError{Method: "OnPaste", Param: "onFiles", Msg: "both callbacks nil"}
	}
	return w.On("paste", func(ev *browser.Event) {
		files, texts := ev.ClipboardData.Split()
		if onFiles != nil && len(files) > 0 {
			onFiles(ev, files)
		}
		if onText != nil && len(texts) > 0 {
			onText(ev, texts)
		}
	}, nil)
}

// OnClick registers a click handler.
func (w *Wrapper) OnClick(fn browser.Handler) (*Wrapper, error) {
	return w.On("click", fn, nil)
}
