package browser

import (
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// The side table co-locates all per-target bookkeeping (event listeners,
// shared data, the animate-data cache and the active-animation slot) in one
// map keyed by target identity. Entries are dropped with Release when a node
// leaves the document, which bounds their lifetime the way a weak map would.
var table = sideTable{entries: make(map[any]*targetEntry)}

var pkgLogger = zap.NewNop()

// SetLogger installs the logger used for internal diagnostics (recovered
// listener panics, dropped messages). Nil restores the no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	pkgLogger = l
}

// CancelHandle is the slice of an animation the side table needs: enough to
// cancel a previously scheduled animation when a new one replaces it.
type CancelHandle interface {
	Cancel()
}

// AnimationSlot records the single active animation of a target together
// with the logical effect that started it.
type AnimationSlot struct {
	EffectID string
	Handle   CancelHandle
}

type listener struct {
	seq     uint64
	fn      Handler
	userPtr uintptr
	opts    ListenerOptions
	hasOpts bool
	once    bool
}

type targetEntry struct {
	listeners map[string][]*listener
	data      map[string]any
	animCache map[string]string
	animSlot  *AnimationSlot
}

type sideTable struct {
	mu      sync.RWMutex
	entries map[any]*targetEntry
	seq     uint64
}

func (t *sideTable) get(target any) (*targetEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[target]
	return e, ok
}

func (t *sideTable) ensure(target any) *targetEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[target]
	if !ok {
		e = &targetEntry{}
		t.entries[target] = e
	}
	return e
}

// handlerPtr derives a comparable identity for a handler function. Distinct
// top-level functions and method values compare unequal; two closures built
// from the same literal share an identity, which matches how callers hold on
// to a single handler value for later removal.
func handlerPtr(fn Handler) uintptr {
	if fn == nil {
		return 0
	}
	return reflect.ValueOf(fn).Pointer()
}

// AddListener records (fn, opts) for the event on target, preserving
// registration order. once registrations are removed by dispatch before the
// handler runs, so a synchronous re-dispatch from inside the handler cannot
// re-invoke the one-shot.
func AddListener(target any, event string, fn Handler, opts *ListenerOptions, once bool) {
	t := &table
	e := t.ensure(target)

	t.mu.Lock()
	defer t.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[string][]*listener)
	}
	t.seq++
	l := &listener{
		seq:     t.seq,
		fn:      fn,
		userPtr: handlerPtr(fn),
		once:    once,
	}
	if opts != nil {
		l.opts = *opts
		l.hasOpts = true
	}
	e.listeners[event] = append(e.listeners[event], l)
}

// RemoveListener removes the first tuple matching the handler identity and,
// when opts is non-nil, the exact options record. It reports whether a tuple
// was removed.
func RemoveListener(target any, event string, fn Handler, opts *ListenerOptions) bool {
	t := &table
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[target]
	if !ok || e.listeners == nil {
		return false
	}
	bucket := e.listeners[event]
	ptr := handlerPtr(fn)
	for i, l := range bucket {
		if l.userPtr != ptr {
			continue
		}
		if opts != nil && (!l.hasOpts || l.opts != *opts) {
			continue
		}
		e.listeners[event] = append(bucket[:i:i], bucket[i+1:]...)
		if len(e.listeners[event]) == 0 {
			delete(e.listeners, event)
		}
		return true
	}
	return false
}

// RemoveAllListeners clears the whole bucket for the event.
func RemoveAllListeners(target any, event string) {
	t := &table
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[target]; ok && e.listeners != nil {
		delete(e.listeners, event)
	}
}

// RemoveListenersWhere removes every listener across every event for which
// keep returns false. A nil filter removes everything.
func RemoveListenersWhere(target any, keep func(fn Handler, event string) bool) {
	t := &table
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[target]
	if !ok || e.listeners == nil {
		return
	}
	if keep == nil {
		e.listeners = nil
		return
	}
	for event, bucket := range e.listeners {
		kept := bucket[:0]
		for _, l := range bucket {
			if keep(l.fn, event) {
				kept = append(kept, l)
			}
		}
		if len(kept) == 0 {
			delete(e.listeners, event)
		} else {
			e.listeners[event] = kept
		}
	}
}

// HasListener reports whether any listener is registered for the event.
func HasListener(target any, event string) bool {
	t := &table
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[target]
	return ok && e.listeners != nil && len(e.listeners[event]) > 0
}

// HasExactListener reports whether the specific handler is registered for
// the event.
func HasExactListener(target any, event string, fn Handler) bool {
	t := &table
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[target]
	if !ok || e.listeners == nil {
		return false
	}
	ptr := handlerPtr(fn)
	for _, l := range e.listeners[event] {
		if l.userPtr == ptr {
			return true
		}
	}
	return false
}

// ListenerCount returns the number of listeners recorded for the event, or
// the total across all events when event is empty.
func ListenerCount(target any, event string) int {
	t := &table
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[target]
	if !ok || e.listeners == nil {
		return 0
	}
	if event != "" {
		return len(e.listeners[event])
	}
	n := 0
	for _, bucket := range e.listeners {
		n += len(bucket)
	}
	return n
}

// EventNames returns the sorted event names with at least one listener.
func EventNames(target any) []string {
	t := &table
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[target]
	if !ok || e.listeners == nil {
		return nil
	}
	names := make([]string, 0, len(e.listeners))
	for name := range e.listeners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// snapshotListeners copies the bucket so dispatch survives re-entrant
// removal from inside a handler.
func snapshotListeners(target any, event string) []*listener {
	t := &table
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[target]
	if !ok || e.listeners == nil {
		return nil
	}
	bucket := e.listeners[event]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]*listener, len(bucket))
	copy(out, bucket)
	return out
}

// removeListenerBySeq removes one specific registration, used by the once
// wrapper so the one-shot is gone before the user handler runs.
func removeListenerBySeq(target any, event string, seq uint64) {
	t := &table
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[target]
	if !ok || e.listeners == nil {
		return
	}
	bucket := e.listeners[event]
	for i, l := range bucket {
		if l.seq == seq {
			e.listeners[event] = append(bucket[:i:i], bucket[i+1:]...)
			if len(e.listeners[event]) == 0 {
				delete(e.listeners, event)
			}
			return
		}
	}
}

// Dispatch delivers the event to the target's listeners and, for bubbling
// events on nodes, up the ancestor chain. It returns false when a listener
// called PreventDefault on a cancelable event. A panicking listener is
// recovered and logged; its siblings still run.
func Dispatch(target any, ev *Event) bool {
	ev.Target = target

	current := target
	for current != nil {
		ev.CurrentTarget = current
		for _, l := range snapshotListeners(current, ev.Type) {
			if ev.stoppedImmediate {
				break
			}
			if l.once {
				removeListenerBySeq(current, ev.Type, l.seq)
			}
			invoke(l.fn, ev)
		}
		if !ev.Bubbles || ev.stopped {
			break
		}
		n, ok := nodeTarget(current)
		if !ok || n.Parent == nil {
			break
		}
		current = n.Parent
	}
	return !ev.defaultPrevented
}

func invoke(fn Handler, ev *Event) {
	defer func() {
		if r := recover(); r != nil {
			pkgLogger.Error("event listener panicked",
				zap.String("event", ev.Type),
				zap.Any("panic", r))
		}
	}()
	fn(ev)
}

// SharedData returns the lazily allocated shared data map for the target.
func SharedData(target any) map[string]any {
	e := table.ensure(target)
	table.mu.Lock()
	defer table.mu.Unlock()
	if e.data == nil {
		e.data = make(map[string]any)
	}
	return e.data
}

// SharedDataSnapshot returns a shallow copy of the shared store, nil when
// nothing was ever written.
func SharedDataSnapshot(target any) map[string]any {
	table.mu.RLock()
	defer table.mu.RUnlock()
	e, ok := table.entries[target]
	if !ok || e.data == nil {
		return nil
	}
	out := make(map[string]any, len(e.data))
	for k, v := range e.data {
		out[k] = v
	}
	return out
}

// SetSharedData writes one key into the target's shared store.
func SetSharedData(target any, key string, value any) {
	e := table.ensure(target)
	table.mu.Lock()
	defer table.mu.Unlock()
	if e.data == nil {
		e.data = make(map[string]any)
	}
	e.data[key] = value
}

// GetSharedData reads one key from the shared store.
func GetSharedData(target any, key string) (any, bool) {
	table.mu.RLock()
	defer table.mu.RUnlock()
	e, ok := table.entries[target]
	if !ok || e.data == nil {
		return nil, false
	}
	v, ok := e.data[key]
	return v, ok
}

// AnimCacheGet reads one key from the animate-data bag.
func AnimCacheGet(target any, key string) (string, bool) {
	table.mu.RLock()
	defer table.mu.RUnlock()
	e, ok := table.entries[target]
	if !ok || e.animCache == nil {
		return "", false
	}
	v, ok := e.animCache[key]
	return v, ok
}

// AnimCacheSet writes one key into the animate-data bag.
func AnimCacheSet(target any, key, value string) {
	e := table.ensure(target)
	table.mu.Lock()
	defer table.mu.Unlock()
	if e.animCache == nil {
		e.animCache = make(map[string]string)
	}
	e.animCache[key] = value
}

// GetAnimationSlot returns the active-animation slot, nil when idle.
func GetAnimationSlot(target any) *AnimationSlot {
	table.mu.RLock()
	defer table.mu.RUnlock()
	e, ok := table.entries[target]
	if !ok {
		return nil
	}
	return e.animSlot
}

// SetAnimationSlot records the active animation for the target.
func SetAnimationSlot(target any, slot *AnimationSlot) {
	e := table.ensure(target)
	table.mu.Lock()
	defer table.mu.Unlock()
	e.animSlot = slot
}

// ClearAnimationSlot clears the slot. When ifHandle is non-nil the clear
// only happens while the slot still references that handle, which guards a
// finish callback racing a replacing animation.
func ClearAnimationSlot(target any, ifHandle CancelHandle) {
	table.mu.Lock()
	defer table.mu.Unlock()
	e, ok := table.entries[target]
	if !ok || e.animSlot == nil {
		return
	}
	if ifHandle != nil && e.animSlot.Handle != ifHandle {
		return
	}
	e.animSlot = nil
}

// Release drops the whole side-table entry for a target. Called when nodes
// are detached so bookkeeping does not outlive the DOM.
func Release(target any) {
	table.mu.Lock()
	defer table.mu.Unlock()
	delete(table.entries, target)
}
