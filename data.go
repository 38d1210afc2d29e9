package tinyhtml

import (
	"github.com/xkilldash9x/tinyhtml/browser"
)

// Data reads a key from the first target's shared data store. The store is
// keyed by target identity, so every wrapper over the same node sees the
// same values.
func (w *Wrapper) Data(key string) (any, bool, error) {
	if len(w.targets) == 0 {
		return nil, false, nil
	}
	v, ok := browser.GetSharedData(w.targets[0].key(), key)
	return v, ok, nil
}

// SetData writes a key into every target's shared data store.
func (w *Wrapper) SetData(key string, value any) *Wrapper {
	for _, t := range w.targets {
		browser.SetSharedData(t.key(), key, value)
	}
	return w
}

// DataSnapshot returns a copy of the first target's shared store, nil when
// nothing was ever written.
func (w *Wrapper) DataSnapshot() map[string]any {
	if len(w.targets) == 0 {
		return nil
	}
	return browser.SharedDataSnapshot(w.targets[0].key())
}

// PrivateData reads a key scoped to this wrapper value rather than the
// underlying target. Two wrappers over the same node keep separate private
// stores.
func (w *Wrapper) PrivateData(key string) (any, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.private == nil {
		return nil, false
	}
	v, ok := w.private[key]
	return v, ok
}

// SetPrivateData writes a wrapper-scoped key.
func (w *Wrapper) SetPrivateData(key string, value any) *Wrapper {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.private == nil {
		w.private = make(map[string]any)
	}
	w.private[key] = value
	return w
}
