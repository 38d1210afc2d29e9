// Package browser emulates the pieces of a browsing environment the toolkit
// needs: parsed documents, windows with origins and async message delivery,
// an event system with bubbling, and the per-node side table that carries
// listener bookkeeping, shared data and animation state.
package browser

import (
	"time"

	"golang.org/x/net/html"
)

// Event is the dispatchable unit of the emulated event system. Message
// events additionally carry Origin/Source/Data; paste events carry
// ClipboardData.
type Event struct {
	Type          string
	Target        any
	CurrentTarget any
	Bubbles       bool
	Cancelable    bool
	// Detail carries the payload of synthetic (custom) events.
	Detail    any
	TimeStamp time.Time

	// Message-event fields.
	Origin string
	Source *Window
	Data   any

	// Paste-event field.
	ClipboardData *DataTransfer

	defaultPrevented bool
	stopped          bool
	stoppedImmediate bool
}

// NewEvent builds a plain event of the given type.
func NewEvent(typ string) *Event {
	return &Event{Type: typ, TimeStamp: time.Now()}
}

// NewCustomEvent builds a bubbling, cancelable event carrying detail, the
// shape Trigger produces for non-event payloads.
func NewCustomEvent(typ string, detail any) *Event {
	return &Event{
		Type:       typ,
		Bubbles:    true,
		Cancelable: true,
		Detail:     detail,
		TimeStamp:  time.Now(),
	}
}

// PreventDefault marks the event canceled when it is cancelable.
func (e *Event) PreventDefault() {
	if e.Cancelable {
		e.defaultPrevented = true
	}
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation prevents the event from bubbling further.
func (e *Event) StopPropagation() { e.stopped = true }

// StopImmediatePropagation prevents both bubbling and any remaining
// listeners on the current target.
func (e *Event) StopImmediatePropagation() {
	e.stopped = true
	e.stoppedImmediate = true
}

// Handler is a registered event callback.
type Handler func(*Event)

// ListenerOptions mirrors the addEventListener options record. A nil options
// pointer and the zero value are equivalent.
type ListenerOptions struct {
	Capture bool
	Once    bool
	Passive bool
}

// File is an emulated clipboard/file payload.
type File struct {
	Name string
	Type string
	Data []byte
}

// DataTransferItem is one entry of a DataTransfer list. Kind is "file" or
// "string".
type DataTransferItem struct {
	Kind string
	Type string

	file *File
	str  string
}

// NewFileItem builds a file-kind transfer item.
func NewFileItem(f *File) DataTransferItem {
	return DataTransferItem{Kind: "file", Type: f.Type, file: f}
}

// NewStringItem builds a string-kind transfer item.
func NewStringItem(mime, s string) DataTransferItem {
	return DataTransferItem{Kind: "string", Type: mime, str: s}
}

// GetAsFile returns the file payload, or nil for string items.
func (it DataTransferItem) GetAsFile() *File { return it.file }

// GetAsString delivers the string payload through cb on a separate
// goroutine, mirroring the asynchronous retrieval of the native API. File
// items never invoke cb.
func (it DataTransferItem) GetAsString(cb func(string)) {
	if it.Kind != "string" || cb == nil {
		return
	}
	s := it.str
	go cb(s)
}

// DataTransfer is the emulated clipboard payload carried by paste events.
type DataTransfer struct {
	Items []DataTransferItem
}

// Split partitions the items into file and string payloads, preserving
// item order within each kind.
func (d *DataTransfer) Split() (files []*File, strs []string) {
	if d == nil {
		return nil, nil
	}
	for _, it := range d.Items {
		switch it.Kind {
		case "file":
			if it.file != nil {
				files = append(files, it.file)
			}
		case "string":
			strs = append(strs, it.str)
		}
	}
	return files, strs
}

// nodeTarget reports whether the dispatch target participates in DOM
// bubbling.
func nodeTarget(target any) (*html.Node, bool) {
	n, ok := target.(*html.Node)
	return n, ok
}
