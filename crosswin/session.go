// Package crosswin routes messages between browsing contexts: a parent and
// the windows or frames it opens. Each side holds a Session bound to its
// peer window; messages are origin-checked, gated behind a handshake and
// dispatched to named routes.
package crosswin

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/tinyhtml/browser"
)

var (
	// ErrPeerBound reports a second session binding to a peer that already
	// has one.
	ErrPeerBound = errors.New("crosswin: peer window already has a bound session")
	// ErrDestroyed reports use of a session after Destroy.
	ErrDestroyed = errors.New("crosswin: session destroyed")
	// ErrNotHost reports a child session invoking a host-only operation.
	ErrNotHost = errors.New("crosswin: operation reserved for the host side")
	// ErrNoPeer reports attaching from a context with no opener or parent.
	ErrNoPeer = errors.New("crosswin: window has no peer to attach to")
)

// DefaultLivenessInterval is how often a session polls its peer for death
// when the config does not override it.
const DefaultLivenessInterval = 500 * time.Millisecond

// Handler consumes one routed message.
type Handler func(msg *Message)

// Message is a delivered application payload.
type Message struct {
	ID      string
	Route   string
	Payload any
	Origin  string
}

// Config tunes a session binding.
type Config struct {
	// PeerOrigin is the origin expected on incoming messages and stamped on
	// outgoing ones. Empty means any origin, which is logged as a warning.
	PeerOrigin string
	// LivenessInterval overrides the peer poll period.
	LivenessInterval time.Duration
	// Logger receives session diagnostics. Nil means no-op.
	Logger *zap.Logger
}

func (c Config) normalize() Config {
	if c.LivenessInterval <= 0 {
		c.LivenessInterval = DefaultLivenessInterval
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.PeerOrigin == "" {
		c.Logger.Warn("session bound without a peer origin; messages will not be origin-checked")
		c.PeerOrigin = "*"
	}
	return c
}

// bindings enforces one session per (self, peer) pair across the process,
// so a context cannot accidentally double-bind the same channel.
type bindingKey struct {
	self *browser.Window
	peer *browser.Window
}

var bindings = struct {
	sync.Mutex
	m map[bindingKey]*Session
}{m: make(map[bindingKey]*Session)}

// Session is one side of a cross-context channel.
type Session struct {
	self       *browser.Window
	peer       *browser.Window
	peerOrigin string
	host       bool
	logger     *zap.Logger

	mu      sync.Mutex
	ready   bool
	pending []*envelope
	routes  map[string][]Handler
	onClose []func()

	listener browser.Handler

	destroyOnce sync.Once
	destroyed   bool
	stopPoll    chan struct{}
}

// Bind wires a session between self and peer. Most callers want OpenChild,
// AttachToOpener, AttachToParent or BindFrame instead.
func Bind(self, peer *browser.Window, host bool, cfg Config) (*Session, error) {
	if self == nil || peer == nil {
		return nil, fmt.Errorf("crosswin: bind requires both windows")
	}
	cfg = cfg.normalize()

	s := &Session{
		self:       self,
		peer:       peer,
		peerOrigin: cfg.PeerOrigin,
		host:       host,
		logger:     cfg.Logger.Named("crosswin"),
		routes:     make(map[string][]Handler),
		stopPoll:   make(chan struct{}),
	}

	key := bindingKey{self: self, peer: peer}
	bindings.Lock()
	if _, taken := bindings.m[key]; taken {
		bindings.Unlock()
		return nil, ErrPeerBound
	}
	bindings.m[key] = s
	bindings.Unlock()

	s.listener = s.onMessage
	browser.AddListener(self, "message", s.listener, nil, false)

	go s.pollPeer(cfg.LivenessInterval)

	// Both sides open with a syn; whichever arrives first is answered with
	// an ack, so binding order does not matter.
	s.post(newEnvelope(kindSyn, "", nil))
	return s, nil
}

// OpenChild opens a new window from host and binds a session to it. The
// _blank name is rejected: an unnamed disposable context cannot be
// re-found for liveness or teardown.
func OpenChild(host *browser.Window, url, name string, cfg Config) (*Session, *browser.Window, error) {
	if name == "_blank" {
		return nil, nil, fmt.Errorf("crosswin: _blank windows cannot host a session")
	}
	child, err := host.Open(url, name, "")
	if err != nil {
		return nil, nil, err
	}
	s, err := Bind(host, child, true, cfg)
	if err != nil {
		child.Close()
		return nil, nil, err
	}
	return s, child, nil
}

// BindFrame attaches a new frame window to an iframe element of the host's
// document and binds the host side of a session to it.
func BindFrame(host *browser.Window, iframe *html.Node, url, markup string, cfg Config) (*Session, *browser.Window, error) {
	child, err := host.AttachFrame(iframe, url, markup)
	if err != nil {
		return nil, nil, err
	}
	s, err := Bind(host, child, true, cfg)
	if err != nil {
		child.Close()
		return nil, nil, err
	}
	return s, child, nil
}

// AttachToOpener binds the child side of a session to the window that
// opened this one.
func AttachToOpener(self *browser.Window, cfg Config) (*Session, error) {
	peer := self.Opener()
	if peer == nil {
		return nil, ErrNoPeer
	}
	return Bind(self, peer, false, cfg)
}

// AttachToParent binds the child side of a session to the embedding window
// of a frame context.
func AttachToParent(self *browser.Window, cfg Config) (*Session, error) {
	peer := self.Parent()
	if peer == nil {
		return nil, ErrNoPeer
	}
	return Bind(self, peer, false, cfg)
}

// Handle registers a handler for a route. Registering a route again adds
// another handler; all of them run in registration order per message.
func (s *Session) Handle(route string, fn Handler) error {
	if route == "" {
		return fmt.Errorf("crosswin: route name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("crosswin: route %q: handler must not be nil", route)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrDestroyed
	}
	s.routes[route] = append(s.routes[route], fn)
	return nil
}

// Send routes a payload to the peer. Before the handshake completes the
// envelope queues; queued envelopes flush in send order once the peer
// answers.
func (s *Session) Send(route string, payload any) error {
	if route == "" {
		return fmt.Errorf("crosswin: route name must not be empty")
	}
	env := newEnvelope(kindMsg, route, payload)

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrDestroyed
	}
	if !s.ready {
		s.pending = append(s.pending, env)
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	return s.post(env)
}

// Ready reports whether the handshake has completed.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Destroyed reports whether the session has been torn down. Destroyed is
// terminal; a dead session never comes back.
func (s *Session) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// PendingCount returns how many envelopes are gated behind the handshake.
func (s *Session) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// OnClose registers a callback run when the peer is found dead or the
// session is destroyed. Every registered callback fires exactly once, in
// registration order.
func (s *Session) OnClose(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClose = append(s.onClose, fn)
}

// ClosePeer closes the peer window. Only the host side owns the peer's
// lifetime.
func (s *Session) ClosePeer() error {
	if !s.host {
		return ErrNotHost
	}
	s.mu.Lock()
	destroyed := s.destroyed
	s.mu.Unlock()
	if destroyed {
		return ErrDestroyed
	}
	s.peer.Close()
	return nil
}

// Destroy tears the session down: the message listener is removed, liveness
// polling stops and the peer binding is released. Safe to call any number
// of times, from any goroutine.
func (s *Session) Destroy() {
	s.destroyOnce.Do(func() {
		s.mu.Lock()
		s.destroyed = true
		s.ready = false
		s.pending = nil
		closeCbs := s.onClose
		s.onClose = nil
		s.mu.Unlock()

		close(s.stopPoll)
		browser.RemoveListener(s.self, "message", s.listener, nil)

		key := bindingKey{self: s.self, peer: s.peer}
		bindings.Lock()
		if bindings.m[key] == s {
			delete(bindings.m, key)
		}
		bindings.Unlock()

		s.logger.Debug("session destroyed", zap.String("peer_origin", s.peerOrigin))
		for _, cb := range closeCbs {
			cb()
		}
	})
}

// post stamps the configured target origin and hands the envelope to the
// peer's queue.
func (s *Session) post(env *envelope) error {
	raw, err := env.encode()
	if err != nil {
		return err
	}
	s.peer.PostMessage(raw, s.peerOrigin, s.self)
	return nil
}

// onMessage is the session's message listener on its own window.
func (s *Session) onMessage(ev *browser.Event) {
	if ev.Source != s.peer {
		s.logger.Debug("dropping message from unknown source")
		return
	}
	if s.peerOrigin != "*" && ev.Origin != s.peerOrigin {
		s.logger.Warn("dropping message for origin mismatch",
			zap.String("got", ev.Origin),
			zap.String("want", s.peerOrigin))
		return
	}
	env, ok := decodeEnvelope(ev.Data)
	if !ok {
		s.logger.Debug("ignoring non-envelope message")
		return
	}

	switch env.Kind {
	case kindSyn:
		s.post(newEnvelope(kindAck, "", nil))
		s.markReady()
	case kindAck:
		s.markReady()
	case kindMsg:
		s.dispatch(env, ev.Origin)
	default:
		s.logger.Debug("ignoring envelope of unknown kind", zap.String("kind", env.Kind))
	}
}

// markReady completes the handshake and flushes the pending queue in FIFO
// order.
func (s *Session) markReady() {
	s.mu.Lock()
	if s.ready || s.destroyed {
		s.mu.Unlock()
		return
	}
	s.ready = true
	queued := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, env := range queued {
		if err := s.post(env); err != nil {
			s.logger.Error("flushing queued envelope", zap.Error(err))
		}
	}
}

func (s *Session) dispatch(env *envelope, origin string) {
	s.mu.Lock()
	fns := append([]Handler(nil), s.routes[env.Route]...)
	s.mu.Unlock()
	if len(fns) == 0 {
		s.logger.Warn("no handler for route", zap.String("route", env.Route))
		return
	}
	msg := &Message{ID: env.ID, Route: env.Route, Payload: env.Payload, Origin: origin}
	for _, fn := range fns {
		fn(msg)
	}
}

// pollPeer watches for the peer dying out from under the session.
func (s *Session) pollPeer(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopPoll:
			return
		case <-ticker.C:
			if s.peer.Closed() {
				s.logger.Info("peer window closed; tearing session down")
				s.Destroy()
				return
			}
		}
	}
}
