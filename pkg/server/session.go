package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kinet-dev/kinet/pkg/dom"
	"github.com/kinet-dev/kinet/pkg/kinet"
	"github.com/kinet-dev/kinet/pkg/protocol"
)

// Session is one client's server-side state: its component tree, scope
// hierarchy, handler registry, and patch stream. A session outlives its
// WebSocket connection; patches queued while detached are flushed on attach
// or resume.
type Session struct {
	// Identity
	ID         string
	CreatedAt  time.Time
	LastActive time.Time

	// Connection. mu protects conn writes and swaps.
	conn *websocket.Conn
	mu   sync.Mutex

	closed atomic.Bool

	// Sequence numbers for reliable delivery.
	sendSeq atomic.Uint64
	recvSeq atomic.Uint64
	ackSeq  atomic.Uint64

	// Component state
	root        *ComponentInstance
	currentTree *dom.Node

	handlersMu sync.RWMutex
	handlers   map[string]Handler

	// Scope and HID allocation
	owner *kinet.Owner
	hids  *dom.HIDGenerator

	// Outbound patch buffer
	pendingMu sync.Mutex
	pending   []protocol.Patch

	// Instances awaiting re-render
	dirtyMu sync.Mutex
	dirty   []*ComponentInstance

	// Channels
	events     chan *Event
	dispatchCh chan func()
	renderCh   chan struct{}
	done       chan struct{}

	cfg        Config
	logger     *slog.Logger
	hooks      *Hooks
	middleware []EventMiddleware

	// onDisconnect runs when the read loop ends without the session being
	// closed; the server uses it to move the session to the resume window.
	onDisconnect func(*Session)

	// recorder, when set, receives flushed frames instead of the wire.
	recorder *PatchRecorder

	// Counters
	eventCount atomic.Uint64
	patchCount atomic.Uint64
	bytesSent  atomic.Uint64
	bytesRecv  atomic.Uint64
}

// generateSessionID generates a cryptographically random session ID.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// Weak session IDs are dangerous; refuse to run without entropy.
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

// newSession creates a detached session. The caller installs the default
// registry and mounts the root before attaching a connection.
func newSession(cfg Config, middleware []EventMiddleware) *Session {
	now := time.Now()
	id := generateSessionID()

	s := &Session{
		ID:         id,
		CreatedAt:  now,
		LastActive: now,
		handlers:   make(map[string]Handler),
		owner:      kinet.NewOwner(nil),
		hids:       dom.NewHIDGenerator(),
		events:     make(chan *Event, cfg.EventQueueSize),
		dispatchCh: make(chan func(), cfg.EventQueueSize),
		renderCh:   make(chan struct{}, 1),
		done:       make(chan struct{}),
		cfg:        cfg,
		hooks:      cfg.Hooks,
		middleware: middleware,
		logger:     cfg.Logger.With("session_id", id),
	}
	return s
}

// Logger returns the session-scoped logger.
func (s *Session) Logger() *slog.Logger {
	return s.logger
}

// Owner returns the session's root scope. Instance scopes hang off it, so
// disposing it on close tears down every component and element bridge.
func (s *Session) Owner() *kinet.Owner {
	return s.owner
}

// Root returns the root component instance, or nil before MountRoot.
func (s *Session) Root() *ComponentInstance {
	return s.root
}

// CurrentTree returns the last rendered root tree.
func (s *Session) CurrentTree() *dom.Node {
	return s.currentTree
}

// MountRoot creates the root instance and renders it once. No patches are
// queued for the tree itself; the caller serves it as HTML and the client
// hydrates. Listener attachment patches are queued and flushed on attach.
func (s *Session) MountRoot(component Component) *dom.Node {
	s.root = newComponentInstance(s, component, nil)

	ctx := newRenderCtx(s, s.root)
	node := component.Render(ctx)
	if node == nil {
		node = dom.El("div")
	}
	node.HID = s.root.rootHID
	dom.AssignHIDs(node, s.hids)
	s.root.mounted = true
	s.currentTree = node

	s.rebindHandlers(s.root, node)

	s.handlersMu.RLock()
	handlerCount := len(s.handlers)
	s.handlersMu.RUnlock()
	s.logger.Info("mounted root component", "hid", s.root.rootHID, "handlers", handlerCount)
	return node
}

// renderComponent re-renders one instance and queues the patches that carry
// the result: a mount for the first render of a dynamic child, a subtree
// replace afterwards, then listener attachments for the fresh elements.
func (s *Session) renderComponent(ci *ComponentInstance) {
	ctx := newRenderCtx(s, ci)
	node := ci.component.Render(ctx)
	if node == nil {
		node = dom.El("div")
	}
	node.HID = ci.rootHID
	dom.AssignHIDs(node, s.hids)

	if !ci.mounted {
		parentHID := ""
		if ci.parent != nil {
			parentHID = ci.parent.rootHID
		}
		s.queuePatch(protocol.NewMountNodePatch(parentHID, -1, protocol.NodeToWire(node)))
		ci.mounted = true
	} else {
		s.queuePatch(protocol.NewReplaceNodePatch(ci.rootHID, protocol.NodeToWire(node)))
	}

	if ci == s.root {
		s.currentTree = node
	}
	s.rebindHandlers(ci, node)
}

// rebindHandlers drops the instance's previous non-root handler keys and
// collects handlers from the fresh tree. Root-element keys are overwritten
// in place: the client morphs the root on replace, so its native listeners
// survive and must not be re-attached.
func (s *Session) rebindHandlers(ci *ComponentInstance, node *dom.Node) {
	s.removeHandlers(ci.childHandlerKeys)
	ci.childHandlerKeys = ci.childHandlerKeys[:0]

	node.Walk(func(n *dom.Node) {
		if n.HID == "" || len(n.Handlers) == 0 {
			return
		}
		for name, value := range n.Handlers {
			if value == nil {
				continue
			}
			s.Bind(n.HID, name, wrapHandler(value, s.logger))
			if n.HID != ci.rootHID {
				ci.childHandlerKeys = append(ci.childHandlerKeys, handlerKey(n.HID, name))
			}
		}
	})
}

// Bind implements EventBinder. The handler is registered under the exact
// event name; a Listen patch is queued the first time so the client attaches
// a native listener for that name. Rebinding an existing key swaps the
// handler without another Listen.
func (s *Session) Bind(hid, eventName string, h Handler) {
	key := handlerKey(hid, eventName)

	s.handlersMu.Lock()
	if s.handlers == nil {
		s.handlersMu.Unlock()
		return
	}
	_, existed := s.handlers[key]
	s.handlers[key] = h
	s.handlersMu.Unlock()

	if !existed {
		s.queuePatch(protocol.NewListenPatch(hid, eventName))
	}
}

// Unbind implements EventBinder. It removes the handler and tells the client
// to detach the native listener.
func (s *Session) Unbind(hid, eventName string) {
	key := handlerKey(hid, eventName)

	s.handlersMu.Lock()
	if s.handlers == nil {
		s.handlersMu.Unlock()
		return
	}
	_, existed := s.handlers[key]
	delete(s.handlers, key)
	s.handlersMu.Unlock()

	if existed {
		s.queuePatch(protocol.NewUnlistenPatch(hid, eventName))
	}
}

func (s *Session) removeHandlers(keys []string) {
	if len(keys) == 0 {
		return
	}
	s.handlersMu.Lock()
	for _, key := range keys {
		delete(s.handlers, key)
	}
	s.handlersMu.Unlock()
}

// handleEvent runs one event through the middleware chain and the handler,
// then re-renders dirty instances and flushes.
func (s *Session) handleEvent(event *Event) {
	if s.closed.Load() {
		return
	}
	s.recvSeq.Store(event.Seq)
	s.eventCount.Add(1)
	s.LastActive = time.Now()

	ctx := newEventCtx(s, event)
	err := s.runMiddleware(ctx, func(Ctx) error {
		key := handlerKey(event.HID, event.SourceName())
		s.handlersMu.RLock()
		handler, ok := s.handlers[key]
		s.handlersMu.RUnlock()
		if !ok {
			return fmt.Errorf("%w: %s", ErrHandlerNotFound, key)
		}
		return s.safeExecute(handler, event)
	})
	if err != nil {
		s.logger.Warn("event failed",
			"hid", event.HID,
			"event", event.SourceName(),
			"error", err)
		s.sendErrorMessage(errorCodeFor(err), err.Error())
	}

	s.renderDirty()
	s.Flush()
}

// runMiddleware threads ctx through the registered middleware around core.
func (s *Session) runMiddleware(ctx Ctx, core func(Ctx) error) error {
	next := core
	for i := len(s.middleware) - 1; i >= 0; i-- {
		mw := s.middleware[i]
		inner := next
		next = func(c Ctx) error {
			return mw(c, inner)
		}
	}
	return next(ctx)
}

// safeExecute runs a handler with panic recovery. A panic becomes a
// *HandlerError; the session stays alive.
func (s *Session) safeExecute(handler Handler, event *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			s.logger.Error("handler panic",
				"panic", r,
				"hid", event.HID,
				"event", event.SourceName(),
				"stack", string(stack))
			err = NewHandlerError(s.ID, event.HID, event.SourceName(), r, stack)
		}
	}()

	handler(event)
	return nil
}

// markDirty queues the instance for the next render pass and wakes the
// event loop.
func (s *Session) markDirty(ci *ComponentInstance) {
	s.dirtyMu.Lock()
	s.dirty = append(s.dirty, ci)
	s.dirtyMu.Unlock()

	select {
	case s.renderCh <- struct{}{}:
	default:
	}
}

// renderDirty re-renders every invalidated instance. Renders may invalidate
// further instances; the loop drains until quiet.
func (s *Session) renderDirty() {
	for {
		s.dirtyMu.Lock()
		dirty := s.dirty
		s.dirty = nil
		s.dirtyMu.Unlock()

		if len(dirty) == 0 {
			return
		}
		for _, ci := range dirty {
			if ci.IsDisposed() {
				continue
			}
			if ci.dirty.Swap(false) {
				s.renderComponent(ci)
			}
		}
	}
}

// queuePatch appends one patch to the outbound buffer. Patches queued on a
// closed session are dropped.
func (s *Session) queuePatch(p protocol.Patch) {
	if s.closed.Load() {
		return
	}
	s.pendingMu.Lock()
	s.pending = append(s.pending, p)
	s.pendingMu.Unlock()
}

func (s *Session) queueRemoveNode(hid string) {
	s.queuePatch(protocol.NewRemoveNodePatch(hid))
}

// PatchCount returns the number of queued, unflushed patches.
func (s *Session) PatchCount() int {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	return len(s.pending)
}

// Flush sends the queued patches as one frame. No-op when the buffer is
// empty or the session is detached (the buffer then waits for attach).
func (s *Session) Flush() {
	s.flush(0)
}

func (s *Session) flush(flags protocol.FrameFlags) {
	if s.closed.Load() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil && s.recorder == nil {
		return
	}

	s.pendingMu.Lock()
	batch := s.pending
	s.pending = nil
	s.pendingMu.Unlock()

	if len(batch) == 0 {
		return
	}

	seq := s.sendSeq.Add(1)
	pf := &protocol.PatchesFrame{Seq: seq, Patches: batch}

	if s.recorder != nil {
		s.recorder.record(seq, flags, batch)
	} else {
		frame := protocol.NewFrameWithFlags(protocol.FramePatches, flags, protocol.EncodePatches(pf))
		data := frame.Encode()
		s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			s.logger.Error("write error", "error", err)
			s.conn.Close()
			s.conn = nil
			return
		}
		s.bytesSent.Add(uint64(len(data)))
	}

	s.patchCount.Add(uint64(len(batch)))
	s.hooks.patchesSent(len(batch))
	s.logger.Debug("sent patches", "seq", seq, "count", len(batch), "flags", uint8(flags))
}

// ElementPort implementation. Each call queues the corresponding patch;
// ReadLayout additionally flushes with the barrier flag so everything queued
// so far is applied and measured before later frames.

func (s *Session) SetStyle(hid, property, value string) {
	s.queuePatch(protocol.NewSetStylePatch(hid, property, value))
}

func (s *Session) RemoveStyle(hid, property string) {
	s.queuePatch(protocol.NewRemoveStylePatch(hid, property))
}

func (s *Session) SetClass(hid, class string, present bool) {
	if present {
		s.queuePatch(protocol.NewAddClassPatch(hid, class))
	} else {
		s.queuePatch(protocol.NewRemoveClassPatch(hid, class))
	}
}

func (s *Session) ReadLayout(hid string) {
	s.queuePatch(protocol.NewMeasurePatch(hid, "offsetWidth"))
	s.flush(protocol.FlagBarrier)
}

// sendErrorMessage sends an error frame to the client.
func (s *Session) sendErrorMessage(code protocol.ErrorCode, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() || s.conn == nil {
		return
	}

	em := protocol.NewError(code, message)
	frame := protocol.NewFrame(protocol.FrameError, protocol.EncodeErrorMessage(em))

	s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	s.conn.WriteMessage(websocket.BinaryMessage, frame.Encode())
}

// sendPing sends a heartbeat ping.
func (s *Session) sendPing() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrSessionClosed
	}
	if s.conn == nil {
		return ErrNoConnection
	}

	payload := protocol.EncodeControl(protocol.ControlPing,
		&protocol.PingPong{Timestamp: uint64(time.Now().UnixMilli())})
	frame := protocol.NewFrame(protocol.FrameControl, payload)

	s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame.Encode()); err != nil {
		return err
	}
	return nil
}

// QueueEvent queues an inbound event for the event loop.
func (s *Session) QueueEvent(event *Event) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	select {
	case s.events <- event:
		return nil
	default:
		s.logger.Warn("event queue full, dropping event", "hid", event.HID)
		return ErrEventQueueFull
	}
}

// Dispatch schedules fn on the session's event loop. It is the correct way
// to touch session state from other goroutines; after fn runs, dirty
// instances re-render and patches flush.
//
//	go func() {
//	    result, err := fetch(ctx.StdContext())
//	    ctx.Dispatch(func() {
//	        apply(result, err)
//	    })
//	}()
func (s *Session) Dispatch(fn func()) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	select {
	case s.dispatchCh <- fn:
		return nil
	case <-s.done:
		return ErrSessionClosed
	default:
		s.logger.Warn("dispatch queue full, discarding callback")
		return ErrEventQueueFull
	}
}

// Attach installs conn as the session's connection, replacing and closing
// any previous one.
func (s *Session) Attach(conn *websocket.Conn) {
	s.mu.Lock()
	old := s.conn
	s.conn = conn
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
	s.LastActive = time.Now()
}

// Detach drops the connection but keeps the session alive for resume.
func (s *Session) Detach() {
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.mu.Unlock()
	s.logger.Info("session detached")
}

// Resume swaps in a new connection after reconnect and flushes whatever
// accumulated while detached, marked with the resumed flag.
func (s *Session) Resume(conn *websocket.Conn, lastSeq uint64) {
	s.Attach(conn)
	s.ackSeq.Store(lastSeq)
	if lastSeq < s.sendSeq.Load() {
		s.logger.Warn("client behind on resume, frames lost",
			"client_seq", lastSeq,
			"server_seq", s.sendSeq.Load())
	}
	s.flush(protocol.FlagResumed)
	s.logger.Info("session resumed", "last_seq", lastSeq)
}

// Close tears the session down: scopes disposed (completing every element's
// end stream), handlers cleared, connection closed. Idempotent.
func (s *Session) Close() {
	s.CloseWithReason(protocol.CloseNormal, "")
}

// CloseWithReason is Close with an explicit wire reason.
func (s *Session) CloseWithReason(reason protocol.CloseReason, message string) {
	if s.closed.Swap(true) {
		return
	}
	s.closeInternal(reason, message)
}

func (s *Session) closeInternal(reason protocol.CloseReason, message string) {
	select {
	case <-s.done:
	default:
		close(s.done)
	}

	s.owner.Dispose()

	s.handlersMu.Lock()
	s.handlers = nil
	s.handlersMu.Unlock()

	s.mu.Lock()
	if s.conn != nil {
		payload := protocol.EncodeControl(protocol.ControlClose,
			&protocol.CloseMessage{Reason: reason, Message: message})
		frame := protocol.NewFrame(protocol.FrameControl, payload)
		s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		s.conn.WriteMessage(websocket.BinaryMessage, frame.Encode())
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.conn.Close()
		s.conn = nil
	}
	s.mu.Unlock()

	s.hooks.sessionClosed()
	s.logger.Info("session closed",
		"reason", reason.String(),
		"events", s.eventCount.Load(),
		"patches", s.patchCount.Load(),
		"bytes_sent", s.bytesSent.Load(),
		"bytes_recv", s.bytesRecv.Load())
}

// IsClosed reports whether Close has run.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Done returns a channel closed when the session shuts down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
