package ktest

import (
	"testing"

	"github.com/kinet-dev/kinet/pkg/dom"
	"github.com/kinet-dev/kinet/pkg/protocol"
	"github.com/kinet-dev/kinet/pkg/server"
)

// SessionBuilder allows fluent construction of test sessions.
type SessionBuilder struct {
	middleware []server.EventMiddleware
	factories  []factoryEntry
	values     []valueEntry
}

type factoryEntry struct {
	descriptor string
	factory    server.Factory
}

type valueEntry struct {
	key   any
	value any
}

// NewSession creates a session builder for testing.
//
// Example:
//
//	h := ktest.NewSession().
//	    WithFactory("chat", newChatWidget).
//	    Mount(&Dashboard{})
//	defer h.Close()
func NewSession() *SessionBuilder {
	return &SessionBuilder{}
}

// WithMiddleware installs event middleware on the session.
func (b *SessionBuilder) WithMiddleware(mw ...server.EventMiddleware) *SessionBuilder {
	b.middleware = append(b.middleware, mw...)
	return b
}

// WithFactory registers a component factory on the root registry.
func (b *SessionBuilder) WithFactory(descriptor string, f server.Factory) *SessionBuilder {
	b.factories = append(b.factories, factoryEntry{descriptor, f})
	return b
}

// WithValue sets an ambient value on the root scope, visible to every
// component unless shadowed by a mount binding.
func (b *SessionBuilder) WithValue(key, value any) *SessionBuilder {
	b.values = append(b.values, valueEntry{key, value})
	return b
}

// Build returns a harness around a connectionless session whose flushes
// land in the harness recorder.
func (b *SessionBuilder) Build() *Harness {
	sess, rec := server.NewTestSession(b.middleware...)
	for _, v := range b.values {
		sess.Owner().SetValue(v.key, v.value)
	}
	registry := server.RegistryFrom(sess.Owner())
	for _, f := range b.factories {
		registry.Register(f.descriptor, f.factory)
	}
	return &Harness{Session: sess, Recorder: rec}
}

// Mount builds the harness, mounts c as the root component, and flushes
// the hydration patches.
func (b *SessionBuilder) Mount(c server.Component) *Harness {
	h := b.Build()
	h.Session.MountRoot(c)
	h.Session.Flush()
	return h
}

// Harness drives a test session synchronously and records what it sends.
type Harness struct {
	Session  *server.Session
	Recorder *server.PatchRecorder

	seq uint64
}

// Close closes the underlying session.
func (h *Harness) Close() {
	h.Session.Close()
}

func (h *Harness) nextSeq() uint64 {
	h.seq++
	return h.seq
}

// Send processes one event synchronously, assigning the next sequence
// number when the event has none.
func (h *Harness) Send(event *server.Event) {
	if event.Seq == 0 {
		event.Seq = h.nextSeq()
	}
	h.Session.ProcessEvent(event)
}

// Click delivers a click to the element with the given HID.
func (h *Harness) Click(hid string) {
	h.Send(&server.Event{Type: protocol.EventClick, HID: hid})
}

// Input delivers an input event carrying value.
func (h *Harness) Input(hid, value string) {
	h.Send(&server.Event{
		Type:    protocol.EventInput,
		HID:     hid,
		Payload: &protocol.InputEventData{Value: value},
	})
}

// EndTransition delivers a transitionend for the given CSS property.
func (h *Harness) EndTransition(hid, property string) {
	h.Send(&server.Event{
		Type:    protocol.EventTransitionEnd,
		HID:     hid,
		Payload: &protocol.TransitionEventData{PropertyName: property},
	})
}

// EndAnimation delivers an animationend for the given animation name.
func (h *Harness) EndAnimation(hid, name string) {
	h.Send(&server.Event{
		Type:    protocol.EventAnimationEnd,
		HID:     hid,
		Payload: &protocol.AnimationEventData{AnimationName: name},
	})
}

// HTML renders the session's current tree.
func (h *Harness) HTML() string {
	return dom.RenderToString(h.Session.CurrentTree())
}

// FindByTag returns the first node with the given tag in render order, or
// nil.
func (h *Harness) FindByTag(tag string) *dom.Node {
	var found *dom.Node
	tree := h.Session.CurrentTree()
	if tree == nil {
		return nil
	}
	tree.Walk(func(n *dom.Node) {
		if found == nil && n.Tag == tag {
			found = n
		}
	})
	return found
}

// ExpectPatch asserts that at least one patch with op was recorded.
func (h *Harness) ExpectPatch(t testing.TB, op protocol.PatchOp) {
	t.Helper()
	if len(h.Recorder.ByOp(op)) == 0 {
		t.Errorf("expected at least one %v patch, recorded ops: %v", op, h.recordedOps())
	}
}

// ExpectNoPatch asserts that no patch with op was recorded.
func (h *Harness) ExpectNoPatch(t testing.TB, op protocol.PatchOp) {
	t.Helper()
	if got := h.Recorder.ByOp(op); len(got) != 0 {
		t.Errorf("expected no %v patches, got %d", op, len(got))
	}
}

func (h *Harness) recordedOps() []protocol.PatchOp {
	var ops []protocol.PatchOp
	for _, p := range h.Recorder.Patches() {
		ops = append(ops, p.Op)
	}
	return ops
}
