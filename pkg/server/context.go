package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/kinet-dev/kinet/pkg/kinet"
	"github.com/kinet-dev/kinet/pkg/protocol"
)

// Ctx is the per-render, per-event context handed to components and
// middleware. It carries the session, the triggering event when there is
// one, a standard context for outbound calls, and a value scope.
type Ctx interface {
	// Session returns the owning session.
	Session() *Session

	// Event returns the event being handled, or nil during renders.
	Event() *Event

	// Logger returns the session logger.
	Logger() *slog.Logger

	// StdContext returns the context.Context for outbound calls made
	// while handling this event or render.
	StdContext() context.Context

	// WithStdContext returns a copy carrying std. Middleware uses it to
	// propagate spans into downstream stages.
	WithStdContext(std context.Context) Ctx

	// Dispatch schedules fn on the session's event loop.
	Dispatch(fn func()) error

	// Emit queues a CustomEvent dispatch on the element, with detail
	// marshaled to JSON.
	Emit(hid, name string, detail any) error

	// SetValue stores a value on the context's scope.
	SetValue(key, value any)

	// Value looks a key up through the scope chain.
	Value(key any) any

	// PatchCount returns the number of patches queued and not yet
	// flushed.
	PatchCount() int
}

type sessionCtx struct {
	sess  *Session
	event *Event
	scope *kinet.Owner
	std   context.Context
}

// newEventCtx builds the context for handling one event. Values set on it
// land on the session's root scope.
func newEventCtx(sess *Session, event *Event) Ctx {
	return &sessionCtx{sess: sess, event: event, scope: sess.owner}
}

// newRenderCtx builds the context for rendering one instance. Values set on
// it land on the instance's scope.
func newRenderCtx(sess *Session, inst *ComponentInstance) Ctx {
	return &sessionCtx{sess: sess, scope: inst.owner}
}

func (c *sessionCtx) Session() *Session {
	return c.sess
}

func (c *sessionCtx) Event() *Event {
	return c.event
}

func (c *sessionCtx) Logger() *slog.Logger {
	return c.sess.Logger()
}

func (c *sessionCtx) StdContext() context.Context {
	if c.std == nil {
		return context.Background()
	}
	return c.std
}

func (c *sessionCtx) WithStdContext(std context.Context) Ctx {
	clone := *c
	clone.std = std
	return &clone
}

func (c *sessionCtx) Dispatch(fn func()) error {
	return c.sess.Dispatch(fn)
}

func (c *sessionCtx) Emit(hid, name string, detail any) error {
	detailJSON := "null"
	if detail != nil {
		b, err := json.Marshal(detail)
		if err != nil {
			return err
		}
		detailJSON = string(b)
	}
	c.sess.queuePatch(protocol.NewDispatchPatch(hid, name, detailJSON))
	return nil
}

func (c *sessionCtx) SetValue(key, value any) {
	c.scope.SetValue(key, value)
}

func (c *sessionCtx) Value(key any) any {
	v, _ := c.scope.Value(key)
	return v
}

func (c *sessionCtx) PatchCount() int {
	return c.sess.PatchCount()
}
