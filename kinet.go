// Package kinet is the public API for the kinet server-driven UI runtime.
//
// This is the recommended import for applications:
//
//	import "github.com/kinet-dev/kinet"
//
// Components render on the server and ship as HTML; a thin client applies
// binary patches over a WebSocket and reports DOM events back. A minimal
// application:
//
//	app := kinet.New(kinet.Config{Addr: ":8080"})
//	app.Root(func() kinet.Component {
//		return &Panel{}
//	})
//	app.Run("")
//
// The subpackages stay importable for advanced use: pkg/server holds the
// session runtime, pkg/dom the element tree, pkg/protocol the wire format.
package kinet

import (
	corekinet "github.com/kinet-dev/kinet/pkg/kinet"
	"github.com/kinet-dev/kinet/pkg/server"
)

// =============================================================================
// Runtime (re-export from pkg/server)
// =============================================================================

// Ctx is the per-render, per-event context handed to components and
// middleware.
type Ctx = server.Ctx

// Component is one server-side UI unit.
type Component = server.Component

// FuncComponent adapts a plain render function to Component.
type FuncComponent = server.FuncComponent

// Factory constructs a fresh component instance per mount.
type Factory = server.Factory

// ElemBase gives a component the imperative element surface by embedding.
type ElemBase = server.ElemBase

// Elem is the imperative handle for a component's root element.
type Elem = server.Elem

// Session is one connected (or resumable) client.
type Session = server.Session

// Event is one client event as the runtime hands it to handlers.
type Event = server.Event

// Handler consumes one event.
type Handler = server.Handler

// EventMiddleware wraps event handling; install with App.Use.
type EventMiddleware = server.EventMiddleware

// Handle identifies a dynamically mounted child component.
type Handle = server.Handle

// ComponentInstance ties a mounted component to its session, scope, and
// stable root HID. AddComponent takes one as the container.
type ComponentInstance = server.ComponentInstance

// Binding seeds a scope value on a dynamically mounted component.
type Binding = server.Binding

// Bind builds a Binding for ElemBase.AddComponent or Session.Mount.
func Bind(key, value any) Binding {
	return server.Bind(key, value)
}

// =============================================================================
// Events (re-export from pkg/kinet)
// =============================================================================

// MouseEvent is the payload handed to mouse event handlers.
type MouseEvent = corekinet.MouseEvent

// KeyboardEvent is the payload handed to keyboard event handlers.
type KeyboardEvent = corekinet.KeyboardEvent

// AnimationEvent is the payload for directly registered animation
// lifecycle handlers.
type AnimationEvent = corekinet.AnimationEvent

// TransitionEvent is the payload for directly registered transition
// lifecycle handlers.
type TransitionEvent = corekinet.TransitionEvent

// EndEvent is one CSS completion notification from an element's end stream.
type EndEvent = corekinet.EndEvent

// EndKind discriminates transition completions from animation completions.
type EndKind = corekinet.EndKind

// EndStream is the multicast stream of an element's completion events.
type EndStream = corekinet.EndStream

// Owner is a disposal scope; component and session lifetimes hang off it.
type Owner = corekinet.Owner

const (
	// EndTransition marks completion of a CSS transition.
	EndTransition = corekinet.EndTransition

	// EndAnimation marks completion of a CSS keyframe animation.
	EndAnimation = corekinet.EndAnimation
)

// Common key constants matching JavaScript KeyboardEvent.key values.
const (
	KeyEnter     = corekinet.KeyEnter
	KeyEscape    = corekinet.KeyEscape
	KeySpace     = corekinet.KeySpace
	KeyTab       = corekinet.KeyTab
	KeyBackspace = corekinet.KeyBackspace
	KeyDelete    = corekinet.KeyDelete

	KeyArrowUp    = corekinet.KeyArrowUp
	KeyArrowDown  = corekinet.KeyArrowDown
	KeyArrowLeft  = corekinet.KeyArrowLeft
	KeyArrowRight = corekinet.KeyArrowRight
)
