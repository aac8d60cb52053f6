// Package server implements Kinet's session runtime: WebSocket transport,
// the per-session event loop, component instances with explicit change
// detection, and the imperative element handle (Elem) components use to
// mutate styles and classes, bridge animation completion into an end stream,
// and mount children dynamically.
//
// # Sessions
//
// A Session owns one connected client. Events arrive on the read loop, are
// dispatched on a single event loop goroutine, and every mutation a handler
// performs is queued as a binary patch and flushed when the handler returns.
// A forced reflow flushes mid-handler and marks the frame as a barrier, so
// style writes are committed client-side before anything that follows.
//
// # Components
//
// Components implement Render(Ctx) *dom.Node. Instances are marked dirty and
// re-rendered by explicit change detection; the rendered subtree replaces
// the previous one on the client, keeping the instance's stable root HID.
// A component that embeds ElemBase receives its element handle after the
// first render:
//
//	type Panel struct {
//	    server.ElemBase
//	    open bool
//	}
//
//	func (p *Panel) fadeOut(ctx server.Ctx) {
//	    el := p.Element()
//	    el.ActivateAnimationListener()
//	    el.AnimationEnd().Subscribe(func(ev kinet.EndEvent) { ... })
//	    el.SetStyle("transition", "opacity 0.3s").SetStyle("opacity", "0")
//	}
//
// # Dynamic mounting
//
// Factories registered on a Registry are resolved through the mount
// container's owner scope, so subtrees can shadow the server-wide registry.
// AddComponent creates the child, layers bindings on its owner, runs exactly
// one change-detection pass, and returns a caller-owned handle.
package server
