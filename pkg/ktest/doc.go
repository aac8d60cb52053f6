// Package ktest provides testing helpers for kinet components.
//
// The package reduces boilerplate when testing components by providing a
// fluent session builder, a synchronous event harness, and render
// assertions.
//
// # Quick Start
//
//	func TestPanelFades(t *testing.T) {
//	    h := ktest.NewSession().Mount(&FadePanel{})
//	    defer h.Close()
//
//	    h.Click(h.FindByTag("button").HID)
//	    ktest.ExpectContains(t, h.Session.CurrentTree(), "fading")
//	}
//
// # Fluent Session Builder
//
// The builder chains setup operations:
//
//	h := ktest.NewSession().
//	    WithFactory("chat", newChatWidget).
//	    WithValue(themeKey, "dark").
//	    WithMiddleware(middleware.Prometheus()).
//	    Mount(&Dashboard{})
//
// # Driving Events
//
// The harness delivers events synchronously, exactly as the event loop
// would, and records every flushed patch:
//
//	h.Click(hid)
//	h.Input(hid, "hello")
//	h.EndTransition(hid, "opacity")
//	h.ExpectPatch(t, protocol.PatchSetStyle)
//
// # Render Assertions
//
// Assert on rendered HTML output:
//
//	ktest.ExpectContains(t, tree, "Welcome")
//	ktest.ExpectElement(t, tree, "button")
//	ktest.ExpectAttribute(t, tree, "class", "panel open")
package ktest
