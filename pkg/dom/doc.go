// Package dom provides the server-side element tree Kinet components render
// into, plus HTML serialization for the initial page shell.
//
// Trees are built with El and a small set of items:
//
//	dom.El("div",
//	    dom.Class("panel"),
//	    dom.Style("opacity", "1"),
//	    dom.On("click", func() { ... }),
//	    dom.Text("hello"),
//	    dom.El("span", dom.Text("inner")),
//	)
//
// Every element receives a hydration ID (HID) during render; the HID is the
// element's wire identity for patches and events. A component's root HID is
// assigned once and stays stable across re-renders, so imperative handles
// bound to it never dangle.
//
// There is no diffing. Change detection re-renders a component subtree and
// replaces it wholesale on the client, keeping the stable root HID.
package dom
