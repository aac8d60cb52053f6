// Package kinet provides the ownership and event primitives for the Kinet
// runtime.
//
// # Owners
//
// Owner is a disposal scope. Every component instance holds one; streams,
// bindings, and child components registered under it are released when it is
// disposed. Owners form a tree, so tearing down a component tears down
// everything it created:
//
//	owner := kinet.NewOwner(parent)
//	owner.OnCleanup(func() { /* release resources */ })
//	owner.Dispose()
//
// Owners also carry scoped values with parent-chain lookup, which the server
// uses for dependency resolution during dynamic mounting.
//
// # End streams
//
// EndStream is a multicast stream of CSS completion events. The server
// bridges the browser's transitionend and animationend families (including
// their vendor-prefixed forms) into a single stream per element:
//
//	elem.ActivateAnimationListener()
//	elem.AnimationEnd().Subscribe(func(ev kinet.EndEvent) {
//	    if ev.Kind == kinet.EndTransition {
//	        // fade finished
//	    }
//	})
//
// A stream is created at most once per element, completes exactly once when
// its element's owner is disposed, and silently drops emissions that arrive
// after completion.
package kinet
