package server

import (
	"sync"
	"sync/atomic"

	"github.com/kinet-dev/kinet/pkg/dom"
	"github.com/kinet-dev/kinet/pkg/kinet"
)

// Component is the behavior of one server-side UI unit. Render produces the
// element tree for the component's current state; the runtime decides when
// to call it (mount, explicit DetectChanges, Invalidate).
type Component interface {
	Render(ctx Ctx) *dom.Node
}

// FuncComponent adapts a plain render function to Component.
type FuncComponent func(ctx Ctx) *dom.Node

// Render implements Component.
func (f FuncComponent) Render(ctx Ctx) *dom.Node {
	return f(ctx)
}

// ElementAware is implemented by components that want the imperative handle
// for their root element. The runtime calls AttachElement once, at instance
// creation, before the first render.
type ElementAware interface {
	AttachElement(el *Elem)
}

// ElemBase gives a component the imperative element surface by embedding:
//
//	type FadePanel struct {
//		server.ElemBase
//	}
//
// The runtime attaches the root element handle through ElementAware; the
// component then drives styles, classes, reflow barriers, the end stream,
// and dynamic mounting through the base methods.
type ElemBase struct {
	el *Elem
}

// AttachElement implements ElementAware.
func (b *ElemBase) AttachElement(el *Elem) {
	b.el = el
}

// Element returns the root element handle, or nil before attachment.
func (b *ElemBase) Element() *Elem {
	return b.el
}

// AddComponent mounts a child component inside this component's root
// element. Intended for component implementations; see Elem.AddComponent.
func (b *ElemBase) AddComponent(descriptor string, container *ComponentInstance, bindings ...Binding) (*Handle, error) {
	if b.el == nil {
		return nil, ErrElementNotAttached
	}
	return b.el.AddComponent(descriptor, container, bindings...)
}

var instanceSeq atomic.Uint64

// ComponentInstance ties a Component to its place in a session: its scope
// Owner, its stable root HID, its parent and children, and its element
// handle. Lifecycle methods must run on the session's event loop; use
// Session.Dispatch from other goroutines.
type ComponentInstance struct {
	id        uint64
	session   *Session
	component Component
	owner     *kinet.Owner
	parent    *ComponentInstance

	mu       sync.Mutex
	children []*ComponentInstance

	rootHID string
	el      *Elem

	// mounted flips when the first render's subtree reaches the client.
	mounted bool

	// childHandlerKeys are the handler-map keys collected from the last
	// render for non-root nodes. Re-rendering replaces the subtree, so
	// these are cleared and re-collected each pass.
	childHandlerKeys []string

	dirty    atomic.Bool
	disposed atomic.Bool
}

// newComponentInstance creates the instance under parent's scope (or the
// session root scope), assigns the stable root HID, and attaches the element
// handle. It does not render; the first DetectChanges does.
func newComponentInstance(s *Session, c Component, parent *ComponentInstance) *ComponentInstance {
	parentOwner := s.owner
	if parent != nil {
		parentOwner = parent.owner
	}
	inst := &ComponentInstance{
		id:        instanceSeq.Add(1),
		session:   s,
		component: c,
		owner:     kinet.NewOwner(parentOwner),
		parent:    parent,
		rootHID:   s.hids.Next(),
	}
	inst.el = newElem(inst.rootHID, inst.owner, s, s.hooks)
	if aware, ok := c.(ElementAware); ok {
		aware.AttachElement(inst.el)
	}
	if parent != nil {
		parent.addChild(inst)
	}
	inst.owner.OnCleanup(inst.finalize)
	return inst
}

// ID returns the instance's session-unique numeric id, used in logs.
func (ci *ComponentInstance) ID() uint64 {
	return ci.id
}

// HID returns the stable root hydration ID.
func (ci *ComponentInstance) HID() string {
	return ci.rootHID
}

// Component returns the behavior object.
func (ci *ComponentInstance) Component() Component {
	return ci.component
}

// Owner returns the instance's scope.
func (ci *ComponentInstance) Owner() *kinet.Owner {
	return ci.owner
}

// Element returns the root element handle.
func (ci *ComponentInstance) Element() *Elem {
	return ci.el
}

// Parent returns the enclosing instance, or nil for the session root.
func (ci *ComponentInstance) Parent() *ComponentInstance {
	return ci.parent
}

// Children returns a snapshot of the current child instances.
func (ci *ComponentInstance) Children() []*ComponentInstance {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	out := make([]*ComponentInstance, len(ci.children))
	copy(out, ci.children)
	return out
}

// IsDisposed reports whether the instance has been torn down.
func (ci *ComponentInstance) IsDisposed() bool {
	return ci.disposed.Load()
}

// Invalidate marks the instance dirty. The session re-renders dirty
// instances after the current event or dispatched function completes.
func (ci *ComponentInstance) Invalidate() {
	if ci.disposed.Load() {
		return
	}
	if ci.dirty.Swap(true) {
		return
	}
	ci.session.markDirty(ci)
}

// DetectChanges synchronously re-renders the instance and queues the
// resulting patches. No-op after disposal.
func (ci *ComponentInstance) DetectChanges() {
	if ci.disposed.Load() {
		return
	}
	ci.dirty.Store(false)
	ci.session.renderComponent(ci)
}

// Dispose removes the instance's subtree from the client and disposes its
// scope, cascading to children, cleanups, and the element bridge.
func (ci *ComponentInstance) Dispose() {
	if ci.disposed.Load() {
		return
	}
	if ci.mounted {
		ci.session.queueRemoveNode(ci.rootHID)
	}
	ci.owner.Dispose()
}

// finalize runs as the instance owner's cleanup.
func (ci *ComponentInstance) finalize() {
	ci.disposed.Store(true)
	ci.session.removeHandlers(ci.childHandlerKeys)
	ci.childHandlerKeys = nil
	if ci.parent != nil {
		ci.parent.removeChild(ci)
	}
}

func (ci *ComponentInstance) addChild(child *ComponentInstance) {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	ci.children = append(ci.children, child)
}

func (ci *ComponentInstance) removeChild(child *ComponentInstance) {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	for i, existing := range ci.children {
		if existing == child {
			ci.children = append(ci.children[:i], ci.children[i+1:]...)
			return
		}
	}
}
