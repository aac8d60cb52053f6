package server

import (
	"strings"
	"sync"

	"github.com/kinet-dev/kinet/pkg/kinet"
)

// ElementPort is the mutation surface an Elem drives. The session implements
// it by queueing patches; tests inject a recording stub.
type ElementPort interface {
	// SetStyle writes one inline style property on the element.
	SetStyle(hid, property, value string)

	// RemoveStyle clears one inline style property.
	RemoveStyle(hid, property string)

	// SetClass adds (present=true) or removes (present=false) a single
	// class token.
	SetClass(hid, class string, present bool)

	// ReadLayout performs a forced layout read on the element. The result
	// is discarded; the read exists to flush pending style writes.
	ReadLayout(hid string)
}

// EventBinder registers a server-side handler for a DOM event on an element
// and arranges for the client to attach a native listener under that exact
// name. Unbind removes both again.
type EventBinder interface {
	Bind(hid, eventName string, h Handler)
	Unbind(hid, eventName string)
}

// Mounter creates component instances at runtime. Sessions implement it.
type Mounter interface {
	Mount(descriptor string, container *ComponentInstance, bindings ...Binding) (*Handle, error)
}

// elemHost is everything an Elem needs from its session.
type elemHost interface {
	ElementPort
	EventBinder
	Mounter
}

// endState tracks the completion-stream lifecycle. Transitions are
// one-directional: absent -> active -> closed.
type endState uint8

const (
	endAbsent endState = iota
	endActive
	endClosed
)

// Elem is the imperative handle for a component's root element. It carries
// the style and class mutators, the forced-reflow barrier, the unified
// transition/animation end stream, and dynamic child mounting.
//
// An Elem is bound to its component's Owner at construction; owner disposal
// completes the end stream exactly once. Native listeners registered by
// ActivateAnimationListener are never unbound, so events that arrive after
// disposal are dropped by the closed stream rather than erroring.
type Elem struct {
	hid   string
	owner *kinet.Owner
	host  elemHost
	hooks *Hooks

	mu    sync.Mutex
	state endState
	ends  *kinet.EndStream
}

// newElem builds the element handle and registers its teardown on owner.
func newElem(hid string, owner *kinet.Owner, host elemHost, hooks *Hooks) *Elem {
	e := &Elem{hid: hid, owner: owner, host: host, hooks: hooks}
	owner.OnCleanup(e.teardown)
	return e
}

// HID returns the element's hydration ID.
func (e *Elem) HID() string {
	return e.hid
}

// SetStyle writes one inline style property and returns the receiver so
// writes chain:
//
//	el.SetStyle("opacity", "0").SetStyle("transform", "scale(0.9)")
//
// Values are passed through untouched; the browser validates them.
func (e *Elem) SetStyle(property, value string) *Elem {
	e.host.SetStyle(e.hid, property, value)
	return e
}

// RemoveStyle clears one inline style property and returns the receiver.
func (e *Elem) RemoveStyle(property string) *Elem {
	e.host.RemoveStyle(e.hid, property)
	return e
}

// AddClass adds every space-separated token in classNames to the element,
// one port call per token. Empty tokens from doubled spaces are skipped.
// When forceReflow is true a forced layout read follows the last token, so
// the class changes are committed before any animation they trigger starts.
func (e *Elem) AddClass(classNames string, forceReflow bool) {
	e.applyClasses(classNames, true, forceReflow)
}

// RemoveClass removes every space-separated token in classNames from the
// element. See AddClass for tokenization and the forceReflow barrier.
func (e *Elem) RemoveClass(classNames string, forceReflow bool) {
	e.applyClasses(classNames, false, forceReflow)
}

func (e *Elem) applyClasses(classNames string, present bool, forceReflow bool) {
	for _, name := range strings.Split(classNames, " ") {
		if name == "" {
			continue
		}
		e.host.SetClass(e.hid, name, present)
	}
	if forceReflow {
		e.ForceReflow()
	}
}

// ForceReflow performs a layout read whose result is discarded. It is both a
// browser-side style flush (the client reads offsetWidth after applying the
// preceding patches) and a transport barrier: everything queued so far is
// sent immediately rather than at handler completion.
func (e *Elem) ForceReflow() {
	e.host.ReadLayout(e.hid)
	e.hooks.reflow()
}

// On registers handler for eventName on the root element without a render
// pass. Handler signatures match the render path: func(), func(*Event), and
// the typed payload forms.
func (e *Elem) On(eventName string, handler any) {
	e.host.Bind(e.hid, eventName, wrapHandler(handler, nil))
}

// Off removes the eventName listener from the root element.
func (e *Elem) Off(eventName string) {
	e.host.Unbind(e.hid, eventName)
}

// ActivateAnimationListener starts the unified end stream. The first call
// creates the stream and binds one native listener per vendor form of
// transitionend and animationend (ten registrations). Repeat calls and calls
// after teardown do nothing.
func (e *Elem) ActivateAnimationListener() {
	e.mu.Lock()
	if e.state != endAbsent {
		e.mu.Unlock()
		return
	}
	e.ends = kinet.NewEndStream()
	e.state = endActive
	e.mu.Unlock()

	for _, kind := range []kinet.EndKind{kinet.EndTransition, kinet.EndAnimation} {
		for _, name := range kinet.EndEventNames(kind) {
			e.host.Bind(e.hid, name, e.endHandler(kind))
		}
	}
}

// EndEvents returns the completion stream, or nil before
// ActivateAnimationListener has run.
func (e *Elem) EndEvents() *kinet.EndStream {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ends
}

// endHandler adapts one native end event into a stream emission. The kind
// comes from the registration, not the payload, so each vendor name feeds
// its own family. Emissions into a closed stream are dropped and counted.
func (e *Elem) endHandler(kind kinet.EndKind) Handler {
	return func(ev *Event) {
		e.mu.Lock()
		stream := e.ends
		e.mu.Unlock()
		if stream == nil {
			return
		}
		end := endEventFromEvent(ev)
		end.Kind = kind
		if !stream.Emit(end) {
			e.hooks.lateSuppressed(kind.String())
			return
		}
		e.hooks.endEmission(kind.String())
	}
}

// AddComponent mounts a child component inside this element. The descriptor
// is resolved against the factory registries visible from container's scope
// chain; bindings become values on the child's Owner. Exactly one
// change-detection pass runs on the returned handle before AddComponent
// returns. An unknown descriptor yields a *ResolutionError and no mutation.
func (e *Elem) AddComponent(descriptor string, container *ComponentInstance, bindings ...Binding) (*Handle, error) {
	return e.host.Mount(descriptor, container, bindings...)
}

// teardown moves the bridge to closed and completes the stream if it was
// active. Registered once on the owner; the state machine makes repeat
// invocations no-ops. Native listeners stay bound.
func (e *Elem) teardown() {
	e.mu.Lock()
	prev := e.state
	stream := e.ends
	e.state = endClosed
	e.mu.Unlock()

	if prev == endActive && stream != nil {
		stream.Complete()
	}
}
