package kinet

import (
	"sync"
	"sync/atomic"
)

// globalIDCounter is the source of unique IDs for owners and stream
// subscriptions. Using atomic operations ensures thread-safe ID generation
// without locks.
var globalIDCounter uint64

// nextID returns the next unique ID. IDs are monotonically increasing and
// never reused.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}

// Cleanup is a function registered to run when an owner is disposed.
type Cleanup func()

// Owner is a disposal scope. Owners form a tree: disposing an owner disposes
// its children first, then runs its registered cleanups. Each owner also
// carries scoped key/value pairs resolved through the parent chain.
type Owner struct {
	id     uint64
	parent *Owner

	childrenMu sync.Mutex
	children   []*Owner

	cleanupsMu sync.Mutex
	cleanups   []Cleanup

	valuesMu sync.RWMutex
	values   map[any]any

	disposed atomic.Bool
}

// NewOwner creates an owner. If parent is non-nil the new owner registers
// itself as a child and is disposed when the parent is disposed.
func NewOwner(parent *Owner) *Owner {
	o := &Owner{
		id:     nextID(),
		parent: parent,
	}
	if parent != nil {
		parent.addChild(o)
	}
	return o
}

// ID returns the owner's unique identifier.
func (o *Owner) ID() uint64 {
	return o.id
}

// Parent returns the owner's parent, or nil for a root owner.
func (o *Owner) Parent() *Owner {
	return o.parent
}

// IsDisposed reports whether Dispose has run.
func (o *Owner) IsDisposed() bool {
	return o.disposed.Load()
}

func (o *Owner) addChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()
	o.children = append(o.children, child)
}

func (o *Owner) removeChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

// OnCleanup registers fn to run when the owner is disposed. Cleanups run in
// reverse registration order. If the owner is already disposed, fn runs
// immediately.
func (o *Owner) OnCleanup(fn Cleanup) {
	if fn == nil {
		return
	}
	if o.disposed.Load() {
		fn()
		return
	}
	o.cleanupsMu.Lock()
	defer o.cleanupsMu.Unlock()
	o.cleanups = append(o.cleanups, fn)
}

// SetValue stores a value in this owner's scope, shadowing any value an
// ancestor holds for the same key.
func (o *Owner) SetValue(key, value any) {
	o.valuesMu.Lock()
	defer o.valuesMu.Unlock()
	if o.values == nil {
		o.values = make(map[any]any)
	}
	o.values[key] = value
}

// Value looks up key in this owner's scope, then walks the parent chain.
// The boolean is false if no owner in the chain holds the key.
func (o *Owner) Value(key any) (any, bool) {
	o.valuesMu.RLock()
	v, ok := o.values[key]
	o.valuesMu.RUnlock()
	if ok {
		return v, true
	}
	if o.parent != nil {
		return o.parent.Value(key)
	}
	return nil, false
}

// Dispose releases the owner. Children are disposed in reverse registration
// order, then cleanups run in reverse registration order, then scoped values
// are dropped. Dispose is idempotent; repeated and concurrent calls after
// the first are no-ops.
func (o *Owner) Dispose() {
	if o.disposed.Swap(true) {
		return
	}

	if o.parent != nil {
		o.parent.removeChild(o)
	}

	o.childrenMu.Lock()
	children := make([]*Owner, len(o.children))
	copy(children, o.children)
	o.children = nil
	o.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	o.cleanupsMu.Lock()
	cleanups := o.cleanups
	o.cleanups = nil
	o.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	o.valuesMu.Lock()
	o.values = nil
	o.valuesMu.Unlock()
}
