package server

import (
	"sort"
	"sync"

	"github.com/kinet-dev/kinet/pkg/kinet"
)

// Factory builds a fresh component instance's behavior object.
type Factory func() Component

// Registry maps component descriptors to factories. Registries chain: a
// lookup that misses falls through to the parent, so a scoped registry can
// shadow or extend the server default.
type Registry struct {
	parent *Registry

	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a root registry with no parent.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// NewScopedRegistry creates a registry that falls through to parent on miss.
func NewScopedRegistry(parent *Registry) *Registry {
	return &Registry{parent: parent, factories: make(map[string]Factory)}
}

// Register binds a descriptor to a factory, replacing any previous binding
// in this registry.
func (r *Registry) Register(descriptor string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[descriptor] = f
}

// Resolve looks the descriptor up in this registry, then in each parent.
func (r *Registry) Resolve(descriptor string) (Factory, bool) {
	for reg := r; reg != nil; reg = reg.parent {
		reg.mu.RLock()
		f, ok := reg.factories[descriptor]
		reg.mu.RUnlock()
		if ok {
			return f, true
		}
	}
	return nil, false
}

// Descriptors returns the descriptors registered in this registry and its
// parents, sorted.
func (r *Registry) Descriptors() []string {
	seen := make(map[string]struct{})
	for reg := r; reg != nil; reg = reg.parent {
		reg.mu.RLock()
		for name := range reg.factories {
			seen[name] = struct{}{}
		}
		reg.mu.RUnlock()
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// registryKey scopes a *Registry on an Owner's value chain.
type registryKeyType struct{}

var registryKey registryKeyType

// RegistryFrom returns the nearest registry visible from owner's scope
// chain, or nil when none is installed.
func RegistryFrom(owner *kinet.Owner) *Registry {
	if owner == nil {
		return nil
	}
	v, ok := owner.Value(registryKey)
	if !ok {
		return nil
	}
	r, _ := v.(*Registry)
	return r
}

// ScopeRegistry installs a fresh registry on owner that shadows whatever the
// scope chain already exposes, and returns it. Components use it to publish
// factories visible only to their subtree.
func ScopeRegistry(owner *kinet.Owner) *Registry {
	reg := NewScopedRegistry(RegistryFrom(owner))
	owner.SetValue(registryKey, reg)
	return reg
}

// Binding carries one value for a dynamically mounted child's Owner scope.
// Later bindings win over earlier ones and over ambient values.
type Binding struct {
	Key   any
	Value any
}

// Bind builds a Binding.
func Bind(key, value any) Binding {
	return Binding{Key: key, Value: value}
}

// Handle wraps a dynamically mounted component. The caller owns it: the
// runtime never destroys the child on its own, other than transitively when
// the session's scope tree is disposed.
type Handle struct {
	inst *ComponentInstance
}

// Instance returns the mounted component instance.
func (h *Handle) Instance() *ComponentInstance {
	return h.inst
}

// HID returns the root hydration ID of the mounted subtree.
func (h *Handle) HID() string {
	return h.inst.HID()
}

// DetectChanges re-renders the mounted component and queues the resulting
// patches.
func (h *Handle) DetectChanges() {
	h.inst.DetectChanges()
}

// Dispose tears the mounted component down and removes its subtree.
func (h *Handle) Dispose() {
	h.inst.Dispose()
}

// Mount implements Mounter. It resolves descriptor against the registries
// visible from container's scope chain, creates the child under container
// with bindings layered on the child's scope, runs one change-detection pass
// so the subtree is mounted and wired, and returns the handle. Resolution
// failure returns a *ResolutionError before anything is created.
func (s *Session) Mount(descriptor string, container *ComponentInstance, bindings ...Binding) (*Handle, error) {
	factory, ok := resolveFactory(descriptor, container)
	if !ok {
		s.hooks.mount("not_found")
		return nil, NewResolutionError(descriptor)
	}

	child := newComponentInstance(s, factory(), container)
	for _, b := range bindings {
		child.Owner().SetValue(b.Key, b.Value)
	}

	handle := &Handle{inst: child}
	handle.DetectChanges()
	s.Flush()

	s.hooks.mount("ok")
	s.logger.Debug("component mounted",
		"descriptor", descriptor,
		"hid", child.HID(),
		"container", container.HID())
	return handle, nil
}

func resolveFactory(descriptor string, container *ComponentInstance) (Factory, bool) {
	if container == nil {
		return nil, false
	}
	registry := RegistryFrom(container.Owner())
	if registry == nil {
		return nil, false
	}
	return registry.Resolve(descriptor)
}
