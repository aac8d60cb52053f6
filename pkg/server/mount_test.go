package server

import (
	"errors"
	"testing"

	"github.com/kinet-dev/kinet/pkg/dom"
	"github.com/kinet-dev/kinet/pkg/protocol"
)

// stubPanel counts its render passes.
type stubPanel struct {
	ElemBase
	renders int
	label   string
}

func (p *stubPanel) Render(ctx Ctx) *dom.Node {
	p.renders++
	return dom.El("div", dom.Class("panel"), dom.Text(p.label))
}

func mountTestRoot(t *testing.T, sess *Session) *ComponentInstance {
	t.Helper()
	sess.MountRoot(FuncComponent(func(ctx Ctx) *dom.Node {
		return dom.El("div", dom.Class("app"))
	}))
	return sess.Root()
}

func TestMountHappyPath(t *testing.T) {
	sess, rec := NewTestSession()
	defer sess.Close()
	RegistryFrom(sess.Owner()).Register("panel", func() Component {
		return &stubPanel{label: "hi"}
	})
	root := mountTestRoot(t, sess)
	rec.Reset()

	handle, err := sess.Mount("panel", root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	child := handle.Instance()

	if p := child.Component().(*stubPanel); p.renders != 1 {
		t.Errorf("expected exactly 1 render, got %d", p.renders)
	}

	mounts := rec.ByOp(protocol.PatchMountNode)
	if len(mounts) != 1 {
		t.Fatalf("expected 1 mount patch, got %d", len(mounts))
	}
	if mounts[0].HID != root.HID() {
		t.Errorf("expected mount under %s, got %s", root.HID(), mounts[0].HID)
	}
	if mounts[0].Index != -1 {
		t.Errorf("expected append index -1, got %d", mounts[0].Index)
	}
	if mounts[0].Node == nil {
		t.Fatal("expected a subtree on the mount patch")
	}

	kids := root.Children()
	if len(kids) != 1 || kids[0] != child {
		t.Fatalf("expected child registered under root, got %d children", len(kids))
	}
	if handle.HID() != child.HID() {
		t.Errorf("expected handle HID %s, got %s", child.HID(), handle.HID())
	}
	if child.Element() == nil || child.Element().HID() != child.HID() {
		t.Error("expected element handle attached with the child's root HID")
	}
}

func TestMountUnknownDescriptor(t *testing.T) {
	sess, rec := NewTestSession()
	defer sess.Close()
	root := mountTestRoot(t, sess)
	rec.Reset()

	handle, err := sess.Mount("missing", root)
	if handle != nil {
		t.Error("expected nil handle")
	}
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected *ResolutionError, got %T", err)
	}
	if resErr.Descriptor != "missing" {
		t.Errorf("expected descriptor missing, got %q", resErr.Descriptor)
	}
	if !errors.Is(err, ErrFactoryNotFound) {
		t.Error("expected ErrFactoryNotFound in the chain")
	}
	if got := len(rec.Patches()); got != 0 {
		t.Errorf("expected no patches, got %d", got)
	}
	if got := len(root.Children()); got != 0 {
		t.Errorf("expected no children, got %d", got)
	}
}

func TestMountNilContainer(t *testing.T) {
	sess, _ := NewTestSession()
	defer sess.Close()

	_, err := sess.Mount("panel", nil)
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected *ResolutionError, got %T", err)
	}
}

type bindingKey struct{}

func TestMountBindingsOnChildScope(t *testing.T) {
	sess, _ := NewTestSession()
	defer sess.Close()
	var seen any
	RegistryFrom(sess.Owner()).Register("reader", func() Component {
		return FuncComponent(func(ctx Ctx) *dom.Node {
			seen = ctx.Value(bindingKey{})
			return dom.El("span")
		})
	})
	root := mountTestRoot(t, sess)
	sess.Owner().SetValue(bindingKey{}, "ambient")

	_, err := sess.Mount("reader", root,
		Bind(bindingKey{}, "first"),
		Bind(bindingKey{}, "second"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "second" {
		t.Errorf("expected later binding to win, got %v", seen)
	}
}

func TestMountBindingDoesNotLeakToParentScope(t *testing.T) {
	sess, _ := NewTestSession()
	defer sess.Close()
	RegistryFrom(sess.Owner()).Register("panel", func() Component {
		return &stubPanel{}
	})
	root := mountTestRoot(t, sess)

	if _, err := sess.Mount("panel", root, Bind(bindingKey{}, "child-only")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := root.Owner().Value(bindingKey{}); ok {
		t.Error("expected binding to stay on the child scope")
	}
}

func TestScopedRegistryShadowing(t *testing.T) {
	sess, _ := NewTestSession()
	defer sess.Close()
	var built string
	record := func(name string) Factory {
		return func() Component {
			return FuncComponent(func(ctx Ctx) *dom.Node {
				built = name
				return dom.El("span")
			})
		}
	}
	RegistryFrom(sess.Owner()).Register("widget", record("server"))
	root := mountTestRoot(t, sess)

	scoped := ScopeRegistry(root.Owner())
	scoped.Register("widget", record("scoped"))

	if _, err := sess.Mount("widget", root); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if built != "scoped" {
		t.Errorf("expected scoped factory to win, got %q", built)
	}

	RegistryFrom(sess.Owner()).Register("other", record("parent"))
	if _, err := sess.Mount("other", root); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if built != "parent" {
		t.Errorf("expected fallthrough to the parent registry, got %q", built)
	}
}

func TestHandleDispose(t *testing.T) {
	sess, rec := NewTestSession()
	defer sess.Close()
	RegistryFrom(sess.Owner()).Register("panel", func() Component {
		return &stubPanel{}
	})
	root := mountTestRoot(t, sess)

	handle, err := sess.Mount("panel", root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec.Reset()

	handle.Dispose()
	sess.Flush()

	removes := rec.ByOp(protocol.PatchRemoveNode)
	if len(removes) != 1 {
		t.Fatalf("expected 1 remove patch, got %d", len(removes))
	}
	if removes[0].HID != handle.HID() {
		t.Errorf("expected remove of %s, got %s", handle.HID(), removes[0].HID)
	}
	if got := len(root.Children()); got != 0 {
		t.Errorf("expected no children after dispose, got %d", got)
	}
	if !handle.Instance().IsDisposed() {
		t.Error("expected instance disposed")
	}

	handle.Dispose()
	sess.Flush()
	if got := len(rec.ByOp(protocol.PatchRemoveNode)); got != 1 {
		t.Errorf("expected repeated dispose to queue nothing, got %d removes", got)
	}
}

func TestMountNestedChild(t *testing.T) {
	sess, rec := NewTestSession()
	defer sess.Close()
	reg := RegistryFrom(sess.Owner())
	reg.Register("outer", func() Component { return &stubPanel{label: "outer"} })
	reg.Register("inner", func() Component { return &stubPanel{label: "inner"} })
	root := mountTestRoot(t, sess)

	outer, err := sess.Mount("outer", root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec.Reset()

	inner, err := sess.Mount("inner", outer.Instance())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mounts := rec.ByOp(protocol.PatchMountNode)
	if len(mounts) != 1 {
		t.Fatalf("expected 1 mount patch, got %d", len(mounts))
	}
	if mounts[0].HID != outer.HID() {
		t.Errorf("expected mount under %s, got %s", outer.HID(), mounts[0].HID)
	}

	outer.Dispose()
	if !inner.Instance().IsDisposed() {
		t.Error("expected nested instance disposed with its container")
	}
}

func TestMountHookResults(t *testing.T) {
	sess, _ := NewTestSession()
	defer sess.Close()
	var results []string
	sess.hooks = &Hooks{Mount: func(result string) { results = append(results, result) }}
	RegistryFrom(sess.Owner()).Register("panel", func() Component {
		return &stubPanel{}
	})
	root := mountTestRoot(t, sess)

	if _, err := sess.Mount("panel", root); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := sess.Mount("missing", root); err == nil {
		t.Fatal("expected resolution error")
	}

	assertCalls(t, results, []string{"ok", "not_found"})
}

func TestRegistryDescriptors(t *testing.T) {
	parent := NewRegistry()
	parent.Register("b", func() Component { return &stubPanel{} })
	parent.Register("a", func() Component { return &stubPanel{} })
	child := NewScopedRegistry(parent)
	child.Register("c", func() Component { return &stubPanel{} })
	child.Register("a", func() Component { return &stubPanel{} })

	assertCalls(t, child.Descriptors(), []string{"a", "b", "c"})
}

func TestAddComponentWithoutElement(t *testing.T) {
	var base ElemBase
	_, err := base.AddComponent("panel", nil)
	if !errors.Is(err, ErrElementNotAttached) {
		t.Fatalf("expected ErrElementNotAttached, got %v", err)
	}
}

func TestAddComponentThroughElement(t *testing.T) {
	sess, rec := NewTestSession()
	defer sess.Close()
	reg := RegistryFrom(sess.Owner())
	reg.Register("outer", func() Component { return &stubPanel{label: "outer"} })
	reg.Register("inner", func() Component { return &stubPanel{label: "inner"} })
	root := mountTestRoot(t, sess)

	outer, err := sess.Mount("outer", root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	panel := outer.Instance().Component().(*stubPanel)
	rec.Reset()

	inner, err := panel.AddComponent("inner", outer.Instance())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mounts := rec.ByOp(protocol.PatchMountNode)
	if len(mounts) != 1 || mounts[0].HID != outer.HID() {
		t.Fatalf("expected 1 mount under %s, got %v", outer.HID(), mounts)
	}
	if inner.Instance().Parent() != outer.Instance() {
		t.Error("expected inner parented under outer")
	}
}
