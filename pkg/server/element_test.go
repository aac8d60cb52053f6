package server

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/kinet-dev/kinet/pkg/kinet"
	"github.com/kinet-dev/kinet/pkg/protocol"
)

// recordingHost captures every port call an Elem makes.
type recordingHost struct {
	calls []string
	bound map[string]Handler
	order []string
}

func newRecordingHost() *recordingHost {
	return &recordingHost{bound: make(map[string]Handler)}
}

func (r *recordingHost) SetStyle(hid, property, value string) {
	r.calls = append(r.calls, fmt.Sprintf("style %s %s=%s", hid, property, value))
}

func (r *recordingHost) RemoveStyle(hid, property string) {
	r.calls = append(r.calls, fmt.Sprintf("unstyle %s %s", hid, property))
}

func (r *recordingHost) SetClass(hid, class string, present bool) {
	sign := "+"
	if !present {
		sign = "-"
	}
	r.calls = append(r.calls, fmt.Sprintf("class %s %s%s", hid, sign, class))
}

func (r *recordingHost) ReadLayout(hid string) {
	r.calls = append(r.calls, "reflow "+hid)
}

func (r *recordingHost) Bind(hid, eventName string, h Handler) {
	r.bound[handlerKey(hid, eventName)] = h
	r.order = append(r.order, eventName)
}

func (r *recordingHost) Unbind(hid, eventName string) {
	delete(r.bound, handlerKey(hid, eventName))
}

func (r *recordingHost) Mount(descriptor string, container *ComponentInstance, bindings ...Binding) (*Handle, error) {
	return nil, NewResolutionError(descriptor)
}

func newTestElem(t *testing.T) (*Elem, *recordingHost, *kinet.Owner) {
	t.Helper()
	host := newRecordingHost()
	owner := kinet.NewOwner(nil)
	el := newElem("h1", owner, host, nil)
	return el, host, owner
}

func TestSetStyleChains(t *testing.T) {
	el, host, _ := newTestElem(t)

	got := el.SetStyle("opacity", "0").SetStyle("transform", "scale(0.9)")
	if got != el {
		t.Error("expected SetStyle to return the receiver")
	}

	want := []string{
		"style h1 opacity=0",
		"style h1 transform=scale(0.9)",
	}
	assertCalls(t, host.calls, want)
}

func TestRemoveStyle(t *testing.T) {
	el, host, _ := newTestElem(t)

	el.SetStyle("opacity", "0").RemoveStyle("opacity")

	want := []string{
		"style h1 opacity=0",
		"unstyle h1 opacity",
	}
	assertCalls(t, host.calls, want)
}

func TestAddClassSplitsTokens(t *testing.T) {
	el, host, _ := newTestElem(t)

	el.AddClass("fade-in active highlight", false)

	want := []string{
		"class h1 +fade-in",
		"class h1 +active",
		"class h1 +highlight",
	}
	assertCalls(t, host.calls, want)
}

func TestAddClassSkipsEmptyTokens(t *testing.T) {
	el, host, _ := newTestElem(t)

	el.AddClass("a  b ", false)

	want := []string{
		"class h1 +a",
		"class h1 +b",
	}
	assertCalls(t, host.calls, want)
}

func TestRemoveClassSplitsTokens(t *testing.T) {
	el, host, _ := newTestElem(t)

	el.RemoveClass("active highlight", false)

	want := []string{
		"class h1 -active",
		"class h1 -highlight",
	}
	assertCalls(t, host.calls, want)
}

func TestAddClassWithForcedReflow(t *testing.T) {
	el, host, _ := newTestElem(t)

	el.AddClass("fade-out", true)

	want := []string{
		"class h1 +fade-out",
		"reflow h1",
	}
	assertCalls(t, host.calls, want)
}

func TestStyleWritesThenReflowOrdering(t *testing.T) {
	el, host, _ := newTestElem(t)

	el.SetStyle("opacity", "0").SetStyle("transition", "opacity 0.3s")
	el.ForceReflow()
	el.AddClass("visible", false)

	want := []string{
		"style h1 opacity=0",
		"style h1 transition=opacity 0.3s",
		"reflow h1",
		"class h1 +visible",
	}
	assertCalls(t, host.calls, want)
}

func TestReflowHookFires(t *testing.T) {
	host := newRecordingHost()
	owner := kinet.NewOwner(nil)
	var reflows atomic.Int64
	hooks := &Hooks{Reflow: func() { reflows.Add(1) }}
	el := newElem("h1", owner, host, hooks)

	el.ForceReflow()
	el.AddClass("x", true)

	if got := reflows.Load(); got != 2 {
		t.Errorf("expected 2 reflow hook calls, got %d", got)
	}
}

func TestActivateAnimationListenerRegistersVendorNames(t *testing.T) {
	el, host, _ := newTestElem(t)

	el.ActivateAnimationListener()

	want := []string{
		"webkitTransitionEnd",
		"mozTransitionEnd",
		"MSTransitionEnd",
		"oTransitionEnd",
		"transitionend",
		"webkitAnimationEnd",
		"mozAnimationEnd",
		"MSAnimationEnd",
		"oAnimationEnd",
		"animationend",
	}
	assertCalls(t, host.order, want)

	if el.EndEvents() == nil {
		t.Fatal("expected stream after activation")
	}
}

func TestActivateAnimationListenerIdempotent(t *testing.T) {
	el, host, _ := newTestElem(t)

	el.ActivateAnimationListener()
	first := el.EndEvents()
	el.ActivateAnimationListener()

	if len(host.order) != 10 {
		t.Errorf("expected 10 registrations after double activation, got %d", len(host.order))
	}
	if el.EndEvents() != first {
		t.Error("expected the same stream instance after double activation")
	}
}

func TestEndEventsFanInFromEveryVendorName(t *testing.T) {
	el, host, _ := newTestElem(t)
	el.ActivateAnimationListener()

	var events []kinet.EndEvent
	el.EndEvents().Subscribe(func(ev kinet.EndEvent) {
		events = append(events, ev)
	})

	for _, name := range kinet.EndEventNames(kinet.EndTransition) {
		h := host.bound[handlerKey("h1", name)]
		if h == nil {
			t.Fatalf("no handler bound for %s", name)
		}
		h(&Event{
			Type:    protocol.EventTransitionEnd,
			Name:    name,
			HID:     "h1",
			Payload: &protocol.TransitionEventData{PropertyName: "opacity", ElapsedTime: 0.3},
		})
	}
	for _, name := range kinet.EndEventNames(kinet.EndAnimation) {
		h := host.bound[handlerKey("h1", name)]
		if h == nil {
			t.Fatalf("no handler bound for %s", name)
		}
		h(&Event{
			Type:    protocol.EventAnimationEnd,
			Name:    name,
			HID:     "h1",
			Payload: &protocol.AnimationEventData{AnimationName: "pulse", ElapsedTime: 1.2},
		})
	}

	if len(events) != 10 {
		t.Fatalf("expected 10 events, got %d", len(events))
	}
	for i := 0; i < 5; i++ {
		if events[i].Kind != kinet.EndTransition {
			t.Errorf("event %d: expected transition kind, got %v", i, events[i].Kind)
		}
		if events[i].Name != "opacity" {
			t.Errorf("event %d: expected name opacity, got %q", i, events[i].Name)
		}
	}
	for i := 5; i < 10; i++ {
		if events[i].Kind != kinet.EndAnimation {
			t.Errorf("event %d: expected animation kind, got %v", i, events[i].Kind)
		}
		if events[i].Name != "pulse" {
			t.Errorf("event %d: expected name pulse, got %q", i, events[i].Name)
		}
	}
}

func TestEndEventsNotDeduplicated(t *testing.T) {
	el, host, _ := newTestElem(t)
	el.ActivateAnimationListener()

	count := 0
	el.EndEvents().Subscribe(func(kinet.EndEvent) { count++ })

	h := host.bound[handlerKey("h1", "transitionend")]
	ev := &Event{
		Type:    protocol.EventTransitionEnd,
		Name:    "transitionend",
		HID:     "h1",
		Payload: &protocol.TransitionEventData{PropertyName: "opacity"},
	}
	h(ev)
	h(ev)
	h(ev)

	if count != 3 {
		t.Errorf("expected 3 deliveries, got %d", count)
	}
}

func TestTeardownCompletesStreamOnce(t *testing.T) {
	el, _, owner := newTestElem(t)
	el.ActivateAnimationListener()

	completions := 0
	el.EndEvents().OnComplete(func() { completions++ })

	owner.Dispose()
	if completions != 1 {
		t.Fatalf("expected 1 completion after dispose, got %d", completions)
	}

	el.teardown()
	owner.Dispose()
	if completions != 1 {
		t.Errorf("expected completion to stay at 1 after repeated teardown, got %d", completions)
	}
}

func TestLateEmissionSuppressed(t *testing.T) {
	host := newRecordingHost()
	owner := kinet.NewOwner(nil)
	var suppressed atomic.Int64
	var emitted atomic.Int64
	hooks := &Hooks{
		LateSuppressed: func(string) { suppressed.Add(1) },
		EndEmission:    func(string) { emitted.Add(1) },
	}
	el := newElem("h1", owner, host, hooks)
	el.ActivateAnimationListener()

	delivered := 0
	el.EndEvents().Subscribe(func(kinet.EndEvent) { delivered++ })
	stream := el.EndEvents()

	h := host.bound[handlerKey("h1", "animationend")]
	h(&Event{
		Type:    protocol.EventAnimationEnd,
		Name:    "animationend",
		HID:     "h1",
		Payload: &protocol.AnimationEventData{AnimationName: "pulse"},
	})
	if delivered != 1 || emitted.Load() != 1 {
		t.Fatalf("expected 1 delivery before teardown, got delivered=%d emitted=%d",
			delivered, emitted.Load())
	}

	owner.Dispose()

	// Natives stay bound, so the handler can still fire; the closed
	// stream swallows it.
	h(&Event{
		Type:    protocol.EventAnimationEnd,
		Name:    "animationend",
		HID:     "h1",
		Payload: &protocol.AnimationEventData{AnimationName: "pulse"},
	})

	if delivered != 1 {
		t.Errorf("expected no delivery after teardown, got %d", delivered)
	}
	if got := suppressed.Load(); got != 1 {
		t.Errorf("expected 1 suppressed emission, got %d", got)
	}
	if got := stream.Dropped(); got != 1 {
		t.Errorf("expected stream dropped count 1, got %d", got)
	}
}

func TestTeardownBeforeActivation(t *testing.T) {
	el, host, owner := newTestElem(t)

	owner.Dispose()

	if el.EndEvents() != nil {
		t.Error("expected no stream after teardown without activation")
	}

	el.ActivateAnimationListener()
	if el.EndEvents() != nil {
		t.Error("expected activation after teardown to be a no-op")
	}
	if len(host.order) != 0 {
		t.Errorf("expected no registrations, got %d", len(host.order))
	}
}

func TestLateSubscriberSeesCompletion(t *testing.T) {
	el, _, owner := newTestElem(t)
	el.ActivateAnimationListener()
	stream := el.EndEvents()

	owner.Dispose()

	ran := false
	stream.OnComplete(func() { ran = true })
	if !ran {
		t.Error("expected OnComplete after close to run immediately")
	}
}

func TestElemOnOff(t *testing.T) {
	el, host, _ := newTestElem(t)

	clicked := 0
	el.On("click", func() { clicked++ })

	h := host.bound[handlerKey("h1", "click")]
	if h == nil {
		t.Fatal("expected click handler bound")
	}
	h(&Event{Type: protocol.EventClick, HID: "h1"})
	if clicked != 1 {
		t.Errorf("expected 1 click, got %d", clicked)
	}

	el.Off("click")
	if host.bound[handlerKey("h1", "click")] != nil {
		t.Error("expected handler removed after Off")
	}
}

func assertCalls(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d calls, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
