package protocol

import (
	"errors"
	"testing"
)

func TestTransitionEndEventRoundTrip(t *testing.T) {
	ev := &Event{
		Seq:  9,
		Type: EventTransitionEnd,
		Name: "webkitTransitionEnd",
		HID:  "h3",
		Payload: &TransitionEventData{
			PropertyName: "opacity",
			ElapsedTime:  0.25,
		},
	}

	decoded, err := DecodeEvent(EncodeEvent(ev))
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}

	if decoded.Type != EventTransitionEnd {
		t.Errorf("expected transitionend family, got %s", decoded.Type)
	}
	if decoded.Name != "webkitTransitionEnd" {
		t.Errorf("expected registered name to survive, got %q", decoded.Name)
	}
	if decoded.SourceName() != "webkitTransitionEnd" {
		t.Errorf("expected SourceName webkitTransitionEnd, got %q", decoded.SourceName())
	}

	data, ok := decoded.Payload.(*TransitionEventData)
	if !ok {
		t.Fatalf("expected TransitionEventData, got %T", decoded.Payload)
	}
	if data.PropertyName != "opacity" || data.ElapsedTime != 0.25 {
		t.Errorf("expected opacity/0.25, got %s/%g", data.PropertyName, data.ElapsedTime)
	}
}

func TestAnimationEndEventRoundTrip(t *testing.T) {
	ev := &Event{
		Seq:  10,
		Type: EventAnimationEnd,
		HID:  "h8",
		Payload: &AnimationEventData{
			AnimationName: "spin",
			ElapsedTime:   1.5,
			PseudoElement: "::before",
		},
	}

	decoded, err := DecodeEvent(EncodeEvent(ev))
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}

	// Name was empty, so the canonical family name applies.
	if decoded.SourceName() != "animationend" {
		t.Errorf("expected SourceName animationend, got %q", decoded.SourceName())
	}

	data, ok := decoded.Payload.(*AnimationEventData)
	if !ok {
		t.Fatalf("expected AnimationEventData, got %T", decoded.Payload)
	}
	if data.AnimationName != "spin" || data.PseudoElement != "::before" {
		t.Errorf("expected spin/::before, got %s/%s", data.AnimationName, data.PseudoElement)
	}
}

func TestClickEventRoundTrip(t *testing.T) {
	ev := &Event{
		Seq:  1,
		Type: EventClick,
		HID:  "h1",
		Payload: &MouseEventData{
			ClientX:   120,
			ClientY:   -4,
			Button:    0,
			Modifiers: ModCtrl | ModShift,
		},
	}

	decoded, err := DecodeEvent(EncodeEvent(ev))
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}

	data, ok := decoded.Payload.(*MouseEventData)
	if !ok {
		t.Fatalf("expected MouseEventData, got %T", decoded.Payload)
	}
	if data.ClientX != 120 || data.ClientY != -4 {
		t.Errorf("expected 120/-4, got %d/%d", data.ClientX, data.ClientY)
	}
	if !data.Modifiers.Has(ModCtrl) || !data.Modifiers.Has(ModShift) || data.Modifiers.Has(ModAlt) {
		t.Errorf("expected ctrl+shift modifiers, got %b", data.Modifiers)
	}
}

func TestKeyboardEventRoundTrip(t *testing.T) {
	ev := &Event{
		Seq:  2,
		Type: EventKeyDown,
		HID:  "h2",
		Payload: &KeyboardEventData{
			Key:    "Enter",
			Code:   "Enter",
			Repeat: true,
		},
	}

	decoded, err := DecodeEvent(EncodeEvent(ev))
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}

	data, ok := decoded.Payload.(*KeyboardEventData)
	if !ok {
		t.Fatalf("expected KeyboardEventData, got %T", decoded.Payload)
	}
	if data.Key != "Enter" || !data.Repeat {
		t.Errorf("expected Enter/repeat, got %s/%v", data.Key, data.Repeat)
	}
}

func TestCustomEventRoundTrip(t *testing.T) {
	ev := &Event{
		Seq:     3,
		Type:    EventCustom,
		HID:     "h4",
		Payload: &CustomEventData{Name: "fade:done", Detail: []byte(`{"ok":true}`)},
	}

	decoded, err := DecodeEvent(EncodeEvent(ev))
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}

	data, ok := decoded.Payload.(*CustomEventData)
	if !ok {
		t.Fatalf("expected CustomEventData, got %T", decoded.Payload)
	}
	if data.Name != "fade:done" || string(data.Detail) != `{"ok":true}` {
		t.Errorf("expected fade:done detail, got %s %s", data.Name, data.Detail)
	}
}

func TestDecodeEventUnknownType(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(1)
	e.WriteByte(0xEE)
	e.WriteString("")
	e.WriteString("h1")

	if _, err := DecodeEvent(e.Bytes()); !errors.Is(err, ErrInvalidEventType) {
		t.Errorf("expected ErrInvalidEventType, got %v", err)
	}
}

func TestEventTypeForName(t *testing.T) {
	tests := []struct {
		name string
		want EventType
		ok   bool
	}{
		{"click", EventClick, true},
		{"transitionend", EventTransitionEnd, true},
		{"webkitTransitionEnd", EventTransitionEnd, true},
		{"MSAnimationEnd", EventAnimationEnd, true},
		{"oTransitionEnd", EventTransitionEnd, true},
		{"mozAnimationEnd", EventAnimationEnd, true},
		{"keydown", EventKeyDown, true},
		{"bogus", 0, false},
	}

	for _, tc := range tests {
		got, ok := EventTypeForName(tc.name)
		if ok != tc.ok {
			t.Errorf("%q: expected ok=%v, got %v", tc.name, tc.ok, ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("%q: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}
