package protocol

import (
	"errors"
	"strings"
)

// EventType identifies the family of a client event. Listener-delivered
// events also carry the exact DOM name they were registered under (see
// Event.Name), so one family can span several native names.
type EventType uint8

const (
	// Mouse events.
	EventClick      EventType = 0x01
	EventDblClick   EventType = 0x02
	EventMouseDown  EventType = 0x03
	EventMouseUp    EventType = 0x04
	EventMouseEnter EventType = 0x05
	EventMouseLeave EventType = 0x06

	// Form and focus events.
	EventInput  EventType = 0x10
	EventChange EventType = 0x11
	EventSubmit EventType = 0x12
	EventFocus  EventType = 0x13
	EventBlur   EventType = 0x14

	// Keyboard events.
	EventKeyDown EventType = 0x20
	EventKeyUp   EventType = 0x21

	// Animation lifecycle.
	EventAnimationStart     EventType = 0x53
	EventAnimationEnd       EventType = 0x54
	EventAnimationIteration EventType = 0x55
	EventAnimationCancel    EventType = 0x56

	// Transition lifecycle.
	EventTransitionStart  EventType = 0x57
	EventTransitionEnd    EventType = 0x58
	EventTransitionRun    EventType = 0x59
	EventTransitionCancel EventType = 0x5A

	// Custom events (CustomEvent with arbitrary detail).
	EventCustom EventType = 0xFF
)

// String returns the canonical lowercase DOM name for the event family.
func (et EventType) String() string {
	switch et {
	case EventClick:
		return "click"
	case EventDblClick:
		return "dblclick"
	case EventMouseDown:
		return "mousedown"
	case EventMouseUp:
		return "mouseup"
	case EventMouseEnter:
		return "mouseenter"
	case EventMouseLeave:
		return "mouseleave"
	case EventInput:
		return "input"
	case EventChange:
		return "change"
	case EventSubmit:
		return "submit"
	case EventFocus:
		return "focus"
	case EventBlur:
		return "blur"
	case EventKeyDown:
		return "keydown"
	case EventKeyUp:
		return "keyup"
	case EventAnimationStart:
		return "animationstart"
	case EventAnimationEnd:
		return "animationend"
	case EventAnimationIteration:
		return "animationiteration"
	case EventAnimationCancel:
		return "animationcancel"
	case EventTransitionStart:
		return "transitionstart"
	case EventTransitionEnd:
		return "transitionend"
	case EventTransitionRun:
		return "transitionrun"
	case EventTransitionCancel:
		return "transitioncancel"
	case EventCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// eventTypesByName maps canonical names back to families, built once from
// String(). Vendor-prefixed end names are added explicitly since several
// native names share one family.
var eventTypesByName = buildEventTypesByName()

func buildEventTypesByName() map[string]EventType {
	types := []EventType{
		EventClick, EventDblClick, EventMouseDown, EventMouseUp,
		EventMouseEnter, EventMouseLeave,
		EventInput, EventChange, EventSubmit, EventFocus, EventBlur,
		EventKeyDown, EventKeyUp,
		EventAnimationStart, EventAnimationEnd, EventAnimationIteration,
		EventAnimationCancel,
		EventTransitionStart, EventTransitionEnd, EventTransitionRun,
		EventTransitionCancel,
	}
	m := make(map[string]EventType, len(types)+8)
	for _, et := range types {
		m[et.String()] = et
	}
	for _, prefix := range []string{"webkit", "moz", "ms", "o"} {
		m[prefix+"transitionend"] = EventTransitionEnd
		m[prefix+"animationend"] = EventAnimationEnd
	}
	return m
}

// EventTypeForName maps a DOM event name, in any vendor form and case, to
// its family. ok is false for unrecognized names.
func EventTypeForName(name string) (et EventType, ok bool) {
	et, ok = eventTypesByName[strings.ToLower(name)]
	return et, ok
}

// Modifiers is a bitmask of modifier keys held during an event.
type Modifiers uint8

const (
	ModCtrl  Modifiers = 1 << 0
	ModShift Modifiers = 1 << 1
	ModAlt   Modifiers = 1 << 2
	ModMeta  Modifiers = 1 << 3
)

// Has reports whether mod is set.
func (m Modifiers) Has(mod Modifiers) bool {
	return m&mod != 0
}

// MouseEventData is the payload for mouse event families.
type MouseEventData struct {
	ClientX   int32
	ClientY   int32
	Button    uint8
	Modifiers Modifiers
}

// KeyboardEventData is the payload for keyboard event families.
type KeyboardEventData struct {
	Key       string
	Code      string
	Modifiers Modifiers
	Repeat    bool
}

// InputEventData is the payload for input and change events.
type InputEventData struct {
	Value   string
	Checked bool
}

// AnimationEventData is the payload for the animation lifecycle families.
type AnimationEventData struct {
	AnimationName string
	ElapsedTime   float64
	PseudoElement string
}

// TransitionEventData is the payload for the transition lifecycle families.
type TransitionEventData struct {
	PropertyName  string
	ElapsedTime   float64
	PseudoElement string
}

// CustomEventData is the payload for custom events: the event name and its
// JSON-encoded detail.
type CustomEventData struct {
	Name   string
	Detail []byte
}

// Event is one client event. Name is the exact DOM name the listener was
// registered under and may differ from Type.String() for vendor-prefixed
// registrations; it is empty when the client used the canonical name.
type Event struct {
	Seq     uint64
	Type    EventType
	Name    string
	HID     string
	Payload any
}

// SourceName returns the DOM name the event was delivered under: Name when
// present, otherwise the family's canonical name.
func (ev *Event) SourceName() string {
	if ev.Name != "" {
		return ev.Name
	}
	return ev.Type.String()
}

// Event decoding errors.
var (
	ErrInvalidEventType = errors.New("protocol: invalid event type")
	ErrInvalidPayload   = errors.New("protocol: invalid event payload")
)

// EncodeEvent encodes an event frame payload.
func EncodeEvent(ev *Event) []byte {
	e := NewEncoder()
	EncodeEventTo(e, ev)
	return e.Bytes()
}

// EncodeEventTo encodes an event frame payload using e.
func EncodeEventTo(e *Encoder, ev *Event) {
	e.WriteUvarint(ev.Seq)
	e.WriteByte(byte(ev.Type))
	e.WriteString(ev.Name)
	e.WriteString(ev.HID)

	switch ev.Type {
	case EventClick, EventDblClick, EventMouseDown, EventMouseUp,
		EventMouseEnter, EventMouseLeave:
		data, _ := ev.Payload.(*MouseEventData)
		if data == nil {
			data = &MouseEventData{}
		}
		e.WriteSvarint(int64(data.ClientX))
		e.WriteSvarint(int64(data.ClientY))
		e.WriteByte(data.Button)
		e.WriteByte(byte(data.Modifiers))

	case EventKeyDown, EventKeyUp:
		data, _ := ev.Payload.(*KeyboardEventData)
		if data == nil {
			data = &KeyboardEventData{}
		}
		e.WriteString(data.Key)
		e.WriteString(data.Code)
		e.WriteByte(byte(data.Modifiers))
		e.WriteBool(data.Repeat)

	case EventInput, EventChange:
		data, _ := ev.Payload.(*InputEventData)
		if data == nil {
			data = &InputEventData{}
		}
		e.WriteString(data.Value)
		e.WriteBool(data.Checked)

	case EventAnimationStart, EventAnimationEnd, EventAnimationIteration,
		EventAnimationCancel:
		data, _ := ev.Payload.(*AnimationEventData)
		if data == nil {
			data = &AnimationEventData{}
		}
		e.WriteString(data.AnimationName)
		e.WriteFloat64(data.ElapsedTime)
		e.WriteString(data.PseudoElement)

	case EventTransitionStart, EventTransitionEnd, EventTransitionRun,
		EventTransitionCancel:
		data, _ := ev.Payload.(*TransitionEventData)
		if data == nil {
			data = &TransitionEventData{}
		}
		e.WriteString(data.PropertyName)
		e.WriteFloat64(data.ElapsedTime)
		e.WriteString(data.PseudoElement)

	case EventCustom:
		data, _ := ev.Payload.(*CustomEventData)
		if data == nil {
			data = &CustomEventData{}
		}
		e.WriteString(data.Name)
		e.WriteLenBytes(data.Detail)
	}
}

// DecodeEvent decodes an event frame payload.
func DecodeEvent(data []byte) (*Event, error) {
	d := NewDecoder(data)

	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	typeByte, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	name, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	hid, err := d.ReadString()
	if err != nil {
		return nil, err
	}

	ev := &Event{Seq: seq, Type: EventType(typeByte), Name: name, HID: hid}

	switch ev.Type {
	case EventClick, EventDblClick, EventMouseDown, EventMouseUp,
		EventMouseEnter, EventMouseLeave:
		x, err := d.ReadSvarint()
		if err != nil {
			return nil, err
		}
		y, err := d.ReadSvarint()
		if err != nil {
			return nil, err
		}
		button, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		mods, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		ev.Payload = &MouseEventData{
			ClientX:   int32(x),
			ClientY:   int32(y),
			Button:    button,
			Modifiers: Modifiers(mods),
		}

	case EventKeyDown, EventKeyUp:
		key, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		code, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		mods, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		repeat, err := d.ReadBool()
		if err != nil {
			return nil, err
		}
		ev.Payload = &KeyboardEventData{
			Key:       key,
			Code:      code,
			Modifiers: Modifiers(mods),
			Repeat:    repeat,
		}

	case EventInput, EventChange:
		value, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		checked, err := d.ReadBool()
		if err != nil {
			return nil, err
		}
		ev.Payload = &InputEventData{Value: value, Checked: checked}

	case EventAnimationStart, EventAnimationEnd, EventAnimationIteration,
		EventAnimationCancel:
		name, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		elapsed, err := d.ReadFloat64()
		if err != nil {
			return nil, err
		}
		pseudo, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		ev.Payload = &AnimationEventData{
			AnimationName: name,
			ElapsedTime:   elapsed,
			PseudoElement: pseudo,
		}

	case EventTransitionStart, EventTransitionEnd, EventTransitionRun,
		EventTransitionCancel:
		prop, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		elapsed, err := d.ReadFloat64()
		if err != nil {
			return nil, err
		}
		pseudo, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		ev.Payload = &TransitionEventData{
			PropertyName:  prop,
			ElapsedTime:   elapsed,
			PseudoElement: pseudo,
		}

	case EventCustom:
		name, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		detail, err := d.ReadLenBytes()
		if err != nil {
			return nil, err
		}
		ev.Payload = &CustomEventData{Name: name, Detail: detail}

	case EventSubmit, EventFocus, EventBlur:
		// No payload.

	default:
		return nil, ErrInvalidEventType
	}

	return ev, nil
}
