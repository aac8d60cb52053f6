package server

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kinet-dev/kinet/pkg/kinet"
	"github.com/kinet-dev/kinet/pkg/protocol"
)

// Handler processes one event on the session's event loop.
type Handler func(*Event)

// Event is the server-side view of a client event.
type Event struct {
	// Seq is the client-assigned sequence number.
	Seq uint64

	// Type is the event family.
	Type protocol.EventType

	// Name is the exact DOM event name the listener was registered under.
	// Empty when the client used the canonical family name.
	Name string

	// HID identifies the target element.
	HID string

	// Payload is the typed protocol payload (may be nil).
	Payload any

	// Session is the session the event arrived on.
	Session *Session

	// Time is when the server dequeued the event.
	Time time.Time
}

// SourceName returns the DOM name the event was delivered under.
func (e *Event) SourceName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Type.String()
}

// handlerKey builds the handler table key for an HID and DOM event name.
// Names are lowercased so webkitTransitionEnd registrations and deliveries
// agree regardless of wire casing.
func handlerKey(hid, eventName string) string {
	return hid + "_on" + strings.ToLower(eventName)
}

// wrapHandler adapts the supported handler signatures to Handler. An
// unsupported signature logs a warning and is replaced with a no-op so a
// miswired component cannot take the session down.
func wrapHandler(value any, logger *slog.Logger) Handler {
	switch h := value.(type) {
	case nil:
		return nil

	case Handler:
		return h

	case func(*Event):
		return h

	case func():
		return func(*Event) { h() }

	case func(string):
		return func(e *Event) {
			if data, ok := e.Payload.(*protocol.InputEventData); ok {
				h(data.Value)
				return
			}
			h("")
		}

	case func(kinet.MouseEvent):
		return func(e *Event) {
			data, _ := e.Payload.(*protocol.MouseEventData)
			if data == nil {
				data = &protocol.MouseEventData{}
			}
			h(kinet.MouseEvent{
				ClientX:  int(data.ClientX),
				ClientY:  int(data.ClientY),
				Button:   int(data.Button),
				CtrlKey:  data.Modifiers.Has(protocol.ModCtrl),
				ShiftKey: data.Modifiers.Has(protocol.ModShift),
				AltKey:   data.Modifiers.Has(protocol.ModAlt),
				MetaKey:  data.Modifiers.Has(protocol.ModMeta),
			})
		}

	case func(kinet.KeyboardEvent):
		return func(e *Event) {
			data, _ := e.Payload.(*protocol.KeyboardEventData)
			if data == nil {
				data = &protocol.KeyboardEventData{}
			}
			h(kinet.KeyboardEvent{
				Key:      data.Key,
				Code:     data.Code,
				CtrlKey:  data.Modifiers.Has(protocol.ModCtrl),
				ShiftKey: data.Modifiers.Has(protocol.ModShift),
				AltKey:   data.Modifiers.Has(protocol.ModAlt),
				MetaKey:  data.Modifiers.Has(protocol.ModMeta),
				Repeat:   data.Repeat,
			})
		}

	case func(kinet.AnimationEvent):
		return func(e *Event) {
			data, _ := e.Payload.(*protocol.AnimationEventData)
			if data == nil {
				data = &protocol.AnimationEventData{}
			}
			h(kinet.AnimationEvent{
				AnimationName: data.AnimationName,
				ElapsedTime:   data.ElapsedTime,
				PseudoElement: data.PseudoElement,
			})
		}

	case func(kinet.TransitionEvent):
		return func(e *Event) {
			data, _ := e.Payload.(*protocol.TransitionEventData)
			if data == nil {
				data = &protocol.TransitionEventData{}
			}
			h(kinet.TransitionEvent{
				PropertyName:  data.PropertyName,
				ElapsedTime:   data.ElapsedTime,
				PseudoElement: data.PseudoElement,
			})
		}

	case func(kinet.EndEvent):
		return func(e *Event) {
			h(endEventFromEvent(e))
		}

	default:
		if logger != nil {
			logger.Warn("unsupported handler signature, replacing with no-op",
				"type", fmt.Sprintf("%T", value))
		}
		return func(*Event) {}
	}
}

// endEventFromEvent converts a delivered transition or animation lifecycle
// event into the unified completion form. Unrelated events produce a
// zero-valued EndEvent.
func endEventFromEvent(e *Event) kinet.EndEvent {
	switch data := e.Payload.(type) {
	case *protocol.TransitionEventData:
		return kinet.EndEvent{
			Kind:          kinet.EndTransition,
			Name:          data.PropertyName,
			ElapsedTime:   data.ElapsedTime,
			PseudoElement: data.PseudoElement,
		}
	case *protocol.AnimationEventData:
		return kinet.EndEvent{
			Kind:          kinet.EndAnimation,
			Name:          data.AnimationName,
			ElapsedTime:   data.ElapsedTime,
			PseudoElement: data.PseudoElement,
		}
	default:
		return kinet.EndEvent{}
	}
}

// eventFromProtocol converts a decoded wire event for dispatch.
func eventFromProtocol(pe *protocol.Event, session *Session) *Event {
	return &Event{
		Seq:     pe.Seq,
		Type:    pe.Type,
		Name:    pe.Name,
		HID:     pe.HID,
		Payload: pe.Payload,
		Session: session,
		Time:    time.Now(),
	}
}

