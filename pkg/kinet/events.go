package kinet

import "strings"

// EndKind discriminates the two families of CSS completion events carried by
// an EndStream.
type EndKind uint8

const (
	// EndTransition marks completion of a CSS transition.
	EndTransition EndKind = iota

	// EndAnimation marks completion of a CSS keyframe animation.
	EndAnimation
)

// String returns the lowercase kind label used in payloads and metrics.
func (k EndKind) String() string {
	switch k {
	case EndTransition:
		return "transition"
	case EndAnimation:
		return "animation"
	default:
		return "unknown"
	}
}

// EndEvent is one completion notification delivered through an EndStream.
type EndEvent struct {
	// Kind tells whether a transition or an animation finished.
	Kind EndKind

	// Name is the transition property or animation name the browser
	// reported.
	Name string

	// ElapsedTime is the event's elapsed time in seconds.
	ElapsedTime float64

	// PseudoElement is the pseudo-element the event fired on, or "".
	PseudoElement string
}

// vendorPrefixes lists the event name prefixes engines have used for
// transition and animation end events, legacy forms first. The empty prefix
// stands for the unprefixed standard name.
var vendorPrefixes = [...]string{"webkit", "moz", "MS", "o", ""}

// endEventBases maps each kind to the capitalized base name the prefixes
// combine with.
var endEventBases = [...]struct {
	kind EndKind
	base string
}{
	{EndTransition, "TransitionEnd"},
	{EndAnimation, "AnimationEnd"},
}

// endEventNames is the static native-name table, built once at package init.
// Prefixed names keep the base's capitalization (webkitTransitionEnd,
// MSAnimationEnd); the unprefixed form is lowercased (transitionend).
var endEventNames = buildEndEventNames()

func buildEndEventNames() map[EndKind][]string {
	table := make(map[EndKind][]string, len(endEventBases))
	for _, entry := range endEventBases {
		names := make([]string, 0, len(vendorPrefixes))
		for _, prefix := range vendorPrefixes {
			if prefix == "" {
				names = append(names, strings.ToLower(entry.base))
				continue
			}
			names = append(names, prefix+entry.base)
		}
		table[entry.kind] = names
	}
	return table
}

// EndEventNames returns the ordered native event names for kind: webkit,
// moz, MS, o, then the unprefixed standard name. The returned slice is
// shared; callers must not modify it.
func EndEventNames(kind EndKind) []string {
	return endEventNames[kind]
}

// EndKindForName maps a native event name in any vendor form back to its
// kind. Matching is case-insensitive so wire-normalized names resolve too.
// ok is false for names outside the end-event tables.
func EndKindForName(name string) (kind EndKind, ok bool) {
	lower := strings.ToLower(name)
	for _, entry := range endEventBases {
		for _, n := range endEventNames[entry.kind] {
			if strings.ToLower(n) == lower {
				return entry.kind, true
			}
		}
	}
	return 0, false
}

// MouseEvent is the payload handed to mouse event handlers.
type MouseEvent struct {
	// Position relative to the viewport.
	ClientX int
	ClientY int

	// Button that triggered the event (0=left, 1=middle, 2=right).
	Button int

	// Modifier keys held during the event.
	CtrlKey  bool
	ShiftKey bool
	AltKey   bool
	MetaKey  bool
}

// KeyboardEvent is the payload handed to keyboard event handlers.
type KeyboardEvent struct {
	// Key is the logical key value (e.g. "Enter", "a", "Escape").
	Key string

	// Code is the physical key code (e.g. "KeyA", "Enter").
	Code string

	// Modifier keys held during the event.
	CtrlKey  bool
	ShiftKey bool
	AltKey   bool
	MetaKey  bool

	// Repeat is true while the key is held down.
	Repeat bool
}

// AnimationEvent is the payload handed to animation lifecycle handlers
// registered directly (animationstart, animationiteration, animationcancel).
type AnimationEvent struct {
	// AnimationName is the CSS animation-name that fired.
	AnimationName string

	// ElapsedTime is the event's elapsed time in seconds.
	ElapsedTime float64

	// PseudoElement is the pseudo-element the event fired on, or "".
	PseudoElement string
}

// TransitionEvent is the payload handed to transition lifecycle handlers
// registered directly (transitionstart, transitionrun, transitioncancel).
type TransitionEvent struct {
	// PropertyName is the CSS property whose transition fired.
	PropertyName string

	// ElapsedTime is the event's elapsed time in seconds.
	ElapsedTime float64

	// PseudoElement is the pseudo-element the event fired on, or "".
	PseudoElement string
}

// Common key constants matching JavaScript KeyboardEvent.key values.
const (
	KeyEnter     = "Enter"
	KeyEscape    = "Escape"
	KeySpace     = " "
	KeyTab       = "Tab"
	KeyBackspace = "Backspace"
	KeyDelete    = "Delete"

	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
)
