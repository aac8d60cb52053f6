package kinet

import "testing"

func TestEndKindString(t *testing.T) {
	if got := EndTransition.String(); got != "transition" {
		t.Errorf("expected transition, got %s", got)
	}
	if got := EndAnimation.String(); got != "animation" {
		t.Errorf("expected animation, got %s", got)
	}
	if got := EndKind(99).String(); got != "unknown" {
		t.Errorf("expected unknown, got %s", got)
	}
}

func TestEndEventNamesOrder(t *testing.T) {
	tests := []struct {
		kind EndKind
		want []string
	}{
		{EndTransition, []string{"webkitTransitionEnd", "mozTransitionEnd", "MSTransitionEnd", "oTransitionEnd", "transitionend"}},
		{EndAnimation, []string{"webkitAnimationEnd", "mozAnimationEnd", "MSAnimationEnd", "oAnimationEnd", "animationend"}},
	}

	for _, tt := range tests {
		got := EndEventNames(tt.kind)
		if len(got) != len(tt.want) {
			t.Fatalf("%s: expected %d names, got %d", tt.kind, len(tt.want), len(got))
		}
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("%s[%d]: expected %s, got %s", tt.kind, i, tt.want[i], got[i])
			}
		}
	}
}

func TestEndKindForName(t *testing.T) {
	tests := []struct {
		name string
		kind EndKind
		ok   bool
	}{
		{"webkitTransitionEnd", EndTransition, true},
		{"transitionend", EndTransition, true},
		{"MSAnimationEnd", EndAnimation, true},
		{"animationend", EndAnimation, true},
		{"msanimationend", EndAnimation, true}, // wire-normalized form
		{"click", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		kind, ok := EndKindForName(tt.name)
		if ok != tt.ok {
			t.Errorf("%q: expected ok=%v, got %v", tt.name, tt.ok, ok)
			continue
		}
		if ok && kind != tt.kind {
			t.Errorf("%q: expected kind %s, got %s", tt.name, tt.kind, kind)
		}
	}
}
