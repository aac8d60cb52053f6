package ktest

import (
	"strings"
	"testing"

	"github.com/kinet-dev/kinet/pkg/dom"
)

// ExpectContains asserts that the rendered output contains the expected
// substring.
//
// Example:
//
//	ktest.ExpectContains(t, h.Session.CurrentTree(), "Welcome")
func ExpectContains(t testing.TB, node *dom.Node, expected string) {
	t.Helper()
	html := dom.RenderToString(node)
	if !strings.Contains(html, expected) {
		t.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that the rendered output does not contain the
// substring.
func ExpectNotContains(t testing.TB, node *dom.Node, unexpected string) {
	t.Helper()
	html := dom.RenderToString(node)
	if strings.Contains(html, unexpected) {
		t.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectElement asserts that the rendered output contains the given tag.
func ExpectElement(t testing.TB, node *dom.Node, tag string) {
	t.Helper()
	html := dom.RenderToString(node)
	if !strings.Contains(html, "<"+tag) {
		t.Errorf("expected rendered output to contain <%s> element, got:\n%s", tag, truncate(html, 500))
	}
}

// ExpectAttribute asserts that the rendered output contains an attribute
// with the given value.
func ExpectAttribute(t testing.TB, node *dom.Node, attr, value string) {
	t.Helper()
	html := dom.RenderToString(node)
	needle := attr + `="` + value + `"`
	if !strings.Contains(html, needle) {
		t.Errorf("expected attribute %s=%q not found, got:\n%s", attr, value, truncate(html, 500))
	}
}

// truncate shortens a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
