package dom

import (
	"strings"
	"testing"
)

func TestRenderToString(t *testing.T) {
	n := El("div",
		Attr("id", "app"),
		Class("panel"),
		El("span", Text("hello")),
	)
	n.HID = "h1"
	n.Children[0].HID = "h2"

	got := RenderToString(n)
	want := `<div class="panel" data-hid="h1" id="app"><span data-hid="h2">hello</span></div>`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestRenderEscapesText(t *testing.T) {
	n := El("p", Text(`<script>alert("x")</script>`))

	got := RenderToString(n)
	if strings.Contains(got, "<script>") {
		t.Errorf("text was not escaped: %s", got)
	}
	if !strings.Contains(got, "&lt;script&gt;") {
		t.Errorf("expected escaped entities, got %s", got)
	}
}

func TestRenderEscapesAttrs(t *testing.T) {
	n := El("div", Attr("title", `a"b<c>`))

	got := RenderToString(n)
	if !strings.Contains(got, `title="a&quot;b&lt;c&gt;"`) {
		t.Errorf("attribute was not escaped: %s", got)
	}
}

func TestRenderVoidElement(t *testing.T) {
	n := El("div", El("br"), El("input", Attr("type", "text")))

	got := RenderToString(n)
	if strings.Contains(got, "</br>") || strings.Contains(got, "</input>") {
		t.Errorf("void elements must not close: %s", got)
	}
	if !strings.Contains(got, `<input type="text">`) {
		t.Errorf("expected input tag, got %s", got)
	}
}

func TestRenderStyleOrder(t *testing.T) {
	n := El("div",
		Style("opacity", "0"),
		Style("transition", "opacity 0.3s"),
	)

	got := RenderToString(n)
	if !strings.Contains(got, `style="opacity: 0; transition: opacity 0.3s"`) {
		t.Errorf("expected declaration order preserved, got %s", got)
	}
}

func TestRenderNilNode(t *testing.T) {
	if got := RenderToString(nil); got != "" {
		t.Errorf("expected empty string for nil, got %q", got)
	}
}
