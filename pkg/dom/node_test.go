package dom

import "testing"

func TestElBuildsTree(t *testing.T) {
	n := El("div",
		Attr("id", "root"),
		Class("panel"),
		Class("visible"),
		Style("opacity", "0"),
		Style("width", "10px"),
		On("click", func() {}),
		Text("hello"),
		El("span", Text("inner")),
	)

	if n.Tag != "div" {
		t.Errorf("expected div, got %s", n.Tag)
	}
	if n.Attrs["id"] != "root" {
		t.Errorf("expected id=root, got %q", n.Attrs["id"])
	}
	if got := n.ClassAttr(); got != "panel visible" {
		t.Errorf("expected class 'panel visible', got %q", got)
	}
	if got := n.StyleAttr(); got != "opacity: 0; width: 10px" {
		t.Errorf("expected ordered style attr, got %q", got)
	}
	if n.Handlers["click"] == nil {
		t.Error("expected click handler to be registered")
	}
	if len(n.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(n.Children))
	}
	if !n.Children[0].IsText() || n.Children[0].Text != "hello" {
		t.Errorf("expected text child, got %+v", n.Children[0])
	}
	if n.Children[1].Tag != "span" {
		t.Errorf("expected span child, got %s", n.Children[1].Tag)
	}
}

func TestAttrClassAndStyleMerge(t *testing.T) {
	n := El("div",
		Attr("class", "a"),
		Class("b"),
		Attr("style", "opacity: 1; color: red"),
		Style("width", "2px"),
	)

	if got := n.ClassAttr(); got != "a b" {
		t.Errorf("expected merged classes 'a b', got %q", got)
	}
	if got := n.StyleAttr(); got != "opacity: 1; color: red; width: 2px" {
		t.Errorf("expected merged styles, got %q", got)
	}
}

func TestEffectiveAttrs(t *testing.T) {
	n := El("button",
		Attr("type", "button"),
		Class("cta"),
		Style("color", "red"),
		On("click", func() {}),
	)
	n.HID = "h7"

	attrs := n.EffectiveAttrs()

	if attrs["type"] != "button" {
		t.Errorf("expected type=button, got %q", attrs["type"])
	}
	if attrs["class"] != "cta" {
		t.Errorf("expected class=cta, got %q", attrs["class"])
	}
	if attrs["style"] != "color: red" {
		t.Errorf("expected style, got %q", attrs["style"])
	}
	if attrs["data-hid"] != "h7" {
		t.Errorf("expected data-hid=h7, got %q", attrs["data-hid"])
	}
	for k := range attrs {
		if k == "click" || k == "onclick" {
			t.Errorf("handler leaked into attrs as %q", k)
		}
	}
}

func TestAssignHIDs(t *testing.T) {
	n := El("div",
		Text("t"),
		El("span"),
		El("p", El("b")),
	)

	gen := NewHIDGenerator()
	AssignHIDs(n, gen)

	if n.HID != "h1" {
		t.Errorf("expected root h1, got %s", n.HID)
	}
	if n.Children[0].HID != "" {
		t.Error("text nodes should not receive HIDs")
	}
	if n.Children[1].HID != "h2" || n.Children[2].HID != "h3" {
		t.Errorf("expected h2/h3, got %s/%s", n.Children[1].HID, n.Children[2].HID)
	}
	if n.Children[2].Children[0].HID != "h4" {
		t.Errorf("expected nested h4, got %s", n.Children[2].Children[0].HID)
	}
}

func TestAssignHIDsKeepsExisting(t *testing.T) {
	n := El("div", El("span"))
	n.HID = "h99"

	gen := NewHIDGenerator()
	AssignHIDs(n, gen)

	if n.HID != "h99" {
		t.Errorf("expected preassigned HID to survive, got %s", n.HID)
	}
	if n.Children[0].HID != "h1" {
		t.Errorf("expected child to get fresh h1, got %s", n.Children[0].HID)
	}
}

func TestWalk(t *testing.T) {
	n := El("div", El("span", El("b")), Text("t"))

	var visited []string
	n.Walk(func(node *Node) {
		if node.IsText() {
			visited = append(visited, "#text")
			return
		}
		visited = append(visited, node.Tag)
	})

	want := []string{"div", "span", "b", "#text"}
	if len(visited) != len(want) {
		t.Fatalf("expected %d nodes, got %d (%v)", len(want), len(visited), visited)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("walk %d: expected %s, got %s", i, want[i], visited[i])
		}
	}
}
