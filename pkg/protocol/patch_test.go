package protocol

import "testing"

func TestPatchesFrameRoundTrip(t *testing.T) {
	pf := &PatchesFrame{
		Seq: 42,
		Patches: []Patch{
			NewSetStylePatch("h3", "opacity", "0"),
			NewAddClassPatch("h3", "fade-out"),
			NewMeasurePatch("h3", "offsetWidth"),
			NewListenPatch("h3", "webkitTransitionEnd"),
			NewSetTextPatch("h7", "done"),
			NewRemoveClassPatch("h3", "visible"),
			NewRemoveStylePatch("h3", "width"),
			NewDispatchPatch("h3", "fade:done", `{"ok":true}`),
			NewRemoveNodePatch("h9"),
			NewSetAttrPatch("h4", "aria-hidden", "true"),
			NewRemoveAttrPatch("h4", "title"),
			NewUnlistenPatch("h3", "transitionend"),
		},
	}

	decoded, err := DecodePatches(EncodePatches(pf))
	if err != nil {
		t.Fatalf("DecodePatches: %v", err)
	}

	if decoded.Seq != 42 {
		t.Errorf("expected seq 42, got %d", decoded.Seq)
	}
	if len(decoded.Patches) != len(pf.Patches) {
		t.Fatalf("expected %d patches, got %d", len(pf.Patches), len(decoded.Patches))
	}

	for i, want := range pf.Patches {
		got := decoded.Patches[i]
		if got.Op != want.Op || got.HID != want.HID || got.Key != want.Key || got.Value != want.Value {
			t.Errorf("patch %d (%s): expected %+v, got %+v", i, want.Op, want, got)
		}
	}
}

func TestMountNodePatchRoundTrip(t *testing.T) {
	node := &WireNode{
		Kind: NodeElement,
		Tag:  "div",
		HID:  "h12",
		Attrs: map[string]string{
			"class": "panel",
		},
		Children: []*WireNode{
			{Kind: NodeText, Text: "mounted"},
		},
	}

	pf := &PatchesFrame{
		Seq:     1,
		Patches: []Patch{NewMountNodePatch("h2", -1, node)},
	}

	decoded, err := DecodePatches(EncodePatches(pf))
	if err != nil {
		t.Fatalf("DecodePatches: %v", err)
	}

	p := decoded.Patches[0]
	if p.Op != PatchMountNode {
		t.Fatalf("expected MountNode, got %s", p.Op)
	}
	if p.HID != "h2" {
		t.Errorf("expected parent h2, got %s", p.HID)
	}
	if p.Index != -1 {
		t.Errorf("expected append index -1, got %d", p.Index)
	}
	if p.Node == nil || p.Node.Tag != "div" || p.Node.HID != "h12" {
		t.Fatalf("expected div/h12 node, got %+v", p.Node)
	}
	if p.Node.Attrs["class"] != "panel" {
		t.Errorf("expected class panel, got %q", p.Node.Attrs["class"])
	}
	if len(p.Node.Children) != 1 || p.Node.Children[0].Text != "mounted" {
		t.Errorf("expected one text child, got %+v", p.Node.Children)
	}
}

func TestReplaceNodePatchRoundTrip(t *testing.T) {
	node := &WireNode{Kind: NodeElement, Tag: "span", HID: "h5"}

	pf := &PatchesFrame{
		Seq:     7,
		Patches: []Patch{NewReplaceNodePatch("h5", node)},
	}

	decoded, err := DecodePatches(EncodePatches(pf))
	if err != nil {
		t.Fatalf("DecodePatches: %v", err)
	}

	p := decoded.Patches[0]
	if p.Op != PatchReplaceNode || p.HID != "h5" {
		t.Errorf("expected ReplaceNode on h5, got %s on %s", p.Op, p.HID)
	}
	if p.Node == nil || p.Node.HID != "h5" {
		t.Errorf("expected replacement to keep HID h5, got %+v", p.Node)
	}
}

func TestPatchOpString(t *testing.T) {
	tests := []struct {
		op   PatchOp
		want string
	}{
		{PatchSetStyle, "SetStyle"},
		{PatchAddClass, "AddClass"},
		{PatchMeasure, "Measure"},
		{PatchListen, "Listen"},
		{PatchDispatch, "Dispatch"},
		{PatchOp(0xEE), "Unknown"},
	}
	for _, tc := range tests {
		if got := tc.op.String(); got != tc.want {
			t.Errorf("PatchOp(%#x).String() = %s, want %s", byte(tc.op), got, tc.want)
		}
	}
}
