package protocol

// PatchOp identifies one element mutation the client must apply.
type PatchOp uint8

const (
	// Content and attributes.
	PatchSetText    PatchOp = 0x01 // Replace text content
	PatchSetAttr    PatchOp = 0x02 // Set an attribute
	PatchRemoveAttr PatchOp = 0x03 // Remove an attribute

	// Tree structure.
	PatchMountNode   PatchOp = 0x04 // Insert a subtree under a parent
	PatchRemoveNode  PatchOp = 0x05 // Remove an element
	PatchReplaceNode PatchOp = 0x06 // Replace an element with a subtree

	// Classes and styles.
	PatchAddClass    PatchOp = 0x10 // Add one class token
	PatchRemoveClass PatchOp = 0x11 // Remove one class token
	PatchSetStyle    PatchOp = 0x13 // Set one inline style property
	PatchRemoveStyle PatchOp = 0x14 // Remove one inline style property

	// Imperative element control.
	PatchMeasure  PatchOp = 0x18 // Read a layout property, discard the value
	PatchListen   PatchOp = 0x19 // Attach a native listener by exact name
	PatchUnlisten PatchOp = 0x1A // Detach a native listener by exact name
	PatchDispatch PatchOp = 0x20 // Dispatch a CustomEvent on the element
)

// String returns the patch op name.
func (op PatchOp) String() string {
	switch op {
	case PatchSetText:
		return "SetText"
	case PatchSetAttr:
		return "SetAttr"
	case PatchRemoveAttr:
		return "RemoveAttr"
	case PatchMountNode:
		return "MountNode"
	case PatchRemoveNode:
		return "RemoveNode"
	case PatchReplaceNode:
		return "ReplaceNode"
	case PatchAddClass:
		return "AddClass"
	case PatchRemoveClass:
		return "RemoveClass"
	case PatchSetStyle:
		return "SetStyle"
	case PatchRemoveStyle:
		return "RemoveStyle"
	case PatchMeasure:
		return "Measure"
	case PatchListen:
		return "Listen"
	case PatchUnlisten:
		return "Unlisten"
	case PatchDispatch:
		return "Dispatch"
	default:
		return "Unknown"
	}
}

// Patch is one mutation targeting the element identified by HID. Key and
// Value are op-specific: property/value for styles, class token for class
// ops, layout property for Measure, event name for Listen/Unlisten, event
// name and JSON detail for Dispatch. Node and Index are used by the tree
// structure ops.
type Patch struct {
	Op    PatchOp
	HID   string
	Key   string
	Value string
	Index int
	Node  *WireNode
}

// PatchesFrame is the payload of a Patches frame: a server-assigned sequence
// number and the ordered mutations to apply.
type PatchesFrame struct {
	Seq     uint64
	Patches []Patch
}

// EncodePatches encodes a patches frame payload.
func EncodePatches(pf *PatchesFrame) []byte {
	e := NewEncoder()
	EncodePatchesTo(e, pf)
	return e.Bytes()
}

// EncodePatchesTo encodes a patches frame payload using e.
func EncodePatchesTo(e *Encoder, pf *PatchesFrame) {
	e.WriteUvarint(pf.Seq)
	e.WriteUvarint(uint64(len(pf.Patches)))
	for i := range pf.Patches {
		encodePatch(e, &pf.Patches[i])
	}
}

// DecodePatches decodes a patches frame payload.
func DecodePatches(data []byte) (*PatchesFrame, error) {
	d := NewDecoder(data)

	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}

	pf := &PatchesFrame{Seq: seq, Patches: make([]Patch, count)}
	for i := 0; i < count; i++ {
		if err := decodePatch(d, &pf.Patches[i]); err != nil {
			return nil, err
		}
	}
	return pf, nil
}

func encodePatch(e *Encoder, p *Patch) {
	e.WriteByte(byte(p.Op))
	e.WriteString(p.HID)

	switch p.Op {
	case PatchSetText:
		e.WriteString(p.Value)

	case PatchSetAttr:
		e.WriteString(p.Key)
		e.WriteString(p.Value)

	case PatchRemoveAttr:
		e.WriteString(p.Key)

	case PatchMountNode:
		e.WriteSvarint(int64(p.Index))
		EncodeWireNode(e, p.Node)

	case PatchRemoveNode:
		// HID alone identifies the target.

	case PatchReplaceNode:
		EncodeWireNode(e, p.Node)

	case PatchAddClass, PatchRemoveClass:
		e.WriteString(p.Key)

	case PatchSetStyle:
		e.WriteString(p.Key)
		e.WriteString(p.Value)

	case PatchRemoveStyle:
		e.WriteString(p.Key)

	case PatchMeasure:
		e.WriteString(p.Key)

	case PatchListen, PatchUnlisten:
		e.WriteString(p.Key)

	case PatchDispatch:
		e.WriteString(p.Key)
		e.WriteString(p.Value)
	}
}

func decodePatch(d *Decoder, p *Patch) error {
	opByte, err := d.ReadByte()
	if err != nil {
		return err
	}
	p.Op = PatchOp(opByte)

	if p.HID, err = d.ReadString(); err != nil {
		return err
	}

	switch p.Op {
	case PatchSetText:
		p.Value, err = d.ReadString()

	case PatchSetAttr:
		if p.Key, err = d.ReadString(); err != nil {
			return err
		}
		p.Value, err = d.ReadString()

	case PatchRemoveAttr:
		p.Key, err = d.ReadString()

	case PatchMountNode:
		var idx int64
		if idx, err = d.ReadSvarint(); err != nil {
			return err
		}
		p.Index = int(idx)
		p.Node, err = DecodeWireNode(d)

	case PatchRemoveNode:
		// No payload beyond HID.

	case PatchReplaceNode:
		p.Node, err = DecodeWireNode(d)

	case PatchAddClass, PatchRemoveClass:
		p.Key, err = d.ReadString()

	case PatchSetStyle:
		if p.Key, err = d.ReadString(); err != nil {
			return err
		}
		p.Value, err = d.ReadString()

	case PatchRemoveStyle:
		p.Key, err = d.ReadString()

	case PatchMeasure:
		p.Key, err = d.ReadString()

	case PatchListen, PatchUnlisten:
		p.Key, err = d.ReadString()

	case PatchDispatch:
		if p.Key, err = d.ReadString(); err != nil {
			return err
		}
		p.Value, err = d.ReadString()
	}
	return err
}

// NewSetTextPatch sets the text content of the element.
func NewSetTextPatch(hid, text string) Patch {
	return Patch{Op: PatchSetText, HID: hid, Value: text}
}

// NewSetAttrPatch sets one attribute.
func NewSetAttrPatch(hid, name, value string) Patch {
	return Patch{Op: PatchSetAttr, HID: hid, Key: name, Value: value}
}

// NewRemoveAttrPatch removes one attribute.
func NewRemoveAttrPatch(hid, name string) Patch {
	return Patch{Op: PatchRemoveAttr, HID: hid, Key: name}
}

// NewMountNodePatch inserts node as a child of the parent element. An index
// of -1 appends.
func NewMountNodePatch(parentHID string, index int, node *WireNode) Patch {
	return Patch{Op: PatchMountNode, HID: parentHID, Index: index, Node: node}
}

// NewRemoveNodePatch removes the element.
func NewRemoveNodePatch(hid string) Patch {
	return Patch{Op: PatchRemoveNode, HID: hid}
}

// NewReplaceNodePatch replaces the element with node.
func NewReplaceNodePatch(hid string, node *WireNode) Patch {
	return Patch{Op: PatchReplaceNode, HID: hid, Node: node}
}

// NewAddClassPatch adds one class token.
func NewAddClassPatch(hid, class string) Patch {
	return Patch{Op: PatchAddClass, HID: hid, Key: class}
}

// NewRemoveClassPatch removes one class token.
func NewRemoveClassPatch(hid, class string) Patch {
	return Patch{Op: PatchRemoveClass, HID: hid, Key: class}
}

// NewSetStylePatch sets one inline style property.
func NewSetStylePatch(hid, property, value string) Patch {
	return Patch{Op: PatchSetStyle, HID: hid, Key: property, Value: value}
}

// NewRemoveStylePatch removes one inline style property.
func NewRemoveStylePatch(hid, property string) Patch {
	return Patch{Op: PatchRemoveStyle, HID: hid, Key: property}
}

// NewMeasurePatch forces a layout read of property on the element. The
// client discards the value; the read exists to flush pending style changes.
func NewMeasurePatch(hid, property string) Patch {
	return Patch{Op: PatchMeasure, HID: hid, Key: property}
}

// NewListenPatch attaches a native listener for the exact event name.
func NewListenPatch(hid, eventName string) Patch {
	return Patch{Op: PatchListen, HID: hid, Key: eventName}
}

// NewUnlistenPatch detaches the native listener for the exact event name.
func NewUnlistenPatch(hid, eventName string) Patch {
	return Patch{Op: PatchUnlisten, HID: hid, Key: eventName}
}

// NewDispatchPatch dispatches a CustomEvent with a JSON detail payload.
func NewDispatchPatch(hid, eventName, detailJSON string) Patch {
	return Patch{Op: PatchDispatch, HID: hid, Key: eventName, Value: detailJSON}
}
