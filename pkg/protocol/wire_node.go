package protocol

import (
	"github.com/kinet-dev/kinet/pkg/dom"
)

// Depth limits for recursive structures. A short hostile payload can claim
// arbitrary nesting; these caps bound decoder recursion.
const (
	// MaxNodeDepth limits the nesting depth of wire node trees.
	MaxNodeDepth = 256
)

// NodeKind identifies the kind of a wire node.
type NodeKind uint8

const (
	NodeElement NodeKind = 0x00
	NodeText    NodeKind = 0x01
)

// WireNode is the serializable form of a rendered element tree. Handlers are
// stripped; listener attachment travels separately as Listen patches keyed
// by HID.
type WireNode struct {
	Kind     NodeKind
	Tag      string
	HID      string
	Attrs    map[string]string
	Children []*WireNode
	Text     string
}

// NodeToWire converts a rendered dom.Node tree to wire format. Event
// handlers are dropped; inline styles and classes are already folded into
// attributes by the renderer.
func NodeToWire(n *dom.Node) *WireNode {
	if n == nil {
		return nil
	}

	if n.IsText() {
		return &WireNode{Kind: NodeText, Text: n.Text}
	}

	w := &WireNode{
		Kind: NodeElement,
		Tag:  n.Tag,
		HID:  n.HID,
	}
	if attrs := n.EffectiveAttrs(); len(attrs) > 0 {
		w.Attrs = attrs
	}
	if len(n.Children) > 0 {
		w.Children = make([]*WireNode, 0, len(n.Children))
		for _, child := range n.Children {
			if child != nil {
				w.Children = append(w.Children, NodeToWire(child))
			}
		}
	}
	return w
}

// EncodeWireNode encodes node using e. A nil node encodes as a null marker.
func EncodeWireNode(e *Encoder, node *WireNode) {
	if node == nil {
		e.WriteByte(0xFF)
		return
	}

	e.WriteByte(byte(node.Kind))

	switch node.Kind {
	case NodeElement:
		e.WriteString(node.Tag)
		e.WriteString(node.HID)
		e.WriteUvarint(uint64(len(node.Attrs)))
		for k, v := range node.Attrs {
			e.WriteString(k)
			e.WriteString(v)
		}
		e.WriteUvarint(uint64(len(node.Children)))
		for _, child := range node.Children {
			EncodeWireNode(e, child)
		}

	case NodeText:
		e.WriteString(node.Text)
	}
}

// DecodeWireNode decodes a wire node from d, enforcing MaxNodeDepth.
func DecodeWireNode(d *Decoder) (*WireNode, error) {
	return decodeWireNode(d, 0)
}

func decodeWireNode(d *Decoder, depth int) (*WireNode, error) {
	if depth > MaxNodeDepth {
		return nil, ErrMaxDepthExceeded
	}

	kindByte, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	if kindByte == 0xFF {
		return nil, nil
	}

	node := &WireNode{Kind: NodeKind(kindByte)}

	switch node.Kind {
	case NodeElement:
		if node.Tag, err = d.ReadString(); err != nil {
			return nil, err
		}
		if node.HID, err = d.ReadString(); err != nil {
			return nil, err
		}

		attrCount, err := d.ReadCollectionCount()
		if err != nil {
			return nil, err
		}
		if attrCount > 0 {
			node.Attrs = make(map[string]string, attrCount)
			for i := 0; i < attrCount; i++ {
				k, err := d.ReadString()
				if err != nil {
					return nil, err
				}
				v, err := d.ReadString()
				if err != nil {
					return nil, err
				}
				node.Attrs[k] = v
			}
		}

		childCount, err := d.ReadCollectionCount()
		if err != nil {
			return nil, err
		}
		if childCount > 0 {
			node.Children = make([]*WireNode, childCount)
			for i := 0; i < childCount; i++ {
				child, err := decodeWireNode(d, depth+1)
				if err != nil {
					return nil, err
				}
				node.Children[i] = child
			}
		}

	case NodeText:
		if node.Text, err = d.ReadString(); err != nil {
			return nil, err
		}
	}

	return node, nil
}
