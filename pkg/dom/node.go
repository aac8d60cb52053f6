package dom

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Node is one node of the server-side element tree. A node with an empty Tag
// is a text node; everything else is an element.
type Node struct {
	Tag      string
	HID      string
	Attrs    map[string]string
	Handlers map[string]any
	Children []*Node
	Text     string

	classes []string
	styles  []styleEntry
}

type styleEntry struct {
	property string
	value    string
}

// Item is anything that can be applied to an element under construction:
// attributes, classes, styles, handlers, and child nodes.
type Item interface {
	applyTo(n *Node)
}

// El creates an element node and applies items in order.
func El(tag string, items ...Item) *Node {
	n := &Node{Tag: tag}
	for _, item := range items {
		if item != nil {
			item.applyTo(n)
		}
	}
	return n
}

// Text creates a text node. Text nodes may be passed to El as children.
func Text(s string) *Node {
	return &Node{Text: s}
}

// Textf creates a text node from a format string.
func Textf(format string, args ...any) *Node {
	return &Node{Text: fmt.Sprintf(format, args...)}
}

// applyTo makes *Node usable as a child item.
func (n *Node) applyTo(parent *Node) {
	parent.Children = append(parent.Children, n)
}

// IsText reports whether the node is a text node.
func (n *Node) IsText() bool {
	return n.Tag == ""
}

type attrItem struct{ key, value string }

func (a attrItem) applyTo(n *Node) {
	switch a.key {
	case "class":
		n.classes = append(n.classes, a.value)
	case "style":
		for _, part := range strings.Split(a.value, ";") {
			prop, value, ok := strings.Cut(part, ":")
			if !ok {
				continue
			}
			n.styles = append(n.styles, styleEntry{
				property: strings.TrimSpace(prop),
				value:    strings.TrimSpace(value),
			})
		}
	default:
		if n.Attrs == nil {
			n.Attrs = make(map[string]string)
		}
		n.Attrs[a.key] = a.value
	}
}

// Attr sets an attribute. Class and style attributes merge with the Class
// and Style items instead of overwriting them.
func Attr(key, value string) Item {
	return attrItem{key: key, value: value}
}

type classItem struct{ names string }

func (c classItem) applyTo(n *Node) {
	n.classes = append(n.classes, c.names)
}

// Class adds one or more space-separated class names.
func Class(names string) Item {
	return classItem{names: names}
}

type styleItem struct{ property, value string }

func (s styleItem) applyTo(n *Node) {
	n.styles = append(n.styles, styleEntry{property: s.property, value: s.value})
}

// Style adds one inline style declaration. Declarations render in the order
// they were added.
func Style(property, value string) Item {
	return styleItem{property: property, value: value}
}

type handlerItem struct {
	event   string
	handler any
}

func (h handlerItem) applyTo(n *Node) {
	if n.Handlers == nil {
		n.Handlers = make(map[string]any)
	}
	n.Handlers[h.event] = h.handler
}

// On registers an event handler under the DOM event name (e.g. "click").
// Handler signatures are matched by the server at dispatch time.
func On(event string, handler any) Item {
	return handlerItem{event: event, handler: handler}
}

// ClassAttr returns the node's class attribute value, or "".
func (n *Node) ClassAttr() string {
	return strings.Join(n.classes, " ")
}

// StyleAttr returns the node's style attribute value, or "".
func (n *Node) StyleAttr() string {
	if len(n.styles) == 0 {
		return ""
	}
	parts := make([]string, len(n.styles))
	for i, s := range n.styles {
		parts[i] = s.property + ": " + s.value
	}
	return strings.Join(parts, "; ")
}

// EffectiveAttrs returns the attributes the element carries on the wire and
// in rendered HTML: declared attributes plus the folded class and style
// values and the data-hid marker. Handlers are excluded; listener attachment
// travels as patches.
func (n *Node) EffectiveAttrs() map[string]string {
	if n.IsText() {
		return nil
	}

	attrs := make(map[string]string, len(n.Attrs)+3)
	for k, v := range n.Attrs {
		attrs[k] = v
	}
	if class := n.ClassAttr(); class != "" {
		attrs["class"] = class
	}
	if style := n.StyleAttr(); style != "" {
		attrs["style"] = style
	}
	if n.HID != "" {
		attrs["data-hid"] = n.HID
	}
	return attrs
}

// Walk visits n and every descendant element in depth-first order.
func (n *Node) Walk(visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, child := range n.Children {
		child.Walk(visit)
	}
}

// HIDGenerator mints unique hydration IDs within one session.
type HIDGenerator struct {
	mu      sync.Mutex
	counter uint64
}

// NewHIDGenerator creates a generator starting at h1.
func NewHIDGenerator() *HIDGenerator {
	return &HIDGenerator{}
}

// Next returns the next hydration ID ("h1", "h2", ...).
func (g *HIDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("h%d", g.counter)
}

// AssignHIDs walks the tree and assigns a fresh HID to every element node
// that does not already carry one. Text nodes are skipped.
func AssignHIDs(node *Node, gen *HIDGenerator) {
	if node == nil {
		return
	}
	if !node.IsText() && node.HID == "" {
		node.HID = gen.Next()
	}
	for _, child := range node.Children {
		AssignHIDs(child, gen)
	}
}

// SortedAttrKeys returns the effective attribute keys in a stable order,
// used by the HTML renderer for deterministic output.
func SortedAttrKeys(attrs map[string]string) []string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
