package dom

import (
	"io"
	"strings"
)

// voidElements have no closing tag and may not have children.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// RenderHTML serializes the tree to w as HTML. Text is escaped; attributes
// are written in sorted order so output is deterministic.
func RenderHTML(w io.Writer, n *Node) error {
	if n == nil {
		return nil
	}

	if n.IsText() {
		_, err := io.WriteString(w, escapeHTML(n.Text))
		return err
	}

	if _, err := io.WriteString(w, "<"+n.Tag); err != nil {
		return err
	}

	attrs := n.EffectiveAttrs()
	for _, key := range SortedAttrKeys(attrs) {
		if _, err := io.WriteString(w, " "+key+`="`+escapeAttr(attrs[key])+`"`); err != nil {
			return err
		}
	}

	if voidElements[n.Tag] {
		_, err := io.WriteString(w, ">")
		return err
	}

	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}

	for _, child := range n.Children {
		if err := RenderHTML(w, child); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</"+n.Tag+">")
	return err
}

// RenderToString serializes the tree to an HTML string.
func RenderToString(n *Node) string {
	var b strings.Builder
	// strings.Builder writes never fail.
	_ = RenderHTML(&b, n)
	return b.String()
}

// escapeHTML escapes text for HTML content.
func escapeHTML(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

// escapeAttr escapes text for attribute values, additionally encoding
// whitespace control characters that could break attribute parsing.
func escapeAttr(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		case '\n':
			buf.WriteString("&#10;")
		case '\r':
			buf.WriteString("&#13;")
		case '\t':
			buf.WriteString("&#9;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
