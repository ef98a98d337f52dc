// Package idoc reads SAP IDoc XML into an ordered element tree.
package idoc

import "strings"

// Attr is one XML attribute.
type Attr struct {
	Name  string
	Value string
}

// Node is an XML element. Children keep document order. A parsed tree is
// never modified and may be shared between goroutines.
type Node struct {
	Name     string
	Attrs    []Attr
	Text     string
	Children []*Node
	// hasText is set when the element had any character data at all.
	hasText bool
}

// Value returns the element text with surrounding whitespace removed.
func (n *Node) Value() string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Text)
}

// Child returns the first child element with the given tag.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Snapshot renders the element as plain data the way xmltodict does: a leaf
// without attributes becomes its trimmed text (nil when it had none);
// anything else becomes an object with "@name" attribute keys, "#text" when
// there is text, and one key per child tag. Repeated tags collapse into an
// array in document order.
func (n *Node) Snapshot() any {
	if len(n.Attrs) == 0 && len(n.Children) == 0 {
		if !n.hasText {
			return nil
		}
		return n.Value()
	}
	out := make(map[string]any, len(n.Attrs)+len(n.Children)+1)
	for _, a := range n.Attrs {
		out["@"+a.Name] = a.Value
	}
	if text := n.Value(); text != "" {
		out["#text"] = text
	}
	for _, c := range n.Children {
		v := c.Snapshot()
		switch prev := out[c.Name].(type) {
		case nil:
			if _, seen := out[c.Name]; seen {
				out[c.Name] = []any{nil, v}
			} else {
				out[c.Name] = v
			}
		case []any:
			out[c.Name] = append(prev, v)
		default:
			out[c.Name] = []any{prev, v}
		}
	}
	return out
}
