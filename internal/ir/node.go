// Package ir holds the tree the optimizer rewrites. It mirrors the concrete
// syntax tree one-to-one: every node is either a Leaf carrying literal text
// or an Internal node carrying ordered children, never both.
package ir

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Node is a closed sum type: *Leaf or *Internal.
type Node interface {
	Kind() string
	sealed()
}

// Leaf is a node whose payload is literal source text.
type Leaf struct {
	Type string
	Text string
}

// Internal is a node whose payload is an ordered list of children.
type Internal struct {
	Type     string
	Children []Node
}

func (l *Leaf) Kind() string     { return l.Type }
func (n *Internal) Kind() string { return n.Type }

func (*Leaf) sealed()     {}
func (*Internal) sealed() {}

// Clone returns a deep copy of n.
func Clone(n Node) Node {
	switch v := n.(type) {
	case *Leaf:
		c := *v
		return &c
	case *Internal:
		children := make([]Node, len(v.Children))
		for i, ch := range v.Children {
			children[i] = Clone(ch)
		}
		return &Internal{Type: v.Type, Children: children}
	}
	return nil
}

// Walk visits n in pre-order. Returning false skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	if in, ok := n.(*Internal); ok {
		for _, c := range in.Children {
			Walk(c, fn)
		}
	}
}

// Count returns the number of nodes in the tree rooted at n.
func Count(n Node) int {
	total := 0
	Walk(n, func(Node) bool {
		total++
		return true
	})
	return total
}

// Equal reports structural equality.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case *Leaf:
		y, ok := b.(*Leaf)
		return ok && *x == *y
	case *Internal:
		y, ok := b.(*Internal)
		if !ok || x.Type != y.Type || len(x.Children) != len(y.Children) {
			return false
		}
		for i := range x.Children {
			if !Equal(x.Children[i], y.Children[i]) {
				return false
			}
		}
		return true
	}
	return a == nil && b == nil
}

// wire is the JSON shape of a node: content is a string for leaves and an
// array of nodes for internal nodes.
type wire struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

// MarshalJSON encodes a leaf as {"type", "content": text}.
func (l *Leaf) MarshalJSON() ([]byte, error) {
	text, err := json.Marshal(l.Text)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wire{Type: l.Type, Content: text})
}

// MarshalJSON encodes an internal node as {"type", "content": [children]}.
func (n *Internal) MarshalJSON() ([]byte, error) {
	children := n.Children
	if children == nil {
		children = []Node{}
	}
	content, err := json.Marshal(children)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wire{Type: n.Type, Content: content})
}

// Unmarshal decodes the JSON shape written by MarshalJSON.
func Unmarshal(data []byte) (Node, error) {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode ir node: %w", err)
	}
	content := strings.TrimSpace(string(w.Content))
	switch {
	case strings.HasPrefix(content, `"`):
		var text string
		if err := json.Unmarshal(w.Content, &text); err != nil {
			return nil, fmt.Errorf("decode leaf %q: %w", w.Type, err)
		}
		return &Leaf{Type: w.Type, Text: text}, nil
	case strings.HasPrefix(content, "["):
		var raw []json.RawMessage
		if err := json.Unmarshal(w.Content, &raw); err != nil {
			return nil, fmt.Errorf("decode children of %q: %w", w.Type, err)
		}
		out := &Internal{Type: w.Type, Children: make([]Node, 0, len(raw))}
		for _, r := range raw {
			child, err := Unmarshal(r)
			if err != nil {
				return nil, err
			}
			out.Children = append(out.Children, child)
		}
		return out, nil
	}
	return nil, fmt.Errorf("decode ir node %q: content must be a string or an array", w.Type)
}

// Dump renders the tree one node per line, indented by depth.
func Dump(n Node) string {
	var b strings.Builder
	dump(&b, n, 0)
	return b.String()
}

func dump(b *strings.Builder, n Node, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	switch v := n.(type) {
	case *Leaf:
		fmt.Fprintf(b, "%s %q\n", v.Type, v.Text)
	case *Internal:
		b.WriteString(v.Type)
		b.WriteByte('\n')
		for _, c := range v.Children {
			dump(b, c, depth+1)
		}
	}
}
