package ir

import "github.com/efebarandurmaz/refinery/internal/syntax"

// Classifier tells the builder which syntax kinds collapse into text leaves.
type Classifier interface {
	// StoreAsText reports kinds kept as a single leaf even when they have children.
	StoreAsText(kind string) bool
	// IsComment reports kinds that become an empty leaf.
	IsComment(kind string) bool
}

// Build converts a syntax tree into IR. The mapping is one-to-one: no
// reordering, no whitespace changes. Comments keep a placeholder leaf with
// empty text.
func Build(n *syntax.Node, c Classifier) Node {
	switch {
	case c.IsComment(n.Kind):
		return &Leaf{Type: n.Kind}
	case c.StoreAsText(n.Kind), len(n.Children) == 0:
		return &Leaf{Type: n.Kind, Text: n.Text}
	}
	out := &Internal{Type: n.Kind, Children: make([]Node, 0, len(n.Children))}
	for _, child := range n.Children {
		out.Children = append(out.Children, Build(child, c))
	}
	return out
}
