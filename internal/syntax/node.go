// Package syntax defines the concrete syntax tree handed to the IR builder and
// the provider interface that produces it.
package syntax

import (
	"context"
	"fmt"
)

// Node is one node of a concrete parse tree. Anonymous tokens carry their
// literal text as Kind.
type Node struct {
	Kind     string
	Text     string
	Children []*Node
}

// Provider parses source code of a named language into a syntax tree.
type Provider interface {
	Parse(ctx context.Context, code, language string) (*Node, error)
}

// ParseError reports malformed source. Line and Column are 1-based.
type ParseError struct {
	Language string
	Line     int
	Column   int
	Msg      string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Language, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Language, e.Msg)
}

// Walk visits n and its descendants in pre-order until fn returns false.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}
