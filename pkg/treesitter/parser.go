//go:build cgo
// +build cgo

package treesitter

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parser wraps a tree-sitter parser for a given language.
// A Parser is not safe for concurrent use; create one per request.
type Parser struct {
	parser   *sitter.Parser
	language string
}

// Node wraps a tree-sitter node. Nodes keep their tree alive.
type Node struct {
	node *sitter.Node
}

// NewParser creates a tree-sitter parser for the given language.
// The language must be registered via Register() before calling this.
func NewParser(language string) (*Parser, error) {
	langFn, ok := GetLanguage(language)
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s (not registered)", language)
	}

	lang, ok := langFn().(*sitter.Language)
	if !ok || lang == nil {
		return nil, fmt.Errorf("invalid grammar handle for %s", language)
	}

	p := sitter.NewParser()
	p.SetLanguage(lang)
	return &Parser{parser: p, language: language}, nil
}

// Language returns the parser's language name.
func (p *Parser) Language() string { return p.language }

// Parse parses source code and returns the root node.
func (p *Parser) Parse(ctx context.Context, source []byte) (*Node, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("parse failed")
	}
	return &Node{node: tree.RootNode()}, nil
}

// Close releases parser resources.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
		p.parser = nil
	}
}

// --- Node methods ---

// Type returns the node's type name. Anonymous tokens report their literal text.
func (n *Node) Type() string {
	return n.node.Type()
}

// Text extracts the node's text from source.
func (n *Node) Text(source []byte) string {
	return n.node.Content(source)
}

// IsNull returns true if the node is null/invalid.
func (n *Node) IsNull() bool {
	return n.node == nil || n.node.IsNull()
}

// IsMissing reports a token the parser inserted to recover from an error.
func (n *Node) IsMissing() bool {
	return n.node.IsMissing()
}

// HasError reports whether this node or any descendant is a syntax error.
func (n *Node) HasError() bool {
	return n.node.HasError()
}

// ChildCount returns the number of children.
func (n *Node) ChildCount() int {
	return int(n.node.ChildCount())
}

// Child returns the i-th child node.
func (n *Node) Child(i int) *Node {
	return &Node{node: n.node.Child(i)}
}

// StartLine returns the 0-based start line of the node.
func (n *Node) StartLine() int {
	return int(n.node.StartPoint().Row)
}

// StartColumn returns the 0-based start column of the node.
func (n *Node) StartColumn() int {
	return int(n.node.StartPoint().Column)
}
