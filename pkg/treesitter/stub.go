//go:build !cgo

package treesitter

import (
	"context"
	"fmt"
)

// Parser is a stub when CGO is disabled.
type Parser struct{}

// Node is a stub when CGO is disabled.
type Node struct{}

// NewParser returns an error unless built with CGO enabled.
func NewParser(language string) (*Parser, error) {
	return nil, fmt.Errorf("treesitter disabled (build with CGO enabled); requested language: %s", language)
}

func (p *Parser) Language() string { return "" }

func (p *Parser) Parse(_ context.Context, _ []byte) (*Node, error) {
	return nil, fmt.Errorf("treesitter disabled (build with CGO enabled)")
}

func (p *Parser) Close() {}

func (n *Node) Type() string         { return "" }
func (n *Node) Text(_ []byte) string { return "" }
func (n *Node) IsNull() bool         { return true }
func (n *Node) IsMissing() bool      { return false }
func (n *Node) HasError() bool       { return false }
func (n *Node) ChildCount() int      { return 0 }
func (n *Node) Child(_ int) *Node    { return &Node{} }
func (n *Node) StartLine() int       { return 0 }
func (n *Node) StartColumn() int     { return 0 }
