// Package syntaxtest provides a syntax.Provider that serves canned trees,
// so packages above the parser can be tested without tree-sitter.
package syntaxtest

import (
	"context"
	"sync"
	"testing"

	"github.com/efebarandurmaz/refinery/internal/ir"
	"github.com/efebarandurmaz/refinery/internal/ir/irtest"
	"github.com/efebarandurmaz/refinery/internal/syntax"
)

// Provider maps source text to a tree in irtest notation. Unknown source
// fails with a *syntax.ParseError at 1:1.
type Provider struct {
	t     testing.TB
	mu    sync.Mutex
	trees map[string]string
	calls int
}

// NewProvider creates a provider serving trees.
func NewProvider(t testing.TB, trees map[string]string) *Provider {
	return &Provider{t: t, trees: trees}
}

func (p *Provider) Parse(_ context.Context, code, language string) (*syntax.Node, error) {
	p.mu.Lock()
	p.calls++
	src, ok := p.trees[code]
	p.mu.Unlock()
	if !ok {
		return nil, &syntax.ParseError{Language: language, Line: 1, Column: 1, Msg: "syntax error"}
	}
	n, err := irtest.Parse(src)
	if err != nil {
		p.t.Errorf("syntaxtest: %v", err)
		return nil, err
	}
	return FromIR(n), nil
}

// Calls reports how many times Parse ran.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// FromIR converts an IR tree back to the shape tree-sitter would produce.
// Internal nodes get their generated text.
func FromIR(n ir.Node) *syntax.Node {
	switch v := n.(type) {
	case *ir.Leaf:
		return &syntax.Node{Kind: v.Type, Text: v.Text}
	case *ir.Internal:
		out := &syntax.Node{Kind: v.Type, Text: ir.Generate(v)}
		for _, c := range v.Children {
			out.Children = append(out.Children, FromIR(c))
		}
		return out
	}
	return nil
}
