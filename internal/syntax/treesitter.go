package syntax

import (
	"context"
	"fmt"

	"github.com/efebarandurmaz/refinery/pkg/treesitter"
)

// TreeSitterProvider parses with the grammars registered in pkg/treesitter.
// A fresh parser is created per call, so the provider is safe for concurrent use.
type TreeSitterProvider struct{}

// NewTreeSitterProvider returns a provider backed by tree-sitter.
func NewTreeSitterProvider() *TreeSitterProvider { return &TreeSitterProvider{} }

// Parse implements Provider. Source containing syntax errors is rejected
// with a *ParseError pointing at the first error or missing token.
func (p *TreeSitterProvider) Parse(ctx context.Context, code, language string) (*Node, error) {
	parser, err := treesitter.NewParser(language)
	if err != nil {
		return nil, err
	}
	defer parser.Close()

	source := []byte(code)
	root, err := parser.Parse(ctx, source)
	if err != nil {
		return nil, &ParseError{Language: language, Msg: err.Error()}
	}
	if root.IsNull() {
		return nil, &ParseError{Language: language, Msg: "empty parse tree"}
	}
	if root.HasError() {
		return nil, firstError(root, language)
	}
	return convert(root, source), nil
}

func convert(n *treesitter.Node, source []byte) *Node {
	out := &Node{Kind: n.Type(), Text: n.Text(source)}
	count := n.ChildCount()
	if count == 0 {
		return out
	}
	out.Children = make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		out.Children = append(out.Children, convert(n.Child(i), source))
	}
	return out
}

func firstError(n *treesitter.Node, language string) *ParseError {
	if bad := findError(n); bad != nil {
		msg := "syntax error"
		if bad.IsMissing() {
			msg = fmt.Sprintf("missing %q", bad.Type())
		}
		return &ParseError{
			Language: language,
			Line:     bad.StartLine() + 1,
			Column:   bad.StartColumn() + 1,
			Msg:      msg,
		}
	}
	return &ParseError{Language: language, Msg: "syntax error"}
}

func findError(n *treesitter.Node) *treesitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c.IsNull() || !(c.HasError() || c.IsMissing()) {
			continue
		}
		if bad := findError(c); bad != nil {
			return bad
		}
	}
	return nil
}
