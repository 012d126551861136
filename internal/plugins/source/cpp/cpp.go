// Package cpp describes the C++ grammar produced by tree-sitter-cpp, which
// shares most statement and expression kinds with C.
package cpp

import (
	"github.com/efebarandurmaz/refinery/internal/grammar"
	"github.com/efebarandurmaz/refinery/internal/plugins/source/c"
)

// Plugin implements plugins.LanguagePlugin for C++.
type Plugin struct {
	g *grammar.Grammar
}

func New() *Plugin { return &Plugin{g: NewGrammar()} }

func (p *Plugin) Language() string          { return "cpp" }
func (p *Plugin) Grammar() *grammar.Grammar { return p.g }
func (p *Plugin) FileExtensions() []string {
	return []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx"}
}

// NewGrammar returns the C++ grammar.
func NewGrammar() *grammar.Grammar {
	g := c.NewGrammar()
	g.Name = "cpp"

	add(g.LeafKinds, "raw_string_literal", "template_argument_list")
	add(g.ParenthesizedKinds, "condition_clause")
	add(g.MemberTokens, "::")
	add(g.ConstQualifiers, "constexpr")
	add(g.UntrackedQualifiers, "thread_local", "mutable")
	add(g.TransferKinds, "throw_statement")
	add(g.ScopeKinds, "for_range_loop", "try_statement", "catch_clause")
	add(g.RootKinds, "declaration_list", "field_declaration_list")
	add(g.FunctionKinds, "lambda_expression")
	add(g.LoopKinds, "for_range_loop")

	g.ReferenceKinds = grammar.NewSet("reference_declarator")
	// Reference parameters let any call write its identifier arguments.
	g.CallsMayWrite = true
	return g
}

func add(s grammar.Set, items ...string) {
	for _, it := range items {
		s[it] = struct{}{}
	}
}
