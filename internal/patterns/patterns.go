// Package patterns holds the peephole rewrite table applied to statements
// after the optimization passes. A table is loaded once and never modified;
// callers share it freely across requests.
package patterns

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/efebarandurmaz/refinery/internal/grammar"
	"github.com/efebarandurmaz/refinery/internal/ir"
)

// Rule rewrites one statement shape into another. Tokens starting with "$"
// are metavariables: each binds one identifier and must bind the same name
// everywhere it appears in Match.
type Rule struct {
	Name      string   `yaml:"name"`
	Match     string   `yaml:"match"`
	Replace   string   `yaml:"replace"`
	Languages []string `yaml:"languages,omitempty"`
}

type compiled struct {
	Rule
	match   []string
	replace []string
	langs   map[string]bool
}

// Table is an immutable, ordered set of rules. The first matching rule wins.
type Table struct {
	rules []compiled
}

type file struct {
	Patterns []Rule `yaml:"patterns"`
}

// DefaultRules are the rewrites used when no table is configured.
var DefaultRules = []Rule{
	{Name: "increment", Match: "$x = $x + 1;", Replace: "$x++;"},
	{Name: "decrement", Match: "$x = $x - 1;", Replace: "$x--;"},
}

// Default returns a table holding DefaultRules.
func Default() *Table {
	t, err := New(DefaultRules)
	if err != nil {
		panic(err)
	}
	return t
}

// Empty returns a table that rewrites nothing.
func Empty() *Table { return &Table{} }

// New compiles rules into a table.
func New(rules []Rule) (*Table, error) {
	t := &Table{rules: make([]compiled, 0, len(rules))}
	for i, r := range rules {
		c, err := compile(r)
		if err != nil {
			return nil, fmt.Errorf("patterns[%d] %q: %w", i, r.Name, err)
		}
		t.rules = append(t.rules, c)
	}
	return t, nil
}

// Load reads a YAML table:
//
//	patterns:
//	  - name: increment
//	    match: "$x = $x + 1;"
//	    replace: "$x++;"
//	    languages: [c, cpp]
func Load(r io.Reader) (*Table, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse patterns: %w", err)
	}
	return New(f.Patterns)
}

// LoadFile reads a YAML table from path.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read patterns file: %w", err)
	}
	return Load(bytes.NewReader(data))
}

// Rules returns a copy of the table's rules.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	for i, c := range t.rules {
		out[i] = c.Rule
		out[i].Languages = append([]string(nil), c.Languages...)
	}
	return out
}

// Len returns the number of rules.
func (t *Table) Len() int { return len(t.rules) }

func compile(r Rule) (compiled, error) {
	c := compiled{Rule: r, match: Tokenize(r.Match), replace: Tokenize(r.Replace)}
	if r.Name == "" {
		return c, fmt.Errorf("name is required")
	}
	if len(c.match) == 0 {
		return c, fmt.Errorf("match is empty")
	}
	bound := map[string]bool{}
	for _, tok := range c.match {
		if isVar(tok) {
			bound[tok] = true
		}
	}
	for _, tok := range c.replace {
		if isVar(tok) && !bound[tok] {
			return c, fmt.Errorf("replacement uses unbound %s", tok)
		}
	}
	if len(r.Languages) > 0 {
		c.langs = map[string]bool{}
		for _, l := range r.Languages {
			c.langs[strings.ToLower(l)] = true
		}
	}
	return c, nil
}

func isVar(tok string) bool { return len(tok) > 1 && tok[0] == '$' }

// Apply rewrites every expression statement under root that matches a rule
// for g's language. It returns the rewritten tree and the number of
// statements replaced. Replaced statements are flat: their children are the
// replacement's tokens.
func (t *Table) Apply(root ir.Node, g *grammar.Grammar) (ir.Node, int) {
	if t == nil || len(t.rules) == 0 {
		return root, 0
	}
	rules := make([]*compiled, 0, len(t.rules))
	for i := range t.rules {
		if c := &t.rules[i]; c.langs == nil || c.langs[g.Name] {
			rules = append(rules, c)
		}
	}
	if len(rules) == 0 {
		return root, 0
	}

	count := 0
	var visit func(n ir.Node) ir.Node
	visit = func(n ir.Node) ir.Node {
		in, ok := n.(*ir.Internal)
		if !ok {
			return n
		}
		if g.ExpressionStatementKinds.Has(in.Type) {
			for _, r := range rules {
				if out, ok := r.rewrite(in, g); ok {
					count++
					return out
				}
			}
			return in
		}
		for i, c := range in.Children {
			in.Children[i] = visit(c)
		}
		return in
	}
	return visit(root), count
}

func (c *compiled) rewrite(stmt *ir.Internal, g *grammar.Grammar) (ir.Node, bool) {
	var leaves []*ir.Leaf
	ir.Walk(stmt, func(n ir.Node) bool {
		if l, ok := n.(*ir.Leaf); ok && !g.IsComment(l.Type) && l.Text != "" {
			leaves = append(leaves, l)
		}
		return true
	})
	if len(leaves) != len(c.match) {
		return nil, false
	}

	bindings := map[string]string{}
	for i, tok := range c.match {
		l := leaves[i]
		if !isVar(tok) {
			if l.Text != tok {
				return nil, false
			}
			continue
		}
		if _, ok := g.Identifier(l); !ok {
			return nil, false
		}
		if prev, seen := bindings[tok]; seen && prev != l.Text {
			return nil, false
		}
		bindings[tok] = l.Text
	}

	out := &ir.Internal{Type: stmt.Type, Children: make([]ir.Node, 0, len(c.replace))}
	for _, tok := range c.replace {
		if name, ok := bindings[tok]; ok {
			out.Children = append(out.Children, &ir.Leaf{Type: g.IdentifierKind, Text: name})
			continue
		}
		out.Children = append(out.Children, literal(tok, g))
	}
	return out, true
}

func literal(tok string, g *grammar.Grammar) *ir.Leaf {
	if n, ok := grammar.ParseNumber(tok); ok {
		if n.Float {
			return &ir.Leaf{Type: g.FloatKind, Text: tok}
		}
		return &ir.Leaf{Type: g.IntegerKind, Text: tok}
	}
	return &ir.Leaf{Type: tok, Text: tok}
}
