package optimize

import (
	"strconv"

	"github.com/efebarandurmaz/refinery/internal/grammar"
	"github.com/efebarandurmaz/refinery/internal/ir"
)

// propagator substitutes known constants into one statement at a time and
// records the constants the statement establishes.
type propagator struct {
	g     *grammar.Grammar
	stats *Stats
}

// Propagate runs constant propagation over one statement sequence at the
// scope's innermost level. It does not descend into nested blocks; the
// optimizer does that while carrying the same scope.
func Propagate(children []ir.Node, scope *Scope, g *grammar.Grammar) []ir.Node {
	p := &propagator{g: g, stats: &Stats{}}
	out := make([]ir.Node, len(children))
	for i, c := range children {
		out[i] = p.statement(c, scope)
	}
	return out
}

func (p *propagator) statement(n ir.Node, s *Scope) ir.Node {
	in, ok := n.(*ir.Internal)
	if !ok {
		return n
	}
	g := p.g
	switch {
	case g.LabelKinds.Has(in.Type):
		s.KillAll()
	case g.DeclarationKinds.Has(in.Type):
		p.declaration(in, s)
	case g.ExpressionStatementKinds.Has(in.Type):
		p.expressionStatement(in, s)
	case g.ReturnKinds.Has(in.Type):
		for i, c := range in.Children {
			if grammar.IsToken(c) || g.CommentKinds.Has(c.Kind()) {
				continue
			}
			in.Children[i] = p.value(c, s)
		}
		p.killWrites(in, s)
	case g.ConditionalKinds.Has(in.Type):
		for i, c := range in.Children {
			if g.ParenthesizedKinds.Has(c.Kind()) {
				in.Children[i] = p.operands(c, s)
				p.killWrites(c, s)
				break
			}
		}
	}
	for _, name := range g.EscapedNames(in) {
		s.Escape(name)
	}
	return in
}

func (p *propagator) declaration(n *ir.Internal, s *Scope) {
	g := p.g
	class := g.DeclaredClass(n)
	track := !g.IsUntracked(n) && (!s.Root() || g.IsConst(n))
	if !track {
		class = grammar.NotNumeric
	}

	decls := g.Declarators(n)
	declared := map[string]bool{}
	for _, d := range decls {
		declared[d.Name] = true
		if d.Value != nil {
			d.Parent.Children[d.Index] = p.value(d.Value, s)
		}
	}
	for _, name := range g.WrittenNames(n) {
		if !declared[name] {
			s.Kill(name)
		}
	}
	for _, d := range decls {
		if d.Value == nil {
			s.Declare(d.Name, class)
			continue
		}
		if v, ok := p.constant(d.Parent.Children[d.Index], class); ok {
			s.DeclareConst(d.Name, class, v)
			continue
		}
		s.Declare(d.Name, class)
	}
}

func (p *propagator) expressionStatement(n *ir.Internal, s *Scope) {
	g := p.g
	sig := g.Significant(n)
	if len(sig) != 1 {
		p.killWrites(n, s)
		return
	}
	expr, ok := g.Unparen(sig[0]).(*ir.Internal)
	if !ok {
		return
	}
	a, ok := g.Assignment(expr)
	if !ok || a.Op != "=" || !g.AssignmentKinds.Has(expr.Type) {
		replaced := p.operands(expr, s)
		if replaced != ir.Node(expr) {
			replaceChild(n, expr, replaced)
		}
		p.killWrites(n, s)
		return
	}

	expr.Children[a.ValueIndex] = p.value(a.Value, s)
	for _, name := range g.WrittenNames(expr.Children[a.ValueIndex]) {
		s.Kill(name)
	}
	if v, ok := p.constant(expr.Children[a.ValueIndex], s.Class(a.Name)); ok {
		s.Set(a.Name, v)
		return
	}
	s.Kill(a.Name)
}

func (p *propagator) killWrites(n ir.Node, s *Scope) {
	for _, name := range p.g.WrittenNames(n) {
		s.Kill(name)
	}
}

// value rewrites an assigned or returned expression: a bare known
// identifier becomes its literal, otherwise known identifiers in binary
// operands are substituted and the expression is folded again.
func (p *propagator) value(n ir.Node, s *Scope) ir.Node {
	if name, ok := p.g.Identifier(n); ok {
		if v, known := s.Value(name); known {
			p.stats.Substituted++
			return p.g.NumberLiteral(v)
		}
		return n
	}
	return p.operands(n, s)
}

// operands substitutes known identifiers that appear as direct operands of
// binary expressions under n, then folds the result. Nested blocks and
// functions are left to their own traversal.
func (p *propagator) operands(n ir.Node, s *Scope) ir.Node {
	in, ok := n.(*ir.Internal)
	if !ok {
		return n
	}
	g := p.g
	var walk func(x *ir.Internal)
	walk = func(x *ir.Internal) {
		binary := g.BinaryKinds.Has(x.Type)
		for i, c := range x.Children {
			if binary {
				if name, ok := g.Identifier(c); ok {
					if v, known := s.Value(name); known {
						x.Children[i] = g.NumberLiteral(v)
						p.stats.Substituted++
					}
					continue
				}
			}
			child, ok := c.(*ir.Internal)
			if !ok || g.ScopeKinds.Has(child.Type) || g.FunctionKinds.Has(child.Type) {
				continue
			}
			walk(child)
		}
	}
	walk(in)
	out, folded := FoldAll(in, g)
	p.stats.Folded += folded
	return out
}

// constant returns the canonical text of n when n is a literal that can be
// stored in a variable of the given class without conversion loss.
func (p *propagator) constant(n ir.Node, class grammar.NumClass) (string, bool) {
	text, ok := p.g.Number(n)
	if !ok {
		return "", false
	}
	num, ok := grammar.ParseNumber(text)
	if !ok {
		return "", false
	}
	switch class {
	case grammar.Integer:
		if num.Float || !p.g.FitsInt(num.I) {
			return "", false
		}
		return strconv.FormatInt(num.I, 10), true
	case grammar.Float:
		return grammar.FormatFloat(num.Value()), true
	}
	return "", false
}
