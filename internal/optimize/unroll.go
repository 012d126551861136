package optimize

import (
	"github.com/efebarandurmaz/refinery/internal/grammar"
	"github.com/efebarandurmaz/refinery/internal/ir"
)

// Lookup answers what the enclosing code knows about a variable.
type Lookup interface {
	Value(name string) (string, bool)
	Class(name string) grammar.NumClass
}

// Budget caps what unrolling may emit for one request. An unroll that would
// exceed either limit is abandoned; the loop stays as written.
type Budget struct {
	MaxIterations int
	MaxNodes      int
}

// DefaultBudget is used when a caller passes a zero Budget.
var DefaultBudget = Budget{MaxIterations: 64, MaxNodes: 20000}

// Unroller replaces bounded loops with copies of their bodies. It tracks
// the nodes it has emitted so the per-request budget holds across loops.
type Unroller struct {
	g       *grammar.Grammar
	budget  Budget
	emitted int
	aborted int
}

// NewUnroller creates an unroller for one request.
func NewUnroller(g *grammar.Grammar, budget Budget) *Unroller {
	if budget.MaxIterations <= 0 {
		budget.MaxIterations = DefaultBudget.MaxIterations
	}
	if budget.MaxNodes <= 0 {
		budget.MaxNodes = DefaultBudget.MaxNodes
	}
	return &Unroller{g: g, budget: budget}
}

// Aborted returns how many recognized loops could not be unrolled.
func (u *Unroller) Aborted() int { return u.aborted }

// induction describes a loop whose iterations can be enumerated.
type induction struct {
	name    string
	start   int64
	delta   int64
	cmp     grammar.Cmp
	exit    bool // the variable outlives the loop
	stepIdx int  // conditional loops: index in the body of the step statement
}

// Unroll returns a block holding one copy of the loop body per iteration,
// with the induction variable replaced by its value in each copy. It
// reports false, leaving n untouched, for any loop it cannot enumerate
// with certainty.
func (u *Unroller) Unroll(n ir.Node, known Lookup) (ir.Node, bool) {
	loop, ok := u.g.LoopParts(n)
	if !ok {
		return n, false
	}
	var ind induction
	if loop.Counted {
		ind, ok = u.counted(loop, known)
	} else {
		ind, ok = u.conditional(loop, known)
	}
	if !ok || grammar.Contains(loop.Body, u.g.JumpKinds) {
		u.aborted++
		return n, false
	}

	values, final, ok := u.iterations(ind)
	if !ok {
		u.aborted++
		return n, false
	}
	cost := len(values)*ir.Count(loop.Body) + 8
	if u.emitted+cost > u.budget.MaxNodes {
		u.aborted++
		return n, false
	}
	u.emitted += cost

	children := make([]ir.Node, 0, len(values)+1)
	for _, v := range values {
		if loop.Counted {
			children = append(children, u.substitute(ir.Clone(loop.Body), ind.name, v))
			continue
		}
		children = append(children, u.conditionalCopy(loop.Body, ind, v))
	}
	if ind.exit {
		children = append(children, u.g.AssignStatement(ind.name, u.g.IntLiteral(final)))
	}
	return u.g.Block(children), true
}

func (u *Unroller) counted(loop grammar.Loop, known Lookup) (induction, bool) {
	g := u.g
	var ind induction
	if g.DeclarationKinds.Has(loop.Init.Kind()) {
		decls := g.Declarators(loop.Init)
		if len(decls) != 1 || decls[0].Value == nil || g.DeclaredClass(loop.Init) != grammar.Integer {
			return ind, false
		}
		start, ok := g.Int(decls[0].Value)
		if !ok {
			return ind, false
		}
		ind.name, ind.start = decls[0].Name, start
	} else {
		a, ok := g.Assignment(loop.Init)
		if !ok || a.Op != "=" || known.Class(a.Name) != grammar.Integer {
			return ind, false
		}
		start, ok := g.Int(a.Value)
		if !ok {
			return ind, false
		}
		ind.name, ind.start, ind.exit = a.Name, start, true
	}

	cmp, ok := g.Comparison(loop.Condition)
	if !ok || cmp.Name != ind.name || !supported(cmp.Op) {
		return ind, false
	}
	name, delta, ok := g.Step(loop.Update)
	if !ok || name != ind.name {
		return ind, false
	}
	if writes(g, loop.Body, ind.name) {
		return ind, false
	}
	ind.cmp, ind.delta = cmp, delta
	return ind, true
}

func (u *Unroller) conditional(loop grammar.Loop, known Lookup) (induction, bool) {
	g := u.g
	var ind induction
	cmp, ok := g.Comparison(loop.Condition)
	if !ok || !supported(cmp.Op) || known.Class(cmp.Name) != grammar.Integer {
		return ind, false
	}
	text, ok := known.Value(cmp.Name)
	if !ok {
		return ind, false
	}
	start, ok := grammar.ParseNumber(text)
	if !ok || start.Float {
		return ind, false
	}
	body, ok := loop.Body.(*ir.Internal)
	if !ok || body.Type != g.BlockKind {
		return ind, false
	}

	ind.stepIdx = -1
	for i, c := range body.Children {
		if name, delta, ok := g.Step(c); ok && name == cmp.Name {
			if ind.stepIdx >= 0 {
				return ind, false
			}
			ind.stepIdx, ind.delta = i, delta
			continue
		}
		if writes(g, c, cmp.Name) {
			return ind, false
		}
	}
	if ind.stepIdx < 0 {
		return ind, false
	}
	ind.name, ind.start, ind.cmp, ind.exit = cmp.Name, start.I, cmp, true
	return ind, true
}

// iterations simulates the induction variable and returns the value of
// each iteration together with the value that ends the loop.
func (u *Unroller) iterations(ind induction) ([]int64, int64, bool) {
	if ind.delta == 0 {
		return nil, 0, false
	}
	var values []int64
	v := ind.start
	for holds(ind.cmp.Op, v, ind.cmp.Bound) {
		if len(values) >= u.budget.MaxIterations {
			return nil, 0, false
		}
		values = append(values, v)
		next := v + ind.delta
		if !u.g.FitsInt(next) {
			return nil, 0, false
		}
		v = next
	}
	return values, v, true
}

func holds(op string, v, bound int64) bool {
	switch op {
	case "<":
		return v < bound
	case "<=":
		return v <= bound
	case "!=":
		return v != bound
	}
	return false
}

func supported(op string) bool {
	switch op {
	case "<", "<=", "!=":
		return true
	}
	return false
}

func (u *Unroller) conditionalCopy(body ir.Node, ind induction, v int64) ir.Node {
	src := body.(*ir.Internal)
	out := &ir.Internal{Type: src.Type, Children: make([]ir.Node, 0, len(src.Children)-1)}
	for i, c := range src.Children {
		switch {
		case i == ind.stepIdx:
			continue
		case i < ind.stepIdx:
			out.Children = append(out.Children, u.substitute(ir.Clone(c), ind.name, v))
		default:
			out.Children = append(out.Children, u.substitute(ir.Clone(c), ind.name, v+ind.delta))
		}
	}
	return out
}

// substitute replaces variable references to name with the literal v.
// Identifiers naming members or called functions are not references.
func (u *Unroller) substitute(n ir.Node, name string, v int64) ir.Node {
	g := u.g
	if id, ok := g.Identifier(n); ok && id == name {
		return g.IntLiteral(v)
	}
	in, ok := n.(*ir.Internal)
	if !ok {
		return n
	}
	call := g.CallKinds.Has(in.Type)
	for i, c := range in.Children {
		if id, ok := g.Identifier(c); ok && id == name {
			if i > 0 && g.MemberTokens.Has(in.Children[i-1].Kind()) {
				continue
			}
			if call && i+1 < len(in.Children) && g.ArgumentKinds.Has(in.Children[i+1].Kind()) {
				continue
			}
		}
		in.Children[i] = u.substitute(c, name, v)
	}
	return in
}

func writes(g *grammar.Grammar, n ir.Node, name string) bool {
	for _, w := range g.WrittenNames(n) {
		if w == name {
			return true
		}
	}
	return false
}
