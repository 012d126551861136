// Package optimize implements the IR passes: constant folding, dead code
// elimination, loop unrolling and constant propagation, and the Optimizer
// that applies them across a tree.
package optimize

import (
	"regexp"

	"github.com/efebarandurmaz/refinery/internal/grammar"
	"github.com/efebarandurmaz/refinery/internal/ir"
)

// Stats counts what one optimization run changed.
type Stats struct {
	Folded        int `json:"folded"`
	Eliminated    int `json:"eliminated"`
	Unrolled      int `json:"unrolled"`
	UnrollAborted int `json:"unroll_aborted"`
	Substituted   int `json:"substituted"`
}

// Optimizer applies the passes to one tree. It holds per-request state (the
// unroll budget and counters) and must not be reused across requests.
type Optimizer struct {
	g        *grammar.Grammar
	unroller *Unroller
	prop     *propagator
	stats    Stats
}

// New creates an optimizer for grammar g.
func New(g *grammar.Grammar, budget Budget) *Optimizer {
	o := &Optimizer{g: g, unroller: NewUnroller(g, budget)}
	o.prop = &propagator{g: g, stats: &o.stats}
	return o
}

// Optimize rewrites root. At every node it folds, eliminates dead code and
// tries to unroll, then walks the children in order with the propagation
// scope: each statement child is propagated before it is visited, so
// constants flow top-down and a nested block's assignments are seen by the
// statements after it.
func (o *Optimizer) Optimize(root ir.Node) ir.Node {
	out := o.visit(root, NewScope())
	o.stats.UnrollAborted = o.unroller.Aborted()
	return out
}

// Stats returns the counters of the last Optimize call.
func (o *Optimizer) Stats() Stats { return o.stats }

func (o *Optimizer) visit(n ir.Node, scope *Scope) ir.Node {
	g := o.g
	if folded := Fold(n, g); folded != n {
		o.stats.Folded++
		n = folded
	}
	in, ok := n.(*ir.Internal)
	if !ok {
		return n
	}
	o.stats.Eliminated += eliminateLevel(in, g)

	if out, ok := o.unroller.Unroll(in, scope); ok {
		o.stats.Unrolled++
		in = out.(*ir.Internal)
	}

	loop := g.LoopKinds.Has(in.Type)
	if loop {
		// Values assigned anywhere in the loop are not constant across
		// iterations.
		for _, name := range g.WrittenNames(in) {
			scope.Kill(name)
		}
	}

	switch {
	case g.FunctionKinds.Has(in.Type):
		scope.Push(false)
		defer scope.Pop()
		o.shadowHeader(in, scope)
	case g.ScopeKinds.Has(in.Type):
		scope.Push(g.RootKinds.Has(in.Type))
		defer scope.Pop()
	}

	branches := g.ConditionalKinds.Has(in.Type)
	for i, c := range in.Children {
		if _, isLeaf := c.(*ir.Leaf); isLeaf {
			continue
		}
		if branches {
			scope.Push(false)
		}
		if !loop {
			c = o.prop.statement(c, scope)
		}
		in.Children[i] = o.visit(c, scope)
		if branches {
			scope.Pop()
		}
	}
	return in
}

var word = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// shadowHeader declares every word of a function header (return type, name,
// parameters) as unknown, so parameters hide constants of the same name
// from enclosing scopes.
func (o *Optimizer) shadowHeader(fn *ir.Internal, scope *Scope) {
	for _, c := range fn.Children {
		if o.g.ScopeKinds.Has(c.Kind()) {
			continue
		}
		for _, w := range word.FindAllString(grammar.TokenText(c), -1) {
			scope.Declare(w, grammar.NotNumeric)
		}
	}
}
