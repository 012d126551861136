package optimize

import (
	"github.com/efebarandurmaz/refinery/internal/grammar"
	"github.com/efebarandurmaz/refinery/internal/ir"
)

// Fold replaces a binary expression over two numeric literals with its
// value. The left operand is folded first so that left-associative chains
// such as 1 + 2 + 3 collapse in one call; the right operand is left alone,
// which means 2 + 3 * 1 folds only its inner product when the traversal
// reaches it. Anything else is returned unchanged.
func Fold(n ir.Node, g *grammar.Grammar) ir.Node {
	in, ok := n.(*ir.Internal)
	if !ok {
		return n
	}
	left, op, right, ok := g.Binary(in)
	if !ok {
		return n
	}
	if folded := Fold(left, g); folded != left {
		replaceChild(in, left, folded)
		left = folded
	}
	a, ok := g.Number(left)
	if !ok {
		return n
	}
	b, ok := g.Number(right)
	if !ok {
		return n
	}
	if out, ok := evaluate(g, a, op, b); ok {
		return out
	}
	return n
}

// FoldAll folds every binary expression under n, innermost first, and
// reports how many expressions collapsed to a literal.
func FoldAll(n ir.Node, g *grammar.Grammar) (ir.Node, int) {
	in, ok := n.(*ir.Internal)
	if !ok {
		return n, 0
	}
	count := 0
	for i, c := range in.Children {
		var k int
		in.Children[i], k = FoldAll(c, g)
		count += k
	}
	if out := Fold(in, g); out != ir.Node(in) {
		return out, count + 1
	}
	return in, count
}

func replaceChild(parent *ir.Internal, old, repl ir.Node) {
	for i, c := range parent.Children {
		if c == old {
			parent.Children[i] = repl
			return
		}
	}
}
