package optimize

import (
	"github.com/efebarandurmaz/refinery/internal/grammar"
	"github.com/efebarandurmaz/refinery/internal/ir"
)

// Eliminate removes statements that follow an unconditional transfer
// (return, break, continue, goto, throw) in the same statement sequence.
// Closing braces and terminators after the transfer are kept so the
// surrounding syntax stays valid, and a label makes the code after it
// reachable again. Transfers nested deeper, such as a return inside an if,
// never affect the enclosing sequence.
func Eliminate(n ir.Node, g *grammar.Grammar) ir.Node {
	in, ok := n.(*ir.Internal)
	if !ok {
		return n
	}
	for i, c := range in.Children {
		in.Children[i] = Eliminate(c, g)
	}
	eliminateLevel(in, g)
	return in
}

// eliminateLevel applies the scan to the direct children of n only and
// returns how many children it dropped.
func eliminateLevel(n *ir.Internal, g *grammar.Grammar) int {
	if !g.SequenceKinds.Has(n.Type) {
		return 0
	}
	kept := make([]ir.Node, 0, len(n.Children))
	dead := false
	for _, c := range n.Children {
		if dead {
			switch {
			case g.LabelKinds.Has(c.Kind()):
				dead = false
			case !structural(c):
				continue
			}
		}
		kept = append(kept, c)
		if g.TransferKinds.Has(c.Kind()) {
			dead = true
		}
	}
	removed := len(n.Children) - len(kept)
	n.Children = kept
	return removed
}

// structural reports a node whose text is exactly a closing brace or a
// statement terminator.
func structural(n ir.Node) bool {
	switch ir.Generate(n) {
	case "}", ";":
		return true
	}
	return false
}
