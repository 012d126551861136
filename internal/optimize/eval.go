package optimize

import (
	"math"

	"github.com/efebarandurmaz/refinery/internal/grammar"
	"github.com/efebarandurmaz/refinery/internal/ir"
)

// evaluate applies a whitelisted binary operator to two numeric literal
// texts. It never evaluates anything but the fixed operator set, and reports
// false whenever the result would differ from what the target language
// computes: division by zero, overflow of the default integer type,
// out-of-range shifts, non-finite floats.
func evaluate(g *grammar.Grammar, left, op, right string) (ir.Node, bool) {
	a, ok := grammar.ParseNumber(left)
	if !ok {
		return nil, false
	}
	b, ok := grammar.ParseNumber(right)
	if !ok {
		return nil, false
	}
	if a.Float || b.Float {
		return evalFloat(g, a.Value(), op, b.Value())
	}
	if !g.FitsInt(a.I) || !g.FitsInt(b.I) {
		return nil, false
	}
	return evalInt(g, a.I, op, b.I)
}

func evalInt(g *grammar.Grammar, a int64, op string, b int64) (ir.Node, bool) {
	var r int64
	switch op {
	case "+":
		r = a + b
		if (b > 0 && r < a) || (b < 0 && r > a) {
			return nil, false
		}
	case "-":
		r = a - b
		if (b < 0 && r < a) || (b > 0 && r > a) {
			return nil, false
		}
	case "*":
		if a != 0 && b != 0 {
			r = a * b
			if r/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
				return nil, false
			}
		}
	case "/", "%":
		if b == 0 || (a == math.MinInt64 && b == -1) {
			return nil, false
		}
		if op == "/" {
			r = a / b
		} else {
			r = a % b
		}
	case "&":
		r = a & b
	case "|":
		r = a | b
	case "^":
		r = a ^ b
	case "<<":
		if a < 0 || b < 0 || b >= int64(intBits(g)) {
			return nil, false
		}
		r = a << uint(b)
		if r>>uint(b) != a {
			return nil, false
		}
	case ">>":
		if b < 0 || b >= int64(intBits(g)) {
			return nil, false
		}
		r = a >> uint(b)
	case "<":
		return g.Bool(a < b), true
	case "<=":
		return g.Bool(a <= b), true
	case ">":
		return g.Bool(a > b), true
	case ">=":
		return g.Bool(a >= b), true
	case "==":
		return g.Bool(a == b), true
	case "!=":
		return g.Bool(a != b), true
	default:
		return nil, false
	}
	if !g.FitsInt(r) {
		return nil, false
	}
	return g.IntLiteral(r), true
}

func evalFloat(g *grammar.Grammar, a float64, op string, b float64) (ir.Node, bool) {
	var r float64
	switch op {
	case "+":
		r = a + b
	case "-":
		r = a - b
	case "*":
		r = a * b
	case "/":
		if b == 0 {
			return nil, false
		}
		r = a / b
	case "<":
		return g.Bool(a < b), true
	case "<=":
		return g.Bool(a <= b), true
	case ">":
		return g.Bool(a > b), true
	case ">=":
		return g.Bool(a >= b), true
	case "==":
		return g.Bool(a == b), true
	case "!=":
		return g.Bool(a != b), true
	default:
		return nil, false
	}
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return nil, false
	}
	return g.NumberLiteral(grammar.FormatFloat(r)), true
}

func intBits(g *grammar.Grammar) int {
	if g.IntBits <= 0 || g.IntBits > 64 {
		return 64
	}
	return g.IntBits
}
