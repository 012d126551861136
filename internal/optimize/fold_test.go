package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/refinery/internal/ir"
	"github.com/efebarandurmaz/refinery/internal/ir/irtest"
	"github.com/efebarandurmaz/refinery/internal/plugins/source/c"
	"github.com/efebarandurmaz/refinery/internal/plugins/source/java"
)

func TestFold_Simple(t *testing.T) {
	g := c.NewGrammar()
	got := Fold(irtest.MustParse(t, `(binary_expression number_literal:2 "+" number_literal:3)`), g)
	assert.Equal(t, &ir.Leaf{Type: "number_literal", Text: "5"}, got)
}

func TestFold_Precedence(t *testing.T) {
	g := c.NewGrammar()

	// 2 + 3 * 1 parses as 2 + (3 * 1): the outer node's right operand is not
	// a literal when it is visited, so only the inner product folds.
	nested := irtest.MustParse(t, `(binary_expression number_literal:2 "+" (binary_expression number_literal:3 "*" number_literal:1))`)
	got := Fold(nested, g)
	assert.Same(t, nested, got)
	assert.Equal(t, "2+3*1", ir.Generate(got))

	inner := nested.(*ir.Internal).Children[2]
	nested.(*ir.Internal).Children[2] = Fold(inner, g)
	assert.Equal(t, "2+3", ir.Generate(nested))

	// A flat node does not have the left/operator/right shape.
	flat := irtest.MustParse(t, `(binary_expression number_literal:2 "+" number_literal:3 "*" number_literal:1)`)
	assert.Same(t, flat, Fold(flat, g))
}

func TestFold_LeftChain(t *testing.T) {
	g := c.NewGrammar()
	n := irtest.MustParse(t, `(binary_expression (binary_expression (binary_expression number_literal:1 "+" number_literal:2) "+" number_literal:3) "*" number_literal:4)`)
	assert.Equal(t, "24", ir.Generate(Fold(n, g)))
}

func TestFold_Operators(t *testing.T) {
	g := c.NewGrammar()
	cases := []struct {
		left, op, right string
		want            string
	}{
		{"7", "/", "2", "3"},
		{"7", "%", "3", "1"},
		{"-7", "/", "2", "(-3)"},
		{"6", "&", "3", "2"},
		{"6", "|", "3", "7"},
		{"6", "^", "3", "5"},
		{"1", "<<", "4", "16"},
		{"-16", ">>", "2", "(-4)"},
		{"0x10", "+", "1", "17"},
		{"2", "<", "3", "1"},
		{"3", "<=", "2", "0"},
		{"3", ">", "2", "1"},
		{"3", ">=", "4", "0"},
		{"3", "==", "3", "1"},
		{"3", "!=", "3", "0"},
		{"1.5", "+", "1", "2.5"},
		{"1.0", "*", "2", "2.0"},
		{"1", "/", "4.0", "0.25"},
		{"2.5", "<", "3", "1"},
	}
	for _, tc := range cases {
		n := &ir.Internal{Type: "binary_expression", Children: []ir.Node{
			&ir.Leaf{Type: "number_literal", Text: tc.left},
			&ir.Leaf{Type: tc.op, Text: tc.op},
			&ir.Leaf{Type: "number_literal", Text: tc.right},
		}}
		assert.Equal(t, tc.want, ir.Generate(Fold(n, g)), "%s %s %s", tc.left, tc.op, tc.right)
	}
}

func TestFold_FailOpen(t *testing.T) {
	g := c.NewGrammar()
	cases := []string{
		`(binary_expression number_literal:1 "/" number_literal:0)`,
		`(binary_expression number_literal:5 "%" number_literal:0)`,
		`(binary_expression number_literal:1.0 "/" number_literal:0)`,
		`(binary_expression number_literal:2147483647 "+" number_literal:1)`,
		`(binary_expression number_literal:65536 "*" number_literal:65536)`,
		`(binary_expression number_literal:1 "<<" number_literal:40)`,
		`(binary_expression number_literal:1 "<<" number_literal:31)`,
		`(binary_expression number_literal:1e308 "*" number_literal:10.0)`,
		`(binary_expression number_literal:1.5 "%" number_literal:2)`,
		`(binary_expression number_literal:1.5 "&" number_literal:2)`,
		`(binary_expression number_literal:1 "&&" number_literal:2)`,
		`(binary_expression number_literal:10u "+" number_literal:1)`,
		`(binary_expression identifier:x "+" number_literal:1)`,
		`(binary_expression number_literal:3000000000 "-" number_literal:1)`,
	}
	for _, src := range cases {
		n := irtest.MustParse(t, src)
		before := ir.Generate(n)
		assert.NotPanics(t, func() { n = Fold(n, g) }, src)
		assert.Equal(t, before, ir.Generate(n), src)
	}
}

func TestFold_NegativeOperandInParens(t *testing.T) {
	g := c.NewGrammar()
	n := irtest.MustParse(t, `(binary_expression (parenthesized_expression "(" number_literal:-2 ")") "*" number_literal:3)`)
	assert.Equal(t, "(-6)", ir.Generate(Fold(n, g)))
}

func TestFold_JavaBooleans(t *testing.T) {
	g := java.NewGrammar()
	n := irtest.MustParse(t, `(binary_expression decimal_integer_literal:2 "<" decimal_integer_literal:3)`)
	assert.Equal(t, &ir.Leaf{Type: "true", Text: "true"}, Fold(n, g))

	n = irtest.MustParse(t, `(binary_expression decimal_integer_literal:2 "+" decimal_floating_point_literal:0.5)`)
	assert.Equal(t, &ir.Leaf{Type: "decimal_floating_point_literal", Text: "2.5"}, Fold(n, g))
}

func TestFold_Idempotent(t *testing.T) {
	g := c.NewGrammar()
	src := `(expression_statement (assignment_expression identifier:x "="
		(binary_expression (binary_expression number_literal:2 "*" number_literal:3) "+" (binary_expression identifier:y "-" (binary_expression number_literal:1 "+" number_literal:1)))) ";")`

	once, n := FoldAll(irtest.MustParse(t, src), g)
	require.Equal(t, "x =6+y -2;", ir.Generate(once))
	assert.Equal(t, 2, n)

	twice, n := FoldAll(ir.Clone(once), g)
	assert.True(t, ir.Equal(once, twice))
	assert.Zero(t, n)
	assert.True(t, ir.Equal(Fold(ir.Clone(once), g), once))
}
