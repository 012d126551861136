package patterns

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/refinery/internal/ir"
	"github.com/efebarandurmaz/refinery/internal/ir/irtest"
	"github.com/efebarandurmaz/refinery/internal/plugins/source/c"
	"github.com/efebarandurmaz/refinery/internal/plugins/source/java"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"$x = $x + 1;", []string{"$x", "=", "$x", "+", "1", ";"}},
		{"$x++;", []string{"$x", "++", ";"}},
		{"a<<=b>>c", []string{"a", "<<=", "b", ">>", "c"}},
		{"p->q", []string{"p", "->", "q"}},
		{"x = 2.5;", []string{"x", "=", "2.5", ";"}},
		{"  ", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Tokenize(tt.in), tt.in)
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New([]Rule{{Match: "$x;", Replace: ";"}})
	assert.ErrorContains(t, err, "name is required")

	_, err = New([]Rule{{Name: "empty", Match: " ", Replace: ";"}})
	assert.ErrorContains(t, err, "match is empty")

	_, err = New([]Rule{{Name: "unbound", Match: "$x = 0;", Replace: "$y = 0;"}})
	assert.ErrorContains(t, err, "unbound $y")
}

func TestApply_Defaults(t *testing.T) {
	g := c.NewGrammar()
	tree := irtest.MustParse(t, `(compound_statement "{"
		(expression_statement (assignment_expression identifier:i "=" (binary_expression identifier:i "+" number_literal:1)) ";")
		(expression_statement (assignment_expression identifier:j "=" (binary_expression identifier:j "-" number_literal:1)) ";")
		(expression_statement (assignment_expression identifier:k "=" (binary_expression identifier:i "+" number_literal:1)) ";")
		(expression_statement (assignment_expression identifier:k "=" (binary_expression identifier:k "+" number_literal:2)) ";")
	"}")`)

	out, n := Default().Apply(tree, g)
	assert.Equal(t, 2, n)
	assert.Equal(t, "{i ++;j --;k =i +1;k =k +2;}", ir.Generate(out))
}

func TestApply_OnlyWholeStatements(t *testing.T) {
	g := c.NewGrammar()
	tree := irtest.MustParse(t, `(expression_statement
		(comma_expression (assignment_expression identifier:x "=" (binary_expression identifier:x "+" number_literal:1)) "," identifier:y) ";")`)

	_, n := Default().Apply(tree, g)
	assert.Zero(t, n)
}

func TestApply_MetavariableMustBeIdentifier(t *testing.T) {
	g := c.NewGrammar()
	tree := irtest.MustParse(t, `(expression_statement (assignment_expression number_literal:5 "=" number_literal:1) ";")`)

	table, err := New([]Rule{{Name: "store", Match: "$x = 1;", Replace: "$x = 2;"}})
	require.NoError(t, err)
	_, n := table.Apply(tree, g)
	assert.Zero(t, n)
}

func TestLoadFile(t *testing.T) {
	table, err := LoadFile("testdata/patterns.yaml")
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	rules := table.Rules()
	assert.Equal(t, "increment", rules[0].Name)
	assert.Equal(t, []string{"c", "cpp"}, rules[1].Languages)

	rules[1].Languages[0] = "java"
	assert.Equal(t, "c", table.Rules()[1].Languages[0], "Rules returns a copy")

	stmt := `(expression_statement (assignment_expression identifier:n "=" (binary_expression identifier:n "*" decimal_integer_literal:2)) ";")`
	_, n := table.Apply(irtest.MustParse(t, stmt), java.NewGrammar())
	assert.Zero(t, n, "rule is limited to C and C++")

	out, n := table.Apply(irtest.MustParse(t, strings.ReplaceAll(stmt, "decimal_integer_literal", "number_literal")), c.NewGrammar())
	assert.Equal(t, 1, n)
	assert.Equal(t, "n <<=1;", ir.Generate(out))
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(strings.NewReader("patterns:\n  - name: a\n    mtach: x\n"))
	assert.ErrorContains(t, err, "failed to parse patterns")

	_, err = LoadFile("testdata/missing.yaml")
	assert.ErrorContains(t, err, "failed to read patterns file")

	table, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, table.Len())
}

func TestApply_EmptyTable(t *testing.T) {
	tree := irtest.MustParse(t, `(expression_statement identifier:x ";")`)
	out, n := Empty().Apply(tree, c.NewGrammar())
	assert.Same(t, tree, out)
	assert.Zero(t, n)

	var nilTable *Table
	out, n = nilTable.Apply(tree, c.NewGrammar())
	assert.Same(t, tree, out)
	assert.Zero(t, n)
}
