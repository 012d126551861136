package grammar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/refinery/internal/grammar"
	"github.com/efebarandurmaz/refinery/internal/ir"
	"github.com/efebarandurmaz/refinery/internal/ir/irtest"
	"github.com/efebarandurmaz/refinery/internal/plugins/source/c"
	"github.com/efebarandurmaz/refinery/internal/plugins/source/cpp"
	"github.com/efebarandurmaz/refinery/internal/plugins/source/java"
)

const countedLoop = `(for_statement "for" "("
	(declaration primitive_type:int (init_declarator identifier:i "=" number_literal:0) ";")
	(binary_expression identifier:i "<" number_literal:3) ";"
	(update_expression identifier:i "++") ")"
	(compound_statement "{"
		(expression_statement (assignment_expression identifier:sum "=" (binary_expression identifier:sum "+" identifier:i)) ";")
	"}"))`

func TestSignificant(t *testing.T) {
	g := c.NewGrammar()
	n := irtest.MustParse(t, `(compound_statement "{" comment:"" (expression_statement identifier:x ";") "}")`)
	sig := g.Significant(n)
	require.Len(t, sig, 1)
	assert.Equal(t, "expression_statement", sig[0].Kind())

	assert.Nil(t, g.Significant(&ir.Leaf{Type: "identifier", Text: "x"}))
}

func TestNumberAndInt(t *testing.T) {
	g := c.NewGrammar()

	text, ok := g.Number(irtest.MustParse(t, `(parenthesized_expression "(" number_literal:42 ")")`))
	require.True(t, ok)
	assert.Equal(t, "42", text)

	v, ok := g.Int(&ir.Leaf{Type: "number_literal", Text: "0x10"})
	require.True(t, ok)
	assert.Equal(t, int64(16), v)

	_, ok = g.Int(&ir.Leaf{Type: "number_literal", Text: "1.5"})
	assert.False(t, ok)
	_, ok = g.Number(&ir.Leaf{Type: "identifier", Text: "x"})
	assert.False(t, ok)
}

func TestBinary(t *testing.T) {
	g := c.NewGrammar()
	left, op, right, ok := g.Binary(irtest.MustParse(t, `(binary_expression number_literal:2 "+" comment:"" number_literal:3)`))
	require.True(t, ok)
	assert.Equal(t, "+", op)
	assert.Equal(t, "2", left.(*ir.Leaf).Text)
	assert.Equal(t, "3", right.(*ir.Leaf).Text)

	_, _, _, ok = g.Binary(irtest.MustParse(t, `(call_expression identifier:f argument_list:"()")`))
	assert.False(t, ok)
}

func TestAssignment(t *testing.T) {
	g := c.NewGrammar()

	a, ok := g.Assignment(irtest.MustParse(t, `(assignment_expression identifier:x "+=" number_literal:2)`))
	require.True(t, ok)
	assert.Equal(t, "x", a.Name)
	assert.Equal(t, "+=", a.Op)
	assert.Equal(t, 2, a.ValueIndex)

	a, ok = g.Assignment(irtest.MustParse(t, `(init_declarator identifier:y "=" number_literal:7)`))
	require.True(t, ok)
	assert.Equal(t, "y", a.Name)

	_, ok = g.Assignment(irtest.MustParse(t, `(assignment_expression (subscript_expression identifier:a "[" number_literal:0 "]") "=" number_literal:1)`))
	assert.False(t, ok)
}

func TestComparison(t *testing.T) {
	g := cpp.NewGrammar()
	cmp, ok := g.Comparison(irtest.MustParse(t, `(condition_clause "(" (binary_expression identifier:n "<=" number_literal:10) ")")`))
	require.True(t, ok)
	assert.Equal(t, grammar.Cmp{Name: "n", Op: "<=", Bound: 10}, cmp)

	_, ok = g.Comparison(irtest.MustParse(t, `(binary_expression identifier:n "<" identifier:m)`))
	assert.False(t, ok)
}

func TestStep(t *testing.T) {
	g := c.NewGrammar()
	cases := []struct {
		src   string
		name  string
		delta int64
	}{
		{`(update_expression identifier:i "++")`, "i", 1},
		{`(update_expression "--" identifier:i)`, "i", -1},
		{`(assignment_expression identifier:i "+=" number_literal:3)`, "i", 3},
		{`(assignment_expression identifier:i "-=" number_literal:2)`, "i", -2},
		{`(assignment_expression identifier:i "=" (binary_expression identifier:i "+" number_literal:4))`, "i", 4},
		{`(assignment_expression identifier:i "=" (binary_expression identifier:i "-" number_literal:4))`, "i", -4},
		{`(assignment_expression identifier:i "=" (binary_expression number_literal:5 "+" identifier:i))`, "i", 5},
		{`(expression_statement (update_expression identifier:k "++") ";")`, "k", 1},
	}
	for _, tc := range cases {
		name, delta, ok := g.Step(irtest.MustParse(t, tc.src))
		require.True(t, ok, tc.src)
		assert.Equal(t, tc.name, name, tc.src)
		assert.Equal(t, tc.delta, delta, tc.src)
	}

	rejected := []string{
		`(assignment_expression identifier:i "*=" number_literal:2)`,
		`(assignment_expression identifier:i "=" (binary_expression number_literal:5 "-" identifier:i))`,
		`(assignment_expression identifier:i "=" (binary_expression identifier:j "+" number_literal:1))`,
		`(assignment_expression identifier:i "+=" identifier:k)`,
		`(call_expression identifier:next argument_list:"(i)")`,
	}
	for _, src := range rejected {
		_, _, ok := g.Step(irtest.MustParse(t, src))
		assert.False(t, ok, src)
	}
}

func TestLoopParts(t *testing.T) {
	g := c.NewGrammar()
	loop, ok := g.LoopParts(irtest.MustParse(t, countedLoop))
	require.True(t, ok)
	assert.True(t, loop.Counted)
	assert.Equal(t, "declaration", loop.Init.Kind())
	assert.Equal(t, "binary_expression", loop.Condition.Kind())
	assert.Equal(t, "update_expression", loop.Update.Kind())
	assert.Equal(t, "compound_statement", loop.Body.Kind())

	loop, ok = g.LoopParts(irtest.MustParse(t, `(while_statement "while"
		(parenthesized_expression "(" (binary_expression identifier:i "<" number_literal:3) ")")
		(compound_statement "{" "}"))`))
	require.True(t, ok)
	assert.False(t, loop.Counted)
	assert.Nil(t, loop.Init)

	_, ok = g.LoopParts(irtest.MustParse(t, `(for_statement "for" "(" ";" ";" ")" (compound_statement "{" "}"))`))
	assert.False(t, ok)
}

func TestDeclarators(t *testing.T) {
	g := c.NewGrammar()
	decl := irtest.MustParse(t, `(declaration (type_qualifier "const") primitive_type:int
		(init_declarator identifier:a "=" number_literal:1) "," identifier:b ";")`)

	ds := g.Declarators(decl)
	require.Len(t, ds, 2)
	assert.Equal(t, "a", ds[0].Name)
	assert.Equal(t, "1", ds[0].Value.(*ir.Leaf).Text)
	assert.Equal(t, 2, ds[0].Index)
	assert.Equal(t, "b", ds[1].Name)
	assert.Nil(t, ds[1].Value)

	assert.True(t, g.IsConst(decl))
	assert.False(t, g.IsUntracked(decl))
	assert.Equal(t, grammar.Integer, g.DeclaredClass(decl))
}

func TestDeclarators_Java(t *testing.T) {
	g := java.NewGrammar()
	decl := irtest.MustParse(t, `(local_variable_declaration floating_point_type:double
		(variable_declarator identifier:d "=" decimal_floating_point_literal:1.5) ","
		(variable_declarator identifier:e) ";")`)

	ds := g.Declarators(decl)
	require.Len(t, ds, 2)
	assert.Equal(t, "d", ds[0].Name)
	assert.Equal(t, "e", ds[1].Name)
	assert.Nil(t, ds[1].Value)
	assert.Equal(t, grammar.Float, g.DeclaredClass(decl))
	assert.False(t, g.IsConst(decl))

	field := irtest.MustParse(t, `(field_declaration (modifiers "static" "final") integral_type:int
		(variable_declarator identifier:N "=" decimal_integer_literal:3) ";")`)
	assert.True(t, g.IsConst(field))
}

func TestIsUntracked(t *testing.T) {
	g := c.NewGrammar()
	decl := irtest.MustParse(t, `(declaration (storage_class_specifier "static") primitive_type:int
		(init_declarator identifier:calls "=" number_literal:0) ";")`)
	assert.True(t, g.IsUntracked(decl))
	assert.Equal(t, grammar.NotNumeric, g.ClassOf("unsigned int"))
	assert.Equal(t, grammar.NotNumeric, g.ClassOf("long"))
}

func TestWrittenNames(t *testing.T) {
	g := c.NewGrammar()
	assert.ElementsMatch(t, []string{"i", "sum"}, g.WrittenNames(irtest.MustParse(t, countedLoop)))

	call := irtest.MustParse(t, `(expression_statement (call_expression identifier:scanf
		(argument_list "(" string_literal:"\"%d\"" "," (pointer_expression "&" identifier:x) "," identifier:y ")")) ";")`)
	assert.Equal(t, []string{"x"}, g.WrittenNames(call))

	// By-reference parameters make every identifier argument a possible write.
	assert.ElementsMatch(t, []string{"x", "y"}, cpp.NewGrammar().WrittenNames(call))

	ref := irtest.MustParse(t, `(declaration primitive_type:int
		(init_declarator (reference_declarator "&" identifier:r) "=" identifier:x) ";")`)
	assert.Equal(t, []string{"x"}, cpp.NewGrammar().WrittenNames(ref))
}

func TestEscapedNames(t *testing.T) {
	g := cpp.NewGrammar()
	ptr := irtest.MustParse(t, `(declaration primitive_type:int
		(init_declarator (pointer_declarator "*" identifier:p) "=" (pointer_expression "&" identifier:x)) ";")`)
	assert.Equal(t, []string{"x"}, g.EscapedNames(ptr))

	ref := irtest.MustParse(t, `(declaration primitive_type:int
		(init_declarator (reference_declarator "&" identifier:r) "=" identifier:y) ";")`)
	assert.Equal(t, []string{"y"}, g.EscapedNames(ref))

	deref := irtest.MustParse(t, `(expression_statement (assignment_expression
		(pointer_expression "*" identifier:p) "=" number_literal:3) ";")`)
	assert.Empty(t, g.EscapedNames(deref))
	assert.Empty(t, c.NewGrammar().EscapedNames(ref), "C has no reference declarators")
}

func TestDeclarators_ReferenceDoesNotDeclareInitializer(t *testing.T) {
	g := cpp.NewGrammar()
	ref := irtest.MustParse(t, `(declaration primitive_type:int
		(init_declarator (reference_declarator "&" identifier:r) "=" identifier:x) ";")`)
	for _, d := range g.Declarators(ref) {
		assert.NotEqual(t, "x", d.Name)
	}
}

func TestContainsAndTokenText(t *testing.T) {
	n := irtest.MustParse(t, `(compound_statement "{" (break_statement "break" ";") "}")`)
	assert.True(t, grammar.Contains(n, grammar.NewSet("break_statement")))
	assert.False(t, grammar.Contains(n, grammar.NewSet("goto_statement")))

	assert.Equal(t, "long long", grammar.TokenText(irtest.MustParse(t, `(sized_type_specifier "long" "long")`)))
}

func TestSynthesis(t *testing.T) {
	g := c.NewGrammar()
	stmt := g.AssignStatement("i", g.IntLiteral(3))
	assert.Equal(t, "i =3;", ir.Generate(stmt))

	block := g.Block([]ir.Node{stmt})
	assert.Equal(t, "compound_statement", block.Kind())
	assert.Equal(t, "{i =3;}", ir.Generate(block))

	assert.Equal(t, &ir.Leaf{Type: "number_literal", Text: "1"}, g.Bool(true))
	jg := java.NewGrammar()
	assert.Equal(t, &ir.Leaf{Type: "false", Text: "false"}, jg.Bool(false))
}

func TestFitsInt(t *testing.T) {
	g := c.NewGrammar()
	assert.True(t, g.FitsInt(2147483647))
	assert.False(t, g.FitsInt(2147483648))
	assert.True(t, g.FitsInt(-2147483648))
	assert.False(t, g.FitsInt(-2147483649))

	wide := &grammar.Grammar{IntBits: 64}
	assert.True(t, wide.FitsInt(1<<62))
}
