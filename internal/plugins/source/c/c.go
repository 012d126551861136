// Package c describes the C grammar produced by tree-sitter-c.
package c

import (
	"github.com/efebarandurmaz/refinery/internal/grammar"
	"github.com/efebarandurmaz/refinery/internal/ir"
)

// Plugin implements plugins.LanguagePlugin for C.
type Plugin struct {
	g *grammar.Grammar
}

func New() *Plugin { return &Plugin{g: NewGrammar()} }

func (p *Plugin) Language() string          { return "c" }
func (p *Plugin) Grammar() *grammar.Grammar { return p.g }
func (p *Plugin) FileExtensions() []string  { return []string{".c", ".h"} }

// NewGrammar returns a fresh C grammar. The C++ plugin extends it.
func NewGrammar() *grammar.Grammar {
	return &grammar.Grammar{
		Name: "c",

		LeafKinds: grammar.NewSet(
			"preproc_include", "preproc_def", "preproc_function_def", "preproc_call",
			"preproc_if", "preproc_ifdef",
			"primitive_type", "function_declarator", "identifier", "parameter_list",
			"number_literal", "string_literal", "char_literal", "system_lib_string",
		),
		CommentKinds: grammar.NewSet("comment"),

		IdentifierKind: "identifier",
		NumberKinds:    grammar.NewSet("number_literal"),
		IntegerKind:    "number_literal",
		FloatKind:      "number_literal",
		TrueLiteral:    ir.Leaf{Type: "number_literal", Text: "1"},
		FalseLiteral:   ir.Leaf{Type: "number_literal", Text: "0"},
		IntBits:        32,

		BinaryKinds:        grammar.NewSet("binary_expression"),
		ParenthesizedKinds: grammar.NewSet("parenthesized_expression"),
		ParenthesizedKind:  "parenthesized_expression",
		AssignmentKinds:    grammar.NewSet("assignment_expression"),
		UpdateKinds:        grammar.NewSet("update_expression"),
		AddressOfKinds:     grammar.NewSet("pointer_expression"),
		CallKinds:          grammar.NewSet("call_expression"),
		ArgumentKinds:      grammar.NewSet("argument_list"),
		MemberTokens:       grammar.NewSet(".", "->"),

		DeclarationKinds:         grammar.NewSet("declaration"),
		DeclaratorKinds:          grammar.NewSet("init_declarator"),
		TypeKinds:                grammar.NewSet("primitive_type", "sized_type_specifier"),
		ConstQualifiers:          grammar.NewSet("const"),
		UntrackedQualifiers:      grammar.NewSet("static", "volatile", "extern"),
		IntegralTypes:            grammar.NewSet("int", "short", "short int", "signed", "signed int"),
		FloatTypes:               grammar.NewSet("double"),
		ExpressionStatementKinds: grammar.NewSet("expression_statement"),
		ReturnKinds:              grammar.NewSet("return_statement"),
		TransferKinds:            grammar.NewSet("return_statement", "break_statement", "continue_statement", "goto_statement"),
		LabelKinds:               grammar.NewSet("labeled_statement", "case_statement"),
		JumpKinds:                grammar.NewSet("break_statement", "continue_statement", "goto_statement", "labeled_statement"),
		ConditionalKinds:         grammar.NewSet("if_statement", "switch_statement"),

		SequenceKinds: grammar.NewSet("translation_unit", "compound_statement", "case_statement"),
		ScopeKinds: grammar.NewSet(
			"compound_statement", "if_statement", "else_clause", "switch_statement", "case_statement",
			"for_statement", "while_statement", "do_statement",
		),
		RootKinds:            grammar.NewSet("translation_unit"),
		FunctionKinds:        grammar.NewSet("function_definition"),
		CountedLoopKinds:     grammar.NewSet("for_statement"),
		ConditionalLoopKinds: grammar.NewSet("while_statement"),
		LoopKinds:            grammar.NewSet("for_statement", "while_statement", "do_statement"),

		BlockKind:               "compound_statement",
		BlockOpen:               "{",
		BlockClose:              "}",
		ExpressionStatementKind: "expression_statement",
		AssignmentKind:          "assignment_expression",
		StatementTerminator:     ";",
	}
}
