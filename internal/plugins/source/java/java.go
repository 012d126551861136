// Package java describes the Java grammar produced by tree-sitter-java.
package java

import (
	"github.com/efebarandurmaz/refinery/internal/grammar"
	"github.com/efebarandurmaz/refinery/internal/ir"
)

// Plugin implements plugins.LanguagePlugin for Java.
type Plugin struct {
	g *grammar.Grammar
}

func New() *Plugin { return &Plugin{g: NewGrammar()} }

func (p *Plugin) Language() string          { return "java" }
func (p *Plugin) Grammar() *grammar.Grammar { return p.g }
func (p *Plugin) FileExtensions() []string  { return []string{".java"} }

var numberKinds = []string{
	"decimal_integer_literal", "hex_integer_literal", "octal_integer_literal",
	"binary_integer_literal", "decimal_floating_point_literal",
}

// NewGrammar returns the Java grammar.
func NewGrammar() *grammar.Grammar {
	leaves := append([]string{
		"import_declaration", "package_declaration",
		"identifier", "type_identifier", "scoped_identifier",
		"integral_type", "floating_point_type", "boolean_type", "void_type",
		"formal_parameters", "string_literal", "character_literal", "text_block",
	}, numberKinds...)

	return &grammar.Grammar{
		Name: "java",

		LeafKinds:    grammar.NewSet(leaves...),
		CommentKinds: grammar.NewSet("line_comment", "block_comment", "comment"),

		IdentifierKind: "identifier",
		NumberKinds:    grammar.NewSet(numberKinds...),
		IntegerKind:    "decimal_integer_literal",
		FloatKind:      "decimal_floating_point_literal",
		TrueLiteral:    ir.Leaf{Type: "true", Text: "true"},
		FalseLiteral:   ir.Leaf{Type: "false", Text: "false"},
		IntBits:        32,

		BinaryKinds:        grammar.NewSet("binary_expression"),
		ParenthesizedKinds: grammar.NewSet("parenthesized_expression"),
		ParenthesizedKind:  "parenthesized_expression",
		AssignmentKinds:    grammar.NewSet("assignment_expression"),
		UpdateKinds:        grammar.NewSet("update_expression"),
		CallKinds:          grammar.NewSet("method_invocation", "object_creation_expression"),
		ArgumentKinds:      grammar.NewSet("argument_list"),
		MemberTokens:       grammar.NewSet(".", "::"),

		DeclarationKinds:         grammar.NewSet("local_variable_declaration", "field_declaration"),
		DeclaratorKinds:          grammar.NewSet("variable_declarator"),
		TypeKinds:                grammar.NewSet("integral_type", "floating_point_type"),
		ConstQualifiers:          grammar.NewSet("final"),
		UntrackedQualifiers:      grammar.NewSet("volatile"),
		IntegralTypes:            grammar.NewSet("int", "short", "byte"),
		FloatTypes:               grammar.NewSet("double"),
		ExpressionStatementKinds: grammar.NewSet("expression_statement"),
		ReturnKinds:              grammar.NewSet("return_statement"),
		TransferKinds: grammar.NewSet(
			"return_statement", "break_statement", "continue_statement", "throw_statement", "yield_statement",
		),
		LabelKinds:       grammar.NewSet("labeled_statement", "switch_label"),
		JumpKinds:        grammar.NewSet("break_statement", "continue_statement", "labeled_statement", "yield_statement"),
		ConditionalKinds: grammar.NewSet("if_statement", "switch_expression"),

		SequenceKinds: grammar.NewSet("block", "constructor_body", "switch_block_statement_group"),
		ScopeKinds: grammar.NewSet(
			"block", "constructor_body", "if_statement", "switch_block", "switch_block_statement_group",
			"for_statement", "enhanced_for_statement", "while_statement", "do_statement",
			"try_statement", "catch_clause", "class_body", "interface_body", "enum_body",
		),
		RootKinds:            grammar.NewSet("program", "class_body", "interface_body", "enum_body"),
		FunctionKinds:        grammar.NewSet("method_declaration", "constructor_declaration", "lambda_expression"),
		CountedLoopKinds:     grammar.NewSet("for_statement"),
		ConditionalLoopKinds: grammar.NewSet("while_statement"),
		LoopKinds:            grammar.NewSet("for_statement", "enhanced_for_statement", "while_statement", "do_statement"),

		BlockKind:               "block",
		BlockOpen:               "{",
		BlockClose:              "}",
		ExpressionStatementKind: "expression_statement",
		AssignmentKind:          "assignment_expression",
		StatementTerminator:     ";",
	}
}
