// Package grammar describes the syntax kinds of one source language and the
// structural accessors the optimizer uses to read them. A Grammar is data:
// each language plugin fills one in, and the shared passes never branch on a
// language name.
package grammar

import (
	"strconv"
	"strings"

	"github.com/efebarandurmaz/refinery/internal/ir"
)

// Set is a set of syntax kinds or token texts.
type Set map[string]struct{}

// NewSet builds a Set from its members.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Has reports membership. A nil Set is empty.
func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// NumClass is the arithmetic class of a declared variable.
type NumClass int

const (
	NotNumeric NumClass = iota
	Integer
	Float
)

// Grammar is the capability object for one language.
type Grammar struct {
	Name string

	// Builder.
	LeafKinds    Set // kinds always stored as text, even with children
	CommentKinds Set

	// Leaves.
	IdentifierKind string
	NumberKinds    Set
	IntegerKind    string // kind given to folded integer literals
	FloatKind      string // kind given to folded floating-point literals
	TrueLiteral    ir.Leaf
	FalseLiteral   ir.Leaf
	IntBits        int // width of the default integer type

	// Expressions.
	BinaryKinds        Set
	ParenthesizedKinds Set
	ParenthesizedKind  string // wrapper for synthesized negative literals
	AssignmentKinds    Set // target op value
	UpdateKinds        Set // ++ and --
	AddressOfKinds     Set // unary nodes that may take "&" of an operand
	CallKinds          Set
	ArgumentKinds      Set
	CallsMayWrite      bool // calls may write identifier arguments (by-reference parameters)
	MemberTokens       Set  // tokens after which an identifier names a member, not a variable

	// Statements.
	DeclarationKinds         Set
	DeclaratorKinds          Set // name = value inside a declaration
	ReferenceKinds           Set // declarators that alias their initializer
	TypeKinds                Set
	ConstQualifiers          Set
	UntrackedQualifiers      Set // storage that outlives one pass through the code: static, volatile
	IntegralTypes            Set
	FloatTypes               Set
	ExpressionStatementKinds Set
	ReturnKinds              Set
	TransferKinds            Set // unconditional control transfer, returns included
	LabelKinds               Set
	JumpKinds                Set // kinds that make a loop body unsafe to copy
	ConditionalKinds         Set

	// Structure.
	SequenceKinds        Set // statement sequences scanned by dead code elimination
	ScopeKinds           Set // nodes that open a constant scope
	RootKinds            Set // file or class scope: only constants are tracked there
	FunctionKinds        Set
	CountedLoopKinds     Set
	ConditionalLoopKinds Set
	LoopKinds            Set // every loop, including shapes that never unroll

	// Synthesis.
	BlockKind               string
	BlockOpen, BlockClose   string
	ExpressionStatementKind string
	AssignmentKind          string
	StatementTerminator     string
}

// StoreAsText implements ir.Classifier.
func (g *Grammar) StoreAsText(kind string) bool { return g.LeafKinds.Has(kind) }

// IsComment implements ir.Classifier.
func (g *Grammar) IsComment(kind string) bool { return g.CommentKinds.Has(kind) }

// IsToken reports an anonymous token leaf: its kind is its own text.
func IsToken(n ir.Node) bool {
	l, ok := n.(*ir.Leaf)
	return ok && l.Type == l.Text && l.Text != ""
}

// Significant returns the children of n that are neither tokens nor comments.
func (g *Grammar) Significant(n ir.Node) []ir.Node {
	in, ok := n.(*ir.Internal)
	if !ok {
		return nil
	}
	out := make([]ir.Node, 0, len(in.Children))
	for _, c := range in.Children {
		if IsToken(c) || g.CommentKinds.Has(c.Kind()) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// nonComment returns the children of n with comments removed, along with
// their indexes in n.Children.
func (g *Grammar) nonComment(n *ir.Internal) ([]ir.Node, []int) {
	nodes := make([]ir.Node, 0, len(n.Children))
	idx := make([]int, 0, len(n.Children))
	for i, c := range n.Children {
		if g.CommentKinds.Has(c.Kind()) {
			continue
		}
		nodes = append(nodes, c)
		idx = append(idx, i)
	}
	return nodes, idx
}

// Unparen strips parenthesized wrappers that hold exactly one significant child.
func (g *Grammar) Unparen(n ir.Node) ir.Node {
	for n != nil && g.ParenthesizedKinds.Has(n.Kind()) {
		sig := g.Significant(n)
		if len(sig) != 1 {
			return n
		}
		n = sig[0]
	}
	return n
}

// Identifier returns the name of an identifier leaf.
func (g *Grammar) Identifier(n ir.Node) (string, bool) {
	l, ok := n.(*ir.Leaf)
	if !ok || l.Type != g.IdentifierKind {
		return "", false
	}
	return l.Text, true
}

// Number returns the text of a numeric literal, looking through parentheses.
func (g *Grammar) Number(n ir.Node) (string, bool) {
	l, ok := g.Unparen(n).(*ir.Leaf)
	if !ok || !g.NumberKinds.Has(l.Type) {
		return "", false
	}
	return l.Text, true
}

// Int returns the value of an integer literal.
func (g *Grammar) Int(n ir.Node) (int64, bool) {
	text, ok := g.Number(n)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Binary splits a binary expression into its operands and operator token.
func (g *Grammar) Binary(n ir.Node) (left ir.Node, op string, right ir.Node, ok bool) {
	in, isInternal := n.(*ir.Internal)
	if !isInternal || !g.BinaryKinds.Has(in.Type) {
		return nil, "", nil, false
	}
	parts, _ := g.nonComment(in)
	if len(parts) != 3 || !IsToken(parts[1]) {
		return nil, "", nil, false
	}
	return parts[0], parts[1].(*ir.Leaf).Text, parts[2], true
}

// Bool returns the literal leaf a comparison result folds to.
func (g *Grammar) Bool(b bool) *ir.Leaf {
	if b {
		return &ir.Leaf{Type: g.TrueLiteral.Type, Text: g.TrueLiteral.Text}
	}
	return &ir.Leaf{Type: g.FalseLiteral.Type, Text: g.FalseLiteral.Text}
}

// IntLiteral returns an integer literal.
func (g *Grammar) IntLiteral(v int64) ir.Node {
	return g.NumberLiteral(strconv.FormatInt(v, 10))
}

// NumberLiteral returns a literal for a decimal or floating-point text.
// Negative values are parenthesized so they cannot merge with a preceding
// operator when the tree is regenerated.
func (g *Grammar) NumberLiteral(text string) ir.Node {
	kind := g.IntegerKind
	if n, ok := ParseNumber(text); ok && n.Float {
		kind = g.FloatKind
	}
	leaf := &ir.Leaf{Type: kind, Text: text}
	if !strings.HasPrefix(text, "-") || g.ParenthesizedKind == "" {
		return leaf
	}
	return &ir.Internal{Type: g.ParenthesizedKind, Children: []ir.Node{
		&ir.Leaf{Type: "(", Text: "("},
		leaf,
		&ir.Leaf{Type: ")", Text: ")"},
	}}
}

// FitsInt reports whether v is representable in the default integer type.
func (g *Grammar) FitsInt(v int64) bool {
	bits := g.IntBits
	if bits <= 0 || bits >= 64 {
		return true
	}
	limit := int64(1) << (bits - 1)
	return v >= -limit && v < limit
}

// ClassOf maps a declared type's text to its arithmetic class.
func (g *Grammar) ClassOf(typeText string) NumClass {
	switch {
	case g.IntegralTypes.Has(typeText):
		return Integer
	case g.FloatTypes.Has(typeText):
		return Float
	}
	return NotNumeric
}
