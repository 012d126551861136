package grammar

import (
	"strings"

	"github.com/efebarandurmaz/refinery/internal/ir"
)

// Assign is a simple assignment or initializer: Name Op Value.
type Assign struct {
	Name  string
	Op    string
	Value ir.Node
	// ValueIndex is the position of Value in the parent's Children.
	ValueIndex int
}

// Assignment reads an assignment expression or an initializing declarator.
// The target must be a plain identifier.
func (g *Grammar) Assignment(n ir.Node) (Assign, bool) {
	in, ok := n.(*ir.Internal)
	if !ok || !(g.AssignmentKinds.Has(in.Type) || g.DeclaratorKinds.Has(in.Type)) {
		return Assign{}, false
	}
	parts, idx := g.nonComment(in)
	if len(parts) != 3 || !IsToken(parts[1]) {
		return Assign{}, false
	}
	name, ok := g.Identifier(parts[0])
	if !ok {
		return Assign{}, false
	}
	return Assign{
		Name:       name,
		Op:         parts[1].(*ir.Leaf).Text,
		Value:      parts[2],
		ValueIndex: idx[2],
	}, true
}

// Cmp is a loop condition of the form Name Op Bound.
type Cmp struct {
	Name  string
	Op    string
	Bound int64
}

// Comparison reads a condition comparing an identifier with an integer literal.
func (g *Grammar) Comparison(n ir.Node) (Cmp, bool) {
	left, op, right, ok := g.Binary(g.Unparen(n))
	if !ok {
		return Cmp{}, false
	}
	name, ok := g.Identifier(left)
	if !ok {
		return Cmp{}, false
	}
	bound, ok := g.Int(right)
	if !ok {
		return Cmp{}, false
	}
	return Cmp{Name: name, Op: op, Bound: bound}, true
}

// Step reads an update of a single variable by a constant amount:
// x++, ++x, x--, --x, x += k, x -= k, x = x + k, x = x - k and x = k + x.
// An expression statement wrapping one of those is accepted too.
func (g *Grammar) Step(n ir.Node) (name string, delta int64, ok bool) {
	n = g.unwrapStatement(n)
	in, isInternal := n.(*ir.Internal)
	if !isInternal {
		return "", 0, false
	}

	if g.UpdateKinds.Has(in.Type) {
		parts, _ := g.nonComment(in)
		if len(parts) != 2 {
			return "", 0, false
		}
		operand, op := parts[0], parts[1]
		if IsToken(operand) {
			operand, op = parts[1], parts[0]
		}
		name, ok := g.Identifier(operand)
		if !ok || !IsToken(op) {
			return "", 0, false
		}
		switch op.(*ir.Leaf).Text {
		case "++":
			return name, 1, true
		case "--":
			return name, -1, true
		}
		return "", 0, false
	}

	a, ok := g.Assignment(in)
	if !ok || !g.AssignmentKinds.Has(in.Type) {
		return "", 0, false
	}
	switch a.Op {
	case "+=", "-=":
		k, ok := g.Int(a.Value)
		if !ok {
			return "", 0, false
		}
		if a.Op == "-=" {
			k = -k
		}
		return a.Name, k, true
	case "=":
		left, op, right, ok := g.Binary(g.Unparen(a.Value))
		if !ok || (op != "+" && op != "-") {
			return "", 0, false
		}
		if v, isVar := g.Identifier(left); isVar && v == a.Name {
			k, ok := g.Int(right)
			if !ok {
				return "", 0, false
			}
			if op == "-" {
				k = -k
			}
			return a.Name, k, true
		}
		if v, isVar := g.Identifier(right); isVar && v == a.Name && op == "+" {
			k, ok := g.Int(left)
			if !ok {
				return "", 0, false
			}
			return a.Name, k, true
		}
	}
	return "", 0, false
}

func (g *Grammar) unwrapStatement(n ir.Node) ir.Node {
	if n == nil || !g.ExpressionStatementKinds.Has(n.Kind()) {
		return n
	}
	sig := g.Significant(n)
	if len(sig) != 1 {
		return n
	}
	return g.Unparen(sig[0])
}

// Loop is the significant structure of a loop statement. Init and Update are
// nil for conditional loops.
type Loop struct {
	Counted   bool
	Init      ir.Node
	Condition ir.Node
	Update    ir.Node
	Body      ir.Node
}

// LoopParts reads a counted loop (init, condition, update, body) or a
// conditional loop (condition, body). Any other shape is rejected.
func (g *Grammar) LoopParts(n ir.Node) (Loop, bool) {
	kind := n.Kind()
	sig := g.Significant(n)
	switch {
	case g.CountedLoopKinds.Has(kind) && len(sig) == 4:
		return Loop{Counted: true, Init: sig[0], Condition: sig[1], Update: sig[2], Body: sig[3]}, true
	case g.ConditionalLoopKinds.Has(kind) && len(sig) == 2:
		return Loop{Condition: sig[0], Body: sig[1]}, true
	}
	return Loop{}, false
}

// Declarator is one name declared by a declaration. Value is nil when the
// declarator has no initializer.
type Declarator struct {
	Name   string
	Value  ir.Node
	Parent *ir.Internal // declarator node holding Value; nil for bare names
	Index  int          // index of Value in Parent.Children
}

// Declarators lists the names a declaration introduces.
func (g *Grammar) Declarators(n ir.Node) []Declarator {
	in, ok := n.(*ir.Internal)
	if !ok || !g.DeclarationKinds.Has(in.Type) {
		return nil
	}
	var out []Declarator
	for _, c := range in.Children {
		if name, ok := g.Identifier(c); ok {
			out = append(out, Declarator{Name: name})
			continue
		}
		if !g.DeclaratorKinds.Has(c.Kind()) {
			continue
		}
		if a, ok := g.Assignment(c); ok && a.Op == "=" {
			out = append(out, Declarator{Name: a.Name, Value: a.Value, Parent: c.(*ir.Internal), Index: a.ValueIndex})
			continue
		}
		// Declarator without an initializer, e.g. Java "int x;". Names
		// right of "=" belong to the initializer.
		ci, ok := c.(*ir.Internal)
		if !ok {
			continue
		}
		parts, _ := g.nonComment(ci)
		for _, part := range parts {
			if IsToken(part) && part.(*ir.Leaf).Text == "=" {
				break
			}
			if name, ok := g.Identifier(part); ok {
				out = append(out, Declarator{Name: name})
				break
			}
		}
	}
	return out
}

// DeclaredClass returns the arithmetic class of a declaration's type.
func (g *Grammar) DeclaredClass(n ir.Node) NumClass {
	for _, c := range g.Significant(n) {
		if g.TypeKinds.Has(c.Kind()) {
			return g.ClassOf(TokenText(c))
		}
	}
	return NotNumeric
}

// IsConst reports a declaration carrying a const qualifier outside its declarators.
func (g *Grammar) IsConst(n ir.Node) bool { return g.hasQualifier(n, g.ConstQualifiers) }

// IsUntracked reports a declaration whose storage must not be propagated,
// such as a static local.
func (g *Grammar) IsUntracked(n ir.Node) bool { return g.hasQualifier(n, g.UntrackedQualifiers) }

func (g *Grammar) hasQualifier(n ir.Node, qualifiers Set) bool {
	in, ok := n.(*ir.Internal)
	if !ok || len(qualifiers) == 0 {
		return false
	}
	for _, c := range in.Children {
		if g.DeclaratorKinds.Has(c.Kind()) {
			continue
		}
		found := false
		ir.Walk(c, func(x ir.Node) bool {
			if l, ok := x.(*ir.Leaf); ok && qualifiers.Has(l.Text) {
				found = true
			}
			return !found
		})
		if found {
			return true
		}
	}
	return false
}

// WrittenNames returns every identifier n may write: assignment and update
// targets, declared names, address-of operands, loop variables of range
// loops and, where calls may write their arguments, identifier arguments.
func (g *Grammar) WrittenNames(n ir.Node) []string {
	seen := map[string]bool{}
	var out []string
	add := func(x ir.Node) {
		if name, ok := g.Identifier(g.Unparen(x)); ok && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	ir.Walk(n, func(x ir.Node) bool {
		in, ok := x.(*ir.Internal)
		if !ok {
			return false
		}
		parts, _ := g.nonComment(in)
		switch {
		case g.AssignmentKinds.Has(in.Type) || g.DeclaratorKinds.Has(in.Type):
			if len(parts) > 0 {
				add(parts[0])
			}
			if len(parts) == 3 && g.ReferenceKinds.Has(parts[0].Kind()) {
				add(parts[2])
			}
		case g.UpdateKinds.Has(in.Type):
			for _, p := range parts {
				add(p)
			}
		case g.AddressOfKinds.Has(in.Type):
			if len(parts) == 2 && IsToken(parts[0]) && parts[0].(*ir.Leaf).Text == "&" {
				add(parts[1])
			}
		case g.DeclarationKinds.Has(in.Type) || g.LoopKinds.Has(in.Type):
			for _, p := range parts {
				add(p)
			}
		case g.CallsMayWrite && g.ArgumentKinds.Has(in.Type):
			for _, p := range parts {
				add(p)
			}
		}
		return true
	})
	return out
}

// EscapedNames returns the identifiers under n that gain an alias: the
// operand of an address-of and the initializer bound by a reference
// declarator. Writes through the alias are invisible to WrittenNames.
func (g *Grammar) EscapedNames(n ir.Node) []string {
	seen := map[string]bool{}
	var out []string
	add := func(x ir.Node) {
		if name, ok := g.Identifier(g.Unparen(x)); ok && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	ir.Walk(n, func(x ir.Node) bool {
		in, ok := x.(*ir.Internal)
		if !ok {
			return false
		}
		parts, _ := g.nonComment(in)
		switch {
		case g.DeclaratorKinds.Has(in.Type):
			if len(parts) == 3 && g.ReferenceKinds.Has(parts[0].Kind()) {
				add(parts[2])
			}
		case g.AddressOfKinds.Has(in.Type):
			if len(parts) == 2 && IsToken(parts[0]) && parts[0].(*ir.Leaf).Text == "&" {
				add(parts[1])
			}
		}
		return true
	})
	return out
}

// Contains reports whether any node under n has a kind in kinds.
func Contains(n ir.Node, kinds Set) bool {
	found := false
	ir.Walk(n, func(x ir.Node) bool {
		if kinds.Has(x.Kind()) {
			found = true
		}
		return !found
	})
	return found
}

// TokenText joins the leaf texts under n with single spaces.
func TokenText(n ir.Node) string {
	var parts []string
	ir.Walk(n, func(x ir.Node) bool {
		if l, ok := x.(*ir.Leaf); ok && l.Text != "" {
			parts = append(parts, l.Text)
		}
		return true
	})
	return strings.Join(parts, " ")
}

// Block builds a block node wrapping children in the grammar's delimiters.
func (g *Grammar) Block(children []ir.Node) *ir.Internal {
	all := make([]ir.Node, 0, len(children)+2)
	all = append(all, &ir.Leaf{Type: g.BlockOpen, Text: g.BlockOpen})
	all = append(all, children...)
	all = append(all, &ir.Leaf{Type: g.BlockClose, Text: g.BlockClose})
	return &ir.Internal{Type: g.BlockKind, Children: all}
}

// AssignStatement builds the statement "name = value;".
func (g *Grammar) AssignStatement(name string, value ir.Node) *ir.Internal {
	assign := &ir.Internal{Type: g.AssignmentKind, Children: []ir.Node{
		&ir.Leaf{Type: g.IdentifierKind, Text: name},
		&ir.Leaf{Type: "=", Text: "="},
		value,
	}}
	return &ir.Internal{Type: g.ExpressionStatementKind, Children: []ir.Node{
		assign,
		&ir.Leaf{Type: g.StatementTerminator, Text: g.StatementTerminator},
	}}
}
