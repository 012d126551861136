package optimize

import "github.com/efebarandurmaz/refinery/internal/grammar"

type binding struct {
	value string
	known bool
	class grammar.NumClass
	// declared marks the level that owns the variable, as opposed to a
	// level that only records a later assignment to it.
	declared bool
	// escaped is set on the owning binding once the variable's address or
	// a reference to it exists; it is never constant again.
	escaped bool
}

type level struct {
	vars map[string]binding
	root bool
}

// Scope is the nested constant table used by propagation. Level 0 is the
// file scope. Lookups walk from the innermost level outward and stop at the
// first level that mentions the name, so an unknown entry hides any stale
// value further out.
type Scope struct {
	levels []level
}

// NewScope returns a scope holding only the file level.
func NewScope() *Scope {
	return &Scope{levels: []level{{vars: map[string]binding{}, root: true}}}
}

// Push opens a nested level. Root levels (file or class bodies) only track
// constants.
func (s *Scope) Push(root bool) {
	s.levels = append(s.levels, level{vars: map[string]binding{}, root: root})
}

// Pop discards the innermost level. The file level is never popped.
func (s *Scope) Pop() {
	if len(s.levels) > 1 {
		s.levels = s.levels[:len(s.levels)-1]
	}
}

// Depth returns the number of open levels.
func (s *Scope) Depth() int { return len(s.levels) }

// Root reports whether the innermost level is a file or class body.
func (s *Scope) Root() bool { return s.levels[len(s.levels)-1].root }

func (s *Scope) current() level { return s.levels[len(s.levels)-1] }

// Declare introduces name at the innermost level with no known value.
func (s *Scope) Declare(name string, class grammar.NumClass) {
	s.current().vars[name] = binding{class: class, declared: true}
}

// DeclareConst introduces name at the innermost level with a known value.
func (s *Scope) DeclareConst(name string, class grammar.NumClass, value string) {
	s.current().vars[name] = binding{value: value, known: true, class: class, declared: true}
}

// owner returns the index of the level that declared name, or -1.
func (s *Scope) owner(name string) int {
	for i := len(s.levels) - 1; i >= 0; i-- {
		if b, ok := s.levels[i].vars[name]; ok && b.declared {
			return i
		}
	}
	return -1
}

// Set records an assignment of a constant. The value becomes visible from
// the innermost level inward; every outer level up to the declaring one
// forgets its value, since the assignment may not have run once this level
// is left. Assignments to undeclared or non-numeric variables are not
// recorded and kill the name instead.
func (s *Scope) Set(name, value string) {
	own := s.owner(name)
	if own < 0 || s.levels[own].vars[name].class == grammar.NotNumeric || s.levels[own].vars[name].escaped {
		s.Kill(name)
		return
	}
	class := s.levels[own].vars[name].class
	s.invalidate(name, own)
	cur := len(s.levels) - 1
	b := s.levels[cur].vars[name]
	b.value, b.known, b.class = value, true, class
	s.levels[cur].vars[name] = b
}

// Kill forgets any value of name at every level from the innermost one to
// the declaring one. Undeclared names are treated as file-level globals.
func (s *Scope) Kill(name string) {
	own := s.owner(name)
	if own < 0 {
		own = 0
	}
	s.invalidate(name, own)
	cur := len(s.levels) - 1
	b := s.levels[cur].vars[name]
	b.value, b.known = "", false
	s.levels[cur].vars[name] = b
}

// Escape kills name and marks it as aliased, so later assignments are no
// longer recorded. The mark lives on the declaring level and goes away
// with it.
func (s *Scope) Escape(name string) {
	s.Kill(name)
	own := s.owner(name)
	if own < 0 {
		return
	}
	b := s.levels[own].vars[name]
	b.escaped = true
	s.levels[own].vars[name] = b
}

// Escaped reports whether name has been aliased.
func (s *Scope) Escaped(name string) bool {
	own := s.owner(name)
	return own >= 0 && s.levels[own].vars[name].escaped
}

func (s *Scope) invalidate(name string, own int) {
	for i := len(s.levels) - 1; i >= own; i-- {
		b, ok := s.levels[i].vars[name]
		if !ok && i != own {
			continue
		}
		b.value, b.known = "", false
		if i == own && !ok {
			b.declared = own == 0
		}
		s.levels[i].vars[name] = b
	}
}

// KillAll forgets every value visible from the innermost level.
func (s *Scope) KillAll() {
	seen := map[string]bool{}
	for i := len(s.levels) - 1; i >= 0; i-- {
		for name := range s.levels[i].vars {
			if !seen[name] {
				seen[name] = true
				s.Kill(name)
			}
		}
	}
}

// Value returns the known constant for name.
func (s *Scope) Value(name string) (string, bool) {
	for i := len(s.levels) - 1; i >= 0; i-- {
		if b, ok := s.levels[i].vars[name]; ok {
			return b.value, b.known
		}
	}
	return "", false
}

// Class returns the arithmetic class name was declared with.
func (s *Scope) Class(name string) grammar.NumClass {
	if own := s.owner(name); own >= 0 {
		return s.levels[own].vars[name].class
	}
	return grammar.NotNumeric
}
