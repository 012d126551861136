package ir

import "strings"

// Generate renders n back to source text. Leaves are emitted verbatim;
// a single space follows any identifier-like word, "#" and "return", which
// keeps adjacent words apart. Internal nodes add no separators.
func Generate(n Node) string {
	var b strings.Builder
	generate(&b, n)
	return b.String()
}

func generate(b *strings.Builder, n Node) {
	switch v := n.(type) {
	case *Leaf:
		b.WriteString(v.Text)
		if needsSpace(v.Text) {
			b.WriteByte(' ')
		}
	case *Internal:
		for _, c := range v.Children {
			generate(b, c)
		}
	}
}

func needsSpace(text string) bool {
	if text == "#" || text == "return" {
		return true
	}
	return isWord(text)
}

// isWord matches [A-Za-z_][A-Za-z0-9_]*.
func isWord(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
