package patterns

import "strings"

// operators are matched longest first.
var operators = []string{
	">>>=", "<<=", ">>=", ">>>",
	"++", "--", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=",
	"==", "!=", "<=", ">=", "&&", "||", "<<", ">>", "->", "::",
}

// Tokenize splits statement text into the tokens a syntax tree would hold
// as leaves: words (identifiers, keywords, numbers, $metavariables) and
// operators. Whitespace only separates.
func Tokenize(s string) []string {
	var out []string
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isWordByte(c) || c == '$':
			j := i + 1
			for j < len(s) && (isWordByte(s[j]) || (s[j] == '.' && isDigit(s[i]))) {
				j++
			}
			out = append(out, s[i:j])
			i = j
		default:
			op := s[i : i+1]
			for _, candidate := range operators {
				if strings.HasPrefix(s[i:], candidate) {
					op = candidate
					break
				}
			}
			out = append(out, op)
			i += len(op)
		}
	}
	return out
}

func isWordByte(c byte) bool {
	return c == '_' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
