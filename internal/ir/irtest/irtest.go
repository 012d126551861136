// Package irtest builds IR trees from a compact notation for tests.
//
//	(kind child ...)   internal node
//	"tok"              anonymous token leaf (kind equals text)
//	kind:text          named leaf
//	kind:"some text"   named leaf with spaces or parentheses
//	kind:""            empty leaf (comment placeholder)
package irtest

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/efebarandurmaz/refinery/internal/ir"
)

// Parse reads one tree in the notation above.
func Parse(src string) (ir.Node, error) {
	p := &parser{src: src}
	n, err := p.node()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("irtest: trailing input at %d", p.pos)
	}
	return n, nil
}

// MustParse is Parse for test fixtures.
func MustParse(t testing.TB, src string) ir.Node {
	t.Helper()
	n, err := Parse(src)
	if err != nil {
		t.Fatalf("irtest: %v", err)
	}
	return n
}

type parser struct {
	src string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && strings.ContainsRune(" \t\r\n", rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) node() (ir.Node, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("irtest: unexpected end of input")
	}
	switch p.src[p.pos] {
	case '(':
		p.pos++
		p.skipSpace()
		kind := p.atom()
		if kind == "" {
			return nil, fmt.Errorf("irtest: missing kind at %d", p.pos)
		}
		n := &ir.Internal{Type: kind}
		for {
			p.skipSpace()
			if p.pos >= len(p.src) {
				return nil, fmt.Errorf("irtest: unclosed %q", kind)
			}
			if p.src[p.pos] == ')' {
				p.pos++
				return n, nil
			}
			child, err := p.node()
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		}
	case '"':
		text, err := p.quoted()
		if err != nil {
			return nil, err
		}
		return &ir.Leaf{Type: text, Text: text}, nil
	}

	kind := p.atom()
	if kind == "" || p.pos >= len(p.src) || p.src[p.pos] != ':' {
		return nil, fmt.Errorf("irtest: expected kind:text at %d", p.pos)
	}
	p.pos++
	if p.pos < len(p.src) && p.src[p.pos] == '"' {
		text, err := p.quoted()
		if err != nil {
			return nil, err
		}
		return &ir.Leaf{Type: kind, Text: text}, nil
	}
	return &ir.Leaf{Type: kind, Text: p.atom()}, nil
}

func (p *parser) atom() string {
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune(" \t\r\n():\"", rune(p.src[p.pos])) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) quoted() (string, error) {
	start := p.pos
	p.pos++
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\\':
			p.pos += 2
			continue
		case '"':
			p.pos++
			return strconv.Unquote(p.src[start:p.pos])
		}
		p.pos++
	}
	return "", fmt.Errorf("irtest: unterminated string at %d", start)
}
