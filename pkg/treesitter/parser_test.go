//go:build cgo

package treesitter_test

import (
	"context"
	"testing"

	"github.com/efebarandurmaz/refinery/pkg/treesitter"
	_ "github.com/efebarandurmaz/refinery/pkg/treesitter/languages/c"
	_ "github.com/efebarandurmaz/refinery/pkg/treesitter/languages/java"
)

func TestParser_C(t *testing.T) {
	parser, err := treesitter.NewParser("c")
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	defer parser.Close()

	source := []byte("int main(void) { return 0; }")
	root, err := parser.Parse(context.Background(), source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if root.Type() != "translation_unit" {
		t.Errorf("expected translation_unit, got %s", root.Type())
	}
	if root.HasError() {
		t.Error("expected no syntax errors")
	}
	if root.Text(source) != string(source) {
		t.Errorf("root text mismatch: %q", root.Text(source))
	}
	if root.ChildCount() != 1 {
		t.Fatalf("expected 1 child, got %d", root.ChildCount())
	}
	if got := root.Child(0).Type(); got != "function_definition" {
		t.Errorf("expected function_definition, got %s", got)
	}
}

func TestParser_SyntaxError(t *testing.T) {
	parser, err := treesitter.NewParser("c")
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	defer parser.Close()

	root, err := parser.Parse(context.Background(), []byte("int main( { return"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !root.HasError() {
		t.Error("expected HasError for malformed input")
	}
}

func TestParser_Java(t *testing.T) {
	parser, err := treesitter.NewParser("java")
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	defer parser.Close()

	root, err := parser.Parse(context.Background(), []byte("class A { int f() { return 1; } }"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if root.Type() != "program" {
		t.Errorf("expected program, got %s", root.Type())
	}
}

func TestLanguages_Registered(t *testing.T) {
	langs := treesitter.Languages()
	want := map[string]bool{"c": false, "java": false}
	for _, l := range langs {
		if _, ok := want[l]; ok {
			want[l] = true
		}
	}
	for l, found := range want {
		if !found {
			t.Errorf("expected %s to be registered", l)
		}
	}
}
