package treesitter

import "testing"

func TestLanguageRegistry(t *testing.T) {
	// Register a test language
	Register("test-lang", func() any { return nil })

	fn, ok := GetLanguage("test-lang")
	if !ok {
		t.Fatal("expected test-lang to be registered")
	}
	if fn == nil {
		t.Fatal("expected non-nil language func")
	}

	_, ok = GetLanguage("nonexistent")
	if ok {
		t.Error("expected nonexistent language to not be found")
	}

	langs := Languages()
	found := false
	for _, l := range langs {
		if l == "test-lang" {
			found = true
		}
	}
	if !found {
		t.Error("expected test-lang in Languages() result")
	}
}

func TestNewParser_Unregistered(t *testing.T) {
	if _, err := NewParser("no-such-language"); err == nil {
		t.Fatal("expected error for unregistered language")
	}
}

func TestNewParser_InvalidHandle(t *testing.T) {
	// A registered language whose handle is not a grammar must be rejected,
	// and the stub build rejects every language.
	Register("broken-lang", func() any { return "not a grammar" })
	p, err := NewParser("broken-lang")
	if err == nil {
		p.Close()
		t.Fatal("expected error for invalid grammar handle")
	}
}
