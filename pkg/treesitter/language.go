// Package treesitter wraps the tree-sitter incremental parser behind a small,
// language-agnostic API. Grammars register themselves by name from their own
// packages (see languages/), so callers only ever deal in language names.
package treesitter

import (
	"sort"
	"sync"
)

// LanguageFunc returns the grammar handle for a language.
// In CGO mode the value is a *sitter.Language; the registry itself never
// inspects it, which keeps this file buildable without CGO.
type LanguageFunc func() any

var (
	mu       sync.RWMutex
	registry = make(map[string]LanguageFunc)
)

// Register adds a language grammar to the global registry.
// Call this from init() in language-specific packages.
// Example:
//
//	func init() {
//	    treesitter.Register("c", func() any { return c.GetLanguage() })
//	}
func Register(name string, fn LanguageFunc) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = fn
}

// GetLanguage looks up a registered language by name.
func GetLanguage(name string) (LanguageFunc, bool) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := registry[name]
	return fn, ok
}

// Languages returns all registered language names, sorted.
func Languages() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
