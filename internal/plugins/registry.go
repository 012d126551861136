package plugins

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry stores the available language plugins.
type Registry struct {
	mu        sync.RWMutex
	languages map[string]LanguagePlugin
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		languages: make(map[string]LanguagePlugin),
	}
}

func (r *Registry) Register(p LanguagePlugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.languages[p.Language()] = p
}

func (r *Registry) Language(lang string) (LanguagePlugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.languages[lang]
	if !ok {
		return nil, fmt.Errorf("no plugin for language %q", lang)
	}
	return p, nil
}

// Languages returns the registered language identifiers, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.languages))
	for lang := range r.languages {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// ForExtension finds the plugin that declared ext (with or without the dot).
func (r *Registry) ForExtension(ext string) (LanguagePlugin, bool) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, lang := range sortedKeys(r.languages) {
		p := r.languages[lang]
		fp, ok := p.(FileExtensionsProvider)
		if !ok {
			continue
		}
		for _, e := range fp.FileExtensions() {
			if strings.ToLower(e) == ext {
				return p, true
			}
		}
	}
	return nil, false
}

func sortedKeys(m map[string]LanguagePlugin) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
