package plugins

import "github.com/efebarandurmaz/refinery/internal/grammar"

// LanguagePlugin supplies everything the optimizer needs to know about one
// source language.
type LanguagePlugin interface {
	// Language returns the language identifier used in requests (e.g. "c").
	Language() string
	// Grammar returns the language's syntax kinds. The result is shared and
	// must not be modified.
	Grammar() *grammar.Grammar
}

// FileExtensionsProvider is an optional interface for plugins to declare
// which file extensions they handle (e.g. []string{".c", ".h"}).
//
// When not implemented, the CLI requires an explicit --lang.
type FileExtensionsProvider interface {
	FileExtensions() []string
}
