// Package c registers the tree-sitter c grammar with the treesitter
// registry. Import it for its side effect; without CGO it registers nothing.
package c
