// Package cpp registers the tree-sitter cpp grammar with the treesitter
// registry. Import it for its side effect; without CGO it registers nothing.
package cpp
