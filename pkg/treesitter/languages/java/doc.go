// Package java registers the tree-sitter java grammar with the treesitter
// registry. Import it for its side effect; without CGO it registers nothing.
package java
