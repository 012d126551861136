//go:build cgo
// +build cgo

package c

import (
	"github.com/efebarandurmaz/refinery/pkg/treesitter"
	sitterc "github.com/smacker/go-tree-sitter/c"
)

func init() {
	treesitter.Register("c", func() any {
		return sitterc.GetLanguage()
	})
}
