//go:build cgo
// +build cgo

package java

import (
	"github.com/efebarandurmaz/refinery/pkg/treesitter"
	sitterjava "github.com/smacker/go-tree-sitter/java"
)

func init() {
	treesitter.Register("java", func() any {
		return sitterjava.GetLanguage()
	})
}
