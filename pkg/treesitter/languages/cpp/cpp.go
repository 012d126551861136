//go:build cgo
// +build cgo

package cpp

import (
	"github.com/efebarandurmaz/refinery/pkg/treesitter"
	sittercpp "github.com/smacker/go-tree-sitter/cpp"
)

func init() {
	treesitter.Register("cpp", func() any {
		return sittercpp.GetLanguage()
	})
}
