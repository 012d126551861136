package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/refinery/internal/app"
	"github.com/efebarandurmaz/refinery/internal/plugins"
)

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		Run: func(cmd *cobra.Command, args []string) {
			r := app.NewRegistry()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Supported languages:")
			fmt.Fprintln(out)
			for _, lang := range r.Languages() {
				p, _ := r.Language(lang)
				exts := ""
				if fp, ok := p.(plugins.FileExtensionsProvider); ok {
					exts = strings.Join(fp.FileExtensions(), " ")
				}
				fmt.Fprintf(out, "  %-6s %s\n", lang, exts)
			}
		},
	}
}
