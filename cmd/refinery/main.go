package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "refinery",
		Short:         "Syntax-tree optimizer for C, C++ and Java source",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/refinery.yaml", "Config file path")

	rootCmd.AddCommand(
		newServeCmd(&configPath),
		newOptimizeCmd(&configPath),
		newLanguagesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}
