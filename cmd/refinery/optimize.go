package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/refinery/internal/app"
	"github.com/efebarandurmaz/refinery/internal/config"
	"github.com/efebarandurmaz/refinery/internal/diff"
	"github.com/efebarandurmaz/refinery/internal/ir"
	"github.com/efebarandurmaz/refinery/internal/logging"
	"github.com/efebarandurmaz/refinery/internal/pipeline"
	"github.com/efebarandurmaz/refinery/internal/plugins"
)

type optimizeFlags struct {
	lang     string
	output   string
	showDiff bool
	showIR   bool
	jsonOut  bool
	stats    bool
	noFormat bool
}

func newOptimizeCmd(configPath *string) *cobra.Command {
	var f optimizeFlags
	cmd := &cobra.Command{
		Use:   "optimize [file]",
		Short: "Optimize a source file (or stdin) and print the result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runOptimize(cmd.Context(), cfg, path, f, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&f.lang, "lang", "", "Source language (inferred from the file extension when omitted)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write optimized code to this file instead of stdout")
	cmd.Flags().BoolVar(&f.showDiff, "diff", false, "Print a unified diff of original and optimized code")
	cmd.Flags().BoolVar(&f.showIR, "ir", false, "Print the optimized IR tree")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Print the result and run metrics as JSON")
	cmd.Flags().BoolVar(&f.stats, "stats", false, "Print a run summary to stderr")
	cmd.Flags().BoolVar(&f.noFormat, "no-format", false, "Skip the external formatter")
	return cmd
}

func runOptimize(ctx context.Context, cfg *config.Config, path string, f optimizeFlags, stdin io.Reader, stdout, stderr io.Writer) error {
	logging.Setup(stderr, cfg.Log)
	if f.noFormat {
		cfg.Formatter.Enabled = false
	}

	var code []byte
	var err error
	if path == "-" {
		code, err = io.ReadAll(stdin)
	} else {
		code, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	lang, err := resolveLanguage(a.Registry, f.lang, path)
	if err != nil {
		return err
	}

	res, err := a.Pipeline.Run(ctx, pipeline.Request{Code: string(code), Language: lang})
	if err != nil {
		return err
	}

	switch {
	case f.jsonOut:
		out := struct {
			*pipeline.Result
			Metrics any `json:"metrics"`
		}{res, res.Metrics}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	case f.showDiff:
		d, err := diff.Unified(res.OriginalCode, res.OptimizedCode, "original", "optimized")
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, diff.Colorize(d))
	case f.showIR:
		fmt.Fprint(stdout, ir.Dump(res.OptimizedIR))
	case f.output != "":
		if err := os.WriteFile(f.output, []byte(res.OptimizedCode), 0o644); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	default:
		fmt.Fprintln(stdout, res.OptimizedCode)
	}

	if f.stats {
		res.Metrics.PrintSummary(stderr)
	}
	return nil
}

// resolveLanguage prefers the explicit flag, then the file extension.
func resolveLanguage(r *plugins.Registry, lang, path string) (string, error) {
	if lang != "" {
		return lang, nil
	}
	if path == "-" {
		return "", errors.New("--lang is required when reading stdin")
	}
	p, ok := r.ForExtension(filepath.Ext(path))
	if !ok {
		return "", fmt.Errorf("cannot infer language from %q, use --lang", filepath.Base(path))
	}
	return p.Language(), nil
}

// exitCode maps pipeline errors to distinct process exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInput), errors.Is(err, pipeline.ErrUnsupportedLanguage):
		return 2
	case errors.Is(err, pipeline.ErrParse):
		return 3
	case errors.Is(err, pipeline.ErrFormat):
		return 4
	default:
		return 1
	}
}
