package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/refinery/internal/config"
	"github.com/efebarandurmaz/refinery/internal/format"
	"github.com/efebarandurmaz/refinery/internal/pipeline"
	"github.com/efebarandurmaz/refinery/internal/server"
	"github.com/efebarandurmaz/refinery/internal/syntax/syntaxtest"
)

const (
	incrSource  = "void f(int x) { x = x * 2; }"
	incrProgram = `(translation_unit (function_definition primitive_type:void function_declarator:"f(int x)"
		(compound_statement "{"
			(expression_statement (assignment_expression identifier:x "=" (binary_expression identifier:x "*" number_literal:2)) ";")
		"}")))`
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Formatter.Enabled = false
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, Options{
		Provider: syntaxtest.NewProvider(t, map[string]string{incrSource: incrProgram}),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestNewRegistry(t *testing.T) {
	assert.Equal(t, []string{"c", "cpp", "java"}, NewRegistry().Languages())
}

func TestNew_Defaults(t *testing.T) {
	a := newTestApp(t, testConfig())
	assert.Nil(t, a.Store)
	assert.Nil(t, a.formatter)

	res, err := a.Pipeline.Run(context.Background(), pipeline.Request{Code: incrSource, Language: "c"})
	require.NoError(t, err)
	assert.Equal(t, "void f(int x){x =x *2;}", res.OptimizedCode)
	assert.Equal(t, 1.0, a.Metrics.RequestsTotal.Value())
}

func TestNew_PatternFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`patterns:
  - name: double
    match: "$x = $x * 2;"
    replace: "$x <<= 1;"
`), 0o644))

	cfg := testConfig()
	cfg.Patterns.Path = path
	a := newTestApp(t, cfg)

	res, err := a.Pipeline.Run(context.Background(), pipeline.Request{Code: incrSource, Language: "c"})
	require.NoError(t, err)
	assert.Equal(t, "void f(int x){x <<=1;}", res.OptimizedCode)
	assert.Equal(t, 1, res.Rewrites)
}

func TestNew_Errors(t *testing.T) {
	missing := testConfig()
	missing.Patterns.Path = filepath.Join(t.TempDir(), "absent.yaml")
	_, err := New(context.Background(), missing, Options{})
	assert.ErrorContains(t, err, "patterns")

	badGraph := testConfig()
	badGraph.Graph.URI = "http://localhost:7474"
	_, err = New(context.Background(), badGraph, Options{})
	assert.ErrorContains(t, err, "graph store")

	badAudit := testConfig()
	badAudit.Audit.Enabled = true
	badAudit.Audit.OutputPath = filepath.Join(t.TempDir(), "missing", "audit.log")
	_, err = New(context.Background(), badAudit, Options{})
	assert.ErrorContains(t, err, "audit")
}

func TestNew_MissingFormatterFallsBack(t *testing.T) {
	cfg := testConfig()
	cfg.Formatter.Enabled = true
	cfg.Formatter.Commands = map[string]format.Command{"c": {Cmd: "refinery-no-such-formatter"}}
	a := newTestApp(t, cfg)

	res, err := a.Pipeline.Run(context.Background(), pipeline.Request{Code: incrSource, Language: "c"})
	require.NoError(t, err)
	assert.Equal(t, "void f(int x){x =x *2;}", res.OptimizedCode)

	h := server.NewHealthServer(nil)
	a.RegisterHealthChecks(h)
	check := server.FormatterHealthChecker(a.formatter.Check)(context.Background())
	assert.Equal(t, server.HealthStatusDegraded, check.Status)
}
