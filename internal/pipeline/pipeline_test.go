package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/refinery/internal/format"
	"github.com/efebarandurmaz/refinery/internal/graph"
	"github.com/efebarandurmaz/refinery/internal/ir"
	"github.com/efebarandurmaz/refinery/internal/observability"
	"github.com/efebarandurmaz/refinery/internal/patterns"
	"github.com/efebarandurmaz/refinery/internal/plugins"
	cplugin "github.com/efebarandurmaz/refinery/internal/plugins/source/c"
	"github.com/efebarandurmaz/refinery/internal/syntax"
	"github.com/efebarandurmaz/refinery/internal/syntax/syntaxtest"
)

const (
	foldSrc = "int g() { return 2 + 3; f(); }"
	foldIR  = `(translation_unit (function_definition primitive_type:int function_declarator:"g()"
		(compound_statement "{"
			(return_statement "return" (binary_expression number_literal:2 "+" number_literal:3) ";")
			(expression_statement (call_expression identifier:f argument_list:"()") ";")
		"}")))`

	incrSrc = "int f(int x) { x = x + 1; return x; }"
	incrIR  = `(translation_unit (function_definition primitive_type:int function_declarator:"f(int x)"
		(compound_statement "{"
			(expression_statement (assignment_expression identifier:x "=" (binary_expression identifier:x "+" number_literal:1)) ";")
			(return_statement "return" identifier:x ";")
		"}")))`
)

type formatterFunc func(ctx context.Context, code, language string) (string, error)

func (f formatterFunc) Format(ctx context.Context, code, language string) (string, error) {
	return f(ctx, code, language)
}

var newline = formatterFunc(func(_ context.Context, code, _ string) (string, error) {
	return code + "\n", nil
})

type failingStore struct{}

func (failingStore) StoreRun(context.Context, *graph.Run) error {
	return errors.New("database unavailable")
}

func (failingStore) LoadRun(context.Context, string) (*graph.Run, error) { return nil, graph.ErrNotFound }
func (failingStore) Close(context.Context) error                        { return nil }

func newPipeline(t *testing.T, f format.Formatter, opts ...Option) *Pipeline {
	t.Helper()
	registry := plugins.NewRegistry()
	registry.Register(cplugin.New())
	provider := syntaxtest.NewProvider(t, map[string]string{foldSrc: foldIR, incrSrc: incrIR})
	return New(provider, f, registry, opts...)
}

func TestRun_OptimizesAndFormats(t *testing.T) {
	p := newPipeline(t, newline)

	res, err := p.Run(context.Background(), Request{Code: foldSrc, Language: "c"})
	require.NoError(t, err)

	assert.Equal(t, "int g(){return 2+3;f ();}\n", res.OriginalCode)
	assert.Equal(t, "int g(){return 5;}\n", res.OptimizedCode)
	assert.Equal(t, 1, res.Stats.Eliminated)
	assert.Positive(t, res.Stats.Folded)
	assert.NotEmpty(t, res.RunID)

	var stages []string
	for _, s := range res.Metrics.Stages {
		stages = append(stages, s.Name)
	}
	assert.Equal(t, []string{"parse", "optimize", "format"}, stages)
	assert.Equal(t, ir.Count(res.OptimizedIR), res.Metrics.Optimized.Nodes)
	assert.Less(t, res.Metrics.Optimized.Bytes, res.Metrics.Source.Bytes)
}

func TestRun_KeepsOriginalIRIntact(t *testing.T) {
	res, err := newPipeline(t, nil).Run(context.Background(), Request{Code: foldSrc, Language: "c"})
	require.NoError(t, err)
	assert.Equal(t, "int g(){return 2+3;f ();}", ir.Generate(res.OriginalIR))
	assert.Equal(t, "int g(){return 5;}", ir.Generate(res.OptimizedIR))
}

func TestRun_AppliesPatterns(t *testing.T) {
	res, err := newPipeline(t, nil).Run(context.Background(), Request{Code: incrSrc, Language: "c"})
	require.NoError(t, err)
	assert.Equal(t, "int f(int x){x ++;return x ;}", res.OptimizedCode)
	assert.Equal(t, 1, res.Rewrites)

	res, err = newPipeline(t, nil, WithPatterns(patterns.Empty())).Run(context.Background(), Request{Code: incrSrc, Language: "c"})
	require.NoError(t, err)
	assert.Equal(t, "int f(int x){x =x +1;return x ;}", res.OptimizedCode)
	assert.Zero(t, res.Rewrites)
}

func TestRun_Errors(t *testing.T) {
	formatFails := formatterFunc(func(context.Context, string, string) (string, error) {
		return "", errors.New("clang-format: exit status 1")
	})

	tests := []struct {
		name      string
		formatter format.Formatter
		req       Request
		want      error
	}{
		{"empty code", nil, Request{Code: "  \n", Language: "c"}, ErrInput},
		{"missing language", nil, Request{Code: foldSrc}, ErrInput},
		{"unknown language", nil, Request{Code: foldSrc, Language: "cobol"}, ErrUnsupportedLanguage},
		{"parse error", nil, Request{Code: "int main( {", Language: "c"}, ErrParse},
		{"format error", formatFails, Request{Code: foldSrc, Language: "c"}, ErrFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newPipeline(t, tt.formatter).Run(context.Background(), tt.req)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRun_ParseErrorKeepsPosition(t *testing.T) {
	_, err := newPipeline(t, nil).Run(context.Background(), Request{Code: "int main( {", Language: "c"})

	var perr *syntax.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 1, perr.Line)
}

func TestRun_RecordsMetricsAndAudit(t *testing.T) {
	m := observability.NewOptimizerMetrics()
	var audit bytes.Buffer
	p := newPipeline(t, nil,
		WithMetrics(m),
		WithAudit(observability.NewWriterAuditLogger(&audit, "test-session")),
	)

	_, err := p.Run(context.Background(), Request{Code: foldSrc, Language: "c"})
	require.NoError(t, err)
	_, err = p.Run(context.Background(), Request{Code: "", Language: "c"})
	require.Error(t, err)

	assert.Equal(t, 2.0, m.RequestsTotal.Value())
	assert.Equal(t, 1.0, m.RequestErrorsTotal.Value())
	assert.Equal(t, 1.0, m.EliminatedTotal.Value())
	assert.Equal(t, 0.0, m.InFlight.Value())
	assert.Equal(t, uint64(2), m.RequestDuration.Count())

	lines := strings.Split(strings.TrimSpace(audit.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"success":true`)
	assert.Contains(t, lines[1], `"success":false`)
	assert.Contains(t, lines[1], `"session_id":"test-session"`)
}

func TestRun_StoresSnapshot(t *testing.T) {
	store := graph.NewMemoryRepository()
	p := newPipeline(t, nil, WithGraphStore(store))

	res, err := p.Run(context.Background(), Request{Code: foldSrc, Language: "c"})
	require.NoError(t, err)

	run, err := store.LoadRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, "c", run.Language)
	assert.Equal(t, res.Stats, run.Stats)
	assert.True(t, ir.Equal(res.OriginalIR, run.Original))
	assert.True(t, ir.Equal(res.OptimizedIR, run.Optimized))
	assert.Equal(t, "store", res.Metrics.Stages[len(res.Metrics.Stages)-1].Name)
}

func TestRun_StoreFailureIsNotFatal(t *testing.T) {
	var audit, logs bytes.Buffer
	p := newPipeline(t, nil,
		WithGraphStore(failingStore{}),
		WithAudit(observability.NewWriterAuditLogger(&audit, "s")),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)

	res, err := p.Run(context.Background(), Request{Code: foldSrc, Language: "c"})
	require.NoError(t, err)
	assert.Equal(t, "int g(){return 5;}", res.OptimizedCode)
	assert.Contains(t, audit.String(), "database unavailable")
	assert.Contains(t, logs.String(), "storing IR snapshot failed")
}

func TestLanguages(t *testing.T) {
	assert.Equal(t, []string{"c"}, newPipeline(t, nil).Languages())
}

func TestRun_Concurrent(t *testing.T) {
	p := newPipeline(t, nil)
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			res, err := p.Run(context.Background(), Request{Code: foldSrc, Language: "c"})
			if err == nil && res.OptimizedCode != "int g(){return 5;}" {
				err = fmt.Errorf("unexpected output %q", res.OptimizedCode)
			}
			errs <- err
		}()
	}
	for i := 0; i < 8; i++ {
		assert.NoError(t, <-errs)
	}
}
