// Package pipeline runs one optimization request end to end: parse, build
// the IR, optimize, apply peephole patterns, regenerate and format.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/efebarandurmaz/refinery/internal/format"
	"github.com/efebarandurmaz/refinery/internal/graph"
	"github.com/efebarandurmaz/refinery/internal/ir"
	"github.com/efebarandurmaz/refinery/internal/metrics"
	"github.com/efebarandurmaz/refinery/internal/observability"
	"github.com/efebarandurmaz/refinery/internal/optimize"
	"github.com/efebarandurmaz/refinery/internal/patterns"
	"github.com/efebarandurmaz/refinery/internal/plugins"
	"github.com/efebarandurmaz/refinery/internal/syntax"
)

// Request is one unit of work.
type Request struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// Result is the outcome of a successful run.
type Result struct {
	RunID         string              `json:"runId"`
	OriginalCode  string              `json:"originalCode"`
	OptimizedCode string              `json:"optimizedCode"`
	Stats         optimize.Stats      `json:"stats"`
	Rewrites      int                 `json:"rewrites"`
	Metrics       *metrics.RunMetrics `json:"-"`
	OriginalIR    ir.Node             `json:"-"`
	OptimizedIR   ir.Node             `json:"-"`
}

// Pipeline holds the immutable collaborators of a run. It is safe for
// concurrent use; every run builds its own IR and optimizer.
type Pipeline struct {
	provider  syntax.Provider
	formatter format.Formatter
	registry  *plugins.Registry

	budget   optimize.Budget
	patterns *patterns.Table
	metrics  *observability.OptimizerMetrics
	audit    *observability.AuditLogger
	store    graph.Repository
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithBudget sets the unroll ceiling.
func WithBudget(b optimize.Budget) Option { return func(p *Pipeline) { p.budget = b } }

// WithPatterns sets the peephole pattern table. A nil table disables it.
func WithPatterns(t *patterns.Table) Option { return func(p *Pipeline) { p.patterns = t } }

// WithMetrics records every run on m.
func WithMetrics(m *observability.OptimizerMetrics) Option { return func(p *Pipeline) { p.metrics = m } }

// WithAudit writes one audit event per run.
func WithAudit(a *observability.AuditLogger) Option { return func(p *Pipeline) { p.audit = a } }

// WithGraphStore persists the IR snapshots of every successful run.
func WithGraphStore(r graph.Repository) Option { return func(p *Pipeline) { p.store = r } }

// WithLogger replaces slog.Default.
func WithLogger(l *slog.Logger) Option { return func(p *Pipeline) { p.logger = l } }

// New creates a pipeline. A nil formatter leaves generated code as is.
func New(provider syntax.Provider, formatter format.Formatter, registry *plugins.Registry, opts ...Option) *Pipeline {
	if formatter == nil {
		formatter = format.Passthrough{}
	}
	p := &Pipeline{
		provider:  provider,
		formatter: formatter,
		registry:  registry,
		budget:    optimize.DefaultBudget,
		patterns:  patterns.Default(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Languages lists the languages the pipeline accepts.
func (p *Pipeline) Languages() []string { return p.registry.Languages() }

// Run executes the full pipeline for req.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	if p.metrics != nil {
		p.metrics.InFlight.Inc()
		defer p.metrics.InFlight.Dec()
	}

	ctx, span := observability.StartRequestSpan(ctx, req.Language, len(req.Code))
	defer span.End()

	runID := uuid.NewString()
	res, err := p.run(ctx, runID, req)
	duration := time.Since(start)

	var stats optimize.Stats
	var rewrites int
	if res != nil {
		stats, rewrites = res.Stats, res.Rewrites
		res.Metrics.Finish(stats, rewrites)
	}
	if p.metrics != nil {
		p.metrics.RecordRun(duration, stats, rewrites, err)
	}
	p.audit.LogOptimize(runID, req.Language, len(req.Code), duration, map[string]any{
		"folded":      stats.Folded,
		"eliminated":  stats.Eliminated,
		"unrolled":    stats.Unrolled,
		"substituted": stats.Substituted,
		"rewrites":    rewrites,
	}, err)

	if err != nil {
		observability.RecordError(span, err)
		p.logger.Debug("optimization failed", "run_id", runID, "language", req.Language, "error", err)
		return nil, err
	}
	p.logger.Debug("optimization finished",
		"run_id", runID,
		"language", req.Language,
		"duration_ms", duration.Milliseconds(),
		"folded", stats.Folded,
		"unrolled", stats.Unrolled,
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, runID string, req Request) (*Result, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, fmt.Errorf("%w: code is empty", ErrInput)
	}
	if req.Language == "" {
		return nil, fmt.Errorf("%w: language is required", ErrInput)
	}
	plugin, err := p.registry.Language(req.Language)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, req.Language)
	}
	g := plugin.Grammar()
	m := metrics.New(req.Language)

	var tree *syntax.Node
	err = p.stage(ctx, m, "parse", func(ctx context.Context) error {
		tree, err = p.provider.Parse(ctx, req.Code, req.Language)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrParse, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var original, optimized ir.Node
	var stats optimize.Stats
	var rewrites int
	_ = p.stage(ctx, m, "optimize", func(ctx context.Context) error {
		original = ir.Build(tree, g)
		opt := optimize.New(g, p.budget)
		optimized = opt.Optimize(ir.Clone(original))
		stats = opt.Stats()
		_, span := observability.StartPassSpan(ctx, "patterns")
		optimized, rewrites = p.patterns.Apply(optimized, g)
		observability.RecordPassResult(span, map[string]int{"rewrites": rewrites})
		span.End()
		return nil
	})

	res := &Result{
		RunID:       runID,
		Stats:       stats,
		Rewrites:    rewrites,
		Metrics:     m,
		OriginalIR:  original,
		OptimizedIR: optimized,
	}
	err = p.stage(ctx, m, "format", func(ctx context.Context) error {
		if res.OriginalCode, err = p.formatter.Format(ctx, ir.Generate(original), req.Language); err != nil {
			return fmt.Errorf("%w: original: %w", ErrFormat, err)
		}
		if res.OptimizedCode, err = p.formatter.Format(ctx, ir.Generate(optimized), req.Language); err != nil {
			return fmt.Errorf("%w: optimized: %w", ErrFormat, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.CollectSource(res.OriginalCode, original)
	m.CollectOptimized(res.OptimizedCode, optimized)

	if p.store != nil {
		p.storeSnapshot(ctx, m, req.Language, res)
	}
	return res, nil
}

// stage runs fn under a pass span and records its duration.
func (p *Pipeline) stage(ctx context.Context, m *metrics.RunMetrics, name string, fn func(context.Context) error) error {
	ctx, span := observability.StartPassSpan(ctx, name)
	defer span.End()
	start := time.Now()
	err := fn(ctx)
	m.AddStage(name, time.Since(start))
	observability.RecordError(span, err)
	return err
}

// storeSnapshot writes the run to the graph store. Failures are logged and
// audited but never fail the request.
func (p *Pipeline) storeSnapshot(ctx context.Context, m *metrics.RunMetrics, language string, res *Result) {
	_ = p.stage(ctx, m, "store", func(ctx context.Context) error {
		err := p.store.StoreRun(ctx, &graph.Run{
			ID:        res.RunID,
			Language:  language,
			CreatedAt: time.Now().UTC(),
			Stats:     res.Stats,
			Original:  res.OriginalIR,
			Optimized: res.OptimizedIR,
		})
		p.audit.LogGraphStore(res.RunID, ir.Count(res.OriginalIR)+ir.Count(res.OptimizedIR), err)
		if err != nil {
			p.logger.Warn("storing IR snapshot failed", "run_id", res.RunID, "error", err)
		}
		return err
	})
}
