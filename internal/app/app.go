// Package app wires configuration into a ready pipeline, shared by the
// HTTP server, the CLI and the Temporal worker.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/efebarandurmaz/refinery/internal/config"
	"github.com/efebarandurmaz/refinery/internal/format"
	"github.com/efebarandurmaz/refinery/internal/graph/neo4j"
	"github.com/efebarandurmaz/refinery/internal/observability"
	"github.com/efebarandurmaz/refinery/internal/patterns"
	"github.com/efebarandurmaz/refinery/internal/pipeline"
	"github.com/efebarandurmaz/refinery/internal/plugins"
	cplugin "github.com/efebarandurmaz/refinery/internal/plugins/source/c"
	cppplugin "github.com/efebarandurmaz/refinery/internal/plugins/source/cpp"
	javaplugin "github.com/efebarandurmaz/refinery/internal/plugins/source/java"
	"github.com/efebarandurmaz/refinery/internal/server"
	"github.com/efebarandurmaz/refinery/internal/syntax"
	_ "github.com/efebarandurmaz/refinery/pkg/treesitter/languages/c"
	_ "github.com/efebarandurmaz/refinery/pkg/treesitter/languages/cpp"
	_ "github.com/efebarandurmaz/refinery/pkg/treesitter/languages/java"
)

// App holds the long-lived collaborators built from configuration.
type App struct {
	Config   *config.Config
	Registry *plugins.Registry
	Pipeline *pipeline.Pipeline
	Metrics  *observability.OptimizerMetrics
	Audit    *observability.AuditLogger
	Tracing  *observability.TracerProvider

	// Store is nil unless graph.uri is configured.
	Store *neo4j.Repository

	formatter    *format.Exec
	formatterErr error
}

// Options override collaborators, mostly for tests.
type Options struct {
	// Provider defaults to tree-sitter.
	Provider syntax.Provider
}

// NewRegistry registers the C, C++ and Java plugins.
func NewRegistry() *plugins.Registry {
	r := plugins.NewRegistry()
	r.Register(cplugin.New())
	r.Register(cppplugin.New())
	r.Register(javaplugin.New())
	return r
}

// New builds the application. Close releases what it opened.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{
		Config:   cfg,
		Registry: NewRegistry(),
		Metrics:  observability.NewOptimizerMetrics(),
	}

	table, err := loadPatterns(cfg.Patterns)
	if err != nil {
		return nil, err
	}

	tp, err := observability.InitTracing(ctx, &cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	a.Tracing = tp

	a.Audit, err = observability.NewAuditLogger(&cfg.Audit)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("audit: %w", err)
	}

	var formatter format.Formatter = format.Passthrough{}
	if cfg.Formatter.Enabled {
		a.formatter = format.NewExec(cfg.Formatter.Config)
		if a.formatterErr = a.formatter.Check(); a.formatterErr != nil {
			slog.Warn("Formatter unavailable, returning unformatted code", "error", a.formatterErr)
		} else {
			formatter = a.formatter
		}
	}

	pipelineOpts := []pipeline.Option{
		pipeline.WithBudget(cfg.Optimizer.Budget()),
		pipeline.WithPatterns(table),
		pipeline.WithMetrics(a.Metrics),
		pipeline.WithAudit(a.Audit),
		pipeline.WithLogger(slog.Default().With("component", "pipeline")),
	}
	if cfg.Graph.URI != "" {
		a.Store, err = neo4j.New(ctx, cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password)
		if err != nil {
			_ = a.Close(ctx)
			return nil, fmt.Errorf("graph store: %w", err)
		}
		pipelineOpts = append(pipelineOpts, pipeline.WithGraphStore(a.Store))
	}

	provider := opts.Provider
	if provider == nil {
		provider = syntax.NewTreeSitterProvider()
	}
	a.Pipeline = pipeline.New(provider, formatter, a.Registry, pipelineOpts...)
	return a, nil
}

func loadPatterns(cfg config.PatternsConfig) (*patterns.Table, error) {
	switch {
	case cfg.Disabled:
		return patterns.Empty(), nil
	case cfg.Path != "":
		t, err := patterns.LoadFile(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("patterns: %w", err)
		}
		return t, nil
	default:
		return patterns.Default(), nil
	}
}

// RegisterHealthChecks adds checks for the configured collaborators.
func (a *App) RegisterHealthChecks(h *server.HealthServer) {
	if a.formatter != nil {
		h.RegisterCheck("formatter", server.FormatterHealthChecker(a.formatter.Check))
	}
	if a.Store != nil {
		h.RegisterCheck("graph", server.GraphStoreHealthChecker(a.Config.Graph.URI, a.Store.Ping))
	}
}

// RegisterShutdownHooks closes the app's resources on shutdown.
func (a *App) RegisterShutdownHooks(g *server.GracefulServer) {
	g.RegisterHook(server.TracingShutdownHook(a.Tracing.Shutdown))
	if a.Store != nil {
		g.RegisterHook(server.GraphStoreShutdownHook(a.Store.Close))
	}
	g.RegisterHook(server.AuditLoggerShutdownHook(a.Audit.Close))
}

// Close releases every resource. It is safe on a partly built App.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close(ctx))
	}
	if a.Tracing != nil {
		errs = append(errs, a.Tracing.Shutdown(ctx))
	}
	errs = append(errs, a.Audit.Close())
	return errors.Join(errs...)
}
