package temporal

import (
	"context"
	"errors"
	"time"

	"go.temporal.io/sdk/activity"
	sdktemporal "go.temporal.io/sdk/temporal"

	"github.com/efebarandurmaz/refinery/internal/observability"
	"github.com/efebarandurmaz/refinery/internal/pipeline"
)

// Application error types reported by OptimizeActivity.
const (
	ErrTypeInput       = "InputError"
	ErrTypeUnsupported = "UnsupportedLanguageError"
	ErrTypeParse       = "ParseError"
	ErrTypeFormat      = "FormatError"
)

// Dependencies holds shared resources injected into activities.
type Dependencies struct {
	Pipeline *pipeline.Pipeline
	Audit    *observability.AuditLogger
}

var deps *Dependencies

// SetDependencies injects shared resources (called during worker setup).
func SetDependencies(d *Dependencies) {
	deps = d
}

// OptimizeActivity runs the full pipeline. Request errors are returned as
// non-retryable application errors typed by kind; retrying cannot fix them.
func OptimizeActivity(ctx context.Context, input OptimizeInput) (*OptimizeOutput, error) {
	if deps == nil || deps.Pipeline == nil {
		return nil, errors.New("temporal: dependencies not set")
	}
	info := activity.GetInfo(ctx)
	workflowID := info.WorkflowExecution.ID
	logger := activity.GetLogger(ctx)

	start := time.Now()
	deps.Audit.LogWorkflowStart(workflowID, input.Language)
	res, err := deps.Pipeline.Run(ctx, pipeline.Request{Code: input.Code, Language: input.Language})
	deps.Audit.LogWorkflowEnd(workflowID, time.Since(start), err)
	if err != nil {
		logger.Warn("Optimization failed", "language", input.Language, "error", err)
		if kind := errorType(err); kind != "" {
			return nil, sdktemporal.NewNonRetryableApplicationError(err.Error(), kind, err)
		}
		return nil, err
	}

	return &OptimizeOutput{
		RunID:         res.RunID,
		OriginalCode:  res.OriginalCode,
		OptimizedCode: res.OptimizedCode,
		Stats:         res.Stats,
		Rewrites:      res.Rewrites,
	}, nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrInput):
		return ErrTypeInput
	case errors.Is(err, pipeline.ErrUnsupportedLanguage):
		return ErrTypeUnsupported
	case errors.Is(err, pipeline.ErrParse):
		return ErrTypeParse
	case errors.Is(err, pipeline.ErrFormat):
		return ErrTypeFormat
	default:
		return ""
	}
}
