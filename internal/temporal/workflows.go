// Package temporal runs optimizations as Temporal workflows, for callers
// that submit work asynchronously instead of through the HTTP API.
package temporal

import (
	"fmt"
	"time"

	sdktemporal "go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/efebarandurmaz/refinery/internal/optimize"
)

// ActivityTimeout bounds one OptimizeActivity attempt.
const ActivityTimeout = 2 * time.Minute

// OptimizeInput holds the workflow parameters.
type OptimizeInput struct {
	Code     string
	Language string
}

// OptimizeOutput holds the workflow result.
type OptimizeOutput struct {
	RunID         string
	OriginalCode  string
	OptimizedCode string
	Stats         optimize.Stats
	Rewrites      int
}

// OptimizeWorkflow runs one optimization. Infrastructure failures are
// retried up to three times; request errors fail immediately.
func OptimizeWorkflow(ctx workflow.Context, input OptimizeInput) (*OptimizeOutput, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: ActivityTimeout,
		RetryPolicy: &sdktemporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    3,
			NonRetryableErrorTypes: []string{
				ErrTypeInput, ErrTypeUnsupported, ErrTypeParse, ErrTypeFormat,
			},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var out OptimizeOutput
	if err := workflow.ExecuteActivity(ctx, OptimizeActivity, input).Get(ctx, &out); err != nil {
		return nil, fmt.Errorf("optimize %s: %w", input.Language, err)
	}
	workflow.GetLogger(ctx).Info("Optimization finished",
		"run_id", out.RunID,
		"folded", out.Stats.Folded,
		"unrolled", out.Stats.Unrolled,
	)
	return &out, nil
}
