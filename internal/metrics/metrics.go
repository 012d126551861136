// Package metrics collects per-run statistics for a single optimization.
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/efebarandurmaz/refinery/internal/ir"
	"github.com/efebarandurmaz/refinery/internal/optimize"
)

// RunMetrics collects statistics for one pipeline run.
type RunMetrics struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at,omitempty"`
	DurationMS int64          `json:"duration_ms,omitempty"`
	Language   string         `json:"language"`
	Source     CodeMetrics    `json:"source"`
	Optimized  CodeMetrics    `json:"optimized"`
	Passes     optimize.Stats `json:"passes"`
	Rewrites   int            `json:"pattern_rewrites"`
	Stages     []StageMetrics `json:"stages"`
	Errors     []string       `json:"errors,omitempty"`
}

// CodeMetrics describes one side of the transformation.
type CodeMetrics struct {
	Bytes int `json:"bytes"`
	Lines int `json:"lines"`
	Nodes int `json:"ir_nodes"`
}

// StageMetrics times one pipeline stage.
type StageMetrics struct {
	Name       string `json:"name"`
	DurationMS int64  `json:"duration_ms"`
}

// New starts tracking a run.
func New(language string) *RunMetrics {
	return &RunMetrics{StartedAt: time.Now(), Language: language}
}

func measure(code string, root ir.Node) CodeMetrics {
	m := CodeMetrics{Bytes: len(code)}
	if code != "" {
		m.Lines = strings.Count(code, "\n") + 1
		if strings.HasSuffix(code, "\n") {
			m.Lines--
		}
	}
	if root != nil {
		m.Nodes = ir.Count(root)
	}
	return m
}

// CollectSource records the input code and its IR size.
func (m *RunMetrics) CollectSource(code string, root ir.Node) { m.Source = measure(code, root) }

// CollectOptimized records the output code and its IR size.
func (m *RunMetrics) CollectOptimized(code string, root ir.Node) { m.Optimized = measure(code, root) }

// AddStage records how long a stage took.
func (m *RunMetrics) AddStage(name string, d time.Duration) {
	m.Stages = append(m.Stages, StageMetrics{Name: name, DurationMS: d.Milliseconds()})
}

// Finish marks the run as complete.
func (m *RunMetrics) Finish(stats optimize.Stats, rewrites int, errs ...error) {
	m.FinishedAt = time.Now()
	m.DurationMS = m.FinishedAt.Sub(m.StartedAt).Milliseconds()
	m.Passes = stats
	m.Rewrites = rewrites
	for _, err := range errs {
		if err != nil {
			m.Errors = append(m.Errors, err.Error())
		}
	}
}

// PrintSummary writes a human-readable summary.
func (m *RunMetrics) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "refinery run (%s) in %dms\n", m.Language, m.DurationMS)
	fmt.Fprintf(w, "  source:     %d lines, %s, %d IR nodes\n", m.Source.Lines, formatBytes(m.Source.Bytes), m.Source.Nodes)
	fmt.Fprintf(w, "  optimized:  %d lines, %s, %d IR nodes\n", m.Optimized.Lines, formatBytes(m.Optimized.Bytes), m.Optimized.Nodes)
	fmt.Fprintf(w, "  folded %d, eliminated %d, substituted %d\n", m.Passes.Folded, m.Passes.Eliminated, m.Passes.Substituted)
	fmt.Fprintf(w, "  loops unrolled %d, left rolled %d\n", m.Passes.Unrolled, m.Passes.UnrollAborted)
	fmt.Fprintf(w, "  pattern rewrites %d\n", m.Rewrites)
	for _, s := range m.Stages {
		fmt.Fprintf(w, "  %-10s %dms\n", s.Name, s.DurationMS)
	}
	for _, e := range m.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
}

// JSON returns the metrics as formatted JSON.
func (m *RunMetrics) JSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func formatBytes(b int) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
