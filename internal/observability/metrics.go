package observability

import (
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/efebarandurmaz/refinery/internal/optimize"
)

// MetricsRegistry holds all registered metrics.
type MetricsRegistry struct {
	mu       sync.RWMutex
	counters map[string]*Counter
	gauges   map[string]*Gauge
	histos   map[string]*Histogram
}

// Counter is a monotonically increasing metric.
type Counter struct {
	name   string
	help   string
	labels map[string]string
	value  float64
	mu     sync.Mutex
}

// Gauge is a metric that can go up or down.
type Gauge struct {
	name   string
	help   string
	labels map[string]string
	value  float64
	mu     sync.Mutex
}

// Histogram tracks distribution of values.
type Histogram struct {
	name    string
	help    string
	labels  map[string]string
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
	mu      sync.Mutex
}

// NewMetricsRegistry creates a new metrics registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
		histos:   make(map[string]*Histogram),
	}
}

// NewCounter creates and registers a counter.
func (r *MetricsRegistry) NewCounter(name, help string, labels map[string]string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := &Counter{name: name, help: help, labels: labels}
	r.counters[name] = c
	return c
}

// NewGauge creates and registers a gauge.
func (r *MetricsRegistry) NewGauge(name, help string, labels map[string]string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	g := &Gauge{name: name, help: help, labels: labels}
	r.gauges[name] = g
	return g
}

// NewHistogram creates and registers a histogram.
func (r *MetricsRegistry) NewHistogram(name, help string, labels map[string]string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	if buckets == nil {
		buckets = DefaultBuckets()
	}
	h := &Histogram{
		name:    name,
		help:    help,
		labels:  labels,
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
	r.histos[name] = h
	return h
}

// DefaultBuckets returns default histogram buckets for latency.
func DefaultBuckets() []float64 {
	return []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
}

// Inc increments a counter by 1.
func (c *Counter) Inc() { c.Add(1) }

// Add adds a value to the counter.
func (c *Counter) Add(v float64) {
	c.mu.Lock()
	c.value += v
	c.mu.Unlock()
}

// Value returns the counter value.
func (c *Counter) Value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set sets the gauge value.
func (g *Gauge) Set(v float64) {
	g.mu.Lock()
	g.value = v
	g.mu.Unlock()
}

func (g *Gauge) Inc() { g.Add(1) }
func (g *Gauge) Dec() { g.Add(-1) }

// Add adds a value to the gauge.
func (g *Gauge) Add(v float64) {
	g.mu.Lock()
	g.value += v
	g.mu.Unlock()
}

// Value returns the gauge value.
func (g *Gauge) Value() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

// Observe records a value in the histogram.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sum += v
	h.count++
	for i, bound := range h.buckets {
		if v <= bound {
			h.counts[i]++
		}
	}
}

// ObserveDuration records the time elapsed since start, in seconds.
func (h *Histogram) ObserveDuration(start time.Time) {
	h.Observe(time.Since(start).Seconds())
}

// Count returns the number of observations.
func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Handler returns an HTTP handler for Prometheus metrics.
func (r *MetricsRegistry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		r.WritePrometheus(w)
	})
}

// WritePrometheus writes metrics in Prometheus text format, sorted by name
// within each metric type.
func (r *MetricsRegistry) WritePrometheus(w io.Writer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range sortedNames(r.counters) {
		c := r.counters[name]
		c.mu.Lock()
		writeMetric(w, c.name, "counter", c.help, c.labels, c.value)
		c.mu.Unlock()
	}
	for _, name := range sortedNames(r.gauges) {
		g := r.gauges[name]
		g.mu.Lock()
		writeMetric(w, g.name, "gauge", g.help, g.labels, g.value)
		g.mu.Unlock()
	}
	for _, name := range sortedNames(r.histos) {
		h := r.histos[name]
		h.mu.Lock()
		writeHistogram(w, h)
		h.mu.Unlock()
	}
}

func sortedNames[T any](m map[string]T) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func writeMetric(w io.Writer, name, metricType, help string, labels map[string]string, value float64) {
	io.WriteString(w, "# HELP "+name+" "+help+"\n")
	io.WriteString(w, "# TYPE "+name+" "+metricType+"\n")
	io.WriteString(w, name+formatLabels(labels)+" "+formatFloat(value)+"\n")
}

func writeHistogram(w io.Writer, h *Histogram) {
	io.WriteString(w, "# HELP "+h.name+" "+h.help+"\n")
	io.WriteString(w, "# TYPE "+h.name+" histogram\n")

	// Buckets are stored cumulatively by Observe.
	for i, bound := range h.buckets {
		labels := copyLabels(h.labels)
		labels["le"] = formatFloat(bound)
		io.WriteString(w, h.name+"_bucket"+formatLabels(labels)+" "+strconv.FormatUint(h.counts[i], 10)+"\n")
	}
	labels := copyLabels(h.labels)
	labels["le"] = "+Inf"
	io.WriteString(w, h.name+"_bucket"+formatLabels(labels)+" "+strconv.FormatUint(h.count, 10)+"\n")

	io.WriteString(w, h.name+"_sum"+formatLabels(h.labels)+" "+formatFloat(h.sum)+"\n")
	io.WriteString(w, h.name+"_count"+formatLabels(h.labels)+" "+strconv.FormatUint(h.count, 10)+"\n")
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, k := range sortedNames(labels) {
		parts = append(parts, k+"=\""+labels[k]+"\"")
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func copyLabels(labels map[string]string) map[string]string {
	result := make(map[string]string, len(labels)+1)
	for k, v := range labels {
		result[k] = v
	}
	return result
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// OptimizerMetrics contains the refinery service metrics.
type OptimizerMetrics struct {
	Registry *MetricsRegistry

	RequestsTotal      *Counter
	RequestErrorsTotal *Counter
	RequestDuration    *Histogram
	InFlight           *Gauge

	FoldedTotal        *Counter
	EliminatedTotal    *Counter
	UnrolledTotal      *Counter
	UnrollAbortedTotal *Counter
	SubstitutedTotal   *Counter
	RewritesTotal      *Counter
}

// NewOptimizerMetrics creates the service metrics on a fresh registry.
func NewOptimizerMetrics() *OptimizerMetrics {
	r := NewMetricsRegistry()

	return &OptimizerMetrics{
		Registry: r,

		RequestsTotal:      r.NewCounter("refinery_requests_total", "Total optimization requests", nil),
		RequestErrorsTotal: r.NewCounter("refinery_request_errors_total", "Optimization requests that failed", nil),
		RequestDuration:    r.NewHistogram("refinery_request_duration_seconds", "Optimization request duration", nil, nil),
		InFlight:           r.NewGauge("refinery_requests_in_flight", "Optimization requests being processed", nil),

		FoldedTotal:        r.NewCounter("refinery_folded_total", "Expressions replaced by constant folding", nil),
		EliminatedTotal:    r.NewCounter("refinery_eliminated_total", "Statements removed as unreachable", nil),
		UnrolledTotal:      r.NewCounter("refinery_unrolled_total", "Loops unrolled", nil),
		UnrollAbortedTotal: r.NewCounter("refinery_unroll_aborted_total", "Recognized loops left rolled", nil),
		SubstitutedTotal:   r.NewCounter("refinery_substituted_total", "Identifiers replaced by propagated constants", nil),
		RewritesTotal:      r.NewCounter("refinery_pattern_rewrites_total", "Statements rewritten by the pattern table", nil),
	}
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *OptimizerMetrics) Handler() http.Handler {
	return m.Registry.Handler()
}

// RecordRun records one pipeline run.
func (m *OptimizerMetrics) RecordRun(duration time.Duration, stats optimize.Stats, rewrites int, err error) {
	m.RequestsTotal.Inc()
	m.RequestDuration.Observe(duration.Seconds())
	if err != nil {
		m.RequestErrorsTotal.Inc()
		return
	}
	m.FoldedTotal.Add(float64(stats.Folded))
	m.EliminatedTotal.Add(float64(stats.Eliminated))
	m.UnrolledTotal.Add(float64(stats.Unrolled))
	m.UnrollAbortedTotal.Add(float64(stats.UnrollAborted))
	m.SubstitutedTotal.Add(float64(stats.Substituted))
	m.RewritesTotal.Add(float64(rewrites))
}
