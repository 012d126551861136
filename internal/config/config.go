// Package config loads refinery configuration from a YAML file and
// REFINERY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/efebarandurmaz/refinery/internal/format"
	"github.com/efebarandurmaz/refinery/internal/observability"
	"github.com/efebarandurmaz/refinery/internal/optimize"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig                `mapstructure:"server"`
	Optimizer OptimizerConfig             `mapstructure:"optimizer"`
	Formatter FormatterConfig             `mapstructure:"formatter"`
	Patterns  PatternsConfig              `mapstructure:"patterns"`
	Log       LogConfig                   `mapstructure:"log"`
	Tracing   observability.TracingConfig `mapstructure:"tracing"`
	Audit     observability.AuditConfig   `mapstructure:"audit"`
	Graph     GraphConfig                 `mapstructure:"graph"`
	Temporal  TemporalConfig              `mapstructure:"temporal"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	HealthAddr      string        `mapstructure:"health_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	// RateLimit is requests per minute per client; 0 disables limiting.
	RateLimit   int      `mapstructure:"rate_limit"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	// TrustedProxies lists addresses or CIDRs whose X-Forwarded-For header
	// identifies the client. Empty means the header is ignored.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address becomes a
// single-host prefix.
func (s ServerConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for _, entry := range s.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// OptimizerConfig bounds loop unrolling.
type OptimizerConfig struct {
	MaxIterations int `mapstructure:"max_iterations"`
	MaxNodes      int `mapstructure:"max_nodes"`
}

// Budget converts the section to an unroll budget.
func (c OptimizerConfig) Budget() optimize.Budget {
	return optimize.Budget{MaxIterations: c.MaxIterations, MaxNodes: c.MaxNodes}
}

type FormatterConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	format.Config `mapstructure:",squash"`
}

// PatternsConfig points at a YAML pattern table. An empty path selects the
// built-in rules.
type PatternsConfig struct {
	Path     string `mapstructure:"path"`
	Disabled bool   `mapstructure:"disabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GraphConfig enables IR snapshot storage in Neo4j when URI is set.
type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type TemporalConfig struct {
	Host      string `mapstructure:"host"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// Default returns a configuration that works without a file.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			HealthAddr:      ":8081",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    1 << 20,
			RateLimit:       100,
			CORSOrigins:     []string{"*"},
		},
		Optimizer: OptimizerConfig{
			MaxIterations: optimize.DefaultBudget.MaxIterations,
			MaxNodes:      optimize.DefaultBudget.MaxNodes,
		},
		Formatter: FormatterConfig{
			Enabled: true,
			Config:  format.Config{Timeout: 10 * time.Second, Commands: format.DefaultCommands()},
		},
		Log:     LogConfig{Level: "info", Format: "text"},
		Tracing: *observability.DefaultTracingConfig(),
		Audit:   observability.AuditConfig{OutputPath: "stderr"},
		Temporal: TemporalConfig{
			Host:      "localhost:7233",
			Namespace: "default",
			TaskQueue: "refinery",
		},
	}
}

// setDefaults registers every key so environment overrides apply even
// when the file omits a section.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.health_addr", d.Server.HealthAddr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("optimizer.max_iterations", d.Optimizer.MaxIterations)
	v.SetDefault("optimizer.max_nodes", d.Optimizer.MaxNodes)

	v.SetDefault("formatter.enabled", d.Formatter.Enabled)
	v.SetDefault("formatter.timeout", d.Formatter.Timeout)

	v.SetDefault("patterns.path", "")
	v.SetDefault("patterns.disabled", false)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.service_version", d.Tracing.ServiceVersion)
	v.SetDefault("tracing.environment", d.Tracing.Environment)
	v.SetDefault("tracing.otlp_endpoint", "")
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.output_path", d.Audit.OutputPath)
	v.SetDefault("audit.session_id", "")

	v.SetDefault("graph.uri", "")
	v.SetDefault("graph.username", "")
	v.SetDefault("graph.password", "")

	v.SetDefault("temporal.host", d.Temporal.Host)
	v.SetDefault("temporal.namespace", d.Temporal.Namespace)
	v.SetDefault("temporal.task_queue", d.Temporal.TaskQueue)
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Optimizer.MaxIterations <= 0 {
		warnings = append(warnings, fmt.Sprintf("optimizer max_iterations %d disables loop unrolling", c.Optimizer.MaxIterations))
	}
	if c.Optimizer.MaxNodes <= 0 {
		warnings = append(warnings, fmt.Sprintf("optimizer max_nodes %d disables loop unrolling", c.Optimizer.MaxNodes))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		warnings = append(warnings, fmt.Sprintf("tracing sample_rate %.2f is outside [0.0, 1.0]", c.Tracing.SampleRate))
	}
	if c.Graph.URI != "" && c.Graph.Username == "" {
		warnings = append(warnings, "graph uri is set but username is empty")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		warnings = append(warnings, fmt.Sprintf("unknown log format %q, using text", c.Log.Format))
	}
	if c.Server.MaxBodyBytes < 0 {
		warnings = append(warnings, fmt.Sprintf("server max_body_bytes %d is negative", c.Server.MaxBodyBytes))
	}
	if _, err := c.Server.TrustedProxyPrefixes(); err != nil {
		warnings = append(warnings, err.Error())
	}
	return warnings
}

// Load reads configuration from file and environment. An empty path, or
// a path that does not exist, yields the defaults plus environment
// overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix("REFINERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}
