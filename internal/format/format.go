// Package format pretty-prints generated source through an external
// formatter process.
package format

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Formatter returns canonically formatted source text.
type Formatter interface {
	Format(ctx context.Context, code, language string) (string, error)
}

// Command is the formatter invocation for one language. The source is
// written to stdin and the formatted text read from stdout.
type Command struct {
	Cmd  string   `mapstructure:"cmd"`
	Args []string `mapstructure:"args"`
}

// Config configures an Exec formatter.
type Config struct {
	Timeout  time.Duration      `mapstructure:"timeout"`
	Commands map[string]Command `mapstructure:"commands"`
	Env      map[string]string  `mapstructure:"env"`
}

// DefaultCommands uses clang-format, which handles all three languages.
func DefaultCommands() map[string]Command {
	return map[string]Command{
		"c":    {Cmd: "clang-format", Args: []string{"--assume-filename=input.c"}},
		"cpp":  {Cmd: "clang-format", Args: []string{"--assume-filename=input.cpp"}},
		"java": {Cmd: "clang-format", Args: []string{"--assume-filename=Input.java"}},
	}
}

// ErrNoCommand is returned for a language with no configured formatter.
var ErrNoCommand = errors.New("no formatter configured")

// Exec runs a formatter process per call.
type Exec struct {
	cfg Config
}

// NewExec creates an Exec formatter. Missing settings fall back to
// DefaultCommands and a ten second timeout.
func NewExec(cfg Config) *Exec {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if len(cfg.Commands) == 0 {
		cfg.Commands = DefaultCommands()
	}
	return &Exec{cfg: cfg}
}

// Format pipes code through the language's formatter command.
func (e *Exec) Format(ctx context.Context, code, language string) (string, error) {
	c, ok := e.cfg.Commands[language]
	if !ok || c.Cmd == "" {
		return "", fmt.Errorf("%w for %s", ErrNoCommand, language)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Cmd, c.Args...)
	env := os.Environ()
	for k, v := range e.cfg.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Env = env
	cmd.Stdin = strings.NewReader(code)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%s timed out after %s: %w", c.Cmd, e.cfg.Timeout, ctx.Err())
		}
		return "", fmt.Errorf("%s %v failed: %w\n%s", c.Cmd, c.Args, err, stderr.Bytes())
	}
	return stdout.String(), nil
}

// Check reports whether every configured formatter binary can be found.
func (e *Exec) Check() error {
	for lang, c := range e.cfg.Commands {
		if _, err := exec.LookPath(c.Cmd); err != nil {
			return fmt.Errorf("formatter for %s: %w", lang, err)
		}
	}
	return nil
}

// Passthrough returns code unchanged. It stands in when no formatter is
// installed.
type Passthrough struct{}

func (Passthrough) Format(_ context.Context, code, _ string) (string, error) { return code, nil }
