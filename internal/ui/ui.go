// Package ui renders sync passes, dry-run change sets, and index status for
// the terminal.
package ui

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/docsync/internal/reconcile"
)

// StateIcon returns the short tag printed in front of pass progress lines.
func StateIcon(s reconcile.State) string {
	switch s {
	case reconcile.StateIdle:
		return "IDLE"
	case reconcile.StateScanning:
		return "SCAN"
	case reconcile.StateDiffing:
		return "DIFF"
	case reconcile.StateApplying:
		return "APPLY"
	case reconcile.StateCommitting:
		return "COMMIT"
	case reconcile.StateDone:
		return "DONE"
	case reconcile.StateFailed:
		return "FAIL"
	default:
		return "???"
	}
}

// Renderer displays a pass as it runs and summarises it when it ends.
// Every Renderer is also a reconcile.Observer so it can be handed to the
// engine directly.
type Renderer interface {
	reconcile.Observer

	// Report prints the final summary of a pass.
	Report(r *reconcile.Report)

	// ChangeSet prints a dry-run diff.
	ChangeSet(cs *reconcile.ChangeSet)
}

// Config configures the UI renderer.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	Live       bool // animate progress while a pass runs
	NoColor    bool
	Verbose    bool   // list every identity in change sets
	ProjectDir string // data directory shown in headers
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithLive enables the animated progress view on terminals.
func WithLive(live bool) ConfigOption {
	return func(c *Config) {
		c.Live = live
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// WithVerbose lists every identity instead of only counts.
func WithVerbose(verbose bool) ConfigOption {
	return func(c *Config) {
		c.Verbose = verbose
	}
}

// WithProjectDir sets the directory shown in headers.
func WithProjectDir(dir string) ConfigOption {
	return func(c *Config) {
		c.ProjectDir = dir
	}
}

// NewConfig creates a new Config with the given output and options.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer picks styled output for interactive terminals, animated when
// cfg.Live is set, and plain text for CI, pipes, NO_COLOR, or when plain
// output is forced.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || cfg.NoColor || DetectNoColor() {
		return NewPlainRenderer(cfg)
	}
	if !IsTTY(cfg.Output) || DetectCI() {
		return NewPlainRenderer(cfg)
	}
	if cfg.Live {
		if r, err := NewTUIRenderer(cfg); err == nil {
			return r
		}
	}
	return NewStyledRenderer(cfg)
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}

	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
