package runner

import (
	"context"
	"fmt"

	"github.com/kingrea/ogc/internal/spec"
)

// Result captures the outcome of a runner execution.
type Result struct {
	Status  Status
	Message string
}

// Status enumerates runner outcomes.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Runner is a plugin instance bound to one configuration object. Check is
// called exactly once, before the runner is queued; Run is only ever called on
// runners whose Check succeeded.
type Runner interface {
	Name() string
	Phase() string
	Config() spec.Config
	Check() error
	Run(ctx context.Context) (Result, error)
}

// Base provides common plumbing for runners (identity + configuration).
type Base struct {
	name   string
	phase  string
	config spec.Config
	ctx    *Context
}

// NewBase seeds the helper for a plugin instance.
func NewBase(rc *Context, name, phase string, cfg spec.Config) Base {
	if cfg == nil {
		cfg = spec.Config{}
	}
	return Base{name: name, phase: phase, config: cfg, ctx: rc}
}

// Name implements Runner.Name.
func (b *Base) Name() string { return b.name }

// Phase implements Runner.Phase.
func (b *Base) Phase() string { return b.phase }

// Config implements Runner.Config.
func (b *Base) Config() spec.Config { return b.config }

// Context returns the shared run context the runner was built with.
func (b *Base) Context() *Context { return b.ctx }

// Spec returns the full loaded spec for cross-phase lookups.
func (b *Base) Spec() *spec.Spec {
	if b.ctx == nil {
		return nil
	}
	return b.ctx.Spec
}

// Configf returns a configuration error scoped to this runner.
func (b *Base) Configf(format string, args ...any) *spec.ConfigError {
	return spec.Configf(b.phase, b.name, format, args...)
}

// Label renders "phase/name" for logs.
func (b *Base) Label() string {
	return fmt.Sprintf("%s/%s", b.phase, b.name)
}
