package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/ogc/internal/logbook"
	"github.com/kingrea/ogc/internal/phase"
	"github.com/kingrea/ogc/internal/runner"
	"github.com/kingrea/ogc/internal/state"
)

// Engine runs resolved queues and records each step in a logbook.
type Engine struct {
	logbook *logbook.Logbook
	clock   func() time.Time
	newID   func() string
}

// Option customizes the engine instance.
type Option func(*Engine)

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithRunID overrides run identifier generation.
func WithRunID(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

// WithLogbook records runner starts and outcomes to lb.
func WithLogbook(lb *logbook.Logbook) Option {
	return func(e *Engine) {
		e.logbook = lb
	}
}

// New builds an engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock: time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Step is the outcome of one runner.
type Step struct {
	Phase      string
	Plugin     string
	Result     runner.Result
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Report summarizes a run.
type Report struct {
	RunID      string
	Steps      []Step
	StartedAt  time.Time
	FinishedAt time.Time
}

// Failed returns the failing step, if any.
func (r Report) Failed() (Step, bool) {
	for _, step := range r.Steps {
		if step.Err != nil {
			return step, true
		}
	}
	return Step{}, false
}

// Run executes every queued runner. It must only be called after resolution
// has finished.
func (e *Engine) Run(ctx context.Context, app *state.App, cat phase.Catalog) (Report, error) {
	if app == nil {
		return Report{}, fmt.Errorf("engine: application state is required")
	}
	report := Report{RunID: e.newID(), StartedAt: e.clock()}
	book := e.logbook.WithRun(report.RunID)
	log := app.Context.Logger()
	e.record(book, logbook.LevelInfo, "run started: %d runner(s)", app.Len())

	for _, name := range cat.Order() {
		queue := app.Queue(name)
		if len(queue) == 0 {
			continue
		}
		log.Info("phase started", "phase", name, "runners", len(queue))
		for _, r := range queue {
			if err := ctx.Err(); err != nil {
				report.FinishedAt = e.clock()
				e.record(book, logbook.LevelWarn, "run cancelled before %s/%s", name, r.Name())
				return report, fmt.Errorf("engine: %w", err)
			}
			step := e.runOne(ctx, book, name, r)
			report.Steps = append(report.Steps, step)
			if step.Err != nil {
				report.FinishedAt = e.clock()
				log.Error("runner failed", "phase", name, "plugin", r.Name(), "err", step.Err)
				e.record(book, logbook.LevelError, "run failed at %s/%s", name, r.Name())
				return report, fmt.Errorf("engine: %s/%s: %w", name, r.Name(), step.Err)
			}
		}
	}
	report.FinishedAt = e.clock()
	e.record(book, logbook.LevelInfo, "run completed in %s", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	return report, nil
}

func (e *Engine) runOne(ctx context.Context, book *logbook.Logbook, phaseName string, r runner.Runner) Step {
	step := Step{Phase: phaseName, Plugin: r.Name(), StartedAt: e.clock()}
	e.record(book, logbook.LevelInfo, "%s/%s started", phaseName, r.Name())
	step.Result, step.Err = r.Run(ctx)
	step.FinishedAt = e.clock()
	if step.Err != nil {
		if step.Result.Status == "" {
			step.Result.Status = runner.StatusFailed
		}
		e.record(book, logbook.LevelError, "%s/%s failed: %v", phaseName, r.Name(), step.Err)
		return step
	}
	if step.Result.Status == "" {
		step.Result.Status = runner.StatusCompleted
	}
	e.record(book, logbook.LevelInfo, "%s/%s %s %s", phaseName, r.Name(), step.Result.Status, step.Result.Message)
	return step
}

// record ignores logbook write failures; the console log still has the event.
func (e *Engine) record(book *logbook.Logbook, level logbook.Level, format string, args ...any) {
	_ = book.Append(level, fmt.Sprintf(format, args...))
}
