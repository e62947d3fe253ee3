// Package state holds the per-invocation application state: the loaded spec,
// the debug flag, the logger, and the queues of runners accepted by the
// resolver. One App is built at process entry and passed by reference.
package state

import (
	"github.com/kingrea/ogc/internal/logging"
	"github.com/kingrea/ogc/internal/runner"
	"github.com/kingrea/ogc/internal/spec"
)

// App is the process-wide state for a single invocation. Queues are
// append-only and have a single writer (the resolver); readers must wait for
// resolution to finish.
type App struct {
	Debug   bool
	Spec    *spec.Spec
	Log     logging.Logger
	Context *runner.Context

	order  []string
	queues map[string][]runner.Runner
}

// New builds the state for one run.
func New(s *spec.Spec, log logging.Logger, debug bool, workDir string) *App {
	rc := runner.NewContext(s, log, debug, workDir)
	return &App{
		Debug:   debug,
		Spec:    s,
		Log:     rc.Logger(),
		Context: rc,
		queues:  map[string][]runner.Runner{},
	}
}

// Append queues an accepted runner at the end of its phase.
func (a *App) Append(phase string, r runner.Runner) {
	if _, ok := a.queues[phase]; !ok {
		a.order = append(a.order, phase)
	}
	a.queues[phase] = append(a.queues[phase], r)
}

// Queue returns a copy of the runners accepted for phase.
func (a *App) Queue(phase string) []runner.Runner {
	return append([]runner.Runner{}, a.queues[phase]...)
}

// Phases returns the phases that have at least one runner, in the order they
// first received one.
func (a *App) Phases() []string {
	return append([]string{}, a.order...)
}

// Len returns the total number of queued runners.
func (a *App) Len() int {
	total := 0
	for _, queue := range a.queues {
		total += len(queue)
	}
	return total
}
