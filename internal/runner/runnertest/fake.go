// Package runnertest provides scriptable runners for tests of code that
// resolves or executes plugin queues.
package runnertest

import (
	"context"
	"sync"

	"github.com/kingrea/ogc/internal/runner"
	"github.com/kingrea/ogc/internal/spec"
)

// Fake is a runner whose Check and Run outcomes are fixed by its plugin.
type Fake struct {
	runner.Base
	plugin *Plugin
	checks int
}

// Check implements runner.Runner.
func (f *Fake) Check() error {
	f.checks++
	if f.plugin.CheckErr != nil {
		return f.plugin.CheckErr(f.Phase(), f.Config())
	}
	return nil
}

// Checks returns how many times Check was called.
func (f *Fake) Checks() int { return f.checks }

// Run implements runner.Runner.
func (f *Fake) Run(ctx context.Context) (runner.Result, error) {
	f.plugin.record(f)
	if f.plugin.RunErr != nil {
		return runner.Result{Status: runner.StatusFailed}, f.plugin.RunErr
	}
	return runner.Result{Status: runner.StatusCompleted}, nil
}

// Plugin is a factory that builds Fake runners and remembers them.
type Plugin struct {
	Name string
	// CheckErr decides the Check outcome per instance; nil means always valid.
	CheckErr func(phase string, cfg spec.Config) error
	RunErr   error

	mu      sync.Mutex
	built   []*Fake
	ran     []*Fake
	runLogs *[]string
}

// NewPlugin returns a plugin whose runners always pass Check.
func NewPlugin(name string) *Plugin {
	return &Plugin{Name: name}
}

// Factory implements runner.Factory.
func (p *Plugin) Factory(rc *runner.Context, phase string, cfg spec.Config) runner.Runner {
	f := &Fake{Base: runner.NewBase(rc, p.Name, phase, cfg), plugin: p}
	p.mu.Lock()
	p.built = append(p.built, f)
	p.mu.Unlock()
	return f
}

// Entry returns a registry entry for the plugin.
func (p *Plugin) Entry() runner.Entry {
	return runner.Entry{Name: p.Name, Source: "test", Factory: p.Factory}
}

// Built returns every runner the factory produced.
func (p *Plugin) Built() []*Fake {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Fake{}, p.built...)
}

// Ran returns the runners that were executed, in order.
func (p *Plugin) Ran() []*Fake {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Fake{}, p.ran...)
}

// RecordInto appends "phase/plugin" to log each time a runner executes, so
// tests can assert ordering across plugins.
func (p *Plugin) RecordInto(log *[]string) *Plugin {
	p.runLogs = log
	return p
}

func (p *Plugin) record(f *Fake) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ran = append(p.ran, f)
	if p.runLogs != nil {
		*p.runLogs = append(*p.runLogs, f.Label())
	}
}
