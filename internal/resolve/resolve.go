package resolve

import (
	"fmt"

	"github.com/kingrea/ogc/internal/phase"
	"github.com/kingrea/ogc/internal/runner"
	"github.com/kingrea/ogc/internal/spec"
	"github.com/kingrea/ogc/internal/state"
)

// Options tunes diagnostics emitted during resolution.
type Options struct {
	// InstallHint is appended to the "could not find plugin" diagnostic.
	InstallHint func(plugin string) string
}

// Resolve walks app.Spec in declaration order and fills app's phase queues.
// It stops at the first unknown phase or rejected configuration; runners
// queued before that point stay queued but callers must treat the run as
// failed.
func Resolve(app *state.App, reg *runner.Registry, cat phase.Catalog, opts ...Options) error {
	if app == nil {
		return fmt.Errorf("resolve: application state is required")
	}
	if reg == nil {
		return fmt.Errorf("resolve: plugin registry is required")
	}
	var opt Options
	if len(opts) > 0 {
		opt = opts[0]
	}
	log := app.Context.Logger()
	for _, ph := range app.Spec.Phases() {
		switch cat.Classify(ph.Name) {
		case phase.ClassCore:
			continue
		case phase.ClassUnknown:
			err := &UnknownPhaseError{Phase: ph.Name}
			log.Error(err.Error())
			return err
		}
		if !ph.IsMapping() {
			err := spec.Configf(ph.Name, "", "phase body must be a mapping of plugin names, got %T", ph.Value)
			log.Error(err.Error())
			return err
		}
		if err := resolvePhase(app, reg, ph, opt); err != nil {
			return err
		}
	}
	return nil
}

func resolvePhase(app *state.App, reg *runner.Registry, ph *spec.Phase, opt Options) error {
	log := app.Context.Logger()
	for _, plugin := range ph.Plugins {
		factory, ok := reg.Lookup(plugin.Name)
		if !ok {
			log.Debug(notFoundMessage(plugin.Name, opt))
			continue
		}
		configs, err := plugin.Configs(ph.Name)
		if err != nil {
			log.Error(err.Error())
			return err
		}
		log.Info(fmt.Sprintf("%s phase: found %d %s plugin(s)", ph.Name, len(configs), plugin.Name))
		for idx, cfg := range configs {
			r := factory(app.Context, ph.Name, cfg)
			if r == nil {
				err := spec.Configf(ph.Name, plugin.Name, "plugin factory returned no runner")
				log.Error(err.Error())
				return err
			}
			if err := r.Check(); err != nil {
				log.Error(err.Error(), "phase", ph.Name, "plugin", plugin.Name)
				return &CheckError{Phase: ph.Name, Plugin: plugin.Name, Index: idx, Err: err}
			}
			app.Append(ph.Name, r)
		}
	}
	return nil
}

func notFoundMessage(plugin string, opt Options) string {
	msg := fmt.Sprintf("Could not find plugin %s", plugin)
	if opt.InstallHint != nil {
		if hint := opt.InstallHint(plugin); hint != "" {
			msg += ", " + hint
		}
	}
	return msg
}
