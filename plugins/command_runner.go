package plugins

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"text/template"
	"time"

	"dario.cat/mergo"
	"github.com/Masterminds/sprig/v3"
	"github.com/mitchellh/copystructure"

	"github.com/kingrea/ogc/internal/runner"
	"github.com/kingrea/ogc/internal/spec"
)

const waitDelay = 2 * time.Second

// commandRunner executes a definition's command template for one
// configuration object.
type commandRunner struct {
	runner.Base
	def      Definition
	merged   spec.Config
	rendered string
	timeout  time.Duration
}

// commandData is the value the command template is executed against.
type commandData struct {
	Name    string
	Version string
	Phase   string
	Config  spec.Config
	WorkDir string
	Phases  []string
}

// NewFactory returns a registry factory producing runners for def.
func NewFactory(def Definition) runner.Factory {
	def = def.Normalized()
	return func(rc *runner.Context, phase string, cfg spec.Config) runner.Runner {
		return &commandRunner{Base: runner.NewBase(rc, def.Name, phase, cfg), def: def}
	}
}

func templateFuncs() template.FuncMap {
	return sprig.TxtFuncMap()
}

func (r *commandRunner) Check() error {
	if !r.def.AllowsPhase(r.Phase()) {
		return r.Configf("plugin %s cannot be used in phase %s (allowed: %s)",
			r.def.Name, r.Phase(), strings.Join(r.def.Phases, ", "))
	}
	merged, err := mergeConfig(r.def.Defaults, r.Config())
	if err != nil {
		return r.Configf("merge defaults: %v", err)
	}
	var missing []string
	for _, key := range r.def.Requires {
		if value, ok := merged[key]; !ok || value == nil {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return r.Configf("missing required option(s): %s", strings.Join(missing, ", "))
	}
	if r.def.Timeout != "" {
		timeout, err := time.ParseDuration(r.def.Timeout)
		if err != nil {
			return r.Configf("timeout %q: %v", r.def.Timeout, err)
		}
		r.timeout = timeout
	}
	tmpl, err := parseCommand(r.def.Name, r.def.Command)
	if err != nil {
		return r.Configf("command: %v", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, r.data(merged)); err != nil {
		return r.Configf("render command: %v", err)
	}
	rendered := strings.TrimSpace(buf.String())
	if rendered == "" {
		return r.Configf("command rendered empty")
	}
	r.merged = merged
	r.rendered = rendered
	return nil
}

func (r *commandRunner) Run(ctx context.Context) (runner.Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	rc := r.Context()
	rc.Logger().Info("running", "runner", r.Label(), "cmd", r.rendered)
	cmd := exec.CommandContext(ctx, "sh", "-c", r.rendered)
	cmd.Env = r.environ()
	cmd.WaitDelay = waitDelay
	if rc != nil {
		cmd.Dir = rc.WorkDir
		cmd.Stdout = rc.Stdout
		cmd.Stderr = rc.Stderr
	}
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", r.timeout, err)
		}
		return runner.Result{Status: runner.StatusFailed, Message: err.Error()}, fmt.Errorf("%s: %w", r.Label(), err)
	}
	return runner.Result{Status: runner.StatusCompleted, Message: r.rendered}, nil
}

func (r *commandRunner) data(merged spec.Config) commandData {
	data := commandData{
		Name:    r.def.Name,
		Version: r.def.Version,
		Phase:   r.Phase(),
		Config:  merged,
	}
	if rc := r.Context(); rc != nil {
		data.WorkDir = rc.WorkDir
	}
	if s := r.Spec(); s != nil {
		data.Phases = s.Names()
	}
	return data
}

func (r *commandRunner) environ() []string {
	env := append(os.Environ(),
		"OGC_PHASE="+r.Phase(),
		"OGC_PLUGIN="+r.def.Name,
	)
	keys := make([]string, 0, len(r.def.Env))
	for key := range r.def.Env {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		env = append(env, key+"="+r.def.Env[key])
	}
	return env
}

// mergeConfig layers override on top of a deep copy of defaults. Neither
// input is modified.
func mergeConfig(defaults map[string]any, override spec.Config) (spec.Config, error) {
	merged, err := deepCopy(defaults)
	if err != nil {
		return nil, fmt.Errorf("copy defaults: %w", err)
	}
	if len(override) > 0 {
		src, err := deepCopy(override)
		if err != nil {
			return nil, fmt.Errorf("copy config: %w", err)
		}
		if err := mergo.Merge(&merged, src, mergo.WithOverride); err != nil {
			return nil, err
		}
	}
	return spec.Config(merged), nil
}

func deepCopy(values map[string]any) (map[string]any, error) {
	if len(values) == 0 {
		return map[string]any{}, nil
	}
	copied, err := copystructure.Copy(values)
	if err != nil {
		return nil, err
	}
	return copied.(map[string]any), nil
}
