package builtin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/kingrea/ogc/internal/runner"
	"github.com/kingrea/ogc/internal/spec"
)

// ShellPlugin is the registry name of the shell plugin.
const ShellPlugin = "shell"

// waitDelay bounds how long Run waits for output pipes after the command is
// killed, since grandchildren may keep them open.
const waitDelay = 2 * time.Second

type shellConfig struct {
	Description string            `mapstructure:"description"`
	Cmd         string            `mapstructure:"cmd" validate:"required_without=Script,excluded_with=Script"`
	Script      []string          `mapstructure:"script" validate:"omitempty,dive,required"`
	Env         map[string]string `mapstructure:"env"`
	WorkDir     string            `mapstructure:"workdir"`
	Timeout     string            `mapstructure:"timeout"`
	Depends     []string          `mapstructure:"depends" validate:"omitempty,dive,required"`
	// Shell runs each line through sh -c. When false the line is split with
	// shell quoting rules and executed directly.
	Shell *bool `mapstructure:"shell"`
}

type shellRunner struct {
	runner.Base
	cfg     shellConfig
	lines   [][]string
	timeout time.Duration
}

// NewShell builds a shell runner. Configuration is interpreted in Check.
func NewShell(rc *runner.Context, phase string, cfg spec.Config) runner.Runner {
	return &shellRunner{Base: runner.NewBase(rc, ShellPlugin, phase, cfg)}
}

func (r *shellRunner) useShell() bool {
	return r.cfg.Shell == nil || *r.cfg.Shell
}

func (r *shellRunner) commands() []string {
	if strings.TrimSpace(r.cfg.Cmd) != "" {
		return []string{r.cfg.Cmd}
	}
	return r.cfg.Script
}

func (r *shellRunner) Check() error {
	if err := decodeConfig(r.Config(), &r.cfg); err != nil {
		return r.Configf("%v", err)
	}
	if r.cfg.Timeout != "" {
		timeout, err := time.ParseDuration(r.cfg.Timeout)
		if err != nil {
			return r.Configf("timeout %q: %v", r.cfg.Timeout, err)
		}
		if timeout <= 0 {
			return r.Configf("timeout must be positive, got %s", r.cfg.Timeout)
		}
		r.timeout = timeout
	}
	for _, dep := range r.cfg.Depends {
		if dep == r.Phase() {
			return r.Configf("phase %s cannot depend on itself", dep)
		}
		if !r.Spec().Has(dep) {
			return r.Configf("depends on phase %s, which the spec does not declare", dep)
		}
	}
	r.lines = nil
	for idx, line := range r.commands() {
		if r.useShell() {
			r.lines = append(r.lines, []string{"sh", "-c", line})
			continue
		}
		args, err := shlex.Split(line)
		if err != nil {
			return r.Configf("command %d: %v", idx+1, err)
		}
		if len(args) == 0 {
			return r.Configf("command %d is empty", idx+1)
		}
		r.lines = append(r.lines, args)
	}
	if len(r.lines) == 0 {
		return r.Configf("no commands to run: set cmd or a non-empty script")
	}
	return nil
}

func (r *shellRunner) Run(ctx context.Context) (runner.Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	rc := r.Context()
	log := rc.Logger()
	dir := r.workDir()
	env := r.environ()
	for _, args := range r.lines {
		log.Info("running", "runner", r.Label(), "cmd", strings.Join(args, " "))
		cmd := exec.CommandContext(ctx, args[0], args[1:]...)
		cmd.Dir = dir
		cmd.Env = env
		cmd.WaitDelay = waitDelay
		if rc != nil {
			cmd.Stdout = rc.Stdout
			cmd.Stderr = rc.Stderr
		}
		if err := cmd.Run(); err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				err = fmt.Errorf("timed out after %s: %w", r.timeout, err)
			}
			return runner.Result{Status: runner.StatusFailed, Message: err.Error()}, fmt.Errorf("%s: %w", r.Label(), err)
		}
	}
	return runner.Result{
		Status:  runner.StatusCompleted,
		Message: fmt.Sprintf("%d command(s) succeeded", len(r.lines)),
	}, nil
}

func (r *shellRunner) workDir() string {
	base := ""
	if rc := r.Context(); rc != nil {
		base = rc.WorkDir
	}
	dir := strings.TrimSpace(r.cfg.WorkDir)
	if dir == "" {
		return base
	}
	if filepath.IsAbs(dir) || base == "" {
		return filepath.Clean(dir)
	}
	return filepath.Join(base, dir)
}

func (r *shellRunner) environ() []string {
	env := os.Environ()
	keys := make([]string, 0, len(r.cfg.Env))
	for key := range r.cfg.Env {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		env = append(env, key+"="+r.cfg.Env[key])
	}
	return env
}
