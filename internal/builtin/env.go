package builtin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/kingrea/ogc/internal/runner"
	"github.com/kingrea/ogc/internal/spec"
)

// EnvPlugin is the registry name of the env plugin.
const EnvPlugin = "env"

type envConfig struct {
	Description string            `mapstructure:"description"`
	Requires    []string          `mapstructure:"requires" validate:"omitempty,dive,required"`
	File        string            `mapstructure:"file"`
	Set         map[string]string `mapstructure:"set"`
}

type envRunner struct {
	runner.Base
	cfg      envConfig
	fromFile map[string]string
}

// NewEnv builds an env runner. Configuration is interpreted in Check.
func NewEnv(rc *runner.Context, phase string, cfg spec.Config) runner.Runner {
	return &envRunner{Base: runner.NewBase(rc, EnvPlugin, phase, cfg)}
}

func (r *envRunner) Check() error {
	if err := decodeConfig(r.Config(), &r.cfg); err != nil {
		return r.Configf("%v", err)
	}
	if path := r.filePath(); path != "" {
		values, err := godotenv.Read(path)
		if err != nil {
			return r.Configf("read env file %s: %v", path, err)
		}
		r.fromFile = values
	}
	var missing []string
	for _, name := range r.cfg.Requires {
		if _, ok := r.lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return r.Configf("required environment variable(s) not set: %s", strings.Join(missing, ", "))
	}
	return nil
}

// lookup resolves a variable the way Run will export it: set wins over the
// process environment, which wins over the env file.
func (r *envRunner) lookup(name string) (string, bool) {
	if value, ok := r.cfg.Set[name]; ok {
		return value, true
	}
	if value, ok := os.LookupEnv(name); ok {
		return value, true
	}
	value, ok := r.fromFile[name]
	return value, ok
}

func (r *envRunner) Run(_ context.Context) (runner.Result, error) {
	exported := 0
	for _, key := range sortedStringKeys(r.fromFile) {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, r.fromFile[key]); err != nil {
			return runner.Result{Status: runner.StatusFailed}, fmt.Errorf("%s: export %s: %w", r.Label(), key, err)
		}
		exported++
	}
	for _, key := range sortedStringKeys(r.cfg.Set) {
		if err := os.Setenv(key, r.cfg.Set[key]); err != nil {
			return runner.Result{Status: runner.StatusFailed}, fmt.Errorf("%s: export %s: %w", r.Label(), key, err)
		}
		exported++
	}
	r.Context().Logger().Debug("exported environment", "runner", r.Label(), "count", exported)
	return runner.Result{
		Status:  runner.StatusCompleted,
		Message: fmt.Sprintf("exported %d variable(s)", exported),
	}, nil
}

func (r *envRunner) filePath() string {
	path := strings.TrimSpace(r.cfg.File)
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if rc := r.Context(); rc != nil && rc.WorkDir != "" {
		return filepath.Join(rc.WorkDir, path)
	}
	return path
}

func sortedStringKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
