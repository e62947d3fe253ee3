// internal/config/config.go
//
// This package handles settings and the .ogc directory structure.
// Settings come from (lowest to highest precedence) built-in defaults,
// .ogc/config.yaml, OGC_* environment variables and command-line flags.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// Dir is the name of the directory we create in each project
	Dir = ".ogc"

	// DefaultSpecFile is picked up automatically when it exists in the project.
	DefaultSpecFile = "ogc.yml"

	// EnvPrefix scopes environment overrides, e.g. OGC_DEBUG.
	EnvPrefix = "OGC"
)

const defaultConfigYAML = `# ogc project settings

# Spec file loaded automatically when present in the project directory.
spec_file: ogc.yml

plugins:
  # Directories scanned for plugin definitions (*.yaml, *.yml, *.go).
  # Relative paths resolve against the project directory.
  dirs:
    - .ogc/plugins

log:
  level: info
  # Plain-text copy of every log entry, relative to the project directory.
  file: .ogc/logs/ogc.log
  json: false
`

// PluginSettings controls plugin discovery.
type PluginSettings struct {
	Dirs []string `mapstructure:"dirs"`
}

// LogSettings controls the console and file logger.
type LogSettings struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
	JSON  bool   `mapstructure:"json"`
}

// Settings models .ogc/config.yaml merged with env and flags.
type Settings struct {
	Debug    bool           `mapstructure:"debug"`
	SpecFile string         `mapstructure:"spec_file"`
	Plugins  PluginSettings `mapstructure:"plugins"`
	Log      LogSettings    `mapstructure:"log"`
}

// Config holds the runtime configuration for ogc.
type Config struct {
	// ProjectDir is the directory where the user ran `ogc` from
	ProjectDir string

	// OgcDir is ProjectDir/.ogc
	OgcDir string

	Settings Settings
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("spec_file", DefaultSpecFile)
	v.SetDefault("plugins.dirs", []string{filepath.Join(Dir, "plugins")})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(Dir, "logs", "ogc.log"))
	v.SetDefault("log.json", false)
}

// Load reads settings for projectDir into a Config. Flags must already be
// bound to v by the caller. A missing config file is not an error.
func Load(v *viper.Viper, projectDir string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	absolute, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve project dir: %w", err)
	}
	cfg := &Config{ProjectDir: absolute, OgcDir: filepath.Join(absolute, Dir)}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	// OGC_LOG_LEVEL for log.level
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.ConfigFileUsed() == "" {
		v.SetConfigFile(cfg.ConfigPath())
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("config: decode settings: %w", err)
	}
	settings.normalize()
	if err := settings.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Settings = settings
	return cfg, nil
}

// InitDir creates the .ogc directory structure in the given project directory.
//
// Structure created:
// .ogc/
// ├── config.yaml  <- project settings (left untouched if present)
// ├── logs/        <- console log copy and the run logbook
// └── plugins/     <- plugin definitions discovered at start-up
func InitDir(projectDir string) error {
	root := filepath.Join(projectDir, Dir)
	dirs := []string{
		filepath.Join(root, "logs"),
		filepath.Join(root, "plugins"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureConfigFile(filepath.Join(root, "config.yaml"))
}

// ConfigPath returns the on-disk location for the project settings file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.OgcDir, "config.yaml")
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.OgcDir, "logs")
}

// LogbookPath returns the file the engine records runs in.
func (c *Config) LogbookPath() string {
	return filepath.Join(c.LogsDir(), "runs.log")
}

// LogFile returns the absolute log file path, or "" when file logging is off.
func (c *Config) LogFile() string {
	return c.resolve(c.Settings.Log.File)
}

// PluginDirs returns the absolute plugin directories in configured order.
func (c *Config) PluginDirs() []string {
	dirs := make([]string, 0, len(c.Settings.Plugins.Dirs))
	for _, dir := range c.Settings.Plugins.Dirs {
		if resolved := c.resolve(dir); resolved != "" {
			dirs = append(dirs, resolved)
		}
	}
	return dirs
}

// Initialized reports whether the .ogc directory exists. File logging and the
// run logbook only write into an initialized project.
func (c *Config) Initialized() bool {
	info, err := os.Stat(c.OgcDir)
	return err == nil && info.IsDir()
}

// DefaultSpecPath returns the project spec file path, or "" if it does not exist.
func (c *Config) DefaultSpecPath() string {
	path := c.resolve(c.Settings.SpecFile)
	if path == "" {
		return ""
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ""
	}
	return path
}

func (c *Config) resolve(candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, trimmed[2:])
		}
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Join(c.ProjectDir, trimmed)
}

func (s *Settings) normalize() {
	s.SpecFile = strings.TrimSpace(s.SpecFile)
	s.Log.Level = strings.ToLower(strings.TrimSpace(s.Log.Level))
	s.Log.File = strings.TrimSpace(s.Log.File)
	dirs := s.Plugins.Dirs[:0]
	for _, dir := range s.Plugins.Dirs {
		if trimmed := strings.TrimSpace(dir); trimmed != "" && !contains(dirs, trimmed) {
			dirs = append(dirs, trimmed)
		}
	}
	s.Plugins.Dirs = dirs
	if s.Debug {
		s.Log.Level = "debug"
	}
}

func (s Settings) validate() error {
	switch s.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error (got %q)", s.Log.Level)
	}
	return nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
