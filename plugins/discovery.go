package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kingrea/ogc/internal/builtin"
	"github.com/kingrea/ogc/internal/config"
	"github.com/kingrea/ogc/internal/runner"
)

const definitionPattern = "**/*.{yaml,yml,go}"

// Discover builds the plugin registry for a project: built-in plugins first,
// then every definition found under the configured plugin directories.
func Discover(cfg *config.Config) (*runner.Registry, error) {
	reg := runner.NewRegistry()
	if err := builtin.Register(reg); err != nil {
		return nil, err
	}
	if cfg == nil {
		return reg, nil
	}
	if err := RegisterDefinitions(reg, cfg.PluginDirs()...); err != nil {
		return nil, err
	}
	return reg, nil
}

// RegisterDefinitions loads plugin definitions from dirs and registers them.
// Two definitions with the same name, or a definition shadowing a plugin
// already in reg, is an error.
func RegisterDefinitions(reg *runner.Registry, dirs ...string) error {
	if reg == nil {
		return fmt.Errorf("plugin: registry is required")
	}
	for _, dir := range dirs {
		files, err := LoadDefinitionDir(dir)
		if err != nil {
			return err
		}
		for _, file := range files {
			def := file.Definition
			if err := reg.Register(runner.Entry{
				Name:        def.Name,
				Description: describe(def),
				Source:      file.Path,
				Factory:     NewFactory(def),
			}); err != nil {
				return fmt.Errorf("plugin: register %s from %s: %w", def.Name, file.Path, err)
			}
		}
	}
	return nil
}

// LoadDefinitionDir returns every YAML and Go plugin definition below dir,
// sorted by path. A missing directory yields no definitions.
func LoadDefinitionDir(dir string) ([]DefinitionFile, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	info, err := os.Stat(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("plugin: stat %s: %w", trimmed, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("plugin: %s is not a directory", trimmed)
	}
	matches, err := doublestar.Glob(os.DirFS(trimmed), definitionPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("plugin: scan %s: %w", trimmed, err)
	}
	sort.Strings(matches)
	var defs []DefinitionFile
	for _, match := range matches {
		path := filepath.Join(trimmed, filepath.FromSlash(match))
		switch filepath.Ext(match) {
		case ".go":
			if strings.HasSuffix(match, "_test.go") {
				continue
			}
			fileDefs, err := LoadGoDefinitionFile(path)
			if err != nil {
				return nil, err
			}
			defs = append(defs, fileDefs...)
		default:
			file, err := LoadDefinitionFile(path)
			if err != nil {
				return nil, err
			}
			defs = append(defs, file)
		}
	}
	return defs, nil
}

// InstallHint returns a resolve hint pointing users at the first plugin directory.
func InstallHint(cfg *config.Config) func(string) string {
	return func(name string) string {
		if cfg == nil {
			return ""
		}
		dirs := cfg.PluginDirs()
		if len(dirs) == 0 {
			return ""
		}
		return fmt.Sprintf("install with: add %s.yaml to %s", name, dirs[0])
	}
}

func describe(def Definition) string {
	label := def.Description
	if label == "" {
		label = "Command plugin"
	}
	return fmt.Sprintf("%s (v%s)", label, def.SemVer())
}
