package plugins

import (
	"fmt"
	"strings"
	"text/template"
	"time"
	"unicode"

	"github.com/Masterminds/semver/v3"
)

// Definition describes a command plugin loaded from YAML or a Go source file.
//
// The struct mirrors the on-disk schema under .ogc/plugins/*.yaml and is
// intentionally narrow so discovery can validate plugin metadata before
// registering it.
type Definition struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string            `json:"version" yaml:"version"`
	Phases      []string          `json:"phases,omitempty" yaml:"phases,omitempty"`
	Requires    []string          `json:"requires,omitempty" yaml:"requires,omitempty"`
	Defaults    map[string]any    `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	Command     string            `json:"command" yaml:"command"`
	Env         map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Timeout     string            `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Normalized returns a trimmed, copy-on-write variant of the definition.
func (def Definition) Normalized() Definition {
	clone := Definition{
		Name:        strings.TrimSpace(def.Name),
		Description: strings.TrimSpace(def.Description),
		Version:     strings.TrimSpace(def.Version),
		Phases:      trimList(def.Phases),
		Requires:    trimList(def.Requires),
		Command:     strings.TrimSpace(def.Command),
		Timeout:     strings.TrimSpace(def.Timeout),
	}
	if len(def.Defaults) > 0 {
		clone.Defaults = make(map[string]any, len(def.Defaults))
		for key, value := range def.Defaults {
			trimmed := strings.TrimSpace(key)
			if trimmed == "" {
				continue
			}
			clone.Defaults[trimmed] = value
		}
	}
	if len(def.Env) > 0 {
		clone.Env = make(map[string]string, len(def.Env))
		for key, value := range def.Env {
			trimmed := strings.TrimSpace(key)
			if trimmed == "" {
				continue
			}
			clone.Env[trimmed] = value
		}
	}
	return clone
}

// Validate ensures the plugin definition is well-formed.
func (def Definition) Validate() error {
	normalized := def.Normalized()
	if normalized.Name == "" {
		return fmt.Errorf("plugin: name is required")
	}
	if strings.IndexFunc(normalized.Name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("plugin %q: name must not contain whitespace", normalized.Name)
	}
	if normalized.Version == "" {
		return fmt.Errorf("plugin %s: version is required", normalized.Name)
	}
	if _, err := semver.NewVersion(normalized.Version); err != nil {
		return fmt.Errorf("plugin %s: version %q: %w", normalized.Name, normalized.Version, err)
	}
	if normalized.Command == "" {
		return fmt.Errorf("plugin %s: command is required", normalized.Name)
	}
	if _, err := parseCommand(normalized.Name, normalized.Command); err != nil {
		return fmt.Errorf("plugin %s: command: %w", normalized.Name, err)
	}
	if normalized.Timeout != "" {
		timeout, err := time.ParseDuration(normalized.Timeout)
		if err != nil {
			return fmt.Errorf("plugin %s: timeout: %w", normalized.Name, err)
		}
		if timeout <= 0 {
			return fmt.Errorf("plugin %s: timeout must be positive", normalized.Name)
		}
	}
	if err := uniqueList("phases", normalized.Phases); err != nil {
		return fmt.Errorf("plugin %s: %w", normalized.Name, err)
	}
	if err := uniqueList("requires", normalized.Requires); err != nil {
		return fmt.Errorf("plugin %s: %w", normalized.Name, err)
	}
	return nil
}

// SemVer returns the parsed version. Only valid after Validate succeeded.
func (def Definition) SemVer() *semver.Version {
	v, err := semver.NewVersion(strings.TrimSpace(def.Version))
	if err != nil {
		return nil
	}
	return v
}

// AllowsPhase reports whether the plugin may be used in phase.
func (def Definition) AllowsPhase(phase string) bool {
	if len(def.Phases) == 0 {
		return true
	}
	for _, allowed := range def.Phases {
		if allowed == phase {
			return true
		}
	}
	return false
}

func parseCommand(name, command string) (*template.Template, error) {
	return template.New(name).Funcs(templateFuncs()).Option("missingkey=error").Parse(command)
}

func trimList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, strings.TrimSpace(value))
	}
	return out
}

func uniqueList(label string, values []string) error {
	seen := make(map[string]struct{}, len(values))
	for idx, value := range values {
		if value == "" {
			return fmt.Errorf("%s[%d]: value is empty", label, idx)
		}
		if _, exists := seen[value]; exists {
			return fmt.Errorf("%s[%d]: duplicate %s", label, idx, value)
		}
		seen[value] = struct{}{}
	}
	return nil
}
