package spec

import "fmt"

// LoadError reports a spec file that could not be read or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("spec: %v", e.Err)
	}
	return fmt.Sprintf("spec: %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ConfigError reports a structurally invalid spec or a plugin configuration
// rejected by its runner. Phase and Plugin are filled in when known.
type ConfigError struct {
	Phase   string
	Plugin  string
	Message string
}

func (e *ConfigError) Error() string {
	switch {
	case e.Phase != "" && e.Plugin != "":
		return fmt.Sprintf("%s/%s: %s", e.Phase, e.Plugin, e.Message)
	case e.Phase != "":
		return fmt.Sprintf("%s: %s", e.Phase, e.Message)
	default:
		return e.Message
	}
}

// Configf builds a ConfigError scoped to a phase/plugin pair.
func Configf(phase, plugin, format string, args ...any) *ConfigError {
	return &ConfigError{Phase: phase, Plugin: plugin, Message: fmt.Sprintf(format, args...)}
}
