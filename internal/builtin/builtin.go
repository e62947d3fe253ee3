// Package builtin registers the plugins that ship with ogc.
package builtin

import (
	"github.com/kingrea/ogc/internal/runner"
)

// Source tags registry entries contributed by this package.
const Source = "builtin"

// Register installs every built-in plugin into reg.
func Register(reg *runner.Registry) error {
	entries := []runner.Entry{
		{Name: ShellPlugin, Description: "Run shell commands", Source: Source, Factory: NewShell},
		{Name: EnvPlugin, Description: "Require, load and export environment variables", Source: Source, Factory: NewEnv},
	}
	for _, entry := range entries {
		if err := reg.Register(entry); err != nil {
			return err
		}
	}
	return nil
}
