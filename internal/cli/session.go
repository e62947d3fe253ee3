package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kingrea/ogc/internal/config"
	"github.com/kingrea/ogc/internal/logbook"
	"github.com/kingrea/ogc/internal/logging"
	"github.com/kingrea/ogc/internal/phase"
	"github.com/kingrea/ogc/internal/resolve"
	"github.com/kingrea/ogc/internal/runner"
	"github.com/kingrea/ogc/internal/spec"
	"github.com/kingrea/ogc/internal/state"
	"github.com/kingrea/ogc/plugins"
)

// errNoSpec is returned when neither a local spec nor --spec is available.
var errNoSpec = errors.New("cli: no spec found; create ogc.yml or pass --spec")

// session is everything one invocation builds before acting.
type session struct {
	cfg     *config.Config
	log     *logging.Console
	reg     *runner.Registry
	app     *state.App
	catalog phase.Catalog
}

// openSession loads settings, the logger and the plugin registry. When
// withSpec is set it also loads the spec files and resolves them into the
// application state.
func openSession(cmd *cobra.Command, opts *options, withSpec bool) (*session, error) {
	dir, err := opts.workDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(opts.v, dir)
	if err != nil {
		return nil, err
	}
	logFile := ""
	if cfg.Initialized() {
		logFile = cfg.LogFile()
	}
	log, err := logging.New(logging.Options{
		Level:  logging.Level(cfg.Settings.Log.Level),
		Output: cmd.ErrOrStderr(),
		File:   logFile,
		JSON:   cfg.Settings.Log.JSON,
	})
	if err != nil {
		return nil, err
	}
	sess := &session{cfg: cfg, log: log, catalog: opts.catalog}

	sess.reg, err = plugins.Discover(cfg)
	if err != nil {
		log.Error("plugin discovery failed", "err", err)
		sess.Close()
		return nil, logged(err)
	}
	log.Debug("plugins registered", "count", sess.reg.Len())
	if !withSpec {
		return sess, nil
	}

	paths, err := sess.specPaths(opts.specs)
	if err != nil {
		sess.Close()
		return nil, err
	}
	s, err := spec.Load(paths...)
	if err != nil {
		log.Error(err.Error())
		sess.Close()
		return nil, logged(err)
	}
	log.Debug("spec loaded", "files", len(s.Sources), "phases", s.Len())

	sess.app = state.New(s, log, cfg.Settings.Debug, cfg.ProjectDir)
	sess.app.Context.Stdout = cmd.OutOrStdout()
	sess.app.Context.Stderr = cmd.ErrOrStderr()
	if err := resolve.Resolve(sess.app, sess.reg, sess.catalog, resolve.Options{
		InstallHint: plugins.InstallHint(cfg),
	}); err != nil {
		sess.Close()
		return nil, logged(err)
	}
	return sess, nil
}

// specPaths lists the spec files to load: the local default spec first, then
// each --spec in order. Relative paths resolve against the project directory.
func (s *session) specPaths(requested []string) ([]string, error) {
	var paths []string
	seen := map[string]struct{}{}
	if local := s.cfg.DefaultSpecPath(); local != "" {
		paths = append(paths, local)
		seen[local] = struct{}{}
	}
	for _, raw := range requested {
		path := raw
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.cfg.ProjectDir, path)
		}
		path = filepath.Clean(path)
		if _, err := os.Stat(path); err != nil {
			s.log.Error(fmt.Sprintf("Unable to find spec: %s", raw))
			return nil, logged(fmt.Errorf("cli: unable to find spec %s: %w", raw, err))
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		s.log.Error(errNoSpec.Error())
		return nil, logged(errNoSpec)
	}
	return paths, nil
}

// logbook opens the run logbook, or returns nil when the project has not been
// initialized with `ogc init`.
func (s *session) logbook() (*logbook.Logbook, error) {
	if !s.cfg.Initialized() {
		return nil, nil
	}
	lb, err := logbook.New(s.cfg.LogbookPath())
	if err != nil {
		return nil, fmt.Errorf("cli: open logbook: %w", err)
	}
	return lb, nil
}

// Close releases the log file.
func (s *session) Close() {
	if s == nil || s.log == nil {
		return
	}
	_ = s.log.Close()
}
