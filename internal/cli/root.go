// Package cli wires the ogc command group: settings, logging, plugin
// discovery, spec loading and resolution, then one action per subcommand.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kingrea/ogc/internal/phase"
)

// options carries flag values shared by every subcommand.
type options struct {
	v          *viper.Viper
	specs      []string
	projectDir string
	catalog    phase.Catalog
}

// NewRootCommand builds the ogc command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{v: viper.New(), catalog: phase.Default()}
	root := &cobra.Command{
		Use:   "ogc",
		Short: "Spec-driven task runner",
		Long: `ogc reads one or more spec files describing the phases of a
build, test and deploy pipeline, resolves the plugins each phase names,
validates their configuration and queues them for execution.

A local ogc.yml is always loaded first when present; --spec adds more files
whose values override earlier ones.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, opts, true)
			if err != nil {
				return err
			}
			defer sess.Close()
			return renderSummary(cmd.OutOrStdout(), sess)
		},
	}

	flags := root.PersistentFlags()
	flags.StringArrayVar(&opts.specs, "spec", nil, "spec file to load (repeatable; later files override earlier ones)")
	flags.Bool("debug", false, "enable debug logging")
	flags.StringVarP(&opts.projectDir, "dir", "C", "", "project directory (default is the current directory)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	bindFlags(opts.v, flags, map[string]string{
		"debug":     "debug",
		"log.level": "log-level",
	})

	root.AddCommand(
		newPlanCommand(opts),
		newRunCommand(opts),
		newViewCommand(opts),
		newPluginsCommand(opts),
		newInitCommand(opts),
		newLogsCommand(opts),
	)
	return root
}

// Execute runs the command tree with args and reports any error not already
// logged to stderr.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if err != nil {
		var logged *loggedError
		if !errors.As(err, &logged) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
	}
	return err
}

// loggedError marks errors the session logger already reported.
type loggedError struct {
	err error
}

func (e *loggedError) Error() string { return e.err.Error() }

func (e *loggedError) Unwrap() error { return e.err }

func logged(err error) error {
	if err == nil {
		return nil
	}
	return &loggedError{err: err}
}

// bindFlags maps settings keys to the flags that override them.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if flag := flags.Lookup(name); flag != nil {
			_ = v.BindPFlag(key, flag)
		}
	}
}

func (o *options) workDir() (string, error) {
	if o.projectDir != "" {
		return o.projectDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("cli: get working directory: %w", err)
	}
	return cwd, nil
}
