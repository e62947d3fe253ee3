package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/ogc/internal/config"
	"github.com/kingrea/ogc/internal/engine"
	"github.com/kingrea/ogc/internal/logbook"
	"github.com/kingrea/ogc/internal/tui"
)

func newPlanCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Resolve the spec and show the queued runners per phase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, opts, true)
			if err != nil {
				return err
			}
			defer sess.Close()
			return renderPlan(cmd.OutOrStdout(), sess)
		},
	}
}

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Resolve the spec and execute every queued runner",
		Long: `Resolve the spec, then execute the queued runners phase by phase in
catalog order (setup, build, test, deploy, teardown). Execution stops at the
first failing runner. Once the project is initialized with "ogc init", each
run is recorded in .ogc/logs/runs.log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, opts, true)
			if err != nil {
				return err
			}
			defer sess.Close()

			lb, err := sess.logbook()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			report, err := engine.New(engine.WithLogbook(lb)).Run(ctx, sess.app, sess.catalog)
			renderReport(cmd.OutOrStdout(), report)
			return logged(err)
		},
	}
}

func newViewCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Browse the resolved plan interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, opts, true)
			if err != nil {
				return err
			}
			defer sess.Close()

			lb, _ := sess.logbook()
			p := tea.NewProgram(
				tui.NewApp(sess.app, sess.catalog, lb),
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("cli: run viewer: %w", err)
			}
			return nil
		},
	}
}

func newPluginsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List the registered plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, opts, false)
			if err != nil {
				return err
			}
			defer sess.Close()

			fmt.Fprintln(cmd.OutOrStdout(), renderPlugins(sess.reg))
			return nil
		},
	}
}

func newInitCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the .ogc directory and default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := opts.workDir()
			if err != nil {
				return err
			}
			if err := config.InitDir(dir); err != nil {
				return fmt.Errorf("cli: init %s: %w", dir, err)
			}
			cfg, err := config.Load(opts.v, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s\n", cfg.OgcDir)
			return nil
		},
	}
}

func newLogsCommand(opts *options) *cobra.Command {
	var lines int
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the most recent run log entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := opts.workDir()
			if err != nil {
				return err
			}
			cfg, err := config.Load(opts.v, dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !cfg.Initialized() {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}
			lb, err := logbook.New(cfg.LogbookPath())
			if err != nil {
				return fmt.Errorf("cli: open logbook: %w", err)
			}
			entries, err := lb.Tail(lines)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}
			for _, entry := range entries {
				fmt.Fprintln(out, entry)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "number of entries to show")
	return cmd
}
