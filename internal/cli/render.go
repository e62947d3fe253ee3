package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/kingrea/ogc/internal/engine"
	"github.com/kingrea/ogc/internal/runner"
	"github.com/kingrea/ogc/internal/spec"
)

var (
	phaseStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	pluginStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
)

func renderSummary(w io.Writer, sess *session) error {
	app := sess.app
	fmt.Fprintf(w, "Resolved %d runner(s) across %d phase(s) from %s\n",
		app.Len(), len(app.Phases()), strings.Join(app.Spec.Sources, ", "))
	return nil
}

func renderPlan(w io.Writer, sess *session) error {
	app := sess.app
	if app.Len() == 0 {
		fmt.Fprintln(w, mutedStyle.Render("Nothing queued."))
		return nil
	}
	for _, name := range sess.catalog.Order() {
		queue := app.Queue(name)
		if len(queue) == 0 {
			continue
		}
		fmt.Fprintln(w, phaseStyle.Render(name))
		for idx, r := range queue {
			fmt.Fprintf(w, "  %d. %s %s\n", idx+1, pluginStyle.Render(r.Name()), mutedStyle.Render(describeConfig(r.Config())))
		}
	}
	return nil
}

func renderReport(w io.Writer, report engine.Report) {
	for _, step := range report.Steps {
		label := fmt.Sprintf("%s/%s", step.Phase, step.Plugin)
		elapsed := step.FinishedAt.Sub(step.StartedAt).Round(time.Millisecond)
		if step.Err != nil {
			fmt.Fprintf(w, "%s %s %s\n", failStyle.Render("✗"), label, mutedStyle.Render(step.Err.Error()))
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n", pluginStyle.Render("✓"), label, mutedStyle.Render(fmt.Sprintf("%s in %s", step.Result.Status, elapsed)))
	}
	if _, failed := report.Failed(); failed {
		return
	}
	fmt.Fprintf(w, "Run %s finished: %d runner(s)\n", report.RunID, len(report.Steps))
}

func renderPlugins(reg *runner.Registry) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers("NAME", "SOURCE", "DESCRIPTION")
	for _, name := range reg.Names() {
		entry, _ := reg.Entry(name)
		t.Row(entry.Name, entry.Source, entry.Description)
	}
	return t.String()
}

// describeConfig renders a one-line key=value summary of cfg.
func describeConfig(cfg spec.Config) string {
	if len(cfg) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(cfg))
	for key := range cfg {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, cfg[key]))
	}
	return strings.Join(parts, " ")
}
