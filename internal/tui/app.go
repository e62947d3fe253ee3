// internal/tui/app.go
//
// Plan viewer for `ogc view`. It uses bubbletea, which follows The Elm
// Architecture:
//
// 1. Model: the resolved queues and the list cursor
// 2. Update: key presses and window resizes
// 3. View: the runner list beside the selected runner's configuration
//
// The viewer never runs anything; it only browses what resolution queued.

package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/ogc/internal/logbook"
	"github.com/kingrea/ogc/internal/phase"
	"github.com/kingrea/ogc/internal/spec"
	"github.com/kingrea/ogc/internal/state"
)

const logPanelLines = 5

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).MarginBottom(1)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
)

// runnerItem is one queued runner as shown in the list.
type runnerItem struct {
	phase  string
	plugin string
	index  int
	total  int
	config spec.Config
}

func (i runnerItem) Title() string { return fmt.Sprintf("%s/%s", i.phase, i.plugin) }

func (i runnerItem) Description() string {
	return fmt.Sprintf("runner %d of %d · %d option(s)", i.index+1, i.total, len(i.config))
}

func (i runnerItem) FilterValue() string { return i.Title() }

// App is the bubbletea model behind `ogc view`.
type App struct {
	runners   list.Model
	items     []runnerItem
	logbook   *logbook.Logbook
	sources   []string
	width     int
	height    int
	statusMsg string
}

// NewApp builds the viewer over the queues in app, ordered by the catalog.
func NewApp(app *state.App, cat phase.Catalog, lb *logbook.Logbook) *App {
	items := buildItems(app, cat)
	listItems := make([]list.Item, len(items))
	for i := range items {
		listItems[i] = items[i]
	}
	runners := list.New(listItems, list.NewDefaultDelegate(), 0, 0)
	runners.Title = "Queued runners"
	runners.SetShowStatusBar(false)
	runners.SetFilteringEnabled(false)

	a := &App{runners: runners, items: items, logbook: lb}
	if app != nil && app.Spec != nil {
		a.sources = append(a.sources, app.Spec.Sources...)
	}
	if len(items) == 0 {
		a.statusMsg = "Nothing queued. Add plugins to a phase and try again."
	} else {
		a.statusMsg = "↑/↓ select · q quit"
	}
	return a
}

func buildItems(app *state.App, cat phase.Catalog) []runnerItem {
	if app == nil {
		return nil
	}
	var items []runnerItem
	for _, name := range cat.Order() {
		queue := app.Queue(name)
		for idx, r := range queue {
			items = append(items, runnerItem{
				phase:  name,
				plugin: r.Name(),
				index:  idx,
				total:  len(queue),
				config: r.Config(),
			})
		}
	}
	return items
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.runners.SetSize(a.listWidth(), max(5, msg.Height-10))
		return a, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return a, tea.Quit
		}
	}
	var cmd tea.Cmd
	a.runners, cmd = a.runners.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	header := headerStyle.Render("⬡ OGC PLAN")
	left := boxStyle.Width(a.listWidth() + 2).Render(a.runners.View())
	right := boxStyle.Width(max(20, a.width-a.listWidth()-8)).Render(a.renderDetail())
	sections := []string{header, lipgloss.JoinHorizontal(lipgloss.Top, left, right)}
	if panel := a.renderLogPanel(); panel != "" {
		sections = append(sections, panel)
	}
	sections = append(sections, mutedStyle.MarginTop(1).Render(a.statusMsg))
	return strings.Join(sections, "\n")
}

// Selected returns the title of the highlighted runner, or "".
func (a *App) Selected() string {
	item, ok := a.runners.SelectedItem().(runnerItem)
	if !ok {
		return ""
	}
	return item.Title()
}

func (a *App) listWidth() int {
	if a.width <= 0 {
		return 40
	}
	return max(30, a.width/2-4)
}

func (a *App) renderDetail() string {
	item, ok := a.runners.SelectedItem().(runnerItem)
	if !ok {
		lines := []string{titleStyle.Render("No runner selected")}
		for _, src := range a.sources {
			lines = append(lines, mutedStyle.Render(src))
		}
		return strings.Join(lines, "\n")
	}
	body := "{}"
	if len(item.config) > 0 {
		data, err := yaml.Marshal(map[string]any(item.config))
		if err != nil {
			body = fmt.Sprintf("unable to render config: %v", err)
		} else {
			body = strings.TrimRight(string(data), "\n")
		}
	}
	return fmt.Sprintf("%s\n%s", titleStyle.Render(item.Title()), detailStyle.Render(body))
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, err := a.logbook.Tail(logPanelLines)
	if err != nil || len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	head := titleStyle.Render(fmt.Sprintf("LOG · %s", fileName))
	body := mutedStyle.Render(strings.Join(lines, "\n"))
	return boxStyle.Render(fmt.Sprintf("%s\n%s", head, body))
}
