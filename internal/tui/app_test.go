package tui

import (
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/ogc/internal/logbook"
	"github.com/kingrea/ogc/internal/phase"
	"github.com/kingrea/ogc/internal/runner/runnertest"
	"github.com/kingrea/ogc/internal/spec"
	"github.com/kingrea/ogc/internal/state"
)

func newTestState(t *testing.T) *state.App {
	t.Helper()
	app := state.New(spec.New(), nil, false, t.TempDir())
	shell := runnertest.NewPlugin("shell")
	env := runnertest.NewPlugin("env")
	// appended out of catalog order on purpose
	app.Append(phase.Deploy, shell.Factory(app.Context, phase.Deploy, spec.Config{"cmd": "make deploy"}))
	app.Append(phase.Build, env.Factory(app.Context, phase.Build, nil))
	app.Append(phase.Build, shell.Factory(app.Context, phase.Build, spec.Config{"cmd": "make"}))
	return app
}

func TestNewAppOrdersByCatalog(t *testing.T) {
	a := NewApp(newTestState(t), phase.Default(), nil)
	require.Len(t, a.items, 3)
	assert.Equal(t, "build/env", a.items[0].Title())
	assert.Equal(t, "build/shell", a.items[1].Title())
	assert.Equal(t, "deploy/shell", a.items[2].Title())
	assert.Equal(t, "runner 2 of 2 · 1 option(s)", a.items[1].Description())
	assert.Equal(t, "build/env", a.Selected())
}

func TestAppNavigationAndDetail(t *testing.T) {
	a := NewApp(newTestState(t), phase.Default(), nil)
	model, _ := a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	a = model.(*App)

	model, _ = a.Update(tea.KeyMsg{Type: tea.KeyDown})
	a = model.(*App)
	assert.Equal(t, "build/shell", a.Selected())

	view := a.View()
	assert.Contains(t, view, "OGC PLAN")
	assert.Contains(t, view, "cmd: make")
}

func TestAppQuitKeys(t *testing.T) {
	a := NewApp(newTestState(t), phase.Default(), nil)
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
	} {
		_, cmd := a.Update(key)
		require.NotNil(t, cmd, key.String())
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestAppEmptyQueues(t *testing.T) {
	a := NewApp(state.New(spec.New(), nil, false, ""), phase.Default(), nil)
	assert.Empty(t, a.items)
	assert.Empty(t, a.Selected())
	assert.Contains(t, a.View(), "Nothing queued")
}

func TestAppShowsLogbookTail(t *testing.T) {
	lb, err := logbook.New(filepath.Join(t.TempDir(), "runs.log"))
	require.NoError(t, err)
	require.NoError(t, lb.Info("run completed in 1s"))

	a := NewApp(newTestState(t), phase.Default(), lb)
	view := a.View()
	assert.Contains(t, view, "LOG · runs.log")
	assert.Contains(t, view, "run completed in 1s")
}
