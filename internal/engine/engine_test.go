package engine

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/ogc/internal/logbook"
	"github.com/kingrea/ogc/internal/phase"
	"github.com/kingrea/ogc/internal/runner/runnertest"
	"github.com/kingrea/ogc/internal/spec"
	"github.com/kingrea/ogc/internal/state"
)

func fixedClock() func() time.Time {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func TestRunFollowsCatalogOrder(t *testing.T) {
	var order []string
	shell := runnertest.NewPlugin("shell").RecordInto(&order)
	env := runnertest.NewPlugin("env").RecordInto(&order)

	app := state.New(spec.New(), nil, false, t.TempDir())
	app.Append("teardown", shell.Factory(app.Context, "teardown", nil))
	app.Append("build", env.Factory(app.Context, "build", nil))
	app.Append("build", shell.Factory(app.Context, "build", nil))
	app.Append("setup", env.Factory(app.Context, "setup", nil))

	lb, err := logbook.New(filepath.Join(t.TempDir(), "runs.log"))
	require.NoError(t, err)
	e := New(WithClock(fixedClock()), WithRunID(func() string { return "run-42" }), WithLogbook(lb))

	report, err := e.Run(context.Background(), app, phase.Default())
	require.NoError(t, err)
	assert.Equal(t, []string{"setup/env", "build/env", "build/shell", "teardown/shell"}, order)
	assert.Equal(t, "run-42", report.RunID)
	assert.Len(t, report.Steps, 4)
	_, failed := report.Failed()
	assert.False(t, failed)

	lines, err := lb.Tail(20)
	require.NoError(t, err)
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "run-42 run started: 4 runner(s)")
	assert.True(t, strings.HasSuffix(lines[len(lines)-1], "run completed in 9s"), lines[len(lines)-1])
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	var order []string
	broken := runnertest.NewPlugin("shell").RecordInto(&order)
	broken.RunErr = errors.New("exit status 2")
	env := runnertest.NewPlugin("env").RecordInto(&order)

	app := state.New(spec.New(), nil, false, t.TempDir())
	app.Append("build", broken.Factory(app.Context, "build", nil))
	app.Append("test", env.Factory(app.Context, "test", nil))

	report, err := New().Run(context.Background(), app, phase.Default())
	require.ErrorContains(t, err, "build/shell: exit status 2")
	assert.Equal(t, []string{"build/shell"}, order)
	step, failed := report.Failed()
	require.True(t, failed)
	assert.Equal(t, "build", step.Phase)
}

func TestRunHonoursCancellation(t *testing.T) {
	shell := runnertest.NewPlugin("shell")
	app := state.New(spec.New(), nil, false, t.TempDir())
	app.Append("build", shell.Factory(app.Context, "build", nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Run(ctx, app, phase.Default())
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, shell.Ran())
}

func TestRunEmptyQueues(t *testing.T) {
	app := state.New(spec.New(), nil, false, t.TempDir())
	report, err := New().Run(context.Background(), app, phase.Default())
	require.NoError(t, err)
	assert.Empty(t, report.Steps)
	assert.NotEmpty(t, report.RunID)
}
