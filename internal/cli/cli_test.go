package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/ogc/internal/resolve"
	"github.com/kingrea/ogc/internal/spec"
)

type result struct {
	stdout string
	stderr string
	err    error
}

// execute runs ogc inside dir with args.
func execute(t *testing.T, dir string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), append([]string{"-C", dir}, args...), &stdout, &stderr)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFile(t *testing.T, path, body string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimLeft(body, "\n")), 0o644))
	return path
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()
	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, expected := range []string{"plan", "run", "view", "plugins", "init", "logs"} {
		assert.Contains(t, names, expected)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("spec"))
	assert.NotNil(t, root.PersistentFlags().Lookup("debug"))
}

func TestSingleRunnerQueued(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ogc.yml"), `
build:
  shell:
    cmd: echo hi
`)
	res := execute(t, dir, "plan")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "build")
	assert.Contains(t, res.stdout, "1. shell cmd=echo hi")
}

func TestMissingPluginExitsCleanly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ogc.yml"), `
deploy:
  unknownplugin: {}
`)
	res := execute(t, dir, "--debug")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Resolved 0 runner(s) across 0 phase(s)")
	assert.Contains(t, res.stderr, "Could not find plugin unknownplugin")
}

func TestUnknownPhaseFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ogc.yml"), "notaphase: {}\n")

	res := execute(t, dir)
	var unknown *resolve.UnknownPhaseError
	require.ErrorAs(t, res.err, &unknown)
	assert.Equal(t, "notaphase", unknown.Phase)
	assert.Contains(t, res.stderr, "notaphase")
	assert.NotContains(t, res.stderr, "Error:")
}

func TestListConfigurationQueuesInOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ogc.yml"), `
build:
  shell:
    - cmd: a
    - cmd: b
`)
	res := execute(t, dir, "plan")
	require.NoError(t, res.err)
	first := strings.Index(res.stdout, "1. shell cmd=a")
	second := strings.Index(res.stdout, "2. shell cmd=b")
	require.GreaterOrEqual(t, first, 0)
	assert.Greater(t, second, first)
}

func TestCheckFailureFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ogc.yml"), `
build:
  shell:
    timeout: soon
    cmd: make
`)
	res := execute(t, dir)
	var checkErr *resolve.CheckError
	require.ErrorAs(t, res.err, &checkErr)
	var cfgErr *spec.ConfigError
	require.ErrorAs(t, res.err, &cfgErr)
	assert.Equal(t, "build", cfgErr.Phase)
	assert.Equal(t, "shell", cfgErr.Plugin)
	assert.Contains(t, res.stderr, "timeout")
}

func TestMissingSpecFlagFails(t *testing.T) {
	dir := t.TempDir()
	res := execute(t, dir, "--spec", "nowhere.yml")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "Unable to find spec: nowhere.yml")
}

func TestNoSpecFails(t *testing.T) {
	res := execute(t, t.TempDir(), "plan")
	require.ErrorIs(t, res.err, errNoSpec)
}

func TestSpecFlagsOverrideLocalSpec(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ogc.yml"), `
name: demo
build:
  shell:
    cmd: echo local
`)
	override := writeFile(t, filepath.Join(dir, "ci", "override.yml"), `
build:
  shell:
    cmd: echo override
test:
  shell:
    cmd: echo test
`)
	res := execute(t, dir, "--spec", override, "plan")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "cmd=echo override")
	assert.NotContains(t, res.stdout, "cmd=echo local")
	assert.Contains(t, res.stdout, "test")
}

func TestRunExecutesAndRecordsLogbook(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ogc.yml"), `
test:
  shell:
    cmd: echo second
build:
  shell:
    cmd: echo first
`)
	require.NoError(t, execute(t, dir, "init").err)
	res := execute(t, dir, "run")
	require.NoError(t, res.err)
	assert.Less(t, strings.Index(res.stdout, "first\n"), strings.Index(res.stdout, "second\n"))
	assert.Contains(t, res.stdout, "✓ build/shell")
	assert.Contains(t, res.stdout, "✓ test/shell")

	logs := execute(t, dir, "logs", "-n", "1")
	require.NoError(t, logs.err)
	assert.Contains(t, logs.stdout, "run completed in")
}

func TestRunStopsOnFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ogc.yml"), `
build:
  shell:
    - cmd: exit 4
    - cmd: echo unreachable
`)
	res := execute(t, dir, "run")
	require.Error(t, res.err)
	assert.Contains(t, res.stdout, "✗ build/shell")
	assert.NotContains(t, res.stdout, "unreachable")
}

func TestPluginsListsBuiltinsAndDefinitions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".ogc", "plugins", "notify.yaml"), `
name: notify
description: Post a message
version: 1.0.0
command: echo notify
`)
	res := execute(t, dir, "plugins")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "NAME")
	assert.Contains(t, res.stdout, "shell")
	assert.Contains(t, res.stdout, "builtin")
	assert.Contains(t, res.stdout, "Post a message (v1.0.0)")
}

func TestInitCreatesLayout(t *testing.T) {
	dir := t.TempDir()
	res := execute(t, dir, "init")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Initialized")
	_, err := os.Stat(filepath.Join(dir, ".ogc", "config.yaml"))
	require.NoError(t, err)
}

func TestUninitializedProjectWritesNothing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ogc.yml"), `
build:
  shell:
    cmd: echo hi
`)
	for _, args := range [][]string{{"plan"}, {"run"}, {"logs"}, {"plugins"}} {
		res := execute(t, dir, args...)
		require.NoError(t, res.err, args)
	}
	_, err := os.Stat(filepath.Join(dir, ".ogc"))
	assert.True(t, os.IsNotExist(err))
}

func TestLogsWithoutRuns(t *testing.T) {
	res := execute(t, t.TempDir(), "logs")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "No runs recorded yet.")
}

func TestUnexpectedArgumentsReported(t *testing.T) {
	res := execute(t, t.TempDir(), "plan", "extra")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "Error:")
}
