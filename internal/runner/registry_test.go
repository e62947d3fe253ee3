package runner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/ogc/internal/runner"
	"github.com/kingrea/ogc/internal/runner/runnertest"
	"github.com/kingrea/ogc/internal/spec"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := runner.NewRegistry()
	plugin := runnertest.NewPlugin("shell")
	require.NoError(t, reg.Register(plugin.Entry()))

	factory, ok := reg.Lookup("shell")
	require.True(t, ok)
	rc := runner.NewContext(spec.New(), nil, false, "")
	r := factory(rc, "build", spec.Config{"cmd": "echo hi"})
	assert.Equal(t, "shell", r.Name())
	assert.Equal(t, "build", r.Phase())
	assert.Equal(t, "echo hi", r.Config()["cmd"])

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}

func TestRegistryRejectsInvalidEntries(t *testing.T) {
	reg := runner.NewRegistry()
	require.ErrorContains(t, reg.Register(runner.Entry{Factory: runnertest.NewPlugin("x").Factory}), "name is required")
	require.ErrorContains(t, reg.Register(runner.Entry{Name: "x"}), "factory is required")

	require.NoError(t, reg.Register(runnertest.NewPlugin("x").Entry()))
	err := reg.Register(runnertest.NewPlugin("x").Entry())
	require.ErrorContains(t, err, "already registered")
	assert.Panics(t, func() { reg.MustRegister(runnertest.NewPlugin("x").Entry()) })
}

func TestRegistryNamesSorted(t *testing.T) {
	reg := runner.NewRegistry()
	for _, name := range []string{"shell", "env", "juju"} {
		reg.MustRegister(runnertest.NewPlugin(name).Entry())
	}
	assert.Equal(t, []string{"env", "juju", "shell"}, reg.Names())
	assert.Equal(t, 3, reg.Len())
}

func TestBaseConfigDefaultsToEmpty(t *testing.T) {
	base := runner.NewBase(nil, "shell", "build", nil)
	assert.NotNil(t, base.Config())
	assert.Nil(t, base.Spec())
	assert.Equal(t, "build/shell", base.Label())
	assert.Equal(t, "build/shell: bad", base.Configf("bad").Error())
}
