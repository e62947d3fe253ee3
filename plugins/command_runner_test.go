package plugins

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/ogc/internal/runner"
	"github.com/kingrea/ogc/internal/spec"
)

func newRunContext(t *testing.T) (*runner.Context, *bytes.Buffer) {
	t.Helper()
	s, err := spec.Parse([]byte("build: {}\ndeploy: {}\n"))
	require.NoError(t, err)
	rc := runner.NewContext(s, nil, false, t.TempDir())
	var out bytes.Buffer
	rc.Stdout = &out
	rc.Stderr = &out
	return rc, &out
}

func mustDefinition(t *testing.T) Definition {
	t.Helper()
	def, err := ParseDefinitionYAML([]byte(sampleYAML))
	require.NoError(t, err)
	return def
}

func TestCommandRunnerRendersWithDefaults(t *testing.T) {
	rc, out := newRunContext(t)
	r := NewFactory(mustDefinition(t))(rc, "deploy", spec.Config{"message": "shipped"})
	require.NoError(t, r.Check())

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runner.StatusCompleted, result.Status)
	assert.Equal(t, "ops: shipped\n", out.String())
}

func TestCommandRunnerConfigOverridesDefaults(t *testing.T) {
	rc, out := newRunContext(t)
	cfg := spec.Config{"message": "hi", "channel": "eng"}
	r := NewFactory(mustDefinition(t))(rc, "teardown", cfg)
	require.NoError(t, r.Check())
	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "eng: hi\n", out.String())
}

func TestCommandRunnerCheckErrors(t *testing.T) {
	rc, _ := newRunContext(t)
	factory := NewFactory(mustDefinition(t))

	err := factory(rc, "build", spec.Config{"message": "x"}).Check()
	var cfgErr *spec.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "build", cfgErr.Phase)
	assert.Equal(t, "notify", cfgErr.Plugin)
	assert.Contains(t, err.Error(), "cannot be used in phase build")

	err = factory(rc, "deploy", nil).Check()
	require.ErrorContains(t, err, "missing required option(s): message")
}

func TestCommandRunnerTemplateFunctions(t *testing.T) {
	rc, out := newRunContext(t)
	def := Definition{
		Name:    "shout",
		Version: "1.0.0",
		Command: `echo {{ .Config.word | upper }} {{ join "," .Phases }} {{ .Phase }}`,
		Env:     map[string]string{"EXTRA": "1"},
	}
	r := NewFactory(def)(rc, "build", spec.Config{"word": "loud"})
	require.NoError(t, r.Check())
	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "LOUD build,deploy build\n", out.String())
}

func TestCommandRunnerMissingKeyFailsCheck(t *testing.T) {
	rc, _ := newRunContext(t)
	def := Definition{Name: "strict", Version: "1.0.0", Command: "echo {{ .Config.absent }}"}
	err := NewFactory(def)(rc, "build", spec.Config{}).Check()
	require.ErrorContains(t, err, "render command")
}

func TestCommandRunnerExportsEnvironment(t *testing.T) {
	rc, out := newRunContext(t)
	def := Definition{
		Name:    "envcheck",
		Version: "1.0.0",
		Command: `echo "$OGC_PHASE $OGC_PLUGIN $GREETING"`,
		Env:     map[string]string{"GREETING": "hello"},
	}
	r := NewFactory(def)(rc, "deploy", nil)
	require.NoError(t, r.Check())
	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "deploy envcheck hello\n", out.String())
}

func TestCommandRunnerFailure(t *testing.T) {
	rc, _ := newRunContext(t)
	def := Definition{Name: "boom", Version: "1.0.0", Command: "exit 3"}
	r := NewFactory(def)(rc, "build", nil)
	require.NoError(t, r.Check())
	result, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, runner.StatusFailed, result.Status)
	assert.Contains(t, err.Error(), "build/boom")
}

func TestCommandRunnerDefaultsNotSharedBetweenRunners(t *testing.T) {
	rc, _ := newRunContext(t)
	def := Definition{
		Name:     "region",
		Version:  "1.0.0",
		Defaults: map[string]any{"opts": map[string]any{"region": "us-east"}},
		Command:  "echo {{ .Config.opts.region }}",
	}
	factory := NewFactory(def)

	first := factory(rc, "deploy", spec.Config{"opts": map[string]any{"region": "eu-west"}}).(*commandRunner)
	require.NoError(t, first.Check())
	second := factory(rc, "deploy", spec.Config{}).(*commandRunner)
	require.NoError(t, second.Check())

	assert.Equal(t, "echo eu-west", first.rendered)
	assert.Equal(t, "echo us-east", second.rendered)
	assert.Equal(t, map[string]any{"region": "us-east"}, def.Defaults["opts"])
}
