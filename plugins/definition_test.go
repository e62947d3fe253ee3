package plugins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitionValidate(t *testing.T) {
	valid := Definition{Name: "notify", Version: "1.2.0", Command: "echo {{ .Config.msg }}"}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name string
		mut  func(*Definition)
		want string
	}{
		{"missing name", func(d *Definition) { d.Name = " " }, "name is required"},
		{"whitespace name", func(d *Definition) { d.Name = "two words" }, "must not contain whitespace"},
		{"missing version", func(d *Definition) { d.Version = "" }, "version is required"},
		{"bad version", func(d *Definition) { d.Version = "one" }, "version \"one\""},
		{"missing command", func(d *Definition) { d.Command = "" }, "command is required"},
		{"bad template", func(d *Definition) { d.Command = "echo {{ .Config" }, "command:"},
		{"bad timeout", func(d *Definition) { d.Timeout = "soon" }, "timeout"},
		{"negative timeout", func(d *Definition) { d.Timeout = "-1s" }, "timeout must be positive"},
		{"duplicate phase", func(d *Definition) { d.Phases = []string{"build", "build"} }, "phases[1]: duplicate build"},
		{"empty require", func(d *Definition) { d.Requires = []string{""} }, "requires[0]: value is empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			def := valid
			tc.mut(&def)
			require.ErrorContains(t, def.Validate(), tc.want)
		})
	}
}

func TestDefinitionNormalizedTrims(t *testing.T) {
	def := Definition{
		Name:     " notify ",
		Version:  " 1.0.0 ",
		Phases:   []string{" deploy "},
		Defaults: map[string]any{" channel ": "ops", " ": "dropped"},
		Env:      map[string]string{" TOKEN ": "x"},
	}.Normalized()
	assert.Equal(t, "notify", def.Name)
	assert.Equal(t, "1.0.0", def.Version)
	assert.Equal(t, []string{"deploy"}, def.Phases)
	assert.Equal(t, map[string]any{"channel": "ops"}, def.Defaults)
	assert.Equal(t, map[string]string{"TOKEN": "x"}, def.Env)
}

func TestDefinitionAllowsPhase(t *testing.T) {
	open := Definition{}
	assert.True(t, open.AllowsPhase("anything"))

	scoped := Definition{Phases: []string{"deploy"}}
	assert.True(t, scoped.AllowsPhase("deploy"))
	assert.False(t, scoped.AllowsPhase("build"))
}
