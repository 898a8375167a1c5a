package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"Height", "Radius", "Offset"}, cfg.Definition.Names())
	assert.Equal(t, map[string]float64{"Height": 50, "Radius": 10, "Offset": 2}, cfg.Definition.Defaults())
	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "spiky_thing.gh", cfg.Server.Definition)
}

func TestLoad_YAMLOverDefaults(t *testing.T) {
	t.Setenv(EnvComputeURL, "")
	t.Setenv(EnvLogLevel, "")
	path := filepath.Join(t.TempDir(), "rhinoview.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
compute:
  url: http://compute.example:6500/
  timeout: 5s
definition:
  source: tower.gh
  parameters:
    - {name: Levels, min: 1, max: 40, step: 1, default: 12}
viewer:
  wireframe: true
  overlap: queue
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://compute.example:6500/", cfg.Compute.URL)
	assert.Equal(t, 5*time.Second, cfg.Compute.Timeout)
	assert.Equal(t, []string{"Levels"}, cfg.Definition.Names())
	assert.True(t, cfg.Viewer.Wireframe)
	assert.Equal(t, "queue", cfg.Viewer.Overlap)
	// untouched sections keep their defaults
	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, 1.1, cfg.Viewer.FitOffset)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvComputeURL: "https://compute.example/",
		EnvComputeKey: "secret",
		EnvLogLevel:   "debug",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	assert.Equal(t, "https://compute.example/", cfg.Compute.URL)
	assert.Equal(t, "secret", cfg.Compute.APIKey)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Definition.Parameters = append(cfg.Definition.Parameters,
		Parameter{Name: "Height"},
		Parameter{Name: "Bad", Min: 5, Max: 1},
	)
	cfg.Server.Inputs = append(cfg.Server.Inputs, Input{Query: "x"})

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate name "Height"`)
	assert.Contains(t, err.Error(), "min 5 > max 1")
	assert.Contains(t, err.Error(), "server.inputs[2]")
}

func TestParameterClamp(t *testing.T) {
	p := Parameter{Min: 1, Max: 30}
	assert.Equal(t, 1.0, p.Clamp(-4))
	assert.Equal(t, 30.0, p.Clamp(31))
	assert.Equal(t, 12.5, p.Clamp(12.5))
}

type scriptedPrompter struct {
	answers []string
	labels  []string
	secret  []bool
}

func (p *scriptedPrompter) Prompt(label string, secret bool) (string, error) {
	p.labels = append(p.labels, label)
	p.secret = append(p.secret, secret)
	if len(p.answers) == 0 {
		return "", errors.New("no more answers")
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func TestResolveCompute_ConfiguredURLSkipsEverything(t *testing.T) {
	p := &scriptedPrompter{}
	c := Compute{URL: "http://localhost:6500/"}
	require.NoError(t, ResolveCompute(&c, NewStore(filepath.Join(t.TempDir(), "c.yaml")), p))
	assert.Empty(t, p.labels)
}

func TestResolveCompute_PromptsAndSaves(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "rhinoview", "credentials.yaml"))
	p := &scriptedPrompter{answers: []string{"https://compute.example/", "k3y"}}

	var c Compute
	require.NoError(t, ResolveCompute(&c, store, p))
	assert.Equal(t, "https://compute.example/", c.URL)
	assert.Equal(t, "k3y", c.APIKey)
	assert.Equal(t, []bool{false, true}, p.secret)

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// the second run reads the store instead of prompting
	var again Compute
	require.NoError(t, ResolveCompute(&again, store, &scriptedPrompter{}))
	assert.Equal(t, c, again)
}

func TestResolveCompute_NoURL(t *testing.T) {
	var c Compute
	assert.Error(t, ResolveCompute(&c, nil, nil))
	assert.Error(t, ResolveCompute(&c, nil, &scriptedPrompter{answers: []string{""}}))
}
