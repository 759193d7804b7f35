package config

import (
	"os"
	"path/filepath"
	"testing"

	mgl32 "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "triangle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, 800, cfg.Window.Width)
	require.Equal(t, 600, cfg.Window.Height)
	require.Equal(t, "shaders/vert.spv", cfg.Shaders.Vertex)
	require.Equal(t, "shaders/frag.spv", cfg.Shaders.Fragment)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
window:
  title: triangle
  width: 1024
shaders:
  fragment: build/frag.spv
validation: false
clear_color: [0.1, 0.2, 0.3, 1]
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "triangle", cfg.Window.Title)
	assert.Equal(t, 1024, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height, "unset keys keep their defaults")
	assert.Equal(t, "shaders/vert.spv", cfg.Shaders.Vertex)
	assert.Equal(t, "build/frag.spv", cfg.Shaders.Fragment)
	assert.False(t, cfg.Validation)
	assert.Equal(t, mgl32.Vec4{0.1, 0.2, 0.3, 1}, cfg.ClearColor)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "window: [unterminated")
	_, err := Load(path)
	require.ErrorContains(t, err, "failed to parse config file")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
window:
  width: 0
shaders:
  vertex: ""
clear_color: [2, 0, 0, 1]
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window size must be positive")
	assert.Contains(t, err.Error(), "vertex shader path is empty")
	assert.Contains(t, err.Error(), "clear color component 0")
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		start bool
		want  bool
	}{
		{name: "unset keeps value", env: nil, start: true, want: true},
		{name: "empty keeps value", env: map[string]string{EnvValidation: ""}, start: false, want: false},
		{name: "zero disables", env: map[string]string{EnvValidation: "0"}, start: true, want: false},
		{name: "false disables", env: map[string]string{EnvValidation: "FALSE"}, start: true, want: false},
		{name: "anything else enables", env: map[string]string{EnvValidation: "yes"}, start: false, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Validation = tt.start
			cfg.ApplyEnv(func(key string) (string, bool) {
				v, ok := tt.env[key]
				return v, ok
			})
			require.Equal(t, tt.want, cfg.Validation)
		})
	}
}
