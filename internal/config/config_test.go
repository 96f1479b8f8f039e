package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/actorconv/internal/weights"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "actorconv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "onitama_weights.json", cfg.Input)
	assert.Equal(t, "onitama-actor.onnx", cfg.Output)
	assert.Equal(t, int64(13), cfg.Opset)
	assert.Equal(t, weights.MatchPosition, cfg.Match)
	assert.Equal(t, "input", cfg.InputName)
	assert.Equal(t, "output", cfg.OutputName)
	require.NoError(t, cfg.Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
output: build/actor.onnx
match: name
layer_names: [dense_Dense1, dense_Dense2, dense_Dense3, dense_Dense4]
doc_string: Onitama actor
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultInput, cfg.Input, "unset keys keep defaults")
	assert.Equal(t, "build/actor.onnx", cfg.Output)
	assert.Equal(t, weights.MatchName, cfg.Match)
	assert.Len(t, cfg.LayerNames, 4)
	assert.Equal(t, "Onitama actor", cfg.DocString)
	require.NoError(t, cfg.Validate())
}

func TestLoad_UnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, "outputt: x.onnx\n"))
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty input", func(c *Config) { c.Input = "" }},
		{"empty output", func(c *Config) { c.Output = "" }},
		{"empty input name", func(c *Config) { c.InputName = "" }},
		{"bad match", func(c *Config) { c.Match = "fuzzy" }},
		{"layer names count", func(c *Config) { c.LayerNames = []string{"a", "b"} }},
		{"duplicate layer names", func(c *Config) { c.LayerNames = []string{"x", "x", "y", "z"} }},
		{"empty layer name", func(c *Config) { c.LayerNames = []string{"a", "", "c", "d"} }},
		{"input name equals output name", func(c *Config) { c.InputName, c.OutputName = "x", "x" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}
