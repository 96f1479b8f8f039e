// Package config holds the converter settings. Defaults reproduce the fixed
// behavior of the tool; a YAML file and command-line flags may override them.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/actorconv/internal/actor"
	"github.com/born-ml/actorconv/internal/onnx"
	"github.com/born-ml/actorconv/internal/weights"
)

const (
	// DefaultInput is the weights file written by the browser trainer.
	DefaultInput = "onitama_weights.json"
	// DefaultOutput is the model file the web client loads.
	DefaultOutput = "onitama-actor.onnx"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config models the converter settings file.
type Config struct {
	Input      string            `yaml:"input"`
	Output     string            `yaml:"output"`
	Opset      int64             `yaml:"opset"`
	Match      weights.MatchMode `yaml:"match"`
	LayerNames []string          `yaml:"layer_names,omitempty"`
	InputName  string            `yaml:"input_name"`
	OutputName string            `yaml:"output_name"`
	DocString  string            `yaml:"doc_string,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	sig := onnx.DefaultSignature(actor.StateSize)
	return Config{
		Input:      DefaultInput,
		Output:     DefaultOutput,
		Opset:      onnx.DefaultOpset,
		Match:      weights.MatchPosition,
		InputName:  sig.InputName,
		OutputName: sig.OutputName,
	}
}

// Load reads a YAML settings file on top of Default. Keys absent from the
// file keep their default values; unknown keys are rejected.
//
//nolint:gosec // G304: Path is provided by user
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings for values the pipeline cannot use.
// Opset range is left to the exporter, which reports it with a remedy.
func (c Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("%w: input path is empty", ErrInvalid)
	}
	if c.Output == "" {
		return fmt.Errorf("%w: output path is empty", ErrInvalid)
	}
	if c.InputName == "" || c.OutputName == "" {
		return fmt.Errorf("%w: input_name and output_name must be set", ErrInvalid)
	}
	if c.InputName == c.OutputName {
		return fmt.Errorf("%w: input_name and output_name are both %q", ErrInvalid, c.InputName)
	}
	switch c.Match {
	case weights.MatchPosition, weights.MatchName:
	default:
		return fmt.Errorf("%w: match must be %q or %q, got %q", ErrInvalid, weights.MatchPosition, weights.MatchName, c.Match)
	}
	if n := len(c.LayerNames); n != 0 && n != len(actor.DefaultLayerNames) {
		return fmt.Errorf("%w: layer_names needs %d entries, got %d", ErrInvalid, len(actor.DefaultLayerNames), n)
	}
	seen := make(map[string]bool, len(c.LayerNames))
	for i, name := range c.LayerNames {
		if name == "" {
			return fmt.Errorf("%w: layer_names[%d] is empty", ErrInvalid, i)
		}
		if seen[name] {
			return fmt.Errorf("%w: layer name %q is used twice", ErrInvalid, name)
		}
		seen[name] = true
	}
	return nil
}
