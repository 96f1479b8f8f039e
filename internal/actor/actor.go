// Package actor defines the Onitama PPO actor network: a 31-feature board
// state mapped to a single sigmoid score.
package actor

import (
	"fmt"

	"github.com/born-ml/actorconv/internal/nn"
)

// StateSize is the width of the encoded Onitama game state.
const StateSize = 31

// DefaultLayerNames are the names Keras assigns to the four dense layers.
var DefaultLayerNames = []string{"dense", "dense_1", "dense_2", "dense_3"}

// topology lists units and activation of each dense layer, input to output.
var topology = []struct {
	units      int
	activation nn.Activation
}{
	{128, nn.ReLU},
	{128, nn.ReLU},
	{64, nn.ReLU},
	{1, nn.Sigmoid},
}

// New returns the unbuilt actor network.
//
// names optionally renames the dense layers (used when matching weight
// records by name); when given it must have one entry per dense layer.
func New(names ...string) (*nn.Sequential, error) {
	if len(names) == 0 {
		names = DefaultLayerNames
	}
	if len(names) != len(topology) {
		return nil, fmt.Errorf("actor: %d layer names for %d dense layers", len(names), len(topology))
	}

	layers := make([]nn.Module, len(topology))
	for i, l := range topology {
		layers[i] = nn.NewDense(names[i], l.units, l.activation)
	}
	return nn.NewSequential(nn.NewInput(StateSize), layers...), nil
}

// Build returns the actor network with all parameters allocated.
func Build(names ...string) (*nn.Sequential, error) {
	model, err := New(names...)
	if err != nil {
		return nil, err
	}
	if err := model.Build(); err != nil {
		return nil, fmt.Errorf("actor: %w", err)
	}
	return model, nil
}
