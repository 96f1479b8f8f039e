package nn

import (
	"fmt"

	"github.com/born-ml/actorconv/internal/tensor"
)

// Sequential is a container module that chains an Input with a stack of layers.
//
// Each module's output becomes the next module's input:
//
//	model := nn.NewSequential(nn.NewInput(31),
//	    nn.NewDense("dense", 128, nn.ReLU),
//	    nn.NewDense("dense_1", 1, nn.Sigmoid),
//	)
//	if err := model.Build(); err != nil { ... }
type Sequential struct {
	input   *Input
	modules []Module
}

// NewSequential creates a new Sequential container.
func NewSequential(input *Input, modules ...Module) *Sequential {
	return &Sequential{
		input:   input,
		modules: modules,
	}
}

// Name returns "sequential".
func (s *Sequential) Name() string { return "sequential" }

// Input returns the input layer.
func (s *Sequential) Input() *Input { return s.input }

// Forward applies all modules in sequence.
func (s *Sequential) Forward(input *tensor.Matrix) (*tensor.Matrix, error) {
	output, err := s.input.Forward(input)
	if err != nil {
		return nil, err
	}

	for _, module := range s.modules {
		output, err = module.Forward(output)
		if err != nil {
			return nil, err
		}
	}

	return output, nil
}

// Build runs a forward pass on a single zero-filled sample so every layer
// allocates its parameters. Weights cannot be assigned before Build.
func (s *Sequential) Build() error {
	if _, err := s.Forward(tensor.NewMatrix(1, s.input.Width())); err != nil {
		return fmt.Errorf("build: %w", err)
	}
	return nil
}

// Parameters returns all trainable parameters from all modules.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter

	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}

	return params
}

// Layers returns the modules after the input, in construction order.
func (s *Sequential) Layers() []Module {
	return s.modules
}

// WeightedLayers returns the dense layers in construction order.
func (s *Sequential) WeightedLayers() []*Dense {
	var layers []*Dense
	for _, module := range s.modules {
		if d, ok := module.(*Dense); ok {
			layers = append(layers, d)
		}
	}
	return layers
}

// Len returns the number of modules after the input.
func (s *Sequential) Len() int {
	return len(s.modules)
}
