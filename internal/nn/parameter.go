package nn

import (
	"github.com/born-ml/actorconv/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// Vectors (biases) are stored as a single-row matrix so every parameter
// shares the same storage type.
type Parameter struct {
	name  string         // Parameter name (e.g., "kernel", "bias")
	value *tensor.Matrix // The parameter tensor
	shape tensor.Shape   // Logical shape ([in, out] or [out])
}

// NewParameter creates a new parameter holding value with the given logical shape.
func NewParameter(name string, value *tensor.Matrix, shape tensor.Shape) *Parameter {
	return &Parameter{
		name:  name,
		value: value,
		shape: shape.Clone(),
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Value returns the parameter storage.
func (p *Parameter) Value() *tensor.Matrix {
	return p.value
}

// Shape returns the logical shape of the parameter.
func (p *Parameter) Shape() tensor.Shape {
	return p.shape
}

// Data returns the flattened row-major values.
func (p *Parameter) Data() []float32 {
	return p.value.Data()
}
