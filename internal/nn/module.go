// Package nn implements the neural network layers used to reconstruct the
// actor network before export:
//   - Module interface: Base interface for all NN components
//   - Parameter: Named float32 parameter tensor
//   - Input: Declares the network input width
//   - Dense: Fully connected layer with a fused activation
//   - Sequential: Container for stacking layers
//
// Layers follow the Keras convention: a dense kernel has shape [in, out] and
// is allocated on the first forward pass, once the input width is known.
package nn

import (
	"errors"

	"github.com/born-ml/actorconv/internal/tensor"
)

// Common errors.
var (
	ErrNotBuilt      = errors.New("layer parameters not allocated: run a forward pass first")
	ErrInputWidth    = errors.New("input width mismatch")
	ErrShapeMismatch = errors.New("parameter shape mismatch")
)

// Module is the base interface for all neural network components.
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential(
//	    nn.NewInput(31),
//	    nn.NewDense("dense", 128, nn.ReLU),
//	    nn.NewDense("dense_1", 1, nn.Sigmoid),
//	)
type Module interface {
	// Name returns the layer name used in logs and exported tensor names.
	Name() string

	// Forward computes the output of the module for a [batch, features] input.
	Forward(input *tensor.Matrix) (*tensor.Matrix, error)

	// Parameters returns all trainable parameters of this module.
	//
	// Returns an empty slice for modules without trainable parameters
	// or whose parameters have not been allocated yet.
	Parameters() []*Parameter
}
