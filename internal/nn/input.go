package nn

import (
	"fmt"

	"github.com/born-ml/actorconv/internal/tensor"
)

// Input declares the width of the network input. It has no parameters and
// passes its input through after checking the feature count.
type Input struct {
	name  string
	width int
}

// NewInput creates an input layer named "input".
func NewInput(width int) *Input {
	if width <= 0 {
		panic(fmt.Sprintf("nn.NewInput: width must be > 0, got %d", width))
	}
	return &Input{name: "input", width: width}
}

// Name returns the layer name.
func (i *Input) Name() string { return i.name }

// Width returns the number of input features.
func (i *Input) Width() int { return i.width }

// Forward validates the input width and returns the input unchanged.
func (i *Input) Forward(input *tensor.Matrix) (*tensor.Matrix, error) {
	if input.Cols() != i.width {
		return nil, fmt.Errorf("%s: %w: expected %d features, got %d", i.name, ErrInputWidth, i.width, input.Cols())
	}
	return input, nil
}

// Parameters returns nil (Input has no trainable parameters).
func (i *Input) Parameters() []*Parameter {
	return nil
}
