package nn

import (
	"fmt"

	"github.com/born-ml/actorconv/internal/tensor"
)

// Dense implements a fully connected layer with a fused activation.
//
// Performs the transformation: y = act(x @ W + b)
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the kernel with shape [in_features, units]
//   - b is the bias vector with shape [units]
//
// The kernel and bias are allocated lazily on the first Forward call.
type Dense struct {
	name       string
	units      int
	activation Activation
	inFeatures int        // 0 until built
	kernel     *Parameter // [in_features, units]
	bias       *Parameter // [units]
}

// NewDense creates a new, unbuilt Dense layer.
func NewDense(name string, units int, activation Activation) *Dense {
	if units <= 0 {
		panic(fmt.Sprintf("nn.NewDense: units must be > 0, got %d", units))
	}
	return &Dense{
		name:       name,
		units:      units,
		activation: activation,
	}
}

// build allocates kernel and bias for the given input width.
func (d *Dense) build(inFeatures int) {
	d.inFeatures = inFeatures
	d.kernel = NewParameter("kernel", Xavier(inFeatures, d.units), tensor.Shape{inFeatures, d.units})
	d.bias = NewParameter("bias", Zeros(d.units), tensor.Shape{d.units})
}

// Forward computes act(x @ W + b), building the layer on first use.
func (d *Dense) Forward(input *tensor.Matrix) (*tensor.Matrix, error) {
	if !d.Built() {
		d.build(input.Cols())
	}
	if input.Cols() != d.inFeatures {
		return nil, fmt.Errorf("%s: %w: expected %d features, got %d", d.name, ErrInputWidth, d.inFeatures, input.Cols())
	}

	fn := d.activation.Func()
	if fn == nil {
		return nil, fmt.Errorf("%s: unknown activation %d", d.name, d.activation)
	}

	out, err := input.MatMul(d.kernel.Value())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.name, err)
	}
	if err := out.AddRow(d.bias.Data()); err != nil {
		return nil, fmt.Errorf("%s: %w", d.name, err)
	}
	out.Apply(fn)

	return out, nil
}

// Parameters returns [kernel, bias], or nil before the layer is built.
func (d *Dense) Parameters() []*Parameter {
	if !d.Built() {
		return nil
	}
	return []*Parameter{d.kernel, d.bias}
}

// SetWeights overwrites the kernel and bias.
//
// kernel must have shape [in_features, units] and bias length units.
func (d *Dense) SetWeights(kernel *tensor.Matrix, bias []float32) error {
	if !d.Built() {
		return fmt.Errorf("%s: %w", d.name, ErrNotBuilt)
	}
	if !kernel.Shape().Equal(d.KernelShape()) {
		return fmt.Errorf("%s: %w: kernel expected %v, got %v", d.name, ErrShapeMismatch, d.KernelShape(), kernel.Shape())
	}
	if len(bias) != d.units {
		return fmt.Errorf("%s: %w: bias expected (%d), got (%d)", d.name, ErrShapeMismatch, d.units, len(bias))
	}

	if err := d.kernel.Value().CopyFrom(kernel); err != nil {
		return fmt.Errorf("%s: %w", d.name, err)
	}
	copy(d.bias.Data(), bias)
	return nil
}

// Name returns the layer name.
func (d *Dense) Name() string { return d.name }

// Units returns the number of output features.
func (d *Dense) Units() int { return d.units }

// InFeatures returns the number of input features (0 before build).
func (d *Dense) InFeatures() int { return d.inFeatures }

// Activation returns the fused activation.
func (d *Dense) Activation() Activation { return d.activation }

// Built reports whether kernel and bias are allocated.
func (d *Dense) Built() bool { return d.kernel != nil }

// KernelShape returns [in_features, units].
func (d *Dense) KernelShape() tensor.Shape { return tensor.Shape{d.inFeatures, d.units} }

// Kernel returns the kernel parameter (nil before build).
func (d *Dense) Kernel() *Parameter { return d.kernel }

// Bias returns the bias parameter (nil before build).
func (d *Dense) Bias() *Parameter { return d.bias }
