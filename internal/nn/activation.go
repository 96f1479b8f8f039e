package nn

import "math"

// Activation is the element-wise function fused into a Dense layer.
type Activation int

// Supported activations.
const (
	Linear Activation = iota
	ReLU
	Sigmoid
	Tanh
)

// String returns the Keras name of the activation.
func (a Activation) String() string {
	switch a {
	case Linear:
		return "linear"
	case ReLU:
		return "relu"
	case Sigmoid:
		return "sigmoid"
	case Tanh:
		return "tanh"
	default:
		return "unknown"
	}
}

// Func returns the scalar function for the activation, or nil if unknown.
func (a Activation) Func() func(float32) float32 {
	switch a {
	case Linear:
		return func(x float32) float32 { return x }
	case ReLU:
		// f(x) = max(0, x)
		return func(x float32) float32 {
			if x > 0 {
				return x
			}
			return 0
		}
	case Sigmoid:
		// σ(x) = 1 / (1 + exp(-x))
		return func(x float32) float32 {
			return float32(1.0 / (1.0 + math.Exp(-float64(x))))
		}
	case Tanh:
		return func(x float32) float32 {
			return float32(math.Tanh(float64(x)))
		}
	default:
		return nil
	}
}
