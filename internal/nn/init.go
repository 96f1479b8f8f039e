package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/actorconv/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// This is the Keras default kernel initializer. Converted models overwrite
// these values, but a freshly built layer still produces sensible outputs.
func Xavier(fanIn, fanOut int) *tensor.Matrix {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	m := tensor.NewMatrix(fanIn, fanOut)
	data := m.Data()
	for i := range data {
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		data[i] = float32((rand.Float64()*2.0 - 1.0) * bound)
	}
	return m
}

// Zeros creates a 1 x n row of zeros (bias initialization).
func Zeros(n int) *tensor.Matrix {
	return tensor.NewMatrix(1, n)
}
