package tensor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// Errors returned by matrix construction and arithmetic.
var (
	ErrRagged        = errors.New("rows have different lengths")
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Matrix is a dense row-major float32 matrix.
//
// It wraps a gonum blas32.General so products run through the BLAS
// implementation registered with gonum (pure Go by default).
type Matrix struct {
	g blas32.General
}

// NewMatrix allocates a zero-filled rows x cols matrix.
func NewMatrix(rows, cols int) *Matrix {
	if err := (Shape{rows, cols}).Validate(); err != nil {
		panic(fmt.Sprintf("tensor.NewMatrix: %v", err))
	}
	return &Matrix{g: blas32.General{
		Rows:   rows,
		Cols:   cols,
		Stride: cols,
		Data:   make([]float32, rows*cols),
	}}
}

// FromSlice wraps data as a rows x cols matrix. The slice is not copied.
func FromSlice(data []float32, rows, cols int) (*Matrix, error) {
	if err := (Shape{rows, cols}).Validate(); err != nil {
		return nil, err
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrShapeMismatch, len(data), Shape{rows, cols})
	}
	return &Matrix{g: blas32.General{Rows: rows, Cols: cols, Stride: cols, Data: data}}, nil
}

// FromRows converts nested float64 rows (the JSON representation) to a
// float32 matrix. All rows must have the same non-zero length.
func FromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrShapeMismatch)
	}
	cols := len(rows[0])
	m := NewMatrix(len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d values, row 0 has %d", ErrRagged, i, len(row), cols)
		}
		for j, v := range row {
			m.g.Data[i*cols+j] = float32(v)
		}
	}
	return m, nil
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.g.Rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.g.Cols }

// Shape returns [rows, cols].
func (m *Matrix) Shape() Shape { return Shape{m.g.Rows, m.g.Cols} }

// Data returns the underlying row-major storage.
func (m *Matrix) Data() []float32 { return m.g.Data }

// At returns the element at row i, column j.
func (m *Matrix) At(i, j int) float32 { return m.g.Data[i*m.g.Stride+j] }

// MatMul returns m @ other.
func (m *Matrix) MatMul(other *Matrix) (*Matrix, error) {
	if m.g.Cols != other.g.Rows {
		return nil, fmt.Errorf("%w: matmul %v @ %v", ErrShapeMismatch, m.Shape(), other.Shape())
	}
	out := NewMatrix(m.g.Rows, other.g.Cols)
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, m.g, other.g, 0, out.g)
	return out, nil
}

// AddRow adds v to every row of m in place.
func (m *Matrix) AddRow(v []float32) error {
	if len(v) != m.g.Cols {
		return fmt.Errorf("%w: row vector of length %d for %v", ErrShapeMismatch, len(v), m.Shape())
	}
	for i := 0; i < m.g.Rows; i++ {
		row := m.g.Data[i*m.g.Stride : i*m.g.Stride+m.g.Cols]
		for j := range row {
			row[j] += v[j]
		}
	}
	return nil
}

// Apply replaces every element x with fn(x).
func (m *Matrix) Apply(fn func(float32) float32) {
	for i, x := range m.g.Data {
		m.g.Data[i] = fn(x)
	}
}

// CopyFrom overwrites m with the contents of src. Shapes must match.
func (m *Matrix) CopyFrom(src *Matrix) error {
	if !m.Shape().Equal(src.Shape()) {
		return fmt.Errorf("%w: copy %v into %v", ErrShapeMismatch, src.Shape(), m.Shape())
	}
	copy(m.g.Data, src.g.Data)
	return nil
}

// Float32Bytes encodes values as little-endian IEEE 754 float32, the layout
// ONNX expects in TensorProto.raw_data.
func Float32Bytes(values []float32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

// Float32sFromBytes decodes little-endian float32 values.
func Float32sFromBytes(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of 4", ErrShapeMismatch, len(data))
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return out, nil
}
