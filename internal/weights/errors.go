package weights

import (
	"errors"
	"fmt"

	"github.com/born-ml/actorconv/internal/tensor"
)

// Common errors.
var (
	ErrInputNotFound   = errors.New("weights file not found")
	ErrLayerCount      = errors.New("record count does not match dense layer count")
	ErrRecordNotFound  = errors.New("no record for layer")
	ErrDuplicateRecord = errors.New("duplicate record name")
	ErrUnknownMatch    = errors.New("unknown match mode")
)

// ShapeError reports a record whose arrays do not fit its target layer.
type ShapeError struct {
	Layer  string       // Target layer name
	Record string       // Record name from the JSON file
	Index  int          // Record position in the file
	Param  string       // "kernel" or "bias"
	Want   tensor.Shape // Expected shape
	Got    tensor.Shape // Shape found in the record (nil if ragged)
	Cause  error        // Underlying conversion error, if any
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("record %d (%q) -> layer %q: %s: %v", e.Index, e.Record, e.Layer, e.Param, e.Cause)
	}
	return fmt.Sprintf("record %d (%q) -> layer %q: %s shape %v, want %v", e.Index, e.Record, e.Layer, e.Param, e.Got, e.Want)
}

// Unwrap returns the underlying conversion error.
func (e *ShapeError) Unwrap() error {
	return e.Cause
}
