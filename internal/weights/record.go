package weights

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Record holds the parameters of one dense layer as exported to JSON.
type Record struct {
	Name    string      `json:"name"`
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// Exists reports ErrInputNotFound when path does not exist.
func Exists(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return fmt.Errorf("failed to stat weights file: %w", err)
	}
	return nil
}

// Load reads weight records from a JSON file.
//
//nolint:gosec // G304: Path is provided by user, reading it is the point
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to open weights file: %w", err)
	}
	defer f.Close()

	records, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Decode parses weight records from r. Only JSON well-formedness is
// checked; shapes are validated by Assign.
func Decode(r io.Reader) ([]Record, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to parse weights JSON: %w", err)
	}
	return records, nil
}
