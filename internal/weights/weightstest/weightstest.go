// Package weightstest builds deterministic weight records and files for tests.
package weightstest

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/actorconv/internal/tensor"
	"github.com/born-ml/actorconv/internal/weights"
)

// ActorKernelShapes are the kernel shapes of the actor network, input to output.
var ActorKernelShapes = []tensor.Shape{{31, 128}, {128, 128}, {128, 64}, {64, 1}}

// Records returns one record per kernel shape. Values depend only on seed,
// the record index and the element position, so equal seeds give equal records.
func Records(shapes []tensor.Shape, seed float64) []weights.Record {
	records := make([]weights.Record, len(shapes))
	for i, shape := range shapes {
		in, out := shape[0], shape[1]
		w := make([][]float64, in)
		for r := range w {
			w[r] = make([]float64, out)
			for c := range w[r] {
				w[r][c] = value(seed, i, r*out+c)
			}
		}
		b := make([]float64, out)
		for c := range b {
			b[c] = value(seed, i, -c-1)
		}
		records[i] = weights.Record{Name: fmt.Sprintf("dense_Dense%d", i+1), Weights: w, Bias: b}
	}
	return records
}

// value is a small deterministic pseudo-random number in [-0.5, 0.5).
func value(seed float64, layer, pos int) float64 {
	x := float64(pos)*0.6180339887 + float64(layer)*0.4142135623 + seed*0.7320508075
	return x - math.Floor(x) - 0.5
}

// WriteFile marshals records to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name string, records []weights.Record) string {
	t.Helper()

	data, err := json.Marshal(records)
	require.NoError(t, err)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}
