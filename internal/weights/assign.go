package weights

import (
	"fmt"

	"github.com/born-ml/actorconv/internal/nn"
	"github.com/born-ml/actorconv/internal/tensor"
)

// MatchMode selects how records are paired with dense layers.
type MatchMode string

// Match modes.
const (
	// MatchPosition pairs the i-th record with the i-th dense layer.
	MatchPosition MatchMode = "position"
	// MatchName pairs each dense layer with the record of the same name.
	MatchName MatchMode = "name"
)

// Options configures Assign.
type Options struct {
	// Match selects the pairing strategy (default: MatchPosition).
	Match MatchMode

	// OnMatch, if set, is called once per assigned layer in model order.
	OnMatch func(layer, record string)
}

// Target is a built network exposing its dense layers in construction order.
type Target interface {
	WeightedLayers() []*nn.Dense
}

// pair is a validated record ready to be written into its layer.
type pair struct {
	layer  *nn.Dense
	record string
	kernel *tensor.Matrix
	bias   []float32
}

// Assign overwrites the kernel and bias of every dense layer in model.
//
// The number of records must equal the number of dense layers and every
// record must match its layer's shapes exactly. All pairs are validated
// before any layer is written, so on error the model is left unchanged.
func Assign(model Target, records []Record, opts Options) error {
	layers := model.WeightedLayers()
	for _, layer := range layers {
		if !layer.Built() {
			return fmt.Errorf("%s: %w", layer.Name(), nn.ErrNotBuilt)
		}
	}

	indices, err := match(layers, records, opts.Match)
	if err != nil {
		return err
	}

	pairs := make([]pair, len(layers))
	for i, layer := range layers {
		p, err := prepare(layer, records[indices[i]], indices[i])
		if err != nil {
			return err
		}
		pairs[i] = p
	}

	for _, p := range pairs {
		if err := p.layer.SetWeights(p.kernel, p.bias); err != nil {
			return err
		}
		if opts.OnMatch != nil {
			opts.OnMatch(p.layer.Name(), p.record)
		}
	}
	return nil
}

// match returns, for each layer, the index of the record assigned to it.
func match(layers []*nn.Dense, records []Record, mode MatchMode) ([]int, error) {
	if len(records) != len(layers) {
		return nil, fmt.Errorf("%w: %d records, %d dense layers", ErrLayerCount, len(records), len(layers))
	}

	indices := make([]int, len(layers))
	switch mode {
	case "", MatchPosition:
		for i := range layers {
			indices[i] = i
		}
	case MatchName:
		byName := make(map[string]int, len(records))
		for i, r := range records {
			if _, dup := byName[r.Name]; dup {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateRecord, r.Name)
			}
			byName[r.Name] = i
		}
		for i, layer := range layers {
			idx, ok := byName[layer.Name()]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrRecordNotFound, layer.Name())
			}
			indices[i] = idx
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMatch, mode)
	}
	return indices, nil
}

// prepare converts a record to float32 and checks it against layer.
func prepare(layer *nn.Dense, r Record, index int) (pair, error) {
	want := layer.KernelShape()
	shapeErr := func(param string, want, got tensor.Shape, cause error) error {
		return &ShapeError{
			Layer:  layer.Name(),
			Record: r.Name,
			Index:  index,
			Param:  param,
			Want:   want,
			Got:    got,
			Cause:  cause,
		}
	}

	kernel, err := tensor.FromRows(r.Weights)
	if err != nil {
		return pair{}, shapeErr("kernel", want, nil, err)
	}
	if !kernel.Shape().Equal(want) {
		return pair{}, shapeErr("kernel", want, kernel.Shape(), nil)
	}

	if len(r.Bias) != layer.Units() {
		return pair{}, shapeErr("bias", tensor.Shape{layer.Units()}, tensor.Shape{len(r.Bias)}, nil)
	}
	bias := make([]float32, len(r.Bias))
	for i, v := range r.Bias {
		bias[i] = float32(v)
	}

	return pair{layer: layer, record: r.Name, kernel: kernel, bias: bias}, nil
}
