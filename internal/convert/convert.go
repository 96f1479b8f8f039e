// Package convert runs the weights-to-ONNX conversion: build the actor
// network, load and assign its weights, export and write the model.
package convert

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log"

	"github.com/born-ml/actorconv/internal/actor"
	"github.com/born-ml/actorconv/internal/config"
	"github.com/born-ml/actorconv/internal/onnx"
	"github.com/born-ml/actorconv/internal/weights"
)

// LayerMatch records which weight record was written into which layer.
type LayerMatch struct {
	Layer  string
	Record string
}

// Result describes a completed conversion.
type Result struct {
	Output   string       // Path of the written model
	Bytes    int          // Size of the serialized model
	Checksum [32]byte     // SHA-256 of the serialized model
	Layers   []LayerMatch // Assigned layers in model order
}

// Pipeline converts one weights file into one ONNX model.
type Pipeline struct {
	cfg     config.Config
	version string
	logger  *log.Logger
}

// New creates a pipeline. version is stamped into the model as the
// producer version. A nil logger discards progress messages.
func New(cfg config.Config, version string, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Pipeline{cfg: cfg, version: version, logger: logger}
}

// Run executes every step once, in order, stopping at the first error.
// The output file is only written when every earlier step succeeded.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := weights.Exists(p.cfg.Input); err != nil {
		return nil, err
	}

	p.logger.Println("1. Building model...")
	model, err := actor.Build(p.cfg.LayerNames...)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.logger.Printf("2. Loading weights: %s", p.cfg.Input)
	records, err := weights.Load(p.cfg.Input)
	if err != nil {
		return nil, err
	}

	result := &Result{Output: p.cfg.Output}
	err = weights.Assign(model, records, weights.Options{
		Match: p.cfg.Match,
		OnMatch: func(layer, record string) {
			p.logger.Printf("  - LayerMatch: %s <- JSON (%s)", layer, record)
			result.Layers = append(result.Layers, LayerMatch{Layer: layer, Record: record})
		},
	})
	if err != nil {
		return nil, fmt.Errorf("assign weights: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.logger.Printf("3. Converting to ONNX (opset %d)...", p.cfg.Opset)
	sig := onnx.DefaultSignature(actor.StateSize)
	sig.InputName = p.cfg.InputName
	sig.OutputName = p.cfg.OutputName

	opts := onnx.DefaultOptions()
	opts.Opset = p.cfg.Opset
	opts.ProducerVersion = p.version
	opts.DocString = p.cfg.DocString

	proto, err := onnx.Export(model, sig, opts)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	data := onnx.Marshal(proto)

	if err := onnx.WriteFile(p.cfg.Output, data); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	result.Bytes = len(data)
	result.Checksum = sha256.Sum256(data)
	p.logger.Printf("Wrote %s (%d bytes)", p.cfg.Output, len(data))

	return result, nil
}
