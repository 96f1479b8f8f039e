package onnx

import (
	"errors"
	"fmt"

	"github.com/born-ml/actorconv/internal/nn"
	"github.com/born-ml/actorconv/internal/tensor"
)

// Opset range the exporter can target. MatMul, Add, Relu, Sigmoid and Tanh
// have compatible definitions across all of it.
const (
	DefaultOpset = 13
	MinOpset     = 9
	MaxOpset     = 21
)

// ErrIncompatible is wrapped by every IncompatibleError.
var ErrIncompatible = errors.New("model cannot be converted to ONNX")

// IncompatibleError reports a model or option the exporter cannot express,
// along with the action most likely to fix it.
type IncompatibleError struct {
	Reason string // What could not be converted
	Remedy string // Suggested fix
}

// Error implements the error interface.
func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrIncompatible, e.Reason)
}

// Unwrap returns ErrIncompatible.
func (e *IncompatibleError) Unwrap() error {
	return ErrIncompatible
}

// Signature declares the graph input and output.
type Signature struct {
	InputName  string // Graph input name the runtime feeds
	OutputName string // Graph output name
	BatchDim   string // Symbolic name of the unspecified batch dimension
	Features   int    // Input width
}

// DefaultSignature returns a [N, features] float32 input named "input" and
// an output named "output".
func DefaultSignature(features int) Signature {
	return Signature{
		InputName:  "input",
		OutputName: "output",
		BatchDim:   "N",
		Features:   features,
	}
}

// Options configures model metadata and the target opset.
type Options struct {
	Opset           int64
	ProducerName    string
	ProducerVersion string
	GraphName       string
	DocString       string
}

// DefaultOptions targets opset 13, which ONNX Runtime Web handles well.
func DefaultOptions() Options {
	return Options{
		Opset:        DefaultOpset,
		ProducerName: "actorconv",
		GraphName:    "actor",
	}
}

// Network is a layer stack with a declared input width.
type Network interface {
	Input() *nn.Input
	Layers() []nn.Module
}

// IRVersion returns the ONNX IR version released alongside opset.
func IRVersion(opset int64) (int64, error) {
	switch {
	case opset < MinOpset || opset > MaxOpset:
		return 0, &IncompatibleError{
			Reason: fmt.Sprintf("opset %d is outside the supported range %d-%d", opset, MinOpset, MaxOpset),
			Remedy: fmt.Sprintf("set opset to %d (widest runtime support) or another value in %d-%d", DefaultOpset, MinOpset, MaxOpset),
		}
	case opset == 9:
		return 4, nil
	case opset == 10:
		return 5, nil
	case opset == 11:
		return 6, nil
	case opset <= 14:
		return 7, nil
	case opset <= 18:
		return 8, nil
	case opset <= 20:
		return 9, nil
	default:
		return 10, nil
	}
}

// activationOp maps a fused activation to its ONNX operator ("" for none).
func activationOp(a nn.Activation) (string, bool) {
	switch a {
	case nn.Linear:
		return "", true
	case nn.ReLU:
		return "Relu", true
	case nn.Sigmoid:
		return "Sigmoid", true
	case nn.Tanh:
		return "Tanh", true
	default:
		return "", false
	}
}

// Export converts a built network into an ONNX model.
//
// Each dense layer becomes MatMul -> Add -> activation with its kernel and
// bias stored as float32 initializers named "<layer>/kernel" and
// "<layer>/bias". The final node writes to sig.OutputName.
func Export(net Network, sig Signature, opts Options) (*ModelProto, error) {
	irVersion, err := IRVersion(opts.Opset)
	if err != nil {
		return nil, err
	}

	if w := net.Input().Width(); sig.Features != w {
		return nil, &IncompatibleError{
			Reason: fmt.Sprintf("input signature declares %d features, model input has %d", sig.Features, w),
			Remedy: fmt.Sprintf("declare the input signature as [%s, %d] float32", sig.BatchDim, w),
		}
	}

	layers := net.Layers()
	if len(layers) == 0 {
		return nil, &IncompatibleError{
			Reason: "model has no layers",
			Remedy: "build the model before exporting",
		}
	}

	graph := &GraphProto{Name: opts.GraphName}
	current := sig.InputName
	var outWidth int

	for _, module := range layers {
		dense, ok := module.(*nn.Dense)
		if !ok {
			return nil, &IncompatibleError{
				Reason: fmt.Sprintf("layer %q (%T) has no ONNX mapping", module.Name(), module),
				Remedy: "only dense layers can be exported",
			}
		}
		if !dense.Built() {
			return nil, fmt.Errorf("export %s: %w", dense.Name(), nn.ErrNotBuilt)
		}

		current, err = appendDense(graph, dense, current)
		if err != nil {
			return nil, err
		}
		outWidth = dense.Units()
	}

	// Rename the last produced tensor to the declared output name.
	last := &graph.Nodes[len(graph.Nodes)-1]
	last.Outputs[0] = sig.OutputName
	if err := checkTensorNames(graph, sig.InputName); err != nil {
		return nil, err
	}

	graph.Inputs = []ValueInfoProto{floatValueInfo(sig.InputName, sig.BatchDim, sig.Features)}
	graph.Outputs = []ValueInfoProto{floatValueInfo(sig.OutputName, sig.BatchDim, outWidth)}

	return &ModelProto{
		IRVersion:       irVersion,
		OpsetImport:     []OperatorSetID{{Domain: "", Version: opts.Opset}},
		ProducerName:    opts.ProducerName,
		ProducerVersion: opts.ProducerVersion,
		DocString:       opts.DocString,
		Graph:           graph,
	}, nil
}

// appendDense adds the nodes and initializers of one dense layer and
// returns the name of its output tensor.
func appendDense(g *GraphProto, d *nn.Dense, input string) (string, error) {
	op, ok := activationOp(d.Activation())
	if !ok {
		return "", &IncompatibleError{
			Reason: fmt.Sprintf("layer %q uses activation %q which has no ONNX operator", d.Name(), d.Activation()),
			Remedy: "use one of linear, relu, sigmoid or tanh",
		}
	}

	name := d.Name()
	kernelName := name + "/kernel"
	biasName := name + "/bias"

	g.Initializers = append(g.Initializers,
		floatTensor(kernelName, d.Kernel().Shape(), d.Kernel().Data()),
		floatTensor(biasName, d.Bias().Shape(), d.Bias().Data()),
	)

	matmulOut := name + "/MatMul:0"
	addOut := name + "/BiasAdd:0"
	g.Nodes = append(g.Nodes,
		NodeProto{Name: name + "/MatMul", OpType: "MatMul", Inputs: []string{input, kernelName}, Outputs: []string{matmulOut}},
		NodeProto{Name: name + "/BiasAdd", OpType: "Add", Inputs: []string{matmulOut, biasName}, Outputs: []string{addOut}},
	)
	if op == "" {
		return addOut, nil
	}

	actOut := name + "/" + op + ":0"
	g.Nodes = append(g.Nodes,
		NodeProto{Name: name + "/" + op, OpType: op, Inputs: []string{addOut}, Outputs: []string{actOut}},
	)
	return actOut, nil
}

// checkTensorNames enforces that every tensor in the graph is defined once:
// the graph input, each initializer and each node output.
func checkTensorNames(g *GraphProto, input string) error {
	defined := map[string]bool{input: true}
	define := func(name string) error {
		if name == "" || defined[name] {
			return &IncompatibleError{
				Reason: fmt.Sprintf("tensor name %q is empty or defined more than once", name),
				Remedy: "give every layer a distinct non-empty name and use different input and output names",
			}
		}
		defined[name] = true
		return nil
	}
	for i := range g.Initializers {
		if err := define(g.Initializers[i].Name); err != nil {
			return err
		}
	}
	for i := range g.Nodes {
		for _, out := range g.Nodes[i].Outputs {
			if err := define(out); err != nil {
				return err
			}
		}
	}
	return nil
}

// elemType maps a tensor data type to its TensorProto.DataType code.
func elemType(dt tensor.DataType) int32 {
	switch dt {
	case tensor.Float32:
		return TensorProtoFloat
	case tensor.Float64:
		return TensorProtoDouble
	case tensor.Int32:
		return TensorProtoInt32
	case tensor.Int64:
		return TensorProtoInt64
	default:
		return TensorProtoUndefined
	}
}

// dataType is the inverse of elemType.
func dataType(code int32) (tensor.DataType, bool) {
	switch code {
	case TensorProtoFloat:
		return tensor.Float32, true
	case TensorProtoDouble:
		return tensor.Float64, true
	case TensorProtoInt32:
		return tensor.Int32, true
	case TensorProtoInt64:
		return tensor.Int64, true
	default:
		return 0, false
	}
}

func floatTensor(name string, shape tensor.Shape, data []float32) TensorProto {
	return TensorProto{
		Name:     name,
		DataType: elemType(tensor.Float32),
		Dims:     shape.Int64s(),
		RawData:  tensor.Float32Bytes(data),
	}
}

func floatValueInfo(name, batchDim string, width int) ValueInfoProto {
	return ValueInfoProto{
		Name: name,
		Type: &TypeProto{TensorType: &TensorTypeProto{
			ElemType: elemType(tensor.Float32),
			Shape: &TensorShapeProto{Dims: []DimensionProto{
				{DimParam: batchDim},
				{DimValue: int64(width)},
			}},
		}},
	}
}
