package onnx

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/actorconv/internal/nn"
	"github.com/born-ml/actorconv/internal/tensor"
)

func smallNet(t *testing.T) *nn.Sequential {
	t.Helper()
	net := nn.NewSequential(nn.NewInput(3),
		nn.NewDense("hidden", 2, nn.ReLU),
		nn.NewDense("out", 1, nn.Sigmoid),
	)
	require.NoError(t, net.Build())

	layers := net.WeightedLayers()
	k0, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, 3, 2)
	require.NoError(t, err)
	require.NoError(t, layers[0].SetWeights(k0, []float32{0.1, 0.2}))
	k1, err := tensor.FromSlice([]float32{-1, 1}, 2, 1)
	require.NoError(t, err)
	require.NoError(t, layers[1].SetWeights(k1, []float32{0.5}))
	return net
}

func TestExport_Graph(t *testing.T) {
	model, err := Export(smallNet(t), DefaultSignature(3), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, int64(7), model.IRVersion)
	assert.Equal(t, []OperatorSetID{{Domain: "", Version: 13}}, model.OpsetImport)
	assert.Equal(t, "actorconv", model.ProducerName)

	g := model.Graph
	require.NotNil(t, g)

	ops := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ops[i] = n.OpType
	}
	assert.Equal(t, []string{"MatMul", "Add", "Relu", "MatMul", "Add", "Sigmoid"}, ops)

	// Layers are chained and the last node writes the graph output.
	assert.Equal(t, []string{"input", "hidden/kernel"}, g.Nodes[0].Inputs)
	assert.Equal(t, []string{"hidden/Relu:0", "out/kernel"}, g.Nodes[3].Inputs)
	assert.Equal(t, []string{"output"}, g.Nodes[5].Outputs)

	require.Len(t, g.Initializers, 4)
	kernel := g.Initializers[0]
	assert.Equal(t, "hidden/kernel", kernel.Name)
	assert.Equal(t, []int64{3, 2}, kernel.Dims)
	vals, err := tensor.Float32sFromBytes(kernel.RawData)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, vals)

	bias := g.Initializers[3]
	assert.Equal(t, "out/bias", bias.Name)
	assert.Equal(t, []int64{1}, bias.Dims)

	require.Len(t, g.Inputs, 1)
	in := g.Inputs[0].Type.TensorType
	assert.Equal(t, int32(TensorProtoFloat), in.ElemType)
	assert.Equal(t, []DimensionProto{{DimParam: "N"}, {DimValue: 3}}, in.Shape.Dims)

	require.Len(t, g.Outputs, 1)
	assert.Equal(t, "output", g.Outputs[0].Name)
	assert.Equal(t, []DimensionProto{{DimParam: "N"}, {DimValue: 1}}, g.Outputs[0].Type.TensorType.Shape.Dims)
}

func TestExport_LinearLayerHasNoActivationNode(t *testing.T) {
	net := nn.NewSequential(nn.NewInput(2), nn.NewDense("value", 1, nn.Linear))
	require.NoError(t, net.Build())

	model, err := Export(net, DefaultSignature(2), DefaultOptions())
	require.NoError(t, err)

	require.Len(t, model.Graph.Nodes, 2)
	assert.Equal(t, "Add", model.Graph.Nodes[1].OpType)
	assert.Equal(t, []string{"output"}, model.Graph.Nodes[1].Outputs)
}

func TestExport_Deterministic(t *testing.T) {
	net := smallNet(t)

	a, err := Export(net, DefaultSignature(3), DefaultOptions())
	require.NoError(t, err)
	b, err := Export(net, DefaultSignature(3), DefaultOptions())
	require.NoError(t, err)

	assert.True(t, bytes.Equal(Marshal(a), Marshal(b)))
}

func TestExport_RoundTrip(t *testing.T) {
	model, err := Export(smallNet(t), DefaultSignature(3), DefaultOptions())
	require.NoError(t, err)

	parsed, err := Parse(Marshal(model))
	require.NoError(t, err)
	assert.Equal(t, model, parsed)

	info := Info(parsed)
	assert.Equal(t, []string{"input"}, info.InputNames)
	assert.Equal(t, []string{"output"}, info.OutputNames)
	assert.Equal(t, []string{"MatMul", "Add", "Relu", "Sigmoid"}, info.Operators)
	assert.Equal(t, 6, info.NodeCount)
	assert.Equal(t, 4, info.WeightCount)
	assert.Equal(t, int64(3*2+2+2*1+1), info.ParameterCount)
	assert.Equal(t, int64(4*(3*2+2+2*1+1)), info.WeightBytes)
}

func TestExport_Incompatible(t *testing.T) {
	tests := []struct {
		name string
		net  func(t *testing.T) *nn.Sequential
		sig  Signature
		opts func() Options
	}{
		{
			name: "opset too old",
			net:  smallNet,
			sig:  DefaultSignature(3),
			opts: func() Options { o := DefaultOptions(); o.Opset = 7; return o },
		},
		{
			name: "opset too new",
			net:  smallNet,
			sig:  DefaultSignature(3),
			opts: func() Options { o := DefaultOptions(); o.Opset = 99; return o },
		},
		{
			name: "signature width",
			net:  smallNet,
			sig:  DefaultSignature(31),
			opts: DefaultOptions,
		},
		{
			name: "non-dense layer",
			net: func(t *testing.T) *nn.Sequential {
				net := nn.NewSequential(nn.NewInput(2), nn.NewDense("odd", 1, nn.Linear))
				require.NoError(t, net.Build())
				return nn.NewSequential(nn.NewInput(2), &oddLayer{net.WeightedLayers()[0]})
			},
			sig:  DefaultSignature(2),
			opts: DefaultOptions,
		},
		{
			name: "duplicate layer names",
			net: func(t *testing.T) *nn.Sequential {
				net := nn.NewSequential(nn.NewInput(3),
					nn.NewDense("x", 2, nn.ReLU),
					nn.NewDense("x", 1, nn.Sigmoid),
				)
				require.NoError(t, net.Build())
				return net
			},
			sig:  DefaultSignature(3),
			opts: DefaultOptions,
		},
		{
			name: "input name equals output name",
			net:  smallNet,
			sig:  Signature{InputName: "x", OutputName: "x", BatchDim: "N", Features: 3},
			opts: DefaultOptions,
		},
		{
			name: "output name shadows initializer",
			net:  smallNet,
			sig:  Signature{InputName: "input", OutputName: "hidden/kernel", BatchDim: "N", Features: 3},
			opts: DefaultOptions,
		},
		{
			name: "no layers",
			net:  func(*testing.T) *nn.Sequential { return nn.NewSequential(nn.NewInput(2)) },
			sig:  DefaultSignature(2),
			opts: DefaultOptions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Export(tt.net(t), tt.sig, tt.opts())
			require.ErrorIs(t, err, ErrIncompatible)

			var incompatible *IncompatibleError
			require.True(t, errors.As(err, &incompatible))
			assert.NotEmpty(t, incompatible.Remedy)
		})
	}
}

// oddLayer is a non-dense module the exporter cannot map.
type oddLayer struct{ *nn.Dense }

func TestExport_Unbuilt(t *testing.T) {
	net := nn.NewSequential(nn.NewInput(2), nn.NewDense("d", 1, nn.Linear))

	_, err := Export(net, DefaultSignature(2), DefaultOptions())
	require.ErrorIs(t, err, nn.ErrNotBuilt)
}

func TestIRVersion(t *testing.T) {
	tests := map[int64]int64{9: 4, 11: 6, 13: 7, 15: 8, 19: 9, 21: 10}
	for opset, want := range tests {
		got, err := IRVersion(opset)
		require.NoError(t, err)
		assert.Equal(t, want, got, "opset %d", opset)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.onnx")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	require.NoError(t, WriteFile(path, []byte("new model")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new model", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestWriteFile_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no", "such", "model.onnx")

	require.Error(t, WriteFile(path, []byte("x")))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
