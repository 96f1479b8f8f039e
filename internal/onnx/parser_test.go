package onnx

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

// msg builds a length-delimited submessage field.
func msg(b []byte, num protowire.Number, payload []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, payload)
}

func varint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func str(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// buildMatMulModel encodes Y = X @ W with W as a packed-dims initializer,
// written the way other exporters do it (packed dims, float_data).
func buildMatMulModel() []byte {
	var dims []byte
	dims = protowire.AppendVarint(dims, 2)
	dims = protowire.AppendVarint(dims, 2)

	var floats []byte
	for _, f := range []float32{1, 2, 3, 4} {
		floats = protowire.AppendFixed32(floats, math.Float32bits(f))
	}

	var w []byte
	w = msg(w, fieldTensorDims, dims)
	w = varint(w, fieldTensorDataType, TensorProtoFloat)
	w = msg(w, fieldTensorFloatData, floats)
	w = str(w, fieldTensorName, "W")

	var node []byte
	node = str(node, fieldNodeInput, "X")
	node = str(node, fieldNodeInput, "W")
	node = str(node, fieldNodeOutput, "Y")
	node = str(node, fieldNodeOpType, "MatMul")

	var attr []byte
	attr = str(attr, fieldAttrName, "perm")
	attr = varint(attr, fieldAttrInts, 1)
	attr = varint(attr, fieldAttrInts, 0)
	attr = varint(attr, fieldAttrType, AttributeProtoInts)
	node = msg(node, fieldNodeAttribute, attr)

	var graph []byte
	graph = msg(graph, fieldGraphNode, node)
	graph = str(graph, fieldGraphName, "matmul")
	graph = msg(graph, fieldGraphInitializer, w)
	graph = msg(graph, fieldGraphInput, str(nil, fieldValueInfoName, "X"))
	graph = msg(graph, fieldGraphOutput, str(nil, fieldValueInfoName, "Y"))

	var opset []byte
	opset = varint(opset, fieldOpsetVersion, 13)

	var model []byte
	model = varint(model, fieldModelIRVersion, 7)
	model = str(model, fieldModelProducerName, "tf2onnx")
	model = msg(model, fieldModelGraph, graph)
	model = msg(model, fieldModelOpsetImport, opset)
	// Unknown field (training_info = 20) must be skipped.
	model = msg(model, 20, []byte{0x08, 0x01})
	return model
}

func TestParseWithInitializer(t *testing.T) {
	model, err := Parse(buildMatMulModel())
	require.NoError(t, err)

	assert.Equal(t, int64(7), model.IRVersion)
	assert.Equal(t, "tf2onnx", model.ProducerName)
	require.Len(t, model.OpsetImport, 1)
	assert.Equal(t, int64(13), model.OpsetImport[0].Version)

	require.NotNil(t, model.Graph)
	assert.Equal(t, "matmul", model.Graph.Name)
	require.Len(t, model.Graph.Nodes, 1)

	node := model.Graph.Nodes[0]
	assert.Equal(t, "MatMul", node.OpType)
	assert.Equal(t, []string{"X", "W"}, node.Inputs)
	assert.Equal(t, []string{"Y"}, node.Outputs)
	require.Len(t, node.Attributes, 1)
	assert.Equal(t, []int64{1, 0}, node.Attributes[0].Ints)

	require.Len(t, model.Graph.Initializers, 1)
	init := model.Graph.Initializers[0]
	assert.Equal(t, "W", init.Name)
	assert.Equal(t, int32(TensorProtoFloat), init.DataType)
	assert.Equal(t, []int64{2, 2}, init.Dims)
	assert.Equal(t, []float32{1, 2, 3, 4}, init.FloatData)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matmul.onnx")
	require.NoError(t, os.WriteFile(path, buildMatMulModel(), 0o600))

	model, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "matmul", model.Graph.Name)

	info, err := GetModelInfo(path)
	require.NoError(t, err)
	assert.Equal(t, int64(13), info.OpsetVersion)
	assert.Equal(t, []string{"X"}, info.InputNames)
	assert.Equal(t, []string{"Y"}, info.OutputNames)
	assert.Equal(t, []string{"MatMul"}, info.Operators)
	assert.Equal(t, int64(4), info.ParameterCount)
}

func TestParseInvalidFile(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.onnx"))
	require.Error(t, err)
}

func TestParseEmptyData(t *testing.T) {
	model, err := Parse(nil)
	require.NoError(t, err)
	assert.Nil(t, model.Graph)
}

func TestParseTruncated(t *testing.T) {
	data := buildMatMulModel()

	_, err := Parse(data[:len(data)/2])
	require.Error(t, err)
}

func TestParseWrongWireType(t *testing.T) {
	// graph (field 7) encoded as a varint.
	data := varint(nil, fieldModelGraph, 1)

	_, err := Parse(data)
	require.ErrorIs(t, err, ErrWireType)
}

func TestMarshalParseRoundTrip(t *testing.T) {
	in := &ModelProto{
		IRVersion:       7,
		OpsetImport:     []OperatorSetID{{Version: 13}},
		ProducerName:    "actorconv",
		ProducerVersion: "v1",
		DocString:       "doc",
		MetadataProps:   []StringStringEntry{{Key: "k", Value: "v"}},
		Graph: &GraphProto{
			Name: "g",
			Nodes: []NodeProto{{
				Name:    "n",
				OpType:  "Gemm",
				Inputs:  []string{"a", "", "c"},
				Outputs: []string{"y"},
				Attributes: []AttributeProto{
					{Name: "alpha", Type: AttributeProtoFloat, F: 0.5},
					{Name: "transB", Type: AttributeProtoInt, I: 1},
					{Name: "mode", Type: AttributeProtoString, S: []byte("x")},
					{Name: "scales", Type: AttributeProtoFloats, Floats: []float32{1, 2}},
					{Name: "perm", Type: AttributeProtoInts, Ints: []int64{1, 0}},
				},
			}},
			Initializers: []TensorProto{
				{Name: "c", DataType: TensorProtoFloat, Dims: []int64{2}, RawData: []byte{0, 0, 128, 63, 0, 0, 0, 64}},
				{Name: "shape", DataType: TensorProtoInt64, Dims: []int64{2}, Int64Data: []int64{-1, 31}},
				{Name: "scale", DataType: TensorProtoFloat, Dims: []int64{3}, FloatData: []float32{0.5, -1, 2}},
			},
			Inputs: []ValueInfoProto{{Name: "a", Type: &TypeProto{TensorType: &TensorTypeProto{
				ElemType: TensorProtoFloat,
				Shape:    &TensorShapeProto{Dims: []DimensionProto{{DimParam: "N"}, {DimValue: 31}}},
			}}}},
			Outputs: []ValueInfoProto{{Name: "y"}},
		},
	}

	out, err := Parse(Marshal(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
