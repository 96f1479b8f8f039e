package onnx

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Marshal encodes a model in protobuf wire format.
//
// Fields are written in field-number order and zero-valued scalars are
// omitted, so equal models always encode to identical bytes.
func Marshal(m *ModelProto) []byte {
	return appendModel(nil, m)
}

func appendModel(b []byte, m *ModelProto) []byte {
	b = appendInt(b, fieldModelIRVersion, m.IRVersion)
	b = appendString(b, fieldModelProducerName, m.ProducerName)
	b = appendString(b, fieldModelProducerVersion, m.ProducerVersion)
	b = appendString(b, fieldModelDomain, m.Domain)
	b = appendInt(b, fieldModelModelVersion, m.ModelVersion)
	b = appendString(b, fieldModelDocString, m.DocString)
	if m.Graph != nil {
		b = appendMessage(b, fieldModelGraph, appendGraph(nil, m.Graph))
	}
	for i := range m.OpsetImport {
		b = appendMessage(b, fieldModelOpsetImport, appendOpset(nil, &m.OpsetImport[i]))
	}
	for i := range m.MetadataProps {
		b = appendMessage(b, fieldModelMetadataProps, appendEntry(nil, &m.MetadataProps[i]))
	}
	return b
}

func appendGraph(b []byte, g *GraphProto) []byte {
	for i := range g.Nodes {
		b = appendMessage(b, fieldGraphNode, appendNode(nil, &g.Nodes[i]))
	}
	b = appendString(b, fieldGraphName, g.Name)
	for i := range g.Initializers {
		b = appendMessage(b, fieldGraphInitializer, appendTensor(nil, &g.Initializers[i]))
	}
	b = appendString(b, fieldGraphDocString, g.DocString)
	for i := range g.Inputs {
		b = appendMessage(b, fieldGraphInput, appendValueInfo(nil, &g.Inputs[i]))
	}
	for i := range g.Outputs {
		b = appendMessage(b, fieldGraphOutput, appendValueInfo(nil, &g.Outputs[i]))
	}
	return b
}

func appendNode(b []byte, n *NodeProto) []byte {
	for _, in := range n.Inputs {
		b = appendRepeatedString(b, fieldNodeInput, in)
	}
	for _, out := range n.Outputs {
		b = appendRepeatedString(b, fieldNodeOutput, out)
	}
	b = appendString(b, fieldNodeName, n.Name)
	b = appendString(b, fieldNodeOpType, n.OpType)
	for i := range n.Attributes {
		b = appendMessage(b, fieldNodeAttribute, appendAttribute(nil, &n.Attributes[i]))
	}
	b = appendString(b, fieldNodeDomain, n.Domain)
	return b
}

func appendTensor(b []byte, t *TensorProto) []byte {
	// dims is an unpacked proto2 repeated field.
	for _, d := range t.Dims {
		b = protowire.AppendTag(b, fieldTensorDims, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(d)) //nolint:gosec // G115: two's complement is the wire form of int64.
	}
	b = protowire.AppendTag(b, fieldTensorDataType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(t.DataType)) //nolint:gosec // G115: data types are small enums.
	if len(t.FloatData) > 0 {
		packed := make([]byte, 0, 4*len(t.FloatData))
		for _, f := range t.FloatData {
			packed = protowire.AppendFixed32(packed, math.Float32bits(f))
		}
		b = appendMessage(b, fieldTensorFloatData, packed)
	}
	if len(t.Int64Data) > 0 {
		var packed []byte
		for _, v := range t.Int64Data {
			packed = protowire.AppendVarint(packed, uint64(v)) //nolint:gosec // G115: wire form of int64.
		}
		b = appendMessage(b, fieldTensorInt64Data, packed)
	}
	b = appendString(b, fieldTensorName, t.Name)
	if len(t.RawData) > 0 {
		b = appendMessage(b, fieldTensorRawData, t.RawData)
	}
	return b
}

func appendValueInfo(b []byte, v *ValueInfoProto) []byte {
	b = appendString(b, fieldValueInfoName, v.Name)
	if v.Type != nil {
		b = appendMessage(b, fieldValueInfoType, appendType(nil, v.Type))
	}
	return b
}

func appendType(b []byte, t *TypeProto) []byte {
	if t.TensorType == nil {
		return b
	}
	var tt []byte
	tt = protowire.AppendTag(tt, fieldTensorTypeElemType, protowire.VarintType)
	tt = protowire.AppendVarint(tt, uint64(t.TensorType.ElemType)) //nolint:gosec // G115: small enum.
	if s := t.TensorType.Shape; s != nil {
		var shape []byte
		for i := range s.Dims {
			shape = appendMessage(shape, fieldShapeDim, appendDim(nil, &s.Dims[i]))
		}
		tt = appendMessage(tt, fieldTensorTypeShape, shape)
	}
	return appendMessage(b, fieldTypeTensorType, tt)
}

func appendDim(b []byte, d *DimensionProto) []byte {
	// dim_value and dim_param form a oneof.
	if d.DimParam != "" {
		return appendString(b, fieldDimParam, d.DimParam)
	}
	b = protowire.AppendTag(b, fieldDimValue, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(d.DimValue)) //nolint:gosec // G115: wire form of int64.
}

func appendAttribute(b []byte, a *AttributeProto) []byte {
	b = appendString(b, fieldAttrName, a.Name)
	switch a.Type {
	case AttributeProtoFloat:
		b = protowire.AppendTag(b, fieldAttrF, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(a.F))
	case AttributeProtoInt:
		b = protowire.AppendTag(b, fieldAttrI, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(a.I)) //nolint:gosec // G115: wire form of int64.
	case AttributeProtoString:
		b = appendMessage(b, fieldAttrS, a.S)
	case AttributeProtoFloats:
		for _, f := range a.Floats {
			b = protowire.AppendTag(b, fieldAttrFloats, protowire.Fixed32Type)
			b = protowire.AppendFixed32(b, math.Float32bits(f))
		}
	case AttributeProtoInts:
		for _, v := range a.Ints {
			b = protowire.AppendTag(b, fieldAttrInts, protowire.VarintType)
			b = protowire.AppendVarint(b, uint64(v)) //nolint:gosec // G115: wire form of int64.
		}
	}
	b = protowire.AppendTag(b, fieldAttrType, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(a.Type)) //nolint:gosec // G115: small enum.
}

func appendOpset(b []byte, o *OperatorSetID) []byte {
	b = appendString(b, fieldOpsetDomain, o.Domain)
	return appendInt(b, fieldOpsetVersion, o.Version)
}

func appendEntry(b []byte, e *StringStringEntry) []byte {
	b = appendString(b, fieldEntryKey, e.Key)
	return appendString(b, fieldEntryValue, e.Value)
}

// appendString writes a singular string field, skipping the empty string.
func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	return appendRepeatedString(b, num, s)
}

// appendRepeatedString writes one element of a string field, even if empty.
func appendRepeatedString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// appendInt writes a singular int64 field, skipping zero.
func appendInt(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v)) //nolint:gosec // G115: wire form of int64.
}

// appendMessage writes a length-delimited field.
func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}
