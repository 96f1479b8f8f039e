package onnx

import (
	"errors"
	"fmt"
	"math"
	"os"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrWireType is returned when a known field arrives with an unexpected wire type.
var ErrWireType = errors.New("unexpected wire type")

// ParseFile parses an ONNX model from file.
//
//nolint:gosec // G304: Path is provided by user, file inclusion is intentional for ONNX model loading
func ParseFile(path string) (*ModelProto, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse parses an ONNX model from bytes. Unknown fields are skipped.
func Parse(data []byte) (*ModelProto, error) {
	model := &ModelProto{}
	if err := readModel(data, model); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	return model, nil
}

// field is one decoded tag/value pair.
type field struct {
	num     protowire.Number
	typ     protowire.Type
	varint  uint64
	fixed32 uint32
	bytes   []byte
}

// expect checks the wire type of f.
func (f field) expect(typ protowire.Type) error {
	if f.typ != typ {
		return fmt.Errorf("%w: field %d has type %d, want %d", ErrWireType, f.num, f.typ, typ)
	}
	return nil
}

// message returns the payload of a length-delimited field.
func (f field) message() ([]byte, error) {
	if err := f.expect(protowire.BytesType); err != nil {
		return nil, err
	}
	return f.bytes, nil
}

// int64s decodes a repeated int64 field in packed or unpacked form.
func (f field) int64s() ([]int64, error) {
	switch f.typ {
	case protowire.VarintType:
		return []int64{int64(f.varint)}, nil //nolint:gosec // G115: wire form of int64.
	case protowire.BytesType:
		var out []int64
		for b := f.bytes; len(b) > 0; {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			out = append(out, int64(v)) //nolint:gosec // G115: wire form of int64.
			b = b[n:]
		}
		return out, nil
	default:
		return nil, f.expect(protowire.VarintType)
	}
}

// float32s decodes a repeated float field in packed or unpacked form.
func (f field) float32s() ([]float32, error) {
	switch f.typ {
	case protowire.Fixed32Type:
		return []float32{math.Float32frombits(f.fixed32)}, nil
	case protowire.BytesType:
		var out []float32
		for b := f.bytes; len(b) > 0; {
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			out = append(out, math.Float32frombits(v))
			b = b[n:]
		}
		return out, nil
	default:
		return nil, f.expect(protowire.Fixed32Type)
	}
}

// fields decodes every tag/value pair in data and hands it to fn.
func fields(data []byte, fn func(f field) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(data)
		case protowire.Fixed32Type:
			f.fixed32, n = protowire.ConsumeFixed32(data)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(data)
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
		}
		if n < 0 {
			return fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
		}
		data = data[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// sub decodes the message payload of f with read.
func sub[T any](f field, dst *T, read func([]byte, *T) error) error {
	data, err := f.message()
	if err != nil {
		return err
	}
	return read(data, dst)
}

func readModel(data []byte, m *ModelProto) error {
	return fields(data, func(f field) error {
		switch f.num {
		case fieldModelIRVersion:
			m.IRVersion = int64(f.varint) //nolint:gosec // G115: wire form of int64.
		case fieldModelProducerName:
			m.ProducerName = string(f.bytes)
		case fieldModelProducerVersion:
			m.ProducerVersion = string(f.bytes)
		case fieldModelDomain:
			m.Domain = string(f.bytes)
		case fieldModelModelVersion:
			m.ModelVersion = int64(f.varint) //nolint:gosec // G115: wire form of int64.
		case fieldModelDocString:
			m.DocString = string(f.bytes)
		case fieldModelGraph:
			m.Graph = &GraphProto{}
			return sub(f, m.Graph, readGraph)
		case fieldModelOpsetImport:
			var opset OperatorSetID
			if err := sub(f, &opset, readOpset); err != nil {
				return err
			}
			m.OpsetImport = append(m.OpsetImport, opset)
		case fieldModelMetadataProps:
			var entry StringStringEntry
			if err := sub(f, &entry, readEntry); err != nil {
				return err
			}
			m.MetadataProps = append(m.MetadataProps, entry)
		}
		return nil
	})
}

func readGraph(data []byte, g *GraphProto) error {
	return fields(data, func(f field) error {
		switch f.num {
		case fieldGraphNode:
			var node NodeProto
			if err := sub(f, &node, readNode); err != nil {
				return err
			}
			g.Nodes = append(g.Nodes, node)
		case fieldGraphName:
			g.Name = string(f.bytes)
		case fieldGraphInitializer:
			var t TensorProto
			if err := sub(f, &t, readTensor); err != nil {
				return err
			}
			g.Initializers = append(g.Initializers, t)
		case fieldGraphDocString:
			g.DocString = string(f.bytes)
		case fieldGraphInput:
			var vi ValueInfoProto
			if err := sub(f, &vi, readValueInfo); err != nil {
				return err
			}
			g.Inputs = append(g.Inputs, vi)
		case fieldGraphOutput:
			var vi ValueInfoProto
			if err := sub(f, &vi, readValueInfo); err != nil {
				return err
			}
			g.Outputs = append(g.Outputs, vi)
		}
		return nil
	})
}

func readNode(data []byte, n *NodeProto) error {
	return fields(data, func(f field) error {
		switch f.num {
		case fieldNodeInput:
			n.Inputs = append(n.Inputs, string(f.bytes))
		case fieldNodeOutput:
			n.Outputs = append(n.Outputs, string(f.bytes))
		case fieldNodeName:
			n.Name = string(f.bytes)
		case fieldNodeOpType:
			n.OpType = string(f.bytes)
		case fieldNodeAttribute:
			var attr AttributeProto
			if err := sub(f, &attr, readAttribute); err != nil {
				return err
			}
			n.Attributes = append(n.Attributes, attr)
		case fieldNodeDomain:
			n.Domain = string(f.bytes)
		}
		return nil
	})
}

func readTensor(data []byte, t *TensorProto) error {
	return fields(data, func(f field) error {
		switch f.num {
		case fieldTensorDims:
			dims, err := f.int64s()
			if err != nil {
				return err
			}
			t.Dims = append(t.Dims, dims...)
		case fieldTensorDataType:
			t.DataType = int32(f.varint) //nolint:gosec // G115: small enum.
		case fieldTensorFloatData:
			vals, err := f.float32s()
			if err != nil {
				return err
			}
			t.FloatData = append(t.FloatData, vals...)
		case fieldTensorInt64Data:
			vals, err := f.int64s()
			if err != nil {
				return err
			}
			t.Int64Data = append(t.Int64Data, vals...)
		case fieldTensorName:
			t.Name = string(f.bytes)
		case fieldTensorRawData:
			raw, err := f.message()
			if err != nil {
				return err
			}
			t.RawData = raw
		}
		return nil
	})
}

func readValueInfo(data []byte, v *ValueInfoProto) error {
	return fields(data, func(f field) error {
		switch f.num {
		case fieldValueInfoName:
			v.Name = string(f.bytes)
		case fieldValueInfoType:
			v.Type = &TypeProto{}
			return sub(f, v.Type, readType)
		}
		return nil
	})
}

func readType(data []byte, t *TypeProto) error {
	return fields(data, func(f field) error {
		if f.num == fieldTypeTensorType {
			t.TensorType = &TensorTypeProto{}
			return sub(f, t.TensorType, readTensorType)
		}
		return nil
	})
}

func readTensorType(data []byte, t *TensorTypeProto) error {
	return fields(data, func(f field) error {
		switch f.num {
		case fieldTensorTypeElemType:
			t.ElemType = int32(f.varint) //nolint:gosec // G115: small enum.
		case fieldTensorTypeShape:
			t.Shape = &TensorShapeProto{}
			return sub(f, t.Shape, readShape)
		}
		return nil
	})
}

func readShape(data []byte, s *TensorShapeProto) error {
	return fields(data, func(f field) error {
		if f.num == fieldShapeDim {
			var dim DimensionProto
			if err := sub(f, &dim, readDim); err != nil {
				return err
			}
			s.Dims = append(s.Dims, dim)
		}
		return nil
	})
}

func readDim(data []byte, d *DimensionProto) error {
	return fields(data, func(f field) error {
		switch f.num {
		case fieldDimValue:
			d.DimValue = int64(f.varint) //nolint:gosec // G115: wire form of int64.
		case fieldDimParam:
			d.DimParam = string(f.bytes)
		}
		return nil
	})
}

func readAttribute(data []byte, a *AttributeProto) error {
	return fields(data, func(f field) error {
		switch f.num {
		case fieldAttrName:
			a.Name = string(f.bytes)
		case fieldAttrF:
			if err := f.expect(protowire.Fixed32Type); err != nil {
				return err
			}
			a.F = math.Float32frombits(f.fixed32)
		case fieldAttrI:
			a.I = int64(f.varint) //nolint:gosec // G115: wire form of int64.
		case fieldAttrS:
			a.S = f.bytes
		case fieldAttrFloats:
			vals, err := f.float32s()
			if err != nil {
				return err
			}
			a.Floats = append(a.Floats, vals...)
		case fieldAttrInts:
			vals, err := f.int64s()
			if err != nil {
				return err
			}
			a.Ints = append(a.Ints, vals...)
		case fieldAttrType:
			a.Type = int32(f.varint) //nolint:gosec // G115: small enum.
		}
		return nil
	})
}

func readOpset(data []byte, o *OperatorSetID) error {
	return fields(data, func(f field) error {
		switch f.num {
		case fieldOpsetDomain:
			o.Domain = string(f.bytes)
		case fieldOpsetVersion:
			o.Version = int64(f.varint) //nolint:gosec // G115: wire form of int64.
		}
		return nil
	})
}

func readEntry(data []byte, e *StringStringEntry) error {
	return fields(data, func(f field) error {
		switch f.num {
		case fieldEntryKey:
			e.Key = string(f.bytes)
		case fieldEntryValue:
			e.Value = string(f.bytes)
		}
		return nil
	})
}
