package onnx

// ONNX protobuf data structures (hand-written subset of onnx.proto).

// ModelProto represents an ONNX model.
type ModelProto struct {
	IRVersion       int64               // IR version (e.g., 7, 8, 9)
	OpsetImport     []OperatorSetID     // Opset version(s)
	ProducerName    string              // Framework name (e.g., "actorconv", "tf2onnx")
	ProducerVersion string              // Framework version
	Domain          string              // Model domain
	ModelVersion    int64               // Model version number
	DocString       string              // Model description
	Graph           *GraphProto         // Computation graph
	MetadataProps   []StringStringEntry // Key-value metadata
}

// GraphProto represents the computation graph.
type GraphProto struct {
	Name         string           // Graph name
	Nodes        []NodeProto      // Operation nodes
	Inputs       []ValueInfoProto // Graph inputs
	Outputs      []ValueInfoProto // Graph outputs
	Initializers []TensorProto    // Weight tensors
	DocString    string           // Graph description
}

// NodeProto represents a single operation.
type NodeProto struct {
	Name       string           // Node name (optional)
	OpType     string           // Operation type (e.g., "MatMul", "Relu")
	Inputs     []string         // Input tensor names
	Outputs    []string         // Output tensor names
	Attributes []AttributeProto // Operation attributes
	Domain     string           // Custom domain (empty for default)
}

// TensorProto represents a tensor (weights/initializers).
type TensorProto struct {
	Name      string    // Tensor name
	DataType  int32     // Element data type
	Dims      []int64   // Tensor shape
	RawData   []byte    // Raw little-endian data (what Export writes)
	FloatData []float32 // Float32 data (legacy)
	Int64Data []int64   // Int64 data (legacy)
}

// ValueInfoProto describes input/output tensor specifications.
type ValueInfoProto struct {
	Name string     // Tensor name
	Type *TypeProto // Tensor type information
}

// TypeProto describes tensor type.
type TypeProto struct {
	TensorType *TensorTypeProto
}

// TensorTypeProto describes tensor shape and element type.
type TensorTypeProto struct {
	ElemType int32             // Element data type
	Shape    *TensorShapeProto // Tensor shape
}

// TensorShapeProto describes tensor dimensions.
type TensorShapeProto struct {
	Dims []DimensionProto
}

// DimensionProto describes a single dimension.
type DimensionProto struct {
	DimValue int64  // Static dimension value (e.g., 31 features)
	DimParam string // Dynamic dimension name (e.g., "N" for the batch)
}

// AttributeProto represents node attributes. Only scalar and list
// numeric/string forms are supported.
type AttributeProto struct {
	Name   string    // Attribute name
	Type   int32     // Attribute type
	F      float32   // FLOAT value
	I      int64     // INT value
	S      []byte    // STRING value
	Floats []float32 // FLOATS array
	Ints   []int64   // INTS array
}

// OperatorSetID identifies opset version.
type OperatorSetID struct {
	Domain  string // Operator domain (empty for default)
	Version int64  // Opset version number
}

// StringStringEntry represents key-value metadata.
type StringStringEntry struct {
	Key   string
	Value string
}

// ONNX data types (TensorProto.DataType).
const (
	TensorProtoUndefined = 0
	TensorProtoFloat     = 1  // float32
	TensorProtoInt32     = 6  // int32
	TensorProtoInt64     = 7  // int64
	TensorProtoDouble    = 11 // float64
)

// ONNX attribute types (AttributeProto.Type).
const (
	AttributeProtoFloat  = 1 // FLOAT
	AttributeProtoInt    = 2 // INT
	AttributeProtoString = 3 // STRING
	AttributeProtoFloats = 6 // FLOATS
	AttributeProtoInts   = 7 // INTS
)

// Field numbers from onnx.proto.
const (
	fieldModelIRVersion       = 1
	fieldModelProducerName    = 2
	fieldModelProducerVersion = 3
	fieldModelDomain          = 4
	fieldModelModelVersion    = 5
	fieldModelDocString       = 6
	fieldModelGraph           = 7
	fieldModelOpsetImport     = 8
	fieldModelMetadataProps   = 14

	fieldGraphNode        = 1
	fieldGraphName        = 2
	fieldGraphInitializer = 5
	fieldGraphDocString   = 10
	fieldGraphInput       = 11
	fieldGraphOutput      = 12

	fieldNodeInput     = 1
	fieldNodeOutput    = 2
	fieldNodeName      = 3
	fieldNodeOpType    = 4
	fieldNodeAttribute = 5
	fieldNodeDomain    = 7

	fieldTensorDims      = 1
	fieldTensorDataType  = 2
	fieldTensorFloatData = 4
	fieldTensorInt64Data = 7
	fieldTensorName      = 8
	fieldTensorRawData   = 9

	fieldValueInfoName = 1
	fieldValueInfoType = 2

	fieldTypeTensorType = 1

	fieldTensorTypeElemType = 1
	fieldTensorTypeShape    = 2

	fieldShapeDim = 1

	fieldDimValue = 1
	fieldDimParam = 2

	fieldAttrName   = 1
	fieldAttrF      = 2
	fieldAttrI      = 3
	fieldAttrS      = 4
	fieldAttrFloats = 7
	fieldAttrInts   = 8
	fieldAttrType   = 20

	fieldOpsetDomain  = 1
	fieldOpsetVersion = 2

	fieldEntryKey   = 1
	fieldEntryValue = 2
)
