package onnx

// ModelInfo contains basic information about an ONNX model.
type ModelInfo struct {
	IRVersion       int64
	OpsetVersion    int64
	ProducerName    string
	ProducerVersion string
	InputNames      []string
	OutputNames     []string
	Operators       []string // Distinct op types in graph order
	NodeCount       int
	WeightCount     int
	ParameterCount  int64 // Total elements across initializers
	WeightBytes     int64 // Payload size of initializers with a known data type
}

// GetModelInfo extracts basic info from an ONNX file.
func GetModelInfo(path string) (*ModelInfo, error) {
	proto, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Info(proto), nil
}

// Info summarizes a parsed model.
func Info(proto *ModelProto) *ModelInfo {
	info := &ModelInfo{
		IRVersion:       proto.IRVersion,
		ProducerName:    proto.ProducerName,
		ProducerVersion: proto.ProducerVersion,
	}

	// Get opset version
	for _, opset := range proto.OpsetImport {
		if opset.Domain == "" || opset.Domain == "ai.onnx" {
			info.OpsetVersion = opset.Version
			break
		}
	}

	if proto.Graph == nil {
		return info
	}

	// Get inputs (excluding initializers)
	initNames := make(map[string]bool)
	for i := range proto.Graph.Initializers {
		init := &proto.Graph.Initializers[i]
		initNames[init.Name] = true

		n := int64(1)
		for _, d := range init.Dims {
			n *= d
		}
		info.ParameterCount += n
		if dt, ok := dataType(init.DataType); ok {
			info.WeightBytes += n * int64(dt.Size())
		}
	}
	for i := range proto.Graph.Inputs {
		if !initNames[proto.Graph.Inputs[i].Name] {
			info.InputNames = append(info.InputNames, proto.Graph.Inputs[i].Name)
		}
	}

	for _, output := range proto.Graph.Outputs {
		info.OutputNames = append(info.OutputNames, output.Name)
	}

	seen := make(map[string]bool)
	for i := range proto.Graph.Nodes {
		op := proto.Graph.Nodes[i].OpType
		if !seen[op] {
			seen[op] = true
			info.Operators = append(info.Operators, op)
		}
	}

	info.NodeCount = len(proto.Graph.Nodes)
	info.WeightCount = len(proto.Graph.Initializers)

	return info
}
