// Package onnx exports dense networks to ONNX and reads ONNX files back.
//
// ONNX (Open Neural Network Exchange) is an open format for representing deep learning models.
// Messages are encoded and decoded with google.golang.org/protobuf/encoding/protowire
// against hand-written Go structs, so no generated code is needed.
//
// Key components:
//   - ModelProto: Top-level ONNX model structure with metadata and graph
//   - GraphProto: Computation graph with nodes, inputs, outputs, and initializers
//   - NodeProto: Single operation in the graph (e.g., MatMul, Add, Relu)
//   - TensorProto: Weight/initializer tensor with data and shape
//   - ValueInfoProto: Input/output tensor type information
//
// Each dense layer is exported as MatMul -> Add -> activation, with the kernel
// and bias stored as float32 initializers.
//
// Example usage:
//
//	model, err := onnx.Export(net, onnx.DefaultSignature(31), onnx.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := onnx.WriteFile("actor.onnx", onnx.Marshal(model)); err != nil {
//	    log.Fatal(err)
//	}
package onnx
