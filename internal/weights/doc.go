// Package weights loads externally trained layer weights from JSON and
// assigns them to the dense layers of a built network.
//
// The JSON document is an array with one entry per dense layer, in model
// order, as exported by the browser trainer:
//
//	[
//	  {"name": "dense_Dense1", "weights": [[...], ...], "bias": [...]},
//	  ...
//	]
//
// "weights" is the kernel with shape [in, out]; "bias" has length out.
//
// Example usage:
//
//	records, err := weights.Load("onitama_weights.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := weights.Assign(model, records, weights.Options{}); err != nil {
//	    log.Fatal(err)
//	}
package weights
