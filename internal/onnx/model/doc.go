// Package model decodes ONNX model files.
//
// Only the parts of the ONNX protobuf schema needed to rebuild operator
// graphs are kept: the model header, the main graph with its nodes,
// initializers and value infos, and node attributes. Unknown fields are
// skipped.
//
// Example usage:
//
//	m, err := model.ParseFile("mlp.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	opset, _ := m.Opset("")
//	fmt.Printf("Graph: %s with %d nodes (opset %d)\n", m.Graph.Name, len(m.Graph.Nodes), opset)
//	for _, node := range m.Graph.Nodes {
//	    fmt.Printf("Op: %s (type: %s)\n", node.Name, node.OpType)
//	}
package model
