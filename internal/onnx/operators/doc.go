// Package operators embeds catalog operators as nodes of a dataflow graph.
//
// A NodeKind is a node-kind descriptor parameterized by one OperatorSchema.
// Every operator node shares the same representation (Node); its connector
// set, attribute handling and validation are determined by the schema it
// is bound to.
//
// Key operations:
//   - NodeKind.New / Construct: build a node from attribute values
//   - Node.OrderedInputs / Node.OrderedOutputs / Node.Edges: edges in schema order
//   - Node.Validate: check a node's edges against its schema
//   - ValidateGraph: validate every operator node of a graph in parallel
//
// Variadic parameters are bound through numbered connectors named
// "base__i", where i is a contiguous zero-based occurrence index.
//
// Example usage:
//
//	s, _ := registry.Lookup("Concat")
//	concat, err := operators.Construct(s, "concat", map[string]any{"axis": 0})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	region.AddNode(concat)
//	region.AddEdge(a, "", concat, "input__0", "a", tensor.Float32)
//	region.AddEdge(b, "", concat, "input__1", "b", tensor.Float32)
//	region.AddEdge(concat, "result", out, "", "out", tensor.Float32)
//
//	if err := concat.Validate(region); err != nil {
//	    log.Fatal(err)
//	}
package operators
