// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package graph provides the dataflow graphs operator nodes live in.
//
// A Graph holds named regions. A Region holds nodes and the directed edges
// between their connectors.
//
// Example:
//
//	g := graph.New("mlp")
//	r := g.AddRegion("main")
//	x := r.AddNode(graph.NewAccess("x"))
//	y := r.AddNode(graph.NewAccess("y"))
//	act := r.AddNode(reluNode)
//	r.AddEdge(x, "", act, "X", "x", tensor.Float32)
//	r.AddEdge(act, "Y", y, "", "y", tensor.Float32)
package graph

import "github.com/born-ml/opgraph/internal/graph"

// Graph is a named collection of regions.
type Graph = graph.Graph

// Region holds nodes and edges.
type Region = graph.Region

// Node is any node of a region.
type Node = graph.Node

// ConnectorNode is a node with named connectors.
type ConnectorNode = graph.ConnectorNode

// Edge connects a source connector to a destination connector.
type Edge = graph.Edge

// Kind tags the sort of a node.
type Kind = graph.Kind

// Access is a data container node.
type Access = graph.Access

// Tasklet is a node holding opaque code.
type Tasklet = graph.Tasklet

// Node kinds of the built-in nodes.
const (
	KindAccess  = graph.KindAccess
	KindTasklet = graph.KindTasklet
)

// New creates an empty graph.
func New(name string) *Graph {
	return graph.New(name)
}

// NewAccess creates a data container node named after its data.
func NewAccess(data string) *Access {
	return graph.NewAccess(data)
}

// NewTasklet creates a tasklet node.
func NewTasklet(name, code string, inputs, outputs []string) *Tasklet {
	return graph.NewTasklet(name, code, inputs, outputs)
}
