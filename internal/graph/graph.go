// Package graph implements the dataflow graph that operator nodes are embedded in.
//
// A Graph is an ordered list of Regions. Each Region is a directed multigraph:
// it owns its nodes and its edges, and edges reference nodes by connector name.
// Nodes never own their edges.
//
// Example:
//
//	g := graph.New("model")
//	r := g.AddRegion("main")
//	x := r.AddNode(graph.NewAccess("x"))
//	relu := r.AddNode(node) // e.g. an operators.Node
//	r.AddEdge(x, "", relu, "X", "x", tensor.Float32)
package graph

import (
	"fmt"
	"slices"

	"github.com/born-ml/opgraph/internal/tensor"
)

// Kind tags the concrete kind of a node.
type Kind string

// Built-in node kinds.
const (
	KindAccess  Kind = "Access"  // Named data container
	KindTasklet Kind = "Tasklet" // Opaque code block with free-form connectors
)

// Node is anything that can be placed in a Region.
type Node interface {
	// Name returns the node label, unique within its region.
	Name() string
	// Kind returns the concrete node kind.
	Kind() Kind
}

// ConnectorNode is a node that declares named attachment points.
type ConnectorNode interface {
	Node
	InConnectors() []string
	OutConnectors() []string
}

// Edge connects a source node/connector to a destination node/connector
// and carries the concrete type of the value in transit.
type Edge struct {
	Src     Node
	SrcConn string // Empty for nodes without connectors
	Dst     Node
	DstConn string
	Data    string // Name of the data container in transit
	Type    tensor.DataType
}

// String formats the edge as "src.conn -> dst.conn".
func (e *Edge) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s (%s: %s)", e.Src.Name(), e.SrcConn, e.Dst.Name(), e.DstConn, e.Data, e.Type)
}

// Graph is an ordered collection of regions.
type Graph struct {
	name    string
	regions []*Region
}

// New creates an empty graph.
func New(name string) *Graph {
	return &Graph{name: name}
}

// Name returns the graph name.
func (g *Graph) Name() string {
	return g.name
}

// AddRegion appends a new empty region.
func (g *Graph) AddRegion(name string) *Region {
	r := &Region{name: name, graph: g}
	g.regions = append(g.regions, r)
	return r
}

// Regions returns the regions in insertion order.
func (g *Graph) Regions() []*Region {
	return slices.Clone(g.regions)
}

// Region returns the region with the given name.
func (g *Graph) Region(name string) (*Region, bool) {
	for _, r := range g.regions {
		if r.name == name {
			return r, true
		}
	}
	return nil, false
}

// Region is a multigraph of nodes and edges.
type Region struct {
	name  string
	graph *Graph
	nodes []Node
	edges []*Edge
}

// Name returns the region name.
func (r *Region) Name() string {
	return r.name
}

// Graph returns the graph that owns the region.
func (r *Region) Graph() *Graph {
	return r.graph
}

// AddNode inserts n and returns it.
// It panics if a node with the same name already exists, like a duplicate
// map key this is a programming error in the graph builder.
func (r *Region) AddNode(n Node) Node {
	if _, exists := r.Node(n.Name()); exists {
		panic(fmt.Sprintf("graph: region %s already has a node named %q", r.name, n.Name()))
	}
	r.nodes = append(r.nodes, n)
	return n
}

// Node returns the node with the given name.
func (r *Region) Node(name string) (Node, bool) {
	for _, n := range r.nodes {
		if n.Name() == name {
			return n, true
		}
	}
	return nil, false
}

// Nodes returns the nodes in insertion order.
func (r *Region) Nodes() []Node {
	return slices.Clone(r.nodes)
}

// AddEdge connects src.srcConn to dst.dstConn.
func (r *Region) AddEdge(src Node, srcConn string, dst Node, dstConn, data string, dt tensor.DataType) *Edge {
	e := &Edge{
		Src:     src,
		SrcConn: srcConn,
		Dst:     dst,
		DstConn: dstConn,
		Data:    data,
		Type:    dt,
	}
	r.edges = append(r.edges, e)
	return e
}

// RemoveEdge removes e from the region. It reports whether e was present.
func (r *Region) RemoveEdge(e *Edge) bool {
	i := slices.Index(r.edges, e)
	if i < 0 {
		return false
	}
	r.edges = slices.Delete(r.edges, i, i+1)
	return true
}

// Edges returns all edges in insertion order.
func (r *Region) Edges() []*Edge {
	return slices.Clone(r.edges)
}

// InEdges returns the edges whose destination is n, in insertion order.
func (r *Region) InEdges(n Node) []*Edge {
	var result []*Edge
	for _, e := range r.edges {
		if e.Dst == n {
			result = append(result, e)
		}
	}
	return result
}

// OutEdges returns the edges whose source is n, in insertion order.
func (r *Region) OutEdges(n Node) []*Edge {
	var result []*Edge
	for _, e := range r.edges {
		if e.Src == n {
			result = append(result, e)
		}
	}
	return result
}
