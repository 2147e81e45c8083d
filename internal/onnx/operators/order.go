package operators

import (
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/born-ml/opgraph/internal/graph"
	"github.com/born-ml/opgraph/internal/onnx/schema"
)

// VariadicSeparator separates a variadic parameter name from the occurrence index.
const VariadicSeparator = "__"

// EdgeSource supplies the edges bound to a node. *graph.Region implements it.
type EdgeSource interface {
	InEdges(n graph.Node) []*graph.Edge
	OutEdges(n graph.Node) []*graph.Edge
}

// VariadicConnector returns the connector name of occurrence i of a variadic parameter.
func VariadicConnector(base string, i int) string {
	return base + VariadicSeparator + strconv.Itoa(i)
}

// parseConnector splits "base__i" into base and i. Names without a numeric
// suffix after the last separator are returned whole with index 0.
func parseConnector(name string) (base string, index int, suffixed bool) {
	pos := strings.LastIndex(name, VariadicSeparator)
	if pos <= 0 {
		return name, 0, false
	}
	digits := name[pos+len(VariadicSeparator):]
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return name, 0, false
	}
	i, err := strconv.Atoi(digits)
	if err != nil {
		return name, 0, false
	}
	return name[:pos], i, true
}

// connector returns the connector name an edge binds on n's side.
func connector(e *graph.Edge, dir schema.Direction) string {
	if dir == schema.Input {
		return e.DstConn
	}
	return e.SrcConn
}

// OrderedInputs returns the input edges of n in schema declaration order,
// variadic occurrences by ascending index.
func (n *Node) OrderedInputs(src EdgeSource) ([]*graph.Edge, error) {
	return n.ordered(schema.Input, src.InEdges(n))
}

// OrderedOutputs returns the output edges of n in schema declaration order,
// variadic occurrences by ascending index.
func (n *Node) OrderedOutputs(src EdgeSource) ([]*graph.Edge, error) {
	return n.ordered(schema.Output, src.OutEdges(n))
}

// Edges returns the ordered inputs followed by the ordered outputs, each
// paired with whether the edge is an input. The sequence can be iterated
// more than once.
func (n *Node) Edges(src EdgeSource) (iter.Seq2[*graph.Edge, bool], error) {
	in, err := n.OrderedInputs(src)
	if err != nil {
		return nil, err
	}
	out, err := n.OrderedOutputs(src)
	if err != nil {
		return nil, err
	}

	return func(yield func(*graph.Edge, bool) bool) {
		for _, e := range in {
			if !yield(e, true) {
				return
			}
		}
		for _, e := range out {
			if !yield(e, false) {
				return
			}
		}
	}, nil
}

func (n *Node) ordered(dir schema.Direction, edges []*graph.Edge) ([]*graph.Edge, error) {
	s := n.Schema()

	keys := make(map[*graph.Edge]int, len(edges))
	for _, e := range edges {
		conn := connector(e, dir)
		base, index, _ := parseConnector(conn)

		if c := s.CountParameters(dir, base); c != 1 {
			return nil, &Error{
				Kind:      Inconsistent,
				Op:        s.Name(),
				Node:      n.name,
				Direction: dir,
				Connector: conn,
				Index:     c,
			}
		}
		pos, _ := s.Parameter(dir, base)
		keys[e] = pos + index
	}

	sorted := slices.Clone(edges)
	slices.SortStableFunc(sorted, func(a, b *graph.Edge) int {
		return keys[a] - keys[b]
	})
	return sorted, nil
}
