package operators

import (
	"fmt"
	"maps"
	"slices"

	"github.com/born-ml/opgraph/internal/graph"
	"github.com/born-ml/opgraph/internal/onnx/schema"
)

// Node is an operator instance placed in a graph region.
//
// The node knows its connector names but not its edges; edges are owned
// by the region and reference the node by connector.
type Node struct {
	name  string
	kind  *NodeKind
	attrs map[string]schema.Value
	in    []string
	out   []string
}

// Name returns the node label.
func (n *Node) Name() string { return n.name }

// Kind returns the operator node-kind tag, e.g. "ONNXConcat".
func (n *Node) Kind() graph.Kind { return n.kind.tag }

// NodeKind returns the node-kind descriptor.
func (n *Node) NodeKind() *NodeKind { return n.kind }

// Schema returns the operator schema of the node.
func (n *Node) Schema() *schema.OperatorSchema { return n.kind.schema }

// Op returns the operator name.
func (n *Node) Op() string { return n.kind.schema.Name() }

// InConnectors returns the declared input connectors.
func (n *Node) InConnectors() []string { return slices.Clone(n.in) }

// OutConnectors returns the declared output connectors.
func (n *Node) OutConnectors() []string { return slices.Clone(n.out) }

// AddInConnector declares an input connector for an optional parameter or a
// variadic occurrence ("base__i").
func (n *Node) AddInConnector(name string) error {
	return n.addConnector(schema.Input, name, &n.in)
}

// AddOutConnector declares an output connector for an optional parameter or a
// variadic occurrence ("base__i").
func (n *Node) AddOutConnector(name string) error {
	return n.addConnector(schema.Output, name, &n.out)
}

func (n *Node) addConnector(dir schema.Direction, name string, conns *[]string) error {
	if slices.Contains(*conns, name) {
		return nil
	}

	s := n.Schema()
	base, _, suffixed := parseConnector(name)
	pos, p := s.Parameter(dir, base)
	if pos < 0 {
		return &Error{
			Kind:       UnexpectedParameter,
			Op:         s.Name(),
			Node:       n.name,
			Direction:  dir,
			Connector:  name,
			Suggestion: suggest(base, paramNames(s, dir)),
		}
	}
	if suffixed != (p.Kind == schema.Variadic) {
		return &Error{Kind: WrongParameterKind, Op: s.Name(), Node: n.name, Direction: dir, Param: p.Name, Connector: name}
	}

	*conns = append(*conns, name)
	return nil
}

// SetAttribute configures an attribute value. A nil value clears it.
func (n *Node) SetAttribute(name string, raw any) error {
	return n.setAttribute(name, raw)
}

func (n *Node) setAttribute(name string, raw any) error {
	s := n.Schema()
	spec, ok := s.Attribute(name)
	if !ok {
		names := make([]string, 0)
		for _, a := range s.Attributes() {
			names = append(names, a.Name)
		}
		return &Error{Kind: UnknownAttribute, Op: s.Name(), Node: n.name, Param: name, Suggestion: suggest(name, names)}
	}
	if raw == nil {
		delete(n.attrs, name)
		return nil
	}

	v, err := schema.NewValue(spec.Type, raw)
	if err != nil {
		return &Error{Kind: InvalidAttributeValue, Op: s.Name(), Node: n.name, Param: name, Err: err}
	}
	n.attrs[name] = v
	return nil
}

// ClearAttribute removes a configured attribute value.
func (n *Node) ClearAttribute(name string) {
	delete(n.attrs, name)
}

// Attribute returns the configured value of an attribute or, when none is
// configured, its declared default.
func (n *Node) Attribute(name string) (schema.Value, bool) {
	if v, ok := n.attrs[name]; ok {
		return v, true
	}
	spec, ok := n.Schema().Attribute(name)
	if !ok || spec.Default == nil {
		return schema.Value{}, false
	}
	return *spec.Default, true
}

// Attributes returns a copy of the configured attribute values.
func (n *Node) Attributes() map[string]schema.Value {
	return maps.Clone(n.attrs)
}

// AttributeValues returns the configured values in the form accepted by
// NodeKind.New.
func (n *Node) AttributeValues() map[string]any {
	values := make(map[string]any, len(n.attrs))
	for k, v := range n.attrs {
		values[k] = v
	}
	return values
}

func (n *Node) String() string {
	return fmt.Sprintf("%s (%s)", n.name, n.Op())
}

func paramNames(s *schema.OperatorSchema, dir schema.Direction) []string {
	params := s.Parameters(dir)
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}
