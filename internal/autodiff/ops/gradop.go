package ops

import (
	"fmt"
	"slices"

	"github.com/born-ml/opgraph/internal/graph"
	"github.com/born-ml/opgraph/internal/onnx/operators"
)

// GradOp reverses an operator node by emitting one node of a gradient operator.
//
// The gradient operator takes the incoming gradients named by Given and the
// forward values it needs under the forward input connector names, and
// produces the gradients named by Required.
type GradOp struct {
	// Forward is the operator name the strategy reverses.
	Forward string
	// Grad is the gradient operator emitted into the backward region.
	Grad string
	// Given maps forward output connectors to gradient operator inputs.
	Given map[string]string
	// Required maps forward input connectors to gradient operator outputs.
	Required map[string]string
	// Attributes are copied from the forward node, configured value or default.
	Attributes []string
}

// CanApply reports whether node is a Forward operator node and the gradient
// operator is known to the generator.
func (s *GradOp) CanApply(node graph.Node, ctx Context) bool {
	n, ok := node.(*operators.Node)
	if !ok || n.Op() != s.Forward || ctx.Generator == nil {
		return false
	}
	_, ok = ctx.Generator.Kind(s.Grad)
	return ok
}

// Backward implements Strategy.
func (s *GradOp) Backward(node graph.Node, ctx Context, given, required []string) (graph.Node, Result, error) {
	n, ok := node.(*operators.Node)
	if !ok || n.Op() != s.Forward {
		return nil, Result{}, fmt.Errorf("%w: %s reverses %s nodes, got %s", ErrNotApplicable, s.Grad, s.Forward, node.Name())
	}
	if ctx.Generator == nil || ctx.BackwardRegion == nil {
		return nil, Result{}, fmt.Errorf("reversing %s: incomplete backward context", n.Name())
	}
	kind, ok := ctx.Generator.Kind(s.Grad)
	if !ok {
		return nil, Result{}, fmt.Errorf("reversing %s: gradient operator %s is not registered", n.Name(), s.Grad)
	}

	attrs := make(map[string]any, len(s.Attributes))
	for _, name := range s.Attributes {
		if v, ok := n.Attribute(name); ok {
			attrs[name] = v
		}
	}

	bwd, err := kind.New(UniqueName(ctx.BackwardRegion, n.Name()+"_backward"), attrs)
	if err != nil {
		return nil, Result{}, fmt.Errorf("reversing %s: %w", n.Name(), err)
	}

	result := EmptyResult()
	for _, out := range sortedUnique(given) {
		conn, ok := s.Given[out]
		if !ok {
			return nil, Result{}, fmt.Errorf("reversing %s: no gradient input for output %q", n.Name(), out)
		}
		if err := bwd.AddInConnector(conn); err != nil {
			return nil, Result{}, fmt.Errorf("reversing %s: %w", n.Name(), err)
		}
		result.GivenGradNames[out] = conn
	}
	for _, in := range sortedUnique(required) {
		conn, ok := s.Required[in]
		if !ok {
			// Not differentiable with respect to this input.
			continue
		}
		if err := bwd.AddOutConnector(conn); err != nil {
			return nil, Result{}, fmt.Errorf("reversing %s: %w", n.Name(), err)
		}
		result.RequiredGradNames[in] = conn
	}

	ctx.BackwardRegion.AddNode(bwd)
	return bwd, result, nil
}

func sortedUnique(names []string) []string {
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}
