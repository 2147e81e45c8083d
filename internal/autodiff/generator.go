package autodiff

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/born-ml/opgraph/internal/autodiff/ops"
	"github.com/born-ml/opgraph/internal/graph"
	"github.com/born-ml/opgraph/internal/onnx/operators"
	"github.com/born-ml/opgraph/internal/onnx/schema"
)

// ErrNoBackward is returned by Reverse when no strategy applies to a node.
var ErrNoBackward = errors.New("no backward strategy")

// Generator dispatches forward nodes to backward strategies.
// It implements ops.Generator.
type Generator struct {
	factory  *operators.Factory
	backward *Registry
	logger   *zap.Logger
}

// NewGenerator creates a generator over an operator schema lookup and a
// backward registry. A nil logger discards diagnostics.
func NewGenerator(lookup schema.Lookup, backward *Registry, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		factory:  operators.NewFactory(lookup),
		backward: backward,
		logger:   logger.Named("autodiff"),
	}
}

// Kind returns the node kind of a registered operator.
func (g *Generator) Kind(op string) (*operators.NodeKind, bool) {
	return g.factory.Kind(op)
}

// Context returns the backward context for reversing nodes of fwd into bwd.
func (g *Generator) Context(fwd, bwd *graph.Region) ops.Context {
	return ops.Context{
		ForwardGraph:   fwd.Graph(),
		ForwardRegion:  fwd,
		BackwardGraph:  bwd.Graph(),
		BackwardRegion: bwd,
		Generator:      g,
	}
}

// Find returns the strategy for node in fwd.
func (g *Generator) Find(fwd *graph.Region, node graph.Node, bwd *graph.Region) (ops.Strategy, bool) {
	return g.backward.Find(node, g.Context(fwd, bwd))
}

// Reverse constructs the backward node of node, a node of fwd, into bwd.
func (g *Generator) Reverse(fwd *graph.Region, node graph.Node, bwd *graph.Region, given, required []string) (graph.Node, ops.Result, error) {
	ctx := g.Context(fwd, bwd)
	s, ok := g.backward.Find(node, ctx)
	if !ok {
		return nil, ops.Result{}, fmt.Errorf("%w for node %s (%s)", ErrNoBackward, node.Name(), node.Kind())
	}

	bwdNode, result, err := s.Backward(node, ctx, given, required)
	if err != nil {
		return nil, ops.Result{}, err
	}
	g.logger.Debug("reversed node",
		zap.String("node", node.Name()),
		zap.String("backward", bwdNode.Name()),
		zap.Any("required", result.RequiredGradNames),
		zap.Any("given", result.GivenGradNames))
	return bwdNode, result, nil
}

// Reversal is the outcome of reversing one forward node.
type Reversal struct {
	Forward  graph.Node
	Backward graph.Node
	Result   ops.Result
}

// ReverseRegion reverses every node of fwd except data containers, in
// reverse topological order. Each node is given gradients for all bound
// output connectors and asked for gradients of all bound input connectors.
func (g *Generator) ReverseRegion(fwd, bwd *graph.Region) ([]Reversal, error) {
	var reversals []Reversal
	for _, n := range fwd.ReverseTopologicalOrder() {
		if n.Kind() == graph.KindAccess {
			continue
		}

		given := boundConnectors(fwd.OutEdges(n), func(e *graph.Edge) string { return e.SrcConn })
		required := boundConnectors(fwd.InEdges(n), func(e *graph.Edge) string { return e.DstConn })

		bwdNode, result, err := g.Reverse(fwd, n, bwd, given, required)
		if err != nil {
			return reversals, err
		}
		reversals = append(reversals, Reversal{Forward: n, Backward: bwdNode, Result: result})
	}
	return reversals, nil
}

func boundConnectors(edges []*graph.Edge, conn func(*graph.Edge) string) []string {
	var names []string
	for _, e := range edges {
		if c := conn(e); c != "" {
			names = append(names, c)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}
