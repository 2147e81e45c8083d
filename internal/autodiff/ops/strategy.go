// Package ops defines the backward strategy contract and the built-in strategies.
//
// A Strategy constructs, for one forward node, the node of the backward graph
// that computes its gradients, and reports how gradient connectors are named:
//   - Result.RequiredGradNames: forward input connector -> backward output connector
//     producing the gradient of that input
//   - Result.GivenGradNames: forward output connector -> backward input connector
//     consuming the incoming gradient of that output
//
// When the backward computation needs the forward value of an input, the
// backward node exposes an input connector with the same name as the forward
// input connector. Wiring that value is left to the caller.
//
// Supported operations:
//   - Relu, Sigmoid, Tanh, Softmax: ReluGrad, SigmoidGrad, TanhGrad, SoftmaxGrad
//   - Identity: IdentityGrad (dX = dY)
//   - Add, Sub, Mul: AddGrad, SubGrad, MulGrad
//   - MatMul: MatMulGrad (dA = dY@B^T, dB = A^T@dY)
package ops

import (
	"errors"
	"maps"
	"strconv"

	"github.com/born-ml/opgraph/internal/graph"
	"github.com/born-ml/opgraph/internal/onnx/operators"
)

// ErrNotApplicable is returned by a strategy asked to reverse a node it does not handle.
var ErrNotApplicable = errors.New("backward strategy not applicable")

// Generator is the backward pass orchestrator as seen by a strategy.
type Generator interface {
	// Kind returns the node kind of a registered operator, typically a
	// gradient operator from the gradient catalog.
	Kind(op string) (*operators.NodeKind, bool)
}

// Context is the graph context a backward node is constructed in.
// It is passed to strategies and never stored by them.
type Context struct {
	ForwardGraph   *graph.Graph
	ForwardRegion  *graph.Region
	BackwardGraph  *graph.Graph
	BackwardRegion *graph.Region
	Generator      Generator
}

// Result names the gradient connectors of a backward node.
// Both mappings may be partial: an absent key means not applicable.
type Result struct {
	RequiredGradNames map[string]string
	GivenGradNames    map[string]string
}

// EmptyResult returns a result with empty mappings.
func EmptyResult() Result {
	return Result{
		RequiredGradNames: make(map[string]string),
		GivenGradNames:    make(map[string]string),
	}
}

// Clone returns a deep copy of r.
func (r Result) Clone() Result {
	return Result{
		RequiredGradNames: maps.Clone(r.RequiredGradNames),
		GivenGradNames:    maps.Clone(r.GivenGradNames),
	}
}

// Strategy constructs backward nodes.
type Strategy interface {
	// CanApply reports whether the strategy can reverse node. It must not
	// modify anything.
	CanApply(node graph.Node, ctx Context) bool

	// Backward adds the backward node of node to ctx.BackwardRegion and
	// returns it with its gradient naming.
	//
	// given lists the forward output connectors an incoming gradient will be
	// supplied for, required the forward input connectors a gradient must
	// be produced for. Only the backward region may be modified. For equal
	// arguments the constructed node and names are structurally equal.
	Backward(node graph.Node, ctx Context, given, required []string) (graph.Node, Result, error)
}

// Func adapts a function to a Strategy that always applies.
type Func func(node graph.Node, ctx Context, given, required []string) (graph.Node, Result, error)

// CanApply returns true.
func (f Func) CanApply(graph.Node, Context) bool { return true }

// Backward calls f.
func (f Func) Backward(node graph.Node, ctx Context, given, required []string) (graph.Node, Result, error) {
	return f(node, ctx, given, required)
}

// UniqueName returns base, or base_i for the smallest i >= 1, whichever is
// not yet used by a node of r.
func UniqueName(r *graph.Region, base string) string {
	if _, taken := r.Node(base); !taken {
		return base
	}
	for i := 1; ; i++ {
		name := base + "_" + strconv.Itoa(i)
		if _, taken := r.Node(name); !taken {
			return name
		}
	}
}
