// Package autodiff finds and applies backward strategies for forward nodes.
//
// A Registry holds ordered (selector, strategy) pairs. A selector matches a
// node either by its graph.Kind or, for operator nodes, by operator name.
// Find returns the first registration, in registration order, that matches
// and whose strategy reports it can apply. The Generator wraps the registry
// and the operator factory into the context strategies run in.
//
// Usage:
//
//	backward := autodiff.NewRegistry(logger)
//	autodiff.RegisterDefaults(backward)
//	backward.Seal()
//
//	gen := autodiff.NewGenerator(schemas, backward, logger)
//	node, result, err := gen.Reverse(fwdRegion, relu, bwdRegion, []string{"Y"}, []string{"X"})
package autodiff

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/born-ml/opgraph/internal/autodiff/ops"
	"github.com/born-ml/opgraph/internal/graph"
	"github.com/born-ml/opgraph/internal/onnx/schema"
)

// ErrSealed is returned when registering on a sealed registry.
var ErrSealed = errors.New("backward registry is sealed")

// Selector chooses the nodes a registration applies to.
type Selector struct {
	kind graph.Kind
	op   string
}

// ForKind selects nodes whose Kind equals kind.
func ForKind(kind graph.Kind) Selector {
	return Selector{kind: kind}
}

// ForOp selects operator nodes whose schema name equals op.
func ForOp(op string) Selector {
	return Selector{op: op}
}

// Matches reports whether the selector matches n.
func (s Selector) Matches(n graph.Node) bool {
	if s.kind != "" {
		return n.Kind() == s.kind
	}
	op, ok := n.(interface{ Schema() *schema.OperatorSchema })
	return ok && op.Schema() != nil && op.Schema().Name() == s.op
}

func (s Selector) String() string {
	if s.kind != "" {
		return "kind " + string(s.kind)
	}
	return "op " + s.op
}

// Registration is one (selector, strategy) pair.
type Registration struct {
	Selector Selector
	Strategy ops.Strategy
}

// Registry is the ordered collection of backward strategies.
//
// Strategies are registered during startup, then the registry is sealed.
// After Seal it is read-only and safe for concurrent Find calls.
type Registry struct {
	logger  *zap.Logger
	entries []Registration
	sealed  bool
}

// NewRegistry creates an empty registry. A nil logger discards diagnostics.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{logger: logger.Named("backward")}
}

// Register appends a registration. Earlier registrations take precedence.
func (r *Registry) Register(sel Selector, s ops.Strategy) error {
	if r.sealed {
		return ErrSealed
	}
	if s == nil {
		return fmt.Errorf("registering %s: nil strategy", sel)
	}
	r.entries = append(r.entries, Registration{Selector: sel, Strategy: s})
	return nil
}

// RegisterKind registers s for nodes of the given kind.
func (r *Registry) RegisterKind(kind graph.Kind, s ops.Strategy) error {
	return r.Register(ForKind(kind), s)
}

// RegisterOp registers s for operator nodes of the named operator.
func (r *Registry) RegisterOp(op string, s ops.Strategy) error {
	return r.Register(ForOp(op), s)
}

// Seal ends the registration phase.
func (r *Registry) Seal() {
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	return r.sealed
}

// Registrations returns the registrations in order.
func (r *Registry) Registrations() []Registration {
	return slices.Clone(r.entries)
}

// Find returns the first strategy whose selector matches node and that can
// apply in ctx. Not finding one is a normal result.
func (r *Registry) Find(node graph.Node, ctx ops.Context) (ops.Strategy, bool) {
	for i, e := range r.entries {
		if !e.Selector.Matches(node) {
			continue
		}
		if !e.Strategy.CanApply(node, ctx) {
			r.logger.Debug("backward strategy rejected node",
				zap.String("node", node.Name()),
				zap.Stringer("selector", e.Selector),
				zap.Int("index", i))
			continue
		}
		r.logger.Debug("found backward strategy",
			zap.String("node", node.Name()),
			zap.Stringer("selector", e.Selector),
			zap.Int("index", i))
		return e.Strategy, true
	}
	return nil, false
}
