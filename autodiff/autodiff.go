// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff generates the backward nodes of operator graphs.
//
// Backward strategies are registered per node kind or per operator name
// and tried in registration order; the first whose CanApply accepts a node
// constructs its backward node.
//
// Example:
//
//	backward := autodiff.NewRegistry(logger)
//	if err := autodiff.RegisterDefaults(backward); err != nil {
//	    log.Fatal(err)
//	}
//	backward.Seal()
//
//	gen := autodiff.NewGenerator(schemas, backward, logger)
//	reversals, err := gen.ReverseRegion(forward, backwardRegion)
package autodiff

import (
	"go.uber.org/zap"

	"github.com/born-ml/opgraph/internal/autodiff"
	"github.com/born-ml/opgraph/internal/autodiff/ops"
	"github.com/born-ml/opgraph/internal/graph"
	"github.com/born-ml/opgraph/internal/onnx/schema"
)

// Strategy builds the backward node of a forward node.
type Strategy = ops.Strategy

// Context is handed to strategies.
type Context = ops.Context

// Result maps forward connectors to backward gradient connectors.
type Result = ops.Result

// Func adapts a function to a Strategy that always applies.
type Func = ops.Func

// GradOp is a strategy that emits one gradient operator node.
type GradOp = ops.GradOp

// Selector addresses strategies by node kind or operator name.
type Selector = autodiff.Selector

// Registry holds registered strategies.
type Registry = autodiff.Registry

// Generator dispatches forward nodes to strategies.
type Generator = autodiff.Generator

// Reversal is the outcome of reversing one forward node.
type Reversal = autodiff.Reversal

// Errors.
var (
	ErrSealed        = autodiff.ErrSealed
	ErrNoBackward    = autodiff.ErrNoBackward
	ErrNotApplicable = ops.ErrNotApplicable
)

// NewRegistry creates an empty registry. A nil logger discards dispatch
// diagnostics.
func NewRegistry(logger *zap.Logger) *Registry {
	return autodiff.NewRegistry(logger)
}

// RegisterDefaults registers the built-in strategies.
func RegisterDefaults(r *Registry) error {
	return autodiff.RegisterDefaults(r)
}

// ForOp selects nodes by operator name.
func ForOp(op string) Selector {
	return autodiff.ForOp(op)
}

// ForKind selects nodes by kind tag.
func ForKind(kind graph.Kind) Selector {
	return autodiff.ForKind(kind)
}

// NewGenerator creates a generator over lookup and backward.
func NewGenerator(lookup schema.Lookup, backward *Registry, logger *zap.Logger) *Generator {
	return autodiff.NewGenerator(lookup, backward, logger)
}

// UniqueName returns base, or base_i for the smallest i not yet used in
// region.
func UniqueName(region *graph.Region, base string) string {
	return ops.UniqueName(region, base)
}
