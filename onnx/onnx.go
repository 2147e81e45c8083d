// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package onnx exposes ONNX operator schemas and schema-checked operator
// nodes for dataflow graphs.
//
// Operators are described by catalogs. The built-in catalogs cover a subset
// of the default ai.onnx domain plus the gradient operators used by package
// autodiff; further catalogs can be parsed from YAML or JSON files.
//
// # Example Usage
//
//	schemas, err := onnx.DefaultRegistry(logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	relu, _ := onnx.NewFactory(schemas).Kind("Relu")
//	node, err := relu.New("act", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	region.AddNode(node)
//	// ... connect edges ...
//
//	if err := node.Validate(region); err != nil {
//	    var errs onnx.ValidationErrors
//	    errors.As(err, &errs)
//	}
package onnx

import (
	"context"

	"go.uber.org/zap"

	"github.com/born-ml/opgraph/internal/graph"
	"github.com/born-ml/opgraph/internal/onnx/catalog"
	"github.com/born-ml/opgraph/internal/onnx/operators"
	"github.com/born-ml/opgraph/internal/onnx/schema"
)

// OperatorSchema is the validated description of one operator.
type OperatorSchema = schema.OperatorSchema

// Registry maps operator names to schemas.
type Registry = schema.Registry

// Lookup resolves operator names to schemas.
type Lookup = schema.Lookup

// CatalogSource supplies operator definitions to a Registry.
type CatalogSource = catalog.Source

// NodeKind constructs operator nodes of one operator.
type NodeKind = operators.NodeKind

// Factory caches node kinds per operator name.
type Factory = operators.Factory

// Node is a schema-checked operator node.
type Node = operators.Node

// Error is one structured validation or construction failure.
type Error = operators.Error

// ErrorKind classifies an Error. Use errors.Is(err, onnx.TypeConflict).
type ErrorKind = operators.ErrorKind

// ValidationErrors is every failure of one node validation.
type ValidationErrors = operators.ValidationErrors

// Failure is the validation result of one failing node of a graph.
type Failure = operators.Failure

// Error kinds.
const (
	UnconnectedConnector         = operators.UnconnectedConnector
	UnexpectedParameter          = operators.UnexpectedParameter
	MissingRequiredParameter     = operators.MissingRequiredParameter
	DuplicateConnector           = operators.DuplicateConnector
	DuplicateVariadicIndex       = operators.DuplicateVariadicIndex
	NonContiguousVariadicIndices = operators.NonContiguousVariadicIndices
	WrongParameterKind           = operators.WrongParameterKind
	TypeConflict                 = operators.TypeConflict
	TypeNotAllowed               = operators.TypeNotAllowed
	MissingRequiredAttribute     = operators.MissingRequiredAttribute
	UnknownAttribute             = operators.UnknownAttribute
	InvalidAttributeValue        = operators.InvalidAttributeValue
	Inconsistent                 = operators.Inconsistent
)

// ErrSealed is returned when importing into a sealed Registry.
var ErrSealed = schema.ErrSealed

// NewRegistry creates an empty, unsealed registry. A nil logger discards
// import diagnostics.
func NewRegistry(logger *zap.Logger) *Registry {
	return schema.NewRegistry(logger)
}

// DefaultRegistry returns a sealed registry holding the built-in catalogs.
func DefaultRegistry(logger *zap.Logger) (*Registry, error) {
	r := schema.NewRegistry(logger)
	if _, err := r.ImportAll(catalog.Builtin()); err != nil {
		return nil, err
	}
	r.Seal()
	return r, nil
}

// BuiltinCatalog returns the standard and gradient operator catalogs.
func BuiltinCatalog() CatalogSource {
	return catalog.Builtin()
}

// ParseCatalogFile reads an operator catalog document.
func ParseCatalogFile(path string) (CatalogSource, error) {
	c, err := catalog.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NewFactory creates a node kind factory over lookup.
func NewFactory(lookup Lookup) *Factory {
	return operators.NewFactory(lookup)
}

// VariadicConnector returns the connector name of occurrence i of a
// variadic parameter.
func VariadicConnector(param string, i int) string {
	return operators.VariadicConnector(param, i)
}

// ValidateGraph validates every operator node of g with up to workers
// goroutines.
func ValidateGraph(ctx context.Context, g *graph.Graph, workers int) ([]Failure, error) {
	return operators.ValidateGraph(ctx, g, workers)
}
