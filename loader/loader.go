// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package loader builds graphs from YAML graph description files.
//
// Example usage:
//
//	schemas, err := onnx.DefaultRegistry(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	g, err := loader.New(schemas).LoadFile("mlp.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package loader

import (
	"github.com/born-ml/opgraph/internal/loader"
	"github.com/born-ml/opgraph/internal/onnx/schema"
)

// Loader turns graph descriptions into graphs.
type Loader = loader.Loader

// Document is a parsed graph description.
type Document = loader.Document

// RegionEntry describes one region of a Document.
type RegionEntry = loader.RegionEntry

// NodeEntry describes one node of a RegionEntry.
type NodeEntry = loader.NodeEntry

// EdgeEntry describes one edge of a RegionEntry.
type EdgeEntry = loader.EdgeEntry

// New creates a loader resolving operators through lookup.
func New(lookup schema.Lookup) *Loader {
	return loader.New(lookup)
}
