// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the element data types carried by graph edges
// and admitted by operator type constraints.
package tensor

import "github.com/born-ml/opgraph/internal/tensor"

// DataType is a concrete tensor element type.
type DataType = tensor.DataType

// Supported data types.
const (
	Undefined = tensor.Undefined
	Float16   = tensor.Float16
	BFloat16  = tensor.BFloat16
	Float32   = tensor.Float32
	Float64   = tensor.Float64
	Int8      = tensor.Int8
	Int16     = tensor.Int16
	Int32     = tensor.Int32
	Int64     = tensor.Int64
	Uint8     = tensor.Uint8
	Uint16    = tensor.Uint16
	Uint32    = tensor.Uint32
	Uint64    = tensor.Uint64
	Bool      = tensor.Bool
	String    = tensor.String
)

// ParseDataType parses "float32" style names and ONNX "tensor(float)"
// spellings.
func ParseDataType(s string) (DataType, error) {
	return tensor.ParseDataType(s)
}

// FromONNX maps an ONNX TensorProto element type code.
func FromONNX(elemType int32) (DataType, error) {
	return tensor.FromONNX(elemType)
}
