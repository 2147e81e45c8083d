// Package tensor provides the concrete element data types carried by graph edges.
package tensor

import (
	"fmt"
	"strings"
)

// DataType represents runtime type information for the value an edge carries.
type DataType int

// Supported data types.
//
// Undefined is the zero value and never appears in a type constraint.
const (
	Undefined DataType = iota
	Float16
	BFloat16
	Float32
	Float64
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Bool
	String
)

// ONNX data types (TensorProto.DataType).
const (
	TensorProtoUndefined = 0
	TensorProtoFloat     = 1  // float32
	TensorProtoUint8     = 2  // uint8
	TensorProtoInt8      = 3  // int8
	TensorProtoUint16    = 4  // uint16
	TensorProtoInt16     = 5  // int16
	TensorProtoInt32     = 6  // int32
	TensorProtoInt64     = 7  // int64
	TensorProtoString    = 8  // string
	TensorProtoBool      = 9  // bool
	TensorProtoFloat16   = 10 // float16
	TensorProtoDouble    = 11 // float64
	TensorProtoUint32    = 12 // uint32
	TensorProtoUint64    = 13 // uint64
	TensorProtoBfloat16  = 16 // bfloat16
)

var names = map[DataType]string{
	Float16:  "float16",
	BFloat16: "bfloat16",
	Float32:  "float32",
	Float64:  "float64",
	Int8:     "int8",
	Int16:    "int16",
	Int32:    "int32",
	Int64:    "int64",
	Uint8:    "uint8",
	Uint16:   "uint16",
	Uint32:   "uint32",
	Uint64:   "uint64",
	Bool:     "bool",
	String:   "string",
}

// onnxNames maps the element names used inside ONNX type strings
// ("tensor(float)") to data types.
var onnxNames = map[string]DataType{
	"float16":  Float16,
	"bfloat16": BFloat16,
	"float":    Float32,
	"double":   Float64,
	"int8":     Int8,
	"int16":    Int16,
	"int32":    Int32,
	"int64":    Int64,
	"uint8":    Uint8,
	"uint16":   Uint16,
	"uint32":   Uint32,
	"uint64":   Uint64,
	"bool":     Bool,
	"string":   String,
}

// Size returns the byte size of the data type.
// String has no fixed size and reports 0.
func (dt DataType) Size() int {
	switch dt {
	case Int8, Uint8, Bool:
		return 1
	case Float16, BFloat16, Int16, Uint16:
		return 2
	case Float32, Int32, Uint32:
		return 4
	case Float64, Int64, Uint64:
		return 8
	default:
		return 0
	}
}

// IsFloat reports whether dt is a floating point type.
func (dt DataType) IsFloat() bool {
	switch dt {
	case Float16, BFloat16, Float32, Float64:
		return true
	default:
		return false
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	if name, ok := names[dt]; ok {
		return name
	}
	return "unknown"
}

// ParseDataType parses a data type name.
//
// Both Go-style names ("float32") and ONNX type strings ("tensor(float)")
// are accepted.
func ParseDataType(s string) (DataType, error) {
	name := strings.TrimSpace(s)
	if inner, ok := strings.CutPrefix(name, "tensor("); ok {
		inner, ok = strings.CutSuffix(inner, ")")
		if !ok {
			return Undefined, fmt.Errorf("malformed type string %q", s)
		}
		if dt, found := onnxNames[inner]; found {
			return dt, nil
		}
		return Undefined, fmt.Errorf("unsupported element type %q", s)
	}
	for dt, n := range names {
		if n == name {
			return dt, nil
		}
	}
	return Undefined, fmt.Errorf("unsupported data type %q", s)
}

// FromONNX converts an ONNX TensorProto element type code to a DataType.
func FromONNX(elemType int32) (DataType, error) {
	switch elemType {
	case TensorProtoFloat:
		return Float32, nil
	case TensorProtoDouble:
		return Float64, nil
	case TensorProtoFloat16:
		return Float16, nil
	case TensorProtoBfloat16:
		return BFloat16, nil
	case TensorProtoInt8:
		return Int8, nil
	case TensorProtoInt16:
		return Int16, nil
	case TensorProtoInt32:
		return Int32, nil
	case TensorProtoInt64:
		return Int64, nil
	case TensorProtoUint8:
		return Uint8, nil
	case TensorProtoUint16:
		return Uint16, nil
	case TensorProtoUint32:
		return Uint32, nil
	case TensorProtoUint64:
		return Uint64, nil
	case TensorProtoBool:
		return Bool, nil
	case TensorProtoString:
		return String, nil
	default:
		return Undefined, fmt.Errorf("unsupported ONNX element type %d", elemType)
	}
}

// ONNX returns the TensorProto element type code of dt, or
// TensorProtoUndefined when it has none.
func (dt DataType) ONNX() int32 {
	for code := int32(TensorProtoFloat); code <= TensorProtoBfloat16; code++ {
		if got, err := FromONNX(code); err == nil && got == dt {
			return code
		}
	}
	return TensorProtoUndefined
}
