package schema

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/born-ml/opgraph/internal/tensor"
)

// AttributeType is the value type of an attribute.
type AttributeType uint8

// Representable attribute types.
const (
	AttrUndefined AttributeType = iota
	AttrInt
	AttrFloat
	AttrString
	AttrTensor
	AttrInts
	AttrFloats
	AttrStrings
)

// ErrUnsupportedAttributeType is returned for catalog attribute types that
// have no representation (graphs, sparse tensors, type protos, tensor lists).
var ErrUnsupportedAttributeType = errors.New("unsupported attribute type")

var attrTypeNames = map[AttributeType]string{
	AttrInt:     "INT",
	AttrFloat:   "FLOAT",
	AttrString:  "STRING",
	AttrTensor:  "TENSOR",
	AttrInts:    "INTS",
	AttrFloats:  "FLOATS",
	AttrStrings: "STRINGS",
}

// unsupportedAttrTypes are the catalog spellings known to have no representation.
var unsupportedAttrTypes = map[string]bool{
	"GRAPH":          true,
	"GRAPHS":         true,
	"TENSORS":        true,
	"SPARSE_TENSOR":  true,
	"SPARSE_TENSORS": true,
	"TYPE_PROTO":     true,
	"TYPE_PROTOS":    true,
}

func (t AttributeType) String() string {
	if name, ok := attrTypeNames[t]; ok {
		return name
	}
	return "UNDEFINED"
}

// IsList reports whether values of this type are lists.
func (t AttributeType) IsList() bool {
	return t == AttrInts || t == AttrFloats || t == AttrStrings
}

// ParseAttributeType parses a catalog attribute type name.
func ParseAttributeType(s string) (AttributeType, error) {
	for t, name := range attrTypeNames {
		if name == s {
			return t, nil
		}
	}
	if unsupportedAttrTypes[s] {
		return AttrUndefined, fmt.Errorf("%w %s", ErrUnsupportedAttributeType, s)
	}
	return AttrUndefined, fmt.Errorf("unknown attribute type %q", s)
}

// Tensor is a constant tensor attribute value.
type Tensor struct {
	DType  tensor.DataType
	Dims   []int64
	Floats []float64 // Values of floating point tensors
	Ints   []int64   // Values of integer and bool tensors
}

// Value is a configured attribute value.
type Value struct {
	Type    AttributeType
	Int     int64
	Float   float32
	Str     string
	Tensor  *Tensor
	Ints    []int64
	Floats  []float32
	Strings []string
}

// IsEmpty reports whether the value holds nothing: undefined, a nil tensor,
// or an empty list.
func (v Value) IsEmpty() bool {
	switch v.Type {
	case AttrUndefined:
		return true
	case AttrTensor:
		return v.Tensor == nil
	case AttrInts:
		return len(v.Ints) == 0
	case AttrFloats:
		return len(v.Floats) == 0
	case AttrStrings:
		return len(v.Strings) == 0
	default:
		return false
	}
}

// String formats the value for diagnostics.
func (v Value) String() string {
	switch v.Type {
	case AttrInt:
		return strconv.FormatInt(v.Int, 10)
	case AttrFloat:
		return strconv.FormatFloat(float64(v.Float), 'g', -1, 32)
	case AttrString:
		return strconv.Quote(v.Str)
	case AttrTensor:
		if v.Tensor == nil {
			return "tensor(nil)"
		}
		return fmt.Sprintf("tensor(%s, %v)", v.Tensor.DType, v.Tensor.Dims)
	case AttrInts:
		return fmt.Sprint(v.Ints)
	case AttrFloats:
		return fmt.Sprint(v.Floats)
	case AttrStrings:
		return "[" + strings.Join(v.Strings, " ") + "]"
	default:
		return "<undefined>"
	}
}

// NewValue converts a Go value (as written by callers or decoded from YAML)
// to an attribute value of type t.
//
// Accepted inputs: integers for INT, integers and floats for FLOAT, strings for
// STRING, slices (typed or []any) for the list types, and a *Tensor, Tensor or
// map with "dtype", "dims" and "values" keys for TENSOR. A Value of the right
// type is returned unchanged.
func NewValue(t AttributeType, raw any) (Value, error) {
	if v, ok := raw.(Value); ok {
		if v.Type != t {
			return Value{}, fmt.Errorf("expected %s value, got %s", t, v.Type)
		}
		return v, nil
	}

	switch t {
	case AttrInt:
		i, err := toInt(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Int: i}, nil
	case AttrFloat:
		f, err := toFloat(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Float: float32(f)}, nil
	case AttrString:
		s, ok := raw.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected string, got %T", raw)
		}
		return Value{Type: t, Str: s}, nil
	case AttrInts:
		ints, err := convertList(raw, toInt)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Ints: ints}, nil
	case AttrFloats:
		floats, err := convertList(raw, func(x any) (float32, error) {
			f, err := toFloat(x)
			return float32(f), err
		})
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Floats: floats}, nil
	case AttrStrings:
		strs, err := convertList(raw, func(x any) (string, error) {
			s, ok := x.(string)
			if !ok {
				return "", fmt.Errorf("expected string, got %T", x)
			}
			return s, nil
		})
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Strings: strs}, nil
	case AttrTensor:
		tv, err := toTensor(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Tensor: tv}, nil
	default:
		return Value{}, fmt.Errorf("cannot build value of type %s", t)
	}
}

func toInt(raw any) (int64, error) {
	switch x := raw.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("integer %d overflows int64", x)
		}
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("expected integer, got %v", x)
		}
		return int64(x), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", raw)
	}
}

func toFloat(raw any) (float64, error) {
	switch x := raw.(type) {
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	default:
		i, err := toInt(raw)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %T", raw)
		}
		return float64(i), nil
	}
}

func convertList[E any](raw any, convert func(any) (E, error)) ([]E, error) {
	var items []any
	switch x := raw.(type) {
	case []any:
		items = x
	case []int:
		items = anySlice(x)
	case []int64:
		items = anySlice(x)
	case []float32:
		items = anySlice(x)
	case []float64:
		items = anySlice(x)
	case []string:
		items = anySlice(x)
	default:
		return nil, fmt.Errorf("expected list, got %T", raw)
	}

	result := make([]E, len(items))
	for i, item := range items {
		v, err := convert(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		result[i] = v
	}
	return result, nil
}

func anySlice[E any](s []E) []any {
	result := make([]any, len(s))
	for i, v := range s {
		result[i] = v
	}
	return result
}

func toTensor(raw any) (*Tensor, error) {
	switch x := raw.(type) {
	case *Tensor:
		if x == nil {
			return nil, errors.New("nil tensor")
		}
		return x, nil
	case Tensor:
		return &x, nil
	case map[string]any:
		return tensorFromMap(x)
	default:
		return nil, fmt.Errorf("expected tensor, got %T", raw)
	}
}

func tensorFromMap(m map[string]any) (*Tensor, error) {
	name, ok := m["dtype"].(string)
	if !ok {
		return nil, errors.New("tensor: missing dtype")
	}
	dt, err := tensor.ParseDataType(name)
	if err != nil {
		return nil, fmt.Errorf("tensor: %w", err)
	}

	tv := &Tensor{DType: dt}
	if dims, present := m["dims"]; present {
		if tv.Dims, err = convertList(dims, toInt); err != nil {
			return nil, fmt.Errorf("tensor dims: %w", err)
		}
	}
	if values, present := m["values"]; present {
		if dt.IsFloat() {
			tv.Floats, err = convertList(values, toFloat)
		} else {
			tv.Ints, err = convertList(values, toInt)
		}
		if err != nil {
			return nil, fmt.Errorf("tensor values: %w", err)
		}
	}
	return tv, nil
}
