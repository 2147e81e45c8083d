package model

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrWireType is returned when a known field uses an unexpected wire type.
var ErrWireType = errors.New("unexpected wire type")

// ParseFile decodes an ONNX model file.
func ParseFile(path string) (*ModelProto, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Model path is provided by the user.
	if err != nil {
		return nil, fmt.Errorf("reading model %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a serialized ModelProto.
func Parse(data []byte) (*ModelProto, error) {
	m := &ModelProto{}
	if err := decodeModel(data, m); err != nil {
		return nil, fmt.Errorf("decoding model: %w", err)
	}
	return m, nil
}

// fieldFunc decodes the value of one field starting at b and returns the
// number of bytes consumed.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

// message walks the fields of one encoded message.
func message(b []byte, field fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n, err := field(num, typ, b)
		if err != nil {
			return fmt.Errorf("field %d: %w", num, err)
		}
		b = b[n:]
	}
	return nil
}

func skip(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, nil
}

func lengthDelimited(typ protowire.Type, b []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, ErrWireType
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func str(typ protowire.Type, b []byte, dst *string) (int, error) {
	v, n, err := lengthDelimited(typ, b)
	if err != nil {
		return 0, err
	}
	*dst = string(v)
	return n, nil
}

func raw(typ protowire.Type, b []byte, add func([]byte)) (int, error) {
	v, n, err := lengthDelimited(typ, b)
	if err != nil {
		return 0, err
	}
	add(bytes.Clone(v))
	return n, nil
}

func embedded(typ protowire.Type, b []byte, decode func([]byte) error) (int, error) {
	v, n, err := lengthDelimited(typ, b)
	if err != nil {
		return 0, err
	}
	return n, decode(v)
}

// varints decodes a varint field, packed or not.
func varints(typ protowire.Type, b []byte, add func(uint64)) (int, error) {
	switch typ {
	case protowire.VarintType:
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		add(v)
		return n, nil
	case protowire.BytesType:
		packed, n, err := lengthDelimited(typ, b)
		if err != nil {
			return 0, err
		}
		for len(packed) > 0 {
			v, m := protowire.ConsumeVarint(packed)
			if m < 0 {
				return 0, protowire.ParseError(m)
			}
			add(v)
			packed = packed[m:]
		}
		return n, nil
	default:
		return 0, ErrWireType
	}
}

// fixed32s decodes a fixed32 field, packed or not.
func fixed32s(typ protowire.Type, b []byte, add func(uint32)) (int, error) {
	switch typ {
	case protowire.Fixed32Type:
		v, n := protowire.ConsumeFixed32(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		add(v)
		return n, nil
	case protowire.BytesType:
		packed, n, err := lengthDelimited(typ, b)
		if err != nil {
			return 0, err
		}
		for len(packed) > 0 {
			v, m := protowire.ConsumeFixed32(packed)
			if m < 0 {
				return 0, protowire.ParseError(m)
			}
			add(v)
			packed = packed[m:]
		}
		return n, nil
	default:
		return 0, ErrWireType
	}
}

// fixed64s decodes a fixed64 field, packed or not.
func fixed64s(typ protowire.Type, b []byte, add func(uint64)) (int, error) {
	switch typ {
	case protowire.Fixed64Type:
		v, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		add(v)
		return n, nil
	case protowire.BytesType:
		packed, n, err := lengthDelimited(typ, b)
		if err != nil {
			return 0, err
		}
		for len(packed) > 0 {
			v, m := protowire.ConsumeFixed64(packed)
			if m < 0 {
				return 0, protowire.ParseError(m)
			}
			add(v)
			packed = packed[m:]
		}
		return n, nil
	default:
		return 0, ErrWireType
	}
}

func setInt64(dst *int64) func(uint64) {
	return func(v uint64) { *dst = int64(v) } //nolint:gosec // Two's complement varint.
}

func setInt32(dst *int32) func(uint64) {
	return func(v uint64) { *dst = int32(v) } //nolint:gosec // Two's complement varint.
}

func decodeModel(b []byte, m *ModelProto) error {
	return message(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1: // ir_version
			return varints(typ, b, setInt64(&m.IRVersion))
		case 2: // producer_name
			return str(typ, b, &m.ProducerName)
		case 3: // producer_version
			return str(typ, b, &m.ProducerVersion)
		case 4: // domain
			return str(typ, b, &m.Domain)
		case 5: // model_version
			return varints(typ, b, setInt64(&m.ModelVersion))
		case 6: // doc_string
			return str(typ, b, &m.DocString)
		case 7: // graph
			return embedded(typ, b, func(v []byte) error {
				m.Graph = &GraphProto{}
				return decodeGraph(v, m.Graph)
			})
		case 8: // opset_import
			return embedded(typ, b, func(v []byte) error {
				var o OperatorSetID
				if err := decodeOperatorSetID(v, &o); err != nil {
					return err
				}
				m.OpsetImport = append(m.OpsetImport, o)
				return nil
			})
		case 14: // metadata_props
			return embedded(typ, b, func(v []byte) error {
				var key, value string
				err := message(v, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
					switch num {
					case 1:
						return str(typ, b, &key)
					case 2:
						return str(typ, b, &value)
					}
					return skip(num, typ, b)
				})
				if err != nil {
					return err
				}
				if m.MetadataProps == nil {
					m.MetadataProps = make(map[string]string)
				}
				m.MetadataProps[key] = value
				return nil
			})
		}
		return skip(num, typ, b)
	})
}

func decodeOperatorSetID(b []byte, o *OperatorSetID) error {
	return message(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1: // domain
			return str(typ, b, &o.Domain)
		case 2: // version
			return varints(typ, b, setInt64(&o.Version))
		}
		return skip(num, typ, b)
	})
}

func decodeGraph(b []byte, g *GraphProto) error {
	valueInfo := func(dst *[]ValueInfoProto) func([]byte) error {
		return func(v []byte) error {
			var vi ValueInfoProto
			if err := decodeValueInfo(v, &vi); err != nil {
				return err
			}
			*dst = append(*dst, vi)
			return nil
		}
	}

	return message(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1: // node
			return embedded(typ, b, func(v []byte) error {
				var n NodeProto
				if err := decodeNode(v, &n); err != nil {
					return fmt.Errorf("node %d: %w", len(g.Nodes), err)
				}
				g.Nodes = append(g.Nodes, n)
				return nil
			})
		case 2: // name
			return str(typ, b, &g.Name)
		case 5: // initializer
			return embedded(typ, b, func(v []byte) error {
				var t TensorProto
				if err := decodeTensor(v, &t); err != nil {
					return err
				}
				g.Initializers = append(g.Initializers, t)
				return nil
			})
		case 10: // doc_string
			return str(typ, b, &g.DocString)
		case 11: // input
			return embedded(typ, b, valueInfo(&g.Inputs))
		case 12: // output
			return embedded(typ, b, valueInfo(&g.Outputs))
		case 13: // value_info
			return embedded(typ, b, valueInfo(&g.ValueInfo))
		}
		return skip(num, typ, b)
	})
}

func decodeNode(b []byte, n *NodeProto) error {
	return message(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1: // input
			return raw(typ, b, func(v []byte) { n.Inputs = append(n.Inputs, string(v)) })
		case 2: // output
			return raw(typ, b, func(v []byte) { n.Outputs = append(n.Outputs, string(v)) })
		case 3: // name
			return str(typ, b, &n.Name)
		case 4: // op_type
			return str(typ, b, &n.OpType)
		case 5: // attribute
			return embedded(typ, b, func(v []byte) error {
				var a AttributeProto
				if err := decodeAttribute(v, &a); err != nil {
					return err
				}
				n.Attributes = append(n.Attributes, a)
				return nil
			})
		case 6: // doc_string
			return str(typ, b, &n.DocString)
		case 7: // domain
			return str(typ, b, &n.Domain)
		}
		return skip(num, typ, b)
	})
}

func decodeTensor(b []byte, t *TensorProto) error {
	return message(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1: // dims
			return varints(typ, b, func(v uint64) { t.Dims = append(t.Dims, int64(v)) }) //nolint:gosec // Two's complement varint.
		case 2: // data_type
			return varints(typ, b, setInt32(&t.DataType))
		case 4: // float_data
			return fixed32s(typ, b, func(v uint32) { t.FloatData = append(t.FloatData, math.Float32frombits(v)) })
		case 5: // int32_data
			return varints(typ, b, func(v uint64) { t.Int32Data = append(t.Int32Data, int32(v)) }) //nolint:gosec // Two's complement varint.
		case 6: // string_data
			return raw(typ, b, func(v []byte) { t.StringData = append(t.StringData, v) })
		case 7: // int64_data
			return varints(typ, b, func(v uint64) { t.Int64Data = append(t.Int64Data, int64(v)) }) //nolint:gosec // Two's complement varint.
		case 8: // name
			return str(typ, b, &t.Name)
		case 9: // raw_data
			return raw(typ, b, func(v []byte) { t.RawData = v })
		case 10: // double_data
			return fixed64s(typ, b, func(v uint64) { t.DoubleData = append(t.DoubleData, math.Float64frombits(v)) })
		case 11: // uint64_data
			return varints(typ, b, func(v uint64) { t.Uint64Data = append(t.Uint64Data, v) })
		case 12: // doc_string
			return str(typ, b, &t.DocString)
		}
		return skip(num, typ, b)
	})
}

// decodeValueInfo flattens ValueInfoProto.type.tensor_type into the value
// info. Non-tensor types leave ElemType undefined.
func decodeValueInfo(b []byte, vi *ValueInfoProto) error {
	tensorType := func(v []byte) error {
		return message(v, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
			switch num {
			case 1: // elem_type
				return varints(typ, b, setInt32(&vi.ElemType))
			case 2: // shape
				return embedded(typ, b, func(v []byte) error { return decodeShape(v, &vi.Shape) })
			}
			return skip(num, typ, b)
		})
	}

	return message(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1: // name
			return str(typ, b, &vi.Name)
		case 2: // type
			return embedded(typ, b, func(v []byte) error {
				return message(v, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
					if num == 1 { // tensor_type
						return embedded(typ, b, tensorType)
					}
					return skip(num, typ, b)
				})
			})
		case 3: // doc_string
			return str(typ, b, &vi.DocString)
		}
		return skip(num, typ, b)
	})
}

func decodeShape(b []byte, dims *[]Dimension) error {
	return message(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 { // dim
			return skip(num, typ, b)
		}
		return embedded(typ, b, func(v []byte) error {
			var d Dimension
			err := message(v, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
				switch num {
				case 1: // dim_value
					return varints(typ, b, setInt64(&d.Value))
				case 2: // dim_param
					return str(typ, b, &d.Param)
				}
				return skip(num, typ, b)
			})
			*dims = append(*dims, d)
			return err
		})
	})
}

func decodeAttribute(b []byte, a *AttributeProto) error {
	return message(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1: // name
			return str(typ, b, &a.Name)
		case 2: // f
			return fixed32s(typ, b, func(v uint32) { a.F = math.Float32frombits(v) })
		case 3: // i
			return varints(typ, b, setInt64(&a.I))
		case 4: // s
			return raw(typ, b, func(v []byte) { a.S = v })
		case 5: // t
			return embedded(typ, b, func(v []byte) error {
				a.T = &TensorProto{}
				return decodeTensor(v, a.T)
			})
		case 6: // g
			return embedded(typ, b, func(v []byte) error {
				a.G = &GraphProto{}
				return decodeGraph(v, a.G)
			})
		case 7: // floats
			return fixed32s(typ, b, func(v uint32) { a.Floats = append(a.Floats, math.Float32frombits(v)) })
		case 8: // ints
			return varints(typ, b, func(v uint64) { a.Ints = append(a.Ints, int64(v)) }) //nolint:gosec // Two's complement varint.
		case 9: // strings
			return raw(typ, b, func(v []byte) { a.Strings = append(a.Strings, v) })
		case 10: // tensors
			return embedded(typ, b, func(v []byte) error {
				var t TensorProto
				if err := decodeTensor(v, &t); err != nil {
					return err
				}
				a.Tensors = append(a.Tensors, t)
				return nil
			})
		case 11: // graphs
			return embedded(typ, b, func(v []byte) error {
				var g GraphProto
				if err := decodeGraph(v, &g); err != nil {
					return err
				}
				a.Graphs = append(a.Graphs, g)
				return nil
			})
		case 13: // doc_string
			return str(typ, b, &a.DocString)
		case 20: // type
			return varints(typ, b, func(v uint64) { a.Type = AttributeType(v) }) //nolint:gosec // Enum value.
		}
		return skip(num, typ, b)
	})
}
