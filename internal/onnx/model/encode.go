package model

import (
	"maps"
	"math"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"
)

// Marshal encodes m in the ONNX wire format. Repeated scalars are packed
// and metadata entries are written in key order.
func Marshal(m *ModelProto) []byte {
	var b []byte
	b = appendVarint(b, 1, toUint64(m.IRVersion))
	b = appendString(b, 2, m.ProducerName)
	b = appendString(b, 3, m.ProducerVersion)
	b = appendString(b, 4, m.Domain)
	b = appendVarint(b, 5, toUint64(m.ModelVersion))
	b = appendString(b, 6, m.DocString)
	if m.Graph != nil {
		b = appendMessage(b, 7, appendGraph(nil, m.Graph))
	}
	for _, o := range m.OpsetImport {
		var sub []byte
		sub = appendString(sub, 1, o.Domain)
		sub = appendVarint(sub, 2, toUint64(o.Version))
		b = appendMessage(b, 8, sub)
	}
	for _, k := range slices.Sorted(maps.Keys(m.MetadataProps)) {
		var sub []byte
		sub = appendString(sub, 1, k)
		sub = appendString(sub, 2, m.MetadataProps[k])
		b = appendMessage(b, 14, sub)
	}
	return b
}

func appendGraph(b []byte, g *GraphProto) []byte {
	for i := range g.Nodes {
		b = appendMessage(b, 1, appendNode(nil, &g.Nodes[i]))
	}
	b = appendString(b, 2, g.Name)
	for i := range g.Initializers {
		b = appendMessage(b, 5, appendTensor(nil, &g.Initializers[i]))
	}
	b = appendString(b, 10, g.DocString)
	for _, list := range []struct {
		num    protowire.Number
		values []ValueInfoProto
	}{{11, g.Inputs}, {12, g.Outputs}, {13, g.ValueInfo}} {
		for i := range list.values {
			b = appendMessage(b, list.num, appendValueInfo(nil, &list.values[i]))
		}
	}
	return b
}

func appendNode(b []byte, n *NodeProto) []byte {
	for _, in := range n.Inputs {
		b = appendBytes(b, 1, []byte(in))
	}
	for _, out := range n.Outputs {
		b = appendBytes(b, 2, []byte(out))
	}
	b = appendString(b, 3, n.Name)
	b = appendString(b, 4, n.OpType)
	for i := range n.Attributes {
		b = appendMessage(b, 5, appendAttribute(nil, &n.Attributes[i]))
	}
	b = appendString(b, 6, n.DocString)
	b = appendString(b, 7, n.Domain)
	return b
}

func appendTensor(b []byte, t *TensorProto) []byte {
	b = appendPackedVarints(b, 1, convert(t.Dims, toUint64[int64]))
	b = appendVarint(b, 2, toUint64(t.DataType))
	b = appendPackedFixed32(b, 4, convert(t.FloatData, math.Float32bits))
	b = appendPackedVarints(b, 5, convert(t.Int32Data, toUint64[int32]))
	for _, s := range t.StringData {
		b = appendBytes(b, 6, s)
	}
	b = appendPackedVarints(b, 7, convert(t.Int64Data, toUint64[int64]))
	b = appendString(b, 8, t.Name)
	if t.RawData != nil {
		b = appendBytes(b, 9, t.RawData)
	}
	if len(t.DoubleData) > 0 {
		packed := make([]byte, 0, 8*len(t.DoubleData))
		for _, v := range t.DoubleData {
			packed = protowire.AppendFixed64(packed, math.Float64bits(v))
		}
		b = appendBytes(b, 10, packed)
	}
	b = appendPackedVarints(b, 11, t.Uint64Data)
	b = appendString(b, 12, t.DocString)
	return b
}

func appendValueInfo(b []byte, vi *ValueInfoProto) []byte {
	b = appendString(b, 1, vi.Name)
	if vi.ElemType != 0 || len(vi.Shape) > 0 {
		var tt []byte
		tt = appendVarint(tt, 1, toUint64(vi.ElemType))
		if len(vi.Shape) > 0 {
			var shape []byte
			for _, d := range vi.Shape {
				var dim []byte
				if d.Param != "" {
					dim = appendString(dim, 2, d.Param)
				} else {
					dim = protowire.AppendTag(dim, 1, protowire.VarintType)
					dim = protowire.AppendVarint(dim, toUint64(d.Value))
				}
				shape = appendMessage(shape, 1, dim)
			}
			tt = appendMessage(tt, 2, shape)
		}
		b = appendMessage(b, 2, appendMessage(nil, 1, tt))
	}
	b = appendString(b, 3, vi.DocString)
	return b
}

func appendAttribute(b []byte, a *AttributeProto) []byte {
	b = appendString(b, 1, a.Name)
	switch a.Type {
	case AttributeFloat:
		b = protowire.AppendTag(b, 2, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(a.F))
	case AttributeInt:
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, toUint64(a.I))
	case AttributeString:
		b = appendBytes(b, 4, a.S)
	}
	if a.T != nil {
		b = appendMessage(b, 5, appendTensor(nil, a.T))
	}
	if a.G != nil {
		b = appendMessage(b, 6, appendGraph(nil, a.G))
	}
	b = appendPackedFixed32(b, 7, convert(a.Floats, math.Float32bits))
	b = appendPackedVarints(b, 8, convert(a.Ints, toUint64[int64]))
	for _, s := range a.Strings {
		b = appendBytes(b, 9, s)
	}
	for i := range a.Tensors {
		b = appendMessage(b, 10, appendTensor(nil, &a.Tensors[i]))
	}
	for i := range a.Graphs {
		b = appendMessage(b, 11, appendGraph(nil, &a.Graphs[i]))
	}
	b = appendString(b, 13, a.DocString)
	b = appendVarint(b, 20, toUint64(a.Type))
	return b
}

// appendVarint writes a non-zero varint field. Zero is the proto3 default
// and is omitted.
func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	return appendBytes(b, num, msg)
}

func appendPackedVarints(b []byte, num protowire.Number, values []uint64) []byte {
	if len(values) == 0 {
		return b
	}
	var packed []byte
	for _, v := range values {
		packed = protowire.AppendVarint(packed, v)
	}
	return appendBytes(b, num, packed)
}

func appendPackedFixed32(b []byte, num protowire.Number, values []uint32) []byte {
	if len(values) == 0 {
		return b
	}
	packed := make([]byte, 0, 4*len(values))
	for _, v := range values {
		packed = protowire.AppendFixed32(packed, v)
	}
	return appendBytes(b, num, packed)
}

// toUint64 reinterprets a signed value as a varint payload.
func toUint64[T ~int32 | ~int64](v T) uint64 {
	return uint64(v) //nolint:gosec // Two's complement varint.
}
