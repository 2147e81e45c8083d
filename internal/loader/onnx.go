package loader

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/born-ml/opgraph/internal/onnx/model"
	"github.com/born-ml/opgraph/internal/onnx/operators"
	"github.com/born-ml/opgraph/internal/onnx/schema"
	"github.com/born-ml/opgraph/internal/tensor"
)

// ModelExt is the file extension LoadFile treats as an ONNX model.
const ModelExt = ".onnx"

// mainRegion names the single region of an imported model.
const mainRegion = "main"

func isModelFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ModelExt)
}

// ConvertFile reads a description file, or converts an ONNX model file, to
// a description.
func (l *Loader) ConvertFile(path string) (*Document, error) {
	if !isModelFile(path) {
		return readDocument(path)
	}
	m, err := model.ParseFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := l.FromModel(m)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return doc, nil
}

// FromModel converts the main graph of an ONNX model to a description with
// one region.
//
// Every value becomes an access node named after it. Node inputs and
// outputs are bound to schema parameters by position; occurrences past a
// variadic parameter are numbered from zero. Value types come from graph
// inputs, outputs, value infos and initializers. Missing types are filled
// in front to back through the operators' type constraints.
func (l *Loader) FromModel(m *model.ModelProto) (*Document, error) {
	g := m.Graph
	if g == nil {
		return nil, fmt.Errorf("model has no graph")
	}
	opset, _ := m.Opset("")
	c := &converter{
		loader: l,
		types:  make(map[string]tensor.DataType),
		used:   make(map[string]bool),
		region: RegionEntry{Name: mainRegion},
	}

	for _, list := range [][]model.ValueInfoProto{g.Inputs, g.Outputs, g.ValueInfo} {
		for _, vi := range list {
			if vi.ElemType == tensor.TensorProtoUndefined {
				continue
			}
			dt, err := tensor.FromONNX(vi.ElemType)
			if err != nil {
				return nil, fmt.Errorf("value %s: %w", vi.Name, err)
			}
			c.types[vi.Name] = dt
		}
	}
	for _, t := range g.Initializers {
		dt, err := t.Type()
		if err != nil {
			return nil, fmt.Errorf("initializer %s: %w", t.Name, err)
		}
		c.types[t.Name] = dt
	}

	for _, vi := range g.Inputs {
		c.value(vi.Name)
	}
	for _, t := range g.Initializers {
		c.value(t.Name)
	}
	for _, n := range g.Nodes {
		for _, v := range n.Inputs {
			c.value(v)
		}
		for _, v := range n.Outputs {
			c.value(v)
		}
	}

	for i := range g.Nodes {
		if err := c.node(&g.Nodes[i], i); err != nil {
			return nil, err
		}
	}

	return &Document{
		Name:    g.Name,
		Opset:   opset,
		Regions: []RegionEntry{c.region},
	}, nil
}

type converter struct {
	loader *Loader
	types  map[string]tensor.DataType
	used   map[string]bool
	region RegionEntry
}

// value adds the access node of a value once. Empty names mark omitted
// optional inputs.
func (c *converter) value(name string) {
	if name == "" || c.used[name] {
		return
	}
	c.used[name] = true
	c.region.Nodes = append(c.region.Nodes, NodeEntry{Name: name, Kind: KindAccess})
}

// nodeName returns a region-unique name for node i.
func (c *converter) nodeName(n *model.NodeProto, i int) string {
	base := n.Name
	if base == "" {
		base = n.OpType + "_" + strconv.Itoa(i)
	}
	name := base
	for j := 1; c.used[name]; j++ {
		name = base + "_" + strconv.Itoa(j)
	}
	c.used[name] = true
	return name
}

func (c *converter) node(n *model.NodeProto, i int) error {
	s, ok := c.loader.lookup.Lookup(n.OpType)
	if !ok {
		return c.loader.unknownOperator(n.Name, n.OpType)
	}
	name := c.nodeName(n, i)

	attrs := make(map[string]any, len(n.Attributes))
	for _, a := range n.Attributes {
		v, err := attributeValue(&a)
		if err != nil {
			return fmt.Errorf("node %s: attribute %s: %w", name, a.Name, err)
		}
		attrs[a.Name] = v
	}
	if len(attrs) == 0 {
		attrs = nil
	}
	c.region.Nodes = append(c.region.Nodes, NodeEntry{Name: name, Op: n.OpType, Attributes: attrs})

	committed := make(map[string]tensor.DataType)
	for pos, v := range n.Inputs {
		if v == "" {
			continue
		}
		p, conn := positional(s.Inputs(), pos, schema.Input)
		dt := c.types[v]
		if p != nil && dt != tensor.Undefined && (p.Kind != schema.Variadic || p.Homogeneous) {
			if _, ok := committed[p.TypeStr]; !ok {
				committed[p.TypeStr] = dt
			}
		}
		c.region.Edges = append(c.region.Edges, EdgeEntry{Src: v, Dst: name, DstConn: conn, Data: v, Type: typeName(dt)})
	}
	for pos, v := range n.Outputs {
		if v == "" {
			continue
		}
		p, conn := positional(s.Outputs(), pos, schema.Output)
		if _, known := c.types[v]; !known && p != nil {
			if dt, ok := committed[p.TypeStr]; ok {
				c.types[v] = dt
			}
		}
		c.region.Edges = append(c.region.Edges, EdgeEntry{Src: name, SrcConn: conn, Dst: v, Data: v, Type: typeName(c.types[v])})
	}
	return nil
}

// positional returns the parameter bound at position pos and its
// connector name. Positions past the declared parameters get a connector
// that names no parameter, which validation reports.
func positional(params []schema.ParameterSpec, pos int, dir schema.Direction) (*schema.ParameterSpec, string) {
	for j := range params {
		p := &params[j]
		if p.Kind == schema.Variadic {
			return p, operators.VariadicConnector(p.Name, pos-j)
		}
		if j == pos {
			return p, p.Name
		}
	}
	return nil, dir.String() + strconv.Itoa(pos)
}

func typeName(dt tensor.DataType) string {
	if dt == tensor.Undefined {
		return ""
	}
	return dt.String()
}

// attributeValue converts an ONNX attribute to the form graph descriptions
// use for attribute values.
func attributeValue(a *model.AttributeProto) (any, error) {
	switch a.Type {
	case model.AttributeFloat:
		return a.F, nil
	case model.AttributeInt:
		return a.I, nil
	case model.AttributeString:
		return string(a.S), nil
	case model.AttributeFloats:
		return a.Floats, nil
	case model.AttributeInts:
		return a.Ints, nil
	case model.AttributeStrings:
		strs := make([]string, len(a.Strings))
		for i, s := range a.Strings {
			strs[i] = string(s)
		}
		return strs, nil
	case model.AttributeTensor:
		if a.T == nil {
			return nil, fmt.Errorf("tensor attribute without value")
		}
		return tensorValue(a.T)
	default:
		return nil, fmt.Errorf("unsupported attribute type %s", a.Type)
	}
}

func tensorValue(t *model.TensorProto) (map[string]any, error) {
	dt, err := t.Type()
	if err != nil {
		return nil, err
	}
	v := map[string]any{"dtype": dt.String(), "dims": t.Dims}
	if dt.IsFloat() {
		v["values"], err = t.Floats()
	} else {
		v["values"], err = t.Ints()
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
