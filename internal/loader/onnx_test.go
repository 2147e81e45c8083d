package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/opgraph/internal/onnx/model"
	"github.com/born-ml/opgraph/internal/onnx/operators"
	"github.com/born-ml/opgraph/internal/tensor"
)

func netModel() *model.ModelProto {
	return &model.ModelProto{
		IRVersion:   8,
		OpsetImport: []model.OperatorSetID{{Version: 17}},
		Graph: &model.GraphProto{
			Name: "net",
			Inputs: []model.ValueInfoProto{
				{Name: "x", ElemType: tensor.TensorProtoFloat, Shape: []model.Dimension{{Param: "batch"}, {Value: 2}}},
			},
			Outputs: []model.ValueInfoProto{{Name: "zt"}},
			Initializers: []model.TensorProto{
				{Name: "w", DataType: tensor.TensorProtoFloat, Dims: []int64{2, 2}, FloatData: []float32{1, 0, 0, 1}},
				{Name: "c", DataType: tensor.TensorProtoFloat, Dims: []int64{2}, FloatData: []float32{0.5, 0.5}},
			},
			Nodes: []model.NodeProto{
				{Name: "mm", OpType: "MatMul", Inputs: []string{"x", "w"}, Outputs: []string{"h"}},
				{OpType: "Add", Inputs: []string{"h", "c"}, Outputs: []string{"s"}},
				{Name: "s", OpType: "Relu", Inputs: []string{"s"}, Outputs: []string{"r"}},
				{Name: "drop", OpType: "Dropout", Inputs: []string{"r", "", ""}, Outputs: []string{"d"}},
				{Name: "sum", OpType: "Sum", Inputs: []string{"d", "r", "h"}, Outputs: []string{"z"}},
				{
					Name: "tr", OpType: "Transpose", Inputs: []string{"z"}, Outputs: []string{"zt"},
					Attributes: []model.AttributeProto{{Name: "perm", Type: model.AttributeInts, Ints: []int64{1, 0}}},
				},
			},
		},
	}
}

func findNode(doc *Document, name string) (NodeEntry, bool) {
	for _, n := range doc.Regions[0].Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return NodeEntry{}, false
}

func edgesInto(doc *Document, dst string) []EdgeEntry {
	var edges []EdgeEntry
	for _, e := range doc.Regions[0].Edges {
		if e.Dst == dst {
			edges = append(edges, e)
		}
	}
	return edges
}

func TestFromModel(t *testing.T) {
	l := newLoader(t)
	doc, err := l.FromModel(netModel())
	require.NoError(t, err)

	assert.Equal(t, "net", doc.Name)
	assert.Equal(t, int64(17), doc.Opset)
	require.Len(t, doc.Regions, 1)
	assert.Equal(t, "main", doc.Regions[0].Name)
	assert.Len(t, doc.Regions[0].Nodes, 15)

	add, ok := findNode(doc, "Add_1")
	require.True(t, ok, "unnamed nodes are named after their operator")
	assert.Equal(t, "Add", add.Op)

	relu, ok := findNode(doc, "s_1")
	require.True(t, ok, "node names do not collide with values")
	assert.Equal(t, "Relu", relu.Op)

	tr, _ := findNode(doc, "tr")
	assert.Equal(t, map[string]any{"perm": []int64{1, 0}}, tr.Attributes)

	in := edgesInto(doc, "sum")
	require.Len(t, in, 3)
	assert.Equal(t, "data_0__0", in[0].DstConn)
	assert.Equal(t, "data_0__2", in[2].DstConn)
	assert.Equal(t, "h", in[2].Data)

	assert.Len(t, edgesInto(doc, "drop"), 1, "omitted optional inputs are dropped")

	// Types flow from x through every operator to the graph output.
	for _, v := range []string{"h", "s", "r", "d", "z", "zt"} {
		e := edgesInto(doc, v)
		require.Len(t, e, 1, v)
		assert.Equal(t, "float32", e[0].Type, v)
	}

	g, err := l.Build(doc)
	require.NoError(t, err)
	failures, err := operators.ValidateGraph(context.Background(), g, 0)
	require.NoError(t, err)
	assert.Empty(t, failures)
}

func TestLoadModelFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "net.ONNX")
	require.NoError(t, os.WriteFile(path, model.Marshal(netModel()), 0o600))

	g, err := newLoader(t).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "net", g.Name())
	r, ok := g.Region("main")
	require.True(t, ok)
	_, ok = r.Node("sum")
	assert.True(t, ok)
}

func TestFromModelExtraInputsLeftToValidation(t *testing.T) {
	m := netModel()
	m.Graph.Nodes[2].Inputs = []string{"s", "c"}

	l := newLoader(t)
	doc, err := l.FromModel(m)
	require.NoError(t, err)
	assert.Equal(t, "input1", edgesInto(doc, "s_1")[1].DstConn)

	g, err := l.Build(doc)
	require.NoError(t, err)
	failures, err := operators.ValidateGraph(context.Background(), g, 1)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Err, operators.UnexpectedParameter)
}

func TestFromModelTensorAttribute(t *testing.T) {
	m := &model.ModelProto{Graph: &model.GraphProto{
		Nodes: []model.NodeProto{{
			Name: "k", OpType: "Constant", Outputs: []string{"k_out"},
			Attributes: []model.AttributeProto{{
				Name: "value", Type: model.AttributeTensor,
				T: &model.TensorProto{DataType: tensor.TensorProtoFloat, Dims: []int64{2}, FloatData: []float32{2.5, -1}},
			}},
		}},
	}}

	l := newLoader(t)
	doc, err := l.FromModel(m)
	require.NoError(t, err)
	k, _ := findNode(doc, "k")
	assert.Equal(t, map[string]any{
		"dtype":  "float32",
		"dims":   []int64{2},
		"values": []float64{2.5, -1},
	}, k.Attributes["value"])

	g, err := l.Build(doc)
	require.NoError(t, err)
	r := g.Regions()[0]
	n, _ := r.Node("k")
	v, ok := n.(*operators.Node).Attribute("value")
	require.True(t, ok)
	assert.Equal(t, []float64{2.5, -1}, v.Tensor.Floats)
}

func TestFromModelErrors(t *testing.T) {
	l := newLoader(t)

	_, err := l.FromModel(&model.ModelProto{})
	assert.EqualError(t, err, "model has no graph")

	m := netModel()
	m.Graph.Nodes[0].OpType = "MatMull"
	_, err = l.FromModel(m)
	assert.ErrorContains(t, err, `unknown operator "MatMull" (did you mean "MatMul"?)`)

	m = netModel()
	m.Graph.Nodes[5].Attributes = []model.AttributeProto{{Name: "body", Type: model.AttributeGraph, G: &model.GraphProto{}}}
	_, err = l.FromModel(m)
	assert.ErrorContains(t, err, "attribute body: unsupported attribute type GRAPH")

	m = netModel()
	m.Graph.Initializers[0].DataType = 14
	_, err = l.FromModel(m)
	assert.ErrorContains(t, err, "initializer w")
}

func TestConvertFileDescription(t *testing.T) {
	doc, err := newLoader(t).ConvertFile("testdata/mlp.yaml")
	require.NoError(t, err)
	assert.Equal(t, "mlp", doc.Name)
	assert.Zero(t, doc.Opset)
}
