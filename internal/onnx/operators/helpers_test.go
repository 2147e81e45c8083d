package operators

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/opgraph/internal/graph"
	"github.com/born-ml/opgraph/internal/onnx/catalog"
	"github.com/born-ml/opgraph/internal/onnx/schema"
	"github.com/born-ml/opgraph/internal/tensor"
)

func mustSchema(t *testing.T, def catalog.Definition) *schema.OperatorSchema {
	t.Helper()
	s, err := schema.FromDefinition(def)
	require.NoError(t, err)
	return s
}

func concatSchema(t *testing.T) *schema.OperatorSchema {
	return mustSchema(t, catalog.Definition{
		Name:    "Concat",
		Inputs:  []catalog.ParameterDef{{Name: "input", Type: "T", Kind: catalog.KindVariadic}},
		Outputs: []catalog.ParameterDef{{Name: "result", Type: "T"}},
		Attributes: []catalog.AttributeDef{
			{Name: "axis", Type: "INT", Required: true},
		},
		TypeConstraints: []catalog.TypeConstraintDef{
			{Name: "T", Types: []string{"tensor(float)", "tensor(int32)"}},
		},
	})
}

func addSchema(t *testing.T) *schema.OperatorSchema {
	return mustSchema(t, catalog.Definition{
		Name:    "Add",
		Inputs:  []catalog.ParameterDef{{Name: "A", Type: "T"}, {Name: "B", Type: "T"}},
		Outputs: []catalog.ParameterDef{{Name: "C", Type: "T"}},
		TypeConstraints: []catalog.TypeConstraintDef{
			{Name: "T", Types: []string{"tensor(float)", "tensor(double)"}},
		},
	})
}

// fixture builds a region around one operator node.
type fixture struct {
	region *graph.Region
	node   *Node
}

func newFixture(t *testing.T, s *schema.OperatorSchema, attrs map[string]any) *fixture {
	t.Helper()
	n, err := Construct(s, "op", attrs)
	require.NoError(t, err)
	r := graph.New("test").AddRegion("main")
	r.AddNode(n)
	return &fixture{region: r, node: n}
}

// in binds a fresh access node to the given input connector.
func (f *fixture) in(conn string, dt tensor.DataType) *graph.Edge {
	src := f.region.AddNode(graph.NewAccess("in_" + conn + "_" + strconv.Itoa(len(f.region.Edges()))))
	return f.region.AddEdge(src, "", f.node, conn, src.Name(), dt)
}

// out binds the given output connector to a fresh access node.
func (f *fixture) out(conn string, dt tensor.DataType) *graph.Edge {
	dst := f.region.AddNode(graph.NewAccess("out_" + conn + "_" + strconv.Itoa(len(f.region.Edges()))))
	return f.region.AddEdge(f.node, conn, dst, "", dst.Name(), dt)
}

// validationErrors asserts err is a ValidationErrors and returns it.
func validationErrors(t *testing.T, err error) ValidationErrors {
	t.Helper()
	require.Error(t, err)
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	return errs
}
