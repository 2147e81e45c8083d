package ops

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/opgraph/internal/graph"
	"github.com/born-ml/opgraph/internal/onnx/catalog"
	"github.com/born-ml/opgraph/internal/onnx/operators"
	"github.com/born-ml/opgraph/internal/onnx/schema"
)

func newFactory(t *testing.T) *operators.Factory {
	t.Helper()
	reg := schema.NewRegistry(nil)
	_, err := reg.ImportAll(catalog.Builtin())
	require.NoError(t, err)
	reg.Seal()
	return operators.NewFactory(reg)
}

func forwardNode(t *testing.T, f *operators.Factory, op, name string, attrs map[string]any) *operators.Node {
	t.Helper()
	kind, ok := f.Kind(op)
	require.True(t, ok, "operator %s", op)
	n, err := kind.New(name, attrs)
	require.NoError(t, err)
	return n
}

func newContext(f *operators.Factory) Context {
	fwd := graph.New("forward")
	bwd := graph.New("backward")
	return Context{
		ForwardGraph:   fwd,
		ForwardRegion:  fwd.AddRegion("main"),
		BackwardGraph:  bwd,
		BackwardRegion: bwd.AddRegion("main"),
		Generator:      f,
	}
}

func TestReluBackward(t *testing.T) {
	f := newFactory(t)
	ctx := newContext(f)
	relu := forwardNode(t, f, "Relu", "relu", nil)
	ctx.ForwardRegion.AddNode(relu)

	s := Relu()
	require.True(t, s.CanApply(relu, ctx))

	node, result, err := s.Backward(relu, ctx, []string{"Y"}, []string{"X"})
	require.NoError(t, err)

	bwd, ok := node.(*operators.Node)
	require.True(t, ok)
	assert.Equal(t, "ReluGrad", bwd.Op())
	assert.Equal(t, "relu_backward", bwd.Name())

	gradOut := result.RequiredGradNames["X"]
	gradIn := result.GivenGradNames["Y"]
	assert.Contains(t, bwd.OutConnectors(), gradOut)
	assert.Contains(t, bwd.InConnectors(), gradIn)
	assert.NotEqual(t, gradOut, gradIn)

	// The forward value of X is consumed under the forward connector name.
	assert.Contains(t, bwd.InConnectors(), "X")

	_, inserted := ctx.BackwardRegion.Node("relu_backward")
	assert.True(t, inserted)
	assert.Empty(t, ctx.ForwardRegion.Edges(), "forward graph is not modified")
	assert.Len(t, ctx.ForwardRegion.Nodes(), 1)
}

func TestBackwardIsDeterministic(t *testing.T) {
	f := newFactory(t)
	mm := forwardNode(t, f, "MatMul", "mm", nil)

	run := func() (*operators.Node, Result) {
		ctx := newContext(f)
		node, result, err := MatMul().Backward(mm, ctx, []string{"Y"}, []string{"B", "A"})
		require.NoError(t, err)
		return node.(*operators.Node), result
	}

	n1, r1 := run()
	n2, r2 := run()
	if diff := cmp.Diff(r1, r2); diff != "" {
		t.Errorf("results differ (-first +second):\n%s", diff)
	}
	assert.Equal(t, n1.Name(), n2.Name())
	assert.Equal(t, n1.InConnectors(), n2.InConnectors())
	assert.Equal(t, n1.OutConnectors(), n2.OutConnectors())

	want := Result{
		RequiredGradNames: map[string]string{"A": "dA", "B": "dB"},
		GivenGradNames:    map[string]string{"Y": "dY"},
	}
	if diff := cmp.Diff(want, r1); diff != "" {
		t.Errorf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestBackwardPartialRequired(t *testing.T) {
	f := newFactory(t)
	ctx := newContext(f)
	mul := forwardNode(t, f, "Mul", "mul", nil)

	node, result, err := Mul().Backward(mul, ctx, []string{"C"}, []string{"A", "scale"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"A": "dA"}, result.RequiredGradNames)
	_, ok := result.RequiredGradNames["scale"]
	assert.False(t, ok, "unknown inputs are left out, not invented")

	bwd := node.(*operators.Node)
	assert.Equal(t, []string{"dA"}, bwd.OutConnectors())
	assert.Equal(t, []string{"dC", "A", "B"}, bwd.InConnectors())
}

func TestBackwardUniqueNames(t *testing.T) {
	f := newFactory(t)
	ctx := newContext(f)
	relu := forwardNode(t, f, "Relu", "relu", nil)

	first, _, err := Relu().Backward(relu, ctx, []string{"Y"}, []string{"X"})
	require.NoError(t, err)
	second, _, err := Relu().Backward(relu, ctx, []string{"Y"}, []string{"X"})
	require.NoError(t, err)

	assert.Equal(t, "relu_backward", first.Name())
	assert.Equal(t, "relu_backward_1", second.Name())
}

func TestSoftmaxCopiesAxis(t *testing.T) {
	f := newFactory(t)

	withAxis := forwardNode(t, f, "Softmax", "sm", map[string]any{"axis": 1})
	node, _, err := Softmax().Backward(withAxis, newContext(f), []string{"output"}, []string{"input"})
	require.NoError(t, err)
	v, ok := node.(*operators.Node).Attribute("axis")
	require.True(t, ok)
	assert.Equal(t, int64(1), v.Int)

	// The default is copied when the forward node leaves axis unset.
	plain := forwardNode(t, f, "Softmax", "sm", nil)
	node, _, err = Softmax().Backward(plain, newContext(f), []string{"output"}, []string{"input"})
	require.NoError(t, err)
	assert.Contains(t, node.(*operators.Node).Attributes(), "axis")
}

func TestGradOpNotApplicable(t *testing.T) {
	f := newFactory(t)
	ctx := newContext(f)
	sigmoid := forwardNode(t, f, "Sigmoid", "s", nil)

	assert.False(t, Relu().CanApply(sigmoid, ctx))
	assert.False(t, Relu().CanApply(graph.NewAccess("x"), ctx))

	_, _, err := Relu().Backward(sigmoid, ctx, nil, []string{"X"})
	assert.ErrorIs(t, err, ErrNotApplicable)

	missing := &GradOp{Forward: "Sigmoid", Grad: "NoSuchGrad"}
	assert.False(t, missing.CanApply(sigmoid, ctx))

	_, _, err = Sigmoid().Backward(sigmoid, ctx, []string{"Z"}, nil)
	assert.ErrorContains(t, err, `no gradient input for output "Z"`)
}

func TestBuiltinGradOpsExist(t *testing.T) {
	f := newFactory(t)
	for _, s := range Builtin() {
		_, ok := f.Kind(s.Forward)
		assert.True(t, ok, "forward operator %s", s.Forward)
		_, ok = f.Kind(s.Grad)
		assert.True(t, ok, "gradient operator %s", s.Grad)
	}
}

func TestFunc(t *testing.T) {
	called := false
	var s Strategy = Func(func(graph.Node, Context, []string, []string) (graph.Node, Result, error) {
		called = true
		return nil, EmptyResult(), nil
	})
	assert.True(t, s.CanApply(nil, Context{}))
	_, r, err := s.Backward(nil, Context{}, nil, nil)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Empty(t, r.GivenGradNames)
}

func TestUniqueName(t *testing.T) {
	r := graph.New("g").AddRegion("r")
	assert.Equal(t, "x", UniqueName(r, "x"))
	r.AddNode(graph.NewAccess("x"))
	r.AddNode(graph.NewAccess("x_1"))
	assert.Equal(t, "x_2", UniqueName(r, "x"))
}
