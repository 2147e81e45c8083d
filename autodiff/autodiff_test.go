package autodiff_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/opgraph/autodiff"
	"github.com/born-ml/opgraph/graph"
	"github.com/born-ml/opgraph/onnx"
	"github.com/born-ml/opgraph/tensor"
)

func TestReverseRegion(t *testing.T) {
	schemas, err := onnx.DefaultRegistry(nil)
	require.NoError(t, err)

	backward := autodiff.NewRegistry(nil)
	require.NoError(t, autodiff.RegisterDefaults(backward))
	backward.Seal()
	gen := autodiff.NewGenerator(schemas, backward, nil)

	sigmoid, ok := gen.Kind("Sigmoid")
	require.True(t, ok)
	node, err := sigmoid.New("sig", nil)
	require.NoError(t, err)

	fwd := graph.New("forward").AddRegion("main")
	x := fwd.AddNode(graph.NewAccess("x"))
	y := fwd.AddNode(graph.NewAccess("y"))
	fwd.AddNode(node)
	fwd.AddEdge(x, "", node, "X", "x", tensor.Float32)
	fwd.AddEdge(node, "Y", y, "", "y", tensor.Float32)

	bwd := graph.New("backward").AddRegion("main")
	reversals, err := gen.ReverseRegion(fwd, bwd)
	require.NoError(t, err)
	require.Len(t, reversals, 1)
	assert.Equal(t, "sig_backward", reversals[0].Backward.Name())
	assert.Equal(t, map[string]string{"X": "dX"}, reversals[0].Result.RequiredGradNames)
	assert.Equal(t, map[string]string{"Y": "dY"}, reversals[0].Result.GivenGradNames)
}

func TestCustomStrategyTakesPrecedence(t *testing.T) {
	schemas, err := onnx.DefaultRegistry(nil)
	require.NoError(t, err)

	custom := autodiff.Func(func(node graph.Node, ctx autodiff.Context, _, _ []string) (graph.Node, autodiff.Result, error) {
		n := graph.NewTasklet(autodiff.UniqueName(ctx.BackwardRegion, node.Name()+"_custom"), "", nil, nil)
		ctx.BackwardRegion.AddNode(n)
		return n, autodiff.Result{}, nil
	})

	backward := autodiff.NewRegistry(nil)
	require.NoError(t, backward.RegisterOp("Relu", custom))
	require.NoError(t, autodiff.RegisterDefaults(backward))
	gen := autodiff.NewGenerator(schemas, backward, nil)

	relu, _ := gen.Kind("Relu")
	node, err := relu.New("act", nil)
	require.NoError(t, err)
	fwd := graph.New("forward").AddRegion("main")
	fwd.AddNode(node)

	bwdNode, _, err := gen.Reverse(fwd, node, graph.New("backward").AddRegion("main"), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "act_custom", bwdNode.Name())

	div, _ := gen.Kind("Div")
	divNode, err := div.New("div", nil)
	require.NoError(t, err)
	_, _, err = gen.Reverse(fwd, divNode, graph.New("b").AddRegion("main"), nil, nil)
	assert.True(t, errors.Is(err, autodiff.ErrNoBackward))
}
