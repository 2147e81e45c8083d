package operators

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/opgraph/internal/onnx/catalog"
	"github.com/born-ml/opgraph/internal/onnx/schema"
	"github.com/born-ml/opgraph/internal/tensor"
)

func TestValidateConcat(t *testing.T) {
	f := newFixture(t, concatSchema(t), map[string]any{"axis": 0})
	f.in("input__0", tensor.Float32)
	f.in("input__1", tensor.Float32)
	f.out("result", tensor.Float32)

	require.NoError(t, f.node.Validate(f.region))
	// Validation is a pure read: a second run yields the same result.
	require.NoError(t, f.node.Validate(f.region))
}

func TestValidateSingleParameters(t *testing.T) {
	f := newFixture(t, addSchema(t), nil)
	f.in("A", tensor.Float32)
	b := f.in("B", tensor.Float32)
	f.out("C", tensor.Float32)
	require.NoError(t, f.node.Validate(f.region))

	f.region.RemoveEdge(b)
	errs := validationErrors(t, f.node.Validate(f.region))
	require.Len(t, errs, 1)
	assert.Equal(t, MissingRequiredParameter, errs[0].Kind)
	assert.Equal(t, []string{"B"}, errs[0].Names)
	assert.Equal(t, schema.Input, errs[0].Direction)
	assert.Equal(t, "node op (Add): missing 1 required input: 'B'", errs[0].Error())
}

func TestValidateMissingSeveralParameters(t *testing.T) {
	f := newFixture(t, addSchema(t), nil)

	errs := validationErrors(t, f.node.Validate(f.region))
	require.Len(t, errs, 2)
	assert.Equal(t, []string{"A", "B"}, errs[0].Names)
	assert.Contains(t, errs[0].Error(), "missing 2 required inputs: 'A', and 'B'")
	assert.Equal(t, schema.Output, errs[1].Direction)
	assert.Equal(t, []string{"C"}, errs[1].Names)
}

func TestValidateUnconnectedConnector(t *testing.T) {
	f := newFixture(t, addSchema(t), nil)
	f.in("A", tensor.Float32)
	f.in("B", tensor.Float32)
	f.in("", tensor.Float32)
	f.out("C", tensor.Float32)

	err := f.node.Validate(f.region)
	assert.ErrorIs(t, err, UnconnectedConnector)
	assert.Len(t, validationErrors(t, err), 1)
}

func TestValidateUnexpectedParameter(t *testing.T) {
	f := newFixture(t, addSchema(t), nil)
	f.in("AA", tensor.Float32)
	f.in("B", tensor.Float32)
	f.out("C", tensor.Float32)

	errs := validationErrors(t, f.node.Validate(f.region))
	// The stray connector leaves A unbound as well.
	require.True(t, errs.Has(UnexpectedParameter))
	require.True(t, errs.Has(MissingRequiredParameter))
	assert.Equal(t, UnexpectedParameter, errs[0].Kind, "checks are reported in order")
	assert.Equal(t, "AA", errs[0].Connector)
	assert.Equal(t, "A", errs[0].Suggestion)
	assert.Contains(t, errs[0].Error(), "did you mean 'A'?")
}

func TestValidateDuplicateInput(t *testing.T) {
	f := newFixture(t, addSchema(t), nil)
	f.in("A", tensor.Float32)
	f.in("A", tensor.Float32)
	f.in("B", tensor.Float32)
	f.out("C", tensor.Float32)

	err := f.node.Validate(f.region)
	assert.ErrorIs(t, err, DuplicateConnector)
}

func TestValidateOutputFanOut(t *testing.T) {
	f := newFixture(t, addSchema(t), nil)
	f.in("A", tensor.Float64)
	f.in("B", tensor.Float64)
	f.out("C", tensor.Float64)
	f.out("C", tensor.Float64)

	assert.NoError(t, f.node.Validate(f.region))
}

func TestValidateVariadicIndices(t *testing.T) {
	t.Run("duplicate", func(t *testing.T) {
		f := newFixture(t, concatSchema(t), map[string]any{"axis": 0})
		f.in("input__0", tensor.Float32)
		f.in("input__1", tensor.Float32)
		f.in("input__2", tensor.Float32)
		f.in("input__2", tensor.Float32)
		f.out("result", tensor.Float32)

		errs := validationErrors(t, f.node.Validate(f.region))
		require.Len(t, errs, 1)
		assert.Equal(t, DuplicateVariadicIndex, errs[0].Kind)
		assert.Equal(t, 2, errs[0].Index)
		assert.Equal(t, "input", errs[0].Param)
	})

	t.Run("gap", func(t *testing.T) {
		f := newFixture(t, concatSchema(t), map[string]any{"axis": 0})
		f.in("input__0", tensor.Float32)
		f.in("input__2", tensor.Float32)
		f.out("result", tensor.Float32)

		errs := validationErrors(t, f.node.Validate(f.region))
		require.Len(t, errs, 1)
		assert.Equal(t, NonContiguousVariadicIndices, errs[0].Kind)
		assert.Equal(t, 1, errs[0].Index)
		assert.Equal(t, []string{"input__0", "input__2"}, errs[0].Names)
	})

	t.Run("not starting at zero", func(t *testing.T) {
		f := newFixture(t, concatSchema(t), map[string]any{"axis": 0})
		f.in("input__1", tensor.Float32)
		f.out("result", tensor.Float32)

		err := f.node.Validate(f.region)
		assert.ErrorIs(t, err, NonContiguousVariadicIndices)
	})
}

func TestValidateWrongParameterKind(t *testing.T) {
	t.Run("unsuffixed variadic", func(t *testing.T) {
		f := newFixture(t, concatSchema(t), map[string]any{"axis": 0})
		f.in("input", tensor.Float32)
		f.out("result", tensor.Float32)

		errs := validationErrors(t, f.node.Validate(f.region))
		require.Len(t, errs, 1)
		assert.Equal(t, WrongParameterKind, errs[0].Kind)
		assert.Contains(t, errs[0].Error(), "use 'input__i'")
	})

	t.Run("suffixed single", func(t *testing.T) {
		f := newFixture(t, addSchema(t), nil)
		f.in("A__0", tensor.Float32)
		f.in("B", tensor.Float32)
		f.out("C", tensor.Float32)

		errs := validationErrors(t, f.node.Validate(f.region))
		assert.True(t, errs.Has(WrongParameterKind))
		assert.True(t, errs.Has(MissingRequiredParameter))
	})
}

func TestValidateTypeConstraints(t *testing.T) {
	t.Run("same type", func(t *testing.T) {
		f := newFixture(t, addSchema(t), nil)
		f.in("A", tensor.Float32)
		f.in("B", tensor.Float32)
		f.out("C", tensor.Float32)
		assert.NoError(t, f.node.Validate(f.region))
	})

	t.Run("conflict", func(t *testing.T) {
		f := newFixture(t, addSchema(t), nil)
		f.in("A", tensor.Float32)
		f.in("B", tensor.Float64)
		f.out("C", tensor.Float32)

		errs := validationErrors(t, f.node.Validate(f.region))
		require.Len(t, errs, 1)
		e := errs[0]
		assert.Equal(t, TypeConflict, e.Kind)
		assert.Equal(t, "B", e.Param)
		assert.Equal(t, tensor.Float32, e.Expected)
		assert.Equal(t, tensor.Float64, e.Actual)
	})

	t.Run("first edge in canonical order wins", func(t *testing.T) {
		f := newFixture(t, addSchema(t), nil)
		f.out("C", tensor.Float32)
		f.in("B", tensor.Float64)
		f.in("A", tensor.Float64)

		err := f.node.Validate(f.region)
		var e *Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, TypeConflict, e.Kind)
		assert.Equal(t, "C", e.Param)
		assert.Equal(t, tensor.Float64, e.Expected)
	})

	t.Run("not allowed", func(t *testing.T) {
		f := newFixture(t, addSchema(t), nil)
		f.in("A", tensor.Int8)
		f.in("B", tensor.Int8)
		f.out("C", tensor.Int8)

		err := f.node.Validate(f.region)
		var e *Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, TypeNotAllowed, e.Kind)
		assert.Equal(t, "A", e.Param)
		assert.Equal(t, []tensor.DataType{tensor.Float32, tensor.Float64}, e.Allowed)
	})
}

func TestValidateNonHomogeneousVariadic(t *testing.T) {
	heterogeneous := false
	s := mustSchema(t, catalog.Definition{
		Name:    "Branch",
		Inputs:  []catalog.ParameterDef{{Name: "cond", Type: "tensor(bool)"}},
		Outputs: []catalog.ParameterDef{{Name: "outputs", Type: "V", Kind: catalog.KindVariadic, Homogeneous: &heterogeneous}},
		TypeConstraints: []catalog.TypeConstraintDef{
			{Name: "V", Types: []string{"tensor(float)", "tensor(int64)"}},
		},
	})

	f := newFixture(t, s, nil)
	f.in("cond", tensor.Bool)
	f.out("outputs__0", tensor.Float32)
	f.out("outputs__1", tensor.Int64)
	f.out("outputs__1", tensor.Int64)
	assert.NoError(t, f.node.Validate(f.region))

	f.out("outputs__2", tensor.String)
	assert.ErrorIs(t, f.node.Validate(f.region), TypeNotAllowed)
}

func TestValidateAttributes(t *testing.T) {
	f := newFixture(t, concatSchema(t), map[string]any{"axis": 1})
	f.in("input__0", tensor.Int32)
	f.out("result", tensor.Int32)
	require.NoError(t, f.node.Validate(f.region))

	f.node.ClearAttribute("axis")
	errs := validationErrors(t, f.node.Validate(f.region))
	require.Len(t, errs, 1)
	assert.Equal(t, MissingRequiredAttribute, errs[0].Kind)
	assert.Equal(t, []string{"axis"}, errs[0].Names)

	require.NoError(t, f.node.SetAttribute("axis", 0))
	assert.NoError(t, f.node.Validate(f.region))
}

func TestValidateReportsStructureAndAttributes(t *testing.T) {
	f := newFixture(t, concatSchema(t), map[string]any{"axis": 0})
	f.node.ClearAttribute("axis")
	f.in("input__0", tensor.Float64)

	errs := validationErrors(t, f.node.Validate(f.region))
	assert.True(t, errs.Has(MissingRequiredParameter))
	assert.True(t, errs.Has(MissingRequiredAttribute))
	// Type solving only runs on structurally valid nodes.
	assert.False(t, errs.Has(TypeNotAllowed))
	assert.False(t, errors.Is(errs, TypeNotAllowed))
}
