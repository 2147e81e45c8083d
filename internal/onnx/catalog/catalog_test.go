package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reluDoc = `
version: "1.2.0"
domain: test
operators:
  - name: Relu
    inputs:
      - { name: X, type: T }
    outputs:
      - { name: Y, type: T }
    type_constraints:
      - { name: T, types: [tensor(float)] }
  - name: Concat
    domain: other
    inputs:
      - { name: inputs, type: T, kind: variadic, homogeneous: false }
    outputs:
      - { name: concat_result, type: T }
    attributes:
      - { name: axis, type: INT, required: true }
    type_constraints:
      - { name: T, types: [tensor(float)] }
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(reluDoc))
	require.NoError(t, err)

	defs, err := c.Definitions()
	require.NoError(t, err)
	require.Len(t, defs, 2)

	relu := defs[0]
	assert.Equal(t, "Relu", relu.Name)
	assert.Equal(t, "test", relu.Domain, "operator should inherit document domain")
	require.Len(t, relu.Inputs, 1)
	assert.Equal(t, "X", relu.Inputs[0].Name)
	assert.True(t, relu.Inputs[0].IsHomogeneous())

	concat := defs[1]
	assert.Equal(t, "other", concat.Domain)
	assert.Equal(t, KindVariadic, concat.Inputs[0].Kind)
	assert.False(t, concat.Inputs[0].IsHomogeneous())
	require.Len(t, concat.Attributes, 1)
	assert.True(t, concat.Attributes[0].Required)
}

func TestParseRejectsStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing version", "operators: []"},
		{"bad kind", `
version: "1.0.0"
operators:
  - name: Relu
    inputs: [{ name: X, type: T, kind: repeated }]
`},
		{"bad attribute type", `
version: "1.0.0"
operators:
  - name: Relu
    attributes: [{ name: a, type: COMPLEX }]
`},
		{"unknown field", `
version: "1.0.0"
operators:
  - name: Relu
    opset: 3
`},
		{"empty constraint", `
version: "1.0.0"
operators:
  - name: Relu
    type_constraints: [{ name: T, types: [] }]
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			var docErr *DocumentError
			require.ErrorAs(t, err, &docErr)
			assert.NotEmpty(t, docErr.Issues)
		})
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("version: [unterminated"))
	require.Error(t, err)
}

func TestParseVersionGate(t *testing.T) {
	_, err := Parse([]byte(`
version: "2.0.0"
operators: []
`))
	assert.True(t, errors.Is(err, ErrUnsupportedVersion), "got %v", err)

	_, err = Parse([]byte(`
version: "not-a-version"
operators: []
`))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ops.yaml")
	require.NoError(t, os.WriteFile(path, []byte(reluDoc), 0o600))

	c, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, c.Operators, 2)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuiltin(t *testing.T) {
	std, err := Standard()
	require.NoError(t, err)
	grads, err := Gradients()
	require.NoError(t, err)

	defs, err := Builtin().Definitions()
	require.NoError(t, err)
	assert.Len(t, defs, len(std.Operators)+len(grads.Operators))

	names := make(map[string]bool)
	for _, d := range defs {
		names[d.Name] = true
	}
	for _, op := range []string{"Add", "Relu", "Concat", "If", "ReluGrad", "MatMulGrad"} {
		assert.True(t, names[op], "missing builtin operator %s", op)
	}
}

type failingSource struct{}

func (failingSource) Definitions() ([]Definition, error) {
	return nil, errors.New("catalog offline")
}

func TestSourcesPropagatesErrors(t *testing.T) {
	c, err := Parse([]byte(reluDoc))
	require.NoError(t, err)

	_, err = Sources{c, failingSource{}}.Definitions()
	assert.EqualError(t, err, "catalog offline")
}
