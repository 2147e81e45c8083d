// Package schema holds the static contract of operator kinds.
//
// An OperatorSchema is built once from a catalog definition and is immutable
// afterwards: ordered input and output parameters, attribute specs and the
// type-constraint table the parameters refer to. The Registry collects the
// schemas of a catalog import and serves lookups by operator name.
package schema

import (
	"fmt"
	"slices"

	"github.com/emirpasic/gods/v2/sets/treeset"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/born-ml/opgraph/internal/tensor"
)

// Direction distinguishes input from output parameters.
type Direction uint8

// Parameter directions.
const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Input {
		return "input"
	}
	return "output"
}

// ParameterKind is the arity of a formal parameter.
type ParameterKind uint8

// Parameter kinds.
const (
	Single   ParameterKind = iota // Exactly one edge
	Optional                      // Zero or one edge
	Variadic                      // Zero or more edges, addressed as name__i
)

func (k ParameterKind) String() string {
	switch k {
	case Single:
		return "single"
	case Optional:
		return "optional"
	case Variadic:
		return "variadic"
	default:
		return fmt.Sprintf("ParameterKind(%d)", k)
	}
}

// ParameterSpec is one formal input or output of an operator.
type ParameterSpec struct {
	Name string
	Kind ParameterKind
	// TypeStr is the key into the schema's type-constraint table.
	TypeStr string
	// Homogeneous is only meaningful for Variadic parameters. When false each
	// occurrence may bind a different concrete type.
	Homogeneous bool
	Doc         string
}

// AttributeSpec is one declared operator attribute.
type AttributeSpec struct {
	Name     string
	Type     AttributeType
	Required bool
	Default  *Value // nil when the catalog declares no default
	Doc      string
}

// TypeConstraint is a named set of admissible concrete data types.
type TypeConstraint struct {
	name  string
	types *treeset.Set[tensor.DataType]
}

// NewTypeConstraint creates a constraint over the given types.
func NewTypeConstraint(name string, types ...tensor.DataType) TypeConstraint {
	return TypeConstraint{name: name, types: treeset.New(types...)}
}

// Name returns the constraint name.
func (tc TypeConstraint) Name() string { return tc.name }

// Allows reports whether dt is admissible.
func (tc TypeConstraint) Allows(dt tensor.DataType) bool {
	return tc.types != nil && tc.types.Contains(dt)
}

// Types returns the admissible types in ascending order.
func (tc TypeConstraint) Types() []tensor.DataType {
	if tc.types == nil {
		return nil
	}
	return tc.types.Values()
}

// OperatorSchema is the static contract of one operator kind.
type OperatorSchema struct {
	name         string
	domain       string
	sinceVersion int
	doc          string
	inputs       []ParameterSpec
	outputs      []ParameterSpec
	attributes   *orderedmap.OrderedMap[string, AttributeSpec]
	constraints  map[string]TypeConstraint
}

// Name returns the operator name, e.g. "Conv".
func (s *OperatorSchema) Name() string { return s.name }

// Domain returns the operator domain. Empty is the default ONNX domain.
func (s *OperatorSchema) Domain() string { return s.domain }

// SinceVersion returns the opset version the definition was introduced in.
func (s *OperatorSchema) SinceVersion() int { return s.sinceVersion }

// Doc returns the operator documentation.
func (s *OperatorSchema) Doc() string { return s.doc }

// Inputs returns the ordered input parameters.
func (s *OperatorSchema) Inputs() []ParameterSpec { return slices.Clone(s.inputs) }

// Outputs returns the ordered output parameters.
func (s *OperatorSchema) Outputs() []ParameterSpec { return slices.Clone(s.outputs) }

// Parameters returns the ordered parameters of one direction.
func (s *OperatorSchema) Parameters(dir Direction) []ParameterSpec {
	if dir == Input {
		return s.Inputs()
	}
	return s.Outputs()
}

// params returns the internal slice. Callers must not modify it.
func (s *OperatorSchema) params(dir Direction) []ParameterSpec {
	if dir == Input {
		return s.inputs
	}
	return s.outputs
}

// Parameter returns the position and ParameterSpec of the named parameter.
// It returns -1 when the parameter is not declared in that direction.
func (s *OperatorSchema) Parameter(dir Direction, name string) (int, ParameterSpec) {
	for i, p := range s.params(dir) {
		if p.Name == name {
			return i, p
		}
	}
	return -1, ParameterSpec{}
}

// CountParameters returns how many parameters of the given direction are named name.
func (s *OperatorSchema) CountParameters(dir Direction, name string) int {
	n := 0
	for _, p := range s.params(dir) {
		if p.Name == name {
			n++
		}
	}
	return n
}

// Variadic returns the variadic parameter of a direction, if any.
func (s *OperatorSchema) Variadic(dir Direction) (ParameterSpec, bool) {
	params := s.params(dir)
	if len(params) > 0 && params[len(params)-1].Kind == Variadic {
		return params[len(params)-1], true
	}
	return ParameterSpec{}, false
}

// Attribute returns the named attribute spec.
func (s *OperatorSchema) Attribute(name string) (AttributeSpec, bool) {
	return s.attributes.Get(name)
}

// Attributes returns the attribute specs in declaration order.
func (s *OperatorSchema) Attributes() []AttributeSpec {
	specs := make([]AttributeSpec, 0, s.attributes.Len())
	for pair := s.attributes.Oldest(); pair != nil; pair = pair.Next() {
		specs = append(specs, pair.Value)
	}
	return specs
}

// RequiredAttributes returns the names of required attributes in declaration order.
func (s *OperatorSchema) RequiredAttributes() []string {
	var names []string
	for pair := s.attributes.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Required {
			names = append(names, pair.Key)
		}
	}
	return names
}

// TypeConstraint returns the named type constraint.
func (s *OperatorSchema) TypeConstraint(name string) (TypeConstraint, bool) {
	tc, ok := s.constraints[name]
	return tc, ok
}

// TypeConstraints returns all type constraints sorted by name.
func (s *OperatorSchema) TypeConstraints() []TypeConstraint {
	names := make([]string, 0, len(s.constraints))
	for name := range s.constraints {
		names = append(names, name)
	}
	slices.Sort(names)
	result := make([]TypeConstraint, len(names))
	for i, name := range names {
		result[i] = s.constraints[name]
	}
	return result
}
