package schema

import (
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/born-ml/opgraph/internal/onnx/catalog"
	"github.com/born-ml/opgraph/internal/tensor"
)

// TranslationError reports why a catalog definition could not become a schema.
type TranslationError struct {
	Op  string
	Err error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("operator %s: %v", e.Op, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

// FromDefinition translates a catalog definition into an OperatorSchema.
//
// Optional attributes of an unsupported type are dropped from the schema;
// required ones make the translation fail.
func FromDefinition(def catalog.Definition) (*OperatorSchema, error) {
	s, _, err := translate(def)
	return s, err
}

// translate returns the schema and the names of dropped optional attributes.
func translate(def catalog.Definition) (*OperatorSchema, []string, error) {
	fail := func(err error) (*OperatorSchema, []string, error) {
		return nil, nil, &TranslationError{Op: def.Name, Err: err}
	}

	if def.Name == "" {
		return fail(errors.New("missing operator name"))
	}

	s := &OperatorSchema{
		name:         def.Name,
		domain:       def.Domain,
		sinceVersion: def.SinceVersion,
		doc:          def.Doc,
		attributes:   orderedmap.New[string, AttributeSpec](),
		constraints:  make(map[string]TypeConstraint, len(def.TypeConstraints)),
	}

	for _, tc := range def.TypeConstraints {
		if _, dup := s.constraints[tc.Name]; dup {
			return fail(fmt.Errorf("duplicate type constraint %q", tc.Name))
		}
		types := make([]tensor.DataType, 0, len(tc.Types))
		for _, typeStr := range tc.Types {
			dt, err := tensor.ParseDataType(typeStr)
			if err != nil {
				return fail(fmt.Errorf("type constraint %s: %w", tc.Name, err))
			}
			types = append(types, dt)
		}
		s.constraints[tc.Name] = NewTypeConstraint(tc.Name, types...)
	}

	var err error
	if s.inputs, err = translateParams(s, Input, def.Inputs); err != nil {
		return fail(err)
	}
	if s.outputs, err = translateParams(s, Output, def.Outputs); err != nil {
		return fail(err)
	}

	var dropped []string
	for _, ad := range def.Attributes {
		if _, dup := s.attributes.Get(ad.Name); dup {
			return fail(fmt.Errorf("duplicate attribute %q", ad.Name))
		}
		attrType, err := ParseAttributeType(ad.Type)
		if errors.Is(err, ErrUnsupportedAttributeType) && !ad.Required {
			dropped = append(dropped, ad.Name)
			continue
		}
		if err != nil {
			return fail(fmt.Errorf("attribute %s: %w", ad.Name, err))
		}

		spec := AttributeSpec{
			Name:     ad.Name,
			Type:     attrType,
			Required: ad.Required,
			Doc:      ad.Doc,
		}
		if ad.Default != nil {
			v, err := NewValue(attrType, ad.Default)
			if err != nil {
				return fail(fmt.Errorf("attribute %s default: %w", ad.Name, err))
			}
			spec.Default = &v
		}
		s.attributes.Set(ad.Name, spec)
	}

	return s, dropped, nil
}

// translateParams converts one parameter list and enforces its invariants.
// Concrete type strings used in place of a constraint name get a
// single-type constraint of that name.
func translateParams(s *OperatorSchema, dir Direction, defs []catalog.ParameterDef) ([]ParameterSpec, error) {
	params := make([]ParameterSpec, 0, len(defs))
	seen := make(map[string]bool, len(defs))

	for i, pd := range defs {
		if seen[pd.Name] {
			return nil, fmt.Errorf("duplicate %s parameter %q", dir, pd.Name)
		}
		seen[pd.Name] = true

		kind, err := parseKind(pd.Kind)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", dir, pd.Name, err)
		}
		if kind == Variadic && i != len(defs)-1 {
			return nil, fmt.Errorf("variadic %s %s must be the last parameter", dir, pd.Name)
		}

		if _, ok := s.constraints[pd.Type]; !ok {
			dt, err := tensor.ParseDataType(pd.Type)
			if err != nil {
				return nil, fmt.Errorf("%s %s references undefined type constraint %q", dir, pd.Name, pd.Type)
			}
			s.constraints[pd.Type] = NewTypeConstraint(pd.Type, dt)
		}

		params = append(params, ParameterSpec{
			Name:        pd.Name,
			Kind:        kind,
			TypeStr:     pd.Type,
			Homogeneous: pd.IsHomogeneous(),
			Doc:         pd.Doc,
		})
	}
	return params, nil
}

func parseKind(s string) (ParameterKind, error) {
	switch s {
	case "", catalog.KindSingle:
		return Single, nil
	case catalog.KindOptional:
		return Optional, nil
	case catalog.KindVariadic:
		return Variadic, nil
	default:
		return 0, fmt.Errorf("unknown parameter kind %q", s)
	}
}
