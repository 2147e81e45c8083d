// Package catalog provides operator definitions from an external operator catalog.
//
// A catalog document is YAML (or JSON, which is valid YAML) describing, per
// operator, its ordered input and output parameters, its attributes and its
// type-constraint table:
//
//	version: "1.0.0"
//	operators:
//	  - name: Relu
//	    inputs:  [{ name: X, type: T }]
//	    outputs: [{ name: Y, type: T }]
//	    type_constraints:
//	      - { name: T, types: [tensor(float), tensor(double)] }
//
// Documents are structurally validated against an embedded JSON Schema before
// decoding. Per-operator semantic checks (unsupported attribute types, unknown
// data types) are left to the schema package so that one bad operator never
// rejects the whole document.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"go.yaml.in/yaml/v3"
)

// SupportedVersions is the semver constraint a catalog document version must satisfy.
const SupportedVersions = "^1.0"

// ErrUnsupportedVersion is returned for catalog documents outside SupportedVersions.
var ErrUnsupportedVersion = errors.New("unsupported catalog version")

// Parameter kinds as spelled in catalog documents.
const (
	KindSingle   = "single"
	KindOptional = "optional"
	KindVariadic = "variadic"
)

// Definition is one operator as yielded by a catalog.
type Definition struct {
	Name            string              `yaml:"name"`
	Domain          string              `yaml:"domain"`
	SinceVersion    int                 `yaml:"since_version"`
	Doc             string              `yaml:"doc"`
	Inputs          []ParameterDef      `yaml:"inputs"`
	Outputs         []ParameterDef      `yaml:"outputs"`
	Attributes      []AttributeDef      `yaml:"attributes"`
	TypeConstraints []TypeConstraintDef `yaml:"type_constraints"`
}

// ParameterDef describes one formal input or output.
type ParameterDef struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // single (default), optional or variadic
	// Type is a type-constraint name or a concrete type string such as "tensor(int64)".
	Type string `yaml:"type"`
	// Homogeneous defaults to true when absent. Only meaningful for variadic parameters.
	Homogeneous *bool  `yaml:"homogeneous"`
	Doc         string `yaml:"doc"`
}

// IsHomogeneous reports the homogeneous flag, defaulting to true.
func (p ParameterDef) IsHomogeneous() bool {
	return p.Homogeneous == nil || *p.Homogeneous
}

// AttributeDef describes one operator attribute.
type AttributeDef struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"` // INT, FLOAT, STRING, TENSOR, INTS, FLOATS, STRINGS, GRAPH, ...
	Required bool   `yaml:"required"`
	Default  any    `yaml:"default"`
	Doc      string `yaml:"doc"`
}

// TypeConstraintDef names a set of admissible type strings.
type TypeConstraintDef struct {
	Name  string   `yaml:"name"`
	Types []string `yaml:"types"`
	Doc   string   `yaml:"doc"`
}

// Source yields operator definitions.
type Source interface {
	Definitions() ([]Definition, error)
}

// Catalog is a parsed catalog document.
type Catalog struct {
	Version   string       `yaml:"version"`
	Domain    string       `yaml:"domain"`
	Operators []Definition `yaml:"operators"`
}

// Definitions returns the operators of the catalog. Operators without an
// explicit domain inherit the document domain.
func (c *Catalog) Definitions() ([]Definition, error) {
	defs := make([]Definition, len(c.Operators))
	for i, d := range c.Operators {
		if d.Domain == "" {
			d.Domain = c.Domain
		}
		defs[i] = d
	}
	return defs, nil
}

// Sources concatenates the definitions of several sources in order.
type Sources []Source

// Definitions implements Source.
func (s Sources) Definitions() ([]Definition, error) {
	var all []Definition
	for _, src := range s {
		defs, err := src.Definitions()
		if err != nil {
			return nil, err
		}
		all = append(all, defs...)
	}
	return all, nil
}

// ParseFile parses a catalog document from file.
func ParseFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Catalog path is provided by the user.
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse validates and decodes a catalog document.
func Parse(data []byte) (*Catalog, error) {
	if err := validateDocument(data); err != nil {
		return nil, err
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	if err := checkVersion(c.Version); err != nil {
		return nil, err
	}
	return &c, nil
}

func checkVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrUnsupportedVersion, version, err)
	}
	constraint, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return fmt.Errorf("parsing version constraint: %w", err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrUnsupportedVersion, v, SupportedVersions)
	}
	return nil
}
