package schema

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/born-ml/opgraph/internal/onnx/catalog"
)

// ErrSealed is returned when a sealed registry is asked to import more operators.
var ErrSealed = errors.New("schema registry is sealed")

// Lookup resolves operator schemas by name.
type Lookup interface {
	Lookup(name string) (*OperatorSchema, bool)
}

// Skipped records an operator the registry could not import.
type Skipped struct {
	Op  string
	Err error
}

// Registry builds and stores operator schemas.
//
// A registry is populated during startup with ImportAll, then sealed. After
// Seal it is read-only and safe for concurrent lookups.
type Registry struct {
	logger  *zap.Logger
	schemas map[string]*OperatorSchema
	skipped []Skipped
	sealed  bool
}

// NewRegistry creates an empty registry. A nil logger discards diagnostics.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger:  logger.Named("schema"),
		schemas: make(map[string]*OperatorSchema),
	}
}

// ImportAll translates every definition of src into a schema.
//
// A definition that fails to translate is logged, recorded in Skipped, and
// skipped on its own; it never aborts the import. The returned error is only
// for a source that cannot produce definitions or a sealed registry.
// When two definitions share a name, the one with the higher or equal
// since_version wins.
func (r *Registry) ImportAll(src catalog.Source) (int, error) {
	if r.sealed {
		return 0, ErrSealed
	}

	defs, err := src.Definitions()
	if err != nil {
		return 0, fmt.Errorf("reading operator catalog: %w", err)
	}

	imported := 0
	for _, def := range defs {
		s, dropped, err := translate(def)
		if err != nil {
			r.logger.Debug("import of operator failed",
				zap.String("op", def.Name),
				zap.Error(err))
			r.skipped = append(r.skipped, Skipped{Op: def.Name, Err: err})
			continue
		}
		for _, name := range dropped {
			r.logger.Debug("dropped attribute with unsupported type",
				zap.String("op", def.Name),
				zap.String("attribute", name))
		}

		if prev, ok := r.schemas[s.name]; ok && prev.sinceVersion > s.sinceVersion {
			r.logger.Debug("keeping newer operator definition",
				zap.String("op", s.name),
				zap.Int("kept", prev.sinceVersion),
				zap.Int("ignored", s.sinceVersion))
			continue
		}
		r.schemas[s.name] = s
		imported++
	}

	r.logger.Info("imported operator catalog",
		zap.Int("imported", imported),
		zap.Int("skipped", len(defs)-imported))
	return imported, nil
}

// Seal ends the initialization phase.
func (r *Registry) Seal() {
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	return r.sealed
}

// Lookup returns the schema for an operator name. Absence is not an error.
func (r *Registry) Lookup(name string) (*OperatorSchema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// Names returns all registered operator names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	return len(r.schemas)
}

// Skipped returns the operators that failed to import, in import order.
func (r *Registry) Skipped() []Skipped {
	return slices.Clone(r.skipped)
}

// Suggest returns the registered name closest to name by edit distance.
// It reports false when nothing is reasonably close.
func (r *Registry) Suggest(name string) (string, bool) {
	best := ""
	score := math.MaxInt
	for _, candidate := range r.Names() {
		if d := levenshtein.ComputeDistance(name, candidate); d < score {
			score = d
			best = candidate
		}
	}
	if best == "" || score > max(2, len(name)/3) {
		return "", false
	}
	return best, true
}
