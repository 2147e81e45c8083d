package operators

import (
	"maps"
	"slices"
	"sync"

	"github.com/agnivade/levenshtein"

	"github.com/born-ml/opgraph/internal/graph"
	"github.com/born-ml/opgraph/internal/onnx/schema"
)

// KindPrefix prefixes the graph.Kind tag of every operator node kind.
const KindPrefix = "ONNX"

// NodeKind is the node-kind descriptor of one operator schema.
type NodeKind struct {
	schema *schema.OperatorSchema
	tag    graph.Kind
}

// NewKind returns the descriptor for s.
func NewKind(s *schema.OperatorSchema) *NodeKind {
	return &NodeKind{schema: s, tag: graph.Kind(KindPrefix + s.Name())}
}

// Tag returns the graph.Kind shared by all nodes of this kind, e.g. "ONNXRelu".
func (k *NodeKind) Tag() graph.Kind { return k.tag }

// Schema returns the operator schema the kind is parameterized by.
func (k *NodeKind) Schema() *schema.OperatorSchema { return k.schema }

// New constructs a node labeled name with the given attribute values.
//
// Values are converted with schema.NewValue. A nil value counts as absent.
// Construction fails with MissingRequiredAttribute listing every required
// attribute without a value, UnknownAttribute for the first unrecognized
// key in sorted order, or InvalidAttributeValue.
func (k *NodeKind) New(name string, attrs map[string]any) (*Node, error) {
	s := k.schema

	var missing []string
	for _, req := range s.RequiredAttributes() {
		spec, _ := s.Attribute(req)
		if isAbsent(spec, attrs[req]) {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, &Error{Kind: MissingRequiredAttribute, Op: s.Name(), Names: missing}
	}

	n := &Node{
		name:  name,
		kind:  k,
		attrs: make(map[string]schema.Value, len(attrs)),
	}
	for _, key := range slices.Sorted(maps.Keys(attrs)) {
		if err := n.setAttribute(key, attrs[key]); err != nil {
			return nil, err
		}
	}

	// Dynamic connectors are added by the graph builder.
	for _, p := range s.Inputs() {
		if p.Kind == schema.Single {
			n.in = append(n.in, p.Name)
		}
	}
	for _, p := range s.Outputs() {
		if p.Kind == schema.Single {
			n.out = append(n.out, p.Name)
		}
	}
	return n, nil
}

// isAbsent reports whether raw configures nothing. Values that fail to
// convert are not absent, they are rejected later as invalid.
func isAbsent(spec schema.AttributeSpec, raw any) bool {
	if raw == nil {
		return true
	}
	v, err := schema.NewValue(spec.Type, raw)
	return err == nil && v.IsEmpty()
}

// Construct builds a node of the schema's kind. It is shorthand for
// NewKind(s).New(name, attrs).
func Construct(s *schema.OperatorSchema, name string, attrs map[string]any) (*Node, error) {
	return NewKind(s).New(name, attrs)
}

// Factory hands out one NodeKind per operator of a schema lookup.
// It is safe for concurrent use.
type Factory struct {
	lookup schema.Lookup

	mu    sync.Mutex
	kinds map[string]*NodeKind
}

// NewFactory creates a factory over lookup.
func NewFactory(lookup schema.Lookup) *Factory {
	return &Factory{lookup: lookup, kinds: make(map[string]*NodeKind)}
}

// Kind returns the descriptor for the named operator.
func (f *Factory) Kind(op string) (*NodeKind, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if k, ok := f.kinds[op]; ok {
		return k, true
	}
	s, ok := f.lookup.Lookup(op)
	if !ok {
		return nil, false
	}
	k := NewKind(s)
	f.kinds[op] = k
	return k, true
}

// suggest returns the candidate closest to name, if reasonably close.
func suggest(name string, candidates []string) string {
	best := ""
	score := max(2, len(name)/3) + 1
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(name, c); d < score {
			score = d
			best = c
		}
	}
	return best
}
