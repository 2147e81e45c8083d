package operators

import (
	"errors"
	"maps"
	"slices"

	"github.com/born-ml/opgraph/internal/graph"
	"github.com/born-ml/opgraph/internal/onnx/schema"
	"github.com/born-ml/opgraph/internal/tensor"
)

// Validate checks the edges bound to n in src and its attribute values
// against the schema. It returns nil or ValidationErrors.
//
// Structural checks run first, in this order: edges without a connector,
// connectors that name no parameter, missing required parameters (and
// inputs bound twice), variadic index sets, and connector form against
// parameter kind. Every structural failure is collected. Type constraints
// are solved only for structurally valid nodes and report the first
// failure. Required attributes are always checked.
//
// Validate never modifies the node or the graph.
func (n *Node) Validate(src EdgeSource) error {
	v := &validator{node: n, schema: n.Schema()}
	v.structure(schema.Input, src.InEdges(n))
	v.structure(schema.Output, src.OutEdges(n))

	errs := v.structural()
	if len(errs) == 0 {
		if err := v.solveTypes(src); err != nil {
			errs = append(errs, err)
		}
	}
	if err := v.attributes(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

type validator struct {
	node   *Node
	schema *schema.OperatorSchema

	unconnected []*Error
	unexpected  []*Error
	missing     []*Error
	duplicates  []*Error
	variadic    []*Error
	wrongKind   []*Error
}

// structural returns the structural failures in check order.
func (v *validator) structural() ValidationErrors {
	var errs ValidationErrors
	for _, bucket := range [][]*Error{v.unconnected, v.unexpected, v.missing, v.duplicates, v.variadic, v.wrongKind} {
		errs = append(errs, bucket...)
	}
	return errs
}

func (v *validator) newError(kind ErrorKind, dir schema.Direction) *Error {
	return &Error{Kind: kind, Op: v.schema.Name(), Node: v.node.name, Direction: dir}
}

func (v *validator) structure(dir schema.Direction, edges []*graph.Edge) {
	bound := make(map[string]int)
	// Occurrence index per variadic binding. Inputs count every edge,
	// outputs count every connector since one output may fan out.
	var indices []int
	var occurrences []string
	seenConn := make(map[string]bool)

	for _, e := range edges {
		conn := connector(e, dir)
		if conn == "" {
			v.unconnected = append(v.unconnected, v.newError(UnconnectedConnector, dir))
			continue
		}

		base, index, suffixed := parseConnector(conn)
		pos, p := v.schema.Parameter(dir, base)
		if pos < 0 {
			err := v.newError(UnexpectedParameter, dir)
			err.Connector = conn
			err.Suggestion = suggest(base, paramNames(v.schema, dir))
			v.unexpected = append(v.unexpected, err)
			continue
		}

		if suffixed != (p.Kind == schema.Variadic) {
			err := v.newError(WrongParameterKind, dir)
			err.Param = p.Name
			err.Connector = conn
			v.wrongKind = append(v.wrongKind, err)
			continue
		}

		if !suffixed {
			bound[p.Name]++
			continue
		}
		if dir == schema.Output && seenConn[conn] {
			continue
		}
		seenConn[conn] = true
		indices = append(indices, index)
		occurrences = append(occurrences, conn)
	}

	var missing []string
	for _, p := range v.schema.Parameters(dir) {
		switch {
		case p.Kind == schema.Single && bound[p.Name] == 0:
			missing = append(missing, p.Name)
		case dir == schema.Input && bound[p.Name] > 1:
			err := v.newError(DuplicateConnector, dir)
			err.Param = p.Name
			err.Connector = p.Name
			v.duplicates = append(v.duplicates, err)
		}
	}
	if len(missing) > 0 {
		err := v.newError(MissingRequiredParameter, dir)
		err.Names = missing
		v.missing = append(v.missing, err)
	}

	if len(indices) > 0 {
		vp, _ := v.schema.Variadic(dir)
		v.checkIndices(dir, vp.Name, indices, occurrences)
	}
}

// checkIndices requires the occurrence indices to be exactly {0, ..., n-1}.
func (v *validator) checkIndices(dir schema.Direction, param string, indices []int, conns []string) {
	seen := make(map[int]bool, len(indices))
	reported := make(map[int]bool)
	for _, i := range indices {
		if seen[i] && !reported[i] {
			err := v.newError(DuplicateVariadicIndex, dir)
			err.Param = param
			err.Index = i
			v.variadic = append(v.variadic, err)
			reported[i] = true
		}
		seen[i] = true
	}

	distinct := slices.Sorted(maps.Keys(seen))
	for want, got := range distinct {
		if want != got {
			err := v.newError(NonContiguousVariadicIndices, dir)
			err.Param = param
			err.Index = want
			err.Names = distinctConnectors(conns)
			v.variadic = append(v.variadic, err)
			return
		}
	}
}

func distinctConnectors(conns []string) []string {
	sorted := slices.Clone(conns)
	slices.SortFunc(sorted, func(a, b string) int {
		_, ia, _ := parseConnector(a)
		_, ib, _ := parseConnector(b)
		return ia - ib
	})
	return slices.CompactFunc(sorted, func(a, b string) bool {
		_, ia, _ := parseConnector(a)
		_, ib, _ := parseConnector(b)
		return ia == ib
	})
}

// solveTypes commits each type constraint to the type of the first edge,
// in canonical order, that binds it.
func (v *validator) solveTypes(src EdgeSource) *Error {
	edges, err := v.node.Edges(src)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return e
		}
		return &Error{Kind: Inconsistent, Op: v.schema.Name(), Node: v.node.name, Err: err}
	}

	committed := make(map[string]tensor.DataType)
	for e, isInput := range edges {
		dir := schema.Output
		if isInput {
			dir = schema.Input
		}
		conn := connector(e, dir)
		base, _, _ := parseConnector(conn)
		_, p := v.schema.Parameter(dir, base)

		tc, ok := v.schema.TypeConstraint(p.TypeStr)
		if !ok {
			err := v.newError(Inconsistent, dir)
			err.Param = p.Name
			err.Connector = conn
			return err
		}

		independent := p.Kind == schema.Variadic && !p.Homogeneous
		if want, ok := committed[p.TypeStr]; ok && !independent && want != e.Type {
			err := v.newError(TypeConflict, dir)
			err.Param = p.Name
			err.Connector = conn
			err.Expected = want
			err.Actual = e.Type
			return err
		}
		if !tc.Allows(e.Type) {
			err := v.newError(TypeNotAllowed, dir)
			err.Param = p.Name
			err.Connector = conn
			err.Actual = e.Type
			err.Allowed = tc.Types()
			return err
		}
		if !independent {
			if _, ok := committed[p.TypeStr]; !ok {
				committed[p.TypeStr] = e.Type
			}
		}
	}
	return nil
}

// attributes reports required attributes without a configured value.
func (v *validator) attributes() *Error {
	var missing []string
	for _, name := range v.schema.RequiredAttributes() {
		if val, ok := v.node.attrs[name]; !ok || val.IsEmpty() {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	err := v.newError(MissingRequiredAttribute, schema.Input)
	err.Names = missing
	return err
}
