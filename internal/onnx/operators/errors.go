package operators

import (
	"fmt"
	"strings"

	"github.com/born-ml/opgraph/internal/onnx/schema"
	"github.com/born-ml/opgraph/internal/tensor"
)

// ErrorKind names a class of construction or validation failure.
// Every *Error unwraps to its kind, so callers can branch with errors.Is.
type ErrorKind string

func (k ErrorKind) Error() string {
	return string(k)
}

// Error kinds.
const (
	UnconnectedConnector         ErrorKind = "unconnected connector"
	UnexpectedParameter          ErrorKind = "unexpected parameter"
	MissingRequiredParameter     ErrorKind = "missing required parameter"
	DuplicateConnector           ErrorKind = "duplicate connector"
	DuplicateVariadicIndex       ErrorKind = "duplicate variadic index"
	NonContiguousVariadicIndices ErrorKind = "non-contiguous variadic indices"
	WrongParameterKind           ErrorKind = "wrong parameter kind"
	TypeConflict                 ErrorKind = "type conflict"
	TypeNotAllowed               ErrorKind = "type not allowed"
	MissingRequiredAttribute     ErrorKind = "missing required attribute"
	UnknownAttribute             ErrorKind = "unknown attribute"
	InvalidAttributeValue        ErrorKind = "invalid attribute value"

	// Inconsistent means the edges no longer match the schema in a way
	// validation would have rejected. Ordering a node that failed
	// validation can produce it.
	Inconsistent ErrorKind = "inconsistent connectors"
)

// Error is a structured construction or validation failure.
// Fields that do not apply to a kind are left zero.
type Error struct {
	Kind      ErrorKind
	Op        string // Operator name
	Node      string // Node label, empty during construction
	Direction schema.Direction
	Param     string // Parameter or attribute name
	Connector string // Offending connector name as written on the edge
	Names     []string
	Index     int
	Expected  tensor.DataType
	Actual    tensor.DataType
	Allowed   []tensor.DataType
	// Suggestion is the closest declared name for an unexpected connector or attribute.
	Suggestion string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Node != "" {
		fmt.Fprintf(&b, "node %s (%s): ", e.Node, e.Op)
	} else {
		fmt.Fprintf(&b, "%s: ", e.Op)
	}

	switch e.Kind {
	case UnconnectedConnector:
		fmt.Fprintf(&b, "%s edge has no connector", e.Direction)
	case UnexpectedParameter:
		fmt.Fprintf(&b, "unexpected %s connector '%s'", e.Direction, e.Connector)
	case MissingRequiredParameter:
		b.WriteString(missingMessage(e.Names, e.Direction.String()))
	case DuplicateConnector:
		fmt.Fprintf(&b, "%s '%s' is bound by more than one edge", e.Direction, e.Param)
	case DuplicateVariadicIndex:
		fmt.Fprintf(&b, "got two variadic %ss with index %d, expected at most one", e.Direction, e.Index)
	case NonContiguousVariadicIndices:
		fmt.Fprintf(&b, "since %d variadic %ss were passed, expected variadic %s with index %d",
			len(e.Names), e.Direction, e.Direction, e.Index)
	case WrongParameterKind:
		if e.Connector != e.Param {
			fmt.Fprintf(&b, "got variadic connector '%s' for non-variadic %s '%s'", e.Connector, e.Direction, e.Param)
		} else {
			fmt.Fprintf(&b, "expected variadic connector for variadic %s '%s', use '%s__i'", e.Direction, e.Param, e.Param)
		}
	case TypeConflict:
		fmt.Fprintf(&b, "could not solve type constraints; expected type '%s' for %s '%s', got type '%s'",
			e.Expected, e.Direction, e.Param, e.Actual)
	case TypeNotAllowed:
		fmt.Fprintf(&b, "expected type in %v for %s '%s', got type '%s'", e.Allowed, e.Direction, e.Param, e.Actual)
	case MissingRequiredAttribute:
		b.WriteString(missingMessage(e.Names, "attribute"))
	case UnknownAttribute:
		fmt.Fprintf(&b, "got an unexpected attribute '%s'", e.Param)
	case InvalidAttributeValue:
		fmt.Fprintf(&b, "attribute '%s': %v", e.Param, e.Err)
	case Inconsistent:
		fmt.Fprintf(&b, "found %d %s parameters for connector '%s', expected exactly one",
			e.Index, e.Direction, e.Connector)
	default:
		b.WriteString(string(e.Kind))
		if e.Err != nil {
			fmt.Fprintf(&b, ": %v", e.Err)
		}
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&b, " (did you mean '%s'?)", e.Suggestion)
	}
	return b.String()
}

// Unwrap returns the kind and, when present, the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// missingMessage formats "missing 2 required inputs: 'a', and 'b'".
func missingMessage(names []string, what string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}

	list := ""
	switch len(quoted) {
	case 0:
	case 1:
		list = quoted[0]
	default:
		list = strings.Join(quoted[:len(quoted)-1], ", ") + ", and " + quoted[len(quoted)-1]
	}

	plural := "s"
	if len(names) == 1 {
		plural = ""
	}
	return fmt.Sprintf("missing %d required %s%s: %s", len(names), what, plural, list)
}

// ValidationErrors is every failure found in one validation of a node.
type ValidationErrors []*Error

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i, e := range v {
		errs[i] = e
	}
	return errs
}

// Has reports whether any failure is of the given kind.
func (v ValidationErrors) Has(kind ErrorKind) bool {
	for _, e := range v {
		if e.Kind == kind {
			return true
		}
	}
	return false
}
