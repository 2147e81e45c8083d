// Package loader builds dataflow graphs from graph description files.
//
// A description is YAML:
//
//	name: mlp
//	regions:
//	  - name: main
//	    nodes:
//	      - { name: x, kind: access }
//	      - { name: w, kind: access }
//	      - { name: h, kind: access }
//	      - { name: mm, op: MatMul }
//	    edges:
//	      - { src: x, dst: mm, dst_conn: A, type: float32 }
//	      - { src: w, dst: mm, dst_conn: B, type: float32 }
//	      - { src: mm, src_conn: Y, dst: h, type: float32 }
//
// Operator nodes are constructed through their node kind, so attribute
// errors surface at load time. Connector errors are left to validation.
//
// Files ending in .onnx are decoded as ONNX models and converted to a
// description first.
//
// Example:
//
//	l := loader.New(schemas)
//	g, err := l.LoadFile("mlp.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package loader

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/born-ml/opgraph/internal/graph"
	"github.com/born-ml/opgraph/internal/onnx/operators"
	"github.com/born-ml/opgraph/internal/onnx/schema"
	"github.com/born-ml/opgraph/internal/tensor"
)

// Node kinds as spelled in description files.
const (
	KindOperator = "op"
	KindAccess   = "access"
	KindTasklet  = "tasklet"
)

// Document is a parsed graph description.
type Document struct {
	Name    string        `yaml:"name,omitempty"`
	Opset   int64         `yaml:"opset,omitempty"` // Default domain opset of an imported model
	Regions []RegionEntry `yaml:"regions"`
}

// RegionEntry describes one region.
type RegionEntry struct {
	Name  string      `yaml:"name,omitempty"`
	Nodes []NodeEntry `yaml:"nodes"`
	Edges []EdgeEntry `yaml:"edges,omitempty"`
}

// NodeEntry describes one node. Kind defaults to op when Op is set and to
// access otherwise.
type NodeEntry struct {
	Name       string         `yaml:"name"`
	Kind       string         `yaml:"kind,omitempty"`
	Op         string         `yaml:"op,omitempty"`
	Attributes map[string]any `yaml:"attributes,omitempty"`
	Code       string         `yaml:"code,omitempty"`    // Tasklet body
	Inputs     []string       `yaml:"inputs,omitempty"`  // Tasklet input connectors
	Outputs    []string       `yaml:"outputs,omitempty"` // Tasklet output connectors
}

// EdgeEntry describes one edge. Data defaults to the name of the access
// node at either end.
type EdgeEntry struct {
	Src     string `yaml:"src"`
	SrcConn string `yaml:"src_conn,omitempty"`
	Dst     string `yaml:"dst"`
	DstConn string `yaml:"dst_conn,omitempty"`
	Data    string `yaml:"data,omitempty"`
	Type    string `yaml:"type,omitempty"`
}

// suggester is implemented by schema lookups that can propose close names.
type suggester interface {
	Suggest(name string) (string, bool)
}

// Loader turns descriptions into graphs.
type Loader struct {
	lookup  schema.Lookup
	factory *operators.Factory
}

// New creates a loader resolving operators through lookup.
func New(lookup schema.Lookup) *Loader {
	return &Loader{lookup: lookup, factory: operators.NewFactory(lookup)}
}

// LoadFile reads and builds a description file or an ONNX model file.
func (l *Loader) LoadFile(path string) (*graph.Graph, error) {
	doc, err := l.ConvertFile(path)
	if err != nil {
		return nil, err
	}
	g, err := l.Build(doc)
	if err != nil {
		return nil, fmt.Errorf("graph %s: %w", path, err)
	}
	return g, nil
}

// Load builds a graph from description data.
func (l *Loader) Load(data []byte) (*graph.Graph, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return l.Build(doc)
}

// Decode parses description data.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding graph: %w", err)
	}
	return &doc, nil
}

func readDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Graph path is provided by the user.
	if err != nil {
		return nil, fmt.Errorf("reading graph %s: %w", path, err)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("graph %s: %w", path, err)
	}
	return doc, nil
}

// Build builds a graph from a parsed description.
func (l *Loader) Build(doc *Document) (*graph.Graph, error) {
	g := graph.New(doc.Name)
	for i, re := range doc.Regions {
		name := re.Name
		if name == "" {
			name = fmt.Sprintf("region%d", i)
		}
		if _, dup := g.Region(name); dup {
			return nil, fmt.Errorf("duplicate region %q", name)
		}
		r := g.AddRegion(name)

		for _, ne := range re.Nodes {
			if err := l.addNode(r, ne); err != nil {
				return nil, fmt.Errorf("region %s: %w", name, err)
			}
		}
		for j, ee := range re.Edges {
			if err := addEdge(r, ee); err != nil {
				return nil, fmt.Errorf("region %s: edge %d: %w", name, j, err)
			}
		}
	}
	return g, nil
}

func (l *Loader) addNode(r *graph.Region, ne NodeEntry) error {
	if ne.Name == "" {
		return fmt.Errorf("node without name")
	}
	if _, dup := r.Node(ne.Name); dup {
		return fmt.Errorf("duplicate node %q", ne.Name)
	}

	kind := ne.Kind
	if kind == "" {
		kind = KindAccess
		if ne.Op != "" {
			kind = KindOperator
		}
	}

	switch kind {
	case KindAccess:
		r.AddNode(graph.NewAccess(ne.Name))
	case KindTasklet:
		r.AddNode(graph.NewTasklet(ne.Name, ne.Code, ne.Inputs, ne.Outputs))
	case KindOperator:
		nk, ok := l.factory.Kind(ne.Op)
		if !ok {
			return l.unknownOperator(ne.Name, ne.Op)
		}
		n, err := nk.New(ne.Name, ne.Attributes)
		if err != nil {
			return fmt.Errorf("node %s: %w", ne.Name, err)
		}
		r.AddNode(n)
	default:
		return fmt.Errorf("node %s: unknown kind %q", ne.Name, kind)
	}
	return nil
}

func (l *Loader) unknownOperator(node, op string) error {
	if s, ok := l.lookup.(suggester); ok {
		if hint, ok := s.Suggest(op); ok {
			return fmt.Errorf("node %s: unknown operator %q (did you mean %q?)", node, op, hint)
		}
	}
	return fmt.Errorf("node %s: unknown operator %q", node, op)
}

func addEdge(r *graph.Region, ee EdgeEntry) error {
	src, ok := r.Node(ee.Src)
	if !ok {
		return fmt.Errorf("unknown source node %q", ee.Src)
	}
	dst, ok := r.Node(ee.Dst)
	if !ok {
		return fmt.Errorf("unknown destination node %q", ee.Dst)
	}

	dt := tensor.Undefined
	if ee.Type != "" {
		var err error
		if dt, err = tensor.ParseDataType(ee.Type); err != nil {
			return err
		}
	}

	data := ee.Data
	if data == "" {
		switch {
		case src.Kind() == graph.KindAccess:
			data = src.Name()
		case dst.Kind() == graph.KindAccess:
			data = dst.Name()
		}
	}

	// Dynamic connectors that do not resolve are reported by validation.
	if n, ok := src.(*operators.Node); ok && ee.SrcConn != "" {
		_ = n.AddOutConnector(ee.SrcConn)
	}
	if n, ok := dst.(*operators.Node); ok && ee.DstConn != "" {
		_ = n.AddInConnector(ee.DstConn)
	}

	r.AddEdge(src, ee.SrcConn, dst, ee.DstConn, data, dt)
	return nil
}
