package model

import "fmt"

// ModelProto is a decoded ONNX model.
type ModelProto struct {
	IRVersion       int64
	OpsetImport     []OperatorSetID
	ProducerName    string
	ProducerVersion string
	Domain          string
	ModelVersion    int64
	DocString       string
	Graph           *GraphProto
	MetadataProps   map[string]string
}

// Opset returns the imported opset version of domain. The default domain
// may be given as "" or "ai.onnx".
func (m *ModelProto) Opset(domain string) (int64, bool) {
	for _, o := range m.OpsetImport {
		if o.Domain == domain || (isDefaultDomain(o.Domain) && isDefaultDomain(domain)) {
			return o.Version, true
		}
	}
	return 0, false
}

func isDefaultDomain(d string) bool {
	return d == "" || d == "ai.onnx"
}

// OperatorSetID is one opset import.
type OperatorSetID struct {
	Domain  string
	Version int64
}

// GraphProto is a computation graph.
type GraphProto struct {
	Name         string
	Nodes        []NodeProto
	Initializers []TensorProto
	Inputs       []ValueInfoProto
	Outputs      []ValueInfoProto
	ValueInfo    []ValueInfoProto // Types of intermediate values
	DocString    string
}

// NodeProto is one operator application. Empty input names mark omitted
// optional inputs.
type NodeProto struct {
	Name       string
	OpType     string
	Domain     string
	Inputs     []string
	Outputs    []string
	Attributes []AttributeProto
	DocString  string
}

// ValueInfoProto describes a value. ElemType is TensorProtoUndefined for
// values without a tensor type.
type ValueInfoProto struct {
	Name      string
	ElemType  int32
	Shape     []Dimension
	DocString string
}

// Dimension is a static size or a symbolic name.
type Dimension struct {
	Value int64
	Param string
}

// TensorProto is a constant tensor.
type TensorProto struct {
	Name       string
	DataType   int32
	Dims       []int64
	FloatData  []float32
	Int32Data  []int32
	StringData [][]byte
	Int64Data  []int64
	RawData    []byte
	DoubleData []float64
	Uint64Data []uint64
	DocString  string
}

// AttributeType is the ONNX AttributeProto.AttributeType code.
type AttributeType int32

// Attribute types.
const (
	AttributeUndefined     AttributeType = 0
	AttributeFloat         AttributeType = 1
	AttributeInt           AttributeType = 2
	AttributeString        AttributeType = 3
	AttributeTensor        AttributeType = 4
	AttributeGraph         AttributeType = 5
	AttributeFloats        AttributeType = 6
	AttributeInts          AttributeType = 7
	AttributeStrings       AttributeType = 8
	AttributeTensors       AttributeType = 9
	AttributeGraphs        AttributeType = 10
	AttributeSparseTensor  AttributeType = 11
	AttributeSparseTensors AttributeType = 12
	AttributeTypeProto     AttributeType = 13
	AttributeTypeProtos    AttributeType = 14
)

var attributeTypeNames = [...]string{
	"UNDEFINED", "FLOAT", "INT", "STRING", "TENSOR", "GRAPH", "FLOATS", "INTS",
	"STRINGS", "TENSORS", "GRAPHS", "SPARSE_TENSOR", "SPARSE_TENSORS",
	"TYPE_PROTO", "TYPE_PROTOS",
}

func (t AttributeType) String() string {
	if t >= 0 && int(t) < len(attributeTypeNames) {
		return attributeTypeNames[t]
	}
	return fmt.Sprintf("AttributeType(%d)", int32(t))
}

// AttributeProto is one node attribute. Only the field selected by Type
// is meaningful.
type AttributeProto struct {
	Name      string
	Type      AttributeType
	F         float32
	I         int64
	S         []byte
	T         *TensorProto
	G         *GraphProto
	Floats    []float32
	Ints      []int64
	Strings   [][]byte
	Tensors   []TensorProto
	Graphs    []GraphProto
	DocString string
}
