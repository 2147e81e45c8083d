package schema

import (
	"testing"

	"github.com/born-ml/opgraph/internal/tensor"
)

func TestNewValue(t *testing.T) {
	v, err := NewValue(AttrInt, 3)
	if err != nil || v.Int != 3 {
		t.Fatalf("NewValue(INT, 3) = %v, %v", v, err)
	}

	v, err = NewValue(AttrFloat, 2)
	if err != nil || v.Float != 2 {
		t.Fatalf("NewValue(FLOAT, 2) = %v, %v", v, err)
	}

	v, err = NewValue(AttrInts, []any{1, 2, 3})
	if err != nil || len(v.Ints) != 3 || v.Ints[2] != 3 {
		t.Fatalf("NewValue(INTS) = %v, %v", v, err)
	}

	v, err = NewValue(AttrFloats, []float64{0.5, 1})
	if err != nil || len(v.Floats) != 2 || v.Floats[0] != 0.5 {
		t.Fatalf("NewValue(FLOATS) = %v, %v", v, err)
	}

	v, err = NewValue(AttrStrings, []string{"a", "b"})
	if err != nil || v.String() != "[a b]" {
		t.Fatalf("NewValue(STRINGS) = %v, %v", v, err)
	}
}

func TestNewValueRejectsMismatches(t *testing.T) {
	cases := []struct {
		typ AttributeType
		raw any
	}{
		{AttrInt, "3"},
		{AttrInt, 1.5},
		{AttrString, 3},
		{AttrInts, 3},
		{AttrInts, []any{1, "x"}},
		{AttrTensor, 3},
		{AttrUndefined, 1},
		{AttrInt, Value{Type: AttrFloat}},
	}
	for _, c := range cases {
		if _, err := NewValue(c.typ, c.raw); err == nil {
			t.Errorf("NewValue(%s, %#v) expected error", c.typ, c.raw)
		}
	}
}

func TestNewValueTensorFromMap(t *testing.T) {
	v, err := NewValue(AttrTensor, map[string]any{
		"dtype":  "float32",
		"dims":   []any{2},
		"values": []any{1.5, 2},
	})
	if err != nil {
		t.Fatalf("NewValue(TENSOR) error: %v", err)
	}
	if v.Tensor.DType != tensor.Float32 || len(v.Tensor.Floats) != 2 || v.Tensor.Dims[0] != 2 {
		t.Errorf("unexpected tensor %+v", v.Tensor)
	}

	if _, err := NewValue(AttrTensor, map[string]any{"dims": []any{1}}); err == nil {
		t.Error("expected error for tensor without dtype")
	}
}

func TestValueIsEmpty(t *testing.T) {
	if !(Value{}).IsEmpty() {
		t.Error("zero value should be empty")
	}
	if !(Value{Type: AttrInts}).IsEmpty() {
		t.Error("empty list should be empty")
	}
	if (Value{Type: AttrInt}).IsEmpty() {
		t.Error("INT 0 is a configured value")
	}
	if !(Value{Type: AttrTensor}).IsEmpty() {
		t.Error("nil tensor should be empty")
	}
}
