package model

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"

	"github.com/born-ml/opgraph/internal/tensor"
)

// Type returns the element type of t.
func (t *TensorProto) Type() (tensor.DataType, error) {
	return tensor.FromONNX(t.DataType)
}

// NumElements returns the element count implied by Dims. A tensor without
// dims is a scalar.
func (t *TensorProto) NumElements() int64 {
	n := int64(1)
	for _, d := range t.Dims {
		n *= d
	}
	return n
}

// Floats returns the values of a floating point tensor.
func (t *TensorProto) Floats() ([]float64, error) {
	dt, err := t.Type()
	if err != nil {
		return nil, err
	}
	if !dt.IsFloat() {
		return nil, fmt.Errorf("tensor %s: %s is not a floating point type", t.Name, dt)
	}

	var values []float64
	switch {
	case t.RawData != nil:
		values, err = rawDecode(t, dt, func(b []byte) float64 {
			switch dt {
			case tensor.Float16:
				return float64(float16.Frombits(binary.LittleEndian.Uint16(b)).Float32())
			case tensor.BFloat16:
				return float64(math.Float32frombits(uint32(binary.LittleEndian.Uint16(b)) << 16))
			case tensor.Float32:
				return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
			default:
				return math.Float64frombits(binary.LittleEndian.Uint64(b))
			}
		})
		if err != nil {
			return nil, err
		}
	case dt == tensor.Float32:
		values = convert(t.FloatData, func(v float32) float64 { return float64(v) })
	case dt == tensor.Float64:
		values = t.DoubleData
	case dt == tensor.Float16:
		// Half precision bits are stored in the low 16 bits of int32_data.
		values = convert(t.Int32Data, func(v int32) float64 {
			return float64(float16.Frombits(uint16(v)).Float32()) //nolint:gosec // Low 16 bits.
		})
	default:
		values = convert(t.Int32Data, func(v int32) float64 {
			return float64(math.Float32frombits(uint32(v) << 16)) //nolint:gosec // Low 16 bits.
		})
	}
	return values, t.checkCount(len(values))
}

// Ints returns the values of an integer or bool tensor.
func (t *TensorProto) Ints() ([]int64, error) {
	dt, err := t.Type()
	if err != nil {
		return nil, err
	}
	if dt.IsFloat() || dt == tensor.String {
		return nil, fmt.Errorf("tensor %s: %s is not an integer type", t.Name, dt)
	}

	var values []int64
	switch {
	case t.RawData != nil:
		values, err = rawDecode(t, dt, func(b []byte) int64 {
			switch dt {
			case tensor.Int8:
				return int64(int8(b[0]))
			case tensor.Uint8, tensor.Bool:
				return int64(b[0])
			case tensor.Int16:
				return int64(int16(binary.LittleEndian.Uint16(b))) //nolint:gosec // Two's complement.
			case tensor.Uint16:
				return int64(binary.LittleEndian.Uint16(b))
			case tensor.Int32:
				return int64(int32(binary.LittleEndian.Uint32(b))) //nolint:gosec // Two's complement.
			case tensor.Uint32:
				return int64(binary.LittleEndian.Uint32(b))
			default:
				return int64(binary.LittleEndian.Uint64(b)) //nolint:gosec // Two's complement.
			}
		})
		if err != nil {
			return nil, err
		}
	case dt == tensor.Int64:
		values = t.Int64Data
	case dt == tensor.Uint32 || dt == tensor.Uint64:
		values = convert(t.Uint64Data, func(v uint64) int64 { return int64(v) }) //nolint:gosec // Two's complement.
	default:
		values = convert(t.Int32Data, func(v int32) int64 { return int64(v) })
	}
	return values, t.checkCount(len(values))
}

func rawCount(t *TensorProto, size int) (int, error) {
	if size == 0 || len(t.RawData)%size != 0 {
		return 0, fmt.Errorf("tensor %s: raw data of %d bytes is not a multiple of %d", t.Name, len(t.RawData), size)
	}
	return len(t.RawData) / size, nil
}

func rawDecode[E any](t *TensorProto, dt tensor.DataType, decode func([]byte) E) ([]E, error) {
	size := dt.Size()
	n, err := rawCount(t, size)
	if err != nil {
		return nil, err
	}
	values := make([]E, n)
	for i := range values {
		values[i] = decode(t.RawData[i*size:])
	}
	return values, nil
}

func (t *TensorProto) checkCount(got int) error {
	if want := t.NumElements(); int64(got) != want {
		return fmt.Errorf("tensor %s: got %d values, dims %v need %d", t.Name, got, t.Dims, want)
	}
	return nil
}

func convert[S, D any](s []S, f func(S) D) []D {
	d := make([]D, len(s))
	for i, v := range s {
		d[i] = f(v)
	}
	return d
}
