package tensor

import (
	"fmt"

	"github.com/x448/float16"

	"github.com/born-ml/tt/internal/bfloat16"
	"github.com/born-ml/tt/internal/storage"
)

// Zeros creates a zero-filled row-major tensor.
func Zeros[T Element](e Extents) SharedTensor[T, RowMajorMapping] {
	return NewShared(storage.Make[T](int(e.Size())), NewRowMajor(e))
}

// Full creates a row-major tensor with every element set to value.
func Full[T Element](e Extents, value T) SharedTensor[T, RowMajorMapping] {
	return NewShared(storage.MakeFilled(int(e.Size()), value), NewRowMajor(e))
}

// Arange creates a row-major tensor over e holding start, start+1, ... in
// row-major order. Values are converted with FromFloat64, so half-precision
// types round to nearest even.
//
// Example:
//
//	t := tensor.Arange[bfloat16.BFloat16](tensor.Dims(3, 5, 7), 1) // 1..105
func Arange[T Element](e Extents, start float64) SharedTensor[T, RowMajorMapping] {
	buf := storage.MakeForOverwrite[T](int(e.Size()))
	data := buf.Slice()
	for i := range data {
		data[i] = FromFloat64[T](start + float64(i))
	}
	return NewShared(buf, NewRowMajor(e))
}

// Eye creates an n x n identity matrix.
func Eye[T Element](n Index) SharedTensor[T, RowMajorMapping] {
	t := Zeros[T](Dims(n, n))
	one := FromFloat64[T](1)
	for i := Index(0); i < n; i++ {
		t.Set(one, i, i)
	}
	return t
}

// FromFloat64 converts v to T. Booleans are true for any non-zero v.
//
//nolint:gocyclo,cyclop // One case per supported element type.
func FromFloat64[T Element](v float64) T {
	var out T
	switch p := any(&out).(type) {
	case *float32:
		*p = float32(v)
	case *float64:
		*p = v
	case *bfloat16.BFloat16:
		*p = bfloat16.FromFloat64(v)
	case *float16.Float16:
		*p = float16.Fromfloat32(float32(v))
	case *uint8:
		*p = uint8(v)
	case *int8:
		*p = int8(v)
	case *int16:
		*p = int16(v)
	case *int32:
		*p = int32(v)
	case *int64:
		*p = int64(v)
	case *bool:
		*p = v != 0
	case *complex64:
		*p = complex(float32(v), 0)
	case *complex128:
		*p = complex(v, 0)
	default:
		panic(fmt.Sprintf("unsupported element type %T", out))
	}
	return out
}
