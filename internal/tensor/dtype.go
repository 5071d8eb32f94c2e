// Package tensor provides shape-polymorphic tensor views over shared
// buffers: extents, layout mappings (row-major, strided, tiled), accessor
// policies (owning and weak) and the Tensor type that composes them.
package tensor

import (
	"fmt"
	"strings"

	"github.com/x448/float16"

	"github.com/born-ml/tt/internal/bfloat16"
)

// Element is the constraint for tensor element types.
type Element interface {
	~float32 | ~float64 | bfloat16.BFloat16 | float16.Float16 |
		~uint8 | ~int8 | ~int16 | ~int32 | ~int64 | ~bool |
		~complex64 | ~complex128
}

// DType is the runtime identity of an element type.
type DType int

// Supported element types.
const (
	Float32 DType = iota
	Float64
	BFloat16
	Uint8
	Int8
	Int16
	Int32
	Int64
	Bool
	Float16
	Complex64
	Complex128
)

var dtypeNames = [...]string{
	Float32:    "Float32",
	Float64:    "Float64",
	BFloat16:   "BFloat16",
	Uint8:      "UInt8",
	Int8:       "Int8",
	Int16:      "Int16",
	Int32:      "Int32",
	Int64:      "Int64",
	Bool:       "Bool",
	Float16:    "Float16",
	Complex64:  "Complex64",
	Complex128: "Complex128",
}

// DTypes lists every supported element type in declaration order.
func DTypes() []DType {
	out := make([]DType, len(dtypeNames))
	for i := range out {
		out[i] = DType(i)
	}
	return out
}

// Size returns the byte size of one element.
func (dt DType) Size() int {
	switch dt {
	case Uint8, Int8, Bool:
		return 1
	case BFloat16, Float16, Int16:
		return 2
	case Float32, Int32:
		return 4
	case Float64, Int64, Complex64:
		return 8
	case Complex128:
		return 16
	default:
		panic("unknown data type")
	}
}

// IsFloat reports whether the type is a real floating-point type.
func (dt DType) IsFloat() bool {
	switch dt {
	case Float32, Float64, BFloat16, Float16:
		return true
	default:
		return false
	}
}

// String returns the lower-case name, e.g. "bfloat16".
func (dt DType) String() string {
	if dt < 0 || int(dt) >= len(dtypeNames) {
		return "unknown"
	}
	return strings.ToLower(dtypeNames[dt])
}

// Name returns the registration name, e.g. "BFloat16".
func (dt DType) Name() string {
	if dt < 0 || int(dt) >= len(dtypeNames) {
		return "Unknown"
	}
	return dtypeNames[dt]
}

// ParseDType parses a dtype name case-insensitively ("bfloat16", "BFloat16", "bf16").
func ParseDType(s string) (DType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bf16":
		return BFloat16, nil
	case "f16", "half":
		return Float16, nil
	case "f32", "float":
		return Float32, nil
	case "f64", "double":
		return Float64, nil
	}
	for i, name := range dtypeNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return DType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown dtype %q", s)
}

// DTypeOf returns the DType of T. Panics for named types outside the
// predeclared set.
func DTypeOf[T Element]() DType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case bfloat16.BFloat16:
		return BFloat16
	case float16.Float16:
		return Float16
	case uint8:
		return Uint8
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case bool:
		return Bool
	case complex64:
		return Complex64
	case complex128:
		return Complex128
	default:
		panic(fmt.Sprintf("unsupported element type %T", zero))
	}
}

var rankNames = [...]string{
	"Scalar", "Vector", "Matrix",
	"Tensor3D", "Tensor4D", "Tensor5D", "Tensor6D", "Tensor7D", "Tensor8D",
}

// RankName returns the registration name for a rank, e.g. "Matrix" for 2.
func RankName(rank int) string {
	if rank < 0 || rank >= len(rankNames) {
		return fmt.Sprintf("Tensor%dD", rank)
	}
	return rankNames[rank]
}
