// Package safetensors reads and writes tensors in the SafeTensors format.
//
// Format:
//
//	[8 bytes: header_size (uint64 LE)]
//	[header_size bytes: JSON header]
//	[tensor data: raw little-endian bytes, row-major]
//
// Tensors in any layout are written in logical row-major order. The layout
// they were stored in is recorded in the header metadata under
// "tt.layout.<name>" so a reader can restore it.
package safetensors

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/born-ml/tt/internal/tensor"
)

// Common errors.
var (
	ErrHeaderTooLarge   = errors.New("header exceeds maximum size")
	ErrOutOfBounds      = errors.New("tensor extends beyond data section")
	ErrOffsetOverlap    = errors.New("tensor offsets overlap")
	ErrSizeMismatch     = errors.New("tensor byte size does not match its shape")
	ErrUnsupportedDType = errors.New("unsupported dtype")
	ErrDTypeMismatch    = errors.New("dtype mismatch")
	ErrNotFound         = errors.New("tensor not found")
	ErrDuplicate        = errors.New("duplicate tensor name")
)

// MaxHeaderSize bounds the JSON header.
const MaxHeaderSize = 100 * 1024 * 1024

const (
	metadataKey  = "__metadata__"
	layoutPrefix = "tt.layout."
)

// DType is a SafeTensors dtype string.
type DType string

// Supported SafeTensors dtypes.
const (
	F16  DType = "F16"
	BF16 DType = "BF16"
	F32  DType = "F32"
	F64  DType = "F64"
	U8   DType = "U8"
	I8   DType = "I8"
	I16  DType = "I16"
	I32  DType = "I32"
	I64  DType = "I64"
	Bool DType = "BOOL"
	C64  DType = "C64"
)

var fromTensorDType = map[tensor.DType]DType{
	tensor.Float16:   F16,
	tensor.BFloat16:  BF16,
	tensor.Float32:   F32,
	tensor.Float64:   F64,
	tensor.Uint8:     U8,
	tensor.Int8:      I8,
	tensor.Int16:     I16,
	tensor.Int32:     I32,
	tensor.Int64:     I64,
	tensor.Bool:      Bool,
	tensor.Complex64: C64,
}

// FromDType returns the SafeTensors name of dt.
func FromDType(dt tensor.DType) (DType, error) {
	d, ok := fromTensorDType[dt]
	if !ok {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedDType, dt)
	}
	return d, nil
}

// DType returns the element type d names.
func (d DType) DType() (tensor.DType, error) {
	for dt, name := range fromTensorDType {
		if name == d {
			return dt, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedDType, string(d))
}

// TensorInfo describes a tensor in the header.
type TensorInfo struct {
	DType       DType    `json:"dtype"`
	Shape       []uint64 `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"` // [start, end) relative to the data section
}

// Extents returns the tensor's shape.
func (i TensorInfo) Extents() tensor.Extents {
	sizes := make([]tensor.Index, len(i.Shape))
	for k, s := range i.Shape {
		sizes[k] = tensor.Index(s)
	}
	return tensor.Dims(sizes...)
}

// Header is the JSON header.
type Header struct {
	Metadata map[string]string
	Tensors  map[string]TensorInfo
}

// UnmarshalJSON separates the metadata entry from tensor entries.
func (h *Header) UnmarshalJSON(data []byte) error {
	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawMap); err != nil {
		return err
	}

	if metadataRaw, ok := rawMap[metadataKey]; ok {
		if err := json.Unmarshal(metadataRaw, &h.Metadata); err != nil {
			return fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	h.Tensors = make(map[string]TensorInfo, len(rawMap))
	for key, value := range rawMap {
		if key == metadataKey {
			continue
		}
		var info TensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return fmt.Errorf("failed to unmarshal tensor %s: %w", key, err)
		}
		h.Tensors[key] = info
	}
	return nil
}

// MarshalJSON writes metadata and tensors as one flat object.
func (h Header) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(h.Tensors)+1)
	if len(h.Metadata) > 0 {
		flat[metadataKey] = h.Metadata
	}
	for name, info := range h.Tensors {
		flat[name] = info
	}
	return json.Marshal(flat)
}
