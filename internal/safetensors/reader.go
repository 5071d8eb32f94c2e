package safetensors

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math/bits"
	"os"
	"sort"

	"github.com/x448/float16"

	"github.com/born-ml/tt/internal/bfloat16"
	"github.com/born-ml/tt/internal/storage"
	"github.com/born-ml/tt/internal/tensor"
)

// File is a parsed SafeTensors file. Tensor data is read on demand.
type File struct {
	header     Header
	data       io.ReaderAt
	dataOffset int64
	dataSize   int64
}

// Open parses the header of a SafeTensors file of the given total size and
// validates every tensor entry against it.
func Open(r io.ReaderAt, size int64) (*File, error) {
	var sizeBuf [8]byte
	if _, err := r.ReadAt(sizeBuf[:], 0); err != nil {
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	headerSize := binary.LittleEndian.Uint64(sizeBuf[:])
	if headerSize > MaxHeaderSize || int64(headerSize) > size-8 {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := r.ReadAt(headerBytes, 8); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	f := &File{
		header:     header,
		data:       r,
		dataOffset: 8 + int64(headerSize),
		dataSize:   size - 8 - int64(headerSize),
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// ReadFile loads and parses the file at path.
func ReadFile(path string) (*File, error) {
	//nolint:gosec // G304: path is chosen by the caller.
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return Open(bytes.NewReader(b), int64(len(b)))
}

// validate checks dtypes, sizes, bounds and overlap of every entry.
func (f *File) validate() error {
	type span struct {
		name       string
		start, end int64
	}
	spans := make([]span, 0, len(f.header.Tensors))

	for name, info := range f.header.Tensors {
		dt, err := info.DType.DType()
		if err != nil {
			return fmt.Errorf("tensor %s: %w", name, err)
		}
		start, end := info.DataOffsets[0], info.DataOffsets[1]
		if start < 0 || end < start || end > f.dataSize {
			return fmt.Errorf("%w: tensor %s [%d, %d) of %d", ErrOutOfBounds, name, start, end, f.dataSize)
		}
		want, ok := byteSize(info.Shape, uint64(dt.Size()))
		if !ok {
			return fmt.Errorf("%w: tensor %s shape %v overflows", ErrSizeMismatch, name, info.Shape)
		}
		if uint64(end-start) != want {
			return fmt.Errorf("%w: tensor %s has %d bytes, shape %v needs %d", ErrSizeMismatch, name, end-start, info.Shape, want)
		}
		if len(info.Shape) > tensor.MaxRank {
			return fmt.Errorf("tensor %s: rank %d exceeds %d", name, len(info.Shape), tensor.MaxRank)
		}
		spans = append(spans, span{name, start, end})
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	for i := 1; i < len(spans); i++ {
		if spans[i].start < spans[i-1].end {
			return fmt.Errorf("%w: %s and %s", ErrOffsetOverlap, spans[i-1].name, spans[i].name)
		}
	}
	return nil
}

// byteSize returns the product of shape and elemSize, or false if it
// does not fit in 64 bits.
func byteSize(shape []uint64, elemSize uint64) (uint64, bool) {
	n := elemSize
	for _, s := range shape {
		hi, lo := bits.Mul64(n, s)
		if hi != 0 {
			return 0, false
		}
		n = lo
	}
	return n, true
}

// Metadata returns the free-form header metadata.
func (f *File) Metadata() map[string]string {
	return f.header.Metadata
}

// Names returns the tensor names in alphabetical order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.header.Tensors))
	for name := range f.header.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Info returns the header entry for name.
func (f *File) Info(name string) (TensorInfo, error) {
	info, ok := f.header.Tensors[name]
	if !ok {
		return TensorInfo{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return info, nil
}

// Layout returns the layout name was stored from. Tensors written by other
// tools report RowMajor.
func (f *File) Layout(name string) tensor.LayoutKind {
	if s, ok := f.header.Metadata[layoutPrefix+name]; ok {
		if k, err := tensor.ParseLayoutKind(s); err == nil {
			return k
		}
	}
	return tensor.RowMajor
}

// Raw returns the encoded bytes of name.
func (f *File) Raw(name string) ([]byte, error) {
	info, err := f.Info(name)
	if err != nil {
		return nil, err
	}
	start, end := info.DataOffsets[0], info.DataOffsets[1]
	data := make([]byte, end-start)
	if n, err := f.data.ReadAt(data, f.dataOffset+start); n < len(data) {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	return data, nil
}

// Load decodes name into a new row-major tensor. T must match the stored dtype.
func Load[T tensor.Element](f *File, name string) (tensor.SharedTensor[T, tensor.RowMajorMapping], error) {
	var zero tensor.SharedTensor[T, tensor.RowMajorMapping]

	info, err := f.Info(name)
	if err != nil {
		return zero, err
	}
	want, err := FromDType(tensor.DTypeOf[T]())
	if err != nil {
		return zero, err
	}
	if info.DType != want {
		return zero, fmt.Errorf("%w: tensor %s is %s, requested %s", ErrDTypeMismatch, name, info.DType, want)
	}

	raw, err := f.Raw(name)
	if err != nil {
		return zero, err
	}

	var vals []T
	if bf, ok := any(&vals).(*[]bfloat16.BFloat16); ok {
		if *bf, err = bfloat16.Decode(raw); err != nil {
			return zero, err
		}
	} else {
		vals = make([]T, len(raw)/tensor.DTypeOf[T]().Size())
		if _, err := binary.Decode(raw, binary.LittleEndian, vals); err != nil {
			return zero, fmt.Errorf("failed to decode tensor %s: %w", name, err)
		}
	}

	return tensor.NewShared(storage.Wrap(vals), tensor.NewRowMajor(info.Extents())), nil
}

// LoadFloat32 decodes a floating-point tensor of any width into float32.
func LoadFloat32(f *File, name string) (tensor.SharedTensor[float32, tensor.RowMajorMapping], error) {
	var zero tensor.SharedTensor[float32, tensor.RowMajorMapping]

	info, err := f.Info(name)
	if err != nil {
		return zero, err
	}
	raw, err := f.Raw(name)
	if err != nil {
		return zero, err
	}

	var vals []float32
	switch info.DType {
	case BF16:
		if vals, err = bfloat16.DecodeFloat32(raw); err != nil {
			return zero, err
		}
	case F16:
		vals = make([]float32, len(raw)/2)
		for i := range vals {
			vals[i] = float16.Frombits(binary.LittleEndian.Uint16(raw[2*i:])).Float32()
		}
	case F32:
		vals = make([]float32, len(raw)/4)
		if _, err := binary.Decode(raw, binary.LittleEndian, vals); err != nil {
			return zero, err
		}
	default:
		return zero, fmt.Errorf("%w: tensor %s is %s, not a float type", ErrDTypeMismatch, name, info.DType)
	}

	return tensor.NewShared(storage.Wrap(vals), tensor.NewRowMajor(info.Extents())), nil
}
