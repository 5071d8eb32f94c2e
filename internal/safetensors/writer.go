package safetensors

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/born-ml/tt/internal/bfloat16"
	"github.com/born-ml/tt/internal/tensor"
)

type entry struct {
	dtype DType
	shape []uint64
	data  []byte
}

// Writer collects tensors and writes them as one SafeTensors file.
// Tensors are encoded when added, so the source may be released afterwards.
type Writer struct {
	entries  map[string]entry
	metadata map[string]string
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{
		entries:  make(map[string]entry),
		metadata: make(map[string]string),
	}
}

// SetMetadata records a free-form key/value pair in the header.
func (w *Writer) SetMetadata(key, value string) {
	w.metadata[key] = value
}

// Add encodes t under name in logical row-major order.
func Add[T tensor.Element, M tensor.Mapping[M], H any, A tensor.Accessor[T, H]](w *Writer, name string, t tensor.Tensor[T, M, H, A]) (err error) {
	defer tensor.Recover(&err)

	if name == "" || name == metadataKey {
		return fmt.Errorf("invalid tensor name %q", name)
	}
	if _, dup := w.entries[name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	dt, err := FromDType(t.DType())
	if err != nil {
		return fmt.Errorf("tensor %s: %w", name, err)
	}

	vals := make([]T, 0, t.Size())
	for idx := range t.Extents().Indices() {
		vals = append(vals, t.At(idx...))
	}

	var data []byte
	if bf, ok := any(vals).([]bfloat16.BFloat16); ok {
		data = make([]byte, 2*len(bf))
		bfloat16.Encode(data, bf)
	} else if data, err = binary.Append(nil, binary.LittleEndian, vals); err != nil {
		return fmt.Errorf("failed to encode tensor %s: %w", name, err)
	}

	shape := make([]uint64, t.Rank())
	for i, s := range t.Extents().Sizes() {
		shape[i] = uint64(s)
	}

	w.entries[name] = entry{dtype: dt, shape: shape, data: data}
	if layout := t.Layout(); layout != tensor.RowMajor {
		w.metadata[layoutPrefix+name] = layout.String()
	}
	return nil
}

// WriteTo writes the file. Tensors are stored in alphabetical order by name.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	names := make([]string, 0, len(w.entries))
	for name := range w.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	header := Header{Metadata: w.metadata, Tensors: make(map[string]TensorInfo, len(names))}
	var offset int64
	for _, name := range names {
		e := w.entries[name]
		size := int64(len(e.data))
		header.Tensors[name] = TensorInfo{
			DType:       e.dtype,
			Shape:       e.shape,
			DataOffsets: [2]int64{offset, offset + size},
		}
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal header: %w", err)
	}

	bw := bufio.NewWriter(out)
	var n int64
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return n, fmt.Errorf("failed to write header size: %w", err)
	}
	n += 8

	m, err := bw.Write(headerJSON)
	n += int64(m)
	if err != nil {
		return n, fmt.Errorf("failed to write header: %w", err)
	}

	for _, name := range names {
		m, err := bw.Write(w.entries[name].data)
		n += int64(m)
		if err != nil {
			return n, fmt.Errorf("failed to write tensor %s: %w", name, err)
		}
	}
	return n, bw.Flush()
}

// WriteFile writes the file to path.
func (w *Writer) WriteFile(path string) error {
	//nolint:gosec // G304: path is chosen by the caller.
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := w.WriteTo(f); err != nil {
		_ = f.Close() // Best effort close on error
		return err
	}
	return f.Close()
}
