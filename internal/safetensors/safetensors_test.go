package safetensors

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"

	"github.com/born-ml/tt/internal/bfloat16"
	"github.com/born-ml/tt/internal/storage"
	"github.com/born-ml/tt/internal/tensor"
)

func roundTrip(t *testing.T, w *Writer) *File {
	t.Helper()
	var buf bytes.Buffer
	n, err := w.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)

	f, err := Open(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return f
}

func TestRoundTripTiledBFloat16(t *testing.T) {
	src := tensor.Arange[bfloat16.BFloat16](tensor.Dims(3, 5, 7), 1)
	defer tensor.Release(src)
	tiled := tensor.ToTiled(src)
	defer tensor.Release(tiled)

	w := NewWriter()
	w.SetMetadata("format", "tt")
	require.NoError(t, Add(w, "tiled", tiled))
	f := roundTrip(t, w)

	assert.Equal(t, []string{"tiled"}, f.Names())
	assert.Equal(t, "tt", f.Metadata()["format"])
	assert.Equal(t, tensor.Tiled, f.Layout("tiled"))

	info, err := f.Info("tiled")
	require.NoError(t, err)
	assert.Equal(t, BF16, info.DType)
	assert.Equal(t, []uint64{3, 5, 7}, info.Shape)
	assert.Equal(t, [2]int64{0, 210}, info.DataOffsets, "padding is not stored")

	got, err := Load[bfloat16.BFloat16](f, "tiled")
	require.NoError(t, err)
	defer tensor.Release(got)
	if diff := cmp.Diff(src.DataHandle().Slice(), got.DataHandle().Slice()); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}

	wide, err := LoadFloat32(f, "tiled")
	require.NoError(t, err)
	defer tensor.Release(wide)
	assert.Equal(t, float32(105), wide.At(2, 4, 6))
}

func TestRoundTripMixedTypes(t *testing.T) {
	ints := tensor.Arange[int16](tensor.Dims(2, 2), -1)
	defer tensor.Release(ints)
	mask := tensor.NewRowMajorFrom(storage.Wrap([]bool{true, false, true}), 3)
	defer tensor.Release(mask)
	halves := tensor.NewRowMajorFrom(storage.Wrap([]float16.Float16{float16.Fromfloat32(0.5), float16.Fromfloat32(-4)}), 2)
	defer tensor.Release(halves)
	scalar := tensor.Full(tensor.Dims(), 2.25)
	defer tensor.Release(scalar)

	w := NewWriter()
	require.NoError(t, Add(w, "b.ints", ints))
	require.NoError(t, Add(w, "a.mask", mask))
	require.NoError(t, Add(w, "c.halves", halves))
	require.NoError(t, Add(w, "d.scalar", scalar))
	f := roundTrip(t, w)

	assert.Equal(t, []string{"a.mask", "b.ints", "c.halves", "d.scalar"}, f.Names())
	assert.Equal(t, tensor.RowMajor, f.Layout("a.mask"))

	gotInts, err := Load[int16](f, "b.ints")
	require.NoError(t, err)
	assert.Equal(t, []int16{-1, 0, 1, 2}, gotInts.DataHandle().Slice())

	gotMask, err := Load[bool](f, "a.mask")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, gotMask.DataHandle().Slice())

	gotHalves, err := LoadFloat32(f, "c.halves")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -4}, gotHalves.DataHandle().Slice())

	gotScalar, err := Load[float64](f, "d.scalar")
	require.NoError(t, err)
	assert.Equal(t, 0, gotScalar.Rank())
	assert.Equal(t, 2.25, gotScalar.At())

	// Alphabetical order decides placement in the data section.
	info, err := f.Info("a.mask")
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.DataOffsets[0])
}

func TestLoadErrors(t *testing.T) {
	x := tensor.Zeros[float32](tensor.Dims(2))
	defer tensor.Release(x)

	w := NewWriter()
	require.NoError(t, Add(w, "x", x))
	f := roundTrip(t, w)

	_, err := Load[int32](f, "x")
	require.ErrorIs(t, err, ErrDTypeMismatch)

	_, err = Load[float32](f, "y")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = Load[complex128](f, "x")
	require.ErrorIs(t, err, ErrUnsupportedDType)
}

func TestAddErrors(t *testing.T) {
	x := tensor.Zeros[float32](tensor.Dims(2))
	defer tensor.Release(x)
	c := tensor.Zeros[complex128](tensor.Dims(2))
	defer tensor.Release(c)

	w := NewWriter()
	require.NoError(t, Add(w, "x", x))
	require.ErrorIs(t, Add(w, "x", x), ErrDuplicate)
	require.Error(t, Add(w, "__metadata__", x))
	require.ErrorIs(t, Add(w, "c", c), ErrUnsupportedDType)

	// A weak view of released storage reports the contract violation.
	y := tensor.Zeros[float32](tensor.Dims(2))
	weak := tensor.Weak(y)
	tensor.Release(y)
	require.ErrorIs(t, Add(w, "weak", weak), tensor.ErrExpired)
}

// rawFile assembles a file from a hand-written header and data section.
func rawFile(t *testing.T, header map[string]any, data []byte) []byte {
	t.Helper()
	h, err := json.Marshal(header)
	require.NoError(t, err)
	out := binary.LittleEndian.AppendUint64(nil, uint64(len(h)))
	out = append(out, h...)
	return append(out, data...)
}

func TestOpenValidation(t *testing.T) {
	tests := []struct {
		name    string
		header  map[string]any
		data    []byte
		wantErr error
	}{
		{
			name:    "out of bounds",
			header:  map[string]any{"a": TensorInfo{DType: F32, Shape: []uint64{2}, DataOffsets: [2]int64{0, 8}}},
			data:    make([]byte, 4),
			wantErr: ErrOutOfBounds,
		},
		{
			name: "overlap",
			header: map[string]any{
				"a": TensorInfo{DType: F32, Shape: []uint64{2}, DataOffsets: [2]int64{0, 8}},
				"b": TensorInfo{DType: F32, Shape: []uint64{2}, DataOffsets: [2]int64{4, 12}},
			},
			data:    make([]byte, 12),
			wantErr: ErrOffsetOverlap,
		},
		{
			name:    "size mismatch",
			header:  map[string]any{"a": TensorInfo{DType: F64, Shape: []uint64{2}, DataOffsets: [2]int64{0, 8}}},
			data:    make([]byte, 8),
			wantErr: ErrSizeMismatch,
		},
		{
			name:    "element count overflow",
			header:  map[string]any{"a": TensorInfo{DType: F32, Shape: []uint64{1 << 62, 4}, DataOffsets: [2]int64{0, 0}}},
			wantErr: ErrSizeMismatch,
		},
		{
			name:    "byte size overflow",
			header:  map[string]any{"a": TensorInfo{DType: F32, Shape: []uint64{1 << 62}, DataOffsets: [2]int64{0, 0}}},
			wantErr: ErrSizeMismatch,
		},
		{
			name:    "unknown dtype",
			header:  map[string]any{"a": TensorInfo{DType: "F8_E4M3", Shape: []uint64{2}, DataOffsets: [2]int64{0, 2}}},
			data:    make([]byte, 2),
			wantErr: ErrUnsupportedDType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := rawFile(t, tt.header, tt.data)
			_, err := Open(bytes.NewReader(b), int64(len(b)))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestByteSize(t *testing.T) {
	n, ok := byteSize([]uint64{3, 5, 7}, 2)
	require.True(t, ok)
	assert.Equal(t, uint64(210), n)

	n, ok = byteSize(nil, 8)
	require.True(t, ok)
	assert.Equal(t, uint64(8), n)

	_, ok = byteSize([]uint64{1 << 32, 1 << 32}, 1)
	assert.False(t, ok)
}

func TestOpenHeaderTooLarge(t *testing.T) {
	b := binary.LittleEndian.AppendUint64(nil, 1<<40)
	_, err := Open(bytes.NewReader(b), int64(len(b)))
	require.ErrorIs(t, err, ErrHeaderTooLarge)

	_, err = Open(bytes.NewReader([]byte{1, 2}), 2)
	require.Error(t, err)
}

func TestOpenForeignFile(t *testing.T) {
	data := binary.LittleEndian.AppendUint32(nil, 7)
	data = binary.LittleEndian.AppendUint32(data, 9)
	b := rawFile(t, map[string]any{
		"__metadata__": map[string]string{"format": "pt"},
		"w":            TensorInfo{DType: I32, Shape: []uint64{1, 2}, DataOffsets: [2]int64{0, 8}},
	}, data)

	f, err := Open(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)
	assert.Equal(t, tensor.RowMajor, f.Layout("w"))

	w, err := Load[int32](f, "w")
	require.NoError(t, err)
	assert.Equal(t, int32(9), w.At(0, 1))
}

func TestWriteFile(t *testing.T) {
	x := tensor.Eye[float64](3)
	defer tensor.Release(x)

	w := NewWriter()
	require.NoError(t, Add(w, "eye", x))
	path := filepath.Join(t.TempDir(), "eye.safetensors")
	require.NoError(t, w.WriteFile(path))

	f, err := ReadFile(path)
	require.NoError(t, err)
	got, err := Load[float64](f, "eye")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.At(2, 2))
	assert.Equal(t, 0.0, got.At(2, 1))

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.safetensors"))
	require.Error(t, err)
}
