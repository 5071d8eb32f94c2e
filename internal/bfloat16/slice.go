package bfloat16

import (
	"encoding/binary"
	"fmt"

	d4bf16 "github.com/d4l3k/go-bfloat16"

	"github.com/born-ml/tt/internal/parallel"
)

// FromFloat32Slice rounds every element of src into dst.
// Panics if the lengths differ.
func FromFloat32Slice(dst []BFloat16, src []float32, cfg parallel.Config) {
	if len(dst) != len(src) {
		panic(fmt.Sprintf("bfloat16: length mismatch: dst %d, src %d", len(dst), len(src)))
	}
	parallel.For(len(src), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = FromFloat32(src[i])
		}
	}, cfg)
}

// ToFloat32Slice widens every element of src into dst.
// Panics if the lengths differ.
func ToFloat32Slice(dst []float32, src []BFloat16, cfg parallel.Config) {
	if len(dst) != len(src) {
		panic(fmt.Sprintf("bfloat16: length mismatch: dst %d, src %d", len(dst), len(src)))
	}
	parallel.For(len(src), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = src[i].Float32()
		}
	}, cfg)
}

// Encode writes src to dst as little-endian 16-bit words.
// dst must hold at least 2*len(src) bytes.
func Encode(dst []byte, src []BFloat16) {
	if len(dst) < 2*len(src) {
		panic(fmt.Sprintf("bfloat16: encode buffer too small: %d bytes for %d values", len(dst), len(src)))
	}
	for i, v := range src {
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(v))
	}
}

// Decode reads little-endian 16-bit words from b.
func Decode(b []byte) ([]BFloat16, error) {
	if len(b)%2 != 0 {
		return nil, fmt.Errorf("bfloat16: odd byte length %d", len(b))
	}
	out := make([]BFloat16, len(b)/2)
	for i := range out {
		out[i] = BFloat16(binary.LittleEndian.Uint16(b[2*i:]))
	}
	return out, nil
}

// DecodeFloat32 widens little-endian bfloat16 words straight to float32.
// Widening is exact, so this agrees bit for bit with Decode followed by Float32.
func DecodeFloat32(b []byte) ([]float32, error) {
	if len(b)%2 != 0 {
		return nil, fmt.Errorf("bfloat16: odd byte length %d", len(b))
	}
	return d4bf16.DecodeFloat32(b), nil
}
