// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package bfloat16 provides the brain floating-point type: the upper 16
// bits of an IEEE-754 binary32 value, rounded to nearest even.
//
// Example:
//
//	b := bfloat16.FromFloat32(3.14159)
//	fmt.Println(b)            // 3.140625
//	fmt.Println(b.Bits())     // 16457
package bfloat16

import (
	"github.com/born-ml/tt/internal/bfloat16"
	"github.com/born-ml/tt/internal/envconfig"
)

// BFloat16 is a 16-bit brain floating-point value.
type BFloat16 = bfloat16.BFloat16

// Bit patterns of notable values.
const (
	Min          = bfloat16.Min
	Lowest       = bfloat16.Lowest
	Max          = bfloat16.Max
	Epsilon      = bfloat16.Epsilon
	RoundError   = bfloat16.RoundError
	Inf          = bfloat16.Inf
	NegInf       = bfloat16.NegInf
	QuietNaN     = bfloat16.QuietNaN
	SignalingNaN = bfloat16.SignalingNaN
	DenormMin    = bfloat16.DenormMin
	One          = bfloat16.One
)

// FromFloat32 rounds f to the nearest BFloat16, ties to even.
// NaN stays NaN with its sign.
func FromFloat32(f float32) BFloat16 {
	return bfloat16.FromFloat32(f)
}

// FromFloat64 rounds f to float32 and then to BFloat16.
func FromFloat64(f float64) BFloat16 {
	return bfloat16.FromFloat64(f)
}

// FromBits returns the value with the given bit pattern.
func FromBits(bits uint16) BFloat16 {
	return bfloat16.FromBits(bits)
}

// FromFloat32Slice rounds every element of src into dst, spreading large
// inputs over TT_NUM_THREADS workers unless TT_SEQUENTIAL is set.
// Panics if the lengths differ.
func FromFloat32Slice(dst []BFloat16, src []float32) {
	bfloat16.FromFloat32Slice(dst, src, envconfig.Parallel())
}

// ToFloat32Slice widens every element of src into dst. Workers are
// configured as for FromFloat32Slice.
func ToFloat32Slice(dst []float32, src []BFloat16) {
	bfloat16.ToFloat32Slice(dst, src, envconfig.Parallel())
}

// Encode writes src to dst as little-endian 16-bit words.
func Encode(dst []byte, src []BFloat16) {
	bfloat16.Encode(dst, src)
}

// Decode reads little-endian 16-bit words.
func Decode(b []byte) ([]BFloat16, error) {
	return bfloat16.Decode(b)
}

// DecodeFloat32 reads little-endian 16-bit words and widens them.
func DecodeFloat32(b []byte) ([]float32, error) {
	return bfloat16.DecodeFloat32(b)
}
