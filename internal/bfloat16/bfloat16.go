// Package bfloat16 implements the brain floating point element type.
//
// A BFloat16 holds the upper 16 bits of an IEEE-754 binary32 value:
//
//	bit 15      sign
//	bits 14-7   exponent (8 bits, bias 127, same as float32)
//	bits 6-0    mantissa (7 bits)
//
// Conversion from float32 rounds to nearest, ties to even. Conversion back is
// exact. Arithmetic promotes both operands to float32 and rounds the result,
// so BFloat16 is never an accumulation type.
package bfloat16

import (
	"math"
	"strconv"
)

// BFloat16 is a 16-bit brain floating point value.
type BFloat16 uint16

// quietNaN is the canonical quiet NaN pattern (sign bit clear).
const quietNaN = 0x7FC0

// FromFloat32 rounds f to the nearest BFloat16, ties to even.
// NaN inputs map to the canonical quiet NaN with the sign of f.
func FromFloat32(f float32) BFloat16 {
	bits := math.Float32bits(f)

	if math.IsNaN(float64(f)) {
		sign := uint16(bits>>16) & 0x8000
		return BFloat16(sign | quietNaN)
	}

	lsb := (bits >> 16) & 1
	bits += 0x7FFF + lsb

	//nolint:gosec // G115: upper half of a uint32 always fits.
	return BFloat16(bits >> 16)
}

// FromFloat64 rounds f to float32 first and then to BFloat16.
func FromFloat64(f float64) BFloat16 {
	return FromFloat32(float32(f))
}

// FromBits reinterprets raw bits as a BFloat16.
func FromBits(bits uint16) BFloat16 {
	return BFloat16(bits)
}

// Bits returns the raw 16-bit pattern.
func (b BFloat16) Bits() uint16 {
	return uint16(b)
}

// Float32 widens b to float32. The conversion is exact.
func (b BFloat16) Float32() float32 {
	return math.Float32frombits(uint32(b) << 16)
}

// Float64 widens b to float64. The conversion is exact.
func (b BFloat16) Float64() float64 {
	return float64(b.Float32())
}

// IsNaN reports whether b is a NaN.
func (b BFloat16) IsNaN() bool {
	return b&0x7F80 == 0x7F80 && b&0x007F != 0
}

// IsInf reports whether b is an infinity, according to sign.
// If sign > 0, IsInf reports whether b is positive infinity.
// If sign < 0, IsInf reports whether b is negative infinity.
// If sign == 0, IsInf reports whether b is either infinity.
func (b BFloat16) IsInf(sign int) bool {
	switch {
	case sign > 0:
		return b == Inf
	case sign < 0:
		return b == NegInf
	default:
		return b&0x7FFF == Inf
	}
}

// Signbit reports whether b is negative or negative zero.
func (b BFloat16) Signbit() bool {
	return b&0x8000 != 0
}

// Add returns b + o rounded to BFloat16.
func (b BFloat16) Add(o BFloat16) BFloat16 {
	return FromFloat32(b.Float32() + o.Float32())
}

// Sub returns b - o rounded to BFloat16.
func (b BFloat16) Sub(o BFloat16) BFloat16 {
	return FromFloat32(b.Float32() - o.Float32())
}

// Mul returns b * o rounded to BFloat16.
func (b BFloat16) Mul(o BFloat16) BFloat16 {
	return FromFloat32(b.Float32() * o.Float32())
}

// Div returns b / o rounded to BFloat16.
func (b BFloat16) Div(o BFloat16) BFloat16 {
	return FromFloat32(b.Float32() / o.Float32())
}

// Neg returns -b.
func (b BFloat16) Neg() BFloat16 {
	return FromFloat32(-b.Float32())
}

// Inc returns b + 1.
func (b BFloat16) Inc() BFloat16 {
	return FromFloat32(b.Float32() + 1)
}

// Dec returns b - 1.
func (b BFloat16) Dec() BFloat16 {
	return FromFloat32(b.Float32() - 1)
}

// Less reports whether b < o. NaNs compare false.
func (b BFloat16) Less(o BFloat16) bool {
	return b.Float32() < o.Float32()
}

// Equal reports whether b == o numerically, so +0 equals -0 and NaN equals nothing.
func (b BFloat16) Equal(o BFloat16) bool {
	return b.Float32() == o.Float32()
}

// String formats b with the shortest decimal that round-trips through float32.
func (b BFloat16) String() string {
	return strconv.FormatFloat(float64(b.Float32()), 'g', -1, 32)
}
