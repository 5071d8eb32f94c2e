package bfloat16

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFloat32_RoundTripExact(t *testing.T) {
	// Every float32 whose low 16 bits are zero is exactly representable.
	for hi := uint32(0); hi <= 0xFFFF; hi++ {
		bits := hi << 16
		f := math.Float32frombits(bits)
		if math.IsNaN(float64(f)) {
			continue
		}
		got := FromFloat32(f)
		require.Equal(t, uint16(hi), got.Bits(), "bits %#08x", bits)
		require.Equal(t, bits, math.Float32bits(got.Float32()), "bits %#08x", bits)
	}
}

func TestFromFloat32_RoundToNearestEven(t *testing.T) {
	tests := []struct {
		name string
		in   uint32
		want uint16
	}{
		{"exact one", 0x3F800000, 0x3F80},
		{"below half rounds down", 0x3F807FFF, 0x3F80},
		{"tie to even mantissa stays", 0x3F808000, 0x3F80},
		{"above half rounds up", 0x3F808001, 0x3F81},
		{"tie from odd mantissa rounds up", 0x3F818000, 0x3F82},
		{"negative tie to even", 0xBF808000, 0xBF80},
		{"negative tie from odd", 0xBF818000, 0xBF82},
		{"carry into exponent", 0x3FFF8000, 0x4000},
		{"max float32 overflows to inf", 0x7F7FFFFF, 0x7F80},
		{"largest below overflow", 0x7F7F7FFF, 0x7F7F},
		{"subnormal tie to even", 0x00008000, 0x0000},
		{"subnormal tie from odd", 0x00018000, 0x0002},
		{"negative zero", 0x80000000, 0x8000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromFloat32(math.Float32frombits(tt.in))
			assert.Equal(t, tt.want, got.Bits(), "FromFloat32(%#08x)", tt.in)
		})
	}
}

func TestArithmetic_RoundsAtHalfULP(t *testing.T) {
	one := FromFloat32(1)
	halfULP := FromFloat32(1.0 / 256) // exactly half the spacing of [1, 2)

	// 1 + 2^-8 lies halfway between 1 and 1+2^-7; the even neighbour is 1.
	assert.Equal(t, One, one.Add(halfULP))

	// From the odd neighbour the tie resolves upwards.
	odd := FromBits(0x3F81)
	assert.Equal(t, uint16(0x3F82), odd.Add(halfULP).Bits())

	// Just above the tie rounds away from one.
	above := FromFloat32(1.5 / 256)
	assert.Equal(t, uint16(0x3F81), one.Add(above).Bits())
}

func TestArithmetic(t *testing.T) {
	a := FromFloat32(3)
	b := FromFloat32(2)

	assert.Equal(t, float32(5), a.Add(b).Float32())
	assert.Equal(t, float32(1), a.Sub(b).Float32())
	assert.Equal(t, float32(6), a.Mul(b).Float32())
	assert.Equal(t, float32(1.5), a.Div(b).Float32())
	assert.Equal(t, float32(-3), a.Neg().Float32())
	assert.Equal(t, float32(4), a.Inc().Float32())
	assert.Equal(t, float32(2), a.Dec().Float32())

	assert.True(t, b.Less(a))
	assert.False(t, a.Less(b))
	assert.True(t, FromFloat32(0).Equal(FromFloat32(float32(math.Copysign(0, -1)))))
}

func TestArithmetic_DivisionByZero(t *testing.T) {
	assert.Equal(t, Inf, One.Div(FromFloat32(0)))
	assert.Equal(t, NegInf, One.Neg().Div(FromFloat32(0)))
	assert.True(t, FromFloat32(0).Div(FromFloat32(0)).IsNaN())
}

func TestNaN(t *testing.T) {
	negNaN := math.Float32frombits(0xFFC00000)
	got := FromFloat32(negNaN)
	assert.Equal(t, uint16(0xFFC0), got.Bits())
	assert.True(t, got.IsNaN())
	assert.True(t, got.Signbit())
	assert.True(t, math.Signbit(float64(got.Float32())))

	posNaN := FromFloat32(float32(math.NaN()))
	assert.Equal(t, QuietNaN, posNaN)
	assert.False(t, posNaN.Signbit())

	// A signaling NaN whose payload would truncate to infinity must stay NaN.
	sNaN := FromFloat32(math.Float32frombits(0x7F800001))
	assert.Equal(t, QuietNaN, sNaN)

	assert.True(t, SignalingNaN.IsNaN())
	assert.False(t, Inf.IsNaN())
	assert.False(t, posNaN.Equal(posNaN))
}

func TestInfinity(t *testing.T) {
	pos := FromFloat32(float32(math.Inf(1)))
	neg := FromFloat32(float32(math.Inf(-1)))

	assert.Equal(t, Inf, pos)
	assert.Equal(t, NegInf, neg)
	assert.True(t, math.IsInf(float64(pos.Float32()), 1))
	assert.True(t, math.IsInf(float64(neg.Float32()), -1))

	assert.True(t, pos.IsInf(1))
	assert.False(t, pos.IsInf(-1))
	assert.True(t, neg.IsInf(-1))
	assert.True(t, neg.IsInf(0))
	assert.False(t, Max.IsInf(0))
}

func TestLimits(t *testing.T) {
	assert.Equal(t, math.Float32frombits(0x00800000), Min.Float32())
	assert.Equal(t, math.Float32frombits(0x7F7F0000), Max.Float32())
	assert.Equal(t, -Max.Float32(), Lowest.Float32())
	assert.Equal(t, Lowest, Max.Neg())
	assert.Equal(t, float32(1.0/128), Epsilon.Float32())
	assert.Equal(t, Epsilon, FromBits(One.Bits()+1).Sub(One))
	assert.Equal(t, float32(math.Ldexp(1, 1-Digits)), Epsilon.Float32())
	assert.Equal(t, FromFloat32(0.5), RoundError)
	assert.Equal(t, math.Float32frombits(0x00010000), DenormMin.Float32())
	assert.Equal(t, One, FromFloat32(1))

	// Exponent range matches float32.
	assert.Equal(t, float32(math.Ldexp(1, MinExponent-1)), Min.Float32())
	assert.True(t, math.IsInf(float64(FromFloat32(float32(math.Ldexp(1, MaxExponent-1))).Mul(FromFloat32(2)).Float32()), 1))
}

func TestWireConstants(t *testing.T) {
	assert.Equal(t, uint16(0x7FC0), QuietNaN.Bits())
	assert.Equal(t, uint16(0x7F80), Inf.Bits())
	assert.Equal(t, uint16(0x7FA0), SignalingNaN.Bits())
	assert.Equal(t, uint16(0x0080), Min.Bits())
	assert.Equal(t, uint16(0xFF7F), Lowest.Bits())
	assert.Equal(t, uint16(0x7F7F), Max.Bits())
	assert.Equal(t, uint16(0x0001), DenormMin.Bits())
}

func TestFromFloat64(t *testing.T) {
	assert.Equal(t, FromFloat32(3.14159), FromFloat64(3.14159))
	assert.Equal(t, 2.5, FromFloat64(2.5).Float64())
}

func TestString(t *testing.T) {
	assert.Equal(t, "1", One.String())
	assert.Equal(t, "-2.5", FromFloat32(-2.5).String())
	assert.Equal(t, "+Inf", Inf.String())
	assert.Equal(t, "NaN", QuietNaN.String())
	assert.Equal(t, "105", FromFloat32(105).String())
}
