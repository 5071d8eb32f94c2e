package bfloat16

// Numeric limits. The exponent range is that of float32 because the
// exponent field is unchanged; only the significand is shorter.
const (
	Digits        = 8
	Digits10      = 2
	MaxDigits10   = 4
	Radix         = 2
	MinExponent   = -125
	MinExponent10 = -37
	MaxExponent   = 128
	MaxExponent10 = 38
)

// Bit-exact special values. These patterns are shared with every other
// bfloat16 producer and consumer and must not change.
const (
	// Min is the smallest positive normal value, 2^-126.
	Min BFloat16 = 0x0080
	// Lowest is the most negative finite value.
	Lowest BFloat16 = 0xFF7F
	// Max is the largest finite value.
	Max BFloat16 = 0x7F7F
	// Epsilon is the gap between 1 and the next representable value, 2^-7.
	Epsilon BFloat16 = 0x3C00
	// RoundError is the maximum rounding error in ULPs, 0.5.
	RoundError BFloat16 = 0x3F00
	// Inf is positive infinity.
	Inf BFloat16 = 0x7F80
	// NegInf is negative infinity.
	NegInf BFloat16 = 0xFF80
	// QuietNaN is the canonical quiet NaN.
	QuietNaN BFloat16 = quietNaN
	// SignalingNaN is a signaling NaN.
	SignalingNaN BFloat16 = 0x7FA0
	// DenormMin is the smallest positive subnormal value, 2^-133.
	DenormMin BFloat16 = 0x0001
	// One is 1.0.
	One BFloat16 = 0x3F80
)
