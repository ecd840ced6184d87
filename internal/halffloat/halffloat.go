// Package halffloat converts IEEE-754 binary16 values used by the point
// cloud loader into float64/float32.
//
// Layout: 1 sign bit, 5 exponent bits (bias 15), 10 mantissa bits.
package halffloat

import (
	"math"

	"github.com/x448/float16"
)

const (
	signMask     = 0x8000
	exponentMask = 0x7c00
	mantissaMask = 0x03ff

	halfBias   = 15
	doubleBias = 1023

	// Shift that aligns a 10-bit half mantissa with the 52-bit float64 mantissa.
	mantissaShift = 52 - 10
)

// Decode returns the float64 value of a binary16 bit pattern.
// Every pattern is valid; the conversion is exact.
func Decode(bits uint16) float64 {
	sign := uint64(bits&signMask) << 48
	exp := int(bits&exponentMask) >> 10
	mant := uint64(bits & mantissaMask)

	switch exp {
	case 0:
		if mant == 0 {
			return math.Float64frombits(sign)
		}
		// Subnormal: normalise so the implicit leading bit lands at bit 10.
		e := 1 - halfBias
		for mant&0x0400 == 0 {
			mant <<= 1
			e--
		}
		mant &= mantissaMask
		return math.Float64frombits(sign | uint64(e+doubleBias)<<52 | mant<<mantissaShift)
	case 0x1f:
		if mant == 0 {
			return math.Float64frombits(sign | 0x7ff<<52)
		}
		return math.Float64frombits(sign | 0x7ff<<52 | mant<<mantissaShift)
	}

	return math.Float64frombits(sign | uint64(exp-halfBias+doubleBias)<<52 | mant<<mantissaShift)
}

// DecodeFloat32 returns the float32 value of a binary16 bit pattern.
func DecodeFloat32(bits uint16) float32 {
	return float32(Decode(bits))
}

// Encode converts v to the nearest binary16 value (round half to even).
// Values outside the half range saturate to ±Inf.
func Encode(v float64) uint16 {
	return float16.Fromfloat32(float32(v)).Bits()
}

// DecodeSlice decodes src into dst and returns dst[:len(src)].
// dst is grown if it is too small.
func DecodeSlice(dst []float64, src []uint16) []float64 {
	if cap(dst) < len(src) {
		dst = make([]float64, len(src))
	}
	dst = dst[:len(src)]
	for i, b := range src {
		dst[i] = Decode(b)
	}
	return dst
}
