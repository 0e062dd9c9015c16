package dsp

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Buffer utilities for common audio operations. None of them allocate.

// Clear zeroes a buffer
func Clear(buffer []float64) {
	clear(buffer)
}

// Add adds source to destination
func Add(dst, src []float64) {
	n := min(len(dst), len(src))
	vecmath.AddBlockInPlace(dst[:n], src[:n])
}

// AddScaled adds src*gain to dst using scratch as temporary storage. scratch
// must be at least as long as the shorter of dst and src.
func AddScaled(dst, src, scratch []float64, gain float64) {
	n := min(len(dst), len(src))
	vecmath.ScaleBlock(scratch[:n], src[:n], gain)
	vecmath.AddBlockInPlace(dst[:n], scratch[:n])
}

// Peak returns the maximum absolute value in the buffer.
func Peak(buffer []float64) float64 {
	peak := 0.0
	for _, s := range buffer {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

// RMS calculates the root mean square of a buffer
func RMS(buffer []float64) float64 {
	if len(buffer) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range buffer {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(buffer)))
}

// FlushDenormals converts tiny denormal-like values to exact zero.
func FlushDenormals(x float64) float64 {
	if x > -DenormalThreshold && x < DenormalThreshold {
		return 0
	}
	return x
}

// Sanitize replaces non-finite samples with zero and flushes denormals.
// It returns how many non-finite samples were replaced.
func Sanitize(buffer []float64) int {
	bad := 0
	for i, s := range buffer {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			buffer[i] = 0
			bad++
			continue
		}
		buffer[i] = FlushDenormals(s)
	}
	return bad
}

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
