// Package gain provides amplitude and gain-related DSP operations.
package gain

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Constants for dB conversion
const (
	// MinDB is the minimum dB value (effectively -infinity)
	MinDB = -200.0

	// SilenceDB is the floor of user-facing gain controls. At or below it
	// the gain is exactly zero.
	SilenceDB = -60.0
)

// LinearToDb converts a linear amplitude value to decibels.
// Returns MinDB for values <= 0.
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return MinDB
	}
	return 20.0 * math.Log10(linear)
}

// DbToLinear converts a decibel value to linear amplitude.
// Values <= MinDB return 0.
func DbToLinear(db float64) float64 {
	if db <= MinDB {
		return 0
	}
	return math.Pow(10.0, db/20.0)
}

// FaderToLinear is DbToLinear with SilenceDB as the floor.
func FaderToLinear(db float64) float64 {
	if db <= SilenceDB {
		return 0
	}
	return DbToLinear(db)
}

// ApplyBuffer applies gain to an entire buffer in-place.
func ApplyBuffer(buffer []float64, gain float64) {
	vecmath.ScaleBlock(buffer, buffer, gain)
}

// ApplyRamp multiplies buffer by a per-sample gain curve of the same length.
func ApplyRamp(buffer, gains []float64) {
	n := min(len(buffer), len(gains))
	vecmath.MulBlockInPlace(buffer[:n], gains[:n])
}

// HardClip applies hard clipping to limit signal amplitude.
func HardClip(input, threshold float64) float64 {
	if input > threshold {
		return threshold
	}
	if input < -threshold {
		return -threshold
	}
	return input
}

// HardClipBuffer applies hard clipping to an entire buffer.
func HardClipBuffer(buffer []float64, threshold float64) {
	for i := range buffer {
		buffer[i] = HardClip(buffer[i], threshold)
	}
}
