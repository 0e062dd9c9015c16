// Package dsp provides digital signal processing utilities and algorithms.
package dsp

// Common audio constants used throughout the DSP package and the unit.
const (
	// Gain/Level constants
	MinDB     = -200.0 // Minimum dB value (effectively silence)
	UnityGain = 1.0    // Unity gain (0 dB)

	// Fader range for user gain controls
	FaderMinDB = -60.0
	FaderMaxDB = 12.0

	// Attack/Release time ranges (in seconds)
	DefaultMinAttack  = 0.001 // 1ms
	DefaultMaxAttack  = 2.0
	DefaultMinRelease = 0.001 // 1ms
	DefaultMaxRelease = 5.0

	// Channel counts
	Mono   = 1
	Stereo = 2

	// Common sample rates
	SampleRate44k1 = 44100.0
	SampleRate48k  = 48000.0
	SampleRate96k  = 96000.0

	// Buffer sizes
	MinBufferSize     = 1
	DefaultBufferSize = 512
	MaxBufferSize     = 8192

	// Smoothing times
	FastSmoothing   = 0.001 // 1ms
	MediumSmoothing = 0.010 // 10ms
	SlowSmoothing   = 0.050 // 50ms

	// Phase constants
	TwoPi = 6.283185307179586

	// Values with magnitude below this are flushed to zero
	DenormalThreshold = 1e-30

	// Rendered output is clipped to this magnitude (+18 dBFS)
	OutputCeiling = 8.0
)
