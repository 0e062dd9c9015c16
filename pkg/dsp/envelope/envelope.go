// Package envelope provides envelope generators for audio synthesis
package envelope

import "math"

// Stage represents the current envelope stage
type Stage int

const (
	// StageIdle represents envelope idle state
	StageIdle Stage = iota
	// StageAttack represents envelope attack phase
	StageAttack
	// StageRelease represents envelope release phase
	StageRelease
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageAttack:
		return "attack"
	case StageRelease:
		return "release"
	default:
		return "idle"
	}
}

// idleLevel is the release level below which the envelope snaps to zero.
const idleLevel = 1e-4

// AR implements a simple Attack-Release envelope with exponential segments.
type AR struct {
	sampleRate float64

	// Parameters
	attack  float64
	release float64

	// Coefficients
	attackCoef  float64
	releaseCoef float64

	// State
	stage Stage
	value float64
}

// NewAR creates a new AR envelope
func NewAR(sampleRate float64) *AR {
	env := &AR{
		sampleRate: sampleRate,
		attack:     0.01,
		release:    0.1,
	}
	env.updateCoefficients()
	return env
}

// SetAttack sets the attack time in seconds
func (e *AR) SetAttack(seconds float64) {
	seconds = math.Max(0.001, seconds)
	if seconds == e.attack {
		return
	}
	e.attack = seconds
	e.attackCoef = calcCoef(e.attack, e.sampleRate)
}

// SetRelease sets the release time in seconds
func (e *AR) SetRelease(seconds float64) {
	seconds = math.Max(0.001, seconds)
	if seconds == e.release {
		return
	}
	e.release = seconds
	e.releaseCoef = calcCoef(e.release, e.sampleRate)
}

func (e *AR) updateCoefficients() {
	e.attackCoef = calcCoef(e.attack, e.sampleRate)
	e.releaseCoef = calcCoef(e.release, e.sampleRate)
}

// calcCoef calculates exponential coefficient for a given time
func calcCoef(timeSeconds, sampleRate float64) float64 {
	if timeSeconds <= 0.0 || sampleRate <= 0 {
		return 0.0
	}
	return math.Exp(-1.0 / (timeSeconds * sampleRate))
}

// Trigger starts the attack phase
func (e *AR) Trigger() {
	e.stage = StageAttack
}

// Release starts the release phase
func (e *AR) Release() {
	if e.stage == StageAttack {
		e.stage = StageRelease
	}
}

// Reset immediately returns the envelope to idle
func (e *AR) Reset() {
	e.stage = StageIdle
	e.value = 0
}

// IsActive returns true if the envelope is generating output
func (e *AR) IsActive() bool {
	return e.stage != StageIdle
}

// Stage returns the current envelope stage.
func (e *AR) Stage() Stage {
	return e.stage
}

// Value returns the last generated value.
func (e *AR) Value() float64 {
	return e.value
}

// Next generates the next envelope value
func (e *AR) Next() float64 {
	switch e.stage {
	case StageAttack:
		e.value = 1.0 + (e.value-1.0)*e.attackCoef
	case StageRelease:
		e.value *= e.releaseCoef
		if e.value < idleLevel {
			e.value = 0
			e.stage = StageIdle
		}
	default:
		e.value = 0
	}
	return e.value
}

// ProcessMultiply multiplies buffer by envelope - no allocations
func (e *AR) ProcessMultiply(buffer []float64) {
	for i := range buffer {
		buffer[i] *= e.Next()
	}
}
