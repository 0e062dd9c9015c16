package param

import (
	"math"
)

// SmoothingType defines different parameter smoothing algorithms.
type SmoothingType int

const (
	// LinearSmoothing reaches the target after a fixed number of samples
	LinearSmoothing SmoothingType = iota
	// ExponentialSmoothing uses a one-pole filter
	ExponentialSmoothing
)

// Smoother ramps a block-rate parameter value at sample rate to prevent
// zipper noise. It is owned by the render path and is not safe for
// concurrent use.
type Smoother struct {
	smoothingType SmoothingType
	current       float64
	target        float64
	rate          float64
	threshold     float64
	isSmoothing   bool

	// For linear smoothing
	step float64
}

// NewSmoother creates a new parameter smoother.
// rate: number of samples for linear smoothing, pole (0.9-0.999) for exponential.
func NewSmoother(smoothingType SmoothingType, rate float64) *Smoother {
	return &Smoother{
		smoothingType: smoothingType,
		rate:          rate,
		threshold:     1e-6,
	}
}

// SetTarget sets the target value for smoothing.
func (s *Smoother) SetTarget(target float64) {
	if target == s.target {
		return
	}

	s.target = target
	if math.Abs(target-s.current) < s.threshold {
		s.current = target
		s.isSmoothing = false
		return
	}
	s.isSmoothing = true

	if s.smoothingType == LinearSmoothing {
		if s.rate >= 1 {
			s.step = (target - s.current) / s.rate
		} else {
			s.current = target
			s.isSmoothing = false
		}
	}
}

// Next returns the next smoothed value.
func (s *Smoother) Next() float64 {
	if !s.isSmoothing {
		return s.current
	}

	switch s.smoothingType {
	case ExponentialSmoothing:
		s.current += (s.target - s.current) * (1.0 - s.rate)
		if math.Abs(s.current-s.target) < s.threshold {
			s.current = s.target
			s.isSmoothing = false
		}

	case LinearSmoothing:
		s.current += s.step
		if (s.step > 0 && s.current >= s.target) || (s.step < 0 && s.current <= s.target) {
			s.current = s.target
			s.isSmoothing = false
		}
	}

	return s.current
}

// Fill writes the next len(dst) smoothed values into dst. No allocations.
func (s *Smoother) Fill(dst []float64) {
	if !s.isSmoothing {
		for i := range dst {
			dst[i] = s.current
		}
		return
	}
	for i := range dst {
		dst[i] = s.Next()
	}
}

// IsSmoothing returns true if the smoother is currently smoothing.
func (s *Smoother) IsSmoothing() bool {
	return s.isSmoothing
}

// Current returns the last value produced.
func (s *Smoother) Current() float64 {
	return s.current
}

// Reset jumps to value without ramping.
func (s *Smoother) Reset(value float64) {
	s.current = value
	s.target = value
	s.step = 0
	s.isSmoothing = false
}

// SetTime derives the rate from a ramp time at the given sample rate.
func (s *Smoother) SetTime(sampleRate, seconds float64) {
	samples := sampleRate * seconds
	switch s.smoothingType {
	case LinearSmoothing:
		s.rate = samples
	case ExponentialSmoothing:
		if samples <= 0 {
			s.rate = 0
			return
		}
		// -60dB after the given time
		s.rate = math.Exp(-6.908 / samples)
	}
}
