// Package oscillator provides audio oscillators for synthesis
package oscillator

import "math"

// Waveform selects the shape Process renders.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSaw
	WaveSquare
	WaveTriangle
)

// String returns the waveform name.
func (w Waveform) String() string {
	switch w {
	case WaveSaw:
		return "saw"
	case WaveSquare:
		return "square"
	case WaveTriangle:
		return "triangle"
	default:
		return "sine"
	}
}

// Oscillator generates periodic waveforms
type Oscillator struct {
	sampleRate float64
	frequency  float64
	phase      float64
	phaseInc   float64
}

// New creates a new oscillator
func New(sampleRate float64) *Oscillator {
	return &Oscillator{
		sampleRate: sampleRate,
		frequency:  440.0,
		phaseInc:   440.0 / sampleRate,
	}
}

// SetFrequency sets the oscillator frequency
func (o *Oscillator) SetFrequency(freq float64) {
	o.frequency = freq
	o.phaseInc = freq / o.sampleRate
}

// Frequency returns the oscillator frequency.
func (o *Oscillator) Frequency() float64 {
	return o.frequency
}

// Phase returns the current phase (0-1).
func (o *Oscillator) Phase() float64 {
	return o.phase
}

// Reset resets the oscillator phase to 0
func (o *Oscillator) Reset() {
	o.phase = 0.0
}

func (o *Oscillator) updatePhase() {
	o.phase += o.phaseInc
	if o.phase >= 1.0 {
		o.phase -= math.Floor(o.phase)
	}
}

// Sine generates a sine wave sample
func (o *Oscillator) Sine() float64 {
	sample := math.Sin(2.0 * math.Pi * o.phase)
	o.updatePhase()
	return sample
}

// Saw generates a sawtooth wave sample
func (o *Oscillator) Saw() float64 {
	sample := 2.0*o.phase - 1.0
	o.updatePhase()
	return sample
}

// Square generates a square wave sample
func (o *Oscillator) Square() float64 {
	sample := -1.0
	if o.phase < 0.5 {
		sample = 1.0
	}
	o.updatePhase()
	return sample
}

// Triangle generates a triangle wave sample
func (o *Oscillator) Triangle() float64 {
	var sample float64
	if o.phase < 0.5 {
		sample = 4.0*o.phase - 1.0
	} else {
		sample = 3.0 - 4.0*o.phase
	}
	o.updatePhase()
	return sample
}

// Process fills buffer with the given waveform - no allocations. Unknown
// shapes render a sine.
func (o *Oscillator) Process(buffer []float64, shape Waveform) {
	switch shape {
	case WaveSaw:
		for i := range buffer {
			buffer[i] = o.Saw()
		}
	case WaveSquare:
		for i := range buffer {
			buffer[i] = o.Square()
		}
	case WaveTriangle:
		for i := range buffer {
			buffer[i] = o.Triangle()
		}
	default:
		for i := range buffer {
			buffer[i] = o.Sine()
		}
	}
}
