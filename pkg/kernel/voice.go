package kernel

import (
	"github.com/justyntemme/midiunit/pkg/dsp"
	"github.com/justyntemme/midiunit/pkg/dsp/envelope"
	"github.com/justyntemme/midiunit/pkg/dsp/gain"
	"github.com/justyntemme/midiunit/pkg/dsp/oscillator"
	"github.com/justyntemme/midiunit/pkg/framework/voice"
	"github.com/justyntemme/midiunit/pkg/midi"
)

// MaxVoices is the polyphony of the Transpose kernel.
const MaxVoices = 8

// synthVoice is one note of the kernel's synth.
type synthVoice struct {
	osc   *oscillator.Oscillator
	env   *envelope.AR
	shape oscillator.Waveform

	// MaxFrames long
	buf []float64

	note      uint8
	amplitude float64
	active    bool
	age       int64
}

func newSynthVoice(sampleRate float64, maxFrames int) *synthVoice {
	return &synthVoice{
		osc: oscillator.New(sampleRate),
		env: envelope.NewAR(sampleRate),
		buf: make([]float64, maxFrames),
	}
}

func (v *synthVoice) IsActive() bool        { return v.active }
func (v *synthVoice) GetNote() uint8        { return v.note }
func (v *synthVoice) GetAmplitude() float64 { return v.amplitude * v.env.Value() }
func (v *synthVoice) GetAge() int64         { return v.age }

func (v *synthVoice) TriggerNote(note uint8, velocity uint8) {
	if !v.active {
		v.osc.Reset()
	}
	v.note = note
	v.amplitude = float64(velocity) / 127.0
	v.active = true
	v.age = 0
	v.osc.SetFrequency(midi.NoteToFrequency(note, 440.0))
	v.env.Trigger()
}

func (v *synthVoice) ReleaseNote() {
	v.env.Release()
}

func (v *synthVoice) Stop() {
	v.active = false
	v.env.Reset()
	v.osc.Reset()
	v.note = 0
	v.age = 0
}

// Process adds the voice into output. The voice stops once its envelope has
// run out.
func (v *synthVoice) Process(output []float64) {
	buf := v.buf[:min(len(output), len(v.buf))]
	v.osc.Process(buf, v.shape)
	v.env.ProcessMultiply(buf)
	gain.ApplyBuffer(buf, v.amplitude)
	dsp.Add(output, buf)

	v.age += int64(len(buf))
	if !v.env.IsActive() {
		v.Stop()
	}
}

func (v *synthVoice) configure(shape oscillator.Waveform, attack, release float64) {
	v.shape = shape
	v.env.SetAttack(attack)
	v.env.SetRelease(release)
}

func newVoices(sampleRate float64, maxFrames int) ([]*synthVoice, *voice.Allocator) {
	synths := make([]*synthVoice, MaxVoices)
	voices := make([]voice.Voice, MaxVoices)
	for i := range synths {
		synths[i] = newSynthVoice(sampleRate, maxFrames)
		voices[i] = synths[i]
	}
	return synths, voice.NewAllocator(voices)
}
