package kernel

import (
	"github.com/justyntemme/midiunit/pkg/dsp"
	"github.com/justyntemme/midiunit/pkg/dsp/oscillator"
	"github.com/justyntemme/midiunit/pkg/framework/param"
)

// Parameter addresses of the Transpose kernel. They are also the indices
// into the per-block parameter snapshot.
const (
	ParamOctave uint64 = iota
	ParamGain
	ParamLevel
	ParamAttack
	ParamRelease
	ParamBypass
	ParamWaveform
	ParamVoiceMode
)

// MaxOctaveShift bounds the octave parameter.
const MaxOctaveShift = 2

// Voice modes of the synth.
const (
	VoiceModePoly     = 0 // steal the oldest voice when all are busy
	VoiceModeQuietest = 1 // steal the quietest voice
	VoiceModeMono     = 2
)

// NewParameters returns the parameter tree of the Transpose kernel.
func NewParameters() *param.Store {
	return param.MustStore(
		param.OctaveParameter(ParamOctave, "octave", "Octave", MaxOctaveShift).Build(),
		param.GainParameter(ParamGain, "gain", "Gain").Build(),
		param.LevelParameter(ParamLevel, "level", "Voice Level", 0.5).Build(),
		param.TimeParameter(ParamAttack, "attack", "Attack",
			dsp.DefaultMinAttack, dsp.DefaultMaxAttack, 0.005).Build(),
		param.TimeParameter(ParamRelease, "release", "Release",
			dsp.DefaultMinRelease, dsp.DefaultMaxRelease, 0.1).Build(),
		param.BypassParameter(ParamBypass, "bypass", "Bypass").Build(),
		param.Choice(ParamWaveform, "waveform", "Waveform", []param.ChoiceOption{
			{Value: float64(oscillator.WaveSine), Name: "Sine"},
			{Value: float64(oscillator.WaveSaw), Name: "Saw", Aliases: []string{"sawtooth"}},
			{Value: float64(oscillator.WaveSquare), Name: "Square"},
			{Value: float64(oscillator.WaveTriangle), Name: "Triangle"},
		}).Build(),
		param.Choice(ParamVoiceMode, "voice_mode", "Voice Mode", []param.ChoiceOption{
			{Value: VoiceModePoly, Name: "Poly"},
			{Value: VoiceModeQuietest, Name: "Poly Quietest"},
			{Value: VoiceModeMono, Name: "Mono"},
		}).Build(),
	)
}
