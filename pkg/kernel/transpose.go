package kernel

import (
	"fmt"
	"math"

	"github.com/justyntemme/midiunit/pkg/dsp"
	"github.com/justyntemme/midiunit/pkg/dsp/gain"
	"github.com/justyntemme/midiunit/pkg/dsp/oscillator"
	"github.com/justyntemme/midiunit/pkg/framework/bus"
	"github.com/justyntemme/midiunit/pkg/framework/param"
	"github.com/justyntemme/midiunit/pkg/framework/process"
	"github.com/justyntemme/midiunit/pkg/framework/voice"
	"github.com/justyntemme/midiunit/pkg/midi"
)

// Controllers the kernel reacts to.
const (
	ccSustain     = 64
	ccAllSoundOff = 120
	ccAllNotesOff = 123
)

// noShift marks a key with no sounding note-on.
const noShift = math.MinInt8

// Transpose shifts incoming notes by whole octaves and relays them to the
// MIDI output, plays the shifted notes on a small synth and runs the audio
// input through a smoothed gain stage.
//
// Every other MIDI message is relayed untouched. A note-off is shifted by
// the amount its note-on was, so changing the octave while keys are held
// does not leave notes hanging downstream. While bypassed the audio input
// passes straight through and new notes are relayed unshifted.
//
// When the host supplies a musical context, stopping the transport releases
// every sounding voice.
type Transpose struct {
	cfg Config

	synths []*synthVoice
	voices *voice.Allocator
	gain   *param.Smoother
	primed bool

	// Render scratch, MaxFrames long
	ramp  []float64
	synth []float64

	octave    int
	level     float64
	bypass    bool
	voiceMode int
	playing   bool
	held      [16][128]int8
}

// NewTranspose creates an unallocated Transpose kernel.
func NewTranspose() *Transpose {
	return &Transpose{}
}

// Allocate implements Kernel.
func (k *Transpose) Allocate(cfg Config) error {
	if cfg.InputChannels != cfg.OutputChannels {
		return fmt.Errorf("%w: transpose needs matching channel counts, got %d in and %d out",
			bus.ErrUnsupportedFormat, cfg.InputChannels, cfg.OutputChannels)
	}
	if cfg.SampleRate <= 0 || cfg.MaxFrames < 1 {
		return fmt.Errorf("%w: sample rate %v, max frames %d", bus.ErrUnsupportedFormat, cfg.SampleRate, cfg.MaxFrames)
	}

	k.cfg = cfg
	k.synths, k.voices = newVoices(cfg.SampleRate, cfg.MaxFrames)
	k.gain = param.NewSmoother(param.LinearSmoothing, 0)
	k.gain.SetTime(cfg.SampleRate, dsp.MediumSmoothing)
	k.ramp = make([]float64, cfg.MaxFrames)
	k.synth = make([]float64, cfg.MaxFrames)
	k.Reset()
	return nil
}

// Reset implements Kernel.
func (k *Transpose) Reset() {
	if k.voices != nil {
		k.voices.SetMode(voice.ModePoly)
		k.voices.SetStealingMode(voice.StealOldest)
	}
	if k.gain != nil {
		k.gain.Reset(dsp.UnityGain)
	}
	k.primed = false
	k.octave = 0
	k.level = 0
	k.bypass = false
	k.voiceMode = VoiceModePoly
	k.playing = false
	clear(k.ramp)
	clear(k.synth)
	for ch := range k.held {
		for key := range k.held[ch] {
			k.held[ch][key] = noShift
		}
	}
}

// Deallocate implements Kernel.
func (k *Transpose) Deallocate() {
	k.synths = nil
	k.voices = nil
	k.gain = nil
	k.ramp = nil
	k.synth = nil
}

// Process implements Kernel. The block is rendered in segments split at
// each event offset so an event never affects the frames before it.
func (k *Transpose) Process(ctx *process.Context) {
	frames := ctx.NumSamples()
	if k.voices == nil || frames > len(k.ramp) {
		ctx.Clear()
		return
	}
	k.applyParams(ctx)
	k.followTransport(ctx)

	if k.bypass {
		for i := range ctx.Events {
			k.handleEvent(ctx, &ctx.Events[i])
		}
		ctx.PassThrough()
		k.finish(ctx)
		return
	}

	pos := 0
	for i := range ctx.Events {
		e := &ctx.Events[i]
		offset := min(e.Offset(ctx.BlockStart), frames)
		if offset > pos {
			k.render(ctx, pos, offset)
			pos = offset
		}
		k.handleEvent(ctx, e)
	}
	if pos < frames {
		k.render(ctx, pos, frames)
	}
	k.finish(ctx)
}

// finish scrubs non-finite samples and clips every output channel to
// dsp.OutputCeiling.
func (k *Transpose) finish(ctx *process.Context) {
	for _, out := range ctx.Output {
		dsp.Sanitize(out)
		gain.HardClipBuffer(out, dsp.OutputCeiling)
	}
}

func (k *Transpose) followTransport(ctx *process.Context) {
	if !ctx.HasMusical {
		return
	}
	if k.playing && !ctx.Musical.Playing {
		k.voices.AllNotesOff()
	}
	k.playing = ctx.Musical.Playing
}

func (k *Transpose) applyParams(ctx *process.Context) {
	octave := int(math.Round(ctx.Param(int(ParamOctave))))
	k.octave = max(-MaxOctaveShift, min(MaxOctaveShift, octave))

	target := gain.FaderToLinear(ctx.Param(int(ParamGain)))
	if k.primed {
		k.gain.SetTarget(target)
	} else {
		k.gain.Reset(target)
		k.primed = true
	}

	k.level = dsp.Clamp(ctx.Param(int(ParamLevel)), 0, 1)
	shape := oscillator.Waveform(math.Round(ctx.Param(int(ParamWaveform))))
	if shape < oscillator.WaveSine || shape > oscillator.WaveTriangle {
		shape = oscillator.WaveSine
	}
	attack := ctx.Param(int(ParamAttack))
	release := ctx.Param(int(ParamRelease))
	for _, v := range k.synths {
		v.configure(shape, attack, release)
	}

	k.setVoiceMode(int(math.Round(ctx.Param(int(ParamVoiceMode)))))

	bypass := ctx.Param(int(ParamBypass)) >= 0.5
	if bypass && !k.bypass {
		k.voices.Reset()
	}
	k.bypass = bypass
}

// setVoiceMode reconfigures the allocator. Switching between poly and mono
// stops every voice; changing only the stealing rule does not.
func (k *Transpose) setVoiceMode(mode int) {
	if mode < VoiceModePoly || mode > VoiceModeMono {
		mode = VoiceModePoly
	}
	if mode == k.voiceMode {
		return
	}
	wasMono := k.voiceMode == VoiceModeMono
	k.voiceMode = mode

	switch mode {
	case VoiceModeMono:
		k.voices.SetMode(voice.ModeMono)
	case VoiceModeQuietest:
		k.voices.SetStealingMode(voice.StealQuietest)
	default:
		k.voices.SetStealingMode(voice.StealOldest)
	}
	if wasMono {
		k.voices.SetMode(voice.ModePoly)
	}
}

// render produces frames [from, to) of every output channel.
func (k *Transpose) render(ctx *process.Context, from, to int) {
	smoothing := k.gain.IsSmoothing()
	ramp := k.ramp[from:to]
	if smoothing {
		k.gain.Fill(ramp)
	}
	level := k.gain.Current()

	synth := k.synth[from:to]
	clear(synth)
	k.voices.Process(synth)
	scratch := ctx.WorkBuffer()[from:to]

	for ch, out := range ctx.Output {
		out = out[from:to]
		if ch < len(ctx.Input) {
			copy(out, ctx.Input[ch][from:to])
		} else {
			clear(out)
		}
		dsp.AddScaled(out, synth, scratch, k.level)
		switch {
		case smoothing:
			gain.ApplyRamp(out, ramp)
		case level != dsp.UnityGain:
			gain.ApplyBuffer(out, level)
		}
	}
}

func (k *Transpose) handleEvent(ctx *process.Context, e *midi.Event) {
	msg := e.Message()
	var channel, key, velocity, controller, value uint8

	switch {
	case msg.GetNoteStart(&channel, &key, &velocity):
		shift := k.shift()
		k.held[channel][key] = int8(shift)
		note, ok := shiftNote(key, shift)
		if !ok {
			return
		}
		k.relayNote(ctx, e, note)
		if !k.bypass {
			k.voices.NoteOn(note, velocity)
		}

	case msg.GetNoteEnd(&channel, &key):
		shift := k.shift()
		if held := k.held[channel][key]; held != noShift {
			shift = int(held)
			k.held[channel][key] = noShift
		}
		note, ok := shiftNote(key, shift)
		if !ok {
			return
		}
		k.relayNote(ctx, e, note)
		if !k.bypass {
			k.voices.NoteOff(note)
		}

	case msg.GetControlChange(&channel, &controller, &value):
		ctx.SendMIDI(*e)
		if k.bypass {
			return
		}
		switch controller {
		case ccSustain:
			k.voices.SetSustainPedal(value >= 64)
		case ccAllSoundOff:
			k.voices.Reset()
		case ccAllNotesOff:
			k.voices.AllNotesOff()
		}

	default:
		ctx.SendMIDI(*e)
	}
}

// shift is the semitone offset applied to a new note-on.
func (k *Transpose) shift() int {
	if k.bypass {
		return 0
	}
	return k.octave * 12
}

func (k *Transpose) relayNote(ctx *process.Context, e *midi.Event, note uint8) {
	out := *e
	out.Data[1] = note
	ctx.SendMIDI(out)
}

// shiftNote moves key by semitones. ok is false when the result leaves the
// MIDI note range.
func shiftNote(key uint8, semitones int) (note uint8, ok bool) {
	n := int(key) + semitones
	if n < 0 || n > 127 {
		return 0, false
	}
	return uint8(n), true
}
