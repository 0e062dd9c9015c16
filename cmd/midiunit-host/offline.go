package main

import (
	"fmt"
	"io"

	"github.com/justyntemme/midiunit/pkg/dsp/gain"
	"github.com/justyntemme/midiunit/pkg/framework/debug"
	"github.com/justyntemme/midiunit/pkg/plugin"
	"github.com/sirupsen/logrus"
)

// runOffline renders opts.duration of audio block by block and writes one
// analysis line per block to w.
func runOffline(u *plugin.Unit, opts options, w io.Writer) error {
	src := newSineSource(opts.rate, 220, opts.input, channels, opts.frames)
	arp := newArpeggiator(opts.rate, newTransport(opts.rate, opts.bpm).musicalContext, opts.octave)
	out := [][]float32{make([]float32, opts.frames*channels)}

	total := int64(opts.duration.Seconds() * opts.rate)
	var ts plugin.Timestamp
	block := 0

	for ts.SampleTime < total {
		frames := int(min(int64(opts.frames), total-ts.SampleTime))
		if err := arp.schedule(u, ts.SampleTime+int64(frames)); err != nil {
			return err
		}

		result := u.RenderWithResult(frames, ts, src.pull, out)
		if !result.Status.Rendered() {
			logrus.WithFields(logrus.Fields{
				"function": "runOffline",
				"block":    block,
				"status":   result.Status.String(),
			}).Warn("Block not rendered")
		}

		a := debug.LogBufferStats(out[0][:frames*channels], fmt.Sprintf("block %d", block))
		fmt.Fprintf(w, "block %4d  t=%7d  peak %.3f (%6.1f dBFS)  rms %.3f  nonfinite %d  events %2d  params %d  midi %2d  %s\n",
			block, ts.SampleTime, a.Peak, gain.LinearToDb(float64(a.Peak)), a.RMS, a.NonFinite(),
			result.EventsApplied, result.ParameterEvents, result.MIDISent, result.Status)

		ts.SampleTime += int64(frames)
		block++
	}
	return nil
}
