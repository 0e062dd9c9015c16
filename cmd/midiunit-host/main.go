// Command midiunit-host runs the octave transpose unit against a sine input
// and a scheduled arpeggio, either offline with a per-block analysis or live
// through the default audio device.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/justyntemme/midiunit/pkg/framework/bus"
	"github.com/justyntemme/midiunit/pkg/framework/debug"
	"github.com/justyntemme/midiunit/pkg/kernel"
	"github.com/justyntemme/midiunit/pkg/plugin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const channels = 2

var transposeInfo = plugin.Info{
	ID:       "com.justyntemme.midiunit.transpose",
	Name:     "Transpose Octave",
	Version:  "1.0.0",
	Vendor:   "midiunit",
	Category: "MIDI Processor",
}

type options struct {
	rate     float64
	frames   int
	octave   float64
	gain     float64
	level    float64
	input    float64
	bpm      float64
	duration time.Duration
	offline  bool
	verbose  bool
}

func main() {
	var opts options
	flag.Float64Var(&opts.rate, "rate", 48000, "sample rate in Hz")
	flag.IntVar(&opts.frames, "frames", 512, "maximum frames per render call")
	flag.Float64Var(&opts.octave, "octave", 0, "base octave shift (-2..2)")
	flag.Float64Var(&opts.gain, "gain", -6, "input gain in dB (-60..12)")
	flag.Float64Var(&opts.level, "level", 0.3, "synth voice level (0..1)")
	flag.Float64Var(&opts.input, "input", 0.1, "amplitude of the 220 Hz input sine")
	flag.Float64Var(&opts.bpm, "bpm", 120, "arpeggio tempo")
	flag.DurationVar(&opts.duration, "duration", 4*time.Second, "how long to run")
	flag.BoolVar(&opts.offline, "offline", false, "render without an audio device and print an analysis")
	flag.BoolVar(&opts.verbose, "v", false, "debug logging")
	flag.Parse()

	debug.SetVerbose(opts.verbose)

	if err := run(opts); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "main",
			"error":    err.Error(),
		}).Error("Host failed")
		os.Exit(1)
	}
}

func run(opts options) error {
	u, relayed, err := newUnit(opts)
	if err != nil {
		return err
	}
	if err := u.AllocateRenderResources(); err != nil {
		return fmt.Errorf("allocate: %w", err)
	}
	defer u.DeallocateRenderResources()

	if opts.offline {
		err = runOffline(u, opts, os.Stdout)
	} else {
		err = runLive(u, opts)
	}

	fmt.Print(u.Meter().Stats())
	fmt.Printf("  MIDI out:  %d\n", relayed.Load())
	return err
}

func newUnit(opts options) (*plugin.Unit, *atomic.Int64, error) {
	buses, err := bus.NewBuilder().
		WithStereoInput("Stereo In").
		WithStereoOutput("Stereo Out").
		WithSampleRate(opts.rate).
		WithEventInput("Notes").
		WithEventOutput("Transposed").
		Interleaved().
		Build()
	if err != nil {
		return nil, nil, err
	}

	u, err := plugin.NewUnit(kernel.NewTranspose(), kernel.NewParameters(),
		plugin.WithInfo(transposeInfo),
		plugin.WithMaximumFrames(opts.frames),
		plugin.WithBuses(buses),
		plugin.WithMusicalContext(newTransport(opts.rate, opts.bpm).musicalContext),
		plugin.WithLogger(debug.WithComponent("host")),
	)
	if err != nil {
		return nil, nil, err
	}

	for address, value := range map[uint64]float64{
		kernel.ParamOctave: opts.octave,
		kernel.ParamGain:   opts.gain,
		kernel.ParamLevel:  opts.level,
	} {
		if err := u.SetParameter(address, value); err != nil {
			return nil, nil, fmt.Errorf("set parameter %d: %w", address, err)
		}
	}

	relayed := &atomic.Int64{}
	u.SetMIDIOutput(func(sampleTime int64, cable uint8, data []byte) error {
		relayed.Add(1)
		return nil
	})

	logrus.WithFields(logrus.Fields{
		"function": "newUnit",
		"unit":     u.Info().String(),
		"rate":     opts.rate,
		"frames":   opts.frames,
		"midi_in":  u.MIDIInputNames(),
		"midi_out": u.MIDIOutputNames(),
	}).Info("Unit ready")
	return u, relayed, nil
}

// runLive plays through oto until the duration elapses or the process is
// interrupted. The oto callback renders; a control goroutine keeps the
// arpeggio scheduled ahead of it.
func runLive(u *plugin.Unit, opts options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.duration)
	defer cancel()

	src := newSineSource(opts.rate, 220, opts.input, channels, opts.frames)
	player, err := newOtoPlayer(int(opts.rate), channels, opts.frames, u.RenderFunc(), src.pull)
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}

	arp := newArpeggiator(opts.rate, newTransport(opts.rate, opts.bpm).musicalContext, opts.octave)
	lookahead := int64(opts.rate / 4)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			if err := arp.schedule(u, player.Position()+lookahead); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	g.Go(func() error {
		player.Start()
		<-ctx.Done()
		return player.Close()
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s := u.Meter().Stats()
				logrus.WithFields(logrus.Fields{
					"function": "runLive",
					"blocks":   s.Blocks,
					"load":     fmt.Sprintf("%.2f%%", s.Load*100),
					"overruns": s.Overruns,
					"failures": player.Failures(),
					"notes":    arp.notesScheduled(),
				}).Debug("Render meter")
			}
		}
	})

	return g.Wait()
}
