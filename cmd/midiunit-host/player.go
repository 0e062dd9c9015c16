package main

import (
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/ebitengine/oto/v3"
	"github.com/justyntemme/midiunit/pkg/plugin"
)

// otoPlayer drives a unit from the oto output callback. Read runs on oto's
// goroutine and is the only caller of the render function.
type otoPlayer struct {
	ctx    *oto.Context
	player *oto.Player

	render    plugin.RenderFunc
	pull      plugin.PullFunc
	channels  int
	maxFrames int

	position atomic.Int64 // samples rendered so far
	failures atomic.Uint64
	out      [][]float32 // interleaved scratch, one slice

	started bool
	mutex   sync.Mutex // Only for setup/control operations
}

func newOtoPlayer(sampleRate, channels, maxFrames int, render plugin.RenderFunc, pull plugin.PullFunc) (*otoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(maxFrames) * time.Second / time.Duration(sampleRate),
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	p := &otoPlayer{
		ctx:       ctx,
		render:    render,
		pull:      pull,
		channels:  channels,
		maxFrames: maxFrames,
		out:       [][]float32{make([]float32, maxFrames*channels)},
	}
	p.player = ctx.NewPlayer(p)
	return p, nil
}

// Read renders len(p)/(4*channels) frames in blocks of at most maxFrames.
func (op *otoPlayer) Read(p []byte) (int, error) {
	frameBytes := 4 * op.channels
	frames := len(p) / frameBytes
	written := 0

	for frames > 0 {
		n := min(frames, op.maxFrames)
		samples := op.out[0][:n*op.channels]
		ts := plugin.Timestamp{SampleTime: op.position.Load()}

		if status := op.render(n, ts, op.pull, op.out); !status.Rendered() {
			op.failures.Add(1)
			clear(samples)
		}

		copy(p[written:], unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), len(samples)*4))
		written += len(samples) * 4
		op.position.Add(int64(n))
		frames -= n
	}

	clear(p[written:])
	return len(p), nil
}

// Position returns the sample time of the next block.
func (op *otoPlayer) Position() int64 {
	return op.position.Load()
}

// Failures returns how many blocks did not render.
func (op *otoPlayer) Failures() uint64 {
	return op.failures.Load()
}

func (op *otoPlayer) Start() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if !op.started && op.player != nil {
		op.player.Play()
		op.started = true
	}
}

func (op *otoPlayer) Close() error {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.player == nil {
		return nil
	}
	err := op.player.Close()
	op.player = nil
	op.started = false
	return err
}
