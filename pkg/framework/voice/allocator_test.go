package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testVoice is a simple voice implementation for testing
type testVoice struct {
	active    bool
	releasing bool
	note      uint8
	velocity  uint8
	amplitude float64
	age       int64
}

func (v *testVoice) IsActive() bool        { return v.active }
func (v *testVoice) GetNote() uint8        { return v.note }
func (v *testVoice) GetAmplitude() float64 { return v.amplitude }
func (v *testVoice) GetAge() int64         { return v.age }
func (v *testVoice) TriggerNote(note uint8, velocity uint8) {
	v.active = true
	v.releasing = false
	v.note = note
	v.velocity = velocity
	v.age = 0
	v.amplitude = float64(velocity) / 127.0
}
func (v *testVoice) ReleaseNote() { v.releasing = true }
func (v *testVoice) Stop()        { v.active = false; v.releasing = false; v.note = 0 }
func (v *testVoice) Process(output []float64) {
	for i := range output {
		output[i] += v.amplitude
	}
	v.age += int64(len(output))
}

func newTestAllocator(count int) (*Allocator, []*testVoice) {
	tvs := make([]*testVoice, count)
	voices := make([]Voice, count)
	for i := range voices {
		tvs[i] = &testVoice{}
		voices[i] = tvs[i]
	}
	return NewAllocator(voices), tvs
}

// voiceFor returns the voice index assigned to note, or -1.
func voiceFor(a *Allocator, note uint8) int {
	return a.noteToVoice[note]
}

func TestAllocatorPolyMode(t *testing.T) {
	a, voices := newTestAllocator(4)

	a.NoteOn(60, 100)
	a.NoteOn(64, 100)
	a.NoteOn(67, 100)
	assert.Equal(t, 3, a.GetActiveVoiceCount())

	idx := voiceFor(a, 64)
	require.NotEqual(t, -1, idx)
	a.NoteOff(64)
	assert.True(t, voices[idx].releasing)
	assert.Equal(t, -1, voiceFor(a, 64))

	// retrigger reuses the voice
	before := voiceFor(a, 60)
	a.NoteOn(60, 80)
	assert.Equal(t, before, voiceFor(a, 60))
	assert.Equal(t, uint8(80), voices[before].velocity)
}

func TestAllocatorVelocityZeroIsNoteOff(t *testing.T) {
	a, voices := newTestAllocator(2)
	a.NoteOn(60, 100)
	idx := voiceFor(a, 60)

	a.NoteOn(60, 0)
	assert.True(t, voices[idx].releasing)
	assert.Equal(t, -1, voiceFor(a, 60))
}

func TestAllocatorStealOldest(t *testing.T) {
	a, voices := newTestAllocator(2)

	a.NoteOn(60, 100)
	a.Process(make([]float64, 10))
	a.NoteOn(62, 100)
	a.Process(make([]float64, 1))

	oldest := voiceFor(a, 60)
	a.NoteOn(64, 100)

	assert.Equal(t, 2, a.GetActiveVoiceCount())
	assert.Equal(t, -1, voiceFor(a, 60), "stolen note is unmapped")
	assert.Equal(t, oldest, voiceFor(a, 64))
	assert.Equal(t, uint8(64), voices[oldest].note)
}

func TestAllocatorStealQuietestAndNone(t *testing.T) {
	a, _ := newTestAllocator(2)
	a.SetStealingMode(StealQuietest)

	a.NoteOn(60, 20)
	a.NoteOn(62, 120)
	quiet := voiceFor(a, 60)
	a.NoteOn(64, 100)
	assert.Equal(t, quiet, voiceFor(a, 64))

	a.SetStealingMode(StealNone)
	a.NoteOn(65, 100)
	assert.Equal(t, -1, voiceFor(a, 65))
}

func TestAllocatorSustainPedal(t *testing.T) {
	a, voices := newTestAllocator(4)

	a.NoteOn(60, 100)
	idx := voiceFor(a, 60)
	a.SetSustainPedal(true)
	a.NoteOff(60)
	assert.False(t, voices[idx].releasing, "held by pedal")

	a.SetSustainPedal(false)
	assert.True(t, voices[idx].releasing)
}

func TestAllocatorMonoMode(t *testing.T) {
	a, voices := newTestAllocator(4)
	a.SetMode(ModeMono)

	a.NoteOn(60, 100)
	a.NoteOn(64, 100)
	assert.Equal(t, 1, a.GetActiveVoiceCount())
	assert.Equal(t, uint8(64), voices[0].note)
	assert.Equal(t, -1, voiceFor(a, 60))
}

func TestAllocatorAllNotesOffAndReset(t *testing.T) {
	a, voices := newTestAllocator(3)
	a.NoteOn(60, 100)
	a.NoteOn(61, 100)

	a.AllNotesOff()
	for _, v := range voices {
		if v.active {
			assert.True(t, v.releasing)
		}
	}

	a.Reset()
	assert.Zero(t, a.GetActiveVoiceCount())
}

func TestAllocatorProcessMixes(t *testing.T) {
	a, _ := newTestAllocator(3)
	a.NoteOn(60, 127)
	a.NoteOn(61, 127)

	out := make([]float64, 4)
	a.Process(out)
	assert.Equal(t, []float64{2, 2, 2, 2}, out)
}

func TestAllocatorNoteHandlingDoesNotAllocate(t *testing.T) {
	a, _ := newTestAllocator(8)
	allocs := testing.AllocsPerRun(100, func() {
		for n := uint8(40); n < 60; n++ {
			a.NoteOn(n, 100)
		}
		for n := uint8(40); n < 60; n++ {
			a.NoteOff(n)
		}
	})
	assert.Zero(t, allocs)
}
