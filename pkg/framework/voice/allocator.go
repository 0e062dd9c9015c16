// Package voice assigns notes to a fixed pool of voices without allocating.
package voice

// AllocationMode defines how voices are allocated
type AllocationMode int

const (
	// ModePoly gives each note its own voice
	ModePoly AllocationMode = iota
	// ModeMono plays one voice at a time
	ModeMono
)

// StealingMode defines how voices are stolen when all are in use
type StealingMode int

const (
	// StealOldest steals the oldest playing voice
	StealOldest StealingMode = iota
	// StealQuietest steals the voice with lowest amplitude
	StealQuietest
	// StealNone doesn't steal - new notes are ignored when full
	StealNone
)

// Voice represents a single voice in the synthesizer
type Voice interface {
	// IsActive returns true if the voice is currently playing
	IsActive() bool
	// GetNote returns the MIDI note number this voice is playing
	GetNote() uint8
	// GetAmplitude returns the current amplitude (for steal quietest)
	GetAmplitude() float64
	// GetAge returns how long this voice has been playing (in samples)
	GetAge() int64
	// TriggerNote starts playing a note
	TriggerNote(note uint8, velocity uint8)
	// ReleaseNote releases the note
	ReleaseNote()
	// Stop immediately stops the voice
	Stop()
	// Process adds the voice's output into output
	Process(output []float64)
}

const noVoice = -1

// Allocator manages voice allocation for polyphonic synthesis.
// All bookkeeping lives in fixed arrays so note handling is safe on the
// render path.
type Allocator struct {
	voices        []Voice
	mode          AllocationMode
	stealingMode  StealingMode
	noteToVoice   [128]int
	lastTriggered int

	sustainPedal   bool
	sustainedNotes [128]bool
}

// NewAllocator creates a new voice allocator
func NewAllocator(voices []Voice) *Allocator {
	a := &Allocator{
		voices:       voices,
		mode:         ModePoly,
		stealingMode: StealOldest,
	}
	a.clearMap()
	return a
}

func (a *Allocator) clearMap() {
	for i := range a.noteToVoice {
		a.noteToVoice[i] = noVoice
	}
}

// SetMode sets the allocation mode
func (a *Allocator) SetMode(mode AllocationMode) {
	a.mode = mode
	a.Reset()
}

// SetStealingMode sets the voice stealing mode
func (a *Allocator) SetStealingMode(mode StealingMode) {
	a.stealingMode = mode
}

// NoteOn handles a note on event. Velocity 0 is a note off.
func (a *Allocator) NoteOn(note uint8, velocity uint8) {
	note &= 0x7F
	if velocity == 0 {
		a.NoteOff(note)
		return
	}
	a.sustainedNotes[note] = false

	if a.mode == ModeMono {
		a.noteOnMono(note, velocity)
		return
	}

	if idx := a.noteToVoice[note]; idx != noVoice {
		a.voices[idx].TriggerNote(note, velocity)
		return
	}

	idx := a.findFreeVoice()
	if idx == noVoice {
		idx = a.stealVoice()
		if idx == noVoice {
			return
		}
	}

	a.voices[idx].TriggerNote(note, velocity)
	a.noteToVoice[note] = idx
}

func (a *Allocator) noteOnMono(note uint8, velocity uint8) {
	if len(a.voices) == 0 {
		return
	}
	a.clearMap()
	a.voices[0].TriggerNote(note, velocity)
	a.noteToVoice[note] = 0
}

// NoteOff handles a note off event
func (a *Allocator) NoteOff(note uint8) {
	note &= 0x7F
	if a.sustainPedal {
		if a.noteToVoice[note] != noVoice {
			a.sustainedNotes[note] = true
		}
		return
	}
	a.release(note)
}

func (a *Allocator) release(note uint8) {
	idx := a.noteToVoice[note]
	if idx == noVoice {
		return
	}
	a.voices[idx].ReleaseNote()
	a.noteToVoice[note] = noVoice
}

// SetSustainPedal sets the sustain pedal state
func (a *Allocator) SetSustainPedal(on bool) {
	a.sustainPedal = on
	if on {
		return
	}
	for note, held := range a.sustainedNotes {
		if held {
			a.sustainedNotes[note] = false
			a.release(uint8(note))
		}
	}
}

// AllNotesOff releases every playing voice.
func (a *Allocator) AllNotesOff() {
	for _, v := range a.voices {
		if v.IsActive() {
			v.ReleaseNote()
		}
	}
	a.clearMap()
	a.sustainedNotes = [128]bool{}
}

// Reset stops all voices and clears allocations
func (a *Allocator) Reset() {
	for _, v := range a.voices {
		v.Stop()
	}
	a.clearMap()
	a.sustainedNotes = [128]bool{}
	a.sustainPedal = false
	a.lastTriggered = 0
}

// GetActiveVoiceCount returns the number of active voices
func (a *Allocator) GetActiveVoiceCount() int {
	count := 0
	for _, v := range a.voices {
		if v.IsActive() {
			count++
		}
	}
	return count
}

// Process mixes every active voice into output.
func (a *Allocator) Process(output []float64) {
	for _, v := range a.voices {
		if v.IsActive() {
			v.Process(output)
		}
	}
}

// findFreeVoice finds an inactive voice, round-robin
func (a *Allocator) findFreeVoice() int {
	n := len(a.voices)
	for i := 0; i < n; i++ {
		idx := (a.lastTriggered + i + 1) % n
		if !a.voices[idx].IsActive() {
			a.lastTriggered = idx
			return idx
		}
	}
	return noVoice
}

// stealVoice steals a voice based on the stealing mode
func (a *Allocator) stealVoice() int {
	if a.stealingMode == StealNone {
		return noVoice
	}

	bestIdx := noVoice
	var bestValue float64

	for i, v := range a.voices {
		if !v.IsActive() {
			continue
		}

		switch a.stealingMode {
		case StealOldest:
			age := float64(v.GetAge())
			if bestIdx == noVoice || age > bestValue {
				bestIdx = i
				bestValue = age
			}
		case StealQuietest:
			amp := v.GetAmplitude()
			if bestIdx == noVoice || amp < bestValue {
				bestIdx = i
				bestValue = amp
			}
		}
	}

	if bestIdx != noVoice {
		stolen := a.voices[bestIdx].GetNote()
		if a.noteToVoice[stolen] == bestIdx {
			a.noteToVoice[stolen] = noVoice
		}
		a.sustainedNotes[stolen] = false
		a.voices[bestIdx].Stop()
	}

	return bestIdx
}
