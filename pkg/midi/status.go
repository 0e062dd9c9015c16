package midi

// StatusType is the high nibble of a channel voice status byte.
type StatusType uint8

const (
	StatusNoteOff              StatusType = 0x8
	StatusNoteOn               StatusType = 0x9
	StatusPolyphonicAftertouch StatusType = 0xA
	StatusControllerChange     StatusType = 0xB
	StatusProgramChange        StatusType = 0xC
	StatusChannelAftertouch    StatusType = 0xD
	StatusPitchWheel           StatusType = 0xE
	// StatusSystem covers 0xF0-0xFF; those messages are relayed untouched.
	StatusSystem StatusType = 0xF
)

// StatusTypeFrom returns the status type of a status byte. ok is false for
// data bytes (high bit clear).
func StatusTypeFrom(b byte) (t StatusType, ok bool) {
	if b&0x80 == 0 {
		return 0, false
	}
	return StatusType(b >> 4), true
}

// Length is the full message length in bytes including the status byte.
// System messages report 0: their length depends on the second nibble.
func (t StatusType) Length() int {
	switch t {
	case StatusProgramChange, StatusChannelAftertouch:
		return 2
	case StatusNoteOff, StatusNoteOn, StatusControllerChange, StatusPitchWheel, StatusPolyphonicAftertouch:
		return 3
	default:
		return 0
	}
}

// String returns a printable name.
func (t StatusType) String() string {
	switch t {
	case StatusNoteOff:
		return "Note Off"
	case StatusNoteOn:
		return "Note On"
	case StatusPolyphonicAftertouch:
		return "Polyphonic Aftertouch / Pressure"
	case StatusControllerChange:
		return "Control Change"
	case StatusProgramChange:
		return "Program Change"
	case StatusChannelAftertouch:
		return "Channel Aftertouch / Pressure"
	case StatusPitchWheel:
		return "Pitch Wheel"
	case StatusSystem:
		return "System"
	default:
		return "Unknown"
	}
}

// systemLength returns the length of a system message with the given status
// byte, or 0 for sysex and undefined bytes, which are not carried.
func systemLength(status byte) int {
	switch status {
	case 0xF1, 0xF3:
		return 2
	case 0xF2:
		return 3
	case 0xF6, 0xF8, 0xFA, 0xFB, 0xFC, 0xFE, 0xFF:
		return 1
	default:
		return 0
	}
}
