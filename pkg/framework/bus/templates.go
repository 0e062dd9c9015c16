package bus

// Common bus shapes

// DefaultSampleRate is used when the host has not told us otherwise.
const DefaultSampleRate = 44100.0

// StereoBus returns a deinterleaved two channel bus.
func StereoBus(name string, sampleRate float64) Descriptor {
	return Descriptor{
		Name:         name,
		ChannelCount: 2,
		SampleRate:   sampleRate,
		Format:       Float32Deinterleaved,
	}
}

// MonoBus returns a single channel bus.
func MonoBus(name string, sampleRate float64) Descriptor {
	return Descriptor{
		Name:         name,
		ChannelCount: 1,
		SampleRate:   sampleRate,
		Format:       Float32Deinterleaved,
	}
}

// NewStereo creates a stereo in / stereo out configuration.
func NewStereo(sampleRate float64) *Configuration {
	return NewConfiguration(StereoBus("Stereo In", sampleRate), StereoBus("Stereo Out", sampleRate))
}

// NewMono creates a mono in / mono out configuration.
func NewMono(sampleRate float64) *Configuration {
	return NewConfiguration(MonoBus("Mono In", sampleRate), MonoBus("Mono Out", sampleRate))
}

// NewDefault creates the stereo 44.1 kHz configuration a unit starts with.
func NewDefault() *Configuration {
	return NewStereo(DefaultSampleRate)
}
