package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplates(t *testing.T) {
	tests := []struct {
		name     string
		config   *Configuration
		channels int
		rate     float64
	}{
		{"Stereo", NewStereo(48000), 2, 48000},
		{"Mono", NewMono(96000), 1, 96000},
		{"Default", NewDefault(), 2, DefaultSampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, tt.config.Validate())
			for _, d := range []Descriptor{tt.config.Input(), tt.config.Output()} {
				assert.Equal(t, tt.channels, d.ChannelCount)
				assert.Equal(t, tt.rate, d.SampleRate)
				assert.Equal(t, Float32Deinterleaved, d.Format)
			}
			assert.False(t, tt.config.IsFrozen())
		})
	}
}
