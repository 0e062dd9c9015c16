package debug

import (
	"bytes"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name  string
		input []float32
		check func(t *testing.T, r AnalysisResult)
	}{
		{
			name:  "Empty",
			input: nil,
			check: func(t *testing.T, r AnalysisResult) {
				assert.True(t, r.Silent)
				assert.Zero(t, r.Samples)
			},
		},
		{
			name:  "Silence",
			input: make([]float32, 64),
			check: func(t *testing.T, r AnalysisResult) {
				assert.True(t, r.Silent)
				assert.Zero(t, r.Peak)
				assert.Zero(t, r.ZeroCrossings)
			},
		},
		{
			name:  "SquareWave",
			input: []float32{0.5, -0.5, 0.5, -0.5},
			check: func(t *testing.T, r AnalysisResult) {
				assert.InDelta(t, 0.5, r.Peak, 1e-6)
				assert.InDelta(t, 0.5, r.RMS, 1e-6)
				assert.InDelta(t, 0, r.DC, 1e-6)
				assert.Equal(t, 3, r.ZeroCrossings)
				assert.False(t, r.Silent)
				assert.False(t, r.Clipping())
			},
		},
		{
			name:  "Clipped",
			input: []float32{1, 0.2, -1, 0.995},
			check: func(t *testing.T, r AnalysisResult) {
				assert.Equal(t, 3, r.ClippedSamples)
				assert.True(t, r.Clipping())
			},
		},
		{
			name:  "NonFinite",
			input: []float32{float32(math.NaN()), 0.25, float32(math.Inf(-1)), 0.25},
			check: func(t *testing.T, r AnalysisResult) {
				assert.Equal(t, 1, r.NaNCount)
				assert.Equal(t, 1, r.InfCount)
				assert.Equal(t, 2, r.NonFinite())
				assert.InDelta(t, 0.25, r.RMS, 1e-6)
				assert.InDelta(t, 0.25, r.DC, 1e-6)
			},
		},
	}

	a := NewAudioAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, a.Analyze(tt.input))
		})
	}
}

func TestCheckBuffer(t *testing.T) {
	assert.Empty(t, CheckBuffer([]float32{0.1, -0.1}, "clean"))

	issues := CheckBuffer([]float32{float32(math.NaN()), 1.5, 1.5}, "dirty")
	require.Len(t, issues, 4)
	assert.Contains(t, issues[0], "NaN")
	assert.Contains(t, issues[1], "clipping")
	assert.Contains(t, issues[2], "DC offset")
	assert.Contains(t, issues[3], "peak exceeds")
}

func TestLogBufferStats(t *testing.T) {
	var buf bytes.Buffer
	old, oldLevel := Default().Out, Default().GetLevel()
	SetOutput(&buf)
	SetLevel(logrus.DebugLevel)
	defer func() {
		SetOutput(old)
		SetLevel(oldLevel)
	}()

	r := LogBufferStats([]float32{2, 2}, "out")
	assert.InDelta(t, 2, r.Peak, 1e-6)
	assert.Contains(t, buf.String(), "Audio buffer stats")
	assert.Contains(t, buf.String(), "peak exceeds")
}
