package debug

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// AudioAnalyzer measures host-format sample buffers.
type AudioAnalyzer struct {
	ClippingThreshold float32
	DCThreshold       float32
	SilenceThreshold  float32
}

// NewAudioAnalyzer creates an analyzer with default thresholds.
func NewAudioAnalyzer() *AudioAnalyzer {
	return &AudioAnalyzer{
		ClippingThreshold: 0.99,
		DCThreshold:       0.01,
		SilenceThreshold:  0.0001,
	}
}

// AnalysisResult contains the results of audio buffer analysis.
type AnalysisResult struct {
	Samples        int
	Peak           float32
	RMS            float32
	DC             float32
	ClippedSamples int
	Silent         bool
	NaNCount       int
	InfCount       int
	ZeroCrossings  int
}

// Clipping reports whether any sample reached the clipping threshold.
func (r AnalysisResult) Clipping() bool { return r.ClippedSamples > 0 }

// NonFinite is the number of NaN and infinite samples.
func (r AnalysisResult) NonFinite() int { return r.NaNCount + r.InfCount }

// Analyze measures buffer. Non-finite samples are counted and left out of
// the other figures.
func (a *AudioAnalyzer) Analyze(buffer []float32) AnalysisResult {
	result := AnalysisResult{Samples: len(buffer)}
	if len(buffer) == 0 {
		result.Silent = true
		return result
	}

	var sum, sumSquares float64
	var last float32
	finite := 0

	for _, sample := range buffer {
		s := float64(sample)
		switch {
		case math.IsNaN(s):
			result.NaNCount++
			continue
		case math.IsInf(s, 0):
			result.InfCount++
			continue
		}

		abs := float32(math.Abs(s))
		result.Peak = max(result.Peak, abs)
		if abs >= a.ClippingThreshold {
			result.ClippedSamples++
		}

		if finite > 0 && (last < 0) != (sample < 0) {
			result.ZeroCrossings++
		}
		last = sample

		sum += s
		sumSquares += s * s
		finite++
	}

	if finite > 0 {
		result.RMS = float32(math.Sqrt(sumSquares / float64(finite)))
		result.DC = float32(sum / float64(finite))
	}
	result.Silent = result.RMS < a.SilenceThreshold && result.NonFinite() == 0
	return result
}

// Check returns a description of every problem found in buffer.
func (a *AudioAnalyzer) Check(buffer []float32, name string) []string {
	var issues []string
	result := a.Analyze(buffer)

	if result.NaNCount > 0 {
		issues = append(issues, fmt.Sprintf("%s: contains %d NaN values", name, result.NaNCount))
	}
	if result.InfCount > 0 {
		issues = append(issues, fmt.Sprintf("%s: contains %d infinite values", name, result.InfCount))
	}
	if result.Clipping() {
		issues = append(issues, fmt.Sprintf("%s: clipping detected (%d samples)", name, result.ClippedSamples))
	}
	if math.Abs(float64(result.DC)) > float64(a.DCThreshold) {
		issues = append(issues, fmt.Sprintf("%s: DC offset detected (%.3f)", name, result.DC))
	}
	if result.Peak > 1.0 {
		issues = append(issues, fmt.Sprintf("%s: peak exceeds 1.0 (%.3f)", name, result.Peak))
	}
	return issues
}

var defaultAnalyzer = NewAudioAnalyzer()

// AnalyzeBuffer analyzes buffer with the default thresholds.
func AnalyzeBuffer(buffer []float32) AnalysisResult {
	return defaultAnalyzer.Analyze(buffer)
}

// CheckBuffer checks buffer with the default thresholds.
func CheckBuffer(buffer []float32, name string) []string {
	return defaultAnalyzer.Check(buffer, name)
}

// LogBufferStats logs the analysis of buffer at Debug level and any problems
// at Warn level.
func LogBufferStats(buffer []float32, name string) AnalysisResult {
	result := defaultAnalyzer.Analyze(buffer)

	logger.WithFields(logrus.Fields{
		"buffer":  name,
		"samples": result.Samples,
		"peak":    fmt.Sprintf("%.3f", result.Peak),
		"rms":     fmt.Sprintf("%.3f", result.RMS),
		"dc":      fmt.Sprintf("%.6f", result.DC),
		"silent":  result.Silent,
	}).Debug("Audio buffer stats")

	for _, issue := range defaultAnalyzer.Check(buffer, name) {
		logger.WithField("buffer", name).Warn(issue)
	}
	return result
}
