package param

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmoother(t *testing.T) {
	t.Run("LinearSmoothing", func(t *testing.T) {
		smoother := NewSmoother(LinearSmoothing, 10) // 10 samples
		smoother.Reset(0.0)
		smoother.SetTarget(1.0)

		for i := 0; i < 10; i++ {
			assert.InDelta(t, float64(i+1)*0.1, smoother.Next(), 1e-9, "sample %d", i)
		}

		assert.Equal(t, 1.0, smoother.Next(), "should stay at target")
		assert.False(t, smoother.IsSmoothing())
	})

	t.Run("ExponentialSmoothing", func(t *testing.T) {
		smoother := NewSmoother(ExponentialSmoothing, 0.9)
		smoother.Reset(0.0)
		smoother.SetTarget(1.0)

		prev := 0.0
		for i := 0; i < 50; i++ {
			value := smoother.Next()
			assert.Greater(t, value, prev)
			assert.Less(t, value, 1.0)
			prev = value
		}

		for i := 0; i < 200; i++ {
			smoother.Next()
		}
		assert.False(t, smoother.IsSmoothing())
	})

	t.Run("Fill", func(t *testing.T) {
		smoother := NewSmoother(LinearSmoothing, 4)
		smoother.Reset(0.0)
		smoother.SetTarget(1.0)

		buf := make([]float64, 6)
		smoother.Fill(buf)
		assert.InDeltaSlice(t, []float64{0.25, 0.5, 0.75, 1, 1, 1}, buf, 1e-9)
	})

	t.Run("FillWhileIdle", func(t *testing.T) {
		smoother := NewSmoother(LinearSmoothing, 4)
		smoother.Reset(0.5)

		buf := make([]float64, 3)
		smoother.Fill(buf)
		assert.Equal(t, []float64{0.5, 0.5, 0.5}, buf)
	})

	t.Run("ContinuesAcrossCalls", func(t *testing.T) {
		smoother := NewSmoother(LinearSmoothing, 8)
		smoother.Reset(0)
		smoother.SetTarget(1)

		first := make([]float64, 4)
		second := make([]float64, 4)
		smoother.Fill(first)
		smoother.Fill(second)
		assert.InDelta(t, 0.5, first[3], 1e-9)
		assert.InDelta(t, 0.625, second[0], 1e-9)
		assert.InDelta(t, 1.0, second[3], 1e-9)
	})

	t.Run("SetTime", func(t *testing.T) {
		smoother := NewSmoother(LinearSmoothing, 0)
		smoother.SetTime(48000, 0.01)
		smoother.Reset(0)
		smoother.SetTarget(1)

		n := 0
		for smoother.IsSmoothing() {
			smoother.Next()
			n++
		}
		assert.InDelta(t, 480, n, 1)
	})

	t.Run("ZeroRateJumps", func(t *testing.T) {
		smoother := NewSmoother(LinearSmoothing, 0)
		smoother.Reset(0)
		smoother.SetTarget(2)
		assert.False(t, smoother.IsSmoothing())
		assert.Equal(t, 2.0, smoother.Next())
	})
}
