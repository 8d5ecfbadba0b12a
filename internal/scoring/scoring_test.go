package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/memory-stream/internal/model"
)

func TestScore_PaperValues(t *testing.T) {
	tests := []struct {
		relevance, recency, importance float64
		want                           float64
	}{
		{0.91, 0.63, 0.80, 2.34},
		{0.87, 0.63, 0.71, 2.21},
		{0.85, 0.73, 0.62, 2.20},
	}
	for _, tt := range tests {
		got := Score(tt.relevance, tt.recency, tt.importance)
		assert.InDelta(t, tt.want, got, 1e-9)
	}
}

func TestScore_LinearInEachArgument(t *testing.T) {
	w := Weights{Alpha: 0.5, Beta: 2, Gamma: 1.5}
	base := w.Score(0.2, 0.3, 0.4)

	assert.InDelta(t, base+0.5*0.1, w.Score(0.3, 0.3, 0.4), 1e-12)
	assert.InDelta(t, base+2*0.1, w.Score(0.2, 0.4, 0.4), 1e-12)
	assert.InDelta(t, base+1.5*0.1, w.Score(0.2, 0.3, 0.5), 1e-12)

	// order preserving with the others fixed
	for _, lo := range []float64{-1, 0, 0.25, 0.5} {
		hi := lo + 0.25
		assert.Less(t, w.Score(lo, 0.5, 0.5), w.Score(hi, 0.5, 0.5))
		assert.Less(t, w.Score(0.5, lo, 0.5), w.Score(0.5, hi, 0.5))
		assert.Less(t, w.Score(0.5, 0.5, lo), w.Score(0.5, 0.5, hi))
	}
}

func TestRelevance_NotClamped(t *testing.T) {
	assert.Equal(t, 1.0, Relevance(0))
	assert.Equal(t, -1.0, Relevance(2))
	assert.InDelta(t, -0.5, Relevance(1.5), 1e-12)
}

func TestRecency(t *testing.T) {
	t0 := time.Date(2023, 6, 6, 0, 0, 0, 0, time.UTC)

	r, err := Recency(t0, t0, DefaultDecayRate)
	require.NoError(t, err)
	assert.Equal(t, 1.0, r)

	r, err = Recency(t0.Add(2*time.Second), t0, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(-1), r, 1e-12)

	r, err = Recency(t0.Add(time.Hour), t0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, r)
}

func TestRecency_OutOfOrder(t *testing.T) {
	t0 := time.Date(2023, 6, 6, 0, 0, 0, 0, time.UTC)
	_, err := Recency(t0, t0.Add(time.Microsecond), DefaultDecayRate)
	require.ErrorIs(t, err, model.ErrOutOfOrder)
}

func TestRecency_InvalidDecay(t *testing.T) {
	t0 := time.Now()
	for _, rate := range []float64{-0.1, math.NaN(), math.Inf(1)} {
		_, err := Recency(t0, t0, rate)
		assert.ErrorIs(t, err, model.ErrRange, "rate %v", rate)
	}
}

func TestNormalizeImportance(t *testing.T) {
	v, err := NormalizeImportance(1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	v, err = NormalizeImportance(10)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	v, err = NormalizeImportance(4)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, v, 1e-12)

	for _, bad := range []int{0, 11, -3} {
		_, err := NormalizeImportance(bad)
		assert.ErrorIs(t, err, model.ErrRange, "rating %d", bad)
	}
}
