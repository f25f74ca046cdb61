package rhythm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeEvenOnsets(t *testing.T) {
	onsets := make([]float64, 10)
	for i := range onsets {
		onsets[i] = float64(i) * 0.5
	}

	pattern := Analyze(onsets)

	assert := assert.New(t)
	assert.Len(pattern.InterOnsetIntervals, 9)
	assert.InDelta(0.5, pattern.AvgInterval, 1e-9)
	// No variation at all: stability is exactly 1.
	assert.InDelta(1.0, pattern.TempoStability, 1e-9)
	assert.Greater(pattern.TempoStability, 0.8)
}

func TestAnalyzeIrregularOnsets(t *testing.T) {
	even := Analyze([]float64{0, 0.5, 1.0, 1.5, 2.0})
	ragged := Analyze([]float64{0, 0.2, 1.1, 1.3, 2.4})

	assert := assert.New(t)
	assert.Less(ragged.TempoStability, even.TempoStability)
	assert.Greater(ragged.TempoStability, 0.0)
}

func TestAnalyzeEmpty(t *testing.T) {
	pattern := Analyze(nil)

	assert := assert.New(t)
	assert.Empty(pattern.OnsetTimes)
	assert.Empty(pattern.InterOnsetIntervals)
	assert.Equal(0.0, pattern.AvgInterval)
	assert.Equal(0.0, pattern.TempoStability)
}

func TestAnalyzeSingleOnset(t *testing.T) {
	pattern := Analyze([]float64{1.25})

	assert := assert.New(t)
	assert.Len(pattern.OnsetTimes, 1)
	assert.Empty(pattern.InterOnsetIntervals)
	assert.Equal(0.0, pattern.AvgInterval)
	assert.Equal(0.0, pattern.TempoStability)
}

func TestAnalyzeSingleIntervalHasNoStability(t *testing.T) {
	// One interval cannot show variation, so stability stays 0.
	pattern := Analyze([]float64{0, 0.5})

	assert := assert.New(t)
	assert.Len(pattern.InterOnsetIntervals, 1)
	assert.InDelta(0.5, pattern.AvgInterval, 1e-9)
	assert.Equal(0.0, pattern.TempoStability)
}

func TestAnalyzeCopiesOnsets(t *testing.T) {
	onsets := []float64{0, 0.5, 1.0}
	pattern := Analyze(onsets)

	onsets[0] = 99

	assert.InDelta(t, 0.0, pattern.OnsetTimes[0], 1e-9)
}
