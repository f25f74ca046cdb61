// Package rhythm reduces an onset sequence to its inter-onset profile.
package rhythm

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/seejho/etude/model"
)

// Analyze computes the inter-onset intervals of a recording along with
// their mean and a stability score. Stability is 1/(1+cv) capped at 1,
// where cv is the coefficient of variation of the intervals (population
// standard deviation over mean); perfectly even playing scores exactly
// 1.0. Fewer than two intervals leave stability at 0.
func Analyze(onsets []float64) model.RhythmPattern {
	pattern := model.RhythmPattern{
		OnsetTimes:          make([]float64, len(onsets)),
		InterOnsetIntervals: make([]float64, 0),
	}
	copy(pattern.OnsetTimes, onsets)

	for i := 1; i < len(onsets); i++ {
		pattern.InterOnsetIntervals = append(pattern.InterOnsetIntervals, onsets[i]-onsets[i-1])
	}

	if len(pattern.InterOnsetIntervals) > 0 {
		pattern.AvgInterval = stat.Mean(pattern.InterOnsetIntervals, nil)
	}
	if len(pattern.InterOnsetIntervals) > 1 && pattern.AvgInterval > 0 {
		cv := stat.PopStdDev(pattern.InterOnsetIntervals, nil) / pattern.AvgInterval
		pattern.TempoStability = math.Min(1.0, 1.0/(1.0+cv))
	}
	return pattern
}
