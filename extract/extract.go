// Package extract turns decoded PCM samples into a feature stream.
//
// The analysis is mono and offline: a Hann-windowed FFT per frame for
// pitch and spectral centroid, an energy gate for onsets, and a median
// inter-onset interval for the tempo estimate. It is not a polyphonic
// transcriber; the dominant spectral peak wins.
package extract

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"

	"github.com/seejho/etude/model"
)

// Config holds the frame and onset parameters.
type Config struct {
	// WindowSize is the FFT frame length in samples.
	WindowSize int
	// HopSize is the frame advance in samples.
	HopSize int
	// SilenceRMS is the frame energy below which a frame counts as
	// silent and emits no pitch.
	SilenceRMS float64
	// AttackRatio is how much a frame's RMS must exceed the previous
	// frame's to register an onset.
	AttackRatio float64
	// MinOnsetGap is the re-trigger separation in seconds.
	MinOnsetGap float64
}

func DefaultConfig() Config {
	return Config{
		WindowSize:  2048,
		HopSize:     512,
		SilenceRMS:  0.01,
		AttackRatio: 2.0,
		MinOnsetGap: 0.1,
	}
}

// Extract analyzes mono PCM samples in [-1, 1] and returns one pitch
// and centroid value per frame plus detected onsets. Input shorter
// than one frame yields an empty stream.
func Extract(samples []float64, sampleRate int, cfg Config) model.FeatureStream {
	out := model.FeatureStream{
		PitchHz:          []float64{},
		OnsetTimes:       []float64{},
		SpectralCentroid: []float64{},
	}
	if sampleRate <= 0 || cfg.WindowSize <= 0 || cfg.HopSize <= 0 || len(samples) < cfg.WindowSize {
		return out
	}

	hann := window.Hann(cfg.WindowSize)
	windowed := make([]float64, cfg.WindowSize)
	binHz := float64(sampleRate) / float64(cfg.WindowSize)

	prevRMS := 0.0
	for start := 0; start+cfg.WindowSize <= len(samples); start += cfg.HopSize {
		frame := samples[start : start+cfg.WindowSize]
		t := float64(start) / float64(sampleRate)

		r := rms(frame)
		attack := r >= cfg.SilenceRMS && (prevRMS < cfg.SilenceRMS || r >= cfg.AttackRatio*prevRMS)
		if attack && (len(out.OnsetTimes) == 0 || t-out.OnsetTimes[len(out.OnsetTimes)-1] >= cfg.MinOnsetGap) {
			out.OnsetTimes = append(out.OnsetTimes, t)
		}
		prevRMS = r

		if r < cfg.SilenceRMS {
			out.PitchHz = append(out.PitchHz, 0)
			out.SpectralCentroid = append(out.SpectralCentroid, 0)
			continue
		}

		for i, s := range frame {
			windowed[i] = s * hann[i]
		}
		spectrum := fft.FFTReal(windowed)
		mags := make([]float64, cfg.WindowSize/2)
		for k := range mags {
			mags[k] = cmplx.Abs(spectrum[k])
		}

		out.PitchHz = append(out.PitchHz, dominantHz(mags, binHz))
		out.SpectralCentroid = append(out.SpectralCentroid, centroid(mags, binHz))
	}

	if bpm, ok := tempoBPM(out.OnsetTimes); ok {
		out.TempoBPM = &bpm
	}
	return out
}

func rms(frame []float64) float64 {
	sum := 0.0
	for _, s := range frame {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// dominantHz finds the strongest non-DC bin and refines it with
// parabolic interpolation over the neighboring magnitudes.
func dominantHz(mags []float64, binHz float64) float64 {
	if len(mags) < 2 {
		return 0
	}
	k := floats.MaxIdx(mags[1:]) + 1
	return (float64(k) + peakOffset(mags, k)) * binHz
}

// peakOffset fits a parabola through the peak bin and its neighbors.
// The result stays within half a bin of the raw maximum.
func peakOffset(mags []float64, k int) float64 {
	if k <= 0 || k+1 >= len(mags) {
		return 0
	}
	alpha, beta, gamma := mags[k-1], mags[k], mags[k+1]
	den := alpha - 2*beta + gamma
	if den == 0 {
		return 0
	}
	delta := 0.5 * (alpha - gamma) / den
	return math.Max(-0.5, math.Min(0.5, delta))
}

// centroid is the magnitude-weighted mean frequency, DC excluded.
func centroid(mags []float64, binHz float64) float64 {
	var weighted, total float64
	for k := 1; k < len(mags); k++ {
		weighted += float64(k) * binHz * mags[k]
		total += mags[k]
	}
	if total < 1e-12 {
		return 0
	}
	return weighted / total
}

// tempoBPM estimates tempo from the median inter-onset interval.
func tempoBPM(onsets []float64) (float64, bool) {
	if len(onsets) < 2 {
		return 0, false
	}
	intervals := make([]float64, 0, len(onsets)-1)
	for i := 1; i < len(onsets); i++ {
		intervals = append(intervals, onsets[i]-onsets[i-1])
	}
	sort.Float64s(intervals)
	mid := len(intervals) / 2
	median := intervals[mid]
	if len(intervals)%2 == 0 {
		median = (intervals[mid-1] + intervals[mid]) / 2
	}
	if median <= 0 {
		return 0, false
	}
	return 60 / median, true
}
