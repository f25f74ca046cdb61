// Package stream reads feature streams off the wire and scrubs them
// before they reach the analysis stages.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/seejho/etude/constants"
	"github.com/seejho/etude/model"
)

// ErrBadOnsets reports an onset sequence that is unusable: non-finite,
// negative, or out of order.
var ErrBadOnsets = errors.New("bad onset times")

// Read decodes a feature stream from JSON and sanitizes it.
func Read(r io.Reader) (model.FeatureStream, error) {
	var fs model.FeatureStream
	if err := json.NewDecoder(r).Decode(&fs); err != nil {
		return model.FeatureStream{}, fmt.Errorf("decode feature stream: %w", err)
	}
	return Sanitize(fs)
}

// ReadFile reads a feature stream from a JSON file.
func ReadFile(path string) (model.FeatureStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.FeatureStream{}, err
	}
	defer f.Close()
	fs, err := Read(f)
	if err != nil {
		return model.FeatureStream{}, fmt.Errorf("%s: %w", path, err)
	}
	return fs, nil
}

// Sanitize enforces the input contract the analysis stages rely on.
// Unusable pitch and centroid samples degrade to 0, which downstream
// already treats as silence. Broken onset sequences are refused
// outright because every later stage keys off onset order.
func Sanitize(fs model.FeatureStream) (model.FeatureStream, error) {
	out := model.FeatureStream{
		PitchHz:    make([]float64, len(fs.PitchHz)),
		OnsetTimes: make([]float64, len(fs.OnsetTimes)),
	}

	for i, hz := range fs.PitchHz {
		if math.IsNaN(hz) || math.IsInf(hz, 0) {
			hz = 0
		}
		out.PitchHz[i] = hz
	}

	prev := math.Inf(-1)
	for i, t := range fs.OnsetTimes {
		switch {
		case math.IsNaN(t) || math.IsInf(t, 0):
			return model.FeatureStream{}, fmt.Errorf("%w: onset %d is not finite", ErrBadOnsets, i)
		case t < 0:
			return model.FeatureStream{}, fmt.Errorf("%w: onset %d is negative", ErrBadOnsets, i)
		case t < prev:
			return model.FeatureStream{}, fmt.Errorf("%w: onset %d goes backwards", ErrBadOnsets, i)
		}
		prev = t
		out.OnsetTimes[i] = t
	}

	if len(fs.SpectralCentroid) > 0 {
		out.SpectralCentroid = make([]float64, len(fs.SpectralCentroid))
		for i, c := range fs.SpectralCentroid {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				c = 0
			}
			out.SpectralCentroid[i] = c
		}
	}

	if fs.TempoBPM != nil {
		if bpm := *fs.TempoBPM; !math.IsNaN(bpm) && !math.IsInf(bpm, 0) && bpm > 0 {
			out.TempoBPM = &bpm
		}
	}
	return out, nil
}

// Duration reports how long the stream runs: the last onset when there
// is one, otherwise the frame count on the fallback hop grid.
func Duration(fs model.FeatureStream) float64 {
	if n := len(fs.OnsetTimes); n > 0 {
		return fs.OnsetTimes[n-1]
	}
	return float64(len(fs.PitchHz)) * constants.DefaultFallbackHop
}
