package stream

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seejho/etude/model"
)

func TestReadValidJSON(t *testing.T) {
	in := `{"pitch_hz":[440,0,493.88],"onset_times":[0,0.5,1.0],"tempo_bpm":120}`

	fs, err := Read(strings.NewReader(in))

	require.NoError(t, err)
	assert.Equal(t, []float64{440, 0, 493.88}, fs.PitchHz)
	assert.Equal(t, []float64{0, 0.5, 1.0}, fs.OnsetTimes)
	require.NotNil(t, fs.TempoBPM)
	assert.Equal(t, 120.0, *fs.TempoBPM)
}

func TestReadRejectsMalformedJSON(t *testing.T) {
	_, err := Read(strings.NewReader(`{"pitch_hz": [440,`))
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pitch_hz":[440],"onset_times":[0]}`), 0o644))

	fs, err := ReadFile(path)

	require.NoError(t, err)
	assert.Equal(t, []float64{440}, fs.PitchHz)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestSanitizeClampsUnusablePitch(t *testing.T) {
	fs, err := Sanitize(model.FeatureStream{
		PitchHz: []float64{440, math.NaN(), math.Inf(1), -5, 0},
	})

	require.NoError(t, err)
	assert.Equal(t, []float64{440, 0, 0, -5, 0}, fs.PitchHz)
}

func TestSanitizeRejectsBrokenOnsets(t *testing.T) {
	cases := map[string][]float64{
		"nan":       {0, math.NaN()},
		"inf":       {0, math.Inf(1)},
		"negative":  {-0.5, 0},
		"backwards": {0, 1.0, 0.5},
	}
	for name, onsets := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Sanitize(model.FeatureStream{OnsetTimes: onsets})
			assert.ErrorIs(t, err, ErrBadOnsets)
		})
	}
}

func TestSanitizeAllowsSimultaneousOnsets(t *testing.T) {
	fs, err := Sanitize(model.FeatureStream{OnsetTimes: []float64{0, 0.5, 0.5, 1.0}})

	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 0.5, 1.0}, fs.OnsetTimes)
}

func TestSanitizeTempo(t *testing.T) {
	keep := 96.0
	fs, err := Sanitize(model.FeatureStream{TempoBPM: &keep})
	require.NoError(t, err)
	require.NotNil(t, fs.TempoBPM)
	assert.Equal(t, 96.0, *fs.TempoBPM)

	for _, bad := range []float64{0, -10, math.NaN(), math.Inf(1)} {
		bpm := bad
		fs, err = Sanitize(model.FeatureStream{TempoBPM: &bpm})
		require.NoError(t, err)
		assert.Nil(t, fs.TempoBPM)
	}
}

func TestSanitizeCentroid(t *testing.T) {
	fs, err := Sanitize(model.FeatureStream{
		SpectralCentroid: []float64{1000, math.NaN(), 2000},
	})

	require.NoError(t, err)
	assert.Equal(t, []float64{1000, 0, 2000}, fs.SpectralCentroid)
}

func TestDuration(t *testing.T) {
	withOnsets := model.FeatureStream{
		PitchHz:    []float64{440, 440},
		OnsetTimes: []float64{0, 2.5},
	}
	assert.Equal(t, 2.5, Duration(withOnsets))

	framesOnly := model.FeatureStream{PitchHz: make([]float64, 300)}
	assert.InDelta(t, 3.0, Duration(framesOnly), 1e-9)
}
