package model

// FeatureStream is the engine's input contract: framewise pitch estimates
// plus detected onset timestamps, as produced by an upstream extractor.
// A pitch of 0.0 (or any non-positive value) marks an unpitched frame.
// OnsetTimes are seconds from the start of the recording, ascending.
type FeatureStream struct {
	PitchHz          []float64 `json:"pitch_hz"`
	OnsetTimes       []float64 `json:"onset_times"`
	TempoBPM         *float64  `json:"tempo_bpm,omitempty"`
	SpectralCentroid []float64 `json:"spectral_centroid,omitempty"`
}
