package model

// ComparisonMetrics is the full scorecard for one played performance
// measured against a reference.
type ComparisonMetrics struct {
	PitchAccuracy     float64       `json:"pitch_accuracy"`
	RhythmAccuracy    float64       `json:"rhythm_accuracy"`
	TimingAccuracy    float64       `json:"timing_accuracy"`
	NoteAccuracy      float64       `json:"note_accuracy"`
	OverallSimilarity float64       `json:"overall_similarity"`
	MissedNotes       []string      `json:"missed_notes"`
	ExtraNotes        []string      `json:"extra_notes"`
	PitchErrors       []PitchError  `json:"pitch_errors"`
	TimingErrors      []TimingError `json:"timing_errors"`
}

// PitchError records a matched note played out of tune. CentDifference
// is signed: positive means the played note was sharp.
type PitchError struct {
	Time           float64 `json:"time"`
	ExpectedNote   string  `json:"expected_note"`
	PlayedNote     string  `json:"played_note"`
	CentDifference float64 `json:"cent_difference"`
}

// TimingError records a matched note played noticeably early or late.
type TimingError struct {
	Note         string  `json:"note"`
	ExpectedTime float64 `json:"expected_time"`
	PlayedTime   float64 `json:"played_time"`
	MsDifference float64 `json:"ms_difference"`
}
