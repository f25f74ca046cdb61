package model

// NoteEvent is one sustained note recovered from a performance.
// NoteName and MidiNote reflect the pitch the note opened on; AvgPitchHz
// is the mean of every frame that fell inside the note.
type NoteEvent struct {
	NoteName   string  `json:"note_name"`
	MidiNote   uint8   `json:"midi_note"`
	StartTime  float64 `json:"start_time"`
	Duration   float64 `json:"duration"`
	AvgPitchHz float64 `json:"avg_pitch_hz"`
}

// RhythmPattern summarizes the spacing of onsets in a recording.
type RhythmPattern struct {
	OnsetTimes          []float64 `json:"onset_times"`
	InterOnsetIntervals []float64 `json:"inter_onset_intervals"`
	AvgInterval         float64   `json:"avg_interval"`
	TempoStability      float64   `json:"tempo_stability"`
}
