package model

import "encoding/json"

// CompareRequest carries the two feature streams to score against each
// other. Names are optional labels that end up in reports and listings.
type CompareRequest struct {
	Reference     FeatureStream `json:"reference"`
	Player        FeatureStream `json:"player"`
	ReferenceName string        `json:"reference_name,omitempty"`
	PlayerName    string        `json:"player_name,omitempty"`
	WantFeedback  bool          `json:"want_feedback,omitempty"`
}

type CompareResponse struct {
	ID       string            `json:"id"`
	Metrics  ComparisonMetrics `json:"metrics"`
	Report   json.RawMessage   `json:"report"`
	Feedback string            `json:"feedback,omitempty"`
}

// AnalyzeRequest carries a single stream for a standalone analysis.
type AnalyzeRequest struct {
	Player FeatureStream `json:"player"`
	Name   string        `json:"name,omitempty"`
}

type AnalyzeResponse struct {
	Notes  []NoteEvent     `json:"notes"`
	Rhythm RhythmPattern   `json:"rhythm"`
	Report json.RawMessage `json:"report"`
}

// LiveChunk is one websocket message from a client streaming features
// as they play. Finish asks for the end-of-stream flush.
type LiveChunk struct {
	PitchHz    []float64 `json:"pitch_hz"`
	OnsetTimes []float64 `json:"onset_times"`
	Finish     bool      `json:"finish,omitempty"`
}

// LiveUpdate is pushed back over the same socket: every note completed
// so far plus the one still sounding, if any.
type LiveUpdate struct {
	Notes   []NoteEvent   `json:"notes"`
	Pending *NoteEvent    `json:"pending,omitempty"`
	Rhythm  RhythmPattern `json:"rhythm"`
	Final   bool          `json:"final,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
