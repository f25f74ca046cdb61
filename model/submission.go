package model

import (
	"encoding/json"
	"time"
)

// Submission is one stored comparison run: who played, how they scored,
// and the assembled report document.
type Submission struct {
	ID            string            `json:"id"`
	CreatedAt     time.Time         `json:"created_at"`
	ReferenceName string            `json:"reference_name"`
	PlayerName    string            `json:"player_name"`
	Metrics       ComparisonMetrics `json:"metrics"`
	Report        json.RawMessage   `json:"report"`
	Feedback      string            `json:"feedback,omitempty"`
}

// SubmissionSummary is the listing view of a stored submission.
type SubmissionSummary struct {
	ID                string    `json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	PlayerName        string    `json:"player_name"`
	ReferenceName     string    `json:"reference_name"`
	OverallSimilarity float64   `json:"overall_similarity"`
}
