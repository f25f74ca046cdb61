// Package feedback turns analysis results into teacher-style
// commentary through a language model.
package feedback

import (
	"context"
	"fmt"

	"github.com/seejho/etude/model"
)

// Client produces written feedback. Implementations must be safe for
// concurrent use.
type Client interface {
	// Comparison comments on a scored performance against its reference.
	Comparison(ctx context.Context, m model.ComparisonMetrics, referenceName, playerName string) (string, error)
	// Analysis comments on a single recording with no reference.
	Analysis(ctx context.Context, fs model.FeatureStream, notes []model.NoteEvent, name string) (string, error)
}

func comparisonPrompt(m model.ComparisonMetrics, referenceName, playerName string) string {
	return fmt.Sprintf(
		"I'm comparing a student's performance to a reference recording.\n\n"+
			"Reference: %s\n"+
			"Student: %s\n\n"+
			"Performance Metrics:\n"+
			"- Overall Similarity: %.1f%%\n"+
			"- Note Accuracy: %.1f%%\n"+
			"- Pitch Accuracy: %.1f%%\n"+
			"- Timing Accuracy: %.1f%%\n"+
			"- Rhythm Accuracy: %.1f%%\n\n"+
			"Errors Found:\n"+
			"- Missed Notes: %d\n"+
			"- Extra Notes: %d\n"+
			"- Pitch Errors: %d instances\n"+
			"- Timing Errors: %d instances\n\n"+
			"Please provide constructive feedback focusing on:\n"+
			"1. What the student did well\n"+
			"2. Specific areas for improvement\n"+
			"3. Practice suggestions\n"+
			"4. Overall assessment",
		referenceName,
		playerName,
		m.OverallSimilarity*100,
		m.NoteAccuracy*100,
		m.PitchAccuracy*100,
		m.TimingAccuracy*100,
		m.RhythmAccuracy*100,
		len(m.MissedNotes),
		len(m.ExtraNotes),
		len(m.PitchErrors),
		len(m.TimingErrors),
	)
}

func analysisPrompt(fs model.FeatureStream, notes []model.NoteEvent, name string) string {
	firstPitch := 0.0
	if len(fs.PitchHz) > 0 {
		firstPitch = fs.PitchHz[0]
	}
	tempo := "N/A"
	if fs.TempoBPM != nil {
		tempo = fmt.Sprintf("%.1f bpm", *fs.TempoBPM)
	}
	names := make([]string, 0, 10)
	for _, n := range notes {
		if len(names) == 10 {
			break
		}
		names = append(names, n.NoteName)
	}

	return fmt.Sprintf(
		"Analyze this recording. Provide feedback on timing, accuracy, and tone.\n\n"+
			"Features extracted:\n"+
			"- First detected pitch: %.2f Hz\n"+
			"- Tempo: %s\n"+
			"- Number of onsets: %d\n"+
			"- Detected %d distinct notes: %v\n\n"+
			"File: %s",
		firstPitch,
		tempo,
		len(fs.OnsetTimes),
		len(notes),
		names,
		name,
	)
}
