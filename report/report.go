// Package report assembles the machine-readable analysis exports.
//
// The compact report is tuned for a small context window: statistics
// instead of raw frames, formatted strings instead of full-precision
// floats, and pitch/timing digests capped at the ten worst entries.
// Missed and extra notes are always listed in full. The verbose report
// wraps the same document with the untruncated material for archival.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/seejho/etude/extract"
	"github.com/seejho/etude/model"
	"github.com/seejho/etude/pitch"
	"github.com/seejho/etude/stream"
)

const FormatVersion = "2.0-optimized"

const compareInstructions = "You are analyzing a student's performance compared to a reference recording. " +
	"The 'comparison' section provides detailed metrics about accuracy. Focus on:\n" +
	"1. Overall similarity score and what it means\n" +
	"2. Specific errors in pitch, timing, and rhythm\n" +
	"3. Missed or extra notes\n" +
	"4. Constructive feedback on how to improve\n" +
	"5. Positive reinforcement for what was done well\n\n" +
	"Use the note sequences and rhythm patterns to understand the musical context. " +
	"Be specific about which notes or sections need work."

const analyzeInstructions = "You are analyzing a recording of a musical performance. " +
	"Use the provided statistics and patterns to:\n" +
	"1. Identify the musical content (notes, rhythm, tempo)\n" +
	"2. Assess the overall quality and technique\n" +
	"3. Provide constructive feedback\n" +
	"4. Suggest areas for improvement\n\n" +
	"Consider pitch stability, rhythm consistency, and note accuracy."

// PitchStats summarizes the voiced pitch material of one recording.
type PitchStats struct {
	AverageHz           float64 `json:"average_hz"`
	AverageNote         string  `json:"average_note"`
	MinHz               float64 `json:"min_hz"`
	MinNote             string  `json:"min_note"`
	MaxHz               float64 `json:"max_hz"`
	MaxNote             string  `json:"max_note"`
	PitchRangeSemitones float64 `json:"pitch_range_semitones"`
	PitchStability      float64 `json:"pitch_stability"`
}

// NoteSummary is one note with display-precision fields.
type NoteSummary struct {
	Note     string `json:"note"`
	Time     string `json:"time"`
	Duration string `json:"duration"`
}

type NotesBlock struct {
	TotalNotes   int           `json:"total_notes"`
	UniqueNotes  []string      `json:"unique_notes"`
	NoteSequence []NoteSummary `json:"note_sequence"`
}

type RhythmBlock struct {
	TotalOnsets       int      `json:"total_onsets"`
	AverageIntervalMs float64  `json:"average_note_interval_ms"`
	TempoStability    string   `json:"tempo_stability"`
	TempoBPM          *float64 `json:"tempo_bpm,omitempty"`
}

// Analysis is the per-recording digest embedded in reports.
type Analysis struct {
	Name       string      `json:"name"`
	Duration   float64     `json:"duration_seconds"`
	Pitch      *PitchStats `json:"pitch_statistics,omitempty"`
	Notes      NotesBlock  `json:"notes"`
	Rhythm     RhythmBlock `json:"rhythm"`
	CentroidHz *float64    `json:"average_spectral_centroid_hz,omitempty"`
}

type Scores struct {
	NoteAccuracy   string `json:"note_accuracy"`
	PitchAccuracy  string `json:"pitch_accuracy"`
	TimingAccuracy string `json:"timing_accuracy"`
	RhythmAccuracy string `json:"rhythm_accuracy"`
}

type PitchErrorLine struct {
	Time     string `json:"time"`
	Expected string `json:"expected"`
	Played   string `json:"played"`
	CentsOff string `json:"cents_off"`
}

type TimingErrorLine struct {
	Note         string `json:"note"`
	ExpectedTime string `json:"expected_time"`
	PlayedTime   string `json:"played_time"`
	MsLate       string `json:"ms_late"`
}

// ErrorDigest lists every missed and extra note plus the ten worst
// pitch and timing errors.
type ErrorDigest struct {
	MissedNotes  []string          `json:"missed_notes"`
	ExtraNotes   []string          `json:"extra_notes"`
	PitchErrors  []PitchErrorLine  `json:"pitch_errors"`
	TimingErrors []TimingErrorLine `json:"timing_errors"`
}

type Comparison struct {
	OverallSimilarity string      `json:"overall_similarity"`
	Scores            Scores      `json:"scores"`
	Errors            ErrorDigest `json:"errors"`
	Summary           string      `json:"summary"`
}

// Context records the analysis parameters a reader needs to interpret
// frame-derived values.
type Context struct {
	SampleRate string `json:"sample_rate"`
	WindowSize int    `json:"window_size"`
	HopSize    int    `json:"hop_size"`
}

// Report is the compact export.
type Report struct {
	FormatVersion string      `json:"format_version"`
	Instructions  string      `json:"instructions"`
	Player        Analysis    `json:"player"`
	Reference     *Analysis   `json:"reference,omitempty"`
	Comparison    *Comparison `json:"comparison,omitempty"`
	Context       Context     `json:"context"`
}

// VerboseReport carries the compact document plus everything it
// truncates.
type VerboseReport struct {
	Report
	PlayerEvents    []model.NoteEvent        `json:"player_events"`
	ReferenceEvents []model.NoteEvent        `json:"reference_events,omitempty"`
	Metrics         *model.ComparisonMetrics `json:"metrics,omitempty"`
}

// Assemble digests one recording. The pitch statistics come from the
// voiced frames when there are any, otherwise from the note events,
// which covers references loaded from MIDI where no frames exist.
func Assemble(name string, fs model.FeatureStream, notes []model.NoteEvent, pattern model.RhythmPattern) Analysis {
	a := Analysis{
		Name:     name,
		Duration: stream.Duration(fs),
		Notes:    notesBlock(notes),
		Rhythm:   rhythmBlock(fs, pattern),
	}
	if a.Duration == 0 && len(notes) > 0 {
		last := notes[len(notes)-1]
		a.Duration = last.StartTime + last.Duration
	}

	voiced := make([]float64, 0, len(fs.PitchHz))
	for _, hz := range fs.PitchHz {
		if hz > 0 {
			voiced = append(voiced, hz)
		}
	}
	if len(voiced) == 0 {
		for _, n := range notes {
			if n.AvgPitchHz > 0 {
				voiced = append(voiced, n.AvgPitchHz)
			}
		}
	}
	a.Pitch = pitchStats(voiced)

	if len(fs.SpectralCentroid) > 0 {
		avg := stat.Mean(fs.SpectralCentroid, nil)
		a.CentroidHz = &avg
	}
	return a
}

// Compact builds the small-context report. A nil metrics means a
// standalone analysis with no comparison block.
func Compact(player Analysis, reference *Analysis, m *model.ComparisonMetrics) Report {
	r := Report{
		FormatVersion: FormatVersion,
		Instructions:  analyzeInstructions,
		Player:        player,
		Reference:     reference,
		Context: Context{
			SampleRate: "analyzed",
			WindowSize: extract.DefaultConfig().WindowSize,
			HopSize:    extract.DefaultConfig().HopSize,
		},
	}
	if m != nil {
		r.Instructions = compareInstructions
		r.Comparison = comparison(*m)
	}
	return r
}

// Verbose wraps the compact report with the untruncated event and
// error lists.
func Verbose(player Analysis, playerEvents []model.NoteEvent, reference *Analysis, referenceEvents []model.NoteEvent, m *model.ComparisonMetrics) VerboseReport {
	return VerboseReport{
		Report:          Compact(player, reference, m),
		PlayerEvents:    playerEvents,
		ReferenceEvents: referenceEvents,
		Metrics:         m,
	}
}

// Summary renders the tiered text verdict with a line per weak area.
func Summary(m model.ComparisonMetrics) string {
	var parts []string

	switch {
	case m.OverallSimilarity >= 0.9:
		parts = append(parts, "Excellent performance! Very close to the reference.")
	case m.OverallSimilarity >= 0.75:
		parts = append(parts, "Good performance with minor errors.")
	case m.OverallSimilarity >= 0.5:
		parts = append(parts, "Fair performance. Several areas need improvement.")
	default:
		parts = append(parts, "Needs significant practice. Many errors detected.")
	}

	if m.NoteAccuracy < 0.7 {
		parts = append(parts, fmt.Sprintf("Note accuracy is low (%.0f%%). Focus on playing the correct notes.", m.NoteAccuracy*100))
	}
	if m.PitchAccuracy < 0.7 {
		parts = append(parts, fmt.Sprintf("Pitch accuracy needs work (%.0f%%). Notes are out of tune.", m.PitchAccuracy*100))
	}
	if m.TimingAccuracy < 0.7 {
		parts = append(parts, fmt.Sprintf("Timing is off (%.0f%%). Practice with a metronome.", m.TimingAccuracy*100))
	}
	if m.RhythmAccuracy < 0.7 {
		parts = append(parts, fmt.Sprintf("Rhythm accuracy needs improvement (%.0f%%).", m.RhythmAccuracy*100))
	}
	if len(m.MissedNotes) > 0 {
		parts = append(parts, fmt.Sprintf("Missed %d note(s). Make sure to play all notes in the piece.", len(m.MissedNotes)))
	}
	if len(m.ExtraNotes) > 0 {
		parts = append(parts, fmt.Sprintf("Played %d extra note(s) not in the reference.", len(m.ExtraNotes)))
	}
	return strings.Join(parts, " ")
}

func pitchStats(voiced []float64) *PitchStats {
	if len(voiced) == 0 {
		return nil
	}
	avg := stat.Mean(voiced, nil)
	min := floats.Min(voiced)
	max := floats.Max(voiced)

	stability := 0.0
	if avg > 0 {
		stability = 1 - math.Min(stat.PopStdDev(voiced, nil)/avg, 1)
	}

	return &PitchStats{
		AverageHz:           avg,
		AverageNote:         pitch.HzToNoteName(avg),
		MinHz:               min,
		MinNote:             pitch.HzToNoteName(min),
		MaxHz:               max,
		MaxNote:             pitch.HzToNoteName(max),
		PitchRangeSemitones: math.Round(12 * math.Log2(max/min)),
		PitchStability:      stability,
	}
}

func notesBlock(notes []model.NoteEvent) NotesBlock {
	b := NotesBlock{
		TotalNotes:   len(notes),
		UniqueNotes:  make([]string, 0),
		NoteSequence: make([]NoteSummary, 0, len(notes)),
	}
	seen := map[string]bool{}
	for _, n := range notes {
		if !seen[n.NoteName] {
			seen[n.NoteName] = true
			b.UniqueNotes = append(b.UniqueNotes, n.NoteName)
		}
		b.NoteSequence = append(b.NoteSequence, NoteSummary{
			Note:     n.NoteName,
			Time:     fmt.Sprintf("%.2f", n.StartTime),
			Duration: fmt.Sprintf("%.3f", n.Duration),
		})
	}
	return b
}

func rhythmBlock(fs model.FeatureStream, pattern model.RhythmPattern) RhythmBlock {
	return RhythmBlock{
		TotalOnsets:       len(pattern.OnsetTimes),
		AverageIntervalMs: math.Round(pattern.AvgInterval * 1000),
		TempoStability:    fmt.Sprintf("%.2f", pattern.TempoStability),
		TempoBPM:          fs.TempoBPM,
	}
}

func comparison(m model.ComparisonMetrics) *Comparison {
	return &Comparison{
		OverallSimilarity: percent(m.OverallSimilarity),
		Scores: Scores{
			NoteAccuracy:   percent(m.NoteAccuracy),
			PitchAccuracy:  percent(m.PitchAccuracy),
			TimingAccuracy: percent(m.TimingAccuracy),
			RhythmAccuracy: percent(m.RhythmAccuracy),
		},
		Errors: ErrorDigest{
			MissedNotes:  append([]string{}, m.MissedNotes...),
			ExtraNotes:   append([]string{}, m.ExtraNotes...),
			PitchErrors:  worstPitchErrors(m.PitchErrors, 10),
			TimingErrors: worstTimingErrors(m.TimingErrors, 10),
		},
		Summary: Summary(m),
	}
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func worstPitchErrors(errs []model.PitchError, n int) []PitchErrorLine {
	sorted := make([]model.PitchError, len(errs))
	copy(sorted, errs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].CentDifference) > math.Abs(sorted[j].CentDifference)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]PitchErrorLine, 0, len(sorted))
	for _, e := range sorted {
		out = append(out, PitchErrorLine{
			Time:     fmt.Sprintf("%.2fs", e.Time),
			Expected: e.ExpectedNote,
			Played:   e.PlayedNote,
			CentsOff: fmt.Sprintf("%.1f", e.CentDifference),
		})
	}
	return out
}

func worstTimingErrors(errs []model.TimingError, n int) []TimingErrorLine {
	sorted := make([]model.TimingError, len(errs))
	copy(sorted, errs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MsDifference > sorted[j].MsDifference
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]TimingErrorLine, 0, len(sorted))
	for _, e := range sorted {
		out = append(out, TimingErrorLine{
			Note:         e.Note,
			ExpectedTime: fmt.Sprintf("%.2fs", e.ExpectedTime),
			PlayedTime:   fmt.Sprintf("%.2fs", e.PlayedTime),
			MsLate:       fmt.Sprintf("%.1f", e.MsDifference),
		})
	}
	return out
}
