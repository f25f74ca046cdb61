// Package compare scores a played note sequence against a reference.
//
// Matching is deliberately greedy and non-exclusive: each reference
// note independently picks the played note closest in start time, so a
// single played note can stand in for several reference notes and a
// repeated pitch matches whichever occurrence landed nearest. That
// trades alignment optimality for a predictable, order-independent
// rule; ties always resolve to the earliest played note.
package compare

import (
	"fmt"
	"math"

	"github.com/seejho/etude/constants"
	"github.com/seejho/etude/model"
	"github.com/seejho/etude/pitch"
	"github.com/seejho/etude/rhythm"
	"github.com/seejho/etude/segment"
	"github.com/seejho/etude/util"
)

// Config tunes the scoring thresholds.
type Config struct {
	// MaxTimeGap is how far apart two note starts may be, in seconds,
	// and still count as the same note. It also anchors the timing
	// score: an average displacement of MaxTimeGap scores zero.
	MaxTimeGap float64
	// PitchTolCents is how far out of tune a matched note may be and
	// still count as correct.
	PitchTolCents float64
	// TimingReportThreshold is the displacement, in seconds, above
	// which a matched note is reported as a timing error.
	TimingReportThreshold float64
}

func DefaultConfig() Config {
	return Config{
		MaxTimeGap:            constants.DefaultMaxTimeGap,
		PitchTolCents:         constants.DefaultPitchTolCents,
		TimingReportThreshold: constants.DefaultTimingReportThreshold,
	}
}

// Weights of the four component scores in the overall similarity.
const (
	noteWeight   = 0.30
	pitchWeight  = 0.25
	timingWeight = 0.25
	rhythmWeight = 0.20
)

// Streams runs the full pipeline on two feature streams: segmentation
// and rhythm analysis on each side, then note-level scoring. Inputs are
// read, never mutated, so concurrent calls over distinct streams are
// safe.
func Streams(reference, played model.FeatureStream, cfg Config) model.ComparisonMetrics {
	refNotes := segment.Notes(reference.PitchHz, reference.OnsetTimes, segment.DefaultConfig())
	playedNotes := segment.Notes(played.PitchHz, played.OnsetTimes, segment.DefaultConfig())
	refRhythm := rhythm.Analyze(reference.OnsetTimes)
	playedRhythm := rhythm.Analyze(played.OnsetTimes)
	return Notes(refNotes, playedNotes, refRhythm, playedRhythm, cfg)
}

// Notes scores played notes against reference notes. The rhythm
// patterns come in separately because rhythm is judged on the raw onset
// streams, which usually carry more onsets than surviving notes.
func Notes(reference, played []model.NoteEvent, refRhythm, playedRhythm model.RhythmPattern, cfg Config) model.ComparisonMetrics {
	var m model.ComparisonMetrics

	m.NoteAccuracy, m.PitchErrors = noteAccuracy(reference, played, cfg)
	m.PitchAccuracy = pitchAccuracy(m.PitchErrors)
	m.TimingAccuracy, m.TimingErrors = timingAccuracy(reference, played, cfg)
	m.RhythmAccuracy = rhythmAccuracy(refRhythm, playedRhythm)
	m.MissedNotes, m.ExtraNotes = noteDifferences(reference, played, cfg)

	m.OverallSimilarity = noteWeight*util.Clamp01(m.NoteAccuracy) +
		pitchWeight*util.Clamp01(m.PitchAccuracy) +
		timingWeight*util.Clamp01(m.TimingAccuracy) +
		rhythmWeight*util.Clamp01(m.RhythmAccuracy)
	return m
}

// closest picks the played note nearest in start time. Exact ties keep
// the earliest index.
func closest(ref model.NoteEvent, played []model.NoteEvent) model.NoteEvent {
	best := played[0]
	bestGap := math.Abs(played[0].StartTime - ref.StartTime)
	for _, p := range played[1:] {
		gap := math.Abs(p.StartTime - ref.StartTime)
		if gap < bestGap {
			best, bestGap = p, gap
		}
	}
	return best
}

// noteAccuracy counts reference notes answered in time and in tune.
// Matched-but-out-of-tune notes produce pitch errors; reference notes
// with nothing nearby produce neither.
func noteAccuracy(reference, played []model.NoteEvent, cfg Config) (float64, []model.PitchError) {
	errs := make([]model.PitchError, 0)
	if len(reference) == 0 || len(played) == 0 {
		return 0, errs
	}

	correct := 0
	for _, ref := range reference {
		p := closest(ref, played)
		if math.Abs(p.StartTime-ref.StartTime) > cfg.MaxTimeGap {
			continue
		}
		cents := pitch.DifferenceCents(ref.AvgPitchHz, p.AvgPitchHz)
		if math.Abs(cents) <= cfg.PitchTolCents {
			correct++
			continue
		}
		errs = append(errs, model.PitchError{
			Time:           ref.StartTime,
			ExpectedNote:   ref.NoteName,
			PlayedNote:     p.NoteName,
			CentDifference: cents,
		})
	}
	return float64(correct) / float64(len(reference)), errs
}

// pitchAccuracy grades intonation from the recorded pitch errors alone:
// a clean run (or one with no accepted matches) scores 1.0, and every
// average cent of error past that costs 1% down to the floor.
func pitchAccuracy(errs []model.PitchError) float64 {
	if len(errs) == 0 {
		return 1
	}
	total := 0.0
	for _, e := range errs {
		total += math.Abs(e.CentDifference)
	}
	avg := total / float64(len(errs))
	return math.Max(0, 1-avg/100)
}

// timingAccuracy accumulates the displacement of accepted matches. The
// average deliberately divides by the full reference count, so notes
// with no match at all drag the score down instead of vanishing.
func timingAccuracy(reference, played []model.NoteEvent, cfg Config) (float64, []model.TimingError) {
	errs := make([]model.TimingError, 0)
	if len(reference) == 0 || len(played) == 0 {
		return 0, errs
	}

	total := 0.0
	for _, ref := range reference {
		p := closest(ref, played)
		gap := math.Abs(p.StartTime - ref.StartTime)
		if gap > cfg.MaxTimeGap {
			continue
		}
		total += gap
		if gap > cfg.TimingReportThreshold {
			errs = append(errs, model.TimingError{
				Note:         ref.NoteName,
				ExpectedTime: ref.StartTime,
				PlayedTime:   p.StartTime,
				MsDifference: gap * 1000,
			})
		}
	}
	avg := total / float64(len(reference))
	return math.Max(0, 1-avg/cfg.MaxTimeGap), errs
}

// rhythmAccuracy blends tempo similarity (60%) with stability
// similarity (40%). Either side without intervals scores 0.
func rhythmAccuracy(ref, played model.RhythmPattern) float64 {
	if len(ref.InterOnsetIntervals) == 0 || len(played.InterOnsetIntervals) == 0 {
		return 0
	}
	tempoSim := math.Max(0, 1-math.Abs(ref.AvgInterval-played.AvgInterval)/math.Max(ref.AvgInterval, 0.1))
	stabilitySim := 1 - math.Abs(ref.TempoStability-played.TempoStability)
	return 0.6*tempoSim + 0.4*stabilitySim
}

// noteDifferences lists reference notes nobody played and played notes
// nobody asked for. The check is by note name within the window and is
// independent of the greedy matching above.
func noteDifferences(reference, played []model.NoteEvent, cfg Config) (missed, extra []string) {
	missed = make([]string, 0)
	extra = make([]string, 0)

	for _, ref := range reference {
		if !hasNamedNeighbor(played, ref, cfg.MaxTimeGap) {
			missed = append(missed, fmt.Sprintf("%s at %.2fs", ref.NoteName, ref.StartTime))
		}
	}
	for _, p := range played {
		if !hasNamedNeighbor(reference, p, cfg.MaxTimeGap) {
			extra = append(extra, fmt.Sprintf("%s at %.2fs", p.NoteName, p.StartTime))
		}
	}
	return missed, extra
}

func hasNamedNeighbor(notes []model.NoteEvent, want model.NoteEvent, window float64) bool {
	for _, n := range notes {
		if n.NoteName == want.NoteName && math.Abs(n.StartTime-want.StartTime) <= window {
			return true
		}
	}
	return false
}
