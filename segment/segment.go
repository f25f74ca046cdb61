// Package segment folds a framewise pitch stream into discrete note
// events. The same state machine drives both whole-recording analysis
// and live chunk-by-chunk sessions, so the two paths can never drift
// apart.
package segment

import (
	"gonum.org/v1/gonum/stat"

	"github.com/seejho/etude/constants"
	"github.com/seejho/etude/model"
	"github.com/seejho/etude/pitch"
	"github.com/seejho/etude/util"
)

// Config tunes the segmentation thresholds.
type Config struct {
	// SemitoneTolerance is how far a frame may drift from the pitch a
	// note opened on and still belong to that note.
	SemitoneTolerance int
	// MinNoteDuration drops blips shorter than this many seconds.
	MinNoteDuration float64
	// FallbackHop is the synthesized frame spacing used when the onset
	// list is shorter than the pitch list.
	FallbackHop float64
}

func DefaultConfig() Config {
	return Config{
		SemitoneTolerance: constants.DefaultSemitoneTolerance,
		MinNoteDuration:   constants.DefaultMinNoteDuration,
		FallbackHop:       constants.DefaultFallbackHop,
	}
}

// Segmenter accumulates pitch frames into notes. Construct with New;
// it is not safe for concurrent use, callers wrap it with their own
// lock when feeding from multiple goroutines.
type Segmenter struct {
	cfg Config

	onsets    []float64
	sampleIdx int

	active bool
	anchor uint8
	start  float64
	buffer []float64

	done []model.NoteEvent
}

func New(cfg Config) *Segmenter {
	return &Segmenter{cfg: cfg}
}

// Notes segments a complete stream in one call. Pitch frames pair with
// onset timestamps by index; indices past the end of the onset list get
// synthesized times on the fallback hop grid. A recording with no
// pitches or no onsets has no notes.
func Notes(pitchHz, onsets []float64, cfg Config) []model.NoteEvent {
	if len(pitchHz) == 0 || len(onsets) == 0 {
		return []model.NoteEvent{}
	}
	sg := New(cfg)
	sg.Feed(pitchHz, onsets)
	return sg.Finish()
}

// Feed consumes the next chunk of the stream. Notes completed by this
// chunk become visible through Notes().
func (sg *Segmenter) Feed(pitchHz, onsets []float64) {
	sg.onsets = append(sg.onsets, onsets...)
	for _, hz := range pitchHz {
		t := sg.timeAt(sg.sampleIdx)
		sg.sampleIdx++

		midi, ok := pitch.HzToMidi(hz)
		if !ok {
			// Unpitched frames neither extend nor close a note.
			continue
		}
		if !sg.active {
			sg.open(midi, t, hz)
			continue
		}
		if int(util.AbsDiff(midi, sg.anchor)) <= sg.cfg.SemitoneTolerance {
			sg.buffer = append(sg.buffer, hz)
			continue
		}
		sg.close(t)
		sg.open(midi, t, hz)
	}
}

// Notes returns a copy of the events completed so far.
func (sg *Segmenter) Notes() []model.NoteEvent {
	out := make([]model.NoteEvent, len(sg.done))
	copy(out, sg.done)
	return out
}

// Pending reports the note currently accumulating, rendered as if it
// ended at the most recent frame. It may still be discarded for being
// too short, so it is display material, not a result.
func (sg *Segmenter) Pending() (model.NoteEvent, bool) {
	if !sg.active || len(sg.buffer) == 0 || sg.sampleIdx == 0 {
		return model.NoteEvent{}, false
	}
	return sg.event(sg.timeAt(sg.sampleIdx - 1)), true
}

// Finish applies the end-of-stream rule: a note still sounding ends at
// the last onset timestamp and is kept if it lasted long enough. It
// returns every completed event in order.
func (sg *Segmenter) Finish() []model.NoteEvent {
	if sg.active && len(sg.buffer) > 0 {
		var last float64
		if len(sg.onsets) > 0 {
			last = sg.onsets[len(sg.onsets)-1]
		}
		if last-sg.start >= sg.cfg.MinNoteDuration {
			sg.done = append(sg.done, sg.event(last))
		}
	}
	sg.active = false
	return sg.Notes()
}

func (sg *Segmenter) timeAt(i int) float64 {
	if i < len(sg.onsets) {
		return sg.onsets[i]
	}
	return float64(i) * sg.cfg.FallbackHop
}

func (sg *Segmenter) open(midi uint8, t, hz float64) {
	sg.active = true
	sg.anchor = midi
	sg.start = t
	sg.buffer = append(sg.buffer[:0], hz)
}

// close ends the active note at time end, keeping it only when it
// lasted at least MinNoteDuration.
func (sg *Segmenter) close(end float64) {
	if end-sg.start >= sg.cfg.MinNoteDuration && len(sg.buffer) > 0 {
		sg.done = append(sg.done, sg.event(end))
	}
	sg.active = false
}

// event renders the active note. The name comes from the anchor pitch
// the note opened with, not from the averaged buffer.
func (sg *Segmenter) event(end float64) model.NoteEvent {
	return model.NoteEvent{
		NoteName:   pitch.MidiToNoteName(sg.anchor),
		MidiNote:   sg.anchor,
		StartTime:  sg.start,
		Duration:   end - sg.start,
		AvgPitchHz: stat.Mean(sg.buffer, nil),
	}
}
