// Package midiref loads standard MIDI files as reference performances.
package midiref

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/seejho/etude/model"
	"github.com/seejho/etude/pitch"
)

// ReadFile parses a standard MIDI file.
func ReadFile(path string) (s *smf.SMF, err error) {
	// the smf parser panics on some malformed files
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r, ok := recover().(string); ok {
			err = errors.New(r)
		}
	}()

	dat, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, fmt.Errorf("read midi file: %w", readErr)
	}

	var parseErr error
	s, parseErr = smf.ReadFrom(bytes.NewReader(dat))
	if parseErr != nil {
		return nil, fmt.Errorf("parse midi file %s: %w", path, parseErr)
	}
	return s, nil
}

// NoteEvents flattens every track into time-ordered note events, with
// tempo changes honored through the file's tempo map. A retriggered
// key closes the previous note, and notes still sounding when a track
// ends are closed at the track's final tick. Pitch is the equal
// tempered frequency of the key, so a matching performance scores
// zero cents off.
func NoteEvents(s *smf.SMF) []model.NoteEvent {
	notes := make([]model.NoteEvent, 0)
	if s == nil {
		return notes
	}

	for _, tr := range s.Tracks {
		var abs int64
		open := map[[2]uint8]float64{}

		for _, ev := range tr {
			abs += int64(ev.Delta)
			t := secondsAt(s, abs)

			var ch, key, vel uint8
			switch {
			case ev.Message.GetNoteStart(&ch, &key, &vel):
				id := [2]uint8{ch, key}
				if start, sounding := open[id]; sounding {
					notes = append(notes, noteEvent(key, start, t))
				}
				open[id] = t
			case ev.Message.GetNoteEnd(&ch, &key):
				id := [2]uint8{ch, key}
				start, sounding := open[id]
				if !sounding {
					continue
				}
				delete(open, id)
				notes = append(notes, noteEvent(key, start, t))
			}
		}

		trackEnd := secondsAt(s, abs)
		for id, start := range open {
			notes = append(notes, noteEvent(id[1], start, trackEnd))
		}
	}

	sort.Slice(notes, func(i, j int) bool {
		if notes[i].StartTime != notes[j].StartTime {
			return notes[i].StartTime < notes[j].StartTime
		}
		return notes[i].MidiNote < notes[j].MidiNote
	})
	return notes
}

// StartTimes projects the onset sequence for rhythm analysis.
func StartTimes(notes []model.NoteEvent) []float64 {
	out := make([]float64, len(notes))
	for i, n := range notes {
		out[i] = n.StartTime
	}
	return out
}

// FeatureStream renders the file as a framewise stream on a fixed hop
// grid, so a MIDI file can stand in wherever a recorded stream is
// accepted. Onset times are the note starts. Overlapping notes render
// monophonically, latest start wins.
func FeatureStream(s *smf.SMF, hop float64) model.FeatureStream {
	notes := NoteEvents(s)
	fs := model.FeatureStream{
		PitchHz:    []float64{},
		OnsetTimes: StartTimes(notes),
	}
	if len(notes) == 0 || hop <= 0 {
		return fs
	}

	end := 0.0
	for _, n := range notes {
		if t := n.StartTime + n.Duration; t > end {
			end = t
		}
	}

	frames := int(end/hop) + 1
	fs.PitchHz = make([]float64, frames)
	for _, n := range notes {
		from := int(math.Ceil(n.StartTime / hop))
		to := int((n.StartTime + n.Duration) / hop)
		for i := from; i <= to && i < frames; i++ {
			fs.PitchHz[i] = n.AvgPitchHz
		}
	}
	return fs
}

func noteEvent(key uint8, start, end float64) model.NoteEvent {
	return model.NoteEvent{
		NoteName:   pitch.MidiToNoteName(key),
		MidiNote:   key,
		StartTime:  start,
		Duration:   end - start,
		AvgPitchHz: pitch.MidiToHz(key),
	}
}

func secondsAt(s *smf.SMF, absTicks int64) float64 {
	return float64(s.TimeAt(absTicks)) / 1e6
}
