package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seejho/etude/model"
)

func TestNotesBasicMelody(t *testing.T) {
	// Three A4 frames, then frames that climb through B4 into C5. The
	// one-semitone tolerance keeps the B4/C5 frames in a single note
	// anchored at B4.
	pitches := []float64{440, 440, 440, 494, 494, 523.25, 523.25}
	onsets := []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6}

	notes := Notes(pitches, onsets, DefaultConfig())

	assert := assert.New(t)
	assert.Len(notes, 2)

	assert.Equal("A4", notes[0].NoteName)
	assert.Equal(uint8(69), notes[0].MidiNote)
	assert.InDelta(0.0, notes[0].StartTime, 1e-9)
	assert.InDelta(0.3, notes[0].Duration, 1e-9)
	assert.InDelta(440.0, notes[0].AvgPitchHz, 1e-9)

	assert.Equal("B4", notes[1].NoteName)
	assert.Equal(uint8(71), notes[1].MidiNote)
	assert.InDelta(0.3, notes[1].StartTime, 1e-9)
	assert.InDelta(0.3, notes[1].Duration, 1e-9)
	assert.InDelta(508.625, notes[1].AvgPitchHz, 1e-9)
}

func TestNotesEmptyInput(t *testing.T) {
	notes := Notes(nil, nil, DefaultConfig())
	assert.NotNil(t, notes)
	assert.Empty(t, notes)

	notes = Notes(nil, []float64{0, 0.1}, DefaultConfig())
	assert.Empty(t, notes)
}

func TestNotesEmptyOnsetsYieldNoNotes(t *testing.T) {
	// Pitched frames with no onset timestamps at all segment to nothing.
	// The fallback grid covers a trailing shortfall, not a recording
	// that never had onsets.
	pitches := make([]float64, 60)
	for i := range pitches {
		if i < 30 {
			pitches[i] = 440
		} else {
			pitches[i] = 523.25
		}
	}

	notes := Notes(pitches, nil, DefaultConfig())
	assert.NotNil(t, notes)
	assert.Empty(t, notes)

	notes = Notes(pitches, []float64{}, DefaultConfig())
	assert.Empty(t, notes)
}

func TestNotesDropsShortBlips(t *testing.T) {
	// The opening A4 lasts only 50ms before the jump to C5.
	pitches := []float64{440, 523.25, 523.25, 523.25}
	onsets := []float64{0, 0.05, 0.15, 0.25}

	notes := Notes(pitches, onsets, DefaultConfig())

	assert := assert.New(t)
	assert.Len(notes, 1)
	assert.Equal("C5", notes[0].NoteName)
	assert.InDelta(0.05, notes[0].StartTime, 1e-9)
}

func TestNotesSkipsUnpitchedFrames(t *testing.T) {
	pitches := []float64{440, 0, 440, -1, 440}
	onsets := []float64{0, 0.1, 0.2, 0.3, 0.4}

	notes := Notes(pitches, onsets, DefaultConfig())

	assert := assert.New(t)
	assert.Len(notes, 1)
	assert.Equal("A4", notes[0].NoteName)
	assert.InDelta(0.4, notes[0].Duration, 1e-9)
	assert.InDelta(440.0, notes[0].AvgPitchHz, 1e-9)
}

func TestNotesFallbackHopTiming(t *testing.T) {
	// One onset, sixty pitch frames: all but the first frame get
	// synthesized times on the 10ms grid. The note change lands at
	// frame 30, i.e. t=0.30.
	pitches := make([]float64, 60)
	for i := range pitches {
		if i < 30 {
			pitches[i] = 440
		} else {
			pitches[i] = 523.25
		}
	}
	onsets := []float64{0}

	notes := Notes(pitches, onsets, DefaultConfig())

	assert := assert.New(t)
	// The C5 tail never flushes: the last onset timestamp (0.0) is
	// before its start.
	assert.Len(notes, 1)
	assert.Equal("A4", notes[0].NoteName)
	assert.InDelta(0.30, notes[0].Duration, 1e-9)
}

func TestNotesFlushUsesLastOnset(t *testing.T) {
	pitches := []float64{440, 440, 440}
	onsets := []float64{0, 0.2, 0.4}

	notes := Notes(pitches, onsets, DefaultConfig())

	assert := assert.New(t)
	assert.Len(notes, 1)
	assert.InDelta(0.4, notes[0].Duration, 1e-9)
}

func TestNotesNameComesFromAnchorNotAverage(t *testing.T) {
	// Frames drift up to A#4 but stay within tolerance of the A4 the
	// note opened on. The average leans sharp; the name must not.
	pitches := []float64{440, 466.16, 466.16, 466.16, 587.33}
	onsets := []float64{0, 0.1, 0.2, 0.3, 0.4}

	notes := Notes(pitches, onsets, DefaultConfig())

	assert := assert.New(t)
	assert.Len(notes, 1)
	assert.Equal("A4", notes[0].NoteName)
	assert.Equal(uint8(69), notes[0].MidiNote)
	assert.Greater(notes[0].AvgPitchHz, 450.0)
}

func TestNotesZeroToleranceSplitsNeighbors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SemitoneTolerance = 0

	pitches := []float64{440, 466.16, 493.88}
	onsets := []float64{0, 0.2, 0.4}

	notes := Notes(pitches, onsets, cfg)

	assert := assert.New(t)
	assert.Len(notes, 2)
	assert.Equal("A4", notes[0].NoteName)
	assert.Equal("A#4", notes[1].NoteName)
}

func TestIncrementalMatchesBatch(t *testing.T) {
	pitches := []float64{440, 440, 440, 494, 494, 523.25, 523.25}
	onsets := []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6}

	batch := Notes(pitches, onsets, DefaultConfig())

	sg := New(DefaultConfig())
	sg.Feed(pitches[:2], onsets[:2])
	sg.Feed(pitches[2:4], onsets[2:4])
	sg.Feed(pitches[4:], onsets[4:])
	incremental := sg.Finish()

	assert.Equal(t, batch, incremental)
}

func TestIncrementalNotesVisibleMidStream(t *testing.T) {
	sg := New(DefaultConfig())

	sg.Feed([]float64{440, 440}, []float64{0, 0.1})
	assert.Empty(t, sg.Notes())

	pending, ok := sg.Pending()
	assert.True(t, ok)
	assert.Equal(t, "A4", pending.NoteName)

	// The jump to C5 closes the A4 note.
	sg.Feed([]float64{523.25}, []float64{0.3})
	done := sg.Notes()
	assert.Len(t, done, 1)
	assert.Equal(t, "A4", done[0].NoteName)
	assert.InDelta(t, 0.3, done[0].Duration, 1e-9)
}

func TestPendingAfterFinish(t *testing.T) {
	sg := New(DefaultConfig())
	sg.Feed([]float64{440, 440}, []float64{0, 0.2})
	sg.Finish()

	_, ok := sg.Pending()
	assert.False(t, ok)
}

func TestNotesReturnsCopies(t *testing.T) {
	sg := New(DefaultConfig())
	sg.Feed([]float64{440, 440, 523.25}, []float64{0, 0.2, 0.4})

	first := sg.Notes()
	first[0] = model.NoteEvent{}

	again := sg.Notes()
	assert.Equal(t, "A4", again[0].NoteName)
}
