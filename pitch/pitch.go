package pitch

import (
	"fmt"
	"math"
)

// Chromatic pitch classes in MIDI order, starting at C.
var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Equal temperament anchored at A4 = 440 Hz = MIDI 69.
const (
	refHz   = 440.0
	refMidi = 69.0
)

// HzToMidi maps a frequency to the nearest MIDI note number. The bool
// is false for unpitched input (zero, negative, NaN) and for
// frequencies that land outside the 0..127 MIDI range.
func HzToMidi(hz float64) (uint8, bool) {
	if hz <= 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
		return 0, false
	}
	m := math.Round(refMidi + 12*math.Log2(hz/refHz))
	if m < 0 || m > 127 {
		return 0, false
	}
	return uint8(m), true
}

// MidiToHz is the inverse mapping, exact for equal temperament.
func MidiToHz(midi uint8) float64 {
	return refHz * math.Pow(2, (float64(midi)-refMidi)/12)
}

// MidiToNoteName renders a MIDI note as scientific pitch notation.
// MIDI 69 is "A4", 60 is "C4", 0 is "C-1".
func MidiToNoteName(midi uint8) string {
	octave := int(midi)/12 - 1
	return fmt.Sprintf("%s%d", noteNames[midi%12], octave)
}

// HzToNoteName names a frequency, or "N/A" when it has no MIDI
// equivalent.
func HzToNoteName(hz float64) string {
	if midi, ok := HzToMidi(hz); ok {
		return MidiToNoteName(midi)
	}
	return "N/A"
}

// DifferenceCents returns the signed interval from hz1 to hz2 in cents
// (1200 per octave). Positive means hz2 is sharp of hz1. Returns 0 when
// either frequency is not a positive number, so unpitched frames never
// contribute phantom intervals.
func DifferenceCents(hz1, hz2 float64) float64 {
	if hz1 <= 0 || hz2 <= 0 || math.IsNaN(hz1) || math.IsNaN(hz2) {
		return 0
	}
	return 1200 * math.Log2(hz2/hz1)
}
