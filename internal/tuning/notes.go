// Package tuning holds the piano domain model: the 88-key note table, equal
// temperament math, tuning orders, sessions, deviation profiles, and the
// coordinator state machine that walks a user through a tuning pass.
package tuning

import "fmt"

// NoteCount is the number of keys on a standard piano.
const NoteCount = 88

// Note describes one piano key.
type Note struct {
	// Midi is the MIDI note number, 21 (A0) through 108 (C8).
	Midi int
	// Name is the pitch class, e.g. "A" or "C#".
	Name string
	// Octave is the scientific pitch octave.
	Octave int
	// Strings is how many strings the key strikes: 1, 2, or 3.
	Strings int
}

// DisplayName returns the conventional note label, e.g. "F3".
func (n Note) DisplayName() string {
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

// IsTrichord reports whether the note has three strings.
func (n Note) IsTrichord() bool {
	return n.Strings == 3
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// notes is the full 88-entry table, index 0 = A0 through index 87 = C8.
var notes = buildNotes()

func buildNotes() [NoteCount]Note {
	var table [NoteCount]Note
	for i := range table {
		midi := 21 + i
		table[i] = Note{
			Midi:    midi,
			Name:    noteNames[midi%12],
			Octave:  midi/12 - 1,
			Strings: stringsForIndex(i),
		}
	}
	return table
}

// stringsForIndex follows the historical string layout: the lowest octave is
// strung singly, the next octave in pairs, and everything from A2 up in
// threes.
func stringsForIndex(i int) int {
	switch {
	case i < 12: // A0..G#1
		return 1
	case i < 24: // A1..G#2
		return 2
	default: // A2..C8
		return 3
	}
}

// NoteAt returns the note at a chromatic index (0 = A0).
func NoteAt(index int) (Note, bool) {
	if index < 0 || index >= NoteCount {
		return Note{}, false
	}
	return notes[index], true
}

// NoteForMidi returns the note for a MIDI number in 21..108.
func NoteForMidi(midi int) (Note, bool) {
	return NoteAt(midi - 21)
}

// IndexForMidi converts a MIDI number to a chromatic index.
func IndexForMidi(midi int) (int, bool) {
	if midi < 21 || midi > 108 {
		return 0, false
	}
	return midi - 21, true
}

// FindNote resolves a display name like "F3" or "A#4" back to its note.
// Used when reconstructing positions from persisted note names.
func FindNote(displayName string) (Note, bool) {
	for _, n := range notes {
		if n.DisplayName() == displayName {
			return n, true
		}
	}
	return Note{}, false
}
