package tuning

import (
	"math"
	"time"
)

// ProfiledNote is one measurement taken during a profiling pass.
type ProfiledNote struct {
	Midi       int
	Frequency  float64
	Cents      float64
	MeasuredAt time.Time
}

// PianoProfile collects a deviation measurement per key. Slots stay nil for
// skipped notes. The profiling phase owns the profile exclusively; once it is
// handed to the coordinator it is treated as immutable.
type PianoProfile struct {
	ID        string
	Notes     [NoteCount]*ProfiledNote
	CreatedAt time.Time
}

// NewProfile creates an empty profile with a timestamp-derived id.
func NewProfile() *PianoProfile {
	now := time.Now().UTC()
	return &PianoProfile{
		ID:        now.Format(time.RFC3339Nano),
		CreatedAt: now,
	}
}

// RecordNote stores a measurement for a MIDI note. Out-of-range notes are
// ignored.
func (p *PianoProfile) RecordNote(midi int, frequency, cents float64) {
	idx, ok := IndexForMidi(midi)
	if !ok {
		return
	}
	p.Notes[idx] = &ProfiledNote{
		Midi:       midi,
		Frequency:  frequency,
		Cents:      cents,
		MeasuredAt: time.Now().UTC(),
	}
}

// AbsCents returns the absolute deviation at a chromatic index, treating
// unmeasured slots as zero.
func (p *PianoProfile) AbsCents(index int) float64 {
	if p == nil || index < 0 || index >= NoteCount || p.Notes[index] == nil {
		return 0
	}
	return math.Abs(p.Notes[index].Cents)
}

// IsComplete reports whether every slot holds a measurement.
func (p *PianoProfile) IsComplete() bool {
	for _, n := range p.Notes {
		if n == nil {
			return false
		}
	}
	return true
}

// Progress returns (measured, total).
func (p *PianoProfile) Progress() (int, int) {
	measured := 0
	for _, n := range p.Notes {
		if n != nil {
			measured++
		}
	}
	return measured, NoteCount
}

// AverageDeviation returns the mean absolute deviation over measured notes.
func (p *PianoProfile) AverageDeviation() float64 {
	var sum float64
	count := 0
	for _, n := range p.Notes {
		if n != nil {
			sum += math.Abs(n.Cents)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// WorstNotes returns up to n measurements sorted by descending absolute
// deviation.
func (p *PianoProfile) WorstNotes(n int) []*ProfiledNote {
	measured := make([]*ProfiledNote, 0, NoteCount)
	for _, note := range p.Notes {
		if note != nil {
			measured = append(measured, note)
		}
	}
	// insertion sort; the list is at most 88 entries
	for i := 1; i < len(measured); i++ {
		for j := i; j > 0 && math.Abs(measured[j].Cents) > math.Abs(measured[j-1].Cents); j-- {
			measured[j], measured[j-1] = measured[j-1], measured[j]
		}
	}
	if n < len(measured) {
		measured = measured[:n]
	}
	return measured
}
