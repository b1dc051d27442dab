package tuning

import "time"

// Mode selects how a tuning session derives its targets.
type Mode string

const (
	// ModeQuick tunes the piano against its own pitch center, found during
	// calibration.
	ModeQuick Mode = "quick"
	// ModeConcert tunes to concert pitch (A4 = 440 Hz or custom).
	ModeConcert Mode = "concert"
	// ModeProfile measures all 88 keys first, then tunes worst-first.
	ModeProfile Mode = "profile"
)

// CompletedNote records one finished tuning step.
type CompletedNote struct {
	// Note is the display name, e.g. "F3".
	Note string
	// FinalCents is the deviation at confirmation. Skipped notes record 0.
	FinalCents float64
	// Timestamp is when the note was completed.
	Timestamp time.Time
}

// Session is one tuning pass over the instrument. CurrentNoteIndex is the
// sole resumption cursor; everything else can be rebuilt from it and the
// completed-note list.
type Session struct {
	ID               string
	Mode             Mode
	A4Reference      float64
	PianoOffsetCents float64
	CurrentNoteIndex int
	CompletedNotes   []CompletedNote
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewSession creates a session with a timestamp-derived id.
func NewSession(mode Mode, a4Reference float64) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:          now.Format(time.RFC3339Nano),
		Mode:        mode,
		A4Reference: a4Reference,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewQuickSession creates a quick-tune session with the calibrated offset.
func NewQuickSession(pianoOffsetCents float64) *Session {
	s := NewSession(ModeQuick, DefaultA4)
	s.PianoOffsetCents = pianoOffsetCents
	return s
}

// IsComplete reports whether every key has been visited.
func (s *Session) IsComplete() bool {
	return s.CurrentNoteIndex >= NoteCount
}

// CompleteNote records a finished note and advances the cursor.
func (s *Session) CompleteNote(noteName string, finalCents float64) {
	s.CompletedNotes = append(s.CompletedNotes, CompletedNote{
		Note:       noteName,
		FinalCents: finalCents,
		Timestamp:  time.Now().UTC(),
	})
	s.CurrentNoteIndex++
	s.UpdatedAt = time.Now().UTC()
}

// AverageDeviation returns the mean absolute final deviation of all
// completed notes.
func (s *Session) AverageDeviation() float64 {
	if len(s.CompletedNotes) == 0 {
		return 0
	}
	var sum float64
	for _, n := range s.CompletedNotes {
		if n.FinalCents >= 0 {
			sum += n.FinalCents
		} else {
			sum -= n.FinalCents
		}
	}
	return sum / float64(len(s.CompletedNotes))
}

// ProgressPercent returns how far through the 88 keys the session is.
func (s *Session) ProgressPercent() float64 {
	return float64(s.CurrentNoteIndex) / NoteCount * 100
}
