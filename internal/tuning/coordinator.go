package tuning

import (
	"github.com/charmbracelet/log"
)

// State is the coordinator's top-level phase.
type State string

const (
	StateModeSelect  State = "mode_select"
	StateCalibration State = "calibration"
	StateProfiling   State = "profiling"
	StateTuning      State = "tuning"
	StateComplete    State = "complete"
)

// Confidence floors below which a pitch estimate is treated as no signal.
const (
	tuningConfidenceFloor      = 0.6
	calibrationConfidenceFloor = 0.8
)

// calibrationTarget is how many confident samples calibration averages.
const calibrationTarget = 10

// Persister stores sessions and profiles. Saves from the coordinator are
// best-effort: a failing disk never blocks tuning progress.
type Persister interface {
	SaveSession(*Session) error
	SaveProfile(*PianoProfile) error
}

// Coordinator drives the tuning workflow. It consumes pitch estimates and
// user intents (Confirm, Skip, Back) from the control thread and advances
// through notes, sub-steps, and phases. It is not safe for concurrent use;
// the capture buffer is the only boundary audio crosses.
type Coordinator struct {
	state       State
	session     *Session
	order       *Order
	temperament Temperament
	step        Step

	// Live reading. deviation is nil when there is no confident signal.
	deviation *float64
	frequency float64

	// Profiling phase: visits all 88 keys in chromatic order.
	profile      *PianoProfile
	profileIndex int

	// Calibration phase: confident A4 samples collected so far.
	calibration []float64

	persist Persister
	logger  *log.Logger
}

// NewCoordinator creates a coordinator in mode selection. The logger may be
// nil to disable persistence-failure logging.
func NewCoordinator(persist Persister, logger *log.Logger) *Coordinator {
	return &Coordinator{
		state:       StateModeSelect,
		temperament: NewTemperament(),
		persist:     persist,
		logger:      logger,
	}
}

// StartConcert begins a concert-pitch session at the given A4 reference.
func (c *Coordinator) StartConcert(a4 float64) {
	c.session = NewSession(ModeConcert, a4)
	c.temperament = TemperamentWithA4(a4)
	c.order = TraditionalOrder()
	c.enterTuning(0)
	c.saveSession()
}

// StartQuick begins a quick-tune session. Tuning starts after calibration
// derives the piano's pitch center.
func (c *Coordinator) StartQuick() {
	c.state = StateCalibration
	c.temperament = NewTemperament()
	c.calibration = c.calibration[:0]
	c.clearReading()
}

// StartProfile begins a profiling pass over all 88 keys.
func (c *Coordinator) StartProfile(a4 float64) {
	c.session = NewSession(ModeProfile, a4)
	c.temperament = TemperamentWithA4(a4)
	c.profile = NewProfile()
	c.profileIndex = 0
	c.state = StateProfiling
	c.clearReading()
	c.saveSession()
}

// Resume re-enters tuning from a persisted incomplete session. The profile is
// only consulted for profile-mode sessions and may be nil, in which case the
// traditional order is used. Completed notes whose names no longer resolve
// are skipped rather than aborting resumption.
func (c *Coordinator) Resume(session *Session, profile *PianoProfile) {
	c.session = session

	switch session.Mode {
	case ModeQuick:
		c.temperament = TemperamentWithOffset(session.PianoOffsetCents)
		c.order = TraditionalOrder()
	case ModeProfile:
		c.temperament = TemperamentWithA4(session.A4Reference)
		if profile != nil {
			c.order = ProfileOrder(profile)
		} else {
			c.order = TraditionalOrder()
		}
	default:
		c.temperament = TemperamentWithA4(session.A4Reference)
		c.order = TraditionalOrder()
	}

	// Rebuild which keys are already done. Unknown note names are treated
	// as not yet completed.
	for _, done := range session.CompletedNotes {
		if _, ok := FindNote(done.Note); !ok {
			c.logf("resume: unknown note name %q in session %s", done.Note, session.ID)
		}
	}

	if session.IsComplete() {
		c.state = StateComplete
		return
	}
	c.enterTuning(session.CurrentNoteIndex)
}

// CompletedIndices returns the chromatic indices of every completed note
// that still resolves, for presentation (keyboard progress strip).
func (c *Coordinator) CompletedIndices() []int {
	if c.session == nil {
		return nil
	}
	indices := make([]int, 0, len(c.session.CompletedNotes))
	for _, done := range c.session.CompletedNotes {
		if note, ok := FindNote(done.Note); ok {
			if idx, ok := IndexForMidi(note.Midi); ok {
				indices = append(indices, idx)
			}
		}
	}
	return indices
}

// HandlePitch feeds a live pitch estimate into the current phase. Estimates
// below the phase's confidence floor clear the displayed deviation instead
// of updating it.
func (c *Coordinator) HandlePitch(frequency, confidence float64) {
	switch c.state {
	case StateTuning:
		if confidence < tuningConfidenceFloor || c.step.IsMuting() {
			c.clearReading()
			return
		}
		note, ok := c.CurrentNote()
		if !ok {
			return
		}
		c.setReading(frequency, c.temperament.CentsFromTarget(frequency, c.temperament.Frequency(note.Midi)))

	case StateProfiling:
		if confidence < tuningConfidenceFloor {
			c.clearReading()
			return
		}
		note, ok := NoteAt(c.profileIndex)
		if !ok {
			return
		}
		c.setReading(frequency, c.temperament.CentsFromTarget(frequency, c.temperament.Frequency(note.Midi)))

	case StateCalibration:
		if confidence < calibrationConfidenceFloor {
			c.clearReading()
			return
		}
		cents := c.temperament.CentsFromTarget(frequency, DefaultA4)
		c.setReading(frequency, cents)
		c.calibration = append(c.calibration, frequency)
		if len(c.calibration) >= calibrationTarget {
			c.finishCalibration()
		}
	}
}

// finishCalibration averages the collected samples into the piano's offset
// from concert pitch and starts quick tuning against that center.
func (c *Coordinator) finishCalibration() {
	var sum float64
	for _, f := range c.calibration {
		sum += f
	}
	mean := sum / float64(len(c.calibration))
	offset := c.temperament.CentsFromTarget(mean, DefaultA4)

	c.session = NewQuickSession(offset)
	c.temperament = TemperamentWithOffset(offset)
	c.order = TraditionalOrder()
	c.enterTuning(0)
	c.saveSession()
}

// Confirm advances the current sub-step, or, when the note has none left,
// records its completion and moves to the next note in the order.
func (c *Coordinator) Confirm() {
	switch c.state {
	case StateTuning:
		if c.step != StepNone && c.step.Next() != StepNone {
			c.step = c.step.Next()
			if c.step.IsMuting() {
				c.clearReading()
			}
			return
		}
		c.completeCurrent(c.finalCents())

	case StateProfiling:
		if note, ok := NoteAt(c.profileIndex); ok {
			if c.deviation != nil {
				c.profile.RecordNote(note.Midi, c.frequency, *c.deviation)
			}
		}
		c.advanceProfile()
	}
}

// Skip records the current note with the zero sentinel and advances,
// bypassing any remaining sub-steps. In profiling it leaves the slot empty.
func (c *Coordinator) Skip() {
	switch c.state {
	case StateTuning:
		c.completeCurrent(0)
	case StateProfiling:
		c.advanceProfile()
	}
}

// Back steps backward: within a note's sub-steps first, otherwise to the
// previous note, re-entered at its last sub-step. A no-op at the very start.
func (c *Coordinator) Back() {
	switch c.state {
	case StateTuning:
		if c.step != StepNone && c.step.Prev() != StepNone {
			c.step = c.step.Prev()
			c.clearReading()
			return
		}
		if c.session.CurrentNoteIndex == 0 {
			return
		}
		c.session.CurrentNoteIndex--
		// Drop the matching completion so a re-confirm does not duplicate it.
		if n := len(c.session.CompletedNotes); n > 0 {
			c.session.CompletedNotes = c.session.CompletedNotes[:n-1]
		}
		if note, ok := c.CurrentNote(); ok {
			c.step = LastStep(note.Strings)
		}
		c.clearReading()
		c.saveSession()

	case StateProfiling:
		if c.profileIndex > 0 {
			c.profileIndex--
			c.clearReading()
		}
	}
}

// completeCurrent records the note and advances the order cursor, finishing
// the session after the last position.
func (c *Coordinator) completeCurrent(finalCents float64) {
	note, ok := c.CurrentNote()
	if !ok {
		return
	}
	c.session.CompleteNote(note.DisplayName(), finalCents)
	c.clearReading()

	if c.session.CurrentNoteIndex >= c.order.Len() {
		c.state = StateComplete
		c.saveSession()
		return
	}
	if next, ok := c.CurrentNote(); ok {
		c.step = FirstStep(next.Strings)
	}
	c.saveSession()
}

// advanceProfile moves to the next chromatic key, materializing the profile
// and switching to profile-ordered tuning after C8.
func (c *Coordinator) advanceProfile() {
	c.profileIndex++
	c.clearReading()
	if c.profileIndex < NoteCount {
		return
	}

	if c.persist != nil {
		if err := c.persist.SaveProfile(c.profile); err != nil {
			c.logf("save profile %s: %v", c.profile.ID, err)
		}
	}
	c.order = ProfileOrder(c.profile)
	c.enterTuning(0)
	c.saveSession()
}

// enterTuning positions the coordinator at an order index with the note's
// first sub-step.
func (c *Coordinator) enterTuning(position int) {
	c.state = StateTuning
	c.session.CurrentNoteIndex = position
	if note, ok := c.CurrentNote(); ok {
		c.step = FirstStep(note.Strings)
	} else {
		c.step = StepNone
	}
	c.clearReading()
}

// finalCents returns the deviation to record on confirmation, zero when no
// confident reading is on screen.
func (c *Coordinator) finalCents() float64 {
	if c.deviation == nil {
		return 0
	}
	return *c.deviation
}

func (c *Coordinator) setReading(frequency, cents float64) {
	c.frequency = frequency
	v := cents
	c.deviation = &v
}

func (c *Coordinator) clearReading() {
	c.deviation = nil
	c.frequency = 0
}

// saveSession persists the session, logging and continuing on failure.
func (c *Coordinator) saveSession() {
	if c.persist == nil || c.session == nil {
		return
	}
	if err := c.persist.SaveSession(c.session); err != nil {
		c.logf("save session %s: %v", c.session.ID, err)
	}
}

func (c *Coordinator) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Warnf(format, args...)
	}
}

// State returns the current phase.
func (c *Coordinator) State() State { return c.state }

// Session returns the active session, nil before one starts.
func (c *Coordinator) Session() *Session { return c.session }

// Order returns the active tuning order, nil before tuning starts.
func (c *Coordinator) Order() *Order { return c.order }

// Temperament returns the temperament currently in effect.
func (c *Coordinator) Temperament() Temperament { return c.temperament }

// Profile returns the working piano profile, nil outside profile mode.
func (c *Coordinator) Profile() *PianoProfile { return c.profile }

// Step returns the current sub-step.
func (c *Coordinator) Step() Step { return c.step }

// Deviation returns the displayed cents deviation, or false when there is no
// confident signal.
func (c *Coordinator) Deviation() (float64, bool) {
	if c.deviation == nil {
		return 0, false
	}
	return *c.deviation, true
}

// Frequency returns the last confident frequency reading in Hz.
func (c *Coordinator) Frequency() float64 { return c.frequency }

// CurrentNote returns the note under the cursor for the current phase.
func (c *Coordinator) CurrentNote() (Note, bool) {
	switch c.state {
	case StateProfiling:
		return NoteAt(c.profileIndex)
	case StateTuning:
		if c.order == nil || c.session == nil {
			return Note{}, false
		}
		return c.order.NoteAtPosition(c.session.CurrentNoteIndex)
	default:
		return Note{}, false
	}
}

// Phase names the current tuning phase for presentation.
func (c *Coordinator) Phase() string {
	switch c.state {
	case StateTuning:
		if c.order != nil && c.session != nil {
			return c.order.PhaseAt(c.session.CurrentNoteIndex)
		}
	case StateProfiling:
		return "Profiling"
	case StateCalibration:
		return "Calibration"
	}
	return ""
}

// ProfileProgress returns (current, total) for the profiling pass.
func (c *Coordinator) ProfileProgress() (int, int) {
	return c.profileIndex, NoteCount
}

// CalibrationProgress returns (collected, target) confident samples.
func (c *Coordinator) CalibrationProgress() (int, int) {
	return len(c.calibration), calibrationTarget
}
