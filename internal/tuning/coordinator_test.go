package tuning

import (
	"errors"
	"math"
	"testing"
)

// fakeStore records persistence calls; err makes every save fail.
type fakeStore struct {
	sessionSaves int
	profileSaves int
	lastSession  *Session
	lastProfile  *PianoProfile
	err          error
}

func (f *fakeStore) SaveSession(s *Session) error {
	f.sessionSaves++
	f.lastSession = s
	return f.err
}

func (f *fakeStore) SaveProfile(p *PianoProfile) error {
	f.profileSaves++
	f.lastProfile = p
	return f.err
}

// confirmThroughNote confirms until the current note's completion is
// recorded.
func confirmThroughNote(c *Coordinator) {
	before := len(c.Session().CompletedNotes)
	for len(c.Session().CompletedNotes) == before && c.State() == StateTuning {
		c.Confirm()
	}
}

func TestStartConcert(t *testing.T) {
	store := &fakeStore{}
	c := NewCoordinator(store, nil)

	if c.State() != StateModeSelect {
		t.Fatalf("initial state = %v, want mode select", c.State())
	}

	c.StartConcert(440)

	if c.State() != StateTuning {
		t.Fatalf("state = %v, want tuning", c.State())
	}
	note, ok := c.CurrentNote()
	if !ok || note.DisplayName() != "F3" {
		t.Errorf("first note = %v, want F3", note.DisplayName())
	}
	if c.Step() != StepMuteOuter {
		t.Errorf("F3 is a trichord, first step = %v, want StepMuteOuter", c.Step())
	}
	if store.sessionSaves == 0 {
		t.Error("starting a session should persist it")
	}
}

func TestPitchFeedUpdatesDeviation(t *testing.T) {
	c := NewCoordinator(&fakeStore{}, nil)
	c.StartConcert(440)
	c.Confirm() // past MuteOuter into TuneCenter

	// F3 target at 440 is about 174.61 Hz; 175.0 is roughly +4 cents.
	c.HandlePitch(175.0, 0.9)

	cents, ok := c.Deviation()
	if !ok {
		t.Fatal("confident pitch should set a deviation")
	}
	if math.Abs(cents-3.83) > 0.5 {
		t.Errorf("deviation = %.2f cents, want about +3.8", cents)
	}
	if c.Frequency() != 175.0 {
		t.Errorf("frequency = %v, want 175", c.Frequency())
	}
}

func TestLowConfidenceClearsDeviation(t *testing.T) {
	c := NewCoordinator(&fakeStore{}, nil)
	c.StartConcert(440)
	c.Confirm()

	c.HandlePitch(175.0, 0.9)
	if _, ok := c.Deviation(); !ok {
		t.Fatal("setup: deviation should be set")
	}

	c.HandlePitch(175.0, 0.5)
	if _, ok := c.Deviation(); ok {
		t.Error("confidence below 0.6 should clear the deviation")
	}
}

func TestMutingStepShowsNoDeviation(t *testing.T) {
	c := NewCoordinator(&fakeStore{}, nil)
	c.StartConcert(440)

	if !c.Step().IsMuting() {
		t.Fatal("setup: F3 should start on a muting step")
	}
	c.HandlePitch(175.0, 0.95)
	if _, ok := c.Deviation(); ok {
		t.Error("muting steps carry no pitch feedback")
	}
}

func TestTrichordTakesFourConfirms(t *testing.T) {
	store := &fakeStore{}
	c := NewCoordinator(store, nil)
	c.StartConcert(440)

	for i := 0; i < 3; i++ {
		c.Confirm()
		if n := len(c.Session().CompletedNotes); n != 0 {
			t.Fatalf("confirm %d recorded a completion early (%d)", i+1, n)
		}
		if c.Session().CurrentNoteIndex != 0 {
			t.Fatalf("confirm %d moved the cursor", i+1)
		}
	}

	c.HandlePitch(175.0, 0.9)
	c.Confirm() // fourth confirm completes the note

	if n := len(c.Session().CompletedNotes); n != 1 {
		t.Fatalf("completed = %d, want 1 after four confirms", n)
	}
	done := c.Session().CompletedNotes[0]
	if done.Note != "F3" {
		t.Errorf("completed note = %q, want F3", done.Note)
	}
	if math.Abs(done.FinalCents-3.83) > 0.5 {
		t.Errorf("final cents = %.2f, want about +3.8", done.FinalCents)
	}
	if c.Session().CurrentNoteIndex != 1 {
		t.Errorf("cursor = %d, want 1", c.Session().CurrentNoteIndex)
	}
}

func TestSkipBypassesSubSteps(t *testing.T) {
	c := NewCoordinator(&fakeStore{}, nil)
	c.StartConcert(440)

	c.Skip()

	if n := len(c.Session().CompletedNotes); n != 1 {
		t.Fatalf("completed = %d, want 1", n)
	}
	if c.Session().CompletedNotes[0].FinalCents != 0 {
		t.Errorf("skip should record the 0.0 sentinel, got %v",
			c.Session().CompletedNotes[0].FinalCents)
	}
	if c.Session().CurrentNoteIndex != 1 {
		t.Errorf("cursor = %d, want 1", c.Session().CurrentNoteIndex)
	}
}

func TestBackAtStartIsNoOp(t *testing.T) {
	c := NewCoordinator(&fakeStore{}, nil)
	c.StartConcert(440)

	c.Back()

	if c.Session().CurrentNoteIndex != 0 {
		t.Errorf("cursor = %d, want 0", c.Session().CurrentNoteIndex)
	}
	if c.Step() != StepMuteOuter {
		t.Errorf("step = %v, want the first step unchanged", c.Step())
	}
}

func TestBackWithinSubSteps(t *testing.T) {
	c := NewCoordinator(&fakeStore{}, nil)
	c.StartConcert(440)

	c.Confirm() // TuneCenter
	c.Confirm() // TuneLeft
	c.Back()

	if c.Step() != StepTuneCenter {
		t.Errorf("step = %v, want StepTuneCenter", c.Step())
	}
	if c.Session().CurrentNoteIndex != 0 {
		t.Error("stepping back within a note must not move the cursor")
	}
}

func TestBackReentersPreviousNoteAtLastStep(t *testing.T) {
	c := NewCoordinator(&fakeStore{}, nil)
	c.StartConcert(440)

	confirmThroughNote(c) // finish F3
	if c.Session().CurrentNoteIndex != 1 {
		t.Fatal("setup: should be on the second note")
	}

	c.Back()

	if c.Session().CurrentNoteIndex != 0 {
		t.Errorf("cursor = %d, want 0", c.Session().CurrentNoteIndex)
	}
	if c.Step() != StepTuneRight {
		t.Errorf("step = %v, want the trichord's last step", c.Step())
	}
	if n := len(c.Session().CompletedNotes); n != 0 {
		t.Errorf("backing into a finished note should drop its completion, have %d", n)
	}
}

func TestConfirmingAllNotesCompletes(t *testing.T) {
	store := &fakeStore{}
	c := NewCoordinator(store, nil)
	c.StartConcert(440)

	for c.State() == StateTuning {
		confirmThroughNote(c)
	}

	if c.State() != StateComplete {
		t.Fatalf("state = %v, want complete", c.State())
	}
	if n := len(c.Session().CompletedNotes); n != 88 {
		t.Errorf("completed = %d, want 88", n)
	}
	if !c.Session().IsComplete() {
		t.Error("session should report complete")
	}

	// Confirm after completion must not re-complete.
	c.Confirm()
	if n := len(c.Session().CompletedNotes); n != 88 {
		t.Errorf("confirm after completion changed count to %d", n)
	}
}

func TestPersistFailureDoesNotHaltProgress(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	c := NewCoordinator(store, nil)
	c.StartConcert(440)

	c.Skip()
	c.Skip()

	if c.Session().CurrentNoteIndex != 2 {
		t.Errorf("cursor = %d, want 2 despite save failures", c.Session().CurrentNoteIndex)
	}
}

func TestCalibrationFlow(t *testing.T) {
	store := &fakeStore{}
	c := NewCoordinator(store, nil)
	c.StartQuick()

	if c.State() != StateCalibration {
		t.Fatalf("state = %v, want calibration", c.State())
	}

	// Below the calibration floor: ignored.
	c.HandlePitch(437, 0.7)
	if got, _ := c.CalibrationProgress(); got != 0 {
		t.Fatalf("low-confidence sample was collected, have %d", got)
	}

	// The piano sits at 437 Hz, about -11.8 cents from concert pitch.
	for i := 0; i < 10; i++ {
		c.HandlePitch(437, 0.9)
	}

	if c.State() != StateTuning {
		t.Fatalf("state = %v, want tuning after 10 confident samples", c.State())
	}
	s := c.Session()
	if s.Mode != ModeQuick {
		t.Errorf("mode = %q, want quick", s.Mode)
	}
	if math.Abs(s.PianoOffsetCents-(-11.81)) > 0.1 {
		t.Errorf("offset = %.2f cents, want about -11.8", s.PianoOffsetCents)
	}
	if math.Abs(c.Temperament().A4()-437) > 0.01 {
		t.Errorf("effective A4 = %.2f, want 437", c.Temperament().A4())
	}
}

func TestProfilingFlow(t *testing.T) {
	store := &fakeStore{}
	c := NewCoordinator(store, nil)
	c.StartProfile(440)

	if c.State() != StateProfiling {
		t.Fatalf("state = %v, want profiling", c.State())
	}
	note, _ := c.CurrentNote()
	if note.DisplayName() != "A0" {
		t.Errorf("profiling starts at %s, want A0 (chromatic order)", note.DisplayName())
	}

	tm := NewTemperament()
	for i := 0; i < NoteCount; i++ {
		n, _ := NoteAt(i)
		c.HandlePitch(tm.Frequency(n.Midi)*CentsToRatio(5), 0.9)
		c.Confirm()
	}

	if c.State() != StateTuning {
		t.Fatalf("state = %v, want tuning after the 88th key", c.State())
	}
	if store.profileSaves != 1 {
		t.Errorf("profile saves = %d, want 1", store.profileSaves)
	}
	if store.lastProfile == nil {
		t.Fatal("profile should be handed to persistence")
	}
	measured, _ := store.lastProfile.Progress()
	if measured != 88 {
		t.Errorf("profile measured %d keys, want 88", measured)
	}

	// Tuning proceeds in the profile-driven order, temperament prefix first.
	note, _ = c.CurrentNote()
	if note.DisplayName() != "F3" {
		t.Errorf("first tuning note = %s, want F3", note.DisplayName())
	}
}

func TestProfilingSkipLeavesSlotEmpty(t *testing.T) {
	c := NewCoordinator(&fakeStore{}, nil)
	c.StartProfile(440)

	c.Skip()

	idx, _ := c.ProfileProgress()
	if idx != 1 {
		t.Fatalf("profile index = %d, want 1", idx)
	}
	if c.Profile().Notes[0] != nil {
		t.Error("skipped slot should stay empty")
	}
}

func TestProfilingBack(t *testing.T) {
	c := NewCoordinator(&fakeStore{}, nil)
	c.StartProfile(440)

	c.Back()
	if idx, _ := c.ProfileProgress(); idx != 0 {
		t.Error("back at the first key is a no-op")
	}

	c.Skip()
	c.Back()
	if idx, _ := c.ProfileProgress(); idx != 0 {
		t.Error("back should return to the previous key")
	}
}

func TestResume(t *testing.T) {
	s := NewSession(ModeConcert, 440)
	s.CompleteNote("F3", 1.0)
	s.CompleteNote("F#3", -2.0)
	s.CompleteNote("G3", 0.5)

	c := NewCoordinator(&fakeStore{}, nil)
	c.Resume(s, nil)

	if c.State() != StateTuning {
		t.Fatalf("state = %v, want tuning", c.State())
	}
	if c.Session().CurrentNoteIndex != 3 {
		t.Errorf("cursor = %d, want 3", c.Session().CurrentNoteIndex)
	}
	note, _ := c.CurrentNote()
	if note.DisplayName() != "G#3" {
		t.Errorf("resumed at %s, want G#3", note.DisplayName())
	}
	if c.Step() != FirstStep(note.Strings) {
		t.Errorf("step = %v, want the note's first step", c.Step())
	}

	done := c.CompletedIndices()
	if len(done) != 3 {
		t.Fatalf("completed indices = %d, want 3", len(done))
	}
	if done[0] != 32 || done[1] != 33 || done[2] != 34 {
		t.Errorf("completed indices = %v, want [32 33 34]", done)
	}
}

func TestResumeSkipsUnknownNoteNames(t *testing.T) {
	s := NewSession(ModeConcert, 440)
	s.CompleteNote("F3", 1.0)
	s.CompletedNotes = append(s.CompletedNotes, CompletedNote{Note: "X9", FinalCents: 2})
	s.CurrentNoteIndex = 2

	c := NewCoordinator(&fakeStore{}, nil)
	c.Resume(s, nil)

	if c.State() != StateTuning {
		t.Fatalf("state = %v, want tuning despite the bad entry", c.State())
	}
	done := c.CompletedIndices()
	if len(done) != 1 || done[0] != 32 {
		t.Errorf("completed indices = %v, want just [32]", done)
	}
}

func TestResumeCompleteSession(t *testing.T) {
	s := NewSession(ModeConcert, 440)
	s.CurrentNoteIndex = 88

	c := NewCoordinator(&fakeStore{}, nil)
	c.Resume(s, nil)

	if c.State() != StateComplete {
		t.Errorf("state = %v, want complete", c.State())
	}
}

func TestResumeQuickUsesOffset(t *testing.T) {
	s := NewQuickSession(-10)
	s.CurrentNoteIndex = 5

	c := NewCoordinator(&fakeStore{}, nil)
	c.Resume(s, nil)

	want := DefaultA4 * CentsToRatio(-10)
	if math.Abs(c.Temperament().A4()-want) > 0.001 {
		t.Errorf("effective A4 = %v, want %v", c.Temperament().A4(), want)
	}
}

func TestResumeProfileModeUsesProfileOrder(t *testing.T) {
	profile := NewProfile()
	profile.RecordNote(108, 4200, 30)

	s := NewSession(ModeProfile, 440)
	s.CurrentNoteIndex = 13

	c := NewCoordinator(&fakeStore{}, nil)
	c.Resume(s, profile)

	note, _ := c.CurrentNote()
	if note.DisplayName() != "C8" {
		t.Errorf("position 13 = %s, want C8 (the worst profiled note)", note.DisplayName())
	}
}

func TestEndToEndConcertFirstNote(t *testing.T) {
	store := &fakeStore{}
	c := NewCoordinator(store, nil)
	c.StartConcert(440)

	target := c.Temperament().Frequency(53)
	if math.Abs(target-174.61) > 0.01 {
		t.Fatalf("F3 target = %.2f Hz, want 174.61", target)
	}

	// Walk the trichord steps, then confirm with a live reading.
	c.Confirm()
	c.Confirm()
	c.Confirm()
	c.HandlePitch(175.0, 0.9)
	c.Confirm()

	if n := len(c.Session().CompletedNotes); n != 1 {
		t.Fatalf("completed = %d, want 1", n)
	}
	done := c.Session().CompletedNotes[0]
	if done.Note != "F3" {
		t.Errorf("note = %q, want F3", done.Note)
	}
	if math.Abs(done.FinalCents-3.83) > 0.5 {
		t.Errorf("final cents = %.2f, want about +4", done.FinalCents)
	}
	next, _ := c.CurrentNote()
	if next.DisplayName() != "F#3" {
		t.Errorf("advanced to %s, want F#3", next.DisplayName())
	}
}
