package app

import (
	"math"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fehrm/attune/internal/pitch"
	"github.com/fehrm/attune/internal/tuning"
)

const testRate = 44100

// sineSource feeds a pure tone into the poll loop.
type sineSource struct {
	freq float64
}

func (s *sineSource) ReadSamples(buf []float32) int {
	for i := range buf {
		buf[i] = float32(math.Sin(2 * math.Pi * s.freq * float64(i) / testRate))
	}
	return len(buf)
}

func (s *sineSource) SampleRate() uint32 { return testRate }

// silentSource has fresh audio but no signal in it.
type silentSource struct{}

func (silentSource) ReadSamples(buf []float32) int {
	for i := range buf {
		buf[i] = 0
	}
	return len(buf)
}

func (silentSource) SampleRate() uint32 { return testRate }

func newTestModel(freq float64) Model {
	coord := tuning.NewCoordinator(nil, nil)
	return New(&sineSource{freq: freq}, pitch.NewDetector(testRate), coord, tuning.DefaultA4)
}

func keyMsg(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModel(t *testing.T) {
	m := newTestModel(440)
	if m.coord.State() != tuning.StateModeSelect {
		t.Errorf("state = %q, want mode select", m.coord.State())
	}
	if len(m.window) != windowSize {
		t.Errorf("window = %d samples, want %d", len(m.window), windowSize)
	}
	if m.modeCursor != 0 {
		t.Errorf("modeCursor = %d, want 0", m.modeCursor)
	}
}

func TestModeSelectNavigation(t *testing.T) {
	m := newTestModel(440)

	updated, _ := m.Update(keyMsg("j"))
	model := updated.(Model)
	if model.modeCursor != 1 {
		t.Errorf("after j, modeCursor = %d, want 1", model.modeCursor)
	}

	updated, _ = model.Update(keyMsg("j"))
	model = updated.(Model)
	updated, _ = model.Update(keyMsg("j"))
	model = updated.(Model)
	if model.modeCursor != 2 {
		t.Errorf("cursor should clamp at 2, got %d", model.modeCursor)
	}

	updated, _ = model.Update(keyMsg("k"))
	model = updated.(Model)
	if model.modeCursor != 1 {
		t.Errorf("after k, modeCursor = %d, want 1", model.modeCursor)
	}
}

func TestModeSelectStartsConcert(t *testing.T) {
	m := newTestModel(440)

	updated, _ := m.Update(keyMsg("2"))
	model := updated.(Model)

	if model.coord.State() != tuning.StateTuning {
		t.Fatalf("state = %q, want tuning", model.coord.State())
	}
	if model.coord.Session().Mode != tuning.ModeConcert {
		t.Errorf("mode = %q, want concert", model.coord.Session().Mode)
	}
}

func TestModeSelectEnterStartsQuick(t *testing.T) {
	m := newTestModel(440)

	updated, _ := m.Update(keyMsg("enter"))
	model := updated.(Model)

	if model.coord.State() != tuning.StateCalibration {
		t.Errorf("state = %q, want calibration", model.coord.State())
	}
}

func TestTickFeedsPitchToCoordinator(t *testing.T) {
	// 175 Hz against the first traditional note F3 (174.61 Hz) reads a few
	// cents sharp.
	m := newTestModel(175)
	m.coord.StartConcert(tuning.DefaultA4)

	// F3 is a trichord; get past the muting step so readings show.
	m.coord.Confirm()

	updated, cmd := m.Update(TickMsg{Time: time.Now()})
	model := updated.(Model)
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}

	cents, ok := model.coord.Deviation()
	if !ok {
		t.Fatal("expected a confident reading")
	}
	if cents < 2 || cents > 6 {
		t.Errorf("deviation = %.2f cents, want roughly +3.8", cents)
	}
}

func TestTickWithSilenceClearsReading(t *testing.T) {
	m := newTestModel(175)
	m.coord.StartConcert(tuning.DefaultA4)
	m.coord.Confirm()

	updated, _ := m.Update(TickMsg{Time: time.Now()})
	model := updated.(Model)
	if _, ok := model.coord.Deviation(); !ok {
		t.Fatal("expected a reading before silence")
	}

	model.source = silentSource{}
	updated, _ = model.Update(TickMsg{Time: time.Now()})
	model = updated.(Model)

	if _, ok := model.coord.Deviation(); ok {
		t.Error("silence should clear the reading")
	}
}

func TestConfirmKeyAdvancesSteps(t *testing.T) {
	m := newTestModel(175)
	m.coord.StartConcert(tuning.DefaultA4)

	// First note F3 is a trichord: four confirms complete it.
	var model tea.Model = m
	for i := 0; i < 4; i++ {
		model, _ = model.Update(keyMsg(" "))
	}

	session := model.(Model).coord.Session()
	if session.CurrentNoteIndex != 1 {
		t.Errorf("cursor = %d, want 1 after four confirms", session.CurrentNoteIndex)
	}
	if len(session.CompletedNotes) != 1 || session.CompletedNotes[0].Note != "F3" {
		t.Errorf("completed = %+v, want one F3 entry", session.CompletedNotes)
	}
}

func TestSkipAndBackKeys(t *testing.T) {
	m := newTestModel(175)
	m.coord.StartConcert(tuning.DefaultA4)

	updated, _ := m.Update(keyMsg("s"))
	model := updated.(Model)
	if model.coord.Session().CurrentNoteIndex != 1 {
		t.Fatalf("cursor = %d, want 1 after skip", model.coord.Session().CurrentNoteIndex)
	}

	// Back from the next note's first step re-enters F3 at its last step.
	updated, _ = model.Update(keyMsg("b"))
	model = updated.(Model)
	if model.coord.Session().CurrentNoteIndex != 0 {
		t.Errorf("cursor = %d, want 0 after back", model.coord.Session().CurrentNoteIndex)
	}
	if model.coord.Step() != tuning.StepTuneRight {
		t.Errorf("step = %v, want StepTuneRight", model.coord.Step())
	}
}

func TestViewRendersWithSize(t *testing.T) {
	m := newTestModel(440)
	m.width = 80
	m.height = 24

	view := m.View()
	if view == "" {
		t.Error("view should not be empty")
	}
	if view == "Initializing..." {
		t.Error("view should not show initializing with size set")
	}
}

func TestViewWithoutSize(t *testing.T) {
	m := newTestModel(440)
	view := m.View()
	if view != "Initializing..." {
		t.Errorf("view without size = %q, want 'Initializing...'", view)
	}
}

func TestViewPerState(t *testing.T) {
	m := newTestModel(175)
	m.width = 80
	m.height = 24

	m.coord.StartQuick()
	if m.View() == "" {
		t.Error("calibration view should render")
	}

	m.coord.StartProfile(tuning.DefaultA4)
	if m.View() == "" {
		t.Error("profiling view should render")
	}

	m.coord.StartConcert(tuning.DefaultA4)
	if m.View() == "" {
		t.Error("tuning view should render")
	}
}
