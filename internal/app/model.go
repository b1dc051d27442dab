package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/fehrm/attune/internal/audio"
	"github.com/fehrm/attune/internal/pitch"
	"github.com/fehrm/attune/internal/tuning"
	"github.com/fehrm/attune/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// pollInterval is how often the control loop samples the capture buffer.
const pollInterval = 50 * time.Millisecond

// windowSize is the analysis window handed to the detector, about 46 ms at
// 44.1 kHz. Long enough to resolve A0 with the detector's lag bound.
const windowSize = 2048

// modeEntry is one selectable row on the mode-select screen.
type modeEntry struct {
	title       string
	description string
}

var modeEntries = []modeEntry{
	{"Quick Tune", "Tune the piano to itself. Calibration finds its pitch center first."},
	{"Concert Pitch", "Tune to A4 = 440 Hz (or a custom reference)."},
	{"Profile & Tune", "Measure all 88 keys first, then tune worst-first."},
}

// Model is the root bubbletea model for the attune TUI.
type Model struct {
	source   audio.Source
	detector *pitch.Detector
	coord    *tuning.Coordinator
	a4       float64

	// window is reused across ticks so polling does not allocate.
	window []float32

	// Mode-select screen state
	modeCursor int

	// UI state
	width  int
	height int
}

// New creates a model in mode selection. The coordinator may already hold a
// resumed session, in which case the tuning screen shows immediately.
func New(source audio.Source, detector *pitch.Detector, coord *tuning.Coordinator, a4 float64) Model {
	return Model{
		source:   source,
		detector: detector,
		coord:    coord,
		a4:       a4,
		window:   make([]float32, windowSize),
	}
}

// Init starts the poll loop.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		m.poll()
		return m, tickCmd()
	}

	return m, nil
}

// poll reads the freshest capture window and feeds the coordinator. Without
// fresh audio the reading goes stale and clears on the next low-confidence
// estimate rather than immediately; the buffer's fresh flag keeps the same
// window from being analyzed twice.
func (m *Model) poll() {
	switch m.coord.State() {
	case tuning.StateCalibration, tuning.StateProfiling, tuning.StateTuning:
	default:
		return
	}

	n := m.source.ReadSamples(m.window)
	if n == 0 {
		return
	}
	est, ok := m.detector.Detect(m.window[:n])
	if !ok {
		m.coord.HandlePitch(0, 0)
		return
	}
	m.coord.HandlePitch(est.Frequency, est.Confidence)
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		return m, tea.Quit
	}

	switch m.coord.State() {
	case tuning.StateModeSelect:
		switch key {
		case KeyUp, KeyK:
			if m.modeCursor > 0 {
				m.modeCursor--
			}
		case KeyDown, KeyJ:
			if m.modeCursor < len(modeEntries)-1 {
				m.modeCursor++
			}
		case KeyMode1:
			m.startMode(0)
		case KeyMode2:
			m.startMode(1)
		case KeyMode3:
			m.startMode(2)
		case KeyEnter, KeySpace:
			m.startMode(m.modeCursor)
		}

	case tuning.StateTuning, tuning.StateProfiling:
		switch key {
		case KeySpace, KeyEnter:
			m.coord.Confirm()
		case KeySkip:
			m.coord.Skip()
		case KeyBack:
			m.coord.Back()
		}

	case tuning.StateComplete:
		if key == KeyEnter {
			return m, tea.Quit
		}
	}

	return m, nil
}

// startMode kicks off the selected workflow.
func (m *Model) startMode(index int) {
	switch index {
	case 0:
		m.coord.StartQuick()
	case 1:
		m.coord.StartConcert(m.a4)
	case 2:
		m.coord.StartProfile(m.a4)
	}
}

// View renders the screen for the coordinator's current phase.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	switch m.coord.State() {
	case tuning.StateModeSelect:
		return m.renderModeSelect()
	case tuning.StateCalibration:
		return m.renderCalibration()
	case tuning.StateProfiling:
		return m.renderProfiling()
	case tuning.StateTuning:
		return m.renderTuning()
	case tuning.StateComplete:
		return m.renderComplete()
	}
	return ""
}

func (m Model) renderHeader(subtitle string) string {
	title := ui.TitleStyle.Render("ATTUNE")
	if subtitle == "" {
		return title
	}
	return title + ui.DimStyle.Render(" — "+subtitle)
}

func (m Model) renderModeSelect() string {
	var sections []string
	sections = append(sections, m.renderHeader(fmt.Sprintf("A4 = %.1f Hz", m.a4)))
	sections = append(sections, "")

	for i, entry := range modeEntries {
		var title string
		if i == m.modeCursor {
			title = ui.SelectedStyle.Render(fmt.Sprintf("> %d. %s", i+1, entry.title))
		} else {
			title = fmt.Sprintf("  %d. %s", i+1, entry.title)
		}
		sections = append(sections, title)
		sections = append(sections, ui.DimStyle.Render("     "+entry.description))
	}

	sections = append(sections, "")
	sections = append(sections, m.renderFooter([][2]string{
		{"↑↓/jk", "Select"}, {"Enter", "Start"}, {"1-3", "Start mode"}, {"q", "Quit"},
	}))
	return strings.Join(sections, "\n")
}

func (m Model) renderCalibration() string {
	var sections []string
	sections = append(sections, m.renderHeader("Calibration"))
	sections = append(sections, "")
	sections = append(sections, ui.InstructionStyle.Render("Play A4 (the A above middle C) firmly and let it ring."))
	sections = append(sections, ui.DimStyle.Render("Listening for the piano's pitch center."))
	sections = append(sections, "")

	collected, target := m.coord.CalibrationProgress()
	sections = append(sections, ui.ProgressLine(collected, target, 20))

	if freq := m.coord.Frequency(); freq > 0 {
		sections = append(sections, "")
		sections = append(sections, ui.DimStyle.Render(fmt.Sprintf("Hearing %.2f Hz", freq)))
	}

	sections = append(sections, "")
	sections = append(sections, m.renderFooter([][2]string{{"q", "Quit"}}))
	return strings.Join(sections, "\n")
}

func (m Model) renderProfiling() string {
	var sections []string
	sections = append(sections, m.renderHeader("Profiling"))
	sections = append(sections, "")

	current, total := m.coord.ProfileProgress()
	if note, ok := m.coord.CurrentNote(); ok {
		sections = append(sections, ui.NoteStyle.Render(note.DisplayName())+
			ui.DimStyle.Render(fmt.Sprintf("  (key %d of %d)", current+1, total)))
	}

	sections = append(sections, "")
	sections = append(sections, m.renderReading(false))
	sections = append(sections, "")
	sections = append(sections, ui.ProgressLine(current, total, 44))
	sections = append(sections, "")
	sections = append(sections, m.renderFooter([][2]string{
		{"Space", "Record"}, {"s", "Skip"}, {"b", "Back"}, {"q", "Quit"},
	}))
	return strings.Join(sections, "\n")
}

func (m Model) renderTuning() string {
	var sections []string
	sections = append(sections, m.renderHeader(m.coord.Phase()))
	sections = append(sections, "")

	session := m.coord.Session()
	order := m.coord.Order()

	note, ok := m.coord.CurrentNote()
	if ok {
		position := fmt.Sprintf("  (note %d of %d)", session.CurrentNoteIndex+1, order.Len())
		sections = append(sections, ui.NoteStyle.Render(note.DisplayName())+ui.DimStyle.Render(position))

		target := m.coord.Temperament().Frequency(note.Midi)
		sections = append(sections, ui.DimStyle.Render(fmt.Sprintf("Target %.2f Hz", target)))
	}

	step := m.coord.Step()
	if step != tuning.StepNone && ok {
		sections = append(sections, "")
		sections = append(sections, ui.StepTitleStyle.Render(
			fmt.Sprintf("Step %d/%d: %s", step.Number(), tuning.TotalSteps(note.Strings), step.Title())))
		for _, line := range wrapText(step.Instruction(), max(30, m.width-4)) {
			sections = append(sections, ui.InstructionStyle.Render(line))
		}
	}

	sections = append(sections, "")
	sections = append(sections, m.renderReading(step.IsMuting()))

	sections = append(sections, "")
	if idx, found := tuning.IndexForMidi(note.Midi); ok && found {
		sections = append(sections, ui.KeyboardStrip(tuning.NoteCount, idx, m.coord.CompletedIndices()))
	}

	sections = append(sections, "")
	sections = append(sections, m.renderFooter([][2]string{
		{"Space", "Confirm"}, {"s", "Skip"}, {"b", "Back"}, {"q", "Quit"},
	}))
	return strings.Join(sections, "\n")
}

// renderReading renders the live meter block. Muting steps show the coaching
// state instead; there is no pitch to read while placing mutes.
func (m Model) renderReading(muting bool) string {
	if muting {
		return ui.ListeningStyle.Render("(place the mutes, then press Space)")
	}

	cents, ok := m.coord.Deviation()
	if !ok {
		return ui.ListeningStyle.Render("Listening...")
	}

	meterWidth := min(max(21, m.width-20), 61)
	lines := []string{
		ui.CentsMeter(cents, meterWidth),
		ui.CentsLabel(cents) + ui.DimStyle.Render(fmt.Sprintf("  %.2f Hz", m.coord.Frequency())),
	}
	if hint := ui.DirectionHint(cents); hint != "" {
		lines = append(lines, ui.CloseStyle.Render(hint))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderComplete() string {
	var sections []string
	sections = append(sections, m.renderHeader("Complete"))
	sections = append(sections, "")
	sections = append(sections, ui.InTuneStyle.Render("Tuning complete."))

	if session := m.coord.Session(); session != nil {
		sections = append(sections, "")
		sections = append(sections, fmt.Sprintf("Notes completed: %d", len(session.CompletedNotes)))
		sections = append(sections, fmt.Sprintf("Average deviation at confirm: %.2f cents", session.AverageDeviation()))
	}

	sections = append(sections, "")
	sections = append(sections, m.renderFooter([][2]string{{"Enter/q", "Quit"}}))
	return strings.Join(sections, "\n")
}

func (m Model) renderFooter(keys [][2]string) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, ui.FooterKeyStyle.Render(k[0])+ui.FooterDescStyle.Render(" "+k[1]))
	}
	return strings.Join(parts, "  ")
}

// Helpers

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		} else {
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
