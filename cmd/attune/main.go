// Command attune is a terminal piano tuning coach. Run with no arguments for
// the interactive tuner, or use a subcommand for offline work:
//
//	attune                  interactive tuner
//	attune analyze f.wav    pitch-analyze a recording
//	attune reference A4     play an equal-tempered reference tone
//	attune history          list past tuning sessions
//	attune reset            delete all stored sessions and profiles
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fehrm/attune/internal/app"
	"github.com/fehrm/attune/internal/audio"
	"github.com/fehrm/attune/internal/pitch"
	"github.com/fehrm/attune/internal/store"
	"github.com/fehrm/attune/internal/tuning"
)

func main() {
	args := os.Args[1:]

	var err error
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		err = runSubcommand(args[0], args[1:])
	} else {
		err = runTuner(args)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "attune:", err)
		os.Exit(1)
	}
}

func runSubcommand(name string, args []string) error {
	switch name {
	case "analyze":
		return runAnalyze(args)
	case "reference":
		return runReference(args)
	case "history":
		return runHistory()
	case "reset":
		return runReset()
	default:
		return fmt.Errorf("unknown command %q (expected analyze, reference, history, or reset)", name)
	}
}

// runTuner starts the interactive TUI.
func runTuner(args []string) error {
	fs := flag.NewFlagSet("attune", flag.ExitOnError)
	a4 := fs.Float64("a4", tuning.DefaultA4, "A4 reference frequency in Hz")
	resume := fs.Bool("resume", false, "resume the most recent incomplete session")
	quick := fs.Bool("quick", false, "start a quick-tune session immediately")
	profileMode := fs.Bool("profile", false, "start a profiling session immediately")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *a4 < 400 || *a4 > 480 {
		return fmt.Errorf("a4 reference %.1f Hz out of range (400-480)", *a4)
	}

	logger, logClose := openLogger()
	defer logClose()

	// The tuner keeps working without a database; progress just is not saved.
	var persist tuning.Persister
	var st *store.Store
	st, err := store.Open(store.DefaultDBPath())
	if err != nil {
		logger.Warnf("open store: %v", err)
	} else {
		persist = st
		defer st.Close()
	}

	coord := tuning.NewCoordinator(persist, logger)

	switch {
	case *resume:
		if st == nil {
			return fmt.Errorf("cannot resume without a database")
		}
		session, err := st.LoadMostRecentIncomplete()
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		if session == nil {
			return fmt.Errorf("no incomplete session to resume")
		}
		var profile *tuning.PianoProfile
		if session.Mode == tuning.ModeProfile {
			profile, err = st.LoadMostRecentProfile()
			if err != nil {
				return fmt.Errorf("load profile: %w", err)
			}
		}
		coord.Resume(session, profile)
	case *quick:
		coord.StartQuick()
	case *profileMode:
		coord.StartProfile(*a4)
	}

	capture, err := audio.NewCapture()
	if err != nil {
		return err
	}
	defer capture.Close()

	detector := pitch.NewDetector(capture.SampleRate())
	model := app.New(capture, detector, coord, *a4)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// runAnalyze pitch-tracks a WAV file and prints one line per analysis window.
func runAnalyze(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: attune analyze <file.wav>")
	}

	source, err := audio.OpenFile(args[0])
	if err != nil {
		return err
	}

	detector := pitch.NewDetector(source.SampleRate())
	temperament := tuning.NewTemperament()
	window := make([]float32, 4096)

	fmt.Printf("%s: %.1f s at %d Hz\n\n", filepath.Base(args[0]), source.Duration(), source.SampleRate())
	fmt.Printf("%8s  %10s  %-5s  %8s  %s\n", "time", "freq", "note", "cents", "confidence")

	elapsed := 0.0
	hop := 0.25
	detected := 0
	windows := 0
	for {
		n := source.ReadSamples(window)
		if n == 0 {
			break
		}
		windows++

		if est, ok := detector.Detect(window[:n]); ok {
			detected++
			midi := temperament.NearestMidi(est.Frequency)
			label := "?"
			cents := 0.0
			if note, ok := tuning.NoteForMidi(midi); ok {
				label = note.DisplayName()
				cents = temperament.CentsFromTarget(est.Frequency, temperament.Frequency(midi))
			}
			fmt.Printf("%7.2fs  %8.2fHz  %-5s  %+7.1f¢  %.2f\n",
				elapsed, est.Frequency, label, cents, est.Confidence)
		} else {
			fmt.Printf("%7.2fs  %10s\n", elapsed, "-")
		}
		elapsed += hop
	}

	fmt.Printf("\n%d of %d windows had a confident pitch\n", detected, windows)
	return nil
}

// runReference plays an equal-tempered reference tone for a named note.
func runReference(args []string) error {
	fs := flag.NewFlagSet("reference", flag.ExitOnError)
	seconds := fs.Float64("d", 3.0, "tone duration in seconds")
	a4 := fs.Float64("a4", tuning.DefaultA4, "A4 reference frequency in Hz")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: attune reference [-d seconds] [-a4 hz] <note>")
	}

	note, ok := tuning.FindNote(fs.Arg(0))
	if !ok {
		return fmt.Errorf("unknown note %q (expected e.g. A4, F#3)", fs.Arg(0))
	}

	const rate = 44100
	sink, err := audio.NewPlayback(rate)
	if err != nil {
		return err
	}
	defer sink.Close()

	frequency := tuning.TemperamentWithA4(*a4).Frequency(note.Midi)
	fmt.Printf("Playing %s (%.2f Hz) for %.1f s\n", note.DisplayName(), frequency, *seconds)
	return audio.NewTone(rate).Play(sink, frequency, *seconds)
}

// runHistory lists stored sessions, newest first.
func runHistory() error {
	st, err := store.Open(store.DefaultDBPath())
	if err != nil {
		return err
	}
	defer st.Close()

	sessions, err := st.ListSessions()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No tuning sessions yet.")
		return nil
	}

	fmt.Printf("%-19s  %-8s  %7s  %9s\n", "started", "mode", "a4", "progress")
	for _, s := range sessions {
		fmt.Printf("%-19s  %-8s  %5.1fHz  %8.0f%%\n",
			s.CreatedAt.Local().Format("2006-01-02 15:04:05"), s.Mode, s.A4Reference, s.ProgressPercent())
	}
	return nil
}

// runReset deletes all stored sessions and profiles.
func runReset() error {
	st, err := store.Open(store.DefaultDBPath())
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Reset(); err != nil {
		return err
	}
	fmt.Println("All sessions and profiles deleted.")
	return nil
}

// openLogger opens a file-backed logger next to the database. The TUI owns
// stdout, so diagnostics go to disk. Returns a no-op close when the file
// cannot be opened.
func openLogger() (*log.Logger, func()) {
	path := filepath.Join(filepath.Dir(store.DefaultDBPath()), "attune.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return log.New(os.Stderr), func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return log.New(os.Stderr), func() {}
	}
	logger := log.NewWithOptions(f, log.Options{ReportTimestamp: true})
	return logger, func() { f.Close() }
}
