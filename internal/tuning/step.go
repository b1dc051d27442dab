package tuning

// Step is one sub-step of tuning a multi-string note. Monochords have no
// steps; bichords take two, trichords four.
type Step int

const (
	// StepNone marks a monochord note with no sub-steps.
	StepNone Step = iota
	// StepMuteBichord: mute the right string.
	StepMuteBichord
	// StepTuneBichord: tune the left string, then match the right.
	StepTuneBichord
	// StepMuteOuter: mute both outer strings of a trichord.
	StepMuteOuter
	// StepTuneCenter: tune the center string to pitch.
	StepTuneCenter
	// StepTuneLeft: unmute and match the left string.
	StepTuneLeft
	// StepTuneRight: unmute and match the right string.
	StepTuneRight
)

// FirstStep returns the first sub-step for a string count.
func FirstStep(strings int) Step {
	switch strings {
	case 2:
		return StepMuteBichord
	case 3:
		return StepMuteOuter
	default:
		return StepNone
	}
}

// LastStep returns the final sub-step for a string count. Stepping backward
// into a finished note resumes here.
func LastStep(strings int) Step {
	switch strings {
	case 2:
		return StepTuneBichord
	case 3:
		return StepTuneRight
	default:
		return StepNone
	}
}

// Next returns the following sub-step, or StepNone when this is the last.
func (s Step) Next() Step {
	switch s {
	case StepMuteBichord:
		return StepTuneBichord
	case StepMuteOuter:
		return StepTuneCenter
	case StepTuneCenter:
		return StepTuneLeft
	case StepTuneLeft:
		return StepTuneRight
	default:
		return StepNone
	}
}

// Prev returns the preceding sub-step, or StepNone when this is the first.
func (s Step) Prev() Step {
	switch s {
	case StepTuneBichord:
		return StepMuteBichord
	case StepTuneCenter:
		return StepMuteOuter
	case StepTuneLeft:
		return StepTuneCenter
	case StepTuneRight:
		return StepTuneLeft
	default:
		return StepNone
	}
}

// IsMuting reports whether the step is a mute instruction. Muting steps show
// no pitch deviation; there is nothing to listen for yet.
func (s Step) IsMuting() bool {
	return s == StepMuteBichord || s == StepMuteOuter
}

// Number returns the 1-based step number, or 0 for StepNone.
func (s Step) Number() int {
	switch s {
	case StepMuteBichord, StepMuteOuter:
		return 1
	case StepTuneBichord, StepTuneCenter:
		return 2
	case StepTuneLeft:
		return 3
	case StepTuneRight:
		return 4
	default:
		return 0
	}
}

// TotalSteps returns how many sub-steps a string count takes.
func TotalSteps(strings int) int {
	switch strings {
	case 2:
		return 2
	case 3:
		return 4
	default:
		return 0
	}
}

// Title returns a short label for the step.
func (s Step) Title() string {
	switch s {
	case StepMuteBichord:
		return "Mute right string"
	case StepTuneBichord:
		return "Tune left string"
	case StepMuteOuter:
		return "Mute outer strings"
	case StepTuneCenter:
		return "Tune center string"
	case StepTuneLeft:
		return "Tune left string"
	case StepTuneRight:
		return "Tune right string"
	default:
		return ""
	}
}

// Instruction returns the coaching text for the step.
func (s Step) Instruction() string {
	switch s {
	case StepMuteBichord:
		return "Use a felt wedge or rubber mute to mute the right string. Only the left string should sound."
	case StepTuneBichord:
		return "Tune the left string to pitch. Then remove the mute and tune the right string to match."
	case StepMuteOuter:
		return "Use a felt strip or rubber mutes to mute the outer strings. Only the center string should sound."
	case StepTuneCenter:
		return "Tune the center string to the target pitch using the meter."
	case StepTuneLeft:
		return "Unmute the left string. Tune it to match the center string until you hear no beats."
	case StepTuneRight:
		return "Unmute the right string. Tune it to match the center string until you hear no beats."
	default:
		return "Tune this string to the target pitch using the meter."
	}
}
