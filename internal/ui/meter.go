package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// MeterRange is the cents span the meter displays on each side of center.
const MeterRange = 50.0

// inTuneCents is the band treated as in tune.
const inTuneCents = 2.0

// closeCents is the band treated as close enough to show yellow.
const closeCents = 10.0

// CentsMeter renders a horizontal tuning meter. The needle sits at center
// when the deviation is zero; deviations beyond MeterRange pin to the edge.
func CentsMeter(cents float64, width int) string {
	if width < 11 {
		width = 11
	}
	if width%2 == 0 {
		width--
	}

	pos := cents / MeterRange
	if pos > 1 {
		pos = 1
	}
	if pos < -1 {
		pos = -1
	}
	center := width / 2
	needle := center + int(pos*float64(center))

	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i == needle:
			b.WriteString(needleStyle(cents).Render("▼"))
		case i == center:
			b.WriteString(DimStyle.Render("┼"))
		default:
			b.WriteString(DividerStyle.Render("─"))
		}
	}
	return b.String()
}

// CentsLabel renders the numeric deviation with the meter's color coding,
// e.g. "+3.2¢" or "-12.5¢".
func CentsLabel(cents float64) string {
	return needleStyle(cents).Render(fmt.Sprintf("%+.1f¢", cents))
}

func needleStyle(cents float64) lipgloss.Style {
	abs := cents
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs <= inTuneCents:
		return InTuneStyle
	case abs <= closeCents:
		return CloseStyle
	default:
		return FarStyle
	}
}

// DirectionHint tells the user which way to turn the tuning pin. Empty within
// five cents of target; there is nothing useful to say that close.
func DirectionHint(cents float64) string {
	switch {
	case cents > 5:
		return "Lower the pitch: turn the pin counter-clockwise"
	case cents < -5:
		return "Raise the pitch: turn the pin clockwise"
	default:
		return ""
	}
}

// ProgressLine renders "[####....] n/total" for a count-based phase.
func ProgressLine(done, total, width int) string {
	if width < 10 {
		width = 10
	}
	filled := 0
	if total > 0 {
		filled = done * width / total
	}
	if filled > width {
		filled = width
	}
	bar := InTuneStyle.Render(strings.Repeat("█", filled)) +
		PendingKeyStyle.Render(strings.Repeat("░", width-filled))
	return bar + " " + DimStyle.Render(fmt.Sprintf("%d/%d", done, total))
}

// KeyboardStrip renders one cell per piano key: done keys green, the current
// key highlighted, the rest dim. Indices are chromatic, 0 = A0.
func KeyboardStrip(total, current int, done []int) string {
	isDone := make(map[int]bool, len(done))
	for _, idx := range done {
		isDone[idx] = true
	}

	var b strings.Builder
	for i := 0; i < total; i++ {
		switch {
		case i == current:
			b.WriteString(CurrentKeyStyle.Render("▓"))
		case isDone[i]:
			b.WriteString(DoneKeyStyle.Render("█"))
		default:
			b.WriteString(PendingKeyStyle.Render("░"))
		}
	}
	return b.String()
}
