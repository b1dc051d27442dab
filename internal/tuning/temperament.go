package tuning

import "math"

// DefaultA4 is concert pitch in Hz.
const DefaultA4 = 440.0

// Temperament converts between MIDI notes, frequencies, and cents under equal
// temperament for a configurable A4 reference. It is immutable and safe to
// share across components.
type Temperament struct {
	a4 float64
}

// NewTemperament returns a temperament at concert pitch.
func NewTemperament() Temperament {
	return Temperament{a4: DefaultA4}
}

// TemperamentWithA4 returns a temperament with a custom A4 reference.
func TemperamentWithA4(a4 float64) Temperament {
	return Temperament{a4: a4}
}

// TemperamentWithOffset returns a temperament whose A4 is concert pitch
// shifted by the given cents. Quick-tune mode uses this to tune the piano
// against its own pitch center instead of pulling every string to 440.
func TemperamentWithOffset(offsetCents float64) Temperament {
	return Temperament{a4: DefaultA4 * CentsToRatio(offsetCents)}
}

// A4 returns the reference frequency in Hz.
func (t Temperament) A4() float64 {
	return t.a4
}

// Frequency returns the equal-tempered frequency for a MIDI note number.
func (t Temperament) Frequency(midi int) float64 {
	return t.a4 * math.Pow(2, float64(midi-69)/12)
}

// NearestMidi returns the MIDI note whose equal-tempered pitch is closest
// to the frequency.
func (t Temperament) NearestMidi(frequency float64) int {
	return int(math.Round(69 + 12*math.Log2(frequency/t.a4)))
}

// CentsFromTarget returns how far frequency deviates from target in cents.
func (t Temperament) CentsFromTarget(frequency, target float64) float64 {
	return 1200 * math.Log2(frequency/target)
}

// CentsToRatio converts a cents interval to a frequency ratio.
func CentsToRatio(cents float64) float64 {
	return math.Pow(2, cents/1200)
}
