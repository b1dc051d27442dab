package tuning

import "sort"

// Phase names reported by Order.PhaseAt.
const (
	PhaseTemperament = "Temperament Octave"
	PhaseUp          = "Octaves Up"
	PhaseDown        = "Octaves Down"
	PhaseByDeviation = "By Deviation"
)

// Temperament octave bounds as chromatic indices: F3 through F4 inclusive.
const (
	temperamentStart = 32 // F3
	temperamentEnd   = 44 // F4
	temperamentLen   = temperamentEnd - temperamentStart + 1
)

// Order is the sequence in which the 88 keys are visited. It is computed once
// per session and never mutated.
type Order struct {
	indices [NoteCount]int
	profile bool
}

// TraditionalOrder builds the classic aural tuning sequence: the temperament
// octave F3-F4 first, then up from F#4 to C8, then down from E3 to A0.
func TraditionalOrder() *Order {
	o := &Order{}
	pos := 0
	for i := temperamentStart; i <= temperamentEnd; i++ {
		o.indices[pos] = i
		pos++
	}
	for i := temperamentEnd + 1; i < NoteCount; i++ {
		o.indices[pos] = i
		pos++
	}
	for i := temperamentStart - 1; i >= 0; i-- {
		o.indices[pos] = i
		pos++
	}
	return o
}

// ProfileOrder builds an order from a deviation profile: the temperament
// octave always comes first, and the remaining keys follow sorted by
// descending absolute deviation so the worst-tuned notes are reached first.
// Unmeasured notes count as zero deviation; ties keep chromatic order.
func ProfileOrder(profile *PianoProfile) *Order {
	o := &Order{profile: true}
	pos := 0
	for i := temperamentStart; i <= temperamentEnd; i++ {
		o.indices[pos] = i
		pos++
	}

	rest := make([]int, 0, NoteCount-temperamentLen)
	for i := 0; i < NoteCount; i++ {
		if i < temperamentStart || i > temperamentEnd {
			rest = append(rest, i)
		}
	}
	sort.SliceStable(rest, func(a, b int) bool {
		return profile.AbsCents(rest[a]) > profile.AbsCents(rest[b])
	})

	for _, i := range rest {
		o.indices[pos] = i
		pos++
	}
	return o
}

// Len returns the number of positions, always 88.
func (o *Order) Len() int {
	return NoteCount
}

// At returns the chromatic index at an order position.
func (o *Order) At(pos int) (int, bool) {
	if pos < 0 || pos >= NoteCount {
		return 0, false
	}
	return o.indices[pos], true
}

// NoteAtPosition returns the note at an order position.
func (o *Order) NoteAtPosition(pos int) (Note, bool) {
	idx, ok := o.At(pos)
	if !ok {
		return Note{}, false
	}
	return NoteAt(idx)
}

// PositionOf returns the order position of a chromatic index.
func (o *Order) PositionOf(index int) (int, bool) {
	for pos, idx := range o.indices {
		if idx == index {
			return pos, true
		}
	}
	return 0, false
}

// PhaseAt names the tuning phase for an order position. Profile-driven
// orders have no up/down sweep beyond the temperament prefix.
func (o *Order) PhaseAt(pos int) string {
	if pos < temperamentLen {
		return PhaseTemperament
	}
	if o.profile {
		return PhaseByDeviation
	}
	if pos < temperamentLen+(NoteCount-temperamentEnd-1) {
		return PhaseUp
	}
	return PhaseDown
}
