package music

import (
	"slices"

	. "github.com/JeanRibes/piano-game/shared"
)

// HighlightSet counts live highlights per note: a note stays lit until every
// instance that lit it has been removed, so a repeated note played by two
// overlapping playbacks is not switched off by the first removal.
type HighlightSet struct {
	count map[Note]int
}

func NewHighlightSet() *HighlightSet {
	return &HighlightSet{count: map[Note]int{}}
}

func (h *HighlightSet) Add(n Note) {
	h.count[n]++
}

// Remove drops one instance of n. Removing a note that is not lit is a no-op.
func (h *HighlightSet) Remove(n Note) {
	switch c := h.count[n]; {
	case c > 1:
		h.count[n] = c - 1
	case c == 1:
		delete(h.count, n)
	}
}

func (h *HighlightSet) Contains(n Note) bool {
	return h.count[n] > 0
}

// Notes returns the lit notes in ascending order.
func (h *HighlightSet) Notes() []Note {
	notes := make([]Note, 0, len(h.count))
	for n := range h.count {
		notes = append(notes, n)
	}
	slices.Sort(notes)
	return notes
}

func (h *HighlightSet) Len() int {
	return len(h.count)
}
