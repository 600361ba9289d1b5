package music

import (
	"strings"

	. "github.com/JeanRibes/piano-game/shared"
)

type Sequence []Note

// Source is a uniform random source; *rand.Rand from math/rand/v2 fits.
type Source interface {
	IntN(n int) int
}

// Generate picks length notes uniformly in r, repeats allowed. The order of
// the result is the playback order.
func Generate(src Source, length int, r NoteRange) Sequence {
	seq := make(Sequence, length)
	for i := range seq {
		seq[i] = r.First + Note(src.IntN(r.Size()))
	}
	return seq
}

// Compare counts the positions of expected that actual does not reproduce.
// Missing notes in actual count as errors, extra ones are ignored.
func Compare(expected, actual Sequence) int {
	errors := 0
	for i, note := range expected {
		if i >= len(actual) || actual[i] != note {
			errors++
		}
	}
	return errors
}

func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	return append(Sequence{}, s...)
}

func (s Sequence) String() string {
	return strings.Join(Names(s), " ")
}
