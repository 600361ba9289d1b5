package shared

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Note is a MIDI note number.
type Note uint8

var ErrUnknownNote = errors.New("unknown note name")
var ErrInvalidRange = errors.New("invalid note range")

var noteNames = [12]string{"c", "c#", "d", "d#", "e", "f", "f#", "g", "g#", "a", "a#", "b"}

// pitch classes, flats included
var pitchClasses = map[string]int{
	"c": 0, "c#": 1, "db": 1,
	"d": 2, "d#": 3, "eb": 3,
	"e": 4,
	"f": 5, "f#": 6, "gb": 6,
	"g": 7, "g#": 8, "ab": 8,
	"a": 9, "a#": 10, "bb": 10,
	"b": 11,
}

// ParseNote turns a pitch name such as "c3", "F#4" or "bb2" into a note
// number. Octaves follow the c4 = 60 convention.
func ParseNote(name string) (Note, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	i := 0
	for i < len(s) && (s[i] < '0' || s[i] > '9') && s[i] != '-' {
		i++
	}
	class, ok := pitchClasses[s[:i]]
	if !ok || i == len(s) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownNote, name)
	}
	octave, err := strconv.Atoi(s[i:])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownNote, name)
	}
	n := (octave+1)*12 + class
	if n < 0 || n > 127 {
		return 0, fmt.Errorf("%w: %q is outside the MIDI range", ErrUnknownNote, name)
	}
	return Note(n), nil
}

func (n Note) Name() string {
	return fmt.Sprintf("%s%d", noteNames[int(n)%12], int(n)/12-1)
}

// MarshalJSON keeps note lists as arrays of numbers rather than base64.
func (n Note) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(n))), nil
}

func (n Note) String() string {
	return strings.ToUpper(n.Name()[:1]) + n.Name()[1:]
}

// NoteRange is an inclusive range of playable notes.
type NoteRange struct {
	First Note
	Last  Note
}

func NewNoteRange(first, last string) (NoteRange, error) {
	f, err := ParseNote(first)
	if err != nil {
		return NoteRange{}, err
	}
	l, err := ParseNote(last)
	if err != nil {
		return NoteRange{}, err
	}
	if f > l {
		return NoteRange{}, fmt.Errorf("%w: %s is above %s", ErrInvalidRange, first, last)
	}
	return NoteRange{First: f, Last: l}, nil
}

func (r NoteRange) Contains(n Note) bool {
	return n >= r.First && n <= r.Last
}

func (r NoteRange) Size() int {
	return int(r.Last) - int(r.First) + 1
}

func (r NoteRange) String() string {
	return r.First.String() + ".." + r.Last.String()
}

func Names(notes []Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.String()
	}
	return out
}
