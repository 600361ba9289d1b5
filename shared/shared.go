package shared

import "fmt"

type Event int

const (
	Quit Event = iota
	PlayRandom
	Replay
	UserTurn
	UserNote
	CheckErrors
	ResetErrors
	Error
	ErrorCountNotify
	HighlightNotify
	TurnNotify
	SequenceNotify
)

func (e Event) String() string {
	switch e {
	case Quit:
		return "quit"
	case PlayRandom:
		return "play-random"
	case Replay:
		return "replay"
	case UserTurn:
		return "user-turn"
	case UserNote:
		return "user-note"
	case CheckErrors:
		return "check-errors"
	case ResetErrors:
		return "reset-errors"
	case Error:
		return "error"
	case ErrorCountNotify:
		return "error-count"
	case HighlightNotify:
		return "highlight"
	case TurnNotify:
		return "turn"
	case SequenceNotify:
		return "sequence"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

type Message struct {
	Type    Event
	Number  int
	Boolean bool
	String  string
	Notes   []Note
}

// length of the control buses between the UI and the game loop
const BUS_SIZE = 10

func NewBus() chan Message {
	return make(chan Message, BUS_SIZE)
}
