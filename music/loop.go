package music

import (
	"context"

	. "github.com/JeanRibes/piano-game/shared"

	charmlog "github.com/charmbracelet/log"
)

// Run feeds the control messages of SinkLoop into the game and reports the
// results on SinkUI, until ctx is done or a Quit message arrives. SinkUI may be
// nil when nobody listens.
func Run(ctx context.Context, cancel func(), game *Game, SinkUI, SinkLoop chan Message) {
	logger := charmlog.FromContext(ctx)
	logger.Info("start")

	notify := func(msg Message) {
		if SinkUI == nil {
			return
		}
		select {
		case SinkUI <- msg:
		case <-ctx.Done():
		}
	}

loopchan:
	for {
		select {
		case <-ctx.Done():
			logger.Debug("context Done")
			break loopchan
		case msg := <-SinkLoop:
			logger.Debug("message", "type", msg.Type)
			switch msg.Type {
			case Quit:
				logger.Info("quit")
				cancel()
				break loopchan
			case PlayRandom:
				seq := game.PlayRandom()
				notify(Message{Type: SequenceNotify, Number: len(seq)})
			case Replay:
				if err := game.Replay(); err != nil {
					logger.Warn(err)
					notify(Message{Type: Error, String: err.Error()})
				}
			case UserTurn:
				game.StartUserTurn()
				notify(Message{Type: TurnNotify, Boolean: true})
			case UserNote:
				if msg.Number < 0 || msg.Number > 127 {
					logger.Warn("note out of MIDI range", "note", msg.Number)
					continue
				}
				game.OnUserNote(Note(msg.Number))
			case CheckErrors:
				open := game.UserTurn()
				errors := game.CheckErrors()
				notify(Message{Type: ErrorCountNotify, Number: errors})
				if open && !game.UserTurn() {
					notify(Message{Type: TurnNotify, Boolean: false})
				}
			case ResetErrors:
				game.ResetErrorCount()
				notify(Message{Type: ErrorCountNotify, Number: 0})
			default:
				logger.Printf("unknown message type: %s", msg.Type)
			}
		}
	}
	logger.Info("stop")
}
