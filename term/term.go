// Package term drives the game from a line-oriented terminal.
package term

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	. "github.com/JeanRibes/piano-game/shared"

	charmlog "github.com/charmbracelet/log"
)

var ErrUnknownCommand = errors.New("unknown command")

const HELP = `commands:
  play          play a new random sequence
  replay        play the current sequence again
  turn          start your turn
  note <n>      play a note, by name (c4) or MIDI number (60)
  check         count your errors
  reset         reset the error counter
  quit
any other line is read as keyboard shortcuts, one note per key`

var commands = map[string]Event{
	"play":   PlayRandom,
	"replay": Replay,
	"turn":   UserTurn,
	"check":  CheckErrors,
	"reset":  ResetErrors,
	"quit":   Quit,
}

// ParseCommand turns a line typed at the prompt into the messages for the game
// loop.
func ParseCommand(cfg *Config, line string) ([]Message, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	if ev, ok := commands[strings.ToLower(fields[0])]; ok && len(fields) == 1 {
		return []Message{{Type: ev}}, nil
	}
	if strings.ToLower(fields[0]) == "note" {
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: usage: note <name|number>", ErrUnknownCommand)
		}
		n, err := parseNoteArg(fields[1])
		if err != nil {
			return nil, err
		}
		if !cfg.Range().Contains(n) {
			return nil, fmt.Errorf("%w: %s is outside %s", ErrInvalidRange, n, cfg.Range())
		}
		return []Message{{Type: UserNote, Number: int(n)}}, nil
	}

	msgs := []Message{}
	for _, key := range strings.Join(fields, "") {
		n, ok := cfg.Shortcut(string(key))
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, line)
		}
		msgs = append(msgs, Message{Type: UserNote, Number: int(n)})
	}
	return msgs, nil
}

func parseNoteArg(arg string) (Note, error) {
	if i, err := strconv.Atoi(arg); err == nil {
		if i < 0 || i > 127 {
			return 0, fmt.Errorf("%w: %d", ErrUnknownNote, i)
		}
		return Note(i), nil
	}
	return ParseNote(arg)
}

// Run drives the game from a line-oriented terminal until ctx is done.
func Run(ctx context.Context, cfg *Config, in io.Reader, out io.Writer, SinkUI, SinkLoop chan Message) {
	logger := charmlog.FromContext(ctx)
	logger.Info("start")
	fmt.Fprintln(out, HELP)

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			msgs, err := ParseCommand(cfg, scanner.Text())
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			if cfg.Keyboard.Disabled && len(msgs) > 0 && msgs[0].Type == UserNote {
				fmt.Fprintln(out, "keyboard disabled")
				continue
			}
			for _, msg := range msgs {
				select {
				case SinkLoop <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			logger.Error(err)
		}
		logger.Debug("input closed, quitting")
		select {
		case SinkLoop <- Message{Type: Quit}:
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("chan Done, quitting")
			return
		case msg := <-SinkUI:
			if line := Describe(msg); line != "" {
				fmt.Fprintln(out, line)
			}
		}
	}
}

// Describe renders a UI notification as a line of text, or "" when there is
// nothing to show.
func Describe(msg Message) string {
	switch msg.Type {
	case SequenceNotify:
		return fmt.Sprintf("listen: %d notes", msg.Number)
	case HighlightNotify:
		if len(msg.Notes) == 0 {
			return ""
		}
		return "♪ " + strings.Join(Names(msg.Notes), " ")
	case TurnNotify:
		if msg.Boolean {
			return "your turn"
		}
		return "turn over"
	case ErrorCountNotify:
		return fmt.Sprintf("errors: %d", msg.Number)
	case Error:
		return "error: " + msg.String
	default:
		return ""
	}
}
