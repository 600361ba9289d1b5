// Package keyboard holds the surfaces the game plays on and the inputs that
// report the notes the user plays.
package keyboard

import (
	"context"

	"github.com/JeanRibes/piano-game/music"
	. "github.com/JeanRibes/piano-game/shared"

	charmlog "github.com/charmbracelet/log"
)

// Input wraps onNote so that notes outside of the configured range, or played
// while the keyboard is disabled, never reach it.
func Input(cfg *Config, onNote func(Note), logger *charmlog.Logger) func(Note) {
	r := cfg.Range()
	return func(n Note) {
		if cfg.Keyboard.Disabled {
			logger.Debug("keyboard disabled, dropping note", "note", n)
			return
		}
		if !r.Contains(n) {
			logger.Debug("note outside of range", "note", n, "range", r)
			return
		}
		onNote(n)
	}
}

// Tee plays on every surface in turn.
type Tee []music.Surface

func (t Tee) SoundNote(n Note) {
	for _, s := range t {
		s.SoundNote(n)
	}
}

func (t Tee) SetActiveNotes(notes []Note) {
	for _, s := range t {
		s.SetActiveNotes(notes)
	}
}

// BusSurface forwards the highlighted notes to a UI as HighlightNotify
// messages.
type BusSurface struct {
	ctx    context.Context
	SinkUI chan Message
}

func NewBusSurface(ctx context.Context, SinkUI chan Message) *BusSurface {
	return &BusSurface{ctx: ctx, SinkUI: SinkUI}
}

func (b *BusSurface) SoundNote(Note) {}

func (b *BusSurface) SetActiveNotes(notes []Note) {
	select {
	case b.SinkUI <- Message{Type: HighlightNotify, Notes: notes}:
	case <-b.ctx.Done():
	}
}
