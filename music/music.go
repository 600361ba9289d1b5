package music

import (
	"time"

	. "github.com/JeanRibes/piano-game/shared"
)

// play schedules the playback of seq: note i sounds and lights up at
// i*NoteSpacing and goes dark HighlightDuration later. Nothing is cancelled, a
// playback still in flight keeps running alongside a newer one.
// Call with the game locked.
func (g *Game) play(seq Sequence) {
	spacing := g.cfg.NoteSpacing
	duration := g.cfg.HighlightDuration
	for i, note := range seq {
		at := time.Duration(i) * spacing
		g.clock.After(at, func() { g.noteOn(note) })
		g.clock.After(at+duration, func() { g.noteOff(note) })
	}
	g.logger.Debug("playback scheduled", "notes", len(seq), "spacing", spacing, "highlight", duration)
}

func (g *Game) noteOn(n Note) {
	g.Lock()
	defer g.Unlock()
	g.logger.Debug("note  on", "key", n)
	g.surface.SoundNote(n)
	g.highlight.Add(n)
	g.surface.SetActiveNotes(g.highlight.Notes())
}

func (g *Game) noteOff(n Note) {
	g.Lock()
	defer g.Unlock()
	g.logger.Debug("note off", "key", n)
	g.highlight.Remove(n)
	g.surface.SetActiveNotes(g.highlight.Notes())
}
