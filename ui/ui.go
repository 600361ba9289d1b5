package ui

import (
	"context"
	"os"
	"time"

	. "github.com/JeanRibes/piano-game/shared"

	charmlog "github.com/charmbracelet/log"
	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/gtk"
)

var mainWin *gtk.Window
var playBtn *gtk.Button
var replayBtn *gtk.Button
var turnBtn *gtk.Button
var checkBtn *gtk.Button
var resetBtn *gtk.Button
var notesLabel *gtk.Label
var turnLabel *gtk.Label
var errorsLabel *gtk.Label

// Run shows the control panel and blocks in the GTK main loop. It must run
// on the main goroutine.
func Run(ctx context.Context, cfg *Config, SinkUI, SinkLoop chan Message) {
	logger := charmlog.FromContext(ctx)
	logger.Info("start")
	gtk.Init(nil)

	send := func(msg Message) {
		select {
		case SinkLoop <- msg:
		case <-ctx.Done():
		}
	}

	var err error
	mainWin, err = gtk.WindowNew(gtk.WINDOW_TOPLEVEL)
	if err != nil {
		logger.Fatal("Unable to create window:", "err", err)
	}
	mainWin.SetTitle("Piano Game")
	mainWin.Connect("destroy", func() {
		logger.Debug("close win, sending quit event")
		send(Message{Type: Quit})
		quitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		select {
		case <-ctx.Done():
		case <-quitCtx.Done():
			logger.Warn("took too long to shutdown")
			os.Exit(3)
		}
	})

	mainBox, _ := gtk.BoxNew(gtk.ORIENTATION_VERTICAL, 10)

	title, _ := gtk.LabelNew("")
	title.SetMarkup("<big><b>Piano Game</b></big>")
	mainBox.Add(title)

	notesLabel, _ = gtk.LabelNew("♪")
	mainBox.Add(notesLabel)

	buttons, _ := gtk.BoxNew(gtk.ORIENTATION_HORIZONTAL, 10)
	playBtn, _ = gtk.ButtonNewWithLabel("Séquence aléatoire")
	playBtn.Connect("clicked", func() {
		send(Message{Type: PlayRandom})
	})
	replayBtn, _ = gtk.ButtonNewWithLabel("Rejouer")
	replayBtn.Connect("clicked", func() {
		send(Message{Type: Replay})
	})
	turnBtn, _ = gtk.ButtonNewWithLabel("À toi")
	turnBtn.Connect("clicked", func() {
		send(Message{Type: UserTurn})
	})
	checkBtn, _ = gtk.ButtonNewWithLabel("Vérifier")
	checkBtn.Connect("clicked", func() {
		send(Message{Type: CheckErrors})
	})
	resetBtn, _ = gtk.ButtonNewWithLabel("Remettre à zéro")
	resetBtn.Connect("clicked", func() {
		send(Message{Type: ResetErrors})
	})
	for _, btn := range []*gtk.Button{playBtn, replayBtn, turnBtn, checkBtn, resetBtn} {
		buttons.Add(btn)
	}
	mainBox.Add(buttons)

	status, _ := gtk.BoxNew(gtk.ORIENTATION_HORIZONTAL, 20)
	turnLabel, _ = gtk.LabelNew("écoute")
	errorsLabel, _ = gtk.LabelNew("Erreurs: 0")
	status.Add(turnLabel)
	status.Add(errorsLabel)
	mainBox.Add(status)

	// keyboard shortcuts play notes
	mainWin.Connect("key-press-event", func(win *gtk.Window, ev *gdk.Event) bool {
		if cfg.Keyboard.Disabled {
			return false
		}
		key := gdk.EventKeyNewFromEvent(ev)
		r := gdk.KeyvalToUnicode(key.KeyVal())
		n, ok := cfg.Shortcut(string(r))
		if !ok {
			return false
		}
		send(Message{Type: UserNote, Number: int(n)})
		return true
	})

	mainWin.Add(mainBox)
	mainWin.SetDefaultSize(cfg.Keyboard.Width, cfg.Keyboard.Height)
	mainWin.ShowAll()

	go loop(ctx, SinkUI, logger)

	gtk.Main()
	logger.Info("stop")
}
