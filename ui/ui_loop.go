package ui

import (
	"context"
	"fmt"
	"strings"

	. "github.com/JeanRibes/piano-game/shared"

	charmlog "github.com/charmbracelet/log"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
)

func loop(ctx context.Context, SinkUI chan Message, logger *charmlog.Logger) {
	errors := ""
	errorDialog := gtk.MessageDialogNew(mainWin, gtk.DIALOG_MODAL, gtk.MESSAGE_ERROR, gtk.BUTTONS_CLOSE, "Erreur")
	errorDialog.Connect("response", func() {
		errorDialog.Hide()
		errors = ""
	})

	for {
		select {
		case <-ctx.Done():
			logger.Debug("chan Done, quitting")
			glib.IdleAdd(gtk.MainQuit)
			return
		case msg := <-SinkUI:
			switch msg.Type {
			case HighlightNotify:
				text := "♪ " + strings.Join(Names(msg.Notes), " ")
				glib.IdleAdd(func() {
					notesLabel.SetLabel(text)
				})
			case SequenceNotify:
				glib.IdleAdd(func() {
					turnLabel.SetLabel(fmt.Sprintf("écoute (%d notes)", msg.Number))
				})
			case TurnNotify:
				if msg.Boolean {
					glib.IdleAdd(func() {
						turnLabel.SetLabel("à toi de jouer")
					})
				} else {
					glib.IdleAdd(func() {
						turnLabel.SetLabel("tour terminé")
					})
				}
			case ErrorCountNotify:
				glib.IdleAdd(func() {
					errorsLabel.SetLabel(fmt.Sprintf("Erreurs: %d", msg.Number))
				})
			case Error:
				if len(errors) == 0 {
					errors = msg.String
				} else {
					errors += "\n\n" + msg.String
				}
				text := errors
				glib.IdleAdd(func() {
					errorDialog.FormatSecondaryText("%s", text)
					errorDialog.Show()
				})
			}
		}
	}
}
