package bot

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/PrincipeGhost/CorreosPremium/core/telegram/helpers"
)

// Fallback handlers for updates that match no command, callback, or state.
// Bot satisfies ui.FallbackProvider.

func (b *Bot) UnknownText() tele.HandlerFunc {
	return b.handleBareTrackingID
}

func (b *Bot) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "No puedo procesar archivos. Envíame un número de seguimiento.")
	}
}

func (b *Bot) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "Ese botón ya no está activo.")
	}
}
