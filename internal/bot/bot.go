// Package bot wires the Telegram surface of the tracking service: public
// lookup commands, the owner's creation wizard, and the admin panel.
package bot

import (
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"

	tg "github.com/PrincipeGhost/CorreosPremium/core/telegram"
	"github.com/PrincipeGhost/CorreosPremium/core/telegram/commands"
	tghelpers "github.com/PrincipeGhost/CorreosPremium/core/telegram/helpers"
	"github.com/PrincipeGhost/CorreosPremium/core/telegram/state"
	"github.com/PrincipeGhost/CorreosPremium/internal/lifecycle"
	"github.com/PrincipeGhost/CorreosPremium/internal/services/tracking"
)

// Bot groups the handlers over the tracking service.
type Bot struct {
	svc     *tracking.Service
	fsm     state.Manager
	ownerID int64
}

// New builds the bot layer. fsm may be shared with the router's text routes.
func New(svc *tracking.Service, fsm state.Manager, ownerID int64) *Bot {
	return &Bot{svc: svc, fsm: fsm, ownerID: ownerID}
}

// FSM exposes the session manager for router wiring.
func (b *Bot) FSM() state.Manager { return b.fsm }

// BuildRegistry registers every command and callback on a fresh registry.
func (b *Bot) BuildRegistry() *tg.Registry {
	reg := tg.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     b.handleStart,
		Description: "Bienvenida y ayuda",
	})
	reg.RegisterCommand("/track", commands.Command{
		Handler:     b.handleTrack,
		Description: "Consultar un envío por su número",
		Aliases:     []string{"seguimiento"},
	})
	reg.RegisterCommand("/mis_envios", commands.Command{
		Handler:     b.handleMyTrackings,
		Description: "Listar tus envíos",
	})
	reg.RegisterCommand("/crear", commands.Command{
		Handler:     b.handleCreateStart,
		Description: "Registrar un nuevo envío",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/panel", commands.Command{
		Handler:     b.handlePanel,
		Description: "Panel de administración",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     b.handleStats,
		Description: "Estadísticas de envíos",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/cancelar", commands.Command{
		Handler:     b.handleCancel,
		Description: "Cancelar la operación en curso",
		Hidden:      true,
	})

	b.registerWizardStates()
	b.registerPanelCallbacks(reg)

	// Bare tracking ids typed into the chat resolve like /track.
	reg.SetTextFallback(b.handleBareTrackingID)

	return reg
}

func (b *Bot) handleStart(c tele.Context) error {
	return tghelpers.SendMD(c, strings.Join([]string{
		"*Correos Premium* 📦",
		"",
		"Envíame un número de seguimiento o usa /track para consultar tu envío.",
		"Con /mis\\_envios verás todos los envíos asociados a tu cuenta.",
	}, "\n"))
}

func (b *Bot) handleTrack(c tele.Context) error {
	id := strings.TrimSpace(c.Message().Payload)
	if id == "" {
		return tghelpers.SendText(c, "Indica el número de seguimiento: /track CP12345678ES")
	}
	return b.sendTrackingView(c, id)
}

func (b *Bot) handleBareTrackingID(c tele.Context) error {
	text := strings.ToUpper(strings.TrimSpace(c.Text()))
	if !looksLikeTrackingID(text) {
		return tghelpers.SendText(c, "No reconozco ese mensaje. Usa /track <número> para consultar un envío.")
	}
	return b.sendTrackingView(c, text)
}

func (b *Bot) sendTrackingView(c tele.Context, id string) error {
	ctx := tghelpers.BuildContext(c)
	actor := c.Sender().ID

	// Cached views are only safe for fully public render paths; the card is
	// identical for every actor allowed to see it.
	if view, ok := b.svc.CachedView(ctx, id); ok {
		if _, err := b.svc.Get(ctx, id, actor); err != nil {
			return b.replyServiceError(c, err)
		}
		return tghelpers.SendMD(c, string(view))
	}

	t, err := b.svc.Get(ctx, id, actor)
	if err != nil {
		return b.replyServiceError(c, err)
	}
	events, err := b.svc.History(ctx, id, actor, false)
	if err != nil {
		return b.replyServiceError(c, err)
	}

	view := renderTracking(t) + "\n" + renderHistory(events)
	b.svc.StoreView(ctx, id, []byte(view))
	return tghelpers.SendMD(c, view)
}

func (b *Bot) handleMyTrackings(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	list, err := b.svc.List(ctx, c.Sender().ID)
	if err != nil {
		return b.replyServiceError(c, err)
	}
	if len(list) == 0 {
		return tghelpers.SendText(c, "No tienes envíos registrados.")
	}
	var sb strings.Builder
	sb.WriteString("*Tus envíos:*\n")
	for _, t := range list {
		sb.WriteString("• `" + t.ID + "` — " + renderStatus(t.Status) + "\n")
	}
	return tghelpers.SendMD(c, sb.String())
}

func (b *Bot) handleStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	stats, err := b.svc.Stats(ctx, c.Sender().ID)
	if err != nil {
		return b.replyServiceError(c, err)
	}
	return tghelpers.SendMD(c, renderStats(stats))
}

func (b *Bot) handleCancel(c tele.Context) error {
	b.fsm.Clear(c.Sender().ID)
	return tghelpers.SendText(c, "Operación cancelada.")
}

func (b *Bot) replyServiceError(c tele.Context, err error) error {
	return tghelpers.SendText(c, serviceErrorMessage(err))
}

func serviceErrorMessage(err error) string {
	switch {
	case errors.Is(err, tracking.ErrNotFound):
		return "No encuentro ningún envío con ese número."
	case errors.Is(err, tracking.ErrAccessDenied):
		return "No tienes permiso para esa operación."
	case errors.Is(err, tracking.ErrInvalidDelay):
		return "El retraso debe ser de al menos un día."
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return "El envío ya avanzó de estado; esa acción ya no aplica."
	default:
		return "Algo salió mal, inténtalo de nuevo en unos minutos."
	}
}

// looksLikeTrackingID matches the CP........ES shape of generated ids.
func looksLikeTrackingID(s string) bool {
	if len(s) < 6 || !strings.HasPrefix(s, "CP") {
		return false
	}
	for _, r := range s[2:] {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
