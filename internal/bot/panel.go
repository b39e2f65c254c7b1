package bot

import (
	"strconv"

	tele "gopkg.in/telebot.v4"

	tg "github.com/PrincipeGhost/CorreosPremium/core/telegram"
	"github.com/PrincipeGhost/CorreosPremium/core/telegram/callbacks"
	tghelpers "github.com/PrincipeGhost/CorreosPremium/core/telegram/helpers"
	"github.com/PrincipeGhost/CorreosPremium/core/telegram/keyboard"
	"github.com/PrincipeGhost/CorreosPremium/internal/lifecycle"
	"github.com/PrincipeGhost/CorreosPremium/internal/models"
)

// Callback keys for the admin panel.
const (
	cbPanelList   = "panel_list"   // payload: status
	cbPanelOpen   = "panel_open"   // payload: tracking id
	cbPanelMove   = "panel_move"   // payload: id|target status
	cbPanelDelay  = "panel_delay"  // payload: id, shows the day picker
	cbPanelDelayN = "panel_delayn" // payload: id|days
	cbPanelDelete = "panel_delete" // payload: id, asks for confirmation
	cbPanelWipe   = "panel_wipe"   // payload: id, actually deletes
	cbPanelHome   = "panel_home"
)

var delayChoices = []int{1, 2, 3, 5, 7}

func (b *Bot) registerPanelCallbacks(reg *tg.Registry) {
	_ = reg.RegisterCallback(cbPanelHome, b.cbHome)
	_ = reg.RegisterCallback(cbPanelList, b.cbList)
	_ = reg.RegisterCallback(cbPanelOpen, b.cbOpen)
	_ = reg.RegisterCallback(cbPanelMove, b.cbMove)
	_ = reg.RegisterCallback(cbPanelDelay, b.cbDelayMenu)
	_ = reg.RegisterCallback(cbPanelDelayN, b.cbDelayApply)
	_ = reg.RegisterCallback(cbPanelDelete, b.cbDeleteConfirm)
	_ = reg.RegisterCallback(cbPanelWipe, b.cbDeleteApply)
}

func (b *Bot) handlePanel(c tele.Context) error {
	return tghelpers.SendMD(c, "*Panel de administración*", panelHomeMarkup())
}

func (b *Bot) cbHome(c tele.Context) error {
	return tghelpers.EditOrSendMD(c, "*Panel de administración*", panelHomeMarkup())
}

func panelHomeMarkup() *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(models.ValidStatuses)+1)
	for _, st := range models.ValidStatuses {
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   renderStatus(st),
			Unique: cbPanelList,
			Data:   string(st),
		}})
	}
	return keyboard.InlineButtonsRows(rows...)
}

func (b *Bot) cbList(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	status := models.Status(callbacks.CallbackPayload(c))

	list, err := b.svc.ListByStatus(ctx, status, c.Sender().ID)
	if err != nil {
		return b.replyServiceError(c, err)
	}

	if len(list) == 0 {
		return tghelpers.EditOrSendMD(c,
			"No hay envíos en estado "+renderStatus(status)+".",
			keyboard.InlineButtonsRows([]keyboard.InlineBtn{backToPanelBtn()}))
	}

	rows := make([][]keyboard.InlineBtn, 0, len(list)+1)
	for _, t := range list {
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   t.ID,
			Unique: cbPanelOpen,
			Data:   t.ID,
		}})
	}
	rows = append(rows, []keyboard.InlineBtn{backToPanelBtn()})
	return tghelpers.EditOrSendMD(c,
		"*Envíos en "+renderStatus(status)+":*",
		keyboard.InlineButtonsRows(rows...))
}

func (b *Bot) cbOpen(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	id := callbacks.CallbackPayload(c)

	t, err := b.svc.Get(ctx, id, c.Sender().ID)
	if err != nil {
		return b.replyServiceError(c, err)
	}
	return tghelpers.EditOrSendMD(c, renderTracking(t), b.trackingActionsMarkup(t))
}

// trackingActionsMarkup offers the next lifecycle step plus the delay and
// delete actions. Terminal trackings only get delete.
func (b *Bot) trackingActionsMarkup(t *models.Tracking) *tele.ReplyMarkup {
	var rows [][]keyboard.InlineBtn

	if next, ok := lifecycle.Next(t.Status); ok {
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   "➡️ " + renderStatus(next),
			Unique: cbPanelMove,
			Data:   t.ID + "|" + string(next),
		}})
	}
	if !lifecycle.Terminal(t.Status) {
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   "⏳ Añadir retraso",
			Unique: cbPanelDelay,
			Data:   t.ID,
		}})
	}
	rows = append(rows, []keyboard.InlineBtn{{
		Text:   "🗑 Eliminar",
		Unique: cbPanelDelete,
		Data:   t.ID,
	}})
	rows = append(rows, []keyboard.InlineBtn{backToPanelBtn()})
	return keyboard.InlineButtonsRows(rows...)
}

func (b *Bot) cbMove(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	parts, err := callbacks.PayloadParts(c, "|")
	if err != nil || len(parts) != 2 {
		return tghelpers.SendText(c, "Acción no reconocida.")
	}
	id, target := parts[0], models.Status(parts[1])

	res, err := b.svc.Transition(ctx, id, target, "", c.Sender().ID)
	if err != nil {
		return b.replyServiceError(c, err)
	}

	msg := "Envío `" + id + "` ahora está en " + renderStatus(res.Tracking.Status) + "."
	if res.Warning != "" {
		msg += "\n⚠️ " + res.Warning
	}
	return tghelpers.EditOrSendMD(c, msg, b.trackingActionsMarkup(res.Tracking))
}

func (b *Bot) cbDelayMenu(c tele.Context) error {
	id := callbacks.CallbackPayload(c)

	row := make([]keyboard.InlineBtn, 0, len(delayChoices))
	for _, d := range delayChoices {
		row = append(row, keyboard.InlineBtn{
			Text:   strconv.Itoa(d) + "d",
			Unique: cbPanelDelayN,
			Data:   id + "|" + strconv.Itoa(d),
		})
	}
	return tghelpers.EditOrSendMD(c,
		"¿Cuántos días de retraso para `"+id+"`?",
		keyboard.InlineButtonsRows(row, []keyboard.InlineBtn{backToPanelBtn()}))
}

func (b *Bot) cbDelayApply(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	parts, err := callbacks.PayloadParts(c, "|")
	if err != nil || len(parts) != 2 {
		return tghelpers.SendText(c, "Acción no reconocida.")
	}
	id := parts[0]
	days, err := strconv.Atoi(parts[1])
	if err != nil {
		return tghelpers.SendText(c, "Acción no reconocida.")
	}

	t, err := b.svc.AddDelay(ctx, id, days, "", c.Sender().ID)
	if err != nil {
		return b.replyServiceError(c, err)
	}
	return tghelpers.EditOrSendMD(c,
		"Retraso aplicado. Nueva entrega estimada: "+t.EstimatedDelivery,
		b.trackingActionsMarkup(t))
}

func (b *Bot) cbDeleteConfirm(c tele.Context) error {
	id := callbacks.CallbackPayload(c)
	return tghelpers.EditOrSendMD(c,
		"¿Eliminar el envío `"+id+"` y todo su historial?",
		keyboard.InlineButtonsRows(
			[]keyboard.InlineBtn{{Text: "Sí, eliminar", Unique: cbPanelWipe, Data: id}},
			[]keyboard.InlineBtn{backToPanelBtn()},
		))
}

func (b *Bot) cbDeleteApply(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	id := callbacks.CallbackPayload(c)

	if err := b.svc.Delete(ctx, id, c.Sender().ID); err != nil {
		return b.replyServiceError(c, err)
	}
	return tghelpers.EditOrSendMD(c,
		"Envío `"+id+"` eliminado.",
		keyboard.InlineButtonsRows([]keyboard.InlineBtn{backToPanelBtn()}))
}

func backToPanelBtn() keyboard.InlineBtn {
	return keyboard.InlineBtn{Text: "« Panel", Unique: cbPanelHome, Data: "-"}
}
