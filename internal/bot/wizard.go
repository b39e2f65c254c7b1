package bot

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/PrincipeGhost/CorreosPremium/core/telegram/helpers"
	"github.com/PrincipeGhost/CorreosPremium/core/telegram/state"
	"github.com/PrincipeGhost/CorreosPremium/internal/models"
	"github.com/PrincipeGhost/CorreosPremium/internal/services/tracking"
)

// Wizard states. Each step consumes one text message and advances.
const (
	stateSenderAddress    state.State = "wizard_sender_address"
	stateSenderPostal     state.State = "wizard_sender_postal"
	stateSenderProvince   state.State = "wizard_sender_province"
	stateSenderCountry    state.State = "wizard_sender_country"
	stateRecipientAddress state.State = "wizard_recipient_address"
	stateRecipientPostal  state.State = "wizard_recipient_postal"
	stateRecipientProv    state.State = "wizard_recipient_province"
	stateRecipientCountry state.State = "wizard_recipient_country"
	stateWeight           state.State = "wizard_weight"
	stateProduct          state.State = "wizard_product"
	statePrice            state.State = "wizard_price"
	stateAddressee        state.State = "wizard_addressee"
)

// Temp keys under the wizard session.
const (
	tmpSenderAddress    = "sender_address"
	tmpSenderPostal     = "sender_postal"
	tmpSenderProvince   = "sender_province"
	tmpSenderCountry    = "sender_country"
	tmpRecipientAddress = "recipient_address"
	tmpRecipientPostal  = "recipient_postal"
	tmpRecipientProv    = "recipient_province"
	tmpRecipientCountry = "recipient_country"
	tmpWeight           = "weight"
	tmpProduct          = "product"
	tmpPrice            = "price"
)

// skipWord lets optional steps be skipped.
const skipWord = "-"

func (b *Bot) handleCreateStart(c tele.Context) error {
	uid := c.Sender().ID
	b.fsm.Clear(uid)
	b.fsm.SetState(uid, stateSenderAddress)
	return tghelpers.SendText(c,
		"Vamos a registrar un envío. Puedes cancelar en cualquier momento con /cancelar.\n\n"+
			"Dirección del remitente:")
}

func (b *Bot) registerWizardStates() {
	steps := []struct {
		st     state.State
		key    string
		next   state.State
		prompt string
		// optional steps accept "-" as empty
		optional bool
	}{
		{stateSenderAddress, tmpSenderAddress, stateSenderPostal, "Código postal del remitente (o \"-\"):", false},
		{stateSenderPostal, tmpSenderPostal, stateSenderProvince, "Provincia del remitente:", true},
		{stateSenderProvince, tmpSenderProvince, stateSenderCountry, "País del remitente:", false},
		{stateSenderCountry, tmpSenderCountry, stateRecipientAddress, "Dirección del destinatario:", false},
		{stateRecipientAddress, tmpRecipientAddress, stateRecipientPostal, "Código postal del destinatario (o \"-\"):", false},
		{stateRecipientPostal, tmpRecipientPostal, stateRecipientProv, "Provincia del destinatario:", true},
		{stateRecipientProv, tmpRecipientProv, stateRecipientCountry, "País del destinatario:", false},
		{stateRecipientCountry, tmpRecipientCountry, stateWeight, "Peso del paquete (ej. \"2.5 kg\", o \"-\"):", false},
		{stateWeight, tmpWeight, stateProduct, "Nombre del artículo (o \"-\"):", true},
		{stateProduct, tmpProduct, statePrice, "Valor declarado (ej. \"120 €\", o \"-\"):", true},
		{statePrice, tmpPrice, stateAddressee, "ID de Telegram del destinatario (o \"-\" si no tiene):", true},
	}

	for _, step := range steps {
		step := step
		state.RegisterHandler(step.st, func(c tele.Context) error {
			uid := c.Sender().ID
			text := strings.TrimSpace(c.Text())
			if text == "" {
				return tghelpers.SendText(c, "Necesito un texto. Inténtalo de nuevo o usa /cancelar.")
			}
			if text == skipWord {
				if !step.optional {
					return tghelpers.SendText(c, "Este dato es obligatorio.")
				}
				text = ""
			}
			b.fsm.SetTemp(uid, step.key, text)
			b.fsm.SetState(uid, step.next)
			return tghelpers.SendText(c, step.prompt)
		})
	}

	state.RegisterHandler(stateAddressee, b.wizardFinish)
}

func (b *Bot) wizardFinish(c tele.Context) error {
	uid := c.Sender().ID
	ctx := tghelpers.BuildContext(c)

	var addressee int64
	raw := strings.TrimSpace(c.Text())
	if raw != skipWord {
		id, ok := parseInt64(raw)
		if !ok {
			return tghelpers.SendText(c, "Ese ID no es válido. Escribe un número o \"-\".")
		}
		addressee = id
	}

	in := tracking.CreateInput{
		Sender: models.Location{
			Address:    b.tempString(uid, tmpSenderAddress),
			PostalCode: b.tempString(uid, tmpSenderPostal),
			Province:   b.tempString(uid, tmpSenderProvince),
			Country:    b.tempString(uid, tmpSenderCountry),
		},
		Recipient: models.Location{
			Address:    b.tempString(uid, tmpRecipientAddress),
			PostalCode: b.tempString(uid, tmpRecipientPostal),
			Province:   b.tempString(uid, tmpRecipientProv),
			Country:    b.tempString(uid, tmpRecipientCountry),
		},
		PackageWeight: b.tempString(uid, tmpWeight),
		ProductName:   b.tempString(uid, tmpProduct),
		ProductPrice:  b.tempString(uid, tmpPrice),
		CreatedBy:     uid,
		AddresseeID:   addressee,
	}
	b.fsm.Clear(uid)

	t, err := b.svc.Create(ctx, in)
	if err != nil {
		return b.replyServiceError(c, err)
	}
	return tghelpers.SendMD(c,
		"Envío registrado ✅\n\n*Número de seguimiento:* `"+t.ID+"`\n"+
			"Estado inicial: "+renderStatus(t.Status))
}

func (b *Bot) tempString(uid int64, key string) string {
	if v, ok := b.fsm.GetTemp(uid, key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func parseInt64(s string) (int64, bool) {
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int64(r-'0')
	}
	return n, s != ""
}
