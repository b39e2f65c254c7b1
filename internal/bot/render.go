package bot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PrincipeGhost/CorreosPremium/core/telegram/format"
	"github.com/PrincipeGhost/CorreosPremium/internal/models"
	"github.com/PrincipeGhost/CorreosPremium/internal/services/tracking"
)

// md escapes user-entered text so it cannot break the Markdown card.
func md(s string) string {
	escaped, err := format.EscapeMarkdown(s, format.MarkdownV1, "")
	if err != nil {
		return s
	}
	return escaped
}

// statusText maps lifecycle states to what users see.
var statusText = map[models.Status]string{
	models.StatusRetained:       "📦 Retenido en origen",
	models.StatusPaymentPending: "💳 Pago confirmado, pendiente de salida",
	models.StatusInTransit:      "🚚 En tránsito",
	models.StatusDelivered:      "✅ Entregado",
}

// labelText maps narrative labels to display lines. Unknown labels fall back
// to the raw tag so new labels degrade visibly instead of silently.
var labelText = map[models.Label]string{
	models.LabelReceived:           "Paquete recibido",
	models.LabelAwaitingPayment:    "Esperando confirmación de pago",
	models.LabelDepartedOrigin:     "Salida de origen",
	models.LabelEnRoute:            "En ruta",
	models.LabelArrivedAt:          "Llegada a oficina",
	models.LabelDepartedFrom:       "Salida de oficina",
	models.LabelArrivedDestination: "Llegada a destino",
	models.LabelDelayed:            "Retraso",
}

func renderStatus(s models.Status) string {
	if txt, ok := statusText[s]; ok {
		return txt
	}
	return string(s)
}

func renderLabel(l models.Label) string {
	if txt, ok := labelText[l]; ok {
		return txt
	}
	return string(l)
}

func renderLocation(loc models.Location) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{loc.Address, loc.PostalCode, loc.Province, loc.Country} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, md(p))
		}
	}
	return strings.Join(parts, ", ")
}

// renderTracking builds the full tracking card shown on /track and in the
// admin panel.
func renderTracking(t *models.Tracking) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Seguimiento* `%s`\n", t.ID)
	fmt.Fprintf(&b, "*Estado:* %s\n\n", renderStatus(t.Status))
	fmt.Fprintf(&b, "*Remitente:* %s\n", renderLocation(t.Sender))
	fmt.Fprintf(&b, "*Destinatario:* %s\n", renderLocation(t.Recipient))
	if t.ProductName != "" {
		fmt.Fprintf(&b, "*Artículo:* %s\n", md(t.ProductName))
	}
	if t.PackageWeight != "" {
		fmt.Fprintf(&b, "*Peso:* %s\n", md(t.PackageWeight))
	}
	if t.ProductPrice != "" {
		fmt.Fprintf(&b, "*Valor:* %s\n", md(t.ProductPrice))
	}
	if t.EstimatedDelivery != "" {
		fmt.Fprintf(&b, "\n*Entrega estimada:* %s\n", t.EstimatedDelivery)
	}
	if t.DelayDays > 0 {
		fmt.Fprintf(&b, "*Retraso acumulado:* %d días\n", t.DelayDays)
	}
	return b.String()
}

// renderHistory builds the chronological event list under a tracking card.
func renderHistory(events []models.HistoryEvent) string {
	if len(events) == 0 {
		return "_Sin movimientos todavía._"
	}
	var b strings.Builder
	b.WriteString("*Historial:*\n")
	for _, e := range events {
		fmt.Fprintf(&b, "• %s — %s", e.OccurredAt.Format("02/01/2006 15:04"), renderLabel(e.NewLabel))
		if e.Note != "" {
			fmt.Fprintf(&b, "\n  _%s_", e.Note)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderStats(stats *tracking.Stats) string {
	var b strings.Builder
	b.WriteString("*Estadísticas de envíos:*\n")
	for _, s := range models.ValidStatuses {
		fmt.Fprintf(&b, "• %s: %d\n", renderStatus(s), stats.ByStatus[s])
	}
	if len(stats.ByCreator) > 0 {
		b.WriteString("\n*Por usuario:*\n")
		creators := make([]int64, 0, len(stats.ByCreator))
		for id := range stats.ByCreator {
			creators = append(creators, id)
		}
		sort.Slice(creators, func(i, j int) bool { return creators[i] < creators[j] })
		for _, id := range creators {
			fmt.Fprintf(&b, "• `%d`: %d\n", id, stats.ByCreator[id])
		}
	}
	fmt.Fprintf(&b, "\n*Registrados hoy:* %d", stats.CreatedToday)
	fmt.Fprintf(&b, "\n*Total:* %d", stats.Total)
	return b.String()
}
