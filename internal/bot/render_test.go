package bot

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PrincipeGhost/CorreosPremium/internal/lifecycle"
	"github.com/PrincipeGhost/CorreosPremium/internal/models"
	"github.com/PrincipeGhost/CorreosPremium/internal/services/tracking"
)

func TestLooksLikeTrackingID(t *testing.T) {
	cases := map[string]bool{
		"CP1A2B3C4DES": true,
		"CP000000ES":   true,
		"CP12":         false,
		"XX1A2B3C4DES": false,
		"CP1a2b3c4des": false,
		"hola":         false,
		"":             false,
	}
	for in, want := range cases {
		require.Equal(t, want, looksLikeTrackingID(in), "input %q", in)
	}
}

func TestRenderTracking_escapesUserText(t *testing.T) {
	tr := &models.Tracking{
		ID:     "CP1A2B3C4DES",
		Status: models.StatusRetained,
		Sender: models.Location{
			Address: "Calle *Mayor* 1",
			Country: "España",
		},
		Recipient: models.Location{
			Address: "Av. Siempreviva 742",
			Country: "España",
		},
		ProductName: "Reloj_vintage",
	}

	out := renderTracking(tr)
	require.Contains(t, out, "CP1A2B3C4DES")
	require.NotContains(t, out, "*Mayor*")
	require.NotContains(t, out, "Reloj_vintage")
	require.Contains(t, out, "Retenido")
}

func TestRenderHistory(t *testing.T) {
	at := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)
	events := []models.HistoryEvent{
		{NewLabel: models.LabelReceived, Note: "Paquete recibido en oficinas de Madrid", OccurredAt: at},
		{NewLabel: models.Label("ADUANA"), OccurredAt: at.Add(time.Hour)},
	}

	out := renderHistory(events)
	require.Contains(t, out, "04/03/2025 10:30")
	require.Contains(t, out, "Paquete recibido")
	// unknown labels fall back to their raw tag
	require.Contains(t, out, "ADUANA")

	require.Equal(t, "_Sin movimientos todavía._", renderHistory(nil))
}

func TestServiceErrorMessage(t *testing.T) {
	require.Equal(t,
		"No encuentro ningún envío con ese número.",
		serviceErrorMessage(tracking.ErrNotFound))
	require.Equal(t,
		"No tienes permiso para esa operación.",
		serviceErrorMessage(tracking.ErrAccessDenied))

	// A stale panel button replays a transition that is no longer legal;
	// the reply must say so instead of suggesting a retry.
	stale := fmt.Errorf("transition CP1A2B3C4DES: %w", lifecycle.ErrInvalidTransition)
	require.Equal(t,
		"El envío ya avanzó de estado; esa acción ya no aplica.",
		serviceErrorMessage(stale))

	require.Equal(t,
		"Algo salió mal, inténtalo de nuevo en unos minutos.",
		serviceErrorMessage(errors.New("db down")))
}

func TestRenderStats_totals(t *testing.T) {
	out := renderStats(&tracking.Stats{
		ByStatus: map[models.Status]int{
			models.StatusRetained:  2,
			models.StatusDelivered: 1,
		},
		ByCreator:    map[int64]int{1000: 2, 42: 1},
		Total:        3,
		CreatedToday: 1,
	})
	require.Contains(t, out, "*Total:* 3")
	require.Contains(t, out, "*Registrados hoy:* 1")
	require.Contains(t, out, "`42`: 1")
	require.Contains(t, out, "`1000`: 2")
}
