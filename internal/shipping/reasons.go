package shipping

import "math/rand"

// delayReasons are the excuses shown to users when a shipment is delayed.
// They stay in Spanish because they go straight into history notes.
var delayReasons = []string{
	"alto volumen de envíos",
	"condiciones meteorológicas adversas",
	"incidencia en el centro logístico",
	"retención en aduanas",
	"problemas de transporte en la ruta",
	"verificación adicional del paquete",
}

// RandomDelayReason picks a reason using the provided source so callers can
// seed it deterministically in tests.
func RandomDelayReason(rng *rand.Rand) string {
	if rng == nil {
		return delayReasons[rand.Intn(len(delayReasons))]
	}
	return delayReasons[rng.Intn(len(delayReasons))]
}
