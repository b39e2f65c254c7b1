package models

import "time"

// Status is the closed lifecycle state of a tracking. Transitions are strictly
// linear and forward-only; see the lifecycle package for the rules.
type Status string

const (
	// StatusRetained is the initial state: the package is held at origin.
	StatusRetained Status = "RETENIDO"
	// StatusPaymentPending means payment was confirmed and the package waits for dispatch.
	StatusPaymentPending Status = "CONFIRMAR_PAGO"
	// StatusInTransit means the package left origin and a route history exists.
	StatusInTransit Status = "EN_TRANSITO"
	// StatusDelivered is the final state.
	StatusDelivered Status = "ENTREGADO"
)

// ValidStatuses lists every persisted lifecycle state in transition order.
var ValidStatuses = []Status{StatusRetained, StatusPaymentPending, StatusInTransit, StatusDelivered}

// Valid reports whether s is one of the four lifecycle states.
func (s Status) Valid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// Label converts the closed status into the open narrative label space used
// by history events.
func (s Status) Label() Label { return Label(s) }

// Label is an open-ended narrative tag recorded on history events. It is a
// superset of the Status values: the synthesized route history uses richer
// tags than the four real lifecycle states, without weakening the state
// machine itself.
type Label string

const (
	// LabelReceived marks the package intake event created with the record.
	LabelReceived Label = "RECIBIDO"
	// LabelAwaitingPayment marks the initial waiting-for-payment event.
	LabelAwaitingPayment Label = "ESPERANDO_PAGO"
	// LabelDepartedOrigin marks departure from the origin office.
	LabelDepartedOrigin Label = "SALIO_ORIGEN"
	// LabelEnRoute is the implicit "moving between offices" predecessor tag.
	LabelEnRoute Label = "EN_RUTA"
	// LabelArrivedAt marks arrival at an intermediate office.
	LabelArrivedAt Label = "LLEGO_A"
	// LabelDepartedFrom marks departure from an intermediate office.
	LabelDepartedFrom Label = "SALIO_DE"
	// LabelArrivedDestination marks the final arrival at the destination office.
	LabelArrivedDestination Label = "LLEGO_DESTINO"
	// LabelDelayed tags delay-marker events appended by AddDelay.
	LabelDelayed Label = "RETRASO"
)

func (l Label) String() string { return string(l) }

// Location describes one end of a shipment as collected by the wizard:
// a free-text address plus optional postal code, province and country.
type Location struct {
	Address    string `db:"address"`
	PostalCode string `db:"postal_code"`
	Province   string `db:"province"`
	Country    string `db:"country"`
}

// Tracking is the persisted shipment record.
type Tracking struct {
	ID     string `db:"tracking_id"`
	Status Status `db:"status"`

	Sender    Location
	Recipient Location

	PackageWeight string `db:"package_weight"`
	ProductName   string `db:"product_name"`
	ProductPrice  string `db:"product_price"`

	// CreatedBy is the actor who ran the creation wizard; AddresseeID is the
	// actor the package is addressed to. Either of them may view the record.
	CreatedBy   int64 `db:"created_by"`
	AddresseeID int64 `db:"addressee_id"`

	// DelayDays only ever grows; AddDelay is the single mutation path.
	DelayDays         int    `db:"delay_days"`
	EstimatedDelivery string `db:"estimated_delivery"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// HistoryEvent is one row of the append-only tracking narrative. Events are
// listed in (OccurredAt, ID) order; OccurredAt may lie in the future for
// scheduled route events, and readers decide whether to show those.
type HistoryEvent struct {
	ID         int64     `db:"id"`
	TrackingID string    `db:"tracking_id"`
	OldLabel   Label     `db:"old_label"`
	NewLabel   Label     `db:"new_label"`
	Note       string    `db:"note"`
	OccurredAt time.Time `db:"occurred_at"`
}
