// Package pgtrack persists tracking records and their history in Postgres.
// Every multi-row mutation runs in a single transaction so a tracking and
// its events never diverge.
package pgtrack

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/PrincipeGhost/CorreosPremium/internal/models"
)

type Storage struct {
	db *sqlx.DB
}

// New wraps an already connected pool. Connection setup and migrations are
// the caller's concern.
func New(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// trackingRow is the flat scan target for the trackings table; sqlx cannot
// map the nested Location structs directly.
type trackingRow struct {
	ID     string        `db:"tracking_id"`
	Status models.Status `db:"status"`

	SenderAddress    string `db:"sender_address"`
	SenderPostalCode string `db:"sender_postal_code"`
	SenderProvince   string `db:"sender_province"`
	SenderCountry    string `db:"sender_country"`

	RecipientAddress    string `db:"recipient_address"`
	RecipientPostalCode string `db:"recipient_postal_code"`
	RecipientProvince   string `db:"recipient_province"`
	RecipientCountry    string `db:"recipient_country"`

	PackageWeight string `db:"package_weight"`
	ProductName   string `db:"product_name"`
	ProductPrice  string `db:"product_price"`

	CreatedBy   int64 `db:"created_by"`
	AddresseeID int64 `db:"addressee_id"`

	DelayDays         int    `db:"delay_days"`
	EstimatedDelivery string `db:"estimated_delivery"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const trackingColumns = `
  tracking_id, status,
  sender_address, sender_postal_code, sender_province, sender_country,
  recipient_address, recipient_postal_code, recipient_province, recipient_country,
  package_weight, product_name, product_price,
  created_by, addressee_id,
  delay_days, estimated_delivery,
  created_at, updated_at`

func (r trackingRow) toModel() *models.Tracking {
	return &models.Tracking{
		ID:     r.ID,
		Status: r.Status,
		Sender: models.Location{
			Address:    r.SenderAddress,
			PostalCode: r.SenderPostalCode,
			Province:   r.SenderProvince,
			Country:    r.SenderCountry,
		},
		Recipient: models.Location{
			Address:    r.RecipientAddress,
			PostalCode: r.RecipientPostalCode,
			Province:   r.RecipientProvince,
			Country:    r.RecipientCountry,
		},
		PackageWeight:     r.PackageWeight,
		ProductName:       r.ProductName,
		ProductPrice:      r.ProductPrice,
		CreatedBy:         r.CreatedBy,
		AddresseeID:       r.AddresseeID,
		DelayDays:         r.DelayDays,
		EstimatedDelivery: r.EstimatedDelivery,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}
