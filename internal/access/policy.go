// Package access decides who may see or mutate a tracking record. Many
// actors can independently create and receive trackings under one shared bot;
// a single privileged owner sees everything, everyone else only the records
// they created or that are addressed to them.
package access

import "github.com/PrincipeGhost/CorreosPremium/internal/models"

// Policy gates every read, list, update and delete on tracking records.
// The owner ID is injected from configuration once at startup.
type Policy struct {
	OwnerID int64
}

// New returns a Policy for the configured owner actor.
func New(ownerID int64) Policy {
	return Policy{OwnerID: ownerID}
}

// IsOwner reports whether actor is the privileged super-actor.
func (p Policy) IsOwner(actor int64) bool {
	return p.OwnerID != 0 && actor == p.OwnerID
}

// CanAccess reports whether actor may read or mutate rec. The owner always
// may; everyone else only when they created the record or are its addressee.
func (p Policy) CanAccess(rec *models.Tracking, actor int64) bool {
	if rec == nil {
		return false
	}
	if p.IsOwner(actor) {
		return true
	}
	return actor == rec.CreatedBy || actor == rec.AddresseeID
}

// VisibleSet filters records down to the subset actor may see. The owner
// gets the full list back.
func (p Policy) VisibleSet(records []*models.Tracking, actor int64) []*models.Tracking {
	if p.IsOwner(actor) {
		return records
	}
	out := make([]*models.Tracking, 0, len(records))
	for _, rec := range records {
		if p.CanAccess(rec, actor) {
			out = append(out, rec)
		}
	}
	return out
}
