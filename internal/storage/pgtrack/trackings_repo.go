package pgtrack

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/PrincipeGhost/CorreosPremium/internal/models"
)

// ErrNotFound is returned when a tracking id does not exist.
var ErrNotFound = errors.New("tracking not found")

// CreateTracking inserts a tracking together with its initial history events
// in one transaction.
func (s *Storage) CreateTracking(ctx context.Context, t *models.Tracking, initial []models.HistoryEvent) error {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO trackings (`+trackingColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$18)
`, t.ID, t.Status,
		t.Sender.Address, t.Sender.PostalCode, t.Sender.Province, t.Sender.Country,
		t.Recipient.Address, t.Recipient.PostalCode, t.Recipient.Province, t.Recipient.Country,
		t.PackageWeight, t.ProductName, t.ProductPrice,
		t.CreatedBy, t.AddresseeID,
		t.DelayDays, t.EstimatedDelivery,
		now)
	if err != nil {
		return errors.Wrap(err, "insert tracking")
	}

	for _, e := range initial {
		if err := insertEvent(ctx, tx, t.ID, e); err != nil {
			return err
		}
	}

	return errors.Wrap(tx.Commit(), "commit tx")
}

// GetTracking loads one tracking by id.
func (s *Storage) GetTracking(ctx context.Context, id string) (*models.Tracking, error) {
	var r trackingRow
	err := s.db.GetContext(ctx, &r, `
SELECT`+trackingColumns+`
FROM trackings
WHERE tracking_id = $1
`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select tracking")
	}
	return r.toModel(), nil
}

// ListTrackings returns every tracking, newest first.
func (s *Storage) ListTrackings(ctx context.Context) ([]*models.Tracking, error) {
	return s.list(ctx, `
SELECT`+trackingColumns+`
FROM trackings
ORDER BY created_at DESC
`)
}

// ListTrackingsByStatus returns trackings in one lifecycle state, newest first.
func (s *Storage) ListTrackingsByStatus(ctx context.Context, status models.Status) ([]*models.Tracking, error) {
	return s.list(ctx, `
SELECT`+trackingColumns+`
FROM trackings
WHERE status = $1
ORDER BY created_at DESC
`, status)
}

func (s *Storage) list(ctx context.Context, query string, args ...any) ([]*models.Tracking, error) {
	var rows []trackingRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "select trackings")
	}
	out := make([]*models.Tracking, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// ApplyTransition updates the status and appends the transition event in one
// transaction. The event's OccurredAt is stamped here.
func (s *Storage) ApplyTransition(ctx context.Context, id string, target models.Status, event models.HistoryEvent) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
UPDATE trackings SET status = $2, updated_at = now() WHERE tracking_id = $1
`, id, target)
	if err != nil {
		return errors.Wrap(err, "update status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := insertEvent(ctx, tx, id, event); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "commit tx")
}

// AddDelay increments delay_days, stores the recomputed delivery label, and
// appends the delay marker event atomically.
func (s *Storage) AddDelay(ctx context.Context, id string, days int, newEstimate string, event models.HistoryEvent) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
UPDATE trackings
SET delay_days = delay_days + $2, estimated_delivery = $3, updated_at = now()
WHERE tracking_id = $1
`, id, days, newEstimate)
	if err != nil {
		return errors.Wrap(err, "update delay")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := insertEvent(ctx, tx, id, event); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "commit tx")
}

// SetEstimatedDelivery stores the delivery date label computed at ship time.
func (s *Storage) SetEstimatedDelivery(ctx context.Context, id, label string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE trackings SET estimated_delivery = $2, updated_at = now() WHERE tracking_id = $1
`, id, label)
	if err != nil {
		return errors.Wrap(err, "update estimate")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTracking removes a tracking; history rows go with it via cascade.
func (s *Storage) DeleteTracking(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM trackings WHERE tracking_id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete tracking")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats counts trackings per lifecycle state.
func (s *Storage) Stats(ctx context.Context) (map[models.Status]int, error) {
	rows, err := s.db.QueryxContext(ctx, `
SELECT status, count(*) FROM trackings GROUP BY status
`)
	if err != nil {
		return nil, errors.Wrap(err, "select stats")
	}
	defer rows.Close()

	out := make(map[models.Status]int, len(models.ValidStatuses))
	for rows.Next() {
		var status models.Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, errors.Wrap(err, "scan stats")
		}
		out[status] = n
	}
	return out, errors.Wrap(rows.Err(), "rows")
}

// CountCreatedSince counts trackings registered at or after the given time.
func (s *Storage) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `
SELECT count(*) FROM trackings WHERE created_at >= $1
`, since)
	return n, errors.Wrap(err, "count created since")
}

// StatsByCreator counts trackings per registering user.
func (s *Storage) StatsByCreator(ctx context.Context) (map[int64]int, error) {
	rows, err := s.db.QueryxContext(ctx, `
SELECT created_by, count(*) FROM trackings GROUP BY created_by
`)
	if err != nil {
		return nil, errors.Wrap(err, "select stats by creator")
	}
	defer rows.Close()

	out := make(map[int64]int)
	for rows.Next() {
		var creator int64
		var n int
		if err := rows.Scan(&creator, &n); err != nil {
			return nil, errors.Wrap(err, "scan stats by creator")
		}
		out[creator] = n
	}
	return out, errors.Wrap(rows.Err(), "rows")
}
