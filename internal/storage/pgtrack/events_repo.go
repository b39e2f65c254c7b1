package pgtrack

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/PrincipeGhost/CorreosPremium/internal/models"
)

// AppendEvents inserts a batch of history events in one transaction. Used by
// the ship pipeline to persist the whole scheduled route at once.
func (s *Storage) AppendEvents(ctx context.Context, trackingID string, events []models.HistoryEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range events {
		if err := insertEvent(ctx, tx, trackingID, e); err != nil {
			return err
		}
	}
	return errors.Wrap(tx.Commit(), "commit tx")
}

// ListHistory returns a tracking's events; the (occurred_at, id) order keeps
// same-second events stable.
func (s *Storage) ListHistory(ctx context.Context, trackingID string) ([]models.HistoryEvent, error) {
	var out []models.HistoryEvent
	err := s.db.SelectContext(ctx, &out, `
SELECT id, tracking_id, old_label, new_label, note, occurred_at
FROM status_history
WHERE tracking_id = $1
ORDER BY occurred_at ASC, id ASC
`, trackingID)
	if err != nil {
		return nil, errors.Wrap(err, "select history")
	}
	return out, nil
}

func insertEvent(ctx context.Context, tx *sqlx.Tx, trackingID string, e models.HistoryEvent) error {
	at := e.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := tx.ExecContext(ctx, `
INSERT INTO status_history (tracking_id, old_label, new_label, note, occurred_at)
VALUES ($1,$2,$3,$4,$5)
`, trackingID, e.OldLabel, e.NewLabel, e.Note, at)
	return errors.Wrap(err, "insert history event")
}
