package tracking

import (
	"context"
	"time"

	"log/slog"

	"github.com/pkg/errors"

	"github.com/PrincipeGhost/CorreosPremium/core/logger"
	"github.com/PrincipeGhost/CorreosPremium/internal/models"
	"github.com/PrincipeGhost/CorreosPremium/internal/shipping"
)

// runShipPipeline fabricates the route history after a tracking enters
// transit: estimate the trip, synthesize checkpoints, schedule their events,
// and persist everything in one batch. Estimation and synthesis degrade
// internally and never fail; only persistence can, and the caller treats
// that as a warning, not a rollback.
func (s *Service) runShipPipeline(ctx context.Context, t *models.Tracking, shippedAt time.Time) (int, error) {
	est := s.estimator.Estimate(ctx, t.Sender, t.Recipient, t.DelayDays)

	estimate := shipping.FormatDate(est.Delivery)
	if err := s.store.SetEstimatedDelivery(ctx, t.ID, estimate); err != nil {
		return 0, errors.Wrap(err, "store estimate")
	}
	t.EstimatedDelivery = estimate

	var geometry string
	senderRegion := regionName(est, true, t.Sender)
	recipientRegion := regionName(est, false, t.Recipient)
	if est.Route != nil {
		geometry = est.Route.Route.Geometry
	}

	checkpoints := s.synth.Synthesize(ctx, geometry, senderRegion, recipientRegion, est.Days)
	scheduled := s.sched.Schedule(checkpoints, est.Days, shippedAt)
	if len(scheduled) == 0 {
		return 0, errors.New("empty schedule")
	}

	events := make([]models.HistoryEvent, 0, len(scheduled))
	for _, e := range scheduled {
		events = append(events, models.HistoryEvent{
			OldLabel:   e.OldLabel,
			NewLabel:   e.NewLabel,
			Note:       e.Note,
			OccurredAt: e.At.UTC(),
		})
	}
	if err := s.store.AppendEvents(ctx, t.ID, events); err != nil {
		return 0, errors.Wrap(err, "store scheduled events")
	}

	logger.SVC.Debug("route history scheduled",
		slog.String("event", "tracking.ship.schedule"),
		slog.String("tracking_id", t.ID),
		slog.Int("days", est.Days),
		slog.Bool("cross_border", est.CrossBorder),
		slog.Int("events", len(events)),
	)
	return len(events), nil
}

// regionName picks the display name for a route endpoint, preferring what
// the geocoder resolved over what the user typed.
func regionName(est shipping.Estimate, sender bool, loc models.Location) string {
	if est.Route != nil {
		place := est.Route.Recipient
		if sender {
			place = est.Route.Sender
		}
		if name := place.BestLocality(); name != "" {
			return name
		}
		if name := place.BestRegion(); name != "" {
			return name
		}
	}
	if loc.Province != "" {
		return loc.Province
	}
	return loc.Address
}
