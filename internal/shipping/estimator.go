package shipping

import (
	"context"
	"time"

	"log/slog"

	"github.com/PrincipeGhost/CorreosPremium/core/logger"
	"github.com/PrincipeGhost/CorreosPremium/internal/geo/openroute"
	"github.com/PrincipeGhost/CorreosPremium/internal/models"
)

// Router resolves a road route between two addresses. A nil summary with a
// nil error means the service found nothing usable.
type Router interface {
	RouteBetween(ctx context.Context, origin, dest openroute.Query) (*openroute.RouteSummary, error)
}

const (
	minTransitDays      = 3
	maxTransitDays      = 7
	crossBorderExtra    = 3
	maxCrossBorderDays  = 10
	fallbackDomestic    = 2
	fallbackIntl        = 10
	kmPerTransitDay     = 400
	transitDaysBaseline = 2
)

// Estimate is the outcome of a delivery estimation. Route is nil when the
// routing service could not resolve the trip and the days are a fallback.
type Estimate struct {
	Days        int
	CrossBorder bool
	Route       *openroute.RouteSummary
	Delivery    time.Time
}

// Estimator derives delivery windows from road distance. It never fails:
// routing problems degrade to fixed domestic or international estimates.
type Estimator struct {
	router Router
	now    func() time.Time
}

// NewEstimator wires an estimator over a routing client. The clock is
// injectable for tests.
func NewEstimator(router Router, now func() time.Time) *Estimator {
	if now == nil {
		now = time.Now
	}
	return &Estimator{router: router, now: now}
}

// Estimate computes the transit days and delivery date for a shipment.
// delayDays is the delay already accumulated on the tracking; it extends the
// delivery date but not the base transit estimate.
func (e *Estimator) Estimate(ctx context.Context, sender, recipient models.Location, delayDays int) Estimate {
	origin := openroute.Query{
		Address:     sender.Address,
		PostalCode:  sender.PostalCode,
		Province:    sender.Province,
		CountryCode: CountryCode(sender.Country),
	}
	dest := openroute.Query{
		Address:     recipient.Address,
		PostalCode:  recipient.PostalCode,
		Province:    recipient.Province,
		CountryCode: CountryCode(recipient.Country),
	}

	sum, err := e.router.RouteBetween(ctx, origin, dest)
	if err != nil {
		logger.SVC.Warn("route lookup failed, using fallback estimate",
			slog.String("event", "shipping.estimate.fallback"),
			slog.Any("error", err),
		)
	}

	cross := !SameCountry(sender.Country, recipient.Country)
	est := Estimate{CrossBorder: cross}

	if sum == nil {
		if cross {
			est.Days = fallbackIntl
		} else {
			est.Days = fallbackDomestic
		}
	} else {
		est.Route = sum
		est.Days = daysForDistance(sum.Route.DistanceKM)
		if sum.CrossBorder() || cross {
			est.CrossBorder = true
			est.Days += crossBorderExtra
			if est.Days > maxCrossBorderDays {
				est.Days = maxCrossBorderDays
			}
		}
	}

	est.Delivery = AddBusinessDays(e.now(), est.Days+delayDays)
	return est
}

func daysForDistance(km float64) int {
	days := int(km/kmPerTransitDay) + transitDaysBaseline
	if days < minTransitDays {
		return minTransitDays
	}
	if days > maxTransitDays {
		return maxTransitDays
	}
	return days
}

// AddBusinessDays advances t by n days counting Monday through Friday only.
func AddBusinessDays(t time.Time, n int) time.Time {
	for n > 0 {
		t = t.AddDate(0, 0, 1)
		if wd := t.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n--
		}
	}
	return t
}

// FormatDate renders a delivery date the way the bot shows it to users.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}
