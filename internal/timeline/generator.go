// Package timeline schedules the synthetic history events for a shipment.
// Timestamps are produced by a forward-only cursor: every event time is the
// previous one plus a positive random gap, then nudged into working hours.
// Strict monotonicity therefore holds by construction, and the re-advance
// path only exists as a guard around the snapping math.
package timeline

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/PrincipeGhost/CorreosPremium/internal/models"
	"github.com/PrincipeGhost/CorreosPremium/internal/route"
)

// Event is one scheduled history row, ready for persistence.
type Event struct {
	OldLabel models.Label
	NewLabel models.Label
	Note     string
	At       time.Time
}

const (
	minHoursPerEvent = 6.0
	maxHoursPerEvent = 18.0
	jitterFraction   = 0.3

	dayStartHour = 6  // inclusive
	dayEndHour   = 22 // exclusive
)

// Generator assigns timestamps to checkpoint events.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator builds a generator. rng may be nil for a time-seeded source.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// Schedule turns checkpoints into a strictly increasing event sequence
// starting after start. The first and last checkpoints are treated as the
// origin and destination; everything between gets an arrival and a departure.
func (g *Generator) Schedule(checkpoints []route.Checkpoint, estimatedDays int, start time.Time) []Event {
	if len(checkpoints) < 2 {
		return nil
	}
	origin := checkpoints[0]
	dest := checkpoints[len(checkpoints)-1]
	interior := checkpoints[1 : len(checkpoints)-1]

	totalEvents := 2 + 2*len(interior)
	spanHours := float64(estimatedDays) * 24
	if spanHours < 48 {
		spanHours = 48
	}
	hpe := spanHours / float64(totalEvents)
	if hpe < minHoursPerEvent {
		hpe = minHoursPerEvent
	}
	if hpe > maxHoursPerEvent {
		hpe = maxHoursPerEvent
	}

	events := make([]Event, 0, totalEvents)
	cursor := start
	prev := models.Label(models.StatusInTransit)

	push := func(label models.Label, note string, minGap, maxGap float64) {
		cursor = g.advance(cursor, hpe, minGap, maxGap)
		events = append(events, Event{
			OldLabel: prev,
			NewLabel: label,
			Note:     note,
			At:       cursor,
		})
		prev = label
	}

	push(models.LabelDepartedOrigin,
		fmt.Sprintf("Salió de oficinas de %s", origin.Name), 4, 12)

	for _, cp := range interior {
		push(models.LabelArrivedAt,
			fmt.Sprintf("Llegó a oficina de %s", cp.Name), 6, 14)
		push(models.LabelDepartedFrom,
			fmt.Sprintf("Salió de oficinas de %s", cp.Name), 4, 12)
	}

	push(models.LabelArrivedDestination,
		fmt.Sprintf("Llegó a oficina de %s", dest.Name), 6, 14)

	// The destination arrival must not land implausibly early.
	floorHours := float64(estimatedDays) * 12
	if floorHours < 24 {
		floorHours = 24
	}
	floor := start.Add(time.Duration(floorHours * float64(time.Hour)))
	last := &events[len(events)-1]
	if last.At.Before(floor) {
		last.At = g.snapDaytime(floor)
	}
	for len(events) > 1 && !last.At.After(events[len(events)-2].At) {
		last.At = g.snapDaytime(last.At.Add(time.Duration(6+g.rng.Intn(9)) * time.Hour))
	}

	return events
}

// advance moves the cursor forward by a jittered step and snaps it into
// working hours, retrying with a forced gap if snapping ever fails to land
// strictly after the previous time.
func (g *Generator) advance(prev time.Time, hpe, minGap, maxGap float64) time.Time {
	step := hpe * (1 - jitterFraction + 2*jitterFraction*g.rng.Float64())
	next := g.snapWorkingHours(prev.Add(hoursDur(step)))

	margin := maxGap
	for !next.After(prev) {
		gap := minGap + (margin-minGap)*g.rng.Float64()
		next = g.snapWorkingHours(prev.Add(hoursDur(gap)))
		margin += 6
	}
	return next
}

// snapWorkingHours keeps t inside 06:00..21:59, rolling early mornings to a
// random mid-morning hour and late evenings to the next day's early window.
func (g *Generator) snapWorkingHours(t time.Time) time.Time {
	switch h := t.Hour(); {
	case h < dayStartHour:
		return at(t, 7+g.rng.Intn(5)) // 07..11 same day
	case h >= dayEndHour:
		return at(t.AddDate(0, 0, 1), 6+g.rng.Intn(5)) // 06..10 next day
	default:
		return t
	}
}

// snapDaytime keeps t inside the narrower 08:00..20:00 delivery window,
// always rolling forward.
func (g *Generator) snapDaytime(t time.Time) time.Time {
	switch h := t.Hour(); {
	case h < 8:
		return at(t, 8+g.rng.Intn(5))
	case h > 20:
		return at(t.AddDate(0, 0, 1), 8+g.rng.Intn(5))
	default:
		return t
	}
}

func at(t time.Time, hour int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, t.Minute(), t.Second(), 0, t.Location())
}

func hoursDur(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
