// Package route turns a coarse road route into an ordered list of named
// checkpoints for the shipment history. Sampling is best-effort: when the
// geometry or the reverse geocoder lets us down, the list is filled with
// synthetic regional hubs so the trace never looks empty.
package route

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"log/slog"

	"github.com/PrincipeGhost/CorreosPremium/core/logger"
	"github.com/PrincipeGhost/CorreosPremium/internal/geo/openroute"
)

// Role marks a checkpoint's position in the route.
type Role string

const (
	RoleOrigin      Role = "ORIGIN"
	RoleTransit     Role = "TRANSIT"
	RoleDestination Role = "DESTINATION"
)

// Checkpoint is a named stop along the synthesized route. Checkpoints are
// transient: they only exist between synthesis and scheduling.
type Checkpoint struct {
	Name string
	Role Role
}

// ReverseGeocoder resolves a coordinate to a place name. nil, nil means the
// point matched nothing.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*openroute.Place, error)
	SampleDelay() time.Duration
}

const (
	maxSamples      = 25
	minSampleTarget = 10
)

// hubTemplates rotate through the synthetic filler names. They render with a
// zone number so repeated fills stay distinct.
var hubTemplates = []string{
	"Centro Logístico Regional",
	"Plataforma de Distribución",
	"Hub de Tránsito",
	"Centro de Clasificación",
}

// Synthesizer builds checkpoint lists for shipments.
type Synthesizer struct {
	geocoder ReverseGeocoder
	rng      *rand.Rand
	sleep    func(context.Context, time.Duration)
}

// NewSynthesizer wires a synthesizer. rng may be nil for a time-seeded source.
func NewSynthesizer(geocoder ReverseGeocoder, rng *rand.Rand) *Synthesizer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Synthesizer{
		geocoder: geocoder,
		rng:      rng,
		sleep:    sleepCtx,
	}
}

// MinCheckpoints is the guaranteed floor on the synthesized list length.
func MinCheckpoints(estimatedDays int) int {
	if n := estimatedDays + 2; n > 4 {
		return n
	}
	return 4
}

// Synthesize produces the ordered checkpoint list for a shipment. geometry
// may be empty; senderRegion and recipientRegion anchor the ends when
// non-empty. The result has at least MinCheckpoints entries whenever both
// anchors are present.
func (s *Synthesizer) Synthesize(ctx context.Context, geometry string, senderRegion, recipientRegion string, estimatedDays int) []Checkpoint {
	minCount := MinCheckpoints(estimatedDays)
	senderRegion = strings.TrimSpace(senderRegion)
	recipientRegion = strings.TrimSpace(recipientRegion)

	points := openroute.DecodePolyline(geometry)
	sampled := s.sampleNames(ctx, points)

	used := make(map[string]bool)
	var out []Checkpoint
	add := func(name string, role Role) {
		key := strings.ToUpper(strings.TrimSpace(name))
		if key == "" || used[key] {
			return
		}
		used[key] = true
		out = append(out, Checkpoint{Name: name, Role: role})
	}

	if senderRegion != "" {
		add(senderRegion, RoleOrigin)
	}

	if len(points) < 2 || len(sampled) == 0 {
		// Nothing real to show between the anchors; interpolate.
		for i := 0; i < max(2, minCount-2); i++ {
			add(s.nextHubName(used), RoleTransit)
		}
	} else {
		for _, name := range sampled {
			add(name, RoleTransit)
		}
		for interiorCount(out, recipientRegion) < minCount-2 {
			add(s.nextHubName(used), RoleTransit)
		}
	}

	if recipientRegion != "" {
		promoted := false
		for i := range out {
			if out[i].Role == RoleTransit && strings.EqualFold(out[i].Name, recipientRegion) {
				// The destination was sampled mid-route; promote it in place.
				out[i].Role = RoleDestination
				promoted = true
			}
		}
		if promoted {
			moveDestinationLast(out)
		} else {
			// Appended even when the name matches the origin anchor: a
			// same-province shipment still has two distinct end stops.
			out = append(out, Checkpoint{Name: recipientRegion, Role: RoleDestination})
		}
	}

	logger.SVC.Debug("checkpoints synthesized",
		slog.String("event", "route.synthesize"),
		slog.Int("count", len(out)),
		slog.Int("min", minCount),
		slog.Int("sampled", len(sampled)),
	)
	return out
}

// sampleNames reverse-geocodes evenly spaced points along the path and
// returns the deduplicated locality names in path order.
func (s *Synthesizer) sampleNames(ctx context.Context, points []openroute.Point) []string {
	if len(points) < 2 || s.geocoder == nil {
		return nil
	}
	samples := maxSamples
	if samples > len(points) {
		samples = len(points)
	}
	if floor := min(minSampleTarget, len(points)); samples < floor {
		samples = floor
	}
	step := float64(len(points)-1) / float64(samples-1)

	seen := make(map[string]bool)
	var names []string
	for i := 0; i < samples; i++ {
		if ctx.Err() != nil {
			break
		}
		p := points[int(float64(i)*step)]
		place, err := s.geocoder.ReverseGeocode(ctx, p.Lat, p.Lon)
		if err != nil || place == nil {
			continue
		}
		name := place.BestLocality()
		if name == "" {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(name))
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)

		if d := s.geocoder.SampleDelay(); d > 0 && i < samples-1 {
			s.sleep(ctx, d)
		}
	}
	return names
}

// nextHubName draws a filler name that does not collide with used names.
func (s *Synthesizer) nextHubName(used map[string]bool) string {
	for {
		tpl := hubTemplates[s.rng.Intn(len(hubTemplates))]
		name := fmt.Sprintf("%s - Zona %d", tpl, s.rng.Intn(90)+10)
		if !used[strings.ToUpper(name)] {
			return name
		}
	}
}

func interiorCount(cps []Checkpoint, recipientRegion string) int {
	n := 0
	for _, cp := range cps {
		if cp.Role != RoleTransit {
			continue
		}
		if recipientRegion != "" && strings.EqualFold(cp.Name, recipientRegion) {
			continue
		}
		n++
	}
	return n
}

func moveDestinationLast(cps []Checkpoint) {
	for i := 0; i < len(cps)-1; i++ {
		if cps[i].Role == RoleDestination {
			dest := cps[i]
			copy(cps[i:], cps[i+1:])
			cps[len(cps)-1] = dest
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
