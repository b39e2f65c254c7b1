package route

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PrincipeGhost/CorreosPremium/internal/geo/openroute"
)

type fakeGeocoder struct {
	names []string
	calls int
	err   error
}

func (f *fakeGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (*openroute.Place, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.names) == 0 {
		return nil, nil
	}
	name := f.names[(f.calls-1)%len(f.names)]
	return &openroute.Place{Locality: name}, nil
}

func (f *fakeGeocoder) SampleDelay() time.Duration { return 0 }

// encodePath builds a polyline with n points so tests control sampling input.
func encodePath(n int) string {
	var b strings.Builder
	writeChunk := func(v int64) {
		v <<= 1
		if v < 0 {
			v = ^v
		}
		for v >= 0x20 {
			b.WriteByte(byte((0x20 | (v & 0x1f)) + 63))
			v >>= 5
		}
		b.WriteByte(byte(v + 63))
	}
	for i := 0; i < n; i++ {
		if i == 0 {
			writeChunk(4000000) // 40.0
			writeChunk(-370000) // -3.7
		} else {
			writeChunk(1000)
			writeChunk(1000)
		}
	}
	return b.String()
}

func newSynth(g ReverseGeocoder, seed int64) *Synthesizer {
	return NewSynthesizer(g, rand.New(rand.NewSource(seed)))
}

func TestSynthesize_realRoute(t *testing.T) {
	g := &fakeGeocoder{names: []string{"Guadalajara", "Zaragoza", "Lleida", "Tarragona"}}
	s := newSynth(g, 1)

	cps := s.Synthesize(context.Background(), encodePath(40), "Madrid", "Barcelona", 4)

	require.GreaterOrEqual(t, len(cps), MinCheckpoints(4))
	require.Equal(t, "Madrid", cps[0].Name)
	require.Equal(t, RoleOrigin, cps[0].Role)
	require.Equal(t, "Barcelona", cps[len(cps)-1].Name)
	require.Equal(t, RoleDestination, cps[len(cps)-1].Role)
	for _, cp := range cps[1 : len(cps)-1] {
		require.Equal(t, RoleTransit, cp.Role)
	}
}

func TestSynthesize_deduplicatesCaseInsensitive(t *testing.T) {
	g := &fakeGeocoder{names: []string{"Zaragoza", "ZARAGOZA", " zaragoza ", "Lleida"}}
	s := newSynth(g, 1)

	cps := s.Synthesize(context.Background(), encodePath(40), "Madrid", "Barcelona", 3)

	seen := make(map[string]int)
	for _, cp := range cps {
		seen[strings.ToUpper(strings.TrimSpace(cp.Name))]++
	}
	for name, n := range seen {
		require.Equal(t, 1, n, "duplicate %q", name)
	}
}

func TestSynthesize_destinationSampledMidRoute(t *testing.T) {
	g := &fakeGeocoder{names: []string{"Zaragoza", "Barcelona", "Lleida"}}
	s := newSynth(g, 1)

	cps := s.Synthesize(context.Background(), encodePath(40), "Madrid", "Barcelona", 3)

	last := cps[len(cps)-1]
	require.Equal(t, "Barcelona", last.Name)
	require.Equal(t, RoleDestination, last.Role)
	for _, cp := range cps[:len(cps)-1] {
		require.NotEqual(t, RoleDestination, cp.Role)
	}
}

func TestSynthesize_sameRegion(t *testing.T) {
	// Madrid→Madrid: the anchors share a name but are still two stops.
	for seed := int64(0); seed < 20; seed++ {
		s := newSynth(&fakeGeocoder{}, seed)

		cps := s.Synthesize(context.Background(), "", "Madrid", "Madrid", 2)

		require.GreaterOrEqual(t, len(cps), MinCheckpoints(2), "seed=%d", seed)
		require.Equal(t, "Madrid", cps[0].Name)
		require.Equal(t, RoleOrigin, cps[0].Role)
		require.Equal(t, "Madrid", cps[len(cps)-1].Name)
		require.Equal(t, RoleDestination, cps[len(cps)-1].Role)
		for _, cp := range cps[1 : len(cps)-1] {
			require.Equal(t, RoleTransit, cp.Role)
		}
	}
}

func TestSynthesize_sameRegionWithRoute(t *testing.T) {
	g := &fakeGeocoder{names: []string{"Getafe", "Leganés"}}
	s := newSynth(g, 5)

	cps := s.Synthesize(context.Background(), encodePath(40), "Madrid", "Madrid", 3)

	require.GreaterOrEqual(t, len(cps), MinCheckpoints(3))
	require.Equal(t, RoleOrigin, cps[0].Role)
	require.Equal(t, "Madrid", cps[len(cps)-1].Name)
	require.Equal(t, RoleDestination, cps[len(cps)-1].Role)
}

func TestSynthesize_padsToMinimum(t *testing.T) {
	// Only one real locality sampled; hubs must fill the gap.
	g := &fakeGeocoder{names: []string{"Zaragoza"}}
	s := newSynth(g, 7)

	cps := s.Synthesize(context.Background(), encodePath(40), "Madrid", "Barcelona", 6)

	require.GreaterOrEqual(t, len(cps), MinCheckpoints(6))
	hubs := 0
	for _, cp := range cps {
		if strings.Contains(cp.Name, "Zona") {
			hubs++
		}
	}
	require.Greater(t, hubs, 0)
}

func TestSynthesize_noGeometry(t *testing.T) {
	s := newSynth(&fakeGeocoder{}, 3)

	cps := s.Synthesize(context.Background(), "", "Madrid", "Barcelona", 5)

	require.GreaterOrEqual(t, len(cps), MinCheckpoints(5))
	require.Equal(t, RoleOrigin, cps[0].Role)
	require.Equal(t, RoleDestination, cps[len(cps)-1].Role)
	require.Len(t, cps, 2+MinCheckpoints(5)-2)
}

func TestSynthesize_geocoderDown(t *testing.T) {
	g := &fakeGeocoder{err: errors.New("quota exceeded")}
	s := newSynth(g, 3)

	cps := s.Synthesize(context.Background(), encodePath(40), "Madrid", "Barcelona", 4)

	require.GreaterOrEqual(t, len(cps), MinCheckpoints(4))
}

func TestSynthesize_minimumProperty(t *testing.T) {
	for days := 0; days <= 12; days++ {
		for seed := int64(0); seed < 20; seed++ {
			s := newSynth(&fakeGeocoder{}, seed)
			cps := s.Synthesize(context.Background(), "", "Madrid", "Lisboa", days)
			require.GreaterOrEqual(t, len(cps), MinCheckpoints(days),
				"days=%d seed=%d", days, seed)
		}
	}
}

func TestMinCheckpoints(t *testing.T) {
	require.Equal(t, 4, MinCheckpoints(0))
	require.Equal(t, 4, MinCheckpoints(2))
	require.Equal(t, 5, MinCheckpoints(3))
	require.Equal(t, 9, MinCheckpoints(7))
}
