package timeline

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PrincipeGhost/CorreosPremium/internal/models"
	"github.com/PrincipeGhost/CorreosPremium/internal/route"
)

func checkpoints(interior int) []route.Checkpoint {
	cps := []route.Checkpoint{{Name: "Madrid", Role: route.RoleOrigin}}
	for i := 0; i < interior; i++ {
		cps = append(cps, route.Checkpoint{
			Name: fmt.Sprintf("Hub %d", i+1),
			Role: route.RoleTransit,
		})
	}
	return append(cps, route.Checkpoint{Name: "Barcelona", Role: route.RoleDestination})
}

var scheduleStart = time.Date(2025, 3, 3, 14, 30, 0, 0, time.UTC)

func TestSchedule_eventShape(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(1)))
	events := g.Schedule(checkpoints(3), 4, scheduleStart)

	require.Len(t, events, 2+2*3)

	first := events[0]
	require.Equal(t, models.LabelDepartedOrigin, first.NewLabel)
	require.Equal(t, models.Label(models.StatusInTransit), first.OldLabel)
	require.Contains(t, first.Note, "Madrid")

	last := events[len(events)-1]
	require.Equal(t, models.LabelArrivedDestination, last.NewLabel)
	require.Contains(t, last.Note, "Barcelona")

	// Interior checkpoints alternate arrival then departure.
	for i := 1; i < len(events)-1; i += 2 {
		require.Equal(t, models.LabelArrivedAt, events[i].NewLabel)
		require.Equal(t, models.LabelDepartedFrom, events[i+1].NewLabel)
		require.Equal(t, events[i].NewLabel, events[i+1].OldLabel)
	}
}

func TestSchedule_strictlyIncreasing(t *testing.T) {
	for seed := int64(0); seed < 1500; seed++ {
		g := NewGenerator(rand.New(rand.NewSource(seed)))
		interior := int(seed%8) + 1
		days := int(seed%10) + 1
		events := g.Schedule(checkpoints(interior), days, scheduleStart)

		require.Len(t, events, 2+2*interior)
		require.True(t, events[0].At.After(scheduleStart), "seed=%d", seed)
		for i := 1; i < len(events); i++ {
			require.True(t, events[i].At.After(events[i-1].At),
				"seed=%d i=%d prev=%v next=%v", seed, i, events[i-1].At, events[i].At)
		}
	}
}

func TestSchedule_workingHours(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		g := NewGenerator(rand.New(rand.NewSource(seed)))
		events := g.Schedule(checkpoints(4), 5, scheduleStart)
		for i, e := range events {
			h := e.At.Hour()
			require.GreaterOrEqual(t, h, 6, "seed=%d i=%d at=%v", seed, i, e.At)
			require.Less(t, h, 22, "seed=%d i=%d at=%v", seed, i, e.At)
		}
	}
}

func TestSchedule_destinationFloor(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		g := NewGenerator(rand.New(rand.NewSource(seed)))
		days := 6
		events := g.Schedule(checkpoints(2), days, scheduleStart)
		floor := scheduleStart.Add(time.Duration(days) * 12 * time.Hour)
		last := events[len(events)-1].At
		require.False(t, last.Before(floor), "seed=%d last=%v floor=%v", seed, last, floor)
	}
}

func TestSchedule_tooFewCheckpoints(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(1)))
	require.Nil(t, g.Schedule(nil, 3, scheduleStart))
	require.Nil(t, g.Schedule(checkpoints(0)[:1], 3, scheduleStart))
}
