package tracking

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PrincipeGhost/CorreosPremium/internal/access"
	"github.com/PrincipeGhost/CorreosPremium/internal/geo/openroute"
	"github.com/PrincipeGhost/CorreosPremium/internal/lifecycle"
	"github.com/PrincipeGhost/CorreosPremium/internal/models"
	"github.com/PrincipeGhost/CorreosPremium/internal/route"
	"github.com/PrincipeGhost/CorreosPremium/internal/shipping"
	"github.com/PrincipeGhost/CorreosPremium/internal/storage/pgtrack"
	"github.com/PrincipeGhost/CorreosPremium/internal/timeline"
)

// memStore is an in-memory Store for service tests.
type memStore struct {
	trackings map[string]*models.Tracking
	history   map[string][]models.HistoryEvent
	nextID    int64

	failAppend bool
}

func newMemStore() *memStore {
	return &memStore{
		trackings: make(map[string]*models.Tracking),
		history:   make(map[string][]models.HistoryEvent),
	}
}

func (m *memStore) appendRaw(trackingID string, events []models.HistoryEvent) {
	for _, e := range events {
		m.nextID++
		e.ID = m.nextID
		e.TrackingID = trackingID
		m.history[trackingID] = append(m.history[trackingID], e)
	}
}

func (m *memStore) CreateTracking(ctx context.Context, t *models.Tracking, initial []models.HistoryEvent) error {
	cp := *t
	cp.CreatedAt = time.Now().UTC()
	m.trackings[t.ID] = &cp
	m.appendRaw(t.ID, initial)
	return nil
}

func (m *memStore) GetTracking(ctx context.Context, id string) (*models.Tracking, error) {
	t, ok := m.trackings[id]
	if !ok {
		return nil, pgtrack.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) ListTrackings(ctx context.Context) ([]*models.Tracking, error) {
	var out []*models.Tracking
	for _, t := range m.trackings {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) ListTrackingsByStatus(ctx context.Context, status models.Status) ([]*models.Tracking, error) {
	all, _ := m.ListTrackings(ctx)
	var out []*models.Tracking
	for _, t := range all {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) ApplyTransition(ctx context.Context, id string, target models.Status, event models.HistoryEvent) error {
	t, ok := m.trackings[id]
	if !ok {
		return pgtrack.ErrNotFound
	}
	t.Status = target
	m.appendRaw(id, []models.HistoryEvent{event})
	return nil
}

func (m *memStore) AddDelay(ctx context.Context, id string, days int, newEstimate string, event models.HistoryEvent) error {
	t, ok := m.trackings[id]
	if !ok {
		return pgtrack.ErrNotFound
	}
	t.DelayDays += days
	t.EstimatedDelivery = newEstimate
	m.appendRaw(id, []models.HistoryEvent{event})
	return nil
}

func (m *memStore) SetEstimatedDelivery(ctx context.Context, id, label string) error {
	t, ok := m.trackings[id]
	if !ok {
		return pgtrack.ErrNotFound
	}
	t.EstimatedDelivery = label
	return nil
}

func (m *memStore) AppendEvents(ctx context.Context, trackingID string, events []models.HistoryEvent) error {
	if m.failAppend {
		return errors.New("append failed")
	}
	m.appendRaw(trackingID, events)
	return nil
}

func (m *memStore) ListHistory(ctx context.Context, trackingID string) ([]models.HistoryEvent, error) {
	out := append([]models.HistoryEvent(nil), m.history[trackingID]...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out, nil
}

func (m *memStore) DeleteTracking(ctx context.Context, id string) error {
	if _, ok := m.trackings[id]; !ok {
		return pgtrack.ErrNotFound
	}
	delete(m.trackings, id)
	delete(m.history, id)
	return nil
}

func (m *memStore) Stats(ctx context.Context) (map[models.Status]int, error) {
	out := make(map[models.Status]int)
	for _, t := range m.trackings {
		out[t.Status]++
	}
	return out, nil
}

func (m *memStore) StatsByCreator(ctx context.Context) (map[int64]int, error) {
	out := make(map[int64]int)
	for _, t := range m.trackings {
		out[t.CreatedBy]++
	}
	return out, nil
}

func (m *memStore) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	n := 0
	for _, t := range m.trackings {
		if !t.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

type nilRouter struct{}

func (nilRouter) RouteBetween(ctx context.Context, origin, dest openroute.Query) (*openroute.RouteSummary, error) {
	return nil, nil
}

const ownerID = int64(1000)

var testClock = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

func newTestService(store Store) *Service {
	rng := rand.New(rand.NewSource(42))
	policy := access.New(ownerID)
	return New(Options{
		Store:     store,
		Policy:    &policy,
		Estimator: shipping.NewEstimator(nilRouter{}, func() time.Time { return testClock }),
		Synth:     route.NewSynthesizer(nil, rng),
		Sched:     timeline.NewGenerator(rng),
		Rand:      rng,
		Now:       func() time.Time { return testClock },
	})
}

func domesticInput(creator, addressee int64) CreateInput {
	return CreateInput{
		Sender:      models.Location{Address: "Calle Mayor 1", Province: "Madrid", Country: "España"},
		Recipient:   models.Location{Address: "La Rambla 10", Province: "Barcelona", Country: "España"},
		ProductName: "Auriculares",
		CreatedBy:   creator,
		AddresseeID: addressee,
	}
}

func TestCreate_initialState(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	tr, err := svc.Create(context.Background(), domesticInput(5, 6))
	require.NoError(t, err)
	require.Equal(t, models.StatusRetained, tr.Status)
	require.NotEmpty(t, tr.ID)

	events, err := svc.History(context.Background(), tr.ID, ownerID, true)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, models.LabelReceived, events[0].NewLabel)
	require.Equal(t, models.LabelAwaitingPayment, events[1].NewLabel)
	require.Contains(t, events[0].Note, "Madrid")
}

func TestGet_accessFiltering(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	tr, err := svc.Create(context.Background(), domesticInput(5, 6))
	require.NoError(t, err)

	for _, actor := range []int64{ownerID, 5, 6} {
		got, err := svc.Get(context.Background(), tr.ID, actor)
		require.NoError(t, err, "actor=%d", actor)
		require.Equal(t, tr.ID, got.ID)
	}

	_, err = svc.Get(context.Background(), tr.ID, 777)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTransition_invalidSkipAndRevert(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	tr, err := svc.Create(ctx, domesticInput(5, 6))
	require.NoError(t, err)

	_, err = svc.Transition(ctx, tr.ID, models.StatusInTransit, "", ownerID)
	require.ErrorIs(t, err, lifecycle.ErrInvalidTransition)

	_, err = svc.Transition(ctx, tr.ID, models.StatusPaymentPending, "", ownerID)
	require.NoError(t, err)

	_, err = svc.Transition(ctx, tr.ID, models.StatusRetained, "", ownerID)
	require.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
}

func TestTransition_ownerOnly(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	tr, err := svc.Create(ctx, domesticInput(5, 6))
	require.NoError(t, err)

	_, err = svc.Transition(ctx, tr.ID, models.StatusPaymentPending, "", 5)
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestLifecycle_endToEnd(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	tr, err := svc.Create(ctx, domesticInput(5, 6))
	require.NoError(t, err)

	res, err := svc.Transition(ctx, tr.ID, models.StatusPaymentPending, "", ownerID)
	require.NoError(t, err)
	require.Empty(t, res.Warning)

	before, err := svc.History(ctx, tr.ID, ownerID, true)
	require.NoError(t, err)
	require.Len(t, before, 3)
	shippedAfter := before[len(before)-1].OccurredAt

	res, err = svc.Transition(ctx, tr.ID, models.StatusInTransit, "", ownerID)
	require.NoError(t, err)
	require.Empty(t, res.Warning)

	// Domestic fallback: 2 days, so min checkpoints is 4 and the route
	// history adds 2*4-2 scheduled events.
	minCP := route.MinCheckpoints(2)
	require.Equal(t, 2*minCP-2, res.ScheduledEvents)

	after, err := svc.History(ctx, tr.ID, ownerID, true)
	require.NoError(t, err)
	require.Len(t, after, len(before)+1+res.ScheduledEvents)

	for _, e := range after[len(before)+1:] {
		require.True(t, e.OccurredAt.After(shippedAfter),
			"scheduled event %s not after transition", e.NewLabel)
	}

	got, err := svc.Get(ctx, tr.ID, ownerID)
	require.NoError(t, err)
	require.NotEmpty(t, got.EstimatedDelivery)

	_, err = svc.Transition(ctx, tr.ID, models.StatusDelivered, "", ownerID)
	require.NoError(t, err)
}

func TestTransition_pipelineFailureIsWarning(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	tr, err := svc.Create(ctx, domesticInput(5, 6))
	require.NoError(t, err)
	_, err = svc.Transition(ctx, tr.ID, models.StatusPaymentPending, "", ownerID)
	require.NoError(t, err)

	store.failAppend = true
	res, err := svc.Transition(ctx, tr.ID, models.StatusInTransit, "", ownerID)
	store.failAppend = false

	require.NoError(t, err)
	require.NotEmpty(t, res.Warning)

	got, err := svc.Get(ctx, tr.ID, ownerID)
	require.NoError(t, err)
	require.Equal(t, models.StatusInTransit, got.Status)
}

func TestAddDelay_accumulates(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	tr, err := svc.Create(ctx, domesticInput(5, 6))
	require.NoError(t, err)

	got, err := svc.AddDelay(ctx, tr.ID, 2, "", ownerID)
	require.NoError(t, err)
	require.Equal(t, 2, got.DelayDays)

	got, err = svc.AddDelay(ctx, tr.ID, 3, "retención en aduanas", ownerID)
	require.NoError(t, err)
	require.Equal(t, 5, got.DelayDays)
	require.Equal(t, models.StatusRetained, got.Status)

	events, err := svc.History(ctx, tr.ID, ownerID, true)
	require.NoError(t, err)
	last := events[len(events)-1]
	require.Equal(t, models.LabelDelayed, last.NewLabel)
	require.Contains(t, last.Note, "Retraso de 3 días")
	require.Contains(t, last.Note, "retención en aduanas")

	_, err = svc.AddDelay(ctx, tr.ID, 0, "", ownerID)
	require.ErrorIs(t, err, ErrInvalidDelay)
	_, err = svc.AddDelay(ctx, tr.ID, -2, "", ownerID)
	require.ErrorIs(t, err, ErrInvalidDelay)
}

func TestHistory_hidesFutureEvents(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	tr, err := svc.Create(ctx, domesticInput(5, 6))
	require.NoError(t, err)
	_, err = svc.Transition(ctx, tr.ID, models.StatusPaymentPending, "", ownerID)
	require.NoError(t, err)
	res, err := svc.Transition(ctx, tr.ID, models.StatusInTransit, "", ownerID)
	require.NoError(t, err)
	require.Greater(t, res.ScheduledEvents, 0)

	full, err := svc.History(ctx, tr.ID, ownerID, true)
	require.NoError(t, err)
	visible, err := svc.History(ctx, tr.ID, 6, false)
	require.NoError(t, err)
	require.Less(t, len(visible), len(full))
	for _, e := range visible {
		require.False(t, e.OccurredAt.After(testClock))
	}
}

func TestList_visibility(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Create(ctx, domesticInput(5, 6))
	require.NoError(t, err)
	_, err = svc.Create(ctx, domesticInput(7, 8))
	require.NoError(t, err)

	all, err := svc.List(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, all, 2)

	mine, err := svc.List(ctx, 5)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	none, err := svc.List(ctx, 999)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestDelete_cascades(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	tr, err := svc.Create(ctx, domesticInput(5, 6))
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, tr.ID, 5), ErrAccessDenied)
	require.NoError(t, svc.Delete(ctx, tr.ID, ownerID))
	require.ErrorIs(t, svc.Delete(ctx, tr.ID, ownerID), ErrNotFound)

	_, err = svc.Get(ctx, tr.ID, ownerID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStats_ownerOnly(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Create(ctx, domesticInput(5, 6))
	require.NoError(t, err)

	_, err = svc.Stats(ctx, 5)
	require.ErrorIs(t, err, ErrAccessDenied)

	stats, err := svc.Stats(ctx, ownerID)
	require.NoError(t, err)
	require.Equal(t, 1, stats.ByStatus[models.StatusRetained])
	require.Equal(t, 1, stats.Total)
	require.Equal(t, 1, stats.CreatedToday)
	require.Equal(t, map[int64]int{5: 1}, stats.ByCreator)
}
