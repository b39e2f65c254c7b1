// Package tracking is the application core: it owns the status lifecycle,
// access control, and the ship pipeline that fabricates the route history.
package tracking

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/PrincipeGhost/CorreosPremium/core/logger"
	"github.com/PrincipeGhost/CorreosPremium/internal/access"
	"github.com/PrincipeGhost/CorreosPremium/internal/cache"
	"github.com/PrincipeGhost/CorreosPremium/internal/lifecycle"
	"github.com/PrincipeGhost/CorreosPremium/internal/models"
	"github.com/PrincipeGhost/CorreosPremium/internal/route"
	"github.com/PrincipeGhost/CorreosPremium/internal/shipping"
	"github.com/PrincipeGhost/CorreosPremium/internal/storage/pgtrack"
	"github.com/PrincipeGhost/CorreosPremium/internal/timeline"
)

var (
	// ErrNotFound is surfaced when the tracking id does not exist or the
	// actor is not allowed to know whether it exists.
	ErrNotFound = errors.New("tracking not found")
	// ErrAccessDenied is surfaced on mutations the actor may not perform.
	ErrAccessDenied = errors.New("access denied")
	// ErrInvalidDelay rejects non-positive delay increments.
	ErrInvalidDelay = errors.New("delay must be positive")
)

// Store is the persistence contract the service depends on.
type Store interface {
	CreateTracking(ctx context.Context, t *models.Tracking, initial []models.HistoryEvent) error
	GetTracking(ctx context.Context, id string) (*models.Tracking, error)
	ListTrackings(ctx context.Context) ([]*models.Tracking, error)
	ListTrackingsByStatus(ctx context.Context, status models.Status) ([]*models.Tracking, error)
	ApplyTransition(ctx context.Context, id string, target models.Status, event models.HistoryEvent) error
	AddDelay(ctx context.Context, id string, days int, newEstimate string, event models.HistoryEvent) error
	SetEstimatedDelivery(ctx context.Context, id, label string) error
	AppendEvents(ctx context.Context, trackingID string, events []models.HistoryEvent) error
	ListHistory(ctx context.Context, trackingID string) ([]models.HistoryEvent, error)
	DeleteTracking(ctx context.Context, id string) error
	Stats(ctx context.Context) (map[models.Status]int, error)
	StatsByCreator(ctx context.Context) (map[int64]int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
}

// Service wires the lifecycle, policy and synthesis pipeline over storage.
type Service struct {
	store  Store
	policy *access.Policy

	estimator *shipping.Estimator
	synth     *route.Synthesizer
	sched     *timeline.Generator

	views    cache.BytesCache
	viewTTL  time.Duration
	rng      *rand.Rand
	now      func() time.Time
	shipping keyedMutex
}

// Options carries the collaborators a Service needs.
type Options struct {
	Store     Store
	Policy    *access.Policy
	Estimator *shipping.Estimator
	Synth     *route.Synthesizer
	Sched     *timeline.Generator
	Views     cache.BytesCache
	ViewTTL   time.Duration
	Rand      *rand.Rand
	Now       func() time.Time
}

// New constructs the tracking service. Views and Rand may be nil.
func New(opts Options) *Service {
	if opts.Views == nil {
		opts.Views = cache.Noop{}
	}
	if opts.ViewTTL <= 0 {
		opts.ViewTTL = 5 * time.Minute
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:     opts.Store,
		policy:    opts.Policy,
		estimator: opts.Estimator,
		synth:     opts.Synth,
		sched:     opts.Sched,
		views:     opts.Views,
		viewTTL:   opts.ViewTTL,
		rng:       opts.Rand,
		now:       opts.Now,
	}
}

// CreateInput is everything the creation wizard collects.
type CreateInput struct {
	Sender    models.Location
	Recipient models.Location

	PackageWeight string
	ProductName   string
	ProductPrice  string

	CreatedBy   int64
	AddresseeID int64
}

// Create registers a new tracking in the retained state with its two intake
// history events.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Tracking, error) {
	t := &models.Tracking{
		ID:            newTrackingID(),
		Status:        models.StatusRetained,
		Sender:        in.Sender,
		Recipient:     in.Recipient,
		PackageWeight: in.PackageWeight,
		ProductName:   in.ProductName,
		ProductPrice:  in.ProductPrice,
		CreatedBy:     in.CreatedBy,
		AddresseeID:   in.AddresseeID,
	}

	now := s.now().UTC()
	office := originOffice(in.Sender)
	initial := []models.HistoryEvent{
		{
			NewLabel:   models.LabelReceived,
			Note:       fmt.Sprintf("Paquete recibido en oficinas de %s", office),
			OccurredAt: now,
		},
		{
			OldLabel:   models.LabelReceived,
			NewLabel:   models.LabelAwaitingPayment,
			Note:       "Esperando confirmación de pago",
			OccurredAt: now.Add(time.Second),
		},
	}

	if err := s.store.CreateTracking(ctx, t, initial); err != nil {
		return nil, err
	}
	logger.SVC.Info("tracking created",
		slog.String("event", "tracking.create"),
		slog.String("tracking_id", t.ID),
		slog.Int64("created_by", t.CreatedBy),
	)
	return t, nil
}

// Get loads a tracking the actor is allowed to see.
func (s *Service) Get(ctx context.Context, id string, actor int64) (*models.Tracking, error) {
	t, err := s.store.GetTracking(ctx, id)
	if errors.Is(err, pgtrack.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !s.policy.CanAccess(t, actor) {
		// Hide existence from strangers.
		return nil, ErrNotFound
	}
	return t, nil
}

// List returns the trackings visible to the actor, newest first.
func (s *Service) List(ctx context.Context, actor int64) ([]*models.Tracking, error) {
	all, err := s.store.ListTrackings(ctx)
	if err != nil {
		return nil, err
	}
	return s.policy.VisibleSet(all, actor), nil
}

// ListByStatus is an administrative listing; only the owner may call it.
func (s *Service) ListByStatus(ctx context.Context, status models.Status, actor int64) ([]*models.Tracking, error) {
	if !s.policy.IsOwner(actor) {
		return nil, ErrAccessDenied
	}
	return s.store.ListTrackingsByStatus(ctx, status)
}

// TransitionResult reports the outcome of a lifecycle transition. Warning is
// set when the ship pipeline failed after the transition itself succeeded.
type TransitionResult struct {
	Tracking        *models.Tracking
	ScheduledEvents int
	Warning         string
}

// Transition moves a tracking to the next lifecycle state. Entering
// EN_TRANSITO additionally fabricates and persists the route history; that
// secondary step never rolls back the transition.
func (s *Service) Transition(ctx context.Context, id string, target models.Status, note string, actor int64) (*TransitionResult, error) {
	if !s.policy.IsOwner(actor) {
		return nil, ErrAccessDenied
	}

	unlock := s.shipping.lock(id)
	defer unlock()

	t, err := s.store.GetTracking(ctx, id)
	if errors.Is(err, pgtrack.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := lifecycle.Validate(t.Status, target); err != nil {
		return nil, err
	}

	event := models.HistoryEvent{
		OldLabel:   t.Status.Label(),
		NewLabel:   target.Label(),
		Note:       note,
		OccurredAt: s.now().UTC(),
	}
	if err := s.store.ApplyTransition(ctx, id, target, event); err != nil {
		if errors.Is(err, pgtrack.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	old := t.Status
	t.Status = target
	t.UpdatedAt = event.OccurredAt
	s.invalidateView(ctx, id)

	res := &TransitionResult{Tracking: t}
	if target == models.StatusInTransit {
		n, pipeErr := s.runShipPipeline(ctx, t, event.OccurredAt)
		res.ScheduledEvents = n
		if pipeErr != nil {
			res.Warning = "la generación del recorrido falló; el envío sigue en tránsito"
			logger.SVC.Warn("ship pipeline failed",
				slog.String("event", "tracking.ship.pipeline"),
				slog.String("tracking_id", id),
				slog.Any("error", pipeErr),
			)
		}
	}

	logger.SVC.Info("status transition",
		slog.String("event", "tracking.transition"),
		slog.String("tracking_id", id),
		slog.String("from", old.String()),
		slog.String("to", target.String()),
		slog.Int("scheduled", res.ScheduledEvents),
	)
	return res, nil
}

// AddDelay grows the accumulated delay and pushes the estimated delivery
// date out by the same number of business days. The status never changes.
func (s *Service) AddDelay(ctx context.Context, id string, days int, reason string, actor int64) (*models.Tracking, error) {
	if !s.policy.IsOwner(actor) {
		return nil, ErrAccessDenied
	}
	if days <= 0 {
		return nil, ErrInvalidDelay
	}

	t, err := s.store.GetTracking(ctx, id)
	if errors.Is(err, pgtrack.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if reason == "" {
		reason = shipping.RandomDelayReason(s.rng)
	}
	newEstimate := s.delayedEstimate(t.EstimatedDelivery, days)

	event := models.HistoryEvent{
		OldLabel:   t.Status.Label(),
		NewLabel:   models.LabelDelayed,
		Note:       fmt.Sprintf("Retraso de %d días: %s", days, reason),
		OccurredAt: s.now().UTC(),
	}
	if err := s.store.AddDelay(ctx, id, days, newEstimate, event); err != nil {
		if errors.Is(err, pgtrack.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	t.DelayDays += days
	t.EstimatedDelivery = newEstimate
	s.invalidateView(ctx, id)

	logger.SVC.Info("delay added",
		slog.String("event", "tracking.delay"),
		slog.String("tracking_id", id),
		slog.Int("days", days),
		slog.Int("total", t.DelayDays),
	)
	return t, nil
}

// History returns the tracking's event list in chronological order. When
// includeFuture is false, scheduled events past now are filtered out, which
// is what end users see.
func (s *Service) History(ctx context.Context, id string, actor int64, includeFuture bool) ([]models.HistoryEvent, error) {
	if _, err := s.Get(ctx, id, actor); err != nil {
		return nil, err
	}
	events, err := s.store.ListHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	if includeFuture {
		return events, nil
	}
	now := s.now().UTC()
	visible := events[:0]
	for _, e := range events {
		if !e.OccurredAt.After(now) {
			visible = append(visible, e)
		}
	}
	return visible, nil
}

// Delete removes a tracking and its history. Owner only.
func (s *Service) Delete(ctx context.Context, id string, actor int64) error {
	if !s.policy.IsOwner(actor) {
		return ErrAccessDenied
	}
	err := s.store.DeleteTracking(ctx, id)
	if errors.Is(err, pgtrack.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	s.invalidateView(ctx, id)
	logger.SVC.Info("tracking deleted",
		slog.String("event", "tracking.delete"),
		slog.String("tracking_id", id),
	)
	return nil
}

// Stats summarizes the whole tracking table. Owner only.
type Stats struct {
	ByStatus     map[models.Status]int
	ByCreator    map[int64]int
	Total        int
	CreatedToday int
}

func (s *Service) Stats(ctx context.Context, actor int64) (*Stats, error) {
	if !s.policy.IsOwner(actor) {
		return nil, ErrAccessDenied
	}
	byStatus, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	byCreator, err := s.store.StatsByCreator(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := s.store.CountCreatedSince(ctx, dayStart)
	if err != nil {
		return nil, err
	}

	out := &Stats{ByStatus: byStatus, ByCreator: byCreator, CreatedToday: today}
	for _, n := range byStatus {
		out.Total += n
	}
	return out, nil
}

// CachedView returns a previously rendered view for the tracking, if any.
func (s *Service) CachedView(ctx context.Context, id string) ([]byte, bool) {
	b, ok, err := s.views.Get(ctx, viewKey(id))
	if err != nil {
		logger.SVC.Debug("view cache read failed",
			slog.String("event", "tracking.cache"),
			slog.Any("error", err),
		)
		return nil, false
	}
	return b, ok
}

// StoreView memoizes a rendered view until the next mutation.
func (s *Service) StoreView(ctx context.Context, id string, view []byte) {
	if err := s.views.Set(ctx, viewKey(id), view, s.viewTTL); err != nil {
		logger.SVC.Debug("view cache write failed",
			slog.String("event", "tracking.cache"),
			slog.Any("error", err),
		)
	}
}

func (s *Service) invalidateView(ctx context.Context, id string) {
	if err := s.views.Del(ctx, viewKey(id)); err != nil {
		logger.SVC.Debug("view cache invalidate failed",
			slog.String("event", "tracking.cache"),
			slog.Any("error", err),
		)
	}
}

func viewKey(id string) string { return "track:view:" + id }

// delayedEstimate pushes a dd/mm/yyyy date label out by n business days.
// Unparsable labels restart from now.
func (s *Service) delayedEstimate(label string, n int) string {
	base, err := time.Parse("02/01/2006", strings.TrimSpace(label))
	if err != nil {
		base = s.now().UTC()
	}
	return shipping.FormatDate(shipping.AddBusinessDays(base, n))
}

func originOffice(loc models.Location) string {
	if loc.Province != "" {
		return loc.Province
	}
	if loc.Address != "" {
		return loc.Address
	}
	return "origen"
}

// newTrackingID builds a human-quotable id like CP7F3A9C21ES.
func newTrackingID() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "CP" + raw[:8] + "ES"
}

// keyedMutex serializes operations per tracking id so concurrent ship
// pipelines never interleave their timeline cursors. Entries are not
// reclaimed; the key space is small.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
