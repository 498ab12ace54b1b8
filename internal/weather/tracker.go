package weather

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weatherlab/internal/observability"
)

// Outcome reports what happened to a tracked resolution.
type Outcome int

const (
	// Applied means the snapshot became the current one.
	Applied Outcome = iota
	// Superseded means a newer request started before this one finished.
	Superseded
	// Unresolved means neither the query nor the default location resolved.
	Unresolved
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Superseded:
		return "superseded"
	default:
		return "unresolved"
	}
}

// ErrNothingTracked is returned by Refresh before any location was tracked.
var ErrNothingTracked = errors.New("no location is being tracked")

// SnapshotResolver is the never-failing resolution entry point.
type SnapshotResolver interface {
	ResolveWeather(ctx context.Context, q LocationQuery) *WeatherSnapshot
}

// Tracker follows the caller's current location. Each Track call starts a new
// generation; a result is applied only if its generation is still the newest.
type Tracker struct {
	resolver     SnapshotResolver
	store        Store
	defaultQuery LocationQuery
	clock        clockwork.Clock
	logger       *slog.Logger
	metrics      *observability.Metrics

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	current LocationQuery
	latest  *Record
}

// NewTracker creates a Tracker. defaultQuery may be nil, which disables the
// fallback tier.
func NewTracker(resolver SnapshotResolver, store Store, defaultQuery LocationQuery, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Tracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		resolver:     resolver,
		store:        store,
		defaultQuery: defaultQuery,
		clock:        clock,
		logger:       logger,
		metrics:      metrics,
	}
}

// Track makes q the tracked location and resolves it, cancelling any
// resolution still in flight.
func (t *Tracker) Track(ctx context.Context, q LocationQuery) (Record, Outcome) {
	t.mu.Lock()
	ctx, cancel, gen := t.beginLocked(ctx, q)
	t.mu.Unlock()
	defer cancel()

	return t.run(ctx, gen, q)
}

// Refresh re-resolves the tracked location, or the default when nothing is
// tracked. The query is read and its generation started under one lock.
func (t *Tracker) Refresh(ctx context.Context) (Record, Outcome, error) {
	t.mu.Lock()
	q := t.current
	if q == nil {
		q = t.defaultQuery
	}
	if q == nil {
		t.mu.Unlock()
		return Record{}, Unresolved, ErrNothingTracked
	}
	ctx, cancel, gen := t.beginLocked(ctx, q)
	t.mu.Unlock()
	defer cancel()

	rec, outcome := t.run(ctx, gen, q)
	return rec, outcome, nil
}

// beginLocked starts a new generation for q and cancels the previous one.
// t.mu must be held.
func (t *Tracker) beginLocked(ctx context.Context, q LocationQuery) (context.Context, context.CancelFunc, uint64) {
	t.gen++
	if t.cancel != nil {
		t.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.current = q
	return ctx, cancel, t.gen
}

func (t *Tracker) run(ctx context.Context, gen uint64, q LocationQuery) (Record, Outcome) {
	snap, fallback := t.resolveWithFallback(ctx, q)

	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen {
		t.logger.Info("discarding superseded resolution", "query", QueryKey(q), "generation", gen)
		if t.metrics != nil {
			t.metrics.TrackerSuperseded.Inc()
		}
		return Record{}, Superseded
	}
	t.cancel = nil

	if snap == nil {
		return Record{}, Unresolved
	}

	key := snap.Label
	if fallback {
		t.current = t.defaultQuery
	}
	rec := Record{
		ID:         uuid.New(),
		Key:        key,
		Snapshot:   *snap,
		Fallback:   fallback,
		ResolvedAt: t.clock.Now().UTC(),
	}
	t.latest = &rec
	if t.store != nil {
		t.store.SaveRecord(rec)
	}
	return rec, Applied
}

// Current returns the most recently applied record.
func (t *Tracker) Current() (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.latest == nil {
		return Record{}, false
	}
	return *t.latest, true
}

func (t *Tracker) resolveWithFallback(ctx context.Context, q LocationQuery) (*WeatherSnapshot, bool) {
	if snap := t.resolver.ResolveWeather(ctx, q); snap != nil {
		return snap, false
	}
	if t.defaultQuery == nil || ctx.Err() != nil || QueryKey(q) == QueryKey(t.defaultQuery) {
		return nil, false
	}

	t.logger.Info("falling back to default location", "query", QueryKey(q), "default", QueryKey(t.defaultQuery))
	if t.metrics != nil {
		t.metrics.TrackerFallbacks.Inc()
	}
	snap := t.resolver.ResolveWeather(ctx, t.defaultQuery)
	return snap, snap != nil
}
