package weather

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weatherlab/internal/observability"
)

// Resolver turns a LocationQuery into a WeatherSnapshot: it resolves the
// location, fetches forecast and observed data concurrently and merges them.
type Resolver struct {
	geocoder Geocoder
	forecast ForecastSource
	observed *ObservedAggregator
	logger   *slog.Logger
	metrics  instruments
}

// Option configures a Resolver.
type Option func(*resolverOptions)

type resolverOptions struct {
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// WithClock sets the time source used for the observation window.
func WithClock(c clockwork.Clock) Option {
	return func(o *resolverOptions) { o.clock = c }
}

// WithLogger sets the logger for swallowed failures and provider diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *resolverOptions) { o.logger = l }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *resolverOptions) { o.metrics = m }
}

// NewResolver creates a Resolver over the given providers.
func NewResolver(geocoder Geocoder, forecast ForecastSource, archive ArchiveSource, opts ...Option) *Resolver {
	o := resolverOptions{
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Resolver{
		geocoder: geocoder,
		forecast: forecast,
		observed: NewObservedAggregator(archive, o.clock),
		logger:   o.logger,
		metrics:  instruments{m: o.metrics},
	}
}

// ResolveWeather is the never-failing entry point: any failure is logged and
// collapsed to nil.
func (r *Resolver) ResolveWeather(ctx context.Context, q LocationQuery) *WeatherSnapshot {
	snap, err := r.Resolve(ctx, q)
	if err != nil {
		r.logger.Warn("weather resolution failed",
			"query", QueryKey(q),
			"kind", string(KindOf(err)),
			"error", err,
		)
		return nil
	}
	return snap
}

// Resolve is ResolveWeather with the failure reason. Errors are *ResolveError.
func (r *Resolver) Resolve(ctx context.Context, q LocationQuery) (*WeatherSnapshot, error) {
	snap, err := r.resolve(ctx, q)
	r.metrics.observeResolution(err)
	return snap, err
}

func (r *Resolver) resolve(ctx context.Context, q LocationQuery) (*WeatherSnapshot, error) {
	loc, err := r.Locate(ctx, q)
	if err != nil {
		return nil, err
	}

	fc, obs, err := r.fetch(ctx, loc)
	// A superseded request must not produce a result.
	if ctx.Err() != nil {
		return nil, failure(Canceled, ctx.Err())
	}
	if err != nil {
		return nil, err
	}

	snap := Merge(loc, fc, obs)
	return &snap, nil
}

// Locate resolves q to a ResolvedLocation with finite coordinates.
func (r *Resolver) Locate(ctx context.Context, q LocationQuery) (ResolvedLocation, error) {
	plan, err := Normalize(q)
	if err != nil {
		return ResolvedLocation{}, err
	}

	var loc ResolvedLocation
	switch plan.Strategy {
	case StrategyCoordinates:
		loc = r.reverseGeocode(ctx, plan.Lat, plan.Lon, plan.AllowReverseLookup)
	case StrategyForward, StrategyFallbackText:
		loc, err = r.geocodeCity(ctx, plan.Text)
		if err != nil {
			return ResolvedLocation{}, err
		}
	default:
		return ResolvedLocation{}, failure(NoUsableLocation, ErrNoUsableLocation)
	}

	if !isFinite(loc.Lat) || !isFinite(loc.Lon) {
		return ResolvedLocation{}, failure(NoUsableLocation, ErrNoUsableLocation)
	}
	r.logger.Debug("location resolved", "strategy", plan.Strategy.String(), "label", loc.Label)
	return loc, nil
}

// fetch runs the forecast and observed requests concurrently. Both must succeed.
func (r *Resolver) fetch(ctx context.Context, loc ResolvedLocation) (ForecastReading, ObservedReading, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg            sync.WaitGroup
		fc            ForecastReading
		obs           ObservedReading
		fcErr, obsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		fc, fcErr = r.forecast.FetchForecast(ctx, loc.Lat, loc.Lon, loc.Timezone)
		if fcErr != nil {
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		obs, obsErr = r.observed.Observe(ctx, loc.Lat, loc.Lon, loc.Timezone)
		if obsErr != nil {
			cancel()
		}
	}()
	wg.Wait()

	if err := errors.Join(fcErr, obsErr); err != nil {
		return ForecastReading{}, ObservedReading{}, failure(ProviderFailure, err)
	}
	if obs.Min == nil && obs.Max == nil {
		r.logger.Debug("observation window empty", "label", loc.Label, "kind", string(EmptyObservationWindow))
	}
	return fc, obs, nil
}

// instruments is a nil-safe facade over the Prometheus collectors.
type instruments struct {
	m *observability.Metrics
}

func (i instruments) observeVariant(idx int) {
	if i.m == nil {
		return
	}
	i.m.GeocodeVariants.WithLabelValues(strconv.Itoa(idx + 1)).Inc()
}

func (i instruments) observeResolution(err error) {
	if i.m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = string(KindOf(err))
	}
	i.m.Resolutions.WithLabelValues(outcome).Inc()
}
