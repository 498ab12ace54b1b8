package weather

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// ObservedAggregator computes today's observed min/max up to the current instant.
type ObservedAggregator struct {
	archive ArchiveSource
	clock   clockwork.Clock
}

// NewObservedAggregator creates an ObservedAggregator. A nil clock uses real time.
func NewObservedAggregator(archive ArchiveSource, clock clockwork.Clock) *ObservedAggregator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ObservedAggregator{archive: archive, clock: clock}
}

// Observe fetches today's hourly archive and summarizes the readings at or before now.
// An empty window is not an error: both bounds are nil.
func (a *ObservedAggregator) Observe(ctx context.Context, lat, lon float64, timezone string) (ObservedReading, error) {
	now := a.clock.Now()
	readings, err := a.archive.FetchHourly(ctx, lat, lon, timezone, ObservationDay(now, timezone))
	if err != nil {
		return ObservedReading{}, err
	}
	return SummarizeObserved(readings, now), nil
}

// ObservationDay is midnight of the current date in timezone, or in UTC when the
// timezone is "auto" or unknown.
func ObservationDay(now time.Time, timezone string) time.Time {
	loc := time.UTC
	if timezone != "" && timezone != DefaultTimezone {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		}
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// SummarizeObserved returns the min and max of readings stamped at or before now.
// Slots in the future and slots without a value are ignored.
func SummarizeObserved(readings []HourlyReading, now time.Time) ObservedReading {
	var out ObservedReading
	for _, r := range readings {
		if r.Time.IsZero() || r.Time.After(now) || r.TempC == nil || !isFinite(*r.TempC) {
			continue
		}
		v := *r.TempC
		if out.Min == nil || v < *out.Min {
			out.Min = float64Ptr(v)
		}
		if out.Max == nil || v > *out.Max {
			out.Max = float64Ptr(v)
		}
	}
	return out
}
