package weather

import (
	"context"
	"time"
)

// GeocodeRequest is one query formulation sent to the forward geocoder.
type GeocodeRequest struct {
	Name    string
	Country string // optional ISO 3166-1 alpha-2 code
}

// Geocoder abstracts the forward and reverse geocoding provider.
type Geocoder interface {
	Search(ctx context.Context, req GeocodeRequest) ([]GeocodeCandidate, error)
	Reverse(ctx context.Context, lat, lon float64) ([]GeocodeCandidate, error)
}

// ForecastSource returns the current temperature and today's forecast range.
type ForecastSource interface {
	FetchForecast(ctx context.Context, lat, lon float64, timezone string) (ForecastReading, error)
}

// ArchiveSource returns the archived hourly temperatures for a single calendar day.
type ArchiveSource interface {
	FetchHourly(ctx context.Context, lat, lon float64, timezone string, day time.Time) ([]HourlyReading, error)
}

// Store is the contract the in-memory record store must satisfy.
type Store interface {
	SaveRecord(rec Record)
	GetLatest(key string) (Record, error)
	GetRange(key string, from, to time.Time) ([]Record, error)
}
