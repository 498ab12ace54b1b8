package weather

import (
	"context"
	"sync"
	"time"
)

type fakeGeocoder struct {
	mu            sync.Mutex
	searchResults map[GeocodeRequest][]GeocodeCandidate
	searchErr     error
	reverseResult []GeocodeCandidate
	reverseErr    error
	searches      []GeocodeRequest
	reverseCalls  int
}

func (f *fakeGeocoder) Search(_ context.Context, req GeocodeRequest) ([]GeocodeCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, req)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults[req], nil
}

func (f *fakeGeocoder) Reverse(_ context.Context, _, _ float64) ([]GeocodeCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reverseCalls++
	return f.reverseResult, f.reverseErr
}

type fakeForecast struct {
	reading ForecastReading
	err     error
	calls   int
	lastTZ  string
}

func (f *fakeForecast) FetchForecast(_ context.Context, _, _ float64, timezone string) (ForecastReading, error) {
	f.calls++
	f.lastTZ = timezone
	return f.reading, f.err
}

type fakeArchive struct {
	readings []HourlyReading
	err      error
	lastDay  time.Time
}

func (f *fakeArchive) FetchHourly(_ context.Context, _, _ float64, _ string, day time.Time) ([]HourlyReading, error) {
	f.lastDay = day
	return f.readings, f.err
}

type fakeStore struct {
	mu      sync.Mutex
	records []Record
}

func (s *fakeStore) SaveRecord(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

func (s *fakeStore) GetLatest(string) (Record, error) { return Record{}, nil }

func (s *fakeStore) GetRange(string, time.Time, time.Time) ([]Record, error) { return nil, nil }

func hourly(day time.Time, temps ...float64) []HourlyReading {
	out := make([]HourlyReading, 0, len(temps))
	for i, v := range temps {
		out = append(out, HourlyReading{Time: day.Add(time.Duration(i) * time.Hour), TempC: float64Ptr(v)})
	}
	return out
}
