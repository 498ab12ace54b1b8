package store

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weatherlab/internal/weather"
)

var (
	// ErrNotFound is returned when no record is available for a given location.
	ErrNotFound = errors.New("no weather records for location")
)

// MemoryStore is a concurrency-safe in-memory implementation of weather.Store.
type MemoryStore struct {
	mu    sync.RWMutex
	clock clockwork.Clock

	// key: record key, value: time-ordered history
	data map[string][]weather.Record

	// retention configuration
	maxHistory int           // max number of records per location
	maxAge     time.Duration // optional max age for records
}

var _ weather.Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited. A nil clock uses the real one.
func NewMemoryStore(maxHistory int, maxAge time.Duration, clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		clock:      clock,
		data:       make(map[string][]weather.Record),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SaveRecord appends a record under its key and enforces retention.
func (s *MemoryStore) SaveRecord(rec weather.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.data[rec.Key], rec)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}

	// Enforce retention by age. The newest record is always kept.
	if s.maxAge > 0 {
		cutoff := s.clock.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history)-1; i++ {
			if !history[i].ResolvedAt.Before(cutoff) {
				break
			}
		}
		history = history[i:]
	}

	s.data[rec.Key] = history
}

// GetLatest returns the most recent record for a key.
func (s *MemoryStore) GetLatest(key string) (weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[key]
	if len(history) == 0 {
		return weather.Record{}, ErrNotFound
	}
	return history[len(history)-1], nil
}

// GetRange returns all records for a key resolved between from and to (inclusive).
func (s *MemoryStore) GetRange(key string, from, to time.Time) ([]weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[key]
	if len(history) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.Record
	for _, rec := range history {
		if !rec.ResolvedAt.Before(from) && !rec.ResolvedAt.After(to) {
			result = append(result, rec)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
