package weather

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weatherlab/internal/observability"
)

// scriptedResolver answers by query key; a key present in gates blocks until
// its channel is closed.
type scriptedResolver struct {
	mu      sync.Mutex
	answers map[string]*WeatherSnapshot
	gates   map[string]chan struct{}
	calls   []string
}

func (s *scriptedResolver) ResolveWeather(ctx context.Context, q LocationQuery) *WeatherSnapshot {
	key := QueryKey(q)
	s.mu.Lock()
	s.calls = append(s.calls, key)
	gate := s.gates[key]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers[key]
}

func newTestTracker(res SnapshotResolver, store Store, def LocationQuery, metrics *observability.Metrics) *Tracker {
	return NewTracker(res, store, def, clockwork.NewFakeClockAt(testNow), observability.DiscardLogger(), metrics)
}

func TestTracker_AppliesAndStores(t *testing.T) {
	res := &scriptedResolver{answers: map[string]*WeatherSnapshot{
		QueryKey(CityName("Lima")): {Label: "Lima, Peru", Temp: str("19.0")},
	}}
	store := &fakeStore{}
	tr := newTestTracker(res, store, nil, nil)

	rec, outcome := tr.Track(context.Background(), CityName("Lima"))

	assert.Equal(t, Applied, outcome)
	assert.Equal(t, "Lima, Peru", rec.Key)
	assert.False(t, rec.Fallback)
	assert.Equal(t, testNow, rec.ResolvedAt)
	require.Len(t, store.records, 1)
	assert.Equal(t, rec, store.records[0])

	cur, ok := tr.Current()
	assert.True(t, ok)
	assert.Equal(t, rec, cur)
}

func TestTracker_FallsBackToDefault(t *testing.T) {
	def := CityName("Santiago, CL")
	res := &scriptedResolver{answers: map[string]*WeatherSnapshot{
		QueryKey(def): {Label: "Santiago, Santiago Metropolitan, Chile"},
	}}
	metrics := observability.NewMetricsForTesting()
	tr := newTestTracker(res, &fakeStore{}, def, metrics)

	rec, outcome := tr.Track(context.Background(), CityName("Atlantis"))

	assert.Equal(t, Applied, outcome)
	assert.True(t, rec.Fallback)
	assert.Equal(t, "Santiago, Santiago Metropolitan, Chile", rec.Snapshot.Label)
	assert.Equal(t, []string{QueryKey(CityName("Atlantis")), QueryKey(def)}, res.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TrackerFallbacks))

	// The default is now the tracked query.
	_, _, err := tr.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, QueryKey(def), res.calls[len(res.calls)-1])
}

func TestTracker_DefaultNotRetriedForItself(t *testing.T) {
	def := CityName("Santiago, CL")
	res := &scriptedResolver{}
	tr := newTestTracker(res, &fakeStore{}, def, nil)

	_, outcome := tr.Track(context.Background(), def)

	assert.Equal(t, Unresolved, outcome)
	assert.Len(t, res.calls, 1)
	_, ok := tr.Current()
	assert.False(t, ok)
}

func TestTracker_NoDefaultConfigured(t *testing.T) {
	tr := newTestTracker(&scriptedResolver{}, &fakeStore{}, nil, nil)

	_, outcome := tr.Track(context.Background(), CityName("Atlantis"))
	assert.Equal(t, Unresolved, outcome)

	_, outcome, err := newTestTracker(&scriptedResolver{}, nil, nil, nil).Refresh(context.Background())
	assert.Equal(t, Unresolved, outcome)
	assert.ErrorIs(t, err, ErrNothingTracked)
}

func TestTracker_DiscardsSupersededResult(t *testing.T) {
	slow := CityName("Slowtown")
	fast := CityName("Fastville")
	gate := make(chan struct{})
	res := &scriptedResolver{
		answers: map[string]*WeatherSnapshot{
			QueryKey(slow): {Label: "Slowtown"},
			QueryKey(fast): {Label: "Fastville"},
		},
		gates: map[string]chan struct{}{QueryKey(slow): gate},
	}
	metrics := observability.NewMetricsForTesting()
	store := &fakeStore{}
	tr := newTestTracker(res, store, nil, metrics)

	type result struct {
		rec     Record
		outcome Outcome
	}
	slowDone := make(chan result, 1)
	go func() {
		rec, outcome := tr.Track(context.Background(), slow)
		slowDone <- result{rec, outcome}
	}()

	require.Eventually(t, func() bool {
		res.mu.Lock()
		defer res.mu.Unlock()
		return len(res.calls) == 1
	}, time.Second, 5*time.Millisecond)

	rec, outcome := tr.Track(context.Background(), fast)
	assert.Equal(t, Applied, outcome)
	assert.Equal(t, "Fastville", rec.Key)

	close(gate)
	got := <-slowDone
	assert.Equal(t, Superseded, got.outcome)

	cur, _ := tr.Current()
	assert.Equal(t, "Fastville", cur.Key)
	assert.Len(t, store.records, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TrackerSuperseded))
}

func TestTracker_TrackDuringRefreshWins(t *testing.T) {
	old := CityName("Lima")
	newer := CityName("Cusco")
	gate := make(chan struct{})
	res := &scriptedResolver{
		answers: map[string]*WeatherSnapshot{
			QueryKey(old):   {Label: "Lima, Peru"},
			QueryKey(newer): {Label: "Cusco, Peru"},
		},
	}
	tr := newTestTracker(res, &fakeStore{}, nil, nil)

	_, outcome := tr.Track(context.Background(), old)
	require.Equal(t, Applied, outcome)

	res.mu.Lock()
	res.gates = map[string]chan struct{}{QueryKey(old): gate}
	res.calls = nil
	res.mu.Unlock()

	type result struct {
		outcome Outcome
		err     error
	}
	refreshDone := make(chan result, 1)
	go func() {
		_, outcome, err := tr.Refresh(context.Background())
		refreshDone <- result{outcome, err}
	}()

	require.Eventually(t, func() bool {
		res.mu.Lock()
		defer res.mu.Unlock()
		return len(res.calls) == 1
	}, time.Second, 5*time.Millisecond)

	rec, outcome := tr.Track(context.Background(), newer)
	assert.Equal(t, Applied, outcome)
	assert.Equal(t, "Cusco, Peru", rec.Key)

	close(gate)
	got := <-refreshDone
	require.NoError(t, got.err)
	assert.Equal(t, Superseded, got.outcome)

	cur, _ := tr.Current()
	assert.Equal(t, "Cusco, Peru", cur.Key)

	rec, outcome, err := tr.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)
	assert.Equal(t, "Cusco, Peru", rec.Key, "refresh follows the newest tracked query")
}
