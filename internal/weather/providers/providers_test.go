package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weatherlab/internal/observability"
	"github.com/i474232898/weatherlab/internal/weather"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Client:  &http.Client{Timeout: 5 * time.Second},
		Logger:  observability.DiscardLogger(),
		Metrics: observability.NewMetricsForTesting(),
	}
}

func jsonServer(t *testing.T, check func(r *http.Request), body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeocodingProvider_Search(t *testing.T) {
	srv := jsonServer(t, func(r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "Paris", q.Get("name"))
		assert.Equal(t, "FR", q.Get("country"))
		assert.Equal(t, "5", q.Get("count"))
		assert.Equal(t, "es", q.Get("language"))
		assert.Equal(t, "json", q.Get("format"))
	}, `{"results":[
		{"name":"Paris","admin1":"Île-de-France","country":"France","country_code":"FR","feature_code":"PPLC","latitude":48.85341,"longitude":2.3488,"timezone":"Europe/Paris"},
		{"name":"Broken","country":"Nowhere"}
	]}`)

	p := NewGeocodingProvider(testConfig(), srv.URL, "", "es")
	cands, err := p.Search(context.Background(), weather.GeocodeRequest{Name: "Paris", Country: "FR"})
	require.NoError(t, err)

	require.Len(t, cands, 1, "results without coordinates are dropped")
	assert.Equal(t, weather.GeocodeCandidate{
		Name:        "Paris",
		Admin1:      "Île-de-France",
		Country:     "France",
		CountryCode: "FR",
		FeatureCode: "PPLC",
		Latitude:    48.85341,
		Longitude:   2.3488,
		Timezone:    "Europe/Paris",
	}, cands[0])
}

func TestGeocodingProvider_SearchWithoutCountry(t *testing.T) {
	srv := jsonServer(t, func(r *http.Request) {
		_, ok := r.URL.Query()["country"]
		assert.False(t, ok)
	}, `{"generationtime_ms":0.5}`)

	p := NewGeocodingProvider(testConfig(), srv.URL, "", "en")
	cands, err := p.Search(context.Background(), weather.GeocodeRequest{Name: "Atlantis"})
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestGeocodingProvider_Reverse(t *testing.T) {
	srv := jsonServer(t, func(r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "40.000000", q.Get("latitude"))
		assert.Equal(t, "-105.000000", q.Get("longitude"))
		assert.Equal(t, "5", q.Get("count"))
	}, `{"results":[{"name":"Boulder","admin1":"Colorado","country":"United States","feature_code":"PPLA2","latitude":40.01,"longitude":-105.27}]}`)

	p := NewGeocodingProvider(testConfig(), "", srv.URL, "en")
	cands, err := p.Reverse(context.Background(), 40, -105)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "Boulder", cands[0].Name)
}

func TestForecastProvider_FetchForecast(t *testing.T) {
	srv := jsonServer(t, func(r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "Europe/Paris", q.Get("timezone"))
		assert.Equal(t, "temperature_2m", q.Get("current"))
		assert.Equal(t, "temperature_2m_min,temperature_2m_max", q.Get("daily"))
		assert.Equal(t, "1", q.Get("forecast_days"))
		assert.Equal(t, "celsius", q.Get("temperature_unit"))
	}, `{"current":{"time":"2026-10-19T15:00","temperature_2m":18.3},
	     "daily":{"time":["2026-10-19"],"temperature_2m_min":[11.2],"temperature_2m_max":[19.8]}}`)

	p := NewForecastProvider(testConfig(), srv.URL)
	got, err := p.FetchForecast(context.Background(), 48.85, 2.35, "Europe/Paris")
	require.NoError(t, err)

	require.NotNil(t, got.Current)
	assert.Equal(t, 18.3, *got.Current)
	assert.Equal(t, 11.2, *got.Min)
	assert.Equal(t, 19.8, *got.Max)
}

func TestForecastProvider_MissingFieldsAreNil(t *testing.T) {
	srv := jsonServer(t, nil, `{"current":{"temperature_2m":"n/a"},"daily":{"temperature_2m_min":[null],"temperature_2m_max":[]}}`)

	p := NewForecastProvider(testConfig(), srv.URL)
	got, err := p.FetchForecast(context.Background(), 1, 2, "")
	require.NoError(t, err)

	assert.Nil(t, got.Current)
	assert.Nil(t, got.Min)
	assert.Nil(t, got.Max)
}

func TestArchiveProvider_FetchHourly(t *testing.T) {
	srv := jsonServer(t, func(r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2026-10-19", q.Get("start_date"))
		assert.Equal(t, "2026-10-19", q.Get("end_date"))
		assert.Equal(t, "temperature_2m", q.Get("hourly"))
		assert.Equal(t, "auto", q.Get("timezone"))
	}, `{"utc_offset_seconds":7200,"hourly":{
		"time":["2026-10-19T00:00","2026-10-19T01:00","garbage","2026-10-19T03:00"],
		"temperature_2m":[12.0,null,13.0,14.5]}}`)

	p := NewArchiveProvider(testConfig(), srv.URL)
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	got, err := p.FetchHourly(context.Background(), 48.85, 2.35, "", day)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.True(t, got[0].Time.Equal(time.Date(2026, 10, 18, 22, 0, 0, 0, time.UTC)))
	assert.Equal(t, 12.0, *got[0].TempC)
	assert.Nil(t, got[1].TempC)
	assert.Equal(t, 14.5, *got[2].TempC)
}

func TestArchiveProvider_MismatchedLengths(t *testing.T) {
	srv := jsonServer(t, nil, `{"hourly":{"time":["2026-10-19T00:00","2026-10-19T01:00"],"temperature_2m":[3.5]}}`)

	p := NewArchiveProvider(testConfig(), srv.URL)
	got, err := p.FetchHourly(context.Background(), 0, 0, "UTC", time.Now())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestGetJSON_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, want: errRateLimited},
		{name: "server error", status: http.StatusBadGateway, want: errServerError},
		{name: "bad request", status: http.StatusBadRequest, want: errUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls++
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":true,"reason":"nope"}`))
			}))
			defer srv.Close()

			cfg := testConfig()
			p := NewForecastProvider(cfg, srv.URL)
			_, err := p.FetchForecast(context.Background(), 1, 2, "auto")

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 1, calls, "requests are never retried")
			assert.Equal(t, 1.0, testutil.ToFloat64(cfg.Metrics.ProviderRequests.WithLabelValues("openmeteo_forecast", "error")))
		})
	}
}

func TestGetJSON_DecodeError(t *testing.T) {
	srv := jsonServer(t, nil, `{not json`)

	_, err := NewForecastProvider(testConfig(), srv.URL).FetchForecast(context.Background(), 1, 2, "auto")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestGetJSON_CircuitOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewForecastProvider(testConfig(), srv.URL)

	// The default breaker trips after more than five consecutive failures.
	var err error
	for i := 0; i < 7; i++ {
		_, err = p.FetchForecast(context.Background(), 1, 2, "auto")
	}
	require.Error(t, err)
	assert.ErrorIs(t, err, errCircuitOpen)
	assert.Equal(t, gobreaker.StateOpen, p.endpoint.circuit.State())
}

func TestGetJSON_CanceledRequestsKeepCircuitClosed(t *testing.T) {
	srv := jsonServer(t, nil, `{"current":{"temperature_2m":21.4},"daily":{"temperature_2m_min":[14.0],"temperature_2m_max":[23.1]}}`)
	p := NewForecastProvider(testConfig(), srv.URL)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 10; i++ {
		_, err := p.FetchForecast(canceled, 1, 2, "auto")
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, p.endpoint.circuit.State())

	got, err := p.FetchForecast(context.Background(), 1, 2, "auto")
	require.NoError(t, err)
	require.NotNil(t, got.Current)
	assert.Equal(t, 21.4, *got.Current)
}

func TestGetJSON_ClientErrorsKeepCircuitClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewForecastProvider(testConfig(), srv.URL)
	for i := 0; i < 10; i++ {
		_, err := p.FetchForecast(context.Background(), 1, 2, "auto")
		require.ErrorIs(t, err, errUnexpected)
	}
	assert.Equal(t, gobreaker.StateClosed, p.endpoint.circuit.State())
}

func TestGetJSON_NoClient(t *testing.T) {
	p := NewForecastProvider(HTTPClientConfig{}, "http://127.0.0.1:0")
	_, err := p.FetchForecast(context.Background(), 1, 2, "auto")
	assert.ErrorIs(t, err, errNoHTTPClient)
}

func TestGetJSON_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Client = &http.Client{Timeout: 50 * time.Millisecond}

	_, err := NewArchiveProvider(cfg, srv.URL).FetchHourly(context.Background(), 1, 2, "auto", time.Now())
	require.Error(t, err)
}
