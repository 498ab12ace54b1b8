package providers

import (
	"context"
	"net/url"
	"time"

	"github.com/i474232898/weatherlab/internal/weather"
)

// DefaultArchiveURL is the Open-Meteo historical weather endpoint.
const DefaultArchiveURL = "https://archive-api.open-meteo.com/v1/archive"

// hourLayout is the local, offset-free timestamp format of hourly slots.
const hourLayout = "2006-01-02T15:04"

// ArchiveProvider implements weather.ArchiveSource for Open-Meteo.
type ArchiveProvider struct {
	httpCfg  HTTPClientConfig
	endpoint endpoint
}

// NewArchiveProvider creates an archive client. An empty baseURL uses DefaultArchiveURL.
func NewArchiveProvider(cfg HTTPClientConfig, baseURL string) *ArchiveProvider {
	if baseURL == "" {
		baseURL = DefaultArchiveURL
	}
	return &ArchiveProvider{
		httpCfg:  cfg,
		endpoint: newEndpoint("openmeteo_archive", baseURL),
	}
}

// FetchHourly returns the hourly temperatures of day. The provider may include
// slots later than now; filtering is left to the caller.
func (p *ArchiveProvider) FetchHourly(ctx context.Context, lat, lon float64, timezone string, day time.Time) ([]weather.HourlyReading, error) {
	if timezone == "" {
		timezone = weather.DefaultTimezone
	}
	date := day.Format(time.DateOnly)

	values := url.Values{}
	values.Set("latitude", formatCoord(lat))
	values.Set("longitude", formatCoord(lon))
	values.Set("timezone", timezone)
	values.Set("start_date", date)
	values.Set("end_date", date)
	values.Set("hourly", "temperature_2m")
	values.Set("temperature_unit", "celsius")

	var payload struct {
		UTCOffsetSeconds int `json:"utc_offset_seconds"`
		Hourly           struct {
			Time        []string `json:"time"`
			Temperature []any    `json:"temperature_2m"`
		} `json:"hourly"`
	}

	if err := getJSON(ctx, p.httpCfg, p.endpoint, values, &payload); err != nil {
		return nil, err
	}

	zone := time.FixedZone("", payload.UTCOffsetSeconds)
	n := min(len(payload.Hourly.Time), len(payload.Hourly.Temperature))

	readings := make([]weather.HourlyReading, 0, n)
	for i := 0; i < n; i++ {
		ts, err := time.ParseInLocation(hourLayout, payload.Hourly.Time[i], zone)
		if err != nil {
			continue
		}
		readings = append(readings, weather.HourlyReading{
			Time:  ts,
			TempC: numberOrNil(payload.Hourly.Temperature[i]),
		})
	}
	return readings, nil
}
