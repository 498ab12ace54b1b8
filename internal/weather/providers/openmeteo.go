package providers

import (
	"context"
	"net/url"

	"github.com/i474232898/weatherlab/internal/weather"
)

// DefaultForecastURL is the Open-Meteo forecast endpoint.
const DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"

// ForecastProvider implements weather.ForecastSource for Open-Meteo.
type ForecastProvider struct {
	httpCfg  HTTPClientConfig
	endpoint endpoint
}

// NewForecastProvider creates a forecast client. An empty baseURL uses DefaultForecastURL.
func NewForecastProvider(cfg HTTPClientConfig, baseURL string) *ForecastProvider {
	if baseURL == "" {
		baseURL = DefaultForecastURL
	}
	return &ForecastProvider{
		httpCfg:  cfg,
		endpoint: newEndpoint("openmeteo_forecast", baseURL),
	}
}

// FetchForecast returns the current temperature and today's min/max in Celsius.
func (p *ForecastProvider) FetchForecast(ctx context.Context, lat, lon float64, timezone string) (weather.ForecastReading, error) {
	if timezone == "" {
		timezone = weather.DefaultTimezone
	}

	values := url.Values{}
	values.Set("latitude", formatCoord(lat))
	values.Set("longitude", formatCoord(lon))
	values.Set("timezone", timezone)
	values.Set("current", "temperature_2m")
	values.Set("daily", "temperature_2m_min,temperature_2m_max")
	values.Set("forecast_days", "1")
	values.Set("temperature_unit", "celsius")

	// Fields are decoded loosely so a null or non-numeric value maps to nil.
	var payload struct {
		Current struct {
			Temperature any `json:"temperature_2m"`
		} `json:"current"`
		Daily struct {
			TempMin []any `json:"temperature_2m_min"`
			TempMax []any `json:"temperature_2m_max"`
		} `json:"daily"`
	}

	if err := getJSON(ctx, p.httpCfg, p.endpoint, values, &payload); err != nil {
		return weather.ForecastReading{}, err
	}

	return weather.ForecastReading{
		Current: numberOrNil(payload.Current.Temperature),
		Min:     firstNumber(payload.Daily.TempMin),
		Max:     firstNumber(payload.Daily.TempMax),
	}, nil
}
