package providers

import (
	"context"
	"net/url"
	"strconv"

	"github.com/i474232898/weatherlab/internal/weather"
)

const (
	// DefaultGeocodingURL is the Open-Meteo forward geocoding endpoint.
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	// DefaultReverseGeocodingURL is the reverse geocoding endpoint.
	DefaultReverseGeocodingURL = "https://geocoding-api.open-meteo.com/v1/reverse"
)

// GeocodingProvider implements weather.Geocoder against the Open-Meteo geocoding API.
type GeocodingProvider struct {
	httpCfg  HTTPClientConfig
	language string
	search   endpoint
	reverse  endpoint
}

// NewGeocodingProvider creates a geocoding client. Empty URLs use the defaults.
func NewGeocodingProvider(cfg HTTPClientConfig, searchURL, reverseURL, language string) *GeocodingProvider {
	if searchURL == "" {
		searchURL = DefaultGeocodingURL
	}
	if reverseURL == "" {
		reverseURL = DefaultReverseGeocodingURL
	}
	if language == "" {
		language = "en"
	}
	return &GeocodingProvider{
		httpCfg:  cfg,
		language: language,
		search:   newEndpoint("openmeteo_geocoding", searchURL),
		reverse:  newEndpoint("openmeteo_reverse_geocoding", reverseURL),
	}
}

// Search returns up to five candidates for the name, optionally restricted to a country.
func (p *GeocodingProvider) Search(ctx context.Context, req weather.GeocodeRequest) ([]weather.GeocodeCandidate, error) {
	values := url.Values{}
	values.Set("name", req.Name)
	if req.Country != "" {
		values.Set("country", req.Country)
	}
	values.Set("count", strconv.Itoa(resultCount))
	values.Set("language", p.language)
	values.Set("format", "json")

	return p.fetch(ctx, p.search, values)
}

// Reverse returns up to five places near the coordinates.
func (p *GeocodingProvider) Reverse(ctx context.Context, lat, lon float64) ([]weather.GeocodeCandidate, error) {
	values := url.Values{}
	values.Set("latitude", formatCoord(lat))
	values.Set("longitude", formatCoord(lon))
	values.Set("count", strconv.Itoa(resultCount))
	values.Set("language", p.language)
	values.Set("format", "json")

	return p.fetch(ctx, p.reverse, values)
}

func (p *GeocodingProvider) fetch(ctx context.Context, ep endpoint, values url.Values) ([]weather.GeocodeCandidate, error) {
	var payload struct {
		Results []struct {
			Name        string   `json:"name"`
			Admin1      string   `json:"admin1"`
			Country     string   `json:"country"`
			CountryCode string   `json:"country_code"`
			FeatureCode string   `json:"feature_code"`
			Latitude    *float64 `json:"latitude"`
			Longitude   *float64 `json:"longitude"`
			Timezone    string   `json:"timezone"`
		} `json:"results"`
	}

	if err := getJSON(ctx, p.httpCfg, ep, values, &payload); err != nil {
		return nil, err
	}

	cands := make([]weather.GeocodeCandidate, 0, len(payload.Results))
	for _, r := range payload.Results {
		// Results without coordinates are unusable.
		if r.Latitude == nil || r.Longitude == nil {
			continue
		}
		cands = append(cands, weather.GeocodeCandidate{
			Name:        r.Name,
			Admin1:      r.Admin1,
			Country:     r.Country,
			CountryCode: r.CountryCode,
			FeatureCode: r.FeatureCode,
			Latitude:    *r.Latitude,
			Longitude:   *r.Longitude,
			Timezone:    r.Timezone,
		})
	}
	return cands, nil
}
