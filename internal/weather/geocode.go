package weather

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/i474232898/weatherlab/internal/common"
)

// primaryCityFeature is the GeoNames feature code of a first-order administrative seat.
const primaryCityFeature = "PPLA"

// BuildVariants returns the query formulations to try, in order, for a place name.
// "City, CC" yields {City, CC}, then {City}, then the full text.
func BuildVariants(text string) []GeocodeRequest {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	var variants []GeocodeRequest
	if strings.Contains(trimmed, ",") {
		var parts []string
		for _, p := range strings.Split(trimmed, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) >= 2 {
			city := parts[0]
			if code, ok := countryCode(parts[len(parts)-1]); ok {
				variants = append(variants,
					GeocodeRequest{Name: city, Country: code},
					GeocodeRequest{Name: city},
				)
			}
		}
	}

	return append(variants, GeocodeRequest{Name: trimmed})
}

func countryCode(s string) (string, bool) {
	if utf8.RuneCountInString(s) != 2 {
		return "", false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return "", false
		}
	}
	return strings.ToUpper(s), true
}

// SelectCandidate picks the first candidate matching country by code or name,
// falling back to the first candidate. ok is false when there are none.
func SelectCandidate(cands []GeocodeCandidate, country string) (GeocodeCandidate, bool) {
	if len(cands) == 0 {
		return GeocodeCandidate{}, false
	}
	if country != "" {
		fold := cases.Fold()
		want := fold.String(country)
		for _, c := range cands {
			if fold.String(c.CountryCode) == want || fold.String(c.Country) == want {
				return c, true
			}
		}
	}
	return cands[0], true
}

// SelectReverseCandidate prefers an administrative seat over the nearest place.
func SelectReverseCandidate(cands []GeocodeCandidate) (GeocodeCandidate, bool) {
	if len(cands) == 0 {
		return GeocodeCandidate{}, false
	}
	for _, c := range cands {
		if c.FeatureCode == primaryCityFeature {
			return c, true
		}
	}
	return cands[0], true
}

// CandidateLabel renders "name, admin region, country", skipping empty parts.
func CandidateLabel(c GeocodeCandidate) string {
	return common.JoinNonEmpty(", ", c.Name, c.Admin1, c.Country)
}

func candidateLocation(c GeocodeCandidate) ResolvedLocation {
	tz := c.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	label := CandidateLabel(c)
	if label == "" {
		label = formatCoordinates(c.Latitude, c.Longitude)
	}
	return ResolvedLocation{
		Lat:      c.Latitude,
		Lon:      c.Longitude,
		Label:    label,
		Timezone: tz,
	}
}

// geocodeCity tries each variant in order and stops at the first that yields
// any candidate. A provider error aborts the search.
func (r *Resolver) geocodeCity(ctx context.Context, text string) (ResolvedLocation, error) {
	for i, v := range BuildVariants(text) {
		r.metrics.observeVariant(i)

		cands, err := r.geocoder.Search(ctx, v)
		if err != nil {
			return ResolvedLocation{}, failure(ProviderFailure, err)
		}
		cands = usableCandidates(cands)
		if len(cands) == 0 {
			r.logger.Debug("geocoding variant yielded nothing", "name", v.Name, "country", v.Country)
			continue
		}

		c, _ := SelectCandidate(cands, v.Country)
		return candidateLocation(c), nil
	}
	return ResolvedLocation{}, failure(GeocodingMiss, ErrGeocodingMiss)
}

// reverseGeocode never fails: provider errors and empty results fall back to
// the input coordinates.
func (r *Resolver) reverseGeocode(ctx context.Context, lat, lon float64, allow bool) ResolvedLocation {
	fallback := ResolvedLocation{
		Lat:      lat,
		Lon:      lon,
		Label:    formatCoordinates(lat, lon),
		Timezone: DefaultTimezone,
	}
	if !allow {
		return fallback
	}

	cands, err := r.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		r.logger.Warn("reverse geocoding failed", "lat", lat, "lon", lon, "error", err)
		return fallback
	}
	c, ok := SelectReverseCandidate(usableCandidates(cands))
	if !ok {
		return fallback
	}
	return candidateLocation(c)
}

func usableCandidates(cands []GeocodeCandidate) []GeocodeCandidate {
	out := cands[:0:0]
	for _, c := range cands {
		if isFinite(c.Latitude) && isFinite(c.Longitude) {
			out = append(out, c)
		}
	}
	return out
}
