package weather

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weatherlab/internal/common"
)

// DefaultTimezone lets the provider pick the timezone from the coordinates.
const DefaultTimezone = "auto"

// LocationQuery is an ambiguous location description supplied by a caller.
// It is one of CityName, Coordinates or StructuredHint.
type LocationQuery interface {
	// String is the stringified form used as the last-resort geocoding text.
	String() string
	isLocationQuery()
}

// CityName is a free-text place name such as "Paris, FR".
type CityName string

func (c CityName) String() string { return strings.TrimSpace(string(c)) }
func (CityName) isLocationQuery() {}

// Coordinates is a latitude/longitude pair, typically from device geolocation.
type Coordinates struct {
	Lat                float64
	Lon                float64
	AllowReverseLookup bool
}

func (c Coordinates) String() string {
	if !isFinite(c.Lat) || !isFinite(c.Lon) {
		return ""
	}
	return formatCoordinates(c.Lat, c.Lon)
}

func (Coordinates) isLocationQuery() {}

// StructuredHint carries whichever fields a caller managed to collect.
// City wins over Name; Raw is free text tried only when nothing else is usable.
// A nil AllowReverseLookup means reverse lookup is allowed.
type StructuredHint struct {
	City               string
	Name               string
	Raw                string
	Lat                *float64
	Lon                *float64
	AllowReverseLookup *bool
}

func (h StructuredHint) String() string { return strings.TrimSpace(h.Raw) }
func (StructuredHint) isLocationQuery() {}

// QueryKey returns a stable key for a query, used to detect repeated queries.
func QueryKey(q LocationQuery) string {
	switch v := q.(type) {
	case CityName:
		return "city:" + strings.ToLower(v.String())
	case Coordinates:
		return fmt.Sprintf("coords:%.4f,%.4f", v.Lat, v.Lon)
	case StructuredHint:
		var lat, lon string
		if v.Lat != nil {
			lat = strconv.FormatFloat(*v.Lat, 'f', 4, 64)
		}
		if v.Lon != nil {
			lon = strconv.FormatFloat(*v.Lon, 'f', 4, 64)
		}
		return strings.ToLower(fmt.Sprintf("hint:%s|%s|%s|%s,%s",
			strings.TrimSpace(v.City), strings.TrimSpace(v.Name), v.String(), lat, lon))
	default:
		return ""
	}
}

// ResolvedLocation is a canonical place with finite coordinates and a non-empty label.
type ResolvedLocation struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Label    string  `json:"label"`
	Timezone string  `json:"timezone"`
}

// GeocodeCandidate is one raw result from a geocoding provider.
type GeocodeCandidate struct {
	Name        string  `json:"name"`
	Admin1      string  `json:"admin1"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	FeatureCode string  `json:"feature_code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
}

// ForecastReading is today's forecast; nil fields mean the provider had no value.
type ForecastReading struct {
	Current *float64
	Min     *float64
	Max     *float64
}

// HourlyReading is one archived hourly temperature slot.
type HourlyReading struct {
	Time  time.Time
	TempC *float64
}

// ObservedReading is the min/max of today's readings up to now.
type ObservedReading struct {
	Min *float64
	Max *float64
}

// WeatherSnapshot is the reconciled view handed to collaborators. Every
// temperature is a one-decimal string, or nil when no data was available.
type WeatherSnapshot struct {
	Label           string  `json:"label"`
	Temp            *string `json:"temp"`
	TempMinObserved *string `json:"tempMinObserved"`
	TempMaxObserved *string `json:"tempMaxObserved"`
	TempMinForecast *string `json:"tempMinForecast"`
	TempMaxForecast *string `json:"tempMaxForecast"`
}

// Record is an applied snapshot for a tracked location.
type Record struct {
	ID         uuid.UUID       `json:"id"`
	Key        string          `json:"key"`
	Snapshot   WeatherSnapshot `json:"snapshot"`
	Fallback   bool            `json:"fallback"`
	ResolvedAt time.Time       `json:"resolvedAt"` // always UTC
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func formatCoordinates(lat, lon float64) string {
	return common.FormatFixed(lat, 2) + ", " + common.FormatFixed(lon, 2)
}

func float64Ptr(v float64) *float64 { return &v }
