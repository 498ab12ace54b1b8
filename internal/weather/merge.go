package weather

import (
	"strings"

	"github.com/i474232898/weatherlab/internal/common"
)

// Merge reconciles the forecast and observed readings into a snapshot.
// The current reading widens the observed range so that temp always lies
// within [TempMinObserved, TempMaxObserved] when both are present.
func Merge(loc ResolvedLocation, fc ForecastReading, obs ObservedReading) WeatherSnapshot {
	minObs, maxObs := obs.Min, obs.Max

	if fc.Current != nil {
		cur := *fc.Current
		if minObs == nil || cur < *minObs {
			minObs = float64Ptr(cur)
		}
		if maxObs == nil || cur > *maxObs {
			maxObs = float64Ptr(cur)
		}
	}

	temp := fc.Current
	if temp == nil && minObs != nil && maxObs != nil {
		temp = float64Ptr((*minObs + *maxObs) / 2)
	}

	label := strings.TrimSpace(loc.Label)
	if label == "" {
		label = formatCoordinates(loc.Lat, loc.Lon)
	}

	return WeatherSnapshot{
		Label:           label,
		Temp:            FormatTemp(temp),
		TempMinObserved: FormatTemp(minObs),
		TempMaxObserved: FormatTemp(maxObs),
		TempMinForecast: FormatTemp(fc.Min),
		TempMaxForecast: FormatTemp(fc.Max),
	}
}

// FormatTemp renders v with exactly one fractional digit, exact ties rounding
// away from zero; nil stays nil.
func FormatTemp(v *float64) *string {
	if v == nil || !isFinite(*v) {
		return nil
	}
	s := common.FormatFixed(*v, 1)
	return &s
}
